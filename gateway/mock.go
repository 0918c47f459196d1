package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
)

// MockClient simulates the bank in process.
// Transfers succeed unless the account is declined or the amount exceeds MaxAmount.
type MockClient struct {
	mu        sync.Mutex
	declined  map[string]bool
	maxAmount decimal.NullDecimal
	transfers []Instruction
}

// NewMockClient initializes the simulator; maxAmount is ignored when not Valid
func NewMockClient(declinedAccounts []string, maxAmount decimal.NullDecimal) *MockClient {
	declined := make(map[string]bool, len(declinedAccounts))
	for _, acc := range declinedAccounts {
		declined[acc] = true
	}
	return &MockClient{
		declined:  declined,
		maxAmount: maxAmount,
	}
}

// Transfer validates the instruction against the simulated bank rules
func (c *MockClient) Transfer(ctx context.Context, in Instruction) error {
	if err := ctx.Err(); err != nil {
		return reject(in, "cancelled", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.declined[in.AccountNumber] {
		return reject(in, "account declined", nil)
	}
	if !in.Amount.IsPositive() {
		return reject(in, "amount must be positive", nil)
	}
	if c.maxAmount.Valid && in.Amount.GreaterThan(c.maxAmount.Decimal) {
		return reject(in, "amount over limit", nil)
	}
	c.transfers = append(c.transfers, in)
	return nil
}

// Transfers returns the accepted instructions in arrival order
func (c *MockClient) Transfers() []Instruction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Instruction, len(c.transfers))
	copy(out, c.transfers)
	return out
}

// MockHandler serves the bank's wire contract on top of a MockClient
func MockHandler(c *MockClient) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transfers", func(w http.ResponseWriter, r *http.Request) {
		var in Instruction
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		status := StatusSuccess
		if err := c.Transfer(r.Context(), in); err != nil {
			status = "failed"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Status: status})
	})
	return mux
}
