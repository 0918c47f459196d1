package gateway

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// StatusSuccess is the only response status treated as an accepted transfer
const StatusSuccess = "success"

var ErrRejected = errors.New("transfer rejected")

// Instruction is the transfer request sent to the bank
type Instruction struct {
	TransactionID string          `json:"transactionId"`
	AccountNumber string          `json:"accountNumber"`
	RoutingNumber string          `json:"routingNumber"`
	Amount        decimal.Decimal `json:"amount"`
}

// Response is the body returned by the bank
type Response struct {
	Status string `json:"status"`
}

// Client moves funds through the external bank.
// Transfer returns nil only when the bank explicitly accepted the transfer;
// every other outcome is reported as a *RejectionError.
type Client interface {
	Transfer(ctx context.Context, in Instruction) error
}

// RejectionError describes why a transfer was not accepted.
// It matches ErrRejected with errors.Is.
type RejectionError struct {
	TransactionID string
	Reason        string
	Err           error
}

func (e *RejectionError) Error() string {
	msg := fmt.Sprintf("transfer %s rejected: %s", e.TransactionID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RejectionError) Is(target error) bool { return target == ErrRejected }

func (e *RejectionError) Unwrap() error { return e.Err }

func reject(in Instruction, reason string, err error) error {
	return &RejectionError{TransactionID: in.TransactionID, Reason: reason, Err: err}
}
