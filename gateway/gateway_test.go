package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func instruction(amount string) Instruction {
	return Instruction{
		TransactionID: "tx-1",
		AccountNumber: "12345678",
		RoutingNumber: "021000021",
		Amount:        decimal.RequireFromString(amount),
	}
}

func TestMockClient_Transfer(t *testing.T) {
	ctx := context.Background()
	limit := decimal.NewNullDecimal(decimal.NewFromInt(1000))

	var tests = []struct {
		name     string
		in       Instruction
		accepted bool
	}{
		{name: "accepted", in: instruction("10.00"), accepted: true},
		{name: "at limit", in: instruction("1000"), accepted: true},
		{name: "over limit", in: instruction("1000.01"), accepted: false},
		{name: "zero amount", in: instruction("0"), accepted: false},
		{name: "declined account", in: Instruction{TransactionID: "tx-2", AccountNumber: "000111", RoutingNumber: "021000021", Amount: decimal.NewFromInt(1)}, accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMockClient([]string{"000111"}, limit)
			err := c.Transfer(ctx, tt.in)
			if tt.accepted {
				require.NoError(t, err)
				require.Len(t, c.Transfers(), 1)
				return
			}
			require.ErrorIs(t, err, ErrRejected)
			require.Empty(t, c.Transfers())
		})
	}
}

func TestMockClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMockClient(nil, decimal.NullDecimal{}).Transfer(ctx, instruction("1"))
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClient_AgainstMockHandler(t *testing.T) {
	bank := NewMockClient([]string{"000111"}, decimal.NullDecimal{})
	srv := httptest.NewServer(MockHandler(bank))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/transfers", "", time.Second, zap.NewNop())

	require.NoError(t, c.Transfer(context.Background(), instruction("25.00")))
	transfers := bank.Transfers()
	require.Len(t, transfers, 1)
	require.Equal(t, "tx-1", transfers[0].TransactionID)
	require.True(t, decimal.RequireFromString("25").Equal(transfers[0].Amount))

	declined := instruction("5")
	declined.AccountNumber = "000111"
	require.ErrorIs(t, c.Transfer(context.Background(), declined), ErrRejected)
}

func TestHTTPClient_Transfer(t *testing.T) {
	var tests = []struct {
		name     string
		handler  http.HandlerFunc
		accepted bool
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(`{"status":"success"}`))
			},
			accepted: true,
		},
		{
			name: "explicit failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"failed"}`))
			},
		},
		{
			name: "status is case sensitive",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"SUCCESS"}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"status":"success"}`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTPClient(srv.URL, "secret", 100*time.Millisecond, zap.NewNop())
			err := c.Transfer(context.Background(), instruction("10"))
			if tt.accepted {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrRejected)
			var rej *RejectionError
			require.ErrorAs(t, err, &rej)
			require.Equal(t, "tx-1", rej.TransactionID)
		})
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, "", 100*time.Millisecond, zap.NewNop())
	require.ErrorIs(t, c.Transfer(context.Background(), instruction("10")), ErrRejected)
}
