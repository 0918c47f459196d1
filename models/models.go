package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer anchors an externally supplied customer id to internal payment history
type Customer struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Payment is a logical payment or bank transfer attempt.
// CustomerID is nil for bank transfers, TransferStatus is empty outside of them.
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	CustomerID        *uuid.UUID      `json:"customerId,omitempty"`
	AccountNumber     string          `json:"accountNumber,omitempty"`
	RoutingNumber     string          `json:"routingNumber,omitempty"`
	AccountHolderName string          `json:"accountHolderName,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency,omitempty"`
	TransferStatus    TransferStatus  `json:"transferStatus,omitempty"`
	Description       string          `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Transaction is a single attempted money movement tied to a Payment
type Transaction struct {
	ID                uuid.UUID         `json:"id"`
	TransactionID     string            `json:"transactionId,omitempty"` // empty outside bank transfers
	PaymentID         uuid.UUID         `json:"paymentId"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency,omitempty"`
	AccountNumber     string            `json:"accountNumber,omitempty"`
	RoutingNumber     string            `json:"routingNumber,omitempty"`
	AccountHolderName string            `json:"accountHolderName,omitempty"`
	Description       string            `json:"description,omitempty"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}
