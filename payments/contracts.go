package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-payments/models"
)

// Store is the persistence the workflow needs.
// Lookups report store.ErrNotFound; Save* assign an ID when it is uuid.Nil.
type Store interface {
	FindCustomerByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	CreateCustomerIfAbsent(ctx context.Context, c *models.Customer) (bool, error)
	FindPaymentByCustomerID(ctx context.Context, customerRef uuid.UUID) (*models.Payment, error)
	SavePayment(ctx context.Context, p *models.Payment) error
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	ListTransactionsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.Transaction, error)
	FindTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
}

// Recorder receives workflow outcomes for instrumentation
type Recorder interface {
	PaymentMade()
	TransferFinished(status models.TransferStatus)
	GatewayObserved(elapsed time.Duration, accepted bool)
}

type nopRecorder struct{}

func (nopRecorder) PaymentMade()                           {}
func (nopRecorder) TransferFinished(models.TransferStatus) {}
func (nopRecorder) GatewayObserved(time.Duration, bool)    {}
