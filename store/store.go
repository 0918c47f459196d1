package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"go-payments/config"
	"go-payments/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Store is the persistence contract shared by the memory and SQL backends
type Store interface {
	FindCustomerByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	CreateCustomerIfAbsent(ctx context.Context, c *models.Customer) (bool, error)
	FindPaymentByCustomerID(ctx context.Context, customerRef uuid.UUID) (*models.Payment, error)
	SavePayment(ctx context.Context, p *models.Payment) error
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	ListTransactionsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.Transaction, error)
	FindTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Info("Using in-memory store")
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
		s, err := OpenSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("SQL store connected", zap.String("driver", cfg.Driver))
		return s, nil
	}
	return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
}
