package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"go-payments/models"
)

func setupTestDB(t *testing.T) *SQL {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQL(db, DriverSQLite)
	require.NoError(t, s.Migrate(context.Background()))
	// second run must be a no-op
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func backends(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemory() },
		"sqlite": func() Store { return setupTestDB(t) },
	}
}

var epoch = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestStore_CreateCustomerIfAbsent(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			key := uuid.New()

			_, err := s.FindCustomerByCustomerID(ctx, key)
			require.ErrorIs(t, err, ErrNotFound)

			first := &models.Customer{CustomerID: key, CreatedAt: epoch, UpdatedAt: epoch}
			created, err := s.CreateCustomerIfAbsent(ctx, first)
			require.NoError(t, err)
			require.True(t, created)
			require.NotEqual(t, uuid.Nil, first.ID)

			second := &models.Customer{CustomerID: key, CreatedAt: epoch.Add(time.Hour), UpdatedAt: epoch.Add(time.Hour)}
			created, err = s.CreateCustomerIfAbsent(ctx, second)
			require.NoError(t, err)
			require.False(t, created)
			require.Equal(t, first.ID, second.ID)
			require.True(t, epoch.Equal(second.CreatedAt))

			found, err := s.FindCustomerByCustomerID(ctx, key)
			require.NoError(t, err)
			require.Equal(t, first.ID, found.ID)
		})
	}
}

func TestStore_SavePayment(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			owner := uuid.New()

			_, err := s.FindPaymentByCustomerID(ctx, owner)
			require.ErrorIs(t, err, ErrNotFound)

			p := &models.Payment{CustomerID: &owner, CreatedAt: epoch, UpdatedAt: epoch}
			require.NoError(t, s.SavePayment(ctx, p))
			require.NotEqual(t, uuid.Nil, p.ID)

			p.UpdatedAt = epoch.Add(time.Minute)
			require.NoError(t, s.SavePayment(ctx, p))

			found, err := s.FindPaymentByCustomerID(ctx, owner)
			require.NoError(t, err)
			require.Equal(t, p.ID, found.ID)
			require.Equal(t, owner, *found.CustomerID)
			require.True(t, epoch.Add(time.Minute).Equal(found.UpdatedAt))

			dup := &models.Payment{CustomerID: &owner, CreatedAt: epoch, UpdatedAt: epoch}
			require.ErrorIs(t, s.SavePayment(ctx, dup), ErrConflict)
		})
	}
}

func TestStore_SavePayment_TransfersHaveNoOwner(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			for i := 0; i < 2; i++ {
				p := &models.Payment{
					AccountNumber:     "12345678",
					RoutingNumber:     "021000021",
					AccountHolderName: "Ada Lovelace",
					Amount:            decimal.RequireFromString("10.50"),
					Currency:          "USD",
					TransferStatus:    models.TransferPending,
					CreatedAt:         epoch,
					UpdatedAt:         epoch,
				}
				require.NoError(t, s.SavePayment(ctx, p))
			}
		})
	}
}

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			p := &models.Payment{CreatedAt: epoch, UpdatedAt: epoch}
			require.NoError(t, s.SavePayment(ctx, p))

			empty, err := s.ListTransactionsByPaymentID(ctx, p.ID)
			require.NoError(t, err)
			require.NotNil(t, empty)
			require.Len(t, empty, 0)

			first := &models.Transaction{PaymentID: p.ID, Amount: decimal.NewFromInt(5), Status: models.TransactionPending, CreatedAt: epoch, UpdatedAt: epoch}
			second := &models.Transaction{PaymentID: p.ID, Amount: decimal.NewFromInt(7), Status: models.TransactionPending, CreatedAt: epoch.Add(time.Second), UpdatedAt: epoch.Add(time.Second)}
			require.NoError(t, s.SaveTransaction(ctx, first))
			require.NoError(t, s.SaveTransaction(ctx, second))

			list, err := s.ListTransactionsByPaymentID(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			require.Equal(t, first.ID, list[0].ID)
			require.Equal(t, second.ID, list[1].ID)
			require.True(t, decimal.NewFromInt(5).Equal(list[0].Amount))
			require.Equal(t, "", list[0].TransactionID)

			again, err := s.ListTransactionsByPaymentID(ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, list, again)
		})
	}
}

func TestStore_TransferTransaction(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			p := &models.Payment{TransferStatus: models.TransferPending, CreatedAt: epoch, UpdatedAt: epoch}
			require.NoError(t, s.SavePayment(ctx, p))

			_, err := s.FindTransactionByTransactionID(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			tx := &models.Transaction{
				TransactionID:     uuid.NewString(),
				PaymentID:         p.ID,
				Amount:            decimal.RequireFromString("99.99"),
				Currency:          "EUR",
				AccountNumber:     "12345678",
				RoutingNumber:     "021000021",
				AccountHolderName: "Ada Lovelace",
				Description:       "rent",
				Status:            models.TransactionProcessing,
				CreatedAt:         epoch,
				UpdatedAt:         epoch,
			}
			require.NoError(t, s.SaveTransaction(ctx, tx))

			tx.Status = models.TransactionFailed
			tx.UpdatedAt = epoch.Add(time.Second)
			require.NoError(t, s.SaveTransaction(ctx, tx))

			found, err := s.FindTransactionByTransactionID(ctx, tx.TransactionID)
			require.NoError(t, err)
			require.Equal(t, tx.ID, found.ID)
			require.Equal(t, models.TransactionFailed, found.Status)
			require.Equal(t, "rent", found.Description)
			require.True(t, decimal.RequireFromString("99.99").Equal(found.Amount))

			dup := &models.Transaction{TransactionID: tx.TransactionID, PaymentID: p.ID, Status: models.TransactionProcessing, CreatedAt: epoch, UpdatedAt: epoch}
			require.ErrorIs(t, s.SaveTransaction(ctx, dup), ErrConflict)
		})
	}
}

func TestSQL_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := setupTestDB(t)

	customer := &models.Customer{CustomerID: uuid.New(), CreatedAt: epoch, UpdatedAt: epoch}
	_, err := s.CreateCustomerIfAbsent(ctx, customer)
	require.NoError(t, err)
	p := &models.Payment{CustomerID: &customer.ID, CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(t, s.SavePayment(ctx, p))
	tx := &models.Transaction{TransactionID: uuid.NewString(), PaymentID: p.ID, Status: models.TransactionPending, CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(t, s.SaveTransaction(ctx, tx))

	_, err = s.db.ExecContext(ctx, "UPDATE transactions SET status = 'SETTLED'")
	require.NoError(t, err)
	_, err = s.FindTransactionByTransactionID(ctx, tx.TransactionID)
	require.ErrorContains(t, err, `unknown transaction status "SETTLED"`)
	_, err = s.ListTransactionsByPaymentID(ctx, p.ID)
	require.Error(t, err)

	_, err = s.FindPaymentByCustomerID(ctx, customer.ID)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, "UPDATE payments SET transfer_status = 'BOUNCED'")
	require.NoError(t, err)
	_, err = s.FindPaymentByCustomerID(ctx, customer.ID)
	require.ErrorContains(t, err, `unknown transfer status "BOUNCED"`)
}

func TestSQL_Rebind(t *testing.T) {
	pg := NewSQL(nil, DriverPostgres)
	require.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := NewSQL(nil, DriverSQLite)
	require.Equal(t, "SELECT a FROM t WHERE x = ?", lite.rebind("SELECT a FROM t WHERE x = ?"))
}
