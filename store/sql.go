package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"go-payments/config"
	"go-payments/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQL stores records in sqlite or PostgreSQL through database/sql.
// Queries are written with ? placeholders and rebound for postgres.
type SQL struct {
	db     *sql.DB
	driver string
}

func NewSQL(db *sql.DB, driver string) *SQL {
	return &SQL{db: db, driver: driver}
}

func OpenSQL(ctx context.Context, cfg config.DatabaseConfig) (*SQL, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed open %s", cfg.Driver)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "Failed ping %s", cfg.Driver)
	}
	return NewSQL(db, cfg.Driver), nil
}

const (
	customerColumns    = "id, customer_id, created_at, updated_at"
	paymentColumns     = "id, customer_id, account_number, routing_number, account_holder_name, amount, currency, transfer_status, description, created_at, updated_at"
	transactionColumns = "id, transaction_id, payment_id, amount, currency, account_number, routing_number, account_holder_name, description, status, created_at, updated_at"

	qCustomerByCustomerID = "SELECT " + customerColumns + " FROM customers WHERE customer_id = ?"
	qCustomerInsert       = "INSERT INTO customers (" + customerColumns + ") VALUES (?, ?, ?, ?) ON CONFLICT (customer_id) DO NOTHING"

	qPaymentByCustomerID = "SELECT " + paymentColumns + " FROM payments WHERE customer_id = ?"
	qPaymentUpsert       = "INSERT INTO payments (" + paymentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT (id) DO UPDATE SET customer_id = excluded.customer_id, account_number = excluded.account_number, " +
		"routing_number = excluded.routing_number, account_holder_name = excluded.account_holder_name, amount = excluded.amount, " +
		"currency = excluded.currency, transfer_status = excluded.transfer_status, description = excluded.description, " +
		"created_at = excluded.created_at, updated_at = excluded.updated_at"

	qTransactionUpsert = "INSERT INTO transactions (" + transactionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT (id) DO UPDATE SET transaction_id = excluded.transaction_id, payment_id = excluded.payment_id, " +
		"amount = excluded.amount, currency = excluded.currency, account_number = excluded.account_number, " +
		"routing_number = excluded.routing_number, account_holder_name = excluded.account_holder_name, " +
		"description = excluded.description, status = excluded.status, created_at = excluded.created_at, updated_at = excluded.updated_at"

	qTransactionsByPaymentID    = "SELECT " + transactionColumns + " FROM transactions WHERE payment_id = ? ORDER BY "
	qTransactionByTransactionID = "SELECT " + transactionColumns + " FROM transactions WHERE transaction_id = ?"
)

func (s *SQL) FindCustomerByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(qCustomerByCustomerID), customerID)
	var c models.Customer
	if err := row.Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "Failed select customer")
	}
	return &c, nil
}

func (s *SQL) CreateCustomerIfAbsent(ctx context.Context, c *models.Customer) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	res, err := s.db.ExecContext(ctx, s.rebind(qCustomerInsert), c.ID, c.CustomerID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return false, s.wrapWriteErr(err, "Failed insert customer")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "Failed rows affected")
	}
	if affected == 1 {
		return true, nil
	}

	existing, err := s.FindCustomerByCustomerID(ctx, c.CustomerID)
	if err != nil {
		return false, err
	}
	*c = *existing
	return false, nil
}

func (s *SQL) FindPaymentByCustomerID(ctx context.Context, customerRef uuid.UUID) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(qPaymentByCustomerID), customerRef)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "Failed select payment")
	}
	return p, nil
}

func (s *SQL) SavePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	var customerRef any
	if p.CustomerID != nil {
		customerRef = p.CustomerID.String()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(qPaymentUpsert),
		p.ID,
		customerRef,
		p.AccountNumber,
		p.RoutingNumber,
		p.AccountHolderName,
		p.Amount,
		p.Currency,
		string(p.TransferStatus),
		p.Description,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return s.wrapWriteErr(err, "Failed upsert payment")
	}
	return nil
}

func (s *SQL) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(qTransactionUpsert),
		t.ID,
		sql.NullString{String: t.TransactionID, Valid: t.TransactionID != ""},
		t.PaymentID,
		t.Amount,
		t.Currency,
		t.AccountNumber,
		t.RoutingNumber,
		t.AccountHolderName,
		t.Description,
		string(t.Status),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return s.wrapWriteErr(err, "Failed upsert transaction")
	}
	return nil
}

func (s *SQL) ListTransactionsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(qTransactionsByPaymentID+s.insertionOrder()), paymentID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed select transactions")
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "Failed scan transaction")
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed iterate transactions")
	}
	return transactions, nil
}

func (s *SQL) FindTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(qTransactionByTransactionID), transactionID)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "Failed select transaction")
	}
	return t, nil
}

// insertionOrder names the column that increases with every new row.
// Upserts leave it unchanged.
func (s *SQL) insertionOrder() string {
	if s.driver == DriverPostgres {
		return "seq"
	}
	return "rowid"
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*models.Payment, error) {
	var (
		p           models.Payment
		customerRef uuid.NullUUID
		status      string
	)
	if err := row.Scan(
		&p.ID,
		&customerRef,
		&p.AccountNumber,
		&p.RoutingNumber,
		&p.AccountHolderName,
		&p.Amount,
		&p.Currency,
		&status,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerRef.Valid {
		p.CustomerID = &customerRef.UUID
	}
	p.TransferStatus = models.TransferStatus(status)
	// plain payments carry no transfer status
	if status != "" && !p.TransferStatus.Valid() {
		return nil, errors.Errorf("unknown transfer status %q", status)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t             models.Transaction
		transactionID sql.NullString
		status        string
	)
	if err := row.Scan(
		&t.ID,
		&transactionID,
		&t.PaymentID,
		&t.Amount,
		&t.Currency,
		&t.AccountNumber,
		&t.RoutingNumber,
		&t.AccountHolderName,
		&t.Description,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.TransactionID = transactionID.String
	t.Status = models.TransactionStatus(status)
	if !t.Status.Valid() {
		return nil, errors.Errorf("unknown transaction status %q", status)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// rebind rewrites ? placeholders into $n for postgres
func (s *SQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) wrapWriteErr(err error, msg string) error {
	if isUniqueViolation(err) {
		return errors.Wrap(ErrConflict, err.Error())
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
			return true
		}
	}
	return false
}

