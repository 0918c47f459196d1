package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

func schema(driver string) []string {
	ts := "DATETIME"
	// sqlite orders by the implicit rowid
	seq := ""
	if driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
		seq = ",\n\t\t\tseq BIGSERIAL NOT NULL"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL UNIQUE,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)`, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			customer_id TEXT UNIQUE REFERENCES customers (id),
			account_number TEXT NOT NULL DEFAULT '',
			routing_number TEXT NOT NULL DEFAULT '',
			account_holder_name TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '0',
			currency TEXT NOT NULL DEFAULT '',
			transfer_status TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)`, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			transaction_id TEXT UNIQUE,
			payment_id TEXT NOT NULL REFERENCES payments (id),
			amount TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			account_number TEXT NOT NULL DEFAULT '',
			routing_number TEXT NOT NULL DEFAULT '',
			account_holder_name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL%[2]s
		)`, ts, seq),

		`CREATE INDEX IF NOT EXISTS transactions_payment_id_idx ON transactions (payment_id)`,
	}
}

// Migrate creates the schema; it is safe to run repeatedly
func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range schema(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "Failed migrate")
		}
	}
	return nil
}
