package sqlstore

import (
	"context"
	"fmt"
)

// schema creates the tables the store reads and writes. Statements are
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id        TEXT PRIMARY KEY,
		code      TEXT NOT NULL,
		name      TEXT NOT NULL,
		parent_id TEXT REFERENCES accounts (id)
	)`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
		id           TEXT NOT NULL,
		account_id   TEXT NOT NULL REFERENCES accounts (id),
		posted_on    DATE NOT NULL,
		voucher_no   TEXT NOT NULL DEFAULT '',
		voucher_type TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		reference    TEXT NOT NULL DEFAULT '',
		debit        NUMERIC(18, 2) NOT NULL DEFAULT 0 CHECK (debit >= 0),
		credit       NUMERIC(18, 2) NOT NULL DEFAULT 0 CHECK (credit >= 0),
		PRIMARY KEY (id, account_id)
	)`,
	`CREATE INDEX IF NOT EXISTS journal_lines_account_date ON journal_lines (account_id, posted_on)`,
	`CREATE TABLE IF NOT EXISTS opening_balances (
		account_id  TEXT NOT NULL REFERENCES accounts (id),
		fiscal_year INTEGER NOT NULL,
		posted_on   DATE NOT NULL,
		branch_no   TEXT NOT NULL DEFAULT '',
		debit       NUMERIC(18, 2) NOT NULL DEFAULT 0,
		credit      NUMERIC(18, 2) NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (account_id, fiscal_year)
	)`,
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
