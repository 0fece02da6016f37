package database

import (
	"database/sql"
	"log"
)

// createTables creates the ledger schema if it does not exist yet.
func createTables(db *sql.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	// Create account types table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_account_types (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(140) NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return err
	}

	// Create accounts table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_accounts (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(140) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			finance_account_type_id VARCHAR(64) NOT NULL REFERENCES finance_account_types(id)
		)
	`)
	if err != nil {
		return err
	}

	// Create journal entries table. The unique constraint on
	// (user_id, running_number) backs the gapless numbering under
	// concurrent inserts.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_journal_entries (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			running_number BIGINT NOT NULL,
			booking_time TIMESTAMPTZ NOT NULL,
			credit_account_id VARCHAR(64) NOT NULL REFERENCES finance_accounts(id),
			debit_account_id VARCHAR(64) NOT NULL REFERENCES finance_accounts(id),
			amount NUMERIC(20, 0) NOT NULL CHECK (amount > 0),
			title VARCHAR(140) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_saldo BOOLEAN NOT NULL DEFAULT FALSE,
			is_simple_entry BOOLEAN NOT NULL DEFAULT FALSE,
			CONSTRAINT finance_journal_entries_user_running_number_key UNIQUE (user_id, running_number)
		)
	`)
	if err != nil {
		return err
	}

	// Create per-account booking entries table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS finance_account_booking_entries (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			finance_account_id VARCHAR(64) NOT NULL REFERENCES finance_accounts(id),
			finance_journal_diary_id VARCHAR(36) NOT NULL REFERENCES finance_journal_entries(id),
			booking_time TIMESTAMPTZ NOT NULL,
			amount NUMERIC(20, 0) NOT NULL CHECK (amount > 0),
			booking_type VARCHAR(16) NOT NULL CHECK (booking_type IN ('CREDIT', 'DEBIT', 'SALDO_CREDIT', 'SALDO_DEBIT')),
			title VARCHAR(140) NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return err
	}

	// One account may appear on one side only once per booking time; the
	// expression index backs the duplicate-time check under races.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS finance_account_booking_entries_side_key
		ON finance_account_booking_entries (user_id, finance_account_id, booking_time, (booking_type IN ('CREDIT', 'SALDO_CREDIT')))
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_journal_entries_user_time ON finance_journal_entries(user_id, booking_time)",
		"CREATE INDEX IF NOT EXISTS idx_booking_entries_account_time ON finance_account_booking_entries(user_id, finance_account_id, booking_time)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
