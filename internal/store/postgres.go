package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hausbuch/backend/internal/models"
)

// PostgresStore implements LedgerStore on top of database/sql with lib/pq.
//
// Per-user serialization of the insert path is done with a transaction-scoped
// advisory lock on the user id, so running numbers are allocated gaplessly
// without a table lock. The unique indexes on (user_id, running_number) and
// on (user_id, finance_account_id, booking_time, side) act as a backstop: a
// running-number collision is retried once, a booking-time collision surfaces
// as ErrDuplicateBookingTime.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	constraintRunningNumber = "finance_journal_entries_user_running_number_key"
	constraintBookingSide   = "finance_account_booking_entries_side_key"
)

func (s *PostgresStore) userExists(ctx context.Context, userID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return nil
}

func (s *PostgresStore) ListAccountTypes(ctx context.Context, userID string) ([]models.AccountType, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description FROM finance_account_types WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account types: %w", err)
	}
	defer rows.Close()

	types := []models.AccountType{}
	for rows.Next() {
		var at models.AccountType
		if err := rows.Scan(&at.ID, &at.Title, &at.Description); err != nil {
			return nil, fmt.Errorf("failed to scan account type: %w", err)
		}
		types = append(types, at)
	}
	return types, rows.Err()
}

func (s *PostgresStore) UpsertAccountType(ctx context.Context, userID string, accountType models.AccountType) error {
	if err := s.userExists(ctx, userID); err != nil {
		return err
	}

	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM finance_account_types WHERE id = $1`, accountType.ID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO finance_account_types (id, user_id, title, description) VALUES ($1, $2, $3, $4)`,
			accountType.ID, userID, accountType.Title, accountType.Description)
		if err != nil {
			return fmt.Errorf("failed to insert account type: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("account type lookup failed: %w", err)
	case owner != userID:
		return fmt.Errorf("%w: %s", ErrAccountTypeOwnership, accountType.ID)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE finance_account_types SET title = $1, description = $2 WHERE id = $3`,
		accountType.Title, accountType.Description, accountType.ID)
	if err != nil {
		return fmt.Errorf("failed to update account type: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context, userID string, idFilter []string) ([]models.Account, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT id, title, description, finance_account_type_id FROM finance_accounts WHERE user_id = $1`
	args := []interface{}{userID}
	if idFilter != nil {
		query += ` AND id = ANY($2)`
		args = append(args, pq.Array(idFilter))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.AccountTypeID); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) UpsertAccount(ctx context.Context, userID string, account models.Account) error {
	if err := s.userExists(ctx, userID); err != nil {
		return err
	}

	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM finance_accounts WHERE id = $1`, account.ID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO finance_accounts (id, user_id, title, description, finance_account_type_id) VALUES ($1, $2, $3, $4, $5)`,
			account.ID, userID, account.Title, account.Description, account.AccountTypeID)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("account lookup failed: %w", err)
	case owner != userID:
		return fmt.Errorf("%w: %s", ErrAccountOwnership, account.ID)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE finance_accounts SET title = $1, description = $2, finance_account_type_id = $3 WHERE id = $4`,
		account.Title, account.Description, account.AccountTypeID, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListJournalEntries(ctx context.Context, userID string, from, till *time.Time) ([]models.JournalEntry, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT id, running_number, booking_time, credit_account_id, debit_account_id, amount, title, description, is_saldo, is_simple_entry
		FROM finance_journal_entries WHERE user_id = $1`
	args := []interface{}{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND booking_time >= $%d`, len(args))
	}
	if till != nil {
		args = append(args, *till)
		query += fmt.Sprintf(` AND booking_time <= $%d`, len(args))
	}
	query += ` ORDER BY running_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.RunningNumber, &e.BookingTime, &e.CreditAccountID, &e.DebitAccountID,
			&e.Amount, &e.Title, &e.Description, &e.IsSaldo, &e.IsSimpleEntry); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ListAccountBookingEntries(ctx context.Context, userID string, opts []models.BookingSearchOption) ([]models.AccountBookingEntry, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	// No options means no windows to search; an empty OR group would not
	// be valid SQL.
	if len(opts) == 0 {
		return []models.AccountBookingEntry{}, nil
	}

	args := []interface{}{userID}
	conds := make([]string, 0, len(opts))
	for _, opt := range opts {
		args = append(args, opt.AccountID)
		cond := fmt.Sprintf(`(finance_account_id = $%d`, len(args))
		if opt.From != nil {
			args = append(args, *opt.From)
			cond += fmt.Sprintf(` AND booking_time >= $%d`, len(args))
		}
		if opt.Till != nil {
			args = append(args, *opt.Till)
			cond += fmt.Sprintf(` AND booking_time <= $%d`, len(args))
		}
		conds = append(conds, cond+`)`)
	}

	query := `SELECT id, finance_account_id, finance_journal_diary_id, booking_time, amount, booking_type, title, description
		FROM finance_account_booking_entries WHERE user_id = $1 AND (` +
		strings.Join(conds, " OR ") + `) ORDER BY booking_time, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking entries: %w", err)
	}
	defer rows.Close()

	return scanBookingEntries(rows)
}

func (s *PostgresStore) InsertBookingEntry(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.insertBookingOnce(ctx, userID, req)
	if err == nil {
		return result, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == constraintBookingSide {
			return nil, fmt.Errorf("%w: at %s", ErrDuplicateBookingTime, req.BookingTime.Format(time.RFC3339Nano))
		}
		// running number race lost against a concurrent insert; one retry
		log.Printf("[STORE] Booking insert retried after unique violation for user %s", userID)
		return s.insertBookingOnce(ctx, userID, req)
	}
	return nil, err
}

func (s *PostgresStore) insertBookingOnce(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// serialize the validate-then-persist sequence per user
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return nil, fmt.Errorf("failed to acquire user lock: %w", err)
	}

	accountIDs := []string{req.CreditAccountID, req.DebitAccountID}

	// re-check the conflict invariants under the lock; the engine validates
	// the same conditions before calling, but two racing requests may both
	// have seen the pre-insert state
	rows, err := tx.QueryContext(ctx,
		`SELECT credit_account_id, debit_account_id FROM finance_journal_entries WHERE user_id = $1 AND booking_time = $2`,
		userID, req.BookingTime)
	if err != nil {
		return nil, fmt.Errorf("booking time check failed: %w", err)
	}
	for rows.Next() {
		var credit, debit string
		if err := rows.Scan(&credit, &debit); err != nil {
			rows.Close()
			return nil, fmt.Errorf("booking time check failed: %w", err)
		}
		if credit == req.CreditAccountID || debit == req.DebitAccountID {
			rows.Close()
			side, accountID := "credit", req.CreditAccountID
			if credit != req.CreditAccountID {
				side, accountID = "debit", req.DebitAccountID
			}
			return nil, fmt.Errorf("%w: %s account %s at %s", ErrDuplicateBookingTime, side, accountID, req.BookingTime.Format(time.RFC3339Nano))
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking time check failed: %w", err)
	}

	saldoRows, err := tx.QueryContext(ctx,
		`SELECT finance_account_id, MAX(booking_time) FROM finance_account_booking_entries
		 WHERE user_id = $1 AND finance_account_id = ANY($2) AND booking_type IN ('SALDO_CREDIT', 'SALDO_DEBIT')
		 GROUP BY finance_account_id`,
		userID, pq.Array(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("saldo fence check failed: %w", err)
	}
	for saldoRows.Next() {
		var accountID string
		var saldoTime time.Time
		if err := saldoRows.Scan(&accountID, &saldoTime); err != nil {
			saldoRows.Close()
			return nil, fmt.Errorf("saldo fence check failed: %w", err)
		}
		if !req.BookingTime.After(saldoTime) {
			saldoRows.Close()
			return nil, fmt.Errorf("%w: account %s, saldo at %s", ErrSaldoFence, accountID, saldoTime.Format(time.RFC3339Nano))
		}
	}
	saldoRows.Close()
	if err := saldoRows.Err(); err != nil {
		return nil, fmt.Errorf("saldo fence check failed: %w", err)
	}

	var runningNumber int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(running_number), 0) + 1 FROM finance_journal_entries WHERE user_id = $1`,
		userID).Scan(&runningNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate running number: %w", err)
	}

	journal := models.JournalEntry{
		ID:              uuid.New().String(),
		RunningNumber:   runningNumber,
		BookingTime:     req.BookingTime,
		CreditAccountID: req.CreditAccountID,
		DebitAccountID:  req.DebitAccountID,
		Amount:          req.Amount,
		Title:           req.Title,
		Description:     req.Description,
		IsSaldo:         req.IsSaldo,
		IsSimpleEntry:   req.IsSimpleEntry,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO finance_journal_entries (id, user_id, running_number, booking_time, credit_account_id, debit_account_id, amount, title, description, is_saldo, is_simple_entry)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		journal.ID, userID, journal.RunningNumber, journal.BookingTime, journal.CreditAccountID,
		journal.DebitAccountID, journal.Amount, journal.Title, journal.Description, journal.IsSaldo, journal.IsSimpleEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	creditType, debitType := models.BookingTypeCredit, models.BookingTypeDebit
	if req.IsSaldo {
		creditType, debitType = models.BookingTypeSaldoCredit, models.BookingTypeSaldoDebit
	}
	credit := projectEntry(journal, req.CreditAccountID, creditType)
	debit := projectEntry(journal, req.DebitAccountID, debitType)

	for _, e := range []models.AccountBookingEntry{credit, debit} {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO finance_account_booking_entries (id, user_id, finance_account_id, finance_journal_diary_id, booking_time, amount, booking_type, title, description)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, userID, e.AccountID, e.JournalEntryID, e.BookingTime, e.Amount, e.BookingType, e.Title, e.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to insert booking entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	return &models.BookingResult{JournalEntry: journal, CreditEntry: credit, DebitEntry: debit}, nil
}

func (s *PostgresStore) GetLastSaldoAccountEntries(ctx context.Context, userID string, accountIDs []string) (map[string]models.AccountBookingEntry, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT DISTINCT ON (finance_account_id) id, finance_account_id, finance_journal_diary_id, booking_time, amount, booking_type, title, description
		FROM finance_account_booking_entries
		WHERE user_id = $1 AND booking_type IN ('SALDO_CREDIT', 'SALDO_DEBIT')`
	args := []interface{}{userID}
	if accountIDs != nil {
		query += ` AND finance_account_id = ANY($2)`
		args = append(args, pq.Array(accountIDs))
	}
	query += ` ORDER BY finance_account_id, booking_time DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saldo entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanBookingEntries(rows)
	if err != nil {
		return nil, err
	}

	saldos := make(map[string]models.AccountBookingEntry, len(entries))
	for _, e := range entries {
		saldos[e.AccountID] = e
	}
	return saldos, nil
}

func scanBookingEntries(rows *sql.Rows) ([]models.AccountBookingEntry, error) {
	entries := []models.AccountBookingEntry{}
	for rows.Next() {
		var e models.AccountBookingEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.JournalEntryID, &e.BookingTime, &e.Amount,
			&e.BookingType, &e.Title, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan booking entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ LedgerStore = (*PostgresStore)(nil)
