package store

import (
	"context"
	"time"

	"github.com/hausbuch/backend/internal/models"
)

// LedgerStore is the persistence contract the booking engine depends on.
// Every operation is scoped to one user; implementations must never leak
// entities across users. InsertBookingEntry must be serialized per user so
// that running numbers stay gapless and the duplicate-booking-time and
// saldo-fence invariants hold even under concurrent inserts.
type LedgerStore interface {
	ListAccountTypes(ctx context.Context, userID string) ([]models.AccountType, error)
	UpsertAccountType(ctx context.Context, userID string, accountType models.AccountType) error

	// ListAccounts returns the user's accounts. A non-nil idFilter restricts
	// the result to the given ids; ids owned by other users are silently
	// excluded.
	ListAccounts(ctx context.Context, userID string, idFilter []string) ([]models.Account, error)
	UpsertAccount(ctx context.Context, userID string, account models.Account) error

	// ListJournalEntries returns the user's journal entries within
	// [from, till], both bounds inclusive and optional.
	ListJournalEntries(ctx context.Context, userID string, from, till *time.Time) ([]models.JournalEntry, error)

	// ListAccountBookingEntries runs one combined query over all search
	// options (logical OR across per-account time windows).
	ListAccountBookingEntries(ctx context.Context, userID string, opts []models.BookingSearchOption) ([]models.AccountBookingEntry, error)

	// InsertBookingEntry atomically persists one journal entry plus its two
	// account-side projections and allocates the next running number.
	InsertBookingEntry(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error)

	// GetLastSaldoAccountEntries returns the most recent saldo-marked booking
	// entry per requested account. Accounts without a saldo entry are absent
	// from the map. A nil accountIDs slice covers all of the user's accounts.
	GetLastSaldoAccountEntries(ctx context.Context, userID string, accountIDs []string) (map[string]models.AccountBookingEntry, error)
}
