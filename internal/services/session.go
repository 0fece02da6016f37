package services

import (
	"context"
	"time"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

// SessionFactory creates per-user session handles over one ledger store.
// The services behind it are stateless, so handles are cheap to create per
// request.
type SessionFactory struct {
	accounts *AccountService
	bookings *BookingService
	balances *BalanceService
}

func NewSessionFactory(st store.LedgerStore) *SessionFactory {
	return &SessionFactory{
		accounts: NewAccountService(st),
		bookings: NewBookingService(st),
		balances: NewBalanceService(st),
	}
}

// ForUser binds a user identity to the ledger operations.
func (f *SessionFactory) ForUser(userID string) *Session {
	return &Session{factory: f, userID: userID}
}

// Session is the handle handed to the HTTP layer after authentication. It
// offers exactly the account configuration, booking and balance operations,
// all scoped to the bound user.
type Session struct {
	factory *SessionFactory
	userID  string
}

// UserID returns the bound user identity.
func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) ListAccountTypes(ctx context.Context) ([]models.AccountType, error) {
	return s.factory.accounts.ListAccountTypes(ctx, s.userID)
}

func (s *Session) UpsertAccountType(ctx context.Context, accountType models.AccountType) error {
	return s.factory.accounts.UpsertAccountType(ctx, s.userID, accountType)
}

func (s *Session) ListAccounts(ctx context.Context, idFilter []string) ([]models.Account, error) {
	return s.factory.accounts.ListAccounts(ctx, s.userID, idFilter)
}

func (s *Session) UpsertAccount(ctx context.Context, account models.Account) error {
	return s.factory.accounts.UpsertAccount(ctx, s.userID, account)
}

func (s *Session) InsertBookingEntry(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	return s.factory.bookings.InsertBookingEntry(ctx, s.userID, req)
}

func (s *Session) ListJournalEntries(ctx context.Context, from, till *time.Time) ([]models.JournalEntry, error) {
	return s.factory.bookings.ListJournalEntries(ctx, s.userID, from, till)
}

func (s *Session) ListAccountBookingEntries(ctx context.Context, opts []models.BookingSearchOption) ([]models.AccountBookingEntry, error) {
	return s.factory.bookings.ListAccountBookingEntries(ctx, s.userID, opts)
}

func (s *Session) CalculateBalanceInfo(ctx context.Context, accountIDs []string) ([]models.AccountBalanceInfo, error) {
	return s.factory.balances.CalculateBalanceInfo(ctx, s.userID, accountIDs)
}

func (s *Session) GetLastSaldoAccountEntries(ctx context.Context, accountIDs []string) (map[string]models.AccountBookingEntry, error) {
	return s.factory.balances.GetLastSaldoAccountEntries(ctx, s.userID, accountIDs)
}
