package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

// BookingService is the booking engine. A request either passes all
// validation steps and is persisted atomically, or is rejected with a typed
// error before any write happens. Validation failures are never retried.
type BookingService struct {
	store     store.LedgerStore
	validator *ValidationHelper
}

func NewBookingService(st store.LedgerStore) *BookingService {
	return &BookingService{
		store:     st,
		validator: NewValidationHelper(),
	}
}

// InsertBookingEntry validates and persists one booking: the journal entry
// plus its two account-side projections, with the next running number for
// the user. The checks run in order: same-account, per-side ownership,
// duplicate booking time per account side, saldo fence.
func (s *BookingService) InsertBookingEntry(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	if req.CreditAccountID == req.DebitAccountID {
		return nil, fmt.Errorf("%w: %s", ErrSameAccount, req.CreditAccountID)
	}

	accounts, err := s.store.ListAccounts(ctx, userID, []string{req.CreditAccountID, req.DebitAccountID})
	if err != nil {
		return nil, err
	}
	for _, accountID := range []string{req.CreditAccountID, req.DebitAccountID} {
		if !containsAccount(accounts, accountID) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotAvailable, accountID)
		}
	}

	existing, err := s.store.ListJournalEntries(ctx, userID, &req.BookingTime, &req.BookingTime)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.CreditAccountID == req.CreditAccountID {
			return nil, fmt.Errorf("%w: credit account %s at %s", store.ErrDuplicateBookingTime, req.CreditAccountID, req.BookingTime.Format(time.RFC3339Nano))
		}
		if e.DebitAccountID == req.DebitAccountID {
			return nil, fmt.Errorf("%w: debit account %s at %s", store.ErrDuplicateBookingTime, req.DebitAccountID, req.BookingTime.Format(time.RFC3339Nano))
		}
	}

	saldos, err := s.store.GetLastSaldoAccountEntries(ctx, userID, []string{req.CreditAccountID, req.DebitAccountID})
	if err != nil {
		return nil, err
	}
	for _, accountID := range []string{req.CreditAccountID, req.DebitAccountID} {
		if saldo, ok := saldos[accountID]; ok && !req.BookingTime.After(saldo.BookingTime) {
			return nil, fmt.Errorf("%w: account %s, saldo at %s", store.ErrSaldoFence, accountID, saldo.BookingTime.Format(time.RFC3339Nano))
		}
	}

	result, err := s.store.InsertBookingEntry(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	log.Printf("[BOOKING] Inserted journal entry %s (running number %d) for user %s",
		result.JournalEntry.ID, result.JournalEntry.RunningNumber, userID)
	return result, nil
}

// ListJournalEntries returns the user's journal entries within [from, till],
// both bounds optional and inclusive.
func (s *BookingService) ListJournalEntries(ctx context.Context, userID string, from, till *time.Time) ([]models.JournalEntry, error) {
	if from != nil && till != nil && from.After(*till) {
		return nil, fmt.Errorf("%w (%s > %s)", ErrInvalidTimeRange, from.Format(time.RFC3339Nano), till.Format(time.RFC3339Nano))
	}
	return s.store.ListJournalEntries(ctx, userID, from, till)
}

// ListAccountBookingEntries returns the union over all search options in one
// combined store query. Entries of accounts the user does not own are simply
// not part of the user-scoped result.
func (s *BookingService) ListAccountBookingEntries(ctx context.Context, userID string, opts []models.BookingSearchOption) ([]models.AccountBookingEntry, error) {
	if len(opts) == 0 {
		return nil, ErrEmptySearchOptions
	}
	for _, opt := range opts {
		if err := s.validator.ValidateStruct(&opt); err != nil {
			return nil, err
		}
		if opt.From != nil && opt.Till != nil && opt.From.After(*opt.Till) {
			return nil, fmt.Errorf("%w for account %s", ErrInvalidTimeRange, opt.AccountID)
		}
	}
	return s.store.ListAccountBookingEntries(ctx, userID, opts)
}

func containsAccount(accounts []models.Account, id string) bool {
	for _, a := range accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}
