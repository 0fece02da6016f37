package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hausbuch/backend/internal/models"
)

// MemoryStore is an in-memory LedgerStore used by the test suite. Each user
// owns an independent ledger guarded by its own mutex, so inserts are
// serialized per user while operations for different users run in parallel.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userLedger

	// global ownership index; entity ids are unique across users so that
	// cross-user upserts can be detected by lookup
	typeOwners    map[string]string
	accountOwners map[string]string
}

type userLedger struct {
	mu           sync.Mutex
	accountTypes map[string]models.AccountType
	accounts     map[string]models.Account
	journal      []models.JournalEntry
	bookings     []models.AccountBookingEntry
	lastRunning  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*userLedger),
		typeOwners:    make(map[string]string),
		accountOwners: make(map[string]string),
	}
}

// AddUser registers a user with an empty ledger.
func (m *MemoryStore) AddUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; ok {
		return
	}
	m.users[userID] = &userLedger{
		accountTypes: make(map[string]models.AccountType),
		accounts:     make(map[string]models.Account),
	}
}

func (m *MemoryStore) ledger(userID string) (*userLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return l, nil
}

func (m *MemoryStore) ListAccountTypes(ctx context.Context, userID string) ([]models.AccountType, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]models.AccountType, 0, len(l.accountTypes))
	for _, at := range l.accountTypes {
		types = append(types, at)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

func (m *MemoryStore) UpsertAccountType(ctx context.Context, userID string, accountType models.AccountType) error {
	l, err := m.ledger(userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if owner, ok := m.typeOwners[accountType.ID]; ok && owner != userID {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAccountTypeOwnership, accountType.ID)
	}
	m.typeOwners[accountType.ID] = userID
	m.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accountTypes[accountType.ID] = accountType
	return nil
}

func (m *MemoryStore) ListAccounts(ctx context.Context, userID string, idFilter []string) ([]models.Account, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if idFilter != nil {
		wanted = make(map[string]bool, len(idFilter))
		for _, id := range idFilter {
			wanted[id] = true
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	accounts := make([]models.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		if wanted != nil && !wanted[a.ID] {
			continue
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MemoryStore) UpsertAccount(ctx context.Context, userID string, account models.Account) error {
	l, err := m.ledger(userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if owner, ok := m.accountOwners[account.ID]; ok && owner != userID {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAccountOwnership, account.ID)
	}
	m.accountOwners[account.ID] = userID
	m.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[account.ID] = account
	return nil
}

func (m *MemoryStore) ListJournalEntries(ctx context.Context, userID string, from, till *time.Time) ([]models.JournalEntry, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]models.JournalEntry, 0)
	for _, e := range l.journal {
		if withinWindow(e.BookingTime, from, till) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RunningNumber < entries[j].RunningNumber })
	return entries, nil
}

func (m *MemoryStore) ListAccountBookingEntries(ctx context.Context, userID string, opts []models.BookingSearchOption) ([]models.AccountBookingEntry, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]models.AccountBookingEntry, 0)
	seen := make(map[string]bool)
	for _, e := range l.bookings {
		for _, opt := range opts {
			if e.AccountID != opt.AccountID || !withinWindow(e.BookingTime, opt.From, opt.Till) {
				continue
			}
			if !seen[e.ID] {
				seen[e.ID] = true
				entries = append(entries, e)
			}
			break
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].BookingTime.Equal(entries[j].BookingTime) {
			return entries[i].BookingTime.Before(entries[j].BookingTime)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (m *MemoryStore) InsertBookingEntry(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// invariants re-checked under the user lock so that two racing requests
	// cannot both pass validation against the same pre-insert state
	for _, e := range l.journal {
		if !e.BookingTime.Equal(req.BookingTime) {
			continue
		}
		if e.CreditAccountID == req.CreditAccountID {
			return nil, fmt.Errorf("%w: credit account %s at %s", ErrDuplicateBookingTime, req.CreditAccountID, req.BookingTime.Format(time.RFC3339Nano))
		}
		if e.DebitAccountID == req.DebitAccountID {
			return nil, fmt.Errorf("%w: debit account %s at %s", ErrDuplicateBookingTime, req.DebitAccountID, req.BookingTime.Format(time.RFC3339Nano))
		}
	}

	for _, accountID := range []string{req.CreditAccountID, req.DebitAccountID} {
		if saldo, ok := l.lastSaldoLocked(accountID); ok && !req.BookingTime.After(saldo.BookingTime) {
			return nil, fmt.Errorf("%w: account %s, saldo at %s", ErrSaldoFence, accountID, saldo.BookingTime.Format(time.RFC3339Nano))
		}
	}

	l.lastRunning++
	journal := models.JournalEntry{
		ID:              uuid.New().String(),
		RunningNumber:   l.lastRunning,
		BookingTime:     req.BookingTime,
		CreditAccountID: req.CreditAccountID,
		DebitAccountID:  req.DebitAccountID,
		Amount:          req.Amount,
		Title:           req.Title,
		Description:     req.Description,
		IsSaldo:         req.IsSaldo,
		IsSimpleEntry:   req.IsSimpleEntry,
	}

	creditType, debitType := models.BookingTypeCredit, models.BookingTypeDebit
	if req.IsSaldo {
		creditType, debitType = models.BookingTypeSaldoCredit, models.BookingTypeSaldoDebit
	}

	credit := projectEntry(journal, req.CreditAccountID, creditType)
	debit := projectEntry(journal, req.DebitAccountID, debitType)

	l.journal = append(l.journal, journal)
	l.bookings = append(l.bookings, credit, debit)

	return &models.BookingResult{JournalEntry: journal, CreditEntry: credit, DebitEntry: debit}, nil
}

func (m *MemoryStore) GetLastSaldoAccountEntries(ctx context.Context, userID string, accountIDs []string) (map[string]models.AccountBookingEntry, error) {
	l, err := m.ledger(userID)
	if err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if accountIDs != nil {
		wanted = make(map[string]bool, len(accountIDs))
		for _, id := range accountIDs {
			wanted[id] = true
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	saldos := make(map[string]models.AccountBookingEntry)
	for _, e := range l.bookings {
		if !e.BookingType.IsSaldo() {
			continue
		}
		if wanted != nil && !wanted[e.AccountID] {
			continue
		}
		if prev, ok := saldos[e.AccountID]; !ok || !e.BookingTime.Before(prev.BookingTime) {
			saldos[e.AccountID] = e
		}
	}
	return saldos, nil
}

// lastSaldoLocked returns the latest saldo-marked booking entry of one
// account. Caller must hold l.mu.
func (l *userLedger) lastSaldoLocked(accountID string) (models.AccountBookingEntry, bool) {
	var last models.AccountBookingEntry
	found := false
	for _, e := range l.bookings {
		if e.AccountID != accountID || !e.BookingType.IsSaldo() {
			continue
		}
		if !found || !e.BookingTime.Before(last.BookingTime) {
			last = e
			found = true
		}
	}
	return last, found
}

func projectEntry(journal models.JournalEntry, accountID string, bookingType models.BookingType) models.AccountBookingEntry {
	return models.AccountBookingEntry{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		JournalEntryID: journal.ID,
		BookingTime:    journal.BookingTime,
		Amount:         journal.Amount,
		BookingType:    bookingType,
		Title:          journal.Title,
		Description:    journal.Description,
	}
}

func withinWindow(t time.Time, from, till *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if till != nil && t.After(*till) {
		return false
	}
	return true
}

var _ LedgerStore = (*MemoryStore)(nil)
