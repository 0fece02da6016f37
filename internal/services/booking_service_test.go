package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

// setupBookingFixture creates a user with a small chart of accounts.
func setupBookingFixture(t *testing.T, userID string, accountIDs ...string) (*store.MemoryStore, *BookingService) {
	t.Helper()
	st := store.NewMemoryStore()
	st.AddUser(userID)

	accounts := NewAccountService(st)
	ctx := context.Background()
	require.NoError(t, accounts.UpsertAccountType(ctx, userID, models.AccountType{ID: userID + "-type", Title: "General"}))
	for _, id := range accountIDs {
		require.NoError(t, accounts.UpsertAccount(ctx, userID, models.Account{ID: id, Title: id, AccountTypeID: userID + "-type"}))
	}

	return st, NewBookingService(st)
}

func bookingAt(ts time.Time, credit, debit string, amount uint64) models.BookingRequest {
	return models.BookingRequest{
		BookingTime:     ts,
		CreditAccountID: credit,
		DebitAccountID:  debit,
		Amount:          amount,
		Title:           "test booking",
	}
}

func TestBookingService_InsertBookingEntry(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("persists journal entry with both projections", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries")

		result, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 1250))
		require.NoError(t, err)

		assert.Equal(t, int64(1), result.JournalEntry.RunningNumber)
		assert.Equal(t, uint64(1250), result.JournalEntry.Amount)
		assert.False(t, result.JournalEntry.IsSaldo)

		assert.Equal(t, "cash", result.CreditEntry.AccountID)
		assert.Equal(t, models.BookingTypeCredit, result.CreditEntry.BookingType)
		assert.Equal(t, "groceries", result.DebitEntry.AccountID)
		assert.Equal(t, models.BookingTypeDebit, result.DebitEntry.BookingType)

		for _, e := range []models.AccountBookingEntry{result.CreditEntry, result.DebitEntry} {
			assert.Equal(t, result.JournalEntry.ID, e.JournalEntryID)
			assert.Equal(t, result.JournalEntry.Amount, e.Amount)
			assert.True(t, e.BookingTime.Equal(result.JournalEntry.BookingTime))
		}
	})

	t.Run("running numbers are strictly increasing", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries")

		for i := 1; i <= 5; i++ {
			result, err := service.InsertBookingEntry(ctx, "alice",
				bookingAt(base.Add(time.Duration(i)*time.Minute), "cash", "groceries", 100))
			require.NoError(t, err)
			assert.Equal(t, int64(i), result.JournalEntry.RunningNumber)
		}
	})

	t.Run("saldo booking projects saldo types", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "equity")

		req := bookingAt(base, "equity", "cash", 5000)
		req.IsSaldo = true
		result, err := service.InsertBookingEntry(ctx, "alice", req)
		require.NoError(t, err)

		assert.True(t, result.JournalEntry.IsSaldo)
		assert.Equal(t, models.BookingTypeSaldoCredit, result.CreditEntry.BookingType)
		assert.Equal(t, models.BookingTypeSaldoDebit, result.DebitEntry.BookingType)
	})

	t.Run("same account on both sides", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "cash", 100))
		assert.ErrorIs(t, err, ErrSameAccount)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "ghost", 100))
		assert.ErrorIs(t, err, ErrAccountNotAvailable)
	})

	t.Run("foreign account is not available", func(t *testing.T) {
		st, service := setupBookingFixture(t, "alice", "cash")
		st.AddUser("bob")
		accounts := NewAccountService(st)
		require.NoError(t, accounts.UpsertAccountType(ctx, "bob", models.AccountType{ID: "bob-type", Title: "General"}))
		require.NoError(t, accounts.UpsertAccount(ctx, "bob", models.Account{ID: "bob-cash", Title: "Cash", AccountTypeID: "bob-type"}))

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "bob-cash", 100))
		assert.ErrorIs(t, err, ErrAccountNotAvailable)
	})

	t.Run("validation rejects zero amount", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 0))
		assert.Error(t, err)
	})
}

func TestBookingService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	bookingTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, service := setupBookingFixture(t, "alice", "cash", "groceries")

	req := models.BookingRequest{
		BookingTime:     bookingTime,
		CreditAccountID: "cash",
		DebitAccountID:  "groceries",
		Amount:          1250,
		Title:           "Weekly groceries",
		Description:     "market run",
		IsSimpleEntry:   true,
	}
	result, err := service.InsertBookingEntry(ctx, "alice", req)
	require.NoError(t, err)

	// the journal view returns the entry exactly as requested, even with
	// both window bounds pinned to the booking instant
	entries, err := service.ListJournalEntries(ctx, "alice", &bookingTime, &bookingTime)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	journal := entries[0]
	assert.Equal(t, result.JournalEntry.ID, journal.ID)
	assert.True(t, journal.BookingTime.Equal(req.BookingTime))
	assert.Equal(t, req.CreditAccountID, journal.CreditAccountID)
	assert.Equal(t, req.DebitAccountID, journal.DebitAccountID)
	assert.Equal(t, req.Amount, journal.Amount)
	assert.Equal(t, req.Title, journal.Title)
	assert.Equal(t, req.Description, journal.Description)
	assert.Equal(t, req.IsSaldo, journal.IsSaldo)
	assert.Equal(t, req.IsSimpleEntry, journal.IsSimpleEntry)

	// both per-account projections agree with the request as well
	for _, accountID := range []string{"cash", "groceries"} {
		projections, err := service.ListAccountBookingEntries(ctx, "alice",
			[]models.BookingSearchOption{{AccountID: accountID}})
		require.NoError(t, err)
		require.Len(t, projections, 1)
		p := projections[0]
		assert.Equal(t, accountID, p.AccountID)
		assert.Equal(t, journal.ID, p.JournalEntryID)
		assert.True(t, p.BookingTime.Equal(req.BookingTime))
		assert.Equal(t, req.Amount, p.Amount)
		assert.Equal(t, req.Title, p.Title)
		assert.Equal(t, req.Description, p.Description)
		assert.Equal(t, req.IsSaldo, p.BookingType.IsSaldo())
		assert.Equal(t, accountID == req.CreditAccountID, p.BookingType.IsCredit())
	}
}

func TestBookingService_DuplicateBookingTime(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("same credit account at same time conflicts", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries", "rent")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 100))
		require.NoError(t, err)

		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "rent", 200))
		assert.ErrorIs(t, err, store.ErrDuplicateBookingTime)
	})

	t.Run("same debit account at same time conflicts", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "bank", "groceries")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 100))
		require.NoError(t, err)

		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base, "bank", "groceries", 200))
		assert.ErrorIs(t, err, store.ErrDuplicateBookingTime)
	})

	t.Run("sides swapped at same time is allowed", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 100))
		require.NoError(t, err)

		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base, "groceries", "cash", 100))
		assert.NoError(t, err)
	})

	t.Run("different time does not conflict", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "cash", "groceries")

		_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 100))
		require.NoError(t, err)

		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base.Add(time.Nanosecond), "cash", "groceries", 100))
		assert.NoError(t, err)
	})
}

func TestBookingService_SaldoFence(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Each combination of the fenced account's role in the saldo entry and in
	// the later booking must be rejected at or before the saldo time.
	roles := []struct {
		name        string
		saldoCredit bool
		bookCredit  bool
	}{
		{"saldo credit then booking credit", true, true},
		{"saldo credit then booking debit", true, false},
		{"saldo debit then booking credit", false, true},
		{"saldo debit then booking debit", false, false},
	}

	for _, role := range roles {
		t.Run(role.name, func(t *testing.T) {
			_, service := setupBookingFixture(t, "alice", "fenced", "equity", "other")

			saldo := bookingAt(base, "equity", "fenced", 5000)
			if role.saldoCredit {
				saldo = bookingAt(base, "fenced", "equity", 5000)
			}
			saldo.IsSaldo = true
			_, err := service.InsertBookingEntry(ctx, "alice", saldo)
			require.NoError(t, err)

			book := bookingAt(base.Add(-time.Minute), "other", "fenced", 100)
			if role.bookCredit {
				book = bookingAt(base.Add(-time.Minute), "fenced", "other", 100)
			}
			_, err = service.InsertBookingEntry(ctx, "alice", book)
			assert.ErrorIs(t, err, store.ErrSaldoFence)

			// equal to the saldo time is rejected too. When the fenced
			// account repeats its saldo side the per-side duplicate check
			// fires first; otherwise the fence itself does.
			book.BookingTime = base
			_, err = service.InsertBookingEntry(ctx, "alice", book)
			if role.saldoCredit == role.bookCredit {
				assert.ErrorIs(t, err, store.ErrDuplicateBookingTime)
			} else {
				assert.ErrorIs(t, err, store.ErrSaldoFence)
			}

			// strictly after the saldo passes
			book.BookingTime = base.Add(time.Minute)
			_, err = service.InsertBookingEntry(ctx, "alice", book)
			assert.NoError(t, err)
		})
	}

	t.Run("only latest saldo fences", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "fenced", "equity", "other")

		saldo := bookingAt(base, "fenced", "equity", 5000)
		saldo.IsSaldo = true
		_, err := service.InsertBookingEntry(ctx, "alice", saldo)
		require.NoError(t, err)

		later := bookingAt(base.Add(time.Hour), "fenced", "equity", 6000)
		later.IsSaldo = true
		_, err = service.InsertBookingEntry(ctx, "alice", later)
		require.NoError(t, err)

		// between the two saldos is behind the latest fence
		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base.Add(30*time.Minute), "fenced", "other", 100))
		assert.ErrorIs(t, err, store.ErrSaldoFence)
	})

	t.Run("unfenced account is unaffected", func(t *testing.T) {
		_, service := setupBookingFixture(t, "alice", "fenced", "equity", "a", "b")

		saldo := bookingAt(base, "fenced", "equity", 5000)
		saldo.IsSaldo = true
		_, err := service.InsertBookingEntry(ctx, "alice", saldo)
		require.NoError(t, err)

		_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base.Add(-time.Hour), "a", "b", 100))
		assert.NoError(t, err)
	})
}

func TestBookingService_ListJournalEntries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, service := setupBookingFixture(t, "alice", "cash", "groceries")

	for i := 0; i < 3; i++ {
		_, err := service.InsertBookingEntry(ctx, "alice",
			bookingAt(base.Add(time.Duration(i)*time.Hour), "cash", "groceries", uint64(100*(i+1))))
		require.NoError(t, err)
	}

	t.Run("full journal ordered by running number", func(t *testing.T) {
		entries, err := service.ListJournalEntries(ctx, "alice", nil, nil)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i, e := range entries {
			assert.Equal(t, int64(i+1), e.RunningNumber)
		}
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		from, till := base.Add(time.Hour), base.Add(2*time.Hour)
		entries, err := service.ListJournalEntries(ctx, "alice", &from, &till)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint64(200), entries[0].Amount)
		assert.Equal(t, uint64(300), entries[1].Amount)
	})

	t.Run("from after till", func(t *testing.T) {
		from, till := base.Add(time.Hour), base
		_, err := service.ListJournalEntries(ctx, "alice", &from, &till)
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})
}

func TestBookingService_ListAccountBookingEntries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, service := setupBookingFixture(t, "alice", "cash", "groceries", "rent")

	_, err := service.InsertBookingEntry(ctx, "alice", bookingAt(base, "cash", "groceries", 100))
	require.NoError(t, err)
	_, err = service.InsertBookingEntry(ctx, "alice", bookingAt(base.Add(time.Hour), "cash", "rent", 200))
	require.NoError(t, err)

	t.Run("single account", func(t *testing.T) {
		entries, err := service.ListAccountBookingEntries(ctx, "alice",
			[]models.BookingSearchOption{{AccountID: "cash"}})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, "cash", e.AccountID)
			assert.Equal(t, models.BookingTypeCredit, e.BookingType)
		}
	})

	t.Run("union of overlapping options has no duplicates", func(t *testing.T) {
		till := base.Add(2 * time.Hour)
		entries, err := service.ListAccountBookingEntries(ctx, "alice",
			[]models.BookingSearchOption{
				{AccountID: "cash"},
				{AccountID: "cash", From: &base, Till: &till},
				{AccountID: "groceries"},
			})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("empty options", func(t *testing.T) {
		_, err := service.ListAccountBookingEntries(ctx, "alice", nil)
		assert.ErrorIs(t, err, ErrEmptySearchOptions)
	})

	t.Run("option with from after till", func(t *testing.T) {
		from, till := base.Add(time.Hour), base
		_, err := service.ListAccountBookingEntries(ctx, "alice",
			[]models.BookingSearchOption{{AccountID: "cash", From: &from, Till: &till}})
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("option without account id", func(t *testing.T) {
		_, err := service.ListAccountBookingEntries(ctx, "alice",
			[]models.BookingSearchOption{{AccountID: ""}})
		assert.Error(t, err)
	})
}
