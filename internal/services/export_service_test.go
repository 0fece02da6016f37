package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausbuch/backend/internal/config"
	"github.com/hausbuch/backend/internal/models"
)

func TestExportService_ExportJournalEntries(t *testing.T) {
	cfg := config.LedgerConfig{Currency: "EUR", BankBIC: "HAUSBUCH"}
	service := NewExportService(cfg)
	bookingTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.JournalEntry{
		{
			ID:              "j1",
			RunningNumber:   1,
			BookingTime:     bookingTime,
			CreditAccountID: "cash",
			DebitAccountID:  "groceries",
			Amount:          1250,
			Title:           "Weekly groceries",
		},
		{
			ID:              "j2",
			RunningNumber:   2,
			BookingTime:     bookingTime.Add(time.Hour),
			CreditAccountID: "equity",
			DebitAccountID:  "cash",
			Amount:          5000,
			Title:           "Opening balance",
			IsSaldo:         true,
		},
	}
	titles := map[string]string{"cash": "Wallet cash", "groceries": "Groceries"}

	t.Run("renders pacs.008 with account titles", func(t *testing.T) {
		xmlData, err := service.ExportJournalEntries(entries, titles)
		require.NoError(t, err)

		assert.Contains(t, xmlData, `<?xml`)
		assert.Contains(t, xmlData, "EUR")
		assert.Contains(t, xmlData, "HAUSBUCH")
		assert.Contains(t, xmlData, "Wallet cash")
		assert.Contains(t, xmlData, "Groceries")
		assert.Contains(t, xmlData, "RN-1")
		assert.Contains(t, xmlData, "12.5")

		// saldo checkpoints carry no value movement
		assert.NotContains(t, xmlData, "Opening balance")
		assert.NotContains(t, xmlData, "RN-2")
	})

	t.Run("falls back to account ids without titles", func(t *testing.T) {
		xmlData, err := service.ExportJournalEntries(entries[:1], nil)
		require.NoError(t, err)
		assert.Contains(t, xmlData, "cash")
		assert.Contains(t, xmlData, "groceries")
	})

	t.Run("nothing to export", func(t *testing.T) {
		_, err := service.ExportJournalEntries(entries[1:], titles)
		assert.Error(t, err)

		_, err = service.ExportJournalEntries(nil, titles)
		assert.Error(t, err)
	})
}
