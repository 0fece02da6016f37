package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

func newTestLedger(t *testing.T, userIDs ...string) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	for _, id := range userIDs {
		st.AddUser(id)
	}
	return st
}

func TestAccountService_UpsertAccountType(t *testing.T) {
	ctx := context.Background()
	st := newTestLedger(t, "alice", "bob")
	service := NewAccountService(st)

	t.Run("create and update", func(t *testing.T) {
		err := service.UpsertAccountType(ctx, "alice", models.AccountType{ID: "assets", Title: "Assets"})
		require.NoError(t, err)

		err = service.UpsertAccountType(ctx, "alice", models.AccountType{ID: "assets", Title: "Asset accounts", Description: "Cash and bank"})
		require.NoError(t, err)

		types, err := service.ListAccountTypes(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, types, 1)
		assert.Equal(t, "Asset accounts", types[0].Title)
		assert.Equal(t, "Cash and bank", types[0].Description)
	})

	t.Run("ownership conflict", func(t *testing.T) {
		err := service.UpsertAccountType(ctx, "bob", models.AccountType{ID: "assets", Title: "Assets"})
		assert.ErrorIs(t, err, store.ErrAccountTypeOwnership)
	})

	t.Run("validation failure", func(t *testing.T) {
		err := service.UpsertAccountType(ctx, "alice", models.AccountType{ID: "", Title: "No id"})
		assert.Error(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := service.ListAccountTypes(ctx, "mallory")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestAccountService_UpsertAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestLedger(t, "alice", "bob")
	service := NewAccountService(st)

	require.NoError(t, service.UpsertAccountType(ctx, "alice", models.AccountType{ID: "assets", Title: "Assets"}))
	require.NoError(t, service.UpsertAccountType(ctx, "bob", models.AccountType{ID: "bob-assets", Title: "Assets"}))

	t.Run("create and update", func(t *testing.T) {
		err := service.UpsertAccount(ctx, "alice", models.Account{ID: "cash", Title: "Cash", AccountTypeID: "assets"})
		require.NoError(t, err)

		err = service.UpsertAccount(ctx, "alice", models.Account{ID: "cash", Title: "Wallet cash", AccountTypeID: "assets"})
		require.NoError(t, err)

		accounts, err := service.ListAccounts(ctx, "alice", nil)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Wallet cash", accounts[0].Title)
	})

	t.Run("account type of another user is not available", func(t *testing.T) {
		err := service.UpsertAccount(ctx, "alice", models.Account{ID: "bike", Title: "Bike", AccountTypeID: "bob-assets"})
		assert.ErrorIs(t, err, ErrAccountTypeNotAvailable)
	})

	t.Run("ownership conflict", func(t *testing.T) {
		err := service.UpsertAccount(ctx, "bob", models.Account{ID: "cash", Title: "Cash", AccountTypeID: "bob-assets"})
		assert.ErrorIs(t, err, store.ErrAccountOwnership)
	})

	t.Run("id filter excludes foreign accounts", func(t *testing.T) {
		accounts, err := service.ListAccounts(ctx, "bob", []string{"cash"})
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}
