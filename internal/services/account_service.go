package services

import (
	"context"
	"fmt"
	"log"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

// AccountService owns the per-user account and account type configuration.
// Ownership is always determined by store lookup, never by trusting the
// caller-supplied user context alone.
type AccountService struct {
	store     store.LedgerStore
	validator *ValidationHelper
}

func NewAccountService(st store.LedgerStore) *AccountService {
	return &AccountService{
		store:     st,
		validator: NewValidationHelper(),
	}
}

// ListAccountTypes returns all account types owned by the user. An unknown
// user surfaces as store.ErrUserNotFound.
func (s *AccountService) ListAccountTypes(ctx context.Context, userID string) ([]models.AccountType, error) {
	return s.store.ListAccountTypes(ctx, userID)
}

// UpsertAccountType creates the account type if its id is unseen for this
// user, otherwise updates it in place. An id held by a different user is
// rejected by the store with an ownership error.
func (s *AccountService) UpsertAccountType(ctx context.Context, userID string, accountType models.AccountType) error {
	if err := s.validator.ValidateStruct(&accountType); err != nil {
		return err
	}
	if err := s.store.UpsertAccountType(ctx, userID, accountType); err != nil {
		return err
	}
	log.Printf("[ACCOUNT] Upserted account type %s for user %s", accountType.ID, userID)
	return nil
}

// ListAccounts returns the user's accounts, restricted to idFilter when it
// is non-nil. Ids belonging to other users are silently excluded.
func (s *AccountService) ListAccounts(ctx context.Context, userID string, idFilter []string) ([]models.Account, error) {
	return s.store.ListAccounts(ctx, userID, idFilter)
}

// UpsertAccount creates or updates an account by id. The referenced account
// type must resolve for this user, otherwise ErrAccountTypeNotAvailable.
func (s *AccountService) UpsertAccount(ctx context.Context, userID string, account models.Account) error {
	if err := s.validator.ValidateStruct(&account); err != nil {
		return err
	}

	types, err := s.store.ListAccountTypes(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for _, at := range types {
		if at.ID == account.AccountTypeID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAccountTypeNotAvailable, account.AccountTypeID)
	}

	if err := s.store.UpsertAccount(ctx, userID, account); err != nil {
		return err
	}
	log.Printf("[ACCOUNT] Upserted account %s for user %s", account.ID, userID)
	return nil
}
