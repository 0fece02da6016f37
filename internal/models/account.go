package models

// AccountType categorizes bookkeeping accounts (e.g. asset, expense).
// Owned by exactly one user; created or updated via upsert, never deleted.
type AccountType struct {
	ID          string `json:"id" db:"id" validate:"required,max=64"`
	Title       string `json:"title" db:"title" validate:"required,max=140"`
	Description string `json:"description" db:"description" validate:"max=500"`
}

// Account is a single bookkeeping account in a user's chart of accounts.
// The referenced account type must belong to the same user.
type Account struct {
	ID            string `json:"id" db:"id" validate:"required,max=64"`
	Title         string `json:"title" db:"title" validate:"required,max=140"`
	Description   string `json:"description" db:"description" validate:"max=500"`
	AccountTypeID string `json:"finance_account_type_id" db:"finance_account_type_id" validate:"required,max=64"`
}

// BalanceType marks which side of an account currently dominates.
type BalanceType string

const (
	BalanceTypeCredit BalanceType = "CREDIT"
	BalanceTypeDebit  BalanceType = "DEBIT"
)

// AccountBalanceInfo is the derived net balance of one account. It is
// computed on demand and never persisted.
type AccountBalanceInfo struct {
	AccountID   string      `json:"account_id"`
	Amount      uint64      `json:"amount"`
	BalanceType BalanceType `json:"balance_type"`
}
