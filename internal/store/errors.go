package store

import "errors"

var (
	// ErrUserNotFound is returned when the user itself is unknown to the store.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountTypeOwnership is returned when an account type id already
	// exists but belongs to a different user.
	ErrAccountTypeOwnership = errors.New("account type is owned by another user")

	// ErrAccountOwnership is returned when an account id already exists but
	// belongs to a different user.
	ErrAccountOwnership = errors.New("account is owned by another user")

	// ErrDuplicateBookingTime is returned when an account side already holds
	// an entry at the requested booking time.
	ErrDuplicateBookingTime = errors.New("duplicate booking time for account")

	// ErrSaldoFence is returned when a booking would be inserted at or before
	// the latest saldo checkpoint of an involved account.
	ErrSaldoFence = errors.New("booking time is at or before the last saldo entry")
)
