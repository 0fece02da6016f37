package services

import "errors"

var (
	// ErrSameAccount is returned when a booking names the same account on
	// both sides.
	ErrSameAccount = errors.New("credit and debit account must differ")

	// ErrInvalidTimeRange is returned when a time filter has from > till.
	ErrInvalidTimeRange = errors.New("invalid time range: from is after till")

	// ErrEmptySearchOptions is returned when a booking entry search carries
	// no search options.
	ErrEmptySearchOptions = errors.New("search options must not be empty")

	// ErrAccountNotAvailable is returned when a referenced account does not
	// resolve to an account owned by the current user.
	ErrAccountNotAvailable = errors.New("account not available for user")

	// ErrAccountTypeNotAvailable is returned when a referenced account type
	// does not resolve to an account type owned by the current user.
	ErrAccountTypeNotAvailable = errors.New("account type not available for user")
)
