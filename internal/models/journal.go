package models

import (
	"time"
)

// BookingType classifies the per-account projection of a journal entry.
// The saldo variants mark the projection of a saldo checkpoint entry.
type BookingType string

const (
	BookingTypeCredit      BookingType = "CREDIT"
	BookingTypeDebit       BookingType = "DEBIT"
	BookingTypeSaldoCredit BookingType = "SALDO_CREDIT"
	BookingTypeSaldoDebit  BookingType = "SALDO_DEBIT"
)

// IsCredit reports whether the booking type sits on the credit side.
func (bt BookingType) IsCredit() bool {
	return bt == BookingTypeCredit || bt == BookingTypeSaldoCredit
}

// IsSaldo reports whether the booking type marks a saldo checkpoint.
func (bt BookingType) IsSaldo() bool {
	return bt == BookingTypeSaldoCredit || bt == BookingTypeSaldoDebit
}

// JournalEntry is one double-entry record linking a credit account and a
// debit account for one amount at one instant. Entries are append-only and
// immutable once created. Amounts are in the smallest currency unit.
type JournalEntry struct {
	ID              string    `json:"id" db:"id"`
	RunningNumber   int64     `json:"running_number" db:"running_number"`
	BookingTime     time.Time `json:"booking_time" db:"booking_time"`
	CreditAccountID string    `json:"credit_account_id" db:"credit_account_id"`
	DebitAccountID  string    `json:"debit_account_id" db:"debit_account_id"`
	Amount          uint64    `json:"amount" db:"amount"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	IsSaldo         bool      `json:"is_saldo" db:"is_saldo"`
	IsSimpleEntry   bool      `json:"is_simple_entry" db:"is_simple_entry"`
}

// AccountBookingEntry is the per-account projection of a journal entry,
// one per side. Immutable once created.
type AccountBookingEntry struct {
	ID             string      `json:"id" db:"id"`
	AccountID      string      `json:"finance_account_id" db:"finance_account_id"`
	JournalEntryID string      `json:"finance_journal_diary_id" db:"finance_journal_diary_id"`
	BookingTime    time.Time   `json:"booking_time" db:"booking_time"`
	Amount         uint64      `json:"amount" db:"amount"`
	BookingType    BookingType `json:"booking_type" db:"booking_type"`
	Title          string      `json:"title" db:"title"`
	Description    string      `json:"description" db:"description"`
}

// BookingRequest is the payload for inserting a new booking.
type BookingRequest struct {
	BookingTime     time.Time `json:"booking_time" validate:"required"`
	CreditAccountID string    `json:"credit_account_id" validate:"required,max=64"`
	DebitAccountID  string    `json:"debit_account_id" validate:"required,max=64"`
	Amount          uint64    `json:"amount" validate:"required,gt=0"`
	Title           string    `json:"title" validate:"required,max=140"`
	Description     string    `json:"description" validate:"max=500"`
	IsSaldo         bool      `json:"is_saldo"`
	IsSimpleEntry   bool      `json:"is_simple_entry"`
}

// BookingResult bundles everything persisted for one booking so callers can
// verify the exact stored values without a second round trip.
type BookingResult struct {
	JournalEntry JournalEntry        `json:"journal_entry"`
	CreditEntry  AccountBookingEntry `json:"credit_entry"`
	DebitEntry   AccountBookingEntry `json:"debit_entry"`
}

// BookingSearchOption selects booking entries of one account within an
// optional time window. Nil bounds are unbounded; bounds are inclusive.
type BookingSearchOption struct {
	AccountID string     `json:"account_id" validate:"required,max=64"`
	From      *time.Time `json:"from,omitempty"`
	Till      *time.Time `json:"till,omitempty"`
}
