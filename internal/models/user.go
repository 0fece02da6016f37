package models

import "time"

// User owns a chart of accounts and a journal. All ledger entities are
// scoped to exactly one user and never shared.
type User struct {
	ID        string     `json:"id" example:"6f1c1f3e-9f4b-4d49-8f4e-1a2b3c4d5e6f"` // User ID
	Email     string     `json:"email" example:"user@example.com"`                  // User email
	FirstName string     `json:"FirstName" example:"John"`                          // User first name
	LastName  string     `json:"LastName" example:"Doe"`                            // User last name
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
