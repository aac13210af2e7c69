package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountType distinguishes clients (who post jobs) from service
// providers (who bid on them).
type AccountType string

const (
	AccountClient   AccountType = "client"
	AccountProvider AccountType = "provider"
)

// ValidAccountType reports whether t is a known account type.
func ValidAccountType(t AccountType) bool {
	return t == AccountClient || t == AccountProvider
}

// User is a marketplace account. Raw passwords are never stored; only
// the bcrypt hash is persisted.
type User struct {
	ID           uuid.UUID   `db:"id"            json:"id"`
	Username     string      `db:"username"      json:"username"`
	Email        string      `db:"email"         json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	AccountType  AccountType `db:"account_type"  json:"account_type"`
	FirstName    string      `db:"first_name"    json:"first_name,omitempty"`
	LastName     string      `db:"last_name"     json:"last_name,omitempty"`
	Tel          string      `db:"tel"           json:"tel,omitempty"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"    json:"updated_at"`
}
