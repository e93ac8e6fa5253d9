// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Username and email are both globally unique — username is what the user is
// called, email is the login key. The DB enforces both with UNIQUE constraints,
// and the service layer pre-checks them so it can tell the caller WHICH field
// collided ("Username already exists" vs "Email already exists").
//
// WHY `json:"-"` ON PasswordHash?
// The hash must never appear in an API response, under any code path. Tagging the
// field with "-" makes encoding/json skip it entirely, so even a handler that
// naively serializes the whole struct cannot leak it. Defence lives in the type,
// not in every handler's discipline.
//
// IsActive defaults to true at registration. When false, login is refused even
// with correct credentials. Nothing in this service flips it — it exists for
// administrative deactivation from outside.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	IsActive     bool      `json:"isActive"  db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
