// Package repository declares the storage interfaces the service layer depends on.
//
// The service never sees a concrete database type — only these interfaces.
// That keeps the SQLite choice swappable and lets tests inject in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/auth-service/internal/model"
)

// UserRepository owns user records and their uniqueness invariants.
type UserRepository interface {
	// Create persists a new user, assigning ID and timestamps. It must be
	// atomic against concurrent writers: if two inserts race on the same
	// username or email, exactly one wins and the other gets
	// apperror.ErrDuplicate carrying the colliding field. The application-level
	// pre-check in the service is a courtesy for better error ordering — the
	// real guarantee lives here.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the user with the given internal ID, or
	// apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmail returns the user with the given email (the login key), or
	// apperror.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByUsernameOrEmail returns a user matching either field, or
	// apperror.ErrNotFound. A username match is returned in preference to an
	// email match so the caller can report "username taken" before "email
	// taken" when both collide.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
}
