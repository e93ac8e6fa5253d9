package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/model"
	"github.com/sakif/auth-service/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user, assigning an ID and timestamps in-place.
//
// RACE SAFETY:
// The INSERT and the duplicate check are one atomic unit here — the UNIQUE
// constraints decide. Two concurrent Creates with the same username reach this
// statement together; SQLite admits exactly one and rejects the other with a
// constraint violation, which we surface as apperror.Duplicate naming the
// colliding field. The service's earlier pre-check only improves error
// ordering; it cannot be fooled into admitting both.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if field, ok := uniqueViolation(err); ok {
			return apperror.Duplicate(field)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, email, password_hash, is_active, created_at, updated_at
		 FROM users WHERE id = ?`,
		id, id)
}

// GetByEmail retrieves a user by email — the login key.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT id, username, email, password_hash, is_active, created_at, updated_at
		 FROM users WHERE email = ?`,
		email, email)
}

// GetByUsernameOrEmail retrieves a user matching either field.
//
// When the username matches one record and the email another, the username
// match wins (ORDER BY the match flag) — registration reports "Username
// already exists" before "Email already exists", matching the service's
// check-username-first rule.
func (db *DB) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_active, created_at, updated_at
		 FROM users
		 WHERE username = ? OR email = ?
		 ORDER BY (username = ?) DESC
		 LIMIT 1`,
		username, email, username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: looking up user by username/email: %w", err)
	}

	return &u, nil
}

// getUser runs a single-row user query and maps sql.ErrNoRows to NotFound.
func (db *DB) getUser(ctx context.Context, query, arg, describe string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", describe)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", describe, err)
	}

	return &u, nil
}

// uniqueViolation inspects a driver error for a UNIQUE constraint failure and
// reports which of our unique columns was hit.
//
// modernc.org/sqlite exposes constraint failures only through the error text,
// e.g. "constraint failed: UNIQUE constraint failed: users.username (2067)",
// so matching on the message is the available mechanism.
func uniqueViolation(err error) (field string, ok bool) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return "username", true
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return "email", true
	default:
		return "", false
	}
}
