// Package service — authentication business logic.
//
// AuthService is the orchestration layer between the HTTP handlers and the
// repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (workflows) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//	                   ↘ TokenService (JWT)
//
// Three workflows live here — Register, Login, ValidateToken — each a short,
// deterministic sequence with explicit failure exits. Every workflow validates
// its input BEFORE touching storage or bcrypt: a malformed request must never
// cost us a ~250ms hash or a disk round-trip.
//
// Nothing persists across calls. The service is safe under unbounded
// concurrent invocation — no shared mutable state, no locks; the only shared
// resource is the repository's backing store, whose uniqueness guarantees are
// enforced there.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/model"
	"github.com/sakif/auth-service/internal/repository"
)

// Policy holds the registration input rules, injected from config so tests can
// run with whatever thresholds they need.
type Policy struct {
	MinUsernameLength int
	MinPasswordLength int
}

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	policy    Policy
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Called from the composition root (server.go) when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	policy Policy,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		policy:    policy,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// Sequence:
//  1. Reject missing/empty fields (ValidationError).
//  2. Enforce the length policy (ValidationError) — before any storage access.
//  3. Pre-check uniqueness by username-or-email; a hit is a DuplicateError
//     citing the colliding field, username checked first.
//  4. Hash the password, insert with IsActive=true. The repository's UNIQUE
//     constraints re-check uniqueness atomically, so a racing registration
//     that slipped past step 3 still loses here with the same DuplicateError.
//
// The returned User carries the hash internally but its JSON form never does
// (json:"-"); callers can serialize it as-is.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Missing required fields: username, email, password")
	}
	if len(username) < s.policy.MinUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be at least %d characters", s.policy.MinUsernameLength))
	}
	if len(password) < s.policy.MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters", s.policy.MinPasswordLength))
	}

	// Uniqueness pre-check. Username collision is reported in preference to
	// email collision when both exist (the repository orders matches that way).
	existing, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		if existing.Username == username {
			return nil, apperror.Duplicate("username")
		}
		return nil, apperror.Duplicate("email")
	case errors.Is(err, apperror.ErrNotFound):
		// free to proceed
	default:
		return nil, fmt.Errorf("service/auth: checking uniqueness for %q: %w", username, apperror.Internal(err))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", apperror.Internal(err))
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			// Lost the insert race to a concurrent registration.
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: inserting user %q: %w", username, apperror.Internal(err))
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and mints a token.
//
// ANTI-ENUMERATION:
// Unknown email and wrong password both answer "Invalid credentials" — the
// caller cannot tell which accounts exist from this path. A deactivated
// account answers "Account is deactivated", which does reveal existence; that
// asymmetry is the documented behavior of this service and callers rely on it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Missing required fields: email, password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up login email: %w", apperror.Internal(err))
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized("Account is deactivated")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, apperror.Internal(err))
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken decodes and verifies a token string, returning the identity
// claims embedded at mint time.
//
// DELIBERATELY STATELESS:
// No directory lookup happens here. The claims are a snapshot from login — if
// the user was renamed or deactivated since, the token still validates until
// it expires. That is what lets any trusted service holding the shared secret
// validate tokens without calling back into this one.
func (s *AuthService) ValidateToken(tokenStr string) (*auth.Claims, error) {
	if tokenStr == "" {
		return nil, apperror.ValidationFailed("token", "No token provided")
	}

	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}

	return claims, nil
}

// GetUserByID returns the live user record for the given internal ID.
// Kept for callers that need current directory state rather than the token
// snapshot (the token-guarded /me endpoint intentionally does NOT use it).
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "User ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, apperror.Internal(err))
	}

	return user, nil
}
