// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
// bcrypt with cost 12 takes ~250ms — negligible for login, brutal for attackers.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the production work factor. Set it so hashing takes
// ~200-300ms on your production hardware; config exposes it as BCRYPT_COST.
const DefaultBcryptCost = 12

// ErrPasswordTooLong reports bcrypt's intrinsic 72-byte input limit. The
// service layer matches on it to classify the failure as bad input rather
// than a hashing-subsystem breakage.
var ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: production
// uses 12 from config, tests use bcrypt.MinCost (4) to run in milliseconds.
// Each Hash/Verify call is independent — no shared state, no locking — so
// concurrent logins and registrations never serialize against each other.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Out-of-range costs are clamped by bcrypt itself; config.Validate rejects
// them earlier at startup.
func NewPasswordService(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained record like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store it directly — it embeds the salt and cost, and Verify knows how to
// decode it. The random salt means hashing the same password twice yields two
// different records.
//
// No length policy is applied here; that belongs to the service layer. The one
// error bcrypt itself raises for input (passwords over 72 bytes) is propagated
// for the caller to classify.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match, a non-nil error otherwise.
//
// A malformed or garbage hash is treated as a non-match (error), never a panic —
// whatever is in the database, Verify answers "no" rather than blowing up.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword compares in constant time internally, so an
// attacker can't learn hash prefixes from response timing.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return fmt.Errorf("auth: password mismatch: %w", err)
	}
	return nil
}
