// Package auth provides JWT token generation and validation.
//
// WHY JWT?
// The token is stateless — everything needed to trust it (identity claims,
// expiry) travels inside the signed string. Validation is a pure
// signature-plus-expiry check: no database lookup, no session store. Any
// service that holds the shared secret can validate tokens locally instead of
// calling back here.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"user_id":"...","username":"...","email":"...","exp":...,"iat":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The claims are a snapshot taken at login. If the user record changes
// afterwards, outstanding tokens keep the old values until they expire.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/auth-service/internal/model"
)

// Claims is the token payload: the user snapshot plus the registered
// issued-at/expires-at fields.
//
// The JSON names (user_id, username, email) are part of the wire contract —
// third-party services validating our tokens parse exactly these keys, so they
// must not change.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies JWTs with a symmetric secret.
//
// The same secret is used for both operations (HS256). Rotating it invalidates
// every outstanding token at once — there is no grace period, by construction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token TTL.
// The secret should be at least 32 bytes of random data in production
// (JWT_SECRET=$(openssl rand -hex 32)); anything under 16 is refused outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Generate mints a signed token for the given user with the configured TTL.
// Encoding never fails for a well-formed user; an error here means the signing
// machinery itself broke.
func (s *TokenService) Generate(user *model.User) (string, error) {
	return s.GenerateWithTTL(user, s.ttl)
}

// GenerateWithTTL mints a token with an explicit lifetime. Tests use it to
// produce already-expired tokens (negative d).
func (s *TokenService) GenerateWithTTL(user *model.User, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning its claims.
//
// The token is rejected (error, never a panic) if:
//   - the structure is malformed
//   - the signature doesn't match our secret
//   - expiry is in the past (wall-clock at call time, no skew allowance)
//
// Nothing else is checked. In particular there is no revocation list and no
// user lookup — a valid token stays valid until it expires, by design.
//
// ALGORITHM CONFUSION:
// jwt.WithValidMethods pins HS256 so a token claiming alg "none" (or an RSA
// variant) is rejected before any signature work.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired: %w", err)
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.UserID == "" {
		return nil, errors.New("auth: token has no user_id")
	}

	return c, nil
}
