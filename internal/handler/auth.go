// Package handler contains the HTTP handlers — the thin translation layer
// between the wire and the AuthService.
//
// Handlers parse the request, call exactly one service method, and render the
// result. All business rules (validation policy, uniqueness, credential
// checks) live in the service; all status-code decisions live in response.go.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/service"
)

// AuthHandler exposes the authentication workflows over HTTP.
//
//	POST /register → create an account
//	POST /login    → verify credentials, issue a token
//	POST /validate → verify a token for another service
//	GET  /me       → echo the caller's token claims (behind RequireAuth)
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. Dependencies are injected; the
// handler doesn't know how they were constructed.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// registerRequest is the expected POST /register body.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the expected POST /login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validateRequest is the expected POST /validate body.
type validateRequest struct {
	Token string `json:"token"`
}

// claimsView is the identity snapshot returned by /validate and /me. The keys
// mirror the token payload so callers see one consistent shape.
type claimsView struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /register
// Body: {"username": "...", "email": "...", "password": "..."}
//
// 201 → {"message": "User registered successfully", "user": {...}}
// 400 → validation failure, 409 → username/email taken, 500 → storage failure.
//
// The user object serializes without the hash — model.User tags PasswordHash
// with json:"-", so there is no code path that could include it.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logError(r, "register failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /login
// Body: {"email": "...", "password": "..."}
//
// 200 → {"message": "Login successful", "token": "...", "user": {...}}
// 400 → missing fields, 401 → bad credentials or deactivated account.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError(r, "login failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleValidate checks a token on behalf of another service.
//
// HTTP: POST /validate
// Body: {"token": "..."}
//
// 200 → {"valid": true,  "user": {"user_id": ..., "username": ..., "email": ...}}
// 400 → {"valid": false, "error": "No token provided"}
// 401 → {"valid": false, "error": "Invalid or expired token"}
//
// This endpoint exists for callers that can't (or don't want to) hold the
// shared secret themselves. Services that do hold it can validate locally and
// never need to call here.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"valid": false,
			"error": "No token provided",
		})
		return
	}

	claims, err := h.svc.ValidateToken(req.Token)
	if err != nil {
		// The /validate wire shape predates ErrorResponse and keeps its own
		// {"valid": ..., "error": ...} contract.
		var appErr *apperror.AppError
		status := http.StatusUnauthorized
		message := "Invalid or expired token"
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) {
			status = http.StatusBadRequest
			message = appErr.Message
		}
		writeJSON(w, status, map[string]any{
			"valid": false,
			"error": message,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user": claimsView{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
		},
	})
}

// HandleMe returns the authenticated caller's identity.
//
// HTTP: GET /me
// Auth: RequireAuth middleware (Authorization: Bearer <token>)
//
// The response is the token's claims snapshot — no directory lookup. If the
// account changed since login, this view is stale until the token expires;
// that is the stateless-validation contract, not a bug.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't assume the wiring.
		writeError(w, apperror.Unauthorized("Invalid or expired token"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": claimsView{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
		},
	})
}

// logError logs a failed request at a level matching its severity: internal
// failures are errors (operator attention), everything else is the caller's
// fault and logs as debug noise. Never logs passwords or hashes — only the
// error message, which the taxonomy keeps free of both.
func (h *AuthHandler) logError(r *http.Request, msg string, err error) {
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, apperror.ErrInternal) {
		h.logger.Error(msg, attrs...)
		return
	}
	h.logger.Debug(msg, attrs...)
}
