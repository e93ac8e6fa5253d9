package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/auth-service/internal/apperror"
	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// A hand-written fake (not a mock framework) keeps these tests easy to read —
// you can see exactly what the fake does. It enforces the same uniqueness
// rules as the SQLite implementation, mutex-guarded so the concurrency test
// exercises a real race.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	nextID int

	// set to non-nil to simulate a storage failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	// Uniqueness enforced atomically under the lock, like the UNIQUE
	// constraints do in SQLite. Username checked first.
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Duplicate("username")
		}
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Duplicate("email")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-fake-%d", f.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	// Username match preferred, like the SQLite ORDER BY.
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// deactivate flips IsActive directly in storage — the administrative mutation
// this service itself never performs.
func (f *fakeUserRepo) deactivate(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsActive = false
	}
}

// newTestAuthService returns an AuthService wired with the fake repo, a
// test-secret TokenService, bcrypt at minimum cost, and the default policy
// (username ≥ 3, password ≥ 6).
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordService(bcrypt.MinCost)
	policy := Policy{MinUsernameLength: 3, MinPasswordLength: 6}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(repo, ts, ps, policy, logger)
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	user, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() should assign an ID")
	}
	if user.Username != "alice" || user.Email != "a@x.com" {
		t.Errorf("Register() user = %+v", user)
	}
	if !user.IsActive {
		t.Error("Register() must create active accounts")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Error("Register() must store a hash, never the plaintext")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"all empty", "", "", ""},
		{"missing username", "", "a@x.com", "secret1"},
		{"missing email", "alice", "", "secret1"},
		{"missing password", "alice", "a@x.com", ""},
		{"username too short", "ab", "a@x.com", "secret1"},
		{"password too short", "alice", "a@x.com", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := newTestAuthService(t, repo)

			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() should fail with ErrValidation, got %v", err)
			}
			// Fail fast: validation must never touch storage.
			if len(repo.users) != 0 {
				t.Error("no user should be stored after a validation failure")
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "b@x.com", "secret2")
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("Register() should fail with ErrDuplicate, got %v", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "username" {
		t.Errorf("duplicate should cite username, got %+v", appErr)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := svc.Register(context.Background(), "bob", "a@x.com", "secret2")
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("Register() should fail with ErrDuplicate, got %v", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "email" {
		t.Errorf("duplicate should cite email, got %+v", appErr)
	}
}

// When BOTH fields collide (with different records), username is reported.
func TestRegister_UsernameCollisionReportedFirst(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "b@x.com", "secret1"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// alice's username + bob's email
	_, err := svc.Register(context.Background(), "alice", "b@x.com", "secret2")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "username" {
		t.Errorf("username collision should be reported first, got %+v", appErr)
	}
}

func TestRegister_StorageFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("database is on fire")
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if !errors.Is(err, apperror.ErrInternal) {
		t.Errorf("storage failure should surface as ErrInternal, got %v", err)
	}
}

func TestRegister_ConcurrentSameUsername_ExactlyOneWins(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	const racers = 4
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(),
				"contested", fmt.Sprintf("racer%d@x.com", i), "secret1")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, apperror.ErrDuplicate) {
			t.Errorf("loser should observe ErrDuplicate, got %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("exactly one Register should win, got %d", winners)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	registered, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("Login() returned empty token")
	}
	if result.User.ID != registered.ID {
		t.Errorf("Login() user ID = %q, want %q", result.User.ID, registered.ID)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	for _, tc := range []struct{ email, password string }{
		{"", ""},
		{"a@x.com", ""},
		{"", "secret1"},
	} {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Login(%q, %q) should fail with ErrValidation, got %v", tc.email, tc.password, err)
		}
	}
}

// The unknown-email and wrong-password failures must be byte-identical — an
// attacker probing /login cannot learn which accounts exist.
func TestLogin_NoAccountEnumeration(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, errWrongPassword := svc.Login(context.Background(), "a@x.com", "wrong-password")
	_, errUnknownEmail := svc.Login(context.Background(), "ghost@x.com", "whatever1")

	if !errors.Is(errWrongPassword, apperror.ErrAuth) || !errors.Is(errUnknownEmail, apperror.ErrAuth) {
		t.Fatalf("both paths should fail with ErrAuth, got %v / %v", errWrongPassword, errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q — this leaks account existence",
			errWrongPassword.Error(), errUnknownEmail.Error())
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	repo.deactivate(user.ID)

	_, err = svc.Login(context.Background(), "a@x.com", "secret1")
	if !errors.Is(err, apperror.ErrAuth) {
		t.Fatalf("Login() on deactivated account should fail with ErrAuth, got %v", err)
	}
	// Distinct message, as this service documents.
	if err.Error() != "Account is deactivated" {
		t.Errorf("message = %q, want %q", err.Error(), "Account is deactivated")
	}
}

func TestLogin_StorageFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("connection reset")
	svc := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if !errors.Is(err, apperror.ErrInternal) {
		t.Errorf("storage failure should surface as ErrInternal, not a credential error; got %v", err)
	}
}

// =========================================================================
// ValidateToken TESTS
// =========================================================================

func TestValidateToken_EndToEnd(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	registered, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	result, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	claims, err := svc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != registered.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, registered.ID)
	}
	if claims.Username != "alice" || claims.Email != "a@x.com" {
		t.Errorf("claims = %+v, want alice/a@x.com", claims)
	}
}

func TestValidateToken_Empty(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.ValidateToken("")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty token should fail with ErrValidation, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.ValidateToken("this.is.garbage")
	if !errors.Is(err, apperror.ErrAuth) {
		t.Fatalf("garbage token should fail with ErrAuth, got %v", err)
	}
	if err.Error() != "Invalid or expired token" {
		t.Errorf("message = %q, want %q", err.Error(), "Invalid or expired token")
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	registered, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("user.Username = %q, want alice", user.Username)
	}
}

func TestGetUserByID_Errors(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty ID should fail with ErrValidation, got %v", err)
	}
	if _, err := svc.GetUserByID(context.Background(), "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown ID should fail with ErrNotFound, got %v", err)
	}
}
