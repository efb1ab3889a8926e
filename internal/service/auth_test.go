package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/model"
)

// =========================================================================
// HELPERS
// =========================================================================

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// bcrypt.MinCost keeps hashing fast in tests.
func newTestPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceWithCost(bcrypt.MinCost)
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	tokens := newTestTokens(t)
	return NewAuthService(repo, tokens, newTestPasswords(), testLogger()), tokens
}

func seedUser(t *testing.T, repo *fakeUserRepo, u *model.User) *model.User {
	t.Helper()
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

// =========================================================================
// LoginOrRegisterGitHub
// =========================================================================

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    42,
		Login: "octocat",
		Name:  "The Octocat",
		Email: "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.ID == "" {
		t.Fatal("User.ID should be set after registration")
	}
	if result.User.GitHubLogin != "octocat" {
		t.Errorf("GitHubLogin = %q, want octocat", result.User.GitHubLogin)
	}
	if result.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", result.User.Role, model.RoleUser)
	}
	if result.User.Name != "The Octocat" {
		t.Errorf("Name = %q, want The Octocat", result.User.Name)
	}

	sub, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sub != result.User.ID {
		t.Errorf("token subject = %q, want %q", sub, result.User.ID)
	}
}

func TestLoginOrRegisterGitHub_ReturningUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	gh := &auth.GitHubUser{ID: 7, Login: "returning", Email: "r@example.com"}

	first, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Errorf("second login created a new account: %q != %q", second.User.ID, first.User.ID)
	}
	if len(repo.users) != 1 {
		t.Errorf("repo holds %d users, want 1", len(repo.users))
	}
	if second.User.Name != "returning" {
		t.Errorf("Name = %q, want the login as fallback", second.User.Name)
	}
}

func TestLoginOrRegisterGitHub_ClaimsAccountByEmail(t *testing.T) {
	repo := newFakeUserRepo()
	existing := seedUser(t, repo, &model.User{Email: "admin@example.com", Role: model.RoleAdmin})
	svc, _ := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 1, Login: "boss", Name: "Boss", Email: "admin@example.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.ID != existing.ID {
		t.Fatalf("User.ID = %q, want the existing account %q", result.User.ID, existing.ID)
	}
	if result.User.Role != model.RoleAdmin {
		t.Errorf("Role = %q, the claimed account must keep its role", result.User.Role)
	}
	if got := repo.users[existing.ID].GitHubLogin; got != "boss" {
		t.Errorf("stored GitHubLogin = %q, want boss", got)
	}
	if got := repo.users[existing.ID].Name; got != "Boss" {
		t.Errorf("stored Name = %q, want Boss", got)
	}
}

func TestLoginOrRegisterGitHub_Invalid(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Error("nil GitHub user should be rejected")
	}
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1}); err == nil {
		t.Error("GitHub user without login should be rejected")
	}
}

func TestLoginOrRegisterGitHub_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.err = errors.New("database is on fire")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "user"})
	if err == nil {
		t.Fatal("LoginOrRegisterGitHub() should propagate repository errors")
	}
	if !errors.Is(err, repo.err) {
		t.Errorf("error %v should wrap the repository error", err)
	}
}

// =========================================================================
// LoginWithPassword
// =========================================================================

func TestLoginWithPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	hash, err := newTestPasswords().Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	user := seedUser(t, repo, &model.User{Email: "ada@example.com", PasswordHash: hash})
	seedUser(t, repo, &model.User{Email: "github-only@example.com"})

	result, err := svc.LoginWithPassword(context.Background(), "  ADA@example.com ", "correct horse")
	if err != nil {
		t.Fatalf("LoginWithPassword() error = %v", err)
	}
	if result.User.ID != user.ID || result.Token == "" {
		t.Errorf("LoginWithPassword() = %+v, want user %s with a token", result, user.ID)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "ada@example.com", "wrong horse", apperror.ErrUnauthorized},
		{"unknown email", "nobody@example.com", "correct horse", apperror.ErrUnauthorized},
		{"account without password", "github-only@example.com", "anything", apperror.ErrUnauthorized},
		{"empty email", "", "correct horse", apperror.ErrValidation},
		{"empty password", "ada@example.com", "", apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LoginWithPassword(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoginWithPassword() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// =========================================================================
// BootstrapAdmin
// =========================================================================

func TestBootstrapAdmin_CreatesAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if err := svc.BootstrapAdmin(context.Background(), "Root@Example.com", "s3cret-pass", ""); err != nil {
		t.Fatalf("BootstrapAdmin() error = %v", err)
	}
	admin, _ := repo.GetByEmail(context.Background(), "root@example.com")
	if admin == nil {
		t.Fatal("admin account was not created")
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", admin.Role)
	}
	if admin.Name != "Administrator" {
		t.Errorf("Name = %q, want the default", admin.Name)
	}

	if _, err := svc.LoginWithPassword(context.Background(), "root@example.com", "s3cret-pass"); err != nil {
		t.Errorf("admin cannot sign in with the bootstrap password: %v", err)
	}
}

func TestBootstrapAdmin_PromotesExisting(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, &model.User{Email: "lead@example.com", Role: model.RoleUser})
	svc, _ := newTestAuthService(t, repo)

	if err := svc.BootstrapAdmin(context.Background(), "lead@example.com", "", "Lead"); err != nil {
		t.Fatalf("BootstrapAdmin() error = %v", err)
	}
	if got := repo.users[user.ID].Role; got != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", got)
	}
	if len(repo.users) != 1 {
		t.Errorf("repo holds %d users, want 1", len(repo.users))
	}
}

func TestBootstrapAdmin_NoopAndErrors(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if err := svc.BootstrapAdmin(context.Background(), "", "whatever-pass", ""); err != nil {
		t.Errorf("empty email should be a no-op, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("empty email created %d users", len(repo.users))
	}
	if err := svc.BootstrapAdmin(context.Background(), "a@example.com", "short", ""); err == nil {
		t.Error("a short admin password should be rejected")
	}
}
