package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// AuthService signs users in through either identity provider and issues
// the session token.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                                 ↘ TokenService, PasswordService
//
// It never touches cookies or requests; the handler does.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user with their session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub runs after the OAuth callback has produced a GitHub
// profile. The account is matched by GitHub login first, then by email (so an
// account created by an admin is claimed on first GitHub sign-in), and created
// with the user role otherwise.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.Login == "" {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.GetByGitHubLogin(ctx, gh.Login)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up GitHub login %s: %w", gh.Login, err)
	}
	if user == nil && gh.Email != "" {
		user, err = s.users.GetByEmail(ctx, gh.Email)
		if err != nil {
			return nil, fmt.Errorf("service/auth: looking up email: %w", err)
		}
	}

	switch {
	case user == nil:
		user = &model.User{
			Name:        firstNonEmpty(gh.Name, gh.Login),
			Email:       gh.Email,
			Role:        model.RoleUser,
			GitHubLogin: gh.Login,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user for %s: %w", gh.Login, err)
		}
		s.logger.Info("user registered via GitHub",
			slog.String("userID", user.ID),
			slog.String("login", gh.Login),
		)
	case user.GitHubLogin != gh.Login || user.Name == "":
		user.GitHubLogin = gh.Login
		user.Name = firstNonEmpty(user.Name, gh.Name, gh.Login)
		updated, err := s.users.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("service/auth: linking GitHub login %s: %w", gh.Login, err)
		}
		if updated != nil {
			user = updated
		}
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
	)
	return s.issue(user)
}

// LoginWithPassword signs in an email/password account. Unknown email and
// wrong password give the same apperror.ErrUnauthorized.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via password", slog.String("userID", user.ID))
	return s.issue(user)
}

// BootstrapAdmin makes sure an admin account exists for email. An existing
// account is promoted and, if password is set, gets that password. An empty
// email is a no-op.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password, name string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	var hash string
	if password != "" {
		if len(password) < auth.MinPasswordLength {
			return fmt.Errorf("service/auth: admin password must be at least %d characters", auth.MinPasswordLength)
		}
		h, err := s.passwords.Hash(password)
		if err != nil {
			return fmt.Errorf("service/auth: hashing admin password: %w", err)
		}
		hash = h
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("service/auth: looking up admin %s: %w", email, err)
	}
	if existing == nil {
		admin := &model.User{
			Name:         firstNonEmpty(strings.TrimSpace(name), "Administrator"),
			Email:        email,
			Role:         model.RoleAdmin,
			PasswordHash: hash,
		}
		if err := s.users.Create(ctx, admin); err != nil {
			return fmt.Errorf("service/auth: creating admin %s: %w", email, err)
		}
		s.logger.Info("admin account created", slog.String("userID", admin.ID))
		return nil
	}

	if existing.Role == model.RoleAdmin && hash == "" {
		return nil
	}
	existing.Role = model.RoleAdmin
	if hash != "" {
		existing.PasswordHash = hash
	}
	if _, err := s.users.Update(ctx, existing); err != nil {
		return fmt.Errorf("service/auth: promoting admin %s: %w", email, err)
	}
	s.logger.Info("admin account updated", slog.String("userID", existing.ID))
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
