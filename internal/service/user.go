package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// UserService manages dashboard accounts.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// CreateUserInput is the body of POST /api/users. Password is optional: an
// account without one can only sign in through GitHub.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Me returns the authenticated user as stored now.
func (s *UserService) Me(ctx context.Context, actor *model.User) (*model.User, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", actor.ID, err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	return user, nil
}

// Create adds an account. Only admins may call it; anyone else gets the
// same Unauthorized as an anonymous caller. A duplicate email is a Conflict.
func (s *UserService) Create(ctx context.Context, actor *model.User, in CreateUserInput) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Unauthorized("admin role required")
	}

	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email is invalid")
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, apperror.ValidationFailed("role", "role must be user or admin")
	}

	user := &model.User{
		Name:  strings.TrimSpace(in.Name),
		Email: email,
		Role:  role,
	}
	if in.Password != "" {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		}
		hash, err := s.passwords.Hash(in.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.ID),
		slog.String("role", user.Role),
		slog.String("by", actor.ID),
	)
	return user, nil
}
