package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists dashboard accounts.
type UserStore struct {
	db *DB
}

var userColumns = []string{
	"id", "name", "email", "role", "github_login", "password_hash", "created_at", "updated_at",
}

// Create inserts a new user, assigning its ID and timestamps.
// A duplicate email surfaces as apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	_, err := s.db.exec(ctx, s.db.builder.
		Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Name, user.Email, user.Role, user.GitHubLogin,
			user.PasswordHash, user.CreatedAt, user.UpdatedAt),
		"creating user")
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email", user.Email)
		}
		return err
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getWhere(ctx, sq.Eq{"id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getWhere(ctx, sq.Eq{"email": email})
}

func (s *UserStore) GetByGitHubLogin(ctx context.Context, login string) (*model.User, error) {
	return s.getWhere(ctx, sq.Eq{"github_login": login})
}

// Update rewrites the mutable profile fields. Returns (nil, nil) if the user
// does not exist.
func (s *UserStore) Update(ctx context.Context, user *model.User) (*model.User, error) {
	user.UpdatedAt = time.Now().UTC()
	n, err := s.db.exec(ctx, s.db.builder.
		Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("role", user.Role).
		Set("github_login", user.GitHubLogin).
		Set("password_hash", user.PasswordHash).
		Set("updated_at", user.UpdatedAt).
		Where(sq.Eq{"id": user.ID}),
		"updating user")
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", "email", user.Email)
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, user.ID)
}

func (s *UserStore) getWhere(ctx context.Context, pred sq.Sqlizer) (*model.User, error) {
	row, err := s.db.queryRow(ctx, s.db.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1))
	if err != nil {
		return nil, err
	}

	var u model.User
	err = row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.GitHubLogin,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &u, nil
}
