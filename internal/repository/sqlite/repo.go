package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

var _ repository.RepoRepository = (*RepoStore)(nil)

// RepoStore persists source repositories.
type RepoStore struct {
	db *DB
}

var repoColumns = []string{
	"id", "name", "url", "owner", "language", "stars", "forks", "created_at", "updated_at",
}

func (s *RepoStore) List(ctx context.Context, f repository.RepositoryFilter) ([]model.Repository, error) {
	b := s.db.builder.Select(repoColumns...).From("repositories")
	if q := strings.TrimSpace(f.Query); q != "" {
		b = b.Where(sq.Like{"name": "%" + q + "%"})
	}
	if len(f.Names) > 0 {
		b = b.Where(sq.Eq{"name": f.Names})
	}
	if len(f.URLs) > 0 {
		b = b.Where(sq.Eq{"url": f.URLs})
	}
	if len(f.IDs) > 0 {
		b = b.Where(sq.Eq{"id": f.IDs})
	}

	rows, err := s.db.query(ctx, b, "listing repositories")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repos := []model.Repository{}
	for rows.Next() {
		r, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating repositories: %w", err)
	}
	return repos, nil
}

func (s *RepoStore) GetByID(ctx context.Context, id string) (*model.Repository, error) {
	row, err := s.db.queryRow(ctx, s.db.builder.
		Select(repoColumns...).
		From("repositories").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	r, err := scanRepo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *RepoStore) Create(ctx context.Context, r *model.Repository) error {
	r.ID = xid.New().String()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.exec(ctx, s.db.builder.
		Insert("repositories").
		Columns(repoColumns...).
		Values(r.ID, r.Name, r.URL, r.Owner, r.Language, r.Stars, r.Forks, r.CreatedAt, r.UpdatedAt),
		"creating repository")
	return err
}

func (s *RepoStore) Update(ctx context.Context, id string, p model.RepositoryPatch) (*model.Repository, error) {
	set := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.URL != nil {
		set["url"] = *p.URL
	}
	if p.Owner != nil {
		set["owner"] = *p.Owner
	}
	if p.Language != nil {
		set["language"] = *p.Language
	}
	if p.Stars != nil {
		set["stars"] = *p.Stars
	}
	if p.Forks != nil {
		set["forks"] = *p.Forks
	}

	n, err := s.db.exec(ctx, s.db.builder.
		Update("repositories").
		SetMap(set).
		Where(sq.Eq{"id": id}),
		"updating repository "+id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *RepoStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.db.exec(ctx, s.db.builder.
		Delete("repositories").
		Where(sq.Eq{"id": id}),
		"deleting repository "+id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanRepo(r rowScanner) (*model.Repository, error) {
	var repo model.Repository
	err := r.Scan(&repo.ID, &repo.Name, &repo.URL, &repo.Owner, &repo.Language,
		&repo.Stars, &repo.Forks, &repo.CreatedAt, &repo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning repository: %w", err)
	}
	return &repo, nil
}
