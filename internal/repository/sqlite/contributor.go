package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

var _ repository.ContributorRepository = (*ContributorStore)(nil)

// ContributorStore persists contributors. The github login is the natural key
// used by segment membership.
type ContributorStore struct {
	db *DB
}

var contributorColumns = []string{
	"id", "github_login", "name", "type", "tenure_months", "total_commits",
	"total_pull_requests", "last_active_at", "location", "country", "avatar_url",
	"twitter", "linkedin", "website", "languages", "created_at", "updated_at",
}

// contributorSortColumns maps repository.ContributorSortKeys to columns.
var contributorSortColumns = map[string]string{
	"name":              "name",
	"githubLogin":       "github_login",
	"totalCommits":      "total_commits",
	"totalPullRequests": "total_pull_requests",
	"tenureMonths":      "tenure_months",
	"lastActiveAt":      "last_active_at",
}

func (s *ContributorStore) List(ctx context.Context, f repository.ContributorFilter) ([]model.Contributor, error) {
	b := s.db.builder.Select(contributorColumns...).From("contributors")

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + q + "%"
		b = b.Where(sq.Or{sq.Like{"name": pattern}, sq.Like{"github_login": pattern}})
	}
	if len(f.IDs) > 0 {
		b = b.Where(sq.Eq{"id": f.IDs})
	}
	if len(f.SegmentIDs) > 0 {
		args := make([]interface{}, len(f.SegmentIDs))
		for i, id := range f.SegmentIDs {
			args[i] = id
		}
		b = b.Where(sq.Expr(
			"github_login IN (SELECT contributor_github_login FROM segment_contributors WHERE segment_id IN ("+
				sq.Placeholders(len(args))+"))", args...))
	}
	if col, ok := contributorSortColumns[f.SortBy]; ok {
		dir := "ASC"
		if f.SortDir == repository.SortDesc {
			dir = "DESC"
		}
		b = b.OrderBy(col + " " + dir)
	}

	rows, err := s.db.query(ctx, b, "listing contributors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributors := []model.Contributor{}
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, err
		}
		contributors = append(contributors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contributors: %w", err)
	}
	return contributors, nil
}

func (s *ContributorStore) GetByID(ctx context.Context, id string) (*model.Contributor, error) {
	row, err := s.db.queryRow(ctx, s.db.builder.
		Select(contributorColumns...).
		From("contributors").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	c, err := scanContributor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// Create inserts c and assigns its identity. A duplicate github login
// surfaces as apperror.ErrConflict.
func (s *ContributorStore) Create(ctx context.Context, c *model.Contributor) error {
	c.ID = xid.New().String()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Languages == nil {
		c.Languages = map[string]float64{}
	}

	langs, err := json.Marshal(c.Languages)
	if err != nil {
		return fmt.Errorf("sqlite: encoding languages: %w", err)
	}

	_, err = s.db.exec(ctx, s.db.builder.
		Insert("contributors").
		Columns(contributorColumns...).
		Values(c.ID, c.GitHubLogin, c.Name, c.Type, c.TenureMonths, c.TotalCommits,
			c.TotalPullRequests, nullTime(c.LastActiveAt), c.Location, c.Country, c.AvatarURL,
			c.Twitter, c.LinkedIn, c.Website, string(langs), c.CreatedAt, c.UpdatedAt),
		"creating contributor")
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("contributor", "githubLogin", c.GitHubLogin)
		}
		return err
	}
	return nil
}

// Update applies the non-nil fields of patch. Returns (nil, nil) if id does not exist.
func (s *ContributorStore) Update(ctx context.Context, id string, p model.ContributorPatch) (*model.Contributor, error) {
	set := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.TenureMonths != nil {
		set["tenure_months"] = *p.TenureMonths
	}
	if p.TotalCommits != nil {
		set["total_commits"] = *p.TotalCommits
	}
	if p.TotalPullRequests != nil {
		set["total_pull_requests"] = *p.TotalPullRequests
	}
	if p.LastActiveAt != nil {
		set["last_active_at"] = p.LastActiveAt.UTC()
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Country != nil {
		set["country"] = *p.Country
	}
	if p.AvatarURL != nil {
		set["avatar_url"] = *p.AvatarURL
	}
	if p.Twitter != nil {
		set["twitter"] = *p.Twitter
	}
	if p.LinkedIn != nil {
		set["linkedin"] = *p.LinkedIn
	}
	if p.Website != nil {
		set["website"] = *p.Website
	}
	if p.Languages != nil {
		langs, err := json.Marshal(p.Languages)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding languages: %w", err)
		}
		set["languages"] = string(langs)
	}

	n, err := s.db.exec(ctx, s.db.builder.
		Update("contributors").
		SetMap(set).
		Where(sq.Eq{"id": id}),
		"updating contributor "+id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *ContributorStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.db.exec(ctx, s.db.builder.
		Delete("contributors").
		Where(sq.Eq{"id": id}),
		"deleting contributor "+id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContributor(r rowScanner) (*model.Contributor, error) {
	var (
		c          model.Contributor
		lastActive sql.NullTime
		langs      string
	)
	err := r.Scan(&c.ID, &c.GitHubLogin, &c.Name, &c.Type, &c.TenureMonths, &c.TotalCommits,
		&c.TotalPullRequests, &lastActive, &c.Location, &c.Country, &c.AvatarURL,
		&c.Twitter, &c.LinkedIn, &c.Website, &langs, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning contributor: %w", err)
	}
	if lastActive.Valid {
		t := lastActive.Time
		c.LastActiveAt = &t
	}
	c.Languages = map[string]float64{}
	if langs != "" {
		if err := json.Unmarshal([]byte(langs), &c.Languages); err != nil {
			return nil, fmt.Errorf("sqlite: decoding languages for %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

// nullTime converts an optional time into a driver value.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
