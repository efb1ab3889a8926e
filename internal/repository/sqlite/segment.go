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

var _ repository.SegmentRepository = (*SegmentStore)(nil)

// SegmentStore persists segments and their two membership join tables.
//
// The join tables reference segments(id) with ON DELETE CASCADE, so deleting
// a segment removes its memberships inside SQLite.
type SegmentStore struct {
	db *DB
}

var segmentColumns = []string{"id", "name", "description", "owner_id", "created_at", "updated_at"}

func (s *SegmentStore) List(ctx context.Context, f repository.SegmentFilter) ([]model.Segment, error) {
	b := s.db.builder.Select(segmentColumns...).From("segments").OrderBy("created_at ASC")
	if f.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		b = b.Where(sq.Like{"name": "%" + q + "%"})
	}

	rows, err := s.db.query(ctx, b, "listing segments")
	if err != nil {
		return nil, err
	}
	segments := []model.Segment{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		segments = append(segments, *seg)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("sqlite: iterating segments: %w", err)
	}

	if len(segments) == 0 {
		return segments, nil
	}

	// Memberships are loaded after the segment rows are closed: the in-memory
	// pool has a single connection.
	ids := make([]string, len(segments))
	for i := range segments {
		ids[i] = segments[i].ID
	}
	logins, err := s.members(ctx, "segment_contributors", "contributor_github_login", ids)
	if err != nil {
		return nil, err
	}
	urls, err := s.members(ctx, "segment_repositories", "repository_url", ids)
	if err != nil {
		return nil, err
	}
	for i := range segments {
		segments[i].ContributorLogins = orEmpty(logins[segments[i].ID])
		segments[i].RepositoryURLs = orEmpty(urls[segments[i].ID])
	}
	return segments, nil
}

func (s *SegmentStore) GetByID(ctx context.Context, id string) (*model.Segment, error) {
	row, err := s.db.queryRow(ctx, s.db.builder.
		Select(segmentColumns...).
		From("segments").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logins, err := s.members(ctx, "segment_contributors", "contributor_github_login", []string{id})
	if err != nil {
		return nil, err
	}
	urls, err := s.members(ctx, "segment_repositories", "repository_url", []string{id})
	if err != nil {
		return nil, err
	}
	seg.ContributorLogins = orEmpty(logins[id])
	seg.RepositoryURLs = orEmpty(urls[id])
	return seg, nil
}

// Create inserts the segment and its initial memberships in one transaction.
func (s *SegmentStore) Create(ctx context.Context, seg *model.Segment) error {
	seg.ID = xid.New().String()
	now := time.Now().UTC()
	seg.CreatedAt = now
	seg.UpdatedAt = now
	seg.ContributorLogins = dedupe(seg.ContributorLogins)
	seg.RepositoryURLs = dedupe(seg.RepositoryURLs)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.execTx(ctx, tx, s.db.builder.
			Insert("segments").
			Columns(segmentColumns...).
			Values(seg.ID, seg.Name, seg.Description, seg.OwnerID, seg.CreatedAt, seg.UpdatedAt),
			"creating segment"); err != nil {
			return err
		}
		if err := s.insertMembers(ctx, tx, "segment_contributors", "contributor_github_login", seg.ID, seg.ContributorLogins); err != nil {
			return err
		}
		return s.insertMembers(ctx, tx, "segment_repositories", "repository_url", seg.ID, seg.RepositoryURLs)
	})
}

// Update applies the non-nil fields of patch; non-nil membership slices replace
// the existing lists. Returns (nil, nil) if the segment does not exist.
func (s *SegmentStore) Update(ctx context.Context, id string, p model.SegmentPatch) (*model.Segment, error) {
	found := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		set := map[string]interface{}{"updated_at": time.Now().UTC()}
		if p.Name != nil {
			set["name"] = *p.Name
		}
		if p.Description != nil {
			set["description"] = *p.Description
		}
		query, args, err := s.db.builder.Update("segments").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: building segment update: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("sqlite: updating segment %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}
		found = true

		if p.ContributorLogins != nil {
			if err := s.execTx(ctx, tx, s.db.builder.Delete("segment_contributors").Where(sq.Eq{"segment_id": id}),
				"clearing segment contributors"); err != nil {
				return err
			}
			if err := s.insertMembers(ctx, tx, "segment_contributors", "contributor_github_login", id, dedupe(p.ContributorLogins)); err != nil {
				return err
			}
		}
		if p.RepositoryURLs != nil {
			if err := s.execTx(ctx, tx, s.db.builder.Delete("segment_repositories").Where(sq.Eq{"segment_id": id}),
				"clearing segment repositories"); err != nil {
				return err
			}
			if err := s.insertMembers(ctx, tx, "segment_repositories", "repository_url", id, dedupe(p.RepositoryURLs)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *SegmentStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.db.exec(ctx, s.db.builder.
		Delete("segments").
		Where(sq.Eq{"id": id}),
		"deleting segment "+id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddContributor is an upsert: an existing membership is left alone and the
// call still reports true.
func (s *SegmentStore) AddContributor(ctx context.Context, segmentID, login string) (bool, error) {
	return s.addMember(ctx, "segment_contributors", "contributor_github_login", segmentID, login)
}

// RemoveContributor reports false if login was not a member.
func (s *SegmentStore) RemoveContributor(ctx context.Context, segmentID, login string) (bool, error) {
	return s.removeMember(ctx, "segment_contributors", "contributor_github_login", segmentID, login)
}

func (s *SegmentStore) AddRepository(ctx context.Context, segmentID, url string) (bool, error) {
	return s.addMember(ctx, "segment_repositories", "repository_url", segmentID, url)
}

func (s *SegmentStore) RemoveRepository(ctx context.Context, segmentID, url string) (bool, error) {
	return s.removeMember(ctx, "segment_repositories", "repository_url", segmentID, url)
}

func (s *SegmentStore) RepositoryIDsForOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("DISTINCT r.id").
		From("repositories r").
		Join("segment_repositories sr ON sr.repository_url = r.url").
		Join("segments s ON s.id = sr.segment_id").
		Where(sq.Eq{"s.owner_id": ownerID}).
		OrderBy("r.id"),
		"listing visible repositories")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning repository id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating repository ids: %w", err)
	}
	return ids, nil
}

func (s *SegmentStore) addMember(ctx context.Context, table, column, segmentID, value string) (bool, error) {
	_, err := s.db.exec(ctx, s.db.builder.
		Insert(table).
		Columns("segment_id", column, "created_at").
		Values(segmentID, value, time.Now().UTC()).
		Suffix("ON CONFLICT (segment_id, "+column+") DO NOTHING"),
		"adding member to "+table)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SegmentStore) removeMember(ctx context.Context, table, column, segmentID, value string) (bool, error) {
	n, err := s.db.exec(ctx, s.db.builder.
		Delete(table).
		Where(sq.Eq{"segment_id": segmentID, column: value}),
		"removing member from "+table)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// members returns column values of table grouped by segment id, in insertion order.
func (s *SegmentStore) members(ctx context.Context, table, column string, segmentIDs []string) (map[string][]string, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("segment_id", column).
		From(table).
		Where(sq.Eq{"segment_id": segmentIDs}).
		OrderBy("rowid"),
		"listing "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string, len(segmentIDs))
	for rows.Next() {
		var segID, value string
		if err := rows.Scan(&segID, &value); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s: %w", table, err)
		}
		out[segID] = append(out[segID], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return out, nil
}

func (s *SegmentStore) insertMembers(ctx context.Context, tx *sql.Tx, table, column, segmentID string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	b := s.db.builder.Insert(table).Columns("segment_id", column, "created_at")
	for _, v := range values {
		b = b.Values(segmentID, v, now)
	}
	return s.execTx(ctx, tx, b.Suffix("ON CONFLICT (segment_id, "+column+") DO NOTHING"), "inserting "+table)
}

func (s *SegmentStore) execTx(ctx context.Context, tx *sql.Tx, b sq.Sqlizer, what string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building %s query: %w", what, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: %s: %w", what, err)
	}
	return nil
}

func (s *SegmentStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func scanSegment(r rowScanner) (*model.Segment, error) {
	var seg model.Segment
	err := r.Scan(&seg.ID, &seg.Name, &seg.Description, &seg.OwnerID, &seg.CreatedAt, &seg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning segment: %w", err)
	}
	return &seg, nil
}

// dedupe drops blank and repeated values, keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
