package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

var (
	_ repository.ContributorSublistRepository = (*ContributorSublistStore)(nil)
	_ repository.RepositorySublistRepository  = (*RepositorySublistStore)(nil)
)

// sublistRow is the storage shape shared by both sublist tables: the member
// ids are an ordered JSON array in a TEXT column, not a join table.
type sublistRow struct {
	ID          string
	Name        string
	Description string
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// sublistTable implements CRUD for one sublist table.
type sublistTable struct {
	db     *DB
	table  string
	column string // member id column
}

func (t sublistTable) columns() []string {
	return []string{"id", "name", "description", t.column, "created_at", "updated_at"}
}

func (t sublistTable) list(ctx context.Context) ([]sublistRow, error) {
	rows, err := t.db.query(ctx, t.db.builder.
		Select(t.columns()...).
		From(t.table).
		OrderBy("created_at ASC"),
		"listing "+t.table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []sublistRow{}
	for rows.Next() {
		r, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", t.table, err)
	}
	return out, nil
}

func (t sublistTable) get(ctx context.Context, id string) (*sublistRow, error) {
	row, err := t.db.queryRow(ctx, t.db.builder.
		Select(t.columns()...).
		From(t.table).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	r, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (t sublistTable) create(ctx context.Context, r *sublistRow) error {
	r.ID = xid.New().String()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Members == nil {
		r.Members = []string{}
	}
	members, err := json.Marshal(r.Members)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s: %w", t.column, err)
	}
	_, err = t.db.exec(ctx, t.db.builder.
		Insert(t.table).
		Columns(t.columns()...).
		Values(r.ID, r.Name, r.Description, string(members), r.CreatedAt, r.UpdatedAt),
		"creating "+t.table)
	return err
}

func (t sublistTable) update(ctx context.Context, id string, p model.SublistPatch) (*sublistRow, error) {
	set := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Members != nil {
		members, err := json.Marshal(p.Members)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding %s: %w", t.column, err)
		}
		set[t.column] = string(members)
	}
	n, err := t.db.exec(ctx, t.db.builder.
		Update(t.table).
		SetMap(set).
		Where(sq.Eq{"id": id}),
		"updating "+t.table)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return t.get(ctx, id)
}

func (t sublistTable) delete(ctx context.Context, id string) (bool, error) {
	n, err := t.db.exec(ctx, t.db.builder.Delete(t.table).Where(sq.Eq{"id": id}), "deleting from "+t.table)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t sublistTable) scan(r rowScanner) (*sublistRow, error) {
	var (
		row     sublistRow
		members string
	)
	err := r.Scan(&row.ID, &row.Name, &row.Description, &members, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning %s: %w", t.table, err)
	}
	row.Members = []string{}
	if members != "" {
		if err := json.Unmarshal([]byte(members), &row.Members); err != nil {
			return nil, fmt.Errorf("sqlite: decoding %s for %s: %w", t.column, row.ID, err)
		}
	}
	return &row, nil
}

// ContributorSublistStore persists contributor sublists.
type ContributorSublistStore struct {
	db *DB
}

func (s *ContributorSublistStore) t() sublistTable {
	return sublistTable{db: s.db, table: "contributor_sublists", column: "contributor_ids"}
}

func toContributorSublist(r *sublistRow) *model.ContributorSublist {
	if r == nil {
		return nil
	}
	return &model.ContributorSublist{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		ContributorIDs: r.Members,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (s *ContributorSublistStore) List(ctx context.Context) ([]model.ContributorSublist, error) {
	rows, err := s.t().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ContributorSublist, 0, len(rows))
	for i := range rows {
		out = append(out, *toContributorSublist(&rows[i]))
	}
	return out, nil
}

func (s *ContributorSublistStore) GetByID(ctx context.Context, id string) (*model.ContributorSublist, error) {
	r, err := s.t().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toContributorSublist(r), nil
}

func (s *ContributorSublistStore) Create(ctx context.Context, sl *model.ContributorSublist) error {
	r := &sublistRow{Name: sl.Name, Description: sl.Description, Members: sl.ContributorIDs}
	if err := s.t().create(ctx, r); err != nil {
		return err
	}
	*sl = *toContributorSublist(r)
	return nil
}

func (s *ContributorSublistStore) Update(ctx context.Context, id string, p model.SublistPatch) (*model.ContributorSublist, error) {
	r, err := s.t().update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return toContributorSublist(r), nil
}

func (s *ContributorSublistStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.t().delete(ctx, id)
}

// RepositorySublistStore persists repository sublists.
type RepositorySublistStore struct {
	db *DB
}

func (s *RepositorySublistStore) t() sublistTable {
	return sublistTable{db: s.db, table: "repository_sublists", column: "repository_ids"}
}

func toRepositorySublist(r *sublistRow) *model.RepositorySublist {
	if r == nil {
		return nil
	}
	return &model.RepositorySublist{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		RepositoryIDs: r.Members,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (s *RepositorySublistStore) List(ctx context.Context) ([]model.RepositorySublist, error) {
	rows, err := s.t().list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.RepositorySublist, 0, len(rows))
	for i := range rows {
		out = append(out, *toRepositorySublist(&rows[i]))
	}
	return out, nil
}

func (s *RepositorySublistStore) GetByID(ctx context.Context, id string) (*model.RepositorySublist, error) {
	r, err := s.t().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRepositorySublist(r), nil
}

func (s *RepositorySublistStore) Create(ctx context.Context, sl *model.RepositorySublist) error {
	r := &sublistRow{Name: sl.Name, Description: sl.Description, Members: sl.RepositoryIDs}
	if err := s.t().create(ctx, r); err != nil {
		return err
	}
	*sl = *toRepositorySublist(r)
	return nil
}

func (s *RepositorySublistStore) Update(ctx context.Context, id string, p model.SublistPatch) (*model.RepositorySublist, error) {
	r, err := s.t().update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return toRepositorySublist(r), nil
}

func (s *RepositorySublistStore) Delete(ctx context.Context, id string) (bool, error) {
	return s.t().delete(ctx, id)
}
