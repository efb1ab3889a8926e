package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

func createTestContributor(t *testing.T, db *DB, login, name string, commits int64) *model.Contributor {
	t.Helper()
	c := &model.Contributor{
		GitHubLogin:  login,
		Name:         name,
		Type:         model.ContributorFullTime,
		TotalCommits: commits,
	}
	if err := db.Contributors().Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create test contributor: %v", err)
	}
	return c
}

func TestContributorCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	c := &model.Contributor{
		GitHubLogin:  "octocat",
		Name:         "Mona",
		Type:         model.ContributorPartTime,
		TenureMonths: 14,
		TotalCommits: 420,
		LastActiveAt: &last,
		Country:      "NZ",
		Languages:    map[string]float64{"Go": 0.75, "Rust": 0.25},
	}
	if err := db.Contributors().Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == "" {
		t.Fatal("Create() did not set ID")
	}

	got, err := db.Contributors().GetByID(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}
	if got.GitHubLogin != "octocat" || got.TenureMonths != 14 || got.TotalCommits != 420 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.LastActiveAt == nil || !got.LastActiveAt.Equal(last) {
		t.Errorf("LastActiveAt = %v, want %v", got.LastActiveAt, last)
	}
	if got.Languages["Go"] != 0.75 || got.Languages["Rust"] != 0.25 {
		t.Errorf("Languages = %v", got.Languages)
	}
}

func TestContributorCreate_DuplicateLogin(t *testing.T) {
	db := newTestDB(t)
	createTestContributor(t, db, "octocat", "Mona", 1)

	err := db.Contributors().Create(context.Background(), &model.Contributor{GitHubLogin: "octocat"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestContributorGetByID_Absent(t *testing.T) {
	db := newTestDB(t)

	c, err := db.Contributors().GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if c != nil {
		t.Errorf("GetByID() = %+v, want nil", c)
	}
}

func TestContributorList_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestContributor(t, db, "alice", "Alice Liddell", 10)
	b := createTestContributor(t, db, "bob", "Bob Builder", 30)
	createTestContributor(t, db, "carol", "Carol Danvers", 20)

	tests := []struct {
		name   string
		filter repository.ContributorFilter
		want   []string // logins, in order when the filter sorts
	}{
		{"query matches name", repository.ContributorFilter{Query: "builder"}, []string{"bob"}},
		{"query matches login", repository.ContributorFilter{Query: "car"}, []string{"carol"}},
		{"ids", repository.ContributorFilter{IDs: []string{a.ID, b.ID}, SortBy: "githubLogin"}, []string{"alice", "bob"}},
		{"sort desc", repository.ContributorFilter{SortBy: "totalCommits", SortDir: "desc"}, []string{"bob", "carol", "alice"}},
		{"sort asc", repository.ContributorFilter{SortBy: "totalCommits", SortDir: "asc"}, []string{"alice", "carol", "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Contributors().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d rows, want %d", len(got), len(tt.want))
			}
			for i, login := range tt.want {
				if got[i].GitHubLogin != login {
					t.Errorf("row %d = %q, want %q", i, got[i].GitHubLogin, login)
				}
			}
		})
	}
}

func TestContributorList_SegmentIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestContributor(t, db, "alice", "Alice", 1)
	createTestContributor(t, db, "bob", "Bob", 1)
	seg := createTestSegment(t, db, "core", "owner-1")
	if _, err := db.Segments().AddContributor(ctx, seg.ID, "bob"); err != nil {
		t.Fatalf("AddContributor() error = %v", err)
	}

	got, err := db.Contributors().List(ctx, repository.ContributorFilter{SegmentIDs: []string{seg.ID}})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].GitHubLogin != "bob" {
		t.Errorf("List() = %+v, want only bob", got)
	}
}

func TestContributorUpdate_Partial(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestContributor(t, db, "alice", "Alice", 10)

	name := "Alice L."
	got, err := db.Contributors().Update(ctx, c.ID, model.ContributorPatch{Name: &name})
	if err != nil || got == nil {
		t.Fatalf("Update() = %v, %v", got, err)
	}
	if got.Name != "Alice L." {
		t.Errorf("Name = %q, want %q", got.Name, "Alice L.")
	}
	// Fields not in the patch keep their values.
	if got.TotalCommits != 10 || got.Type != model.ContributorFullTime {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestContributorUpdateAndDelete_Absent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	name := "x"

	got, err := db.Contributors().Update(ctx, "missing", model.ContributorPatch{Name: &name})
	if err != nil || got != nil {
		t.Errorf("Update() = %v, %v; want nil, nil", got, err)
	}

	ok, err := db.Contributors().Delete(ctx, "missing")
	if err != nil || ok {
		t.Errorf("Delete() = %v, %v; want false, nil", ok, err)
	}
}

func TestContributorDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := createTestContributor(t, db, "alice", "Alice", 1)

	ok, err := db.Contributors().Delete(ctx, c.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v; want true, nil", ok, err)
	}
	got, _ := db.Contributors().GetByID(ctx, c.ID)
	if got != nil {
		t.Error("contributor still present after Delete()")
	}
}

// =========================================================================
// REPOSITORY TESTS
// =========================================================================

func createTestRepo(t *testing.T, db *DB, name, url string) *model.Repository {
	t.Helper()
	r := &model.Repository{Name: name, URL: url, Owner: "acme", Language: "Go"}
	if err := db.Repositories().Create(context.Background(), r); err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	return r
}

func TestRepoList_Names(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestRepo(t, db, "api", "https://github.com/acme/api")
	createTestRepo(t, db, "web", "https://github.com/acme/web")
	createTestRepo(t, db, "cli", "https://github.com/acme/cli")

	got, err := db.Repositories().List(ctx, repository.RepositoryFilter{Names: []string{"api", "cli"}})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List() returned %d rows, want 2", len(got))
	}

	all, err := db.Repositories().List(ctx, repository.RepositoryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() without filter returned %d rows, want 3", len(all))
	}
}

func TestRepoCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := createTestRepo(t, db, "api", "https://github.com/acme/api")

	stars := int64(99)
	got, err := db.Repositories().Update(ctx, r.ID, model.RepositoryPatch{Stars: &stars})
	if err != nil || got == nil {
		t.Fatalf("Update() = %v, %v", got, err)
	}
	if got.Stars != 99 || got.Name != "api" {
		t.Errorf("Update() = %+v", got)
	}

	ok, err := db.Repositories().Delete(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	missing, err := db.Repositories().GetByID(ctx, r.ID)
	if err != nil || missing != nil {
		t.Errorf("GetByID() after delete = %v, %v; want nil, nil", missing, err)
	}
}
