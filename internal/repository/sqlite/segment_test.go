package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

func createTestSegment(t *testing.T, db *DB, name, ownerID string) *model.Segment {
	t.Helper()
	seg := &model.Segment{Name: name, OwnerID: ownerID}
	if err := db.Segments().Create(context.Background(), seg); err != nil {
		t.Fatalf("failed to create test segment: %v", err)
	}
	return seg
}

func countRows(t *testing.T, db *DB, table, segmentID string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE segment_id = ?", segmentID).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestSegmentCreate_WithMembers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seg := &model.Segment{
		Name:              "core",
		OwnerID:           "owner-1",
		ContributorLogins: []string{"alice", "bob", "alice", " "},
		RepositoryURLs:    []string{"https://github.com/acme/api"},
	}
	if err := db.Segments().Create(ctx, seg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.Segments().GetByID(ctx, seg.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}
	if len(got.ContributorLogins) != 2 || got.ContributorLogins[0] != "alice" || got.ContributorLogins[1] != "bob" {
		t.Errorf("ContributorLogins = %v, want [alice bob]", got.ContributorLogins)
	}
	if len(got.RepositoryURLs) != 1 {
		t.Errorf("RepositoryURLs = %v", got.RepositoryURLs)
	}
}

func TestSegmentAddContributor_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seg := createTestSegment(t, db, "core", "owner-1")

	for i := 0; i < 2; i++ {
		ok, err := db.Segments().AddContributor(ctx, seg.ID, "alice")
		if err != nil {
			t.Fatalf("AddContributor() call %d error = %v", i+1, err)
		}
		if !ok {
			t.Errorf("AddContributor() call %d = false, want true", i+1)
		}
	}

	if n := countRows(t, db, "segment_contributors", seg.ID); n != 1 {
		t.Errorf("membership rows = %d, want 1", n)
	}
}

func TestSegmentRemoveMember_NotMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seg := createTestSegment(t, db, "core", "owner-1")

	ok, err := db.Segments().RemoveContributor(ctx, seg.ID, "ghost")
	if err != nil {
		t.Fatalf("RemoveContributor() error = %v", err)
	}
	if ok {
		t.Error("RemoveContributor() of a non-member = true, want false")
	}

	ok, err = db.Segments().RemoveRepository(ctx, seg.ID, "https://github.com/acme/none")
	if err != nil || ok {
		t.Errorf("RemoveRepository() = %v, %v; want false, nil", ok, err)
	}
}

func TestSegmentRemoveMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seg := createTestSegment(t, db, "core", "owner-1")
	if _, err := db.Segments().AddRepository(ctx, seg.ID, "https://github.com/acme/api"); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}

	ok, err := db.Segments().RemoveRepository(ctx, seg.ID, "https://github.com/acme/api")
	if err != nil || !ok {
		t.Fatalf("RemoveRepository() = %v, %v; want true, nil", ok, err)
	}
	if n := countRows(t, db, "segment_repositories", seg.ID); n != 0 {
		t.Errorf("membership rows = %d, want 0", n)
	}
}

func TestSegmentDelete_CascadesMemberships(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seg := &model.Segment{
		Name:              "core",
		ContributorLogins: []string{"alice"},
		RepositoryURLs:    []string{"https://github.com/acme/api"},
	}
	if err := db.Segments().Create(ctx, seg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ok, err := db.Segments().Delete(ctx, seg.ID)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if n := countRows(t, db, "segment_contributors", seg.ID); n != 0 {
		t.Errorf("segment_contributors rows after delete = %d, want 0", n)
	}
	if n := countRows(t, db, "segment_repositories", seg.ID); n != 0 {
		t.Errorf("segment_repositories rows after delete = %d, want 0", n)
	}

	ok, err = db.Segments().Delete(ctx, seg.ID)
	if err != nil || ok {
		t.Errorf("second Delete() = %v, %v; want false, nil", ok, err)
	}
}

func TestSegmentUpdate_ReplacesMembers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seg := &model.Segment{Name: "core", ContributorLogins: []string{"alice", "bob"}}
	if err := db.Segments().Create(ctx, seg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	name := "renamed"
	got, err := db.Segments().Update(ctx, seg.ID, model.SegmentPatch{
		Name:              &name,
		ContributorLogins: []string{"carol"},
	})
	if err != nil || got == nil {
		t.Fatalf("Update() = %v, %v", got, err)
	}
	if got.Name != "renamed" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.ContributorLogins) != 1 || got.ContributorLogins[0] != "carol" {
		t.Errorf("ContributorLogins = %v, want [carol]", got.ContributorLogins)
	}

	// A nil slice leaves membership alone.
	desc := "d"
	got, err = db.Segments().Update(ctx, seg.ID, model.SegmentPatch{Description: &desc})
	if err != nil || got == nil {
		t.Fatalf("Update() = %v, %v", got, err)
	}
	if len(got.ContributorLogins) != 1 {
		t.Errorf("ContributorLogins = %v, want unchanged", got.ContributorLogins)
	}

	missing, err := db.Segments().Update(ctx, "missing", model.SegmentPatch{Name: &name})
	if err != nil || missing != nil {
		t.Errorf("Update() of absent = %v, %v; want nil, nil", missing, err)
	}
}

func TestSegmentList_ByOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestSegment(t, db, "mine", "owner-1")
	createTestSegment(t, db, "theirs", "owner-2")

	mine, err := db.Segments().List(ctx, repository.SegmentFilter{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "mine" {
		t.Errorf("List(owner-1) = %+v", mine)
	}
	if mine[0].ContributorLogins == nil || mine[0].RepositoryURLs == nil {
		t.Error("membership slices should be empty, not nil")
	}

	all, err := db.Segments().List(ctx, repository.SegmentFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() = %d segments, want 2", len(all))
	}
}

func TestSegmentRepositoryIDsForOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	api := createTestRepo(t, db, "api", "https://github.com/acme/api")
	createTestRepo(t, db, "web", "https://github.com/acme/web")

	seg := createTestSegment(t, db, "mine", "owner-1")
	if _, err := db.Segments().AddRepository(ctx, seg.ID, api.URL); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}

	ids, err := db.Segments().RepositoryIDsForOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("RepositoryIDsForOwner() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != api.ID {
		t.Errorf("RepositoryIDsForOwner() = %v, want [%s]", ids, api.ID)
	}

	none, err := db.Segments().RepositoryIDsForOwner(ctx, "owner-2")
	if err != nil {
		t.Fatalf("RepositoryIDsForOwner() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("RepositoryIDsForOwner(owner-2) = %v, want empty", none)
	}
}
