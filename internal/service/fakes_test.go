package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each follows the
// storage contract: absent → (nil, nil), Delete → bool. Set err to simulate
// a database failure on every call.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user", "email", u.Email)
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByGitHubLogin(_ context.Context, login string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.GitHubLogin != "" && u.GitHubLogin == login })
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.users[u.ID]; !ok {
		return nil, nil
	}
	copied := *u
	f.users[u.ID] = &copied
	out := copied
	return &out, nil
}

type fakeContributorRepo struct {
	byID       map[string]*model.Contributor
	nextID     int
	err        error
	lastFilter repository.ContributorFilter
}

func newFakeContributorRepo() *fakeContributorRepo {
	return &fakeContributorRepo{byID: map[string]*model.Contributor{}}
}

func (f *fakeContributorRepo) List(_ context.Context, filter repository.ContributorFilter) ([]model.Contributor, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Contributor{}
	for _, c := range f.byID {
		if filter.Query != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.GitHubLogin), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeContributorRepo) GetByID(_ context.Context, id string) (*model.Contributor, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.byID[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeContributorRepo) Create(_ context.Context, c *model.Contributor) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	c.ID = fmt.Sprintf("c%d", f.nextID)
	copied := *c
	f.byID[c.ID] = &copied
	return nil
}

func (f *fakeContributorRepo) Update(_ context.Context, id string, p model.ContributorPatch) (*model.Contributor, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContributorRepo) Delete(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok, nil
}

type fakeSegmentRepo struct {
	byID        map[string]*model.Segment
	nextID      int
	err         error
	repoIDs     map[string][]string // owner id → visible repository ids
	scopeCalled bool
}

func newFakeSegmentRepo() *fakeSegmentRepo {
	return &fakeSegmentRepo{byID: map[string]*model.Segment{}, repoIDs: map[string][]string{}}
}

func (f *fakeSegmentRepo) List(_ context.Context, filter repository.SegmentFilter) ([]model.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Segment{}
	for _, s := range f.byID {
		if filter.OwnerID != "" && s.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSegmentRepo) GetByID(_ context.Context, id string) (*model.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.byID[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeSegmentRepo) Create(_ context.Context, s *model.Segment) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	s.ID = fmt.Sprintf("seg-%d", f.nextID)
	copied := *s
	f.byID[s.ID] = &copied
	return nil
}

func (f *fakeSegmentRepo) Update(_ context.Context, id string, p model.SegmentPatch) (*model.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.ContributorLogins != nil {
		s.ContributorLogins = p.ContributorLogins
	}
	if p.RepositoryURLs != nil {
		s.RepositoryURLs = p.RepositoryURLs
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSegmentRepo) Delete(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok, nil
}

func (f *fakeSegmentRepo) AddContributor(_ context.Context, segmentID, login string) (bool, error) {
	s := f.byID[segmentID]
	for _, l := range s.ContributorLogins {
		if l == login {
			return true, nil
		}
	}
	s.ContributorLogins = append(s.ContributorLogins, login)
	return true, nil
}

func (f *fakeSegmentRepo) RemoveContributor(_ context.Context, segmentID, login string) (bool, error) {
	s, ok := f.byID[segmentID]
	if !ok {
		return false, nil
	}
	for i, l := range s.ContributorLogins {
		if l == login {
			s.ContributorLogins = append(s.ContributorLogins[:i], s.ContributorLogins[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSegmentRepo) AddRepository(_ context.Context, segmentID, url string) (bool, error) {
	s := f.byID[segmentID]
	for _, u := range s.RepositoryURLs {
		if u == url {
			return true, nil
		}
	}
	s.RepositoryURLs = append(s.RepositoryURLs, url)
	return true, nil
}

func (f *fakeSegmentRepo) RemoveRepository(_ context.Context, segmentID, url string) (bool, error) {
	s, ok := f.byID[segmentID]
	if !ok {
		return false, nil
	}
	for i, u := range s.RepositoryURLs {
		if u == url {
			s.RepositoryURLs = append(s.RepositoryURLs[:i], s.RepositoryURLs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSegmentRepo) RepositoryIDsForOwner(_ context.Context, ownerID string) ([]string, error) {
	f.scopeCalled = true
	if f.err != nil {
		return nil, f.err
	}
	ids := f.repoIDs[ownerID]
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

type fakeSublistRepo struct {
	contributor map[string]*model.ContributorSublist
	repo        map[string]*model.RepositorySublist
	nextID      int
}

func newFakeSublistRepo() *fakeSublistRepo {
	return &fakeSublistRepo{
		contributor: map[string]*model.ContributorSublist{},
		repo:        map[string]*model.RepositorySublist{},
	}
}

// contributorSide and repositorySide adapt the one fake to both interfaces.
type contributorSide struct{ *fakeSublistRepo }
type repositorySide struct{ *fakeSublistRepo }

func (f contributorSide) List(context.Context) ([]model.ContributorSublist, error) {
	out := []model.ContributorSublist{}
	for _, s := range f.contributor {
		out = append(out, *s)
	}
	return out, nil
}

func (f contributorSide) GetByID(_ context.Context, id string) (*model.ContributorSublist, error) {
	if s, ok := f.contributor[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f contributorSide) Create(_ context.Context, s *model.ContributorSublist) error {
	f.nextID++
	s.ID = fmt.Sprintf("csl-%d", f.nextID)
	if s.ContributorIDs == nil {
		s.ContributorIDs = []string{}
	}
	copied := *s
	f.contributor[s.ID] = &copied
	return nil
}

func (f contributorSide) Update(_ context.Context, id string, p model.SublistPatch) (*model.ContributorSublist, error) {
	s, ok := f.contributor[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Members != nil {
		s.ContributorIDs = p.Members
	}
	copied := *s
	return &copied, nil
}

func (f contributorSide) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.contributor[id]
	delete(f.contributor, id)
	return ok, nil
}

func (f repositorySide) List(context.Context) ([]model.RepositorySublist, error) {
	out := []model.RepositorySublist{}
	for _, s := range f.repo {
		out = append(out, *s)
	}
	return out, nil
}

func (f repositorySide) GetByID(_ context.Context, id string) (*model.RepositorySublist, error) {
	if s, ok := f.repo[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f repositorySide) Create(_ context.Context, s *model.RepositorySublist) error {
	f.nextID++
	s.ID = fmt.Sprintf("rsl-%d", f.nextID)
	if s.RepositoryIDs == nil {
		s.RepositoryIDs = []string{}
	}
	copied := *s
	f.repo[s.ID] = &copied
	return nil
}

func (f repositorySide) Update(_ context.Context, id string, p model.SublistPatch) (*model.RepositorySublist, error) {
	s, ok := f.repo[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Members != nil {
		s.RepositoryIDs = p.Members
	}
	copied := *s
	return &copied, nil
}

func (f repositorySide) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.repo[id]
	delete(f.repo, id)
	return ok, nil
}

// fakeDashboardRepo returns canned rows and records the arguments it saw.
type fakeDashboardRepo struct {
	devType     []model.DevTypeRow
	activity    []model.DevTypeRow
	commits     []model.MonthlyCountRow
	prs         []model.MonthlyCountRow
	active      []model.ActivityRow
	locations   []model.LocationRow
	countries   []model.CountryRow
	chains      []model.ChainRow
	retention   []model.RetentionRow
	err         error
	lastScope   repository.DashboardScope
	lastIDs     []string
	commitCalls int
}

func (f *fakeDashboardRepo) CommitsByDevType(context.Context) ([]model.DevTypeRow, error) {
	return f.devType, f.err
}

func (f *fakeDashboardRepo) DeveloperActivity(context.Context) ([]model.DevTypeRow, error) {
	return f.activity, f.err
}

func (f *fakeDashboardRepo) MonthlyCommits(_ context.Context, scope repository.DashboardScope) ([]model.MonthlyCountRow, error) {
	f.lastScope = scope
	f.commitCalls++
	if scope.Empty() {
		return []model.MonthlyCountRow{}, f.err
	}
	return f.commits, f.err
}

func (f *fakeDashboardRepo) MonthlyPRsMerged(_ context.Context, scope repository.DashboardScope) ([]model.MonthlyCountRow, error) {
	f.lastScope = scope
	if scope.Empty() {
		return []model.MonthlyCountRow{}, f.err
	}
	return f.prs, f.err
}

func (f *fakeDashboardRepo) MonthlyActiveDevelopers(context.Context) ([]model.ActivityRow, error) {
	return f.active, f.err
}

func (f *fakeDashboardRepo) DeveloperLocations(context.Context) ([]model.LocationRow, error) {
	return f.locations, f.err
}

func (f *fakeDashboardRepo) DevelopersByCountry(context.Context) ([]model.CountryRow, error) {
	return f.countries, f.err
}

func (f *fakeDashboardRepo) DevelopersByChain(context.Context) ([]model.ChainRow, error) {
	return f.chains, f.err
}

func (f *fakeDashboardRepo) ContributorActivity(_ context.Context, ids []string) ([]model.ActivityRow, error) {
	f.lastIDs = ids
	return f.active, f.err
}

func (f *fakeDashboardRepo) ContributorRetention(_ context.Context, ids []string) ([]model.RetentionRow, error) {
	f.lastIDs = ids
	return f.retention, f.err
}

func (f *fakeDashboardRepo) RepositoryActivity(_ context.Context, ids []string) ([]model.ActivityRow, error) {
	f.lastIDs = ids
	return f.active, f.err
}

func (f *fakeDashboardRepo) RepositoryRetention(_ context.Context, ids []string) ([]model.RetentionRow, error) {
	f.lastIDs = ids
	return f.retention, f.err
}
