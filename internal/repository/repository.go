// Package repository declares the storage contracts the services depend on.
//
// Every entity gets a narrow interface. Absence is a value, not an error:
// GetByID and Update return (nil, nil) when the id does not exist and Delete
// returns false. Any non-nil error is a storage failure.
package repository

import (
	"context"

	"github.com/sakif/devrel-dashboard/internal/model"
)

// Sort directions accepted by list filters.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ContributorSortKeys are the accepted ContributorFilter.SortBy values.
var ContributorSortKeys = map[string]bool{
	"name":              true,
	"githubLogin":       true,
	"totalCommits":      true,
	"totalPullRequests": true,
	"tenureMonths":      true,
	"lastActiveAt":      true,
}

type ContributorFilter struct {
	Query      string   // substring of name or github login
	SortBy     string   // name, githubLogin, totalCommits, totalPullRequests, tenureMonths, lastActiveAt
	SortDir    string   // asc or desc
	SegmentIDs []string // only members of any of these segments
	IDs        []string
}

type RepositoryFilter struct {
	Query string
	Names []string
	URLs  []string
	IDs   []string
}

type SegmentFilter struct {
	OwnerID string // empty means every owner
	Query   string
}

// DashboardScope restricts aggregate queries to a set of repositories.
// Scoped with no RepositoryIDs yields empty results; it never means "all".
type DashboardScope struct {
	Scoped        bool
	RepositoryIDs []string
}

// Empty reports whether the scope can match no rows at all.
func (s DashboardScope) Empty() bool {
	return s.Scoped && len(s.RepositoryIDs) == 0
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGitHubLogin(ctx context.Context, login string) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
}

type ContributorRepository interface {
	List(ctx context.Context, filter ContributorFilter) ([]model.Contributor, error)
	GetByID(ctx context.Context, id string) (*model.Contributor, error)
	Create(ctx context.Context, c *model.Contributor) error
	Update(ctx context.Context, id string, patch model.ContributorPatch) (*model.Contributor, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type RepoRepository interface {
	List(ctx context.Context, filter RepositoryFilter) ([]model.Repository, error)
	GetByID(ctx context.Context, id string) (*model.Repository, error)
	Create(ctx context.Context, r *model.Repository) error
	Update(ctx context.Context, id string, patch model.RepositoryPatch) (*model.Repository, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type SegmentRepository interface {
	List(ctx context.Context, filter SegmentFilter) ([]model.Segment, error)
	GetByID(ctx context.Context, id string) (*model.Segment, error)
	Create(ctx context.Context, s *model.Segment) error
	Update(ctx context.Context, id string, patch model.SegmentPatch) (*model.Segment, error)
	Delete(ctx context.Context, id string) (bool, error)

	AddContributor(ctx context.Context, segmentID, login string) (bool, error)
	RemoveContributor(ctx context.Context, segmentID, login string) (bool, error)
	AddRepository(ctx context.Context, segmentID, url string) (bool, error)
	RemoveRepository(ctx context.Context, segmentID, url string) (bool, error)

	// RepositoryIDsForOwner returns the ids of repositories whose URL is a
	// member of any segment owned by ownerID.
	RepositoryIDsForOwner(ctx context.Context, ownerID string) ([]string, error)
}

type ContributorSublistRepository interface {
	List(ctx context.Context) ([]model.ContributorSublist, error)
	GetByID(ctx context.Context, id string) (*model.ContributorSublist, error)
	Create(ctx context.Context, s *model.ContributorSublist) error
	Update(ctx context.Context, id string, patch model.SublistPatch) (*model.ContributorSublist, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type RepositorySublistRepository interface {
	List(ctx context.Context) ([]model.RepositorySublist, error)
	GetByID(ctx context.Context, id string) (*model.RepositorySublist, error)
	Create(ctx context.Context, s *model.RepositorySublist) error
	Update(ctx context.Context, id string, patch model.SublistPatch) (*model.RepositorySublist, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// DashboardRepository reads the precomputed aggregate tables. Time series are
// returned in ascending date order.
type DashboardRepository interface {
	CommitsByDevType(ctx context.Context) ([]model.DevTypeRow, error)
	DeveloperActivity(ctx context.Context) ([]model.DevTypeRow, error)
	MonthlyCommits(ctx context.Context, scope DashboardScope) ([]model.MonthlyCountRow, error)
	MonthlyPRsMerged(ctx context.Context, scope DashboardScope) ([]model.MonthlyCountRow, error)
	MonthlyActiveDevelopers(ctx context.Context) ([]model.ActivityRow, error)
	DeveloperLocations(ctx context.Context) ([]model.LocationRow, error)
	DevelopersByCountry(ctx context.Context) ([]model.CountryRow, error)
	DevelopersByChain(ctx context.Context) ([]model.ChainRow, error)

	ContributorActivity(ctx context.Context, contributorIDs []string) ([]model.ActivityRow, error)
	ContributorRetention(ctx context.Context, contributorIDs []string) ([]model.RetentionRow, error)
	RepositoryActivity(ctx context.Context, repositoryIDs []string) ([]model.ActivityRow, error)
	RepositoryRetention(ctx context.Context, repositoryIDs []string) ([]model.RetentionRow, error)
}
