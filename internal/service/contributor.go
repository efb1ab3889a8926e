package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// ContributorService handles contributor lookups and edits.
//
// GET /api/contributors is dual-mode at the HTTP boundary; here the two modes
// are separate operations, Get and List.
type ContributorService struct {
	repo   repository.ContributorRepository
	logger *slog.Logger
}

func NewContributorService(repo repository.ContributorRepository, logger *slog.Logger) *ContributorService {
	return &ContributorService{repo: repo, logger: logger}
}

// Get returns the contributor or nil if id does not exist.
func (s *ContributorService) Get(ctx context.Context, id string) (*model.Contributor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "contributor ID is required")
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/contributor: fetching %s: %w", id, err)
	}
	return c, nil
}

// List returns contributors matching f. An unknown sort key or direction is
// rejected rather than ignored.
func (s *ContributorService) List(ctx context.Context, f repository.ContributorFilter) ([]model.Contributor, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.SortBy != "" && !repository.ContributorSortKeys[f.SortBy] {
		return nil, apperror.ValidationFailed("sortBy", fmt.Sprintf("cannot sort by %q", f.SortBy))
	}
	switch f.SortDir {
	case "", repository.SortAsc, repository.SortDesc:
	default:
		return nil, apperror.ValidationFailed("sortDir", "sortDir must be asc or desc")
	}
	f.SegmentIDs = cleanList(f.SegmentIDs)
	f.IDs = cleanList(f.IDs)

	contributors, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service/contributor: listing: %w", err)
	}
	return contributors, nil
}

// Create validates and stores a contributor. The type defaults to on_time.
func (s *ContributorService) Create(ctx context.Context, c *model.Contributor) (*model.Contributor, error) {
	c.GitHubLogin = strings.TrimSpace(c.GitHubLogin)
	if c.GitHubLogin == "" {
		return nil, apperror.ValidationFailed("githubLogin", "githubLogin is required")
	}
	if c.Type == "" {
		c.Type = model.ContributorOnTime
	}
	if err := validateContributor(c.Type, c.TenureMonths, c.TotalCommits, c.TotalPullRequests); err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(c.Name)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("service/contributor: creating %s: %w", c.GitHubLogin, err)
	}
	s.logger.Info("contributor created",
		slog.String("id", c.ID),
		slog.String("githubLogin", c.GitHubLogin),
	)
	return c, nil
}

// Update applies the non-nil fields of p. Returns nil if id does not exist.
func (s *ContributorService) Update(ctx context.Context, id string, p model.ContributorPatch) (*model.Contributor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "contributor ID is required")
	}
	var (
		typ          string
		tenure       int
		commits, prs int64
	)
	if p.Type != nil {
		typ = *p.Type
		if typ == "" {
			return nil, apperror.ValidationFailed("type", "type must not be empty")
		}
	}
	if p.TenureMonths != nil {
		tenure = *p.TenureMonths
	}
	if p.TotalCommits != nil {
		commits = *p.TotalCommits
	}
	if p.TotalPullRequests != nil {
		prs = *p.TotalPullRequests
	}
	if err := validateContributor(typ, tenure, commits, prs); err != nil {
		return nil, err
	}

	c, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("service/contributor: updating %s: %w", id, err)
	}
	if c != nil {
		s.logger.Info("contributor updated", slog.String("id", id))
	}
	return c, nil
}

// Delete reports whether a contributor was removed.
func (s *ContributorService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("service/contributor: deleting %s: %w", id, err)
	}
	if ok {
		s.logger.Info("contributor deleted", slog.String("id", id))
	}
	return ok, nil
}

// validateContributor checks the constrained fields. An empty typ is skipped.
func validateContributor(typ string, tenure int, commits, prs int64) error {
	if typ != "" && !model.ValidContributorType(typ) {
		return apperror.ValidationFailed("type", "type must be full_time, part_time or on_time")
	}
	if tenure < 0 {
		return apperror.ValidationFailed("tenureMonths", "tenureMonths must not be negative")
	}
	if commits < 0 || prs < 0 {
		return apperror.ValidationFailed("totalCommits", "activity counts must not be negative")
	}
	return nil
}
