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

// SegmentService handles segments, their memberships, and the repository
// scope a user's segments grant on the dashboard.
//
// A segment is visible to its owner and to admins. For anyone else it does
// not exist: Get, Update and Delete return nil/false, never Unauthorized,
// so ids of other users' segments cannot be discovered.
type SegmentService struct {
	repo   repository.SegmentRepository
	logger *slog.Logger
}

func NewSegmentService(repo repository.SegmentRepository, logger *slog.Logger) *SegmentService {
	return &SegmentService{repo: repo, logger: logger}
}

// SegmentInput is the body of POST /api/segments.
type SegmentInput struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ContributorLogins []string `json:"contributorLogins"`
	RepositoryURLs    []string `json:"repositoryUrls"`
}

// List returns the actor's segments, or every segment for an admin.
func (s *SegmentService) List(ctx context.Context, actor *model.User, query string) ([]model.Segment, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	f := repository.SegmentFilter{Query: strings.TrimSpace(query)}
	if !actor.IsAdmin() {
		f.OwnerID = actor.ID
	}
	segments, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service/segment: listing for %s: %w", actor.ID, err)
	}
	return segments, nil
}

// Get returns the segment, or nil if it is absent or not visible to actor.
func (s *SegmentService) Get(ctx context.Context, actor *model.User, id string) (*model.Segment, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	seg, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("service/segment: fetching %s: %w", id, err)
	}
	if !canAccess(actor, seg) {
		return nil, nil
	}
	return seg, nil
}

// Create stores a segment owned by actor.
func (s *SegmentService) Create(ctx context.Context, actor *model.User, in SegmentInput) (*model.Segment, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "segment name is required")
	}

	urls := make([]string, 0, len(in.RepositoryURLs))
	for _, u := range in.RepositoryURLs {
		urls = append(urls, normalizeURL(u))
	}
	seg := &model.Segment{
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		OwnerID:           actor.ID,
		ContributorLogins: cleanList(in.ContributorLogins),
		RepositoryURLs:    cleanList(urls),
	}
	if err := s.repo.Create(ctx, seg); err != nil {
		return nil, fmt.Errorf("service/segment: creating %q: %w", name, err)
	}
	s.logger.Info("segment created",
		slog.String("id", seg.ID),
		slog.String("owner", actor.ID),
	)
	return seg, nil
}

// Update applies p to a segment visible to actor. Returns nil otherwise.
func (s *SegmentService) Update(ctx context.Context, actor *model.User, id string, p model.SegmentPatch) (*model.Segment, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "segment name must not be empty")
		}
		p.Name = &name
	}
	seg, err := s.Get(ctx, actor, id)
	if err != nil || seg == nil {
		return nil, err
	}

	if p.ContributorLogins != nil {
		p.ContributorLogins = cleanList(p.ContributorLogins)
	}
	if p.RepositoryURLs != nil {
		urls := make([]string, 0, len(p.RepositoryURLs))
		for _, u := range p.RepositoryURLs {
			urls = append(urls, normalizeURL(u))
		}
		p.RepositoryURLs = cleanList(urls)
	}

	updated, err := s.repo.Update(ctx, seg.ID, p)
	if err != nil {
		return nil, fmt.Errorf("service/segment: updating %s: %w", seg.ID, err)
	}
	if updated != nil {
		s.logger.Info("segment updated", slog.String("id", seg.ID))
	}
	return updated, nil
}

// Delete removes a segment visible to actor; memberships cascade in storage.
func (s *SegmentService) Delete(ctx context.Context, actor *model.User, id string) (bool, error) {
	seg, err := s.Get(ctx, actor, id)
	if err != nil || seg == nil {
		return false, err
	}
	ok, err := s.repo.Delete(ctx, seg.ID)
	if err != nil {
		return false, fmt.Errorf("service/segment: deleting %s: %w", seg.ID, err)
	}
	if ok {
		s.logger.Info("segment deleted", slog.String("id", seg.ID))
	}
	return ok, nil
}

// Membership operations return the segment they acted on, or nil when it does
// not exist, and whether the membership changed.
//
// AddContributor adds login to the segment. Adding an existing member is a
// successful no-op, so changed is true whenever the segment exists.
func (s *SegmentService) AddContributor(ctx context.Context, segmentID, login string) (*model.Segment, bool, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, false, apperror.ValidationFailed("githubLogin", "githubLogin is required")
	}
	return s.addMember(ctx, segmentID, login, s.repo.AddContributor)
}

// RemoveContributor reports changed == false when login was not a member.
func (s *SegmentService) RemoveContributor(ctx context.Context, segmentID, login string) (*model.Segment, bool, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, false, apperror.ValidationFailed("githubLogin", "githubLogin is required")
	}
	return s.removeMember(ctx, segmentID, login, s.repo.RemoveContributor)
}

func (s *SegmentService) AddRepository(ctx context.Context, segmentID, url string) (*model.Segment, bool, error) {
	url = normalizeURL(url)
	if url == "" {
		return nil, false, apperror.ValidationFailed("repositoryUrl", "repositoryUrl is required")
	}
	return s.addMember(ctx, segmentID, url, s.repo.AddRepository)
}

func (s *SegmentService) RemoveRepository(ctx context.Context, segmentID, url string) (*model.Segment, bool, error) {
	url = normalizeURL(url)
	if url == "" {
		return nil, false, apperror.ValidationFailed("repositoryUrl", "repositoryUrl is required")
	}
	return s.removeMember(ctx, segmentID, url, s.repo.RemoveRepository)
}

type memberOp func(ctx context.Context, segmentID, key string) (bool, error)

func (s *SegmentService) addMember(ctx context.Context, segmentID, key string, op memberOp) (*model.Segment, bool, error) {
	seg, err := s.segment(ctx, segmentID)
	if err != nil || seg == nil {
		return nil, false, err
	}
	if _, err := op(ctx, seg.ID, key); err != nil {
		return nil, false, fmt.Errorf("service/segment: adding %s to %s: %w", key, seg.ID, err)
	}
	return seg, true, nil
}

func (s *SegmentService) removeMember(ctx context.Context, segmentID, key string, op memberOp) (*model.Segment, bool, error) {
	seg, err := s.segment(ctx, segmentID)
	if err != nil || seg == nil {
		return nil, false, err
	}
	removed, err := op(ctx, seg.ID, key)
	if err != nil {
		return nil, false, fmt.Errorf("service/segment: removing %s from %s: %w", key, seg.ID, err)
	}
	return seg, removed, nil
}

// segment loads a segment without an access check; membership routes are public.
func (s *SegmentService) segment(ctx context.Context, id string) (*model.Segment, error) {
	seg, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("service/segment: fetching %s: %w", id, err)
	}
	return seg, nil
}

// VisibleRepositoryIDs is the dashboard scope for actor: every repository for
// an admin, otherwise the repositories whose URL is in one of the actor's
// segments. A user without segments gets a scope that matches nothing.
func (s *SegmentService) VisibleRepositoryIDs(ctx context.Context, actor *model.User) (repository.DashboardScope, error) {
	if actor == nil {
		return repository.DashboardScope{}, apperror.Unauthorized("authentication required")
	}
	if actor.IsAdmin() {
		return repository.DashboardScope{}, nil
	}
	ids, err := s.repo.RepositoryIDsForOwner(ctx, actor.ID)
	if err != nil {
		return repository.DashboardScope{}, fmt.Errorf("service/segment: resolving repositories for %s: %w", actor.ID, err)
	}
	return repository.DashboardScope{Scoped: true, RepositoryIDs: ids}, nil
}

func canAccess(actor *model.User, seg *model.Segment) bool {
	return seg != nil && actor != nil && (actor.IsAdmin() || seg.OwnerID == actor.ID)
}
