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

// SublistInput is the create body shared by both sublist kinds. Members is
// contributorIds or repositoryIds depending on the kind; the handler maps it.
type SublistInput struct {
	Name        string
	Description string
	Members     []string
}

// Repository sublist ?dataType= values.
const (
	DataTypeActivity  = "activity"
	DataTypeRetention = "retention"
)

func validateSublistInput(in *SublistInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "sublist name is required")
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Members = cleanList(in.Members)
	return nil
}

func validateSublistPatch(p *model.SublistPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return apperror.ValidationFailed("name", "sublist name must not be empty")
		}
		p.Name = &name
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	if p.Members != nil {
		p.Members = cleanList(p.Members)
	}
	return nil
}

func requireIDs(ids []string) ([]string, error) {
	ids = cleanList(ids)
	if len(ids) == 0 {
		return nil, apperror.ValidationFailed("ids", "ids is required")
	}
	return ids, nil
}

// =============================================================================
// Contributor sublists
// =============================================================================

// ContributorSublistService manages contributor sublists and the activity
// and retention series for an ad hoc set of contributor ids.
type ContributorSublistService struct {
	repo      repository.ContributorSublistRepository
	dashboard repository.DashboardRepository
	logger    *slog.Logger
}

func NewContributorSublistService(
	repo repository.ContributorSublistRepository,
	dashboard repository.DashboardRepository,
	logger *slog.Logger,
) *ContributorSublistService {
	return &ContributorSublistService{repo: repo, dashboard: dashboard, logger: logger}
}

func (s *ContributorSublistService) List(ctx context.Context) ([]model.ContributorSublist, error) {
	lists, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: listing contributor sublists: %w", err)
	}
	return lists, nil
}

func (s *ContributorSublistService) Get(ctx context.Context, id string) (*model.ContributorSublist, error) {
	sl, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("service/sublist: fetching contributor sublist %s: %w", id, err)
	}
	return sl, nil
}

// Create stores a sublist. Description defaults to "" and the member list to [].
func (s *ContributorSublistService) Create(ctx context.Context, in SublistInput) (*model.ContributorSublist, error) {
	if err := validateSublistInput(&in); err != nil {
		return nil, err
	}
	sl := &model.ContributorSublist{
		Name:           in.Name,
		Description:    in.Description,
		ContributorIDs: in.Members,
	}
	if err := s.repo.Create(ctx, sl); err != nil {
		return nil, fmt.Errorf("service/sublist: creating contributor sublist: %w", err)
	}
	s.logger.Info("contributor sublist created", slog.String("id", sl.ID))
	return sl, nil
}

func (s *ContributorSublistService) Update(ctx context.Context, id string, p model.SublistPatch) (*model.ContributorSublist, error) {
	if err := validateSublistPatch(&p); err != nil {
		return nil, err
	}
	sl, err := s.repo.Update(ctx, strings.TrimSpace(id), p)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: updating contributor sublist %s: %w", id, err)
	}
	return sl, nil
}

func (s *ContributorSublistService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("service/sublist: deleting contributor sublist %s: %w", id, err)
	}
	if ok {
		s.logger.Info("contributor sublist deleted", slog.String("id", id))
	}
	return ok, nil
}

// Activity is the monthly activity of the given contributors. ids is required.
func (s *ContributorSublistService) Activity(ctx context.Context, ids []string) ([]ActivityPoint, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.dashboard.ContributorActivity(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: contributor activity: %w", err)
	}
	return activityPoints(rows), nil
}

// Retention is the monthly active-vs-total series of the given contributors.
func (s *ContributorSublistService) Retention(ctx context.Context, ids []string) ([]RetentionPoint, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.dashboard.ContributorRetention(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: contributor retention: %w", err)
	}
	return retentionPoints(rows), nil
}

// =============================================================================
// Repository sublists
// =============================================================================

// RepositorySublistView is a repository sublist with, on request, one of its
// aggregate series attached.
type RepositorySublistView struct {
	*model.RepositorySublist
	Activity  []ActivityPoint  `json:"activity,omitempty"`
	Retention []RetentionPoint `json:"retention,omitempty"`
}

type RepositorySublistService struct {
	repo      repository.RepositorySublistRepository
	dashboard repository.DashboardRepository
	logger    *slog.Logger
}

func NewRepositorySublistService(
	repo repository.RepositorySublistRepository,
	dashboard repository.DashboardRepository,
	logger *slog.Logger,
) *RepositorySublistService {
	return &RepositorySublistService{repo: repo, dashboard: dashboard, logger: logger}
}

func (s *RepositorySublistService) List(ctx context.Context) ([]model.RepositorySublist, error) {
	lists, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: listing repository sublists: %w", err)
	}
	return lists, nil
}

// Get returns the sublist, with the series named by dataType attached
// ("activity" or "retention"; "" for none). Returns nil if id does not exist.
func (s *RepositorySublistService) Get(ctx context.Context, id, dataType string) (*RepositorySublistView, error) {
	switch dataType {
	case "", DataTypeActivity, DataTypeRetention:
	default:
		return nil, apperror.ValidationFailed("dataType", "dataType must be activity or retention")
	}

	sl, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("service/sublist: fetching repository sublist %s: %w", id, err)
	}
	if sl == nil {
		return nil, nil
	}

	view := &RepositorySublistView{RepositorySublist: sl}
	switch dataType {
	case DataTypeActivity:
		rows, err := s.dashboard.RepositoryActivity(ctx, sl.RepositoryIDs)
		if err != nil {
			return nil, fmt.Errorf("service/sublist: repository activity for %s: %w", sl.ID, err)
		}
		view.Activity = activityPoints(rows)
	case DataTypeRetention:
		rows, err := s.dashboard.RepositoryRetention(ctx, sl.RepositoryIDs)
		if err != nil {
			return nil, fmt.Errorf("service/sublist: repository retention for %s: %w", sl.ID, err)
		}
		view.Retention = retentionPoints(rows)
	}
	return view, nil
}

func (s *RepositorySublistService) Create(ctx context.Context, in SublistInput) (*model.RepositorySublist, error) {
	if err := validateSublistInput(&in); err != nil {
		return nil, err
	}
	sl := &model.RepositorySublist{
		Name:          in.Name,
		Description:   in.Description,
		RepositoryIDs: in.Members,
	}
	if err := s.repo.Create(ctx, sl); err != nil {
		return nil, fmt.Errorf("service/sublist: creating repository sublist: %w", err)
	}
	s.logger.Info("repository sublist created", slog.String("id", sl.ID))
	return sl, nil
}

func (s *RepositorySublistService) Update(ctx context.Context, id string, p model.SublistPatch) (*model.RepositorySublist, error) {
	if err := validateSublistPatch(&p); err != nil {
		return nil, err
	}
	sl, err := s.repo.Update(ctx, strings.TrimSpace(id), p)
	if err != nil {
		return nil, fmt.Errorf("service/sublist: updating repository sublist %s: %w", id, err)
	}
	return sl, nil
}

func (s *RepositorySublistService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("service/sublist: deleting repository sublist %s: %w", id, err)
	}
	if ok {
		s.logger.Info("repository sublist deleted", slog.String("id", id))
	}
	return ok, nil
}
