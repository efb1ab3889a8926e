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

// RepositoryService handles the tracked source repositories.
type RepositoryService struct {
	repo   repository.RepoRepository
	logger *slog.Logger
}

func NewRepositoryService(repo repository.RepoRepository, logger *slog.Logger) *RepositoryService {
	return &RepositoryService{repo: repo, logger: logger}
}

func (s *RepositoryService) List(ctx context.Context, f repository.RepositoryFilter) ([]model.Repository, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Names = cleanList(f.Names)
	f.URLs = cleanList(f.URLs)
	f.IDs = cleanList(f.IDs)

	repos, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service/repository: listing: %w", err)
	}
	return repos, nil
}

// Get returns the repository or nil if id does not exist.
func (s *RepositoryService) Get(ctx context.Context, id string) (*model.Repository, error) {
	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("service/repository: fetching %s: %w", id, err)
	}
	return r, nil
}

func (s *RepositoryService) Create(ctx context.Context, r *model.Repository) (*model.Repository, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.URL = normalizeURL(r.URL)
	if r.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if r.URL == "" {
		return nil, apperror.ValidationFailed("url", "url is required")
	}
	if r.Stars < 0 || r.Forks < 0 {
		return nil, apperror.ValidationFailed("stars", "stars and forks must not be negative")
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("service/repository: creating %s: %w", r.Name, err)
	}
	s.logger.Info("repository created", slog.String("id", r.ID), slog.String("url", r.URL))
	return r, nil
}

// Update applies the non-nil fields of p. Returns nil if id does not exist.
func (s *RepositoryService) Update(ctx context.Context, id string, p model.RepositoryPatch) (*model.Repository, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		p.Name = &name
	}
	if p.URL != nil {
		url := normalizeURL(*p.URL)
		if url == "" {
			return nil, apperror.ValidationFailed("url", "url must not be empty")
		}
		p.URL = &url
	}
	if (p.Stars != nil && *p.Stars < 0) || (p.Forks != nil && *p.Forks < 0) {
		return nil, apperror.ValidationFailed("stars", "stars and forks must not be negative")
	}

	r, err := s.repo.Update(ctx, strings.TrimSpace(id), p)
	if err != nil {
		return nil, fmt.Errorf("service/repository: updating %s: %w", id, err)
	}
	if r != nil {
		s.logger.Info("repository updated", slog.String("id", id))
	}
	return r, nil
}

func (s *RepositoryService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("service/repository: deleting %s: %w", id, err)
	}
	if ok {
		s.logger.Info("repository deleted", slog.String("id", id))
	}
	return ok, nil
}

// normalizeURL trims whitespace and a trailing slash so segment membership
// matches the stored repository URL.
func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
