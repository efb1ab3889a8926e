package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

// Output points. Storage rows never cross the API boundary; every field is
// renamed to camelCase here.

type DevTypePoint struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	FullTime int64  `json:"fullTime"`
	PartTime int64  `json:"partTime"`
	OnTime   int64  `json:"onTime"`
}

// MonthlyCommitsPoint and MonthlyPRsMergedPoint mirror one stored row each.
// Two repositories reporting the same month are two points.
type MonthlyCommitsPoint struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	RepositoryID string `json:"repositoryId"`
	Commits      int64  `json:"commits"`
}

type MonthlyPRsMergedPoint struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	RepositoryID string `json:"repositoryId"`
	Merged       int64  `json:"merged"`
}

type ActivityPoint struct {
	Month            string `json:"month"`
	Commits          int64  `json:"commits"`
	PullRequests     int64  `json:"pullRequests"`
	ActiveDevelopers int64  `json:"activeDevelopers"`
}

// RetentionPoint carries RetentionRate as a percentage; null when Total is 0.
type RetentionPoint struct {
	Month              string   `json:"month"`
	ActiveContributors int64    `json:"activeContributors"`
	TotalContributors  int64    `json:"totalContributors"`
	RetentionRate      *float64 `json:"retentionRate"`
}

type LocationPoint struct {
	ID         string  `json:"id"`
	Country    string  `json:"country"`
	City       string  `json:"city"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Developers int64   `json:"developers"`
}

type CountryPoint struct {
	Country    string `json:"country"`
	Developers int64  `json:"developers"`
}

type ChainPoint struct {
	ID         string `json:"id"`
	Chain      string `json:"chain"`
	Developers int64  `json:"developers"`
}

// KPI compares the latest period with the one before it. Growth is a
// percentage rounded to one decimal, null when Previous is 0.
type KPI struct {
	Value    int64    `json:"value"`
	Previous int64    `json:"previous"`
	Growth   *float64 `json:"growth"`
	Period   string   `json:"period"`
}

type KPIs struct {
	TotalCommits     KPI `json:"totalCommits"`
	PRsMerged        KPI `json:"prsMerged"`
	ActiveDevelopers KPI `json:"activeDevelopers"`
}

// Overview is the GET /api/dashboard payload.
type Overview struct {
	KPIs              KPIs                    `json:"kpis"`
	MonthlyCommits    []MonthlyCommitsPoint   `json:"monthlyCommits"`
	MonthlyPRsMerged  []MonthlyPRsMergedPoint `json:"monthlyPrsMerged"`
	CommitsByDevType  []DevTypePoint          `json:"commitsByDevType"`
	DeveloperActivity []DevTypePoint          `json:"developerActivity"`
}

// ScopeResolver maps a user to the repositories their dashboard may see.
// SegmentService implements it.
type ScopeResolver interface {
	VisibleRepositoryIDs(ctx context.Context, actor *model.User) (repository.DashboardScope, error)
}

// DashboardService shapes the precomputed aggregate tables.
//
// Commit and PR series are scoped to the actor's visible repositories. The
// dev-type, activity and geography series are not repository-keyed and are
// returned whole.
type DashboardService struct {
	repo   repository.DashboardRepository
	scopes ScopeResolver
	logger *slog.Logger
}

func NewDashboardService(repo repository.DashboardRepository, scopes ScopeResolver, logger *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, scopes: scopes, logger: logger}
}

func (s *DashboardService) CommitsByDevType(ctx context.Context) ([]DevTypePoint, error) {
	rows, err := s.repo.CommitsByDevType(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: commits by dev type: %w", err)
	}
	return devTypePoints(rows), nil
}

func (s *DashboardService) DeveloperActivity(ctx context.Context) ([]DevTypePoint, error) {
	rows, err := s.repo.DeveloperActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: developer activity: %w", err)
	}
	return devTypePoints(rows), nil
}

// DevActivity is the per-month commit/PR/active-developer series across
// every contributor.
func (s *DashboardService) DevActivity(ctx context.Context) ([]ActivityPoint, error) {
	rows, err := s.repo.MonthlyActiveDevelopers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: monthly active developers: %w", err)
	}
	return activityPoints(rows), nil
}

func (s *DashboardService) MonthlyCommits(ctx context.Context, actor *model.User) ([]MonthlyCommitsPoint, error) {
	scope, err := s.scopes.VisibleRepositoryIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.monthlyCommits(ctx, scope)
}

func (s *DashboardService) MonthlyPRsMerged(ctx context.Context, actor *model.User) ([]MonthlyPRsMergedPoint, error) {
	scope, err := s.scopes.VisibleRepositoryIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.monthlyPRsMerged(ctx, scope)
}

// KPIs compares the latest month of each series with the month before.
func (s *DashboardService) KPIs(ctx context.Context, actor *model.User) (*KPIs, error) {
	scope, err := s.scopes.VisibleRepositoryIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	commits, err := s.monthlyCommits(ctx, scope)
	if err != nil {
		return nil, err
	}
	prs, err := s.monthlyPRsMerged(ctx, scope)
	if err != nil {
		return nil, err
	}
	activity, err := s.DeveloperActivity(ctx)
	if err != nil {
		return nil, err
	}
	return buildKPIs(commits, prs, activity), nil
}

// Overview bundles the KPIs with the series they are computed from.
func (s *DashboardService) Overview(ctx context.Context, actor *model.User) (*Overview, error) {
	scope, err := s.scopes.VisibleRepositoryIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	commits, err := s.monthlyCommits(ctx, scope)
	if err != nil {
		return nil, err
	}
	prs, err := s.monthlyPRsMerged(ctx, scope)
	if err != nil {
		return nil, err
	}
	byType, err := s.CommitsByDevType(ctx)
	if err != nil {
		return nil, err
	}
	activity, err := s.DeveloperActivity(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		KPIs:              *buildKPIs(commits, prs, activity),
		MonthlyCommits:    commits,
		MonthlyPRsMerged:  prs,
		CommitsByDevType:  byType,
		DeveloperActivity: activity,
	}, nil
}

func (s *DashboardService) DeveloperLocations(ctx context.Context) ([]LocationPoint, error) {
	rows, err := s.repo.DeveloperLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: developer locations: %w", err)
	}
	out := make([]LocationPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, LocationPoint{
			ID:         r.ID,
			Country:    r.Country,
			City:       r.City,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Developers: r.Developers,
		})
	}
	return out, nil
}

func (s *DashboardService) DevelopersByCountry(ctx context.Context) ([]CountryPoint, error) {
	rows, err := s.repo.DevelopersByCountry(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: developers by country: %w", err)
	}
	out := make([]CountryPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, CountryPoint{Country: r.Country, Developers: r.Developers})
	}
	return out, nil
}

func (s *DashboardService) DevelopersByChain(ctx context.Context) ([]ChainPoint, error) {
	rows, err := s.repo.DevelopersByChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: developers by chain: %w", err)
	}
	out := make([]ChainPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, ChainPoint{ID: r.ID, Chain: r.Chain, Developers: r.Developers})
	}
	return out, nil
}

func (s *DashboardService) monthlyCommits(ctx context.Context, scope repository.DashboardScope) ([]MonthlyCommitsPoint, error) {
	rows, err := s.repo.MonthlyCommits(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: monthly commits: %w", err)
	}
	out := make([]MonthlyCommitsPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthlyCommitsPoint{ID: r.ID, Date: r.Date, RepositoryID: r.RepositoryID, Commits: r.Count})
	}
	return out, nil
}

func (s *DashboardService) monthlyPRsMerged(ctx context.Context, scope repository.DashboardScope) ([]MonthlyPRsMergedPoint, error) {
	rows, err := s.repo.MonthlyPRsMerged(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: monthly PRs merged: %w", err)
	}
	out := make([]MonthlyPRsMergedPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthlyPRsMergedPoint{ID: r.ID, Date: r.Date, RepositoryID: r.RepositoryID, Merged: r.Count})
	}
	return out, nil
}

// buildKPIs totals each series per period before comparing the latest
// period with the one before it.
func buildKPIs(commits []MonthlyCommitsPoint, prs []MonthlyPRsMergedPoint, activity []DevTypePoint) *KPIs {
	return &KPIs{
		TotalCommits: latestKPI(totalsByPeriod(commits, func(p MonthlyCommitsPoint) (string, int64) {
			return p.Date, p.Commits
		})),
		PRsMerged: latestKPI(totalsByPeriod(prs, func(p MonthlyPRsMergedPoint) (string, int64) {
			return p.Date, p.Merged
		})),
		ActiveDevelopers: latestKPI(totalsByPeriod(activity, func(p DevTypePoint) (string, int64) {
			return p.Date, p.FullTime + p.PartTime + p.OnTime
		})),
	}
}

type periodTotal struct {
	period string
	total  int64
}

// totalsByPeriod sums the points of each period and returns the periods in
// ascending order. Periods are "YYYY-MM" strings, so they sort as text.
func totalsByPeriod[T any](points []T, value func(T) (string, int64)) []periodTotal {
	sums := make(map[string]int64, len(points))
	for _, p := range points {
		period, v := value(p)
		sums[period] += v
	}
	out := make([]periodTotal, 0, len(sums))
	for _, period := range slices.Sorted(maps.Keys(sums)) {
		out = append(out, periodTotal{period: period, total: sums[period]})
	}
	return out
}

// latestKPI compares the last period with the one before it. An empty series
// is the zero KPI; a single period has previous 0 and no growth.
func latestKPI(totals []periodTotal) KPI {
	n := len(totals)
	if n == 0 {
		return KPI{}
	}
	var previous int64
	if n > 1 {
		previous = totals[n-2].total
	}
	return newKPI(totals[n-1].period, totals[n-1].total, previous)
}

func newKPI(period string, current, previous int64) KPI {
	return KPI{Value: current, Previous: previous, Growth: Growth(current, previous), Period: period}
}

// Growth is (current - previous) / previous * 100 rounded to one decimal.
// It returns nil when previous is 0.
func Growth(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	g := round1(float64(current-previous) / float64(previous) * 100)
	return &g
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func devTypePoints(rows []model.DevTypeRow) []DevTypePoint {
	out := make([]DevTypePoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, DevTypePoint{
			ID:       r.ID,
			Date:     r.Date,
			FullTime: r.FullTime,
			PartTime: r.PartTime,
			OnTime:   r.OnTime,
		})
	}
	return out
}

func activityPoints(rows []model.ActivityRow) []ActivityPoint {
	out := make([]ActivityPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, ActivityPoint{
			Month:            r.Month,
			Commits:          r.Commits,
			PullRequests:     r.PullRequests,
			ActiveDevelopers: r.ActiveDevelopers,
		})
	}
	return out
}

func retentionPoints(rows []model.RetentionRow) []RetentionPoint {
	out := make([]RetentionPoint, 0, len(rows))
	for _, r := range rows {
		p := RetentionPoint{
			Month:              r.Month,
			ActiveContributors: r.Active,
			TotalContributors:  r.Total,
		}
		if r.Total > 0 {
			rate := round1(float64(r.Active) / float64(r.Total) * 100)
			p.RetentionRate = &rate
		}
		out = append(out, p)
	}
	return out
}
