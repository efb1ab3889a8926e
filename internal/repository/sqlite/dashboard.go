package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
)

var _ repository.DashboardRepository = (*DashboardStore)(nil)

// DashboardStore reads and loads the precomputed aggregate tables.
type DashboardStore struct {
	db *DB
}

// aggregateTables is every table the Insert* methods write to, in the order
// ClearAggregates empties them.
var aggregateTables = []string{
	"commits_by_dev_type",
	"developer_activity",
	"monthly_commits",
	"monthly_prs_merged",
	"contributor_monthly_activity",
	"repository_monthly_activity",
	"developer_locations",
	"developers_by_chain",
}

func (s *DashboardStore) CommitsByDevType(ctx context.Context) ([]model.DevTypeRow, error) {
	return s.devTypeRows(ctx, "commits_by_dev_type")
}

func (s *DashboardStore) DeveloperActivity(ctx context.Context) ([]model.DevTypeRow, error) {
	return s.devTypeRows(ctx, "developer_activity")
}

func (s *DashboardStore) devTypeRows(ctx context.Context, table string) ([]model.DevTypeRow, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("id", "date", "full_time", "part_time", "on_time").
		From(table).
		OrderBy("date ASC"),
		"reading "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DevTypeRow{}
	for rows.Next() {
		var r model.DevTypeRow
		if err := rows.Scan(&r.ID, &r.Date, &r.FullTime, &r.PartTime, &r.OnTime); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s: %w", table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return out, nil
}

func (s *DashboardStore) MonthlyCommits(ctx context.Context, scope repository.DashboardScope) ([]model.MonthlyCountRow, error) {
	return s.monthlyCounts(ctx, "monthly_commits", "commits", scope)
}

func (s *DashboardStore) MonthlyPRsMerged(ctx context.Context, scope repository.DashboardScope) ([]model.MonthlyCountRow, error) {
	return s.monthlyCounts(ctx, "monthly_prs_merged", "merged", scope)
}

// monthlyCounts returns the stored rows of table for the repositories in
// scope, oldest date first and in insertion order within a date. Rows are
// not summed: the KPI calculation totals each period itself. An empty scope
// returns no rows without running a query.
func (s *DashboardStore) monthlyCounts(ctx context.Context, table, column string, scope repository.DashboardScope) ([]model.MonthlyCountRow, error) {
	if scope.Empty() {
		return []model.MonthlyCountRow{}, nil
	}
	b := s.db.builder.
		Select("id", "date", "repository_id", column).
		From(table).
		OrderBy("date ASC", "rowid ASC")
	if scope.Scoped {
		b = b.Where(sq.Eq{"repository_id": scope.RepositoryIDs})
	}

	rows, err := s.db.query(ctx, b, "reading "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MonthlyCountRow{}
	for rows.Next() {
		var r model.MonthlyCountRow
		if err := rows.Scan(&r.ID, &r.Date, &r.RepositoryID, &r.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s: %w", table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return out, nil
}

// MonthlyActiveDevelopers sums contributor activity per month across every
// contributor.
func (s *DashboardStore) MonthlyActiveDevelopers(ctx context.Context) ([]model.ActivityRow, error) {
	return s.contributorActivity(ctx, nil)
}

// ContributorActivity sums activity per month for the given contributors.
// No ids means no rows.
func (s *DashboardStore) ContributorActivity(ctx context.Context, contributorIDs []string) ([]model.ActivityRow, error) {
	if len(contributorIDs) == 0 {
		return []model.ActivityRow{}, nil
	}
	return s.contributorActivity(ctx, contributorIDs)
}

func (s *DashboardStore) contributorActivity(ctx context.Context, ids []string) ([]model.ActivityRow, error) {
	b := s.db.builder.
		Select(
			"month",
			"COALESCE(SUM(commits), 0)",
			"COALESCE(SUM(pull_requests), 0)",
			"SUM(CASE WHEN commits + pull_requests > 0 THEN 1 ELSE 0 END)",
		).
		From("contributor_monthly_activity").
		GroupBy("month").
		OrderBy("month ASC")
	if ids != nil {
		b = b.Where(sq.Eq{"contributor_id": ids})
	}
	return s.activityRows(ctx, b, "reading contributor activity")
}

// ContributorRetention reports, per month, how many of the given contributors
// were active and how many had been active at least once up to that month.
func (s *DashboardStore) ContributorRetention(ctx context.Context, contributorIDs []string) ([]model.RetentionRow, error) {
	if len(contributorIDs) == 0 {
		return []model.RetentionRow{}, nil
	}
	args := make([]interface{}, len(contributorIDs))
	for i, id := range contributorIDs {
		args[i] = id
	}
	total := sq.Alias(sq.Expr(
		"SELECT COUNT(DISTINCT f.contributor_id) FROM contributor_monthly_activity f"+
			" WHERE f.contributor_id IN ("+sq.Placeholders(len(args))+")"+
			" AND f.commits + f.pull_requests > 0 AND f.month <= m.month", args...), "total")

	b := s.db.builder.
		Select("m.month", "SUM(CASE WHEN m.commits + m.pull_requests > 0 THEN 1 ELSE 0 END)").
		Column(total).
		From("contributor_monthly_activity m").
		Where(sq.Eq{"m.contributor_id": contributorIDs}).
		GroupBy("m.month").
		OrderBy("m.month ASC")
	return s.retentionRows(ctx, b, "reading contributor retention")
}

// RepositoryActivity sums activity per month for the given repositories.
func (s *DashboardStore) RepositoryActivity(ctx context.Context, repositoryIDs []string) ([]model.ActivityRow, error) {
	if len(repositoryIDs) == 0 {
		return []model.ActivityRow{}, nil
	}
	b := s.db.builder.
		Select(
			"month",
			"COALESCE(SUM(commits), 0)",
			"COALESCE(SUM(pull_requests), 0)",
			"COALESCE(SUM(active_contributors), 0)",
		).
		From("repository_monthly_activity").
		Where(sq.Eq{"repository_id": repositoryIDs}).
		GroupBy("month").
		OrderBy("month ASC")
	return s.activityRows(ctx, b, "reading repository activity")
}

// RepositoryRetention sums the precomputed active/total contributor counts
// per month for the given repositories.
func (s *DashboardStore) RepositoryRetention(ctx context.Context, repositoryIDs []string) ([]model.RetentionRow, error) {
	if len(repositoryIDs) == 0 {
		return []model.RetentionRow{}, nil
	}
	b := s.db.builder.
		Select("month", "COALESCE(SUM(active_contributors), 0)", "COALESCE(SUM(total_contributors), 0)").
		From("repository_monthly_activity").
		Where(sq.Eq{"repository_id": repositoryIDs}).
		GroupBy("month").
		OrderBy("month ASC")
	return s.retentionRows(ctx, b, "reading repository retention")
}

func (s *DashboardStore) activityRows(ctx context.Context, b sq.SelectBuilder, what string) ([]model.ActivityRow, error) {
	rows, err := s.db.query(ctx, b, what)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ActivityRow{}
	for rows.Next() {
		var r model.ActivityRow
		if err := rows.Scan(&r.Month, &r.Commits, &r.PullRequests, &r.ActiveDevelopers); err != nil {
			return nil, fmt.Errorf("sqlite: scanning activity: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", what, err)
	}
	return out, nil
}

func (s *DashboardStore) retentionRows(ctx context.Context, b sq.SelectBuilder, what string) ([]model.RetentionRow, error) {
	rows, err := s.db.query(ctx, b, what)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RetentionRow{}
	for rows.Next() {
		var r model.RetentionRow
		if err := rows.Scan(&r.Month, &r.Active, &r.Total); err != nil {
			return nil, fmt.Errorf("sqlite: scanning retention: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", what, err)
	}
	return out, nil
}

// DeveloperLocations returns every location row, largest first.
func (s *DashboardStore) DeveloperLocations(ctx context.Context) ([]model.LocationRow, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("id", "country", "city", "latitude", "longitude", "developers").
		From("developer_locations").
		OrderBy("developers DESC", "country ASC", "city ASC"),
		"reading developer locations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LocationRow{}
	for rows.Next() {
		var r model.LocationRow
		if err := rows.Scan(&r.ID, &r.Country, &r.City, &r.Latitude, &r.Longitude, &r.Developers); err != nil {
			return nil, fmt.Errorf("sqlite: scanning developer location: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating developer locations: %w", err)
	}
	return out, nil
}

// DevelopersByCountry totals developer_locations per country, largest first.
func (s *DashboardStore) DevelopersByCountry(ctx context.Context) ([]model.CountryRow, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("country", "COALESCE(SUM(developers), 0) AS total").
		From("developer_locations").
		GroupBy("country").
		OrderBy("total DESC", "country ASC"),
		"reading developers by country")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CountryRow{}
	for rows.Next() {
		var r model.CountryRow
		if err := rows.Scan(&r.Country, &r.Developers); err != nil {
			return nil, fmt.Errorf("sqlite: scanning developers by country: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating developers by country: %w", err)
	}
	return out, nil
}

func (s *DashboardStore) DevelopersByChain(ctx context.Context) ([]model.ChainRow, error) {
	rows, err := s.db.query(ctx, s.db.builder.
		Select("id", "chain", "developers").
		From("developers_by_chain").
		OrderBy("developers DESC", "chain ASC"),
		"reading developers by chain")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ChainRow{}
	for rows.Next() {
		var r model.ChainRow
		if err := rows.Scan(&r.ID, &r.Chain, &r.Developers); err != nil {
			return nil, fmt.Errorf("sqlite: scanning developers by chain: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating developers by chain: %w", err)
	}
	return out, nil
}

// =============================================================================
// Loading
// =============================================================================

// The Insert methods load precomputed rows exactly as given. Rows with an
// empty ID get a fresh xid. The API only reads these tables; package seed
// (cmd/seed) writes them from a JSON fixture.

func (s *DashboardStore) InsertCommitsByDevType(ctx context.Context, rows []model.DevTypeRow) error {
	return s.insertDevTypeRows(ctx, "commits_by_dev_type", rows)
}

func (s *DashboardStore) InsertDeveloperActivity(ctx context.Context, rows []model.DevTypeRow) error {
	return s.insertDevTypeRows(ctx, "developer_activity", rows)
}

func (s *DashboardStore) insertDevTypeRows(ctx context.Context, table string, rows []model.DevTypeRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.Insert(table).Columns("id", "date", "full_time", "part_time", "on_time")
	for _, r := range rows {
		b = b.Values(idOrNew(r.ID), r.Date, r.FullTime, r.PartTime, r.OnTime)
	}
	_, err := s.db.exec(ctx, b, "inserting into "+table)
	return err
}

func (s *DashboardStore) InsertMonthlyCommits(ctx context.Context, rows []model.MonthlyCountRow) error {
	return s.insertMonthlyCounts(ctx, "monthly_commits", "commits", rows)
}

func (s *DashboardStore) InsertMonthlyPRsMerged(ctx context.Context, rows []model.MonthlyCountRow) error {
	return s.insertMonthlyCounts(ctx, "monthly_prs_merged", "merged", rows)
}

func (s *DashboardStore) insertMonthlyCounts(ctx context.Context, table, column string, rows []model.MonthlyCountRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.Insert(table).Columns("id", "date", "repository_id", column)
	for _, r := range rows {
		b = b.Values(idOrNew(r.ID), r.Date, r.RepositoryID, r.Count)
	}
	_, err := s.db.exec(ctx, b, "inserting into "+table)
	return err
}

func (s *DashboardStore) InsertContributorActivity(ctx context.Context, rows []model.ContributorActivityRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.
		Insert("contributor_monthly_activity").
		Columns("contributor_id", "month", "commits", "pull_requests")
	for _, r := range rows {
		b = b.Values(r.ContributorID, r.Month, r.Commits, r.PullRequests)
	}
	_, err := s.db.exec(ctx, b, "inserting contributor activity")
	return err
}

func (s *DashboardStore) InsertRepositoryActivity(ctx context.Context, rows []model.RepositoryActivityRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.
		Insert("repository_monthly_activity").
		Columns("repository_id", "month", "commits", "pull_requests", "active_contributors", "total_contributors")
	for _, r := range rows {
		b = b.Values(r.RepositoryID, r.Month, r.Commits, r.PullRequests, r.ActiveContributors, r.TotalContributors)
	}
	_, err := s.db.exec(ctx, b, "inserting repository activity")
	return err
}

func (s *DashboardStore) InsertDeveloperLocations(ctx context.Context, rows []model.LocationRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.
		Insert("developer_locations").
		Columns("id", "country", "city", "latitude", "longitude", "developers")
	for _, r := range rows {
		b = b.Values(idOrNew(r.ID), r.Country, r.City, r.Latitude, r.Longitude, r.Developers)
	}
	_, err := s.db.exec(ctx, b, "inserting developer locations")
	return err
}

func (s *DashboardStore) InsertDevelopersByChain(ctx context.Context, rows []model.ChainRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := s.db.builder.Insert("developers_by_chain").Columns("id", "chain", "developers")
	for _, r := range rows {
		b = b.Values(idOrNew(r.ID), r.Chain, r.Developers)
	}
	_, err := s.db.exec(ctx, b, "inserting developers by chain")
	return err
}

// ClearAggregates deletes every row of every aggregate table.
func (s *DashboardStore) ClearAggregates(ctx context.Context) error {
	for _, table := range aggregateTables {
		if _, err := s.db.exec(ctx, s.db.builder.Delete(table), "clearing "+table); err != nil {
			return err
		}
	}
	return nil
}

func idOrNew(id string) string {
	if id == "" {
		return xid.New().String()
	}
	return id
}
