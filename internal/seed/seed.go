// Package seed loads the precomputed dashboard aggregates from a JSON fixture.
//
// WHY A FIXTURE?
// The API never computes aggregates itself. Commit counts, PR counts,
// activity, retention and geography are produced elsewhere (a GitHub
// ingestion job, a notebook, a spreadsheet export) and land in the aggregate
// tables as plain rows. A fixture file is the one shape all of those can
// emit, and it keeps the loader free of any knowledge about where the numbers
// came from.
//
// FIXTURE SHAPE (every key optional):
//
//	{
//	  "commitsByDevType":   [{"date":"2024-01","fullTime":10,"partTime":5,"onTime":2}],
//	  "developerActivity":  [{"date":"2024-01","fullTime":3,"partTime":1,"onTime":0}],
//	  "monthlyCommits":     [{"date":"2024-01","repositoryId":"r1","commits":42}],
//	  "monthlyPrsMerged":   [{"date":"2024-01","repositoryId":"r1","merged":7}],
//	  "contributorActivity":[{"contributorId":"c1","month":"2024-01","commits":5,"pullRequests":1}],
//	  "repositoryActivity": [{"repositoryId":"r1","month":"2024-01","commits":42,"pullRequests":7,
//	                          "activeContributors":3,"totalContributors":4}],
//	  "developerLocations": [{"country":"DE","city":"Berlin","latitude":52.52,"longitude":13.4,"developers":12}],
//	  "developersByChain":  [{"chain":"Ethereum","developers":42}]
//	}
//
// Rows load exactly as given: two monthlyCommits entries for the same date
// stay two rows.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/devrel-dashboard/internal/model"
)

// Loader is the write side of the dashboard store. *sqlite.DashboardStore
// implements it.
type Loader interface {
	InsertCommitsByDevType(ctx context.Context, rows []model.DevTypeRow) error
	InsertDeveloperActivity(ctx context.Context, rows []model.DevTypeRow) error
	InsertMonthlyCommits(ctx context.Context, rows []model.MonthlyCountRow) error
	InsertMonthlyPRsMerged(ctx context.Context, rows []model.MonthlyCountRow) error
	InsertContributorActivity(ctx context.Context, rows []model.ContributorActivityRow) error
	InsertRepositoryActivity(ctx context.Context, rows []model.RepositoryActivityRow) error
	InsertDeveloperLocations(ctx context.Context, rows []model.LocationRow) error
	InsertDevelopersByChain(ctx context.Context, rows []model.ChainRow) error
	ClearAggregates(ctx context.Context) error
}

type Fixture struct {
	CommitsByDevType    []DevTypeRow             `json:"commitsByDevType"`
	DeveloperActivity   []DevTypeRow             `json:"developerActivity"`
	MonthlyCommits      []MonthlyCommitsRow      `json:"monthlyCommits"`
	MonthlyPRsMerged    []MonthlyPRsMergedRow    `json:"monthlyPrsMerged"`
	ContributorActivity []ContributorActivityRow `json:"contributorActivity"`
	RepositoryActivity  []RepositoryActivityRow  `json:"repositoryActivity"`
	DeveloperLocations  []LocationRow            `json:"developerLocations"`
	DevelopersByChain   []ChainRow               `json:"developersByChain"`
}

type DevTypeRow struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	FullTime int64  `json:"fullTime"`
	PartTime int64  `json:"partTime"`
	OnTime   int64  `json:"onTime"`
}

type MonthlyCommitsRow struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	RepositoryID string `json:"repositoryId"`
	Commits      int64  `json:"commits"`
}

type MonthlyPRsMergedRow struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	RepositoryID string `json:"repositoryId"`
	Merged       int64  `json:"merged"`
}

type ContributorActivityRow struct {
	ContributorID string `json:"contributorId"`
	Month         string `json:"month"`
	Commits       int64  `json:"commits"`
	PullRequests  int64  `json:"pullRequests"`
}

type RepositoryActivityRow struct {
	RepositoryID       string `json:"repositoryId"`
	Month              string `json:"month"`
	Commits            int64  `json:"commits"`
	PullRequests       int64  `json:"pullRequests"`
	ActiveContributors int64  `json:"activeContributors"`
	TotalContributors  int64  `json:"totalContributors"`
}

type LocationRow struct {
	ID         string  `json:"id"`
	Country    string  `json:"country"`
	City       string  `json:"city"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Developers int64   `json:"developers"`
}

type ChainRow struct {
	ID         string `json:"id"`
	Chain      string `json:"chain"`
	Developers int64  `json:"developers"`
}

// Decode reads one fixture. Unknown keys are rejected so a typo in a table
// name fails loudly instead of loading nothing.
func Decode(r io.Reader) (*Fixture, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: decoding fixture: %w", err)
	}
	return &f, nil
}

// Counts reports how many rows were loaded per fixture key.
type Counts map[string]int

// Apply writes f through l. With replace, every aggregate table is emptied
// first. Apply is not atomic: a failure part-way leaves the earlier tables
// loaded, and rerunning with replace starts over.
func Apply(ctx context.Context, l Loader, f *Fixture, replace bool, logger *slog.Logger) (Counts, error) {
	if replace {
		if err := l.ClearAggregates(ctx); err != nil {
			return nil, fmt.Errorf("seed: clearing aggregates: %w", err)
		}
		logger.Info("aggregate tables cleared")
	}

	steps := []struct {
		key  string
		n    int
		load func() error
	}{
		{"commitsByDevType", len(f.CommitsByDevType), func() error {
			return l.InsertCommitsByDevType(ctx, devTypeRows(f.CommitsByDevType))
		}},
		{"developerActivity", len(f.DeveloperActivity), func() error {
			return l.InsertDeveloperActivity(ctx, devTypeRows(f.DeveloperActivity))
		}},
		{"monthlyCommits", len(f.MonthlyCommits), func() error {
			rows := make([]model.MonthlyCountRow, 0, len(f.MonthlyCommits))
			for _, r := range f.MonthlyCommits {
				rows = append(rows, model.MonthlyCountRow{ID: r.ID, Date: r.Date, RepositoryID: r.RepositoryID, Count: r.Commits})
			}
			return l.InsertMonthlyCommits(ctx, rows)
		}},
		{"monthlyPrsMerged", len(f.MonthlyPRsMerged), func() error {
			rows := make([]model.MonthlyCountRow, 0, len(f.MonthlyPRsMerged))
			for _, r := range f.MonthlyPRsMerged {
				rows = append(rows, model.MonthlyCountRow{ID: r.ID, Date: r.Date, RepositoryID: r.RepositoryID, Count: r.Merged})
			}
			return l.InsertMonthlyPRsMerged(ctx, rows)
		}},
		{"contributorActivity", len(f.ContributorActivity), func() error {
			rows := make([]model.ContributorActivityRow, 0, len(f.ContributorActivity))
			for _, r := range f.ContributorActivity {
				rows = append(rows, model.ContributorActivityRow(r))
			}
			return l.InsertContributorActivity(ctx, rows)
		}},
		{"repositoryActivity", len(f.RepositoryActivity), func() error {
			rows := make([]model.RepositoryActivityRow, 0, len(f.RepositoryActivity))
			for _, r := range f.RepositoryActivity {
				rows = append(rows, model.RepositoryActivityRow(r))
			}
			return l.InsertRepositoryActivity(ctx, rows)
		}},
		{"developerLocations", len(f.DeveloperLocations), func() error {
			rows := make([]model.LocationRow, 0, len(f.DeveloperLocations))
			for _, r := range f.DeveloperLocations {
				rows = append(rows, model.LocationRow(r))
			}
			return l.InsertDeveloperLocations(ctx, rows)
		}},
		{"developersByChain", len(f.DevelopersByChain), func() error {
			rows := make([]model.ChainRow, 0, len(f.DevelopersByChain))
			for _, r := range f.DevelopersByChain {
				rows = append(rows, model.ChainRow(r))
			}
			return l.InsertDevelopersByChain(ctx, rows)
		}},
	}

	counts := Counts{}
	for _, step := range steps {
		if step.n == 0 {
			continue
		}
		if err := step.load(); err != nil {
			return counts, fmt.Errorf("seed: loading %s: %w", step.key, err)
		}
		counts[step.key] = step.n
		logger.Info("aggregate rows loaded", slog.String("table", step.key), slog.Int("rows", step.n))
	}
	return counts, nil
}

func devTypeRows(in []DevTypeRow) []model.DevTypeRow {
	out := make([]model.DevTypeRow, 0, len(in))
	for _, r := range in {
		out = append(out, model.DevTypeRow(r))
	}
	return out
}
