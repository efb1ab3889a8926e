package model

// Dashboard aggregate rows, as stored. These carry db tags only: the service
// layer maps them to camelCase output types before they reach the API.

// DevTypeRow is one row of commits_by_dev_type or developer_activity.
type DevTypeRow struct {
	ID       string `db:"id"`
	Date     string `db:"date"`
	FullTime int64  `db:"full_time"`
	PartTime int64  `db:"part_time"`
	OnTime   int64  `db:"on_time"`
}

// MonthlyCountRow is one stored row of monthly_commits or monthly_prs_merged.
// Rows are read back one for one; several repositories may report the same date.
type MonthlyCountRow struct {
	ID           string `db:"id"`
	Date         string `db:"date"`
	RepositoryID string `db:"repository_id"`
	Count        int64  `db:"count"`
}

// ActivityRow is a per-month activity sum for a set of contributors or repositories.
type ActivityRow struct {
	Month            string `db:"month"`
	Commits          int64  `db:"commits"`
	PullRequests     int64  `db:"pull_requests"`
	ActiveDevelopers int64  `db:"active_developers"`
}

// RetentionRow is a per-month active-vs-total count.
type RetentionRow struct {
	Month  string `db:"month"`
	Active int64  `db:"active"`
	Total  int64  `db:"total"`
}

// ContributorActivityRow is an insertable contributor_monthly_activity row.
type ContributorActivityRow struct {
	ContributorID string `db:"contributor_id"`
	Month         string `db:"month"`
	Commits       int64  `db:"commits"`
	PullRequests  int64  `db:"pull_requests"`
}

// RepositoryActivityRow is an insertable repository_monthly_activity row.
type RepositoryActivityRow struct {
	RepositoryID       string `db:"repository_id"`
	Month              string `db:"month"`
	Commits            int64  `db:"commits"`
	PullRequests       int64  `db:"pull_requests"`
	ActiveContributors int64  `db:"active_contributors"`
	TotalContributors  int64  `db:"total_contributors"`
}

// LocationRow is one row of developer_locations.
type LocationRow struct {
	ID         string  `db:"id"`
	Country    string  `db:"country"`
	City       string  `db:"city"`
	Latitude   float64 `db:"latitude"`
	Longitude  float64 `db:"longitude"`
	Developers int64   `db:"developers"`
}

// ChainRow is one row of developers_by_chain.
type ChainRow struct {
	ID         string `db:"id"`
	Chain      string `db:"chain"`
	Developers int64  `db:"developers"`
}

// CountryRow is developer_locations summed by country.
type CountryRow struct {
	Country    string `db:"country"`
	Developers int64  `db:"developers"`
}
