package model

import "time"

// Contributor types, stored verbatim in contributors.type.
const (
	ContributorFullTime = "full_time"
	ContributorPartTime = "part_time"
	ContributorOnTime   = "on_time"
)

// Contributor is a developer tracked by the dashboard, keyed by GitHub login.
//
// Languages maps a language name to its share of the contributor's commits
// (0..1). It is stored as a JSON object in a TEXT column.
type Contributor struct {
	ID                string             `json:"id"                db:"id"`
	GitHubLogin       string             `json:"githubLogin"       db:"github_login"`
	Name              string             `json:"name"              db:"name"`
	Type              string             `json:"type"              db:"type"`
	TenureMonths      int                `json:"tenureMonths"      db:"tenure_months"`
	TotalCommits      int64              `json:"totalCommits"      db:"total_commits"`
	TotalPullRequests int64              `json:"totalPullRequests" db:"total_pull_requests"`
	LastActiveAt      *time.Time         `json:"lastActiveAt"      db:"last_active_at"`
	Location          string             `json:"location"          db:"location"`
	Country           string             `json:"country"           db:"country"`
	AvatarURL         string             `json:"avatarUrl"         db:"avatar_url"`
	Twitter           string             `json:"twitter"           db:"twitter"`
	LinkedIn          string             `json:"linkedin"          db:"linkedin"`
	Website           string             `json:"website"           db:"website"`
	Languages         map[string]float64 `json:"languages"         db:"languages"`
	CreatedAt         time.Time          `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time          `json:"updatedAt"         db:"updated_at"`
}

// ValidContributorType reports whether t is a known contributor type.
func ValidContributorType(t string) bool {
	switch t {
	case ContributorFullTime, ContributorPartTime, ContributorOnTime:
		return true
	}
	return false
}

// ContributorPatch carries the fields of a partial update. Nil means "leave unchanged".
type ContributorPatch struct {
	Name              *string            `json:"name"`
	Type              *string            `json:"type"`
	TenureMonths      *int               `json:"tenureMonths"`
	TotalCommits      *int64             `json:"totalCommits"`
	TotalPullRequests *int64             `json:"totalPullRequests"`
	LastActiveAt      *time.Time         `json:"lastActiveAt"`
	Location          *string            `json:"location"`
	Country           *string            `json:"country"`
	AvatarURL         *string            `json:"avatarUrl"`
	Twitter           *string            `json:"twitter"`
	LinkedIn          *string            `json:"linkedin"`
	Website           *string            `json:"website"`
	Languages         map[string]float64 `json:"languages"`
}
