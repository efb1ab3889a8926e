package model

import "time"

// Segment is a user-curated grouping of contributors and repositories.
//
// Membership lives in the segment_contributors and segment_repositories join
// tables; ContributorLogins and RepositoryURLs are populated from them on read.
type Segment struct {
	ID                string    `json:"id"                db:"id"`
	Name              string    `json:"name"              db:"name"`
	Description       string    `json:"description"       db:"description"`
	OwnerID           string    `json:"ownerId"           db:"owner_id"`
	ContributorLogins []string  `json:"contributorLogins"`
	RepositoryURLs    []string  `json:"repositoryUrls"`
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt"         db:"updated_at"`
}

// SegmentPatch carries a partial update. A non-nil slice replaces the whole
// membership list.
type SegmentPatch struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	ContributorLogins []string `json:"contributorLogins"`
	RepositoryURLs    []string `json:"repositoryUrls"`
}
