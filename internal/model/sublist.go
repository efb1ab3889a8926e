package model

import "time"

// ContributorSublist is a named, ordered list of contributor ids stored as an
// embedded JSON array rather than a join table.
type ContributorSublist struct {
	ID             string    `json:"id"             db:"id"`
	Name           string    `json:"name"           db:"name"`
	Description    string    `json:"description"    db:"description"`
	ContributorIDs []string  `json:"contributorIds" db:"contributor_ids"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// RepositorySublist is the repository counterpart of ContributorSublist.
type RepositorySublist struct {
	ID            string    `json:"id"            db:"id"`
	Name          string    `json:"name"          db:"name"`
	Description   string    `json:"description"   db:"description"`
	RepositoryIDs []string  `json:"repositoryIds" db:"repository_ids"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// SublistPatch is shared by both sublist kinds. A non-nil Members replaces the list.
type SublistPatch struct {
	Name        *string
	Description *string
	Members     []string
}
