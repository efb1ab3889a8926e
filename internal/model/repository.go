package model

import "time"

// Repository is a source repository tracked by the dashboard.
type Repository struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	URL       string    `json:"url"       db:"url"`
	Owner     string    `json:"owner"     db:"owner"`
	Language  string    `json:"language"  db:"language"`
	Stars     int64     `json:"stars"     db:"stars"`
	Forks     int64     `json:"forks"     db:"forks"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RepositoryPatch carries the fields of a partial update. Nil means "leave unchanged".
type RepositoryPatch struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Owner    *string `json:"owner"`
	Language *string `json:"language"`
	Stars    *int64  `json:"stars"`
	Forks    *int64  `json:"forks"`
}
