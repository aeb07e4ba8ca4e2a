package models

import "time"

// Subject is a taught subject that can be assigned to classes.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      *string   `db:"code" json:"code,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	ClassID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
