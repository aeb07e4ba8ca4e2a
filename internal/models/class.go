package models

import "time"

// Class is a teaching group for one term of an academic year.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Term         string    `db:"term" json:"term"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	ClassCode    string    `db:"class_code" json:"class_code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with its head count.
type ClassDetail struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	AcademicYear string
	Term         string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ClassSubject links a subject to a class.
type ClassSubject struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
