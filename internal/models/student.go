package models

import "time"

// Student is a learner enrolled in a class and identified publicly by exam number.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ExamNumber string    `db:"exam_number" json:"exam_number"`
	Name       string    `db:"name" json:"name"`
	ClassID    string    `db:"class_id" json:"class_id"`
	PhotoURL   *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with class context.
type StudentDetail struct {
	Student
	ClassName    string `db:"class_name" json:"class_name"`
	Term         string `db:"term" json:"term"`
	AcademicYear string `db:"academic_year" json:"academic_year"`
	ClassCode    string `db:"class_code" json:"class_code"`
}
