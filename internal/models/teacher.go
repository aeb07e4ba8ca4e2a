package models

import "time"

// Teacher is a staff member who records scores. ID matches the identity provider's user id
// so JWT subjects resolve directly to a teacher row.
type Teacher struct {
	ID               string    `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	SubjectSpecialty *string   `db:"subject_specialty" json:"subject_specialty,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherAssignment links a teacher to a subject taught in a class.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignmentDetail enriches assignments with descriptive fields.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}
