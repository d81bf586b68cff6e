package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Submission statuses.
const (
	SubmissionPending   = "pending"
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
	SubmissionLate      = "late"
)

// Assignment is coursework with a due date. The calendar projects active
// assignments as synthetic events; they are never stored as event rows.
type Assignment struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	GradeLevel  int       `json:"grade_level"`
	MaxScore    int       `json:"max_score"`
	DueDate     time.Time `json:"due_date"` // UTC
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is a student's answer to an assignment.
type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	Status       string     `json:"status"`
	Score        *int       `json:"score,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"` // UTC
}

// Repository abstracts assignment persistence.
type Repository interface {
	// DueForStudent returns active assignments matching the student's grade
	// and subjects, due within [from, to].
	DueForStudent(ctx context.Context, grade int, subjects []string, from, to time.Time) ([]Assignment, error)
	// DueByTeacher returns the teacher's active assignments due within [from, to].
	DueByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]Assignment, error)
	// GetSubmission returns a student's submission for an assignment, or
	// ErrSubmissionNotFound.
	GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
	// CountSubmissions returns the number of submissions for an assignment.
	CountSubmissions(ctx context.Context, assignmentID string) (int, error)
}
