package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sacelhq/sacel/core/assignment"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	TeacherID   string    `db:"teacher_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Subject     string    `db:"subject"`
	GradeLevel  int       `db:"grade_level"`
	MaxScore    int       `db:"max_score"`
	DueDate     time.Time `db:"due_date"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row assignmentRow) unpack() assignment.Assignment {
	return assignment.Assignment{
		ID:          row.ID,
		TeacherID:   row.TeacherID,
		Title:       row.Title,
		Description: row.Description,
		Subject:     row.Subject,
		GradeLevel:  row.GradeLevel,
		MaxScore:    row.MaxScore,
		DueDate:     row.DueDate,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) DueForStudent(
	ctx context.Context, grade int, subjects []string, from, to time.Time,
) ([]assignment.Assignment, error) {
	query := `
SELECT * FROM assignment
WHERE is_active AND grade_level = $1
  AND (cardinality($2::text[]) = 0 OR subject = ANY($2))
  AND due_date >= $3 AND due_date <= $4
ORDER BY due_date`
	return repo.selectAssignments(ctx, query, grade, pq.StringArray(subjects), from, to)
}

func (repo *assignmentRepository) DueByTeacher(
	ctx context.Context, teacherID string, from, to time.Time,
) ([]assignment.Assignment, error) {
	query := `
SELECT * FROM assignment
WHERE is_active AND teacher_id = $1
  AND due_date >= $2 AND due_date <= $3
ORDER BY due_date`
	return repo.selectAssignments(ctx, query, teacherID, from, to)
}

func (repo *assignmentRepository) selectAssignments(ctx context.Context, query string, args ...interface{}) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.unpack())
	}
	return assignments, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	var row struct {
		ID           string    `db:"id"`
		AssignmentID string    `db:"assignment_id"`
		StudentID    string    `db:"student_id"`
		Status       string    `db:"status"`
		Score        null.Int  `db:"score"`
		SubmittedAt  null.Time `db:"submitted_at"`
	}
	query := `SELECT * FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "getting submission")
	}

	sub := assignment.Submission{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Status:       row.Status,
	}
	if row.Score.Valid {
		score := row.Score.Int
		sub.Score = &score
	}
	if row.SubmittedAt.Valid {
		at := row.SubmittedAt.Time
		sub.SubmittedAt = &at
	}
	return sub, nil
}

func (repo *assignmentRepository) CountSubmissions(ctx context.Context, assignmentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM submission WHERE assignment_id = $1`
	if err := repo.db.GetContext(ctx, &count, query, assignmentID); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return count, nil
}
