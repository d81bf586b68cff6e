package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/sacelhq/sacel/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) DueForStudent(
	_ context.Context, grade int, subjects []string, from, to time.Time,
) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var due []assignment.Assignment
	for _, asg := range repo.db.assignments {
		if !asg.IsActive || asg.GradeLevel != grade || !subjectMatch(subjects, asg.Subject) {
			continue
		}
		if inRange(asg.DueDate, from, to) {
			due = append(due, *asg)
		}
	}
	sortAssignments(due)
	return due, nil
}

func (repo *assignmentRepository) DueByTeacher(
	_ context.Context, teacherID string, from, to time.Time,
) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var due []assignment.Assignment
	for _, asg := range repo.db.assignments {
		if !asg.IsActive || asg.TeacherID != teacherID {
			continue
		}
		if inRange(asg.DueDate, from, to) {
			due = append(due, *asg)
		}
	}
	sortAssignments(due)
	return due, nil
}

func inRange(at, from, to time.Time) bool {
	return !at.Before(from) && !at.After(to)
}

func sortAssignments(assignments []assignment.Assignment) {
	sort.Slice(assignments, func(i, j int) bool {
		if !assignments[i].DueDate.Equal(assignments[j].DueDate) {
			return assignments[i].DueDate.Before(assignments[j].DueDate)
		}
		return assignments[i].ID < assignments[j].ID
	})
}

func (repo *assignmentRepository) GetSubmission(_ context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.submissions[assignmentID+"/"+studentID]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) CountSubmissions(_ context.Context, assignmentID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}
