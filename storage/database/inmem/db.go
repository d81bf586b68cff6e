// Package inmemdb is a map-backed store used by tests and local tinkering.
// It implements the same repository interfaces as the sqlx package.
package inmemdb

import (
	"sync"

	"github.com/sacelhq/sacel/core/assignment"
	"github.com/sacelhq/sacel/core/calendar"
	"github.com/sacelhq/sacel/core/user"
)

type (
	DB struct {
		mutex sync.RWMutex

		users        map[string]*user.User
		events       map[string]*calendar.Event
		attendees    map[int]*calendar.EventAttendee
		attendeePK   int
		reminders    map[string]*calendar.EventReminder
		schedules    map[string]*calendar.Schedule
		exams        map[string]*calendar.ExamSchedule
		holidays     map[int]*calendar.Holiday
		holidayPK    int
		availability map[string]*calendar.AvailabilitySlot
		assignments  map[string]*assignment.Assignment
		submissions  map[string]*assignment.Submission
	}
)

func Open() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		events:       make(map[string]*calendar.Event),
		attendees:    make(map[int]*calendar.EventAttendee),
		reminders:    make(map[string]*calendar.EventReminder),
		schedules:    make(map[string]*calendar.Schedule),
		exams:        make(map[string]*calendar.ExamSchedule),
		holidays:     make(map[int]*calendar.Holiday),
		availability: make(map[string]*calendar.AvailabilitySlot),
		assignments:  make(map[string]*assignment.Assignment),
		submissions:  make(map[string]*assignment.Submission),
	}
}

// AddSchedule seeds a timetable slot.
func (db *DB) AddSchedule(sched calendar.Schedule) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.schedules[sched.ID] = &sched
}

// AddExamSchedule seeds an exam sitting.
func (db *DB) AddExamSchedule(exam calendar.ExamSchedule) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.exams[exam.ID] = &exam
}

// AddHoliday seeds a holiday.
func (db *DB) AddHoliday(hol calendar.Holiday) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.holidayPK++
	hol.ID = db.holidayPK
	db.holidays[hol.ID] = &hol
}

// AddAssignment seeds an assignment.
func (db *DB) AddAssignment(asg assignment.Assignment) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.assignments[asg.ID] = &asg
}

// AddSubmission seeds a submission.
func (db *DB) AddSubmission(sub assignment.Submission) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.submissions[sub.AssignmentID+"/"+sub.StudentID] = &sub
}
