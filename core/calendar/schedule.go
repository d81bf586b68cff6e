package calendar

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sacelhq/sacel/core"
)

// Day of week follows the timetable convention: 0=Monday .. 6=Sunday.

// Schedule is a weekly recurring class slot on a school timetable. It
// projects onto the calendar as a weekly virtual event; it is never stored
// as an Event row.
type Schedule struct {
	ID             string     `json:"id"`
	SchoolID       int        `json:"school_id"`
	Name           string     `json:"name"` // e.g. "Grade 10 Mathematics"
	Subject        string     `json:"subject"`
	GradeLevel     int        `json:"grade_level"`
	TeacherID      string     `json:"teacher_id"`
	Room           string     `json:"room,omitempty"`
	DayOfWeek      int        `json:"day_of_week"`
	StartTime      core.Clock `json:"start_time"`
	EndTime        core.Clock `json:"end_time"`
	TermStart      *time.Time `json:"term_start,omitempty"`
	TermEnd        *time.Time `json:"term_end,omitempty"`
	IsActive       bool       `json:"is_active"`
	RecurringWeeks []int      `json:"recurring_weeks,omitempty"` // alternating timetables
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ScheduleView is the role-projected read model: teachers see their own
// slots, students the slots of their grade and subjects.
type ScheduleView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Subject    string     `json:"subject"`
	GradeLevel int        `json:"grade_level,omitempty"`
	Teacher    string     `json:"teacher,omitempty"`
	Room       string     `json:"room,omitempty"`
	DayOfWeek  int        `json:"day_of_week"`
	StartTime  core.Clock `json:"start_time"`
	EndTime    core.Clock `json:"end_time"`
	Kind       string     `json:"type"` // "teaching" or "class"
}

// ExamSchedule is a one-off dated exam sitting.
type ExamSchedule struct {
	ID              string     `json:"id"`
	SchoolID        int        `json:"school_id"`
	Name            string     `json:"name"`
	Subject         string     `json:"subject"`
	GradeLevel      int        `json:"grade_level"`
	ExamType        string     `json:"exam_type"` // test, exam, assessment, practical
	TeacherID       string     `json:"teacher_id"`
	Room            string     `json:"room,omitempty"`
	ExamDate        time.Time  `json:"exam_date"` // UTC date
	StartTime       core.Clock `json:"start_time"`
	EndTime         core.Clock `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	MaxMarks        int        `json:"max_marks"`
	Instructions    string     `json:"instructions,omitempty"`
	IsPublished     bool       `json:"is_published"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ExamScheduleView is the role-projected exam read model.
type ExamScheduleView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Subject         string     `json:"subject"`
	GradeLevel      int        `json:"grade_level,omitempty"`
	ExamType        string     `json:"exam_type"`
	Room            string     `json:"room,omitempty"`
	ExamDate        string     `json:"exam_date"`
	StartTime       core.Clock `json:"start_time"`
	EndTime         core.Clock `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	MaxMarks        int        `json:"max_marks"`
	Teacher         string     `json:"teacher,omitempty"`
	IsCreator       bool       `json:"is_creator"`
}

// Holiday is a named calendar date tagged by country/region. It is used for
// display and filtering only and is never merged into personal event queries.
type Holiday struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"` // UTC date
	Description string    `json:"description,omitempty"`
	Type        string    `json:"holiday_type"` // public, school, religious
	Country     string    `json:"country"`      // ISO country code
	Province    string    `json:"province,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// AvailabilitySlot is a per-user weekly recurring free/busy window. Slots
// are queried independently and never merged into Events.
type AvailabilitySlot struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	DayOfWeek   int        `json:"day_of_week"`
	StartTime   core.Clock `json:"start_time"`
	EndTime     core.Clock `json:"end_time"`
	IsAvailable bool       `json:"is_available"`
	Recurring   bool       `json:"recurring"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewAvailabilitySlot contains information needed to record an availability window.
type NewAvailabilitySlot struct {
	DayOfWeek   int        `json:"day_of_week" validate:"dayofweek"`
	StartTime   core.Clock `json:"start_time"`
	EndTime     core.Clock `json:"end_time"`
	IsAvailable *bool      `json:"is_available"`
	Recurring   *bool      `json:"recurring"`
	Notes       string     `json:"notes"`
}

func (ns *NewAvailabilitySlot) Validate(validate *validator.Validate) error {
	ns.Notes = core.CleanString(ns.Notes)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !ns.StartTime.Before(ns.EndTime) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: errEndBeforeStart})
	}
	return nil
}
