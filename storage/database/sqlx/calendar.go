package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/calendar"
)

// eventRow is the persistence shape of calendar.Event. Recurrence and
// metadata are structured types in the domain; they are (de)serialized to
// JSONB only here at the edge.
type eventRow struct {
	ID            string      `db:"id"`
	CreatorID     string      `db:"creator_id"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	Start         time.Time   `db:"start_datetime"`
	End           null.Time   `db:"end_datetime"`
	Type          string      `db:"event_type"`
	Priority      string      `db:"priority"`
	Location      string      `db:"location"`
	IsAllDay      bool        `db:"is_all_day"`
	Recurrence    null.JSON   `db:"recurrence_rule"`
	ParentEventID null.String `db:"parent_event_id"`
	Timezone      string      `db:"timezone"`
	Status        string      `db:"status"`
	Visibility    string      `db:"visibility"`
	Metadata      null.JSON   `db:"metadata"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func packEvent(evt calendar.Event) (eventRow, error) {
	row := eventRow{
		ID:            evt.ID,
		CreatorID:     evt.CreatorID,
		Title:         evt.Title,
		Description:   evt.Description,
		Start:         evt.Start,
		Type:          string(evt.Type),
		Priority:      string(evt.Priority),
		Location:      evt.Location,
		IsAllDay:      evt.IsAllDay,
		ParentEventID: null.NewString(evt.ParentEventID, evt.ParentEventID != ""),
		Timezone:      evt.Timezone,
		Status:        string(evt.Status),
		Visibility:    string(evt.Visibility),
		CreatedAt:     evt.CreatedAt,
		UpdatedAt:     evt.UpdatedAt,
	}
	if evt.End != nil {
		row.End = null.TimeFrom(*evt.End)
	}
	if evt.Recurrence != nil {
		data, err := json.Marshal(evt.Recurrence)
		if err != nil {
			return eventRow{}, errors.Wrap(err, "encoding recurrence rule")
		}
		row.Recurrence = null.JSONFrom(data)
	}
	if evt.Metadata != nil {
		data, err := json.Marshal(evt.Metadata)
		if err != nil {
			return eventRow{}, errors.Wrap(err, "encoding metadata")
		}
		row.Metadata = null.JSONFrom(data)
	}
	return row, nil
}

func (row eventRow) unpack() (calendar.Event, error) {
	evt := calendar.Event{
		ID:            row.ID,
		CreatorID:     row.CreatorID,
		Title:         row.Title,
		Description:   row.Description,
		Start:         row.Start,
		Type:          calendar.EventType(row.Type),
		Priority:      calendar.EventPriority(row.Priority),
		Location:      row.Location,
		IsAllDay:      row.IsAllDay,
		ParentEventID: row.ParentEventID.String,
		Timezone:      row.Timezone,
		Status:        calendar.EventStatus(row.Status),
		Visibility:    calendar.Visibility(row.Visibility),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.End.Valid {
		end := row.End.Time
		evt.End = &end
	}
	if row.Recurrence.Valid && len(row.Recurrence.JSON) > 0 {
		var rec calendar.Recurrence
		if err := json.Unmarshal(row.Recurrence.JSON, &rec); err != nil {
			return calendar.Event{}, errors.Wrap(err, "decoding recurrence rule")
		}
		evt.Recurrence = &rec
	}
	if row.Metadata.Valid && len(row.Metadata.JSON) > 0 {
		if err := json.Unmarshal(row.Metadata.JSON, &evt.Metadata); err != nil {
			return calendar.Event{}, errors.Wrap(err, "decoding metadata")
		}
	}
	return evt, nil
}

type attendeeRow struct {
	ID          int       `db:"id"`
	EventID     string    `db:"event_id"`
	UserID      string    `db:"user_id"`
	Status      string    `db:"status"`
	Role        string    `db:"role"`
	InvitedAt   time.Time `db:"invited_at"`
	RespondedAt null.Time `db:"responded_at"`
	Notes       string    `db:"notes"`
}

func packAttendee(att calendar.EventAttendee) attendeeRow {
	row := attendeeRow{
		ID:        att.ID,
		EventID:   att.EventID,
		UserID:    att.UserID,
		Status:    string(att.Status),
		Role:      string(att.Role),
		InvitedAt: att.InvitedAt,
		Notes:     att.Notes,
	}
	if att.RespondedAt != nil {
		row.RespondedAt = null.TimeFrom(*att.RespondedAt)
	}
	return row
}

func (row attendeeRow) unpack() calendar.EventAttendee {
	att := calendar.EventAttendee{
		ID:        row.ID,
		EventID:   row.EventID,
		UserID:    row.UserID,
		Status:    calendar.RSVP(row.Status),
		Role:      calendar.AttendeeRole(row.Role),
		InvitedAt: row.InvitedAt,
		Notes:     row.Notes,
	}
	if row.RespondedAt.Valid {
		at := row.RespondedAt.Time
		att.RespondedAt = &at
	}
	return att
}

type reminderRow struct {
	ID            string      `db:"id"`
	EventID       string      `db:"event_id"`
	UserID        null.String `db:"user_id"`
	Type          string      `db:"reminder_type"`
	MinutesBefore int         `db:"minutes_before"`
	IsActive      bool        `db:"is_active"`
	SentAt        null.Time   `db:"sent_at"`
	CreatedAt     time.Time   `db:"created_at"`
}

func packReminder(rem calendar.EventReminder) reminderRow {
	row := reminderRow{
		ID:            rem.ID,
		EventID:       rem.EventID,
		UserID:        null.NewString(rem.UserID, rem.UserID != ""),
		Type:          string(rem.Type),
		MinutesBefore: rem.MinutesBefore,
		IsActive:      rem.IsActive,
		CreatedAt:     rem.CreatedAt,
	}
	if rem.SentAt != nil {
		row.SentAt = null.TimeFrom(*rem.SentAt)
	}
	return row
}

type calendarRepository struct {
	db  *sqlx.DB
	log core.Logger
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(db *sqlx.DB, log core.Logger) *calendarRepository {
	return &calendarRepository{db: db, log: log}
}

const (
	insertEventQuery = `
INSERT INTO event (id, creator_id, title, description, start_datetime, end_datetime, event_type, priority,
                   location, is_all_day, recurrence_rule, parent_event_id, timezone, status, visibility,
                   metadata, created_at, updated_at)
VALUES (:id, :creator_id, :title, :description, :start_datetime, :end_datetime, :event_type, :priority,
        :location, :is_all_day, :recurrence_rule, :parent_event_id, :timezone, :status, :visibility,
        :metadata, :created_at, :updated_at)`

	insertAttendeeQuery = `
INSERT INTO event_attendee (event_id, user_id, status, role, invited_at, responded_at, notes)
VALUES (:event_id, :user_id, :status, :role, :invited_at, :responded_at, :notes)`

	insertReminderQuery = `
INSERT INTO event_reminder (id, event_id, user_id, reminder_type, minutes_before, is_active, sent_at, created_at)
VALUES (:id, :event_id, :user_id, :reminder_type, :minutes_before, :is_active, :sent_at, :created_at)`
)

func (repo *calendarRepository) CreateEventGraph(
	ctx context.Context,
	events []calendar.Event,
	attendees []calendar.EventAttendee,
	reminders []calendar.EventReminder,
) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, evt := range events {
		row, err := packEvent(evt)
		if err != nil {
			return err
		}
		if _, err = tx.NamedExecContext(ctx, insertEventQuery, row); err != nil {
			return errors.Wrap(err, "inserting event")
		}
	}
	for _, att := range attendees {
		if _, err = tx.NamedExecContext(ctx, insertAttendeeQuery, packAttendee(att)); err != nil {
			return errors.Wrap(err, "inserting attendee")
		}
	}
	for _, rem := range reminders {
		if _, err = tx.NamedExecContext(ctx, insertReminderQuery, packReminder(rem)); err != nil {
			return errors.Wrap(err, "inserting reminder")
		}
	}
	return errors.Wrap(tx.Commit(), "committing event graph")
}

func (repo *calendarRepository) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM event WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return calendar.Event{}, calendar.ErrEventNotFound
		}
		return calendar.Event{}, errors.Wrap(err, "getting event")
	}
	return row.unpack()
}

func (repo *calendarRepository) UpdateEvent(ctx context.Context, evt calendar.Event) (calendar.Event, error) {
	row, err := packEvent(evt)
	if err != nil {
		return calendar.Event{}, err
	}
	query := `
UPDATE event
SET title = :title, description = :description, start_datetime = :start_datetime, end_datetime = :end_datetime,
    event_type = :event_type, priority = :priority, location = :location, is_all_day = :is_all_day,
    status = :status, visibility = :visibility, metadata = :metadata, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.Event{}, calendar.ErrEventNotFound
	}
	return evt, nil
}

func (repo *calendarRepository) DeleteEvent(ctx context.Context, id string) error {
	// attendees and reminders cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.ErrEventNotFound
	}
	return nil
}

func (repo *calendarRepository) QueryEvents(
	ctx context.Context, userID string, from, to time.Time, types []calendar.EventType,
) ([]calendar.Event, error) {
	query := `
SELECT e.* FROM event e
LEFT JOIN event_attendee a ON a.event_id = e.id AND a.user_id = $1
WHERE (e.creator_id = $1 OR a.user_id IS NOT NULL)
  AND e.start_datetime >= $2 AND e.start_datetime <= $3`
	args := []interface{}{userID, from, to}
	if len(types) > 0 {
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, string(t))
		}
		query += ` AND e.event_type = ANY($4)`
		args = append(args, pq.StringArray(names))
	}
	query += ` ORDER BY e.start_datetime, e.id`

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, row := range rows {
		evt, err := row.unpack()
		if err != nil {
			// a bad row must not sink the whole window
			repo.log.Warn(fmt.Sprintf("calendar: skipping unreadable event %q: %v", row.ID, err))
			continue
		}
		events = append(events, evt)
	}
	return events, nil
}

func (repo *calendarRepository) CountEventsCreatedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM event WHERE created_at >= $1`
	args := []interface{}{since}
	if userID != "" {
		query += ` AND creator_id = $2`
		args = append(args, userID)
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting events")
	}
	return count, nil
}

func (repo *calendarRepository) CreateAttendee(ctx context.Context, att calendar.EventAttendee) (calendar.EventAttendee, error) {
	query := `
INSERT INTO event_attendee (event_id, user_id, status, role, invited_at, responded_at, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	row := packAttendee(att)
	err := repo.db.QueryRowxContext(ctx, query,
		row.EventID, row.UserID, row.Status, row.Role, row.InvitedAt, row.RespondedAt, row.Notes,
	).Scan(&att.ID)
	if err != nil {
		return calendar.EventAttendee{}, errors.Wrap(err, "creating attendee")
	}
	return att, nil
}

func (repo *calendarRepository) GetAttendee(ctx context.Context, eventID, userID string) (calendar.EventAttendee, error) {
	var row attendeeRow
	query := `SELECT * FROM event_attendee WHERE event_id = $1 AND user_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, eventID, userID); err != nil {
		if err == sql.ErrNoRows {
			return calendar.EventAttendee{}, calendar.ErrInvitationNotFound
		}
		return calendar.EventAttendee{}, errors.Wrap(err, "getting attendee")
	}
	return row.unpack(), nil
}

func (repo *calendarRepository) AttendeeStatuses(ctx context.Context, userID string, eventIDs []string) (map[string]calendar.RSVP, error) {
	var rows []struct {
		EventID string `db:"event_id"`
		Status  string `db:"status"`
	}
	query := `SELECT event_id, status FROM event_attendee WHERE user_id = $1 AND event_id = ANY($2)`
	if err := repo.db.SelectContext(ctx, &rows, query, userID, pq.StringArray(eventIDs)); err != nil {
		return nil, errors.Wrap(err, "loading attendee statuses")
	}
	statuses := make(map[string]calendar.RSVP, len(rows))
	for _, row := range rows {
		statuses[row.EventID] = calendar.RSVP(row.Status)
	}
	return statuses, nil
}

func (repo *calendarRepository) UpdateAttendee(ctx context.Context, att calendar.EventAttendee) (calendar.EventAttendee, error) {
	query := `
UPDATE event_attendee
SET status = :status, responded_at = :responded_at, notes = :notes
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, packAttendee(att))
	if err != nil {
		return calendar.EventAttendee{}, errors.Wrap(err, "updating attendee")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.EventAttendee{}, calendar.ErrInvitationNotFound
	}
	return att, nil
}

func (repo *calendarRepository) CountInvitationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM event_attendee WHERE invited_at >= $1`
	args := []interface{}{since}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting invitations")
	}
	return count, nil
}

func (repo *calendarRepository) CountAcceptedInvitationsSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM event_attendee WHERE status = 'accepted' AND invited_at >= $1`
	var count int
	if err := repo.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, errors.Wrap(err, "counting accepted invitations")
	}
	return count, nil
}

func (repo *calendarRepository) CountAcceptedResponsesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM event_attendee WHERE user_id = $1 AND status = 'accepted' AND responded_at >= $2`
	var count int
	if err := repo.db.GetContext(ctx, &count, query, userID, since); err != nil {
		return 0, errors.Wrap(err, "counting accepted responses")
	}
	return count, nil
}

func (repo *calendarRepository) CreateReminder(ctx context.Context, rem calendar.EventReminder) (calendar.EventReminder, error) {
	if _, err := repo.db.NamedExecContext(ctx, insertReminderQuery, packReminder(rem)); err != nil {
		return calendar.EventReminder{}, errors.Wrap(err, "creating reminder")
	}
	return rem, nil
}

func (repo *calendarRepository) DueReminders(ctx context.Context, now time.Time) ([]calendar.DueReminder, error) {
	var rows []struct {
		ReminderID    string      `db:"reminder_id"`
		EventID       string      `db:"event_id"`
		EventTitle    string      `db:"event_title"`
		EventStart    time.Time   `db:"event_start"`
		Type          string      `db:"reminder_type"`
		MinutesBefore int         `db:"minutes_before"`
		UserID        null.String `db:"user_id"`
	}
	// due when the event starts within the reminder's lead window
	query := `
SELECT r.id                                 AS reminder_id,
       r.event_id                           AS event_id,
       e.title                              AS event_title,
       e.start_datetime                     AS event_start,
       r.reminder_type                      AS reminder_type,
       r.minutes_before                     AS minutes_before,
       COALESCE(r.user_id, e.creator_id)    AS user_id
FROM event_reminder r
         JOIN event e ON e.id = r.event_id
WHERE r.is_active
  AND r.sent_at IS NULL
  AND e.start_datetime > $1
  AND e.start_datetime <= $1 + (r.minutes_before * INTERVAL '1 minute')`
	if err := repo.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, errors.Wrap(err, "querying due reminders")
	}

	due := make([]calendar.DueReminder, 0, len(rows))
	for _, row := range rows {
		due = append(due, calendar.DueReminder{
			ReminderID:    row.ReminderID,
			EventID:       row.EventID,
			EventTitle:    row.EventTitle,
			EventStart:    row.EventStart,
			Type:          calendar.ReminderType(row.Type),
			MinutesBefore: row.MinutesBefore,
			UserID:        row.UserID.String,
		})
	}
	return due, nil
}

func (repo *calendarRepository) MarkReminderSent(ctx context.Context, reminderID string, at time.Time) error {
	// idempotent: already-sent and unknown reminders are a no-op
	query := `UPDATE event_reminder SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL`
	if _, err := repo.db.ExecContext(ctx, query, reminderID, at); err != nil {
		return errors.Wrap(err, "marking reminder sent")
	}
	return nil
}

type scheduleRow struct {
	ID             string        `db:"id"`
	SchoolID       int           `db:"school_id"`
	Name           string        `db:"name"`
	Subject        string        `db:"subject"`
	GradeLevel     int           `db:"grade_level"`
	TeacherID      string        `db:"teacher_id"`
	Room           string        `db:"room"`
	DayOfWeek      int           `db:"day_of_week"`
	StartTime      core.Clock    `db:"start_time"`
	EndTime        core.Clock    `db:"end_time"`
	TermStart      null.Time     `db:"term_start"`
	TermEnd        null.Time     `db:"term_end"`
	IsActive       bool          `db:"is_active"`
	RecurringWeeks pq.Int64Array `db:"recurring_weeks"`
	Notes          string        `db:"notes"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

func (row scheduleRow) unpack() calendar.Schedule {
	sched := calendar.Schedule{
		ID:         row.ID,
		SchoolID:   row.SchoolID,
		Name:       row.Name,
		Subject:    row.Subject,
		GradeLevel: row.GradeLevel,
		TeacherID:  row.TeacherID,
		Room:       row.Room,
		DayOfWeek:  row.DayOfWeek,
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
		IsActive:   row.IsActive,
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.TermStart.Valid {
		start := row.TermStart.Time
		sched.TermStart = &start
	}
	if row.TermEnd.Valid {
		end := row.TermEnd.Time
		sched.TermEnd = &end
	}
	for _, week := range row.RecurringWeeks {
		sched.RecurringWeeks = append(sched.RecurringWeeks, int(week))
	}
	return sched
}

func (repo *calendarRepository) SchedulesByTeacher(ctx context.Context, teacherID string) ([]calendar.Schedule, error) {
	query := `SELECT * FROM schedule WHERE teacher_id = $1 AND is_active ORDER BY day_of_week, start_time`
	return repo.selectSchedules(ctx, query, teacherID)
}

func (repo *calendarRepository) SchedulesByGrade(ctx context.Context, grade int, subjects []string) ([]calendar.Schedule, error) {
	query := `
SELECT * FROM schedule
WHERE grade_level = $1 AND is_active
  AND (cardinality($2::text[]) = 0 OR subject = ANY($2))
ORDER BY day_of_week, start_time`
	return repo.selectSchedules(ctx, query, grade, pq.StringArray(subjects))
}

func (repo *calendarRepository) selectSchedules(ctx context.Context, query string, args ...interface{}) ([]calendar.Schedule, error) {
	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	schedules := make([]calendar.Schedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, row.unpack())
	}
	return schedules, nil
}

type examScheduleRow struct {
	ID              string     `db:"id"`
	SchoolID        int        `db:"school_id"`
	Name            string     `db:"name"`
	Subject         string     `db:"subject"`
	GradeLevel      int        `db:"grade_level"`
	ExamType        string     `db:"exam_type"`
	TeacherID       string     `db:"teacher_id"`
	Room            string     `db:"room"`
	ExamDate        time.Time  `db:"exam_date"`
	StartTime       core.Clock `db:"start_time"`
	EndTime         core.Clock `db:"end_time"`
	DurationMinutes int        `db:"duration_minutes"`
	MaxMarks        int        `db:"max_marks"`
	Instructions    string     `db:"instructions"`
	IsPublished     bool       `db:"is_published"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (row examScheduleRow) unpack() calendar.ExamSchedule {
	return calendar.ExamSchedule{
		ID:              row.ID,
		SchoolID:        row.SchoolID,
		Name:            row.Name,
		Subject:         row.Subject,
		GradeLevel:      row.GradeLevel,
		ExamType:        row.ExamType,
		TeacherID:       row.TeacherID,
		Room:            row.Room,
		ExamDate:        row.ExamDate,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		DurationMinutes: row.DurationMinutes,
		MaxMarks:        row.MaxMarks,
		Instructions:    row.Instructions,
		IsPublished:     row.IsPublished,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func (repo *calendarRepository) ExamSchedulesByTeacher(ctx context.Context, teacherID string) ([]calendar.ExamSchedule, error) {
	query := `SELECT * FROM exam_schedule WHERE teacher_id = $1 ORDER BY exam_date, start_time`
	return repo.selectExamSchedules(ctx, query, teacherID)
}

func (repo *calendarRepository) ExamSchedulesForStudent(ctx context.Context, grade int, subjects []string) ([]calendar.ExamSchedule, error) {
	query := `
SELECT * FROM exam_schedule
WHERE grade_level = $1 AND is_published
  AND (cardinality($2::text[]) = 0 OR subject = ANY($2))
ORDER BY exam_date, start_time`
	return repo.selectExamSchedules(ctx, query, grade, pq.StringArray(subjects))
}

func (repo *calendarRepository) selectExamSchedules(ctx context.Context, query string, args ...interface{}) ([]calendar.ExamSchedule, error) {
	var rows []examScheduleRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying exam schedules")
	}
	exams := make([]calendar.ExamSchedule, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.unpack())
	}
	return exams, nil
}

type holidayRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Date        time.Time `db:"date"`
	Description string    `db:"description"`
	Type        string    `db:"holiday_type"`
	Country     string    `db:"country"`
	Province    string    `db:"province"`
	IsRecurring bool      `db:"is_recurring"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func (repo *calendarRepository) HolidaysByYear(ctx context.Context, year int, country string) ([]calendar.Holiday, error) {
	var rows []holidayRow
	query := `
SELECT * FROM holiday
WHERE is_active AND country = $2
  AND (EXTRACT(YEAR FROM date) = $1 OR is_recurring)
ORDER BY date`
	if err := repo.db.SelectContext(ctx, &rows, query, year, country); err != nil {
		return nil, errors.Wrap(err, "querying holidays")
	}
	holidays := make([]calendar.Holiday, 0, len(rows))
	for _, row := range rows {
		holidays = append(holidays, calendar.Holiday{
			ID:          row.ID,
			Name:        row.Name,
			Date:        row.Date,
			Description: row.Description,
			Type:        row.Type,
			Country:     row.Country,
			Province:    row.Province,
			IsRecurring: row.IsRecurring,
			IsActive:    row.IsActive,
			CreatedAt:   row.CreatedAt,
		})
	}
	return holidays, nil
}

type availabilityRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	DayOfWeek   int        `db:"day_of_week"`
	StartTime   core.Clock `db:"start_time"`
	EndTime     core.Clock `db:"end_time"`
	IsAvailable bool       `db:"is_available"`
	Recurring   bool       `db:"recurring"`
	Notes       string     `db:"notes"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (row availabilityRow) unpack() calendar.AvailabilitySlot {
	return calendar.AvailabilitySlot{
		ID:          row.ID,
		UserID:      row.UserID,
		DayOfWeek:   row.DayOfWeek,
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		IsAvailable: row.IsAvailable,
		Recurring:   row.Recurring,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (repo *calendarRepository) AvailabilityByUser(ctx context.Context, userID string) ([]calendar.AvailabilitySlot, error) {
	var rows []availabilityRow
	query := `SELECT * FROM availability_slot WHERE user_id = $1 ORDER BY day_of_week, start_time`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying availability")
	}
	slots := make([]calendar.AvailabilitySlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.unpack())
	}
	return slots, nil
}

func (repo *calendarRepository) CreateAvailability(ctx context.Context, slot calendar.AvailabilitySlot) (calendar.AvailabilitySlot, error) {
	query := `
INSERT INTO availability_slot (id, user_id, day_of_week, start_time, end_time, is_available, recurring, notes, created_at, updated_at)
VALUES (:id, :user_id, :day_of_week, :start_time, :end_time, :is_available, :recurring, :notes, :created_at, :updated_at)`
	row := availabilityRow{
		ID:          slot.ID,
		UserID:      slot.UserID,
		DayOfWeek:   slot.DayOfWeek,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		IsAvailable: slot.IsAvailable,
		Recurring:   slot.Recurring,
		Notes:       slot.Notes,
		CreatedAt:   slot.CreatedAt,
		UpdatedAt:   slot.UpdatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return calendar.AvailabilitySlot{}, errors.Wrap(err, "creating availability slot")
	}
	return slot, nil
}
