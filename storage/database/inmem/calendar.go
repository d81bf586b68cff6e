package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/sacelhq/sacel/core/calendar"
)

type calendarRepository struct {
	db *DB
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(db *DB) *calendarRepository {
	return &calendarRepository{db: db}
}

func (repo *calendarRepository) CreateEventGraph(
	_ context.Context,
	events []calendar.Event,
	attendees []calendar.EventAttendee,
	reminders []calendar.EventReminder,
) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range events {
		evt := events[i]
		repo.db.events[evt.ID] = &evt
	}
	for i := range attendees {
		att := attendees[i]
		repo.db.attendeePK++
		att.ID = repo.db.attendeePK
		repo.db.attendees[att.ID] = &att
	}
	for i := range reminders {
		rem := reminders[i]
		repo.db.reminders[rem.ID] = &rem
	}
	return nil
}

func (repo *calendarRepository) GetEvent(_ context.Context, id string) (calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return *evt, nil
	}
	return calendar.Event{}, calendar.ErrEventNotFound
}

func (repo *calendarRepository) UpdateEvent(_ context.Context, evt calendar.Event) (calendar.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.events[evt.ID]; !ok {
		return calendar.Event{}, calendar.ErrEventNotFound
	}
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *calendarRepository) DeleteEvent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.events[id]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(repo.db.events, id)
	// the schema sets children's parent reference to NULL on delete
	for _, evt := range repo.db.events {
		if evt.ParentEventID == id {
			evt.ParentEventID = ""
		}
	}
	for attID, att := range repo.db.attendees {
		if att.EventID == id {
			delete(repo.db.attendees, attID)
		}
	}
	for remID, rem := range repo.db.reminders {
		if rem.EventID == id {
			delete(repo.db.reminders, remID)
		}
	}
	return nil
}

func (repo *calendarRepository) QueryEvents(
	_ context.Context, userID string, from, to time.Time, types []calendar.EventType,
) ([]calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	invited := make(map[string]bool)
	for _, att := range repo.db.attendees {
		if att.UserID == userID {
			invited[att.EventID] = true
		}
	}

	var events []calendar.Event
	for _, evt := range repo.db.events {
		if evt.CreatorID != userID && !invited[evt.ID] {
			continue
		}
		if evt.Start.Before(from) || evt.Start.After(to) {
			continue
		}
		if len(types) > 0 && !typeMatch(types, evt.Type) {
			continue
		}
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func typeMatch(types []calendar.EventType, t calendar.EventType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func (repo *calendarRepository) CountEventsCreatedSince(_ context.Context, userID string, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, evt := range repo.db.events {
		if userID != "" && evt.CreatorID != userID {
			continue
		}
		if !evt.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *calendarRepository) CreateAttendee(_ context.Context, att calendar.EventAttendee) (calendar.EventAttendee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.attendeePK++
	att.ID = repo.db.attendeePK
	repo.db.attendees[att.ID] = &att
	return att, nil
}

func (repo *calendarRepository) GetAttendee(_ context.Context, eventID, userID string) (calendar.EventAttendee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, att := range repo.db.attendees {
		if att.EventID == eventID && att.UserID == userID {
			return *att, nil
		}
	}
	return calendar.EventAttendee{}, calendar.ErrInvitationNotFound
}

func (repo *calendarRepository) AttendeeStatuses(_ context.Context, userID string, eventIDs []string) (map[string]calendar.RSVP, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = true
	}
	statuses := make(map[string]calendar.RSVP)
	for _, att := range repo.db.attendees {
		if att.UserID == userID && wanted[att.EventID] {
			statuses[att.EventID] = att.Status
		}
	}
	return statuses, nil
}

func (repo *calendarRepository) UpdateAttendee(_ context.Context, att calendar.EventAttendee) (calendar.EventAttendee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.attendees[att.ID]; !ok {
		return calendar.EventAttendee{}, calendar.ErrInvitationNotFound
	}
	repo.db.attendees[att.ID] = &att
	return att, nil
}

func (repo *calendarRepository) CountInvitationsSince(_ context.Context, userID string, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, att := range repo.db.attendees {
		if userID != "" && att.UserID != userID {
			continue
		}
		if !att.InvitedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *calendarRepository) CountAcceptedInvitationsSince(_ context.Context, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, att := range repo.db.attendees {
		if att.Status == calendar.RSVPAccepted && !att.InvitedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *calendarRepository) CountAcceptedResponsesSince(_ context.Context, userID string, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, att := range repo.db.attendees {
		if att.UserID != userID || att.Status != calendar.RSVPAccepted || att.RespondedAt == nil {
			continue
		}
		if !att.RespondedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *calendarRepository) CreateReminder(_ context.Context, rem calendar.EventReminder) (calendar.EventReminder, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.reminders[rem.ID] = &rem
	return rem, nil
}

func (repo *calendarRepository) DueReminders(_ context.Context, now time.Time) ([]calendar.DueReminder, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var due []calendar.DueReminder
	for _, rem := range repo.db.reminders {
		if !rem.IsActive || rem.SentAt != nil {
			continue
		}
		evt, ok := repo.db.events[rem.EventID]
		if !ok {
			continue
		}
		windowStart := evt.Start.Add(-time.Duration(rem.MinutesBefore) * time.Minute)
		if evt.Start.After(now) && !now.Before(windowStart) {
			recipient := rem.UserID
			if recipient == "" {
				recipient = evt.CreatorID
			}
			due = append(due, calendar.DueReminder{
				ReminderID:    rem.ID,
				EventID:       evt.ID,
				EventTitle:    evt.Title,
				EventStart:    evt.Start,
				Type:          rem.Type,
				MinutesBefore: rem.MinutesBefore,
				UserID:        recipient,
			})
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ReminderID < due[j].ReminderID })
	return due, nil
}

func (repo *calendarRepository) MarkReminderSent(_ context.Context, reminderID string, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rem, ok := repo.db.reminders[reminderID]
	if !ok || rem.SentAt != nil {
		return nil
	}
	rem.SentAt = &at
	return nil
}

func (repo *calendarRepository) SchedulesByTeacher(_ context.Context, teacherID string) ([]calendar.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var slots []calendar.Schedule
	for _, sched := range repo.db.schedules {
		if sched.IsActive && sched.TeacherID == teacherID {
			slots = append(slots, *sched)
		}
	}
	sortSchedules(slots)
	return slots, nil
}

func (repo *calendarRepository) SchedulesByGrade(_ context.Context, grade int, subjects []string) ([]calendar.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var slots []calendar.Schedule
	for _, sched := range repo.db.schedules {
		if sched.IsActive && sched.GradeLevel == grade && subjectMatch(subjects, sched.Subject) {
			slots = append(slots, *sched)
		}
	}
	sortSchedules(slots)
	return slots, nil
}

func sortSchedules(slots []calendar.Schedule) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
}

func subjectMatch(subjects []string, subject string) bool {
	if len(subjects) == 0 {
		return true
	}
	for _, s := range subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func (repo *calendarRepository) ExamSchedulesByTeacher(_ context.Context, teacherID string) ([]calendar.ExamSchedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var exams []calendar.ExamSchedule
	for _, exam := range repo.db.exams {
		if exam.TeacherID == teacherID {
			exams = append(exams, *exam)
		}
	}
	sortExams(exams)
	return exams, nil
}

func (repo *calendarRepository) ExamSchedulesForStudent(_ context.Context, grade int, subjects []string) ([]calendar.ExamSchedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var exams []calendar.ExamSchedule
	for _, exam := range repo.db.exams {
		if exam.IsPublished && exam.GradeLevel == grade && subjectMatch(subjects, exam.Subject) {
			exams = append(exams, *exam)
		}
	}
	sortExams(exams)
	return exams, nil
}

func sortExams(exams []calendar.ExamSchedule) {
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].ExamDate.Equal(exams[j].ExamDate) {
			return exams[i].ExamDate.Before(exams[j].ExamDate)
		}
		return exams[i].StartTime.Before(exams[j].StartTime)
	})
}

func (repo *calendarRepository) HolidaysByYear(_ context.Context, year int, country string) ([]calendar.Holiday, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var holidays []calendar.Holiday
	for _, hol := range repo.db.holidays {
		if !hol.IsActive || hol.Country != country {
			continue
		}
		if hol.Date.Year() == year || hol.IsRecurring {
			holidays = append(holidays, *hol)
		}
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}

func (repo *calendarRepository) AvailabilityByUser(_ context.Context, userID string) ([]calendar.AvailabilitySlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var slots []calendar.AvailabilitySlot
	for _, slot := range repo.db.availability {
		if slot.UserID == userID {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, nil
}

func (repo *calendarRepository) CreateAvailability(_ context.Context, slot calendar.AvailabilitySlot) (calendar.AvailabilitySlot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.availability[slot.ID] = &slot
	return slot, nil
}
