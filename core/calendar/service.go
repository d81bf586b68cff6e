package calendar

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/assignment"
	"github.com/sacelhq/sacel/core/user"
)

var (
	// errors
	ErrEventNotFound      = errors.New("event not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrReminderNotFound   = errors.New("reminder not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlreadyInvited     = errors.New("user is already invited to this event")
)

// Timeframes maps the analytics window names to their lookback durations.
var Timeframes = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// Analytics scopes.
const (
	ScopePersonal = "personal"
	ScopeSystem   = "system"
)

const escalationWindow = 24 * time.Hour

type (
	// Repository abstracts calendar persistence. An empty userID on the
	// counting methods means "across all users" (system analytics).
	Repository interface {
		// CreateEventGraph persists an event graph atomically: either all
		// rows land or none do.
		CreateEventGraph(ctx context.Context, events []Event, attendees []EventAttendee, reminders []EventReminder) error
		GetEvent(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)
		// DeleteEvent removes the event and cascades to its attendees and
		// reminders.
		DeleteEvent(ctx context.Context, id string) error
		// QueryEvents returns events where userID is the creator or an
		// attendee, with start within [from, to], optionally filtered by type.
		QueryEvents(ctx context.Context, userID string, from, to time.Time, types []EventType) ([]Event, error)
		CountEventsCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)

		CreateAttendee(ctx context.Context, att EventAttendee) (EventAttendee, error)
		GetAttendee(ctx context.Context, eventID, userID string) (EventAttendee, error)
		// AttendeeStatuses returns the user's RSVP status per event id, for
		// the given events; missing entries mean the user is not invited.
		AttendeeStatuses(ctx context.Context, userID string, eventIDs []string) (map[string]RSVP, error)
		UpdateAttendee(ctx context.Context, att EventAttendee) (EventAttendee, error)
		CountInvitationsSince(ctx context.Context, userID string, since time.Time) (int, error)
		// CountAcceptedInvitationsSince counts accepted rows by invitation
		// date; the system acceptance-rate numerator.
		CountAcceptedInvitationsSince(ctx context.Context, since time.Time) (int, error)
		// CountAcceptedResponsesSince counts the user's accepted rows by
		// response date; the personal events-attended counter.
		CountAcceptedResponsesSince(ctx context.Context, userID string, since time.Time) (int, error)

		CreateReminder(ctx context.Context, rem EventReminder) (EventReminder, error)
		// DueReminders returns active unsent reminders whose event start
		// lies in (now, now + minutes_before], with the recipient resolved.
		DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error)
		// MarkReminderSent is idempotent; unknown ids are a no-op.
		MarkReminderSent(ctx context.Context, reminderID string, at time.Time) error

		SchedulesByTeacher(ctx context.Context, teacherID string) ([]Schedule, error)
		SchedulesByGrade(ctx context.Context, grade int, subjects []string) ([]Schedule, error)
		ExamSchedulesByTeacher(ctx context.Context, teacherID string) ([]ExamSchedule, error)
		ExamSchedulesForStudent(ctx context.Context, grade int, subjects []string) ([]ExamSchedule, error)
		HolidaysByYear(ctx context.Context, year int, country string) ([]Holiday, error)
		AvailabilityByUser(ctx context.Context, userID string) ([]AvailabilitySlot, error)
		CreateAvailability(ctx context.Context, slot AvailabilitySlot) (AvailabilitySlot, error)
	}

	ServiceInterface interface {
		CreateEvent(ctx context.Context, creator user.User, ne NewEvent) (CreatedEvent, error)
		Events(ctx context.Context, usr user.User, filter QueryFilter) (EventsPage, error)
		UpcomingEvents(ctx context.Context, usr user.User, days int) (EventsPage, error)
		UpdateEvent(ctx context.Context, eventID, callerID string, ue UpdateEvent) (Event, error)
		DeleteEvent(ctx context.Context, eventID, callerID string) error
		AddAttendee(ctx context.Context, eventID, callerID string, na NewAttendee) (EventAttendee, error)
		RespondToEvent(ctx context.Context, eventID, userID string, rr RSVPRequest) (EventAttendee, error)
		CreateReminder(ctx context.Context, callerID string, nr NewReminder) (EventReminder, error)
		DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error)
		MarkReminderSent(ctx context.Context, reminderID string) error
		Analytics(ctx context.Context, usr user.User, timeframe, scope string) (Analytics, error)
		ClassSchedule(ctx context.Context, usr user.User) ([]ScheduleView, error)
		ExamSchedules(ctx context.Context, usr user.User) ([]ExamScheduleView, error)
		Holidays(ctx context.Context, year int, country string) ([]Holiday, error)
		Availability(ctx context.Context, userID string) ([]AvailabilitySlot, error)
		SetAvailability(ctx context.Context, userID string, ns NewAvailabilitySlot) (AvailabilitySlot, error)
	}

	Service struct {
		repo        Repository
		users       user.Repository
		assignments assignment.Repository
		expander    *Expander
		mail        core.EmailService
		log         core.Logger
		conf        *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	users user.Repository,
	assignments assignment.Repository,
	mail core.EmailService,
	log core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		assignments: assignments,
		expander:    NewExpander(conf),
		mail:        mail,
		log:         log,
		conf:        conf,
	}
}

// CreateEvent persists a new event together with its attendees, reminders
// and materialized recurrence instances as one atomic graph. Invitation
// emails are a best-effort side effect and never fail the creation.
func (svc *Service) CreateEvent(ctx context.Context, creator user.User, ne NewEvent) (CreatedEvent, error) {
	if _, err := svc.users.GetUser(ctx, user.GetFilter{ID: creator.ID}); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return CreatedEvent{}, core.NewValidationError(err, core.FieldError{Field: "creator", Error: errUnknownCreator})
		}
		return CreatedEvent{}, err
	}

	now := time.Now().UTC()
	evt := Event{
		ID:          uuid.New().String(),
		CreatorID:   creator.ID,
		Title:       ne.Title,
		Description: ne.Description,
		Start:       ne.Start.UTC(),
		Type:        ne.Type,
		Priority:    ne.Priority,
		Location:    ne.Location,
		IsAllDay:    ne.IsAllDay,
		Recurrence:  ne.Recurrence,
		Timezone:    ne.Timezone,
		Status:      StatusConfirmed,
		Visibility:  ne.Visibility,
		Metadata:    ne.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ne.End != nil {
		end := ne.End.UTC()
		evt.End = &end
	}
	if evt.Recurrence != nil && evt.Recurrence.None() {
		evt.Recurrence = nil
	}

	events := []Event{evt}
	children, err := svc.expander.Expand(evt)
	if err != nil {
		return CreatedEvent{}, errors.Wrap(err, "expanding recurrence")
	}
	events = append(events, children...)

	invitees, err := svc.resolveAttendees(ctx, evt, ne.Attendees)
	if err != nil {
		return CreatedEvent{}, err
	}
	attendees := make([]EventAttendee, 0, len(invitees))
	for _, invitee := range invitees {
		attendees = append(attendees, EventAttendee{
			EventID:   evt.ID,
			UserID:    invitee.ID,
			Status:    RSVPPending,
			Role:      AttendeeRegular,
			InvitedAt: now,
		})
	}

	reminders := make([]EventReminder, 0, len(ne.Reminders))
	for _, spec := range ne.Reminders {
		reminders = append(reminders, svc.newReminder(evt.ID, "", spec, now))
	}

	if err := svc.repo.CreateEventGraph(ctx, events, attendees, reminders); err != nil {
		return CreatedEvent{}, errors.Wrap(err, "persisting event graph")
	}

	svc.sendInvitations(creator, evt, invitees)

	return CreatedEvent{EventID: evt.ID, AttendeesCount: len(attendees), CreatedAt: now}, nil
}

// resolveAttendees looks up the invited users. Unknown ids are skipped with
// a warning so one stale id cannot sink the whole creation.
func (svc *Service) resolveAttendees(ctx context.Context, evt Event, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := svc.users.GetUsersByID(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolving attendees")
	}
	byID := make(map[string]user.User, len(found))
	for _, usr := range found {
		byID[usr.ID] = usr
	}
	invitees := make([]user.User, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || id == evt.CreatorID {
			continue
		}
		seen[id] = true
		usr, ok := byID[id]
		if !ok {
			svc.log.Warn(fmt.Sprintf("calendar: skipping unknown attendee %q for event %q", id, evt.ID))
			continue
		}
		invitees = append(invitees, usr)
	}
	return invitees, nil
}

func (svc *Service) newReminder(eventID, userID string, spec ReminderSpec, now time.Time) EventReminder {
	minutes := svc.conf.Calendar.DefaultReminderMinutes
	if spec.MinutesBefore != nil {
		minutes = *spec.MinutesBefore
	}
	remType := spec.Type
	if remType == "" {
		remType = ReminderNotification
	}
	return EventReminder{
		ID:            uuid.New().String(),
		EventID:       eventID,
		UserID:        userID,
		Type:          remType,
		MinutesBefore: minutes,
		IsActive:      true,
		CreatedAt:     now,
	}
}

func (svc *Service) sendInvitations(creator user.User, evt Event, invitees []user.User) {
	if len(invitees) == 0 {
		return
	}
	messages := make([]*core.EmailMessage, 0, len(invitees))
	body := fmt.Sprintf(
		"%s invited you to %q on %s.\nRespond at %s/calendar/events/%s.",
		creator.Name, evt.Title, evt.Start.Format("Mon, 02 Jan 2006 15:04"),
		svc.conf.FrontendBaseURL, evt.ID,
	)
	for _, invitee := range invitees {
		messages = append(messages, &core.EmailMessage{
			To:      []mail.Address{{Name: invitee.Name, Address: invitee.Email}},
			Subject: "Invitation: " + evt.Title,
			Body:    body,
		})
	}
	svc.mail.SendMessages(messages...)
}

// Events returns the caller's merged calendar window: stored events where
// the caller is creator or attendee, plus synthetic entries derived from
// assignment due dates. Per-item failures are logged and skipped; the query
// itself never partially fails.
func (svc *Service) Events(ctx context.Context, usr user.User, filter QueryFilter) (EventsPage, error) {
	now := time.Now().UTC()
	from := core.StartOfDay(now.AddDate(0, 0, -30))
	to := core.EndOfDay(now.AddDate(0, 0, 90))
	if filter.Start != nil {
		from = core.StartOfDay(*filter.Start)
	}
	if filter.End != nil {
		to = core.EndOfDay(*filter.End)
	}

	stored, err := svc.repo.QueryEvents(ctx, usr.ID, from, to, filter.Types)
	if err != nil {
		return EventsPage{}, errors.Wrap(err, "querying events")
	}

	var foreign []string
	for _, evt := range stored {
		if evt.CreatorID != usr.ID {
			foreign = append(foreign, evt.ID)
		}
	}
	statuses := map[string]RSVP{}
	if len(foreign) > 0 {
		if statuses, err = svc.repo.AttendeeStatuses(ctx, usr.ID, foreign); err != nil {
			return EventsPage{}, errors.Wrap(err, "loading attendee statuses")
		}
	}

	views := make([]EventView, 0, len(stored))
	for _, evt := range stored {
		views = append(views, storedView(evt, usr.ID, statuses))
	}
	if filter.IncludeAssignments && typeWanted(filter.Types, EventTypeAssignment) {
		views = append(views, svc.assignmentViews(ctx, usr, from, to, now)...)
	}

	sortViews(views)
	return EventsPage{
		Events:    views,
		StartDate: core.FormatDate(from),
		EndDate:   core.FormatDate(to),
	}, nil
}

// UpcomingEvents returns the caller's events over the next days, excluding
// anything that has already started.
func (svc *Service) UpcomingEvents(ctx context.Context, usr user.User, days int) (EventsPage, error) {
	if days < 1 || days > 365 {
		return EventsPage{}, core.NewValidationError(nil,
			core.FieldError{Field: "days", Error: "must be between 1 and 365"})
	}
	now := time.Now().UTC()
	from := now
	to := core.EndOfDay(now.AddDate(0, 0, days))
	page, err := svc.Events(ctx, usr, QueryFilter{Start: &from, End: &to, IncludeAssignments: true})
	if err != nil {
		return EventsPage{}, err
	}
	upcoming := page.Events[:0]
	for _, view := range page.Events {
		if view.Start.After(now) {
			upcoming = append(upcoming, view)
		}
	}
	page.Events = upcoming
	return page, nil
}

func storedView(evt Event, callerID string, statuses map[string]RSVP) EventView {
	view := EventView{
		ID:            evt.ID,
		Title:         evt.Title,
		Description:   evt.Description,
		Start:         core.NewDateTime(evt.Start),
		Type:          evt.Type,
		Priority:      evt.Priority,
		Status:        evt.Status,
		Location:      evt.Location,
		IsAllDay:      evt.IsAllDay,
		CreatorID:     evt.CreatorID,
		IsCreator:     evt.CreatorID == callerID,
		ParentEventID: evt.ParentEventID,
		Recurrence:    evt.Recurrence,
		Metadata:      evt.Metadata,
	}
	view.End = core.NewDateTimePtr(evt.End)
	if !view.IsCreator {
		if status, ok := statuses[evt.ID]; ok {
			view.AttendeeStatus = &status
		}
	}
	return view
}

// assignmentViews derives synthetic calendar entries from assignments due in
// range. Students see their own submission status; teachers see a submission
// count. Synthetic ids are deterministic and never persisted.
func (svc *Service) assignmentViews(ctx context.Context, usr user.User, from, to, now time.Time) []EventView {
	var (
		due []assignment.Assignment
		err error
	)
	switch {
	case usr.IsStudent():
		due, err = svc.assignments.DueForStudent(ctx, usr.Grade, usr.Subjects, from, to)
	case usr.IsTeacher():
		due, err = svc.assignments.DueByTeacher(ctx, usr.ID, from, to)
	default:
		return nil
	}
	if err != nil {
		svc.log.Warn(fmt.Sprintf("calendar: skipping assignment events for user %q: %v", usr.ID, err))
		return nil
	}

	views := make([]EventView, 0, len(due))
	for _, asg := range due {
		view, err := svc.assignmentView(ctx, usr, asg, now)
		if err != nil {
			svc.log.Warn(fmt.Sprintf("calendar: skipping assignment %q: %v", asg.ID, err))
			continue
		}
		views = append(views, view)
	}
	return views
}

func (svc *Service) assignmentView(ctx context.Context, usr user.User, asg assignment.Assignment, now time.Time) (EventView, error) {
	view := EventView{
		ID:          "assignment_" + asg.ID,
		Title:       "Due: " + asg.Title,
		Description: asg.Description,
		Start:       core.NewDateTime(asg.DueDate),
		Type:        EventTypeAssignment,
		Priority:    PriorityNormal,
		IsCreator:   usr.IsTeacher() && asg.TeacherID == usr.ID,
		Metadata: map[string]interface{}{
			"assignment_id": asg.ID,
			"subject":       asg.Subject,
			"max_score":     asg.MaxScore,
		},
		synthetic: true,
	}

	if usr.IsStudent() {
		status := assignment.SubmissionPending
		sub, err := svc.assignments.GetSubmission(ctx, asg.ID, usr.ID)
		switch errors.Cause(err) {
		case nil:
			status = sub.Status
		case assignment.ErrSubmissionNotFound:
		default:
			return EventView{}, err
		}
		view.Metadata["submission_status"] = status
		untilDue := asg.DueDate.Sub(now)
		if status == assignment.SubmissionPending && untilDue > 0 && untilDue <= escalationWindow {
			view.Priority = PriorityHigh
		}
		return view, nil
	}

	count, err := svc.assignments.CountSubmissions(ctx, asg.ID)
	if err != nil {
		return EventView{}, err
	}
	view.Metadata["submission_count"] = count
	return view, nil
}

func typeWanted(types []EventType, want EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// sortViews orders ascending by start; ties put stored events before
// synthetic ones, then fall back to id order, so output is deterministic.
func sortViews(views []EventView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if !a.Start.Equal(b.Start.Time) {
			return a.Start.Before(b.Start.Time)
		}
		if a.synthetic != b.synthetic {
			return !a.synthetic
		}
		return a.ID < b.ID
	})
}

// UpdateEvent applies a partial update. Only the creator may update; the
// start<end invariant is re-checked against the post-update values.
func (svc *Service) UpdateEvent(ctx context.Context, eventID, callerID string, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if evt.CreatorID != callerID {
		return Event{}, errors.Wrap(ErrPermissionDenied, "only the event creator can update it")
	}

	if ue.Title != nil {
		evt.Title = *ue.Title
	}
	if ue.Description != nil {
		evt.Description = *ue.Description
	}
	if ue.Start != nil {
		evt.Start = ue.Start.UTC()
	}
	if ue.End != nil {
		end := ue.End.UTC()
		evt.End = &end
	}
	if ue.Type != nil {
		evt.Type = *ue.Type
	}
	if ue.Priority != nil {
		evt.Priority = *ue.Priority
	}
	if ue.Location != nil {
		evt.Location = *ue.Location
	}
	if evt.End != nil && !evt.End.After(evt.Start) {
		return Event{}, core.NewValidationError(nil,
			core.FieldError{Field: "end_datetime", Error: errEndBeforeStart})
	}

	evt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

// DeleteEvent removes an event and cascades to its attendees and reminders.
// Materialized recurrence children are left in place and remain editable on
// their own.
func (svc *Service) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	evt, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if evt.CreatorID != callerID {
		return errors.Wrap(ErrPermissionDenied, "only the event creator can delete it")
	}
	return svc.repo.DeleteEvent(ctx, eventID)
}

// AddAttendee invites one more user to an existing event. Creator-only;
// inviting an already-invited user fails.
func (svc *Service) AddAttendee(ctx context.Context, eventID, callerID string, na NewAttendee) (EventAttendee, error) {
	evt, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return EventAttendee{}, err
	}
	if evt.CreatorID != callerID {
		return EventAttendee{}, errors.Wrap(ErrPermissionDenied, "only the event creator can invite attendees")
	}

	invitee, err := svc.users.GetUser(ctx, user.GetFilter{ID: na.UserID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return EventAttendee{}, core.NewValidationError(err, core.FieldError{Field: "user_id", Error: errUnknownAttendee})
		}
		return EventAttendee{}, err
	}
	if _, err = svc.repo.GetAttendee(ctx, eventID, na.UserID); err == nil {
		return EventAttendee{}, ErrAlreadyInvited
	} else if errors.Cause(err) != ErrInvitationNotFound {
		return EventAttendee{}, err
	}

	att, err := svc.repo.CreateAttendee(ctx, EventAttendee{
		EventID:   eventID,
		UserID:    na.UserID,
		Status:    RSVPPending,
		Role:      na.Role,
		InvitedAt: time.Now().UTC(),
	})
	if err != nil {
		return EventAttendee{}, err
	}

	if creator, err := svc.users.GetUser(ctx, user.GetFilter{ID: evt.CreatorID}); err == nil {
		svc.sendInvitations(creator, evt, []user.User{invitee})
	}
	return att, nil
}

// RespondToEvent records an RSVP. Re-responding overwrites the previous
// response; an attendee never goes back to pending.
func (svc *Service) RespondToEvent(ctx context.Context, eventID, userID string, rr RSVPRequest) (EventAttendee, error) {
	att, err := svc.repo.GetAttendee(ctx, eventID, userID)
	if err != nil {
		return EventAttendee{}, err
	}
	now := time.Now().UTC()
	att.Status = rr.Response
	att.RespondedAt = &now
	if rr.Notes != "" {
		att.Notes = rr.Notes
	}
	return svc.repo.UpdateAttendee(ctx, att)
}

// CreateReminder attaches a reminder scoped to the caller.
func (svc *Service) CreateReminder(ctx context.Context, callerID string, nr NewReminder) (EventReminder, error) {
	if _, err := svc.repo.GetEvent(ctx, nr.EventID); err != nil {
		return EventReminder{}, err
	}
	rem := svc.newReminder(nr.EventID, callerID, ReminderSpec{Type: nr.Type, MinutesBefore: nr.MinutesBefore}, time.Now().UTC())
	return svc.repo.CreateReminder(ctx, rem)
}

// DueReminders returns reminders whose fire window has arrived. Safe to call
// repeatedly: a reminder marked sent is never reported again.
func (svc *Service) DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	return svc.repo.DueReminders(ctx, now.UTC())
}

// MarkReminderSent flags a reminder as dispatched. Idempotent.
func (svc *Service) MarkReminderSent(ctx context.Context, reminderID string) error {
	return svc.repo.MarkReminderSent(ctx, reminderID, time.Now().UTC())
}

// Analytics aggregates calendar activity since now − timeframe. System scope
// is admin-only.
func (svc *Service) Analytics(ctx context.Context, usr user.User, timeframe, scope string) (Analytics, error) {
	window, ok := Timeframes[timeframe]
	if !ok {
		return Analytics{}, core.NewValidationError(nil,
			core.FieldError{Field: "timeframe", Error: "must be one of 7d, 30d, 90d or 1y"})
	}
	if scope == "" {
		scope = ScopePersonal
	}
	since := time.Now().UTC().Add(-window)
	res := Analytics{Scope: scope, Timeframe: timeframe}

	switch scope {
	case ScopePersonal:
		created, err := svc.repo.CountEventsCreatedSince(ctx, usr.ID, since)
		if err != nil {
			return Analytics{}, err
		}
		attended, err := svc.repo.CountAcceptedResponsesSince(ctx, usr.ID, since)
		if err != nil {
			return Analytics{}, err
		}
		invited, err := svc.repo.CountInvitationsSince(ctx, usr.ID, since)
		if err != nil {
			return Analytics{}, err
		}
		res.EventsCreated = &created
		res.EventsAttended = &attended
		res.InvitationsReceived = &invited

	case ScopeSystem:
		if !usr.IsAdmin() {
			return Analytics{}, errors.Wrap(ErrPermissionDenied, "system analytics are admin-only")
		}
		total, err := svc.repo.CountEventsCreatedSince(ctx, "", since)
		if err != nil {
			return Analytics{}, err
		}
		invitations, err := svc.repo.CountInvitationsSince(ctx, "", since)
		if err != nil {
			return Analytics{}, err
		}
		accepted, err := svc.repo.CountAcceptedInvitationsSince(ctx, since)
		if err != nil {
			return Analytics{}, err
		}
		rate := 0.0
		if invitations > 0 {
			rate = math.Round(float64(accepted)/float64(invitations)*100*100) / 100
		}
		res.TotalEvents = &total
		res.TotalAttendees = &invitations
		res.AcceptanceRate = &rate

	default:
		return Analytics{}, core.NewValidationError(nil,
			core.FieldError{Field: "scope", Error: "must be personal or system"})
	}
	return res, nil
}

// ClassSchedule returns the weekly timetable slots relevant to the caller:
// their own slots for teachers, their grade's slots for students.
func (svc *Service) ClassSchedule(ctx context.Context, usr user.User) ([]ScheduleView, error) {
	var (
		slots []Schedule
		err   error
		kind  string
	)
	switch {
	case usr.IsTeacher():
		slots, err = svc.repo.SchedulesByTeacher(ctx, usr.ID)
		kind = "teaching"
	case usr.IsStudent():
		slots, err = svc.repo.SchedulesByGrade(ctx, usr.Grade, usr.Subjects)
		kind = "class"
	default:
		return nil, errors.Wrap(ErrPermissionDenied, "class schedules are for teachers and students")
	}
	if err != nil {
		return nil, err
	}

	teachers, err := svc.teacherNames(ctx, scheduleTeacherIDs(slots))
	if err != nil {
		return nil, err
	}
	views := make([]ScheduleView, 0, len(slots))
	for _, slot := range slots {
		view := ScheduleView{
			ID:        slot.ID,
			Name:      slot.Name,
			Subject:   slot.Subject,
			Room:      slot.Room,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Kind:      kind,
		}
		if usr.IsTeacher() {
			view.GradeLevel = slot.GradeLevel
		} else {
			view.Teacher = teachers[slot.TeacherID]
		}
		views = append(views, view)
	}
	return views, nil
}

// ExamSchedules returns exam sittings relevant to the caller: everything
// they authored for teachers, published matching exams for students.
func (svc *Service) ExamSchedules(ctx context.Context, usr user.User) ([]ExamScheduleView, error) {
	var (
		exams []ExamSchedule
		err   error
	)
	switch {
	case usr.IsTeacher():
		exams, err = svc.repo.ExamSchedulesByTeacher(ctx, usr.ID)
	case usr.IsStudent():
		exams, err = svc.repo.ExamSchedulesForStudent(ctx, usr.Grade, usr.Subjects)
	default:
		return nil, errors.Wrap(ErrPermissionDenied, "exam schedules are for teachers and students")
	}
	if err != nil {
		return nil, err
	}

	teachers, err := svc.teacherNames(ctx, examTeacherIDs(exams))
	if err != nil {
		return nil, err
	}
	views := make([]ExamScheduleView, 0, len(exams))
	for _, exam := range exams {
		view := ExamScheduleView{
			ID:              exam.ID,
			Name:            exam.Name,
			Subject:         exam.Subject,
			ExamType:        exam.ExamType,
			Room:            exam.Room,
			ExamDate:        core.FormatDate(exam.ExamDate),
			StartTime:       exam.StartTime,
			EndTime:         exam.EndTime,
			DurationMinutes: exam.DurationMinutes,
			MaxMarks:        exam.MaxMarks,
			IsCreator:       usr.IsTeacher() && exam.TeacherID == usr.ID,
		}
		if usr.IsTeacher() {
			view.GradeLevel = exam.GradeLevel
		} else {
			view.Teacher = teachers[exam.TeacherID]
		}
		views = append(views, view)
	}
	return views, nil
}

func (svc *Service) teacherNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	teachers, err := svc.users.GetUsersByID(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolving teachers")
	}
	names := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.Name
	}
	return names, nil
}

func scheduleTeacherIDs(slots []Schedule) []string {
	seen := make(map[string]bool, len(slots))
	var ids []string
	for _, slot := range slots {
		if !seen[slot.TeacherID] {
			seen[slot.TeacherID] = true
			ids = append(ids, slot.TeacherID)
		}
	}
	return ids
}

func examTeacherIDs(exams []ExamSchedule) []string {
	seen := make(map[string]bool, len(exams))
	var ids []string
	for _, exam := range exams {
		if !seen[exam.TeacherID] {
			seen[exam.TeacherID] = true
			ids = append(ids, exam.TeacherID)
		}
	}
	return ids
}

// Holidays lists the active holidays of a year, defaulting to the current
// year and South Africa.
func (svc *Service) Holidays(ctx context.Context, year int, country string) ([]Holiday, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	if country == "" {
		country = "ZA"
	}
	return svc.repo.HolidaysByYear(ctx, year, country)
}

// Availability lists a user's weekly free/busy windows.
func (svc *Service) Availability(ctx context.Context, userID string) ([]AvailabilitySlot, error) {
	return svc.repo.AvailabilityByUser(ctx, userID)
}

// SetAvailability records a new weekly free/busy window for the caller.
func (svc *Service) SetAvailability(ctx context.Context, userID string, ns NewAvailabilitySlot) (AvailabilitySlot, error) {
	now := time.Now().UTC()
	slot := AvailabilitySlot{
		ID:          uuid.New().String(),
		UserID:      userID,
		DayOfWeek:   ns.DayOfWeek,
		StartTime:   ns.StartTime,
		EndTime:     ns.EndTime,
		IsAvailable: true,
		Recurring:   true,
		Notes:       ns.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ns.IsAvailable != nil {
		slot.IsAvailable = *ns.IsAvailable
	}
	if ns.Recurring != nil {
		slot.Recurring = *ns.Recurring
	}
	return svc.repo.CreateAvailability(ctx, slot)
}
