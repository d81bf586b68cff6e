package calendar

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sacelhq/sacel/core"
)

const (
	errEndBeforeStart  = "must be after the start time"
	errUnknownCreator  = "unknown user"
	errUnknownAttendee = "unknown attendee"
)

// ReminderSpec describes a reminder attached to an event at creation time.
type ReminderSpec struct {
	Type          ReminderType `json:"reminder_type" validate:"omitempty,remindertype"`
	MinutesBefore *int         `json:"minutes_before" validate:"omitempty,min=0"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description"`
	Start       core.DateTime          `json:"start_datetime" validate:"required"`
	End         *core.DateTime         `json:"end_datetime"`
	Type        EventType              `json:"event_type" validate:"omitempty,eventtype"`
	Priority    EventPriority          `json:"priority" validate:"omitempty,eventpriority"`
	Location    string                 `json:"location"`
	IsAllDay    bool                   `json:"is_all_day"`
	Visibility  Visibility             `json:"visibility" validate:"omitempty,visibility"`
	Attendees   []string               `json:"attendees" validate:"omitempty,dive,required"`
	Recurrence  *Recurrence            `json:"recurrence"`
	Reminders   []ReminderSpec         `json:"reminders" validate:"omitempty,dive"`
	Metadata    map[string]interface{} `json:"metadata"`
	Timezone    string                 `json:"timezone"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Location = core.CleanString(ne.Location)
	if ne.Type == "" {
		ne.Type = EventTypePersonal
	}
	if ne.Priority == "" {
		ne.Priority = PriorityNormal
	}
	if ne.Visibility == "" {
		ne.Visibility = VisibilityPrivate
	}
	if ne.Timezone == "" {
		ne.Timezone = "UTC"
	}

	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.End != nil && !ne.End.After(ne.Start.Time) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_datetime", Error: errEndBeforeStart})
	}
	if ne.Recurrence != nil {
		if err := ne.Recurrence.Validate(validate); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recurrence) Validate(validate *validator.Validate) error {
	if err := validate.Var(string(r.Type), "recurrencetype"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "recurrence.type", Error: "invalid recurrence type"})
	}
	if r.Interval < 0 || r.Count < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "recurrence", Error: "interval and count must not be negative"})
	}
	return nil
}

// UpdateEvent defines what information may be provided to modify an existing
// Event. All fields are optional so clients can send only the fields they
// want changed.
type UpdateEvent struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Start       *core.DateTime `json:"start_datetime"`
	End         *core.DateTime `json:"end_datetime"`
	Type        *EventType     `json:"event_type" validate:"omitempty,eventtype"`
	Priority    *EventPriority `json:"priority" validate:"omitempty,eventpriority"`
	Location    *string        `json:"location"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	if ue.Title != nil {
		*ue.Title = core.CleanString(*ue.Title)
		if *ue.Title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "must not be blank"})
		}
	}
	if ue.Description != nil {
		*ue.Description = core.CleanString(*ue.Description)
	}
	if ue.Location != nil {
		*ue.Location = core.CleanString(*ue.Location)
	}
	return validate.Struct(ue)
}

// RSVPRequest is an attendee's response to an event invitation.
type RSVPRequest struct {
	Response RSVP   `json:"response" validate:"required,rsvp"`
	Notes    string `json:"notes"`
}

func (rr *RSVPRequest) Validate(validate *validator.Validate) error {
	rr.Notes = core.CleanString(rr.Notes)
	return validate.Struct(rr)
}

// NewAttendee invites an additional user to an existing event.
type NewAttendee struct {
	UserID string       `json:"user_id" validate:"required"`
	Role   AttendeeRole `json:"role" validate:"omitempty,attendeerole"`
}

func (na *NewAttendee) Validate(validate *validator.Validate) error {
	if na.Role == "" {
		na.Role = AttendeeRegular
	}
	return validate.Struct(na)
}

// NewReminder contains information needed to attach a reminder to an event.
type NewReminder struct {
	EventID       string       `json:"event_id" validate:"required"`
	Type          ReminderType `json:"reminder_type" validate:"omitempty,remindertype"`
	MinutesBefore *int         `json:"minutes_before" validate:"omitempty,min=0"`
}

func (nr *NewReminder) Validate(validate *validator.Validate) error {
	if nr.Type == "" {
		nr.Type = ReminderNotification
	}
	return validate.Struct(nr)
}

// QueryFilter narrows a calendar window query.
type QueryFilter struct {
	Start              *time.Time
	End                *time.Time
	Types              []EventType
	IncludeAssignments bool
}

// EventView is the read model returned by calendar queries. It covers both
// stored events and synthetic entries projected from assignments; synthetic
// entries carry no row of their own and cannot be mutated.
type EventView struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	Start          core.DateTime          `json:"start_datetime"`
	End            *core.DateTime         `json:"end_datetime,omitempty"`
	Type           EventType              `json:"event_type"`
	Priority       EventPriority          `json:"priority"`
	Status         EventStatus            `json:"status,omitempty"`
	Location       string                 `json:"location,omitempty"`
	IsAllDay       bool                   `json:"is_all_day"`
	CreatorID      string                 `json:"creator_id,omitempty"`
	IsCreator      bool                   `json:"is_creator"`
	AttendeeStatus *RSVP                  `json:"attendee_status,omitempty"`
	ParentEventID  string                 `json:"parent_event_id,omitempty"`
	Recurrence     *Recurrence            `json:"recurrence,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`

	synthetic bool
}

// EventsPage is the payload of a calendar window query.
type EventsPage struct {
	Events    []EventView `json:"events"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
}

// CreatedEvent reports the outcome of an event creation.
type CreatedEvent struct {
	EventID        string    `json:"event_id"`
	AttendeesCount int       `json:"attendees_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Analytics aggregates calendar activity over a timeframe. Personal scope
// fills the per-user counters; system scope (admins only) fills the totals.
type Analytics struct {
	Scope     string `json:"scope"`
	Timeframe string `json:"timeframe"`

	// personal scope
	EventsCreated       *int `json:"events_created,omitempty"`
	EventsAttended      *int `json:"events_attended,omitempty"`
	InvitationsReceived *int `json:"invitations_received,omitempty"`

	// system scope
	TotalEvents    *int     `json:"total_events,omitempty"`
	TotalAttendees *int     `json:"total_attendees,omitempty"`
	AcceptanceRate *float64 `json:"acceptance_rate,omitempty"`
}
