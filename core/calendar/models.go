package calendar

import (
	"time"

	"github.com/sacelhq/sacel/core"
)

// EventType classifies a calendar event.
type EventType string

const (
	EventTypeAssignment    EventType = "assignment"
	EventTypeExam          EventType = "exam"
	EventTypeClass         EventType = "class"
	EventTypeMeeting       EventType = "meeting"
	EventTypeHoliday       EventType = "holiday"
	EventTypePersonal      EventType = "personal"
	EventTypeSchoolEvent   EventType = "school_event"
	EventTypeParentMeeting EventType = "parent_meeting"
)

var EventTypes = []EventType{
	EventTypeAssignment, EventTypeExam, EventTypeClass, EventTypeMeeting,
	EventTypeHoliday, EventTypePersonal, EventTypeSchoolEvent, EventTypeParentMeeting,
}

func (t EventType) Valid() bool {
	for _, et := range EventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// EventPriority ranks how pressing an event is.
type EventPriority string

const (
	PriorityLow    EventPriority = "low"
	PriorityNormal EventPriority = "normal"
	PriorityHigh   EventPriority = "high"
	PriorityUrgent EventPriority = "urgent"
)

var EventPriorities = []EventPriority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p EventPriority) Valid() bool {
	for _, ep := range EventPriorities {
		if p == ep {
			return true
		}
	}
	return false
}

// EventStatus is the confirmation state of an event.
type EventStatus string

const (
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCancelled EventStatus = "cancelled"
)

var EventStatuses = []EventStatus{StatusConfirmed, StatusTentative, StatusCancelled}

func (s EventStatus) Valid() bool {
	for _, es := range EventStatuses {
		if s == es {
			return true
		}
	}
	return false
}

// Visibility controls who may see an event.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

var Visibilities = []Visibility{VisibilityPublic, VisibilityPrivate, VisibilityShared}

func (v Visibility) Valid() bool {
	for _, vis := range Visibilities {
		if v == vis {
			return true
		}
	}
	return false
}

// ReminderType is the channel a reminder is dispatched on.
type ReminderType string

const (
	ReminderEmail        ReminderType = "email"
	ReminderNotification ReminderType = "notification"
	ReminderSMS          ReminderType = "sms"
	ReminderPush         ReminderType = "push"
)

var ReminderTypes = []ReminderType{ReminderEmail, ReminderNotification, ReminderSMS, ReminderPush}

func (t ReminderType) Valid() bool {
	for _, rt := range ReminderTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// RSVP is an attendee's response state. Attendees start out pending and,
// once they respond, never go back to pending; re-responding overwrites.
type RSVP string

const (
	RSVPPending   RSVP = "pending"
	RSVPAccepted  RSVP = "accepted"
	RSVPDeclined  RSVP = "declined"
	RSVPTentative RSVP = "tentative"
)

// Responses a user may submit; pending is not one of them.
var RSVPResponses = []RSVP{RSVPAccepted, RSVPDeclined, RSVPTentative}

func (r RSVP) ValidResponse() bool {
	for _, resp := range RSVPResponses {
		if r == resp {
			return true
		}
	}
	return false
}

// AttendeeRole distinguishes organizers from regular and optional attendees.
type AttendeeRole string

const (
	AttendeeOrganizer AttendeeRole = "organizer"
	AttendeeRegular   AttendeeRole = "attendee"
	AttendeeOptional  AttendeeRole = "optional"
)

var AttendeeRoles = []AttendeeRole{AttendeeOrganizer, AttendeeRegular, AttendeeOptional}

func (r AttendeeRole) Valid() bool {
	for _, ar := range AttendeeRoles {
		if r == ar {
			return true
		}
	}
	return false
}

// RecurrenceType is the step unit of a recurrence rule.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

var RecurrenceTypes = []RecurrenceType{
	RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom,
}

func (t RecurrenceType) Valid() bool {
	for _, rt := range RecurrenceTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// Recurrence describes how a template event repeats. It is a structured
// type throughout the domain; (de)serialization to JSON happens only at the
// persistence edge.
type Recurrence struct {
	Type     RecurrenceType `json:"type" validate:"omitempty,recurrencetype"`
	Interval int            `json:"interval,omitempty" validate:"omitempty,min=1"`
	Count    int            `json:"count,omitempty" validate:"omitempty,min=1"`
	Until    *core.DateTime `json:"until,omitempty"`
}

// None reports whether the rule denotes no repetition at all.
func (r *Recurrence) None() bool {
	return r == nil || r.Type == "" || r.Type == RecurrenceNone
}

// Event is a calendar item with a time interval and owner. An event whose
// Recurrence is set and not "none" is a template: expansion materializes
// child instances that reference it via ParentEventID.
type Event struct {
	ID            string                 `json:"id"`
	CreatorID     string                 `json:"creator_id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	Start         time.Time              `json:"start_datetime"` // UTC
	End           *time.Time             `json:"end_datetime"`   // UTC; nil = open-ended
	Type          EventType              `json:"event_type"`
	Priority      EventPriority          `json:"priority"`
	Location      string                 `json:"location,omitempty"`
	IsAllDay      bool                   `json:"is_all_day"`
	Recurrence    *Recurrence            `json:"recurrence_rule,omitempty"`
	ParentEventID string                 `json:"parent_event_id,omitempty"`
	Timezone      string                 `json:"timezone,omitempty"` // advisory only; never alters comparisons
	Status        EventStatus            `json:"status"`
	Visibility    Visibility             `json:"visibility"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"` // UTC
	UpdatedAt     time.Time              `json:"updated_at"` // UTC
}

// Duration returns the event interval length, or 0 when open-ended.
func (e Event) Duration() time.Duration {
	if e.End == nil {
		return 0
	}
	return e.End.Sub(e.Start)
}

// IsTemplate reports whether this event generates recurring instances.
func (e Event) IsTemplate() bool {
	return !e.Recurrence.None()
}

// EventAttendee is a user invited to an event, unique per (event, user).
type EventAttendee struct {
	ID          int          `json:"id"`
	EventID     string       `json:"event_id"`
	UserID      string       `json:"user_id"`
	Status      RSVP         `json:"status"`
	Role        AttendeeRole `json:"role"`
	InvitedAt   time.Time    `json:"invited_at"`             // UTC
	RespondedAt *time.Time   `json:"responded_at,omitempty"` // UTC; nil until first response
	Notes       string       `json:"notes,omitempty"`
}

// EventReminder schedules a notification a fixed offset before its event
// starts. UserID empty means it applies to all attendees / the creator.
type EventReminder struct {
	ID            string       `json:"id"`
	EventID       string       `json:"event_id"`
	UserID        string       `json:"user_id,omitempty"`
	Type          ReminderType `json:"reminder_type"`
	MinutesBefore int          `json:"minutes_before"`
	IsActive      bool         `json:"is_active"`
	SentAt        *time.Time   `json:"sent_at,omitempty"` // UTC; nil until dispatched
	CreatedAt     time.Time    `json:"created_at"`        // UTC
}

// DueReminder is a reminder whose fire window has arrived, joined with the
// event fields needed to dispatch it. UserID is the resolved recipient:
// the reminder's own user when scoped, the event creator otherwise.
type DueReminder struct {
	ReminderID    string       `json:"reminder_id"`
	EventID       string       `json:"event_id"`
	EventTitle    string       `json:"event_title"`
	EventStart    time.Time    `json:"event_start"`
	Type          ReminderType `json:"reminder_type"`
	MinutesBefore int          `json:"minutes_before"`
	UserID        string       `json:"user_id"`
}
