package calendar

import (
	"github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/sacelhq/sacel/core"
)

var (
	eventTypeTag  = "eventtype"
	eventTypeText = "invalid event type"

	eventPriorityTag  = "eventpriority"
	eventPriorityText = "invalid priority"

	visibilityTag  = "visibility"
	visibilityText = "invalid visibility"

	reminderTypeTag  = "remindertype"
	reminderTypeText = "invalid reminder type"

	recurrenceTypeTag  = "recurrencetype"
	recurrenceTypeText = "invalid recurrence type"

	rsvpTag  = "rsvp"
	rsvpText = "must be one of accepted, declined or tentative"

	attendeeRoleTag  = "attendeerole"
	attendeeRoleText = "invalid attendee role"

	timeframeTag  = "timeframe"
	timeframeText = "must be one of 7d, 30d, 90d or 1y"

	dayOfWeekTag  = "dayofweek"
	dayOfWeekText = "must be between 0 (Monday) and 6 (Sunday)"
)

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	register := func(tag, text string, fn validator.Func) {
		_ = validate.RegisterValidation(tag, fn)
		core.RegisterCustomTranslation(validate, translator, tag, text)
	}

	register(eventTypeTag, eventTypeText, func(fl validator.FieldLevel) bool {
		return EventType(fl.Field().String()).Valid()
	})
	register(eventPriorityTag, eventPriorityText, func(fl validator.FieldLevel) bool {
		return EventPriority(fl.Field().String()).Valid()
	})
	register(visibilityTag, visibilityText, func(fl validator.FieldLevel) bool {
		return Visibility(fl.Field().String()).Valid()
	})
	register(reminderTypeTag, reminderTypeText, func(fl validator.FieldLevel) bool {
		return ReminderType(fl.Field().String()).Valid()
	})
	register(recurrenceTypeTag, recurrenceTypeText, func(fl validator.FieldLevel) bool {
		return RecurrenceType(fl.Field().String()).Valid()
	})
	register(rsvpTag, rsvpText, func(fl validator.FieldLevel) bool {
		return RSVP(fl.Field().String()).ValidResponse()
	})
	register(attendeeRoleTag, attendeeRoleText, func(fl validator.FieldLevel) bool {
		return AttendeeRole(fl.Field().String()).Valid()
	})
	register(timeframeTag, timeframeText, func(fl validator.FieldLevel) bool {
		_, ok := Timeframes[fl.Field().String()]
		return ok
	})
	register(dayOfWeekTag, dayOfWeekText, func(fl validator.FieldLevel) bool {
		day := fl.Field().Int()
		return day >= 0 && day <= 6
	})
}
