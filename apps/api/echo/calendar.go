package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/calendar"
	"github.com/sacelhq/sacel/core/user"
)

type calendarApi struct {
	svc      calendar.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := calendarApi{
		svc:      s.deps.CalendarSvc,
		users:    s.deps.UserSvc,
		validate: s.deps.Validate,
	}

	cg := g.Group("/calendar", jwt)

	cg.POST("/events", api.createEvent)
	cg.GET("/events", api.queryEvents)
	cg.GET("/events/upcoming", api.upcomingEvents)
	cg.PUT("/events/:id", api.updateEvent)
	cg.DELETE("/events/:id", api.deleteEvent)
	cg.POST("/events/:id/respond", api.respond)
	cg.POST("/events/:id/attendees", api.addAttendee)

	cg.POST("/reminders", api.createReminder)
	cg.GET("/analytics", api.analytics)

	cg.GET("/schedules/class", api.classSchedule)
	cg.GET("/schedules/exam", api.examSchedules)
	cg.GET("/holidays", api.holidays)

	cg.GET("/availability", api.availability)
	cg.POST("/availability", api.setAvailability)
}

// Handlers

func (api *calendarApi) createEvent(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	created, err := api.svc.CreateEvent(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}

	return ctx.JSON(http.StatusCreated, createEventResponse{
		Success:        true,
		EventID:        created.EventID,
		AttendeesCount: created.AttendeesCount,
		CreatedAt:      core.NewDateTime(created.CreatedAt),
	})
}

func (api *calendarApi) queryEvents(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	page, err := api.svc.Events(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, eventsResponse{
		Success:     true,
		Events:      page.Events,
		StartDate:   page.StartDate,
		EndDate:     page.EndDate,
		TotalEvents: len(page.Events),
	})
}

func (api *calendarApi) upcomingEvents(ctx echo.Context) error {
	days := 7
	if raw := ctx.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "days", Error: "must be an integer"})
		}
		days = parsed
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	page, err := api.svc.UpcomingEvents(ctx.Request().Context(), usr, days)
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	return ctx.JSON(http.StatusOK, upcomingResponse{
		Success: true,
		Events:  page.Events,
		Days:    days,
	})
}

func (api *calendarApi) updateEvent(ctx echo.Context) error {
	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	evt, err := api.svc.UpdateEvent(ctx.Request().Context(), ctx.Param("id"), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, updateEventResponse{
		Success:   true,
		EventID:   evt.ID,
		UpdatedAt: core.NewDateTime(evt.UpdatedAt),
	})
}

func (api *calendarApi) deleteEvent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.DeleteEvent(ctx.Request().Context(), ctx.Param("id"), usr.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Success: true, Message: "event deleted"})
}

func (api *calendarApi) respond(ctx echo.Context) error {
	var data calendar.RSVPRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RSVPRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	att, err := api.svc.RespondToEvent(ctx.Request().Context(), ctx.Param("id"), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "responding to event")
	}
	return ctx.JSON(http.StatusOK, respondResponse{
		Success:     true,
		Response:    att.Status,
		RespondedAt: core.NewDateTime(*att.RespondedAt),
	})
}

func (api *calendarApi) addAttendee(ctx echo.Context) error {
	var data calendar.NewAttendee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	att, err := api.svc.AddAttendee(ctx.Request().Context(), ctx.Param("id"), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding attendee")
	}
	return ctx.JSON(http.StatusCreated, attendeeResponse{
		Success:   true,
		UserID:    att.UserID,
		Status:    att.Status,
		InvitedAt: core.NewDateTime(att.InvitedAt),
	})
}

func (api *calendarApi) createReminder(ctx echo.Context) error {
	var data calendar.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rem, err := api.svc.CreateReminder(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating reminder")
	}
	return ctx.JSON(http.StatusCreated, reminderResponse{
		Success:    true,
		ReminderID: rem.ID,
		CreatedAt:  core.NewDateTime(rem.CreatedAt),
	})
}

func (api *calendarApi) analytics(ctx echo.Context) error {
	timeframe := ctx.QueryParam("timeframe")
	if timeframe == "" {
		timeframe = "30d"
	}
	scope := ctx.QueryParam("scope")

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	analytics, err := api.svc.Analytics(ctx.Request().Context(), usr, timeframe, scope)
	if err != nil {
		return errors.Wrap(err, "computing analytics")
	}
	return ctx.JSON(http.StatusOK, analyticsResponse{Success: true, Analytics: analytics})
}

func (api *calendarApi) classSchedule(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schedules, err := api.svc.ClassSchedule(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying class schedule")
	}
	if schedules == nil {
		schedules = []calendar.ScheduleView{}
	}
	return ctx.JSON(http.StatusOK, schedulesResponse{Success: true, Schedules: schedules})
}

func (api *calendarApi) examSchedules(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	exams, err := api.svc.ExamSchedules(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying exam schedules")
	}
	if exams == nil {
		exams = []calendar.ExamScheduleView{}
	}
	return ctx.JSON(http.StatusOK, examSchedulesResponse{Success: true, ExamSchedules: exams})
}

func (api *calendarApi) holidays(ctx echo.Context) error {
	var year int
	if raw := ctx.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "must be an integer"})
		}
		year = parsed
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	holidays, err := api.svc.Holidays(ctx.Request().Context(), year, ctx.QueryParam("country"))
	if err != nil {
		return errors.Wrap(err, "querying holidays")
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	return ctx.JSON(http.StatusOK, holidaysResponse{Success: true, Holidays: holidays, Year: year})
}

func (api *calendarApi) availability(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	userID := usr.ID
	if other := ctx.QueryParam("user_id"); other != "" {
		userID = other
	}

	slots, err := api.svc.Availability(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying availability")
	}
	if slots == nil {
		slots = []calendar.AvailabilitySlot{}
	}
	return ctx.JSON(http.StatusOK, availabilityResponse{Success: true, Availability: slots})
}

func (api *calendarApi) setAvailability(ctx echo.Context) error {
	var data calendar.NewAvailabilitySlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAvailabilitySlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	slot, err := api.svc.SetAvailability(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "setting availability")
	}
	return ctx.JSON(http.StatusCreated, slotResponse{Success: true, SlotID: slot.ID})
}

// bindQueryFilter reads the calendar window query parameters. Dates use the
// YYYY-MM-DD form; assignments are included unless explicitly turned off.
func bindQueryFilter(ctx echo.Context) (calendar.QueryFilter, error) {
	filter := calendar.QueryFilter{IncludeAssignments: true}

	if raw := ctx.QueryParam("start_date"); raw != "" {
		start, err := core.ParseDate(raw)
		if err != nil {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "start_date", Error: "must be a date in the form 2006-01-02"})
		}
		start = core.StartOfDay(start)
		filter.Start = &start
	}
	if raw := ctx.QueryParam("end_date"); raw != "" {
		end, err := core.ParseDate(raw)
		if err != nil {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "must be a date in the form 2006-01-02"})
		}
		end = core.EndOfDay(end)
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return filter, core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "must not be before start_date"})
	}

	for _, raw := range ctx.QueryParams()["event_types"] {
		typ := calendar.EventType(raw)
		if !typ.Valid() {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "event_types", Error: "unknown event type " + raw})
		}
		filter.Types = append(filter.Types, typ)
	}
	if raw := ctx.QueryParam("include_assignments"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "include_assignments", Error: "must be a boolean"})
		}
		filter.IncludeAssignments = include
	}
	return filter, nil
}

// Responses

type (
	createEventResponse struct {
		Success        bool          `json:"success"`
		EventID        string        `json:"event_id"`
		AttendeesCount int           `json:"attendees_count"`
		CreatedAt      core.DateTime `json:"created_at"`
	}

	eventsResponse struct {
		Success     bool                 `json:"success"`
		Events      []calendar.EventView `json:"events"`
		StartDate   string               `json:"start_date"`
		EndDate     string               `json:"end_date"`
		TotalEvents int                  `json:"total_events"`
	}

	upcomingResponse struct {
		Success bool                 `json:"success"`
		Events  []calendar.EventView `json:"events"`
		Days    int                  `json:"days"`
	}

	updateEventResponse struct {
		Success   bool          `json:"success"`
		EventID   string        `json:"event_id"`
		UpdatedAt core.DateTime `json:"updated_at"`
	}

	messageResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	respondResponse struct {
		Success     bool          `json:"success"`
		Response    calendar.RSVP `json:"response"`
		RespondedAt core.DateTime `json:"responded_at"`
	}

	attendeeResponse struct {
		Success   bool          `json:"success"`
		UserID    string        `json:"user_id"`
		Status    calendar.RSVP `json:"status"`
		InvitedAt core.DateTime `json:"invited_at"`
	}

	reminderResponse struct {
		Success    bool          `json:"success"`
		ReminderID string        `json:"reminder_id"`
		CreatedAt  core.DateTime `json:"created_at"`
	}

	analyticsResponse struct {
		Success   bool               `json:"success"`
		Analytics calendar.Analytics `json:"analytics"`
	}

	schedulesResponse struct {
		Success   bool                    `json:"success"`
		Schedules []calendar.ScheduleView `json:"schedules"`
	}

	examSchedulesResponse struct {
		Success       bool                        `json:"success"`
		ExamSchedules []calendar.ExamScheduleView `json:"exam_schedules"`
	}

	holidaysResponse struct {
		Success  bool               `json:"success"`
		Holidays []calendar.Holiday `json:"holidays"`
		Year     int                `json:"year"`
	}

	availabilityResponse struct {
		Success      bool                        `json:"success"`
		Availability []calendar.AvailabilitySlot `json:"availability"`
	}

	slotResponse struct {
		Success bool   `json:"success"`
		SlotID  string `json:"slot_id"`
	}
)
