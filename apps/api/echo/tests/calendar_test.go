package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sacelhq/sacel/core"
	"github.com/sacelhq/sacel/core/calendar"
)

func Test_calendarApi_authRequired(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/calendar/events"},
		{http.MethodGet, "/v1/calendar/events"},
		{http.MethodGet, "/v1/calendar/events/upcoming"},
		{http.MethodPut, "/v1/calendar/events/lol"},
		{http.MethodDelete, "/v1/calendar/events/lol"},
		{http.MethodPost, "/v1/calendar/events/lol/respond"},
		{http.MethodPost, "/v1/calendar/reminders"},
		{http.MethodGet, "/v1/calendar/analytics"},
		{http.MethodGet, "/v1/calendar/schedules/class"},
		{http.MethodGet, "/v1/calendar/holidays"},
		{http.MethodGet, "/v1/calendar/availability"},
	}
	want := marchallObj(t, errMissingToken)
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req, rec := newRequest(p.method, p.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: want}, rec)
		})
	}
}

// walks an event through its whole life: create with an invitee, query it
// from both sides, respond, then check the RSVP shows up in analytics.
func Test_calendarApi_eventLifecycle(t *testing.T) {
	alice := createUser(t, "cal_alice", nil, 0, nil, "pwd")
	bob := createUser(t, "cal_bob", nil, 0, nil, "pwd")
	aliceToken := getToken(t, alice)
	bobToken := getToken(t, bob)

	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	body := marchallObj(t, map[string]interface{}{
		"title":          "Parents evening",
		"start_datetime": core.NewDateTime(start),
		"end_datetime":   core.NewDateTime(start.Add(2 * time.Hour)),
		"event_type":     "meeting",
		"attendees":      []string{bob.ID},
		"reminders":      []map[string]interface{}{{"reminder_type": "email", "minutes_before": 30}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", aliceToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Success        bool   `json:"success"`
		EventID        string `json:"event_id"`
		AttendeesCount int    `json:"attendees_count"`
	}
	decodeBody(t, rec, &created)
	if !created.Success || created.EventID == "" || created.AttendeesCount != 1 {
		t.Fatalf("unexpected create payload: %s", rec.Body.String())
	}

	// bob sees the event with a pending invitation
	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/events", bobToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Success     bool                 `json:"success"`
		Events      []calendar.EventView `json:"events"`
		TotalEvents int                  `json:"total_events"`
	}
	decodeBody(t, rec, &page)
	if page.TotalEvents != 1 || len(page.Events) != 1 {
		t.Fatalf("want exactly 1 event, got %s", rec.Body.String())
	}
	evt := page.Events[0]
	if evt.ID != created.EventID || evt.IsCreator {
		t.Errorf("unexpected event view: %+v", evt)
	}
	if evt.AttendeeStatus == nil || *evt.AttendeeStatus != calendar.RSVPPending {
		t.Errorf("want pending attendee status, got %+v", evt.AttendeeStatus)
	}

	// responding to an event bob is not invited to
	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/events/no-such-event/respond", bobToken,
		marchallObj(t, map[string]string{"response": "accepted"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, errJSON{Error: "invitation not found"}),
	}, rec)

	// bob accepts
	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/calendar/events/%s/respond", created.EventID), bobToken,
		marchallObj(t, map[string]string{"response": "accepted", "notes": "see you there"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("respond failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var responded struct {
		Success  bool          `json:"success"`
		Response calendar.RSVP `json:"response"`
	}
	decodeBody(t, rec, &responded)
	if responded.Response != calendar.RSVPAccepted {
		t.Errorf("want accepted, got %s", responded.Response)
	}

	// an invalid response value is a 400 with a field error
	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/calendar/events/%s/respond", created.EventID), bobToken,
		marchallObj(t, map[string]string{"response": "maybe"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for bad response value, got %v; body %s", rec.Code, rec.Body.String())
	}

	// double-inviting bob
	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/calendar/events/%s/attendees", created.EventID), aliceToken,
		marchallObj(t, map[string]string{"user_id": bob.ID}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for duplicate invite, got %v; body %s", rec.Code, rec.Body.String())
	}

	// only the creator may update
	req, rec = newAuthRequest(http.MethodPut, "/v1/calendar/events/"+created.EventID, bobToken,
		marchallObj(t, map[string]string{"title": "hijacked"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for foreign update, got %v; body %s", rec.Code, rec.Body.String())
	}

	// bob's acceptance shows in his personal analytics
	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/analytics?timeframe=7d", bobToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var analytics struct {
		Success   bool               `json:"success"`
		Analytics calendar.Analytics `json:"analytics"`
	}
	decodeBody(t, rec, &analytics)
	if got := analytics.Analytics; *got.EventsAttended != 1 || *got.InvitationsReceived != 1 {
		t.Errorf("unexpected analytics: %s", rec.Body.String())
	}

	// delete and verify it is gone
	req, rec = newAuthRequest(http.MethodDelete, "/v1/calendar/events/"+created.EventID, aliceToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/v1/calendar/events/"+created.EventID, aliceToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, errJSON{Error: "event not found"}),
	}, rec)
}

func Test_calendarApi_createEvent_validation(t *testing.T) {
	usr := createUser(t, "cal_victor", nil, 0, nil, "pwd")
	token := getToken(t, usr)

	start := time.Now().UTC().Add(24 * time.Hour)
	tests := []httpTest{
		{
			name: "missing title",
			body: marchallObj(t, map[string]interface{}{"start_datetime": core.NewDateTime(start)}),
		},
		{
			name: "end before start",
			body: marchallObj(t, map[string]interface{}{
				"title":          "Backwards",
				"start_datetime": core.NewDateTime(start),
				"end_datetime":   core.NewDateTime(start.Add(-time.Hour)),
			}),
		},
		{
			name: "bad event type",
			body: marchallObj(t, map[string]interface{}{
				"title":          "Typo",
				"start_datetime": core.NewDateTime(start),
				"event_type":     "party",
			}),
		},
		{
			name: "bad recurrence type",
			body: marchallObj(t, map[string]interface{}{
				"title":          "Typo",
				"start_datetime": core.NewDateTime(start),
				"recurrence":     map[string]interface{}{"type": "fortnightly"},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", token, tt.body)
			app.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("want 400, got %v; body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_calendarApi_upcomingEvents(t *testing.T) {
	usr := createUser(t, "cal_uma", nil, 0, nil, "pwd")
	token := getToken(t, usr)

	start := time.Now().UTC().Add(48 * time.Hour)
	req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", token,
		marchallObj(t, map[string]interface{}{"title": "Soon", "start_datetime": core.NewDateTime(start)}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	tests := []httpTest{
		{name: "default days", path: "/v1/calendar/events/upcoming", wantCode: http.StatusOK},
		{name: "explicit days", path: "/v1/calendar/events/upcoming?days=3", wantCode: http.StatusOK},
		{name: "days too small", path: "/v1/calendar/events/upcoming?days=0", wantCode: http.StatusBadRequest},
		{name: "days too large", path: "/v1/calendar/events/upcoming?days=366", wantCode: http.StatusBadRequest},
		{name: "days not a number", path: "/v1/calendar/events/upcoming?days=lol", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var page struct {
				Success bool                 `json:"success"`
				Events  []calendar.EventView `json:"events"`
				Days    int                  `json:"days"`
			}
			decodeBody(t, rec, &page)
			if len(page.Events) != 1 || page.Events[0].Title != "Soon" {
				t.Errorf("unexpected upcoming payload: %s", rec.Body.String())
			}
		})
	}
}

func Test_calendarApi_reminders(t *testing.T) {
	usr := createUser(t, "cal_rachel", nil, 0, nil, "pwd")
	token := getToken(t, usr)

	start := time.Now().UTC().Add(24 * time.Hour)
	req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", token,
		marchallObj(t, map[string]interface{}{"title": "Remind me", "start_datetime": core.NewDateTime(start)}))
	app.ServeHTTP(rec, req)
	var created struct {
		EventID string `json:"event_id"`
	}
	decodeBody(t, rec, &created)

	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/reminders", token,
		marchallObj(t, map[string]interface{}{"event_id": created.EventID, "reminder_type": "email", "minutes_before": 10}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reminder failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var reminder struct {
		Success    bool   `json:"success"`
		ReminderID string `json:"reminder_id"`
	}
	decodeBody(t, rec, &reminder)
	if !reminder.Success || reminder.ReminderID == "" {
		t.Errorf("unexpected reminder payload: %s", rec.Body.String())
	}

	// unknown event
	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/reminders", token,
		marchallObj(t, map[string]interface{}{"event_id": "no-such-event"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, errJSON{Error: "event not found"}),
	}, rec)
}

func Test_calendarApi_analytics_systemScope(t *testing.T) {
	usr := createUser(t, "cal_norm", nil, 0, nil, "pwd")
	admin := createUser(t, "cal_admin", []string{"admin:"}, 0, nil, "pwd")

	// non-admin is rejected
	req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/analytics?scope=system", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for non-admin system analytics, got %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/analytics?scope=system&timeframe=1y", getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("system analytics failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Analytics calendar.Analytics `json:"analytics"`
	}
	decodeBody(t, rec, &res)
	if res.Analytics.TotalEvents == nil || res.Analytics.AcceptanceRate == nil {
		t.Errorf("missing system counters: %s", rec.Body.String())
	}

	// bad timeframe
	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/analytics?timeframe=2d", getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for bad timeframe, got %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_calendarApi_availability(t *testing.T) {
	usr := createUser(t, "cal_ava", nil, 0, nil, "pwd")
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/availability", token,
		marchallObj(t, map[string]interface{}{
			"day_of_week": 2,
			"start_time":  "14:00",
			"end_time":    "16:00",
			"notes":       "office hours",
		}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("set availability failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// end before start
	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/availability", token,
		marchallObj(t, map[string]interface{}{
			"day_of_week": 2,
			"start_time":  "16:00",
			"end_time":    "14:00",
		}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for inverted window, got %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/availability", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get availability failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Success      bool                        `json:"success"`
		Availability []calendar.AvailabilitySlot `json:"availability"`
	}
	decodeBody(t, rec, &res)
	if len(res.Availability) != 1 || res.Availability[0].Notes != "office hours" {
		t.Errorf("unexpected availability payload: %s", rec.Body.String())
	}
}

func Test_calendarApi_schedulesAndHolidays(t *testing.T) {
	teacher := createUser(t, "cal_teach", []string{"teacher:"}, 0, nil, "pwd")
	student := createUser(t, "cal_stud", []string{"student:"}, 10, []string{"maths"}, "pwd")

	db.AddSchedule(calendar.Schedule{
		ID:         "api_sched1",
		Name:       "Grade 10 Mathematics",
		Subject:    "maths",
		GradeLevel: 10,
		TeacherID:  teacher.ID,
		DayOfWeek:  0,
		StartTime:  core.NewClock(8, 0),
		EndTime:    core.NewClock(9, 0),
		IsActive:   true,
	})
	db.AddExamSchedule(calendar.ExamSchedule{
		ID:          "api_exam1",
		Name:        "Term 4 Maths",
		Subject:     "maths",
		GradeLevel:  10,
		ExamType:    "exam",
		TeacherID:   teacher.ID,
		ExamDate:    time.Date(2026, time.November, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   core.NewClock(9, 0),
		EndTime:     core.NewClock(11, 0),
		IsPublished: true,
	})
	db.AddHoliday(calendar.Holiday{
		Name: "Heritage Day", Date: time.Date(2026, time.September, 24, 0, 0, 0, 0, time.UTC),
		Type: "public", Country: "ZA", IsRecurring: true, IsActive: true,
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/schedules/class", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("class schedule failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var schedules struct {
		Schedules []calendar.ScheduleView `json:"schedules"`
	}
	decodeBody(t, rec, &schedules)
	if len(schedules.Schedules) != 1 || schedules.Schedules[0].Kind != "class" {
		t.Errorf("unexpected schedules payload: %s", rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/schedules/exam", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("exam schedule failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var exams struct {
		ExamSchedules []calendar.ExamScheduleView `json:"exam_schedules"`
	}
	decodeBody(t, rec, &exams)
	if len(exams.ExamSchedules) != 1 || !exams.ExamSchedules[0].IsCreator {
		t.Errorf("unexpected exams payload: %s", rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/holidays?year=2026", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("holidays failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var holidays struct {
		Holidays []calendar.Holiday `json:"holidays"`
		Year     int                `json:"year"`
	}
	decodeBody(t, rec, &holidays)
	if holidays.Year != 2026 || len(holidays.Holidays) != 1 {
		t.Errorf("unexpected holidays payload: %s", rec.Body.String())
	}

	// bad year
	req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/holidays?year=lol", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("want 400 for bad year, got %v; body %s", rec.Code, rec.Body.String())
	}
}
