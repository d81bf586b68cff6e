package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sacelhq/sacel/core"
)

func newTestExpander() *Expander {
	return &Expander{
		MaxInstances: 500,
		Horizon:      2 * 365 * 24 * time.Hour,
	}
}

func recurringTemplate(rec *Recurrence) Event {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	return Event{
		ID:         "tpl",
		Title:      "Weekly Standup",
		Type:       EventTypeMeeting,
		Start:      start,
		End:        &end,
		Recurrence: rec,
	}
}

func TestExpander_Expand_noRecurrence(t *testing.T) {
	ex := newTestExpander()

	children, err := ex.Expand(recurringTemplate(nil))
	require.NoError(t, err)
	assert.Empty(t, children)

	children, err = ex.Expand(recurringTemplate(&Recurrence{Type: RecurrenceNone}))
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestExpander_Expand_count(t *testing.T) {
	ex := newTestExpander()
	template := recurringTemplate(&Recurrence{Type: RecurrenceWeekly, Count: 5})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	require.Len(t, children, 5)

	for i, child := range children {
		wantStart := template.Start.AddDate(0, 0, 7*(i+1))
		assert.Equal(t, wantStart, child.Start, "child %d start", i)
		assert.Equal(t, template.ID, child.ParentEventID)
		assert.Nil(t, child.Recurrence)
		assert.NotEqual(t, template.ID, child.ID)
		require.NotNil(t, child.End)
		assert.Equal(t, time.Hour, child.End.Sub(child.Start))
	}
}

func TestExpander_Expand_until(t *testing.T) {
	ex := newTestExpander()
	until := core.NewDateTime(time.Date(2026, time.March, 6, 23, 59, 59, 0, time.UTC))
	template := recurringTemplate(&Recurrence{Type: RecurrenceDaily, Until: &until})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	// Mar 3, 4, 5, 6; the template occurrence on Mar 2 is not a child
	require.Len(t, children, 4)
	assert.Equal(t, time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC), children[3].Start)
}

func TestExpander_Expand_countWinsOverUntil(t *testing.T) {
	ex := newTestExpander()
	until := core.NewDateTime(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	template := recurringTemplate(&Recurrence{Type: RecurrenceDaily, Count: 3, Until: &until})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	assert.Len(t, children, 3)
}

func TestExpander_Expand_instanceCap(t *testing.T) {
	ex := &Expander{MaxInstances: 10, Horizon: 2 * 365 * 24 * time.Hour}
	template := recurringTemplate(&Recurrence{Type: RecurrenceDaily})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	assert.Len(t, children, 10)
}

func TestExpander_Expand_horizonCap(t *testing.T) {
	ex := &Expander{MaxInstances: 500, Horizon: 21 * 24 * time.Hour}
	template := recurringTemplate(&Recurrence{Type: RecurrenceWeekly})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	// 3 weeks out from the template start
	assert.Len(t, children, 3)
}

func TestExpander_Expand_customInterval(t *testing.T) {
	ex := newTestExpander()
	template := recurringTemplate(&Recurrence{Type: RecurrenceCustom, Interval: 3, Count: 4})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	require.Len(t, children, 4)
	for i, child := range children {
		assert.Equal(t, template.Start.AddDate(0, 0, 3*(i+1)), child.Start, "child %d start", i)
	}
}

func TestExpander_Expand_monthly(t *testing.T) {
	ex := newTestExpander()
	template := recurringTemplate(&Recurrence{Type: RecurrenceMonthly, Count: 2})

	children, err := ex.Expand(template)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC), children[0].Start)
	assert.Equal(t, time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC), children[1].Start)
}

func TestExpander_Expand_openEnded(t *testing.T) {
	ex := newTestExpander()
	template := recurringTemplate(&Recurrence{Type: RecurrenceDaily})
	template.End = nil

	children, err := ex.Expand(template)
	require.NoError(t, err)
	require.NotEmpty(t, children)
	assert.LessOrEqual(t, len(children), ex.MaxInstances)
	for _, child := range children {
		assert.Nil(t, child.End)
	}
}

func TestExpander_Expand_metadataNotShared(t *testing.T) {
	ex := newTestExpander()
	template := recurringTemplate(&Recurrence{Type: RecurrenceDaily, Count: 2})
	template.Metadata = map[string]interface{}{"room": "B12"}

	children, err := ex.Expand(template)
	require.NoError(t, err)
	require.Len(t, children, 2)

	children[0].Metadata["room"] = "C1"
	assert.Equal(t, "B12", template.Metadata["room"])
	assert.Equal(t, "B12", children[1].Metadata["room"])
}
