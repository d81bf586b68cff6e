package calendar

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"github.com/sacelhq/sacel/core"
)

// Expander materializes the occurrences of a recurring event template as
// child events. Expansion is bounded both by an instance cap and by a time
// horizon measured from the template start, whichever is hit first.
type Expander struct {
	MaxInstances int
	Horizon      time.Duration
}

func NewExpander(conf *core.Config) *Expander {
	return &Expander{
		MaxInstances: conf.Calendar.MaxRecurrenceInstances,
		Horizon:      conf.Calendar.MaxRecurrenceHorizon,
	}
}

var freqs = map[RecurrenceType]rrule.Frequency{
	RecurrenceDaily:   rrule.DAILY,
	RecurrenceWeekly:  rrule.WEEKLY,
	RecurrenceMonthly: rrule.MONTHLY,
	RecurrenceYearly:  rrule.YEARLY,
	// custom repeats every Interval days
	RecurrenceCustom: rrule.DAILY,
}

// Expand returns the child events of template, in chronological order. The
// template itself is not included. A template without recurrence expands to
// nothing.
func (ex *Expander) Expand(template Event) ([]Event, error) {
	rec := template.Recurrence
	if rec == nil || rec.None() {
		return nil, nil
	}

	freq, ok := freqs[rec.Type]
	if !ok {
		return nil, errors.Errorf("unsupported recurrence type %q", rec.Type)
	}
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}

	horizonEnd := template.Start.Add(ex.Horizon)
	until := horizonEnd
	if rec.Until != nil && rec.Until.Before(until) {
		until = rec.Until.Time
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  template.Start.UTC(),
		Until:    until.UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "building recurrence rule")
	}

	duration := template.Duration()
	var children []Event

	next := rule.Iterator()
	for {
		occ, ok := next()
		if !ok {
			break
		}
		// the iterator yields dtstart itself first; children start after it
		if !occ.After(template.Start) {
			continue
		}
		children = append(children, ex.child(template, occ, duration))
		if rec.Count > 0 && len(children) >= rec.Count {
			break
		}
		if len(children) >= ex.MaxInstances {
			break
		}
	}
	return children, nil
}

func (ex *Expander) child(template Event, start time.Time, duration time.Duration) Event {
	child := template
	child.ID = uuid.New().String()
	child.ParentEventID = template.ID
	child.Start = start.UTC()
	child.Recurrence = nil
	if template.End != nil {
		end := child.Start.Add(duration)
		child.End = &end
	}
	if template.Metadata != nil {
		child.Metadata = make(map[string]interface{}, len(template.Metadata))
		for k, v := range template.Metadata {
			child.Metadata[k] = v
		}
	}
	return child
}
