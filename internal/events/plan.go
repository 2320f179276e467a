package events

import "time"

// RescheduleWindow is how close to its start a recurring event gets cloned
const RescheduleWindow = 5 * time.Minute

// Plan is what a reconciliation pass should do for a single event.
// Both actions may apply to the same event on the same pass.
type Plan struct {
	// Reschedule requests a new occurrence starting at NextStart and the
	// removal of the repeat parameter from the current one.
	Reschedule bool
	NextStart  time.Time

	// Start requests the start notification and the transition to active.
	Start bool

	// RepeatErr is set when the stored cadence could not be used.
	RepeatErr error
}

// Noop reports whether nothing needs to happen
func (p Plan) Noop() bool {
	return !p.Reschedule && !p.Start
}

// PlanFor decides what to do with ev at now given its decoded parameters
func PlanFor(ev Event, params Params, now time.Time) Plan {
	var plan Plan

	if params.Repeat != RepeatNone && ev.Start.Sub(now) < RescheduleWindow {
		next, err := NextOccurrence(params.Repeat, ev.Start)
		if err != nil {
			plan.RepeatErr = err
		} else {
			plan.Reschedule = true
			plan.NextStart = next
		}
	}

	if ev.Status == StatusScheduled && !ev.Start.After(now) {
		plan.Start = true
	}

	return plan
}
