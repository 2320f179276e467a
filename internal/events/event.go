package events

import "time"

// DefaultDuration is used for occurrences whose source event has no end time
const DefaultDuration = time.Hour

// Status mirrors the platform's scheduled event status
type Status int

const (
	StatusUnknown Status = iota
	StatusScheduled
	StatusActive
	StatusCompleted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Kind is where an event takes place
type Kind int

const (
	KindExternal Kind = iota
	KindVoice
	KindStage
)

// Event is a scheduled event as reported by the platform
type Event struct {
	ID          string
	GuildID     string
	Name        string
	Description string // empty when the event has no description
	Start       time.Time
	End         *time.Time
	Status      Status
	Kind        Kind
	ChannelID   string // voice or stage channel, empty for external events
	Location    string // external location, empty for channel events
}

// Duration returns the length of the event, DefaultDuration when no end is set
func (e Event) Duration() time.Duration {
	if e.End == nil || !e.End.After(e.Start) {
		return DefaultDuration
	}
	return e.End.Sub(e.Start)
}

// Spec describes an event to be created on the platform
type Spec struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	Kind        Kind
	ChannelID   string
	Location    string
}

// NextOccurrenceSpec builds the creation request for the occurrence that
// follows ev, starting at start and keeping ev's venue and duration.
func NextOccurrenceSpec(ev Event, start time.Time) Spec {
	return Spec{
		Name:        ev.Name,
		Description: ev.Description,
		Start:       start,
		End:         start.Add(ev.Duration()),
		Kind:        ev.Kind,
		ChannelID:   ev.ChannelID,
		Location:    ev.Location,
	}
}
