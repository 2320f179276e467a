package events

import (
	"fmt"
	"strings"
	"time"
)

// Draft is an event being assembled through the create workflow.
// Methods never mutate the receiver; each returns the next state.
type Draft struct {
	Name          string        `json:"name"`
	FreeText      string        `json:"free_text"`
	Start         time.Time     `json:"start"`
	Duration      time.Duration `json:"duration"`
	Repeat        Repeat        `json:"repeat"`
	Kind          Kind          `json:"kind"`
	ChannelID     string        `json:"channel_id,omitempty"`
	Mentions      []Mention     `json:"mentions,omitempty"`
	NotifyChannel string        `json:"notify_channel,omitempty"`
}

// NewDraft validates the form values and returns the initial draft
func NewDraft(name, freeText string, start time.Time, duration time.Duration, repeat Repeat) (Draft, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Draft{}, fmt.Errorf("%w: event name cannot be empty", ErrInvalidArgument)
	}
	if duration <= 0 {
		return Draft{}, fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}
	if !repeat.Valid() {
		return Draft{}, fmt.Errorf("%w: unknown repeat %q", ErrInvalidArgument, string(repeat))
	}
	return Draft{
		Name:     name,
		FreeText: strings.TrimSpace(freeText),
		Start:    start,
		Duration: duration,
		Repeat:   repeat,
		Kind:     KindExternal,
	}, nil
}

// WithChannel attaches the event to a voice or stage channel. An empty
// channel makes the event external again.
func (d Draft) WithChannel(channelID string, kind Kind) Draft {
	if channelID == "" {
		d.ChannelID = ""
		d.Kind = KindExternal
		return d
	}
	d.ChannelID = channelID
	d.Kind = kind
	return d
}

// WithMentions sets who is pinged, and where, when the event starts
func (d Draft) WithMentions(mentions []Mention, notifyChannel string) Draft {
	if len(mentions) == 0 {
		d.Mentions = nil
		d.NotifyChannel = ""
		return d
	}
	d.Mentions = append([]Mention(nil), mentions...)
	d.NotifyChannel = notifyChannel
	return d
}

// Params returns the description parameters the draft encodes to
func (d Draft) Params() Params {
	p := Params{FreeText: d.FreeText, Repeat: d.Repeat}
	if len(d.Mentions) > 0 {
		p.Mentions = append([]Mention(nil), d.Mentions...)
		p.Channel = d.NotifyChannel
	}
	return p
}

// Spec turns the draft into a creation request. External events are placed
// at defaultLocation.
func (d Draft) Spec(defaultLocation string) Spec {
	spec := Spec{
		Name:        d.Name,
		Description: Encode(d.Params()),
		Start:       d.Start,
		End:         d.Start.Add(d.Duration),
		Kind:        d.Kind,
		ChannelID:   d.ChannelID,
	}
	if d.ChannelID == "" {
		spec.Kind = KindExternal
		spec.Location = defaultLocation
	}
	return spec
}
