package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/bwmarrin/discordgo"
)

// eventURLFormat is the public link to a scheduled event
const eventURLFormat = "https://discord.com/events/%s/%s"

// EventURL returns the link users can open to view an event
func EventURL(guildID, eventID string) string {
	return fmt.Sprintf(eventURLFormat, guildID, eventID)
}

// restClient is the subset of *discordgo.Session used by Discord
type restClient interface {
	GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error)
	GuildScheduledEvent(guildID, eventID string, userCount bool, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventEdit(guildID, eventID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

// Config controls retries of transient failures
type Config struct {
	RetryAttempts int
	Backoff       BackoffFunc
}

// Discord talks to the Discord REST API on behalf of the event monitor and
// the command handlers
type Discord struct {
	client restClient
	config Config
}

// NewDiscord creates a platform adapter over an open or closed session.
// Only REST calls are made, so the gateway does not need to be connected.
func NewDiscord(session *discordgo.Session, config Config) *Discord {
	return newDiscord(session, config)
}

func newDiscord(client restClient, config Config) *Discord {
	if config.Backoff == nil {
		config.Backoff = func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		}
	}
	return &Discord{client: client, config: config}
}

func (d *Discord) call(ctx context.Context, op string, fn func(opts ...discordgo.RequestOption) error) error {
	err := withRetry(ctx, d.config.RetryAttempts, d.config.Backoff, func() error {
		return fn(discordgo.WithContext(ctx))
	})
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	return nil
}

// ScheduledEvents lists a guild's scheduled events in the order Discord returns them
func (d *Discord) ScheduledEvents(ctx context.Context, guildID string) ([]events.Event, error) {
	var list []*discordgo.GuildScheduledEvent
	err := d.call(ctx, "list events", func(opts ...discordgo.RequestOption) error {
		var err error
		list, err = d.client.GuildScheduledEvents(guildID, false, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]events.Event, 0, len(list))
	for _, se := range list {
		if se == nil {
			continue
		}
		ev := toEvent(se)
		if ev.GuildID == "" {
			ev.GuildID = guildID
		}
		out = append(out, ev)
	}
	return out, nil
}

// ScheduledEvent fetches a single event
func (d *Discord) ScheduledEvent(ctx context.Context, guildID, eventID string) (*events.Event, error) {
	var se *discordgo.GuildScheduledEvent
	err := d.call(ctx, "get event", func(opts ...discordgo.RequestOption) error {
		var err error
		se, err = d.client.GuildScheduledEvent(guildID, eventID, false, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	ev := toEvent(se)
	return &ev, nil
}

// CreateEvent creates a new scheduled event from spec
func (d *Discord) CreateEvent(ctx context.Context, guildID string, spec events.Spec) (*events.Event, error) {
	params := toParams(spec)

	var se *discordgo.GuildScheduledEvent
	err := d.call(ctx, "create event", func(opts ...discordgo.RequestOption) error {
		var err error
		se, err = d.client.GuildScheduledEventCreate(guildID, params, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	ev := toEvent(se)
	return &ev, nil
}

// EditDescription replaces an event's description. The request is sent
// raw because GuildScheduledEventParams omits an empty description, which
// would make clearing the last parameter a no-op.
func (d *Discord) EditDescription(ctx context.Context, guildID, eventID, description string) error {
	body := map[string]interface{}{"description": description}
	return d.call(ctx, "edit description", func(opts ...discordgo.RequestOption) error {
		_, err := d.client.RequestWithBucketID(
			http.MethodPatch,
			discordgo.EndpointGuildScheduledEvent(guildID, eventID),
			body,
			discordgo.EndpointGuildScheduledEvents(guildID),
			opts...,
		)
		return err
	})
}

// StartEvent transitions a scheduled event to active
func (d *Discord) StartEvent(ctx context.Context, guildID, eventID string) error {
	params := &discordgo.GuildScheduledEventParams{Status: discordgo.GuildScheduledEventStatusActive}
	return d.call(ctx, "start event", func(opts ...discordgo.RequestOption) error {
		_, err := d.client.GuildScheduledEventEdit(guildID, eventID, params, opts...)
		return err
	})
}

// SendMessage posts content to a channel
func (d *Discord) SendMessage(ctx context.Context, channelID, content string) error {
	return d.call(ctx, "send message", func(opts ...discordgo.RequestOption) error {
		_, err := d.client.ChannelMessageSend(channelID, content, opts...)
		return err
	})
}
