package platform

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a mock implementation of restClient for testing
type mockClient struct {
	events      []*discordgo.GuildScheduledEvent
	created     []*discordgo.GuildScheduledEventParams
	edited      []*discordgo.GuildScheduledEventParams
	messages    map[string][]string
	rawRequests []rawRequest

	// errs are returned, in order, by the next calls before succeeding
	errs  []error
	calls int
}

type rawRequest struct {
	method, url, bucket string
	data                interface{}
}

func newMockClient() *mockClient {
	return &mockClient{messages: make(map[string][]string)}
}

func (m *mockClient) nextErr() error {
	m.calls++
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

func (m *mockClient) GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	return m.events, nil
}

func (m *mockClient) GuildScheduledEvent(guildID, eventID string, userCount bool, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	for _, se := range m.events {
		if se.ID == eventID {
			return se, nil
		}
	}
	return nil, errors.New("unknown event")
}

func (m *mockClient) GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	m.created = append(m.created, event)
	return &discordgo.GuildScheduledEvent{
		ID:                 "new",
		GuildID:            guildID,
		Name:               event.Name,
		Description:        event.Description,
		ScheduledStartTime: *event.ScheduledStartTime,
		ScheduledEndTime:   event.ScheduledEndTime,
		EntityType:         event.EntityType,
		Status:             discordgo.GuildScheduledEventStatusScheduled,
	}, nil
}

func (m *mockClient) GuildScheduledEventEdit(guildID, eventID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	m.edited = append(m.edited, event)
	return &discordgo.GuildScheduledEvent{ID: eventID, GuildID: guildID}, nil
}

func (m *mockClient) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	m.messages[channelID] = append(m.messages[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (m *mockClient) RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error) {
	if err := m.nextErr(); err != nil {
		return nil, err
	}
	m.rawRequests = append(m.rawRequests, rawRequest{method: method, url: urlStr, bucket: bucketID, data: data})
	return []byte("{}"), nil
}

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func noBackoff(int) time.Duration { return time.Millisecond }

func setupDiscord(t *testing.T) (*Discord, *mockClient) {
	t.Helper()
	client := newMockClient()
	return newDiscord(client, Config{RetryAttempts: 2, Backoff: noBackoff}), client
}

func TestDiscord_ScheduledEvents(t *testing.T) {
	d, client := setupDiscord(t)

	start := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	client.events = []*discordgo.GuildScheduledEvent{
		{
			ID:                 "1",
			Name:               "Raid",
			Description:        "Raid\n#!raided\n#repeat=daily\n",
			ScheduledStartTime: start,
			ScheduledEndTime:   &end,
			Status:             discordgo.GuildScheduledEventStatusScheduled,
			EntityType:         discordgo.GuildScheduledEventEntityTypeVoice,
			ChannelID:          "55",
		},
		{
			ID:                 "2",
			GuildID:            "g1",
			Name:               "Meetup",
			ScheduledStartTime: start,
			Status:             discordgo.GuildScheduledEventStatusActive,
			EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
			EntityMetadata:     discordgo.GuildScheduledEventEntityMetadata{Location: "Park"},
		},
	}

	list, err := d.ScheduledEvents(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "g1", list[0].GuildID, "guild ID is filled in when Discord omits it")
	assert.Equal(t, events.KindVoice, list[0].Kind)
	assert.Equal(t, events.StatusScheduled, list[0].Status)
	assert.Equal(t, 2*time.Hour, list[0].Duration())

	assert.Equal(t, events.KindExternal, list[1].Kind)
	assert.Equal(t, events.StatusActive, list[1].Status)
	assert.Equal(t, "Park", list[1].Location)
	assert.Nil(t, list[1].End)
}

func TestDiscord_CreateEvent(t *testing.T) {
	start := time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)

	t.Run("voice event carries channel", func(t *testing.T) {
		d, client := setupDiscord(t)

		ev, err := d.CreateEvent(context.Background(), "g1", events.Spec{
			Name:        "Raid",
			Description: "desc",
			Start:       start,
			End:         start.Add(time.Hour),
			Kind:        events.KindVoice,
			ChannelID:   "55",
			Location:    "ignored",
		})
		require.NoError(t, err)
		assert.Equal(t, "new", ev.ID)

		require.Len(t, client.created, 1)
		params := client.created[0]
		assert.Equal(t, discordgo.GuildScheduledEventEntityTypeVoice, params.EntityType)
		assert.Equal(t, "55", params.ChannelID)
		assert.Nil(t, params.EntityMetadata)
		assert.Equal(t, discordgo.GuildScheduledEventPrivacyLevelGuildOnly, params.PrivacyLevel)
		assert.True(t, start.Add(time.Hour).Equal(*params.ScheduledEndTime))
	})

	t.Run("external event carries location", func(t *testing.T) {
		d, client := setupDiscord(t)

		_, err := d.CreateEvent(context.Background(), "g1", events.Spec{
			Name:     "Meetup",
			Start:    start,
			End:      start.Add(time.Hour),
			Kind:     events.KindExternal,
			Location: "TBA",
		})
		require.NoError(t, err)

		params := client.created[0]
		assert.Equal(t, discordgo.GuildScheduledEventEntityTypeExternal, params.EntityType)
		assert.Empty(t, params.ChannelID)
		require.NotNil(t, params.EntityMetadata)
		assert.Equal(t, "TBA", params.EntityMetadata.Location)
	})
}

func TestDiscord_EditDescription(t *testing.T) {
	d, client := setupDiscord(t)

	err := d.EditDescription(context.Background(), "g1", "e1", "")
	require.NoError(t, err)

	require.Len(t, client.rawRequests, 1)
	req := client.rawRequests[0]
	assert.Equal(t, http.MethodPatch, req.method)
	assert.Equal(t, discordgo.EndpointGuildScheduledEvent("g1", "e1"), req.url)
	assert.Equal(t, discordgo.EndpointGuildScheduledEvents("g1"), req.bucket)
	assert.Equal(t, map[string]interface{}{"description": ""}, req.data, "empty description is sent explicitly")
}

func TestDiscord_StartEventAndSendMessage(t *testing.T) {
	d, client := setupDiscord(t)

	require.NoError(t, d.SendMessage(context.Background(), "789", "<@123> Raid is starting!"))
	require.NoError(t, d.StartEvent(context.Background(), "g1", "e1"))

	assert.Equal(t, []string{"<@123> Raid is starting!"}, client.messages["789"])
	require.Len(t, client.edited, 1)
	assert.Equal(t, discordgo.GuildScheduledEventStatusActive, client.edited[0].Status)
}

func TestDiscord_Retry(t *testing.T) {
	tests := []struct {
		name        string
		errs        []error
		expectCalls int
		expectError bool
	}{
		{
			name:        "success on first try",
			expectCalls: 1,
		},
		{
			name:        "server error is retried",
			errs:        []error{restError(http.StatusBadGateway)},
			expectCalls: 2,
		},
		{
			name:        "retries are bounded",
			errs:        []error{restError(500), restError(502), restError(503), restError(504)},
			expectCalls: 3,
			expectError: true,
		},
		{
			name:        "client error is not retried",
			errs:        []error{restError(http.StatusForbidden)},
			expectCalls: 1,
			expectError: true,
		},
		{
			name:        "plain error is not retried",
			errs:        []error{errors.New("boom")},
			expectCalls: 1,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, client := setupDiscord(t)
			client.errs = tt.errs

			err := d.StartEvent(context.Background(), "g1", "e1")

			assert.Equal(t, tt.expectCalls, client.calls)
			if tt.expectError {
				var callErr *CallError
				require.ErrorAs(t, err, &callErr)
				assert.Equal(t, "start event", callErr.Op)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 3, func(int) time.Duration { return time.Hour }, func() error {
		calls++
		return restError(http.StatusInternalServerError)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCallError(t *testing.T) {
	inner := restError(http.StatusNotFound)
	err := error(&CallError{Op: "get event", Err: inner})

	assert.Contains(t, err.Error(), "discord: get event:")

	var restErr *discordgo.RESTError
	assert.True(t, errors.As(err, &restErr))
	assert.Equal(t, "discord: boom", (&CallError{Err: errors.New("boom")}).Error())
}

func TestEventURL(t *testing.T) {
	assert.Equal(t, "https://discord.com/events/1/2", EventURL("1", "2"))
}
