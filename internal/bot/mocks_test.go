package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/Raided-pro/EventManager/internal/storage"
	"github.com/bwmarrin/discordgo"
)

// createdEvent records a CreateEvent call
type createdEvent struct {
	GuildID string
	Spec    events.Spec
}

// editedDescription records an EditDescription call
type editedDescription struct {
	GuildID, EventID, Description string
}

// sentMessage records a SendMessage call
type sentMessage struct {
	ChannelID, Content string
}

// MockEventPlatform is a mock for testing. It records every mutation in
// call order so tests can assert on sequencing.
type MockEventPlatform struct {
	mu sync.Mutex

	events map[string][]events.Event // by guild

	created  []createdEvent
	edited   []editedDescription
	sent     []sentMessage
	startedE []string
	calls    []string

	listErr   map[string]error // by guild
	createErr error
	editErr   error
	sendErr   error
	startErr  error
}

func NewMockEventPlatform() *MockEventPlatform {
	return &MockEventPlatform{
		events:  make(map[string][]events.Event),
		listErr: make(map[string]error),
	}
}

func (m *MockEventPlatform) AddEvent(ev events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.GuildID] = append(m.events[ev.GuildID], ev)
}

func (m *MockEventPlatform) ScheduledEvents(ctx context.Context, guildID string) ([]events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "list:"+guildID)
	if err := m.listErr[guildID]; err != nil {
		return nil, err
	}
	return append([]events.Event(nil), m.events[guildID]...), nil
}

func (m *MockEventPlatform) ScheduledEvent(ctx context.Context, guildID, eventID string) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events[guildID] {
		if ev.ID == eventID {
			ev := ev
			return &ev, nil
		}
	}
	return nil, fmt.Errorf("event %s not found", eventID)
}

func (m *MockEventPlatform) CreateEvent(ctx context.Context, guildID string, spec events.Spec) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "create")
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, createdEvent{GuildID: guildID, Spec: spec})
	return &events.Event{
		ID:          fmt.Sprintf("created-%d", len(m.created)),
		GuildID:     guildID,
		Name:        spec.Name,
		Description: spec.Description,
		Start:       spec.Start,
		Status:      events.StatusScheduled,
		Kind:        spec.Kind,
	}, nil
}

func (m *MockEventPlatform) EditDescription(ctx context.Context, guildID, eventID, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "edit:"+eventID)
	if m.editErr != nil {
		return m.editErr
	}
	m.edited = append(m.edited, editedDescription{GuildID: guildID, EventID: eventID, Description: description})
	for idx, ev := range m.events[guildID] {
		if ev.ID == eventID {
			m.events[guildID][idx].Description = description
		}
	}
	return nil
}

func (m *MockEventPlatform) StartEvent(ctx context.Context, guildID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "start:"+eventID)
	if m.startErr != nil {
		return m.startErr
	}
	m.startedE = append(m.startedE, eventID)
	return nil
}

func (m *MockEventPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "send:"+channelID)
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

// MockGuildRepository is a mock for testing
type MockGuildRepository struct {
	mu     sync.Mutex
	guilds map[string]bool
	getErr error
}

func NewMockGuildRepository(guilds ...string) *MockGuildRepository {
	m := &MockGuildRepository{guilds: make(map[string]bool)}
	for _, g := range guilds {
		m.guilds[g] = true
	}
	return m
}

func (m *MockGuildRepository) EnableGuild(guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.guilds[guildID] {
		return fmt.Errorf("guild %s: %w", guildID, storage.ErrAlreadyEnabled)
	}
	m.guilds[guildID] = true
	return nil
}

func (m *MockGuildRepository) DisableGuild(guildID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.guilds[guildID] {
		return fmt.Errorf("guild %s: %w", guildID, storage.ErrNotEnabled)
	}
	delete(m.guilds, guildID)
	return nil
}

func (m *MockGuildRepository) IsEnabled(guildID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	return m.guilds[guildID], nil
}

func (m *MockGuildRepository) GetAllGuilds() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	guilds := make([]string, 0, len(m.guilds))
	for g := range m.guilds {
		guilds = append(guilds, g)
	}
	sort.Strings(guilds)
	return guilds, nil
}

// MockDraftRepository is an in-memory draft store for testing
type MockDraftRepository struct {
	mu     sync.Mutex
	drafts map[string]events.Draft
}

func NewMockDraftRepository() *MockDraftRepository {
	return &MockDraftRepository{drafts: make(map[string]events.Draft)}
}

func (m *MockDraftRepository) SaveDraft(guildID, userID string, draft events.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[guildID+":"+userID] = draft
	return nil
}

func (m *MockDraftRepository) GetDraft(guildID, userID string) (*events.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[guildID+":"+userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *MockDraftRepository) DeleteDraft(guildID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, guildID+":"+userID)
	return nil
}

// MockResponder captures interaction responses instead of calling Discord
type MockResponder struct {
	responses []*discordgo.InteractionResponse
	followUps []*discordgo.WebhookParams
}

func (m *MockResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.responses = append(m.responses, resp)
	return nil
}

func (m *MockResponder) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.followUps = append(m.followUps, data)
	return &discordgo.Message{Content: data.Content}, nil
}

// last returns the most recent response
func (m *MockResponder) last() *discordgo.InteractionResponse {
	if len(m.responses) == 0 {
		return nil
	}
	return m.responses[len(m.responses)-1]
}
