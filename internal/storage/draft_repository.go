package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/redis/go-redis/v9"
)

const draftPrefix = "events:drafts:"

// DraftRepository stores events being assembled through the create workflow
type DraftRepository interface {
	// SaveDraft stores the draft of a user, replacing any previous one
	SaveDraft(guildID, userID string, draft events.Draft) error
	// GetDraft returns the user's draft, or nil if it expired or never existed
	GetDraft(guildID, userID string) (*events.Draft, error)
	// DeleteDraft discards the user's draft
	DeleteDraft(guildID, userID string) error
}

// RedisDraftRepository implements DraftRepository with expiring JSON values
type RedisDraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftRepository creates a draft repository whose entries expire after ttl
func NewRedisDraftRepository(client *redis.Client, ttl time.Duration) *RedisDraftRepository {
	return &RedisDraftRepository{client: client, ttl: ttl}
}

func draftKey(guildID, userID string) string {
	return draftPrefix + guildID + ":" + userID
}

// SaveDraft stores the draft of a user, replacing any previous one and
// restarting its expiry
func (r *RedisDraftRepository) SaveDraft(guildID, userID string, draft events.Draft) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := r.client.Set(ctx, draftKey(guildID, userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

// GetDraft returns the user's draft, or nil if it expired or never existed
func (r *RedisDraftRepository) GetDraft(guildID, userID string) (*events.Draft, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, draftKey(guildID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var draft events.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &draft, nil
}

// DeleteDraft discards the user's draft
func (r *RedisDraftRepository) DeleteDraft(guildID, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := r.client.Del(ctx, draftKey(guildID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return nil
}
