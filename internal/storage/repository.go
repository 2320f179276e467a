package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes
	guildsKey      = "events:guilds"
	defaultTimeout = 5 * time.Second
)

var (
	// ErrAlreadyEnabled is returned when enabling a guild that is already managed
	ErrAlreadyEnabled = errors.New("event management is already enabled")
	// ErrNotEnabled is returned when disabling a guild that is not managed
	ErrNotEnabled = errors.New("event management is not enabled")
)

// GuildRepository defines the interface for the set of guilds the event
// monitor scans
type GuildRepository interface {
	// EnableGuild adds a guild to the managed set
	EnableGuild(guildID string) error
	// DisableGuild removes a guild from the managed set
	DisableGuild(guildID string) error
	// IsEnabled checks if a guild is managed
	IsEnabled(guildID string) (bool, error)
	// GetAllGuilds returns all managed guild IDs in sorted order
	GetAllGuilds() ([]string, error)
}

// RedisGuildRepository implements GuildRepository using a Redis set
type RedisGuildRepository struct {
	client *redis.Client
}

// NewRedisGuildRepository creates a new Redis-based guild repository
func NewRedisGuildRepository(client *redis.Client) *RedisGuildRepository {
	return &RedisGuildRepository{client: client}
}

// EnableGuild adds a guild to the managed set
func (r *RedisGuildRepository) EnableGuild(guildID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	added, err := r.client.SAdd(ctx, guildsKey, guildID).Result()
	if err != nil {
		return fmt.Errorf("failed to enable guild: %w", err)
	}
	if added == 0 {
		return fmt.Errorf("guild %s: %w", guildID, ErrAlreadyEnabled)
	}

	return nil
}

// DisableGuild removes a guild from the managed set
func (r *RedisGuildRepository) DisableGuild(guildID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	removed, err := r.client.SRem(ctx, guildsKey, guildID).Result()
	if err != nil {
		return fmt.Errorf("failed to disable guild: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("guild %s: %w", guildID, ErrNotEnabled)
	}

	return nil
}

// IsEnabled checks if a guild is managed
func (r *RedisGuildRepository) IsEnabled(guildID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	enabled, err := r.client.SIsMember(ctx, guildsKey, guildID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check guild: %w", err)
	}

	return enabled, nil
}

// GetAllGuilds returns all managed guild IDs in sorted order
func (r *RedisGuildRepository) GetAllGuilds() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	guilds, err := r.client.SMembers(ctx, guildsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get guilds: %w", err)
	}

	sort.Strings(guilds)
	return guilds, nil
}
