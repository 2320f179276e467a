package storage

import (
	"testing"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mr, client
}

// TestRedisGuildRepository_EnableGuild tests enabling guilds with table-driven approach
func TestRedisGuildRepository_EnableGuild(t *testing.T) {
	tests := []struct {
		name        string
		existing    []string
		guildToAdd  string
		expectError error
	}{
		{
			name:       "enable first guild",
			guildToAdd: "100",
		},
		{
			name:       "enable alongside others",
			existing:   []string{"100", "200"},
			guildToAdd: "300",
		},
		{
			name:        "reject duplicate guild",
			existing:    []string{"100"},
			guildToAdd:  "100",
			expectError: ErrAlreadyEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := setupTestRedis(t)
			repo := NewRedisGuildRepository(client)

			for _, g := range tt.existing {
				require.NoError(t, repo.EnableGuild(g))
			}

			err := repo.EnableGuild(tt.guildToAdd)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)

			enabled, err := repo.IsEnabled(tt.guildToAdd)
			require.NoError(t, err)
			assert.True(t, enabled)
		})
	}
}

func TestRedisGuildRepository_DisableGuild(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisGuildRepository(client)

	require.NoError(t, repo.EnableGuild("100"))
	require.NoError(t, repo.DisableGuild("100"))

	enabled, err := repo.IsEnabled("100")
	require.NoError(t, err)
	assert.False(t, enabled)

	assert.ErrorIs(t, repo.DisableGuild("100"), ErrNotEnabled)
}

func TestRedisGuildRepository_GetAllGuilds(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisGuildRepository(client)

	guilds, err := repo.GetAllGuilds()
	require.NoError(t, err)
	assert.Empty(t, guilds)

	for _, g := range []string{"300", "100", "200"} {
		require.NoError(t, repo.EnableGuild(g))
	}

	guilds, err = repo.GetAllGuilds()
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200", "300"}, guilds)
}

func TestRedisGuildRepository_KeyLayout(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisGuildRepository(client)

	require.NoError(t, repo.EnableGuild("100"))

	members, err := mr.Members("events:guilds")
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, members)
}

func testDraft(t *testing.T) events.Draft {
	t.Helper()
	start := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	d, err := events.NewDraft("Raid", "Bring snacks", start, 90*time.Minute, events.RepeatWeekly)
	require.NoError(t, err)
	return d.WithChannel("55", events.KindVoice).WithMentions([]events.Mention{"1", "&2"}, "77")
}

func TestRedisDraftRepository_SaveAndGet(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	draft := testDraft(t)
	require.NoError(t, repo.SaveDraft("g1", "u1", draft))

	got, err := repo.GetDraft("g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, draft.Name, got.Name)
	assert.Equal(t, draft.FreeText, got.FreeText)
	assert.True(t, draft.Start.Equal(got.Start))
	assert.Equal(t, draft.Duration, got.Duration)
	assert.Equal(t, draft.Repeat, got.Repeat)
	assert.Equal(t, draft.Kind, got.Kind)
	assert.Equal(t, draft.ChannelID, got.ChannelID)
	assert.Equal(t, draft.Mentions, got.Mentions)
	assert.Equal(t, draft.NotifyChannel, got.NotifyChannel)
}

func TestRedisDraftRepository_Missing(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	got, err := repo.GetDraft("g1", "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisDraftRepository_PerUser(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	require.NoError(t, repo.SaveDraft("g1", "u1", testDraft(t)))

	other, err := repo.GetDraft("g1", "u2")
	require.NoError(t, err)
	assert.Nil(t, other)

	otherGuild, err := repo.GetDraft("g2", "u1")
	require.NoError(t, err)
	assert.Nil(t, otherGuild)
}

func TestRedisDraftRepository_Expiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	require.NoError(t, repo.SaveDraft("g1", "u1", testDraft(t)))
	assert.Equal(t, 15*time.Minute, mr.TTL("events:drafts:g1:u1"))

	mr.FastForward(16 * time.Minute)

	got, err := repo.GetDraft("g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisDraftRepository_Delete(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	require.NoError(t, repo.SaveDraft("g1", "u1", testDraft(t)))
	require.NoError(t, repo.DeleteDraft("g1", "u1"))

	got, err := repo.GetDraft("g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is not an error
	assert.NoError(t, repo.DeleteDraft("g1", "u1"))
}

func TestRedisDraftRepository_Corrupt(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisDraftRepository(client, 15*time.Minute)

	require.NoError(t, mr.Set("events:drafts:g1:u1", "{not json"))

	_, err := repo.GetDraft("g1", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal draft")
}
