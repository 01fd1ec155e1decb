package persistence

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/daily-decree/internal/game"
)

func TestDecodeIndex(t *testing.T) {
	entry := func(id string, ts int64) string {
		b, err := json.Marshal(game.SaveMetadata{ID: id, Name: id, Timestamp: ts})
		require.NoError(t, err)
		return string(b)
	}

	got := decodeIndex(map[string]string{
		"old":     entry("old", 1000),
		"new":     entry("new", 3000),
		"mid":     entry("mid", 2000),
		"broken":  "{not json",
		"missing": `{"name":"no id"}`,
	})

	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestDecodeIndexEmpty(t *testing.T) {
	got := decodeIndex(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// TestRedisStore runs against a live server when DECREE_TEST_REDIS_URL is set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("DECREE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DECREE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rs, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })

	f := testSave("redis-test", 4, 1700000000000)
	require.NoError(t, rs.Save(ctx, f))
	t.Cleanup(func() { rs.Delete(ctx, "redis-test") })

	got, err := rs.Load(ctx, "redis-test")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TurnCount)
	assert.Equal(t, f.Data.MainStory.Headline, got.Data.MainStory.Headline)

	list, err := rs.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, m := range list {
		found = found || m.ID == "redis-test"
	}
	assert.True(t, found)

	require.NoError(t, rs.Delete(ctx, "redis-test"))
	_, err = rs.Load(ctx, "redis-test")
	assert.ErrorIs(t, err, game.ErrSaveNotFound)
}
