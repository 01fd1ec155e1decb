package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/talgya/daily-decree/internal/game"
)

// Key layout shared with browser-era saves.
const (
	IndexKey   = "dd_saves_index_v2"
	SavePrefix = "dd_save_file_"
)

// RedisStore keeps each save under its own key and the metadata of every
// save in one hash.
type RedisStore struct {
	rdb *redis.Client
}

var _ game.Store = (*RedisStore)(nil)

// OpenRedis connects to the Redis server at url (redis://host:port/db).
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Close closes the connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func saveKey(id string) string {
	return SavePrefix + id
}

// Save writes the document and its index entry atomically.
func (s *RedisStore) Save(ctx context.Context, f *game.SaveFile) error {
	body, err := game.Encode(f)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	meta, err := json.Marshal(f.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, saveKey(f.Metadata.ID), body, 0)
		pipe.HSet(ctx, IndexKey, f.Metadata.ID, meta)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

// Load reads and validates a save document.
func (s *RedisStore) Load(ctx context.Context, id string) (*game.SaveFile, error) {
	body, err := s.rdb.Get(ctx, saveKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", game.ErrSaveNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return game.Decode(body)
}

// List returns the save index, newest first. Unreadable entries are skipped.
func (s *RedisStore) List(ctx context.Context) ([]game.SaveMetadata, error) {
	entries, err := s.rdb.HGetAll(ctx, IndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return decodeIndex(entries), nil
}

// Delete removes a save and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, saveKey(id))
		pipe.HDel(ctx, IndexKey, id)
		return nil
	})
	return err
}

func decodeIndex(entries map[string]string) []game.SaveMetadata {
	out := make([]game.SaveMetadata, 0, len(entries))
	for _, raw := range entries {
		var m game.SaveMetadata
		if err := json.Unmarshal([]byte(raw), &m); err != nil || m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}
