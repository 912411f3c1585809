package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a shared cache tier consulted before the thumbnail API.
type Store interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]string, error)
	SetMany(ctx context.Context, urls map[int64]string) error
}

// entry is what RedisStore keeps per user.
type entry struct {
	ImageURL  string    `json:"image_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RedisStore keeps resolved avatars in redis with a TTL so several
// dashboard replicas share one cache.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisStore returns a store writing keys "<prefix>avatar:<id>".
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) key(id int64) string {
	return s.prefix + "avatar:" + strconv.FormatInt(id, 10)
}

// GetMany returns the cached URLs among ids. Missing keys are omitted.
func (s *RedisStore) GetMany(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string)
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("avatar store: mget: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil || e.ImageURL == "" {
			continue
		}
		out[ids[i]] = e.ImageURL
	}
	return out, nil
}

// SetMany stores urls with the store TTL in one pipeline.
func (s *RedisStore) SetMany(ctx context.Context, urls map[int64]string) error {
	if len(urls) == 0 {
		return nil
	}
	now := time.Now().UTC()
	pipe := s.client.Pipeline()
	for id, u := range urls {
		b, err := json.Marshal(entry{ImageURL: u, FetchedAt: now})
		if err != nil {
			return err
		}
		pipe.Set(ctx, s.key(id), b, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("avatar store: set: %w", err)
	}
	return nil
}

// Invalidate drops a cached avatar.
func (s *RedisStore) Invalidate(ctx context.Context, id int64) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// OpenRedis connects to the redis server at rawURL and pings it.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	if rawURL == "" {
		return nil, errors.New("avatar store: redis url is empty")
	}
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("avatar store: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("avatar store: ping redis: %w", err)
	}
	return client, nil
}
