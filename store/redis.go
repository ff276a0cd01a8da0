package store

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares a cache across processes/machines. Grounded on the
// NewRedis backend described in the pack's cache package
// (other_examples/agentuity-go-common__doc.go): a hash per key ("meta"/
// "body" fields instead of that example's "v"/"h"), native Redis TTL
// instead of a background sweep, an optional key prefix, and a
// per-operation timeout derived from the caller's context.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, timeout: 5 * time.Second}
}

func (r *RedisStore) key(key string) string { return r.prefix + key }

func (r *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *RedisStore) Match(ctx context.Context, key string) (*Entry, io.ReadCloser, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	vals, err := r.client.HMGet(ctx, r.key(key), "meta", "body").Result()
	if err != nil {
		return nil, nil, err
	}
	metaStr, ok := vals[0].(string)
	if !ok {
		return nil, nil, ErrNotFound
	}
	bodyStr, _ := vals[1].(string)

	var entry Entry
	if err := json.Unmarshal([]byte(metaStr), &entry); err != nil {
		return nil, nil, err
	}
	return &entry, io.NopCloser(strings.NewReader(bodyStr)), nil
}

func (r *RedisStore) Put(ctx context.Context, key string, entry *Entry, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(key), map[string]interface{}{
		"meta": string(metaJSON),
		"body": string(raw),
	})
	// A freshness lifetime is recomputed by rfc7234 at match time; the
	// TTL here is only a coarse backstop so an idle Redis instance
	// doesn't accumulate entries forever.
	pipe.Expire(ctx, r.key(key), 30*24*time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStore) Keys(ctx context.Context, prefix string, cb func(string)) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		cb(iter.Val()[len(r.prefix):])
	}
	return iter.Err()
}

func (r *RedisStore) Close() error { return nil }
