package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sportivox/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSessionStore keeps checkout sessions in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return utils.CheckoutSessionPrefix + id
}

func lockKey(id string) string {
	return utils.CheckoutLockPrefix + id
}

func (r *RedisSessionStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache checkout session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	return &sess, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func (r *RedisSessionStore) Acquire(ctx context.Context, id, owner string, ttl time.Duration) (func(), string, error) {
	value := owner + ":" + uuid.New().String()
	ok, err := r.client.SetNX(ctx, lockKey(id), value, ttl).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to lock checkout session: %w", err)
	}
	if !ok {
		current, err := r.client.Get(ctx, lockKey(id)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, "", fmt.Errorf("failed to read checkout lock: %w", err)
		}
		holder, _, _ := strings.Cut(current, ":")
		if holder == "" {
			holder = "unknown"
		}
		return nil, holder, nil
	}
	release := func() {
		// The caller's context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, r.client, []string{lockKey(id)}, value).Err()
	}
	return release, "", nil
}
