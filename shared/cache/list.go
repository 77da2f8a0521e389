package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/redis/go-redis/v9"
)

// ListStore caches an ordered list of T per owner under "{entity}:{owner}".
// Each element is pushed individually and the list gets a TTL.
type ListStore[T any] struct {
	client redis.Cmdable
	logger logs.Logger
	entity string
	ttl    time.Duration
}

func NewListStore[T any](client redis.Cmdable, logger logs.Logger, entity string, ttl time.Duration) *ListStore[T] {
	return &ListStore[T]{
		client: client,
		logger: logger,
		entity: entity,
		ttl:    ttl,
	}
}

func (l *ListStore[T]) Key(owner string) string {
	return Key(l.entity, owner)
}

// Range returns the cached list. An empty or absent list is a miss.
func (l *ListStore[T]) Range(ctx context.Context, owner string) ([]T, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	raw, err := l.client.LRange(ctx, l.Key(owner), 0, -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	values := make([]T, 0, len(raw))
	for _, item := range raw {
		var value T
		if err := json.Unmarshal([]byte(item), &value); err != nil {
			return nil, false, err
		}
		values = append(values, value)
	}
	return values, true, nil
}

// Fill replaces the cached list with values. The delete, pushes and expire
// run in one MULTI/EXEC so concurrent fills cannot interleave duplicates into
// one list.
func (l *ListStore[T]) Fill(ctx context.Context, owner string, values []T) error {
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	key := l.Key(owner)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for _, value := range values {
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			pipe.RPush(ctx, key, data)
		}
		if l.ttl > 0 {
			pipe.Expire(ctx, key, l.ttl)
		}
		return nil
	})
	return err
}

func (l *ListStore[T]) Invalidate(ctx context.Context, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	return l.client.Del(ctx, l.Key(owner)).Err()
}

func (l *ListStore[T]) Evict(ctx context.Context, owner string) {
	if err := l.Invalidate(ctx, owner); err != nil {
		l.logger.Warn("failed to invalidate cached list", "key", l.Key(owner), "error", err)
	}
}

// ReadThrough serves the list from cache when present. Otherwise it loads the
// list once, pushes it to the cache and returns it.
func (l *ListStore[T]) ReadThrough(ctx context.Context, owner string, load func(ctx context.Context) ([]T, error)) ([]T, error) {
	values, ok, err := l.Range(ctx, owner)
	if err != nil {
		l.logger.Warn("cached list read failed, falling back to store", "key", l.Key(owner), "error", err)
	} else if ok {
		return values, nil
	}

	values, err = load(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.Fill(ctx, owner, values); err != nil {
		l.logger.Warn("failed to populate cached list", "key", l.Key(owner), "error", err)
	}
	return values, nil
}
