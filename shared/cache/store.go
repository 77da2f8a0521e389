// Package cache implements the cache-aside discipline shared by the item, cart
// and order lookups.
//
// Keys are "{entity}:{id}". The cache is advisory: every read failure is logged
// and treated as a miss, every write failure is logged and swallowed. Callers
// always write the record store first and then overwrite or invalidate the
// cache entry in the same operation. A crash between the two leaves the entry
// stale until the next write or TTL expiry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/redis/go-redis/v9"
)

const redisContextTimeout = 2 * time.Second

// Store caches single entities of type T. A zero ttl means the entry never
// expires and is only replaced by writes.
type Store[T any] struct {
	client redis.Cmdable
	logger logs.Logger
	entity string
	ttl    time.Duration
	idOf   func(T) string
}

func NewStore[T any](client redis.Cmdable, logger logs.Logger, entity string, ttl time.Duration, idOf func(T) string) *Store[T] {
	return &Store[T]{
		client: client,
		logger: logger,
		entity: entity,
		ttl:    ttl,
		idOf:   idOf,
	}
}

func Key(entity, id string) string {
	return entity + ":" + id
}

func (s *Store[T]) Key(id string) string {
	return Key(s.entity, id)
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// GetMany reads every id with a single MGET. hits keeps the order of ids,
// missing lists the ids without a usable entry.
func (s *Store[T]) GetMany(ctx context.Context, ids []string) ([]T, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.Key(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, ids, err
	}

	hits := make([]T, 0, len(ids))
	var missing []string
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}

		var value T
		if err := json.Unmarshal([]byte(str), &value); err != nil {
			s.logger.Warn("discarding undecodable cache entry", "key", keys[i], "error", err)
			missing = append(missing, ids[i])
			continue
		}
		hits = append(hits, value)
	}

	return hits, missing, nil
}

func (s *Store[T]) Put(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	return s.client.Set(ctx, s.Key(s.idOf(value)), data, s.ttl).Err()
}

// PutMany writes values in one pipeline, in slice order.
func (s *Store[T]) PutMany(ctx context.Context, values []T) error {
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, value := range values {
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			pipe.Set(ctx, s.Key(s.idOf(value)), data, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store[T]) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisContextTimeout)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.Key(id)
	}
	return s.client.Del(ctx, keys...).Err()
}

// Refresh overwrites the cached entry after a store write. Failures are logged.
func (s *Store[T]) Refresh(ctx context.Context, value T) {
	if err := s.Put(ctx, value); err != nil {
		s.logger.Warn("failed to refresh cache entry", "key", s.Key(s.idOf(value)), "error", err)
	}
}

// Evict deletes cached entries after a store write. Failures are logged.
func (s *Store[T]) Evict(ctx context.Context, ids ...string) {
	if err := s.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("failed to invalidate cache entries", "entity", s.entity, "ids", ids, "error", err)
	}
}

// ReadThrough returns the cached value for id, or loads it, caches it and
// returns it. Errors from load are returned unchanged and nothing is cached.
func (s *Store[T]) ReadThrough(ctx context.Context, id string, load func(ctx context.Context) (T, error)) (T, error) {
	value, ok, err := s.Get(ctx, id)
	if err != nil {
		s.logger.Warn("cache read failed, falling back to store", "key", s.Key(id), "error", err)
	} else if ok {
		return value, nil
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}

	s.Refresh(ctx, value)
	return value, nil
}

// ReadThroughMany resolves ids against the cache and loads only the misses
// with one call to load. When the cache answers for every id the store is
// not touched at all, even if some of those entries are stale. Ids unknown to
// the store are absent from the result.
func (s *Store[T]) ReadThroughMany(ctx context.Context, ids []string, load func(ctx context.Context, ids []string) ([]T, error)) ([]T, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []T{}, nil
	}

	hits, missing, err := s.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("cache batch read failed, falling back to store", "entity", s.entity, "error", err)
		hits, missing = nil, ids
	}

	if len(hits) == len(ids) {
		s.logger.Debug("cache fully satisfied batch read", "entity", s.entity, "count", len(ids))
		return hits, nil
	}

	loaded, err := load(ctx, missing)
	if err != nil {
		return nil, err
	}

	if err := s.PutMany(ctx, loaded); err != nil {
		s.logger.Warn("failed to backfill cache", "entity", s.entity, "error", err)
	}

	return s.ordered(ids, hits, loaded), nil
}

func (s *Store[T]) ordered(ids []string, groups ...[]T) []T {
	byID := make(map[string]T, len(ids))
	for _, group := range groups {
		for _, value := range group {
			byID[s.idOf(value)] = value
		}
	}

	result := make([]T, 0, len(byID))
	for _, id := range ids {
		if value, ok := byID[id]; ok {
			result = append(result, value)
		}
	}
	return result
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
