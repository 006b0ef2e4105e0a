// Package store provides the pending-subscription key-value store: string
// values under string keys, each with its own expiration, backed by Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when a key is absent, expired, or deleted.
var ErrNotFound = errors.New("store: key not found")

// Store wraps a Redis client with the capability set the confirmation
// workflow needs: Put with TTL, Get, Delete. Values are retrievable from the
// moment Put returns until Delete is called or the TTL elapses.
type Store struct {
	client *redis.Client
}

// New creates a Store backed by the given Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Put writes value under key with the given time-to-live.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

// PutNX writes value under key only if the key does not already exist.
// Returns true if the write happened. Used for the email-pointer key so two
// near-simultaneous subscribes for one address collapse where Redis can
// arbitrate, though the workflow tolerates the race either way.
func (s *Store) PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("store: putnx %s: %w", key, err)
	}
	return ok, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get %s: %w", key, err)
	}
	return val, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}
