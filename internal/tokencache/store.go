// Package tokencache keeps the most recently issued access and refresh
// token per user. A key's absence means the token is revoked or expired.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/redis"
)

// Kind selects which token slot a key refers to.
type Kind string

const (
	Access  Kind = "access_token"
	Refresh Kind = "refresh_token"
)

// ErrMiss is returned when no token is cached for the user.
var ErrMiss = errors.New("tokencache: miss")

// Cache is the token cache used by the auth service.
type Cache interface {
	Set(ctx context.Context, kind Kind, userID uuid.UUID, token string, ttl time.Duration) error
	Get(ctx context.Context, kind Kind, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID, kinds ...Kind) error
}

// Store is the Redis-backed Cache.
type Store struct {
	client *redis.Client
}

var _ Cache = (*Store)(nil)

// NewStore creates a store over client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Key returns the cache key for a user's token of the given kind.
func Key(kind Kind, userID uuid.UUID) string {
	return string(kind) + ":" + userID.String()
}

// Set overwrites the user's token. A non-positive ttl is rejected so no
// token outlives its signature.
func (s *Store) Set(ctx context.Context, kind Kind, userID uuid.UUID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("tokencache: ttl must be positive, got %s", ttl)
	}
	if err := s.client.Set(ctx, Key(kind, userID), token, ttl); err != nil {
		return fmt.Errorf("cache %s: %w", kind, err)
	}
	return nil
}

// Get returns the cached token, or ErrMiss.
func (s *Store) Get(ctx context.Context, kind Kind, userID uuid.UUID) (string, error) {
	v, err := s.client.Get(ctx, Key(kind, userID))
	if err != nil {
		if redis.IsNil(err) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("read %s: %w", kind, err)
	}
	return v, nil
}

// Delete removes the user's tokens of the given kinds, or both when none
// are named. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, userID uuid.UUID, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = []Kind{Access, Refresh}
	}
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = Key(k, userID)
	}
	if _, err := s.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
