// Package session maintains server-side session state in Redis, keyed by an
// opaque cookie-carried session id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tobyStaff/stafford.dev/internal/models"
)

// ErrNoSession is returned when the session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

const keyPrefix = "session:"

// Store persists sessions with a sliding expiry: every successful read
// pushes the expiry out by the full TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store with the given sliding TTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Create stores the safe-serialized user under a fresh opaque id.
func (s *Store) Create(ctx context.Context, user models.SafeUser) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session payload: %w", err)
	}

	id := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Get returns the session payload and refreshes its expiry.
func (s *Store) Get(ctx context.Context, id string) (*models.SafeUser, error) {
	payload, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user models.SafeUser
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}

	// Sliding expiry. A failed refresh is not fatal for this request.
	_ = s.rdb.Expire(ctx, keyPrefix+id, s.ttl).Err()

	return &user, nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
