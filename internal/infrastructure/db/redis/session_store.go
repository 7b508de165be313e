package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/pkg/security"
)

// DefaultSessionTTL is the fixed session lifetime applied when none is
// configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps server-side sessions in Redis under session:<id> with a
// TTL. Redis expiry is the eviction mechanism: an expired session is simply
// a missing key, so Resolve never sees stale entries and no sweep runs.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

type sessionPayload struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Create stores a new session and returns its opaque id, the value that
// travels to the client as a cookie.
func (s *SessionStore) Create(ctx context.Context, accountID, email string, role domain.Role) (string, error) {
	id, err := security.GenerateToken()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(sessionPayload{
		AccountID: accountID,
		Email:     email,
		Role:      string(role),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Resolve returns the session for id, or (nil, nil) when it is absent or
// expired. Expiry is not an error.
func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &domain.Session{
		ID:        sessionID,
		AccountID: payload.AccountID,
		Email:     payload.Email,
		Role:      domain.Role(payload.Role),
		CreatedAt: payload.CreatedAt,
	}, nil
}

// Destroy removes the session. Destroying an already-absent session is a
// no-op.
func (s *SessionStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
