package ports

import (
	"context"

	"github.com/velia/accounts-api/internal/core/domain"
)

// SessionStore keeps server-side sessions indexed by an opaque id. The id is
// what travels to the client as a cookie value; everything else stays on the
// server.
type SessionStore interface {
	Create(ctx context.Context, accountID, email string, role domain.Role) (string, error)

	// Resolve returns the session for id, or (nil, nil) when the session is
	// absent or expired; expiry is not an error.
	Resolve(ctx context.Context, sessionID string) (*domain.Session, error)

	Destroy(ctx context.Context, sessionID string) error
}
