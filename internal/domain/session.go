package domain

import (
	"context"
	"time"
)

const sessionKeyPrefix = "connected_user:"

// SessionKey builds the cache key for a user's session snapshot.
func SessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// SessionSnapshot is an ephemeral cached copy of a connected user's identity.
// It is never authoritative: absence only means the directory must be asked
// again, and authorization always rests on verified token claims.
type SessionSnapshot struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	ConnectedAt time.Time `json:"connected_at"`
	UserAgent   string    `json:"user_agent,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
}

// SessionCache is a short-TTL, best-effort store of session snapshots.
type SessionCache interface {
	// Set stores a snapshot under key with the given TTL, overwriting any
	// previous value.
	Set(ctx context.Context, key string, snapshot *SessionSnapshot, ttl time.Duration) error

	// Get returns the snapshot for key, or (nil, nil) on a cache miss.
	Get(ctx context.Context, key string) (*SessionSnapshot, error)

	// Delete removes the snapshot for key.
	Delete(ctx context.Context, key string) error
}
