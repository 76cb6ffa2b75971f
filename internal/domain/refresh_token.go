package domain

import (
	"context"
	"time"
)

// MaxRefreshTokenLifetime bounds how far in the future a refresh token may
// expire at creation time.
const MaxRefreshTokenLifetime = 365 * 24 * time.Hour

// RefreshToken is a stored refresh token record. Only the SHA-256 hash of the
// opaque token string is persisted, never the plaintext.
type RefreshToken struct {
	ID            string     `bson:"_id,omitempty" json:"id"`
	UserID        string     `bson:"user_id" json:"user_id"`
	TokenHash     string     `bson:"token_hash" json:"-"`
	DeviceID      string     `bson:"device_id,omitempty" json:"device_id,omitempty"`
	UserAgent     string     `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	IPAddress     string     `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	ExpiresAt     time.Time  `bson:"expires_at" json:"expires_at"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	Revoked       bool       `bson:"revoked" json:"revoked"`
	RevokedAt     *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	RevokedReason string     `bson:"revoked_reason,omitempty" json:"revoked_reason,omitempty"`
}

// IsExpired checks if the refresh token has passed its expiry.
func (r *RefreshToken) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// IsValid checks if the token is usable (not expired and not revoked).
func (r *RefreshToken) IsValid() bool {
	return !r.IsExpired() && !r.Revoked
}

// Revoke returns a copy of the record in its revoked state. Revocation is
// terminal: a record that is already revoked is returned unchanged.
func (r RefreshToken) Revoke(reason string, at time.Time) RefreshToken {
	if r.Revoked {
		return r
	}
	r.Revoked = true
	r.RevokedAt = &at
	r.RevokedReason = reason
	return r
}

// DeviceInfo carries per-login client metadata onto the stored record.
type DeviceInfo struct {
	DeviceID  string
	UserAgent string
	IPAddress string
}

// RefreshTokenStore persists refresh token records, keyed by token hash.
// Callers pass the plaintext token; the store hashes it and never scans
// plaintext.
type RefreshTokenStore interface {
	// Save hashes plainToken and persists a new non-revoked record.
	Save(ctx context.Context, plainToken, userID string, device DeviceInfo, expiresAt time.Time) (*RefreshToken, error)

	// FindByToken looks up a record by the hash of the presented token.
	// Returns (nil, nil) when absent.
	FindByToken(ctx context.Context, plainToken string) (*RefreshToken, error)

	// RevokeByToken marks the matching non-revoked record revoked in a single
	// conditional update. Reports whether this call performed the transition;
	// revoking an already-revoked or unknown token is not an error.
	RevokeByToken(ctx context.Context, plainToken, reason string) (bool, error)

	// RevokeAllByUserID revokes every non-revoked token for the user.
	RevokeAllByUserID(ctx context.Context, userID, reason string) error

	// DeleteExpired removes expired records. Backstop for the TTL index.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteRevokedBefore removes revoked records whose revocation is older
	// than the cutoff.
	DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
