package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/mansoorceksport/aegis/internal/domain"
)

// In-memory test doubles for the auth service's ports. Error fields let tests
// inject failures per call site.

type fakeUserDirectory struct {
	users []*domain.User
}

func (f *fakeUserDirectory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeTokenStore struct {
	records map[string]*domain.RefreshToken // keyed by plaintext token

	saveErr      error
	findErr      error
	revokeErr    error
	revokeAllErr error

	// forceRevokeMiss makes RevokeByToken report no match, as when a
	// concurrent rotation wins the conditional update first.
	forceRevokeMiss bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: make(map[string]*domain.RefreshToken)}
}

func (f *fakeTokenStore) Save(_ context.Context, plainToken, userID string, device domain.DeviceInfo, expiresAt time.Time) (*domain.RefreshToken, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	hash := sha256.Sum256([]byte(plainToken))
	rec := &domain.RefreshToken{
		ID:        "rec-" + plainToken[:8],
		UserID:    userID,
		TokenHash: hex.EncodeToString(hash[:]),
		DeviceID:  device.DeviceID,
		UserAgent: device.UserAgent,
		IPAddress: device.IPAddress,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.records[plainToken] = rec
	return rec, nil
}

func (f *fakeTokenStore) FindByToken(_ context.Context, plainToken string) (*domain.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	rec, ok := f.records[plainToken]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeTokenStore) RevokeByToken(_ context.Context, plainToken, reason string) (bool, error) {
	if f.revokeErr != nil {
		return false, f.revokeErr
	}
	if f.forceRevokeMiss {
		return false, nil
	}
	rec, ok := f.records[plainToken]
	if !ok || rec.Revoked {
		return false, nil
	}
	*rec = rec.Revoke(reason, time.Now())
	return true, nil
}

func (f *fakeTokenStore) RevokeAllByUserID(_ context.Context, userID, reason string) error {
	if f.revokeAllErr != nil {
		return f.revokeAllErr
	}
	for _, rec := range f.records {
		if rec.UserID == userID && !rec.Revoked {
			*rec = rec.Revoke(reason, time.Now())
		}
	}
	return nil
}

func (f *fakeTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for token, rec := range f.records {
		if rec.IsExpired() {
			delete(f.records, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeTokenStore) DeleteRevokedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for token, rec := range f.records {
		if rec.Revoked && rec.RevokedAt != nil && rec.RevokedAt.Before(cutoff) {
			delete(f.records, token)
			n++
		}
	}
	return n, nil
}

// activeTokensFor counts non-revoked records for a user.
func (f *fakeTokenStore) activeTokensFor(userID string) int {
	n := 0
	for _, rec := range f.records {
		if rec.UserID == userID && !rec.Revoked {
			n++
		}
	}
	return n
}

type fakeSessionCache struct {
	entries map[string]*domain.SessionSnapshot
	ttls    map[string]time.Duration

	setErr error
	getErr error
	delErr error
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		entries: make(map[string]*domain.SessionSnapshot),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeSessionCache) Set(_ context.Context, key string, snapshot *domain.SessionSnapshot, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = snapshot
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionCache) Get(_ context.Context, key string) (*domain.SessionSnapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeSessionCache) Delete(_ context.Context, key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.entries, key)
	delete(f.ttls, key)
	return nil
}
