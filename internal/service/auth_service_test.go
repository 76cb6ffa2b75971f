package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

var testDevice = domain.DeviceInfo{
	DeviceID:  "device-1",
	UserAgent: "go-test",
	IPAddress: "127.0.0.1",
}

// authFixture holds the auth service with all ports faked.
type authFixture struct {
	users *fakeUserDirectory
	store *fakeTokenStore
	cache *fakeSessionCache
	svc   *AuthService
	logs  *bytes.Buffer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := HashPassword(testPassword)
	require.NoError(t, err)

	users := &fakeUserDirectory{users: []*domain.User{
		{
			ID:             "user-1",
			Email:          "john@example.com",
			Name:           "John",
			Role:           domain.RoleUser,
			HashedPassword: hash,
		},
	}}
	store := newFakeTokenStore()
	cache := newFakeSessionCache()
	logs := &bytes.Buffer{}
	cfg := testAuthConfig()

	svc := NewAuthService(
		users,
		store,
		cache,
		NewBcryptVerifier(),
		NewTokenService(cfg),
		cfg,
		zerolog.New(logs),
	)

	return &authFixture{users: users, store: store, cache: cache, svc: svc, logs: logs}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), result.ExpiresIn)
	assert.GreaterOrEqual(t, len(result.RefreshToken), 32)

	// Access token verifies against the access secret
	claims, err := NewTokenService(testAuthConfig()).VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.SessionID)

	// Refresh token persisted as a hash
	rec := f.store.records[result.RefreshToken]
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.TokenHash)
	assert.NotEqual(t, result.RefreshToken, rec.TokenHash)
	assert.Equal(t, "device-1", rec.DeviceID)

	// Session snapshot cached under connected_user:{id} with the configured TTL
	key := domain.SessionKey("user-1")
	snapshot := f.cache.entries[key]
	require.NotNil(t, snapshot)
	assert.Equal(t, "john@example.com", snapshot.Email)
	assert.Equal(t, 30*time.Minute, f.cache.ttls[key])
}

func TestLoginErrorUniformity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, "nouser@example.com", "whatever", testDevice)
	_, wrongPassErr := f.svc.Login(ctx, "john@example.com", "wrongpass", testDevice)

	require.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassErr, domain.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

func TestLoginRevokesPriorTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	assert.True(t, f.store.records[first.RefreshToken].Revoked)
	assert.Equal(t, 1, f.store.activeTokensFor("user-1"))
}

func TestLoginRevokeAllFailureDoesNotAbort(t *testing.T) {
	f := newAuthFixture(t)
	f.store.revokeAllErr = errors.New("mongo unavailable")

	result, err := f.svc.Login(context.Background(), "john@example.com", testPassword, testDevice)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Contains(t, f.logs.String(), "failed to revoke previous refresh tokens")
}

func TestLoginPersistenceFailureAborts(t *testing.T) {
	f := newAuthFixture(t)
	f.store.saveErr = errors.New("write concern failed")

	_, err := f.svc.Login(context.Background(), "john@example.com", testPassword, testDevice)
	require.ErrorIs(t, err, domain.ErrTokenPersistence)
}

func TestLoginCacheFailureDoesNotAbort(t *testing.T) {
	f := newAuthFixture(t)
	f.cache.setErr = errors.New("redis connection refused")

	result, err := f.svc.Login(context.Background(), "john@example.com", testPassword, testDevice)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	// The warning carries the user id and the cache error
	logs := f.logs.String()
	assert.Contains(t, logs, "user-1")
	assert.Contains(t, logs, "redis connection refused")
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, f.store.records[login.RefreshToken].Revoked)

	// Single use: presenting the consumed token again must fail
	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	// The replacement still works
	_, err = f.svc.Refresh(ctx, refreshed.RefreshToken, testDevice)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "never-issued", testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRefreshExpiryDistinctFromInvalidity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Expired but not revoked
	expired, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)
	f.store.records[expired.RefreshToken].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = f.svc.Refresh(ctx, expired.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrTokenExpired)

	// Revoked but not expired
	revoked, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)
	_, err = f.store.RevokeByToken(ctx, revoked.RefreshToken, "test")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, revoked.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRefreshLosesConditionalRevokeRace(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	// A concurrent rotation wins the conditional update after this flow's
	// lookup: the record is observed valid, but the revoke matches nothing.
	f.store.forceRevokeMiss = true

	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestRefreshUserGone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	f.users.users = nil

	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogoutUnknownTokenSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	// Must not panic, error or log anything alarming for unknown tokens
	f.svc.Logout(context.Background(), "never-issued", false)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	f.svc.Logout(ctx, login.RefreshToken, false)

	assert.True(t, f.store.records[login.RefreshToken].Revoked)
	assert.Nil(t, f.cache.entries[domain.SessionKey("user-1")])

	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestLogoutAllRevokesEverything(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	f.svc.Logout(ctx, login.RefreshToken, true)

	assert.Equal(t, 0, f.store.activeTokensFor("user-1"))

	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestLogoutSwallowsStoreFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	f.store.revokeErr = errors.New("mongo unavailable")

	// Still returns without error signal of any kind
	f.svc.Logout(ctx, login.RefreshToken, false)
	assert.Contains(t, f.logs.String(), "mongo unavailable")
}

func TestForceLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "john@example.com", testPassword, testDevice)
	require.NoError(t, err)

	require.NoError(t, f.svc.ForceLogout(ctx, "user-1"))

	assert.Equal(t, 0, f.store.activeTokensFor("user-1"))
	assert.Nil(t, f.cache.entries[domain.SessionKey("user-1")])

	_, err = f.svc.Refresh(ctx, login.RefreshToken, testDevice)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}
