package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/aegis/internal/config"
	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/mansoorceksport/aegis/internal/logger"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// AuthService orchestrates the login, refresh and logout flows over the user
// directory, the refresh token store and the session cache.
type AuthService struct {
	users    domain.UserDirectory
	store    domain.RefreshTokenStore
	cache    domain.SessionCache
	verifier domain.CredentialVerifier
	tokens   *TokenService
	cfg      config.AuthConfig
	log      zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users domain.UserDirectory,
	store domain.RefreshTokenStore,
	cache domain.SessionCache,
	verifier domain.CredentialVerifier,
	tokens *TokenService,
	cfg config.AuthConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		store:    store,
		cache:    cache,
		verifier: verifier,
		tokens:   tokens,
		cfg:      cfg,
		log:      log,
	}
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until the access token expires
}

// Login verifies credentials and issues a fresh token pair. Unknown email and
// wrong password both fail with ErrInvalidCredentials so callers cannot
// enumerate accounts. Previous refresh tokens are revoked best-effort; a
// failure there leaves stale tokens to age out but never blocks the login.
func (s *AuthService) Login(ctx context.Context, email, password string, device domain.DeviceInfo) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if !s.verifier.Compare(user.HashedPassword, password) {
		return nil, domain.ErrInvalidCredentials
	}

	// Revoke on login: concurrent logins can race here, one session's token
	// getting revoked by the other. Accepted tradeoff of the policy.
	if err := s.store.RevokeAllByUserID(ctx, user.ID, "superseded by new login"); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to revoke previous refresh tokens")
	}

	result, err := s.issueTokens(ctx, user, device)
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, user, device)

	logger.Audit(s.log, "login").
		Str("user_id", user.ID).
		Str("ip", device.IPAddress).
		Msg("user logged in")

	return result, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Once rotated, the old token never validates again, even if
// persisting the replacement fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, device domain.DeviceInfo) (*AuthResult, error) {
	rec, err := s.store.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token lookup failed: %w", err)
	}
	if rec == nil || rec.Revoked {
		return nil, domain.ErrInvalidRefreshToken
	}
	if rec.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	rotated, err := s.store.RevokeByToken(ctx, refreshToken, "rotated")
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to revoke rotated refresh token")
	} else if !rotated {
		// A concurrent refresh won the conditional revoke; this one loses.
		return nil, domain.ErrInvalidRefreshToken
	}

	result, err := s.issueTokens(ctx, user, device)
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, user, device)

	logger.Audit(s.log, "refresh").
		Str("user_id", user.ID).
		Str("ip", device.IPAddress).
		Msg("token pair rotated")

	return result, nil
}

// Logout revokes the presented token, or all of the owner's tokens when all
// is set. It never reports failure: a logout endpoint must not leak whether
// the token was valid.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, all bool) {
	rec, err := s.store.FindByToken(ctx, refreshToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("logout: refresh token lookup failed")
	}

	if all && rec != nil {
		if err := s.store.RevokeAllByUserID(ctx, rec.UserID, "logout all"); err != nil {
			s.log.Warn().Err(err).Str("user_id", rec.UserID).Msg("logout: failed to revoke user tokens")
		}
	} else {
		if _, err := s.store.RevokeByToken(ctx, refreshToken, "logout"); err != nil {
			s.log.Warn().Err(err).Msg("logout: failed to revoke refresh token")
		}
	}

	if rec != nil {
		if err := s.cache.Delete(ctx, domain.SessionKey(rec.UserID)); err != nil {
			s.log.Warn().Err(err).Str("user_id", rec.UserID).Msg("logout: failed to drop session snapshot")
		}
		logger.Audit(s.log, "logout").
			Str("user_id", rec.UserID).
			Bool("all", all).
			Msg("user logged out")
	}
}

// ForceLogout revokes every refresh token for a user and drops their session
// snapshot. Administrative operation.
func (s *AuthService) ForceLogout(ctx context.Context, userID string) error {
	if err := s.store.RevokeAllByUserID(ctx, userID, "revoked by administrator"); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	if err := s.cache.Delete(ctx, domain.SessionKey(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to drop session snapshot")
	}

	logger.Audit(s.log, "force_logout").
		Str("user_id", userID).
		Msg("all sessions revoked by administrator")

	return nil
}

// issueTokens signs an access token, generates a refresh token and persists
// its record. A persistence failure aborts the flow: an unpersisted refresh
// token would be a dangling credential.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, device domain.DeviceInfo) (*AuthResult, error) {
	sessionID := ulid.Make().String()

	accessToken, err := s.tokens.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.RefreshTokenTTL)
	if _, err := s.store.Save(ctx, refreshToken, user.ID, device, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenPersistence, err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// cacheSession writes the connected-user snapshot. Best-effort: the cache is
// never authoritative, so failures are logged and swallowed.
func (s *AuthService) cacheSession(ctx context.Context, user *domain.User, device domain.DeviceInfo) {
	snapshot := &domain.SessionSnapshot{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		ConnectedAt: time.Now(),
		UserAgent:   device.UserAgent,
		IPAddress:   device.IPAddress,
	}

	if err := s.cache.Set(ctx, domain.SessionKey(user.ID), snapshot, s.cfg.SessionCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to cache session snapshot")
	}
}
