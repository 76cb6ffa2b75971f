package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/aegis/internal/config"
	"github.com/mansoorceksport/aegis/internal/domain"
)

// TokenService is the stateless token codec: it signs and verifies access
// tokens and generates opaque refresh token strings. It never touches storage.
type TokenService struct {
	cfg config.AuthConfig
}

// NewTokenService creates a new token service
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// GenerateAccessToken creates a short-lived HS256 JWT carrying the user's
// identity, role and session id. The user id travels in the Subject claim.
func (s *TokenService) GenerateAccessToken(user *domain.User, sessionID string) (string, error) {
	now := time.Now()
	claims := domain.AccessClaims{
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		TokenType: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken creates an opaque 64-character hex string from 32
// CSPRNG bytes. Validity is determined solely by the stored record, so the
// token carries no claims and is not derived from any secret.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyAccessToken parses and validates an access token against the access
// secret. Any failure (bad signature, malformed, expired, wrong type claim)
// surfaces as ErrUnauthorized.
func (s *TokenService) VerifyAccessToken(tokenString string) (*domain.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*domain.AccessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthorized)
	}
	if claims.TokenType != domain.TokenTypeAccess {
		return nil, fmt.Errorf("%w: unexpected token type %q", domain.ErrUnauthorized, claims.TokenType)
	}
	return claims, nil
}
