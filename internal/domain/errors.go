package domain

import "errors"

// Common errors
var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password. The two cases must stay indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRefreshToken covers a refresh token that is absent or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrTokenExpired covers a refresh token that exists but is past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrUserNotFound means a refresh token outlived its owning user.
	ErrUserNotFound = errors.New("user no longer exists")

	// ErrTokenPersistence means a newly issued refresh token could not be
	// durably stored. Always fatal to the issuing flow.
	ErrTokenPersistence = errors.New("failed to persist refresh token")

	// ErrUnauthorized is the request-time rejection: access token missing,
	// invalid, expired, or the session could not be resolved.
	ErrUnauthorized = errors.New("unauthorized")
)
