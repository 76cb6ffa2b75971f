package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/mansoorceksport/aegis/internal/middleware"
	"github.com/mansoorceksport/aegis/internal/service"
)

const refreshCookieName = "aegis-refresh-token"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth       *service.AuthService
	refreshTTL time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		refreshTTL: refreshTTL,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and password are required",
		})
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password, h.deviceInfo(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": domain.ErrInvalidCredentials.Error(),
			})
		}
		// No internal detail leaves the service, persistence errors included.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to log in",
		})
	}

	h.setRefreshCookie(c, result.RefreshToken)

	return c.JSON(fiber.Map{
		"token":      result.AccessToken,
		"expires_in": result.ExpiresIn,
		"user": fiber.Map{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
			"role":  result.User.Role,
		},
	})
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		var req refreshRequest
		_ = c.BodyParser(&req)
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "no refresh token provided",
		})
	}

	result, err := h.auth.Refresh(c.UserContext(), refreshToken, h.deviceInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearRefreshCookie(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": domain.ErrTokenExpired.Error(),
			})
		case errors.Is(err, domain.ErrInvalidRefreshToken), errors.Is(err, domain.ErrUserNotFound):
			h.clearRefreshCookie(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": domain.ErrInvalidRefreshToken.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to refresh tokens",
			})
		}
	}

	h.setRefreshCookie(c, result.RefreshToken)

	return c.JSON(fiber.Map{
		"token":      result.AccessToken,
		"expires_in": result.ExpiresIn,
		"user": fiber.Map{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
			"role":  result.User.Role,
		},
	})
}

// Logout handles POST /v1/auth/logout. Always reports success.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req logoutRequest
	_ = c.BodyParser(&req)

	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		refreshToken = req.RefreshToken
	}

	if refreshToken != "" {
		h.auth.Logout(c.UserContext(), refreshToken, req.All)
	}

	h.clearRefreshCookie(c)

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"id":         c.Locals(middleware.UserIDKey),
		"email":      c.Locals(middleware.UserEmailKey),
		"role":       c.Locals(middleware.UserRoleKey),
		"session_id": c.Locals(middleware.SessionIDKey),
	})
}

// RevokeUser handles POST /v1/auth/revoke/:userID (admin force-logout)
func (h *AuthHandler) RevokeUser(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userID is required",
		})
	}

	if err := h.auth.ForceLogout(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to revoke user sessions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (h *AuthHandler) deviceInfo(c *fiber.Ctx) domain.DeviceInfo {
	return domain.DeviceInfo{
		DeviceID:  c.Get("X-Device-Id"),
		UserAgent: c.Get("User-Agent"),
		IPAddress: c.IP(),
	}
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: "Lax",
		Path:     "/",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		Path:     "/",
	})
}
