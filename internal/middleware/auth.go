package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/mansoorceksport/aegis/internal/service"
	"github.com/rs/zerolog"
)

// Context keys for storing the resolved identity
const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	UserRoleKey  = "userRole"
	SessionIDKey = "sessionID"
)

// Authenticate is the per-request authentication boundary. It verifies the
// access token, resolves the session (cache first, directory on miss) and
// attaches the identity to the request context. Fail-closed: any verification
// or resolution failure rejects the request.
func Authenticate(
	tokens *service.TokenService,
	cache domain.SessionCache,
	users domain.UserDirectory,
	sessionTTL time.Duration,
	log zerolog.Logger,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}

		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Str("reason", "token_invalid").Msg("request rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		ctx := c.UserContext()
		userID := claims.Subject

		// Cache trouble never blocks authentication; a miss or an error just
		// means asking the directory.
		snapshot, err := cache.Get(ctx, domain.SessionKey(userID))
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("session cache read failed")
			snapshot = nil
		}

		if snapshot == nil {
			user, err := users.FindByID(ctx, userID)
			if err != nil {
				log.Debug().Err(err).Str("user_id", userID).Str("reason", "session_not_found").Msg("request rejected")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Session not found",
				})
			}
			snapshot = &domain.SessionSnapshot{
				UserID:      user.ID,
				Email:       user.Email,
				Name:        user.Name,
				Role:        user.Role,
				ConnectedAt: time.Now(),
				UserAgent:   c.Get("User-Agent"),
				IPAddress:   c.IP(),
			}
		}

		// Sliding expiration on the cache entry only. Token validity is
		// untouched.
		if err := cache.Set(ctx, domain.SessionKey(userID), snapshot, sessionTTL); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("session cache refresh failed")
		}

		// Identity comes from the verified claims; the snapshot is never
		// authoritative for authorization.
		c.Locals(UserIDKey, userID)
		c.Locals(UserEmailKey, claims.Email)
		c.Locals(UserRoleKey, claims.Role)
		c.Locals(SessionIDKey, claims.SessionID)

		return c.Next()
	}
}

// RequireRole checks if the authenticated user has one of the allowed roles
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(UserRoleKey).(string)
		if !ok || role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No role found in token",
			})
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          "Insufficient permissions",
			"required_roles": allowedRoles,
		})
	}
}
