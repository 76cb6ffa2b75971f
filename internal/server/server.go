package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/aegis/internal/config"
	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/mansoorceksport/aegis/internal/handler"
	"github.com/mansoorceksport/aegis/internal/middleware"
	"github.com/mansoorceksport/aegis/internal/repository"
	"github.com/mansoorceksport/aegis/internal/service"
	"github.com/mansoorceksport/aegis/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	log := deps.Logger

	// Repositories
	userDirectory := repository.NewMongoUserDirectory(deps.MongoDB)
	tokenStore := repository.NewMongoRefreshTokenStore(deps.MongoDB)
	sessionCache := repository.NewRedisSessionCache(deps.RedisClient)

	// Services
	tokenService := service.NewTokenService(deps.Config.Auth)
	verifier := service.NewBcryptVerifier()
	authService := service.NewAuthService(
		userDirectory,
		tokenStore,
		sessionCache,
		verifier,
		tokenService,
		deps.Config.Auth,
		log,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, deps.Config.Auth.RefreshTokenTTL)

	app := fiber.New(fiber.Config{
		AppName:      "Aegis Auth API",
		ErrorHandler: newErrorHandler(log),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Device-Id",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "aegis-auth",
		})
	})

	authenticated := middleware.Authenticate(
		tokenService,
		sessionCache,
		userDirectory,
		deps.Config.Auth.SessionCacheTTL,
		log,
	)

	// API v1 routes
	v1 := app.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)

	auth.Get("/me", authenticated, authHandler.Me)
	auth.Post("/revoke/:userID", authenticated, middleware.RequireRole(domain.RoleAdmin), authHandler.RevokeUser)

	return app
}

func newErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
