package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/ultimatepos/activitylog/internal/config"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/http/handlers"
	"github.com/ultimatepos/activitylog/internal/middleware"
	"go.uber.org/zap"
)

// NewApp returns a fiber app with the JSON error handler used by every route.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)})
		},
	})
}

// SetupRouter mounts the activity log API. rdb may be nil, which disables
// rate limiting.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	activityLogHandler *handlers.ActivityLogHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))
	api.Use(middleware.ActorMiddleware(cfg.JWTSecret, log))

	// Meta
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/activity-log", metaHandler.GetActivityLogMeta)
	api.Get("/meta/activity-log/export-columns", metaHandler.GetExportColumns)

	// Activity logs
	api.Get("/activity-logs", activityLogHandler.List)
	api.Get("/activity-logs/:id", activityLogHandler.Get)
	api.Post("/activity-logs", activityLogHandler.Append)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/activity-logs", websocket.New(wsHub.HandleWS))
}
