package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ultimatepos/activitylog/internal/auth"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"go.uber.org/zap"
)

const CtxActor = "actor"

// ActorMiddleware resolves the bearer token, when one is sent, into the
// acting user. Requests without a token pass through anonymously; a token
// that does not verify is rejected.
func ActorMiddleware(jwtSecret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format", RequestID: GetRequestID(c)})
		}

		claims, err := auth.ParseJWT(jwtSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token", RequestID: GetRequestID(c)})
		}

		c.Locals(CtxActor, claims)
		return c.Next()
	}
}

// GetActor returns the caller's claims, or nil for anonymous requests.
func GetActor(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(CtxActor).(*auth.Claims)
	return claims
}
