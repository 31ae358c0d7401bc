package middleware

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/ultimatepos/activitylog/internal/auth"
	"go.uber.org/zap"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(ActorMiddleware("secret", zap.NewNop()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(actor.ActorID)
	})
	return app
}

func body(t *testing.T, app *fiber.App, header map[string]string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf.String(), res.Header.Get("X-Request-ID")
}

func TestActorMiddleware(t *testing.T) {
	app := newApp()

	status, text, _ := body(t, app, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "anonymous", text)

	token, err := auth.GenerateJWT("secret", auth.Claims{ActorID: "sa-1"}, time.Hour)
	require.NoError(t, err)
	status, text, _ = body(t, app, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "sa-1", text)

	status, _, _ = body(t, app, map[string]string{"Authorization": token})
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _, _ = body(t, app, map[string]string{"Authorization": "Bearer nope"})
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequestID(t *testing.T) {
	app := newApp()

	_, _, id := body(t, app, map[string]string{"X-Request-ID": "req-123"})
	require.Equal(t, "req-123", id)

	_, _, id = body(t, app, map[string]string{"X-Request-ID": strings.Repeat("x", 100)})
	require.Len(t, id, 36)

	_, _, id = body(t, app, nil)
	require.NotEmpty(t, id)
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimitMiddleware(nil, 1, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 3; i++ {
		res, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, res.StatusCode)
	}
}
