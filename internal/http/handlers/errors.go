package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/middleware"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidFilter), errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case fiber.StatusServiceUnavailable:
		msg = "activity log storage unavailable"
	case fiber.StatusInternalServerError:
		log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
		msg = "internal error"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidFilter, fmt.Sprintf(format, args...))
}
