package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"github.com/ultimatepos/activitylog/internal/services"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// GetActivityLogMeta lists the values the report filters accept.
func (h *MetaHandler) GetActivityLogMeta(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ActivityLogMetaResponse{
		Actions:     models.AllActions,
		Categories:  models.AllCategories,
		Statuses:    models.AllStatuses,
		SortFields:  repositories.SortFields,
		MaxPageSize: services.MaxPageSize,
	}})
}

func (h *MetaHandler) GetExportColumns(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: models.ExportColumns})
}
