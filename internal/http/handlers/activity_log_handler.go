package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/middleware"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

const defaultPageSize = 25

type ActivityLogHandler struct {
	service *services.ActivityLogService
	log     *zap.Logger
}

func NewActivityLogHandler(service *services.ActivityLogService, log *zap.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{service: service, log: log}
}

func (h *ActivityLogHandler) List(c *fiber.Ctx) error {
	filters, sort, err := paramsFromQuery(c.Query).parse()
	if err != nil {
		return respondError(c, h.log, err)
	}
	pageSize, err := parseInt(c.Query("pageSize"), defaultPageSize)
	if err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.service.Query(c.UserContext(), filters, sort, services.PageRequest{
		PageSize: pageSize,
		Cursor:   c.Query("cursor"),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	page := dto.ActivityLogPageResponse{Records: res.Records, Total: res.Total}
	if page.Records == nil {
		page.Records = []models.ActivityLog{}
	}
	if res.Cursor != "" {
		page.Cursor = &res.Cursor
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: page})
}

func (h *ActivityLogHandler) Get(c *fiber.Ctx) error {
	record, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: record})
}

func (h *ActivityLogHandler) Append(c *fiber.Ctx) error {
	var req dto.AppendActivityLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request", RequestID: middleware.GetRequestID(c)})
	}

	in := models.ActivityLogInput{
		ActorID:     req.ActorID,
		ActorName:   req.ActorName,
		ActorEmail:  req.ActorEmail,
		Action:      req.Action,
		LogCategory: req.LogCategory,
		EntityLabel: req.EntityLabel,
		EntityID:    req.EntityID,
		Status:      req.Status,
		Details:     req.Details,
		Metadata:    req.Metadata,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	// Actor identity is copied from the token at write time.
	if actor := middleware.GetActor(c); actor != nil {
		if in.ActorID == "" {
			in.ActorID = actor.ActorID
		}
		if in.ActorName == "" {
			in.ActorName = actor.Name
		}
		if in.ActorEmail == "" {
			in.ActorEmail = actor.Email
		}
	}

	if in.Metadata == nil {
		in.Metadata = &models.ActivityLogMetadata{}
	}
	if in.Metadata.IPAddress == "" {
		in.Metadata.IPAddress = c.IP()
	}
	if in.Metadata.UserAgent == "" {
		in.Metadata.UserAgent = c.Get(fiber.HeaderUserAgent)
	}

	id, err := h.service.Append(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.AppendActivityLogResponse{ID: id}})
}
