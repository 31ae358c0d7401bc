package dto

import (
	"time"

	"github.com/ultimatepos/activitylog/internal/models"
)

// AppendActivityLogRequest mirrors models.ActivityLogInput. Actor fields may
// be left empty when the request carries a bearer token.
type AppendActivityLogRequest struct {
	Timestamp   *time.Time                  `json:"timestamp,omitempty"`
	ActorID     string                      `json:"actorId"`
	ActorName   string                      `json:"actorName"`
	ActorEmail  string                      `json:"actorEmail"`
	Action      string                      `json:"action"`
	LogCategory string                      `json:"logCategory"`
	EntityLabel string                      `json:"entityLabel"`
	EntityID    string                      `json:"entityId"`
	Status      string                      `json:"status"`
	Details     string                      `json:"details"`
	Metadata    *models.ActivityLogMetadata `json:"metadata,omitempty"`
}

// ActivityLogFilterMessage replaces the filters of a live websocket feed.
type ActivityLogFilterMessage struct {
	Type        string `json:"type"` // "filters"
	DateFrom    string `json:"dateFrom,omitempty"`
	DateTo      string `json:"dateTo,omitempty"`
	ActorID     string `json:"actorId,omitempty"`
	LogCategory string `json:"logCategory,omitempty"`
	Action      string `json:"action,omitempty"`
	Status      string `json:"status,omitempty"`
	Search      string `json:"search,omitempty"`
	Sort        string `json:"sort,omitempty"`
	Order       string `json:"order,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}
