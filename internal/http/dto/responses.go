package dto

import "github.com/ultimatepos/activitylog/internal/models"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type AppendActivityLogResponse struct {
	ID string `json:"id"`
}

type ActivityLogPageResponse struct {
	Records []models.ActivityLog `json:"records"`
	Cursor  *string              `json:"cursor"`
	Total   int64                `json:"total"`
}

type ActivityLogMetaResponse struct {
	Actions     []string `json:"actions"`
	Categories  []string `json:"categories"`
	Statuses    []string `json:"statuses"`
	SortFields  []string `json:"sortFields"`
	MaxPageSize int      `json:"maxPageSize"`
}

// FeedMessage is pushed over the live websocket feed.
type FeedMessage struct {
	Type    string               `json:"type"` // snapshot/error
	Seq     uint64               `json:"seq"`
	Records []models.ActivityLog `json:"records,omitempty"`
	Error   string               `json:"error,omitempty"`
}
