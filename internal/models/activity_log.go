package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Actions
const (
	ActionCreate     = "Create"
	ActionUpdate     = "Update"
	ActionDelete     = "Delete"
	ActionActivate   = "Activate"
	ActionDeactivate = "Deactivate"
	ActionApprove    = "Approve"
	ActionDecline    = "Decline"
)

// Log categories
const (
	CategoryPackages   = "Packages"
	CategoryBusinesses = "Businesses"
	CategoryPayments   = "Payments"
	CategorySettings   = "Settings"
	CategoryEmails     = "Emails"
)

// Statuses
const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
	StatusPending = "Pending"
	StatusInfo    = "Info"
)

var (
	AllActions    = []string{ActionCreate, ActionUpdate, ActionDelete, ActionActivate, ActionDeactivate, ActionApprove, ActionDecline}
	AllCategories = []string{CategoryPackages, CategoryBusinesses, CategoryPayments, CategorySettings, CategoryEmails}
	AllStatuses   = []string{StatusSuccess, StatusFailed, StatusPending, StatusInfo}
)

func IsValidAction(s string) bool   { return contains(AllActions, s) }
func IsValidCategory(s string) bool { return contains(AllCategories, s) }
func IsValidStatus(s string) bool   { return contains(AllStatuses, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ActivityLogMetadata is display-only context. Before/after snapshots are
// stored as given and never interpreted.
type ActivityLogMetadata struct {
	IPAddress   string `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent   string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	BeforeState any    `json:"beforeState,omitempty" bson:"beforeState,omitempty"`
	AfterState  any    `json:"afterState,omitempty" bson:"afterState,omitempty"`
}

// ActivityLog is immutable once appended. Actor fields are copied at write
// time and are never re-joined against the user record.
type ActivityLog struct {
	ID          string               `json:"id" bson:"_id"`
	Timestamp   time.Time            `json:"timestamp" bson:"timestamp"`
	ActorID     string               `json:"actorId" bson:"actorId"`
	ActorName   string               `json:"actorName" bson:"actorName"`
	ActorEmail  string               `json:"actorEmail" bson:"actorEmail"`
	Action      string               `json:"action" bson:"action"`
	LogCategory string               `json:"logCategory" bson:"logCategory"`
	EntityLabel string               `json:"entityLabel" bson:"entityLabel"`
	EntityID    string               `json:"entityId" bson:"entityId"`
	Status      string               `json:"status" bson:"status"`
	Details     string               `json:"details" bson:"details"`
	Metadata    *ActivityLogMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// ActivityLogInput is everything the caller supplies on append. A zero
// Timestamp means "now".
type ActivityLogInput struct {
	Timestamp   time.Time            `json:"timestamp"`
	ActorID     string               `json:"actorId"`
	ActorName   string               `json:"actorName"`
	ActorEmail  string               `json:"actorEmail"`
	Action      string               `json:"action"`
	LogCategory string               `json:"logCategory"`
	EntityLabel string               `json:"entityLabel"`
	EntityID    string               `json:"entityId"`
	Status      string               `json:"status"`
	Details     string               `json:"details"`
	Metadata    *ActivityLogMetadata `json:"metadata,omitempty"`
}

var ErrInvalidInput = errors.New("invalid activity log input")

func (in ActivityLogInput) Validate() error {
	if strings.TrimSpace(in.ActorID) == "" {
		return fmt.Errorf("%w: actorId is required", ErrInvalidInput)
	}
	if !IsValidAction(in.Action) {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, in.Action)
	}
	if !IsValidCategory(in.LogCategory) {
		return fmt.Errorf("%w: unknown logCategory %q", ErrInvalidInput, in.LogCategory)
	}
	if !IsValidStatus(in.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	return nil
}

// Record builds the stored record from the input.
func (in ActivityLogInput) Record(id string, ts time.Time) ActivityLog {
	return ActivityLog{
		ID:          id,
		Timestamp:   ts,
		ActorID:     in.ActorID,
		ActorName:   in.ActorName,
		ActorEmail:  in.ActorEmail,
		Action:      in.Action,
		LogCategory: in.LogCategory,
		EntityLabel: in.EntityLabel,
		EntityID:    in.EntityID,
		Status:      in.Status,
		Details:     in.Details,
		Metadata:    in.Metadata,
	}
}

// NormalizeTimestamp truncates to millisecond precision in UTC, the finest
// resolution every backend stores losslessly.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ExportColumns are the stable field names of ExportRow, in order.
var ExportColumns = []string{
	"id", "timestamp", "actorId", "actorName", "actorEmail", "action",
	"logCategory", "entityLabel", "entityId", "status", "details",
	"ipAddress", "userAgent",
}

// ExportRow flattens the record for tabular writers. Values are not formatted.
func (l ActivityLog) ExportRow() []any {
	var ip, ua string
	if l.Metadata != nil {
		ip, ua = l.Metadata.IPAddress, l.Metadata.UserAgent
	}
	return []any{
		l.ID, l.Timestamp, l.ActorID, l.ActorName, l.ActorEmail, l.Action,
		l.LogCategory, l.EntityLabel, l.EntityID, l.Status, l.Details,
		ip, ua,
	}
}
