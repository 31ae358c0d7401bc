package events

import (
	"context"

	"github.com/ultimatepos/activitylog/internal/models"
)

// Event types
const (
	EventActivityLogAppended = "activity_log.appended"
)

const DefaultActivityLogStream = "events:activity_log"

// Event is the message carried on an activity log stream. Record is set for
// EventActivityLogAppended.
type Event struct {
	Type   string              `json:"type"`
	Record *models.ActivityLog `json:"record,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

// Subscriber delivers events to handler until ctx is cancelled. Handlers for
// one subscription are called sequentially.
type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
