package repositories

import (
	"context"

	"github.com/ultimatepos/activitylog/internal/models"
)

// ActivityLogBackend is the storage contract shared by the postgres, mongo
// and in-memory repositories. It exposes no update or delete.
type ActivityLogBackend interface {
	Insert(ctx context.Context, l *models.ActivityLog) error
	GetByID(ctx context.Context, id string) (*models.ActivityLog, error)
	// List returns up to limit records matching f ordered by s, starting
	// strictly after the cursor position when after is non-nil.
	List(ctx context.Context, f ActivityLogFilter, s ActivityLogSort, after *Cursor, limit int) ([]models.ActivityLog, error)
	Count(ctx context.Context, f ActivityLogFilter) (int64, error)
}
