package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ultimatepos/activitylog/internal/models"
)

// MemoryActivityLogRepo keeps records in process. Used by tests and the
// memory storage backend.
type MemoryActivityLogRepo struct {
	mu      sync.RWMutex
	entries []models.ActivityLog
	index   map[string]int // id → entry index
	fail    error
}

func NewMemoryActivityLogRepo() *MemoryActivityLogRepo {
	return &MemoryActivityLogRepo{index: make(map[string]int)}
}

// SetFailure makes every subsequent operation return err until it is
// cleared with nil.
func (r *MemoryActivityLogRepo) SetFailure(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func (r *MemoryActivityLogRepo) Insert(_ context.Context, l *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.index[l.ID]; ok {
		return fmt.Errorf("duplicate activity log id %q", l.ID)
	}
	r.index[l.ID] = len(r.entries)
	r.entries = append(r.entries, *l)
	return nil
}

func (r *MemoryActivityLogRepo) GetByID(_ context.Context, id string) (*models.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.fail != nil {
		return nil, r.fail
	}
	i, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	l := r.entries[i]
	return &l, nil
}

func (r *MemoryActivityLogRepo) List(_ context.Context, f ActivityLogFilter, s ActivityLogSort, after *Cursor, limit int) ([]models.ActivityLog, error) {
	r.mu.RLock()
	if r.fail != nil {
		r.mu.RUnlock()
		return nil, r.fail
	}
	var results []models.ActivityLog
	for i := range r.entries {
		if f.Matches(&r.entries[i]) {
			results = append(results, r.entries[i])
		}
	}
	r.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return s.Compare(&results[i], &results[j]) < 0
	})

	if after != nil {
		key := after.key()
		start := sort.Search(len(results), func(i int) bool {
			return s.Compare(&results[i], key) > 0
		})
		results = results[start:]
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *MemoryActivityLogRepo) Count(_ context.Context, f ActivityLogFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.fail != nil {
		return 0, r.fail
	}
	var n int64
	for i := range r.entries {
		if f.Matches(&r.entries[i]) {
			n++
		}
	}
	return n, nil
}
