package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"go.uber.org/zap"
)

const refreshTimeout = 10 * time.Second

type subscriptionHub struct {
	backend repositories.ActivityLogBackend
	log     *zap.Logger

	mu   sync.RWMutex
	next uint64
	subs map[uint64]*subscription
}

type subscription struct {
	id       uint64
	filters  Filters
	sort     repositories.ActivityLogSort
	limit    int
	onUpdate func([]models.ActivityLog)
	onError  func(error)

	notify  chan struct{}
	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once

	// deliverMu covers the stop check and the callback it admits.
	deliverMu  sync.Mutex
	delivering atomic.Bool
}

func newSubscriptionHub(backend repositories.ActivityLogBackend, log *zap.Logger) *subscriptionHub {
	return &subscriptionHub{
		backend: backend,
		log:     log,
		subs:    make(map[uint64]*subscription),
	}
}

func (h *subscriptionHub) add(
	f Filters,
	sort repositories.ActivityLogSort,
	limit int,
	onUpdate func([]models.ActivityLog),
	onError func(error),
) func() {
	sub := &subscription{
		filters:  f,
		sort:     sort,
		limit:    limit,
		onUpdate: onUpdate,
		onError:  onError,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.next++
	sub.id = h.next
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go h.run(sub)

	return func() {
		sub.once.Do(func() {
			sub.stopped.Store(true)
			close(sub.done)

			h.mu.Lock()
			delete(h.subs, sub.id)
			h.mu.Unlock()
		})
		sub.awaitIdle()
	}
}

// notify wakes every subscription whose structured filters match record. A
// nil record wakes all of them.
func (h *subscriptionHub) notify(record *models.ActivityLog) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if record != nil && !sub.filters.Matches(record) {
			continue
		}
		// Pending wake-ups coalesce into one refresh.
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

func (h *subscriptionHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *subscriptionHub) run(sub *subscription) {
	h.refresh(sub)
	for {
		select {
		case <-sub.done:
			return
		case <-sub.notify:
			h.refresh(sub)
		}
	}
}

func (h *subscriptionHub) refresh(sub *subscription) {
	if sub.stopped.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	records, err := h.backend.List(ctx, sub.filters.ActivityLogFilter, sub.sort, nil, sub.limit)
	cancel()

	if err != nil {
		err = storageError(err)
		h.log.Warn("activity log subscription refresh failed", zap.Uint64("subscription", sub.id), zap.Error(err))
		if sub.onError != nil {
			sub.deliver(func() { sub.onError(err) })
		}
		return
	}

	records = refineBySearch(records, sub.filters.SearchTerm)
	sub.deliver(func() { sub.onUpdate(records) })
}

// deliver runs fn unless the subscription is stopped. A stop that completes
// before the check wins; otherwise fn is admitted and counts as running.
func (sub *subscription) deliver(fn func()) {
	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()
	if sub.stopped.Load() {
		return
	}
	sub.delivering.Store(true)
	defer sub.delivering.Store(false)
	fn()
}

// awaitIdle waits for a delivery that has taken deliverMu but not yet started
// its callback. A callback that is already running is not waited for, since
// the caller may be that callback.
func (sub *subscription) awaitIdle() {
	if sub.delivering.Load() {
		return
	}
	sub.deliverMu.Lock()
	sub.deliverMu.Unlock()
}
