package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ultimatepos/activitylog/internal/events"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"go.uber.org/zap"
)

const (
	MaxPageSize    = 500
	publishTimeout = 2 * time.Second
)

// Filters are the structured predicates plus the client-side search term.
type Filters struct {
	repositories.ActivityLogFilter
	SearchTerm string
}

type PageRequest struct {
	PageSize int
	Cursor   string // empty requests the first page
}

type QueryResult struct {
	Records []models.ActivityLog `json:"records"`
	// Cursor fetches the next page; empty when there is none.
	Cursor string `json:"cursor,omitempty"`
	// Total counts records matching the structured filters only.
	Total int64 `json:"total"`
}

// CountCache keeps recent totals. Get resolves key to an entry of the current
// generation; Set stores under an entry returned by Get, never a newer one.
// Invalidate starts a new generation.
type CountCache interface {
	Get(ctx context.Context, key string) (n int64, entry string, ok bool)
	Set(ctx context.Context, entry string, n int64)
	Invalidate(ctx context.Context)
}

type ActivityLogService struct {
	backend   repositories.ActivityLogBackend
	publisher events.Publisher
	counts    CountCache
	stream    string
	hub       *subscriptionHub
	log       *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewActivityLogService wires the store. publisher and counts may be nil.
func NewActivityLogService(
	backend repositories.ActivityLogBackend,
	publisher events.Publisher,
	counts CountCache,
	stream string,
	log *zap.Logger,
) *ActivityLogService {
	if stream == "" {
		stream = events.DefaultActivityLogStream
	}
	s := &ActivityLogService{
		backend:   backend,
		publisher: publisher,
		counts:    counts,
		stream:    stream,
		log:       log,
		now:       time.Now,
		newID:     newRecordID,
	}
	s.hub = newSubscriptionHub(backend, log)
	return s
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Start listens for appended records on the events stream and refreshes the
// live subscriptions that match them. It returns once the listener is set up.
func (s *ActivityLogService) Start(ctx context.Context, subscriber events.Subscriber) error {
	return subscriber.Subscribe(ctx, s.stream, func(event events.Event) {
		if event.Type != events.EventActivityLogAppended {
			return
		}
		if event.Record == nil {
			s.log.Warn("activity log event without a record, refreshing all subscriptions")
		}
		s.hub.notify(event.Record)
	})
}

func (s *ActivityLogService) Append(ctx context.Context, in models.ActivityLogInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	record := in.Record(s.newID(), models.NormalizeTimestamp(ts))

	if err := s.backend.Insert(ctx, &record); err != nil {
		s.log.Error("activity log insert failed", zap.Error(err))
		return "", storageError(err)
	}

	if s.counts != nil {
		s.counts.Invalidate(ctx)
	}
	s.publishAppended(&record)

	return record.ID, nil
}

// publishAppended is best effort: the record is already durable.
func (s *ActivityLogService) publishAppended(record *models.ActivityLog) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, s.stream, events.Event{
		Type:   events.EventActivityLogAppended,
		Record: record,
	})
	if err != nil {
		s.log.Warn("failed to publish activity log event", zap.String("id", record.ID), zap.Error(err))
	}
}

func (s *ActivityLogService) Get(ctx context.Context, id string) (*models.ActivityLog, error) {
	l, err := s.backend.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return l, nil
}

func (s *ActivityLogService) Query(ctx context.Context, f Filters, sort repositories.ActivityLogSort, page PageRequest) (*QueryResult, error) {
	sort = withDefaultSort(sort)
	if err := validateFilters(f, sort); err != nil {
		return nil, err
	}
	if page.PageSize <= 0 || page.PageSize > MaxPageSize {
		return nil, invalidFilter("pageSize must be between 1 and %d", MaxPageSize)
	}

	var after *repositories.Cursor
	if page.Cursor != "" {
		c, err := repositories.DecodeCursor(page.Cursor, sort)
		if err != nil {
			return nil, invalidFilter("cursor does not belong to this query")
		}
		after = c
	}

	// One extra row tells whether another page exists.
	records, err := s.backend.List(ctx, f.ActivityLogFilter, sort, after, page.PageSize+1)
	if err != nil {
		s.log.Error("activity log query failed", zap.Error(err))
		return nil, storageError(err)
	}

	result := &QueryResult{}
	if len(records) > page.PageSize {
		records = records[:page.PageSize]
		result.Cursor = repositories.CursorFor(sort, &records[len(records)-1]).Encode()
	}
	result.Records = refineBySearch(records, f.SearchTerm)

	total, err := s.count(ctx, f.ActivityLogFilter)
	if err != nil {
		s.log.Error("activity log count failed", zap.Error(err))
		return nil, storageError(err)
	}
	result.Total = total

	return result, nil
}

func (s *ActivityLogService) count(ctx context.Context, f repositories.ActivityLogFilter) (int64, error) {
	var entry string
	if s.counts != nil {
		n, e, ok := s.counts.Get(ctx, countKey(f))
		if ok {
			return n, nil
		}
		entry = e
	}
	n, err := s.backend.Count(ctx, f)
	if err != nil {
		return 0, err
	}
	if s.counts != nil && entry != "" {
		s.counts.Set(ctx, entry, n)
	}
	return n, nil
}

// Subscribe starts a live view over the top limit records matching f. The
// initial snapshot and every later refresh are passed to onUpdate from a
// single goroutine. Delivery failures go to onError, which may be nil.
func (s *ActivityLogService) Subscribe(
	f Filters,
	sort repositories.ActivityLogSort,
	limit int,
	onUpdate func([]models.ActivityLog),
	onError func(error),
) (func(), error) {
	sort = withDefaultSort(sort)
	if err := s.CheckSubscription(f, sort, limit); err != nil {
		return nil, err
	}
	if onUpdate == nil {
		return nil, invalidFilter("onUpdate is required")
	}
	return s.hub.add(f, sort, limit, onUpdate, onError), nil
}

// CheckSubscription reports whether Subscribe would accept the view, without
// starting it.
func (s *ActivityLogService) CheckSubscription(f Filters, sort repositories.ActivityLogSort, limit int) error {
	if err := validateFilters(f, withDefaultSort(sort)); err != nil {
		return err
	}
	if limit <= 0 || limit > MaxPageSize {
		return invalidFilter("limit must be between 1 and %d", MaxPageSize)
	}
	return nil
}

// ParseSort maps the field and order strings used by callers. Empty values
// select the default sort.
func ParseSort(field, order string) (repositories.ActivityLogSort, error) {
	sort := repositories.DefaultSort
	if field != "" {
		if !repositories.IsValidSortField(field) {
			return sort, invalidFilter("unknown sort field %q", field)
		}
		sort.Field = field
	}
	switch strings.ToLower(order) {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		return sort, invalidFilter("unknown sort order %q", order)
	}
	return sort, nil
}

func withDefaultSort(s repositories.ActivityLogSort) repositories.ActivityLogSort {
	if s.Field == "" {
		return repositories.DefaultSort
	}
	return s
}

func validateFilters(f Filters, sort repositories.ActivityLogSort) error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return invalidFilter("dateFrom is after dateTo")
	}
	if f.LogCategory != "" && !models.IsValidCategory(f.LogCategory) {
		return invalidFilter("unknown logCategory %q", f.LogCategory)
	}
	if f.Action != "" && !models.IsValidAction(f.Action) {
		return invalidFilter("unknown action %q", f.Action)
	}
	if f.Status != "" && !models.IsValidStatus(f.Status) {
		return invalidFilter("unknown status %q", f.Status)
	}
	if !repositories.IsValidSortField(sort.Field) {
		return invalidFilter("unknown sort field %q", sort.Field)
	}
	return nil
}

func countKey(f repositories.ActivityLogFilter) string {
	ts := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", ts(f.DateFrom), ts(f.DateTo), f.ActorID, f.LogCategory, f.Action, f.Status)
}
