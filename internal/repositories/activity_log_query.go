package repositories

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ultimatepos/activitylog/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Sortable fields
const (
	SortTimestamp   = "timestamp"
	SortActorID     = "actorId"
	SortLogCategory = "logCategory"
	SortAction      = "action"
	SortStatus      = "status"
)

var SortFields = []string{SortTimestamp, SortActorID, SortLogCategory, SortAction, SortStatus}

func IsValidSortField(f string) bool {
	for _, s := range SortFields {
		if s == f {
			return true
		}
	}
	return false
}

// ActivityLogFilter holds the structured predicates. Empty fields are not
// applied; present ones are ANDed. The date range is inclusive.
type ActivityLogFilter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	ActorID     string
	LogCategory string
	Action      string
	Status      string
}

func (f ActivityLogFilter) Matches(l *models.ActivityLog) bool {
	if f.DateFrom != nil && l.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && l.Timestamp.After(*f.DateTo) {
		return false
	}
	if f.ActorID != "" && l.ActorID != f.ActorID {
		return false
	}
	if f.LogCategory != "" && l.LogCategory != f.LogCategory {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	return true
}

type ActivityLogSort struct {
	Field string
	Desc  bool
}

var DefaultSort = ActivityLogSort{Field: SortTimestamp, Desc: true}

// Compare orders a before b under s. Ties on the sort field fall back to id
// in the same direction so the order is total.
func (s ActivityLogSort) Compare(a, b *models.ActivityLog) int {
	c := compareField(s.Field, a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if s.Desc {
		return -c
	}
	return c
}

func compareField(field string, a, b *models.ActivityLog) int {
	switch field {
	case SortActorID:
		return strings.Compare(a.ActorID, b.ActorID)
	case SortLogCategory:
		return strings.Compare(a.LogCategory, b.LogCategory)
	case SortAction:
		return strings.Compare(a.Action, b.Action)
	case SortStatus:
		return strings.Compare(a.Status, b.Status)
	default:
		return a.Timestamp.Compare(b.Timestamp)
	}
}

// Cursor is the keyset position of the last record of a page.
type Cursor struct {
	Field string    `json:"f"`
	Desc  bool      `json:"d"`
	Value string    `json:"v,omitempty"`
	Time  time.Time `json:"t,omitempty"`
	ID    string    `json:"id"`
}

func CursorFor(s ActivityLogSort, l *models.ActivityLog) Cursor {
	c := Cursor{Field: s.Field, Desc: s.Desc, ID: l.ID}
	switch s.Field {
	case SortTimestamp:
		c.Time = l.Timestamp
	case SortActorID:
		c.Value = l.ActorID
	case SortLogCategory:
		c.Value = l.LogCategory
	case SortAction:
		c.Value = l.Action
	case SortStatus:
		c.Value = l.Status
	}
	return c
}

// key returns a record carrying the cursor position so it can be compared
// with Compare.
func (c Cursor) key() *models.ActivityLog {
	k := &models.ActivityLog{ID: c.ID, Timestamp: c.Time}
	switch c.Field {
	case SortActorID:
		k.ActorID = c.Value
	case SortLogCategory:
		k.LogCategory = c.Value
	case SortAction:
		k.Action = c.Value
	case SortStatus:
		k.Status = c.Value
	}
	return k
}

// SortValue is the cursor's position on the sort field.
func (c Cursor) SortValue() any {
	if c.Field == SortTimestamp {
		return c.Time
	}
	return c.Value
}

func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by Encode and checks that it was
// issued for the given sort.
func DecodeCursor(token string, s ActivityLogSort) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ID == "" || c.Field != s.Field || c.Desc != s.Desc {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
