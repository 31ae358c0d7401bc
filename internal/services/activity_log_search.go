package services

import (
	"strings"
	"sync/atomic"

	"github.com/ultimatepos/activitylog/internal/models"
)

// MatchesSearch reports whether term occurs, ignoring case, in the entity
// label, details, actor name or action. An empty term matches everything.
func MatchesSearch(l *models.ActivityLog, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{l.EntityLabel, l.Details, l.ActorName, l.Action} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// refineBySearch returns a new slice; the input is left untouched.
func refineBySearch(records []models.ActivityLog, term string) []models.ActivityLog {
	out := make([]models.ActivityLog, 0, len(records))
	for i := range records {
		if MatchesSearch(&records[i], term) {
			out = append(out, records[i])
		}
	}
	return out
}

// Sequencer tags in-flight requests so a caller can drop responses that were
// superseded by a newer request.
type Sequencer struct {
	cur atomic.Uint64
}

func (s *Sequencer) Next() uint64 {
	return s.cur.Add(1)
}

func (s *Sequencer) IsLatest(tag uint64) bool {
	return s.cur.Load() == tag
}
