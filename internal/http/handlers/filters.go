package handlers

import (
	"strconv"
	"time"

	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"github.com/ultimatepos/activitylog/internal/services"
)

const dateLayout = "2006-01-02"

// filterParams is the query-string shape shared by the list endpoint and the
// websocket feed.
type filterParams struct {
	DateFrom, DateTo                     string
	ActorID, LogCategory, Action, Status string
	Search, Sort, Order                  string
}

func paramsFromQuery(get func(key string, def ...string) string) filterParams {
	return filterParams{
		DateFrom:    get("dateFrom"),
		DateTo:      get("dateTo"),
		ActorID:     get("actorId"),
		LogCategory: get("logCategory"),
		Action:      get("action"),
		Status:      get("status"),
		Search:      get("search"),
		Sort:        get("sort"),
		Order:       get("order"),
	}
}

func paramsFromMessage(m dto.ActivityLogFilterMessage) filterParams {
	return filterParams{
		DateFrom:    m.DateFrom,
		DateTo:      m.DateTo,
		ActorID:     m.ActorID,
		LogCategory: m.LogCategory,
		Action:      m.Action,
		Status:      m.Status,
		Search:      m.Search,
		Sort:        m.Sort,
		Order:       m.Order,
	}
}

func (p filterParams) parse() (services.Filters, repositories.ActivityLogSort, error) {
	f := services.Filters{
		ActivityLogFilter: repositories.ActivityLogFilter{
			ActorID:     p.ActorID,
			LogCategory: p.LogCategory,
			Action:      p.Action,
			Status:      p.Status,
		},
		SearchTerm: p.Search,
	}

	var err error
	if f.DateFrom, err = parseDate(p.DateFrom, false); err != nil {
		return f, repositories.ActivityLogSort{}, err
	}
	if f.DateTo, err = parseDate(p.DateTo, true); err != nil {
		return f, repositories.ActivityLogSort{}, err
	}

	sort, err := services.ParseSort(p.Sort, p.Order)
	return f, sort, err
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, invalidParam("unparseable date %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}

func parseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalidParam("%q is not a number", s)
	}
	return n, nil
}
