package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/ultimatepos/activitylog/internal/auth"
	"github.com/ultimatepos/activitylog/internal/config"
	"github.com/ultimatepos/activitylog/internal/events"
	"github.com/ultimatepos/activitylog/internal/http/handlers"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testEnv struct {
	app  *fiber.App
	repo *repositories.MemoryActivityLogRepo
	svc  *services.ActivityLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{JWTSecret: testSecret}

	repo := repositories.NewMemoryActivityLogRepo()
	bus := events.NewLocalBus(log)
	svc := services.NewActivityLogService(repo, bus, nil, "", log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, svc.Start(ctx, bus))

	app := NewApp()
	SetupRouter(app, cfg, log, nil, handlers.NewActivityLogHandler(svc, log), handlers.NewWSHub(svc, log))
	return &testEnv{app: app, repo: repo, svc: svc}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return res.StatusCode, env
}

func (e *testEnv) seed(t *testing.T, ts time.Time, category, status string) string {
	t.Helper()
	id, err := e.svc.Append(context.Background(), models.ActivityLogInput{
		Timestamp:   ts,
		ActorID:     "admin-1",
		ActorName:   "Root",
		Action:      models.ActionActivate,
		LogCategory: category,
		EntityLabel: "Harbor Mart",
		Status:      status,
	})
	require.NoError(t, err)
	return id
}

func TestAppendUsesTokenIdentity(t *testing.T) {
	env := newTestEnv(t)
	token, err := auth.GenerateJWT(testSecret, auth.Claims{ActorID: "sa-9", Name: "Sam Super", Email: "sam@example.com"}, time.Hour)
	require.NoError(t, err)

	status, res := env.do(t, fiber.MethodPost, "/api/v1/activity-logs", map[string]any{
		"action":      models.ActionApprove,
		"logCategory": models.CategoryBusinesses,
		"status":      models.StatusSuccess,
		"entityLabel": "Harbor Mart",
		"metadata":    map[string]any{"beforeState": map[string]any{"approved": false}},
	}, token)
	require.Equal(t, fiber.StatusCreated, status, res.Error)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &created))

	status, res = env.do(t, fiber.MethodGet, "/api/v1/activity-logs/"+created.ID, nil, "")
	require.Equal(t, fiber.StatusOK, status)

	var record models.ActivityLog
	require.NoError(t, json.Unmarshal(res.Data, &record))
	require.Equal(t, "sa-9", record.ActorID)
	require.Equal(t, "Sam Super", record.ActorName)
	require.Equal(t, "sam@example.com", record.ActorEmail)
	require.NotNil(t, record.Metadata)
	require.Equal(t, map[string]any{"approved": false}, record.Metadata.BeforeState)
}

func TestAppendRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, fiber.MethodPost, "/api/v1/activity-logs", map[string]any{}, "garbage")
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAppendValidation(t *testing.T) {
	env := newTestEnv(t)
	status, res := env.do(t, fiber.MethodPost, "/api/v1/activity-logs", map[string]any{
		"actorId":     "a",
		"action":      "Explode",
		"logCategory": models.CategoryEmails,
		"status":      models.StatusInfo,
	}, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, res.Error, "Explode")
}

func TestListFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	var payments []string
	for i := 0; i < 5; i++ {
		payments = append(payments, env.seed(t, base.Add(time.Duration(i)*time.Minute), models.CategoryPayments, models.StatusSuccess))
		env.seed(t, base.Add(time.Duration(i)*time.Minute), models.CategorySettings, models.StatusFailed)
	}

	type page struct {
		Records []models.ActivityLog `json:"records"`
		Cursor  *string              `json:"cursor"`
		Total   int64                `json:"total"`
	}

	var got []string
	path := "/api/v1/activity-logs?logCategory=Payments&pageSize=2&order=asc"
	for i := 0; i < 5; i++ {
		status, res := env.do(t, fiber.MethodGet, path, nil, "")
		require.Equal(t, fiber.StatusOK, status, res.Error)
		var p page
		require.NoError(t, json.Unmarshal(res.Data, &p))
		require.EqualValues(t, 5, p.Total)
		for _, r := range p.Records {
			got = append(got, r.ID)
		}
		if p.Cursor == nil {
			break
		}
		path = "/api/v1/activity-logs?logCategory=Payments&pageSize=2&order=asc&cursor=" + *p.Cursor
	}
	require.Equal(t, payments, got)
}

func TestListDateOnlyRangeIsInclusive(t *testing.T) {
	env := newTestEnv(t)
	id := env.seed(t, time.Date(2026, 6, 2, 23, 30, 0, 0, time.UTC), models.CategoryEmails, models.StatusInfo)
	env.seed(t, time.Date(2026, 6, 3, 0, 0, 1, 0, time.UTC), models.CategoryEmails, models.StatusInfo)

	status, res := env.do(t, fiber.MethodGet, "/api/v1/activity-logs?dateFrom=2026-06-02&dateTo=2026-06-02", nil, "")
	require.Equal(t, fiber.StatusOK, status)

	var p struct {
		Records []models.ActivityLog `json:"records"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &p))
	require.Len(t, p.Records, 1)
	require.Equal(t, id, p.Records[0].ID)
}

func TestListErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"inverted range", "/api/v1/activity-logs?dateFrom=2026-02-01&dateTo=2026-01-01", fiber.StatusBadRequest},
		{"bad date", "/api/v1/activity-logs?dateFrom=yesterday", fiber.StatusBadRequest},
		{"zero page size", "/api/v1/activity-logs?pageSize=0", fiber.StatusBadRequest},
		{"bad sort", "/api/v1/activity-logs?sort=details", fiber.StatusBadRequest},
		{"bad category", "/api/v1/activity-logs?logCategory=Taxes", fiber.StatusBadRequest},
		{"missing record", "/api/v1/activity-logs/nope", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := env.do(t, fiber.MethodGet, tt.path, nil, "")
			require.Equal(t, tt.status, status)
			require.False(t, res.OK)
			require.NotEmpty(t, res.Error)
		})
	}
}

func TestListStorageUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.repo.SetFailure(errors.New("dial tcp: connection refused"))

	status, res := env.do(t, fiber.MethodGet, "/api/v1/activity-logs", nil, "")
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.NotContains(t, res.Error, "dial tcp")
}

func TestActivityLogMeta(t *testing.T) {
	env := newTestEnv(t)
	status, res := env.do(t, fiber.MethodGet, "/api/v1/meta/activity-log", nil, "")
	require.Equal(t, fiber.StatusOK, status)

	var meta struct {
		Actions    []string `json:"actions"`
		Categories []string `json:"categories"`
		Statuses   []string `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &meta))
	require.Equal(t, models.AllActions, meta.Actions)
	require.Equal(t, models.AllCategories, meta.Categories)
	require.Equal(t, models.AllStatuses, meta.Statuses)
}
