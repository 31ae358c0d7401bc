package http

import (
	"net"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/require"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/models"
)

func (e *testEnv) serve(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.ShutdownWithTimeout(time.Second) })
	return "ws://" + ln.Addr().String() + "/ws/activity-logs"
}

func dialFeed(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// nextFrame reads frames until one satisfies keep.
func nextFrame(t *testing.T, conn *websocket.Conn, keep func(dto.FeedMessage) bool) dto.FeedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg dto.FeedMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if keep(msg) {
			return msg
		}
	}
}

func recordIDs(records []models.ActivityLog) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFeedPushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	a := env.seed(t, base, models.CategoryPayments, models.StatusSuccess)
	b := env.seed(t, base.Add(time.Second), models.CategorySettings, models.StatusFailed)

	conn := dialFeed(t, env.serve(t)+"?logCategory=Payments&limit=10")

	first := nextFrame(t, conn, func(dto.FeedMessage) bool { return true })
	require.Equal(t, "snapshot", first.Type)
	require.EqualValues(t, 1, first.Seq)
	require.Equal(t, []string{a}, recordIDs(first.Records))

	c := env.seed(t, base.Add(2*time.Second), models.CategoryPayments, models.StatusFailed)
	pushed := nextFrame(t, conn, func(m dto.FeedMessage) bool { return len(m.Records) == 2 })
	require.Equal(t, "snapshot", pushed.Type)
	require.EqualValues(t, 1, pushed.Seq)
	require.Equal(t, []string{c, a}, recordIDs(pushed.Records))

	// Replacing the filters starts a new sequence; older snapshots are dropped.
	require.NoError(t, conn.WriteJSON(dto.ActivityLogFilterMessage{Type: "filters", LogCategory: models.CategorySettings}))
	replaced := nextFrame(t, conn, func(m dto.FeedMessage) bool { return m.Seq != 1 })
	require.Equal(t, "snapshot", replaced.Type)
	require.EqualValues(t, 2, replaced.Seq)
	require.Equal(t, []string{b}, recordIDs(replaced.Records))
}

func TestFeedRejectsBadFiltersAndKeepsSubscription(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	conn := dialFeed(t, env.serve(t)+"?status=Failed")

	first := nextFrame(t, conn, func(dto.FeedMessage) bool { return true })
	require.Equal(t, "snapshot", first.Type)
	require.Empty(t, first.Records)

	require.NoError(t, conn.WriteJSON(dto.ActivityLogFilterMessage{Type: "filters", Status: "Broken"}))
	bad := nextFrame(t, conn, func(m dto.FeedMessage) bool { return m.Type == "error" })
	require.EqualValues(t, 0, bad.Seq)
	require.Contains(t, bad.Error, "unknown status")

	id := env.seed(t, base, models.CategoryEmails, models.StatusFailed)
	pushed := nextFrame(t, conn, func(m dto.FeedMessage) bool { return len(m.Records) > 0 })
	require.EqualValues(t, 1, pushed.Seq)
	require.Equal(t, []string{id}, recordIDs(pushed.Records))
}

func TestFeedRejectsInvalidLimit(t *testing.T) {
	env := newTestEnv(t)
	conn := dialFeed(t, env.serve(t)+"?limit=lots")

	msg := nextFrame(t, conn, func(dto.FeedMessage) bool { return true })
	require.Equal(t, "error", msg.Type)
	require.EqualValues(t, 0, msg.Seq)
	require.Contains(t, msg.Error, "not a number")
}
