package handlers

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/ultimatepos/activitylog/internal/http/dto"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

const defaultFeedLimit = 50

// WSHub serves live activity log feeds. Each connection owns one
// subscription at a time; a "filters" message from the client replaces it.
type WSHub struct {
	service *services.ActivityLogService
	log     *zap.Logger

	mu          sync.Mutex
	connections map[*websocket.Conn]*feed
}

func NewWSHub(service *services.ActivityLogService, log *zap.Logger) *WSHub {
	return &WSHub{
		service:     service,
		log:         log,
		connections: make(map[*websocket.Conn]*feed),
	}
}

type feed struct {
	conn *websocket.Conn
	log  *zap.Logger
	seq  services.Sequencer

	writeMu     sync.Mutex
	subMu       sync.Mutex
	unsubscribe func()
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	f := &feed{conn: conn, log: h.log}

	h.mu.Lock()
	h.connections[conn] = f
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.connections, conn)
		h.mu.Unlock()
		f.stop()
		conn.Close()
	}()

	limit, err := parseInt(conn.Query("limit"), defaultFeedLimit)
	if err != nil {
		f.sendError(0, err)
		return
	}
	if err := h.resubscribe(f, paramsFromQuery(conn.Query), limit); err != nil {
		f.sendError(0, err)
		return
	}

	// Read loop: filter changes and keep-alive.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg dto.ActivityLogFilterMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "filters" {
			continue
		}
		if msg.Limit <= 0 {
			msg.Limit = defaultFeedLimit
		}
		if err := h.resubscribe(f, paramsFromMessage(msg), msg.Limit); err != nil {
			f.sendError(0, err)
		}
	}
}

func (h *WSHub) resubscribe(f *feed, p filterParams, limit int) error {
	filters, sort, err := p.parse()
	if err != nil {
		return err
	}
	// A rejected request leaves the current subscription running.
	if err := h.service.CheckSubscription(filters, sort, limit); err != nil {
		return err
	}

	f.subMu.Lock()
	defer f.subMu.Unlock()

	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}

	// Snapshots from a replaced subscription may still be in flight; the tag
	// lets them be dropped.
	tag := f.seq.Next()
	unsubscribe, err := h.service.Subscribe(filters, sort, limit,
		func(records []models.ActivityLog) {
			if !f.seq.IsLatest(tag) {
				return
			}
			f.send(dto.FeedMessage{Type: "snapshot", Seq: tag, Records: records})
		},
		func(err error) {
			if f.seq.IsLatest(tag) {
				f.sendError(tag, err)
			}
		},
	)
	if err != nil {
		return err
	}
	f.unsubscribe = unsubscribe
	return nil
}

// Close ends every open feed.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, f := range h.connections {
		f.stop()
		_ = conn.Close()
	}
}

func (f *feed) stop() {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}

func (f *feed) send(msg dto.FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if err := f.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		f.log.Debug("websocket write failed", zap.Error(err))
	}
}

func (f *feed) sendError(seq uint64, err error) {
	msg := err.Error()
	if statusFor(err) >= fiber.StatusInternalServerError {
		msg = "activity log storage unavailable"
	}
	f.send(dto.FeedMessage{Type: "error", Seq: seq, Error: msg})
}
