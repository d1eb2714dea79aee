package api

import (
	"net/http"
	"sync"
	"time"

	models "FinCast/internal/domain/models"
	qmetrics "FinCast/internal/service/metrics"
	xlogger "FinCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 90 * time.Second
	streamPingPeriod = 45 * time.Second
	streamBuffer     = 8
)

// SnapshotSource gives the stream its initial state and publish notifications.
type SnapshotSource interface {
	Load() *models.Snapshot
	OnPublish(fn func(*models.Snapshot))
}

// SnapshotMessage is pushed to stream clients on connect and after every refresh.
type SnapshotMessage struct {
	Type        string                    `json:"type"`
	CycleID     string                    `json:"cycle_id,omitempty"`
	PublishedAt *time.Time                `json:"published_at,omitempty"`
	Records     []models.PredictionRecord `json:"records"`
}

type streamClient struct {
	conn *websocket.Conn
	out  chan SnapshotMessage
	done chan struct{}
}

// SnapshotStreamHandler pushes every published snapshot over a websocket.
type SnapshotStreamHandler struct {
	logger   *xlogger.Logger
	source   SnapshotSource
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

func NewSnapshotStreamHandler(logger *xlogger.Logger, source SnapshotSource) *SnapshotStreamHandler {
	h := &SnapshotStreamHandler{
		logger: logger,
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(*http.Request) bool { return true },
			EnableCompression: true,
		},
		clients: make(map[*streamClient]struct{}),
	}
	source.OnPublish(h.broadcast)
	return h
}

func (h *SnapshotStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/companies", h.Serve)
}

// Clients returns the number of connected clients.
func (h *SnapshotStreamHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *SnapshotStreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &streamClient{conn: conn, out: make(chan SnapshotMessage, streamBuffer), done: make(chan struct{})}
	h.add(cl)
	defer h.remove(cl)

	go h.writeLoop(cl)

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *SnapshotStreamHandler) writeLoop(cl *streamClient) {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	for {
		select {
		case msg := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := cl.conn.WriteJSON(msg); err != nil {
				_ = cl.conn.Close()
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = cl.conn.Close()
				return
			}
		case <-cl.done:
			return
		}
	}
}

// broadcast drops the message for clients whose buffer is full.
func (h *SnapshotStreamHandler) broadcast(snap *models.Snapshot) {
	msg := toMessage(snap)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.out <- msg:
		default:
			h.logger.Warn("stream client too slow, snapshot dropped", xlogger.String("remote", cl.conn.RemoteAddr().String()))
		}
	}
}

// add queues the current snapshot for cl before registering it, so no
// broadcast can fill the buffer first or arrive ahead of the initial message.
func (h *SnapshotStreamHandler) add(cl *streamClient) {
	h.mu.Lock()
	cl.out <- toMessage(h.source.Load())
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	qmetrics.StreamClients.Inc()
}

func (h *SnapshotStreamHandler) remove(cl *streamClient) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	close(cl.done)
	_ = cl.conn.Close()
	qmetrics.StreamClients.Dec()
}

func toMessage(snap *models.Snapshot) SnapshotMessage {
	if snap == nil {
		return SnapshotMessage{Type: "snapshot", Records: []models.PredictionRecord{}}
	}
	at := snap.PublishedAt
	recs := snap.Records
	if recs == nil {
		recs = []models.PredictionRecord{}
	}
	return SnapshotMessage{Type: "snapshot", CycleID: snap.CycleID, PublishedAt: &at, Records: recs}
}
