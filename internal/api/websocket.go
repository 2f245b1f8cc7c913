package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/filedrop/backend/internal/models"
)

// Event types pushed to websocket observers
const (
	EventFileUploaded = "file:uploaded"
	EventFileDeleted  = "file:deleted"
)

// UploadEvent is one catalog change pushed to observers.
type UploadEvent struct {
	Type      string               `json:"type"`
	File      *models.UploadedFile `json:"file,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

// EventHub broadcasts upload events to connected websocket clients.
// Dashboards subscribe here instead of polling the recent-files endpoint.
type EventHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
}

// NewEventHub creates an event hub with no connections.
func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client goes away. Incoming messages are discarded; the stream is one-way.
func (h *EventHub) HandleWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[ws] = struct{}{}
	h.mu.Unlock()

	fmt.Println("[EventHub] Client connected")

	defer func() {
		h.remove(ws)
		fmt.Println("[EventHub] Client disconnected")
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[EventHub] Connection error: %v\n", err)
			}
			return nil
		}
	}
}

// Publish sends the event to every connected client. Connections that fail
// to accept the write are dropped.
func (h *EventHub) Publish(evt UploadEvent) {
	evt.Timestamp = time.Now().UnixMilli()

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.conns {
		if err := ws.WriteJSON(evt); err != nil {
			ws.Close()
			delete(h.conns, ws)
		}
	}
}

// ConnCount reports the number of connected observers.
func (h *EventHub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *EventHub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws.Close()
	delete(h.conns, ws)
}
