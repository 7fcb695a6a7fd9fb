// Package hub fans confirmed state changes out to connected viewers over
// WebSocket.  A new viewer receives the full snapshot exactly once before
// any delta.  Dispatch never blocks the mutation that triggered it: each
// client has a buffered send channel and messages to a full buffer are
// dropped, so a slow viewer falls behind and reconciles by reconnecting.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

// Event types pushed to viewers.
const (
	EventInitialData      = "initial_data"
	EventSeatUpdated      = "seat_updated"
	EventLogAdded         = "log_added"
	EventStatsUpdated     = "stats_updated"
	EventUserAdded        = "user_added"
	EventUserUpdated      = "user_updated"
	EventSnapshotReplaced = "snapshot_replaced"
)

// Envelope is the wire frame for every push message.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// sendBuffer bounds how many undelivered frames a viewer may accumulate
// before new frames are dropped for it.
const sendBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	send chan []byte
}

// SnapshotFunc supplies the current full state for the snapshot-first
// handshake of a newly connected viewer.
type SnapshotFunc func() (*model.Snapshot, error)

// Hub tracks connected viewers and broadcasts envelopes to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	snapshot SnapshotFunc
}

// New constructs a Hub that serves initial state from snapshot.
func New(snapshot SnapshotFunc) *Hub {
	return &Hub{clients: make(map[string]*client), snapshot: snapshot}
}

// Serve upgrades the request and runs the connection until the viewer
// disconnects.  The client registers before the snapshot is read: a delta
// committed while the handshake is in flight buffers in the send channel
// and is delivered after the initial frame instead of being lost.  The
// write loop only starts after the initial frame, so no delta precedes it.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // Upgrade already wrote the error response
	}
	cl := &client{id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	h.register(cl)

	snap, err := h.snapshot()
	if err != nil {
		log.Printf("hub: snapshot for new viewer failed: %v", err)
		h.unregister(cl)
		_ = conn.Close()
		return nil
	}
	initial, err := json.Marshal(Envelope{Type: EventInitialData, Payload: snap})
	if err != nil {
		h.unregister(cl)
		_ = conn.Close()
		return nil
	}
	if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		h.unregister(cl)
		_ = conn.Close()
		return nil
	}

	go h.writeLoop(conn, cl)
	h.readLoop(conn, cl)
	return nil
}

// ConnectedViewers reports how many viewers are currently registered.
func (h *Hub) ConnectedViewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SeatUpdated pushes a changed seat to all viewers.
func (h *Hub) SeatUpdated(seat model.Seat) { h.broadcast(EventSeatUpdated, seat) }

// LogAdded pushes a new log entry to all viewers.
func (h *Hub) LogAdded(entry model.LogEntry) { h.broadcast(EventLogAdded, entry) }

// StatsUpdated pushes recomputed statistics to all viewers.
func (h *Hub) StatsUpdated(st model.Statistics) { h.broadcast(EventStatsUpdated, st) }

// UserAdded pushes a newly registered user to all viewers.
func (h *Hub) UserAdded(u model.User) { h.broadcast(EventUserAdded, u) }

// UserUpdated pushes an administratively edited user to all viewers.
func (h *Hub) UserUpdated(u model.User) { h.broadcast(EventUserUpdated, u) }

// SnapshotReplaced pushes a wholesale state replacement (import, clear).
func (h *Hub) SnapshotReplaced(snap *model.Snapshot) { h.broadcast(EventSnapshotReplaced, snap) }

func (h *Hub) broadcast(eventType string, payload any) {
	data, err := json.Marshal(Envelope{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("hub: marshal %s failed: %v", eventType, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			log.Printf("hub: drop %s for slow viewer %s", eventType, cl.id)
		}
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl.id] = cl
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl.id]; ok {
		delete(h.clients, cl.id)
		close(cl.send)
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, cl *client) {
	for data := range cl.send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	_ = conn.Close()
}

func (h *Hub) readLoop(conn *websocket.Conn, cl *client) {
	defer func() {
		h.unregister(cl)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
