package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

func startHubServer(t *testing.T, h *Hub) string {
	t.Helper()
	e := echo.New()
	e.GET("/ws", h.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return env
}

func waitForViewers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ConnectedViewers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("viewers = %d, want %d", h.ConnectedViewers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeSendsSnapshotBeforeDeltas(t *testing.T) {
	snap := model.DefaultSnapshot(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h := New(func() (*model.Snapshot, error) { return snap.Clone(), nil })
	url := startHubServer(t, h)

	conn := dial(t, url)

	env := readEnvelope(t, conn)
	if env.Type != EventInitialData {
		t.Fatalf("first frame type = %q, want %q", env.Type, EventInitialData)
	}
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		t.Fatal(err)
	}
	var got model.Snapshot
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("initial payload is not a snapshot: %v", err)
	}
	if len(got.Seats) != len(snap.Seats) {
		t.Fatalf("initial snapshot has %d seats, want %d", len(got.Seats), len(snap.Seats))
	}

	// deltas only arrive after the handshake
	waitForViewers(t, h, 1)
	h.SeatUpdated(model.Seat{ID: "pc-1", Name: "PC-01", Kind: model.KindDesktop, Status: model.SeatOccupied})

	env = readEnvelope(t, conn)
	if env.Type != EventSeatUpdated {
		t.Fatalf("second frame type = %q, want %q", env.Type, EventSeatUpdated)
	}
	payload, _ = json.Marshal(env.Payload)
	var seat model.Seat
	if err := json.Unmarshal(payload, &seat); err != nil {
		t.Fatalf("seat payload: %v", err)
	}
	if seat.ID != "pc-1" || seat.Status != model.SeatOccupied {
		t.Fatalf("seat delta = %+v", seat)
	}
}

func TestHandshakeDeltaIsNotLost(t *testing.T) {
	snap := model.DefaultSnapshot(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	var h *Hub
	h = New(func() (*model.Snapshot, error) {
		// a mutation committed while the handshake is in flight must
		// reach the connecting viewer after the initial frame
		h.SeatUpdated(model.Seat{ID: "pc-1", Name: "PC-01", Kind: model.KindDesktop, Status: model.SeatOccupied})
		return snap.Clone(), nil
	})
	url := startHubServer(t, h)

	conn := dial(t, url)
	first := readEnvelope(t, conn)
	if first.Type != EventInitialData {
		t.Fatalf("first frame type = %q, want %q", first.Type, EventInitialData)
	}
	second := readEnvelope(t, conn)
	if second.Type != EventSeatUpdated {
		t.Fatalf("second frame type = %q, want %q", second.Type, EventSeatUpdated)
	}
}

func TestBroadcastReachesEveryViewer(t *testing.T) {
	snap := model.DefaultSnapshot(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h := New(func() (*model.Snapshot, error) { return snap.Clone(), nil })
	url := startHubServer(t, h)

	first := dial(t, url)
	second := dial(t, url)
	readEnvelope(t, first)
	readEnvelope(t, second)
	waitForViewers(t, h, 2)

	h.LogAdded(model.LogEntry{ID: "l-1", Kind: model.LogLogin, Message: "Ann took PC-01", Severity: model.SeveritySuccess})

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		if env.Type != EventLogAdded {
			t.Fatalf("frame type = %q, want %q", env.Type, EventLogAdded)
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	snap := model.DefaultSnapshot(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h := New(func() (*model.Snapshot, error) { return snap.Clone(), nil })
	url := startHubServer(t, h)

	conn := dial(t, url)
	readEnvelope(t, conn)
	waitForViewers(t, h, 1)

	_ = conn.Close()
	waitForViewers(t, h, 0)

	// broadcasting into an empty hub is a no-op
	h.StatsUpdated(model.Statistics{TotalSeats: 17})
}
