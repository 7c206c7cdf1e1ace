// Package live pushes building occupancy snapshots to owner dashboards
// over websockets.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/model"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	sendBuffer   = 16
)

// Frame is the JSON message sent to dashboards.
type Frame struct {
	Type       string            `json:"type"`
	Event      string            `json:"event,omitempty"`
	BuildingID uint64            `json:"building_id"`
	Occupancy  *ledger.Occupancy `json:"occupancy"`
	Spot       *model.Spot       `json:"spot,omitempty"`
	At         time.Time         `json:"at"`
}

// SnapshotFrame builds the frame sent right after a dashboard connects.
func SnapshotFrame(buildingID uint64, occ ledger.Occupancy, at time.Time) Frame {
	return Frame{Type: "occupancy", Event: "snapshot", BuildingID: buildingID, Occupancy: &occ, At: at}
}

// Hub tracks dashboard connections per building.
type Hub struct {
	mu       sync.RWMutex
	subs     map[uint64]map[*client]struct{}
	log      *zap.Logger
	upgrader websocket.Upgrader
}

type client struct {
	buildingID uint64
	ws         *websocket.Conn
	send       chan []byte
}

// NewHub returns an empty hub.  Dashboards authenticate with a bearer
// token rather than cookies, so any origin may connect.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]map[*client]struct{}),
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Subscribers returns the number of open dashboards for a building.
func (h *Hub) Subscribers(buildingID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[buildingID])
}

// Notify implements ledger.Notifier by broadcasting the event's occupancy
// snapshot to the building's dashboards.  Slow clients miss frames
// instead of blocking the caller.
func (h *Hub) Notify(_ context.Context, ev ledger.Event) {
	if ev.Occupancy == nil || ev.BuildingID == 0 {
		return
	}
	msg, err := json.Marshal(Frame{
		Type:       "occupancy",
		Event:      string(ev.Kind),
		BuildingID: ev.BuildingID,
		Occupancy:  ev.Occupancy,
		Spot:       ev.Spot,
		At:         ev.At,
	})
	if err != nil {
		h.log.Error("live: marshal frame", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[ev.BuildingID] {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("live: dropping frame, client buffer full", zap.Uint64("building_id", ev.BuildingID))
		}
	}
}

// Serve upgrades the request, sends initial and then streams frames for
// buildingID until the client disconnects.  It blocks for the lifetime
// of the connection.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, buildingID uint64, initial Frame) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{buildingID: buildingID, ws: ws, send: make(chan []byte, sendBuffer)}
	if msg, err := json.Marshal(initial); err == nil {
		c.send <- msg
	}
	h.add(c)
	h.log.Info("live: dashboard connected", zap.Uint64("building_id", buildingID))

	done := make(chan struct{})
	go func() {
		h.writePump(c)
		close(done)
	}()
	h.readPump(c)
	h.remove(c)
	close(c.send)
	<-done
	h.log.Info("live: dashboard disconnected", zap.Uint64("building_id", buildingID))
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[c.buildingID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[c.buildingID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[c.buildingID], c)
	if len(h.subs[c.buildingID]) == 0 {
		delete(h.subs, c.buildingID)
	}
}

// readPump discards client messages; it exists to process pongs and
// notice disconnects.
func (h *Hub) readPump(c *client) {
	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ ledger.Notifier = (*Hub)(nil)
