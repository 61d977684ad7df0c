package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Hub keeps one room per report kind; every new report is pushed to the
// browsers watching that kind's gallery.
type Hub struct {
	mu    sync.Mutex
	rooms map[models.Kind]map[*websocket.Conn]*client
	log   *logger.ZapLogger
}

// client serializes writes: gorilla connections allow a single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		rooms: make(map[models.Kind]map[*websocket.Conn]*client),
		log:   log,
	}
}

func (h *Hub) Register(kind models.Kind, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[kind]; !ok {
		h.rooms[kind] = make(map[*websocket.Conn]*client)
	}
	h.rooms[kind][conn] = &client{conn: conn}
}

func (h *Hub) Unregister(kind models.Kind, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[kind]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}

	if len(conns) == 0 {
		delete(h.rooms, kind)
	}
}

func (h *Hub) Count(kind models.Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[kind])
}

// SendToRoom writes msg to every connection of the room. The room is copied
// under the lock and written outside it, so a slow browser only delays its
// own room's delivery.
func (h *Hub) SendToRoom(kind models.Kind, msg []byte) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.rooms[kind]))
	for _, c := range h.rooms[kind] {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(msg); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "info",
				Message: "ws send failed, dropping connection",
				Error:   err,
				Fields:  map[string]any{"kind": kind},
			})
			h.Unregister(kind, c.conn)
		}
	}
}

type feedMessage struct {
	Kind models.Kind   `json:"kind"`
	Item models.Report `json:"item"`
}

// Forward pushes service events to the rooms until ctx is done or the
// channel is closed.
func (h *Hub) Forward(ctx context.Context, events <-chan ports.ReportEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			payload, err := json.Marshal(feedMessage{Kind: ev.Kind, Item: ev.Report})
			if err != nil {
				h.log.Log(logger.LogEntry{
					Level:   "error",
					Message: "ws marshal failed",
					Error:   err,
				})
				continue
			}
			h.SendToRoom(ev.Kind, payload)
		}
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
