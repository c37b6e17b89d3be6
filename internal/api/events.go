package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marketsim/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is one frame on the event stream. The first frame after
// connecting has type "hello" and carries only the current state.
type streamMessage struct {
	Type  string        `json:"type"`
	Event *game.Event   `json:"event,omitempty"`
	State game.Snapshot `json:"state"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// eventHub fans engine phase changes out to websocket subscribers.
type eventHub struct {
	game *game.Service
	log  *slog.Logger

	mu          sync.Mutex
	clients     map[*wsClient]struct{}
	unsubscribe func()
}

func newEventHub(svc *game.Service, logger *slog.Logger) *eventHub {
	h := &eventHub{
		game:    svc,
		log:     logger,
		clients: make(map[*wsClient]struct{}),
	}
	h.unsubscribe = svc.Subscribe(h.broadcast)
	return h
}

func (h *eventHub) broadcast(ev game.Event) {
	data, err := json.Marshal(streamMessage{Type: ev.Type, Event: &ev, State: h.game.Snapshot()})
	if err != nil {
		h.log.Error("encode event", "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("event stream subscriber too slow, dropping frame", "phase", ev.Phase.String())
		}
	}
}

func (h *eventHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	hello, err := json.Marshal(streamMessage{Type: "hello", State: h.game.Snapshot()})
	if err != nil {
		h.mu.Unlock()
		h.log.Error("encode hello", "err", err)
		_ = conn.Close()
		return
	}
	c.send <- hello
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("event stream connected", "remote", r.RemoteAddr, "subscribers", n)

	go c.writePump()
	c.readPump()

	h.remove(c)
	h.log.Info("event stream closed", "remote", r.RemoteAddr)
}

func (h *eventHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *eventHub) close() {
	h.unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client frames and returns once the peer goes away.
func (c *wsClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
