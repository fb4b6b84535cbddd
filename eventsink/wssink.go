package eventsink

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/upstarter/automata-sub005"
)

// WSHub fans a single Event stream out to any number of connected
// websocket clients, generalized from smilemakc-mbflow's
// WebSocketObserver/WebSocketHub/EventPayload broadcast pattern
// (websocket_observer.go) to btr.Event instead of DAG-execution payloads.
// It implements btr.EventSink directly: a spawned tree can hand its
// lifecycle events straight to a WSHub to stream them to a dashboard.
type WSHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan btr.Event
}

// NewWSHub constructs an empty hub. CheckOrigin is left permissive by
// default, matching a local dashboard/dev-tool use case; callers that
// need stricter origin checks should set Upgrader.CheckOrigin themselves
// before calling ServeHTTP.
func NewWSHub() *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]chan btr.Event),
	}
}

// ServeHTTP upgrades the request to a websocket connection and registers
// it as an Event subscriber until the connection closes.
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan btr.Event, 64)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for e := range ch {
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}
}

// Emit implements btr.EventSink, fanning e out to every connected client.
// A client whose outbound buffer is full misses this event and has its
// connection closed, rather than blocking the tree's tick loop.
func (h *WSHub) Emit(e btr.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- e:
		default:
			go func(c *websocket.Conn) { c.Close() }(conn)
		}
	}
}
