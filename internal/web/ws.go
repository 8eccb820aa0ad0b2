package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The console is served on a trusted local network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub tracks connected websocket clients and fans messages out to all
// of them. Writes are serialized per connection through the hub mutex.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// broadcast sends a message to every client. Clients that fail the
// write are dropped.
func (h *hub) broadcast(msg map[string]interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("web: marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// send writes a message to a single client.
func (h *hub) send(conn *websocket.Conn, msg map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// wsMessage is a client-to-server command over the websocket.
type wsMessage struct {
	Type    string `json:"type"`
	Group   int    `json:"group"`
	Channel int    `json:"channel"`
	Igniter int    `json:"igniter"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// Every new client gets the full state immediately.
	s.hub.send(conn, map[string]interface{}{
		"type":  "state_update",
		"state": s.stateJSON(),
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.send(conn, map[string]interface{}{
				"type": "error", "message": "bad message",
			})
			continue
		}
		s.dispatchWS(conn, msg)
	}
}

// dispatchWS applies a websocket command. Outcomes reach the caller
// through the same broadcasts every client sees.
func (s *Server) dispatchWS(conn *websocket.Conn, msg wsMessage) {
	switch msg.Type {
	case "fire":
		target, err := targetRequest{Group: msg.Group, Channel: msg.Channel, Igniter: msg.Igniter}.target()
		if err != nil {
			s.hub.send(conn, map[string]interface{}{"type": "error", "message": err.Error()})
			return
		}
		s.fireTarget(target)
	case "reset":
		target, err := targetRequest{Group: msg.Group, Channel: msg.Channel, Igniter: msg.Igniter}.target()
		if err != nil {
			s.hub.send(conn, map[string]interface{}{"type": "error", "message": err.Error()})
			return
		}
		s.resetTarget(target)
	case "reset_all":
		s.resetAll()
	case "set_armed":
		s.setArmed(msg.Enabled)
	case "get_state":
		s.hub.send(conn, map[string]interface{}{
			"type":  "state_update",
			"state": s.stateJSON(),
		})
	default:
		s.hub.send(conn, map[string]interface{}{
			"type": "error", "message": "unknown message type: " + msg.Type,
		})
	}
}
