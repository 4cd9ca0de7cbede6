// Package server provides the HTTP server for the GuitarMotion practice
// system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SRojas22/GuitarMotion/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// wsClient wraps a connection with a write mutex. The websocket package
// allows at most one concurrent writer per connection, and both the read
// loop's acks and the broadcast ticker write to the same client.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// PracticeHandler broadcasts the live practice state via WebSocket and
// accepts control commands from the client.
type PracticeHandler struct {
	session *session.Session
	clients map[*websocket.Conn]*wsClient
	mu      sync.RWMutex
}

// NewPracticeHandler creates a new PracticeHandler over the given session.
func NewPracticeHandler(s *session.Session) *PracticeHandler {
	h := &PracticeHandler{
		session: s,
		clients: make(map[*websocket.Conn]*wsClient),
	}
	go h.broadcast()
	return h
}

// command is a control message from the client.
type command struct {
	Action  string `json:"action"`
	Chord   string `json:"chord,omitempty"`
	Song    string `json:"song,omitempty"`
	NutX    int    `json:"nut_x,omitempty"`
	Fret12X int    `json:"fret12_x,omitempty"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PracticeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Read loop doubles as the control channel
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			h.reply(client, cmd.Action, err)
			continue
		}
		h.reply(client, cmd.Action, h.handle(cmd))
	}
}

// handle dispatches a client command to the session.
func (h *PracticeHandler) handle(cmd command) error {
	switch cmd.Action {
	case "confirm_lock":
		return h.session.ConfirmLock()
	case "calibrate":
		return h.session.Calibrate(cmd.NutX, cmd.Fret12X)
	case "select_chord":
		return h.session.SelectChord(cmd.Chord)
	case "load_song":
		return h.session.LoadSong(cmd.Song)
	case "start_song":
		return h.session.StartSong()
	case "pause_song":
		h.session.PauseSong()
		return nil
	case "resume_song":
		h.session.ResumeSong()
		return nil
	default:
		log.Printf("Unknown practice command: %q", cmd.Action)
		return nil
	}
}

// reply acknowledges a command, reporting any error back to the client.
func (h *PracticeHandler) reply(client *wsClient, action string, err error) {
	ack := map[string]any{"ack": action}
	if err != nil {
		ack["error"] = err.Error()
	}
	msg, _ := json.Marshal(ack)
	client.write(msg)
}

// broadcast sends the session snapshot to all connected clients.
func (h *PracticeHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		snap := h.session.Snapshot()
		msg, err := json.Marshal(map[string]any{
			"state":     snap,
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.mu.RLock()
		for _, client := range h.clients {
			client.write(msg)
		}
		h.mu.RUnlock()
	}
}
