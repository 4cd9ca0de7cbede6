// Package api provides HTTP API handlers for the GuitarMotion practice
// system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/SRojas22/GuitarMotion/internal/store"
)

// SessionHandler handles HTTP requests for practice session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id} or
	// /api/sessions/{id}/placements
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/sessions
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if strings.HasSuffix(path, "/placements") {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.placements(w, r, strings.TrimSuffix(path, "/placements"))
		return
	}

	// Item endpoint: /api/sessions/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type sessionResponse struct {
	ID            string  `json:"id"`
	Mode          string  `json:"mode"`
	ChordName     string  `json:"chord,omitempty"`
	SongTitle     string  `json:"song,omitempty"`
	StartedAt     string  `json:"started_at"`
	EndedAt       string  `json:"ended_at,omitempty"`
	Frames        int     `json:"frames"`
	PerfectFrames int     `json:"perfect_frames"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
	MaxStreak     int     `json:"max_streak"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type placementResponse struct {
	TMs       int64  `json:"t_ms"`
	StringIdx int    `json:"string"`
	Fret      int    `json:"fret"`
	Note      string `json:"note,omitempty"`
}

type listPlacementsResponse struct {
	Placements []placementResponse `json:"placements"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// toResponse converts a store.Session to a sessionResponse.
func toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		Mode:          string(s.Mode),
		ChordName:     s.ChordName,
		SongTitle:     s.SongTitle,
		StartedAt:     s.StartedAt.Format(timeFormat),
		Frames:        s.Frames,
		PerfectFrames: s.PerfectFrames,
		AvgAccuracy:   s.AvgAccuracy,
		MaxStreak:     s.MaxStreak,
	}
	if s.EndedAt.Valid {
		resp.EndedAt = s.EndedAt.Time.Format(timeFormat)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions and returns all sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// placements handles GET /api/sessions/{id}/placements.
func (h *SessionHandler) placements(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	placements, err := h.store.Placements().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list placements")
		return
	}

	resp := listPlacementsResponse{Placements: make([]placementResponse, 0, len(placements))}
	for _, p := range placements {
		resp.Placements = append(resp.Placements, placementResponse{
			TMs:       p.TMs,
			StringIdx: p.StringIdx,
			Fret:      p.Fret,
			Note:      p.Note,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
