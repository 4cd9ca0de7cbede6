package api

import (
	"net/http"
	"strings"

	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/store"
)

// ChordHandler serves the chord library and per-chord progress stats.
type ChordHandler struct {
	library chord.Library
	store   *store.Store
}

// NewChordHandler creates a new ChordHandler. The store may be nil, in
// which case stats are omitted.
func NewChordHandler(library chord.Library, s *store.Store) *ChordHandler {
	return &ChordHandler{library: library, store: s}
}

type fingerResponse struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

type chordResponse struct {
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Fingers     []fingerResponse `json:"fingers"`
	Attempts    int              `json:"attempts,omitempty"`
	Perfect     int              `json:"perfect,omitempty"`
	AvgAccuracy float64          `json:"avg_accuracy,omitempty"`
}

type listChordsResponse struct {
	Chords []chordResponse `json:"chords"`
}

// ServeHTTP handles GET /api/chords and GET /api/chords/{key}.
func (h *ChordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/chords")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

// toChordResponse builds the response for one chord, folding in stats when
// available.
func (h *ChordHandler) toChordResponse(key string, c chord.Chord) chordResponse {
	resp := chordResponse{
		Key:     key,
		Name:    c.Name,
		Fingers: make([]fingerResponse, 0, len(c.Fingers)),
	}
	for _, f := range c.Fingers {
		resp.Fingers = append(resp.Fingers, fingerResponse{String: f.String, Fret: f.Fret})
	}

	if h.store != nil {
		if cs, err := h.store.ChordStats().Get(key); err == nil {
			resp.Attempts = cs.Attempts
			resp.Perfect = cs.Perfect
			resp.AvgAccuracy = cs.AvgAccuracy
		}
	}
	return resp
}

// list handles GET /api/chords.
func (h *ChordHandler) list(w http.ResponseWriter, r *http.Request) {
	resp := listChordsResponse{Chords: make([]chordResponse, 0, len(h.library))}
	for _, key := range h.library.Names() {
		c, _ := h.library.Get(key)
		resp.Chords = append(resp.Chords, h.toChordResponse(key, c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/chords/{key}.
func (h *ChordHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	c, ok := h.library.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Chord not found")
		return
	}
	writeJSON(w, http.StatusOK, h.toChordResponse(key, c))
}
