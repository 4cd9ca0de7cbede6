// Package song provides play-along timelines: a chord chart laid out over
// bars at a fixed tempo, with playback position tracking.
package song

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Event places a chord at the start of a bar. Bars are numbered from 0.
type Event struct {
	Bar   int    `json:"bar"`
	Chord string `json:"chord"`
}

// Song is a chord chart: tempo, meter and a list of chord changes.
type Song struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist,omitempty"`
	BPM         float64 `json:"bpm"`
	BeatsPerBar int     `json:"beats_per_bar"`
	Bars        int     `json:"bars"`
	Events      []Event `json:"events"`
}

// Validate checks the chart for values playback cannot work with.
func (s *Song) Validate() error {
	if s.BPM <= 0 {
		return fmt.Errorf("song %q: bpm must be positive, got %v", s.Title, s.BPM)
	}
	if s.BeatsPerBar <= 0 {
		return fmt.Errorf("song %q: beats per bar must be positive, got %d", s.Title, s.BeatsPerBar)
	}
	if s.Bars <= 0 {
		return fmt.Errorf("song %q: bar count must be positive, got %d", s.Title, s.Bars)
	}
	for _, e := range s.Events {
		if e.Bar < 0 || e.Bar >= s.Bars {
			return fmt.Errorf("song %q: event bar %d out of range [0,%d)", s.Title, e.Bar, s.Bars)
		}
		if e.Chord == "" {
			return fmt.Errorf("song %q: event at bar %d has no chord", s.Title, e.Bar)
		}
	}
	return nil
}

// BarDuration returns how long one bar lasts at the song's tempo.
func (s *Song) BarDuration() time.Duration {
	beat := time.Duration(float64(time.Minute) / s.BPM)
	return beat * time.Duration(s.BeatsPerBar)
}

// Duration returns the total playback time of the chart.
func (s *Song) Duration() time.Duration {
	return s.BarDuration() * time.Duration(s.Bars)
}

// LoadFile reads a song chart from a JSON file.
func LoadFile(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read song: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates song chart JSON.
func Parse(data []byte) (*Song, error) {
	var s Song
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse song: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSongs returns the titles and paths of all .json charts in a directory.
func ListSongs(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	songs := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		s, err := LoadFile(path)
		if err != nil {
			continue
		}
		songs[s.Title] = path
	}
	return songs, nil
}

// Timeline tracks playback position through a song. It is driven by wall
// clock time so the chart advances even when frames stall.
type Timeline struct {
	mu   sync.Mutex
	song *Song

	// events sorted by bar, never mutated after construction
	events []Event

	started   bool
	paused    bool
	startAt   time.Time
	pausedAt  time.Time
	pausedFor time.Duration

	now func() time.Time
}

// NewTimeline creates a playback timeline for a validated song.
func NewTimeline(s *Song) *Timeline {
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	sort.Slice(events, func(i, j int) bool { return events[i].Bar < events[j].Bar })

	return &Timeline{
		song:   s,
		events: events,
		now:    time.Now,
	}
}

// Song returns the chart being played.
func (t *Timeline) Song() *Song {
	return t.song
}

// Start begins playback from the top of the chart.
func (t *Timeline) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = true
	t.paused = false
	t.startAt = t.now()
	t.pausedFor = 0
}

// Pause freezes the playback position.
func (t *Timeline) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || t.paused {
		return
	}
	t.paused = true
	t.pausedAt = t.now()
}

// Resume continues playback from where Pause left it.
func (t *Timeline) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || !t.paused {
		return
	}
	t.paused = false
	t.pausedFor += t.now().Sub(t.pausedAt)
}

// IsPlaying reports whether the timeline is started and not paused.
func (t *Timeline) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started && !t.paused
}

// elapsed returns playback time excluding pauses. Caller holds mu.
func (t *Timeline) elapsed() time.Duration {
	if !t.started {
		return 0
	}
	if t.paused {
		return t.pausedAt.Sub(t.startAt) - t.pausedFor
	}
	return t.now().Sub(t.startAt) - t.pausedFor
}

// Elapsed returns how far into the song playback is.
func (t *Timeline) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed()
}

// CurrentBar returns the bar the playhead is in. Past the last bar it
// returns the bar count, which is also what IsFinished checks.
func (t *Timeline) CurrentBar() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.barAt(t.elapsed())
}

func (t *Timeline) barAt(elapsed time.Duration) int {
	bar := int(elapsed / t.song.BarDuration())
	if bar > t.song.Bars {
		bar = t.song.Bars
	}
	return bar
}

// CurrentBeat returns the beat within the current bar, numbered from 0.
func (t *Timeline) CurrentBeat() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := t.elapsed()
	inBar := elapsed % t.song.BarDuration()
	beat := time.Duration(float64(time.Minute) / t.song.BPM)
	b := int(inBar / beat)
	if b >= t.song.BeatsPerBar {
		b = t.song.BeatsPerBar - 1
	}
	return b
}

// CurrentChord returns the chord active at the playhead. Before the first
// event, or on an empty chart, it returns "".
func (t *Timeline) CurrentChord() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	bar := t.barAt(t.elapsed())

	current := ""
	for _, e := range t.events {
		if e.Bar > bar {
			break
		}
		current = e.Chord
	}
	return current
}

// NextChord returns the next chord change after the playhead and the bar it
// lands on. ok is false when no change remains.
func (t *Timeline) NextChord() (chord string, bar int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := t.barAt(t.elapsed())

	for _, e := range t.events {
		if e.Bar > current {
			return e.Chord, e.Bar, true
		}
	}
	return "", 0, false
}

// Upcoming returns up to n chord changes at or after the playhead's bar,
// starting with the active one.
func (t *Timeline) Upcoming(n int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := t.barAt(t.elapsed())

	// Index of the event active at the current bar.
	start := 0
	for i, e := range t.events {
		if e.Bar > current {
			break
		}
		start = i
	}

	end := start + n
	if end > len(t.events) {
		end = len(t.events)
	}
	out := make([]Event, end-start)
	copy(out, t.events[start:end])
	return out
}

// Progress returns playback position as a fraction of the song, clamped to
// [0, 1].
func (t *Timeline) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.song.Duration()
	if total <= 0 {
		return 0
	}
	p := float64(t.elapsed()) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// IsFinished reports whether the playhead has run past the last bar.
func (t *Timeline) IsFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started && t.elapsed() >= t.song.Duration()
}
