// Package chord provides the chord library and finger-placement scoring
// for the GuitarMotion practice system.
package chord

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Finger is a single fretted position: string index 0 (low E) through 5
// (high E) and fret number 1 and up. Open strings are not fingered.
type Finger struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Chord is a named set of fingered positions.
type Chord struct {
	Name    string   `json:"name"`
	Fingers []Finger `json:"fingers"`
}

// Library maps chord names to their fingerings.
type Library map[string]Chord

// LoadLibrary reads a chord library from a JSON file.
func LoadLibrary(path string) (Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chord library: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary parses chord library JSON.
func ParseLibrary(data []byte) (Library, error) {
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse chord library: %w", err)
	}
	return lib, nil
}

// Names returns the chord names in the library, sorted.
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks up a chord by name.
func (l Library) Get(name string) (Chord, bool) {
	c, ok := l[name]
	return c, ok
}

// DefaultLibrary returns the built-in open-chord library used when no
// chord file is configured.
func DefaultLibrary() Library {
	return Library{
		"C":     {Name: "C Major", Fingers: []Finger{{1, 3}, {2, 2}, {4, 1}}},
		"G":     {Name: "G Major", Fingers: []Finger{{0, 3}, {1, 2}, {5, 3}}},
		"D":     {Name: "D Major", Fingers: []Finger{{3, 2}, {4, 3}, {5, 2}}},
		"Em":    {Name: "E Minor", Fingers: []Finger{{1, 2}, {2, 2}}},
		"Am":    {Name: "A Minor", Fingers: []Finger{{2, 2}, {3, 2}, {4, 1}}},
		"E":     {Name: "E Major", Fingers: []Finger{{1, 2}, {2, 2}, {3, 1}}},
		"A":     {Name: "A Major", Fingers: []Finger{{2, 2}, {3, 2}, {4, 2}}},
		"Dm":    {Name: "D Minor", Fingers: []Finger{{3, 2}, {4, 3}, {5, 1}}},
		"F":     {Name: "F Major", Fingers: []Finger{{2, 3}, {3, 2}, {4, 1}, {5, 1}}},
		"Cadd9": {Name: "C add 9", Fingers: []Finger{{1, 3}, {2, 2}, {4, 3}, {5, 3}}},
		"Dsus4": {Name: "D sus 4", Fingers: []Finger{{3, 2}, {4, 3}, {5, 3}}},
		"Em7":   {Name: "E Minor 7", Fingers: []Finger{{1, 2}, {2, 2}, {4, 3}, {5, 3}}},
	}
}
