// Package testdata provides embedded fixtures for tests: song charts and a
// chord library in the formats the application loads at runtime.
package testdata

import (
	"embed"
	"fmt"
)

//go:embed songs/*.json chords.json
var fixturesFS embed.FS

// Song returns the raw JSON of an embedded song chart by file name.
func Song(name string) ([]byte, error) {
	data, err := fixturesFS.ReadFile("songs/" + name)
	if err != nil {
		return nil, fmt.Errorf("load song fixture %s: %w", name, err)
	}
	return data, nil
}

// ChordLibrary returns the raw JSON of the embedded chord library fixture.
func ChordLibrary() ([]byte, error) {
	data, err := fixturesFS.ReadFile("chords.json")
	if err != nil {
		return nil, fmt.Errorf("load chord library fixture: %w", err)
	}
	return data, nil
}

// SongNames lists the embedded song chart file names.
func SongNames() ([]string, error) {
	entries, err := fixturesFS.ReadDir("songs")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
