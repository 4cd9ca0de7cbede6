package chord

import (
	"fmt"
	"image"

	"github.com/SRojas22/GuitarMotion/internal/hands"
	"github.com/SRojas22/GuitarMotion/internal/vision"
)

// Placement is a detected fingertip resolved to a fretted position.
type Placement struct {
	String   int
	Fret     int
	Landmark int
	Pixel    image.Point
}

// Score compares detected finger placements against the target chord.
type Score struct {
	Correct     []Finger
	Missing     []Finger
	Extra       []Finger
	Accuracy    float64
	NumCorrect  int
	NumExpected int
}

// Coach tracks a target chord and scores finger placement against it using
// a calibrated fretboard mapper.
type Coach struct {
	library Library
	mapper  *vision.Mapper

	current     *Chord
	currentName string
}

// NewCoach creates a coach over the given chord library.
func NewCoach(library Library) *Coach {
	return &Coach{library: library}
}

// SetMapper sets the calibrated fretboard mapper used for position
// lookups.
func (c *Coach) SetMapper(m *vision.Mapper) {
	c.mapper = m
}

// SelectChord sets the target chord to practice.
func (c *Coach) SelectChord(name string) error {
	chord, ok := c.library.Get(name)
	if !ok {
		return fmt.Errorf("chord %q not in library", name)
	}
	c.current = &chord
	c.currentName = name
	return nil
}

// CurrentChord returns the selected target chord, nil if none.
func (c *Coach) CurrentChord() *Chord {
	return c.current
}

// CurrentChordName returns the library key of the selected chord.
func (c *Coach) CurrentChordName() string {
	return c.currentName
}

// CheckPlacement resolves the fretting fingertips of a hand to string/fret
// positions. Only fretted positions count: open strings (fret 0) and
// before-nut points are skipped, as are fingertips off the fretboard.
func (c *Coach) CheckPlacement(hand *hands.HandLandmarks, width, height int) []Placement {
	if c.mapper == nil || hand == nil {
		return nil
	}

	var detected []Placement
	for _, tip := range hands.FretTips {
		px := hand.PixelAt(tip, width, height)
		stringIdx, fretIdx := c.mapper.StringFretAt(px.X, px.Y)
		if stringIdx == vision.NoIndex || fretIdx == vision.NoIndex || fretIdx == 0 {
			continue
		}
		detected = append(detected, Placement{
			String:   stringIdx,
			Fret:     fretIdx,
			Landmark: tip,
			Pixel:    px,
		})
	}
	return detected
}

// ScorePlacement compares detected placements with the target chord and
// returns the correct, missing and extra positions plus overall accuracy.
// Returns nil when no chord is selected.
func (c *Coach) ScorePlacement(detected []Placement) *Score {
	if c.current == nil {
		return nil
	}

	expected := make(map[Finger]bool, len(c.current.Fingers))
	for _, f := range c.current.Fingers {
		expected[f] = true
	}

	got := make(map[Finger]bool, len(detected))
	for _, p := range detected {
		got[Finger{String: p.String, Fret: p.Fret}] = true
	}

	score := &Score{NumExpected: len(expected)}
	for f := range expected {
		if got[f] {
			score.Correct = append(score.Correct, f)
		} else {
			score.Missing = append(score.Missing, f)
		}
	}
	for f := range got {
		if !expected[f] {
			score.Extra = append(score.Extra, f)
		}
	}

	score.NumCorrect = len(score.Correct)
	if score.NumExpected > 0 {
		score.Accuracy = float64(score.NumCorrect) / float64(score.NumExpected)
	} else if len(got) == 0 {
		score.Accuracy = 1.0
	}

	return score
}
