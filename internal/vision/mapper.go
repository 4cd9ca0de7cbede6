package vision

import (
	"errors"
	"image"
	"math"
)

// Default fretboard dimensions for a standard six-string guitar.
const (
	DefaultNumStrings = 6
	DefaultNumFrets   = 20
)

// NoIndex marks an absent string or fret index in mapping results.
const NoIndex = -1

// ErrInvalidCalibration is returned when the 12th-fret reference point does
// not lie to the right of the nut. Accepting such points would produce a
// negative scale length and collapse the entire fret grid.
var ErrInvalidCalibration = errors.New("vision: 12th fret reference must be right of the nut")

// Mapper converts between pixel space and the guitar's (string, fret)
// logical space. String rows are evenly spaced across the bounding box
// height; fret columns follow the equal-tempered spacing law, anchored by
// two user-supplied reference points (nut and 12th fret).
//
// A mapper starts uncalibrated and answers no position queries until
// SetReferencePoints succeeds. It belongs to a single practice session and
// is only touched from the video loop.
type Mapper struct {
	bbox       image.Rectangle
	numStrings int
	numFrets   int

	nutX    int
	fret12X int

	stringPositions []int // y coordinate per string, low E first
	fretPositions   []int // x coordinate per fret boundary, nut first

	calibrated bool
}

// NewMapper creates a mapper for the given fretboard bounding box.
// Non-positive string or fret counts fall back to the defaults.
func NewMapper(bbox image.Rectangle, numStrings, numFrets int) *Mapper {
	if numStrings <= 0 {
		numStrings = DefaultNumStrings
	}
	if numFrets <= 0 {
		numFrets = DefaultNumFrets
	}
	return &Mapper{
		bbox:       bbox,
		numStrings: numStrings,
		numFrets:   numFrets,
	}
}

// SetReferencePoints calibrates the mapper from two user-selected x
// coordinates: the nut (fret 0) and the 12th fret. Calling it again fully
// recalibrates. Returns ErrInvalidCalibration if fret12X <= nutX.
func (m *Mapper) SetReferencePoints(nutX, fret12X int) error {
	if fret12X <= nutX {
		return ErrInvalidCalibration
	}
	m.nutX = nutX
	m.fret12X = fret12X
	m.computeGeometry()
	m.calibrated = true
	return nil
}

// computeGeometry derives all string and fret pixel positions from the
// bounding box and the two reference points.
//
// The 12th fret bisects the scale length on any standard fretted
// instrument, so scaleLength = (fret12X - nutX) * 2. Each fret then sits at
// nutX + scale - scale/2^(n/12), the equal-tempered spacing law.
func (m *Mapper) computeGeometry() {
	height := float64(m.bbox.Dy())

	m.stringPositions = make([]int, m.numStrings)
	for i := 0; i < m.numStrings; i++ {
		offset := (float64(i) + 0.5) * height / float64(m.numStrings)
		m.stringPositions[i] = m.bbox.Min.Y + int(math.Round(offset))
	}

	scale := float64(m.fret12X-m.nutX) * 2

	m.fretPositions = make([]int, m.numFrets+1)
	m.fretPositions[0] = m.nutX
	for n := 1; n <= m.numFrets; n++ {
		offset := scale - scale/math.Pow(2, float64(n)/12)
		m.fretPositions[n] = m.nutX + int(offset)
	}
}

// StringFretAt maps a pixel coordinate to (stringIdx, fretIdx).
//
// Returns (NoIndex, NoIndex) when the mapper is uncalibrated or the point
// is vertically too far from every string (more than half the inter-string
// spacing). Returns (stringIdx, NoIndex) for points left of the nut, the
// open-string case. Points at or beyond the last fret boundary clamp to the
// last fret.
func (m *Mapper) StringFretAt(x, y int) (stringIdx, fretIdx int) {
	if !m.calibrated {
		return NoIndex, NoIndex
	}

	// Nearest string by vertical distance; first minimum wins.
	stringIdx = NoIndex
	minDist := math.MaxInt
	for i, sy := range m.stringPositions {
		dist := y - sy
		if dist < 0 {
			dist = -dist
		}
		if dist < minDist {
			minDist = dist
			stringIdx = i
		}
	}

	threshold := float64(m.bbox.Dy()) / float64(m.numStrings) / 2
	if float64(minDist) > threshold {
		return NoIndex, NoIndex
	}

	if x < m.nutX {
		return stringIdx, NoIndex
	}

	for i := 0; i < len(m.fretPositions)-1; i++ {
		if m.fretPositions[i] <= x && x < m.fretPositions[i+1] {
			return stringIdx, i
		}
	}

	if x >= m.fretPositions[len(m.fretPositions)-1] {
		return stringIdx, len(m.fretPositions) - 1
	}
	return stringIdx, NoIndex
}

// PositionPixel returns the representative pixel for a (string, fret)
// position: the string's y row and the midpoint between the fret's boundary
// and the next one (the boundary itself for the last fret). This is the
// same convention the overlay uses, so drawn targets and looked-up points
// stay consistent.
func (m *Mapper) PositionPixel(stringIdx, fretIdx int) (image.Point, bool) {
	if !m.calibrated {
		return image.Point{}, false
	}
	if stringIdx < 0 || stringIdx >= len(m.stringPositions) {
		return image.Point{}, false
	}
	if fretIdx < 0 || fretIdx >= len(m.fretPositions) {
		return image.Point{}, false
	}

	y := m.stringPositions[stringIdx]
	var x int
	if fretIdx < len(m.fretPositions)-1 {
		x = (m.fretPositions[fretIdx] + m.fretPositions[fretIdx+1]) / 2
	} else {
		x = m.fretPositions[fretIdx]
	}
	return image.Point{X: x, Y: y}, true
}

// UpdateBBox re-anchors the mapper onto a new bounding box from continuous
// tracking. The calibration points are carried over by scaling their offset
// from the old box's left edge by the width ratio, so a drifting camera or
// guitar does not force recalibration. No-op when uncalibrated.
func (m *Mapper) UpdateBBox(newBBox image.Rectangle) {
	if !m.calibrated {
		return
	}

	oldWidth := m.bbox.Dx()
	if oldWidth == 0 {
		m.bbox = newBBox
		m.computeGeometry()
		return
	}
	scaleX := float64(newBBox.Dx()) / float64(oldWidth)

	oldX1 := m.bbox.Min.X
	m.nutX = newBBox.Min.X + int(float64(m.nutX-oldX1)*scaleX)
	m.fret12X = newBBox.Min.X + int(float64(m.fret12X-oldX1)*scaleX)
	m.bbox = newBBox

	m.computeGeometry()
}

// IsCalibrated reports whether reference points have been set.
func (m *Mapper) IsCalibrated() bool {
	return m.calibrated
}

// BBox returns the current bounding box.
func (m *Mapper) BBox() image.Rectangle {
	return m.bbox
}

// NumStrings returns the number of mapped strings.
func (m *Mapper) NumStrings() int {
	return m.numStrings
}

// NumFrets returns the number of mapped frets.
func (m *Mapper) NumFrets() int {
	return m.numFrets
}

// NutX returns the calibrated nut x coordinate.
func (m *Mapper) NutX() int {
	return m.nutX
}

// Fret12X returns the calibrated 12th fret x coordinate.
func (m *Mapper) Fret12X() int {
	return m.fret12X
}

// ScaleLength returns the derived scale length in pixels.
func (m *Mapper) ScaleLength() int {
	return (m.fret12X - m.nutX) * 2
}

// StringPositions returns a copy of the string y coordinates, low E first.
func (m *Mapper) StringPositions() []int {
	out := make([]int, len(m.stringPositions))
	copy(out, m.stringPositions)
	return out
}

// FretPositions returns a copy of the fret boundary x coordinates, nut
// first.
func (m *Mapper) FretPositions() []int {
	out := make([]int, len(m.fretPositions))
	copy(out, m.fretPositions)
	return out
}
