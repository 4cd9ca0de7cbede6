// Package overlay renders practice feedback onto camera frames: the
// fretboard grid, target chord markers, detected finger positions, lock
// progress and the play-along HUD.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/SRojas22/GuitarMotion/internal/chord"
	"github.com/SRojas22/GuitarMotion/internal/song"
	"github.com/SRojas22/GuitarMotion/internal/vision"
)

var (
	colorGrid    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorNut     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorInlay   = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	colorTarget  = color.RGBA{R: 80, G: 170, B: 255, A: 255}
	colorCorrect = color.RGBA{G: 220, A: 255}
	colorWrong   = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	colorLock    = color.RGBA{R: 255, G: 200, A: 255}
	colorBox     = color.RGBA{G: 255, A: 255}
	colorText    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Fret numbers that carry inlay dots on a standard neck.
var inlayFrets = map[int]bool{3: true, 5: true, 7: true, 9: true, 15: true, 17: true, 19: true}

const (
	targetRadius = 12
	fingerRadius = 8
	inlayRadius  = 4
)

// DrawBBox outlines the detected fretboard region.
func DrawBBox(frame *gocv.Mat, bbox *image.Rectangle) {
	if bbox == nil {
		return
	}
	gocv.Rectangle(frame, *bbox, colorBox, 2)
}

// DrawGrid renders the calibrated fretboard geometry: string lines, fret
// boundaries and inlay dots. It does nothing before calibration.
func DrawGrid(frame *gocv.Mat, m *vision.Mapper) {
	if m == nil || !m.IsCalibrated() {
		return
	}
	bbox := m.BBox()
	strings := m.StringPositions()
	frets := m.FretPositions()

	for _, y := range strings {
		gocv.Line(frame, image.Point{X: frets[0], Y: y},
			image.Point{X: frets[len(frets)-1], Y: y}, colorGrid, 1)
	}
	for n, x := range frets {
		c := colorGrid
		thickness := 1
		if n == 0 {
			c = colorNut
			thickness = 3
		}
		gocv.Line(frame, image.Point{X: x, Y: bbox.Min.Y},
			image.Point{X: x, Y: bbox.Max.Y}, c, thickness)
	}

	midY := (bbox.Min.Y + bbox.Max.Y) / 2
	for n := 1; n < len(frets); n++ {
		if inlayFrets[n] {
			cx := (frets[n-1] + frets[n]) / 2
			gocv.Circle(frame, image.Point{X: cx, Y: midY}, inlayRadius, colorInlay, -1)
		}
		if n == 12 {
			cx := (frets[n-1] + frets[n]) / 2
			gocv.Circle(frame, image.Point{X: cx, Y: midY - 15}, inlayRadius, colorInlay, -1)
			gocv.Circle(frame, image.Point{X: cx, Y: midY + 15}, inlayRadius, colorInlay, -1)
		}
	}
}

// DrawTargets draws ghost circles where the target chord wants fingers.
func DrawTargets(frame *gocv.Mat, m *vision.Mapper, target *chord.Chord) {
	if m == nil || target == nil {
		return
	}
	for _, f := range target.Fingers {
		pt, ok := m.PositionPixel(f.String, f.Fret)
		if !ok {
			continue
		}
		gocv.Circle(frame, pt, targetRadius, colorTarget, 2)
	}
}

// DrawPlacements marks detected fingertips, green when they land on a
// target position and red otherwise.
func DrawPlacements(frame *gocv.Mat, placements []chord.Placement, target *chord.Chord) {
	wanted := make(map[chord.Finger]bool)
	if target != nil {
		for _, f := range target.Fingers {
			wanted[f] = true
		}
	}
	for _, p := range placements {
		c := colorWrong
		if wanted[chord.Finger{String: p.String, Fret: p.Fret}] {
			c = colorCorrect
		}
		gocv.Circle(frame, p.Pixel, fingerRadius, c, -1)
	}
}

// DrawLockStatus renders the lock banner and, while locking, a progress bar.
func DrawLockStatus(frame *gocv.Mat, state vision.State, progress float64) {
	var label string
	switch state {
	case vision.StateLocked:
		label = "LOCKED"
	case vision.StateLocking:
		label = fmt.Sprintf("LOCKING %d%%", int(progress*100))
	default:
		label = "SEARCHING"
	}
	gocv.PutText(frame, label, image.Point{X: 10, Y: 30},
		gocv.FontHersheySimplex, 0.8, colorLock, 2)

	if state == vision.StateLocking {
		const barWidth, barHeight = 160, 8
		x, y := 10, 42
		gocv.Rectangle(frame, image.Rect(x, y, x+barWidth, y+barHeight), colorLock, 1)
		fill := int(progress * float64(barWidth))
		if fill > 0 {
			gocv.Rectangle(frame, image.Rect(x, y, x+fill, y+barHeight), colorLock, -1)
		}
	}
}

// DrawScore renders the live accuracy line for the current chord attempt.
func DrawScore(frame *gocv.Mat, chordName string, score *chord.Score) {
	if score == nil {
		return
	}
	label := fmt.Sprintf("%s  %d/%d  %.0f%%",
		chordName, score.NumCorrect, score.NumExpected, score.Accuracy*100)
	c := colorWrong
	if score.Accuracy >= 1.0 {
		c = colorCorrect
	}
	gocv.PutText(frame, label, image.Point{X: 10, Y: 70},
		gocv.FontHersheySimplex, 0.8, c, 2)
}

// DrawSongHUD renders play-along position: current and next chord, bar
// counter and a progress bar along the bottom of the frame.
func DrawSongHUD(frame *gocv.Mat, tl *song.Timeline) {
	if tl == nil {
		return
	}
	s := tl.Song()

	line := fmt.Sprintf("%s  bar %d/%d  %s", s.Title, tl.CurrentBar()+1, s.Bars, tl.CurrentChord())
	if next, bar, ok := tl.NextChord(); ok {
		line += fmt.Sprintf("  next: %s @ %d", next, bar+1)
	}
	gocv.PutText(frame, line, image.Point{X: 10, Y: frame.Rows() - 20},
		gocv.FontHersheySimplex, 0.6, colorText, 2)

	y := frame.Rows() - 10
	width := frame.Cols() - 20
	gocv.Rectangle(frame, image.Rect(10, y, 10+width, y+6), colorGrid, 1)
	fill := int(tl.Progress() * float64(width))
	if fill > 0 {
		gocv.Rectangle(frame, image.Rect(10, y, 10+fill, y+6), colorText, -1)
	}
}
