// Package detector provides fretboard detection backends for the
// GuitarMotion practice system.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Detection method names reported alongside a bounding box.
const (
	MethodModel = "model"
	MethodEdge  = "edge"
)

// Detection is a single-frame fretboard detection result.
type Detection struct {
	// BBox is the detected fretboard bounding box, nil when nothing was
	// found this frame.
	BBox *image.Rectangle

	// Confidence is the detection confidence in [0, 1]; 0 when BBox is nil.
	Confidence float64

	// Method names the backend that produced the box.
	Method string
}

// Detector defines the interface for fretboard detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the best fretboard
	// detection for it. A missing fretboard is not an error; it is a
	// Detection with a nil BBox.
	Detect(frame *gocv.Mat) (Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}
