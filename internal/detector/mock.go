package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Mock is a test implementation of the Detector interface. It replays a
// scripted sequence of detections, repeating the last one once the script
// runs out.
type Mock struct {
	script []Detection
	next   int
	err    error
}

// NewMock creates a new Mock detector.
func NewMock() *Mock {
	return &Mock{}
}

// SetDetection makes every subsequent Detect return the given detection.
func (m *Mock) SetDetection(det Detection) {
	m.script = []Detection{det}
	m.next = 0
}

// SetScript queues a sequence of per-frame detections.
func (m *Mock) SetScript(script []Detection) {
	m.script = script
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *Mock) SetError(err error) {
	m.err = err
}

// Detect returns the next scripted detection.
func (m *Mock) Detect(frame *gocv.Mat) (Detection, error) {
	if m.err != nil {
		return Detection{}, m.err
	}
	if len(m.script) == 0 {
		return Detection{}, nil
	}
	det := m.script[m.next]
	if m.next < len(m.script)-1 {
		m.next++
	}
	return det, nil
}

// Close is a no-op for the mock detector.
func (m *Mock) Close() error {
	return nil
}

// FoundAt builds a Detection for the given box and confidence, a shorthand
// for tests.
func FoundAt(bbox image.Rectangle, confidence float64) Detection {
	return Detection{BBox: &bbox, Confidence: confidence, Method: MethodModel}
}
