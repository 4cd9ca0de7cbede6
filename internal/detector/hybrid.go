package detector

import "gocv.io/x/gocv"

// Hybrid combines the trained model detector with the edge-based heuristic
// fallback. The model is preferred; when it finds nothing, the edge
// detector gets a try. Model detections are jitter-smoothed.
type Hybrid struct {
	model *Smoother
	edge  *EdgeDetector
}

// NewHybrid creates a hybrid detector from a model detector and an edge
// fallback. The model detector may be nil when no model is available, in
// which case only the edge heuristic runs.
func NewHybrid(model Detector, edge *EdgeDetector) *Hybrid {
	h := &Hybrid{edge: edge}
	if model != nil {
		h.model = NewSmoother(model)
	}
	return h
}

// Detect tries the model first and falls back to edge detection.
func (h *Hybrid) Detect(frame *gocv.Mat) (Detection, error) {
	if h.model != nil {
		det, err := h.model.Detect(frame)
		if err != nil {
			return Detection{}, err
		}
		if det.BBox != nil {
			return det, nil
		}
	}

	return h.edge.Detect(frame)
}

// Reset clears the model smoothing history; the edge detector is
// stateless.
func (h *Hybrid) Reset() {
	if h.model != nil {
		h.model.Reset()
	}
}

// Close closes both backends.
func (h *Hybrid) Close() error {
	var err error
	if h.model != nil {
		err = h.model.Close()
	}
	if cerr := h.edge.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
