package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Edge detection parameters. A guitar neck shows up as a large, strongly
// elongated horizontal rectangle.
const (
	cannyLowThreshold  = 50
	cannyHighThreshold = 150
	minNeckAspectRatio = 2.5
	minNeckArea        = 10000

	// EdgeConfidence is the fixed confidence assigned to heuristic
	// detections; the method has no probabilistic score of its own.
	EdgeConfidence = 0.6
)

// EdgeDetector finds the fretboard with classical image heuristics: Canny
// edges plus contour shape filtering, falling back to wood-tone color
// segmentation. It needs no model weights, which makes it the fallback
// backend when the trained detector is unavailable.
type EdgeDetector struct{}

// NewEdgeDetector creates a new edge-based fretboard detector.
func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{}
}

// Detect looks for an elongated neck-like region in the frame.
func (d *EdgeDetector) Detect(frame *gocv.Mat) (Detection, error) {
	if frame == nil || frame.Empty() {
		return Detection{}, nil
	}

	if bbox := d.detectNeck(frame); bbox != nil {
		return Detection{BBox: bbox, Confidence: EdgeConfidence, Method: MethodEdge}, nil
	}
	if bbox := d.detectWoodColor(frame); bbox != nil {
		return Detection{BBox: bbox, Confidence: EdgeConfidence, Method: MethodEdge}, nil
	}
	return Detection{}, nil
}

// detectNeck searches Canny edge contours for a large elongated rectangle.
func (d *EdgeDetector) detectNeck(frame *gocv.Mat) *image.Rectangle {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, cannyLowThreshold, cannyHighThreshold)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best *image.Rectangle
	maxArea := 0

	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		w, h := rect.Dx(), rect.Dy()
		if h == 0 {
			continue
		}
		area := w * h
		aspect := float64(w) / float64(h)

		if aspect > minNeckAspectRatio && area > minNeckArea && area > maxArea {
			maxArea = area
			r := rect
			best = &r
		}
	}

	return best
}

// detectWoodColor segments brown/tan wood tones in HSV space and checks the
// largest blob for a neck-like aspect ratio.
func (d *EdgeDetector) detectWoodColor(frame *gocv.Mat) *image.Rectangle {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	lower := gocv.NewScalar(5, 30, 30, 0)
	upper := gocv.NewScalar(25, 255, 255, 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	// Morphological close then open to clean up the mask.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 5, Y: 5})
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best *image.Rectangle
	maxArea := 0.0

	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			rect := gocv.BoundingRect(contours.At(i))
			r := rect
			best = &r
		}
	}

	if best == nil || best.Dy() == 0 {
		return nil
	}
	if float64(best.Dx())/float64(best.Dy()) <= minNeckAspectRatio {
		return nil
	}
	return best
}

// Close is a no-op; the edge detector holds no resources between frames.
func (d *EdgeDetector) Close() error {
	return nil
}

// DrawHint draws the detected region on the frame for calibration feedback.
func DrawHint(frame *gocv.Mat, det Detection) {
	if det.BBox == nil {
		return
	}
	gocv.Rectangle(frame, *det.BBox, color.RGBA{G: 255}, 2)
}
