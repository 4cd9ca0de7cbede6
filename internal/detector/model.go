package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DefaultModelConfidence is the minimum confidence for a valid model
// detection.
const DefaultModelConfidence = 0.7

// ModelDetector implements Detector using a trained fretboard model served
// by a Python subprocess. Frames are sent as length-prefixed JPEG bytes and
// answered with one JSON line per frame.
type ModelDetector struct {
	confThreshold float64
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	stdout        *bufio.Reader
	mu            sync.Mutex
	started       bool
	idleTimer     *time.Timer
}

// NewModelDetector creates a model-backed fretboard detector.
// The Python process is started lazily on first detection.
func NewModelDetector(confThreshold float64) (*ModelDetector, error) {
	if findDetectorScript() == "" {
		return nil, fmt.Errorf("fretboard_service.py not found")
	}
	if confThreshold <= 0 {
		confThreshold = DefaultModelConfidence
	}
	return &ModelDetector{confThreshold: confThreshold}, nil
}

// Detect runs model inference on the frame.
func (d *ModelDetector) Detect(frame *gocv.Mat) (Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return Detection{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Detection{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return Detection{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return Detection{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return Detection{}, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		BBox       []int   `json:"bbox"` // [x1, y1, x2, y2], empty if none
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return Detection{}, fmt.Errorf("parse response: %w", err)
	}

	d.resetIdleTimer()

	if len(response.BBox) != 4 || response.Confidence < d.confThreshold {
		return Detection{Confidence: response.Confidence}, nil
	}

	bbox := image.Rect(response.BBox[0], response.BBox[1], response.BBox[2], response.BBox[3])
	return Detection{BBox: &bbox, Confidence: response.Confidence, Method: MethodModel}, nil
}

// Close shuts down the Python process.
func (d *ModelDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *ModelDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findDetectorScript()
	if scriptPath == "" {
		return fmt.Errorf("fretboard_service.py not found")
	}

	pythonPath := "python3"
	if venv := findDetectorVenvPython(); venv != "" {
		pythonPath = venv
	}

	d.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start fretboard service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *ModelDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *ModelDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findDetectorScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/fretboard_service.py",
		"../scripts/fretboard_service.py",
		filepath.Join(execDir, "scripts/fretboard_service.py"),
		filepath.Join(os.Getenv("HOME"), ".guitarmotion/scripts/fretboard_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

func findDetectorVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".guitarmotion/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
