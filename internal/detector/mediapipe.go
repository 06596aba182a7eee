package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

const faceMeshScript = "face_mesh_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe FaceMesh subprocess.
//
// Each request is a 4-byte big-endian length followed by a JPEG frame on stdin.
// Each response is one JSON line: {"faces":[{"points":[{"x":..,"y":..,"z":..}],"score":..}]}.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started by Init or lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findFaceMeshScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found: %w", faceMeshScript, ErrUnavailable)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Init starts the Python process if it is not already running.
func (d *MediaPipeDetector) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensureStarted()
}

// Detect analyzes a frame and returns the landmarks of the first detected face.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*FaceLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.markDead()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.markDead()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.markDead()
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse([]byte(line))
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// args renders the detector config as command-line flags for the service.
func (d *MediaPipeDetector) args() []string {
	args := []string{
		d.scriptPath,
		"--max-faces", strconv.Itoa(d.config.MaxFaces),
		"--min-detection", strconv.FormatFloat(d.config.MinDetectionConf, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
	if d.config.RefineLandmarks {
		args = append(args, "--refine")
	}
	return args
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

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
		return fmt.Errorf("start face mesh service: %w", err)
	}

	// The service prints a ready line once the model is loaded.
	reader := bufio.NewReader(stdout)
	ready, err := reader.ReadString('\n')
	if err != nil {
		stdin.Close()
		d.cmd.Wait()
		d.cmd = nil
		return fmt.Errorf("wait for face mesh service: %w", ErrUnavailable)
	}
	var hello struct {
		Ready bool   `json:"ready"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(ready), &hello); err != nil || !hello.Ready {
		stdin.Close()
		d.cmd.Wait()
		d.cmd = nil
		if hello.Error != "" {
			return fmt.Errorf("face mesh service: %s: %w", hello.Error, ErrUnavailable)
		}
		return fmt.Errorf("face mesh service did not become ready: %w", ErrUnavailable)
	}

	d.stdin = stdin
	d.stdout = reader
	d.started = true

	return nil
}

// markDead drops a broken process so the next call restarts it.
func (d *MediaPipeDetector) markDead() {
	d.shutdown()
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
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

// parseResponse decodes one service response line into the first face, if any.
func parseResponse(line []byte) (*FaceLandmarks, error) {
	var response struct {
		Faces []jsonFace `json:"faces"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("face mesh service: %s", response.Error)
	}
	if len(response.Faces) == 0 {
		return nil, nil
	}

	return response.Faces[0].toFaceLandmarks(), nil
}

func findFaceMeshScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", faceMeshScript),
		filepath.Join("..", "scripts", faceMeshScript),
		filepath.Join(execDir, "scripts", faceMeshScript),
		filepath.Join(os.Getenv("HOME"), ".blinktalk", "scripts", faceMeshScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".blinktalk/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
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

// jsonFace represents the JSON structure from the Python service.
type jsonFace struct {
	Points []jsonPoint `json:"points"`
	Score  float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (f jsonFace) toFaceLandmarks() *FaceLandmarks {
	lm := &FaceLandmarks{
		Points: make([]Point3D, len(f.Points)),
		Score:  f.Score,
	}
	for i, p := range f.Points {
		lm.Points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}
	return lm
}
