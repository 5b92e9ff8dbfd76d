package matcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Classifier scores feature rows, returning a match probability in [0,1] per row.
type Classifier interface {
	Predict(rows [][]float32) ([]float64, error)
	Close() error
}

// Model is a loaded classifier together with the feature columns it expects.
type Model struct {
	Classifier Classifier
	// Columns maps each model input position to an index in FeatureNames.
	Columns []int
}

// ModelLoader builds a Model. It is called at most once per load attempt.
type ModelLoader func() (*Model, error)

type modelState struct {
	model *Model
	err   error
}

// ModelHandle lazily loads a Model once and hands out the same immutable
// snapshot to every reader. A failed load is remembered, reported once, and
// only retried after Retry.
type ModelHandle struct {
	load   ModelLoader
	logger zerolog.Logger

	mu    sync.Mutex
	state atomic.Pointer[modelState]
}

// NewModelHandle wraps load. Nothing is loaded until the first Get.
func NewModelHandle(load ModelLoader, logger zerolog.Logger) *ModelHandle {
	return &ModelHandle{load: load, logger: logger}
}

// Get returns the loaded model or an error wrapping ErrModelUnavailable.
func (h *ModelHandle) Get() (*Model, error) {
	if h == nil || h.load == nil {
		return nil, ErrModelUnavailable
	}
	if s := h.state.Load(); s != nil {
		return s.result()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s := h.state.Load(); s != nil {
		return s.result()
	}
	m, err := h.load()
	if err == nil && (m == nil || m.Classifier == nil) {
		err = errors.New("loader returned no classifier")
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("tie-break model unavailable, using score order only")
		h.state.Store(&modelState{err: err})
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	h.logger.Info().Int("features", len(m.Columns)).Msg("tie-break model loaded")
	h.state.Store(&modelState{model: m})
	return m, nil
}

func (s *modelState) result() (*Model, error) {
	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, s.err)
	}
	return s.model, nil
}

// Available reports whether a model is loaded, loading it if needed.
func (h *ModelHandle) Available() bool {
	_, err := h.Get()
	return err == nil
}

// Retry clears the cached load outcome so the next Get loads again.
func (h *ModelHandle) Retry() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old := h.state.Swap(nil); old != nil && old.model != nil {
		_ = old.model.Classifier.Close()
	}
}

// Close releases the loaded classifier, if any.
func (h *ModelHandle) Close() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.state.Swap(&modelState{err: errors.New("handle closed")})
	if old != nil && old.model != nil {
		return old.model.Classifier.Close()
	}
	return nil
}

// Refiner computes tie-break probabilities from the model behind a handle.
type Refiner struct {
	handle *ModelHandle
}

// NewRefiner returns a Refiner backed by h.
func NewRefiner(h *ModelHandle) *Refiner {
	return &Refiner{handle: h}
}

// Available reports whether refinement can run.
func (r *Refiner) Available() bool {
	return r != nil && r.handle.Available()
}

// Probabilities implements TieBreaker, scaling model output to [0,100].
func (r *Refiner) Probabilities(username string, employees []EmployeeRecord) ([]float64, error) {
	if r == nil {
		return nil, ErrModelUnavailable
	}
	m, err := r.handle.Get()
	if err != nil {
		return nil, err
	}
	rows := make([][]float32, len(employees))
	for i, emp := range employees {
		rows[i] = BuildFeatures(username, emp).Select(m.Columns)
	}
	probs, err := m.Classifier.Predict(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(probs) != len(rows) {
		return nil, fmt.Errorf("predict: got %d probabilities for %d rows", len(probs), len(rows))
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = clampScore(p * 100)
	}
	return out, nil
}

// LoadFeatureManifest reads the ordered feature names a model was trained on.
// The file is either a JSON array of strings or one name per line. Every
// name must belong to FeatureNames.
func LoadFeatureManifest(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature manifest: %w", err)
	}
	names, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature manifest: %w", err)
	}
	return resolveFeatures(names)
}

func parseManifest(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, err
		}
		return names, nil
	}
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}

func resolveFeatures(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, errors.New("feature manifest is empty")
	}
	cols := make([]int, len(names))
	for i, n := range names {
		idx, ok := featureIndex[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", n)
		}
		cols[i] = idx
	}
	return cols, nil
}

// OrtConfig locates the ONNX Runtime library and the exported classifier.
type OrtConfig struct {
	OrtDLL     string
	ModelPath  string
	InputName  string
	OutputName string
}

// OrtClassifier runs an ONNX binary classifier whose probability output has
// shape [rows, 2]; column 1 is the match probability.
type OrtClassifier struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

var ortInit sync.Mutex

// OpenOrtClassifier initializes the runtime environment if needed and opens a
// session over cfg.ModelPath.
func OpenOrtClassifier(cfg OrtConfig) (*OrtClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is empty")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	ortInit.Lock()
	if !ort.IsInitialized() {
		if cfg.OrtDLL != "" {
			ort.SetSharedLibraryPath(cfg.OrtDLL)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortInit.Unlock()
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	ortInit.Unlock()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &OrtClassifier{session: session}, nil
}

// Predict implements Classifier.
func (c *OrtClassifier) Predict(rows [][]float32) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	flat := make([]float32, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(r), width)
		}
		flat = append(flat, r...)
	}
	input, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(len(rows)), 2))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, errors.New("session closed")
	}
	err = c.session.Run([]ort.Value{input}, []ort.Value{output})
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	data := output.GetData()
	probs := make([]float64, len(rows))
	for i := range probs {
		probs[i] = float64(data[i*2+1])
	}
	return probs, nil
}

// Close implements Classifier.
func (c *OrtClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

// OrtModelLoader returns a ModelLoader for the refiner settings in cfg.
func OrtModelLoader(cfg RefinerConfig) ModelLoader {
	return func() (*Model, error) {
		if !cfg.Enabled {
			return nil, errors.New("refiner disabled")
		}
		cols, err := LoadFeatureManifest(cfg.FeatureColumnsPath)
		if err != nil {
			return nil, err
		}
		clf, err := OpenOrtClassifier(OrtConfig{
			OrtDLL:     cfg.OrtDLL,
			ModelPath:  cfg.ModelPath,
			InputName:  cfg.InputName,
			OutputName: cfg.OutputName,
		})
		if err != nil {
			return nil, err
		}
		return &Model{Classifier: clf, Columns: cols}, nil
	}
}
