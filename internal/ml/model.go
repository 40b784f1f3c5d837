package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"phishguard/internal/features"
)

// ErrSchemaMismatch indicates the model was trained against a different
// feature schema than the one the extractor currently produces.
var ErrSchemaMismatch = errors.New("ml: model feature schema does not match extractor schema")

// Model is a trained classifier artifact. It is immutable after training;
// the registry swaps whole *Model values, never mutates one in place.
type Model struct {
	Version           string    `json:"model_version"`
	Accuracy          float64   `json:"accuracy"`
	SchemaFingerprint string    `json:"schema_fingerprint"`
	Threshold         float64   `json:"threshold"`
	FeatureNames      []string  `json:"feature_names"`
	Weights           []float64 `json:"weights"`
	Bias              float64   `json:"bias"`
	Means             []float64 `json:"means"`
	Scales            []float64 `json:"scales"`
	TrainedRows       int       `json:"trained_rows"`
	TestRows          int       `json:"test_rows"`
	TrainedAt         time.Time `json:"trained_at"`
}

// Compatible reports whether the model can score vectors from the current
// feature extractor.
func (m *Model) Compatible() bool {
	return m.SchemaFingerprint == features.Fingerprint() && len(m.Weights) == len(features.Names())
}

// Score returns the positive-class (phishing) probability for the vector.
// It fails with ErrSchemaMismatch rather than silently misaligning weights.
func (m *Model) Score(v features.Vector) (float64, error) {
	if !m.Compatible() {
		return 0, fmt.Errorf("%w: model=%s extractor=%s", ErrSchemaMismatch, m.SchemaFingerprint, features.Fingerprint())
	}
	x := v.Numeric()
	z := m.Bias
	for i, w := range m.Weights {
		z += w * standardize(x[i], m.Means[i], m.Scales[i])
	}
	return sigmoid(z), nil
}

// Label derives the binary verdict from a probability using the model's
// native decision threshold.
func (m *Model) Label(probability float64) int {
	if probability >= m.Threshold {
		return 1
	}
	return 0
}

// Save writes the model artifact as JSON, creating parent directories as
// needed. The write goes through a temp file and rename so a crashed save
// never leaves a torn artifact behind.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads a model artifact from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if m.Threshold <= 0 || m.Threshold >= 1 || math.IsNaN(m.Threshold) {
		m.Threshold = 0.5
	}
	return &m, nil
}

func standardize(x, mean, scale float64) float64 {
	if scale == 0 {
		scale = 1
	}
	return (x - mean) / scale
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
