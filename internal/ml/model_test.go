package ml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phishguard/internal/features"
)

func testModel() *Model {
	dim := len(features.Names())
	return &Model{
		Version:           "20250101-000000",
		Accuracy:          0.9,
		SchemaFingerprint: features.Fingerprint(),
		Threshold:         0.5,
		FeatureNames:      features.Names(),
		Weights:           make([]float64, dim),
		Means:             make([]float64, dim),
		Scales:            onesVector(dim),
		TrainedAt:         time.Now().UTC(),
	}
}

func onesVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func TestScore(t *testing.T) {
	e := features.NewExtractor(nil)

	t.Run("zero_weights_yield_half", func(t *testing.T) {
		m := testModel()
		p, err := m.Score(e.Extract("http://example.com"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(p-0.5) > 1e-9 {
			t.Errorf("expected probability 0.5 with zero weights, got %f", p)
		}
	})

	t.Run("schema_mismatch", func(t *testing.T) {
		m := testModel()
		m.SchemaFingerprint = "stale"
		_, err := m.Score(e.Extract("http://example.com"))
		if !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("expected ErrSchemaMismatch, got %v", err)
		}
	})

	t.Run("weight_count_mismatch", func(t *testing.T) {
		m := testModel()
		m.Weights = m.Weights[:3]
		_, err := m.Score(e.Extract("http://example.com"))
		if !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("expected ErrSchemaMismatch, got %v", err)
		}
	})
}

func TestLabel(t *testing.T) {
	m := testModel()
	if m.Label(0.5) != 1 {
		t.Error("probability at threshold should label 1")
	}
	if m.Label(0.49) != 0 {
		t.Error("probability below threshold should label 0")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.json")

	m := testModel()
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// No temp file should survive a successful save.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected temp file to be renamed away")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Version != m.Version {
		t.Errorf("expected version %s, got %s", m.Version, loaded.Version)
	}
	if loaded.SchemaFingerprint != m.SchemaFingerprint {
		t.Error("schema fingerprint not preserved")
	}
	if !loaded.Compatible() {
		t.Error("expected loaded model to be compatible")
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		if !os.IsNotExist(err) {
			t.Fatalf("expected not-exist error, got %v", err)
		}
	})

	t.Run("corrupt_artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("bad_threshold_falls_back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.json")
		m := testModel()
		m.Threshold = 0
		if err := m.Save(path); err != nil {
			t.Fatal(err)
		}
		loaded, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if loaded.Threshold != 0.5 {
			t.Errorf("expected threshold fallback 0.5, got %f", loaded.Threshold)
		}
	})
}
