package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

func TestLoadDataset(t *testing.T) {
	t.Run("standard_columns", func(t *testing.T) {
		path := writeCSV(t, "url,label\nhttp://a.com,0\nhttp://b.com,1\n")

		samples, err := LoadDataset(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(samples) != 2 {
			t.Fatalf("expected 2 samples, got %d", len(samples))
		}
		if samples[1].URL != "http://b.com" || samples[1].Label != 1 {
			t.Errorf("unexpected sample: %+v", samples[1])
		}
	})

	t.Run("aliased_columns_case_insensitive", func(t *testing.T) {
		path := writeCSV(t, "Link,Status\nhttp://a.com,phishing\nhttp://b.com,legitimate\n")

		samples, err := LoadDataset(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if samples[0].Label != 1 || samples[1].Label != 0 {
			t.Errorf("expected labels 1,0, got %d,%d", samples[0].Label, samples[1].Label)
		}
	})

	t.Run("explicit_label_column", func(t *testing.T) {
		path := writeCSV(t, "url,verdict\nhttp://a.com,1\n")

		samples, err := LoadDataset(path, "verdict")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if samples[0].Label != 1 {
			t.Errorf("expected label 1, got %d", samples[0].Label)
		}
	})

	t.Run("skips_bad_rows", func(t *testing.T) {
		path := writeCSV(t, "url,label\n,1\nhttp://a.com,banana\nhttp://b.com,1\n")

		samples, err := LoadDataset(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(samples) != 1 {
			t.Fatalf("expected 1 usable sample, got %d", len(samples))
		}
	})

	t.Run("malformed_row_does_not_truncate", func(t *testing.T) {
		path := writeCSV(t, "url,label\nhttp://a.com,0\n\"http://bad\"x,1\nhttp://b.com,1\n")

		samples, err := LoadDataset(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(samples) != 2 {
			t.Fatalf("expected rows after the malformed one to load, got %d samples", len(samples))
		}
		if samples[1].URL != "http://b.com" || samples[1].Label != 1 {
			t.Errorf("unexpected sample: %+v", samples[1])
		}
	})

	t.Run("missing_url_column", func(t *testing.T) {
		path := writeCSV(t, "address,label\nhttp://a.com,1\n")

		if _, err := LoadDataset(path, ""); err == nil {
			t.Fatal("expected error for missing URL column")
		}
	})

	t.Run("missing_label_column", func(t *testing.T) {
		path := writeCSV(t, "url,other\nhttp://a.com,1\n")

		if _, err := LoadDataset(path, ""); err == nil {
			t.Fatal("expected error for missing label column")
		}
	})

	t.Run("no_usable_rows", func(t *testing.T) {
		path := writeCSV(t, "url,label\n,\n")

		if _, err := LoadDataset(path, ""); err == nil {
			t.Fatal("expected error for empty dataset")
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		if _, err := LoadDataset(filepath.Join(t.TempDir(), "nope.csv"), ""); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("bom_header", func(t *testing.T) {
		path := writeCSV(t, "\ufeffurl,label\nhttp://a.com,1\n")

		samples, err := LoadDataset(path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(samples) != 1 {
			t.Fatalf("expected 1 sample, got %d", len(samples))
		}
	})
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]struct {
		label int
		ok    bool
	}{
		"1":          {1, true},
		"0":          {0, true},
		"phishing":   {1, true},
		"Legitimate": {0, true},
		"MALICIOUS":  {1, true},
		"yes":        {1, true},
		"no":         {0, true},
		"1.0":        {1, true},
		"0.0":        {0, true},
		"":           {0, false},
		"banana":     {0, false},
	}
	for input, want := range cases {
		label, ok := normalizeLabel(input)
		if ok != want.ok || label != want.label {
			t.Errorf("normalizeLabel(%q) = (%d, %v), want (%d, %v)", input, label, ok, want.label, want.ok)
		}
	}
}
