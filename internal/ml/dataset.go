// Package ml holds the training collaborator and the model artifact the
// registry serves: a logistic-regression classifier over the lexical
// feature vector, persisted as a JSON artifact with version, accuracy, and
// feature-schema fingerprint metadata.
package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sample is one labeled URL from a training dataset.
type Sample struct {
	URL   string
	Label int // 1 = phishing, 0 = legitimate
}

// Column aliases accepted when locating the URL and label columns.
var (
	labelAliases = []string{"label", "target", "class", "status", "result", "phishing"}
	urlAliases   = []string{"url", "link"}
)

// LoadDataset reads a labeled CSV dataset. The URL and label columns are
// located case-insensitively via the alias lists; labelColumn, when
// non-empty, is tried first. Rows with a missing URL or an unrecognizable
// label are skipped.
func LoadDataset(path, labelColumn string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset not found at %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset must contain headers: %w", err)
	}
	if len(header) > 0 {
		// Strip a UTF-8 BOM if the file carries one.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	fieldIdx := make(map[string]int, len(header))
	for i, name := range header {
		fieldIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	urlIdx := -1
	for _, alias := range urlAliases {
		if i, ok := fieldIdx[alias]; ok {
			urlIdx = i
			break
		}
	}
	if urlIdx < 0 {
		return nil, fmt.Errorf("dataset must contain a URL column (one of: %s)", strings.Join(urlAliases, ", "))
	}

	candidates := labelAliases
	if labelColumn = strings.ToLower(strings.TrimSpace(labelColumn)); labelColumn != "" {
		candidates = append([]string{labelColumn}, labelAliases...)
	}
	labelIdx := -1
	for _, alias := range candidates {
		if i, ok := fieldIdx[alias]; ok {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("dataset must contain a label column (tried: %s)", strings.Join(candidates, ", "))
	}

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row (stray quote, bad field) must not
			// silently truncate the rest of the dataset.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		if urlIdx >= len(record) || labelIdx >= len(record) {
			continue
		}
		rawURL := strings.TrimSpace(record[urlIdx])
		if rawURL == "" {
			continue
		}
		label, ok := normalizeLabel(record[labelIdx])
		if !ok {
			continue
		}
		samples = append(samples, Sample{URL: rawURL, Label: label})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("dataset did not yield any usable rows (missing URL/label)")
	}
	return samples, nil
}

// normalizeLabel maps the many textual label spellings seen in public
// phishing datasets onto {0,1}.
func normalizeLabel(v string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return 0, false
	}
	switch s {
	case "1", "phishing", "malicious", "yes", "true":
		return 1, true
	case "0", "legitimate", "benign", "no", "false":
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if int(f) == 1 {
		return 1, true
	}
	return 0, true
}
