package services

import (
	"path/filepath"
	"testing"
	"time"

	"phishguard/internal/config"
)

// setTestConfig installs a self-contained configuration whose artifact and
// dataset paths live under the test's temp directory.
func setTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Env:               "test",
		JWTSecret:         "test-secret-key",
		JWTExpirationDur:  time.Hour,
		MaxURLLength:      2000,
		LogFullURLs:       false,
		ModelPath:         filepath.Join(dir, "model", "model.json"),
		DefaultDataPath:   filepath.Join(dir, "data", "sample.csv"),
		AuditWriteTimeout: 2 * time.Second,
	}
	config.SetForTests(cfg)
	return cfg
}
