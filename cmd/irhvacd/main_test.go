package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("IRHVAC_CONFIG")
	defer os.Setenv("IRHVAC_CONFIG", originalEnv)

	os.Setenv("IRHVAC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_CleanStartupShutdown verifies the daemon comes up from a
// minimal config and exits cleanly on context cancellation. MQTT and
// InfluxDB stay disabled so no external services are needed.
func TestRun_CleanStartupShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
telnet:
  host: "127.0.0.1"
  port: 14998

database:
  path: "` + filepath.Join(tmpDir, "irhvac.db") + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

api:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	originalEnv := os.Getenv("IRHVAC_CONFIG")
	defer os.Setenv("IRHVAC_CONFIG", originalEnv)
	os.Setenv("IRHVAC_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	// Give startup a moment, then signal shutdown.
	time.Sleep(500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not shut down after cancellation")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("IRHVAC_CONFIG")
	defer os.Setenv("IRHVAC_CONFIG", originalEnv)

	os.Setenv("IRHVAC_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("IRHVAC_CONFIG", "/etc/irhvac/config.yaml")
	if got := getConfigPath(); got != "/etc/irhvac/config.yaml" {
		t.Errorf("getConfigPath() = %q, want %q", got, "/etc/irhvac/config.yaml")
	}
}
