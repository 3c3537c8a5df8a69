package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
service:
  id: "test-instance"
telnet:
  host: "127.0.0.1"
  port: 4998
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-instance" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-instance")
	}

	if cfg.Telnet.Host != "127.0.0.1" {
		t.Errorf("Telnet.Host = %q, want %q", cfg.Telnet.Host, "127.0.0.1")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Untouched sections keep their defaults.
	if cfg.Limits.MaxSessions != 4 {
		t.Errorf("Limits.MaxSessions = %d, want 4", cfg.Limits.MaxSessions)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
telnet:
  port: 4998
database:
  path: ""
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// base returns a config that passes validation; each case mutates
	// one field from there.
	base := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "telnet port low",
			mutate:  func(c *Config) { c.Telnet.Port = 0 },
			wantErr: true,
		},
		{
			name:    "telnet port high",
			mutate:  func(c *Config) { c.Telnet.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "line limit too small",
			mutate:  func(c *Config) { c.Telnet.MaxLineBytes = 10 },
			wantErr: true,
		},
		{
			name:    "api port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "zero sessions",
			mutate:  func(c *Config) { c.Limits.MaxSessions = 0 },
			wantErr: true,
		},
		{
			name:    "zero devices",
			mutate:  func(c *Config) { c.Limits.MaxDevices = 0 },
			wantErr: true,
		},
		{
			name:    "negative emitters",
			mutate:  func(c *Config) { c.Limits.MaxEmitters = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Telnet: TelnetConfig{IdleTimeout: 120},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetTelnetIdleTimeout().Seconds(); got != 120 {
		t.Errorf("GetTelnetIdleTimeout() = %v, want 120", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("IRHVAC_TELNET_HOST", "10.0.0.5")
	t.Setenv("IRHVAC_TELNET_PORT", "5000")
	t.Setenv("IRHVAC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("IRHVAC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("IRHVAC_MQTT_USERNAME", "testuser")
	t.Setenv("IRHVAC_MQTT_PASSWORD", "testpass")
	t.Setenv("IRHVAC_API_HOST", "192.168.1.1")
	t.Setenv("IRHVAC_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Telnet.Host != "10.0.0.5" {
		t.Errorf("Telnet.Host = %q, want %q", cfg.Telnet.Host, "10.0.0.5")
	}

	if cfg.Telnet.Port != 5000 {
		t.Errorf("Telnet.Port = %d, want 5000", cfg.Telnet.Port)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_BadPort(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("IRHVAC_TELNET_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Telnet.Port != 4998 {
		t.Errorf("Telnet.Port = %d, want default 4998 for unparseable override", cfg.Telnet.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.ID == "" {
		t.Error("defaultConfig should have non-empty Service.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.Telnet.Port != 4998 {
		t.Errorf("defaultConfig Telnet.Port = %d, want 4998", cfg.Telnet.Port)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Limits.MaxEmitters != 8 || cfg.Limits.MaxDevices != 32 ||
		cfg.Limits.MaxSessions != 4 || cfg.Limits.MaxTempCodes != 16 {
		t.Errorf("defaultConfig limits = %+v, want 8/32/4/16", cfg.Limits)
	}
}
