package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture-agent.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[storage]
bucket = "test-bucket"
table = "test-table"
`

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Transport.Broker != "localhost:1883" {
		t.Errorf("expected default broker, got %q", cfg.Transport.Broker)
	}
	if cfg.Transport.TriggerTopic != "button" {
		t.Errorf("expected default trigger topic, got %q", cfg.Transport.TriggerTopic)
	}
	if cfg.Capture.DecimationFactor != 5 {
		t.Errorf("expected default decimation 5, got %d", cfg.Capture.DecimationFactor)
	}
	if cfg.Pipeline.MaxArtifactSizeMB != 50 {
		t.Errorf("expected default 50 MB limit, got %d", cfg.Pipeline.MaxArtifactSizeMB)
	}
	if cfg.Pipeline.ParaphraseCount != 3 {
		t.Errorf("expected default paraphrase count 3, got %d", cfg.Pipeline.ParaphraseCount)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[transport]
broker = "broker.example:8883"

[capture]
decimation_factor = 2

[storage]
bucket = "b"
table = "t"
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.Broker != "broker.example:8883" {
		t.Errorf("file broker not applied: %q", cfg.Transport.Broker)
	}
	if cfg.Capture.DecimationFactor != 2 {
		t.Errorf("file decimation not applied: %d", cfg.Capture.DecimationFactor)
	}
	// Untouched sections keep defaults.
	if cfg.GIF.FrameDurationMs != 250 {
		t.Errorf("expected default frame duration, got %d", cfg.GIF.FrameDurationMs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[[[not toml"))
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_ValidationFailureListsAllProblems(t *testing.T) {
	_, err := Load(writeConfig(t, `
[transport]
broker = ""

[capture]
decimation_factor = 0
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "transport.broker") {
		t.Errorf("missing broker problem in: %s", msg)
	}
	if !strings.Contains(msg, "decimation_factor") {
		t.Errorf("missing decimation problem in: %s", msg)
	}
	if !strings.Contains(msg, "storage.bucket") {
		t.Errorf("missing bucket problem in: %s", msg)
	}
}

func TestLoad_EnvCredentialOverrides(t *testing.T) {
	t.Setenv("MEMENTO_MQTT_USERNAME", "agent-user")
	t.Setenv("MEMENTO_MQTT_PASSWORD", "agent-pass")
	t.Setenv("MEMENTO_AGENT_ID", "agent-42")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.Username != "agent-user" {
		t.Errorf("username override not applied: %q", cfg.Transport.Username)
	}
	if cfg.Transport.Password != "agent-pass" {
		t.Errorf("password override not applied")
	}
	if cfg.Agent.InstanceID != "agent-42" {
		t.Errorf("agent id override not applied: %q", cfg.Agent.InstanceID)
	}
}

func TestRingCapacity_DerivedFromWindow(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// 10 s * 20 fps / decimation 5 = 40 frames.
	if got := cfg.RingCapacity(); got != 40 {
		t.Errorf("expected derived capacity 40, got %d", got)
	}
}

func TestRingCapacity_ExplicitWins(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[capture]
buffer_capacity = 100

[storage]
bucket = "b"
table = "t"
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.RingCapacity(); got != 100 {
		t.Errorf("expected explicit capacity 100, got %d", got)
	}
}

func TestMaxArtifactBytes(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.MaxArtifactBytes(); got != 50*1024*1024 {
		t.Errorf("expected 50 MiB in bytes, got %d", got)
	}
}

func TestWriteSample_ProducesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("sample config does not load: %v", err)
	}
}

func TestWriteSample_RefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "existing = true")
	if err := WriteSample(path); err == nil {
		t.Error("expected error overwriting an existing file")
	}
}
