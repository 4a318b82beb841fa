// Package config loads and validates the agent's TOML configuration.
// Configuration is static per deployment: it is read once at startup and
// never mutated at runtime. Credentials are supplied through environment
// variables, never the config file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Agent contains agent identity settings.
type Agent struct {
	InstanceID string `toml:"instance_id"`
}

// Transport contains MQTT broker and topic configuration.
type Transport struct {
	Broker       string `toml:"broker"`
	Username     string `toml:"username"`
	Password     string `toml:"-"` // env MEMENTO_MQTT_PASSWORD only
	TriggerTopic string `toml:"trigger_topic"`
	AckTopic     string `toml:"ack_topic"`
	FrameTopic   string `toml:"frame_topic"`
}

// Capture contains ring buffer and frame processing settings.
type Capture struct {
	// BufferCapacity fixes the ring size directly. When 0 the capacity is
	// derived from CaptureDurationSeconds, SourceFPS, and DecimationFactor.
	BufferCapacity          int `toml:"buffer_capacity"`
	CaptureDurationSeconds  int `toml:"capture_duration_seconds"`
	SourceFPS               int `toml:"source_fps"`
	DecimationFactor        int `toml:"decimation_factor"`
	FrameSize               int `toml:"frame_size"`
	PostTriggerDelaySeconds int `toml:"post_trigger_delay_seconds"`
}

// GIF contains clip assembly settings.
type GIF struct {
	FrameDurationMs int `toml:"frame_duration_ms"`
}

// Pipeline contains size-guard and indexing settings.
type Pipeline struct {
	MaxArtifactSizeMB  int `toml:"max_artifact_size_mb"`
	SizeRetryBudget    int `toml:"size_retry_budget"`
	RecompressMaxWidth int `toml:"recompress_max_width"`
	RecompressFPS      int `toml:"recompress_fps"`
	ParaphraseCount    int `toml:"paraphrase_count"`
}

// Storage contains blob and metadata store settings.
type Storage struct {
	Bucket string `toml:"bucket"`
	Region string `toml:"region"`
	Table  string `toml:"table"`
}

// Retrieval contains the vector index settings.
type Retrieval struct {
	ClusterARN       string `toml:"cluster_arn"`
	SecretARN        string `toml:"secret_arn"`
	Database         string `toml:"database"`
	Table            string `toml:"table"`
	EmbeddingModelID string `toml:"embedding_model_id"`
}

// Config is the full agent configuration.
type Config struct {
	Agent     Agent     `toml:"agent"`
	Transport Transport `toml:"transport"`
	Capture   Capture   `toml:"capture"`
	GIF       GIF       `toml:"gif"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Storage   Storage   `toml:"storage"`
	Retrieval Retrieval `toml:"retrieval"`
}

// RingCapacity returns the ring buffer capacity: the explicit value when
// set, else the number of kept frames in one capture window.
func (c *Config) RingCapacity() int {
	if c.Capture.BufferCapacity > 0 {
		return c.Capture.BufferCapacity
	}
	kept := c.Capture.CaptureDurationSeconds * c.Capture.SourceFPS / c.Capture.DecimationFactor
	if kept < 1 {
		kept = 1
	}
	return kept
}

// MaxArtifactBytes returns the size-guard threshold in bytes.
func (c *Config) MaxArtifactBytes() int {
	return c.Pipeline.MaxArtifactSizeMB * 1024 * 1024
}

// Load reads the config file at path, applies defaults and environment
// overrides, and validates the result. A missing file at the default path
// is an error: the agent cannot run without transport and storage targets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found at %s (see sample config)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides pulls credential material from the environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEMENTO_MQTT_USERNAME"); v != "" {
		cfg.Transport.Username = v
	}
	cfg.Transport.Password = os.Getenv("MEMENTO_MQTT_PASSWORD")
	if v := os.Getenv("MEMENTO_AGENT_ID"); v != "" {
		cfg.Agent.InstanceID = v
	}
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
