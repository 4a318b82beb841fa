package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values the agent cannot run with.
// All problems are reported together so a bad deployment is fixed in one
// pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Transport.Broker == "" {
		problems = append(problems, "transport.broker is required")
	}
	if c.Transport.TriggerTopic == "" {
		problems = append(problems, "transport.trigger_topic is required")
	}
	if c.Transport.FrameTopic == "" {
		problems = append(problems, "transport.frame_topic is required")
	}
	if c.Capture.DecimationFactor < 1 {
		problems = append(problems, "capture.decimation_factor must be at least 1")
	}
	if c.Capture.FrameSize < 16 {
		problems = append(problems, "capture.frame_size must be at least 16")
	}
	if c.Capture.BufferCapacity == 0 {
		if c.Capture.CaptureDurationSeconds < 1 || c.Capture.SourceFPS < 1 {
			problems = append(problems, "capture.capture_duration_seconds and capture.source_fps must be positive when buffer_capacity is not set")
		}
	} else if c.Capture.BufferCapacity < 0 {
		problems = append(problems, "capture.buffer_capacity must not be negative")
	}
	if c.Capture.PostTriggerDelaySeconds < 0 {
		problems = append(problems, "capture.post_trigger_delay_seconds must not be negative")
	}
	if c.GIF.FrameDurationMs < 10 {
		problems = append(problems, "gif.frame_duration_ms must be at least 10")
	}
	if c.Pipeline.MaxArtifactSizeMB < 1 {
		problems = append(problems, "pipeline.max_artifact_size_mb must be at least 1")
	}
	if c.Pipeline.SizeRetryBudget < 0 {
		problems = append(problems, "pipeline.size_retry_budget must not be negative")
	}
	if c.Pipeline.ParaphraseCount < 1 {
		problems = append(problems, "pipeline.paraphrase_count must be at least 1")
	}
	if c.Storage.Bucket == "" {
		problems = append(problems, "storage.bucket is required")
	}
	if c.Storage.Table == "" {
		problems = append(problems, "storage.table is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
