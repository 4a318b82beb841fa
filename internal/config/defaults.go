package config

// defaultConfig returns a Config populated with deployment defaults.
// Values mirror sample_config.toml.
func defaultConfig() *Config {
	return &Config{
		Agent: Agent{
			InstanceID: "memento-agent",
		},
		Transport: Transport{
			Broker:       "localhost:1883",
			TriggerTopic: "button",
			AckTopic:     "button/ack",
			FrameTopic:   "frames/raw",
		},
		Capture: Capture{
			CaptureDurationSeconds:  10,
			SourceFPS:               20,
			DecimationFactor:        5,
			FrameSize:               512,
			PostTriggerDelaySeconds: 2,
		},
		GIF: GIF{
			FrameDurationMs: 250,
		},
		Pipeline: Pipeline{
			MaxArtifactSizeMB:  50,
			SizeRetryBudget:    1,
			RecompressMaxWidth: 400,
			RecompressFPS:      10,
			ParaphraseCount:    3,
		},
		Storage: Storage{
			Region: "us-east-1",
		},
		Retrieval: Retrieval{
			Database:         "memento",
			Table:            "memory_documents",
			EmbeddingModelID: "amazon.titan-embed-text-v2:0",
		},
	}
}
