package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mementolabs/capture-agent/internal/auth"
	"github.com/mementolabs/capture-agent/internal/blob"
	"github.com/mementolabs/capture-agent/internal/capture"
	"github.com/mementolabs/capture-agent/internal/config"
	"github.com/mementolabs/capture-agent/internal/describe"
	"github.com/mementolabs/capture-agent/internal/gifenc"
	"github.com/mementolabs/capture-agent/internal/logging"
	"github.com/mementolabs/capture-agent/internal/pipeline"
	"github.com/mementolabs/capture-agent/internal/rag"
	"github.com/mementolabs/capture-agent/internal/session"
	"github.com/mementolabs/capture-agent/internal/store"
	"github.com/mementolabs/capture-agent/internal/transport"
	"github.com/mementolabs/capture-agent/internal/trigger"
)

const (
	defaultConfigPath = "capture-agent.toml"
	shutdownTimeout   = 30 * time.Second
	frameChannelDepth = 16
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "capture-agent",
	Short: "Always-on visual memory agent",
	Long: `capture-agent continuously ingests a raw video frame stream into a
bounded in-memory ring buffer. When a trigger message arrives on the
control topic, the agent waits a short grace period, snapshots the
buffer, assembles the frames into an animated GIF, and runs the clip
through the media pipeline: AI description, durable upload, metadata
persistence, and retrieval indexing.

Configuration is read from a TOML file; credentials come from the
environment (GEMINI_API_KEY, MEMENTO_MQTT_USERNAME/PASSWORD, and the
standard AWS credential chain).`,
	Run: runAgent,
}

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteSample(path); err != nil {
			log.Fatal().Err(err).Msg("Failed to write sample config")
		}
		log.Info().Str("path", path).Msg("Sample config written")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Path to the TOML configuration file")
	rootCmd.AddCommand(sampleConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runAgent wires the full agent and blocks until a shutdown signal.
func runAgent(cmd *cobra.Command, args []string) {
	logging.Init()
	start := time.Now()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", configFlag).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS configuration")
	}

	apiKey, err := auth.GetAPIKey(ctx, ssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve Gemini API key")
	}

	describer, err := describe.NewGemini(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	blobs := blob.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Region)
	meta := store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Storage.Table)
	index := rag.NewVectorIndex(
		rdsdata.NewFromConfig(awsCfg),
		bedrockruntime.NewFromConfig(awsCfg),
		cfg.Retrieval.ClusterARN,
		cfg.Retrieval.SecretARN,
		cfg.Retrieval.Database,
		cfg.Retrieval.Table,
		cfg.Retrieval.EmbeddingModelID,
	)
	questions := describe.NewQuestionGenerator(describer, cfg.Pipeline.ParaphraseCount)

	pipe := pipeline.New(describer, blobs, meta, index, questions, gifenc.Recompress, cfg.Storage.Bucket, pipeline.Config{
		MaxArtifactSize:    cfg.MaxArtifactBytes(),
		SizeRetryBudget:    cfg.Pipeline.SizeRetryBudget,
		RecompressMaxWidth: cfg.Pipeline.RecompressMaxWidth,
		RecompressFPS:      cfg.Pipeline.RecompressFPS,
	})

	ring := capture.NewRingBuffer(cfg.RingCapacity())
	ingestor := capture.NewIngestor(ring, cfg.Capture.DecimationFactor, cfg.Capture.FrameSize)

	tr, err := transport.DialMQTT(ctx, transport.MQTTOptions{
		Broker:   cfg.Transport.Broker,
		ClientID: cfg.Agent.InstanceID,
		Username: cfg.Transport.Username,
		Password: cfg.Transport.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frames := make(chan capture.RawFrame, frameChannelDepth)
	go ingestor.Run(runCtx, frames)
	if err := transport.SubscribeFrames(tr, cfg.Transport.FrameTopic, frames); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to frame topic")
	}

	scope := session.NewScope(runCtx)
	assembler := gifenc.NewAssembler(time.Duration(cfg.GIF.FrameDurationMs) * time.Millisecond)
	manager := session.NewManager(
		ring,
		assembler,
		pipe,
		time.Duration(cfg.Capture.PostTriggerDelaySeconds)*time.Second,
		scope,
	)

	listener := trigger.NewListener(tr, manager, cfg.Transport.TriggerTopic, cfg.Transport.AckTopic)
	if err := listener.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start trigger listener")
	}

	logging.NewStartupLogger(cfg.Agent.InstanceID).
		Resource("broker", cfg.Transport.Broker).
		Resource("bucket", cfg.Storage.Bucket).
		Resource("table", cfg.Storage.Table).
		Resource("model", describe.GetModelName()).
		Feature("retrieval", cfg.Retrieval.ClusterARN != "").
		Config("ringCapacity", strconv.Itoa(cfg.RingCapacity())).
		Config("decimationFactor", strconv.Itoa(cfg.Capture.DecimationFactor)).
		Config("frameSize", strconv.Itoa(cfg.Capture.FrameSize)).
		Config("postTriggerDelaySeconds", strconv.Itoa(cfg.Capture.PostTriggerDelaySeconds)).
		InitDuration(time.Since(start)).
		Log()

	<-runCtx.Done()
	log.Info().Int("active_sessions", scope.Active()).Msg("Shutdown signal received, draining sessions")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scope.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Session drain incomplete")
	}
	tr.Close()

	stats := ingestor.Stats()
	log.Info().
		Uint64("frames_seen", stats.Seen).
		Uint64("frames_kept", stats.Kept).
		Uint64("frames_dropped", stats.Dropped).
		Msg("Capture agent stopped")
}
