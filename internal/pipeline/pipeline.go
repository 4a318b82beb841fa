// Package pipeline runs the post-capture stages for one artifact:
// size-guard, AI description, durable upload, metadata persistence, and
// retrieval indexing. Stages are hard gates: a stage never runs if the
// prior one failed, nothing retries except the size guard's bounded
// re-encode loop, and completed side effects are never rolled back. An
// uploaded artifact whose later stage fails stays uploaded; the session
// id, stage name, and error in the logs are the reconciliation trail.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mementolabs/capture-agent/internal/blob"
	"github.com/mementolabs/capture-agent/internal/describe"
	"github.com/mementolabs/capture-agent/internal/metrics"
	"github.com/mementolabs/capture-agent/internal/rag"
	"github.com/mementolabs/capture-agent/internal/store"
)

// Stage names, used in logs and metrics dimensions.
const (
	StageSizeGuard = "size_guard"
	StageSummarize = "summarize"
	StageUpload    = "upload"
	StagePersist   = "persist_metadata"
	StageIndex     = "index_for_retrieval"
)

const artifactContentType = "image/gif"

// Artifact is one assembled clip moving through the pipeline. The pipeline
// owns the bytes after submission; the size guard may replace them with a
// recompressed rendition.
type Artifact struct {
	// Key is the unique storage key, "<uuid>.gif".
	Key  string
	Data []byte
}

// NewArtifact wraps assembled GIF bytes with a fresh unique key.
func NewArtifact(data []byte) Artifact {
	return Artifact{Key: uuid.NewString() + ".gif", Data: data}
}

// QuestionGenerator produces exactly K paraphrase queries for a summary.
type QuestionGenerator interface {
	Generate(ctx context.Context, summary string) ([]string, error)
}

// Recompressor re-encodes a GIF at reduced resolution and frame rate.
type Recompressor func(data []byte, maxWidth, fps int) ([]byte, error)

// Config carries the static pipeline limits.
type Config struct {
	// MaxArtifactSize is the size-guard threshold in bytes.
	MaxArtifactSize int

	// SizeRetryBudget is how many re-encode attempts the size guard may
	// spend before failing with ErrSizeExceeded.
	SizeRetryBudget int

	// RecompressMaxWidth and RecompressFPS parameterize each re-encode.
	RecompressMaxWidth int
	RecompressFPS      int
}

// Result is what a completed pipeline run produced.
type Result struct {
	Key       string
	FilePath  string
	PublicURL string
	Summary   string
}

// Pipeline wires the collaborators for the five stages.
type Pipeline struct {
	describer  describe.Describer
	blobs      blob.Store
	meta       store.SummaryStore
	index      rag.Index
	questions  QuestionGenerator
	recompress Recompressor
	bucket     string
	cfg        Config
}

// New creates a Pipeline. bucket is used to form the artifact file path
// ("<bucket>/<key>") recorded in metadata and index tags.
func New(
	describer describe.Describer,
	blobs blob.Store,
	meta store.SummaryStore,
	index rag.Index,
	questions QuestionGenerator,
	recompress Recompressor,
	bucket string,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		describer:  describer,
		blobs:      blobs,
		meta:       meta,
		index:      index,
		questions:  questions,
		recompress: recompress,
		bucket:     bucket,
		cfg:        cfg,
	}
}

// Run executes all stages in order for one artifact. sessionID is the
// owning capture session, carried into every log event for manual
// reconciliation when a later stage fails after earlier side effects.
func (p *Pipeline) Run(ctx context.Context, sessionID string, artifact Artifact) (*Result, error) {
	logger := log.With().Str("session_id", sessionID).Str("artifact_key", artifact.Key).Logger()
	rec := metrics.New("MementoCapture").Dimension("Component", "pipeline")
	defer rec.Flush()
	rec.Property("sessionId", sessionID)
	rec.Property("artifactKey", artifact.Key)

	runStage := func(stage string, fn func() error) error {
		start := time.Now()
		err := fn()
		rec.Metric(stage+"Ms", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds)
		if err != nil {
			logger.Error().Err(err).Str("stage", stage).Msg("Pipeline stage failed")
			return fmt.Errorf("%s: %w", stage, err)
		}
		logger.Debug().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("Pipeline stage complete")
		return nil
	}

	// 1. Size guard (the only stage with a retry loop).
	if err := runStage(StageSizeGuard, func() error {
		return p.guardSize(&artifact)
	}); err != nil {
		return nil, err
	}
	rec.Metric("ArtifactBytes", float64(len(artifact.Data)), metrics.UnitBytes)

	// 2. Summarize.
	var summary string
	if err := runStage(StageSummarize, func() error {
		var err error
		summary, err = p.describer.Describe(ctx, artifact.Data, artifactContentType)
		return err
	}); err != nil {
		return nil, err
	}
	logger.Info().Int("summary_length", len(summary)).Msg("Clip summarized")

	// 3. Upload.
	var publicURL string
	if err := runStage(StageUpload, func() error {
		var err error
		publicURL, err = p.blobs.Put(ctx, artifact.Key, artifact.Data, artifactContentType)
		return err
	}); err != nil {
		return nil, err
	}

	filePath := p.bucket + "/" + artifact.Key

	// 4. Persist metadata. On failure the uploaded artifact remains;
	// there is no compensating delete.
	if err := runStage(StagePersist, func() error {
		return p.meta.InsertSummary(ctx, &store.SummaryRecord{
			FilePath:  filePath,
			PublicURL: publicURL,
			Summary:   summary,
			CreatedAt: time.Now().UTC().Unix(),
		})
	}); err != nil {
		return nil, err
	}

	// 5. Index for retrieval: K hypothetical questions, each uploaded as
	// an independent document tagged with the artifact path.
	if err := runStage(StageIndex, func() error {
		questions, err := p.questions.Generate(ctx, summary)
		if err != nil {
			return err
		}
		for i, q := range questions {
			if err := p.index.Upload(ctx, []byte(q), rag.DocumentMetadata{SourcePath: filePath}); err != nil {
				return fmt.Errorf("upload question %d: %w", i+1, err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	logger.Info().Str("public_url", publicURL).Msg("Pipeline complete")
	return &Result{
		Key:       artifact.Key,
		FilePath:  filePath,
		PublicURL: publicURL,
		Summary:   summary,
	}, nil
}
