package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrSizeExceeded is returned when an artifact is still over the size
// threshold after the re-encode retry budget is exhausted.
var ErrSizeExceeded = errors.New("pipeline: artifact size exceeds threshold")

// guardSize enforces the artifact size threshold, re-encoding at reduced
// resolution and frame rate up to the retry budget. The artifact's bytes
// are replaced in place by each re-encode.
func (p *Pipeline) guardSize(artifact *Artifact) error {
	limit := p.cfg.MaxArtifactSize
	if limit <= 0 || len(artifact.Data) <= limit {
		return nil
	}

	for attempt := 1; attempt <= p.cfg.SizeRetryBudget; attempt++ {
		log.Warn().
			Str("artifact_key", artifact.Key).
			Int("bytes", len(artifact.Data)).
			Int("limit", limit).
			Int("attempt", attempt).
			Msg("Artifact over size threshold, recompressing")

		out, err := p.recompress(artifact.Data, p.cfg.RecompressMaxWidth, p.cfg.RecompressFPS)
		if err != nil {
			return fmt.Errorf("recompress attempt %d: %w", attempt, err)
		}
		artifact.Data = out

		if len(artifact.Data) <= limit {
			log.Info().
				Str("artifact_key", artifact.Key).
				Int("bytes", len(artifact.Data)).
				Msg("Artifact recompressed under threshold")
			return nil
		}
	}

	return fmt.Errorf("%w: %d bytes after %d attempts (limit %d)",
		ErrSizeExceeded, len(artifact.Data), p.cfg.SizeRetryBudget, limit)
}
