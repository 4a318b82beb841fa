// Package store persists summary metadata for captured memory artifacts.
// Records are written once by the pipeline after a successful upload and
// are immutable afterward; retrieval tooling reads them by artifact path.
package store

import "context"

// SummaryRecord is the durable metadata row for one uploaded artifact.
// Immutable once written.
type SummaryRecord struct {
	// FilePath is "<bucket>/<key>", the artifact's storage path and the
	// tag retrieval documents carry.
	FilePath string `json:"filePath" dynamodbav:"-"`

	// PublicURL is the blob store URL returned by the upload stage.
	PublicURL string `json:"publicUrl" dynamodbav:"publicUrl"`

	// Summary is the vision-language description of the clip.
	Summary string `json:"summary" dynamodbav:"summary"`

	// CreatedAt is the write time, Unix seconds UTC.
	CreatedAt int64 `json:"createdAt" dynamodbav:"createdAt"`
}

// SummaryStore is the persistence interface the pipeline writes through.
// Implementations must be safe for concurrent use.
type SummaryStore interface {
	// InsertSummary writes a new record. Fails if a record already exists
	// for the same FilePath; records are never updated in place.
	InsertSummary(ctx context.Context, rec *SummaryRecord) error

	// GetSummary retrieves a record by artifact file path.
	// Returns nil, nil if not found.
	GetSummary(ctx context.Context, filePath string) (*SummaryRecord, error)
}
