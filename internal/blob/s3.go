// Package blob provides durable artifact storage. The pipeline writes each
// assembled clip once under a generated unique key and keeps only the
// public URL afterward.
package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Store is the blob storage collaborator contract.
type Store interface {
	// Put writes data under key with the given content type and returns
	// the public URL. Any non-success response is an error.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// S3Store implements Store on an S3 bucket with public-read objects.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// Compile-time interface check.
var _ Store = (*S3Store)(nil)

// NewS3Store creates a store writing to the given bucket.
func NewS3Store(client *s3.Client, bucket, region string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region}
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Put uploads the object and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	log.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Uploading artifact to S3")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", s.bucket, key, err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	log.Info().Str("url", url).Msg("Artifact uploaded")
	return url, nil
}
