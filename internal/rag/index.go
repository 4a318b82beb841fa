package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdsdatatypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/rs/zerolog/log"
)

// DocumentMetadata tags an indexed document with the artifact it resolves
// back to.
type DocumentMetadata struct {
	// SourcePath is the artifact's storage path ("<bucket>/<key>").
	SourcePath string
}

// Index is the retrieval index collaborator contract: each uploaded
// document becomes independently retrievable by semantic search and
// carries its source artifact path.
type Index interface {
	Upload(ctx context.Context, document []byte, meta DocumentMetadata) error
}

// VectorIndex implements Index on an Aurora pgvector table reached through
// the RDS Data API, with Bedrock Titan embeddings.
type VectorIndex struct {
	data       *rdsdata.Client
	bedrock    *bedrockruntime.Client
	clusterARN string
	secretARN  string
	database   string
	table      string
	modelID    string
}

// Compile-time interface check.
var _ Index = (*VectorIndex)(nil)

// NewVectorIndex creates a VectorIndex. table must be a trusted identifier
// from configuration; it is interpolated into SQL.
func NewVectorIndex(data *rdsdata.Client, bedrock *bedrockruntime.Client, clusterARN, secretARN, database, table, modelID string) *VectorIndex {
	return &VectorIndex{
		data:       data,
		bedrock:    bedrock,
		clusterARN: clusterARN,
		secretARN:  secretARN,
		database:   database,
		table:      table,
		modelID:    modelID,
	}
}

// Upload embeds the document text and inserts it as one retrievable row.
func (v *VectorIndex) Upload(ctx context.Context, document []byte, meta DocumentMetadata) error {
	text := string(document)

	embedding, err := GenerateEmbedding(ctx, v.bedrock, v.modelID, text)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (content, embedding, source_path, created_at)
		 VALUES (:content, CAST(:embedding AS vector), :source_path, :created_at)`,
		v.table,
	)

	params := []rdsdatatypes.SqlParameter{
		{Name: aws.String("content"), Value: &rdsdatatypes.FieldMemberStringValue{Value: text}},
		{Name: aws.String("embedding"), Value: &rdsdatatypes.FieldMemberStringValue{Value: formatVector(embedding)}},
		{Name: aws.String("source_path"), Value: &rdsdatatypes.FieldMemberStringValue{Value: meta.SourcePath}},
		{Name: aws.String("created_at"), Value: &rdsdatatypes.FieldMemberStringValue{Value: time.Now().UTC().Format("2006-01-02 15:04:05")}, TypeHint: rdsdatatypes.TypeHintTimestamp},
	}

	_, err = v.data.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(v.clusterARN),
		SecretArn:   aws.String(v.secretARN),
		Database:    aws.String(v.database),
		Sql:         aws.String(sql),
		Parameters:  params,
	})
	if err != nil {
		log.Error().Err(err).Str("source_path", meta.SourcePath).Msg("Retrieval index insert failed")
		return fmt.Errorf("insert document: %w", err)
	}

	log.Debug().
		Str("source_path", meta.SourcePath).
		Int("content_length", len(text)).
		Msg("Document indexed for retrieval")
	return nil
}

// formatVector renders an embedding in pgvector literal syntax.
func formatVector(emb []float32) string {
	if len(emb) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range emb {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
