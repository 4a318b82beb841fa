// Package rag implements the retrieval index collaborator: hypothetical
// question documents are embedded with Bedrock Titan and stored in a
// pgvector table through the RDS Data API, tagged with the artifact path
// they resolve back to.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rs/zerolog/log"
)

// DefaultEmbeddingModelID is the Bedrock model used when none is configured.
const DefaultEmbeddingModelID = "amazon.titan-embed-text-v2:0"

// EmbeddingDimensions is the vector width requested from Titan; must match
// the pgvector column definition.
const EmbeddingDimensions = 1024

type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type titanEmbedResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// GenerateEmbedding embeds text with the given Bedrock model, returning a
// normalized vector of EmbeddingDimensions floats.
func GenerateEmbedding(ctx context.Context, client *bedrockruntime.Client, modelID, text string) ([]float32, error) {
	if modelID == "" {
		modelID = DefaultEmbeddingModelID
	}

	req := titanEmbedRequest{
		InputText:  text,
		Dimensions: EmbeddingDimensions,
		Normalize:  true,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	result, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		log.Error().Err(err).Str("modelId", modelID).Msg("Bedrock InvokeModel failed")
		return nil, fmt.Errorf("InvokeModel: %w", err)
	}

	var resp titanEmbedResponse
	if err := json.NewDecoder(bytes.NewReader(result.Body)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
