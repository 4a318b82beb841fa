package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design. All records for an
// artifact share PK = MEMORY#{filePath}; the summary row is SK = META.
const (
	pkPrefix = "MEMORY#"
	skMeta   = "META"
)

// DynamoStore implements SummaryStore on a single DynamoDB table.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ SummaryStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table. The client
// should come from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// memoryPK returns the partition key for an artifact path.
func memoryPK(filePath string) string {
	return pkPrefix + filePath
}

// InsertSummary writes the record with a not-exists condition so a summary
// row can never be overwritten after it is first written.
func (s *DynamoStore) InsertSummary(ctx context.Context, rec *SummaryRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal summary record: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: memoryPK(rec.FilePath)}
	item["SK"] = &types.AttributeValueMemberS{Value: skMeta}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("summary record already exists for %s", rec.FilePath)
		}
		return fmt.Errorf("PutItem %s: %w", rec.FilePath, err)
	}

	log.Debug().Str("file_path", rec.FilePath).Msg("Summary record persisted")
	return nil
}

// GetSummary reads the summary row for an artifact path.
func (s *DynamoStore) GetSummary(ctx context.Context, filePath string) (*SummaryRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: memoryPK(filePath)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem %s: %w", filePath, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	rec := &SummaryRecord{FilePath: filePath}
	if err := attributevalue.UnmarshalMap(result.Item, rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", filePath, err)
	}
	return rec, nil
}
