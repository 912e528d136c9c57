package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDB implements Registry backed by a DynamoDB table. Conditional writes
// give first-writer-wins semantics for concurrent registrations of the same
// identity.
//
// Table schema:
//   - Partition key: model_type (string)
//   - Sort key: id (string) - the identity fingerprint
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name bayes-models \
//	  --attribute-definitions AttributeName=model_type,AttributeType=S AttributeName=id,AttributeType=S \
//	  --key-schema AttributeName=model_type,KeyType=HASH AttributeName=id,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDB struct {
	client    DDBClient
	tableName string
}

// NewDynamoDB creates a DynamoDB-backed registry.
func NewDynamoDB(client DDBClient, tableName string) *DynamoDB {
	return &DynamoDB{
		client:    client,
		tableName: tableName,
	}
}

// Register adds an entry with a conditional write.
func (r *DynamoDB) Register(ctx context.Context, e Entry) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"model_type": &types.AttributeValueMemberS{Value: e.ModelType},
			"id":         &types.AttributeValueMemberS{Value: e.ID},
			"location":   &types.AttributeValueMemberS{Value: e.Location},
			"fit_method": &types.AttributeValueMemberS{Value: e.FitMethod},
			"fitted_at":  &types.AttributeValueMemberN{Value: strconv.FormatInt(e.FittedAt.UnixNano(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to register model in DynamoDB: %w", err)
	}
	return nil
}

// Lookup returns the entry for a model type and identity.
func (r *DynamoDB) Lookup(ctx context.Context, modelType, id string) (Entry, error) {
	resp, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"model_type": &types.AttributeValueMemberS{Value: modelType},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if resp.Item == nil {
		return Entry{}, ErrEntryNotFound
	}
	return decodeEntry(resp.Item)
}

// List returns all entries for a model type, newest first.
func (r *DynamoDB) List(ctx context.Context, modelType string) ([]Entry, error) {
	var entries []Entry
	var lastKey map[string]types.AttributeValue

	for {
		resp, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("model_type = :mt"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":mt": &types.AttributeValueMemberS{Value: modelType},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}

		for _, item := range resp.Items {
			e, err := decodeEntry(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}

		if resp.LastEvaluatedKey == nil {
			break
		}
		lastKey = resp.LastEvaluatedKey
	}

	// The sort key orders by identity, callers want recency.
	for i := 0; i < len(entries)-1; i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].FittedAt.Before(entries[j].FittedAt) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	return entries, nil
}

// Deregister removes an entry.
func (r *DynamoDB) Deregister(ctx context.Context, modelType, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"model_type": &types.AttributeValueMemberS{Value: modelType},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete from DynamoDB: %w", err)
	}
	return nil
}

func decodeEntry(item map[string]types.AttributeValue) (Entry, error) {
	var e Entry

	mt, ok := item["model_type"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("invalid model_type attribute in DynamoDB")
	}
	e.ModelType = mt.Value

	id, ok := item["id"].(*types.AttributeValueMemberS)
	if !ok {
		return Entry{}, errors.New("invalid id attribute in DynamoDB")
	}
	e.ID = id.Value

	if loc, ok := item["location"].(*types.AttributeValueMemberS); ok {
		e.Location = loc.Value
	}
	if fm, ok := item["fit_method"].(*types.AttributeValueMemberS); ok {
		e.FitMethod = fm.Value
	}
	if ts, ok := item["fitted_at"].(*types.AttributeValueMemberN); ok {
		nanos, err := strconv.ParseInt(ts.Value, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to parse fitted_at: %w", err)
		}
		e.FittedAt = time.Unix(0, nanos).UTC()
	}

	return e, nil
}
