package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func itemKey(item map[string]types.AttributeValue) string {
	mt := item["model_type"].(*types.AttributeValueMemberS).Value
	id := item["id"].(*types.AttributeValueMemberS).Value
	return mt + ":" + id
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := itemKey(params.Item)

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(id)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	modelType := params.ExpressionAttributeValues[":mt"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["model_type"].(*types.AttributeValueMemberS).Value == modelType {
			items = append(items, item)
		}
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if item, ok := m.items[itemKey(params.Key)]; ok {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func testRegistrySuite(t *testing.T, reg Registry) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := Entry{
		ID:        "abc123",
		ModelType: "BetaGeoModel",
		Location:  "models/abc123.bayes",
		FitMethod: "mcmc",
		FittedAt:  base,
	}
	newer := Entry{
		ID:        "def456",
		ModelType: "BetaGeoModel",
		Location:  "models/def456.bayes",
		FitMethod: "map",
		FittedAt:  base.Add(time.Hour),
	}

	t.Run("RegisterAndLookup", func(t *testing.T) {
		require.NoError(t, reg.Register(ctx, older))

		got, err := reg.Lookup(ctx, "BetaGeoModel", "abc123")
		require.NoError(t, err)
		assert.Equal(t, older, got)
	})

	t.Run("DuplicateRegister", func(t *testing.T) {
		err := reg.Register(ctx, older)
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("LookupMissing", func(t *testing.T) {
		_, err := reg.Lookup(ctx, "BetaGeoModel", "nope")
		require.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		require.NoError(t, reg.Register(ctx, newer))

		entries, err := reg.List(ctx, "BetaGeoModel")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "def456", entries[0].ID)
		assert.Equal(t, "abc123", entries[1].ID)
	})

	t.Run("ListOtherTypeEmpty", func(t *testing.T) {
		entries, err := reg.List(ctx, "ParetoNBDModel")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Deregister", func(t *testing.T) {
		require.NoError(t, reg.Deregister(ctx, "BetaGeoModel", "def456"))

		_, err := reg.Lookup(ctx, "BetaGeoModel", "def456")
		require.ErrorIs(t, err, ErrEntryNotFound)

		// Removing again is not an error.
		require.NoError(t, reg.Deregister(ctx, "BetaGeoModel", "def456"))
	})
}

func TestMemoryRegistry(t *testing.T) {
	testRegistrySuite(t, NewMemory())
}

func TestDynamoDBRegistry(t *testing.T) {
	testRegistrySuite(t, NewDynamoDB(newMockDDBClient(), "bayes-models"))
}
