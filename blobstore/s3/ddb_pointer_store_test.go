package s3

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quadgo/blobstore"
)

// mockDDBClient is an in-memory DynamoDB mock.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // base_uri:version -> item

	// staleReads makes Query return nothing, simulating a reader that has
	// not observed a concurrent commit yet.
	staleReads bool
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.staleReads {
		return &dynamodb.QueryOutput{}, nil
	}

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var newest map[string]types.AttributeValue
	var newestVersion int64
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value != baseURI {
			continue
		}
		v, _ := strconv.ParseInt(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		if newest == nil || v > newestVersion {
			newest, newestVersion = item, v
		}
	}

	if newest == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{newest}}, nil
}

func TestDDBPointerStore(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	s3Store := NewStore(newFakeS3Client(), "bucket", "indexes/fleet")
	store := NewDDBPointerStore(s3Store, ddb, "quadgo-commits", "s3://bucket/indexes/fleet")

	t.Run("empty pointer", func(t *testing.T) {
		_, err := store.Open(ctx, PointerName)
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("commit and read back", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, PointerName, []byte("snapshot-00000001.qdg")))

		b, err := store.Open(ctx, PointerName)
		require.NoError(t, err)
		defer func() { _ = b.Close() }()

		data, err := blobstore.ReadAll(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "snapshot-00000001.qdg", string(data))
	})

	t.Run("commits advance the version", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, PointerName, []byte("snapshot-00000002.qdg")))

		b, err := store.Open(ctx, PointerName)
		require.NoError(t, err)
		defer func() { _ = b.Close() }()

		data, err := blobstore.ReadAll(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "snapshot-00000002.qdg", string(data))
	})

	t.Run("concurrent modification detected", func(t *testing.T) {
		// A writer that read a stale latest version collides with the
		// already committed one.
		ddb.staleReads = true
		defer func() { ddb.staleReads = false }()

		err := store.Put(ctx, PointerName, []byte("snapshot-00000099.qdg"))
		require.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("other blobs pass through to S3", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "snapshot-00000001.qdg", []byte("payload")))

		b, err := store.Open(ctx, "snapshot-00000001.qdg")
		require.NoError(t, err)
		defer func() { _ = b.Close() }()

		data, err := blobstore.ReadAll(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		names, err := store.List(ctx, "snapshot-")
		require.NoError(t, err)
		assert.Equal(t, []string{"snapshot-00000001.qdg"}, names)

		require.NoError(t, store.Delete(ctx, "snapshot-00000001.qdg"))
	})
}
