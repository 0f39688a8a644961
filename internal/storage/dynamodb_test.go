package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type mockDynamoDBClient struct {
	deleteItemFunc func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	putItemFunc    func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	updateItemFunc func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

func (m *mockDynamoDBClient) DeleteItem(
	ctx context.Context,
	params *dynamodb.DeleteItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	if m.deleteItemFunc != nil {
		return m.deleteItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDynamoDBClient) PutItem(
	ctx context.Context,
	params *dynamodb.PutItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) UpdateItem(
	ctx context.Context,
	params *dynamodb.UpdateItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.UpdateItemOutput, error) {
	if m.updateItemFunc != nil {
		return m.updateItemFunc(ctx, params, optFns...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func TestNewDynamoLocker(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		client    DynamoDBAPI
		errMsg    string
		tableName string
		ttl       time.Duration
		wantErr   bool
	}{
		"valid inputs": {
			client:    &mockDynamoDBClient{},
			tableName: "booksync-locks",
			ttl:       time.Minute,
			wantErr:   false,
		},
		"nil client": {
			client:    nil,
			tableName: "booksync-locks",
			ttl:       time.Minute,
			wantErr:   true,
			errMsg:    "dynamodb client is required",
		},
		"empty table name": {
			client:    &mockDynamoDBClient{},
			tableName: "",
			ttl:       time.Minute,
			wantErr:   true,
			errMsg:    "table name is required",
		},
		"zero TTL": {
			client:    &mockDynamoDBClient{},
			tableName: "booksync-locks",
			ttl:       0,
			wantErr:   true,
			errMsg:    "lock TTL must be positive",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			locker, err := NewDynamoLocker(tc.client, tc.tableName, tc.ttl)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Nil(t, locker)
			} else {
				require.NoError(t, err)
				require.NotNil(t, locker)
			}
		})
	}
}

func TestDynamoLocker_TryLock(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	tests := map[string]struct {
		errMsg       string
		putErr       error
		wantAcquired bool
		wantErr      bool
	}{
		"acquires free lock": {
			wantAcquired: true,
		},
		"held lock is not acquired": {
			putErr:       &types.ConditionalCheckFailedException{Message: new(string)},
			wantAcquired: false,
		},
		"other errors are returned": {
			putErr:  errors.New("throttled"),
			wantErr: true,
			errMsg:  "putting lock item to DynamoDB: throttled",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got *dynamodb.PutItemInput
			client := &mockDynamoDBClient{
				putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
					got = params
					return &dynamodb.PutItemOutput{}, tc.putErr
				},
			}
			locker, err := NewDynamoLocker(client, "locks", 30*time.Minute)
			require.NoError(t, err)
			locker.now = func() time.Time { return now }

			lease, acquired, err := locker.TryLock(context.Background(), "booksync:sync:connection:7")

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantAcquired, acquired)
			require.Equal(t, tc.wantAcquired, lease != nil)
			if lease != nil {
				t.Cleanup(func() { _ = lease.Release(context.Background()) })
			}

			require.Equal(t, "locks", *got.TableName)
			require.Equal(t, "attribute_not_exists(lock_key) OR expires_at < :now", *got.ConditionExpression)
			require.Equal(t, "booksync:sync:connection:7", got.Item["lock_key"].(*types.AttributeValueMemberS).Value)
			require.Equal(t, "1700001800", got.Item["expires_at"].(*types.AttributeValueMemberN).Value)
			require.Equal(t, "1700000000", got.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value)
			require.NotEmpty(t, got.Item["owner_id"].(*types.AttributeValueMemberS).Value)
		})
	}
}

func TestDynamoLocker_Unlock(t *testing.T) {
	t.Parallel()

	t.Run("deletes only its own item", func(t *testing.T) {
		t.Parallel()

		var owner string
		var deleted *dynamodb.DeleteItemInput
		client := &mockDynamoDBClient{
			putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				owner = params.Item["owner_id"].(*types.AttributeValueMemberS).Value
				return &dynamodb.PutItemOutput{}, nil
			},
			deleteItemFunc: func(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				deleted = params
				return &dynamodb.DeleteItemOutput{}, nil
			},
		}
		locker, err := NewDynamoLocker(client, "locks", time.Minute)
		require.NoError(t, err)

		lease, acquired, err := locker.TryLock(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, lease.Release(context.Background()))
		require.Equal(t, "k", deleted.Key["lock_key"].(*types.AttributeValueMemberS).Value)
		require.Equal(t, owner, deleted.ExpressionAttributeValues[":owner"].(*types.AttributeValueMemberS).Value)
	})

	t.Run("reports a lock taken over after expiry", func(t *testing.T) {
		t.Parallel()

		client := &mockDynamoDBClient{
			deleteItemFunc: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{Message: new(string)}
			},
		}
		locker, err := NewDynamoLocker(client, "locks", time.Minute)
		require.NoError(t, err)

		lease, _, err := locker.TryLock(context.Background(), "k")
		require.NoError(t, err)

		err = lease.Release(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "lock k expired")
	})
}

func TestDynamoLocker_TryLock_EmptyKey(t *testing.T) {
	t.Parallel()

	locker, err := NewDynamoLocker(&mockDynamoDBClient{}, "locks", time.Minute)
	require.NoError(t, err)

	_, _, err = locker.TryLock(context.Background(), "")

	require.Error(t, err)
	require.Contains(t, err.Error(), "lock key is required")
}

func TestDynamoLocker_Renew(t *testing.T) {
	t.Parallel()

	t.Run("extends expiry for its own item", func(t *testing.T) {
		t.Parallel()

		var owner string
		updates := make(chan *dynamodb.UpdateItemInput, 8)
		client := &mockDynamoDBClient{
			putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				owner = params.Item["owner_id"].(*types.AttributeValueMemberS).Value
				return &dynamodb.PutItemOutput{}, nil
			},
			updateItemFunc: func(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				select {
				case updates <- params:
				default:
				}
				return &dynamodb.UpdateItemOutput{}, nil
			},
		}
		locker, err := NewDynamoLocker(client, "locks", 30*time.Minute)
		require.NoError(t, err)
		locker.now = func() time.Time { return time.Unix(1_700_000_600, 0) }
		locker.renewEvery = 5 * time.Millisecond

		lease, acquired, err := locker.TryLock(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, acquired)

		var got *dynamodb.UpdateItemInput
		select {
		case got = <-updates:
		case <-time.After(2 * time.Second):
			t.Fatal("lock was not renewed")
		}
		require.NoError(t, lease.Release(context.Background()))

		require.Equal(t, "k", got.Key["lock_key"].(*types.AttributeValueMemberS).Value)
		require.Equal(t, "SET expires_at = :expires", *got.UpdateExpression)
		require.Equal(t, "owner_id = :owner", *got.ConditionExpression)
		require.Equal(t, "1700002400", got.ExpressionAttributeValues[":expires"].(*types.AttributeValueMemberN).Value)
		require.Equal(t, owner, got.ExpressionAttributeValues[":owner"].(*types.AttributeValueMemberS).Value)
	})

	t.Run("taken over lock is reported lost", func(t *testing.T) {
		t.Parallel()

		client := &mockDynamoDBClient{
			updateItemFunc: func(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{Message: new(string)}
			},
		}
		locker, err := NewDynamoLocker(client, "locks", time.Minute)
		require.NoError(t, err)
		locker.renewEvery = 5 * time.Millisecond

		lease, acquired, err := locker.TryLock(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, acquired)

		select {
		case <-lease.Lost():
		case <-time.After(2 * time.Second):
			t.Fatal("lost lock was not reported")
		}

		err = lease.Release(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "lock k was taken by another run")
	})
}
