package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/peteski22/booksync/internal/sync"
)

// DynamoLocker serializes sync runs across Lambda invocations using conditional writes.
// Each lock is an item keyed by lock_key that expires at expires_at (unix seconds).
type DynamoLocker struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// now returns the current time.
	now func() time.Time

	// renewEvery is how often a held lock's expiry is pushed forward.
	renewEvery time.Duration

	// tableName is the name of the lock table.
	tableName string

	// ttl bounds how long an abandoned lock blocks later runs.
	ttl time.Duration
}

// TryLock writes the lock item unless an unexpired one exists.
// The returned lease extends expires_at while the run holds it.
func (l *DynamoLocker) TryLock(ctx context.Context, key string) (sync.Lease, bool, error) {
	if key == "" {
		return nil, false, errors.New("lock key is required")
	}

	owner := uuid.NewString()
	now := l.now()

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item: map[string]types.AttributeValue{
			"lock_key":   &types.AttributeValueMemberS{Value: key},
			"owner_id":   &types.AttributeValueMemberS{Value: owner},
			"expires_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(l.ttl).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(lock_key) OR expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var held *types.ConditionalCheckFailedException
		if errors.As(err, &held) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("putting lock item to DynamoDB: %w", err)
	}

	renew := func(ctx context.Context) error {
		return l.renew(ctx, key, owner)
	}
	release := func(ctx context.Context) error {
		return l.release(ctx, key, owner)
	}
	return startLease(l.renewEvery, renew, release), true, nil
}

// renew pushes the lock's expiry forward if owner still holds it.
func (l *DynamoLocker) renew(ctx context.Context, key string, owner string) error {
	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"lock_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:    aws.String("SET expires_at = :expires"),
		ConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expires": &types.AttributeValueMemberN{Value: strconv.FormatInt(l.now().Add(l.ttl).Unix(), 10)},
			":owner":   &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var lost *types.ConditionalCheckFailedException
		if errors.As(err, &lost) {
			return fmt.Errorf("lock %s was taken by another run", key)
		}
		return fmt.Errorf("updating lock item in DynamoDB: %w", err)
	}

	return nil
}

// release deletes the lock item if owner still holds it.
func (l *DynamoLocker) release(ctx context.Context, key string, owner string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"lock_key": &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var lost *types.ConditionalCheckFailedException
		if errors.As(err, &lost) {
			return fmt.Errorf("lock %s expired and was taken by another run", key)
		}
		return fmt.Errorf("deleting lock item from DynamoDB: %w", err)
	}

	return nil
}

// DynamoDBAPI defines the DynamoDB operations used by the locker.
type DynamoDBAPI interface {
	// DeleteItem removes an item from DynamoDB.
	DeleteItem(
		ctx context.Context,
		params *dynamodb.DeleteItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DeleteItemOutput, error)

	// PutItem stores an item in DynamoDB.
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)

	// UpdateItem modifies an existing item in DynamoDB.
	UpdateItem(
		ctx context.Context,
		params *dynamodb.UpdateItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.UpdateItemOutput, error)
}

// NewDynamoLocker creates a new DynamoDB-backed run locker.
func NewDynamoLocker(client DynamoDBAPI, tableName string, ttl time.Duration) (*DynamoLocker, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock TTL must be positive, got %v", ttl)
	}

	return &DynamoLocker{
		client:     client,
		now:        time.Now,
		renewEvery: renewInterval(ttl),
		tableName:  tableName,
		ttl:        ttl,
	}, nil
}
