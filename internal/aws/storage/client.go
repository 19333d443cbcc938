package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
)

// DynamoDB is the subset of *dynamodb.Client the storage client calls.
type DynamoDB interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Config struct {
	MatchesTableName *string
	RoundsTableName  *string
}

func NewConfig(matchesTable, roundsTable string) Config {
	return Config{
		MatchesTableName: aws.String(matchesTable),
		RoundsTableName:  aws.String(roundsTable),
	}
}

type Client struct {
	dynamodb DynamoDB
	cfg      Config

	// batchBackoff is the first wait before resending unprocessed items.
	batchBackoff time.Duration
}

var _ interfaces.IMatchRepository = (*Client)(nil)

func NewClient(dynamoClient DynamoDB, cfg Config) *Client {
	return &Client{
		dynamodb:     dynamoClient,
		cfg:          cfg,
		batchBackoff: 50 * time.Millisecond,
	}
}
