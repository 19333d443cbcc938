package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
)

// batchWriteLimit is the most requests DynamoDB accepts in one BatchWriteItem.
const batchWriteLimit = 25

const (
	maxBatchAttempts = 8
	maxBatchBackoff  = 2 * time.Second
)

var ErrRoundExists = interfaces.ErrRoundExists

// CreateRound writes the round only if no round with the same key exists.
func (client *Client) CreateRound(ctx context.Context, round entities.Round) error {
	av, err := attributevalue.MarshalMap(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round map: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           client.cfg.RoundsTableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(MatchId) AND attribute_not_exists(#number)"),
		ExpressionAttributeNames: map[string]string{
			"#number": "Number",
		},
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return ErrRoundExists
	}
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (client *Client) PutRound(ctx context.Context, round entities.Round) error {
	av, err := attributevalue.MarshalMap(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round map: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.RoundsTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put round: %w", err)
	}
	return nil
}

func (client *Client) FetchRounds(ctx context.Context, matchId string) ([]entities.Round, error) {
	var rounds []entities.Round
	paginator := dynamodb.NewQueryPaginator(client.dynamodb, roundsQuery(client.cfg.RoundsTableName, matchId))
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query rounds: %w", err)
		}
		var page []entities.Round
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		rounds = append(rounds, page...)
	}
	return rounds, nil
}

func (client *Client) deleteRounds(ctx context.Context, matchId string) error {
	input := roundsQuery(client.cfg.RoundsTableName, matchId)
	input.ProjectionExpression = aws.String("MatchId, #number")
	input.ExpressionAttributeNames = map[string]string{"#number": "Number"}

	var requests []types.WriteRequest
	paginator := dynamodb.NewQueryPaginator(client.dynamodb, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query rounds: %w", err)
		}
		for _, item := range output.Items {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: item},
			})
		}
	}

	for start := 0; start < len(requests); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(requests))
		pending := map[string][]types.WriteRequest{
			*client.cfg.RoundsTableName: requests[start:end],
		}
		if err := client.batchWrite(ctx, pending); err != nil {
			return fmt.Errorf("failed to delete rounds: %w", err)
		}
	}
	return nil
}

// batchWrite sends pending and resends the unprocessed items with
// exponential backoff until none are left.
func (client *Client) batchWrite(ctx context.Context, pending map[string][]types.WriteRequest) error {
	backoff := client.batchBackoff
	for attempt := 1; ; attempt++ {
		output, err := client.dynamodb.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return err
		}
		pending = output.UnprocessedItems
		if len(pending) == 0 {
			return nil
		}
		if attempt == maxBatchAttempts {
			return fmt.Errorf("%d items still unprocessed after %d attempts", unprocessedCount(pending), attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBatchBackoff)
	}
}

func unprocessedCount(pending map[string][]types.WriteRequest) int {
	var n int
	for _, requests := range pending {
		n += len(requests)
	}
	return n
}

func roundsQuery(table *string, matchId string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              table,
		KeyConditionExpression: aws.String("MatchId = :matchId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":matchId": &types.AttributeValueMemberS{Value: matchId},
		},
		ScanIndexForward: aws.Bool(true),
	}
}
