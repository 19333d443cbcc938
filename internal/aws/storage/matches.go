package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
)

var ErrMatchNotFound = interfaces.ErrMatchNotFound

func (client *Client) GetMatch(ctx context.Context, matchId string) (entities.Match, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{
				Value: matchId,
			},
		},
	})
	if err != nil {
		return entities.Match{}, err
	}
	if output.Item == nil {
		return entities.Match{}, ErrMatchNotFound
	}
	var match entities.Match
	if err := attributevalue.UnmarshalMap(output.Item, &match); err != nil {
		return entities.Match{}, err
	}
	return match, nil
}

func (client *Client) PutMatch(ctx context.Context, match entities.Match) error {
	av, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match map: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.MatchesTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put match: %w", err)
	}
	return nil
}

// DeleteMatch removes every round of the match before the match item itself.
func (client *Client) DeleteMatch(ctx context.Context, matchId string) error {
	if err := client.deleteRounds(ctx, matchId); err != nil {
		return err
	}
	_, err := client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: matchId},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

func (client *Client) FetchMatches(ctx context.Context) ([]entities.Match, error) {
	var matches []entities.Match
	paginator := dynamodb.NewScanPaginator(client.dynamodb, &dynamodb.ScanInput{
		TableName: client.cfg.MatchesTableName,
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matches: %w", err)
		}
		var page []entities.Match
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		matches = append(matches, page...)
	}
	return matches, nil
}
