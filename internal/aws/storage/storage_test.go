package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB keeps items per table keyed by their hash and range values.
// throttle makes that many BatchWriteItem calls leave their last request
// unprocessed.
type fakeDynamoDB struct {
	tables     map[string]map[string]map[string]types.AttributeValue
	batchCalls int
	batchTimes []time.Time
	throttle   int
	mu         sync.Mutex
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	if id, ok := item["Id"].(*types.AttributeValueMemberS); ok {
		return id.Value
	}
	matchId := item["MatchId"].(*types.AttributeValueMemberS).Value
	number := item["Number"].(*types.AttributeValueMemberN).Value
	return matchId + "#" + number
}

func (f *fakeDynamoDB) table(name *string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[*name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[*name] = t
	}
	return t
}

func (f *fakeDynamoDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.table(in.TableName)[itemKey(in.Key)]}, nil
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(in.Item)
	if in.ConditionExpression != nil {
		if _, exists := f.table(in.TableName)[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("conditional request failed")}
		}
	}
	f.table(in.TableName)[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table(in.TableName), itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.batchTimes = append(f.batchTimes, time.Now())
	unprocessed := make(map[string][]types.WriteRequest)
	for name, requests := range in.RequestItems {
		if len(requests) > batchWriteLimit {
			return nil, fmt.Errorf("too many requests: %d", len(requests))
		}
		if f.throttle > 0 && len(requests) > 0 {
			f.throttle--
			last := len(requests) - 1
			unprocessed[name] = requests[last:]
			requests = requests[:last]
		}
		for _, req := range requests {
			delete(f.table(&name), itemKey(req.DeleteRequest.Key))
		}
	}
	return &dynamodb.BatchWriteItemOutput{UnprocessedItems: unprocessed}, nil
}

func (f *fakeDynamoDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matchId := in.ExpressionAttributeValues[":matchId"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range f.table(in.TableName) {
		if item["MatchId"].(*types.AttributeValueMemberS).Value == matchId {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, _ := strconv.Atoi(items[i]["Number"].(*types.AttributeValueMemberN).Value)
		b, _ := strconv.Atoi(items[j]["Number"].(*types.AttributeValueMemberN).Value)
		return a < b
	})
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range f.table(in.TableName) {
		items = append(items, item)
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func strPtr(s string) *string { return &s }

func newTestClient() (*Client, *fakeDynamoDB) {
	fake := newFakeDynamoDB()
	return NewClient(fake, NewConfig("EconMatches", "EconRounds")), fake
}

func TestMatchItems(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient()

	_, err := client.GetMatch(ctx, "m1")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	match := entities.Match{
		Id:        "m1",
		GameType:  "prisoners",
		GameMode:  "bot",
		Status:    entities.MatchStatusInProgress,
		Player1:   &entities.Player{Fingerprint: "fp-a", JoinedAt: createdAt},
		Player2:   &entities.Player{Fingerprint: game.BotFingerprint, Origin: entities.Origin{Country: "Bot", City: "Bot"}},
		MaxRounds: 25,
		Stake:     100,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, client.PutMatch(ctx, match))

	got, err := client.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match, got)

	matches, err := client.FetchMatches(ctx)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestCreateRoundIsConditional(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient()

	shell := entities.RoundFromGame("m1", game.NewRound(1, time.Now().UTC()))
	require.NoError(t, client.CreateRound(ctx, shell))
	assert.ErrorIs(t, client.CreateRound(ctx, shell), ErrRoundExists)
}

func TestDeleteMatchRemovesRoundsInBatches(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient()
	startedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, client.PutMatch(ctx, entities.Match{Id: "m1", CreatedAt: startedAt, UpdatedAt: startedAt}))
	for n := 1; n <= 30; n++ {
		require.NoError(t, client.CreateRound(ctx, entities.RoundFromGame("m1", game.NewRound(n, startedAt))))
	}
	require.NoError(t, client.CreateRound(ctx, entities.RoundFromGame("m2", game.NewRound(1, startedAt))))

	rounds, err := client.FetchRounds(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, rounds, 30)
	assert.Equal(t, 30, rounds[29].Number)

	require.NoError(t, client.DeleteMatch(ctx, "m1"))
	assert.Equal(t, 2, fake.batchCalls)

	rounds, err = client.FetchRounds(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, rounds)
	_, err = client.GetMatch(ctx, "m1")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	other, err := client.FetchRounds(ctx, "m2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestDeleteMatchRetriesUnprocessedItems(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient()
	client.batchBackoff = 20 * time.Millisecond
	startedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for n := 1; n <= 3; n++ {
		require.NoError(t, client.CreateRound(ctx, entities.RoundFromGame("m1", game.NewRound(n, startedAt))))
	}
	fake.throttle = 2

	require.NoError(t, client.DeleteMatch(ctx, "m1"))
	require.Equal(t, 3, fake.batchCalls)
	assert.GreaterOrEqual(t, fake.batchTimes[1].Sub(fake.batchTimes[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, fake.batchTimes[2].Sub(fake.batchTimes[1]), 40*time.Millisecond)

	rounds, err := client.FetchRounds(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestDeleteMatchGivesUpOnPersistentThrottling(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient()
	client.batchBackoff = time.Millisecond
	startedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, client.CreateRound(ctx, entities.RoundFromGame("m1", game.NewRound(1, startedAt))))
	fake.throttle = 100

	assert.Error(t, client.DeleteMatch(ctx, "m1"))
	assert.Equal(t, maxBatchAttempts, fake.batchCalls)
}
