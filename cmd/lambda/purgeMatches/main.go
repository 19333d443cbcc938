package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chess-vn/econgames/internal/app/server"
	"github.com/chess-vn/econgames/internal/aws/storage"
	"github.com/chess-vn/econgames/internal/domains/dtos"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/usecases"
)

var (
	matchUsecase   interfaces.IMatchUsecase
	purgeOlderThan time.Duration
)

func init() {
	cfg := server.NewConfig()
	awsCfg, _ := config.LoadDefaultConfig(context.TODO())
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.NewConfig(cfg.Storage.MatchesTable, cfg.Storage.RoundsTable),
	)
	matchUsecase = usecases.NewMatchUsecase(storageClient, cfg.Game.MinCompletedRounds)
	purgeOlderThan = cfg.PurgeOlderThan
}

// handler runs on a schedule. It cannot see which matches are live, so only
// the idle cutoff keeps recently active ones out of the purge.
func handler(ctx context.Context, _ events.CloudWatchEvent) (dtos.PurgeResponse, error) {
	deleted, err := matchUsecase.PurgeIncompleteMatches(ctx, purgeOlderThan, nil)
	if err != nil {
		return dtos.PurgeResponse{Deleted: deleted}, fmt.Errorf("failed to purge matches: %w", err)
	}
	return dtos.PurgeResponse{Deleted: deleted}, nil
}

func main() {
	lambda.Start(handler)
}
