package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chess-vn/econgames/internal/app/server"
	"github.com/chess-vn/econgames/internal/aws/storage"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/usecases"
	"github.com/chess-vn/econgames/pkg/logging"
	"go.uber.org/zap"
)

var matchUsecase interfaces.IMatchUsecase

type endGameEvent struct {
	MatchId  string `json:"matchId"`
	GameType string `json:"gameType"`
	GameMode string `json:"gameMode"`
}

func init() {
	cfg := server.NewConfig()
	awsCfg, _ := config.LoadDefaultConfig(context.TODO())
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.NewConfig(cfg.Storage.MatchesTable, cfg.Storage.RoundsTable),
	)
	matchUsecase = usecases.NewMatchUsecase(storageClient, cfg.Game.MinCompletedRounds)
}

// handler receives the game server's notification for a finished match and
// makes sure the stored record is marked complete.
func handler(ctx context.Context, event json.RawMessage) error {
	var req endGameEvent
	if err := json.Unmarshal(event, &req); err != nil {
		return fmt.Errorf("failed to unmarshal request: %w", err)
	}
	if req.MatchId == "" {
		return fmt.Errorf("missing match id")
	}

	match, changed, err := matchUsecase.FinalizeMatch(ctx, req.MatchId)
	if err != nil {
		return fmt.Errorf("failed to finalize match: %w", err)
	}
	logging.Info("end game processed",
		zap.String("match_id", match.Id),
		zap.String("game_type", req.GameType),
		zap.String("status", match.Status),
		zap.Bool("changed", changed),
	)
	return nil
}

func main() {
	lambda.Start(handler)
}
