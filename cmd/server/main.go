package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/chess-vn/econgames/internal/app/server"
	"github.com/chess-vn/econgames/internal/aws/storage"
	"github.com/chess-vn/econgames/internal/database"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/identity"
	"github.com/chess-vn/econgames/internal/repositories"
	"github.com/chess-vn/econgames/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	cfg := server.NewConfig()
	logging.SetLevel(cfg.LogLevel)
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to open match storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeRepo()

	locator, err := identity.NewLocator(cfg.GeoIPDatabasePath)
	if err != nil {
		logging.Fatal("failed to open geoip database", zap.Error(err))
	}
	defer locator.Close()

	opts := []server.Option{server.WithLocator(locator)}
	if cfg.EndGameFunctionArn != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			logging.Fatal("unable to load SDK config", zap.Error(err))
		}
		opts = append(opts, server.WithLambdaClient(lambda.NewFromConfig(awsCfg)))
	}

	if err := server.NewServer(cfg, repo, opts...).Start(ctx); err != nil {
		logging.Fatal("Game server exited: ", zap.Error(err))
	}
	logging.Info("game server stopped")
}

func newRepository(ctx context.Context, cfg server.Config) (interfaces.IMatchRepository, func(), error) {
	switch cfg.Storage.Driver {
	case server.StorageSqlite:
		db, err := database.New(cfg.Storage.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewSqliteRepository(db), func() { db.Close() }, nil
	case server.StorageDynamoDB:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := storage.NewClient(
			dynamodb.NewFromConfig(awsCfg),
			storage.NewConfig(cfg.Storage.MatchesTable, cfg.Storage.RoundsTable),
		)
		return client, func() {}, nil
	}
	return repositories.NewMemoryRepository(), func() {}, nil
}
