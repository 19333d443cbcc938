package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageSqlite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	Game    GameConfig
	Storage StorageConfig

	GeoIPDatabasePath string

	PurgeInterval  time.Duration
	PurgeOlderThan time.Duration

	EndGameFunctionArn string
}

type GameConfig struct {
	MaxRounds          int
	MinCompletedRounds int
	Stake              int
	OfferTimeout       time.Duration
	WaitTimeout        time.Duration
	BotDelayMin        time.Duration
	BotDelayMax        time.Duration
	BotRetryDelay      time.Duration
	BotRetries         int
	RedirectHint       string
}

type StorageConfig struct {
	Driver       string
	SqlitePath   string
	MatchesTable string
	RoundsTable  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "7202")
	v.SetDefault("Server.AllowedOrigins", []string{"*"})
	v.SetDefault("Log.Level", "info")

	v.SetDefault("Game.MaxRounds", 25)
	v.SetDefault("Game.MinCompletedRounds", 25)
	v.SetDefault("Game.Stake", 100)
	v.SetDefault("Game.OfferTimeout", "25s")
	v.SetDefault("Game.WaitTimeout", "10m")
	v.SetDefault("Game.BotDelayMin", "400ms")
	v.SetDefault("Game.BotDelayMax", "1s")
	v.SetDefault("Game.BotRetryDelay", "250ms")
	v.SetDefault("Game.BotRetries", 4)
	v.SetDefault("Game.RedirectHint", "/")

	v.SetDefault("Storage.Driver", StorageMemory)
	v.SetDefault("Storage.SqlitePath", "econgames.db")
	v.SetDefault("Storage.MatchesTable", "EconMatches")
	v.SetDefault("Storage.RoundsTable", "EconRounds")

	v.SetDefault("GeoIP.DatabasePath", "")
	v.SetDefault("Purge.Interval", "1h")
	v.SetDefault("Purge.OlderThan", "30m")
	v.SetDefault("END_GAME_FUNCTION_ARN", "")
}

// NewConfig reads configs/server/config.yaml (or ./config.yaml) and the
// optional env files, with OS environment variables taking precedence.
// A missing config file is not an error; every key has a default.
func NewConfig() Config {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs/server")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %s", err))
		}
	}

	// List of env files to load
	envFiles := []string{
		"./configs/aws/base.env",
		"./configs/aws/lambda.env",
	}
	if err := loadEnvFiles(v, envFiles); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	cfg, err := configFrom(v)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return cfg
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:           v.GetString("Server.Port"),
		AllowedOrigins: v.GetStringSlice("Server.AllowedOrigins"),
		LogLevel:       v.GetString("Log.Level"),
		Game: GameConfig{
			MaxRounds:          v.GetInt("Game.MaxRounds"),
			MinCompletedRounds: v.GetInt("Game.MinCompletedRounds"),
			Stake:              v.GetInt("Game.Stake"),
			OfferTimeout:       v.GetDuration("Game.OfferTimeout"),
			WaitTimeout:        v.GetDuration("Game.WaitTimeout"),
			BotDelayMin:        v.GetDuration("Game.BotDelayMin"),
			BotDelayMax:        v.GetDuration("Game.BotDelayMax"),
			BotRetryDelay:      v.GetDuration("Game.BotRetryDelay"),
			BotRetries:         v.GetInt("Game.BotRetries"),
			RedirectHint:       v.GetString("Game.RedirectHint"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(v.GetString("Storage.Driver")),
			SqlitePath:   v.GetString("Storage.SqlitePath"),
			MatchesTable: v.GetString("Storage.MatchesTable"),
			RoundsTable:  v.GetString("Storage.RoundsTable"),
		},
		GeoIPDatabasePath:  v.GetString("GeoIP.DatabasePath"),
		PurgeInterval:      v.GetDuration("Purge.Interval"),
		PurgeOlderThan:     v.GetDuration("Purge.OlderThan"),
		EndGameFunctionArn: v.GetString("END_GAME_FUNCTION_ARN"),
	}
	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.Game.MaxRounds < 1 {
		return fmt.Errorf("Game.MaxRounds must be positive, got %d", cfg.Game.MaxRounds)
	}
	if cfg.Game.Stake < 1 {
		return fmt.Errorf("Game.Stake must be positive, got %d", cfg.Game.Stake)
	}
	if cfg.Game.BotDelayMax < cfg.Game.BotDelayMin {
		return fmt.Errorf("Game.BotDelayMax %s is below Game.BotDelayMin %s", cfg.Game.BotDelayMax, cfg.Game.BotDelayMin)
	}
	if cfg.Game.BotRetries < 0 {
		return fmt.Errorf("Game.BotRetries must not be negative, got %d", cfg.Game.BotRetries)
	}
	switch cfg.Storage.Driver {
	case StorageMemory, StorageSqlite, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown Storage.Driver %q", cfg.Storage.Driver)
	}
	return nil
}

// loadEnvFiles merges the env files that exist into v.
func loadEnvFiles(v *viper.Viper, filenames []string) error {
	for _, file := range filenames {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		v.SetConfigFile(file) // Set specific file
		v.SetConfigType("env")

		if err := v.MergeInConfig(); err != nil {
			return err
		}
	}
	return nil
}
