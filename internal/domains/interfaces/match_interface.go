package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/game"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrRoundExists   = errors.New("round already exists")
)

type (
	// IMatchRepository stores matches and their rounds. CreateRound is an
	// atomic create-if-absent and returns ErrRoundExists on conflict;
	// DeleteMatch removes the match together with every round.
	IMatchRepository interface {
		PutMatch(ctx context.Context, match entities.Match) error
		GetMatch(ctx context.Context, matchId string) (entities.Match, error)
		DeleteMatch(ctx context.Context, matchId string) error
		CreateRound(ctx context.Context, round entities.Round) error
		PutRound(ctx context.Context, round entities.Round) error
		FetchRounds(ctx context.Context, matchId string) ([]entities.Round, error)
		FetchMatches(ctx context.Context) ([]entities.Match, error)
	}

	IMatchUsecase interface {
		GetMatchRecord(ctx context.Context, matchId string) (entities.Match, game.Summary, error)
		FinalizeMatch(ctx context.Context, matchId string) (entities.Match, bool, error)
		PurgeIncompleteMatches(ctx context.Context, olderThan time.Duration, isLive func(string) bool) (int, error)
	}
)
