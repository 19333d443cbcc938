package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/chess-vn/econgames/pkg/logging"
	"go.uber.org/zap"
)

type MatchUsecase struct {
	matchRepo          interfaces.IMatchRepository
	minCompletedRounds int
	now                func() time.Time
}

func NewMatchUsecase(matchRepo interfaces.IMatchRepository, minCompletedRounds int) *MatchUsecase {
	return &MatchUsecase{
		matchRepo:          matchRepo,
		minCompletedRounds: minCompletedRounds,
		now:                time.Now,
	}
}

var _ interfaces.IMatchUsecase = (*MatchUsecase)(nil)

// GetMatchRecord loads a stored match and rebuilds its summary from the rounds.
func (u *MatchUsecase) GetMatchRecord(ctx context.Context, matchId string) (entities.Match, game.Summary, error) {
	match, err := u.matchRepo.GetMatch(ctx, matchId)
	if err != nil {
		return entities.Match{}, game.Summary{}, err
	}
	ledger, err := u.restoreLedger(ctx, match)
	if err != nil {
		return entities.Match{}, game.Summary{}, err
	}
	return match, ledger.Summary(), nil
}

// FinalizeMatch marks a stored match COMPLETE once every round has been
// settled. It reports whether the stored status changed.
func (u *MatchUsecase) FinalizeMatch(ctx context.Context, matchId string) (entities.Match, bool, error) {
	match, err := u.matchRepo.GetMatch(ctx, matchId)
	if err != nil {
		return entities.Match{}, false, err
	}
	if match.Status == entities.MatchStatusComplete {
		return match, false, nil
	}
	ledger, err := u.restoreLedger(ctx, match)
	if err != nil {
		return entities.Match{}, false, err
	}
	if !ledger.Finished() {
		return match, false, nil
	}
	match.Status = entities.MatchStatusComplete
	match.UpdatedAt = u.now().UTC()
	if err := u.matchRepo.PutMatch(ctx, match); err != nil {
		return entities.Match{}, false, fmt.Errorf("failed to put match: %w", err)
	}
	logging.Info("match finalized", zap.String("match_id", match.Id))
	return match, true, nil
}

func (u *MatchUsecase) restoreLedger(ctx context.Context, match entities.Match) (*game.Ledger, error) {
	gameType, err := game.ParseGameType(match.GameType)
	if err != nil {
		return nil, err
	}
	stored, err := u.matchRepo.FetchRounds(ctx, match.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rounds: %w", err)
	}
	rounds, err := entities.RoundsToGame(stored)
	if err != nil {
		return nil, err
	}
	return game.RestoreLedger(gameType, match.MaxRounds, match.Stake, rounds)
}

// PurgeIncompleteMatches deletes stored matches that are not live, have not
// reached the minimum number of completed rounds and have been idle for at
// least olderThan. It returns the number of deleted matches.
func (u *MatchUsecase) PurgeIncompleteMatches(
	ctx context.Context,
	olderThan time.Duration,
	isLive func(string) bool,
) (int, error) {
	matches, err := u.matchRepo.FetchMatches(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch matches: %w", err)
	}
	cutoff := u.now().Add(-olderThan)

	deleted := 0
	for _, match := range matches {
		if isLive != nil && isLive(match.Id) {
			continue
		}
		rounds, err := u.matchRepo.FetchRounds(ctx, match.Id)
		if err != nil {
			return deleted, fmt.Errorf("failed to fetch rounds: %w", err)
		}
		completed, lastActivity := 0, match.UpdatedAt
		for _, r := range rounds {
			if r.Settled {
				completed++
			}
			if at := r.LastActivity(); at.After(lastActivity) {
				lastActivity = at
			}
		}
		if completed >= u.minCompletedRounds || lastActivity.After(cutoff) {
			continue
		}
		if err := u.matchRepo.DeleteMatch(ctx, match.Id); err != nil {
			return deleted, fmt.Errorf("failed to delete match %s: %w", match.Id, err)
		}
		deleted++
		logging.Info("incomplete match purged",
			zap.String("match_id", match.Id),
			zap.String("status", match.Status),
			zap.Int("completed_rounds", completed),
		)
	}
	return deleted, nil
}
