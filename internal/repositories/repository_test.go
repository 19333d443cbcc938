package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chess-vn/econgames/internal/database"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepositories(t *testing.T) map[string]interfaces.IMatchRepository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]interfaces.IMatchRepository{
		"memory": NewMemoryRepository(),
		"sqlite": NewSqliteRepository(db),
	}
}

func testMatch(id string, createdAt time.Time) entities.Match {
	return entities.Match{
		Id:       id,
		GameType: game.ULTIMATUM.String(),
		GameMode: game.ONLINE.String(),
		Status:   entities.MatchStatusWaiting,
		Player1: &entities.Player{
			Fingerprint: "fp-a",
			Origin:      entities.Origin{Ip: "203.0.113.7", Country: "Unknown", City: "Unknown"},
			JoinedAt:    createdAt,
		},
		MaxRounds: 25,
		Stake:     100,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestRepositoryMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetMatch(ctx, "missing")
			assert.ErrorIs(t, err, interfaces.ErrMatchNotFound)

			match := testMatch("m1", createdAt)
			require.NoError(t, repo.PutMatch(ctx, match))

			match.Status = entities.MatchStatusInProgress
			match.Player2 = &entities.Player{Fingerprint: "fp-b", JoinedAt: createdAt.Add(time.Second)}
			match.UpdatedAt = createdAt.Add(time.Second)
			require.NoError(t, repo.PutMatch(ctx, match))

			got, err := repo.GetMatch(ctx, "m1")
			require.NoError(t, err)
			assert.Equal(t, entities.MatchStatusInProgress, got.Status)
			require.NotNil(t, got.Player1)
			require.NotNil(t, got.Player2)
			assert.Equal(t, "fp-a", got.Player1.Fingerprint)
			assert.Equal(t, "Unknown", got.Player1.Origin.City)
			assert.Equal(t, "fp-b", got.Player2.Fingerprint)
			assert.True(t, createdAt.Equal(got.CreatedAt))

			matches, err := repo.FetchMatches(ctx)
			require.NoError(t, err)
			assert.Len(t, matches, 1)
		})
	}
}

func TestRepositoryRounds(t *testing.T) {
	ctx := context.Background()
	startedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.PutMatch(ctx, testMatch("m1", startedAt)))

			shell := entities.RoundFromGame("m1", game.NewRound(1, startedAt))
			require.NoError(t, repo.CreateRound(ctx, shell))
			assert.ErrorIs(t, repo.CreateRound(ctx, shell), interfaces.ErrRoundExists)

			r := game.NewRound(1, startedAt)
			require.NoError(t, r.Set(game.ULTIMATUM, 100, game.SLOT_A, game.OfferPayload{Offer: game.Offer{Keep: 30, Give: 70}}))
			require.NoError(t, r.Set(game.ULTIMATUM, 100, game.SLOT_B, game.OfferPayload{Offer: game.Offer{Keep: 10, Give: 90}}))
			require.NoError(t, r.Set(game.ULTIMATUM, 100, game.SLOT_A, game.ResponsePayload{Response: game.REJECT}))
			require.NoError(t, r.Set(game.ULTIMATUM, 100, game.SLOT_B, game.ResponsePayload{Response: game.ACCEPT}))
			_, err := r.Settle(game.ULTIMATUM, startedAt.Add(time.Minute))
			require.NoError(t, err)
			require.NoError(t, repo.PutRound(ctx, entities.RoundFromGame("m1", r)))

			require.NoError(t, repo.CreateRound(ctx, entities.RoundFromGame("m1", game.NewRound(2, startedAt.Add(time.Minute)))))

			rounds, err := repo.FetchRounds(ctx, "m1")
			require.NoError(t, err)
			require.Len(t, rounds, 2)
			assert.Equal(t, 1, rounds[0].Number)
			assert.Equal(t, 2, rounds[1].Number)

			restored, err := rounds[0].ToGame()
			require.NoError(t, err)
			assert.True(t, restored.Settled)
			assert.Equal(t, [2]int{30, 70}, restored.Scores)
			assert.Equal(t, game.Offer{Keep: 10, Give: 90}, *restored.Offers[game.SLOT_B])
			assert.Equal(t, game.REJECT, *restored.Responses[game.SLOT_A])

			empty, err := rounds[1].ToGame()
			require.NoError(t, err)
			assert.True(t, empty.Empty())
			assert.Nil(t, rounds[1].EndedAt)

			require.NoError(t, repo.DeleteMatch(ctx, "m1"))
			_, err = repo.GetMatch(ctx, "m1")
			assert.ErrorIs(t, err, interfaces.ErrMatchNotFound)
			rounds, err = repo.FetchRounds(ctx, "m1")
			require.NoError(t, err)
			assert.Empty(t, rounds)
		})
	}
}
