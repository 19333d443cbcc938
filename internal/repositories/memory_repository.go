package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
)

type roundKey struct {
	matchId string
	number  int
}

type memoryRepository struct {
	matches map[string]entities.Match
	rounds  map[roundKey]entities.Round
	mu      sync.RWMutex
}

func NewMemoryRepository() interfaces.IMatchRepository {
	return &memoryRepository{
		matches: make(map[string]entities.Match),
		rounds:  make(map[roundKey]entities.Round),
	}
}

func (r *memoryRepository) PutMatch(_ context.Context, match entities.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[match.Id] = match
	return nil
}

func (r *memoryRepository) GetMatch(_ context.Context, matchId string) (entities.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	match, ok := r.matches[matchId]
	if !ok {
		return entities.Match{}, interfaces.ErrMatchNotFound
	}
	return match, nil
}

func (r *memoryRepository) DeleteMatch(_ context.Context, matchId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, matchId)
	for key := range r.rounds {
		if key.matchId == matchId {
			delete(r.rounds, key)
		}
	}
	return nil
}

func (r *memoryRepository) CreateRound(_ context.Context, round entities.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := roundKey{round.MatchId, round.Number}
	if _, exists := r.rounds[key]; exists {
		return interfaces.ErrRoundExists
	}
	r.rounds[key] = round
	return nil
}

func (r *memoryRepository) PutRound(_ context.Context, round entities.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds[roundKey{round.MatchId, round.Number}] = round
	return nil
}

func (r *memoryRepository) FetchRounds(_ context.Context, matchId string) ([]entities.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rounds []entities.Round
	for key, round := range r.rounds {
		if key.matchId == matchId {
			rounds = append(rounds, round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
	return rounds, nil
}

func (r *memoryRepository) FetchMatches(_ context.Context) ([]entities.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]entities.Match, 0, len(r.matches))
	for _, match := range r.matches {
		matches = append(matches, match)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}
