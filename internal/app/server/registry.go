package server

import (
	"fmt"
	"slices"
	"sync"

	"github.com/chess-vn/econgames/internal/game"
	"github.com/chess-vn/econgames/internal/identity"
	"github.com/chess-vn/econgames/pkg/logging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	matchIdAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	matchIdLength   = 8
)

// Subscriber receives the events broadcast to a match.
type Subscriber interface {
	Id() string
	WriteJSON(v any) error
	Close() error
}

// Registry holds the live matches, the online matches waiting for an
// opponent and the subscribers of each match.
type Registry struct {
	matches sync.Map

	mu      sync.Mutex
	waiting map[game.GameType][]string
	groups  map[string]map[string]Subscriber

	// lookupMu serializes matchmaking so one requester cannot open two
	// waiting matches at once.
	lookupMu sync.Mutex

	newMatch func(id string, gameType game.GameType, mode game.Mode) *Match
	newId    func() (string, error)
}

func NewRegistry(newMatch func(id string, gameType game.GameType, mode game.Mode) *Match) *Registry {
	return &Registry{
		waiting:  make(map[game.GameType][]string),
		groups:   make(map[string]map[string]Subscriber),
		newMatch: newMatch,
		newId: func() (string, error) {
			return gonanoid.Generate(matchIdAlphabet, matchIdLength)
		},
	}
}

// Create starts a new match with fingerprint in slot A. Bot matches get the
// bot in slot B right away; online matches join the waiting list.
func (r *Registry) Create(gameType game.GameType, mode game.Mode, fingerprint string, origin identity.Origin) (*Match, error) {
	if fingerprint == game.BotFingerprint {
		return nil, ErrReservedIdentity
	}
	id, err := r.uniqueId()
	if err != nil {
		return nil, err
	}
	match := r.newMatch(id, gameType, mode)
	r.matches.Store(id, match)

	fail := func(err error) (*Match, error) {
		match.shutdown()
		r.matches.Delete(id)
		return nil, err
	}
	if res := match.Join(fingerprint, origin); !res.Accepted {
		return fail(res.Err)
	}
	switch mode {
	case game.BOT:
		if res := match.Join(game.BotFingerprint, botOrigin); !res.Accepted {
			return fail(res.Err)
		}
	case game.ONLINE:
		r.mu.Lock()
		r.waiting[gameType] = append(r.waiting[gameType], id)
		r.mu.Unlock()
	}
	return match, nil
}

// LookupOrJoinOpenOnlineMatch pairs fingerprint with the oldest online match
// of gameType still waiting for an opponent. It creates a new one when none
// is available and reports whether an existing match was joined. A requester
// who already waits in a match of gameType gets that match back.
func (r *Registry) LookupOrJoinOpenOnlineMatch(gameType game.GameType, fingerprint string, origin identity.Origin) (*Match, bool, error) {
	if fingerprint == game.BotFingerprint {
		return nil, false, ErrReservedIdentity
	}
	r.lookupMu.Lock()
	defer r.lookupMu.Unlock()

	r.mu.Lock()
	candidates := slices.Clone(r.waiting[gameType])
	r.mu.Unlock()

	for _, id := range candidates {
		match, ok := r.Get(id)
		if !ok {
			r.dequeue(gameType, id)
			continue
		}
		if match.Creator() == fingerprint && match.Status() == WAITING_FOR_OPPONENT {
			return match, false, nil
		}
	}

	for _, id := range candidates {
		match, ok := r.Get(id)
		if !ok {
			continue
		}
		if match.Creator() == fingerprint {
			continue
		}
		res := match.Join(fingerprint, origin)
		if res.Accepted {
			r.dequeue(gameType, id)
			return match, true, nil
		}
		if match.Status() != WAITING_FOR_OPPONENT {
			r.dequeue(gameType, id)
		}
	}

	match, err := r.Create(gameType, game.ONLINE, fingerprint, origin)
	if err != nil {
		return nil, false, err
	}
	return match, false, nil
}

func (r *Registry) Get(id string) (*Match, bool) {
	v, ok := r.matches.Load(id)
	if !ok {
		return nil, false
	}
	match, ok := v.(*Match)
	return match, ok
}

func (r *Registry) IsLive(id string) bool {
	_, ok := r.matches.Load(id)
	return ok
}

// Live lists the live matches in no particular order.
func (r *Registry) Live() []*Match {
	var matches []*Match
	r.matches.Range(func(_, v any) bool {
		if match, ok := v.(*Match); ok {
			matches = append(matches, match)
		}
		return true
	})
	return matches
}

// Remove drops the match and closes its subscribers.
func (r *Registry) Remove(id string) {
	v, loaded := r.matches.LoadAndDelete(id)
	r.mu.Lock()
	if loaded {
		if match, ok := v.(*Match); ok {
			r.dequeueLocked(match.GameType(), id)
		}
	}
	group := r.groups[id]
	delete(r.groups, id)
	r.mu.Unlock()

	for _, sub := range group {
		sub.Close()
	}
	logging.Info("match removed", zap.String("match_id", id), zap.Int("subscribers", len(group)))
}

func (r *Registry) Subscribe(matchId string, sub Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.IsLive(matchId) {
		return fmt.Errorf("%w: match %s", ErrNotFound, matchId)
	}
	group, ok := r.groups[matchId]
	if !ok {
		group = make(map[string]Subscriber)
		r.groups[matchId] = group
	}
	group[sub.Id()] = sub
	return nil
}

func (r *Registry) Unsubscribe(matchId string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[matchId]
	if !ok {
		return
	}
	delete(group, sub.Id())
	if len(group) == 0 {
		delete(r.groups, matchId)
	}
}

// Broadcast writes v to every subscriber of the match. A failed write drops
// that subscriber only.
func (r *Registry) Broadcast(matchId string, v any) {
	r.mu.Lock()
	subs := make([]Subscriber, 0, len(r.groups[matchId]))
	for _, sub := range r.groups[matchId] {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		if err := sub.WriteJSON(v); err != nil {
			logging.Warn("failed to write to subscriber",
				zap.String("match_id", matchId),
				zap.String("subscriber_id", sub.Id()),
				zap.Error(err),
			)
			r.Unsubscribe(matchId, sub)
			sub.Close()
		}
	}
}

func (r *Registry) uniqueId() (string, error) {
	for {
		id, err := r.newId()
		if err != nil {
			return "", fmt.Errorf("failed to generate match id: %w", err)
		}
		if !r.IsLive(id) {
			return id, nil
		}
	}
}

func (r *Registry) dequeue(gameType game.GameType, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dequeueLocked(gameType, id)
}

func (r *Registry) dequeueLocked(gameType game.GameType, id string) {
	r.waiting[gameType] = slices.DeleteFunc(r.waiting[gameType], func(waiting string) bool {
		return waiting == id
	})
}
