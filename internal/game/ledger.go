package game

import (
	"fmt"
	"sort"
	"time"
)

// Ledger owns the ordered rounds of a single match.
//
// Rounds are numbered from 1 and stored contiguously. A round can only be
// opened once its predecessor is complete, so round N+1 never holds a field
// while round N is still in play. The ledger is not safe for concurrent use;
// the owning match serializes access.
type Ledger struct {
	gameType  GameType
	maxRounds int
	stake     int
	rounds    []Round
}

func NewLedger(gameType GameType, maxRounds, stake int) *Ledger {
	return &Ledger{
		gameType:  gameType,
		maxRounds: maxRounds,
		stake:     stake,
	}
}

// RestoreLedger rebuilds a ledger from stored rounds. Unsettled complete
// rounds are settled on the way in.
func RestoreLedger(gameType GameType, maxRounds, stake int, rounds []Round) (*Ledger, error) {
	l := NewLedger(gameType, maxRounds, stake)
	sorted := make([]Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	for i, r := range sorted {
		if r.Number != i+1 {
			return nil, fmt.Errorf("%w: expected round %d, found %d", ErrRoundOutOfRange, i+1, r.Number)
		}
		if r.Complete(gameType) && !r.Settled {
			if _, err := r.Settle(gameType, r.EndedAt); err != nil {
				return nil, err
			}
		}
		l.rounds = append(l.rounds, r)
	}
	return l, nil
}

func (l *Ledger) GameType() GameType { return l.gameType }
func (l *Ledger) MaxRounds() int     { return l.maxRounds }
func (l *Ledger) Stake() int         { return l.stake }
func (l *Ledger) Len() int           { return len(l.rounds) }

// CurrentRound is the latest round that is not complete yet. When every
// existing round is complete it is the number the next round would take,
// which exceeds MaxRounds once the match has been played out.
func (l *Ledger) CurrentRound() int {
	if len(l.rounds) == 0 {
		return 1
	}
	last := l.rounds[len(l.rounds)-1]
	if last.Complete(l.gameType) {
		return last.Number + 1
	}
	return last.Number
}

// Round returns a copy of round n.
func (l *Ledger) Round(n int) (Round, bool) {
	if n < 1 || n > len(l.rounds) {
		return Round{}, false
	}
	return l.rounds[n-1], true
}

// AppendOrGetRound returns round n, creating its empty shell when n is the
// next round to open. It reports whether the round was created.
func (l *Ledger) AppendOrGetRound(n int, now time.Time) (Round, bool, error) {
	if n < 1 || n > l.maxRounds {
		return Round{}, false, fmt.Errorf("%w: round %d not in [1, %d]", ErrRoundOutOfRange, n, l.maxRounds)
	}
	if n <= len(l.rounds) {
		return l.rounds[n-1], false, nil
	}
	if n != len(l.rounds)+1 {
		return Round{}, false, fmt.Errorf("%w: round %d skips round %d", ErrRoundNotOpen, n, len(l.rounds)+1)
	}
	if n > 1 && !l.rounds[n-2].Complete(l.gameType) {
		return Round{}, false, fmt.Errorf("%w: round %d still in play", ErrRoundNotOpen, n-1)
	}
	r := NewRound(n, now)
	l.rounds = append(l.rounds, r)
	return r, true, nil
}

// RecordField writes a single round field. Fields are write-once.
func (l *Ledger) RecordField(n int, slot Slot, p Payload) error {
	if n < 1 || n > len(l.rounds) {
		return fmt.Errorf("%w: round %d", ErrRoundNotOpen, n)
	}
	r := l.rounds[n-1]
	if err := r.Set(l.gameType, l.stake, slot, p); err != nil {
		return err
	}
	l.rounds[n-1] = r
	return nil
}

func (l *Ledger) IsComplete(n int) bool {
	r, ok := l.Round(n)
	return ok && r.Complete(l.gameType)
}

// Settle computes round n's payoff once; later calls return the same scores.
func (l *Ledger) Settle(n int, now time.Time) ([2]int, error) {
	if n < 1 || n > len(l.rounds) {
		return [2]int{}, fmt.Errorf("%w: round %d", ErrRoundNotOpen, n)
	}
	r := l.rounds[n-1]
	scores, err := r.Settle(l.gameType, now)
	if err != nil {
		return [2]int{}, err
	}
	l.rounds[n-1] = r
	return scores, nil
}

// CompletedRounds returns the fully resolved rounds in order.
func (l *Ledger) CompletedRounds() []Round {
	completed := make([]Round, 0, len(l.rounds))
	for _, r := range l.rounds {
		if r.Complete(l.gameType) && r.Settled {
			completed = append(completed, r)
		}
	}
	return completed
}

func (l *Ledger) CumulativeScores() [2]int {
	var total [2]int
	for _, r := range l.CompletedRounds() {
		total[SLOT_A] += r.Scores[SLOT_A]
		total[SLOT_B] += r.Scores[SLOT_B]
	}
	return total
}

// Actions returns slot's actions over the completed rounds, oldest first.
func (l *Ledger) Actions(slot Slot) []Action {
	var actions []Action
	for _, r := range l.CompletedRounds() {
		if r.Actions[slot] != nil {
			actions = append(actions, *r.Actions[slot])
		}
	}
	return actions
}

// Rounds returns a copy of every round, including the one in play.
func (l *Ledger) Rounds() []Round {
	rounds := make([]Round, len(l.rounds))
	copy(rounds, l.rounds)
	return rounds
}

func (l *Ledger) DeleteAll() {
	l.rounds = nil
}

// Finished reports whether the final round has been settled.
func (l *Ledger) Finished() bool {
	return l.maxRounds > 0 && len(l.rounds) == l.maxRounds && l.rounds[l.maxRounds-1].Settled
}
