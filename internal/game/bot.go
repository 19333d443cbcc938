package game

import (
	"math/rand"
	"sync"
	"time"
)

const (
	botExplorationRate = 0.10
	botStrictness      = 0.70

	botMinOfferPercent    = 20
	botMaxOfferPercent    = 50
	botAcceptanceFraction = 30
)

// Random is the subset of *rand.Rand the bot draws from.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// BotPolicy decides the automated participant's moves from observable history.
type BotPolicy interface {
	NextAction(opponent, own []Action) Action
	Propose(stake int) Offer
	Respond(received Offer, stake int) Response
	ThinkingDelay(min, max time.Duration) time.Duration
}

// ProbabilisticBot plays a noisy tit-for-tat in the Prisoner's Dilemma and a
// fixed-threshold strategy in the Ultimatum game.
type ProbabilisticBot struct {
	mu  sync.Mutex
	rnd Random
}

func NewBot(rnd Random) *ProbabilisticBot {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ProbabilisticBot{rnd: rnd}
}

func (b *ProbabilisticBot) float() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Float64()
}

func (b *ProbabilisticBot) intn(n int) int {
	if n <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rnd.Intn(n)
}

// NextAction cooperates first, explores 10% of the time and otherwise
// mirrors the opponent's last move 70% of the time.
func (b *ProbabilisticBot) NextAction(opponent, _ []Action) Action {
	if len(opponent) == 0 {
		return COOPERATE
	}
	if b.float() < botExplorationRate {
		if b.intn(2) == 0 {
			return COOPERATE
		}
		return DEFECT
	}
	last := opponent[len(opponent)-1]
	strict := b.float() < botStrictness
	if last == DEFECT {
		if strict {
			return DEFECT
		}
		return COOPERATE
	}
	if strict {
		return COOPERATE
	}
	return DEFECT
}

// Propose offers a uniform amount between 20% and 50% of the stake.
func (b *ProbabilisticBot) Propose(stake int) Offer {
	low := stake * botMinOfferPercent / 100
	high := stake * botMaxOfferPercent / 100
	give := low + b.intn(high-low+1)
	return Offer{Keep: stake - give, Give: give}
}

// Respond accepts any offer worth at least 30% of the stake.
func (b *ProbabilisticBot) Respond(received Offer, stake int) Response {
	if received.Give*100 >= stake*botAcceptanceFraction {
		return ACCEPT
	}
	return REJECT
}

func (b *ProbabilisticBot) ThinkingDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(b.float()*float64(max-min))
}
