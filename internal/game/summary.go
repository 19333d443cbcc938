package game

import "time"

// RoundResult is a settled round as it appears in a match history.
type RoundResult struct {
	Number     int
	Actions    [2]Action
	Offers     [2]Offer
	Responses  [2]Response
	Scores     [2]int
	Cumulative [2]int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Summary is derived from the ledger on demand and never stored.
type Summary struct {
	GameType        GameType
	CurrentRound    int
	MaxRounds       int
	CompletedRounds int
	Scores          [2]int
	History         []RoundResult
	GameOver        bool

	// Prisoner's Dilemma, in percent of completed rounds.
	CooperationRates   [2]float64
	AverageCooperation float64

	// Ultimatum. OfferAcceptanceRates[s] is the share of slot s's offers the
	// other slot accepted.
	AcceptanceRate          float64
	AverageOffer            float64
	MinOffer                int
	MaxOffer                int
	AverageOffers           [2]float64
	OfferAcceptanceRates    [2]float64
	LastRoundAcceptanceRate float64
	LastRoundAverageOffer   float64

	InPlay *Round
}

func (l *Ledger) Summary() Summary {
	completed := l.CompletedRounds()
	s := Summary{
		GameType:        l.gameType,
		MaxRounds:       l.maxRounds,
		CompletedRounds: len(completed),
		CurrentRound:    min(len(completed)+1, l.maxRounds),
		GameOver:        l.Finished(),
		History:         make([]RoundResult, 0, len(completed)),
	}

	var (
		cooperations [2]int
		accepts      [2]int
		offerSums    [2]int
		offerSeen    bool
	)
	for _, r := range completed {
		s.Scores[SLOT_A] += r.Scores[SLOT_A]
		s.Scores[SLOT_B] += r.Scores[SLOT_B]
		res := RoundResult{
			Number:     r.Number,
			Scores:     r.Scores,
			Cumulative: s.Scores,
			StartedAt:  r.StartedAt,
			EndedAt:    r.EndedAt,
		}
		for _, slot := range []Slot{SLOT_A, SLOT_B} {
			switch l.gameType {
			case PRISONERS_DILEMMA:
				res.Actions[slot] = *r.Actions[slot]
				if res.Actions[slot] == COOPERATE {
					cooperations[slot]++
				}
			case ULTIMATUM:
				res.Offers[slot] = *r.Offers[slot]
				res.Responses[slot] = *r.Responses[slot]
				offerSums[slot] += res.Offers[slot].Give
				// slot's offer was accepted when the other slot said yes
				if *r.Responses[slot.Other()] == ACCEPT {
					accepts[slot]++
				}
				if !offerSeen || res.Offers[slot].Give < s.MinOffer {
					s.MinOffer = res.Offers[slot].Give
					offerSeen = true
				}
				if res.Offers[slot].Give > s.MaxOffer {
					s.MaxOffer = res.Offers[slot].Give
				}
			}
		}
		s.History = append(s.History, res)
	}

	if n := len(completed); n > 0 {
		switch l.gameType {
		case PRISONERS_DILEMMA:
			for _, slot := range []Slot{SLOT_A, SLOT_B} {
				s.CooperationRates[slot] = percent(cooperations[slot], n)
			}
			s.AverageCooperation = (s.CooperationRates[SLOT_A] + s.CooperationRates[SLOT_B]) / 2
		case ULTIMATUM:
			for _, slot := range []Slot{SLOT_A, SLOT_B} {
				s.AverageOffers[slot] = float64(offerSums[slot]) / float64(n)
				s.OfferAcceptanceRates[slot] = percent(accepts[slot], n)
			}
			s.AcceptanceRate = percent(accepts[SLOT_A]+accepts[SLOT_B], 2*n)
			s.AverageOffer = float64(offerSums[SLOT_A]+offerSums[SLOT_B]) / float64(2*n)

			last := s.History[n-1]
			lastAccepts := 0
			for _, resp := range last.Responses {
				if resp == ACCEPT {
					lastAccepts++
				}
			}
			s.LastRoundAcceptanceRate = percent(lastAccepts, 2)
			s.LastRoundAverageOffer = float64(last.Offers[SLOT_A].Give+last.Offers[SLOT_B].Give) / 2
		}
	}

	if len(l.rounds) > 0 {
		last := l.rounds[len(l.rounds)-1]
		if !last.Complete(l.gameType) {
			s.InPlay = &last
		}
	}
	return s
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
