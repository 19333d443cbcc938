package game

import "strings"

type actionPair struct {
	a, b Action
}

var prisonersMatrix = map[actionPair][2]int{
	{COOPERATE, COOPERATE}: {20, 20},
	{COOPERATE, DEFECT}:    {0, 30},
	{DEFECT, COOPERATE}:    {30, 0},
	{DEFECT, DEFECT}:       {10, 10},
}

func normalizeAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cooperate", "co":
		return COOPERATE
	case "defect", "de":
		return DEFECT
	}
	return ""
}

// PrisonersPayoff looks up the fixed payoff matrix. Unrecognized actions
// yield 0/0; submissions are validated before they can reach this point.
func PrisonersPayoff(a, b string) (int, int) {
	scores, ok := prisonersMatrix[actionPair{normalizeAction(a), normalizeAction(b)}]
	if !ok {
		return 0, 0
	}
	return scores[0], scores[1]
}

// UltimatumPayoff resolves a simultaneous-offer round.
//
// Both reject: nobody earns anything. Both accept: each side earns what it
// kept plus what the other side offered. Otherwise the accepting side earns
// the other side's offer only and the rejecting side earns its own kept
// coins only. The total is not required to equal the stake.
func UltimatumPayoff(offers [2]Offer, responses [2]Response) [2]int {
	a, b := responses[SLOT_A], responses[SLOT_B]
	if a == REJECT && b == REJECT {
		return [2]int{0, 0}
	}
	if a == ACCEPT && b == ACCEPT {
		return [2]int{
			offers[SLOT_A].Keep + offers[SLOT_B].Give,
			offers[SLOT_B].Keep + offers[SLOT_A].Give,
		}
	}
	var coins [2]int
	for _, s := range []Slot{SLOT_A, SLOT_B} {
		if responses[s] == ACCEPT {
			coins[s] = offers[s.Other()].Give
		} else {
			coins[s] = offers[s].Keep
		}
	}
	return coins
}

// Payoff computes a complete round's awards for the given game.
func Payoff(gameType GameType, r Round) ([2]int, error) {
	if !r.Complete(gameType) {
		return [2]int{}, ErrRoundNotOpen
	}
	switch gameType {
	case PRISONERS_DILEMMA:
		a, b := PrisonersPayoff(string(*r.Actions[SLOT_A]), string(*r.Actions[SLOT_B]))
		return [2]int{a, b}, nil
	case ULTIMATUM:
		return UltimatumPayoff(
			[2]Offer{*r.Offers[SLOT_A], *r.Offers[SLOT_B]},
			[2]Response{*r.Responses[SLOT_A], *r.Responses[SLOT_B]},
		), nil
	}
	return [2]int{}, ErrUnknownGameType
}
