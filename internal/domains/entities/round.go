package entities

import (
	"fmt"
	"time"

	"github.com/chess-vn/econgames/internal/game"
)

// Round is the stored form of a game.Round. Unset fields stay nil.
type Round struct {
	MatchId string `dynamodbav:"MatchId" json:"matchId"`
	Number  int    `dynamodbav:"Number" json:"number"`

	Player1Action *string `dynamodbav:"Player1Action,omitempty" json:"player1Action,omitempty"`
	Player2Action *string `dynamodbav:"Player2Action,omitempty" json:"player2Action,omitempty"`

	Player1CoinsToKeep  *int    `dynamodbav:"Player1CoinsToKeep,omitempty" json:"player1CoinsToKeep,omitempty"`
	Player1CoinsToOffer *int    `dynamodbav:"Player1CoinsToOffer,omitempty" json:"player1CoinsToOffer,omitempty"`
	Player1Response     *string `dynamodbav:"Player1Response,omitempty" json:"player1Response,omitempty"`
	Player2CoinsToKeep  *int    `dynamodbav:"Player2CoinsToKeep,omitempty" json:"player2CoinsToKeep,omitempty"`
	Player2CoinsToOffer *int    `dynamodbav:"Player2CoinsToOffer,omitempty" json:"player2CoinsToOffer,omitempty"`
	Player2Response     *string `dynamodbav:"Player2Response,omitempty" json:"player2Response,omitempty"`

	Player1Score int  `dynamodbav:"Player1Score" json:"player1Score"`
	Player2Score int  `dynamodbav:"Player2Score" json:"player2Score"`
	Settled      bool `dynamodbav:"Settled" json:"settled"`

	StartedAt time.Time  `dynamodbav:"StartedAt" json:"startedAt"`
	EndedAt   *time.Time `dynamodbav:"EndedAt,omitempty" json:"endedAt,omitempty"`
}

func RoundFromGame(matchId string, r game.Round) Round {
	round := Round{
		MatchId:      matchId,
		Number:       r.Number,
		Player1Score: r.Scores[game.SLOT_A],
		Player2Score: r.Scores[game.SLOT_B],
		Settled:      r.Settled,
		StartedAt:    r.StartedAt,
	}
	if !r.EndedAt.IsZero() {
		endedAt := r.EndedAt
		round.EndedAt = &endedAt
	}
	round.Player1Action = actionString(r.Actions[game.SLOT_A])
	round.Player2Action = actionString(r.Actions[game.SLOT_B])
	if o := r.Offers[game.SLOT_A]; o != nil {
		round.Player1CoinsToKeep, round.Player1CoinsToOffer = intPtr(o.Keep), intPtr(o.Give)
	}
	if o := r.Offers[game.SLOT_B]; o != nil {
		round.Player2CoinsToKeep, round.Player2CoinsToOffer = intPtr(o.Keep), intPtr(o.Give)
	}
	round.Player1Response = responseString(r.Responses[game.SLOT_A])
	round.Player2Response = responseString(r.Responses[game.SLOT_B])
	return round
}

// ToGame converts the stored round back, rejecting values a client could
// never have submitted.
func (r Round) ToGame() (game.Round, error) {
	round := game.Round{
		Number:    r.Number,
		Scores:    [2]int{r.Player1Score, r.Player2Score},
		Settled:   r.Settled,
		StartedAt: r.StartedAt,
	}
	if r.EndedAt != nil {
		round.EndedAt = *r.EndedAt
	}

	actions := [2]*string{r.Player1Action, r.Player2Action}
	keeps := [2]*int{r.Player1CoinsToKeep, r.Player2CoinsToKeep}
	gives := [2]*int{r.Player1CoinsToOffer, r.Player2CoinsToOffer}
	responses := [2]*string{r.Player1Response, r.Player2Response}
	for _, slot := range []game.Slot{game.SLOT_A, game.SLOT_B} {
		if actions[slot] != nil {
			action, err := game.ParseAction(*actions[slot])
			if err != nil {
				return game.Round{}, fmt.Errorf("round %d: %w", r.Number, err)
			}
			round.Actions[slot] = &action
		}
		if keeps[slot] != nil && gives[slot] != nil {
			round.Offers[slot] = &game.Offer{Keep: *keeps[slot], Give: *gives[slot]}
		}
		if responses[slot] != nil {
			response, err := game.ParseResponse(*responses[slot])
			if err != nil {
				return game.Round{}, fmt.Errorf("round %d: %w", r.Number, err)
			}
			round.Responses[slot] = &response
		}
	}
	return round, nil
}

func RoundsToGame(rounds []Round) ([]game.Round, error) {
	out := make([]game.Round, 0, len(rounds))
	for _, r := range rounds {
		round, err := r.ToGame()
		if err != nil {
			return nil, err
		}
		out = append(out, round)
	}
	return out, nil
}

// LastActivity is the latest timestamp recorded on the round.
func (r Round) LastActivity() time.Time {
	if r.EndedAt != nil && r.EndedAt.After(r.StartedAt) {
		return *r.EndedAt
	}
	return r.StartedAt
}

func actionString(a *game.Action) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func responseString(r *game.Response) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func intPtr(v int) *int {
	return &v
}
