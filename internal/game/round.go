package game

import (
	"fmt"
	"time"
)

// Round is one numbered exchange within a match. Every submitted field is a
// pointer that stays nil until its owner writes it; fields are never
// overwritten once set.
type Round struct {
	Number int

	// Prisoner's Dilemma
	Actions [2]*Action

	// Ultimatum: Responses[s] is slot s's answer to the other slot's offer.
	Offers    [2]*Offer
	Responses [2]*Response

	Scores  [2]int
	Settled bool

	StartedAt time.Time
	EndedAt   time.Time
}

func NewRound(number int, startedAt time.Time) Round {
	return Round{Number: number, StartedAt: startedAt}
}

// Complete reports whether every field required by the game is present.
func (r Round) Complete(gameType GameType) bool {
	switch gameType {
	case PRISONERS_DILEMMA:
		return r.Actions[SLOT_A] != nil && r.Actions[SLOT_B] != nil
	case ULTIMATUM:
		return r.Offers[SLOT_A] != nil && r.Offers[SLOT_B] != nil &&
			r.Responses[SLOT_A] != nil && r.Responses[SLOT_B] != nil
	}
	return false
}

// Empty reports whether nothing has been written to the round yet.
func (r Round) Empty() bool {
	for _, s := range []Slot{SLOT_A, SLOT_B} {
		if r.Actions[s] != nil || r.Offers[s] != nil || r.Responses[s] != nil {
			return false
		}
	}
	return true
}

func (r Round) Has(slot Slot, kind FieldKind) bool {
	switch kind {
	case FIELD_ACTION:
		return r.Actions[slot] != nil
	case FIELD_OFFER:
		return r.Offers[slot] != nil
	case FIELD_RESPONSE:
		return r.Responses[slot] != nil
	}
	return false
}

// Owes returns the field slot has to submit next, if any is submittable now.
func (r Round) Owes(gameType GameType, slot Slot) (FieldKind, bool) {
	switch gameType {
	case PRISONERS_DILEMMA:
		if r.Actions[slot] == nil {
			return FIELD_ACTION, true
		}
	case ULTIMATUM:
		if r.Offers[slot] == nil {
			return FIELD_OFFER, true
		}
		if r.Responses[slot] == nil && r.Offers[slot.Other()] != nil {
			return FIELD_RESPONSE, true
		}
	}
	return 0, false
}

// Set writes p into slot's field. It validates the payload against the game
// and rejects a second write to the same field.
func (r *Round) Set(gameType GameType, stake int, slot Slot, p Payload) error {
	if err := p.Validate(gameType, stake); err != nil {
		return err
	}
	if r.Settled {
		return fmt.Errorf("%w: round %d already settled", ErrFieldAlreadySet, r.Number)
	}
	if r.Has(slot, p.Kind()) {
		return fmt.Errorf("%w: %s %s in round %d", ErrFieldAlreadySet, slot, p.Kind(), r.Number)
	}
	switch v := p.(type) {
	case ActionPayload:
		action := v.Action
		r.Actions[slot] = &action
	case OfferPayload:
		offer := v.Offer
		r.Offers[slot] = &offer
	case ResponsePayload:
		if r.Offers[slot.Other()] == nil {
			return fmt.Errorf("%w: %s has not offered in round %d", ErrOfferMissing, slot.Other(), r.Number)
		}
		response := v.Response
		r.Responses[slot] = &response
	default:
		return fmt.Errorf("%w: unsupported payload %T", ErrInvalidPayload, p)
	}
	return nil
}

// Settle computes and stores the round's payoff. Calling it again on a
// settled round recomputes the same scores and changes nothing.
func (r *Round) Settle(gameType GameType, endedAt time.Time) ([2]int, error) {
	if !r.Complete(gameType) {
		return [2]int{}, fmt.Errorf("%w: round %d incomplete", ErrRoundNotOpen, r.Number)
	}
	scores, err := Payoff(gameType, *r)
	if err != nil {
		return [2]int{}, err
	}
	if r.Settled {
		return r.Scores, nil
	}
	r.Scores = scores
	r.Settled = true
	r.EndedAt = endedAt
	return scores, nil
}
