package game

import "fmt"

type FieldKind uint8

const (
	FIELD_ACTION FieldKind = iota
	FIELD_OFFER
	FIELD_RESPONSE
)

func (k FieldKind) String() string {
	switch k {
	case FIELD_ACTION:
		return "action"
	case FIELD_OFFER:
		return "offer"
	case FIELD_RESPONSE:
		return "response"
	default:
		return "unknown"
	}
}

// Payload is the value a participant submits for one round field.
// Implementations are ActionPayload, OfferPayload and ResponsePayload.
type Payload interface {
	Kind() FieldKind
	Validate(gameType GameType, stake int) error
}

type ActionPayload struct {
	Action Action
}

type OfferPayload struct {
	Offer Offer
}

type ResponsePayload struct {
	Response Response
}

func (ActionPayload) Kind() FieldKind   { return FIELD_ACTION }
func (OfferPayload) Kind() FieldKind    { return FIELD_OFFER }
func (ResponsePayload) Kind() FieldKind { return FIELD_RESPONSE }

func (p ActionPayload) Validate(gameType GameType, _ int) error {
	if gameType != PRISONERS_DILEMMA {
		return fmt.Errorf("%w: action in %s", ErrWrongGamePayload, gameType)
	}
	if p.Action != COOPERATE && p.Action != DEFECT {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidPayload, p.Action)
	}
	return nil
}

func (p OfferPayload) Validate(gameType GameType, stake int) error {
	if gameType != ULTIMATUM {
		return fmt.Errorf("%w: offer in %s", ErrWrongGamePayload, gameType)
	}
	return p.Offer.Validate(stake)
}

func (p ResponsePayload) Validate(gameType GameType, _ int) error {
	if gameType != ULTIMATUM {
		return fmt.Errorf("%w: response in %s", ErrWrongGamePayload, gameType)
	}
	if p.Response != ACCEPT && p.Response != REJECT {
		return fmt.Errorf("%w: unknown response %q", ErrInvalidPayload, p.Response)
	}
	return nil
}
