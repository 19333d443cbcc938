package dtos

import (
	"fmt"

	"github.com/chess-vn/econgames/internal/game"
)

const (
	MessageTypeJoin         = "join"
	MessageTypeSubmitAction = "submit_action"
	MessageTypeLeave        = "leave"
)

// ClientMessage is a single inbound websocket frame.
type ClientMessage struct {
	Type              string          `json:"type"`
	PlayerFingerprint string          `json:"player_fingerprint"`
	Payload           *PayloadMessage `json:"payload,omitempty"`
}

// PayloadMessage carries exactly one of an action, an offer or a response.
// Kind is optional; when empty it is inferred from the populated fields.
type PayloadMessage struct {
	Kind         string `json:"kind,omitempty"`
	Action       string `json:"action,omitempty"`
	CoinsToKeep  *int   `json:"coins_to_keep,omitempty"`
	CoinsToOffer *int   `json:"coins_to_offer,omitempty"`
	Response     string `json:"response,omitempty"`
}

func (p *PayloadMessage) kind() string {
	if p.Kind != "" {
		return p.Kind
	}
	switch {
	case p.Action != "":
		return "action"
	case p.Response != "":
		return "response"
	case p.CoinsToKeep != nil || p.CoinsToOffer != nil:
		return "offer"
	}
	return ""
}

// GamePayload converts the wire payload into a game.Payload. Range checks
// against the stake happen when the payload is recorded.
func (p *PayloadMessage) GamePayload() (game.Payload, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: missing payload", game.ErrInvalidPayload)
	}
	switch p.kind() {
	case "action":
		action, err := game.ParseAction(p.Action)
		if err != nil {
			return nil, err
		}
		return game.ActionPayload{Action: action}, nil
	case "offer":
		if p.CoinsToKeep == nil || p.CoinsToOffer == nil {
			return nil, fmt.Errorf("%w: missing coins_to_keep or coins_to_offer", game.ErrInvalidPayload)
		}
		return game.OfferPayload{Offer: game.Offer{Keep: *p.CoinsToKeep, Give: *p.CoinsToOffer}}, nil
	case "response":
		response, err := game.ParseResponse(p.Response)
		if err != nil {
			return nil, err
		}
		return game.ResponsePayload{Response: response}, nil
	}
	return nil, fmt.Errorf("%w: unknown payload kind %q", game.ErrInvalidPayload, p.Kind)
}
