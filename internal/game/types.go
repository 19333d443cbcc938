package game

import (
	"errors"
	"fmt"
	"strings"
)

type (
	GameType uint8
	Mode     uint8
	Slot     uint8
	Action   string
	Response string
)

const (
	PRISONERS_DILEMMA GameType = iota
	ULTIMATUM
)

const (
	ONLINE Mode = iota
	BOT
)

const (
	SLOT_A Slot = iota
	SLOT_B
)

const (
	COOPERATE Action = "Cooperate"
	DEFECT    Action = "Defect"

	ACCEPT Response = "accept"
	REJECT Response = "reject"
)

// BotFingerprint is the sentinel fingerprint occupying slot B in bot matches.
const BotFingerprint = "bot"

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrFieldAlreadySet  = errors.New("field already set")
	ErrOfferMissing     = errors.New("offer not submitted yet")
	ErrRoundOutOfRange  = errors.New("round out of range")
	ErrRoundNotOpen     = errors.New("round not open")
	ErrUnknownGameType  = errors.New("unknown game type")
	ErrUnknownGameMode  = errors.New("unknown game mode")
	ErrWrongGamePayload = errors.New("payload does not belong to this game")
)

func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prisoners", "prisoners_dilemma", "pd":
		return PRISONERS_DILEMMA, nil
	case "ultimatum", "ug":
		return ULTIMATUM, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGameType, s)
}

func (g GameType) String() string {
	switch g {
	case PRISONERS_DILEMMA:
		return "prisoners"
	case ULTIMATUM:
		return "ultimatum"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "online":
		return ONLINE, nil
	case "bot":
		return BOT, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGameMode, s)
}

func (m Mode) String() string {
	if m == BOT {
		return "bot"
	}
	return "online"
}

func (s Slot) Other() Slot {
	if s == SLOT_A {
		return SLOT_B
	}
	return SLOT_A
}

func (s Slot) String() string {
	if s == SLOT_A {
		return "player_1"
	}
	return "player_2"
}

// ParseAction normalizes a full word or two-letter code into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cooperate", "co":
		return COOPERATE, nil
	case "defect", "de":
		return DEFECT, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidPayload, s)
}

func ParseResponse(s string) (Response, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept":
		return ACCEPT, nil
	case "reject":
		return REJECT, nil
	}
	return "", fmt.Errorf("%w: unknown response %q", ErrInvalidPayload, s)
}

// Offer is one side's split of the stake in an ultimatum round.
type Offer struct {
	Keep int `json:"coinsToKeep"`
	Give int `json:"coinsToOffer"`
}

func (o Offer) Validate(stake int) error {
	if o.Keep < 0 || o.Keep > stake || o.Give < 0 || o.Give > stake {
		return fmt.Errorf("%w: coin amounts must be within [0, %d]", ErrInvalidPayload, stake)
	}
	if o.Keep+o.Give != stake {
		return fmt.Errorf("%w: coins to keep + coins to offer must equal %d", ErrInvalidPayload, stake)
	}
	return nil
}
