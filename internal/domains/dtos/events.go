package dtos

const (
	EventStateSnapshot   = "state_snapshot"
	EventActionBroadcast = "action_broadcast"
	EventRoundSettled    = "round_settled"
	EventMatchOver       = "match_over"
	EventMatchAborted    = "match_aborted"
	EventError           = "error"
)

type StateSnapshotEvent struct {
	Type  string             `json:"type"`
	Match MatchStateResponse `json:"match"`
}

type ActionBroadcastEvent struct {
	Type              string `json:"type"`
	MatchId           string `json:"match_id"`
	Round             int    `json:"round_number"`
	Player            string `json:"player"`
	PlayerFingerprint string `json:"player_fingerprint"`
	Kind              string `json:"kind"`
	Action            string `json:"action,omitempty"`
	CoinsToKeep       *int   `json:"coins_to_keep,omitempty"`
	CoinsToOffer      *int   `json:"coins_to_offer,omitempty"`
	Response          string `json:"response,omitempty"`
}

type RoundSettledEvent struct {
	Type    string        `json:"type"`
	MatchId string        `json:"match_id"`
	Round   RoundResponse `json:"round"`
}

type MatchOverEvent struct {
	Type    string               `json:"type"`
	MatchId string               `json:"match_id"`
	Scores  ScoresResponse       `json:"scores"`
	Summary MatchHistoryResponse `json:"summary"`
}

type MatchAbortedEvent struct {
	Type         string `json:"type"`
	MatchId      string `json:"match_id"`
	Reason       string `json:"reason"`
	RedirectHint string `json:"redirect_hint"`
}

type ErrorEvent struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  string `json:"error"`
}
