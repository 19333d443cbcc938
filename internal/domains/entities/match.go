package entities

import "time"

const (
	MatchStatusWaiting    = "WAITING_FOR_OPPONENT"
	MatchStatusInProgress = "IN_PROGRESS"
	MatchStatusComplete   = "COMPLETE"
	MatchStatusAborted    = "ABORTED"
)

type Origin struct {
	Ip      string `dynamodbav:"Ip" json:"ip"`
	Country string `dynamodbav:"Country" json:"country"`
	City    string `dynamodbav:"City" json:"city"`
}

type Player struct {
	Fingerprint string    `dynamodbav:"Fingerprint" json:"fingerprint"`
	Origin      Origin    `dynamodbav:"Origin" json:"origin"`
	JoinedAt    time.Time `dynamodbav:"JoinedAt" json:"joinedAt"`
}

type Match struct {
	Id        string    `dynamodbav:"Id" json:"id"`
	GameType  string    `dynamodbav:"GameType" json:"gameType"`
	GameMode  string    `dynamodbav:"GameMode" json:"gameMode"`
	Status    string    `dynamodbav:"Status" json:"status"`
	Player1   *Player   `dynamodbav:"Player1,omitempty" json:"player1,omitempty"`
	Player2   *Player   `dynamodbav:"Player2,omitempty" json:"player2,omitempty"`
	MaxRounds int       `dynamodbav:"MaxRounds" json:"maxRounds"`
	Stake     int       `dynamodbav:"Stake" json:"stake"`
	CreatedAt time.Time `dynamodbav:"CreatedAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt" json:"updatedAt"`
}

// Terminal reports whether the match can no longer change.
func (m Match) Terminal() bool {
	return m.Status == MatchStatusComplete || m.Status == MatchStatusAborted
}
