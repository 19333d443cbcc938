package dtos

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) (game.Payload, error) {
	t.Helper()
	var msg ClientMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, MessageTypeSubmitAction, msg.Type)
	return msg.Payload.GamePayload()
}

func TestClientMessagePayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want game.Payload
	}{
		{
			"action word",
			`{"type":"submit_action","payload":{"action":"Cooperate"}}`,
			game.ActionPayload{Action: game.COOPERATE},
		},
		{
			"action code",
			`{"type":"submit_action","payload":{"kind":"action","action":"de"}}`,
			game.ActionPayload{Action: game.DEFECT},
		},
		{
			"offer",
			`{"type":"submit_action","payload":{"coins_to_keep":30,"coins_to_offer":70}}`,
			game.OfferPayload{Offer: game.Offer{Keep: 30, Give: 70}},
		},
		{
			"zero offer",
			`{"type":"submit_action","payload":{"coins_to_keep":100,"coins_to_offer":0}}`,
			game.OfferPayload{Offer: game.Offer{Keep: 100, Give: 0}},
		},
		{
			"response",
			`{"type":"submit_action","payload":{"response":"Accept"}}`,
			game.ResponsePayload{Response: game.ACCEPT},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePayload(t, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientMessagePayloadInvalid(t *testing.T) {
	for _, raw := range []string{
		`{"type":"submit_action"}`,
		`{"type":"submit_action","payload":{}}`,
		`{"type":"submit_action","payload":{"action":"betray"}}`,
		`{"type":"submit_action","payload":{"coins_to_keep":30}}`,
		`{"type":"submit_action","payload":{"response":"maybe"}}`,
		`{"type":"submit_action","payload":{"kind":"bribe"}}`,
	} {
		_, err := decodePayload(t, raw)
		assert.ErrorIs(t, err, game.ErrInvalidPayload, raw)
	}
}

func TestMatchStateResponseFromSummary(t *testing.T) {
	l := game.NewLedger(game.PRISONERS_DILEMMA, 25, 100)
	_, _, err := l.AppendOrGetRound(1, time.Now())
	require.NoError(t, err)
	require.NoError(t, l.RecordField(1, game.SLOT_A, game.ActionPayload{Action: game.DEFECT}))
	require.NoError(t, l.RecordField(1, game.SLOT_B, game.ActionPayload{Action: game.COOPERATE}))
	_, err = l.Settle(1, time.Now())
	require.NoError(t, err)

	match := entities.Match{
		Id:       "abc12345",
		GameType: "prisoners",
		GameMode: "online",
		Status:   entities.MatchStatusInProgress,
		Player1:  &entities.Player{Fingerprint: "fp-a"},
		Player2:  &entities.Player{Fingerprint: "fp-b"},
		Stake:    100,
	}
	resp := MatchStateResponseFromSummary(match, l.Summary())

	assert.Equal(t, 2, resp.PlayersCount)
	assert.True(t, resp.Ready)
	assert.False(t, resp.Waiting)
	assert.Equal(t, 2, resp.CurrentRound)
	assert.Equal(t, ScoresResponse{Player1: 30, Player2: 0}, resp.Scores)
	require.NotNil(t, resp.Stats.Player1CooperationRate)
	assert.Equal(t, 0.0, *resp.Stats.Player1CooperationRate)
	assert.Equal(t, 100.0, *resp.Stats.Player2CooperationRate)
	assert.Nil(t, resp.Stats.MinOffer)

	history := MatchHistoryResponseFromSummary(match, l.Summary())
	require.Len(t, history.History, 1)
	assert.Equal(t, "Defect", history.History[0].Player1Action)
	assert.Nil(t, history.History[0].Player1Offer)
	assert.Equal(t, &ScoresResponse{Player1: 30, Player2: 0}, history.History[0].Cumulative)
}
