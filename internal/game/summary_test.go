package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playUltimatum(t *testing.T, l *Ledger, offers [2]Offer, responses [2]Response) {
	t.Helper()
	n := l.CurrentRound()
	_, _, err := l.AppendOrGetRound(n, now())
	require.NoError(t, err)
	require.NoError(t, l.RecordField(n, SLOT_A, OfferPayload{offers[SLOT_A]}))
	require.NoError(t, l.RecordField(n, SLOT_B, OfferPayload{offers[SLOT_B]}))
	require.NoError(t, l.RecordField(n, SLOT_A, ResponsePayload{responses[SLOT_A]}))
	require.NoError(t, l.RecordField(n, SLOT_B, ResponsePayload{responses[SLOT_B]}))
	_, err = l.Settle(n, now())
	require.NoError(t, err)
}

func TestSummaryEmpty(t *testing.T) {
	s := NewLedger(PRISONERS_DILEMMA, 25, 100).Summary()

	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 0, s.CompletedRounds)
	assert.Empty(t, s.History)
	assert.False(t, s.GameOver)
	assert.Nil(t, s.InPlay)
	assert.Zero(t, s.AverageCooperation)
}

func TestSummaryPrisoners(t *testing.T) {
	l := NewLedger(PRISONERS_DILEMMA, 4, 100)
	playPrisoners(t, l, COOPERATE, COOPERATE)
	playPrisoners(t, l, COOPERATE, DEFECT)
	playPrisoners(t, l, DEFECT, DEFECT)
	playPrisoners(t, l, COOPERATE, DEFECT)

	s := l.Summary()
	assert.True(t, s.GameOver)
	assert.Equal(t, 4, s.CurrentRound)
	assert.Equal(t, 4, s.CompletedRounds)
	assert.Equal(t, [2]int{30, 90}, s.Scores)
	assert.Equal(t, [2]float64{75, 25}, s.CooperationRates)
	assert.Equal(t, 50.0, s.AverageCooperation)

	require.Len(t, s.History, 4)
	assert.Equal(t, [2]int{20, 50}, s.History[1].Cumulative)
	assert.Equal(t, [2]Action{DEFECT, DEFECT}, s.History[2].Actions)
}

func TestSummaryUltimatum(t *testing.T) {
	l := NewLedger(ULTIMATUM, 25, 100)
	playUltimatum(t, l,
		[2]Offer{{Keep: 30, Give: 70}, {Keep: 10, Give: 90}},
		[2]Response{REJECT, ACCEPT})
	playUltimatum(t, l,
		[2]Offer{{Keep: 60, Give: 40}, {Keep: 50, Give: 50}},
		[2]Response{ACCEPT, ACCEPT})

	s := l.Summary()
	assert.Equal(t, 3, s.CurrentRound)
	assert.Equal(t, [2]int{30 + 110, 70 + 90}, s.Scores)
	assert.Equal(t, 40, s.MinOffer)
	assert.Equal(t, 90, s.MaxOffer)
	assert.Equal(t, 62.5, s.AverageOffer)
	assert.Equal(t, [2]float64{55, 70}, s.AverageOffers)
	// slot A's offers were accepted twice, slot B's once
	assert.Equal(t, [2]float64{100, 50}, s.OfferAcceptanceRates)
	assert.Equal(t, 75.0, s.AcceptanceRate)
	assert.Equal(t, 100.0, s.LastRoundAcceptanceRate)
	assert.Equal(t, 45.0, s.LastRoundAverageOffer)
}

func TestSummaryInPlayRound(t *testing.T) {
	l := NewLedger(ULTIMATUM, 25, 100)
	_, _, err := l.AppendOrGetRound(1, now())
	require.NoError(t, err)
	require.NoError(t, l.RecordField(1, SLOT_B, OfferPayload{Offer{Keep: 50, Give: 50}}))

	s := l.Summary()
	require.NotNil(t, s.InPlay)
	assert.Equal(t, 1, s.InPlay.Number)
	assert.True(t, s.InPlay.Has(SLOT_B, FIELD_OFFER))
	assert.Equal(t, 0, s.CompletedRounds)
	assert.Equal(t, [2]int{}, s.Scores)
}
