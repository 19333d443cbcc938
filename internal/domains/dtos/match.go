package dtos

import (
	"time"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/game"
)

type PlayerResponse struct {
	Fingerprint string `json:"fingerprint"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

type ScoresResponse struct {
	Player1 int `json:"player_1"`
	Player2 int `json:"player_2"`
}

type OfferResponse struct {
	CoinsToKeep  int `json:"coins_to_keep"`
	CoinsToOffer int `json:"coins_to_offer"`
}

// RoundResponse shows a round's submitted fields. Unset fields are omitted.
type RoundResponse struct {
	Number          int             `json:"round_number"`
	Player1Action   string          `json:"player_1_action,omitempty"`
	Player2Action   string          `json:"player_2_action,omitempty"`
	Player1Offer    *OfferResponse  `json:"player_1_offer,omitempty"`
	Player2Offer    *OfferResponse  `json:"player_2_offer,omitempty"`
	Player1Response string          `json:"player_1_response,omitempty"`
	Player2Response string          `json:"player_2_response,omitempty"`
	Scores          *ScoresResponse `json:"scores,omitempty"`
	Cumulative      *ScoresResponse `json:"cumulative,omitempty"`
	StartedAt       time.Time       `json:"round_start"`
	EndedAt         *time.Time      `json:"round_end,omitempty"`
}

type StatsResponse struct {
	Player1CooperationRate *float64 `json:"player_1_cooperation_rate,omitempty"`
	Player2CooperationRate *float64 `json:"player_2_cooperation_rate,omitempty"`
	AverageCooperationRate *float64 `json:"average_cooperation_rate,omitempty"`
	MatchAcceptanceRate    *float64 `json:"match_acceptance_rate,omitempty"`
	MatchAverageOffer      *float64 `json:"match_average_offer,omitempty"`
	RoundAcceptanceRate    *float64 `json:"round_acceptance_rate,omitempty"`
	RoundAverageOffer      *float64 `json:"round_average_offer,omitempty"`
	MinOffer               *int     `json:"min_offer,omitempty"`
	MaxOffer               *int     `json:"max_offer,omitempty"`
	Player1AverageOffer    *float64 `json:"player_1_average_offer,omitempty"`
	Player2AverageOffer    *float64 `json:"player_2_average_offer,omitempty"`
	Player1OfferAcceptance *float64 `json:"player_1_offer_acceptance_rate,omitempty"`
	Player2OfferAcceptance *float64 `json:"player_2_offer_acceptance_rate,omitempty"`
}

// MatchStateResponse is the full view of a match sent in snapshots and
// returned by the lobby API.
type MatchStateResponse struct {
	MatchId         string          `json:"match_id"`
	GameType        string          `json:"game_type"`
	GameMode        string          `json:"game_mode"`
	Status          string          `json:"status"`
	Player1         *PlayerResponse `json:"player_1,omitempty"`
	Player2         *PlayerResponse `json:"player_2,omitempty"`
	PlayersCount    int             `json:"players_count"`
	Ready           bool            `json:"ready"`
	Waiting         bool            `json:"waiting"`
	CurrentRound    int             `json:"current_round"`
	MaxRounds       int             `json:"max_rounds"`
	CompletedRounds int             `json:"completed_rounds"`
	Stake           int             `json:"stake"`
	Scores          ScoresResponse  `json:"scores"`
	GameOver        bool            `json:"game_over"`
	Stats           StatsResponse   `json:"stats"`
	InPlay          *RoundResponse  `json:"in_play,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type MatchHistoryResponse struct {
	MatchId       string          `json:"match_id"`
	GameType      string          `json:"game_type"`
	GameMode      string          `json:"game_mode"`
	TotalRounds   int             `json:"total_rounds"`
	MatchComplete bool            `json:"match_complete"`
	Stats         StatsResponse   `json:"stats"`
	History       []RoundResponse `json:"history"`
}

type ActiveMatchResponse struct {
	MatchId         string    `json:"match_id"`
	GameType        string    `json:"game_type"`
	GameMode        string    `json:"game_mode"`
	Status          string    `json:"status"`
	Player1         string    `json:"player_1,omitempty"`
	Player2         string    `json:"player_2,omitempty"`
	CompletedRounds int       `json:"completed_rounds"`
	CreatedAt       time.Time `json:"created_at"`
}

type ActiveMatchListResponse struct {
	ActiveMatches []ActiveMatchResponse `json:"active_matches"`
	TotalActive   int                   `json:"total_active"`
}

type MatchCreateRequest struct {
	GameType          string `json:"game_type"`
	GameMode          string `json:"game_mode"`
	PlayerFingerprint string `json:"player_fingerprint"`
}

const (
	MatchCreatedNew     = "created_new_match"
	MatchJoinedExisting = "joined_existing_match"
	MatchCreatedBot     = "created_bot_match"
)

type MatchCreateResponse struct {
	Status            string `json:"status"`
	MatchId           string `json:"match_id"`
	GameType          string `json:"game_type"`
	GameMode          string `json:"game_mode"`
	PlayerFingerprint string `json:"player_fingerprint"`
	WebsocketPath     string `json:"websocket_path"`
}

type PurgeResponse struct {
	Deleted int `json:"deleted"`
}

func PlayerResponseFromEntity(p *entities.Player) *PlayerResponse {
	if p == nil {
		return nil
	}
	return &PlayerResponse{
		Fingerprint: p.Fingerprint,
		Country:     p.Origin.Country,
		City:        p.Origin.City,
	}
}

func ScoresResponseFromGame(scores [2]int) ScoresResponse {
	return ScoresResponse{Player1: scores[game.SLOT_A], Player2: scores[game.SLOT_B]}
}

func RoundResponseFromGame(r game.Round, cumulative *[2]int) RoundResponse {
	resp := RoundResponse{
		Number:    r.Number,
		StartedAt: r.StartedAt,
	}
	if a := r.Actions[game.SLOT_A]; a != nil {
		resp.Player1Action = string(*a)
	}
	if a := r.Actions[game.SLOT_B]; a != nil {
		resp.Player2Action = string(*a)
	}
	resp.Player1Offer = offerResponse(r.Offers[game.SLOT_A])
	resp.Player2Offer = offerResponse(r.Offers[game.SLOT_B])
	if resp1 := r.Responses[game.SLOT_A]; resp1 != nil {
		resp.Player1Response = string(*resp1)
	}
	if resp2 := r.Responses[game.SLOT_B]; resp2 != nil {
		resp.Player2Response = string(*resp2)
	}
	if r.Settled {
		scores := ScoresResponseFromGame(r.Scores)
		resp.Scores = &scores
		endedAt := r.EndedAt
		resp.EndedAt = &endedAt
	}
	if cumulative != nil {
		c := ScoresResponseFromGame(*cumulative)
		resp.Cumulative = &c
	}
	return resp
}

func RoundResponseFromResult(res game.RoundResult) RoundResponse {
	r := game.Round{
		Number:    res.Number,
		Scores:    res.Scores,
		Settled:   true,
		StartedAt: res.StartedAt,
		EndedAt:   res.EndedAt,
	}
	for _, slot := range []game.Slot{game.SLOT_A, game.SLOT_B} {
		if res.Actions[slot] != "" {
			r.Actions[slot] = &res.Actions[slot]
		}
		if res.Responses[slot] != "" {
			r.Offers[slot] = &res.Offers[slot]
			r.Responses[slot] = &res.Responses[slot]
		}
	}
	return RoundResponseFromGame(r, &res.Cumulative)
}

func StatsResponseFromSummary(s game.Summary) StatsResponse {
	var stats StatsResponse
	if s.CompletedRounds == 0 {
		return stats
	}
	switch s.GameType {
	case game.PRISONERS_DILEMMA:
		stats.Player1CooperationRate = &s.CooperationRates[game.SLOT_A]
		stats.Player2CooperationRate = &s.CooperationRates[game.SLOT_B]
		stats.AverageCooperationRate = &s.AverageCooperation
	case game.ULTIMATUM:
		stats.MatchAcceptanceRate = &s.AcceptanceRate
		stats.MatchAverageOffer = &s.AverageOffer
		stats.RoundAcceptanceRate = &s.LastRoundAcceptanceRate
		stats.RoundAverageOffer = &s.LastRoundAverageOffer
		stats.MinOffer = &s.MinOffer
		stats.MaxOffer = &s.MaxOffer
		stats.Player1AverageOffer = &s.AverageOffers[game.SLOT_A]
		stats.Player2AverageOffer = &s.AverageOffers[game.SLOT_B]
		stats.Player1OfferAcceptance = &s.OfferAcceptanceRates[game.SLOT_A]
		stats.Player2OfferAcceptance = &s.OfferAcceptanceRates[game.SLOT_B]
	}
	return stats
}

func MatchStateResponseFromSummary(match entities.Match, s game.Summary) MatchStateResponse {
	resp := MatchStateResponse{
		MatchId:         match.Id,
		GameType:        match.GameType,
		GameMode:        match.GameMode,
		Status:          match.Status,
		Player1:         PlayerResponseFromEntity(match.Player1),
		Player2:         PlayerResponseFromEntity(match.Player2),
		Ready:           match.Player1 != nil && match.Player2 != nil,
		Waiting:         match.Status == entities.MatchStatusWaiting,
		CurrentRound:    s.CurrentRound,
		MaxRounds:       s.MaxRounds,
		CompletedRounds: s.CompletedRounds,
		Stake:           match.Stake,
		Scores:          ScoresResponseFromGame(s.Scores),
		GameOver:        s.GameOver,
		Stats:           StatsResponseFromSummary(s),
		CreatedAt:       match.CreatedAt,
	}
	for _, p := range []*entities.Player{match.Player1, match.Player2} {
		if p != nil {
			resp.PlayersCount++
		}
	}
	if s.InPlay != nil {
		inPlay := RoundResponseFromGame(*s.InPlay, nil)
		resp.InPlay = &inPlay
	}
	return resp
}

func MatchHistoryResponseFromSummary(match entities.Match, s game.Summary) MatchHistoryResponse {
	resp := MatchHistoryResponse{
		MatchId:       match.Id,
		GameType:      match.GameType,
		GameMode:      match.GameMode,
		TotalRounds:   s.CompletedRounds,
		MatchComplete: s.GameOver,
		Stats:         StatsResponseFromSummary(s),
		History:       make([]RoundResponse, 0, len(s.History)),
	}
	for _, res := range s.History {
		resp.History = append(resp.History, RoundResponseFromResult(res))
	}
	return resp
}

func ActiveMatchResponseFromEntity(match entities.Match, completedRounds int) ActiveMatchResponse {
	resp := ActiveMatchResponse{
		MatchId:         match.Id,
		GameType:        match.GameType,
		GameMode:        match.GameMode,
		Status:          match.Status,
		CompletedRounds: completedRounds,
		CreatedAt:       match.CreatedAt,
	}
	if match.Player1 != nil {
		resp.Player1 = match.Player1.Fingerprint
	}
	if match.Player2 != nil {
		resp.Player2 = match.Player2.Fingerprint
	}
	return resp
}

func offerResponse(o *game.Offer) *OfferResponse {
	if o == nil {
		return nil
	}
	return &OfferResponse{CoinsToKeep: o.Keep, CoinsToOffer: o.Give}
}
