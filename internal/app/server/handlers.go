package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/chess-vn/econgames/internal/domains/dtos"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/chess-vn/econgames/internal/identity"
	"github.com/chess-vn/econgames/pkg/logging"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler for when a match completes.
func (s *server) handleEndGame(match *Match) {
	s.registry.Remove(match.Id())
	logging.Info("game ended", zap.String("match_id", match.Id()))

	if s.lambdaClient == nil || s.config.EndGameFunctionArn == "" {
		return
	}
	payload := map[string]interface{}{
		"matchId":  match.Id(),
		"gameType": match.GameType().String(),
		"gameMode": match.Mode().String(),
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		logging.Error("failed to marshal end game payload", zap.Error(err))
		return
	}
	input := &lambda.InvokeInput{
		FunctionName:   aws.String(s.config.EndGameFunctionArn),
		Payload:        payloadJson,
		InvocationType: types.InvocationTypeEvent,
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := s.lambdaClient.Invoke(ctx, input); err != nil {
		logging.Error("failed to invoke end game", zap.Error(err))
	}
}

// Handler for when a match is aborted.
func (s *server) handleAbort(match *Match, reason string) {
	s.registry.Remove(match.Id())
	logging.Info("game aborted",
		zap.String("match_id", match.Id()),
		zap.String("reason", reason),
	)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req dtos.MatchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("%w: %v", ErrValidation, err))
		return
	}
	gameType, err := game.ParseGameType(req.GameType)
	if err != nil {
		writeError(w, err)
		return
	}
	mode, err := game.ParseMode(req.GameMode)
	if err != nil {
		writeError(w, err)
		return
	}
	fingerprint := req.PlayerFingerprint
	if fingerprint == "" {
		fingerprint = identity.Fingerprint(r.Header)
	}
	origin := s.locator.Resolve(identity.ClientIP(r))

	var (
		match  *Match
		status string
	)
	switch mode {
	case game.BOT:
		match, err = s.registry.Create(gameType, mode, fingerprint, origin)
		status = dtos.MatchCreatedBot
	default:
		var joined bool
		match, joined, err = s.registry.LookupOrJoinOpenOnlineMatch(gameType, fingerprint, origin)
		status = dtos.MatchCreatedNew
		if joined {
			status = dtos.MatchJoinedExisting
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.MatchCreateResponse{
		Status:            status,
		MatchId:           match.Id(),
		GameType:          gameType.String(),
		GameMode:          mode.String(),
		PlayerFingerprint: fingerprint,
		WebsocketPath:     "/game/" + match.Id(),
	})
}

func (s *server) handleActiveMatches(w http.ResponseWriter, r *http.Request) {
	resp := dtos.ActiveMatchListResponse{ActiveMatches: []dtos.ActiveMatchResponse{}}
	for _, match := range s.registry.Live() {
		snap, ok := match.Snapshot()
		if !ok {
			continue
		}
		resp.ActiveMatches = append(resp.ActiveMatches, dtos.ActiveMatchResponseFromEntity(snap.Record, snap.CompletedRounds))
	}
	resp.TotalActive = len(resp.ActiveMatches)
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleMatchStats(w http.ResponseWriter, r *http.Request) {
	record, summary, err := s.matchRecord(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.MatchStateResponseFromSummary(record, summary))
}

func (s *server) handleMatchHistory(w http.ResponseWriter, r *http.Request) {
	record, summary, err := s.matchRecord(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.MatchHistoryResponseFromSummary(record, summary))
}

func (s *server) handlePurge(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.matchUsecase.PurgeIncompleteMatches(r.Context(), s.config.PurgeOlderThan, s.registry.IsLive)
	if err != nil {
		logging.Error("failed to purge matches", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.PurgeResponse{Deleted: deleted})
}

// matchRecord prefers the live match and falls back to storage.
func (s *server) matchRecord(ctx context.Context, matchId string) (entities.Match, game.Summary, error) {
	if match, ok := s.registry.Get(matchId); ok {
		if snap, ok := match.Snapshot(); ok {
			return snap.Record, snap.Summary, nil
		}
	}
	return s.matchUsecase.GetMatchRecord(ctx, matchId)
}

func (s *server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	matchId := mux.Vars(r)["matchId"]
	match, ok := s.registry.Get(matchId)
	if !ok {
		writeError(w, fmt.Errorf("%w: match %s", ErrNotFound, matchId))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	sub := newWsSubscriber(conn)

	fingerprint, ok := s.handlePlayerJoin(conn, sub, match, r)
	if !ok {
		return
	}
	defer s.registry.Unsubscribe(matchId, sub)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			logging.Info("connection closed",
				zap.String("match_id", matchId),
				zap.String("remote_address", conn.RemoteAddr().String()),
				zap.Error(err),
			)
			match.Disconnect(fingerprint)
			return
		}
		var msg dtos.ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			sendError(sub, fmt.Errorf("%w: %v", ErrValidation, err))
			continue
		}
		if !s.handleWebSocketMessage(sub, match, fingerprint, msg) {
			return
		}
	}
}

// handlePlayerJoin waits for the join message, admits the player and sends
// the current state. It reports the player's fingerprint.
func (s *server) handlePlayerJoin(conn *websocket.Conn, sub *wsSubscriber, match *Match, r *http.Request) (string, bool) {
	var msg dtos.ClientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		logging.Info("connection closed before join", zap.String("match_id", match.Id()), zap.Error(err))
		return "", false
	}
	if msg.Type != dtos.MessageTypeJoin {
		sendError(sub, fmt.Errorf("%w: expected %s, got %q", ErrValidation, dtos.MessageTypeJoin, msg.Type))
		return "", false
	}
	fingerprint := msg.PlayerFingerprint
	if fingerprint == "" {
		fingerprint = identity.Fingerprint(r.Header)
	}

	res := match.Join(fingerprint, s.locator.Resolve(identity.ClientIP(r)))
	if !res.Accepted {
		sendError(sub, res.Err)
		return "", false
	}
	if err := match.Attach(sub); err != nil {
		sendError(sub, err)
		return "", false
	}
	logging.Info("player connected",
		zap.String("match_id", match.Id()),
		zap.String("player_fingerprint", fingerprint),
		zap.String("slot", res.Slot.String()),
	)
	return fingerprint, true
}

// Handler for when a player sends a message. It reports whether the
// connection stays open.
func (s *server) handleWebSocketMessage(sub *wsSubscriber, match *Match, fingerprint string, msg dtos.ClientMessage) bool {
	switch msg.Type {
	case dtos.MessageTypeSubmitAction:
		payload, err := msg.Payload.GamePayload()
		if err != nil {
			sendError(sub, err)
			return true
		}
		if res := match.Submit(fingerprint, payload); !res.Accepted {
			sub.WriteJSON(dtos.ErrorEvent{Type: dtos.EventError, Status: res.Status, Error: res.Reason})
		}
		return true
	case dtos.MessageTypeLeave:
		match.Disconnect(fingerprint)
		return false
	case dtos.MessageTypeJoin:
		sendError(sub, fmt.Errorf("%w: already joined", ErrStateConflict))
		return true
	}
	sendError(sub, fmt.Errorf("%w: unknown message type %q", ErrValidation, msg.Type))
	return true
}

func sendError(sub Subscriber, err error) {
	sub.WriteJSON(dtos.ErrorEvent{Type: dtos.EventError, Status: errorStatus(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	writeJSON(w, httpStatus(status), dtos.ErrorEvent{Type: dtos.EventError, Status: status, Error: err.Error()})
}

func httpStatus(status string) int {
	switch status {
	case ErrStatusValidation:
		return http.StatusBadRequest
	case ErrStatusNotFound:
		return http.StatusNotFound
	case ErrStatusStateConflict:
		return http.StatusConflict
	case ErrStatusAborted:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}
