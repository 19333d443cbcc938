package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chess-vn/econgames/internal/domains/dtos"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T, s *server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestLobbyAPI(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := newTestHTTPServer(t, s)

	var health map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/health", nil, &health))
	assert.Equal(t, "ok", health["status"])

	var botMatch dtos.MatchCreateResponse
	code := doJSON(t, "POST", ts.URL+"/api/matches", dtos.MatchCreateRequest{
		GameType:          "pd",
		GameMode:          "bot",
		PlayerFingerprint: "alice",
	}, &botMatch)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dtos.MatchCreatedBot, botMatch.Status)
	assert.Equal(t, "prisoners", botMatch.GameType)
	assert.Equal(t, "bot", botMatch.GameMode)
	assert.Equal(t, "/game/"+botMatch.MatchId, botMatch.WebsocketPath)

	var created dtos.MatchCreateResponse
	code = doJSON(t, "POST", ts.URL+"/api/matches", dtos.MatchCreateRequest{GameType: "ultimatum"}, &created)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dtos.MatchCreatedNew, created.Status)
	assert.Equal(t, "online", created.GameMode)
	assert.Len(t, created.PlayerFingerprint, 12)

	var joined dtos.MatchCreateResponse
	code = doJSON(t, "POST", ts.URL+"/api/matches", dtos.MatchCreateRequest{
		GameType:          "ultimatum",
		PlayerFingerprint: "bob",
	}, &joined)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dtos.MatchJoinedExisting, joined.Status)
	assert.Equal(t, created.MatchId, joined.MatchId)

	var active dtos.ActiveMatchListResponse
	assert.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches", nil, &active))
	assert.Equal(t, 2, active.TotalActive)

	var state dtos.MatchStateResponse
	assert.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches/"+botMatch.MatchId, nil, &state))
	assert.Equal(t, "IN_PROGRESS", state.Status)
	assert.Equal(t, 2, state.PlayersCount)
	assert.True(t, state.Ready)
	assert.False(t, state.Waiting)
	assert.Equal(t, 1, state.CurrentRound)
	require.NotNil(t, state.Player2)
	assert.Equal(t, game.BotFingerprint, state.Player2.Fingerprint)

	var history dtos.MatchHistoryResponse
	assert.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches/"+created.MatchId+"/history", nil, &history))
	assert.Equal(t, 0, history.TotalRounds)
	assert.Empty(t, history.History)

	var missing dtos.ErrorEvent
	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", ts.URL+"/api/matches/nope", nil, &missing))
	assert.Equal(t, ErrStatusNotFound, missing.Status)

	var invalid dtos.ErrorEvent
	code = doJSON(t, "POST", ts.URL+"/api/matches", dtos.MatchCreateRequest{GameType: "chess"}, &invalid)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, ErrStatusValidation, invalid.Status)

	var reserved dtos.ErrorEvent
	code = doJSON(t, "POST", ts.URL+"/api/matches", dtos.MatchCreateRequest{
		GameType:          "pd",
		PlayerFingerprint: game.BotFingerprint,
	}, &reserved)
	assert.Equal(t, http.StatusBadRequest, code)

	var purged dtos.PurgeResponse
	assert.Equal(t, http.StatusOK, doJSON(t, "POST", ts.URL+"/api/admin/purge", nil, &purged))
	assert.Equal(t, 0, purged.Deleted)
}

func TestMatchHistoryFromStorage(t *testing.T) {
	cfg := testConfig()
	cfg.Game.MaxRounds = 1
	cfg.Game.MinCompletedRounds = 1
	s := newTestServer(t, cfg, nil)
	ts := newTestHTTPServer(t, s)

	match, err := s.registry.Create(game.PRISONERS_DILEMMA, game.BOT, "alice", testOrigin)
	require.NoError(t, err)
	submit(t, match, "alice", game.ActionPayload{Action: game.COOPERATE})
	assert.Eventually(t, func() bool { return !s.registry.IsLive(match.Id()) }, eventually, 5*time.Millisecond)

	var history dtos.MatchHistoryResponse
	require.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches/"+match.Id()+"/history", nil, &history))
	assert.True(t, history.MatchComplete)
	assert.Equal(t, 1, history.TotalRounds)
	require.Len(t, history.History, 1)
	assert.Equal(t, "Cooperate", history.History[0].Player1Action)
	assert.Equal(t, "Defect", history.History[0].Player2Action)
	assert.Equal(t, dtos.ScoresResponse{Player1: 0, Player2: 30}, *history.History[0].Cumulative)
	require.NotNil(t, history.Stats.Player1CooperationRate)
	assert.Equal(t, 100.0, *history.Stats.Player1CooperationRate)

	var state dtos.MatchStateResponse
	require.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches/"+match.Id(), nil, &state))
	assert.Equal(t, "COMPLETE", state.Status)
	assert.True(t, state.GameOver)
}

func TestPurgeDeletesAbandonedMatches(t *testing.T) {
	cfg := testConfig()
	cfg.PurgeOlderThan = 0
	s := newTestServer(t, cfg, nil)
	ts := newTestHTTPServer(t, s)

	live, err := s.registry.Create(game.PRISONERS_DILEMMA, game.BOT, "alice", testOrigin)
	require.NoError(t, err)
	abandoned, err := s.registry.Create(game.ULTIMATUM, game.BOT, "bob", testOrigin)
	require.NoError(t, err)
	abandoned.shutdown()
	s.registry.Remove(abandoned.Id())

	var purged dtos.PurgeResponse
	require.Equal(t, http.StatusOK, doJSON(t, "POST", ts.URL+"/api/admin/purge", nil, &purged))
	assert.Equal(t, 1, purged.Deleted)

	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", ts.URL+"/api/matches/"+abandoned.Id(), nil, nil))
	assert.Equal(t, http.StatusOK, doJSON(t, "GET", ts.URL+"/api/matches/"+live.Id(), nil, nil))
}

func dialGame(t *testing.T, ts *httptest.Server, matchId string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + matchId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(eventually))
	var evt map[string]any
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

// readUntil reads events until one of type want arrives and returns the
// types seen on the way.
func readUntil(t *testing.T, conn *websocket.Conn, want string) ([]string, map[string]any) {
	t.Helper()
	var seen []string
	for {
		evt := readEvent(t, conn)
		typ, _ := evt["type"].(string)
		seen = append(seen, typ)
		if typ == want {
			return seen, evt
		}
	}
}

func TestGameSocketBotMatch(t *testing.T) {
	cfg := testConfig()
	cfg.Game.MaxRounds = 1
	s := newTestServer(t, cfg, nil)
	ts := newTestHTTPServer(t, s)

	match, err := s.registry.Create(game.PRISONERS_DILEMMA, game.BOT, "alice", testOrigin)
	require.NoError(t, err)
	conn := dialGame(t, ts, match.Id())

	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{Type: dtos.MessageTypeJoin, PlayerFingerprint: "alice"}))
	snapshot := readEvent(t, conn)
	assert.Equal(t, dtos.EventStateSnapshot, snapshot["type"])

	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{
		Type:    dtos.MessageTypeSubmitAction,
		Payload: &dtos.PayloadMessage{Action: "co"},
	}))
	seen, over := readUntil(t, conn, dtos.EventMatchOver)
	assert.Contains(t, seen, dtos.EventActionBroadcast)
	assert.Contains(t, seen, dtos.EventRoundSettled)
	assert.Equal(t, map[string]any{"player_1": 0.0, "player_2": 30.0}, over["scores"])

	conn.SetReadDeadline(time.Now().Add(eventually))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestGameSocketRejections(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := newTestHTTPServer(t, s)
	match := startOnline(t, s, game.PRISONERS_DILEMMA)
	bob := subscribe(t, s, match, "bob")

	conn := dialGame(t, ts, match.Id())
	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{Type: dtos.MessageTypeJoin, PlayerFingerprint: "alice"}))
	assert.Equal(t, dtos.EventStateSnapshot, readEvent(t, conn)["type"])

	action := dtos.ClientMessage{
		Type:    dtos.MessageTypeSubmitAction,
		Payload: &dtos.PayloadMessage{Action: "Cooperate"},
	}
	require.NoError(t, conn.WriteJSON(action))
	seen, _ := readUntil(t, conn, dtos.EventStateSnapshot)
	assert.Equal(t, []string{dtos.EventActionBroadcast, dtos.EventStateSnapshot}, seen)

	require.NoError(t, conn.WriteJSON(action))
	_, rejected := readUntil(t, conn, dtos.EventError)
	assert.Equal(t, ErrStatusStateConflict, rejected["status"])

	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{
		Type:    dtos.MessageTypeSubmitAction,
		Payload: &dtos.PayloadMessage{Action: "betray"},
	}))
	_, garbled := readUntil(t, conn, dtos.EventError)
	assert.Equal(t, ErrStatusValidation, garbled["status"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	_, malformed := readUntil(t, conn, dtos.EventError)
	assert.Equal(t, ErrStatusValidation, malformed["status"])

	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{Type: dtos.MessageTypeLeave}))
	_, aborted := readUntil(t, conn, dtos.EventMatchAborted)
	assert.Equal(t, AbortReasonDisconnected, aborted["reason"])
	assert.Equal(t, "/", aborted["redirect_hint"])

	assert.Eventually(t, bob.isClosed, eventually, 5*time.Millisecond)
	assert.Equal(t, ABORTED, match.Status())
}

func TestGameSocketRequiresJoin(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := newTestHTTPServer(t, s)
	match, err := s.registry.Create(game.PRISONERS_DILEMMA, game.BOT, "alice", testOrigin)
	require.NoError(t, err)

	conn := dialGame(t, ts, match.Id())
	require.NoError(t, conn.WriteJSON(dtos.ClientMessage{Type: dtos.MessageTypeLeave}))
	evt := readEvent(t, conn)
	assert.Equal(t, dtos.EventError, evt["type"])
	assert.Equal(t, ErrStatusValidation, evt["status"])

	stranger := dialGame(t, ts, match.Id())
	require.NoError(t, stranger.WriteJSON(dtos.ClientMessage{Type: dtos.MessageTypeJoin, PlayerFingerprint: "mallory"}))
	evt = readEvent(t, stranger)
	assert.Equal(t, ErrStatusStateConflict, evt["status"])

	assert.Equal(t, IN_PROGRESS, match.Status())
}

func TestGameSocketUnknownMatch(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := newTestHTTPServer(t, s)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
