package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chess-vn/econgames/internal/domains/dtos"
	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/chess-vn/econgames/internal/game"
	"github.com/chess-vn/econgames/internal/identity"
	"github.com/chess-vn/econgames/pkg/logging"
	"github.com/chess-vn/econgames/pkg/utils"
	"go.uber.org/zap"
)

type MatchStatus uint8

const (
	WAITING_FOR_OPPONENT MatchStatus = iota
	IN_PROGRESS
	COMPLETE
	ABORTED
)

func (s MatchStatus) String() string {
	switch s {
	case WAITING_FOR_OPPONENT:
		return entities.MatchStatusWaiting
	case IN_PROGRESS:
		return entities.MatchStatusInProgress
	case COMPLETE:
		return entities.MatchStatusComplete
	default:
		return entities.MatchStatusAborted
	}
}

const (
	AbortReasonDisconnected = "player_disconnected"
	AbortReasonTimeout      = "timeout"
	AbortReasonExpired      = "expired"
	AbortReasonBotFailure   = "bot_unavailable"
)

const storeTimeout = 5 * time.Second

var botOrigin = identity.Origin{Ip: "", Country: "Bot", City: "Bot"}

type participant struct {
	fingerprint string
	origin      identity.Origin
	joinedAt    time.Time
}

type JoinResult struct {
	Accepted bool
	Reason   string
	Slot     game.Slot
	Err      error
}

type SubmitResult struct {
	Accepted bool
	Reason   string
	Status   string
}

// MatchSnapshot is a consistent copy of a live match taken inside its loop.
type MatchSnapshot struct {
	Record          entities.Match
	Summary         game.Summary
	CompletedRounds int
}

type MatchConfig struct {
	GameType           game.GameType
	Mode               game.Mode
	MaxRounds          int
	MinCompletedRounds int
	Stake              int
	OfferTimeout       time.Duration
	WaitTimeout        time.Duration
	BotDelayMin        time.Duration
	BotDelayMax        time.Duration
	BotRetryDelay      time.Duration
	BotRetries         int
	RedirectHint       string
}

func matchConfigFor(cfg GameConfig, gameType game.GameType, mode game.Mode) MatchConfig {
	return MatchConfig{
		GameType:           gameType,
		Mode:               mode,
		MaxRounds:          cfg.MaxRounds,
		MinCompletedRounds: cfg.MinCompletedRounds,
		Stake:              cfg.Stake,
		OfferTimeout:       cfg.OfferTimeout,
		WaitTimeout:        cfg.WaitTimeout,
		BotDelayMin:        cfg.BotDelayMin,
		BotDelayMax:        cfg.BotDelayMax,
		BotRetryDelay:      cfg.BotRetryDelay,
		BotRetries:         cfg.BotRetries,
		RedirectHint:       cfg.RedirectHint,
	}
}

type matchHooks struct {
	repo           interfaces.IMatchRepository
	bot            game.BotPolicy
	broadcast      func(matchId string, v any)
	subscribe      func(matchId string, sub Subscriber) error
	endGameHandler func(*Match)
	abortHandler   func(*Match, string)
	now            func() time.Time
}

type eventKind uint8

const (
	JOIN eventKind = iota
	SUBMIT
	DISCONNECT
	TIMEOUT
	EXPIRE
	BOT_TURN
	SNAPSHOT
	ATTACH
	SHUTDOWN
)

type event struct {
	kind        eventKind
	fingerprint string
	origin      identity.Origin
	payload     game.Payload
	round       int
	sub         Subscriber
	reply       chan any
}

// Match is a single live session. Every state change happens on the
// goroutine running start; other goroutines talk to it through eventCh.
type Match struct {
	id        string
	config    MatchConfig
	repo      interfaces.IMatchRepository
	bot       game.BotPolicy
	ledger    *game.Ledger
	createdAt time.Time

	status MatchStatus
	slots  [2]*participant

	eventCh chan event
	done    chan struct{}

	offerTimer *utils.Timer
	botTimer   *utils.Timer
	waitTimer  *utils.Timer

	// botFailures counts consecutive failed bot submissions.
	botFailures int

	broadcast      func(matchId string, v any)
	subscribe      func(matchId string, sub Subscriber) error
	endGameHandler func(*Match)
	abortHandler   func(*Match, string)
	now            func() time.Time

	ended bool
	mu    sync.Mutex
}

func newMatch(id string, config MatchConfig, hooks matchHooks) *Match {
	now := hooks.now
	if now == nil {
		now = time.Now
	}
	bot := hooks.bot
	if bot == nil {
		bot = game.NewBot(nil)
	}
	m := &Match{
		id:             id,
		config:         config,
		repo:           hooks.repo,
		bot:            bot,
		ledger:         game.NewLedger(config.GameType, config.MaxRounds, config.Stake),
		createdAt:      now().UTC(),
		eventCh:        make(chan event),
		done:           make(chan struct{}),
		broadcast:      hooks.broadcast,
		subscribe:      hooks.subscribe,
		endGameHandler: hooks.endGameHandler,
		abortHandler:   hooks.abortHandler,
		now:            now,
	}
	if m.broadcast == nil {
		m.broadcast = func(string, any) {}
	}
	go m.start()
	return m
}

func (m *Match) Id() string              { return m.id }
func (m *Match) GameType() game.GameType { return m.config.GameType }
func (m *Match) Mode() game.Mode         { return m.config.Mode }
func (m *Match) Done() <-chan struct{}   { return m.done }
func (m *Match) CreatedAt() time.Time    { return m.createdAt }

func (m *Match) Status() MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Creator returns the fingerprint occupying slot A.
func (m *Match) Creator() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[game.SLOT_A] == nil {
		return ""
	}
	return m.slots[game.SLOT_A].fingerprint
}

// Join admits fingerprint into the match.
func (m *Match) Join(fingerprint string, origin identity.Origin) JoinResult {
	v, ok := m.request(event{kind: JOIN, fingerprint: fingerprint, origin: origin})
	if !ok {
		return rejectJoin(ErrMatchClosed)
	}
	return v.(JoinResult)
}

// Submit records one round field for fingerprint.
func (m *Match) Submit(fingerprint string, payload game.Payload) SubmitResult {
	v, ok := m.request(event{kind: SUBMIT, fingerprint: fingerprint, payload: payload})
	if !ok {
		if m.Status() == ABORTED {
			return rejectSubmit(ErrAborted)
		}
		return rejectSubmit(ErrMatchClosed)
	}
	return v.(SubmitResult)
}

// Disconnect reports that fingerprint's connection went away.
func (m *Match) Disconnect(fingerprint string) {
	m.request(event{kind: DISCONNECT, fingerprint: fingerprint})
}

// Timeout aborts the match if fingerprint still owes an offer in the
// current round.
func (m *Match) Timeout(fingerprint string) {
	m.request(event{kind: TIMEOUT, fingerprint: fingerprint})
}

func (m *Match) Snapshot() (MatchSnapshot, bool) {
	v, ok := m.request(event{kind: SNAPSHOT})
	if !ok {
		return MatchSnapshot{}, false
	}
	return v.(MatchSnapshot), true
}

// Attach subscribes sub to the match's events and sends it the current
// state first, so no later event can reach sub ahead of that snapshot.
func (m *Match) Attach(sub Subscriber) error {
	v, ok := m.request(event{kind: ATTACH, sub: sub})
	if !ok {
		return ErrMatchClosed
	}
	if err, _ := v.(error); err != nil {
		return err
	}
	return nil
}

// shutdown stops the loop without running any end handler.
func (m *Match) shutdown() {
	m.request(event{kind: SHUTDOWN})
}

func (m *Match) request(e event) (any, bool) {
	e.reply = make(chan any, 1)
	select {
	case m.eventCh <- e:
	case <-m.done:
		return nil, false
	}
	// The loop answers every event it takes, even the one that ends it.
	return <-e.reply, true
}

// post delivers an event from a timer. It is dropped once the match ended.
func (m *Match) post(e event) {
	select {
	case m.eventCh <- e:
	case <-m.done:
	}
}

func (m *Match) start() {
	for {
		select {
		case <-m.done:
			return
		case e := <-m.eventCh:
			m.handle(e)
		}
	}
}

func (m *Match) handle(e event) {
	var reply any
	switch e.kind {
	case JOIN:
		reply = m.handleJoin(e.fingerprint, e.origin)
	case SUBMIT:
		reply = m.handleSubmit(e.fingerprint, e.payload)
	case DISCONNECT:
		m.handleDisconnect(e.fingerprint)
	case TIMEOUT:
		m.handleTimeout(e.fingerprint, e.round)
	case EXPIRE:
		m.handleExpire()
	case BOT_TURN:
		m.handleBotTurn(e.round)
	case SNAPSHOT:
		reply = m.snapshot()
	case ATTACH:
		if err := m.handleAttach(e.sub); err != nil {
			reply = err
		}
	case SHUTDOWN:
		m.end(nil)
	}
	if e.reply != nil {
		e.reply <- reply
	}
}

func (m *Match) handleJoin(fingerprint string, origin identity.Origin) JoinResult {
	if m.status == COMPLETE || m.status == ABORTED {
		return rejectJoin(ErrMatchClosed)
	}

	slotA, slotB := m.slots[game.SLOT_A], m.slots[game.SLOT_B]
	switch {
	case slotA == nil:
		if fingerprint == game.BotFingerprint {
			return rejectJoin(ErrReservedIdentity)
		}
		m.setSlot(game.SLOT_A, m.newParticipant(fingerprint, origin))
		m.setStatus(WAITING_FOR_OPPONENT)
		if err := m.persistMatch(); err != nil {
			m.setSlot(game.SLOT_A, nil)
			return rejectJoin(err)
		}
		if m.config.Mode == game.ONLINE && m.config.WaitTimeout > 0 {
			m.waitTimer = utils.NewTimer(m.config.WaitTimeout, func() {
				m.post(event{kind: EXPIRE})
			})
		}
		logging.Info("match created",
			zap.String("match_id", m.id),
			zap.String("game_type", m.config.GameType.String()),
			zap.String("game_mode", m.config.Mode.String()),
			zap.String("player_fingerprint", fingerprint),
		)
		return acceptJoin(game.SLOT_A)

	case slotA.fingerprint == fingerprint:
		return acceptJoin(game.SLOT_A)

	case m.config.Mode == game.ONLINE && slotB != nil && slotB.fingerprint == fingerprint:
		return acceptJoin(game.SLOT_B)

	case m.config.Mode == game.ONLINE && slotB == nil:
		if fingerprint == game.BotFingerprint {
			return rejectJoin(ErrReservedIdentity)
		}
		m.setSlot(game.SLOT_B, m.newParticipant(fingerprint, origin))
		if err := m.begin(); err != nil {
			m.setSlot(game.SLOT_B, nil)
			m.setStatus(WAITING_FOR_OPPONENT)
			return rejectJoin(err)
		}
		return acceptJoin(game.SLOT_B)

	case m.config.Mode == game.BOT && slotB == nil && fingerprint == game.BotFingerprint:
		m.setSlot(game.SLOT_B, m.newParticipant(game.BotFingerprint, botOrigin))
		if err := m.begin(); err != nil {
			m.setSlot(game.SLOT_B, nil)
			m.setStatus(WAITING_FOR_OPPONENT)
			return rejectJoin(err)
		}
		return acceptJoin(game.SLOT_B)
	}
	return rejectJoin(ErrMatchFull)
}

// begin moves a full match into play and opens round 1.
func (m *Match) begin() error {
	m.setStatus(IN_PROGRESS)
	if err := m.persistMatch(); err != nil {
		return err
	}
	m.waitTimer.Stop()
	m.openRound(1)
	logging.Info("match started",
		zap.String("match_id", m.id),
		zap.String("player_1", m.slots[game.SLOT_A].fingerprint),
		zap.String("player_2", m.slots[game.SLOT_B].fingerprint),
	)
	m.broadcastSnapshot()
	return nil
}

func (m *Match) handleSubmit(fingerprint string, payload game.Payload) SubmitResult {
	slot, ok := m.slotOf(fingerprint)
	if !ok {
		return rejectSubmit(ErrPlayerNotInMatch)
	}
	if m.status != IN_PROGRESS {
		return rejectSubmit(ErrMatchNotInProgress)
	}
	n := m.ledger.CurrentRound()
	if err := m.apply(slot, payload); err != nil {
		logging.Info("submission rejected",
			zap.String("match_id", m.id),
			zap.String("player_fingerprint", fingerprint),
			zap.Int("round", n),
			zap.Error(err),
		)
		return rejectSubmit(err)
	}
	// The bot answers within the round the human just played.
	if m.config.Mode == game.BOT && slot == game.SLOT_A &&
		m.status == IN_PROGRESS && m.ledger.CurrentRound() == n {
		m.scheduleBotTurn(n)
	}
	return SubmitResult{Accepted: true}
}

// apply persists the updated round first and only then commits it to the
// ledger, so a storage failure leaves the match unchanged.
func (m *Match) apply(slot game.Slot, payload game.Payload) error {
	gameType := m.config.GameType
	n := m.ledger.CurrentRound()
	if n > m.config.MaxRounds {
		return fmt.Errorf("%w: all %d rounds played", game.ErrRoundOutOfRange, m.config.MaxRounds)
	}
	if n > m.ledger.Len() && !m.openRound(n) {
		return fmt.Errorf("%w: round %d", ErrPersistence, n)
	}

	round, _ := m.ledger.Round(n)
	if err := round.Set(gameType, m.config.Stake, slot, payload); err != nil {
		return err
	}
	now := m.now().UTC()
	complete := round.Complete(gameType)
	if complete {
		if _, err := round.Settle(gameType, now); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.repo.PutRound(ctx, entities.RoundFromGame(m.id, round)); err != nil {
		logging.Error("failed to persist round",
			zap.String("match_id", m.id),
			zap.Int("round", n),
			zap.Error(err),
		)
		return fmt.Errorf("%w: round %d", ErrPersistence, n)
	}

	if err := m.ledger.RecordField(n, slot, payload); err != nil {
		return err
	}
	m.broadcastAction(n, slot, payload)

	if gameType == game.ULTIMATUM && round.Offers[game.SLOT_A] != nil && round.Offers[game.SLOT_B] != nil {
		m.offerTimer.Stop()
	}
	if !complete {
		m.broadcastSnapshot()
		return nil
	}

	if _, err := m.ledger.Settle(n, now); err != nil {
		return err
	}
	settled, _ := m.ledger.Round(n)
	cumulative := m.ledger.CumulativeScores()
	m.broadcast(m.id, dtos.RoundSettledEvent{
		Type:    dtos.EventRoundSettled,
		MatchId: m.id,
		Round:   dtos.RoundResponseFromGame(settled, &cumulative),
	})
	logging.Info("round settled",
		zap.String("match_id", m.id),
		zap.Int("round", n),
		zap.Ints("scores", settled.Scores[:]),
	)

	if n >= m.config.MaxRounds {
		m.complete()
		return nil
	}
	m.openRound(n + 1)
	m.broadcastSnapshot()
	return nil
}

// openRound stores and appends round n's empty shell and arms the offer
// window. A failure is logged; the next submission retries.
func (m *Match) openRound(n int) bool {
	if n > m.ledger.Len() {
		shell := game.NewRound(n, m.now().UTC())
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		err := m.repo.CreateRound(ctx, entities.RoundFromGame(m.id, shell))
		if err != nil && !errors.Is(err, interfaces.ErrRoundExists) {
			logging.Error("failed to create round",
				zap.String("match_id", m.id),
				zap.Int("round", n),
				zap.Error(err),
			)
			return false
		}
		if _, _, err := m.ledger.AppendOrGetRound(n, shell.StartedAt); err != nil {
			logging.Error("failed to open round",
				zap.String("match_id", m.id),
				zap.Int("round", n),
				zap.Error(err),
			)
			return false
		}
	}
	if m.config.GameType == game.ULTIMATUM && m.config.OfferTimeout > 0 {
		m.offerTimer.Stop()
		m.offerTimer = utils.NewTimer(m.config.OfferTimeout, func() {
			m.post(event{kind: TIMEOUT, round: n})
		})
	}
	return true
}

func (m *Match) scheduleBotTurn(n int) {
	delay := m.bot.ThinkingDelay(m.config.BotDelayMin, m.config.BotDelayMax)
	m.botTimer.Stop()
	m.botTimer = utils.NewTimer(delay, func() {
		m.post(event{kind: BOT_TURN, round: n})
	})
}

// handleBotTurn submits every field the bot owes in round n.
func (m *Match) handleBotTurn(n int) {
	for m.status == IN_PROGRESS && m.ledger.CurrentRound() == n {
		round, ok := m.ledger.Round(n)
		if !ok {
			return
		}
		kind, owes := round.Owes(m.config.GameType, game.SLOT_B)
		if !owes {
			return
		}
		var payload game.Payload
		switch kind {
		case game.FIELD_ACTION:
			payload = game.ActionPayload{
				Action: m.bot.NextAction(m.ledger.Actions(game.SLOT_A), m.ledger.Actions(game.SLOT_B)),
			}
		case game.FIELD_OFFER:
			payload = game.OfferPayload{Offer: m.bot.Propose(m.config.Stake)}
		case game.FIELD_RESPONSE:
			payload = game.ResponsePayload{
				Response: m.bot.Respond(*round.Offers[game.SLOT_A], m.config.Stake),
			}
		}
		if err := m.apply(game.SLOT_B, payload); err != nil {
			m.retryBotTurn(n, err)
			return
		}
		m.botFailures = 0
	}
}

// retryBotTurn re-arms the bot's turn with exponential backoff and aborts
// the match once the retries are used up.
func (m *Match) retryBotTurn(n int, err error) {
	m.botFailures++
	if m.botFailures > m.config.BotRetries {
		logging.Error("bot submission failed, giving up",
			zap.String("match_id", m.id),
			zap.Int("round", n),
			zap.Int("attempts", m.botFailures),
			zap.Error(err),
		)
		m.abort(AbortReasonBotFailure)
		return
	}
	delay := m.config.BotRetryDelay << (m.botFailures - 1)
	logging.Warn("bot submission failed",
		zap.String("match_id", m.id),
		zap.Int("round", n),
		zap.Int("attempt", m.botFailures),
		zap.Duration("retry_in", delay),
		zap.Error(err),
	)
	m.botTimer.Stop()
	m.botTimer = utils.NewTimer(delay, func() {
		m.post(event{kind: BOT_TURN, round: n})
	})
}

func (m *Match) handleAttach(sub Subscriber) error {
	if m.subscribe != nil {
		if err := m.subscribe(m.id, sub); err != nil {
			return err
		}
	}
	return sub.WriteJSON(m.snapshotEvent())
}

func (m *Match) handleDisconnect(fingerprint string) {
	if fingerprint == game.BotFingerprint {
		return
	}
	if _, ok := m.slotOf(fingerprint); !ok {
		return
	}
	if m.status == COMPLETE || m.status == ABORTED {
		return
	}
	logging.Info("player disconnected",
		zap.String("match_id", m.id),
		zap.String("player_fingerprint", fingerprint),
	)
	m.abort(AbortReasonDisconnected)
}

// handleTimeout aborts when a human slot still owes its offer in round n.
// An empty fingerprint checks every human slot; n of 0 means the current round.
func (m *Match) handleTimeout(fingerprint string, n int) {
	if m.status != IN_PROGRESS || m.config.GameType != game.ULTIMATUM {
		return
	}
	current := m.ledger.CurrentRound()
	if n == 0 {
		n = current
	}
	if n != current {
		return
	}
	round, ok := m.ledger.Round(n)
	if !ok {
		return
	}
	for _, slot := range []game.Slot{game.SLOT_A, game.SLOT_B} {
		p := m.slots[slot]
		if p == nil || p.fingerprint == game.BotFingerprint {
			continue
		}
		if fingerprint != "" && p.fingerprint != fingerprint {
			continue
		}
		if round.Offers[slot] == nil {
			logging.Info("offer window elapsed",
				zap.String("match_id", m.id),
				zap.String("player_fingerprint", p.fingerprint),
				zap.Int("round", n),
			)
			m.abort(AbortReasonTimeout)
			return
		}
	}
}

func (m *Match) handleExpire() {
	if m.status != WAITING_FOR_OPPONENT {
		return
	}
	m.abort(AbortReasonExpired)
}

func (m *Match) complete() {
	m.setStatus(COMPLETE)
	m.stopTimers()
	if err := m.persistMatch(); err != nil {
		logging.Error("failed to persist completed match", zap.String("match_id", m.id), zap.Error(err))
	}
	summary := m.ledger.Summary()
	record := m.record()
	m.broadcastSnapshot()
	m.broadcast(m.id, dtos.MatchOverEvent{
		Type:    dtos.EventMatchOver,
		MatchId: m.id,
		Scores:  dtos.ScoresResponseFromGame(summary.Scores),
		Summary: dtos.MatchHistoryResponseFromSummary(record, summary),
	})
	logging.Info("match complete",
		zap.String("match_id", m.id),
		zap.Ints("scores", summary.Scores[:]),
	)
	m.end(func() {
		if m.endGameHandler != nil {
			m.endGameHandler(m)
		}
	})
}

// abort ends the match. Matches short of the minimum completed rounds are
// deleted together with their rounds; longer ones are kept as aborted.
func (m *Match) abort(reason string) {
	completed := len(m.ledger.CompletedRounds())
	m.setStatus(ABORTED)
	m.stopTimers()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if completed < m.config.MinCompletedRounds {
		if err := m.repo.DeleteMatch(ctx, m.id); err != nil {
			logging.Error("failed to delete aborted match", zap.String("match_id", m.id), zap.Error(err))
		}
		m.ledger.DeleteAll()
	} else if err := m.persistMatch(); err != nil {
		logging.Error("failed to persist aborted match", zap.String("match_id", m.id), zap.Error(err))
	}

	m.broadcast(m.id, dtos.MatchAbortedEvent{
		Type:         dtos.EventMatchAborted,
		MatchId:      m.id,
		Reason:       reason,
		RedirectHint: m.config.RedirectHint,
	})
	logging.Info("match aborted",
		zap.String("match_id", m.id),
		zap.String("reason", reason),
		zap.Int("completed_rounds", completed),
	)
	m.end(func() {
		if m.abortHandler != nil {
			m.abortHandler(m, reason)
		}
	})
}

func (m *Match) end(handler func()) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return
	}
	m.ended = true
	close(m.done)
	m.mu.Unlock()

	m.stopTimers()
	if handler != nil {
		handler()
	}
}

func (m *Match) stopTimers() {
	m.offerTimer.Stop()
	m.botTimer.Stop()
	m.waitTimer.Stop()
}

func (m *Match) slotOf(fingerprint string) (game.Slot, bool) {
	for _, slot := range []game.Slot{game.SLOT_A, game.SLOT_B} {
		if p := m.slots[slot]; p != nil && p.fingerprint == fingerprint {
			return slot, true
		}
	}
	return 0, false
}

func (m *Match) newParticipant(fingerprint string, origin identity.Origin) *participant {
	return &participant{fingerprint: fingerprint, origin: origin, joinedAt: m.now().UTC()}
}

func (m *Match) setSlot(slot game.Slot, p *participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = p
}

func (m *Match) setStatus(status MatchStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

func (m *Match) persistMatch() error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.repo.PutMatch(ctx, m.record()); err != nil {
		logging.Error("failed to persist match", zap.String("match_id", m.id), zap.Error(err))
		return fmt.Errorf("%w: match %s", ErrPersistence, m.id)
	}
	return nil
}

func (m *Match) record() entities.Match {
	return entities.Match{
		Id:        m.id,
		GameType:  m.config.GameType.String(),
		GameMode:  m.config.Mode.String(),
		Status:    m.status.String(),
		Player1:   playerEntity(m.slots[game.SLOT_A]),
		Player2:   playerEntity(m.slots[game.SLOT_B]),
		MaxRounds: m.config.MaxRounds,
		Stake:     m.config.Stake,
		CreatedAt: m.createdAt,
		UpdatedAt: m.now().UTC(),
	}
}

func (m *Match) snapshot() MatchSnapshot {
	summary := m.ledger.Summary()
	return MatchSnapshot{
		Record:          m.record(),
		Summary:         summary,
		CompletedRounds: summary.CompletedRounds,
	}
}

func (m *Match) snapshotEvent() dtos.StateSnapshotEvent {
	return dtos.StateSnapshotEvent{
		Type:  dtos.EventStateSnapshot,
		Match: dtos.MatchStateResponseFromSummary(m.record(), m.ledger.Summary()),
	}
}

func (m *Match) broadcastSnapshot() {
	m.broadcast(m.id, m.snapshotEvent())
}

func (m *Match) broadcastAction(n int, slot game.Slot, payload game.Payload) {
	evt := dtos.ActionBroadcastEvent{
		Type:              dtos.EventActionBroadcast,
		MatchId:           m.id,
		Round:             n,
		Player:            slot.String(),
		PlayerFingerprint: m.slots[slot].fingerprint,
		Kind:              payload.Kind().String(),
	}
	switch p := payload.(type) {
	case game.ActionPayload:
		evt.Action = string(p.Action)
	case game.OfferPayload:
		keep, give := p.Offer.Keep, p.Offer.Give
		evt.CoinsToKeep, evt.CoinsToOffer = &keep, &give
	case game.ResponsePayload:
		evt.Response = string(p.Response)
	}
	m.broadcast(m.id, evt)
}

func playerEntity(p *participant) *entities.Player {
	if p == nil {
		return nil
	}
	return &entities.Player{
		Fingerprint: p.fingerprint,
		Origin: entities.Origin{
			Ip:      p.origin.Ip,
			Country: p.origin.Country,
			City:    p.origin.City,
		},
		JoinedAt: p.joinedAt,
	}
}

func acceptJoin(slot game.Slot) JoinResult {
	return JoinResult{Accepted: true, Slot: slot}
}

func rejectJoin(err error) JoinResult {
	return JoinResult{Reason: err.Error(), Err: err}
}

func rejectSubmit(err error) SubmitResult {
	return SubmitResult{Reason: err.Error(), Status: errorStatus(err)}
}
