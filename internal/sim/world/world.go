// Package world is the authoritative trade hall simulation. All mutable
// state is owned by the loop goroutine; transports talk to it over channels.
package world

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"tradehall.gg/internal/protocol"
	"tradehall.gg/internal/sim/world/feature/trade"
)

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	PlayerID string
	Act      protocol.ActMsg
}

type RecordedJoin struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type RecordedAction struct {
	PlayerID string          `json:"player_id"`
	Act      protocol.ActMsg `json:"act"`
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type AuditEntry struct {
	Tick      uint64 `json:"tick"`
	Actor     string `json:"actor"`
	Action    string `json:"action"` // e.g. "TRADE_COMPLETE"
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// balanceReader is the optional read side of a ledger. Both the in-memory
// and the sqlite ledgers implement it.
type balanceReader interface {
	Balance(partyID string) int64
}

type accountEnsurer interface {
	EnsureAccount(partyID string, starting int64) error
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	tick    atomic.Uint64
	metrics atomic.Value

	players map[string]*Player
	clients map[string]*clientState

	ledger    trade.Ledger // may be nil: item-only trading
	sessions  *trade.Registry
	expiry    *trade.ExpiryScheduler
	countdown *trade.CommitCountdown
	tradeCfg  trade.Config
	ports     trade.Ports

	drops map[string]*DropEntity

	inbox  chan ActionEnvelope
	join   chan JoinRequest
	attach chan AttachRequest
	leave  chan string
	stop   chan struct{}

	nextPlayerNum atomic.Uint64
	nextDropNum   atomic.Uint64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	stats *WorldStats
}

type clientState struct {
	Out chan []byte
}

func New(cfg WorldConfig, ledger trade.Ledger) *World {
	cfg.applyDefaults()

	w := &World{
		cfg:     cfg,
		players: map[string]*Player{},
		clients: map[string]*clientState{},
		ledger:  ledger,
		drops:   map[string]*DropEntity{},
		inbox:   make(chan ActionEnvelope, 1024),
		join:    make(chan JoinRequest, 64),
		attach:  make(chan AttachRequest, 64),
		leave:   make(chan string, 64),
		stop:    make(chan struct{}),
		stats:   NewWorldStats(300, 72000),
	}
	w.sessions = trade.NewRegistry()
	w.tradeCfg = trade.Config{
		CommitCountdownSteps: cfg.CommitCountdownSteps,
		ExpiryCancelSweeps:   cfg.ExpiryCancelSweeps,
	}
	w.ports = trade.Ports{
		Ledger: ledger,
		Items:  worldItems{w: w},
		Notify: worldNotifier{w: w},
	}
	w.expiry = trade.NewExpiryScheduler(w.sessions)
	w.countdown = trade.NewCommitCountdown(w.sessions, w.countdownPulse)
	return w
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Attach() chan<- AttachRequest { return w.attach }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server. It is primarily intended for deterministic tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, actions)
	return tick, w.stateDigest(tick)
}

func (w *World) hallParams() protocol.HallParams {
	commitTicks := w.cfg.CountdownEveryTicks * w.cfg.CommitCountdownSteps
	expiryTicks := w.cfg.ExpirySweepEveryTicks * w.cfg.ExpiryCancelSweeps
	return protocol.HallParams{
		TickRateHz:          w.cfg.TickRateHz,
		HallID:              w.cfg.ID,
		CurrencyName:        w.cfg.CurrencyName,
		CommitCountdownSecs: commitTicks / w.cfg.TickRateHz,
		OfferExpirySecs:     expiryTicks / w.cfg.TickRateHz,
	}
}

func (w *World) joinPlayer(name string, out chan []byte) JoinResponse {
	if name == "" {
		name = "player"
	}

	idNum := w.nextPlayerNum.Add(1)
	playerID := fmt.Sprintf("P%d", idNum)

	p := &Player{
		ID:   playerID,
		Name: name,
	}
	p.initDefaults()

	if ens, ok := w.ledger.(accountEnsurer); ok && ens != nil {
		_ = ens.EnsureAccount(playerID, w.cfg.StartingBalance)
	}

	w.players[playerID] = p
	if out != nil {
		w.clients[playerID] = &clientState{Out: out}
	}

	token := fmt.Sprintf("resume_%s_%d", w.cfg.ID, time.Now().UnixNano())
	p.ResumeToken = token

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		ResumeToken:     token,
		HallParams:      w.hallParams(),
	}
	return JoinResponse{Welcome: welcome}
}

func (w *World) handleAttach(req AttachRequest) {
	token := strings.TrimSpace(req.ResumeToken)
	if token == "" || req.Out == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	// Find player deterministically by iterating sorted ids.
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var p *Player
	for _, id := range ids {
		pp := w.players[id]
		if pp != nil && pp.ResumeToken == token {
			p = pp
			break
		}
	}
	if p == nil {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}

	// Attach client (does not affect simulation determinism).
	w.clients[p.ID] = &clientState{Out: req.Out}

	// Rotate token on successful resume.
	newToken := fmt.Sprintf("resume_%s_%d", w.cfg.ID, time.Now().UnixNano())
	p.ResumeToken = newToken

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.ID,
		ResumeToken:     newToken,
		HallParams:      w.hallParams(),
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}
}

// handleLeave tears down the client and cancels any live session the player
// is a party to. Escrow and staged items go back to their owners; the player
// record itself survives for resume.
func (w *World) handleLeave(playerID string, nowTick uint64) {
	delete(w.clients, playerID)
	if s := w.sessions.FindByParty(playerID); s != nil {
		s.Cancel()
		w.sessions.Evict(s)
		w.stats.RecordCancelled(nowTick)
		w.auditEvent(nowTick, playerID, "TRADE_CANCEL", s.ID, "disconnect")
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
