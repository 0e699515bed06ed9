package worldtest

import (
	"encoding/json"
	"testing"

	"tradehall.gg/internal/protocol"
	world "tradehall.gg/internal/sim/world"
	"tradehall.gg/internal/sim/world/feature/trade"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Join() issues JoinRequest via StepOnce()
// - Step()/StepFor() issues ACT via StepOnce()
// - Per-player Out channels carry OBS JSON
// - Debug* helpers provide deterministic preconditions
//
// It intentionally avoids touching world internals so tests can live outside
// the world package.
type Harness struct {
	T *testing.T
	W *world.World

	DefaultPlayerID string

	sessions map[string]*session
}

type session struct {
	PlayerID string
	Out      chan []byte
	lastObs  protocol.ObsMsg
}

func NewHarness(t *testing.T, cfg world.WorldConfig, ledger trade.Ledger, playerName string) *Harness {
	t.Helper()

	h := &Harness{
		T:        t,
		W:        world.New(cfg, ledger),
		sessions: map[string]*session{},
	}
	h.DefaultPlayerID = h.Join(playerName)
	return h
}

func (h *Harness) Join(playerName string) string {
	h.T.Helper()

	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	_, _ = h.W.StepOnce([]world.JoinRequest{{
		Name: playerName,
		Out:  out,
		Resp: resp,
	}}, nil, nil)
	jr := <-resp
	if jr.Welcome.PlayerID == "" {
		h.T.Fatalf("join returned empty player id")
	}
	s := &session{PlayerID: jr.Welcome.PlayerID, Out: out}
	h.sessions[s.PlayerID] = s
	h.drainAllObs()
	return s.PlayerID
}

func (h *Harness) Leave(playerID string) {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, []string{playerID}, nil)
	h.drainAllObs()
}

func (h *Harness) LastObs() protocol.ObsMsg {
	return h.LastObsFor(h.DefaultPlayerID)
}

func (h *Harness) LastObsFor(playerID string) protocol.ObsMsg {
	h.T.Helper()
	s := h.sessions[playerID]
	if s == nil {
		h.T.Fatalf("unknown player id: %q", playerID)
	}
	return s.lastObs
}

func (h *Harness) Step(instants []protocol.InstantReq) protocol.ObsMsg {
	return h.StepFor(h.DefaultPlayerID, instants)
}

func (h *Harness) StepFor(playerID string, instants []protocol.InstantReq) protocol.ObsMsg {
	h.T.Helper()
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            h.W.CurrentTick(),
		PlayerID:        playerID,
		Instants:        instants,
	}
	_, _ = h.W.StepOnce(nil, nil, []world.ActionEnvelope{{
		PlayerID: playerID,
		Act:      act,
	}})
	h.drainAllObs()
	return h.LastObsFor(playerID)
}

func (h *Harness) StepMulti(actions []world.ActionEnvelope) {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, actions)
	h.drainAllObs()
}

func (h *Harness) StepNoop() protocol.ObsMsg {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, nil)
	h.drainAllObs()
	return h.LastObs()
}

// StepUntilTickMultiple advances the world until the current tick is a
// multiple of n. Useful for landing on sweep boundaries.
func (h *Harness) StepUntilTickMultiple(n uint64) {
	h.T.Helper()
	if n == 0 {
		return
	}
	for h.W.CurrentTick()%n != 0 {
		h.StepNoop()
	}
}

func (h *Harness) AddInventoryFor(playerID string, item string, delta int) {
	h.T.Helper()
	if ok := h.W.DebugAddInventory(playerID, item, delta); !ok {
		h.T.Fatalf("DebugAddInventory returned false")
	}
}

func (h *Harness) AddInventory(item string, delta int) {
	h.AddInventoryFor(h.DefaultPlayerID, item, delta)
}

func (h *Harness) ClearPlayerEventsFor(playerID string) {
	h.T.Helper()
	if ok := h.W.DebugClearPlayerEvents(playerID); !ok {
		h.T.Fatalf("DebugClearPlayerEvents returned false")
	}
}

func (h *Harness) drainAllObs() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOneObs(s)
	}
}

func (h *Harness) drainOneObs(s *session) {
	h.T.Helper()
	var last []byte
	for {
		select {
		case b := <-s.Out:
			last = b
			continue
		default:
		}
		break
	}
	if len(last) == 0 {
		return
	}
	var obs protocol.ObsMsg
	if err := json.Unmarshal(last, &obs); err != nil {
		h.T.Fatalf("unmarshal OBS: %v", err)
	}
	s.lastObs = obs
}

// FindEvent returns the first event of the given type in the OBS, if any.
func FindEvent(obs protocol.ObsMsg, typ string) (protocol.Event, bool) {
	for _, e := range obs.Events {
		if e["type"] == typ {
			return e, true
		}
	}
	return nil, false
}

// FindActionResult returns the ACTION_RESULT event for the given ref.
func FindActionResult(obs protocol.ObsMsg, ref string) (protocol.Event, bool) {
	for _, e := range obs.Events {
		if e["type"] == "ACTION_RESULT" && e["ref"] == ref {
			return e, true
		}
	}
	return nil, false
}

// FindTradeMsg returns the first TRADE_MSG event with the given key.
func FindTradeMsg(obs protocol.ObsMsg, key string) (protocol.Event, bool) {
	for _, e := range obs.Events {
		if e["type"] == "TRADE_MSG" && e["key"] == key {
			return e, true
		}
	}
	return nil, false
}
