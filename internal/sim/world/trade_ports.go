package world

import (
	"tradehall.gg/internal/protocol"
	"tradehall.gg/internal/sim/world/feature/trade"
)

// worldItems moves settled trade items into inventories, falling back to
// owner-tagged floor drops when the inventory has no room.
type worldItems struct{ w *World }

var _ trade.ItemMover = worldItems{}

func (m worldItems) Deliver(partyID string, st trade.ItemStack) bool {
	p := m.w.players[partyID]
	if p == nil {
		return false
	}
	if !m.w.canAccept(p, st.Item) {
		return false
	}
	p.Inventory[st.Item] += st.Count
	return true
}

func (m worldItems) Drop(ownerID string, st trade.ItemStack) {
	m.w.spawnDrop(ownerID, st.Item, st.Count)
}

// worldNotifier surfaces session messages as per-player TRADE_MSG events.
type worldNotifier struct{ w *World }

var _ trade.Notifier = worldNotifier{}

func (n worldNotifier) Notify(partyID string, key string, params map[string]any) {
	p := n.w.players[partyID]
	if p == nil {
		return
	}
	e := protocol.Event{
		"t":    n.w.tick.Load(),
		"type": "TRADE_MSG",
		"key":  key,
	}
	for k, v := range params {
		e[k] = v
	}
	p.AddEvent(e)
}

func (w *World) countdownPulse(s *trade.Session, remaining int) {
	nowTick := w.tick.Load()
	for _, id := range []string{s.Initiator, s.Counterparty} {
		p := w.players[id]
		if p == nil {
			continue
		}
		p.AddEvent(protocol.Event{
			"t":          nowTick,
			"type":       "TRADE_MSG",
			"key":        trade.MsgTradeCountdown,
			"session_id": s.ID,
			"remaining":  remaining,
		})
	}
}
