package world

import (
	"sort"

	"tradehall.gg/internal/protocol"
	"tradehall.gg/internal/sim/world/feature/trade"
)

func (w *World) buildObs(p *Player, nowTick uint64) protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		PlayerID:        p.ID,
		Self:            w.buildSelfObs(p),
		Inventory:       p.InventoryList(),
		Drops:           w.buildDropObs(p),
		Events:          p.TakeEvents(),
	}
	if s := w.sessions.FindByParty(p.ID); s != nil && !s.Phase.Terminal() {
		obs.Trade = w.buildTradeObs(p, s)
	}
	return obs
}

func (w *World) buildSelfObs(p *Player) protocol.SelfObs {
	self := protocol.SelfObs{Name: p.Name}
	if br, ok := w.ledger.(balanceReader); ok && br != nil {
		self.HasEconomy = true
		self.Balance = br.Balance(p.ID)
		self.BalanceText = w.ledger.FormatAmount(self.Balance)
	}
	return self
}

func (w *World) buildTradeObs(p *Player, s *trade.Session) *protocol.TradeObs {
	other := s.Other(p.ID)
	t := &protocol.TradeObs{
		SessionID:   s.ID,
		Phase:       string(s.Phase),
		With:        other,
		YourOffer:   stacksToProtocol(s.Offer(p.ID)),
		YourEscrow:  s.Escrow(p.ID),
		YouReady:    s.Ready(p.ID),
		AgeSweeps:   s.AgeSweeps,
	}
	if other != "" {
		t.TheirOffer = stacksToProtocol(s.Offer(other))
		t.TheirEscrow = s.Escrow(other)
		t.TheyReady = s.Ready(other)
	}
	if s.Phase == trade.PhaseCommitting {
		t.CountdownRemaining = s.CountdownRemaining
	}
	return t
}

func (w *World) buildDropObs(p *Player) []protocol.DropObs {
	out := make([]protocol.DropObs, 0)
	for _, d := range w.drops {
		if d.Owner != "" && d.Owner != p.ID {
			continue
		}
		out = append(out, protocol.DropObs{
			ID:          d.ID,
			Item:        d.Item,
			Count:       d.Count,
			ExpiresTick: d.ExpiresTick,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func stacksToProtocol(in []trade.ItemStack) []protocol.ItemStack {
	out := make([]protocol.ItemStack, 0, len(in))
	for _, st := range in {
		out = append(out, protocol.ItemStack{Item: st.Item, Count: st.Count})
	}
	return out
}
