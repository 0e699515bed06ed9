package world

import (
	"errors"

	"tradehall.gg/internal/protocol"
	"tradehall.gg/internal/sim/world/feature/trade"
)

func tradeErrCode(err error) string {
	switch {
	case errors.Is(err, trade.ErrSelfTrade):
		return protocol.ErrSelfTrade
	case errors.Is(err, trade.ErrAlreadyTrading):
		return protocol.ErrAlreadyTrading
	case errors.Is(err, trade.ErrInvalidPhase):
		return protocol.ErrInvalidPhase
	case errors.Is(err, trade.ErrInsufficientFunds):
		return protocol.ErrNoFunds
	case errors.Is(err, trade.ErrNotAuthorized):
		return protocol.ErrNotAuthorized
	case errors.Is(err, trade.ErrNoEconomy):
		return protocol.ErrNoEconomy
	case errors.Is(err, trade.ErrUnknownSlot):
		return protocol.ErrBadRequest
	case errors.Is(err, trade.ErrNoSession):
		return protocol.ErrInvalidTarget
	default:
		return protocol.ErrInternal
	}
}

func handleInstantTradeRequest(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	if ok, _ := p.RateLimitAllow(InstantTypeTradeRequest, nowTick, w.cfg.RateLimits.TradeRequestWindowTicks, w.cfg.RateLimits.TradeRequestMax); !ok {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrRateLimit, "too many TRADE_REQUEST"))
		return
	}

	// No target: post an open request that anyone may answer.
	if inst.To == "" {
		s, err := w.sessions.Request(p.ID, "", nowTick, w.tradeCfg, w.ports)
		if err != nil {
			p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
			return
		}
		w.stats.RecordRequested(nowTick)
		w.auditEvent(nowTick, p.ID, "TRADE_REQUEST", s.ID, "open")
		p.AddEvent(protocol.Event{"t": nowTick, "type": "ACTION_RESULT", "ref": inst.ID, "ok": true, "session_id": s.ID})
		return
	}

	to := w.players[inst.To]
	if to == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "target not found"))
		return
	}
	if to.ID == p.ID {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrSelfTrade, "cannot trade with yourself"))
		return
	}

	// Answering someone's open request joins it directly.
	if open := w.sessions.FindByParty(to.ID); open != nil && open.Phase == trade.PhaseAwaitingCounterparty {
		if w.sessions.IsTrading(p.ID, false) {
			p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrAlreadyTrading, "already trading"))
			return
		}
		if err := w.sessions.Resolve(open, p.ID); err != nil {
			p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
			return
		}
		if err := open.Accept(p.ID); err != nil {
			p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
			return
		}
		w.auditEvent(nowTick, p.ID, "TRADE_JOIN", open.ID, "")
		p.AddEvent(protocol.Event{"t": nowTick, "type": "ACTION_RESULT", "ref": inst.ID, "ok": true, "session_id": open.ID})
		return
	}

	s, err := w.sessions.Request(p.ID, to.ID, nowTick, w.tradeCfg, w.ports)
	if err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	w.stats.RecordRequested(nowTick)
	w.auditEvent(nowTick, p.ID, "TRADE_REQUEST", s.ID, "")
	to.AddEvent(protocol.Event{
		"t":          nowTick,
		"type":       "TRADE_REQUEST",
		"session_id": s.ID,
		"from":       p.ID,
		"from_name":  p.Name,
	})
	p.AddEvent(protocol.Event{"t": nowTick, "type": "ACTION_RESULT", "ref": inst.ID, "ok": true, "session_id": s.ID})
}

func handleInstantTradeAccept(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no pending trade"))
		return
	}
	if err := s.Accept(p.ID); err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	w.auditEvent(nowTick, p.ID, "TRADE_ACCEPT", s.ID, "")
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
}

func handleInstantTradeDeny(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no pending trade"))
		return
	}
	if err := s.Deny(p.ID); err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	w.sessions.Evict(s)
	w.stats.RecordDenied(nowTick)
	w.auditEvent(nowTick, p.ID, "TRADE_DENY", s.ID, "")
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "denied"))
}

func handleInstantTradeStage(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	if inst.Item == "" || inst.Count <= 0 {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing item/count"))
		return
	}
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	if p.Inventory[inst.Item] < inst.Count {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing items"))
		return
	}
	// Items leave the inventory while staged; a failed stage puts them back.
	p.Inventory[inst.Item] -= inst.Count
	if p.Inventory[inst.Item] <= 0 {
		delete(p.Inventory, inst.Item)
	}
	if err := s.StageItem(p.ID, trade.ItemStack{Item: inst.Item, Count: inst.Count}); err != nil {
		p.Inventory[inst.Item] += inst.Count
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "staged"))
}

func handleInstantTradeUnstage(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	st, err := s.UnstageItem(p.ID, inst.Slot)
	if err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	p.Inventory[st.Item] += st.Count
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "unstaged"))
}

func handleInstantTradeEscrow(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	if inst.Amount == 0 {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing amount"))
		return
	}
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	if err := s.AdjustEscrow(p.ID, inst.Amount); err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
}

func handleInstantTradeReady(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	if err := s.SetReady(p.ID, inst.Ready); err != nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, tradeErrCode(err), err.Error()))
		return
	}
	if s.Phase == trade.PhaseCommitting {
		w.auditEvent(nowTick, p.ID, "TRADE_COMMIT", s.ID, "")
	}
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
}

func handleInstantTradeCancel(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	s.Cancel()
	w.sessions.Evict(s)
	w.stats.RecordCancelled(nowTick)
	w.auditEvent(nowTick, p.ID, "TRADE_CANCEL", s.ID, "")
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "cancelled"))
}

func handleInstantTradeRemind(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	if ok, _ := p.RateLimitAllow(InstantTypeTradeRemind, nowTick, w.cfg.RateLimits.TradeRemindWindowTicks, w.cfg.RateLimits.TradeRemindMax); !ok {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrRateLimit, "too many TRADE_REMIND"))
		return
	}
	s := w.sessions.FindByParty(p.ID)
	if s == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no active trade"))
		return
	}
	other := w.players[s.Other(p.ID)]
	if other == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "counterparty offline"))
		return
	}
	other.AddEvent(protocol.Event{
		"t":          nowTick,
		"type":       "TRADE_MSG",
		"key":        trade.MsgTradeStillTrading,
		"session_id": s.ID,
		"from":       p.ID,
	})
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "ok"))
}

func handleInstantPickup(w *World, p *Player, inst protocol.InstantReq, nowTick uint64) {
	if inst.TargetID == "" {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing target_id"))
		return
	}
	d := w.drops[inst.TargetID]
	if d == nil {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "drop not found"))
		return
	}
	// Owner-tagged drops are reserved until they expire.
	if d.Owner != "" && d.Owner != p.ID {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNotAuthorized, "not your drop"))
		return
	}
	if !w.canAccept(p, d.Item) {
		p.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "inventory full"))
		return
	}
	p.Inventory[d.Item] += d.Count
	delete(w.drops, d.ID)
	w.auditEvent(nowTick, p.ID, "PICKUP", "", d.Item)
	p.AddEvent(actionResult(nowTick, inst.ID, true, "", "picked up"))
}
