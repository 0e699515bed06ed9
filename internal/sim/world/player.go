package world

import (
	"sort"

	"tradehall.gg/internal/protocol"
)

type Player struct {
	ID   string
	Name string

	// ResumeToken is a transport-level token used for reconnects.
	// It is intentionally NOT included in digests.
	ResumeToken string

	Inventory map[string]int

	Events []protocol.Event

	// Rate limiting windows (per action type).
	rl map[string]*rateWindow
}

type rateWindow struct {
	StartTick uint64
	Count     int
	Window    uint64
	Max       int
}

func (p *Player) initDefaults() {
	if p.Inventory == nil {
		p.Inventory = map[string]int{}
	}
	if p.rl == nil {
		p.rl = map[string]*rateWindow{}
	}
}

func (p *Player) InventoryList() []protocol.ItemStack {
	out := make([]protocol.ItemStack, 0, len(p.Inventory))
	for item, c := range p.Inventory {
		if c <= 0 {
			continue
		}
		out = append(out, protocol.ItemStack{Item: item, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

func (p *Player) AddEvent(e protocol.Event) {
	p.Events = append(p.Events, e)
}

func (p *Player) TakeEvents() []protocol.Event {
	ev := p.Events
	p.Events = nil
	return ev
}

func (p *Player) RateLimitAllow(kind string, nowTick uint64, window uint64, max int) (ok bool, cooldownTicks uint64) {
	w, ok := p.rl[kind]
	if !ok {
		w = &rateWindow{StartTick: nowTick, Window: window, Max: max}
		p.rl[kind] = w
	}
	w.Window = window
	w.Max = max
	// Treat invalid windows as "allow" rather than panicking/diverging.
	if w.Window == 0 || w.Max <= 0 {
		return true, 0
	}
	if nowTick-w.StartTick >= w.Window {
		w.StartTick = nowTick
		w.Count = 0
	}
	w.Count++
	if w.Count <= w.Max {
		return true, 0
	}
	// Remaining ticks until the window resets (next tick >= StartTick+Window).
	return false, (w.StartTick + w.Window) - nowTick
}
