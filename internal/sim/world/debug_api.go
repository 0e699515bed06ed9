package world

// ---- Debug/Test Helpers ----
//
// These helpers exist to allow black-box tests in sibling packages (e.g.
// internal/sim/worldtest) to set up deterministic preconditions without
// reaching into world internals.
//
// They are NOT safe to call concurrently with Run(). Prefer using them only
// in tests that drive the world via StepOnce(), from a single goroutine.

func (w *World) DebugAddInventory(playerID string, item string, delta int) bool {
	if w == nil || playerID == "" || item == "" {
		return false
	}
	p := w.players[playerID]
	if p == nil {
		return false
	}
	n := p.Inventory[item] + delta
	if n <= 0 {
		delete(p.Inventory, item)
		return true
	}
	p.Inventory[item] = n
	return true
}

func (w *World) DebugInventoryCount(playerID string, item string) int {
	if w == nil {
		return 0
	}
	p := w.players[playerID]
	if p == nil {
		return 0
	}
	return p.Inventory[item]
}

func (w *World) DebugClearPlayerEvents(playerID string) bool {
	if w == nil || playerID == "" {
		return false
	}
	p := w.players[playerID]
	if p == nil {
		return false
	}
	p.Events = nil
	return true
}

// DebugSessionPhase returns the phase of the session the player is a party
// to, or "" if there is none.
func (w *World) DebugSessionPhase(playerID string) string {
	if w == nil {
		return ""
	}
	s := w.sessions.FindByParty(playerID)
	if s == nil {
		return ""
	}
	return string(s.Phase)
}

func (w *World) DebugActiveSessions() int {
	if w == nil {
		return 0
	}
	return w.sessions.Len()
}

func (w *World) DebugDropCount() int {
	if w == nil {
		return 0
	}
	return len(w.drops)
}

// DebugStateDigest returns the current world digest for the given tick label.
// This is intended for black-box determinism tests in sibling packages.
func (w *World) DebugStateDigest(nowTick uint64) string {
	if w == nil {
		return ""
	}
	return w.stateDigest(nowTick)
}
