package world

import (
	"encoding/json"
	"time"
)

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := w.players[id]; ok {
			w.handleLeave(id, nowTick)
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.joinPlayer(req.Name, req.Out)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, RecordedJoin{PlayerID: resp.Welcome.PlayerID, Name: req.Name})
	}

	// Apply actions in server_receive_order (the inbox order).
	recorded := make([]RecordedAction, 0, len(actions))
	for _, env := range actions {
		p := w.players[env.PlayerID]
		if p == nil {
			continue
		}
		env.Act.PlayerID = env.PlayerID // trust session identity
		recorded = append(recorded, RecordedAction{PlayerID: env.PlayerID, Act: env.Act})
		w.applyAct(p, env.Act, nowTick)
	}

	// Systems: commit countdown -> expiry -> drop cleanup.
	w.systemCountdown(nowTick)
	w.systemExpiry(nowTick)
	w.systemDrops(nowTick)

	// Build + send OBS for each player.
	for id, p := range w.players {
		cl := w.clients[id]
		if cl == nil {
			continue
		}
		obs := w.buildObs(p, nowTick)
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Joins: recordedJoins, Leaves: recordedLeaves, Actions: recorded, Digest: digest})
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)

	sum := StatsBucket{}
	windowTicks := uint64(0)
	if w.stats != nil {
		sum = w.stats.Summarize(nowTick)
		windowTicks = w.stats.WindowTicks()
	}

	w.metrics.Store(WorldMetrics{
		Tick:           nextTick,
		Players:        len(w.players),
		Clients:        len(w.clients),
		ActiveSessions: w.sessions.Len(),
		Drops:          len(w.drops),
		QueueDepths: QueueDepths{
			Inbox:  len(w.inbox),
			Join:   len(w.join),
			Leave:  len(w.leave),
			Attach: len(w.attach),
		},
		StepMS:           stepMS,
		StatsWindowTicks: windowTicks,
		StatsWindow:      sum,
	})
}

// systemCountdown pulses committing sessions every CountdownEveryTicks
// ticks and settles the ones that reach zero.
func (w *World) systemCountdown(nowTick uint64) {
	every := uint64(w.cfg.CountdownEveryTicks)
	if every == 0 || nowTick == 0 || nowTick%every != 0 {
		return
	}
	for _, s := range w.countdown.Sweep() {
		w.stats.RecordCompleted(nowTick)
		w.auditEvent(nowTick, "", "TRADE_COMPLETE", s.ID, "")
	}
}

// systemExpiry ages idle sessions every ExpirySweepEveryTicks ticks and
// cancels the ones that sat through ExpiryCancelSweeps sweeps.
func (w *World) systemExpiry(nowTick uint64) {
	every := uint64(w.cfg.ExpirySweepEveryTicks)
	if every == 0 || nowTick == 0 || nowTick%every != 0 {
		return
	}
	for _, s := range w.expiry.Sweep() {
		w.stats.RecordExpired(nowTick)
		w.auditEvent(nowTick, "", "TRADE_EXPIRE", s.ID, "idle")
	}
}

func (w *World) systemDrops(nowTick uint64) {
	for id, d := range w.drops {
		if nowTick >= d.ExpiresTick {
			delete(w.drops, id)
			w.auditEvent(nowTick, d.Owner, "DROP_EXPIRE", "", d.Item)
		}
	}
}
