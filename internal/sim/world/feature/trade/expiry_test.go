package trade

import "testing"

func TestExpirySweepCancelsIdleSessions(t *testing.T) {
	f, s := newFixture(t, map[string]int64{"P1": 100})
	sched := NewExpiryScheduler(f.reg)

	cfgSweeps := s.cfg.ExpiryCancelSweeps
	for i := 0; i < cfgSweeps-1; i++ {
		if got := sched.Sweep(); len(got) != 0 {
			t.Fatalf("sweep %d cancelled early: %v", i, got)
		}
	}
	if s.AgeSweeps != cfgSweeps-1 {
		t.Fatalf("age: got %d want %d", s.AgeSweeps, cfgSweeps-1)
	}
	got := sched.Sweep()
	if len(got) != 1 || got[0] != s {
		t.Fatalf("final sweep: %v", got)
	}
	if s.Phase != PhaseCancelled {
		t.Fatalf("phase: %s", s.Phase)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("expired session still registered")
	}
	if !f.notes.has("P1", MsgTradeCancelled) || !f.notes.has("P2", MsgTradeCancelled) {
		t.Fatalf("parties not notified: %v", f.notes.byParty)
	}
}

func TestExpirySweepRefundsEscrow(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100})
	if err := s.AdjustEscrow("P1", 60); err != nil {
		t.Fatalf("AdjustEscrow: %v", err)
	}
	sched := NewExpiryScheduler(f.reg)
	for i := 0; i < s.cfg.ExpiryCancelSweeps; i++ {
		sched.Sweep()
	}
	if s.Phase != PhaseCancelled {
		t.Fatalf("phase: %s", s.Phase)
	}
	if f.ledger.balances["P1"] != 100 {
		t.Fatalf("escrow not refunded on expiry: %d", f.ledger.balances["P1"])
	}
}

func TestExpirySkipsCommittingSessions(t *testing.T) {
	f, s := acceptedSession(t, nil)
	_ = s.SetReady("P1", true)
	_ = s.SetReady("P2", true)
	sched := NewExpiryScheduler(f.reg)
	for i := 0; i < 20; i++ {
		if got := sched.Sweep(); len(got) != 0 {
			t.Fatalf("committing session expired: %v", got)
		}
	}
	if s.AgeSweeps != 0 {
		t.Fatalf("committing session aged: %d", s.AgeSweeps)
	}
}
