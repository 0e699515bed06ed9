package trade

import "testing"

func TestCountdownSweepCompletesAfterSteps(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100, "P2": 100})
	_ = s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 1})
	_ = s.SetReady("P1", true)
	_ = s.SetReady("P2", true)

	var pulses []int
	cd := NewCommitCountdown(f.reg, func(_ *Session, remaining int) {
		pulses = append(pulses, remaining)
	})

	if got := cd.Sweep(); len(got) != 0 {
		t.Fatalf("sweep 1 completed early")
	}
	if got := cd.Sweep(); len(got) != 0 {
		t.Fatalf("sweep 2 completed early")
	}
	got := cd.Sweep()
	if len(got) != 1 || got[0] != s {
		t.Fatalf("sweep 3: %v", got)
	}
	if s.Phase != PhaseCompleted {
		t.Fatalf("phase: %s", s.Phase)
	}
	if len(pulses) != 2 || pulses[0] != 2 || pulses[1] != 1 {
		t.Fatalf("pulses: %v", pulses)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("completed session still registered")
	}
	if got := f.items.delivered["P2"]; len(got) != 1 {
		t.Fatalf("items not delivered on completion: %v", f.items.delivered)
	}
}

func TestCountdownSweepIgnoresNonCommitting(t *testing.T) {
	f, s := acceptedSession(t, nil)
	cd := NewCommitCountdown(f.reg, nil)
	if got := cd.Sweep(); len(got) != 0 {
		t.Fatalf("negotiating session ticked: %v", got)
	}
	if s.CountdownRemaining != 0 {
		t.Fatalf("remaining changed: %d", s.CountdownRemaining)
	}
}

func TestCountdownAbortBetweenSweeps(t *testing.T) {
	f, s := acceptedSession(t, nil)
	_ = s.SetReady("P1", true)
	_ = s.SetReady("P2", true)
	cd := NewCommitCountdown(f.reg, nil)
	cd.Sweep()
	// The counterparty changes their mind between sweeps.
	if err := s.SetReady("P2", false); err != nil {
		t.Fatalf("SetReady(false): %v", err)
	}
	for i := 0; i < 5; i++ {
		if got := cd.Sweep(); len(got) != 0 {
			t.Fatalf("aborted session completed: %v", got)
		}
	}
	if s.Phase != PhaseNegotiating {
		t.Fatalf("phase: %s", s.Phase)
	}
}
