package trade

import (
	"errors"
	"testing"
)

func testPorts() Ports {
	return Ports{Items: newFakeItems(), Notify: newFakeNotifier()}
}

func TestRequestSelfTrade(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Request("P1", "P1", 0, Config{}, testPorts()); !errors.Is(err, ErrSelfTrade) {
		t.Fatalf("got %v want ErrSelfTrade", err)
	}
	if r.Len() != 0 {
		t.Fatalf("failed request must not register a session")
	}
}

func TestRequestAlreadyTrading(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Request("P1", "P2", 0, Config{}, testPorts()); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := r.Request("P1", "P3", 0, Config{}, testPorts()); !errors.Is(err, ErrAlreadyTrading) {
		t.Fatalf("initiator busy: got %v want ErrAlreadyTrading", err)
	}
	if _, err := r.Request("P3", "P2", 0, Config{}, testPorts()); !errors.Is(err, ErrAlreadyTrading) {
		t.Fatalf("counterparty busy: got %v want ErrAlreadyTrading", err)
	}
	if r.Len() != 1 {
		t.Fatalf("sessions: got %d want 1", r.Len())
	}
}

func TestSessionIDsAreSequential(t *testing.T) {
	r := NewRegistry()
	s1, _ := r.Request("P1", "P2", 0, Config{}, testPorts())
	s2, _ := r.Request("P3", "P4", 0, Config{}, testPorts())
	if s1.ID != "TR000001" || s2.ID != "TR000002" {
		t.Fatalf("ids: %s %s", s1.ID, s2.ID)
	}
}

func TestFindByPartyAndEvict(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Request("P1", "P2", 0, Config{}, testPorts())
	if got := r.FindByParty("P2"); got != s {
		t.Fatalf("FindByParty(P2): got %v", got)
	}
	if r.Evict(s) {
		t.Fatalf("non-terminal session must not evict")
	}
	s.Cancel()
	if !r.Evict(s) {
		t.Fatalf("terminal session should evict")
	}
	if r.FindByParty("P1") != nil || r.FindByParty("P2") != nil {
		t.Fatalf("party index must clear with the session")
	}
	// Both parties free for new sessions.
	if _, err := r.Request("P2", "P1", 0, Config{}, testPorts()); err != nil {
		t.Fatalf("re-request after evict: %v", err)
	}
}

func TestResolveOpenRequest(t *testing.T) {
	r := NewRegistry()
	s, err := r.Request("P1", "", 0, Config{}, testPorts())
	if err != nil {
		t.Fatalf("Request open: %v", err)
	}
	if s.Phase != PhaseAwaitingCounterparty {
		t.Fatalf("phase: got %s want %s", s.Phase, PhaseAwaitingCounterparty)
	}
	if err := r.Resolve(s, "P1"); !errors.Is(err, ErrSelfTrade) {
		t.Fatalf("self resolve: got %v want ErrSelfTrade", err)
	}
	if err := r.Resolve(s, "P2"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Phase != PhaseAwaitingAcceptance || s.Counterparty != "P2" {
		t.Fatalf("after resolve: phase=%s counterparty=%s", s.Phase, s.Counterparty)
	}
	if got := r.FindByParty("P2"); got != s {
		t.Fatalf("counterparty not indexed after resolve")
	}
	if err := r.Resolve(s, "P3"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("double resolve: got %v want ErrInvalidPhase", err)
	}
}

func TestIsTradingOnlyAccepted(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Request("P1", "P2", 0, Config{}, testPorts())
	if !r.IsTrading("P1", false) {
		t.Fatalf("pending session should count without onlyAccepted")
	}
	if r.IsTrading("P1", true) {
		t.Fatalf("pending session must not count as accepted")
	}
	if err := s.Accept("P2"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !r.IsTrading("P1", true) || !r.IsTrading("P2", true) {
		t.Fatalf("negotiating session should count as accepted")
	}
	if r.IsTrading("P3", false) {
		t.Fatalf("stranger is not trading")
	}
}

func TestSnapshotSortedAndDefensive(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Request("P5", "P6", 0, Config{}, testPorts())
	_, _ = r.Request("P1", "P2", 0, Config{}, testPorts())
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].ID >= snap[1].ID {
		t.Fatalf("snapshot order: %v", snap)
	}
	snap[0].Cancel()
	r.Evict(snap[0])
	if r.Len() != 1 {
		t.Fatalf("len after evict: %d", r.Len())
	}
}
