package trade

import (
	"errors"
	"fmt"
	"testing"
)

type fakeLedger struct {
	balances map[string]int64
	failNext bool
}

func newFakeLedger(init map[string]int64) *fakeLedger {
	b := map[string]int64{}
	for k, v := range init {
		b[k] = v
	}
	return &fakeLedger{balances: b}
}

func (l *fakeLedger) HasFunds(partyID string, amount int64) bool {
	return l.balances[partyID] >= amount
}

func (l *fakeLedger) Withdraw(partyID string, amount int64) error {
	if l.failNext {
		l.failNext = false
		return errors.New("ledger down")
	}
	if l.balances[partyID] < amount {
		return ErrInsufficientFunds
	}
	l.balances[partyID] -= amount
	return nil
}

func (l *fakeLedger) Deposit(partyID string, amount int64) error {
	if l.failNext {
		l.failNext = false
		return errors.New("ledger down")
	}
	l.balances[partyID] += amount
	return nil
}

func (l *fakeLedger) FormatAmount(amount int64) string {
	return fmt.Sprintf("%d coins", amount)
}

type fakeItems struct {
	delivered map[string][]ItemStack
	dropped   map[string][]ItemStack
	full      map[string]bool
}

func newFakeItems() *fakeItems {
	return &fakeItems{
		delivered: map[string][]ItemStack{},
		dropped:   map[string][]ItemStack{},
		full:      map[string]bool{},
	}
}

func (f *fakeItems) Deliver(partyID string, stack ItemStack) bool {
	if f.full[partyID] {
		return false
	}
	f.delivered[partyID] = append(f.delivered[partyID], stack)
	return true
}

func (f *fakeItems) Drop(ownerID string, stack ItemStack) {
	f.dropped[ownerID] = append(f.dropped[ownerID], stack)
}

type fakeNotifier struct {
	byParty map[string][]string // party -> keys in order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{byParty: map[string][]string{}}
}

func (f *fakeNotifier) Notify(partyID string, key string, params map[string]any) {
	f.byParty[partyID] = append(f.byParty[partyID], key)
}

func (f *fakeNotifier) has(partyID, key string) bool {
	for _, k := range f.byParty[partyID] {
		if k == key {
			return true
		}
	}
	return false
}

type fixture struct {
	reg    *Registry
	ledger *fakeLedger
	items  *fakeItems
	notes  *fakeNotifier
}

func newFixture(t *testing.T, balances map[string]int64) (*fixture, *Session) {
	t.Helper()
	f := &fixture{
		reg:    NewRegistry(),
		ledger: newFakeLedger(balances),
		items:  newFakeItems(),
		notes:  newFakeNotifier(),
	}
	ports := Ports{Ledger: f.ledger, Items: f.items, Notify: f.notes}
	s, err := f.reg.Request("P1", "P2", 10, Config{CommitCountdownSteps: 3, ExpiryCancelSweeps: 5}, ports)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	return f, s
}

func acceptedSession(t *testing.T, balances map[string]int64) (*fixture, *Session) {
	t.Helper()
	f, s := newFixture(t, balances)
	if err := s.Accept("P2"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	return f, s
}

func TestAcceptOnlyCounterparty(t *testing.T) {
	_, s := newFixture(t, nil)
	if err := s.Accept("P1"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("initiator accept: got %v want ErrNotAuthorized", err)
	}
	if err := s.Accept("P3"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger accept: got %v want ErrNotAuthorized", err)
	}
	if err := s.Accept("P2"); err != nil {
		t.Fatalf("counterparty accept: %v", err)
	}
	if s.Phase != PhaseNegotiating {
		t.Fatalf("phase: got %s want %s", s.Phase, PhaseNegotiating)
	}
	if err := s.Accept("P2"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("double accept: got %v want ErrInvalidPhase", err)
	}
}

func TestDenyCancelsWithoutRefunds(t *testing.T) {
	f, s := newFixture(t, map[string]int64{"P1": 100})
	if err := s.Deny("P2"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if s.Phase != PhaseCancelled {
		t.Fatalf("phase: got %s want %s", s.Phase, PhaseCancelled)
	}
	if !f.notes.has("P1", MsgTradeDenied) {
		t.Fatalf("initiator not told about the denial: %v", f.notes.byParty)
	}
	if f.ledger.balances["P1"] != 100 {
		t.Fatalf("balance changed on deny: %d", f.ledger.balances["P1"])
	}
	// Idempotent: a second cancel on the terminal session is a no-op.
	s.Cancel()
	if f.ledger.balances["P1"] != 100 {
		t.Fatalf("terminal cancel touched balance: %d", f.ledger.balances["P1"])
	}
}

func TestStageRequiresNegotiation(t *testing.T) {
	_, s := newFixture(t, nil)
	if err := s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 1}); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("stage before accept: got %v want ErrInvalidPhase", err)
	}
}

func TestStageResetsOwnReadiness(t *testing.T) {
	_, s := acceptedSession(t, nil)
	if err := s.SetReady("P2", true); err != nil {
		t.Fatalf("SetReady: %v", err)
	}
	if err := s.StageItem("P2", ItemStack{Item: "EMERALD", Count: 2}); err != nil {
		t.Fatalf("StageItem: %v", err)
	}
	if s.Ready("P2") {
		t.Fatalf("staging should reset the acting party's readiness")
	}
	if got := s.Offer("P2"); len(got) != 1 || got[0].Item != "EMERALD" || got[0].Count != 2 {
		t.Fatalf("offer: %+v", got)
	}
}

func TestUnstageReturnsStack(t *testing.T) {
	_, s := acceptedSession(t, nil)
	_ = s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 2})
	_ = s.StageItem("P1", ItemStack{Item: "GOLD_INGOT", Count: 5})
	if _, err := s.UnstageItem("P1", 7); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("bad slot: got %v want ErrUnknownSlot", err)
	}
	if _, err := s.UnstageItem("P2", 0); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("empty counterparty offer: got %v want ErrUnknownSlot", err)
	}
	stack, err := s.UnstageItem("P1", 0)
	if err != nil {
		t.Fatalf("UnstageItem: %v", err)
	}
	if stack.Item != "EMERALD" || stack.Count != 2 {
		t.Fatalf("unstaged: %+v", stack)
	}
	if got := s.Offer("P1"); len(got) != 1 || got[0].Item != "GOLD_INGOT" {
		t.Fatalf("remaining offer: %+v", got)
	}
}

func TestAdjustEscrow(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100, "P2": 50})
	if err := s.AdjustEscrow("P1", 60); err != nil {
		t.Fatalf("AdjustEscrow: %v", err)
	}
	if f.ledger.balances["P1"] != 40 || s.Escrow("P1") != 60 {
		t.Fatalf("after withdraw: balance=%d escrow=%d", f.ledger.balances["P1"], s.Escrow("P1"))
	}
	// Negative delta clamps at the current escrow.
	if err := s.AdjustEscrow("P1", -100); err != nil {
		t.Fatalf("AdjustEscrow back: %v", err)
	}
	if f.ledger.balances["P1"] != 100 || s.Escrow("P1") != 0 {
		t.Fatalf("after refund: balance=%d escrow=%d", f.ledger.balances["P1"], s.Escrow("P1"))
	}
}

func TestAdjustEscrowInsufficientFundsLeavesStateAlone(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P2": 10})
	if err := s.SetReady("P2", true); err != nil {
		t.Fatalf("SetReady: %v", err)
	}
	if err := s.AdjustEscrow("P2", 1000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v want ErrInsufficientFunds", err)
	}
	if !s.Ready("P2") {
		t.Fatalf("failed escrow adjustment must not reset readiness")
	}
	if f.ledger.balances["P2"] != 10 || s.Escrow("P2") != 0 {
		t.Fatalf("state mutated: balance=%d escrow=%d", f.ledger.balances["P2"], s.Escrow("P2"))
	}
}

func TestAdjustEscrowNoLedger(t *testing.T) {
	f := &fixture{reg: NewRegistry(), items: newFakeItems(), notes: newFakeNotifier()}
	ports := Ports{Items: f.items, Notify: f.notes}
	s, err := f.reg.Request("P1", "P2", 0, Config{}, ports)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := s.Accept("P2"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := s.AdjustEscrow("P1", 10); !errors.Is(err, ErrNoEconomy) {
		t.Fatalf("got %v want ErrNoEconomy", err)
	}
	// Item-only trading still works without a ledger.
	if err := s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 1}); err != nil {
		t.Fatalf("StageItem: %v", err)
	}
}

func TestBothReadyStartsCountdownAndCompletes(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100, "P2": 100})
	_ = s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 3})
	if err := s.AdjustEscrow("P2", 40); err != nil {
		t.Fatalf("AdjustEscrow: %v", err)
	}
	_ = s.SetReady("P1", true)
	if s.Phase != PhaseNegotiating {
		t.Fatalf("one ready flag must not start the countdown")
	}
	_ = s.SetReady("P2", true)
	if s.Phase != PhaseCommitting || s.CountdownRemaining != 3 {
		t.Fatalf("phase=%s remaining=%d", s.Phase, s.CountdownRemaining)
	}

	if s.Tick() || s.Tick() {
		t.Fatalf("completed before countdown reached zero")
	}
	if !s.Tick() {
		t.Fatalf("expected completion on the third sweep")
	}
	if s.Phase != PhaseCompleted {
		t.Fatalf("phase: got %s want %s", s.Phase, PhaseCompleted)
	}
	// Cross transfer: P1's items to P2, P2's escrow to P1.
	if got := f.items.delivered["P2"]; len(got) != 1 || got[0].Item != "EMERALD" || got[0].Count != 3 {
		t.Fatalf("delivered to P2: %+v", got)
	}
	if f.ledger.balances["P1"] != 140 {
		t.Fatalf("P1 balance: got %d want 140", f.ledger.balances["P1"])
	}
	if f.ledger.balances["P2"] != 60 {
		t.Fatalf("P2 balance: got %d want 60", f.ledger.balances["P2"])
	}
	if !f.notes.has("P1", MsgTradeReceivedMoney) || !f.notes.has("P1", MsgTradeComplete) || !f.notes.has("P2", MsgTradeComplete) {
		t.Fatalf("missing completion notifications: %v", f.notes.byParty)
	}
}

func TestReadyFalseAbortsCountdown(t *testing.T) {
	_, s := acceptedSession(t, nil)
	_ = s.SetReady("P1", true)
	_ = s.SetReady("P2", true)
	if s.Phase != PhaseCommitting {
		t.Fatalf("phase: %s", s.Phase)
	}
	if err := s.SetReady("P1", false); err != nil {
		t.Fatalf("SetReady(false): %v", err)
	}
	if s.Phase != PhaseNegotiating || s.CountdownRemaining != 0 {
		t.Fatalf("phase=%s remaining=%d", s.Phase, s.CountdownRemaining)
	}
	if s.Ready("P1") {
		t.Fatalf("caller's flag must clear")
	}
	if !s.Ready("P2") {
		t.Fatalf("only the caller's flag clears on explicit unready")
	}
}

func TestOfferChangeWhileCommittingClearsBothFlags(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100})
	_ = s.SetReady("P1", true)
	_ = s.SetReady("P2", true)
	if err := s.AdjustEscrow("P1", 25); err != nil {
		t.Fatalf("AdjustEscrow: %v", err)
	}
	if s.Phase != PhaseNegotiating {
		t.Fatalf("escrow change must abort the commit, phase=%s", s.Phase)
	}
	if s.Ready("P1") || s.Ready("P2") {
		t.Fatalf("both flags must clear when a commit aborts on an offer change")
	}
	if !f.notes.has("P2", MsgTradeOfferChanged) {
		t.Fatalf("counterparty not told about the aborted commit: %v", f.notes.byParty)
	}
	// Escrow change itself still applied.
	if s.Escrow("P1") != 25 || f.ledger.balances["P1"] != 75 {
		t.Fatalf("escrow=%d balance=%d", s.Escrow("P1"), f.ledger.balances["P1"])
	}
}

func TestCancelRefundsAndReturnsItems(t *testing.T) {
	f, s := acceptedSession(t, map[string]int64{"P1": 100, "P2": 100})
	_ = s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 2})
	_ = s.StageItem("P2", ItemStack{Item: "GOLD_INGOT", Count: 4})
	_ = s.AdjustEscrow("P1", 30)

	s.Cancel()
	if s.Phase != PhaseCancelled {
		t.Fatalf("phase: %s", s.Phase)
	}
	if f.ledger.balances["P1"] != 100 {
		t.Fatalf("escrow not refunded: %d", f.ledger.balances["P1"])
	}
	if got := f.items.delivered["P1"]; len(got) != 1 || got[0].Item != "EMERALD" {
		t.Fatalf("items back to P1: %+v", got)
	}
	if got := f.items.delivered["P2"]; len(got) != 1 || got[0].Item != "GOLD_INGOT" {
		t.Fatalf("items back to P2: %+v", got)
	}
	if !f.notes.has("P1", MsgTradeCancelled) || !f.notes.has("P2", MsgTradeCancelled) {
		t.Fatalf("missing cancel notifications: %v", f.notes.byParty)
	}
}

func TestCancelDropsTaggedWhenInventoryFull(t *testing.T) {
	f, s := acceptedSession(t, nil)
	_ = s.StageItem("P1", ItemStack{Item: "EMERALD", Count: 2})
	f.items.full["P1"] = true

	s.Cancel()
	if len(f.items.delivered["P1"]) != 0 {
		t.Fatalf("delivered despite full inventory: %+v", f.items.delivered["P1"])
	}
	if got := f.items.dropped["P1"]; len(got) != 1 || got[0].Item != "EMERALD" {
		t.Fatalf("dropped for P1: %+v", got)
	}
	if !f.notes.has("P1", MsgTradeItemsDropped) {
		t.Fatalf("owner not told about the drop: %v", f.notes.byParty)
	}
}
