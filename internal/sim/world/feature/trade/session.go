package trade

// Notification keys sent through the Notifier port. Clients localize these;
// the server never formats chat text.
const (
	MsgTradeAccepted      = "tradeAccepted"
	MsgTradeDenied        = "tradeDenied"
	MsgTradeCancelled     = "tradeCancelled"
	MsgTradeComplete      = "tradeComplete"
	MsgTradeReceivedMoney = "tradeReceivedMoney"
	MsgTradeItemsDropped  = "tradeItemsDropped"
	MsgTradeOfferChanged  = "tradeOfferChanged"
	MsgTradeCountdown     = "tradeCountdown"
	MsgTradeStillTrading  = "stillTrading"
)

// Session is the state machine for one trade between two parties. All
// mutation happens from the world loop goroutine; a failed operation leaves
// the session unchanged.
type Session struct {
	ID           string
	Initiator    string
	Counterparty string
	Phase        Phase
	CreatedTick  uint64

	// CountdownRemaining is in countdown sweeps, not ticks.
	CountdownRemaining int
	// AgeSweeps is monotonic; activity does not reset it.
	AgeSweeps int

	initiatorItems     []ItemStack
	counterpartyItems  []ItemStack
	initiatorEscrow    int64
	counterpartyEscrow int64
	initiatorReady     bool
	counterpartyReady  bool

	cfg   Config
	ports Ports
}

func (s *Session) IsParty(partyID string) bool {
	return partyID != "" && (partyID == s.Initiator || partyID == s.Counterparty)
}

// Other returns the counterpart of partyID, or "" if partyID is not a party
// or the counterparty is still unresolved.
func (s *Session) Other(partyID string) string {
	switch partyID {
	case s.Initiator:
		return s.Counterparty
	case s.Counterparty:
		return s.Initiator
	}
	return ""
}

func (s *Session) Offer(partyID string) []ItemStack {
	var src []ItemStack
	switch partyID {
	case s.Initiator:
		src = s.initiatorItems
	case s.Counterparty:
		src = s.counterpartyItems
	default:
		return nil
	}
	out := make([]ItemStack, len(src))
	copy(out, src)
	return out
}

func (s *Session) Escrow(partyID string) int64 {
	switch partyID {
	case s.Initiator:
		return s.initiatorEscrow
	case s.Counterparty:
		return s.counterpartyEscrow
	}
	return 0
}

func (s *Session) Ready(partyID string) bool {
	switch partyID {
	case s.Initiator:
		return s.initiatorReady
	case s.Counterparty:
		return s.counterpartyReady
	}
	return false
}

// Accept moves AwaitingAcceptance -> Negotiating. Only the counterparty may
// accept.
func (s *Session) Accept(partyID string) error {
	if !s.IsParty(partyID) {
		return ErrNotAuthorized
	}
	if s.Phase != PhaseAwaitingAcceptance {
		return ErrInvalidPhase
	}
	if partyID != s.Counterparty {
		return ErrNotAuthorized
	}
	s.Phase = PhaseNegotiating
	s.notifyBoth(MsgTradeAccepted, map[string]any{"session_id": s.ID})
	return nil
}

// Deny rejects a pending request. Either party may deny: the counterparty
// refuses, the initiator retracts. Nothing is staged yet, so this is a plain
// cancellation.
func (s *Session) Deny(partyID string) error {
	if !s.IsParty(partyID) {
		return ErrNotAuthorized
	}
	if s.Phase != PhaseAwaitingAcceptance && s.Phase != PhaseAwaitingCounterparty {
		return ErrInvalidPhase
	}
	if other := s.Other(partyID); other != "" {
		s.ports.notify(other, MsgTradeDenied, map[string]any{"session_id": s.ID, "by": partyID})
	}
	s.finishCancelled()
	return nil
}

// StageItem adds a stack to the party's offer. The caller has already taken
// the items out of the party's inventory; the session holds them in escrow
// until completion or cancellation.
func (s *Session) StageItem(partyID string, stack ItemStack) error {
	if !s.IsParty(partyID) {
		return ErrNotAuthorized
	}
	if s.Phase != PhaseNegotiating && s.Phase != PhaseCommitting {
		return ErrInvalidPhase
	}
	if stack.Item == "" || stack.Count <= 0 {
		return ErrUnknownSlot
	}
	if partyID == s.Initiator {
		s.initiatorItems = append(s.initiatorItems, stack)
	} else {
		s.counterpartyItems = append(s.counterpartyItems, stack)
	}
	s.invalidateConsent(partyID)
	return nil
}

// UnstageItem removes the offer slot at idx and returns its stack so the
// caller can put it back in the party's inventory.
func (s *Session) UnstageItem(partyID string, idx int) (ItemStack, error) {
	if !s.IsParty(partyID) {
		return ItemStack{}, ErrNotAuthorized
	}
	if s.Phase != PhaseNegotiating && s.Phase != PhaseCommitting {
		return ItemStack{}, ErrInvalidPhase
	}
	slots := &s.initiatorItems
	if partyID == s.Counterparty {
		slots = &s.counterpartyItems
	}
	if idx < 0 || idx >= len(*slots) {
		return ItemStack{}, ErrUnknownSlot
	}
	stack := (*slots)[idx]
	*slots = append((*slots)[:idx], (*slots)[idx+1:]...)
	s.invalidateConsent(partyID)
	return stack, nil
}

// AdjustEscrow moves currency between the party's balance and the session
// escrow. Positive delta withdraws, negative deposits back (clamped at the
// current escrow). A failed adjustment leaves escrow AND readiness untouched.
func (s *Session) AdjustEscrow(partyID string, delta int64) error {
	if !s.IsParty(partyID) {
		return ErrNotAuthorized
	}
	if s.Phase != PhaseNegotiating && s.Phase != PhaseCommitting {
		return ErrInvalidPhase
	}
	if s.ports.Ledger == nil {
		return ErrNoEconomy
	}
	escrow := &s.initiatorEscrow
	if partyID == s.Counterparty {
		escrow = &s.counterpartyEscrow
	}
	switch {
	case delta > 0:
		if !s.ports.Ledger.HasFunds(partyID, delta) {
			return ErrInsufficientFunds
		}
		if err := s.ports.Ledger.Withdraw(partyID, delta); err != nil {
			return err
		}
		*escrow += delta
	case delta < 0:
		back := -delta
		if back > *escrow {
			back = *escrow
		}
		if back == 0 {
			return nil
		}
		if err := s.ports.Ledger.Deposit(partyID, back); err != nil {
			return err
		}
		*escrow -= back
	default:
		return nil
	}
	s.invalidateConsent(partyID)
	return nil
}

// SetReady toggles the party's consent flag. Both flags up starts the commit
// countdown; dropping readiness while Committing aborts it.
func (s *Session) SetReady(partyID string, ready bool) error {
	if !s.IsParty(partyID) {
		return ErrNotAuthorized
	}
	if s.Phase != PhaseNegotiating && s.Phase != PhaseCommitting {
		return ErrInvalidPhase
	}
	flag := &s.initiatorReady
	if partyID == s.Counterparty {
		flag = &s.counterpartyReady
	}
	if !ready {
		*flag = false
		if s.Phase == PhaseCommitting {
			s.abortCommit()
		}
		return nil
	}
	*flag = true
	if s.Phase == PhaseNegotiating && s.initiatorReady && s.counterpartyReady {
		s.Phase = PhaseCommitting
		s.CountdownRemaining = s.cfg.CommitCountdownSteps
	}
	return nil
}

// Tick advances the commit countdown by one sweep and reports whether the
// session completed. Non-committing sessions are a no-op.
func (s *Session) Tick() bool {
	if s.Phase != PhaseCommitting {
		return false
	}
	s.CountdownRemaining--
	if s.CountdownRemaining > 0 {
		return false
	}
	s.complete()
	return true
}

// Cancel safely unwinds the session: escrow refunds, staged items back to
// their owners, terminal phase. Idempotent; terminal sessions no-op.
func (s *Session) Cancel() {
	if s.Phase.Terminal() {
		return
	}
	s.refundEscrow(s.Initiator, &s.initiatorEscrow)
	s.refundEscrow(s.Counterparty, &s.counterpartyEscrow)
	s.returnItems(s.Initiator, &s.initiatorItems)
	s.returnItems(s.Counterparty, &s.counterpartyItems)
	s.notifyBoth(MsgTradeCancelled, map[string]any{"session_id": s.ID})
	s.finishCancelled()
}

func (s *Session) complete() {
	s.payoutEscrow(s.Counterparty, &s.initiatorEscrow)
	s.payoutEscrow(s.Initiator, &s.counterpartyEscrow)
	s.deliverItems(s.Counterparty, &s.initiatorItems)
	s.deliverItems(s.Initiator, &s.counterpartyItems)
	s.Phase = PhaseCompleted
	s.CountdownRemaining = 0
	s.notifyBoth(MsgTradeComplete, map[string]any{"session_id": s.ID})
}

func (s *Session) abortCommit() {
	s.Phase = PhaseNegotiating
	s.CountdownRemaining = 0
}

// invalidateConsent resets consent after an offer change. The acting party's
// flag always clears; aborting a commit clears both, since the other party
// agreed to a different offer.
func (s *Session) invalidateConsent(partyID string) {
	if partyID == s.Initiator {
		s.initiatorReady = false
	} else {
		s.counterpartyReady = false
	}
	if s.Phase == PhaseCommitting {
		s.abortCommit()
		s.initiatorReady = false
		s.counterpartyReady = false
		s.notifyBoth(MsgTradeOfferChanged, map[string]any{"session_id": s.ID, "by": partyID})
	}
}

func (s *Session) refundEscrow(partyID string, escrow *int64) {
	if *escrow <= 0 || partyID == "" || s.ports.Ledger == nil {
		return
	}
	if err := s.ports.Ledger.Deposit(partyID, *escrow); err != nil {
		return
	}
	*escrow = 0
}

func (s *Session) payoutEscrow(toParty string, escrow *int64) {
	if *escrow <= 0 || toParty == "" || s.ports.Ledger == nil {
		return
	}
	if err := s.ports.Ledger.Deposit(toParty, *escrow); err != nil {
		return
	}
	s.ports.notify(toParty, MsgTradeReceivedMoney, map[string]any{
		"session_id": s.ID,
		"amount":     *escrow,
		"amount_fmt": s.ports.Ledger.FormatAmount(*escrow),
	})
	*escrow = 0
}

func (s *Session) returnItems(ownerID string, slots *[]ItemStack) {
	s.handBack(ownerID, slots)
}

func (s *Session) deliverItems(toParty string, slots *[]ItemStack) {
	s.handBack(toParty, slots)
}

// handBack tries the inventory first and drops owner-tagged stacks when it
// is full, per the drop-protection rule.
func (s *Session) handBack(partyID string, slots *[]ItemStack) {
	if partyID == "" || s.ports.Items == nil {
		*slots = nil
		return
	}
	for _, stack := range *slots {
		if s.ports.Items.Deliver(partyID, stack) {
			continue
		}
		s.ports.Items.Drop(partyID, stack)
		s.ports.notify(partyID, MsgTradeItemsDropped, map[string]any{
			"session_id": s.ID,
			"item":       stack.Item,
			"count":      stack.Count,
		})
	}
	*slots = nil
}

func (s *Session) finishCancelled() {
	s.Phase = PhaseCancelled
	s.CountdownRemaining = 0
	s.initiatorReady = false
	s.counterpartyReady = false
}

func (s *Session) notifyBoth(key string, params map[string]any) {
	s.ports.notify(s.Initiator, key, params)
	s.ports.notify(s.Counterparty, key, params)
}

func (p Ports) notify(partyID string, key string, params map[string]any) {
	if p.Notify == nil || partyID == "" {
		return
	}
	p.Notify.Notify(partyID, key, params)
}
