package trade

// Ledger is the currency backend consumed by sessions. Implementations must
// not partially apply: a Withdraw that errors leaves the balance unchanged.
type Ledger interface {
	HasFunds(partyID string, amount int64) bool
	Withdraw(partyID string, amount int64) error
	Deposit(partyID string, amount int64) error
	FormatAmount(amount int64) string
}

// ItemMover hands item stacks back to parties. Deliver reports false when the
// party's inventory cannot take the stack; Drop places the stack in the world
// tagged with the intended owner.
type ItemMover interface {
	Deliver(partyID string, stack ItemStack) bool
	Drop(ownerID string, stack ItemStack)
}

// Notifier sends a localization key plus params to a party. Offline parties
// are a no-op; delivery is best-effort and never fails a session operation.
type Notifier interface {
	Notify(partyID string, key string, params map[string]any)
}

// Ports bundles the collaborators a session needs. Ledger may be nil, which
// disables escrow operations while item trading keeps working.
type Ports struct {
	Ledger Ledger
	Items  ItemMover
	Notify Notifier
}

type ItemStack struct {
	Item  string
	Count int
}

// Config carries the per-session lifecycle knobs.
type Config struct {
	// CommitCountdownSteps is the number of countdown sweeps from both-ready
	// to completion.
	CommitCountdownSteps int

	// ExpiryCancelSweeps is the number of expiry sweeps a non-committing
	// session may age before it is cancelled.
	ExpiryCancelSweeps int
}

func (c *Config) applyDefaults() {
	if c.CommitCountdownSteps <= 0 {
		c.CommitCountdownSteps = 3
	}
	if c.ExpiryCancelSweeps <= 0 {
		c.ExpiryCancelSweeps = 5
	}
}
