// Package economy provides the in-memory currency ledger used when the
// server runs without its sqlite backend.
package economy

import (
	"fmt"

	"tradehall.gg/internal/sim/world/feature/trade"
)

var ErrInsufficientFunds = trade.ErrInsufficientFunds

// MemoryLedger keeps balances in a map. It is only ever touched from the
// world loop goroutine, so no locking.
type MemoryLedger struct {
	balances map[string]int64
	currency string
}

var _ trade.Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger(currency string) *MemoryLedger {
	if currency == "" {
		currency = "coins"
	}
	return &MemoryLedger{
		balances: map[string]int64{},
		currency: currency,
	}
}

// EnsureAccount creates the account with the starting balance if it does not
// exist yet. Existing accounts are left alone.
func (l *MemoryLedger) EnsureAccount(partyID string, starting int64) error {
	if partyID == "" {
		return fmt.Errorf("empty party id")
	}
	if _, ok := l.balances[partyID]; !ok {
		l.balances[partyID] = starting
	}
	return nil
}

func (l *MemoryLedger) Balance(partyID string) int64 {
	return l.balances[partyID]
}

func (l *MemoryLedger) HasFunds(partyID string, amount int64) bool {
	if amount <= 0 {
		return true
	}
	return l.balances[partyID] >= amount
}

func (l *MemoryLedger) Withdraw(partyID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	if l.balances[partyID] < amount {
		return ErrInsufficientFunds
	}
	l.balances[partyID] -= amount
	return nil
}

func (l *MemoryLedger) Deposit(partyID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	l.balances[partyID] += amount
	return nil
}

func (l *MemoryLedger) FormatAmount(amount int64) string {
	return fmt.Sprintf("%d %s", amount, l.currency)
}
