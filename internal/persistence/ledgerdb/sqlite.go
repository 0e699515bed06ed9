// Package ledgerdb is the sqlite-backed currency ledger. Unlike the
// append-only log writers it is queried synchronously from the world loop:
// escrow checks must see the balance as of this tick.
package ledgerdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"tradehall.gg/internal/sim/world/feature/trade"
)

type SQLiteLedger struct {
	db       *sql.DB
	currency string
	starting int64
}

var _ trade.Ledger = (*SQLiteLedger)(nil)

func Open(path string, currency string, starting int64) (*SQLiteLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if currency == "" {
		currency = "coins"
	}
	return &SQLiteLedger{db: db, currency: currency, starting: starting}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
	player_id TEXT PRIMARY KEY,
	balance   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// EnsureAccount creates the account with the configured starting balance.
// Existing accounts are untouched.
func (l *SQLiteLedger) EnsureAccount(partyID string, starting int64) error {
	if partyID == "" {
		return fmt.Errorf("empty party id")
	}
	_, err := l.db.Exec(
		`INSERT INTO accounts (player_id, balance) VALUES (?, ?) ON CONFLICT(player_id) DO NOTHING;`,
		partyID, starting,
	)
	return err
}

func (l *SQLiteLedger) Balance(partyID string) int64 {
	var bal int64
	err := l.db.QueryRow(`SELECT balance FROM accounts WHERE player_id = ?;`, partyID).Scan(&bal)
	if err != nil {
		return 0
	}
	return bal
}

func (l *SQLiteLedger) HasFunds(partyID string, amount int64) bool {
	if amount <= 0 {
		return true
	}
	return l.Balance(partyID) >= amount
}

// Withdraw debits atomically: the guard lives in the UPDATE so a short
// balance can never go negative.
func (l *SQLiteLedger) Withdraw(partyID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	res, err := l.db.Exec(
		`UPDATE accounts SET balance = balance - ? WHERE player_id = ? AND balance >= ?;`,
		amount, partyID, amount,
	)
	if err != nil {
		return fmt.Errorf("withdraw %s: %w", partyID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return trade.ErrInsufficientFunds
	}
	return nil
}

func (l *SQLiteLedger) Deposit(partyID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO accounts (player_id, balance) VALUES (?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET balance = balance + excluded.balance;`,
		partyID, amount,
	)
	if err != nil {
		return fmt.Errorf("deposit %s: %w", partyID, err)
	}
	return nil
}

func (l *SQLiteLedger) FormatAmount(amount int64) string {
	return fmt.Sprintf("%d %s", amount, l.currency)
}
