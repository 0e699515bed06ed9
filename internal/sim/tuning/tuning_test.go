package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := []byte(`
protocol_version: "1.0"
tick_rate_hz: 10
expiry_sweep_every_ticks: 120
expiry_cancel_sweeps: 4
countdown_every_ticks: 10
commit_countdown_steps: 5
currency_name: gold
starting_balance: 250
rate_limits:
  trade_request_window_ticks: 40
  trade_request_max: 2
`)
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tn, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn.TickRateHz != 10 {
		t.Fatalf("tick_rate_hz: got %d want 10", tn.TickRateHz)
	}
	if tn.ExpiryCancelSweeps != 4 {
		t.Fatalf("expiry_cancel_sweeps: got %d want 4", tn.ExpiryCancelSweeps)
	}
	if tn.CurrencyName != "gold" || tn.StartingBalance != 250 {
		t.Fatalf("economy: got %q/%d", tn.CurrencyName, tn.StartingBalance)
	}
	if tn.RateLimits.TradeRequestMax != 2 {
		t.Fatalf("trade_request_max: got %d want 2", tn.RateLimits.TradeRequestMax)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz <= 0 || d.CommitCountdownSteps <= 0 || d.ExpiryCancelSweeps <= 0 {
		t.Fatalf("defaults not sane: %+v", d)
	}
}
