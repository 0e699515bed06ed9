package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	// Trade session lifecycle.
	ExpirySweepEveryTicks int `yaml:"expiry_sweep_every_ticks"`
	ExpiryCancelSweeps    int `yaml:"expiry_cancel_sweeps"`
	CountdownEveryTicks   int `yaml:"countdown_every_ticks"`
	CommitCountdownSteps  int `yaml:"commit_countdown_steps"`

	// Dropped item stacks.
	DropTTLTicks int `yaml:"drop_ttl_ticks"`

	// Inventory: max distinct item kinds a player can hold.
	MaxInventoryStacks int `yaml:"max_inventory_stacks"`

	// Economy.
	CurrencyName    string `yaml:"currency_name"`
	StartingBalance int64  `yaml:"starting_balance"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type RateLimits struct {
	TradeRequestWindowTicks int `yaml:"trade_request_window_ticks"`
	TradeRequestMax         int `yaml:"trade_request_max"`
	TradeRemindWindowTicks  int `yaml:"trade_remind_window_ticks"`
	TradeRemindMax          int `yaml:"trade_remind_max"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:       "1.0",
		TickRateHz:            5,
		ExpirySweepEveryTicks: 300,
		ExpiryCancelSweeps:    5,
		CountdownEveryTicks:   5,
		CommitCountdownSteps:  3,
		DropTTLTicks:          6000,
		MaxInventoryStacks:    36,
		CurrencyName:          "coins",
		StartingBalance:       0,
		RateLimits: RateLimits{
			TradeRequestWindowTicks: 50,
			TradeRequestMax:         3,
			TradeRemindWindowTicks:  100,
			TradeRemindMax:          1,
		},
	}
}
