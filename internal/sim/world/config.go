package world

type WorldConfig struct {
	ID         string
	TickRateHz int

	// Idle sessions age once per sweep and are cancelled after
	// ExpiryCancelSweeps sweeps.
	ExpirySweepEveryTicks int
	ExpiryCancelSweeps    int

	// Commit countdown pulses once per CountdownEveryTicks ticks.
	CountdownEveryTicks  int
	CommitCountdownSteps int

	DropTTLTicks       int
	MaxInventoryStacks int

	CurrencyName    string
	StartingBalance int64

	RateLimits RateLimitConfig
}

type RateLimitConfig struct {
	TradeRequestWindowTicks uint64
	TradeRequestMax         int
	TradeRemindWindowTicks  uint64
	TradeRemindMax          int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "hall-1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.ExpirySweepEveryTicks <= 0 {
		c.ExpirySweepEveryTicks = 300
	}
	if c.ExpiryCancelSweeps <= 0 {
		c.ExpiryCancelSweeps = 5
	}
	if c.CountdownEveryTicks <= 0 {
		c.CountdownEveryTicks = 5
	}
	if c.CommitCountdownSteps <= 0 {
		c.CommitCountdownSteps = 3
	}
	if c.DropTTLTicks <= 0 {
		c.DropTTLTicks = 6000
	}
	if c.MaxInventoryStacks <= 0 {
		c.MaxInventoryStacks = 36
	}
	if c.CurrencyName == "" {
		c.CurrencyName = "coins"
	}
	if c.RateLimits.TradeRequestWindowTicks == 0 {
		c.RateLimits.TradeRequestWindowTicks = 50
	}
	if c.RateLimits.TradeRequestMax <= 0 {
		c.RateLimits.TradeRequestMax = 3
	}
	if c.RateLimits.TradeRemindWindowTicks == 0 {
		c.RateLimits.TradeRemindWindowTicks = 100
	}
	if c.RateLimits.TradeRemindMax <= 0 {
		c.RateLimits.TradeRemindMax = 1
	}
}
