package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	PlayerID        string `json:"player_id"`

	Self      SelfObs     `json:"self"`
	Inventory []ItemStack `json:"inventory"`
	Trade     *TradeObs   `json:"trade,omitempty"`

	Drops  []DropObs `json:"drops"`
	Events []Event   `json:"events"`
}

type SelfObs struct {
	Name        string `json:"name"`
	Balance     int64  `json:"balance"`
	BalanceText string `json:"balance_text,omitempty"`
	HasEconomy  bool   `json:"has_economy"`
}

// TradeObs is the acting player's view of their active session.
type TradeObs struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	With      string `json:"with,omitempty"`

	YourOffer  []ItemStack `json:"your_offer"`
	TheirOffer []ItemStack `json:"their_offer"`

	YourEscrow  int64 `json:"your_escrow"`
	TheirEscrow int64 `json:"their_escrow"`

	YouReady  bool `json:"you_ready"`
	TheyReady bool `json:"they_ready"`

	CountdownRemaining int `json:"countdown_remaining,omitempty"`
	AgeSweeps          int `json:"age_sweeps"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// DropObs is a dropped item stack visible to (i.e. owned by) the player.
type DropObs struct {
	ID          string `json:"id"`
	Item        string `json:"item"`
	Count       int    `json:"count"`
	ExpiresTick uint64 `json:"expires_tick"`
}

type Event map[string]interface{}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	PlayerID        string       `json:"player_id"`
	Instants        []InstantReq `json:"instants,omitempty"`
}

type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	To string `json:"to,omitempty"`

	Item  string `json:"item,omitempty"`
	Count int    `json:"count,omitempty"`
	Slot  int    `json:"slot,omitempty"`

	Amount int64 `json:"amount,omitempty"`
	Ready  bool  `json:"ready,omitempty"`

	TargetID string `json:"target_id,omitempty"`
}
