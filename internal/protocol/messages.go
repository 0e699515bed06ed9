package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PlayerName      string            `json:"player_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerID        string     `json:"player_id"`
	ResumeToken     string     `json:"resume_token"`
	HallParams      HallParams `json:"hall_params"`
}

type HallParams struct {
	TickRateHz          int    `json:"tick_rate_hz"`
	HallID              string `json:"hall_id"`
	CurrencyName        string `json:"currency_name"`
	CommitCountdownSecs int    `json:"commit_countdown_secs"`
	OfferExpirySecs     int    `json:"offer_expiry_secs"`
}
