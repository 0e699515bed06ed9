package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Trade session layer.
	ErrSelfTrade      = "E_SELF_TRADE"
	ErrAlreadyTrading = "E_ALREADY_TRADING"
	ErrInvalidPhase   = "E_INVALID_PHASE"
	ErrNoFunds        = "E_NO_FUNDS"
	ErrNotAuthorized  = "E_NOT_AUTHORIZED"
	ErrNoEconomy      = "E_NO_ECONOMY"

	// Generic action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrStale         = "E_STALE"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSelfTrade:       {},
	ErrAlreadyTrading:  {},
	ErrInvalidPhase:    {},
	ErrNoFunds:         {},
	ErrNotAuthorized:   {},
	ErrNoEconomy:       {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrRateLimit:       {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
