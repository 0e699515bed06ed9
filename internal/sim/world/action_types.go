package world

const (
	InstantTypeTradeRequest = "TRADE_REQUEST"
	InstantTypeTradeAccept  = "TRADE_ACCEPT"
	InstantTypeTradeDeny    = "TRADE_DENY"
	InstantTypeTradeStage   = "TRADE_STAGE"
	InstantTypeTradeUnstage = "TRADE_UNSTAGE"
	InstantTypeTradeEscrow  = "TRADE_ESCROW"
	InstantTypeTradeReady   = "TRADE_READY"
	InstantTypeTradeCancel  = "TRADE_CANCEL"
	InstantTypeTradeRemind  = "TRADE_REMIND"
	InstantTypePickup       = "PICKUP"
)
