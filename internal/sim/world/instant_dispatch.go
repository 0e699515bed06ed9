package world

import "tradehall.gg/internal/protocol"

type instantHandler func(*World, *Player, protocol.InstantReq, uint64)

var instantDispatch = map[string]instantHandler{
	InstantTypeTradeRequest: handleInstantTradeRequest,
	InstantTypeTradeAccept:  handleInstantTradeAccept,
	InstantTypeTradeDeny:    handleInstantTradeDeny,
	InstantTypeTradeStage:   handleInstantTradeStage,
	InstantTypeTradeUnstage: handleInstantTradeUnstage,
	InstantTypeTradeEscrow:  handleInstantTradeEscrow,
	InstantTypeTradeReady:   handleInstantTradeReady,
	InstantTypeTradeCancel:  handleInstantTradeCancel,
	InstantTypeTradeRemind:  handleInstantTradeRemind,
	InstantTypePickup:       handleInstantPickup,
}
