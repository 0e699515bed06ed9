package trade

import "errors"

var (
	ErrSelfTrade         = errors.New("cannot trade with yourself")
	ErrAlreadyTrading    = errors.New("party already in a session")
	ErrInvalidPhase      = errors.New("operation not valid in current phase")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAuthorized     = errors.New("party not authorized")
	ErrNoEconomy         = errors.New("no economy backend")
	ErrUnknownSlot       = errors.New("unknown offer slot")
	ErrNoSession         = errors.New("no such session")
)
