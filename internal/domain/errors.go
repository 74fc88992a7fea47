package domain

import "errors"

var (
	ErrFeedClosed     = errors.New("tick feed closed")
	ErrSessionClosed  = errors.New("session closed")
	ErrOrderRejected  = errors.New("order rejected")
	ErrSlotExhausted  = errors.New("per-side position cap reached")
	ErrUnknownSymbol  = errors.New("symbol not in universe")
	ErrAlreadyDecided = errors.New("opening range already decided")
)
