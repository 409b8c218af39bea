package types

// Action is a per-bar decision emitted by a strategy.
type Action string

const (
	// ActionBuy opens a long position if the engine is flat.
	ActionBuy Action = "buy"
	// ActionSell closes the open position if there is one.
	ActionSell Action = "sell"
	// ActionHold leaves the position unchanged.
	ActionHold Action = "hold"
)
