package strategy

import "time"

type State string

type Side string

type Action string

const (
	StateNone      State = "NONE"
	StateShortOpen State = "SHORT_OPEN"
	StateLongOpen  State = "LONG_OPEN"
)

const (
	SideNone  Side = "none"
	SideShort Side = "short"
	SideLong  Side = "long"
)

const (
	ActionHold      Action = "HOLD"
	ActionOpenShort Action = "OPEN_SHORT"
	ActionOpenLong  Action = "OPEN_LONG"
	ActionStopShort Action = "STOP_SHORT"
	ActionStopLong  Action = "STOP_LONG"
	ActionFlatten   Action = "FLATTEN"
)

// Position is the single open hedge. Size is in base units.
type Position struct {
	Side       Side
	EntryPrice float64
	EntryTick  int
	StopTick   int
	Size       float64
	EntryTime  time.Time
}

// Event reports what a sample did to the hedge. RealizedPnL is non-zero only for
// stop and flatten events.
type Event struct {
	Action      Action
	Time        time.Time
	Price       float64
	Tick        int
	RealizedPnL float64
	Position    Position
}

func (e Event) Opened() bool {
	return e.Action == ActionOpenShort || e.Action == ActionOpenLong
}

func (e Event) StoppedOut() bool {
	return e.Action == ActionStopShort || e.Action == ActionStopLong
}

func (p Position) PnL(price float64) float64 {
	switch p.Side {
	case SideShort:
		return (p.EntryPrice - price) * p.Size
	case SideLong:
		return (price - p.EntryPrice) * p.Size
	}
	return 0
}
