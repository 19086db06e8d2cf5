package strategy

import "time"

// HedgeMachine tracks at most one open hedge across one LP cycle. It is not safe
// for concurrent use; each run owns its machine.
type HedgeMachine struct {
	params Params
	state  State
	pos    Position
}

func NewHedgeMachine(params Params) (*HedgeMachine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := &HedgeMachine{params: params}
	m.reset()
	return m, nil
}

func (m *HedgeMachine) State() State {
	return m.state
}

// Position returns the open hedge. When flat it reports false and a position
// with side SideNone.
func (m *HedgeMachine) Position() (Position, bool) {
	return m.pos, m.state != StateNone
}

// Step applies at most one transition for the sample. The event carries the
// position it acted on, or the current one on hold.
func (m *HedgeMachine) Step(at time.Time, price float64, tick int) Event {
	action := nextAction(m.state, m.params, tick)
	event := Event{Action: action, Time: at, Price: price, Tick: tick, Position: m.pos}
	switch action {
	case ActionStopShort, ActionStopLong:
		event.RealizedPnL = m.pos.PnL(price)
		m.reset()
	case ActionOpenShort:
		m.open(SideShort, at, price, tick, m.params.ShortStopTick())
		m.state = StateShortOpen
		event.Position = m.pos
	case ActionOpenLong:
		m.open(SideLong, at, price, tick, m.params.LongStopTick())
		m.state = StateLongOpen
		event.Position = m.pos
	}
	return event
}

// Flatten closes any open hedge at price. It reports false when nothing was open.
func (m *HedgeMachine) Flatten(at time.Time, price float64, tick int) (Event, bool) {
	if m.state == StateNone {
		return Event{}, false
	}
	event := Event{
		Action:      ActionFlatten,
		Time:        at,
		Price:       price,
		Tick:        tick,
		RealizedPnL: m.pos.PnL(price),
		Position:    m.pos,
	}
	m.reset()
	return event, true
}

func (m *HedgeMachine) open(side Side, at time.Time, price float64, tick, stop int) {
	m.pos = Position{
		Side:       side,
		EntryPrice: price,
		EntryTick:  tick,
		StopTick:   stop,
		Size:       m.params.NotionalUSD / price,
		EntryTime:  at,
	}
}

func (m *HedgeMachine) reset() {
	m.state = StateNone
	m.pos = Position{Side: SideNone}
}

func nextAction(current State, p Params, tick int) Action {
	switch current {
	case StateShortOpen:
		if tick >= p.ShortStopTick() {
			return ActionStopShort
		}
	case StateLongOpen:
		if tick <= p.LongStopTick() {
			return ActionStopLong
		}
	case StateNone:
		if tick <= p.ShortEntryTick {
			return ActionOpenShort
		}
		if tick >= p.LongEntryTick {
			return ActionOpenLong
		}
	}
	return ActionHold
}
