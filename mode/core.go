package mode

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// CoreState is the connection lifecycle shared by every Mode.
type CoreState uint8

const (
	CoreStart CoreState = iota
	CoreReset
	CoreIdle
	CoreFailure
)

// String renders a CoreState for status lines, e.g. "Reset", "Idle".
func (s CoreState) String() string {
	switch s {
	case CoreReset:
		return "Reset"
	case CoreIdle:
		return "Idle"
	case CoreFailure:
		return "Failure"
	default:
		return "Start"
	}
}

// Core is the embedded submachine every Mode carries. Its transitions are
// implemented once here and delegated to by each mode's own methods, per the
// "parallel sub-FSMs with shared Core" design note.
type Core struct {
	state          CoreState
	pendingReset   bool
	lastChange     time.Time
	connectedSince *time.Time
}

// newCore builds a Core in Start, owing an initial Reset dispatch.
func newCore(now time.Time) Core {
	return Core{state: CoreStart, pendingReset: true, lastChange: now}
}

// State reports the current submachine state.
func (c *Core) State() CoreState { return c.state }

func (c *Core) setState(s CoreState, now time.Time) {
	if s != c.state {
		c.lastChange = now
	}
	c.state = s
}

// ProcessResponse applies a response while Core owns the current
// transaction: ResetAck in Reset advances to Idle, anything else in Reset
// retries from Start.
func (c *Core) ProcessResponse(resp rqconsole.Response, now time.Time) {
	if c.state != CoreReset {
		return
	}
	if resp.Kind == rqconsole.ResponseResetAck {
		c.setState(CoreIdle, now)
		if c.connectedSince == nil {
			t := now
			c.connectedSince = &t
		}
		return
	}
	c.forceStart(now)
}

// forceStart drops back to Start and marks a Reset owed; this is the
// universal "protocol desync is always resolved by forced reset" escape
// hatch every mode calls into on an unexpected response.
func (c *Core) forceStart(now time.Time) {
	c.setState(CoreStart, now)
	c.pendingReset = true
	c.connectedSince = nil
}

// EnterFailure moves Core to Failure on a hard connection error.
func (c *Core) EnterFailure(now time.Time) {
	c.setState(CoreFailure, now)
	c.connectedSince = nil
}

// Reopened moves Core back to Start after the worker has re-opened the
// port, owing a fresh Reset.
func (c *Core) Reopened(now time.Time) {
	c.forceStart(now)
}

// ModeChangeCommand returns the owed Reset command, if any, transitioning
// Start -> Reset as it is issued.
func (c *Core) ModeChangeCommand(now time.Time) *rqconsole.Command {
	if c.state == CoreStart && c.pendingReset {
		c.pendingReset = false
		c.setState(CoreReset, now)
		cmd := rqconsole.ResetCommand(rqconsole.AdcGain1)
		return &cmd
	}
	return nil
}

// LastStateChange is when Core (or, for modes with their own sub-state, the
// mode as a whole) last changed state.
func (c *Core) LastStateChange() time.Time { return c.lastChange }

// touch records a state change timestamp for non-Core sub-states, so
// AutoResetTimeout still measures from the most recent transition of any
// kind, not just Core's.
func (c *Core) touch(now time.Time) { c.lastChange = now }
