package mode

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// lcSubstate is LaunchControlMode's own progression, beyond Core.
type lcSubstate uint8

const (
	lcIdle lcSubstate = iota
	lcEnterHiA
	lcEnterLoA
	lcTransmitKeyA
	lcPrepareUnlockPyros
	lcUnlockPyros
	lcEnterHiB
	lcEnterLoB
	lcTransmitKeyAB
	lcPrepareIgnition
	lcWaitForFire
	lcFire
	lcWaitForPyroTimeout
)

const pyroTimeout = 3 * time.Second

// launchControlMode is the operator-interlocked arming/ignition sequence.
// Digits are nibbles (0-15); Fire is reachable only by walking the sequence
// top to bottom, one acknowledged step at a time.
type launchControlMode struct {
	Core
	sub        lcSubstate
	pendingCmd bool

	hiA, loA, hiB, loB uint8

	unlockProgress   progressRamp
	ignitionProgress progressRamp

	pyroDeadline time.Time
}

// isCommandSubstate reports whether entering s owes ProcessModeChange an
// outbound command.
func isCommandSubstate(s lcSubstate) bool {
	switch s {
	case lcTransmitKeyA, lcUnlockPyros, lcTransmitKeyAB, lcFire:
		return true
	default:
		return false
	}
}

func newLaunchControlMode(now time.Time) *launchControlMode {
	return &launchControlMode{Core: newCore(now), sub: lcIdle}
}

func (m *launchControlMode) Kind() Kind { return KindLaunchControl }

// forceIdle is the shared "protocol desync is always resolved by forced
// reset" escape hatch: any unexpected response mid-sequence drops both Core
// and the digit-entry/progress state back to start.
func (m *launchControlMode) forceIdle(now time.Time) {
	m.forceStart(now)
	m.sub = lcIdle
	m.pendingCmd = false
}

func (m *launchControlMode) ProcessResponse(resp rqconsole.Response, now time.Time) {
	if m.State() == CoreReset {
		m.Core.ProcessResponse(resp, now)
		return
	}
	switch m.sub {
	case lcTransmitKeyA:
		if resp.Kind == rqconsole.ResponseLaunchSecretPartialAck {
			m.sub = lcPrepareUnlockPyros
			m.unlockProgress = newProgressRamp(now)
			m.touch(now)
			return
		}
		m.forceIdle(now)
	case lcUnlockPyros:
		if resp.Kind == rqconsole.ResponseUnlockPyrosAck {
			m.sub = lcEnterHiB
			m.hiB = 0
			m.touch(now)
			return
		}
		m.forceIdle(now)
	case lcTransmitKeyAB:
		if resp.Kind == rqconsole.ResponseLaunchSecretFullAck {
			m.sub = lcPrepareIgnition
			m.ignitionProgress = newProgressRamp(now)
			m.touch(now)
			return
		}
		m.forceIdle(now)
	case lcFire:
		if resp.Kind == rqconsole.ResponseIgnitionAck {
			m.sub = lcWaitForPyroTimeout
			m.pyroDeadline = now.Add(pyroTimeout)
			m.touch(now)
			return
		}
		m.forceIdle(now)
	default:
		// A response arriving while not awaiting one is unexpected.
		if resp.Kind != rqconsole.ResponseResetAck {
			m.forceIdle(now)
		}
	}
}

func (m *launchControlMode) ProcessEvent(ev Input, now time.Time) (ControlArea, *Kind) {
	if m.State() != CoreIdle {
		return ControlDetails, nil
	}

	switch m.sub {
	case lcIdle:
		if ev.Kind == InputEnter {
			m.sub = lcEnterHiA
			m.hiA = 0
			m.touch(now)
			return ControlDetails, nil
		}
		return ControlTabs, nil

	case lcEnterHiA:
		switch ev.Kind {
		case InputLeft:
			m.hiA = (m.hiA + 15) % 16
			m.touch(now)
		case InputRight:
			m.hiA = (m.hiA + 1) % 16
			m.touch(now)
		case InputEnter:
			m.sub = lcEnterLoA
			m.loA = 0
			m.touch(now)
		case InputBack:
			m.forceIdle(now)
			return ControlTabs, nil
		}
		return ControlDetails, nil

	case lcEnterLoA:
		switch ev.Kind {
		case InputLeft:
			m.loA = (m.loA + 15) % 16
			m.touch(now)
		case InputRight:
			m.loA = (m.loA + 1) % 16
			m.touch(now)
		case InputEnter:
			m.sub = lcTransmitKeyA
			m.pendingCmd = true
			m.touch(now)
		case InputBack:
			m.sub = lcEnterHiA
			m.touch(now)
		}
		return ControlDetails, nil

	case lcPrepareUnlockPyros:
		return m.driveProgress(&m.unlockProgress, ev, now, lcUnlockPyros)

	case lcEnterHiB:
		switch ev.Kind {
		case InputLeft:
			m.hiB = (m.hiB + 15) % 16
			m.touch(now)
		case InputRight:
			m.hiB = (m.hiB + 1) % 16
			m.touch(now)
		case InputEnter:
			m.sub = lcEnterLoB
			m.loB = 0
			m.touch(now)
		case InputBack:
			m.forceIdle(now)
			return ControlTabs, nil
		}
		return ControlDetails, nil

	case lcEnterLoB:
		switch ev.Kind {
		case InputLeft:
			m.loB = (m.loB + 15) % 16
			m.touch(now)
		case InputRight:
			m.loB = (m.loB + 1) % 16
			m.touch(now)
		case InputEnter:
			m.sub = lcTransmitKeyAB
			m.pendingCmd = true
			m.touch(now)
		case InputBack:
			m.sub = lcEnterHiB
			m.touch(now)
		}
		return ControlDetails, nil

	case lcPrepareIgnition:
		return m.driveProgress(&m.ignitionProgress, ev, now, lcWaitForFire)

	case lcWaitForFire:
		if ev.Kind == InputEnter {
			m.sub = lcFire
			m.pendingCmd = true
			m.touch(now)
		}
		return ControlDetails, nil
	}

	return ControlDetails, nil
}

// driveProgress implements the shared PrepareUnlockPyros/PrepareIgnition
// ramp: Right adds 3 (capped 100); once at 100, the next non-Back input
// advances to nextSub.
func (m *launchControlMode) driveProgress(p *progressRamp, ev Input, now time.Time, nextSub lcSubstate) (ControlArea, *Kind) {
	switch ev.Kind {
	case InputBack:
		m.forceIdle(now)
		return ControlTabs, nil
	case InputRight:
		if p.value >= 100 {
			m.sub = nextSub
			if isCommandSubstate(nextSub) {
				m.pendingCmd = true
			}
			m.touch(now)
			return ControlDetails, nil
		}
		p.bump(now)
		m.touch(now)
	default:
		if p.value >= 100 {
			m.sub = nextSub
			if isCommandSubstate(nextSub) {
				m.pendingCmd = true
			}
			m.touch(now)
		}
	}
	return ControlDetails, nil
}

// ProcessModeChange emits the command owed by a just-entered state: the two
// secret transmissions, the pyro unlock, and the fire command itself. Each
// owed command is consumed the instant it's returned (pendingCmd), so a
// later tick with no new state transition returns nil rather than
// re-sending into an already-Alive transaction.
func (m *launchControlMode) ProcessModeChange(now time.Time) *rqconsole.Command {
	if cmd := m.ModeChangeCommand(now); cmd != nil {
		return cmd
	}
	if !m.pendingCmd {
		return nil
	}
	switch m.sub {
	case lcTransmitKeyA:
		m.pendingCmd = false
		cmd := rqconsole.LaunchSecretPartialCommand(m.hiA<<4 | m.loA)
		return &cmd
	case lcUnlockPyros:
		m.pendingCmd = false
		cmd := rqconsole.UnlockPyrosCommand()
		return &cmd
	case lcTransmitKeyAB:
		m.pendingCmd = false
		cmd := rqconsole.LaunchSecretFullCommand(m.hiA<<4|m.loA, m.hiB<<4|m.loB)
		return &cmd
	case lcFire:
		m.pendingCmd = false
		cmd := rqconsole.IgnitionCommand()
		return &cmd
	}
	return nil
}

func (m *launchControlMode) Drive(now time.Time) *Kind {
	switch m.sub {
	case lcPrepareUnlockPyros:
		m.unlockProgress.decay(now)
	case lcPrepareIgnition:
		m.ignitionProgress.decay(now)
	case lcWaitForPyroTimeout:
		if !now.Before(m.pyroDeadline) {
			k := KindObservables
			return &k
		}
	}
	return nil
}

func (m *launchControlMode) AffectedByTimeout() bool {
	if m.sub == lcWaitForPyroTimeout || m.sub == lcFire {
		return false
	}
	if m.State() != CoreIdle {
		return true
	}
	return m.sub != lcIdle
}

func (m *launchControlMode) CoreState() CoreState { return m.State() }

func (m *launchControlMode) EnterFailure(now time.Time) {
	m.Core.EnterFailure(now)
	m.sub = lcIdle
	m.pendingCmd = false
}
func (m *launchControlMode) Reopened(now time.Time) {
	m.Core.Reopened(now)
	m.sub = lcIdle
	m.pendingCmd = false
}

// UnlockProgress and IgnitionProgress expose the two progress bars for UI
// display (0-100).
func (m *launchControlMode) UnlockProgress() int   { return m.unlockProgress.value }
func (m *launchControlMode) IgnitionProgress() int { return m.ignitionProgress.value }
