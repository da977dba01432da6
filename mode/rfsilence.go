package mode

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// rfSilenceSubstate is RFSilenceMode's own progression, beyond Core.
type rfSilenceSubstate uint8

const (
	rfIdle rfSilenceSubstate = iota
	rfArming
	rfSilenced
)

// progressRamp is the shared press-to-add-3/decay-1-per-500ms/clamp-0-100
// behavior used by both RFSilenceMode's arming progress and LaunchControl's
// PrepareUnlockPyros/PrepareIgnition.
type progressRamp struct {
	value      int
	lastUpdate time.Time
}

func newProgressRamp(now time.Time) progressRamp {
	return progressRamp{value: 0, lastUpdate: now}
}

func (p *progressRamp) bump(now time.Time) {
	p.decay(now)
	p.value += 3
	if p.value > 100 {
		p.value = 100
	}
	p.lastUpdate = now
}

func (p *progressRamp) decay(now time.Time) {
	elapsed := now.Sub(p.lastUpdate)
	ticks := int(elapsed / (500 * time.Millisecond))
	if ticks <= 0 {
		return
	}
	p.value -= ticks
	if p.value < 0 {
		p.value = 0
	}
	p.lastUpdate = p.lastUpdate.Add(time.Duration(ticks) * 500 * time.Millisecond)
}

// rfSilenceMode is the single interlocked press-and-hold progression into
// long-term radio silence: it uses the same ramp/decay pattern as the
// ignition progress bars, so holding Right visibly arms and releasing it
// visibly decays rather than toggling instantly.
type rfSilenceMode struct {
	Core
	sub      rfSilenceSubstate
	progress progressRamp
}

func newRFSilenceMode(now time.Time) *rfSilenceMode {
	return &rfSilenceMode{Core: newCore(now), sub: rfIdle, progress: newProgressRamp(now)}
}

func (m *rfSilenceMode) Kind() Kind { return KindRFSilence }

func (m *rfSilenceMode) ProcessResponse(resp rqconsole.Response, now time.Time) {
	if m.State() == CoreReset {
		m.Core.ProcessResponse(resp, now)
		return
	}
	if resp.Kind != rqconsole.ResponseResetAck {
		m.forceStart(now)
		m.sub = rfIdle
	}
}

func (m *rfSilenceMode) ProcessEvent(ev Input, now time.Time) (ControlArea, *Kind) {
	if m.State() != CoreIdle {
		return ControlDetails, nil
	}
	switch ev.Kind {
	case InputBack:
		if m.sub == rfIdle {
			return ControlTabs, nil
		}
		m.sub = rfIdle
		m.progress = newProgressRamp(now)
		m.touch(now)
		return ControlDetails, nil
	case InputRight:
		if m.sub == rfIdle {
			m.sub = rfArming
		}
		if m.sub == rfArming {
			m.progress.bump(now)
			m.touch(now)
			if m.progress.value >= 100 {
				m.sub = rfSilenced
			}
		}
	}
	return ControlDetails, nil
}

func (m *rfSilenceMode) ProcessModeChange(now time.Time) *rqconsole.Command {
	return m.ModeChangeCommand(now)
}

func (m *rfSilenceMode) Drive(now time.Time) *Kind {
	if m.sub == rfArming {
		before := m.progress.value
		m.progress.decay(now)
		if m.progress.value != before {
			m.touch(now)
		}
	}
	return nil
}

func (m *rfSilenceMode) AffectedByTimeout() bool {
	return m.State() != CoreIdle || m.sub == rfSilenced
}

func (m *rfSilenceMode) CoreState() CoreState { return m.State() }

func (m *rfSilenceMode) EnterFailure(now time.Time) { m.Core.EnterFailure(now) }
func (m *rfSilenceMode) Reopened(now time.Time)     { m.Core.Reopened(now) }

// Progress exposes the current arming progress (0-100) for UI display.
func (m *rfSilenceMode) Progress() int { return m.progress.value }

// Silenced reports whether the radio-silence interlock has fully engaged.
func (m *rfSilenceMode) Silenced() bool { return m.sub == rfSilenced }
