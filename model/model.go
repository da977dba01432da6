// Package model implements the Model coordinator: it owns the Consort, the
// connection worker, the active Mode, and the external recorder/telemetry
// contracts, and ticks the whole system forward once per drive() call.
package model

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spirilis/rqconsole"
	"github.com/spirilis/rqconsole/clock"
	"github.com/spirilis/rqconsole/connection"
	"github.com/spirilis/rqconsole/external"
	"github.com/spirilis/rqconsole/mode"
)

// Model is the single coordinator driving Consort, the connection worker,
// and the active Mode forward in lockstep.
type Model struct {
	consort *rqconsole.Consort
	worker  *connection.Worker
	clk     clock.Clock

	current     mode.Mode
	controlArea mode.ControlArea

	byteQueue []byte

	recorder  external.Recorder
	telemetry external.NRFConnector

	establishedConnectionAt *time.Time
}

// New builds a Model in the given initial mode, speaking as me to dest over
// worker, with recorder/telemetry as its (possibly nil/no-op) external
// collaborators.
func New(initial mode.Kind, me, dest rqconsole.Node, worker *connection.Worker, clk clock.Clock, recorder external.Recorder, telemetry external.NRFConnector) *Model {
	now := clk.Now()
	return &Model{
		consort:     rqconsole.NewConsort(me, dest),
		worker:      worker,
		clk:         clk,
		current:     mode.New(initial, now),
		controlArea: mode.ControlTabs,
		recorder:    recorder,
		telemetry:   telemetry,
	}
}

// Mode exposes the currently active mode for UI display.
func (m *Model) Mode() mode.Mode { return m.current }

// ControlArea exposes which input focus area is active.
func (m *Model) ControlArea() mode.ControlArea { return m.controlArea }

// Drive performs one coordinator tick:
//  1. read "now" from the model's clock (Consort keeps no notion of time and
//     no per-transaction deadline exists; an unanswered request is cleared
//     by the auto-reset in step 2);
//  2. dispatch a Reset and return early if Core just entered Start or the
//     auto-reset timeout fired;
//  3. poll the worker once and classify the single resulting event;
//  4. drain the byte queue through Consort.Feed, applying each Response to
//     the active mode;
//  5. apply the active mode's time-driven Drive.
func (m *Model) Drive() {
	now := m.clk.Now()

	if m.current.CoreState() == mode.CoreStart || m.autoResetDue(now) {
		m.forceReset(now)
		return
	}

	m.worker.Recv(func(a connection.Answer) {
		m.handleAnswer(a, now)
	})

	m.drainByteQueue(now)

	if m.telemetry != nil {
		for _, t := range m.telemetry.Drive() {
			if t.Frame != nil {
				m.applyTelemetryFrame(*t.Frame)
			}
		}
	}

	if newKind := m.current.Drive(now); newKind != nil {
		m.switchMode(*newKind, now)
	}

	m.sendOwedCommand(now)
}

func (m *Model) handleAnswer(a connection.Answer, now time.Time) {
	switch a.Kind {
	case connection.AnswerReceived:
		m.byteQueue = append(m.byteQueue, a.Bytes...)
		if m.recorder != nil {
			m.recorder.WriteBuffer(a.Bytes)
		}
	case connection.AnswerObservables:
		m.applyObservables(a.Observables)
	case connection.AnswerTimeout:
		m.worker.Drain()
		m.clearObservables()
	case connection.AnswerConnectionError:
		logrus.WithError(a.Err).Warn("model: connection error, entering failure")
		m.current.EnterFailure(now)
		m.establishedConnectionAt = nil
	case connection.AnswerConnectionOpen, connection.AnswerDrained:
		// A Reset already in flight is left to finish: forceReset itself
		// asks the worker to drain, so the Drained that follows must not
		// start another reset cycle.
		if m.current.CoreState() != mode.CoreReset {
			m.current.Reopened(now)
		}
	}
}

// drainByteQueue feeds the buffered bytes through Consort one frame at a
// time. Consort.Feed stops at the first completed frame, so only the bytes
// it actually consumed are dropped from the queue; anything left over
// (e.g. a second sentence that arrived in the same read) stays queued for
// the next iteration or the next Drive() tick instead of being discarded.
func (m *Model) drainByteQueue(now time.Time) {
	for len(m.byteQueue) > 0 {
		resp, got, consumed, err := m.consort.Feed(m.byteQueue)
		m.byteQueue = m.byteQueue[consumed:]
		if !got {
			return
		}
		if err != nil {
			logrus.WithError(err).Debug("model: consort feed error")
			m.worker.Reset()
			m.worker.Drain()
			return
		}
		m.current.ProcessResponse(resp, now)
		if m.current.CoreState() == mode.CoreIdle && m.establishedConnectionAt == nil {
			t := now
			m.establishedConnectionAt = &t
		}
	}
}

func (m *Model) applyObservables(raw rqconsole.RawObservablesGroup) {
	if om, ok := m.current.(interface {
		ApplyOutOfBandObservables(rqconsole.RawObservablesGroup)
	}); ok {
		om.ApplyOutOfBandObservables(raw)
	}
}

func (m *Model) clearObservables() {
	// Timeout is a soft signal and does not tear down the session. No
	// observable buffer is cleared here: the snapshots held by the
	// Observables mode stay until the next snapshot of the same group
	// replaces them.
}

func (m *Model) applyTelemetryFrame(f external.TelemetryFrame) {
	logrus.WithField("node", f.Node).Debug("model: telemetry frame received")
}

// autoResetDue reports whether AutoResetTimeout has elapsed in a
// timeout-affected state.
func (m *Model) autoResetDue(now time.Time) bool {
	if !m.current.AffectedByTimeout() {
		return false
	}
	return now.Sub(m.current.LastStateChange()) > mode.AutoResetTimeout
}

func (m *Model) forceReset(now time.Time) {
	m.consort.Reset()
	m.worker.Reset()
	if m.current.CoreState() != mode.CoreStart {
		m.current.Reopened(now)
		m.controlArea = mode.ControlTabs
	}
	m.sendOwedCommand(now)
}

func (m *Model) switchMode(kind mode.Kind, now time.Time) {
	m.current = mode.New(kind, now)
	m.controlArea = mode.ControlTabs
}

func (m *Model) sendOwedCommand(now time.Time) {
	cmd := m.current.ProcessModeChange(now)
	if cmd == nil {
		return
	}
	err := m.consort.SendCommand(*cmd, func(buf []byte) error {
		m.worker.Write(buf)
		return nil
	})
	if err != nil {
		logrus.WithError(err).Debug("model: send failed, forcing reset")
		m.forceReset(now)
	}
}

// ProcessInputEvents routes a batch of operator input events to the current
// ControlArea.
func (m *Model) ProcessInputEvents(events []mode.Input) {
	for _, ev := range events {
		m.ProcessInputEvent(ev)
	}
}

// ProcessInputEvent routes one operator input event. Tabs handles cross-mode
// navigation (blocked while a Core reset is ongoing); Details forwards into
// the active mode.
func (m *Model) ProcessInputEvent(ev mode.Input) {
	now := m.clk.Now()
	if m.controlArea == mode.ControlTabs {
		m.processTabsEvent(ev, now)
		return
	}
	area, switchTo := m.current.ProcessEvent(ev, now)
	m.controlArea = area
	if switchTo != nil {
		m.switchMode(*switchTo, now)
	}
	m.sendOwedCommand(now)
}

var tabOrder = []mode.Kind{mode.KindLaunchControl, mode.KindRFSilence, mode.KindObservables}

func (m *Model) processTabsEvent(ev mode.Input, now time.Time) {
	resetOngoing := m.current.CoreState() == mode.CoreReset || m.current.CoreState() == mode.CoreStart
	switch ev.Kind {
	case mode.InputLeft:
		if resetOngoing {
			return
		}
		m.cycleTab(-1, now)
	case mode.InputRight:
		if resetOngoing {
			return
		}
		m.cycleTab(1, now)
	case mode.InputEnter:
		area, switchTo := m.current.ProcessEvent(ev, now)
		m.controlArea = area
		if switchTo != nil {
			m.switchMode(*switchTo, now)
		}
		m.sendOwedCommand(now)
	}
}

func (m *Model) cycleTab(dir int, now time.Time) {
	idx := 0
	for i, k := range tabOrder {
		if k == m.current.Kind() {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(tabOrder)) % len(tabOrder)
	m.switchMode(tabOrder[idx], now)
}

// AutoResetIn reports how long remains until the auto-reset timeout fires,
// for the status line's countdown, or zero if the current state isn't
// timeout-affected.
func (m *Model) AutoResetIn(now time.Time) time.Duration {
	if !m.current.AffectedByTimeout() {
		return 0
	}
	remaining := mode.AutoResetTimeout - now.Sub(m.current.LastStateChange())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Connected reports whether the link has an established connection.
func (m *Model) Connected() bool { return m.establishedConnectionAt != nil }
