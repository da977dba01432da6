package mode

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// observablesMode is passive: it just displays whatever observable groups
// arrive; Back returns to Tabs, everything else is a no-op besides the
// shared Core lifecycle.
type observablesMode struct {
	Core
	Group1 *rqconsole.ObservablesGroup1
	Group2 *rqconsole.ObservablesGroup2
}

func newObservablesMode(now time.Time) *observablesMode {
	return &observablesMode{Core: newCore(now)}
}

func (m *observablesMode) Kind() Kind { return KindObservables }

func (m *observablesMode) ProcessResponse(resp rqconsole.Response, now time.Time) {
	if m.State() == CoreReset {
		m.Core.ProcessResponse(resp, now)
		return
	}
	if resp.Kind == rqconsole.ResponseObservableGroup {
		m.applyObservables(resp.Observables)
		return
	}
	// Any other response while idle is unexpected; force a resync.
	m.forceStart(now)
}

func (m *observablesMode) applyObservables(raw rqconsole.RawObservablesGroup) {
	if raw.Group1 != nil {
		m.Group1 = raw.Group1
	}
	if raw.Group2 != nil {
		m.Group2 = raw.Group2
	}
}

// ApplyOutOfBandObservables lets the model coordinator feed in observable
// snapshots that arrived via the connection worker's out-of-band channel
// rather than as a Consort response.
func (m *observablesMode) ApplyOutOfBandObservables(raw rqconsole.RawObservablesGroup) {
	m.applyObservables(raw)
}

func (m *observablesMode) ProcessEvent(ev Input, now time.Time) (ControlArea, *Kind) {
	if ev.Kind == InputBack {
		return ControlTabs, nil
	}
	return ControlDetails, nil
}

func (m *observablesMode) ProcessModeChange(now time.Time) *rqconsole.Command {
	return m.ModeChangeCommand(now)
}

func (m *observablesMode) Drive(now time.Time) *Kind {
	return nil
}

func (m *observablesMode) AffectedByTimeout() bool {
	return m.State() != CoreIdle
}

func (m *observablesMode) CoreState() CoreState { return m.State() }

func (m *observablesMode) EnterFailure(now time.Time) { m.Core.EnterFailure(now) }
func (m *observablesMode) Reopened(now time.Time)     { m.Core.Reopened(now) }
