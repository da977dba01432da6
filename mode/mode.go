// Package mode implements the three parallel, operator-facing state machines
// (Observables, LaunchControl, RFSilence), each embedding the shared
// CoreConnection lifecycle. Mode state is expressed as Go structs with an
// explicit Kind tag and a capability set dispatched through the Mode
// interface: Core transitions live once in core.go and every mode delegates
// to them.
package mode

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// Kind discriminates the three top-level operator-facing modes.
type Kind uint8

const (
	KindObservables Kind = iota
	KindLaunchControl
	KindRFSilence
)

// String renders a Kind for status lines and log fields.
func (k Kind) String() string {
	switch k {
	case KindLaunchControl:
		return "LaunchControl"
	case KindRFSilence:
		return "RFSilence"
	default:
		return "Observables"
	}
}

// ControlArea is which part of the operator UI currently owns input focus.
type ControlArea uint8

const (
	ControlTabs ControlArea = iota
	ControlDetails
)

// InputKind enumerates the operator input events.
type InputKind uint8

const (
	InputEnter InputKind = iota
	InputBack
	InputLeft
	InputRight
	InputSend
)

// Input is one operator input event; Magnitude is only meaningful for
// Left/Right. Send is recognized but currently consumed by no active state.
type Input struct {
	Kind      InputKind
	Magnitude uint32
}

// AutoResetTimeout is the global auto-reset window: 120s without a state
// change in a timeout-affected state forces a full reset cycle.
const AutoResetTimeout = 120 * time.Second

// Mode is the capability set every top-level mode implements.
type Mode interface {
	Kind() Kind
	// ProcessResponse applies a correlated protocol reply.
	ProcessResponse(resp rqconsole.Response, now time.Time)
	// ProcessEvent applies operator input, returning the resulting control
	// area and, if the input should switch to a different top-level mode
	// (Tabs navigation), the Kind to switch to.
	ProcessEvent(ev Input, now time.Time) (ControlArea, *Kind)
	// ProcessModeChange returns a command to send if the state just entered
	// implies one, consuming that obligation.
	ProcessModeChange(now time.Time) *rqconsole.Command
	// Drive applies time-driven self-transitions (progress decay, timeout
	// expiries) and returns a Kind if this tick requests switching to a
	// different top-level mode.
	Drive(now time.Time) *Kind
	// AffectedByTimeout reports whether AutoResetTimeout applies to the
	// current state.
	AffectedByTimeout() bool
	// CoreState exposes the embedded connection submachine's state.
	CoreState() CoreState
	// EnterFailure and Reopened let the model drive the shared Core
	// submachine on connection errors / re-opens without reaching into
	// mode-specific fields.
	EnterFailure(now time.Time)
	Reopened(now time.Time)
	// LastStateChange is when this mode's state last changed, the basis for
	// AutoResetTimeout.
	LastStateChange() time.Time
}

// New constructs a fresh Mode of the given kind, entering CoreStart.
func New(kind Kind, now time.Time) Mode {
	switch kind {
	case KindLaunchControl:
		return newLaunchControlMode(now)
	case KindRFSilence:
		return newRFSilenceMode(now)
	default:
		return newObservablesMode(now)
	}
}
