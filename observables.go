package rqconsole

// observables.go defines the unsolicited OG1/OG2 snapshots broadcast by the
// avionics node. OG1 carries a clock/uptime pair plus an arbitrary slice of
// ADC channel readings. OG2 carries recorder state, filename-or-error,
// anomaly and record counts, battery voltage, and pyro continuity.

// RecorderState is the avionics-side recorder status letter carried in OG2.
type RecorderState byte

const (
	RecorderUnrecorded RecorderState = 'U'
	RecorderPrimed     RecorderState = 'P'
	RecorderError      RecorderState = 'E'
	RecorderRecording  RecorderState = 'R'
)

// ObservablesGroup1 is the periodic sensor snapshot.
type ObservablesGroup1 struct {
	ClockFreq uint32
	Uptime    uint64
	ADC       []int32
}

// ObservablesGroup2 is the recorder/health snapshot.
type ObservablesGroup2 struct {
	State            RecorderState
	FilenameOrError  []byte
	Anomalies        uint32
	Records          uint32
	VoltageMillivolt uint16
	PyroStatus       uint8
}

// RawObservablesGroup carries exactly one of the two observable snapshots.
type RawObservablesGroup struct {
	Group1 *ObservablesGroup1
	Group2 *ObservablesGroup2
}
