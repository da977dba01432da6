// Command rqconsole is the ground-side launch control console binary. It
// takes --device/--baud to open the radio link, --mode to pick the initial
// screen, and --no-record to skip capturing raw wire traffic to disk.
package main

import (
	"fmt"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sirupsen/logrus"

	"github.com/spirilis/rqconsole"
	"github.com/spirilis/rqconsole/clock"
	"github.com/spirilis/rqconsole/connection"
	"github.com/spirilis/rqconsole/external"
	"github.com/spirilis/rqconsole/logging"
	"github.com/spirilis/rqconsole/mode"
	"github.com/spirilis/rqconsole/model"
)

var (
	serialPath = kingpin.Flag("device", "Path to serial port device").Required().String()
	baudRate   = kingpin.Flag("baud", "Serial port baudrate").Default("57600").Uint()
	initMode   = kingpin.Flag("mode", "Initial mode: observables|launchcontrol|rfsilence").Default("observables").String()
	noRecord   = kingpin.Flag("no-record", "Disable the disk recorder").Bool()
	debug      = kingpin.Flag("debug", "Enable debug logging").Bool()
	avionicsID = kingpin.Flag("avionics-id", "Single-character RedQueen node identifier").Default("A").String()
)

func parseInitialMode(s string) (mode.Kind, error) {
	switch s {
	case "observables":
		return mode.KindObservables, nil
	case "launchcontrol":
		return mode.KindLaunchControl, nil
	case "rfsilence":
		return mode.KindRFSilence, nil
	default:
		return 0, fmt.Errorf("unrecognized --mode %q", s)
	}
}

func main() {
	kingpin.Version("0.1")
	kingpin.Parse()
	logging.Configure(*debug)

	initial, err := parseInitialMode(*initMode)
	if err != nil {
		logrus.WithError(err).Fatal("rqconsole: bad --mode flag")
	}
	if len(*avionicsID) != 1 {
		logrus.Fatal("rqconsole: --avionics-id must be exactly one character")
	}

	var recorder external.Recorder = external.NoopRecorder{}
	if !*noRecord {
		path := external.DefaultRecorderPath(time.Now())
		recorder, err = external.NewFileRecorder(path)
		if err != nil {
			logrus.WithError(err).Fatal("rqconsole: could not open recorder file")
		}
		logrus.WithField("path", path).Info("rqconsole: recording to file")
	}
	defer recorder.Close()

	worker := connection.NewWorker(connection.OpenSerial, 5*time.Second)
	worker.Open(*serialPath, *baudRate)
	defer worker.Close()

	telemetry := external.NewNoopNRFConnector(time.Now)

	dest := rqconsole.RedQueen((*avionicsID)[0])
	m := model.New(initial, rqconsole.LaunchControl, dest, worker, clock.System{}, recorder, telemetry)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		m.Drive()
		logStatus(m)
	}
}

func logStatus(m *model.Model) {
	logrus.WithFields(logrus.Fields{
		"mode":      m.Mode().Kind(),
		"core":      m.Mode().CoreState(),
		"connected": m.Connected(),
	}).Debug("rqconsole: tick")
}
