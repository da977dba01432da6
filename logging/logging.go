// Package logging provides a small printf-style logging sink, backed by
// logrus instead of raw stdout.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Sink receives a printf-style specifier and logs it somewhere.
type Sink interface {
	Printf(string, ...interface{})
}

// Logrus is a Sink that writes through logrus at Info level.
type Logrus struct{}

// Printf implements Sink.
func (Logrus) Printf(format string, v ...interface{}) {
	logrus.Infof(format, v...)
}

// Configure sets logrus's level and formatter for the console binary.
func Configure(debug bool) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
