package connection

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spirilis/rqconsole"
)

// testLink is an in-memory io.ReadWriteCloser for driving Worker without a
// real serial device.
type testLink struct {
	canned      []byte
	dump        bytes.Buffer
	waitForMore chan bool
	active      bool
}

func newTestLink(canned []byte) *testLink {
	return &testLink{canned: canned, waitForMore: make(chan bool, 1), active: true}
}

func (l *testLink) Read(p []byte) (int, error) {
	if !l.active {
		return 0, errors.New("link closed")
	}
	if len(l.canned) == 0 {
		<-l.waitForMore
		return 0, nil
	}
	n := copy(p, l.canned)
	l.canned = l.canned[n:]
	return n, nil
}

func (l *testLink) Write(p []byte) (int, error) {
	if !l.active {
		return 0, errors.New("link closed")
	}
	return l.dump.Write(p)
}

func (l *testLink) Close() error {
	l.active = false
	return nil
}

func waitForAnswer(t *testing.T, w *Worker, want AnswerKind) Answer {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		var got Answer
		found := false
		w.Recv(func(a Answer) { got = a; found = true })
		if found {
			if got.Kind == want {
				return got
			}
			continue
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for answer kind %v", want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWorkerOpenThenReceivesBytes(t *testing.T) {
	link := newTestLink([]byte("$RQAACK,001,LNC,01*56\r\n"))
	w := NewWorker(func(path string, baud uint) (io.ReadWriteCloser, error) {
		return link, nil
	}, time.Second)

	w.Open("/dev/fake", 57600)
	waitForAnswer(t, w, AnswerConnectionOpen)
	got := waitForAnswer(t, w, AnswerReceived)
	if string(got.Bytes) != "$RQAACK,001,LNC,01*56\r\n" {
		t.Errorf("got %q", got.Bytes)
	}
}

func TestWorkerWriteReachesLink(t *testing.T) {
	link := newTestLink(nil)
	w := NewWorker(func(path string, baud uint) (io.ReadWriteCloser, error) {
		return link, nil
	}, time.Second)
	w.Open("/dev/fake", 57600)
	waitForAnswer(t, w, AnswerConnectionOpen)

	w.Write([]byte("$LNCCMD,001,RQA,RESET,01*2C\r\n"))
	deadline := time.After(2 * time.Second)
	for link.dump.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for write to reach the link")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if link.dump.String() != "$LNCCMD,001,RQA,RESET,01*2C\r\n" {
		t.Errorf("got %q", link.dump.String())
	}
}

func TestWorkerInjectObservablesSurfacesThroughRecv(t *testing.T) {
	w := NewWorker(func(path string, baud uint) (io.ReadWriteCloser, error) {
		return newTestLink(nil), nil
	}, time.Second)

	raw := rqconsole.RawObservablesGroup{Group1: &rqconsole.ObservablesGroup1{ClockFreq: 16000000}}
	w.InjectObservables(raw)
	got := waitForAnswer(t, w, AnswerObservables)
	if got.Observables.Group1 == nil || got.Observables.Group1.ClockFreq != 16000000 {
		t.Errorf("got %+v", got.Observables)
	}
}

func TestWorkerOpenErrorSurfacesConnectionError(t *testing.T) {
	w := NewWorker(func(path string, baud uint) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}, time.Second)
	w.Open("/dev/nonexistent", 57600)
	waitForAnswer(t, w, AnswerConnectionError)
}
