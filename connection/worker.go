// Package connection isolates the radio link on its own goroutine behind a
// non-blocking write/recv/drain/reset/resume/open surface. The reader and
// writer each run their own goroutine and hand data to the model only
// through channels; sentence framing itself lives in the Consort the model
// drives, not in the worker, so the worker only ever moves raw byte chunks.
package connection

import (
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"

	"github.com/spirilis/rqconsole"
)

// OpenFunc opens the underlying transport. The production implementation
// wraps github.com/jacobsa/go-serial/serial.Open; tests supply an in-memory
// io.ReadWriteCloser instead.
type OpenFunc func(path string, baud uint) (io.ReadWriteCloser, error)

// OpenSerial is the default OpenFunc, backed by jacobsa/go-serial.
func OpenSerial(path string, baud uint) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        path,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	})
}

const defaultTimeoutWindow = 5 * time.Second

// Worker runs the radio link on a dedicated background goroutine and
// surfaces a non-blocking write/recv/drain/reset/resume/open surface to the
// model coordinator.
type Worker struct {
	open          OpenFunc
	timeoutWindow time.Duration

	mu  sync.Mutex
	phy io.ReadWriteCloser

	outbox  chan []byte
	answers chan Answer
	readerQ chan struct{}
}

// NewWorker returns a Worker that has not yet opened a port.
func NewWorker(open OpenFunc, timeoutWindow time.Duration) *Worker {
	if timeoutWindow <= 0 {
		timeoutWindow = defaultTimeoutWindow
	}
	return &Worker{
		open:          open,
		timeoutWindow: timeoutWindow,
		outbox:        make(chan []byte, 32),
		answers:       make(chan Answer, 64),
	}
}

// Open replaces the underlying transport, tearing down any previous reader
// goroutine and starting fresh ones against the new port.
func (w *Worker) Open(path string, baud uint) {
	go func() {
		phy, err := w.open(path, baud)
		w.mu.Lock()
		if w.phy != nil {
			w.phy.Close()
		}
		if w.readerQ != nil {
			close(w.readerQ)
		}
		if err != nil {
			w.phy = nil
			w.mu.Unlock()
			w.pushAnswer(Answer{Kind: AnswerConnectionError, Err: err})
			return
		}
		w.phy = phy
		stop := make(chan struct{})
		w.readerQ = stop
		w.mu.Unlock()

		go w.readerLoop(phy, stop)
		go w.writerLoop(phy, stop)
		w.pushAnswer(Answer{Kind: AnswerConnectionOpen})
	}()
}

// readerLoop reads from phy until it closes or errors, surfacing Received
// chunks. A zero-length, error-free read is surfaced as Timeout; that is the
// only source of Timeout events, and w.timeoutWindow is not consulted here
// or anywhere else in the worker.
func (w *Worker) readerLoop(phy io.ReadWriteCloser, stop chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := phy.Read(buf)
		if err != nil {
			w.pushAnswer(Answer{Kind: AnswerConnectionError, Err: err})
			return
		}
		if n == 0 {
			w.pushAnswer(Answer{Kind: AnswerTimeout})
			continue
		}
		chunk := append([]byte(nil), buf[:n]...)
		w.pushAnswer(Answer{Kind: AnswerReceived, Bytes: chunk})
	}
}

// writerLoop serializes writes to phy so outbound bytes never interleave.
func (w *Worker) writerLoop(phy io.ReadWriteCloser, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case buf := <-w.outbox:
			if _, err := phy.Write(buf); err != nil {
				w.pushAnswer(Answer{Kind: AnswerConnectionError, Err: err})
				return
			}
		}
	}
}

func (w *Worker) pushAnswer(a Answer) {
	select {
	case w.answers <- a:
	default:
		logrus.Warn("connection: answer queue full, dropping event")
	}
}

// Write enqueues outbound bytes without blocking the caller.
func (w *Worker) Write(buf []byte) {
	select {
	case w.outbox <- buf:
	default:
		logrus.Warn("connection: outbound queue full, dropping write")
	}
}

// Recv invokes callback at most once with the next pending Answer, returning
// immediately if none is queued.
func (w *Worker) Recv(callback func(Answer)) {
	select {
	case a := <-w.answers:
		callback(a)
	default:
	}
}

// InjectObservables merges an out-of-band telemetry snapshot into the same
// Answer stream recv() drains, so the model applies it through a single
// observables path regardless of where the snapshot originated.
func (w *Worker) InjectObservables(raw rqconsole.RawObservablesGroup) {
	w.pushAnswer(Answer{Kind: AnswerObservables, Observables: raw})
}

// Drain discards any pending inbound answers, non-blockingly.
func (w *Worker) Drain() {
	for {
		select {
		case <-w.answers:
		default:
			w.pushAnswer(Answer{Kind: AnswerDrained})
			return
		}
	}
}

// Reset signals that the in-flight request has been cancelled; the worker
// discards pending inbound state the same way Drain does.
func (w *Worker) Reset() {
	w.Drain()
}

// Resume signals that a request was correctly answered and normal traffic
// may continue; it carries no buffered state to release, but exists to
// round out the worker's control surface alongside Drain/Reset.
func (w *Worker) Resume() {}

// Close tears down the background goroutines and the underlying transport.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readerQ != nil {
		close(w.readerQ)
		w.readerQ = nil
	}
	if w.phy != nil {
		w.phy.Close()
		w.phy = nil
	}
}
