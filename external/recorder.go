// Package external holds the collaborator contracts the model depends on
// but does not own: the disk recorder and the short-range telemetry ingest.
// Concrete implementations (a real file, a real NRF24 driver) are free to
// live outside this module.
package external

import (
	"os"
	"time"
)

// Recorder accepts raw wire bytes for append-only capture, flushing in
// chunks. Whether Store can block depends on the implementation (see
// fileRecorder).
type Recorder interface {
	Store(b byte)
	WriteBuffer(buf []byte)
	Close() error
}

const flushThreshold = 1024

// fileRecorder is a Recorder backed by a single file and a background
// goroutine: a channel of Store/Quit commands buffered to 4096 entries,
// buffering writes until more than flushThreshold bytes have accumulated.
type fileRecorder struct {
	commands chan recorderCommand
	done     chan struct{}
}

type recorderCommand struct {
	quit bool
	b    byte
}

// NewFileRecorder opens path and starts its background writer goroutine.
func NewFileRecorder(path string) (Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := &fileRecorder{
		commands: make(chan recorderCommand, 4096),
		done:     make(chan struct{}),
	}
	go r.run(f)
	return r, nil
}

func (r *fileRecorder) run(f *os.File) {
	defer close(r.done)
	defer f.Close()
	buf := make([]byte, 0, flushThreshold*2)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		f.Write(buf)
		buf = buf[:0]
	}
	for cmd := range r.commands {
		if cmd.quit {
			flush()
			return
		}
		buf = append(buf, cmd.b)
		if len(buf) > flushThreshold {
			flush()
		}
	}
}

// Store enqueues a single byte. It returns at once while the command channel
// has room; once 4096 commands are pending it blocks until the writer
// goroutine catches up.
func (r *fileRecorder) Store(b byte) {
	r.commands <- recorderCommand{b: b}
}

// WriteBuffer enqueues every byte of buf.
func (r *fileRecorder) WriteBuffer(buf []byte) {
	for _, b := range buf {
		r.Store(b)
	}
}

// Close signals the writer goroutine to flush and exit, then waits for it.
func (r *fileRecorder) Close() error {
	r.commands <- recorderCommand{quit: true}
	<-r.done
	return nil
}

// DefaultRecorderPath builds a timestamped default log filename.
func DefaultRecorderPath(now time.Time) string {
	return now.Format("2006-01-02_15-04") + "-rqa.log"
}

// NoopRecorder discards everything; used when recording is disabled via
// the console's --no-record flag.
type NoopRecorder struct{}

func (NoopRecorder) Store(byte)          {}
func (NoopRecorder) WriteBuffer([]byte)  {}
func (NoopRecorder) Close() error        { return nil }
