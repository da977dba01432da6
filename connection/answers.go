package connection

import "github.com/spirilis/rqconsole"

// AnswerKind discriminates the Answer variant surfaced by recv().
type AnswerKind uint8

const (
	AnswerReceived AnswerKind = iota
	AnswerObservables
	AnswerTimeout
	AnswerConnectionOpen
	AnswerConnectionError
	AnswerDrained
)

// Answer is one event from the connection worker's inbound stream.
type Answer struct {
	Kind        AnswerKind
	Bytes       []byte
	Observables rqconsole.RawObservablesGroup
	Err         error
}
