package rqconsole

// transaction.go implements one outstanding command and its correlated
// response. A Transaction dies as soon as a response whose header parses is
// accepted or rejected; a frame that fails framing, checksum or header
// parsing is rejected without changing its state.

// TransactionState is {Alive, Dead}.
type TransactionState uint8

const (
	TransactionAlive TransactionState = iota
	TransactionDead
)

// Transaction tracks exactly one outbound Command awaiting its correlated
// Response.
type Transaction struct {
	Source    Node
	Recipient Node
	ID        int
	Command   Command
	state     TransactionState
}

// newTransaction builds an Alive transaction for cmd.
func newTransaction(source, recipient Node, id int, cmd Command) *Transaction {
	return &Transaction{Source: source, Recipient: recipient, ID: id, Command: cmd, state: TransactionAlive}
}

// State reports whether this transaction can still accept a response.
func (t *Transaction) State() TransactionState { return t.state }

// Commandeer serializes the transaction's command into a full "$...*HH\r\n"
// sentence, appended to dst.
func (t *Transaction) Commandeer(dst []byte) ([]byte, error) {
	payload := formatCommand(t.Source, t.Recipient, t.ID, t.Command)
	if len(payload) > 76 {
		return nil, ErrBufferLength
	}
	return emitSentence(dst, payload)
}

// ProcessResponse verifies framing/checksum, parses the sentence as an
// acknowledgement, checks id/source/recipient association, and invokes the
// command-specific echo verification. Framing, checksum and header-parse
// errors leave the transaction Alive; once the header parses, acceptance or
// any rejection (NAK, association mismatch, bad echo or trailer) makes it
// Dead. A Dead transaction rejects further calls.
func (t *Transaction) ProcessResponse(frame []byte) (Response, error) {
	if t.state == TransactionDead {
		return Response{}, ErrSpuriousSentence
	}

	payload, err := verifySentence(frame)
	if err != nil {
		return Response{}, err
	}
	parsed, err := parseSentencePayload(payload)
	if err != nil {
		return Response{}, err
	}

	if parsed.kind == sentenceNak {
		t.state = TransactionDead
		return Response{}, ErrNak
	}

	if parsed.id != t.ID || parsed.source != t.Recipient || parsed.recipient != t.Source {
		t.state = TransactionDead
		return Response{}, ErrInvalidAssociation
	}

	var resp Response
	switch parsed.kind {
	case sentenceAck:
		resp, err = parseAckEcho(t.Command, parsed.rest)
	case sentenceObg:
		var raw RawObservablesGroup
		raw, err = parseObservableGroup(parsed.rest)
		resp = Response{Kind: ResponseObservableGroup, Observables: raw}
	}
	if err != nil {
		t.state = TransactionDead
		return Response{}, err
	}

	resp.Source, resp.Recipient, resp.ID = parsed.source, parsed.recipient, parsed.id
	t.state = TransactionDead
	return resp, nil
}
