package rqconsole

// consort.go is the request/response serializer: it owns the sentence
// framer and at most one Alive Transaction, tracking one outstanding
// request until its reply arrives or is rejected, correlated by
// transaction id plus source/recipient association.

// Consort serializes outbound commands and correlates inbound sentences with
// the single outstanding transaction.
type Consort struct {
	me     Node
	dest   Node
	framer *Framer
	tx     *Transaction
	nextID int
}

// NewConsort builds a Consort speaking as me to dest. Transaction ids start
// at 1, matching the wire examples.
func NewConsort(me, dest Node) *Consort {
	return &Consort{me: me, dest: dest, framer: NewFramer(), nextID: 1}
}

// Busy reports whether a transaction is currently Alive.
func (c *Consort) Busy() bool { return c.tx != nil && c.tx.State() == TransactionAlive }

// Reset discards any in-flight transaction without reporting an error to the
// caller; used when the model has decided the link needs a full retry cycle.
func (c *Consort) Reset() {
	c.tx = nil
}

// nextTransactionID returns the next id and advances the generator mod 1000.
func (c *Consort) nextTransactionID() int {
	id := c.nextID
	c.nextID = (c.nextID + 1) % 1000
	return id
}

// SendCommand serializes cmd as a new transaction and writes it to w. It
// fails with ErrActiveTransaction if a transaction is already Alive.
func (c *Consort) SendCommand(cmd Command, w func([]byte) error) error {
	if c.Busy() {
		return ErrActiveTransaction
	}
	id := c.nextTransactionID()
	tx := newTransaction(c.me, c.dest, id, cmd)
	buf, err := tx.Commandeer(nil)
	if err != nil {
		return err
	}
	if err := w(buf); err != nil {
		return err
	}
	c.tx = tx
	return nil
}

// Feed drains bytes through the sentence framer one byte at a time and
// stops at the first completed frame, even if bytes remain unconsumed: it
// returns how many bytes of the input it actually used, so the caller can
// retain the rest and feed it back once it has reacted to this frame's
// outcome (a Response, or an error - ErrSpuriousSentence if no transaction
// is Alive, or any parse/association failure from the Transaction). If no
// frame completes, every byte is consumed and the returned count equals
// len(bytes).
func (c *Consort) Feed(bytes []byte) (resp Response, got bool, consumed int, err error) {
	emit := func(sentence []byte) {
		got = true
		if c.tx == nil {
			err = ErrSpuriousSentence
			return
		}
		resp, err = c.tx.ProcessResponse(sentence)
		if c.tx.State() == TransactionDead {
			c.tx = nil
		}
	}
	overflow := func() {
		// An oversize frame never resolves a transaction; framing simply
		// resumes. Feed does not report the overflow to its caller.
	}
	consumed = c.framer.Feed(bytes, emit, overflow)
	if !got {
		return Response{}, false, consumed, nil
	}
	return resp, true, consumed, err
}
