package external

import (
	"time"

	"github.com/spirilis/rqconsole"
)

// TelemetryFrame is one short-range telemetry packet attributed to a Node.
type TelemetryFrame struct {
	Node    rqconsole.Node
	Payload [32]byte
}

// TelemetryData is either a Frame from a known node, or NoModule reporting
// that the given node's onboard radio module is absent/unresponsive.
type TelemetryData struct {
	Frame    *TelemetryFrame
	NoModule *rqconsole.Node
}

// NRFConnector is the short-range telemetry ingest contract: the model
// polls Drive() each tick and attributes incoming packets to their Node.
// A real NRF24L01 SPI driver and its redistribution layer are out of
// scope; this is the seam a concrete implementation plugs into.
type NRFConnector interface {
	RegisteredNodes() []rqconsole.Node
	HeardFromSince(n rqconsole.Node) time.Duration
	Drive() []TelemetryData
}

// nodeRegistry maps each Node to when it was last heard from and answers
// HeardFromSince lookups by key. It has no registration method; nothing in
// NoopNRFConnector adds an entry, so its registry stays empty.
type nodeRegistry struct {
	lastHeard map[rqconsole.Node]time.Time
}

// NoopNRFConnector is a telemetry connector with no underlying radio; it
// never registers a node and never produces frames, so RegisteredNodes is
// always empty and HeardFromSince always returns 0. Useful as the
// default when the console runs without short-range telemetry hardware
// attached.
type NoopNRFConnector struct {
	registry nodeRegistry
	now      func() time.Time
}

// NewNoopNRFConnector returns a NoopNRFConnector using now for timestamps.
func NewNoopNRFConnector(now func() time.Time) *NoopNRFConnector {
	return &NoopNRFConnector{registry: nodeRegistry{lastHeard: make(map[rqconsole.Node]time.Time)}, now: now}
}

func (c *NoopNRFConnector) RegisteredNodes() []rqconsole.Node {
	nodes := make([]rqconsole.Node, 0, len(c.registry.lastHeard))
	for n := range c.registry.lastHeard {
		nodes = append(nodes, n)
	}
	return nodes
}

func (c *NoopNRFConnector) HeardFromSince(n rqconsole.Node) time.Duration {
	t, ok := c.registry.lastHeard[n]
	if !ok {
		return 0
	}
	return c.now().Sub(t)
}

func (c *NoopNRFConnector) Drive() []TelemetryData { return nil }
