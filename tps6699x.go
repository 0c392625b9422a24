// Package tps6699x defines the shared vocabulary of a driver core for TI
// TPS6699x USB Type-C power delivery port controllers: port identifiers, port
// events and state, the register transport capability and the error taxonomy.
//
// The controller firmware runs the power delivery policy engine itself. The
// host only issues 4CC commands through the CMD1/DATA1 register pair, reads
// status registers and reacts to interrupt flags. Subpackages implement the
// pieces:
//
//   - regmap: typed register descriptors and width-checked register access.
//   - bus: I2C framing and bus capture.
//   - command: command dispatch and completion waiting.
//   - pdevent: decoding of interrupt and status registers into events.
//   - portsm: per-port negotiation state machine.
//   - policy: sink policies choosing a power data object to request.
//   - metrics: instrumentation hooks, with a Prometheus implementation.
//   - driver: the façade combining all of the above.
//
// tpstest simulates a controller for tests and cmd/tpsregen generates the
// register descriptors of regmap.
package tps6699x

import "time"

// PortID identifies a single USB Type-C port of a controller, starting at 0.
type PortID uint8

// Transport provides register level access to the controller. Each call
// performs exactly one bus transaction.
//
// Transport implementations are not synchronized by the driver across ports.
// If multiple ports share one physical bus, the implementation must serialize
// access itself.
type Transport interface {

	// ReadRegister reads register addr of the given port into p. It returns the
	// payload length reported by the device, which may differ from len(p). At
	// most len(p) bytes are copied into p.
	ReadRegister(port PortID, addr uint8, p []byte) (int, error)

	// WriteRegister writes p to register addr of the given port.
	WriteRegister(port PortID, addr uint8, p []byte) error
}

// Broadcaster is implemented by transports that can write raw data to the
// broadcast address the controller listens on during a firmware update.
type Broadcaster interface {

	// Broadcast writes p to the bus address addr in one transfer, without
	// register framing.
	Broadcast(addr uint16, p []byte) error
}

// InterruptLine is the controller interrupt output as seen by the host.
// periph.io gpio.PinIn satisfies this interface.
type InterruptLine interface {

	// WaitForEdge blocks until the line changes to its active level or timeout
	// elapses. It returns true if an edge was detected. A negative timeout
	// waits forever.
	WaitForEdge(timeout time.Duration) bool
}
