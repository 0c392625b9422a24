// Package bus implements register transports for the TPS6699x host interface
// and capture/replay of register traffic.
package bus

import (
	"fmt"

	"github.com/oxplot/go-tps6699x"
)

// I2C defines a minimum interface to I2C hardware with a single Tx method
// which allows the driver to work across many different µControllers and host
// platforms. periph.io i2c.Bus and TinyGo machine.I2C both satisfy it.
type I2C interface {

	// Tx performs a write and then a read transfer placing the result in r. Tx
	// must be safe to call concurrently from multiple goroutines.
	//
	// Passing a nil value for w or r skips the transfer corresponding to write
	// or read, respectively.
	Tx(addr uint16, w, r []byte) error
}

// I2C address sets selected by the controller's ADDR strap. The index is the
// port number.
var (
	Addr0 = []uint16{0x20, 0x24}
	Addr1 = []uint16{0x21, 0x25}
)

// maxPayload is the largest payload a register frame can carry, bounded by the
// single length byte.
const maxPayload = 255

// I2CTransport implements tps6699x.Transport over I2C. Each port of the
// controller answers on its own address.
//
// Register frames are length prefixed. A write sends [reg, len, data...]. A
// read writes [reg] and then reads [len, data...], where len is the payload
// length the controller reports for the register.
type I2CTransport struct {
	bus   I2C
	addrs []uint16
}

var (
	_ tps6699x.Transport   = (*I2CTransport)(nil)
	_ tps6699x.Broadcaster = (*I2CTransport)(nil)
)

// NewI2CTransport returns a transport for a controller whose ports answer on
// addrs, in port order. With no addrs, Addr0 is used.
func NewI2CTransport(b I2C, addrs ...uint16) *I2CTransport {
	if len(addrs) == 0 {
		addrs = Addr0
	}
	return &I2CTransport{bus: b, addrs: append([]uint16(nil), addrs...)}
}

// Ports returns the number of ports the transport can address.
func (t *I2CTransport) Ports() int {
	return len(t.addrs)
}

func (t *I2CTransport) addr(port tps6699x.PortID) (uint16, error) {
	if int(port) >= len(t.addrs) {
		return 0, fmt.Errorf("bus: port %d: %w", port, tps6699x.ErrInvalidPort)
	}
	return t.addrs[port], nil
}

// ReadRegister reads register reg of port into p and returns the length
// byte reported by the controller.
func (t *I2CTransport) ReadRegister(port tps6699x.PortID, reg uint8, p []byte) (int, error) {
	a, err := t.addr(port)
	if err != nil {
		return 0, err
	}
	if len(p) > maxPayload {
		return 0, fmt.Errorf("bus: read 0x%02X: %d bytes: %w", reg, len(p), tps6699x.ErrInvalidWidth)
	}
	r := make([]byte, len(p)+1)
	if err := t.bus.Tx(a, []byte{reg}, r); err != nil {
		return 0, err
	}
	copy(p, r[1:])
	return int(r[0]), nil
}

// WriteRegister writes p to register reg of port.
func (t *I2CTransport) WriteRegister(port tps6699x.PortID, reg uint8, p []byte) error {
	a, err := t.addr(port)
	if err != nil {
		return err
	}
	if len(p) > maxPayload {
		return fmt.Errorf("bus: write 0x%02X: %d bytes: %w", reg, len(p), tps6699x.ErrInvalidWidth)
	}
	w := make([]byte, len(p)+2)
	w[0] = reg
	w[1] = uint8(len(p))
	copy(w[2:], p)
	return t.bus.Tx(a, w, nil)
}

// Broadcast writes p as is to addr, used to stream firmware blocks to every
// controller in update mode at once.
func (t *I2CTransport) Broadcast(addr uint16, p []byte) error {
	return t.bus.Tx(addr, p, nil)
}
