// Package regmap provides width-checked access to the controller registers.
//
// Register descriptors are generated ahead of time from tps6699x.yaml by
// cmd/tpsregen. The schema source is never interpreted at runtime.
package regmap

//go:generate go run ../cmd/tpsregen -schema tps6699x.yaml -output registers_gen.go -package regmap

import (
	"fmt"

	"github.com/oxplot/go-tps6699x"
)

// Access is the access mode of a register.
type Access uint8

// Register access modes.
const (
	ReadOnly Access = iota + 1
	WriteOnly
	ReadWrite
)

// CanRead returns true if the register can be read.
func (a Access) CanRead() bool {
	return a == ReadOnly || a == ReadWrite
}

// CanWrite returns true if the register can be written.
func (a Access) CanWrite() bool {
	return a == WriteOnly || a == ReadWrite
}

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// Field is a named bit range within a register's little-endian byte image.
type Field struct {
	Name   string
	Offset uint16 // first bit, counted from bit 0 of byte 0
	Width  uint8  // number of bits, at most 64
}

// Get extracts the field value from the register image b. b must be at least
// as long as the register the field belongs to.
func (f Field) Get(b []byte) uint64 {
	var v uint64
	for i := uint16(0); i < uint16(f.Width); i++ {
		bit := f.Offset + i
		if b[bit/8]&(1<<(bit%8)) != 0 {
			v |= 1 << i
		}
	}
	return v
}

// Set stores v into the field of the register image b. Bits of v beyond the
// field width are ignored.
func (f Field) Set(b []byte, v uint64) {
	for i := uint16(0); i < uint16(f.Width); i++ {
		bit := f.Offset + i
		if v&(1<<i) != 0 {
			b[bit/8] |= 1 << (bit % 8)
		} else {
			b[bit/8] &^= 1 << (bit % 8)
		}
	}
}

// IsSet returns true if a single bit field is set in b.
func (f Field) IsSet(b []byte) bool {
	return f.Get(b) != 0
}

// Descriptor describes one register. Descriptors are immutable.
type Descriptor struct {
	Name    string
	Address uint8
	Width   int // bytes
	Access  Access
	Fields  []Field
}

// Field returns the named field of the register.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(0x%02X)", d.Name, d.Address)
}

// Lookup returns the descriptor of the register at addr.
func Lookup(addr uint8) (Descriptor, bool) {
	for _, d := range Registers {
		if d.Address == addr {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Map gives register access to a single port over a transport. Each Read or
// Write performs exactly one transport call; there is no caching or retry.
type Map struct {
	t    tps6699x.Transport
	port tps6699x.PortID
}

// New returns a register map for port over t.
func New(t tps6699x.Transport, port tps6699x.PortID) *Map {
	return &Map{t: t, port: port}
}

// Port returns the port the map is bound to.
func (m *Map) Port() tps6699x.PortID {
	return m.port
}

// Read reads the register described by d. It fails with ErrInvalidResponse if
// the device reports a payload length other than d.Width.
func (m *Map) Read(d Descriptor) ([]byte, error) {
	if !d.Access.CanRead() {
		return nil, fmt.Errorf("regmap: read %s: %w", d, tps6699x.ErrAccess)
	}
	b := make([]byte, d.Width)
	n, err := m.t.ReadRegister(m.port, d.Address, b)
	if err != nil {
		return nil, fmt.Errorf("regmap: read %s: %w: %w", d, tps6699x.ErrBus, err)
	}
	if n != d.Width {
		return nil, fmt.Errorf("regmap: read %s: device reported %d bytes, want %d: %w", d, n, d.Width, tps6699x.ErrInvalidResponse)
	}
	return b, nil
}

// Write writes data to the register described by d. len(data) must equal
// d.Width.
func (m *Map) Write(d Descriptor, data []byte) error {
	if !d.Access.CanWrite() {
		return fmt.Errorf("regmap: write %s: %w", d, tps6699x.ErrAccess)
	}
	if len(data) != d.Width {
		return fmt.Errorf("regmap: write %s: got %d bytes, want %d: %w", d, len(data), d.Width, tps6699x.ErrInvalidWidth)
	}
	if err := m.t.WriteRegister(m.port, d.Address, data); err != nil {
		return fmt.Errorf("regmap: write %s: %w: %w", d, tps6699x.ErrBus, err)
	}
	return nil
}
