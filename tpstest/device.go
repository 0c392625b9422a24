// Package tpstest provides a simulated TPS6699x controller for tests.
package tpstest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/regmap"
)

// Response is how the simulated controller answers a command.
type Response struct {
	Return uint8  // DATA1 byte 0
	Data   []byte // DATA1 from byte 1

	// Polls is the number of CMD1 reads that still show the command as
	// outstanding. A negative value means the command only completes through
	// Device.Complete.
	Polls int

	// Nack leaves !CMD in CMD1 on completion.
	Nack bool

	// Mode, if set, is stored in MODE on completion.
	Mode string
}

// Access is a register transaction seen by the device.
type Access struct {
	Write bool
	Port  tps6699x.PortID
	Reg   uint8
	Data  []byte
}

// Burst is a write to the broadcast address.
type Burst struct {
	Addr uint16
	Data []byte
}

type pending struct {
	resp  Response
	polls int
}

// Device simulates the register interface of a controller. It is safe for
// concurrent use.
type Device struct {
	mu       sync.Mutex
	ports    int
	regs     map[tps6699x.PortID]map[uint8][]byte
	cmd      map[tps6699x.PortID]*pending
	resp     map[string]Response
	fail     map[uint8]error
	log      []Access
	bursts   []Burst
	burstErr error
	complete func(port tps6699x.PortID)
}

var (
	_ tps6699x.Transport   = (*Device)(nil)
	_ tps6699x.Broadcaster = (*Device)(nil)
)

// NewDevice returns an idle controller with the given number of ports.
func NewDevice(ports int) *Device {
	d := &Device{
		ports: ports,
		regs:  map[tps6699x.PortID]map[uint8][]byte{},
		cmd:   map[tps6699x.PortID]*pending{},
		resp:  map[string]Response{},
		fail:  map[uint8]error{},
	}
	for p := 0; p < ports; p++ {
		m := map[uint8][]byte{}
		for _, r := range regmap.Registers {
			m[r.Address] = make([]byte, r.Width)
		}
		d.regs[tps6699x.PortID(p)] = m
	}
	return d
}

// Respond sets the response to the 4CC command cc. Commands without a
// response complete on the first poll with a zero return code.
func (d *Device) Respond(cc string, r Response) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resp[cc] = r
}

// Fail makes every transaction on register reg fail with err. A nil err
// removes the failure.
func (d *Device) Fail(reg uint8, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, reg)
		return
	}
	d.fail[reg] = err
}

// FailBroadcast makes every broadcast write fail with err. A nil err removes
// the failure.
func (d *Device) FailBroadcast(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.burstErr = err
}

// Bursts returns the broadcast writes so far.
func (d *Device) Bursts() []Burst {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Burst(nil), d.bursts...)
}

// OnComplete registers f to be called, without the device lock held, each
// time a command completes.
func (d *Device) OnComplete(f func(port tps6699x.PortID)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.complete = f
}

// Set stores a register image.
func (d *Device) Set(port tps6699x.PortID, r regmap.Descriptor, img []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := make([]byte, r.Width)
	copy(b, img)
	d.regs[port][r.Address] = b
}

// Get returns a copy of a register image.
func (d *Device) Get(port tps6699x.PortID, r regmap.Descriptor) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.regs[port][r.Address]...)
}

// SetField sets a field of a register.
func (d *Device) SetField(port tps6699x.PortID, r regmap.Descriptor, f regmap.Field, v uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f.Set(d.regs[port][r.Address], v)
}

// Raise sets interrupt flags in INT_EVENT_BUS1.
func (d *Device) Raise(port tps6699x.PortID, flags ...regmap.Field) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range flags {
		f.Set(d.regs[port][regmap.IntEventBus1.Address], 1)
	}
}

// Log returns all transactions so far.
func (d *Device) Log() []Access {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Access(nil), d.log...)
}

// Writes returns the write transactions so far.
func (d *Device) Writes() []Access {
	var w []Access
	for _, a := range d.Log() {
		if a.Write {
			w = append(w, a)
		}
	}
	return w
}

// ResetLog forgets all recorded transactions.
func (d *Device) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = nil
}

// Complete finishes the command outstanding on port, if any.
func (d *Device) Complete(port tps6699x.PortID) {
	d.mu.Lock()
	f := d.finish(port)
	d.mu.Unlock()
	if f != nil {
		f(port)
	}
}

// finish must be called with the lock held. It returns the completion
// callback to run once the lock is released.
func (d *Device) finish(port tps6699x.PortID) func(tps6699x.PortID) {
	p := d.cmd[port]
	if p == nil {
		return nil
	}
	delete(d.cmd, port)
	regs := d.regs[port]
	cmd1 := regs[regmap.Cmd1.Address]
	if p.resp.Nack {
		copy(cmd1, "!CMD")
	} else {
		clear(cmd1)
		data1 := regs[regmap.Data1.Address]
		clear(data1)
		data1[0] = p.resp.Return
		copy(data1[1:], p.resp.Data)
	}
	if p.resp.Mode != "" {
		for _, r := range d.regs {
			copy(r[regmap.Mode.Address], p.resp.Mode)
		}
	}
	regmap.IntEventBus1Cmd1Completed.Set(regs[regmap.IntEventBus1.Address], 1)
	return d.complete
}

func (d *Device) check(port tps6699x.PortID, reg uint8) error {
	if int(port) >= d.ports {
		return tps6699x.ErrInvalidPort
	}
	if err := d.fail[reg]; err != nil {
		return err
	}
	if _, ok := d.regs[port][reg]; !ok {
		return fmt.Errorf("tpstest: no register 0x%02X", reg)
	}
	return nil
}

func (d *Device) ReadRegister(port tps6699x.PortID, reg uint8, p []byte) (int, error) {
	d.mu.Lock()
	if err := d.check(port, reg); err != nil {
		d.mu.Unlock()
		return 0, err
	}
	var done func(tps6699x.PortID)
	if reg == regmap.Cmd1.Address {
		if c := d.cmd[port]; c != nil && c.polls >= 0 {
			if c.polls == 0 {
				done = d.finish(port)
			} else {
				c.polls--
			}
		}
	}
	img := d.regs[port][reg]
	copy(p, img)
	d.log = append(d.log, Access{Port: port, Reg: reg, Data: append([]byte(nil), img...)})
	d.mu.Unlock()
	if done != nil {
		done(port)
	}
	return len(img), nil
}

func (d *Device) WriteRegister(port tps6699x.PortID, reg uint8, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(port, reg); err != nil {
		return err
	}
	d.log = append(d.log, Access{Write: true, Port: port, Reg: reg, Data: append([]byte(nil), p...)})
	regs := d.regs[port]
	switch reg {
	case regmap.IntClearBus1.Address:
		ev := regs[regmap.IntEventBus1.Address]
		for i := range ev {
			if i < len(p) {
				ev[i] &^= p[i]
			}
		}
	case regmap.Cmd1.Address:
		if len(p) != 4 {
			return errors.New("tpstest: short CMD1 write")
		}
		copy(regs[reg], p)
		r := d.resp[string(p)]
		d.cmd[port] = &pending{resp: r, polls: r.Polls}
	default:
		copy(regs[reg], p)
	}
	return nil
}

func (d *Device) Broadcast(addr uint16, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.burstErr != nil {
		return d.burstErr
	}
	d.bursts = append(d.bursts, Burst{Addr: addr, Data: append([]byte(nil), p...)})
	return nil
}
