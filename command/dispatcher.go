// Package command issues 4CC commands to one port of the controller through
// the CMD1/DATA1 register pair and waits for their completion.
package command

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/loopholelabs/logging/types"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/regmap"
)

// Defaults used when the corresponding option is not given.
const (
	DefaultTimeout    = time.Second
	DefaultResetDelay = 1600 * time.Millisecond
)

// Dispatcher runs commands on a single port. At most one command is
// outstanding at a time.
type Dispatcher struct {
	m          *regmap.Map
	s          Strategy
	timeout    time.Duration
	resetDelay time.Duration
	log        types.Logger

	inflight atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the completion bound of Execute.
func WithTimeout(d time.Duration) Option {
	return func(p *Dispatcher) { p.timeout = d }
}

// WithResetDelay sets how long Send waits before confirming a command.
func WithResetDelay(d time.Duration) Option {
	return func(p *Dispatcher) { p.resetDelay = d }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(log types.Logger) Option {
	return func(p *Dispatcher) { p.log = log }
}

// NewDispatcher returns a dispatcher for the port of m observing completion
// with s.
func NewDispatcher(m *regmap.Map, s Strategy, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		m:          m,
		s:          s,
		timeout:    DefaultTimeout,
		resetDelay: DefaultResetDelay,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Port returns the port the dispatcher drives.
func (d *Dispatcher) Port() tps6699x.PortID {
	return d.m.Port()
}

// Busy returns true while a command issued through d is outstanding.
func (d *Dispatcher) Busy() bool {
	return d.inflight.Load()
}

func (d *Dispatcher) acquire(op Opcode) error {
	if !d.inflight.CompareAndSwap(false, true) {
		return fmt.Errorf("command: %s on port %d: %w", op, d.m.Port(), tps6699x.ErrBusy)
	}
	return nil
}

func (d *Dispatcher) release() {
	d.inflight.Store(false)
}

// Reserve takes the in-flight slot without issuing a command, so that Execute
// and Send fail with ErrBusy until Release is called. It fails with ErrBusy
// if a command is outstanding.
func (d *Dispatcher) Reserve() error {
	if !d.inflight.CompareAndSwap(false, true) {
		return fmt.Errorf("command: port %d: %w", d.m.Port(), tps6699x.ErrBusy)
	}
	return nil
}

// Release frees the slot taken by Reserve.
func (d *Dispatcher) Release() {
	d.release()
}

func validate(cmd Command) error {
	if len(cmd.Params) > regmap.Data1.Width {
		return fmt.Errorf("command: %s: %d parameter bytes: %w", cmd.Opcode, len(cmd.Params), tps6699x.ErrInvalidWidth)
	}
	if cmd.ResponseLen < 0 || cmd.ResponseLen > regmap.Data1.Width-1 {
		return fmt.Errorf("command: %s: response length %d: %w", cmd.Opcode, cmd.ResponseLen, tps6699x.ErrInvalidWidth)
	}
	return nil
}

// trigger writes the parameters and then the opcode.
func (d *Dispatcher) trigger(cmd Command) error {
	params := make([]byte, regmap.Data1.Width)
	copy(params, cmd.Params)
	if err := d.m.Write(regmap.Data1, params); err != nil {
		return err
	}
	return d.m.Write(regmap.Cmd1, cmd.Opcode.Bytes())
}

func (d *Dispatcher) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(d.timeout)
	if cdl, ok := ctx.Deadline(); ok && cdl.Before(dl) {
		dl = cdl
	}
	return dl
}

// Execute runs cmd and waits for it to complete.
//
// It fails with ErrBusy without writing anything if a command is already
// outstanding on the port, either from this dispatcher or as seen in CMD1. If
// completion is not observed within the timeout (or before ctx's deadline) it
// fails with ErrTimeout and the controller is left as is; the next Execute
// starts with a fresh busy check.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := validate(cmd); err != nil {
		return Result{}, err
	}
	if err := d.acquire(cmd.Opcode); err != nil {
		return Result{}, err
	}
	defer d.release()

	port := d.m.Port()
	wrap := func(err error) error {
		return fmt.Errorf("command: %s on port %d: %w", cmd.Opcode, port, err)
	}

	op, idle, err := readCmd1(d.m)
	if err != nil {
		return Result{}, wrap(err)
	}
	if !idle {
		return Result{}, wrap(fmt.Errorf("%s outstanding: %w", op, tps6699x.ErrBusy))
	}

	d.s.Arm()
	if err := d.trigger(cmd); err != nil {
		return Result{}, wrap(err)
	}
	if d.log != nil {
		d.log.Debug().
			Int("port", int(port)).
			Str("cmd", cmd.Opcode.String()).
			Int("params", len(cmd.Params)).
			Msg("command triggered")
	}

	c := NewCompletion(d.m, d.s, d.deadline(ctx))
	if err := Await(ctx, c); err != nil {
		if d.log != nil {
			d.log.Warn().
				Int("port", int(port)).
				Str("cmd", cmd.Opcode.String()).
				Str("state", c.State().String()).
				Err(err).
				Msg("command did not complete")
		}
		return Result{}, wrap(err)
	}
	if c.Opcode() == OpInvalid {
		return Result{}, wrap(tps6699x.ErrNack)
	}

	data, err := d.m.Read(regmap.Data1)
	if err != nil {
		return Result{}, wrap(err)
	}
	rv := ReturnValue(regmap.Data1ReturnCode.Get(data))
	if err := rv.Err(); err != nil {
		if d.log != nil {
			d.log.Warn().
				Int("port", int(port)).
				Str("cmd", cmd.Opcode.String()).
				Str("return", rv.String()).
				Msg("command failed")
		}
		return Result{Return: rv}, wrap(err)
	}
	res := Result{Return: rv, Data: make([]byte, cmd.ResponseLen)}
	copy(res.Data, data[1:])
	if d.log != nil {
		d.log.Debug().
			Int("port", int(port)).
			Str("cmd", cmd.Opcode.String()).
			Str("return", rv.String()).
			Msg("command completed")
	}
	return res, nil
}

// Send triggers cmd without waiting for a completion interrupt, then waits
// the reset delay and confirms with a single CMD1 read. It is meant for
// commands such as OpReset after which the controller restarts and never
// reports completion. No busy check is done beforehand. If CMD1 still holds
// an opcode after the delay, Send fails with ErrBusy.
func (d *Dispatcher) Send(ctx context.Context, cmd Command) error {
	return d.SendAfter(ctx, cmd, d.resetDelay)
}

// SendAfter is Send with an explicit delay.
func (d *Dispatcher) SendAfter(ctx context.Context, cmd Command, delay time.Duration) error {
	if err := validate(cmd); err != nil {
		return err
	}
	if err := d.acquire(cmd.Opcode); err != nil {
		return err
	}
	defer d.release()

	port := d.m.Port()
	wrap := func(err error) error {
		return fmt.Errorf("command: %s on port %d: %w", cmd.Opcode, port, err)
	}

	if err := d.trigger(cmd); err != nil {
		return wrap(err)
	}
	if d.log != nil {
		d.log.Debug().
			Int("port", int(port)).
			Str("cmd", cmd.Opcode.String()).
			Int64("delay_ms", delay.Milliseconds()).
			Msg("command sent")
	}

	t := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		t.Stop()
		return wrap(ctx.Err())
	case <-t.C:
	}

	op, idle, err := readCmd1(d.m)
	if err != nil {
		return wrap(err)
	}
	if op == OpInvalid {
		return wrap(tps6699x.ErrNack)
	}
	if !idle {
		return wrap(fmt.Errorf("%s still outstanding: %w", op, tps6699x.ErrBusy))
	}
	return nil
}
