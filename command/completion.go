package command

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/regmap"
)

// WaitState is the state of a Completion.
type WaitState uint8

// Completion states. Every state other than Pending is final.
const (
	Pending WaitState = iota
	Ready
	Failed
	TimedOut
)

func (s WaitState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	case TimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("WaitState(%d)", uint8(s))
	}
}

// Strategy decides how a Completion observes that the controller finished a
// command.
type Strategy interface {

	// Arm is called before a command is triggered and drops any stale state,
	// such as a wake-up left over from an earlier command.
	Arm()

	// Check looks for completion. It returns the CMD1 content once the
	// controller is idle, with ready set.
	Check(m *regmap.Map, now time.Time) (op Opcode, ready bool, err error)

	// Wake returns a channel that receives when Check is worth calling before
	// the next interval elapses. It may be nil.
	Wake() <-chan struct{}

	// Interval is the period at which Check should be called. Zero means only
	// on wake-ups.
	Interval() time.Duration
}

// readCmd1 reads CMD1 and reports whether the controller is idle.
func readCmd1(m *regmap.Map) (Opcode, bool, error) {
	b, err := m.Read(regmap.Cmd1)
	if err != nil {
		return 0, false, err
	}
	op := Opcode(regmap.Cmd1Command.Get(b))
	return op, op == OpNone || op == OpInvalid, nil
}

// PollStrategy reads CMD1 at most once per interval.
type PollStrategy struct {
	interval time.Duration
	last     time.Time
}

// NewPollStrategy returns a polling strategy.
func NewPollStrategy(interval time.Duration) *PollStrategy {
	return &PollStrategy{interval: interval}
}

func (p *PollStrategy) Arm() {
	p.last = time.Time{}
}

func (p *PollStrategy) Check(m *regmap.Map, now time.Time) (Opcode, bool, error) {
	if !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return 0, false, nil
	}
	p.last = now
	return readCmd1(m)
}

func (p *PollStrategy) Wake() <-chan struct{} { return nil }

func (p *PollStrategy) Interval() time.Duration { return p.interval }

// Signal is a per port completion wake-up raised by interrupt processing.
// Raising is never lost: the flag stays set until a waiter takes it, even if
// nobody is listening on the wake channel.
type Signal struct {
	flag atomic.Bool
	ch   chan struct{}
}

// NewSignal returns a lowered signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise sets the signal and wakes a waiter, if any.
func (s *Signal) Raise() {
	s.flag.Store(true)
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Take lowers the signal and returns true if it was raised.
func (s *Signal) Take() bool {
	return s.flag.Swap(false)
}

// Wake returns the channel notified by Raise.
func (s *Signal) Wake() <-chan struct{} {
	return s.ch
}

// Clear lowers the signal and drains pending notifications.
func (s *Signal) Clear() {
	s.flag.Store(false)
	select {
	case <-s.ch:
	default:
	}
}

// InterruptStrategy waits for a Signal and confirms completion with a single
// CMD1 read per wake-up.
type InterruptStrategy struct {
	sig *Signal
}

// NewInterruptStrategy returns a strategy woken by sig.
func NewInterruptStrategy(sig *Signal) *InterruptStrategy {
	return &InterruptStrategy{sig: sig}
}

func (s *InterruptStrategy) Arm() {
	s.sig.Clear()
}

func (s *InterruptStrategy) Check(m *regmap.Map, _ time.Time) (Opcode, bool, error) {
	if !s.sig.Take() {
		return 0, false, nil
	}
	return readCmd1(m)
}

func (s *InterruptStrategy) Wake() <-chan struct{} { return s.sig.Wake() }

func (s *InterruptStrategy) Interval() time.Duration { return 0 }

// Completion tracks one outstanding command until it completes, fails or
// times out. It is driven by calling Poll, directly or through Await.
type Completion struct {
	m        *regmap.Map
	s        Strategy
	deadline time.Time

	state WaitState
	op    Opcode
	err   error
}

// NewCompletion starts waiting for the command outstanding on m. The
// strategy must have been armed before the command was triggered.
func NewCompletion(m *regmap.Map, s Strategy, deadline time.Time) *Completion {
	return &Completion{m: m, s: s, deadline: deadline}
}

// Poll advances the completion. Once now reaches the deadline the completion
// times out without touching the bus.
func (c *Completion) Poll(now time.Time) WaitState {
	if c.state != Pending {
		return c.state
	}
	if !now.Before(c.deadline) {
		c.state = TimedOut
		c.err = tps6699x.ErrTimeout
		return c.state
	}
	op, ready, err := c.s.Check(c.m, now)
	switch {
	case err != nil:
		c.state = Failed
		c.err = err
	case ready:
		c.state = Ready
		c.op = op
	}
	return c.state
}

// State returns the current state without advancing it.
func (c *Completion) State() WaitState { return c.state }

// Opcode returns the CMD1 content observed at completion: zero, or OpInvalid
// if the controller did not recognize the command.
func (c *Completion) Opcode() Opcode { return c.op }

// Err returns the failure of a Failed or TimedOut completion.
func (c *Completion) Err() error { return c.err }

// abandon ends a pending completion because its context is done.
func (c *Completion) abandon(err error) {
	if c.state != Pending {
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.state = TimedOut
		c.err = tps6699x.ErrTimeout
		return
	}
	c.state = Failed
	c.err = err
}

// Await drives c until it leaves Pending. It returns nil once Ready.
// Cancelling ctx abandons the wait and leaves the controller untouched.
func Await(ctx context.Context, c *Completion) error {
	for {
		switch c.Poll(time.Now()) {
		case Ready:
			return nil
		case Failed, TimedOut:
			return c.Err()
		}

		wait := time.Until(c.deadline)
		if iv := c.s.Interval(); iv > 0 && iv < wait {
			wait = iv
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.abandon(ctx.Err())
			return c.Err()
		case <-c.s.Wake():
		case <-timer.C:
		}
		timer.Stop()
	}
}
