// Package driver combines register access, command dispatch, event decoding
// and the port state machines into a driver for one TPS6699x controller.
package driver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/loopholelabs/logging/types"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/command"
	"github.com/oxplot/go-tps6699x/metrics"
	"github.com/oxplot/go-tps6699x/pdevent"
	"github.com/oxplot/go-tps6699x/pdmsg"
	"github.com/oxplot/go-tps6699x/policy"
	"github.com/oxplot/go-tps6699x/portsm"
	"github.com/oxplot/go-tps6699x/regmap"
)

// port holds everything the driver keeps for one port.
type port struct {
	id   tps6699x.PortID
	regs *regmap.Map
	disp *command.Dispatcher
	sig  *command.Signal
	sm   *portsm.Machine

	interrupts atomic.Bool
}

// Driver drives one controller. Operations on different ports may run
// concurrently; operations on the same port are serialized by the command
// in-flight slot and fail with ErrBusy rather than queue.
type Driver struct {
	id    string
	cfg   Config
	t     tps6699x.Transport
	log   types.Logger
	met   metrics.Metrics
	ports []*port

	callbacks struct {
		mu           sync.Mutex
		eventHandler EventHandler
		subs         map[tps6699x.PortID]map[int]chan []tps6699x.Event
		nextSub      int
		closed       bool
	}
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(log types.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// WithMetrics sets where instrumentation is reported.
func WithMetrics(m metrics.Metrics) Option {
	return func(d *Driver) { d.met = m }
}

// WithID sets the instance id used as the metrics label. It defaults to a
// random UUID.
func WithID(id string) Option {
	return func(d *Driver) { d.id = id }
}

// New returns a driver for the controller behind t. Interrupt processing is
// enabled on every port.
func New(t tps6699x.Transport, cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		id:  uuid.NewString(),
		cfg: cfg,
		t:   t,
	}
	for _, o := range opts {
		o(d)
	}
	d.callbacks.subs = map[tps6699x.PortID]map[int]chan []tps6699x.Event{}

	for i := 0; i < cfg.Ports; i++ {
		p := &port{
			id:   tps6699x.PortID(i),
			regs: regmap.New(t, tps6699x.PortID(i)),
			sig:  command.NewSignal(),
			sm:   portsm.New(cfg.DefaultRole),
		}
		var s command.Strategy = command.NewPollStrategy(cfg.PollInterval)
		if cfg.Completion == CompletionInterrupt {
			s = command.NewInterruptStrategy(p.sig)
		}
		p.disp = command.NewDispatcher(p.regs, s,
			command.WithTimeout(cfg.CommandTimeout),
			command.WithResetDelay(cfg.ResetDelay),
			command.WithLogger(d.log),
		)
		p.sm.SetHook(d.transitionHook(p.id))
		p.interrupts.Store(true)
		d.ports = append(d.ports, p)
	}

	if d.log != nil {
		d.log.Info().
			Str("id", d.id).
			Int("ports", cfg.Ports).
			Str("completion", cfg.Completion.String()).
			Msg("driver started")
	}
	return d, nil
}

func (d *Driver) transitionHook(id tps6699x.PortID) func(portsm.Transition) {
	return func(tr portsm.Transition) {
		if d.log != nil {
			d.log.Debug().
				Int("port", int(id)).
				Str("from", tr.From.String()).
				Str("to", tr.To.String()).
				Str("event", tr.Event.String()).
				Msg("port state changed")
		}
		if d.met != nil {
			d.met.PhaseChanged(d.id, id, tr.To)
		}
	}
}

// ID returns the instance id of the driver.
func (d *Driver) ID() string {
	return d.id
}

// Ports returns the number of ports of the controller.
func (d *Driver) Ports() int {
	return len(d.ports)
}

func (d *Driver) port(id tps6699x.PortID) (*port, error) {
	if int(id) >= len(d.ports) {
		return nil, fmt.Errorf("driver: port %d of %d: %w", id, len(d.ports), tps6699x.ErrInvalidPort)
	}
	return d.ports[id], nil
}

// Close closes all subscriptions and removes the metrics series of the
// driver. The driver must not be used afterwards. Close is idempotent.
func (d *Driver) Close() {
	d.callbacks.mu.Lock()
	if d.callbacks.closed {
		d.callbacks.mu.Unlock()
		return
	}
	d.callbacks.closed = true
	for _, subs := range d.callbacks.subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	d.callbacks.subs = map[tps6699x.PortID]map[int]chan []tps6699x.Event{}
	d.callbacks.mu.Unlock()

	if d.met != nil {
		d.met.RemoveAllID(d.id)
	}
}

// Execute runs cmd on port and waits for it to complete.
func (d *Driver) Execute(ctx context.Context, id tps6699x.PortID, cmd command.Command) (command.Result, error) {
	p, err := d.port(id)
	if err != nil {
		return command.Result{}, err
	}
	start := time.Now()
	res, err := p.disp.Execute(ctx, cmd)
	if d.met != nil {
		d.met.CommandCompleted(d.id, id, cmd.Opcode.String(), metrics.Result(err), time.Since(start))
	}
	return res, err
}

func (d *Driver) simple(ctx context.Context, id tps6699x.PortID, op command.Opcode) error {
	_, err := d.Execute(ctx, id, command.Command{Opcode: op})
	return err
}

// GetSourceCapabilities asks the port partner for its source capabilities
// and returns them. The port state is updated with the result.
func (d *Driver) GetSourceCapabilities(ctx context.Context, id tps6699x.PortID) ([]pdmsg.PDO, error) {
	if err := d.simple(ctx, id, command.OpGetSrcCaps); err != nil {
		return nil, err
	}
	pdos, err := d.sourceCaps(id)
	if err != nil {
		return nil, err
	}
	d.deliver(d.ports[id], []tps6699x.Event{{Kind: tps6699x.EventCapabilitiesUpdated, Capabilities: pdos}})
	return pdos, nil
}

func (d *Driver) sourceCaps(id tps6699x.PortID) ([]pdmsg.PDO, error) {
	p, err := d.port(id)
	if err != nil {
		return nil, err
	}
	b, err := p.regs.Read(regmap.RxSourceCaps)
	if err != nil {
		return nil, fmt.Errorf("driver: source capabilities of port %d: %w", id, err)
	}
	return pdevent.SourceCaps(b), nil
}

// GetSinkCapabilities asks the port partner for its sink capabilities and
// returns them.
func (d *Driver) GetSinkCapabilities(ctx context.Context, id tps6699x.PortID) ([]pdmsg.PDO, error) {
	if err := d.simple(ctx, id, command.OpGetSnkCaps); err != nil {
		return nil, err
	}
	b, err := d.read(id, regmap.RxSinkCaps)
	if err != nil {
		return nil, fmt.Errorf("driver: sink capabilities of port %d: %w", id, err)
	}
	return pdevent.SinkCaps(b), nil
}

// NegotiateContract evaluates the source capabilities of the partner with pol
// and requests the selected object. Capabilities already known from port
// events are used when available, otherwise they are read from the
// controller. It returns the request sent.
func (d *Driver) NegotiateContract(ctx context.Context, id tps6699x.PortID, pol policy.Policy) (pdmsg.RequestDO, error) {
	p, err := d.port(id)
	if err != nil {
		return pdmsg.EmptyRequestDO, err
	}
	pdos := p.sm.State().Capabilities
	if len(pdos) == 0 {
		if pdos, err = d.sourceCaps(id); err != nil {
			return pdmsg.EmptyRequestDO, err
		}
	}
	if len(pdos) == 0 {
		return pdmsg.EmptyRequestDO, fmt.Errorf("driver: port %d: no source capabilities: %w", id, tps6699x.ErrNoCapabilities)
	}
	rdo, err := policy.Select(pol, pdos)
	if err != nil {
		return pdmsg.EmptyRequestDO, fmt.Errorf("driver: port %d: %w", id, err)
	}
	if d.log != nil {
		d.log.Debug().
			Int("port", int(id)).
			Int("position", int(rdo.SelectedObjectPosition())).
			Uint32("rdo", uint32(rdo)).
			Msg("requesting contract")
	}
	_, err = d.Execute(ctx, id, command.Command{Opcode: command.OpSelectRDO, Params: rdo.Bytes()})
	if err != nil {
		return pdmsg.EmptyRequestDO, err
	}
	return rdo, nil
}

// AutoNegotiate makes the controller renegotiate on its own terms.
func (d *Driver) AutoNegotiate(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpAutoNegotiate)
}

// SwapToSource requests a power role swap to source.
func (d *Driver) SwapToSource(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpSwapToSource)
}

// SwapToSink requests a power role swap to sink.
func (d *Driver) SwapToSink(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpSwapToSink)
}

// SwapToDFP requests a data role swap to host.
func (d *Driver) SwapToDFP(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpSwapToDFP)
}

// SwapToUFP requests a data role swap to device.
func (d *Driver) SwapToUFP(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpSwapToUFP)
}

// HardReset sends a PD hard reset on the port.
func (d *Driver) HardReset(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpHardReset)
}

// Abort aborts the command running on the port.
func (d *Driver) Abort(ctx context.Context, id tps6699x.PortID) error {
	return d.simple(ctx, id, command.OpAbort)
}

// Reset restarts the whole controller and waits for it to come back.
// Interrupt processing is suspended for the duration and every port is
// considered detached afterwards. Reset fails with ErrBusy without touching
// the controller while a command is outstanding on any port.
func (d *Driver) Reset(ctx context.Context) error {
	defer d.suspendInterrupts()()

	if err := d.controllerSend(ctx, command.Command{Opcode: command.OpReset}, d.cfg.ResetDelay); err != nil {
		return err
	}
	d.detachAll()
	if d.log != nil {
		d.log.Info().Str("id", d.id).Msg("controller reset")
	}
	return nil
}

// suspendInterrupts disables interrupt processing on every port and returns a
// function restoring the previous settings.
func (d *Driver) suspendInterrupts() func() {
	prev := make([]bool, len(d.ports))
	for i, p := range d.ports {
		prev[i] = p.interrupts.Swap(false)
	}
	return func() {
		for i, p := range d.ports {
			p.interrupts.Store(prev[i])
		}
	}
}

// controllerSend sends a controller wide command through port 0 with
// Dispatcher.SendAfter. The in-flight slot of every other port is held for
// the duration.
func (d *Driver) controllerSend(ctx context.Context, cmd command.Command, delay time.Duration) error {
	var held []*port
	defer func() {
		for _, p := range held {
			p.disp.Release()
		}
	}()
	for _, p := range d.ports[1:] {
		if err := p.disp.Reserve(); err != nil {
			return fmt.Errorf("driver: %s: %w", cmd.Opcode, err)
		}
		held = append(held, p)
	}

	start := time.Now()
	err := d.ports[0].disp.SendAfter(ctx, cmd, delay)
	if d.met != nil {
		d.met.CommandCompleted(d.id, 0, cmd.Opcode.String(), metrics.Result(err), time.Since(start))
	}
	return err
}

// detachAll reports every port as detached after the controller restarted.
func (d *Driver) detachAll() {
	for _, p := range d.ports {
		p.sig.Clear()
		d.deliver(p, []tps6699x.Event{{Kind: tps6699x.EventDetach}})
	}
}

// Status reads the connection status of the port.
func (d *Driver) Status(id tps6699x.PortID) (pdevent.Status, error) {
	b, err := d.read(id, regmap.Status)
	if err != nil {
		return pdevent.Status{}, err
	}
	return pdevent.ParseStatus(b), nil
}

// ActivePDOContract returns the power data object of the contract in effect.
func (d *Driver) ActivePDOContract(id tps6699x.PortID) (pdmsg.PDO, error) {
	b, err := d.read(id, regmap.ActivePdoContract)
	if err != nil {
		return 0, err
	}
	return pdmsg.PDO(regmap.ActivePdoContractActivePdo.Get(b)), nil
}

// ActiveRDOContract returns the request data object of the contract in
// effect.
func (d *Driver) ActiveRDOContract(id tps6699x.PortID) (pdmsg.RequestDO, error) {
	b, err := d.read(id, regmap.ActiveRdoContract)
	if err != nil {
		return pdmsg.EmptyRequestDO, err
	}
	return pdmsg.RequestDO(regmap.ActiveRdoContractActiveRdo.Get(b)), nil
}

// Mode returns the firmware operating mode, such as "APP ".
func (d *Driver) Mode(id tps6699x.PortID) (string, error) {
	b, err := d.read(id, regmap.Mode)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Version returns the firmware version.
func (d *Driver) Version(id tps6699x.PortID) (uint32, error) {
	b, err := d.read(id, regmap.Version)
	if err != nil {
		return 0, err
	}
	return uint32(regmap.VersionVersion.Get(b)), nil
}

// CustomerUse returns the customer defined image identifier.
func (d *Driver) CustomerUse(id tps6699x.PortID) (uint64, error) {
	b, err := d.read(id, regmap.CustomerUse)
	if err != nil {
		return 0, err
	}
	return regmap.CustomerUseCustomerUse.Get(b), nil
}

func (d *Driver) read(id tps6699x.PortID, r regmap.Descriptor) ([]byte, error) {
	p, err := d.port(id)
	if err != nil {
		return nil, err
	}
	return p.regs.Read(r)
}

// State returns a copy of the last known state of the port.
func (d *Driver) State(id tps6699x.PortID) (tps6699x.PortState, error) {
	p, err := d.port(id)
	if err != nil {
		return tps6699x.PortState{}, err
	}
	return p.sm.State(), nil
}
