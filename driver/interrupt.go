package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdevent"
	"github.com/oxplot/go-tps6699x/regmap"
)

// EnableInterrupt enables or disables interrupt processing for the port.
// Flags of a disabled port are left pending in the controller.
func (d *Driver) EnableInterrupt(id tps6699x.PortID, enabled bool) error {
	p, err := d.port(id)
	if err != nil {
		return err
	}
	p.interrupts.Store(enabled)
	return nil
}

// EnableInterrupts enables or disables interrupt processing for all ports.
func (d *Driver) EnableInterrupts(enabled bool) {
	for _, p := range d.ports {
		p.interrupts.Store(enabled)
	}
}

// ProcessInterrupt services the pending interrupt flags of every enabled port.
// Ports are processed independently; the errors of all failing ports are
// joined.
func (d *Driver) ProcessInterrupt(ctx context.Context) error {
	var errs []error
	for _, p := range d.ports {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !p.interrupts.Load() {
			continue
		}
		if err := d.processPort(p); err != nil {
			errs = append(errs, fmt.Errorf("driver: interrupt on port %d: %w", p.id, err))
		}
	}
	return errors.Join(errs...)
}

// processPort reads every register the snapshot needs before clearing the
// flags, so a failed read leaves them pending for the next pass.
func (d *Driver) processPort(p *port) error {
	ev, err := p.regs.Read(regmap.IntEventBus1)
	if err != nil {
		return err
	}
	snap := pdevent.Snapshot{Events: ev}
	if !snap.Pending() {
		return nil
	}

	if snap.Status, err = p.regs.Read(regmap.Status); err != nil {
		return err
	}
	contract, caps := pdevent.Wants(ev)
	if contract {
		if snap.ActivePDO, err = p.regs.Read(regmap.ActivePdoContract); err != nil {
			return err
		}
	}
	if caps {
		if snap.SourceCaps, err = p.regs.Read(regmap.RxSourceCaps); err != nil {
			return err
		}
	}

	if err := p.regs.Write(regmap.IntClearBus1, ev); err != nil {
		return err
	}
	if pdevent.CommandCompleted(ev) {
		p.sig.Raise()
	}

	events := pdevent.Decode(snap)
	if d.log != nil {
		d.log.Debug().
			Int("port", int(p.id)).
			Str("flags", fmt.Sprintf("%X", ev)).
			Str("status", pdevent.ParseStatus(snap.Status).String()).
			Int("events", len(events)).
			Msg("interrupt processed")
	}
	d.deliver(p, events)
	return nil
}

// Run services interrupts until ctx is done. With a nil line the controller
// is polled every AlertInterval. Otherwise line is waited on for at most
// AlertInterval at a time and interrupts are processed after each wait,
// whether an edge was seen or not, since the line stays active while any flag
// is pending. Errors are logged and do not stop the loop. Run returns
// ctx.Err().
func (d *Driver) Run(ctx context.Context, line tps6699x.InterruptLine) error {
	if line == nil {
		return d.poll(ctx)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line.WaitForEdge(d.cfg.AlertInterval)
		d.service(ctx)
	}
}

func (d *Driver) poll(ctx context.Context) error {
	t := time.NewTicker(d.cfg.AlertInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			d.service(ctx)
		}
	}
}

func (d *Driver) service(ctx context.Context) {
	if err := d.ProcessInterrupt(ctx); err != nil && ctx.Err() == nil {
		if d.log != nil {
			d.log.Error().
				Str("id", d.id).
				Err(err).
				Msg("interrupt processing failed")
		}
	}
}
