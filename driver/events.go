package driver

import (
	"github.com/oxplot/go-tps6699x"
)

// EventHandler is an interface that wraps the method HandleEvents.
type EventHandler interface {

	// HandleEvents is called with the events decoded from one interrupt of a
	// port, after they were applied to the port state. It is called with the
	// driver's callback lock held, from the goroutine processing interrupts. It
	// must not change handlers or subscriptions, nor run commands; use
	// Subscribe to act on events.
	HandleEvents(port tps6699x.PortID, events []tps6699x.Event)
}

// EventHandlerFunc is an adapter to allow the use of ordinary functions as
// EventHandler.
type EventHandlerFunc func(tps6699x.PortID, []tps6699x.Event)

// HandleEvents implements EventHandler interface.
func (f EventHandlerFunc) HandleEvents(port tps6699x.PortID, events []tps6699x.Event) {
	f(port, events)
}

// SetEventHandler sets the event handler to send events to. Pass nil to remove
// the handler.
func (d *Driver) SetEventHandler(h EventHandler) {
	d.callbacks.mu.Lock()
	d.callbacks.eventHandler = h
	d.callbacks.mu.Unlock()
}

// Subscribe returns a channel receiving the event batches of port and a
// function ending the subscription. Batches are dropped when the channel is
// full. The channel is closed when the subscription ends or the driver is
// closed.
func (d *Driver) Subscribe(id tps6699x.PortID) (<-chan []tps6699x.Event, func()) {
	ch := make(chan []tps6699x.Event, d.cfg.SubscriberBuffer)

	d.callbacks.mu.Lock()
	defer d.callbacks.mu.Unlock()
	if d.callbacks.closed {
		close(ch)
		return ch, func() {}
	}
	n := d.callbacks.nextSub
	d.callbacks.nextSub++
	if d.callbacks.subs[id] == nil {
		d.callbacks.subs[id] = map[int]chan []tps6699x.Event{}
	}
	d.callbacks.subs[id][n] = ch

	return ch, func() {
		d.callbacks.mu.Lock()
		defer d.callbacks.mu.Unlock()
		if c, ok := d.callbacks.subs[id][n]; ok {
			delete(d.callbacks.subs[id], n)
			close(c)
		}
	}
}

// deliver applies events to the state machine of p and publishes them.
func (d *Driver) deliver(p *port, events []tps6699x.Event) {
	if len(events) == 0 {
		return
	}
	p.sm.ApplyAll(events)
	if d.met != nil {
		for _, e := range events {
			d.met.EventDecoded(d.id, p.id, e.Kind)
		}
	}

	d.callbacks.mu.Lock()
	defer d.callbacks.mu.Unlock()
	if d.callbacks.eventHandler != nil {
		d.callbacks.eventHandler.HandleEvents(p.id, events)
	}
	for _, ch := range d.callbacks.subs[p.id] {
		batch := append([]tps6699x.Event(nil), events...)
		select {
		case ch <- batch:
		default:
			if d.log != nil {
				d.log.Warn().
					Int("port", int(p.id)).
					Int("events", len(events)).
					Msg("subscriber queue full, dropping events")
			}
		}
	}
}
