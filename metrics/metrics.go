// Package metrics defines the instrumentation hooks of the driver.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/oxplot/go-tps6699x"
)

// Metrics receives driver instrumentation. Every call carries the id of the
// driver instance so several controllers can share one implementation.
type Metrics interface {
	CommandCompleted(id string, port tps6699x.PortID, cmd string, result string, d time.Duration)
	EventDecoded(id string, port tps6699x.PortID, kind tps6699x.EventKind)
	PhaseChanged(id string, port tps6699x.PortID, phase tps6699x.Phase)
	RemoveAllID(id string)
}

// Result returns the label describing the outcome of a command.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tps6699x.ErrBusy):
		return "busy"
	case errors.Is(err, tps6699x.ErrRejected):
		return "rejected"
	case errors.Is(err, tps6699x.ErrNack):
		return "nack"
	case errors.Is(err, tps6699x.ErrAborted):
		return "aborted"
	case errors.Is(err, tps6699x.ErrRxLocked):
		return "rx_locked"
	case errors.Is(err, tps6699x.ErrTimeout):
		return "timeout"
	case errors.Is(err, tps6699x.ErrBus):
		return "bus_error"
	case errors.Is(err, tps6699x.ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
