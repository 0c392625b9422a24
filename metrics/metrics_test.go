package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxplot/go-tps6699x"
)

func TestResult(t *testing.T) {
	tests := map[error]string{
		tps6699x.ErrBusy:     "busy",
		tps6699x.ErrRejected: "rejected",
		tps6699x.ErrNack:     "nack",
		tps6699x.ErrAborted:  "aborted",
		tps6699x.ErrRxLocked: "rx_locked",
		tps6699x.ErrTimeout:  "timeout",
		fmt.Errorf("%w: %w", tps6699x.ErrBus, errors.New("nak")): "bus_error",
		tps6699x.ErrInvalidMode:                                  "invalid_mode",
		context.Canceled:                                         "canceled",
		errors.New("other"):                                      "error",
	}
	for err, want := range tests {
		assert.Equal(t, want, Result(fmt.Errorf("wrapped: %w", err)), "%v", err)
	}
	assert.Equal(t, "ok", Result(nil))
}
