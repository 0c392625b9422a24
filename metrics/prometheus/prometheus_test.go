package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oxplot/go-tps6699x"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, DefaultConfig())

	m.CommandCompleted("a", 0, "SRDO", "ok", 5*time.Millisecond)
	m.CommandCompleted("a", 0, "SRDO", "ok", 7*time.Millisecond)
	m.CommandCompleted("a", 1, "HRST", "timeout", time.Second)
	m.EventDecoded("a", 0, tps6699x.EventAttach)
	m.PhaseChanged("a", 0, tps6699x.PhaseContracted)
	m.PhaseChanged("b", 1, tps6699x.PhaseNegotiating)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("a", "0", "SRDO", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("a", "1", "HRST", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("a", "0", "Attach")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.phase.WithLabelValues("a", "0")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.commandLatency))

	m.RemoveAllID("a")
	assert.Equal(t, 0, testutil.CollectAndCount(m.commands))
	assert.Equal(t, 0, testutil.CollectAndCount(m.events))
	assert.Equal(t, 1, testutil.CollectAndCount(m.phase))
}
