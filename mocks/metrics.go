package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/metrics"
)

// Metrics is a mock metrics.Metrics.
type Metrics struct{ mock.Mock }

var _ metrics.Metrics = (*Metrics)(nil)

func (m *Metrics) CommandCompleted(id string, port tps6699x.PortID, cmd string, result string, d time.Duration) {
	m.Called(id, port, cmd, result, d)
}

func (m *Metrics) EventDecoded(id string, port tps6699x.PortID, kind tps6699x.EventKind) {
	m.Called(id, port, kind)
}

func (m *Metrics) PhaseChanged(id string, port tps6699x.PortID, phase tps6699x.Phase) {
	m.Called(id, port, phase)
}

func (m *Metrics) RemoveAllID(id string) {
	m.Called(id)
}
