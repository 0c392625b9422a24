// Package mocks provides testify mocks of the driver capabilities.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/oxplot/go-tps6699x"
)

// Transport is a mock tps6699x.Transport.
//
//	t.On("ReadRegister", tps6699x.PortID(0), uint8(0x08), mock.Anything).
//		Run(mocks.Fill([]byte{0, 0, 0, 0})).Return(4, nil)
type Transport struct{ mock.Mock }

var _ tps6699x.Transport = (*Transport)(nil)

func (t *Transport) ReadRegister(port tps6699x.PortID, addr uint8, p []byte) (int, error) {
	ret := t.Called(port, addr, p)
	return ret.Int(0), ret.Error(1)
}

func (t *Transport) WriteRegister(port tps6699x.PortID, addr uint8, p []byte) error {
	// Copy so later reuse of the caller's buffer does not alter recorded calls.
	return t.Called(port, addr, append([]byte(nil), p...)).Error(0)
}

// Fill returns a Run function that copies img into the read buffer of a
// ReadRegister call.
func Fill(img []byte) func(mock.Arguments) {
	return func(args mock.Arguments) {
		copy(args.Get(2).([]byte), img)
	}
}

// InterruptLine is a mock tps6699x.InterruptLine.
type InterruptLine struct{ mock.Mock }

var _ tps6699x.InterruptLine = (*InterruptLine)(nil)

func (l *InterruptLine) WaitForEdge(timeout time.Duration) bool {
	return l.Called(timeout).Bool(0)
}
