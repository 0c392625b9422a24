package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/mocks"
	"github.com/oxplot/go-tps6699x/regmap"
	"github.com/oxplot/go-tps6699x/tpstest"
)

func newDispatcher(dev *tpstest.Device, opts ...Option) *Dispatcher {
	opts = append([]Option{WithTimeout(200 * time.Millisecond)}, opts...)
	return NewDispatcher(regmap.New(dev, 0), NewPollStrategy(time.Millisecond), opts...)
}

func TestExecuteWriteOrder(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("SRDO", tpstest.Response{Polls: 2})
	d := newDispatcher(dev)

	_, err := d.Execute(context.Background(), Command{Opcode: OpSelectRDO, Params: []byte{1, 2, 3, 4}})
	require.NoError(t, err)

	log := dev.Log()
	require.GreaterOrEqual(t, len(log), 5)

	// Busy check, then exactly one parameter write followed by one opcode
	// write, then completion polling.
	assert.False(t, log[0].Write)
	assert.Equal(t, regmap.Cmd1.Address, log[0].Reg)

	assert.True(t, log[1].Write)
	assert.Equal(t, regmap.Data1.Address, log[1].Reg)
	params := make([]byte, regmap.Data1.Width)
	copy(params, []byte{1, 2, 3, 4})
	assert.Equal(t, params, log[1].Data)

	assert.True(t, log[2].Write)
	assert.Equal(t, regmap.Cmd1.Address, log[2].Reg)
	assert.Equal(t, []byte("SRDO"), log[2].Data)

	for _, a := range log[3:] {
		assert.False(t, a.Write)
	}
	assert.Equal(t, regmap.Data1.Address, log[len(log)-1].Reg)
	assert.Len(t, dev.Writes(), 2)
	assert.False(t, d.Busy())
}

func TestExecuteBusyHardware(t *testing.T) {
	tr := &mocks.Transport{}
	tr.On("ReadRegister", tps6699x.PortID(0), regmap.Cmd1.Address, mock.Anything).
		Run(mocks.Fill([]byte("GSrC"))).Return(4, nil)

	d := NewDispatcher(regmap.New(tr, 0), NewPollStrategy(time.Millisecond))
	_, err := d.Execute(context.Background(), Command{Opcode: OpHardReset})
	assert.ErrorIs(t, err, tps6699x.ErrBusy)

	tr.AssertNumberOfCalls(t, "ReadRegister", 1)
	tr.AssertNotCalled(t, "WriteRegister", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, d.Busy())
}

func TestExecuteBusyInFlight(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("ANeg", tpstest.Response{Polls: -1})
	d := newDispatcher(dev, WithTimeout(time.Second))

	done := make(chan error, 1)
	go func() {
		_, err := d.Execute(context.Background(), Command{Opcode: OpAutoNegotiate})
		done <- err
	}()
	require.Eventually(t, func() bool { return len(dev.Writes()) == 2 }, time.Second, time.Millisecond)

	writes := len(dev.Writes())
	_, err := d.Execute(context.Background(), Command{Opcode: OpHardReset})
	assert.ErrorIs(t, err, tps6699x.ErrBusy)
	assert.Len(t, dev.Writes(), writes)

	dev.Complete(0)
	require.NoError(t, <-done)

	// The slot is free again.
	_, err = d.Execute(context.Background(), Command{Opcode: OpHardReset})
	assert.NoError(t, err)
}

func TestExecuteResultData(t *testing.T) {
	dev := tpstest.NewDevice(1)
	data := []byte{0x2C, 0x91, 0x01, 0x08, 0xAA}
	dev.Respond("GSrC", tpstest.Response{Return: uint8(Task2), Data: data})
	d := newDispatcher(dev)

	res, err := d.Execute(context.Background(), Command{Opcode: OpGetSrcCaps, ResponseLen: 4})
	require.NoError(t, err)
	assert.Equal(t, Task2, res.Return)
	assert.Equal(t, data[:4], res.Data)

	res, err = d.Execute(context.Background(), Command{Opcode: OpGetSrcCaps})
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestExecuteTimeout(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("HRST", tpstest.Response{Polls: -1})
	const timeout = 30 * time.Millisecond
	d := newDispatcher(dev, WithTimeout(timeout))

	start := time.Now()
	_, err := d.Execute(context.Background(), Command{Opcode: OpHardReset})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, tps6699x.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Len(t, dev.Writes(), 2)

	// Nothing is written once the wait is given up, and the next command
	// starts with a busy check that sees the stale command.
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, dev.Writes(), 2)
	_, err = d.Execute(context.Background(), Command{Opcode: OpAbort})
	assert.ErrorIs(t, err, tps6699x.ErrBusy)
	assert.Len(t, dev.Writes(), 2)
}

func TestExecuteFailures(t *testing.T) {
	tests := []struct {
		name string
		resp tpstest.Response
		want []error
	}{
		{"nack", tpstest.Response{Nack: true}, []error{tps6699x.ErrNack}},
		{"rejected", tpstest.Response{Return: uint8(Rejected)}, []error{tps6699x.ErrRejected, tps6699x.ErrNack}},
		{"aborted", tpstest.Response{Return: uint8(Abort)}, []error{tps6699x.ErrAborted}},
		{"rx locked", tpstest.Response{Return: uint8(RxLocked)}, []error{tps6699x.ErrRxLocked}},
		{"unknown", tpstest.Response{Return: 0x02}, []error{tps6699x.ErrInvalidResponse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := tpstest.NewDevice(1)
			dev.Respond("SWSr", tt.resp)
			_, err := newDispatcher(dev).Execute(context.Background(), Command{Opcode: OpSwapToSource})
			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestExecuteNackAfterPreviousNack(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("SWDF", tpstest.Response{Nack: true})
	d := newDispatcher(dev)

	_, err := d.Execute(context.Background(), Command{Opcode: OpSwapToDFP})
	require.ErrorIs(t, err, tps6699x.ErrNack)

	// !CMD left in CMD1 does not count as busy.
	_, err = d.Execute(context.Background(), Command{Opcode: OpSwapToUFP})
	assert.NoError(t, err)
}

func TestExecuteBusError(t *testing.T) {
	dev := tpstest.NewDevice(1)
	cause := errors.New("arbitration lost")
	dev.Fail(regmap.Data1.Address, cause)

	_, err := newDispatcher(dev).Execute(context.Background(), Command{Opcode: OpAbort})
	assert.ErrorIs(t, err, tps6699x.ErrBus)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, dev.Writes())
}

func TestExecuteInvalidWidth(t *testing.T) {
	dev := tpstest.NewDevice(1)
	d := newDispatcher(dev)

	_, err := d.Execute(context.Background(), Command{Opcode: OpSelectRDO, Params: make([]byte, 65)})
	assert.ErrorIs(t, err, tps6699x.ErrInvalidWidth)
	_, err = d.Execute(context.Background(), Command{Opcode: OpGetSrcCaps, ResponseLen: 64})
	assert.ErrorIs(t, err, tps6699x.ErrInvalidWidth)
	assert.Empty(t, dev.Log())
}

func TestExecuteInterruptStrategy(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("ANeg", tpstest.Response{Polls: -1, Return: uint8(Success)})
	sig := NewSignal()
	dev.OnComplete(func(tps6699x.PortID) { sig.Raise() })

	// A wake-up left from an earlier command must not complete this one.
	sig.Raise()

	d := NewDispatcher(regmap.New(dev, 0), NewInterruptStrategy(sig), WithTimeout(time.Second))
	go func() {
		for len(dev.Writes()) < 2 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(5 * time.Millisecond)
		dev.Complete(0)
	}()

	_, err := d.Execute(context.Background(), Command{Opcode: OpAutoNegotiate})
	require.NoError(t, err)

	var cmd1Reads int
	for _, a := range dev.Log() {
		if !a.Write && a.Reg == regmap.Cmd1.Address {
			cmd1Reads++
		}
	}
	// Busy check plus one confirming read.
	assert.Equal(t, 2, cmd1Reads)
}

func TestSend(t *testing.T) {
	dev := tpstest.NewDevice(1)
	d := newDispatcher(dev, WithResetDelay(time.Millisecond))

	require.NoError(t, d.Send(context.Background(), Command{Opcode: OpReset}))

	log := dev.Log()
	require.Len(t, log, 3)
	assert.Equal(t, regmap.Data1.Address, log[0].Reg)
	assert.Equal(t, []byte("GAID"), log[1].Data)
	assert.False(t, log[2].Write)

	dev.Respond("GAID", tpstest.Response{Nack: true})
	assert.ErrorIs(t, d.Send(context.Background(), Command{Opcode: OpReset}), tps6699x.ErrNack)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d = newDispatcher(dev, WithResetDelay(time.Hour))
	assert.ErrorIs(t, d.Send(ctx, Command{Opcode: OpReset}), context.Canceled)
}

func TestSendStillOutstanding(t *testing.T) {
	dev := tpstest.NewDevice(1)
	dev.Respond("GAID", tpstest.Response{Polls: -1})
	d := newDispatcher(dev, WithResetDelay(time.Millisecond))

	err := d.Send(context.Background(), Command{Opcode: OpReset})
	assert.ErrorIs(t, err, tps6699x.ErrBusy)
	assert.Contains(t, err.Error(), "GAID still outstanding")
	assert.False(t, d.Busy())

	dev.Complete(0)
	dev.Respond("GAID", tpstest.Response{})
	assert.NoError(t, d.Send(context.Background(), Command{Opcode: OpReset}))
}

func TestSendAfter(t *testing.T) {
	dev := tpstest.NewDevice(1)
	d := newDispatcher(dev, WithResetDelay(time.Hour))

	start := time.Now()
	require.NoError(t, d.SendAfter(context.Background(), Command{Opcode: OpTfuStart}, time.Millisecond))
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, []byte("TFUs"), dev.Writes()[1].Data)
}

func TestReserve(t *testing.T) {
	dev := tpstest.NewDevice(1)
	d := newDispatcher(dev)

	require.NoError(t, d.Reserve())
	assert.True(t, d.Busy())
	assert.ErrorIs(t, d.Reserve(), tps6699x.ErrBusy)

	_, err := d.Execute(context.Background(), Command{Opcode: OpAbort})
	assert.ErrorIs(t, err, tps6699x.ErrBusy)
	assert.ErrorIs(t, d.Send(context.Background(), Command{Opcode: OpReset}), tps6699x.ErrBusy)
	assert.Empty(t, dev.Log())

	d.Release()
	assert.False(t, d.Busy())
	_, err = d.Execute(context.Background(), Command{Opcode: OpAbort})
	assert.NoError(t, err)
}
