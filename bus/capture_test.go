package bus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/mocks"
)

func TestRecordReplay(t *testing.T) {
	inner := &mocks.Transport{}
	inner.On("WriteRegister", tps6699x.PortID(0), uint8(0x08), []byte("ANeg")).Return(nil).Once()
	inner.On("ReadRegister", tps6699x.PortID(0), uint8(0x08), mock.Anything).
		Run(mocks.Fill([]byte{0, 0, 0, 0})).Return(4, nil).Once()
	inner.On("ReadRegister", tps6699x.PortID(1), uint8(0x1A), mock.Anything).
		Return(0, errors.New("nak")).Once()

	var buf bytes.Buffer
	rec := NewRecorder(inner, &buf)

	require.NoError(t, rec.WriteRegister(0, 0x08, []byte("ANeg")))
	p := []byte{9, 9, 9, 9}
	n, err := rec.ReadRegister(0, 0x08, p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, err = rec.ReadRegister(1, 0x1A, make([]byte, 5))
	assert.EqualError(t, err, "nak")
	require.NoError(t, rec.Err())
	inner.AssertExpectations(t)

	recs, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, OpWrite, recs[0].Op)
	assert.Equal(t, []byte("ANeg"), recs[0].Data)
	assert.Equal(t, OpRead, recs[1].Op)
	assert.Equal(t, []byte{0, 0, 0, 0}, recs[1].Data)
	assert.Equal(t, "nak", recs[2].Err)
	assert.Equal(t, uint8(1), recs[2].Port)

	rp := NewReplay(recs)
	require.NoError(t, rp.WriteRegister(0, 0x08, []byte("ANeg")))
	p = make([]byte, 4)
	p[0] = 7
	n, err = rp.ReadRegister(0, 0x08, p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, p)
	_, err = rp.ReadRegister(1, 0x1A, make([]byte, 5))
	assert.EqualError(t, err, "nak")
	assert.Equal(t, 0, rp.Remaining())

	_, err = rp.ReadRegister(0, 0x08, p)
	assert.ErrorIs(t, err, ErrReplayMismatch)
}

func TestReplayMismatch(t *testing.T) {
	rp := NewReplay([]Record{
		{Op: OpWrite, Port: 0, Reg: 0x08, Data: []byte("GAID")},
		{Op: OpRead, Port: 0, Reg: 0x08, Len: 4, Data: []byte{0, 0, 0, 0}},
	})

	assert.ErrorIs(t, rp.WriteRegister(0, 0x08, []byte("HRST")), ErrReplayMismatch)
	assert.Equal(t, 1, rp.Remaining())

	rp = NewReplay(rp.recs)
	_, err := rp.ReadRegister(0, 0x08, make([]byte, 4))
	assert.ErrorIs(t, err, ErrReplayMismatch)
	assert.Equal(t, 2, rp.Remaining())
}

func TestReadRecordsCorrupt(t *testing.T) {
	_, err := ReadRecords(bytes.NewReader([]byte{0xBF, 0x01}))
	assert.Error(t, err)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "read", OpRead.String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "Op(9)", Op(9).String())
}
