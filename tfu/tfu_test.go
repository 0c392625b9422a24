package tfu_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-tps6699x/tfu"
	"github.com/oxplot/go-tps6699x/tpstest"
)

func TestArgs(t *testing.T) {
	a := tfu.Args{NumBlocks: 2, DataLen: 0x800, TimeoutSecs: 5, BroadcastAddress: 0x30}
	b := a.Bytes()
	assert.Equal(t, []byte{2, 0, 0, 8, 5, 0, 0x30, 0}, b)

	got, err := tfu.ParseArgs(b)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = tfu.ParseArgs(b[:7])
	assert.ErrorIs(t, err, tfu.ErrMalformed)
}

func TestParse(t *testing.T) {
	app := bytes.Repeat([]byte{0xA5}, tfu.DataBlockSize+100)
	cfg := bytes.Repeat([]byte{0x5A}, 64)
	img, err := tfu.Parse(tpstest.FirmwareImage(0x30, app, cfg))
	require.NoError(t, err)

	assert.Equal(t, tfu.HeaderBlockIndex, img.Header.Index)
	assert.Equal(t, uint16(2), img.Header.Args.NumBlocks)
	assert.Equal(t, uint16(0x30), img.Header.Args.BroadcastAddress)
	assert.Len(t, img.Header.Data, tfu.HeaderBlockLength)

	require.Len(t, img.Data, 2)
	assert.Equal(t, 1, img.Data[0].Index)
	assert.Equal(t, 2, img.Data[1].Index)
	assert.Equal(t, app[:tfu.DataBlockSize], img.Data[0].Data)
	assert.Equal(t, app[tfu.DataBlockSize:], img.Data[1].Data)
	assert.Equal(t, uint16(100), img.Data[1].Args.DataLen)

	assert.Equal(t, tfu.AppConfigBlockIndex, img.AppConfig.Index)
	assert.Equal(t, cfg, img.AppConfig.Data)

	blocks := img.Blocks()
	require.Len(t, blocks, 4)
	assert.Equal(t, img.Header, blocks[0])
	assert.Equal(t, img.AppConfig, blocks[3])
}

func TestParseMalformed(t *testing.T) {
	good := tpstest.FirmwareImage(0x30, make([]byte, 100), make([]byte, 16))

	tests := []struct {
		name string
		img  func() []byte
	}{
		{"empty", func() []byte { return nil }},
		{"truncated header", func() []byte { return good[:tfu.HeaderBlockOffset+10] }},
		{"truncated config", func() []byte { return good[:len(good)-1] }},
		{"too many blocks", func() []byte {
			b := bytes.Clone(good)
			binary.LittleEndian.PutUint16(b[tfu.HeaderMetadataOffset:], tfu.AppConfigBlockIndex)
			return b
		}},
		{"app size past end", func() []byte {
			b := bytes.Clone(good)
			binary.LittleEndian.PutUint32(b[tfu.AppImageSizeOffset:], 1<<20)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tfu.Parse(tt.img())
			assert.ErrorIs(t, err, tfu.ErrMalformed)
		})
	}
}

func TestBlockChunks(t *testing.T) {
	b := tfu.Block{Data: make([]byte, 2*tfu.BurstSize+1)}
	chunks := b.Chunks()
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], tfu.BurstSize)
	assert.Len(t, chunks[2], 1)
	assert.Empty(t, tfu.Block{}.Chunks())
}

func TestBlockAccepts(t *testing.T) {
	header := tfu.Block{Index: tfu.HeaderBlockIndex}
	assert.True(t, header.Accepts(tfu.HeaderValidAndAuthentic))
	assert.False(t, header.Accepts(tfu.DataValidAndAuthentic))

	data := tfu.Block{Index: tfu.DataBlockStartIndex}
	for _, s := range []tfu.BlockStatus{tfu.DataValidAndAuthentic, tfu.DataValidButRepeated, tfu.HeaderValidAndAuthentic} {
		assert.True(t, data.Accepts(s), s.String())
	}
	for _, s := range []tfu.BlockStatus{tfu.BlockSuccess, tfu.DataRxInProgress, tfu.DataAuthFail} {
		assert.False(t, data.Accepts(s), s.String())
	}
}

func TestBlockStatusString(t *testing.T) {
	assert.Equal(t, "HeaderValidAndAuthentic", tfu.HeaderValidAndAuthentic.String())
	assert.Equal(t, "DataAuthFail", tfu.DataAuthFail.String())
	assert.True(t, tfu.DataAuthFail.Known())
	assert.False(t, tfu.BlockStatus(0x40).Known())
	assert.Equal(t, "BlockStatus(0x40)", tfu.BlockStatus(0x40).String())
}

func TestParseQuery(t *testing.T) {
	b := tpstest.QueryResult(tfu.HeaderValidAndAuthentic, tfu.DataValidButRepeated)
	b[0], b[1], b[2] = 1, 2, 3
	q, err := tfu.ParseQuery(b)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), q.ActiveBank)
	assert.Equal(t, uint8(2), q.State)
	assert.Equal(t, uint8(3), q.WriteStatus)
	assert.Equal(t, tfu.HeaderValidAndAuthentic, q.Blocks[tfu.HeaderBlockIndex])
	assert.Equal(t, tfu.DataValidButRepeated, q.Blocks[tfu.AppConfigBlockIndex])

	_, err = tfu.ParseQuery(b[:tfu.QueryResponseLen-1])
	assert.Error(t, err)
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x01}, tfu.QueryArgs())
	assert.Equal(t, []byte{0x00, 0xAC}, tfu.CompleteArgs())
}
