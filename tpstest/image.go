package tpstest

import (
	"encoding/binary"
	"slices"

	"github.com/oxplot/go-tps6699x/tfu"
)

// FirmwareImage builds a firmware update image holding app as consecutive
// data blocks of at most tfu.DataBlockSize bytes followed by the application
// configuration block cfg. Every block is broadcast to addr.
func FirmwareImage(addr uint16, app, cfg []byte) []byte {
	blocks := slices.Collect(slices.Chunk(app, tfu.DataBlockSize))

	img := make([]byte, tfu.HeaderBlockOffset+tfu.HeaderBlockLength)
	copy(img, "TIFW")
	hdr := tfu.Args{
		NumBlocks:        uint16(len(blocks)),
		DataLen:          tfu.HeaderBlockLength,
		TimeoutSecs:      5,
		BroadcastAddress: addr,
	}
	copy(img[tfu.HeaderMetadataOffset:], hdr.Bytes())
	binary.LittleEndian.PutUint32(img[tfu.AppImageSizeOffset:], uint32(len(app)))

	for _, b := range append(blocks, cfg) {
		args := tfu.Args{DataLen: uint16(len(b)), TimeoutSecs: 5, BroadcastAddress: addr}
		img = append(img, args.Bytes()...)
		img = append(img, b...)
	}
	return img
}

// QueryResult returns TFUq result data reporting header for the header block
// and data for every other block.
func QueryResult(header, data tfu.BlockStatus) []byte {
	b := make([]byte, tfu.QueryResponseLen)
	for i := range tfu.MaxBlocks {
		b[3+i] = uint8(data)
	}
	b[3+tfu.HeaderBlockIndex] = uint8(header)
	return b
}
