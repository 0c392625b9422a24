// Package tfu describes TPS6699x firmware update images and the parameter
// and result layouts of the firmware update (TFUx) commands.
//
// An image starts with a 4 byte identifier followed by the 8 byte TFUi
// arguments and the header block. Each data block follows as 8 bytes of TFUd
// arguments and the block data, data blocks being spaced DataBlockSize apart.
// The application configuration block comes last, located from the
// application size stored in the header block.
package tfu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// Image geometry.
const (
	IDLength             = 4
	HeaderMetadataOffset = IDLength
	HeaderMetadataLength = 8
	HeaderBlockOffset    = HeaderMetadataOffset + HeaderMetadataLength
	HeaderBlockLength    = 0x800
	DataBlockSize        = 0x4000
	BlockMetadataSize    = 8
	AppImageSizeOffset   = 0x4F8
)

// Block status indices reported by TFUq.
const (
	HeaderBlockIndex    = 0
	DataBlockStartIndex = 1
	AppConfigBlockIndex = 12
	MaxBlocks           = AppConfigBlockIndex + 1
)

// BurstSize is the largest chunk written to the broadcast address at once.
const BurstSize = 256

// ErrMalformed is returned when an image does not have the expected layout.
var ErrMalformed = errors.New("tfu: malformed image")

// Args are the parameters of TFUi and TFUd, stored little-endian in the image
// in front of the block they describe.
type Args struct {
	NumBlocks        uint16 // data blocks following the header, TFUi only
	DataLen          uint16
	TimeoutSecs      uint16
	BroadcastAddress uint16
}

// ParseArgs decodes the 8 byte argument layout.
func ParseArgs(b []byte) (Args, error) {
	if len(b) < BlockMetadataSize {
		return Args{}, fmt.Errorf("%w: %d argument bytes", ErrMalformed, len(b))
	}
	return Args{
		NumBlocks:        binary.LittleEndian.Uint16(b),
		DataLen:          binary.LittleEndian.Uint16(b[2:]),
		TimeoutSecs:      binary.LittleEndian.Uint16(b[4:]),
		BroadcastAddress: binary.LittleEndian.Uint16(b[6:]),
	}, nil
}

// Bytes returns the command parameter image of a.
func (a Args) Bytes() []byte {
	b := binary.LittleEndian.AppendUint16(nil, a.NumBlocks)
	b = binary.LittleEndian.AppendUint16(b, a.DataLen)
	b = binary.LittleEndian.AppendUint16(b, a.TimeoutSecs)
	return binary.LittleEndian.AppendUint16(b, a.BroadcastAddress)
}

// Block is one unit streamed to the controller.
type Block struct {
	Index int  // block status index
	Args  Args // sent with TFUi for the header block, TFUd otherwise
	Data  []byte
}

// Accepts returns true if s reports b as loaded.
func (b Block) Accepts(s BlockStatus) bool {
	if b.Index == HeaderBlockIndex {
		return s == HeaderValidAndAuthentic
	}
	return s == DataValidAndAuthentic || s == DataValidButRepeated || s == HeaderValidAndAuthentic
}

// Chunks splits the block data into burst writes.
func (b Block) Chunks() [][]byte {
	return slices.Collect(slices.Chunk(b.Data, BurstSize))
}

// Image is a parsed firmware image. Block data aliases the parsed buffer.
type Image struct {
	Header    Block
	Data      []Block
	AppConfig Block
}

// Blocks returns every block in streaming order.
func (img *Image) Blocks() []Block {
	blocks := make([]Block, 0, len(img.Data)+2)
	blocks = append(blocks, img.Header)
	blocks = append(blocks, img.Data...)
	return append(blocks, img.AppConfig)
}

func slice(b []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(b) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%X beyond %d byte image", ErrMalformed, n, off, len(b))
	}
	return b[off : off+n], nil
}

func block(b []byte, index, metaOff int) (Block, error) {
	meta, err := slice(b, metaOff, BlockMetadataSize)
	if err != nil {
		return Block{}, err
	}
	args, err := ParseArgs(meta)
	if err != nil {
		return Block{}, err
	}
	data, err := slice(b, metaOff+BlockMetadataSize, int(args.DataLen))
	if err != nil {
		return Block{}, fmt.Errorf("block %d: %w", index, err)
	}
	return Block{Index: index, Args: args, Data: data}, nil
}

// Parse splits a firmware image into its blocks.
func Parse(b []byte) (*Image, error) {
	meta, err := slice(b, HeaderMetadataOffset, HeaderMetadataLength)
	if err != nil {
		return nil, err
	}
	hdr, err := ParseArgs(meta)
	if err != nil {
		return nil, err
	}
	if int(hdr.NumBlocks) > AppConfigBlockIndex-DataBlockStartIndex {
		return nil, fmt.Errorf("%w: %d data blocks", ErrMalformed, hdr.NumBlocks)
	}
	header, err := slice(b, HeaderBlockOffset, HeaderBlockLength)
	if err != nil {
		return nil, err
	}
	img := &Image{Header: Block{Index: HeaderBlockIndex, Args: hdr, Data: header}}

	n := int(hdr.NumBlocks)
	for i := 0; i < n; i++ {
		off := HeaderBlockOffset + HeaderBlockLength + i*(DataBlockSize+BlockMetadataSize)
		blk, err := block(b, DataBlockStartIndex+i, off)
		if err != nil {
			return nil, err
		}
		img.Data = append(img.Data, blk)
	}

	sz, err := slice(b, AppImageSizeOffset, 4)
	if err != nil {
		return nil, err
	}
	appSize := int(binary.LittleEndian.Uint32(sz))
	off := appSize + IDLength + HeaderMetadataLength + HeaderBlockLength + n*BlockMetadataSize
	if img.AppConfig, err = block(b, AppConfigBlockIndex, off); err != nil {
		return nil, err
	}
	return img, nil
}

// BlockStatus is the per block state reported by TFUq.
type BlockStatus uint8

// Block states.
const (
	BlockSuccess BlockStatus = iota
	InvalidTfuState
	InvalidHeaderSize
	InvalidDataBlock
	InvalidDataSize
	InvalidSlaveAddress
	InvalidTimeout
	MaxAppConfigUpdate
	HeaderRxInProgress
	HeaderValidAndAuthentic
	HeaderKeyNotValid
	HeaderNotValid
	HeaderFwHeaderSizeNotValid
	DataRxInProgress
	DataValidAndAuthentic
	DataValidButRepeated
	DataNotValid
	DataInvalidID
	DataAuthFail
)

var blockStatusNames = [...]string{
	"Success",
	"InvalidTfuState",
	"InvalidHeaderSize",
	"InvalidDataBlock",
	"InvalidDataSize",
	"InvalidSlaveAddress",
	"InvalidTimeout",
	"MaxAppConfigUpdate",
	"HeaderRxInProgress",
	"HeaderValidAndAuthentic",
	"HeaderKeyNotValid",
	"HeaderNotValid",
	"HeaderFwHeaderSizeNotValid",
	"DataRxInProgress",
	"DataValidAndAuthentic",
	"DataValidButRepeated",
	"DataNotValid",
	"DataInvalidID",
	"DataAuthFail",
}

// Known returns true for the states the controller defines.
func (s BlockStatus) Known() bool {
	return int(s) < len(blockStatusNames)
}

func (s BlockStatus) String() string {
	if !s.Known() {
		return fmt.Sprintf("BlockStatus(0x%02X)", uint8(s))
	}
	return blockStatusNames[s]
}

// TFUq parameters: query the status of the update in progress.
const (
	queryTfuStatus   = 0x00
	statusInProgress = 0x01
)

// QueryArgs returns the TFUq parameters.
func QueryArgs() []byte {
	return []byte{queryTfuStatus, statusInProgress}
}

// QueryResponseLen is the number of TFUq result bytes. Three bytes of update
// state precede one status byte per block.
const QueryResponseLen = 3 + MaxBlocks

// Query is the decoded TFUq result.
type Query struct {
	ActiveBank  uint8
	State       uint8
	WriteStatus uint8
	Blocks      [MaxBlocks]BlockStatus
}

// ParseQuery decodes a TFUq result.
func ParseQuery(b []byte) (Query, error) {
	if len(b) < QueryResponseLen {
		return Query{}, fmt.Errorf("tfu: %d query bytes, want %d", len(b), QueryResponseLen)
	}
	q := Query{ActiveBank: b[0], State: b[1], WriteStatus: b[2]}
	for i := range q.Blocks {
		q.Blocks[i] = BlockStatus(b[3+i])
	}
	return q, nil
}

// TFUc parameters: keep the running bank and copy the new image to the backup
// bank.
const (
	switchBanks   = 0x00
	copyBankApply = 0xAC
)

// CompleteArgs returns the TFUc parameters.
func CompleteArgs() []byte {
	return []byte{switchBanks, copyBankApply}
}
