package command

import (
	"encoding/binary"
	"fmt"

	"github.com/oxplot/go-tps6699x"
)

// Opcode is a 4CC command as stored in CMD1: the four ASCII characters in
// little-endian order.
type Opcode uint32

// Known commands.
const (
	OpNone    Opcode = 0
	OpInvalid Opcode = '!' | 'C'<<8 | 'M'<<16 | 'D'<<24 // CMD1 content after an unrecognized command

	OpReset         Opcode = 'G' | 'A'<<8 | 'I'<<16 | 'D'<<24 // Cold reset of the controller
	OpHardReset     Opcode = 'H' | 'R'<<8 | 'S'<<16 | 'T'<<24
	OpAbort         Opcode = 'A' | 'B'<<8 | 'R'<<16 | 'T'<<24
	OpGetSrcCaps    Opcode = 'G' | 'S'<<8 | 'r'<<16 | 'C'<<24
	OpGetSnkCaps    Opcode = 'G' | 'S'<<8 | 'k'<<16 | 'C'<<24
	OpAutoNegotiate Opcode = 'A' | 'N'<<8 | 'e'<<16 | 'g'<<24
	OpSelectRDO     Opcode = 'S' | 'R'<<8 | 'D'<<16 | 'O'<<24
	OpSwapToSource  Opcode = 'S' | 'W'<<8 | 'S'<<16 | 'r'<<24
	OpSwapToSink    Opcode = 'S' | 'W'<<8 | 'S'<<16 | 'k'<<24
	OpSwapToDFP     Opcode = 'S' | 'W'<<8 | 'D'<<16 | 'F'<<24
	OpSwapToUFP     Opcode = 'S' | 'W'<<8 | 'U'<<16 | 'F'<<24

	// Firmware update. OpTfuStart and OpTfuComplete restart the controller
	// and never report completion.
	OpTfuStart    Opcode = 'T' | 'F'<<8 | 'U'<<16 | 's'<<24
	OpTfuInit     Opcode = 'T' | 'F'<<8 | 'U'<<16 | 'i'<<24
	OpTfuData     Opcode = 'T' | 'F'<<8 | 'U'<<16 | 'd'<<24
	OpTfuQuery    Opcode = 'T' | 'F'<<8 | 'U'<<16 | 'q'<<24
	OpTfuComplete Opcode = 'T' | 'F'<<8 | 'U'<<16 | 'c'<<24
	OpTfuExit     Opcode = 'T' | 'F'<<8 | 'U'<<16 | 'e'<<24
)

// NewOpcode returns the opcode of a four character code.
func NewOpcode(cc string) (Opcode, error) {
	if len(cc) != 4 {
		return 0, fmt.Errorf("command: opcode %q is not four characters: %w", cc, tps6699x.ErrInvalidWidth)
	}
	return Opcode(binary.LittleEndian.Uint32([]byte(cc))), nil
}

// Bytes returns the CMD1 register image of the opcode.
func (o Opcode) Bytes() []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(o))
}

func (o Opcode) String() string {
	if o == OpNone {
		return "none"
	}
	b := o.Bytes()
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return fmt.Sprintf("Opcode(0x%08X)", uint32(o))
		}
	}
	return string(b)
}

// ReturnValue is the completion code the controller leaves in byte 0 of DATA1.
type ReturnValue uint8

// Return values. Task values carry command specific outcomes and count as
// success.
const (
	Success  ReturnValue = 0x00
	Abort    ReturnValue = 0x01
	Rejected ReturnValue = 0x03
	RxLocked ReturnValue = 0x04
	Task0    ReturnValue = 0x05
	Task1    ReturnValue = 0x06
	Task2    ReturnValue = 0x07
	Task3    ReturnValue = 0x08
	Task4    ReturnValue = 0x09
	Task5    ReturnValue = 0x0A
	Task6    ReturnValue = 0x0B
	Task7    ReturnValue = 0x0C
	Task8    ReturnValue = 0x0D
	Task9    ReturnValue = 0x0E
	Task10   ReturnValue = 0x0F
)

// IsTask returns true for the command specific task codes.
func (r ReturnValue) IsTask() bool {
	return r >= Task0 && r <= Task10
}

// Err returns the error a return value maps to, or nil for success and task
// codes.
func (r ReturnValue) Err() error {
	switch {
	case r == Success, r.IsTask():
		return nil
	case r == Abort:
		return tps6699x.ErrAborted
	case r == Rejected:
		return tps6699x.ErrRejected
	case r == RxLocked:
		return tps6699x.ErrRxLocked
	default:
		return fmt.Errorf("return code 0x%02X: %w", uint8(r), tps6699x.ErrInvalidResponse)
	}
}

func (r ReturnValue) String() string {
	switch {
	case r == Success:
		return "Success"
	case r == Abort:
		return "Abort"
	case r == Rejected:
		return "Rejected"
	case r == RxLocked:
		return "RxLocked"
	case r.IsTask():
		return fmt.Sprintf("Task%d", uint8(r-Task0))
	default:
		return fmt.Sprintf("ReturnValue(0x%02X)", uint8(r))
	}
}

// Command is a 4CC command with its parameters.
type Command struct {
	Opcode Opcode
	Params []byte // written to DATA1, zero filled to the register width

	// ResponseLen is the number of result bytes following the return code in
	// DATA1.
	ResponseLen int
}

// Result is the outcome of a completed command.
type Result struct {
	Return ReturnValue
	Data   []byte // exactly Command.ResponseLen bytes
}
