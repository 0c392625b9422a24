package bus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/oxplot/go-tps6699x"
)

// Op is the kind of a recorded register transaction.
type Op uint8

// Transaction kinds.
const (
	OpRead Op = iota + 1
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Record is one captured register transaction. For reads, Data holds the
// bytes returned to the caller and Len the length reported by the device.
type Record struct {
	Time time.Time `cbor:"1,keyasint"`
	Op   Op        `cbor:"2,keyasint"`
	Port uint8     `cbor:"3,keyasint"`
	Reg  uint8     `cbor:"4,keyasint"`
	Data []byte    `cbor:"5,keyasint,omitempty"`
	Len  int       `cbor:"6,keyasint,omitempty"`
	Err  string    `cbor:"7,keyasint,omitempty"`
}

// ErrReplayMismatch is returned by Replay when a transaction does not match
// the next recorded one.
var ErrReplayMismatch = errors.New("bus: replay mismatch")

var (
	captureEncMode cbor.EncMode
	captureDecMode cbor.DecMode
)

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	captureEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}
	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	captureDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// Recorder is a transport that forwards to another transport and writes every
// transaction to a stream of CBOR records. Capture failures never affect the
// forwarded transaction; the first one is reported by Err.
type Recorder struct {
	t   tps6699x.Transport
	now func() time.Time

	mu  sync.Mutex
	enc *cbor.Encoder
	err error
}

var _ tps6699x.Transport = (*Recorder)(nil)

// NewRecorder returns a transport recording traffic of t to w.
func NewRecorder(t tps6699x.Transport, w io.Writer) *Recorder {
	return &Recorder{t: t, now: time.Now, enc: captureEncMode.NewEncoder(w)}
}

func (r *Recorder) record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rec); err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first error encountered while writing records.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) ReadRegister(port tps6699x.PortID, reg uint8, p []byte) (int, error) {
	n, err := r.t.ReadRegister(port, reg, p)
	rec := Record{Time: r.now(), Op: OpRead, Port: uint8(port), Reg: reg, Len: n}
	if err != nil {
		rec.Err = err.Error()
	} else {
		rec.Data = append([]byte(nil), p...)
	}
	r.record(rec)
	return n, err
}

func (r *Recorder) WriteRegister(port tps6699x.PortID, reg uint8, p []byte) error {
	err := r.t.WriteRegister(port, reg, p)
	rec := Record{Time: r.now(), Op: OpWrite, Port: uint8(port), Reg: reg, Data: append([]byte(nil), p...)}
	if err != nil {
		rec.Err = err.Error()
	}
	r.record(rec)
	return err
}

// ReadRecords decodes all records from r.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := captureDecMode.NewDecoder(r)
	var recs []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return recs, nil
			}
			return recs, fmt.Errorf("bus: decoding record %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
	}
}

// Replay is a transport that plays back a capture. Transactions must arrive
// in the recorded order; writes must carry the recorded data.
type Replay struct {
	mu   sync.Mutex
	recs []Record
	next int
}

var _ tps6699x.Transport = (*Replay)(nil)

// NewReplay returns a transport replaying recs.
func NewReplay(recs []Record) *Replay {
	return &Replay{recs: recs}
}

func (r *Replay) take(op Op, port tps6699x.PortID, reg uint8) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.recs) {
		return Record{}, fmt.Errorf("%w: %s port %d reg 0x%02X after end of capture", ErrReplayMismatch, op, port, reg)
	}
	rec := r.recs[r.next]
	if rec.Op != op || rec.Port != uint8(port) || rec.Reg != reg {
		return Record{}, fmt.Errorf("%w: record %d is %s port %d reg 0x%02X, got %s port %d reg 0x%02X",
			ErrReplayMismatch, r.next, rec.Op, rec.Port, rec.Reg, op, port, reg)
	}
	r.next++
	return rec, nil
}

func (r *Replay) ReadRegister(port tps6699x.PortID, reg uint8, p []byte) (int, error) {
	rec, err := r.take(OpRead, port, reg)
	if err != nil {
		return 0, err
	}
	if rec.Err != "" {
		return rec.Len, errors.New(rec.Err)
	}
	copy(p, rec.Data)
	return rec.Len, nil
}

func (r *Replay) WriteRegister(port tps6699x.PortID, reg uint8, p []byte) error {
	rec, err := r.take(OpWrite, port, reg)
	if err != nil {
		return err
	}
	if !bytes.Equal(rec.Data, p) {
		return fmt.Errorf("%w: write 0x%02X data % X, recorded % X", ErrReplayMismatch, reg, p, rec.Data)
	}
	if rec.Err != "" {
		return errors.New(rec.Err)
	}
	return nil
}

// Remaining returns the number of records not yet replayed.
func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs) - r.next
}
