// Package pdevent decodes the interrupt and status registers of a port into
// port events.
package pdevent

import (
	"fmt"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdmsg"
	"github.com/oxplot/go-tps6699x/regmap"
)

// Snapshot holds the register images of one status read of a port. Only
// Events is required; the others are nil when they were not read.
type Snapshot struct {
	Events     []byte // INT_EVENT_BUS1
	Status     []byte // STATUS
	ActivePDO  []byte // ACTIVE_PDO_CONTRACT
	SourceCaps []byte // RX_SOURCE_CAPS
}

// Pending returns true if any interrupt flag is set.
func (s Snapshot) Pending() bool {
	for _, b := range s.Events {
		if b != 0 {
			return true
		}
	}
	return false
}

// CommandCompleted returns true if the command completion flag is set in the
// INT_EVENT_BUS1 image events.
func CommandCompleted(events []byte) bool {
	return regmap.IntEventBus1Cmd1Completed.IsSet(events)
}

// Wants reports which optional registers a Snapshot needs for the flags set in
// events to be fully decoded.
func Wants(events []byte) (contract, sourceCaps bool) {
	contract = regmap.IntEventBus1NewContractAsConsumer.IsSet(events) ||
		regmap.IntEventBus1NewContractAsProvider.IsSet(events)
	sourceCaps = regmap.IntEventBus1SourceCapsReceived.IsSet(events)
	return
}

// Status is the decoded STATUS register.
type Status struct {
	PlugPresent bool
	ConnState   uint8
	Flipped     bool // plug orientation, CC2 in use
	Role        tps6699x.PowerRole
	DataDFP     bool // data role is host
	VbusStatus  uint8
}

// ParseStatus decodes a STATUS image. A nil image decodes to a port with no
// plug present.
func ParseStatus(b []byte) Status {
	if len(b) < regmap.Status.Width {
		return Status{Role: tps6699x.PowerRoleSink}
	}
	s := Status{
		PlugPresent: regmap.StatusPlugPresent.IsSet(b),
		ConnState:   uint8(regmap.StatusConnState.Get(b)),
		Flipped:     regmap.StatusPlugOrientation.IsSet(b),
		Role:        tps6699x.PowerRoleSink,
		DataDFP:     regmap.StatusDataRole.IsSet(b),
		VbusStatus:  uint8(regmap.StatusVbusStatus.Get(b)),
	}
	if regmap.StatusPortRole.IsSet(b) {
		s.Role = tps6699x.PowerRoleSource
	}
	return s
}

func (s Status) String() string {
	return fmt.Sprintf("plug=%t role=%s conn=%d vbus=%d", s.PlugPresent, s.Role, s.ConnState, s.VbusStatus)
}

// errorFlags maps interrupt flags to error codes in ascending code order.
var errorFlags = []struct {
	f    regmap.Field
	code tps6699x.ErrorCode
}{
	{regmap.IntEventBus1PdHardReset, tps6699x.ErrorHardReset},
	{regmap.IntEventBus1ErrorUnableToSource, tps6699x.ErrorUnableToSource},
	{regmap.IntEventBus1ErrorProtocol, tps6699x.ErrorProtocol},
	{regmap.IntEventBus1ErrorMessageData, tps6699x.ErrorMessageData},
}

// Kinds returns the event kinds signalled by s.
func Kinds(s Snapshot) tps6699x.EventKind {
	ev := s.Events
	if len(ev) < regmap.IntEventBus1.Width {
		return tps6699x.EventNone
	}
	var k tps6699x.EventKind
	if regmap.IntEventBus1PlugEvent.IsSet(ev) {
		if ParseStatus(s.Status).PlugPresent {
			k.Add(tps6699x.EventAttach)
		} else {
			k.Add(tps6699x.EventDetach)
		}
	}
	if regmap.IntEventBus1SourceCapsReceived.IsSet(ev) {
		k.Add(tps6699x.EventNegotiationStarted)
		if s.SourceCaps != nil {
			k.Add(tps6699x.EventCapabilitiesUpdated)
		}
	}
	if contract, _ := Wants(ev); contract {
		k.Add(tps6699x.EventContractEstablished)
	}
	if regmap.IntEventBus1PrSwapComplete.IsSet(ev) {
		k.Add(tps6699x.EventPowerRoleChanged)
	}
	for _, e := range errorFlags {
		if e.f.IsSet(ev) {
			k.Add(tps6699x.EventError)
		}
	}
	return k
}

// Decode turns a snapshot into events, ordered by priority: Detach, Attach,
// NegotiationStarted, CapabilitiesUpdated, ContractEstablished,
// PowerRoleChanged, then one Error per error flag in ascending code order.
//
// Decode has no side effects; decoding the same snapshot again yields the same
// events.
func Decode(s Snapshot) []tps6699x.Event {
	kinds := Kinds(s)
	if kinds == tps6699x.EventNone {
		return nil
	}
	status := ParseStatus(s.Status)
	var events []tps6699x.Event
	for k := kinds.Pop(); k != tps6699x.EventNone; k = kinds.Pop() {
		switch k {
		case tps6699x.EventAttach, tps6699x.EventPowerRoleChanged:
			events = append(events, tps6699x.Event{Kind: k, Role: status.Role})
		case tps6699x.EventCapabilitiesUpdated:
			events = append(events, tps6699x.Event{Kind: k, Capabilities: SourceCaps(s.SourceCaps)})
		case tps6699x.EventContractEstablished:
			events = append(events, tps6699x.Event{Kind: k, Contract: ActiveContract(s.ActivePDO)})
		case tps6699x.EventError:
			for _, e := range errorFlags {
				if e.f.IsSet(s.Events) {
					events = append(events, tps6699x.Event{Kind: k, Code: e.code})
				}
			}
		default:
			events = append(events, tps6699x.Event{Kind: k})
		}
	}
	return events
}

// ActiveContract returns the contract described by an ACTIVE_PDO_CONTRACT
// image. A nil image yields a zero contract.
func ActiveContract(b []byte) tps6699x.Contract {
	if len(b) < regmap.ActivePdoContract.Width {
		return tps6699x.Contract{}
	}
	v, c := pdmsg.PDO(regmap.ActivePdoContractActivePdo.Get(b)).Limits()
	return tps6699x.Contract{Voltage: v, Current: c}
}

// SourceCaps returns the power data objects of an RX_SOURCE_CAPS image.
func SourceCaps(b []byte) []pdmsg.PDO {
	if len(b) < regmap.RxSourceCaps.Width {
		return nil
	}
	n := int(regmap.RxSourceCapsNumValidPdos.Get(b))
	return pdmsg.DecodePDOs(b[regmap.RxSourceCapsPdo1.Offset/8:], n)
}

// SinkCaps returns the power data objects of an RX_SINK_CAPS image.
func SinkCaps(b []byte) []pdmsg.PDO {
	if len(b) < regmap.RxSinkCaps.Width {
		return nil
	}
	n := int(regmap.RxSinkCapsNumValidPdos.Get(b))
	return pdmsg.DecodePDOs(b[regmap.RxSinkCapsPdo1.Offset/8:], n)
}
