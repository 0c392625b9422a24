package tps6699x

import (
	"strconv"

	"github.com/oxplot/go-tps6699x/pdmsg"
)

// EventKind can store multiple event kinds and return them in priority order.
type EventKind uint16

// Pop returns the next high priority event kind and clears it.
func (e *EventKind) Pop() EventKind {
	if *e == 0 {
		return EventNone
	}
	for r := EventKind(1); r != 0; r <<= 1 {
		if *e&r != 0 {
			*e &= ^r
			return r
		}
	}
	return EventNone // will never get here
}

// Add adds the event kinds v to the set.
func (e *EventKind) Add(v EventKind) {
	*e |= v
}

func (e EventKind) String() string {
	switch e {
	case EventNone:
		return "None"
	case EventDetach:
		return "Detach"
	case EventAttach:
		return "Attach"
	case EventNegotiationStarted:
		return "NegotiationStarted"
	case EventCapabilitiesUpdated:
		return "CapabilitiesUpdated"
	case EventContractEstablished:
		return "ContractEstablished"
	case EventPowerRoleChanged:
		return "PowerRoleChanged"
	case EventError:
		return "Error"
	default:
		return "INVALID"
	}
}

// EventNone represents no event.
const EventNone EventKind = 0

// The event kinds are listed in order of priority from highest to lowest.
// Connection events come first so that a detach is observed before any stale
// negotiation event decoded from the same register read.
const (
	EventDetach              EventKind = 1 << iota // Plug removed
	EventAttach                                    // Plug inserted
	EventNegotiationStarted                        // Source capabilities received, negotiation in progress
	EventCapabilitiesUpdated                       // New list of advertised power data objects
	EventContractEstablished                       // Explicit contract in effect
	EventPowerRoleChanged                          // Power role swap completed
	EventError                                     // Error reported by the controller
)

// Event is a single port event. Only the payload fields relevant to Kind are
// set.
type Event struct {
	Kind EventKind

	// Role is set for EventAttach and EventPowerRoleChanged.
	Role PowerRole

	// Contract is set for EventContractEstablished.
	Contract Contract

	// Capabilities is set for EventCapabilitiesUpdated.
	Capabilities []pdmsg.PDO

	// Code is set for EventError.
	Code ErrorCode
}

func (e Event) String() string {
	switch e.Kind {
	case EventAttach, EventPowerRoleChanged:
		return e.Kind.String() + "(" + e.Role.String() + ")"
	case EventContractEstablished:
		return e.Kind.String() + "(" + e.Contract.String() + ")"
	case EventCapabilitiesUpdated:
		return e.Kind.String() + "(" + strconv.Itoa(len(e.Capabilities)) + " PDOs)"
	case EventError:
		return e.Kind.String() + "(" + e.Code.String() + ")"
	default:
		return e.Kind.String()
	}
}

// ErrorCode identifies the error condition carried by an EventError.
type ErrorCode uint8

// Error conditions reported through the interrupt flags.
const (
	ErrorNone           ErrorCode = iota
	ErrorHardReset                // PD hard reset received
	ErrorUnableToSource           // Source could not provide the requested power
	ErrorProtocol                 // PD protocol error
	ErrorMessageData              // Invalid data in a received message
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "None"
	case ErrorHardReset:
		return "HardReset"
	case ErrorUnableToSource:
		return "UnableToSource"
	case ErrorProtocol:
		return "Protocol"
	case ErrorMessageData:
		return "MessageData"
	default:
		return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
	}
}
