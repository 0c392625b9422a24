package tps6699x

import (
	"fmt"

	"github.com/oxplot/go-tps6699x/pdmsg"
)

// Phase is the negotiation phase of a port.
type Phase uint8

// Port phases. Negotiating is the connected state before an explicit contract
// is in effect.
const (
	PhaseDisconnected Phase = iota
	PhaseNegotiating
	PhaseContracted
	PhaseErrorRecovery
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseNegotiating:
		return "Negotiating"
	case PhaseContracted:
		return "Contracted"
	case PhaseErrorRecovery:
		return "ErrorRecovery"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// PowerRole is the power role of a port.
type PowerRole uint8

// Power roles.
const (
	PowerRoleDualRole PowerRole = iota // Either role, decided at attach
	PowerRoleSink
	PowerRoleSource
)

func (r PowerRole) String() string {
	switch r {
	case PowerRoleDualRole:
		return "DualRolePower"
	case PowerRoleSink:
		return "Sink"
	case PowerRoleSource:
		return "Source"
	default:
		return fmt.Sprintf("PowerRole(%d)", uint8(r))
	}
}

// Contract is a negotiated voltage and current.
type Contract struct {
	Voltage uint16 // millivolts
	Current uint16 // milliamps
}

func (c Contract) String() string {
	return fmt.Sprintf("%dmV@%dmA", c.Voltage, c.Current)
}

// PortState is the last known negotiation state of a port.
//
// Contract is non-nil only while Phase is PhaseContracted.
type PortState struct {
	Role         PowerRole
	Phase        Phase
	Contract     *Contract
	Capabilities []pdmsg.PDO

	// PriorPhase is the phase the port was in when it entered
	// PhaseErrorRecovery. LastError is the most recent error code. Both are kept
	// for diagnostics only.
	PriorPhase Phase
	LastError  ErrorCode
}

// Clone returns a deep copy of the state.
func (s PortState) Clone() PortState {
	c := s
	if s.Contract != nil {
		v := *s.Contract
		c.Contract = &v
	}
	if s.Capabilities != nil {
		c.Capabilities = append([]pdmsg.PDO(nil), s.Capabilities...)
	}
	return c
}
