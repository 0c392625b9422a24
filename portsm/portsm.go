// Package portsm tracks the negotiation state of a single port from decoded
// port events.
package portsm

import (
	"sync"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdmsg"
)

// Transition describes the effect of one event on a port.
type Transition struct {
	From, To tps6699x.Phase
	Event    tps6699x.Event
}

// Machine is the state machine of one port. It is safe for concurrent use.
type Machine struct {
	defaultRole tps6699x.PowerRole

	mu   sync.Mutex
	cur  *state
	st   tps6699x.PortState
	hook func(Transition)
}

// New returns a machine in the Disconnected phase. defaultRole is the role
// reported while no partner is attached.
func New(defaultRole tps6699x.PowerRole) *Machine {
	m := &Machine{defaultRole: defaultRole, cur: stateDisconnected}
	m.st.Role = defaultRole
	return m
}

// SetHook sets a function called, with the machine locked, after each event
// that changed the state. Pass nil to remove it.
func (m *Machine) SetHook(f func(Transition)) {
	m.mu.Lock()
	m.hook = f
	m.mu.Unlock()
}

// State returns a copy of the current state.
func (m *Machine) State() tps6699x.PortState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Clone()
}

// Apply applies e and reports whether it changed the state. Events that have
// no rule for the current phase are ignored.
func (m *Machine) Apply(e tps6699x.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.cur
	next, changed := global(m, e)
	if next == nil && !changed {
		next, changed = from.Process(m, e)
	}
	if next != nil {
		m.cur = next
		m.st.Phase = next.Phase
		changed = true
	}
	if changed && m.hook != nil {
		m.hook(Transition{From: from.Phase, To: m.cur.Phase, Event: e})
	}
	return changed
}

// ApplyAll applies events in order and returns the number that changed the
// state.
func (m *Machine) ApplyAll(events []tps6699x.Event) int {
	n := 0
	for _, e := range events {
		if m.Apply(e) {
			n++
		}
	}
	return n
}

type state struct {
	Name  string
	Phase tps6699x.Phase

	// Process handles an event not already handled by global. It returns the
	// next state, or nil to stay, and whether the port state was modified.
	Process func(m *Machine, e tps6699x.Event) (next *state, changed bool)
}

var (
	stateDisconnected  *state
	stateNegotiating   *state
	stateContracted    *state
	stateErrorRecovery *state
)

// global handles the events that behave the same in every phase.
func global(m *Machine, e tps6699x.Event) (*state, bool) {
	switch e.Kind {
	case tps6699x.EventDetach:
		m.clear()
		m.st.Role = m.defaultRole
		m.st.PriorPhase = tps6699x.PhaseDisconnected
		m.st.LastError = tps6699x.ErrorNone
		return stateDisconnected, true

	case tps6699x.EventError:
		if m.cur == stateDisconnected {
			return nil, false
		}
		if m.cur != stateErrorRecovery {
			m.st.PriorPhase = m.cur.Phase
		}
		m.st.Contract = nil
		m.st.LastError = e.Code
		return stateErrorRecovery, true
	}
	return nil, false
}

// clear drops negotiation data left from an earlier connection.
func (m *Machine) clear() {
	m.st.Contract = nil
	m.st.Capabilities = nil
}

func attach(m *Machine, e tps6699x.Event) *state {
	m.clear()
	if e.Role != tps6699x.PowerRoleDualRole {
		m.st.Role = e.Role
	}
	return stateNegotiating
}

func storeCapabilities(m *Machine, e tps6699x.Event) bool {
	m.st.Capabilities = append([]pdmsg.PDO(nil), e.Capabilities...)
	return true
}

func establish(m *Machine, e tps6699x.Event) *state {
	c := e.Contract
	m.st.Contract = &c
	return stateContracted
}

func init() {

	// Declared here as the states refer to each other.

	stateDisconnected = &state{
		Name:  "disconnected",
		Phase: tps6699x.PhaseDisconnected,
		Process: func(m *Machine, e tps6699x.Event) (*state, bool) {
			if e.Kind == tps6699x.EventAttach {
				return attach(m, e), true
			}
			return nil, false
		},
	}

	stateNegotiating = &state{
		Name:  "negotiating",
		Phase: tps6699x.PhaseNegotiating,
		Process: func(m *Machine, e tps6699x.Event) (*state, bool) {
			switch e.Kind {
			case tps6699x.EventContractEstablished:
				return establish(m, e), true
			case tps6699x.EventCapabilitiesUpdated:
				return nil, storeCapabilities(m, e)
			}
			return nil, false
		},
	}

	stateContracted = &state{
		Name:  "contracted",
		Phase: tps6699x.PhaseContracted,
		Process: func(m *Machine, e tps6699x.Event) (*state, bool) {
			switch e.Kind {
			case tps6699x.EventPowerRoleChanged:
				m.st.Role = e.Role
				return nil, true
			case tps6699x.EventContractEstablished:
				// Renegotiated, the new contract replaces the old one.
				c := e.Contract
				m.st.Contract = &c
				return nil, true
			case tps6699x.EventCapabilitiesUpdated:
				return nil, storeCapabilities(m, e)
			}
			return nil, false
		},
	}

	stateErrorRecovery = &state{
		Name:  "error-recovery",
		Phase: tps6699x.PhaseErrorRecovery,
		Process: func(m *Machine, e tps6699x.Event) (*state, bool) {
			switch e.Kind {
			case tps6699x.EventAttach:
				return attach(m, e), true
			case tps6699x.EventCapabilitiesUpdated:
				return nil, storeCapabilities(m, e)
			}
			return nil, false
		},
	}
}
