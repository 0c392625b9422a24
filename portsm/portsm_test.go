package portsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdmsg"
)

var (
	attachSink   = tps6699x.Event{Kind: tps6699x.EventAttach, Role: tps6699x.PowerRoleSink}
	detach       = tps6699x.Event{Kind: tps6699x.EventDetach}
	negotiating  = tps6699x.Event{Kind: tps6699x.EventNegotiationStarted}
	contract5V3A = tps6699x.Event{
		Kind:     tps6699x.EventContractEstablished,
		Contract: tps6699x.Contract{Voltage: 5000, Current: 3000},
	}
	protocolError = tps6699x.Event{Kind: tps6699x.EventError, Code: tps6699x.ErrorProtocol}
	caps          = tps6699x.Event{
		Kind:         tps6699x.EventCapabilitiesUpdated,
		Capabilities: []pdmsg.PDO{0x0801912C, 0x0002D0C8},
	}
	toSource = tps6699x.Event{Kind: tps6699x.EventPowerRoleChanged, Role: tps6699x.PowerRoleSource}
)

func TestInitialState(t *testing.T) {
	s := New(tps6699x.PowerRoleDualRole).State()
	assert.Equal(t, tps6699x.PhaseDisconnected, s.Phase)
	assert.Equal(t, tps6699x.PowerRoleDualRole, s.Role)
	assert.Nil(t, s.Contract)
	assert.Empty(t, s.Capabilities)
}

func TestAttachThenContract(t *testing.T) {
	m := New(tps6699x.PowerRoleDualRole)
	assert.Equal(t, 2, m.ApplyAll([]tps6699x.Event{attachSink, contract5V3A}))

	s := m.State()
	assert.Equal(t, tps6699x.PhaseContracted, s.Phase)
	assert.Equal(t, tps6699x.PowerRoleSink, s.Role)
	require.NotNil(t, s.Contract)
	assert.Equal(t, tps6699x.Contract{Voltage: 5000, Current: 3000}, *s.Contract)
}

func TestDetachFromAnyState(t *testing.T) {
	paths := map[string][]tps6699x.Event{
		"disconnected":   nil,
		"negotiating":    {attachSink, negotiating, caps},
		"contracted":     {attachSink, caps, contract5V3A},
		"role swapped":   {attachSink, contract5V3A, toSource},
		"error recovery": {attachSink, caps, contract5V3A, protocolError},
	}
	for name, events := range paths {
		t.Run(name, func(t *testing.T) {
			m := New(tps6699x.PowerRoleSink)
			m.ApplyAll(events)
			assert.True(t, m.Apply(detach))

			s := m.State()
			assert.Equal(t, tps6699x.PhaseDisconnected, s.Phase)
			assert.Nil(t, s.Contract)
			assert.Empty(t, s.Capabilities)
			assert.Equal(t, tps6699x.PowerRoleSink, s.Role)
			assert.Equal(t, tps6699x.ErrorNone, s.LastError)
		})
	}
}

func TestPowerRoleChangeKeepsContract(t *testing.T) {
	m := New(tps6699x.PowerRoleDualRole)
	m.ApplyAll([]tps6699x.Event{attachSink, contract5V3A})
	assert.True(t, m.Apply(toSource))

	s := m.State()
	assert.Equal(t, tps6699x.PhaseContracted, s.Phase)
	assert.Equal(t, tps6699x.PowerRoleSource, s.Role)
	require.NotNil(t, s.Contract)
	assert.Equal(t, uint16(5000), s.Contract.Voltage)
}

func TestErrorRecovery(t *testing.T) {
	m := New(tps6699x.PowerRoleDualRole)
	m.ApplyAll([]tps6699x.Event{attachSink, caps, contract5V3A})
	assert.True(t, m.Apply(protocolError))

	s := m.State()
	assert.Equal(t, tps6699x.PhaseErrorRecovery, s.Phase)
	assert.Equal(t, tps6699x.PhaseContracted, s.PriorPhase)
	assert.Equal(t, tps6699x.ErrorProtocol, s.LastError)
	assert.Nil(t, s.Contract)
	assert.Equal(t, caps.Capabilities, s.Capabilities)

	// A second error keeps the first prior phase.
	m.Apply(tps6699x.Event{Kind: tps6699x.EventError, Code: tps6699x.ErrorHardReset})
	s = m.State()
	assert.Equal(t, tps6699x.PhaseContracted, s.PriorPhase)
	assert.Equal(t, tps6699x.ErrorHardReset, s.LastError)

	// Only Attach or Detach leave error recovery.
	assert.False(t, m.Apply(contract5V3A))
	assert.False(t, m.Apply(toSource))
	assert.Equal(t, tps6699x.PhaseErrorRecovery, m.State().Phase)

	assert.True(t, m.Apply(attachSink))
	s = m.State()
	assert.Equal(t, tps6699x.PhaseNegotiating, s.Phase)
	assert.Empty(t, s.Capabilities)
	assert.Nil(t, s.Contract)
}

func TestErrorWhileDisconnectedIgnored(t *testing.T) {
	m := New(tps6699x.PowerRoleSink)
	assert.False(t, m.Apply(protocolError))
	assert.Equal(t, tps6699x.PhaseDisconnected, m.State().Phase)
}

func TestUnexpectedEventsAreNoOps(t *testing.T) {
	m := New(tps6699x.PowerRoleSink)
	for _, e := range []tps6699x.Event{contract5V3A, toSource, caps, negotiating} {
		assert.False(t, m.Apply(e), e.String())
	}
	assert.Equal(t, New(tps6699x.PowerRoleSink).State(), m.State())

	m.Apply(attachSink)
	assert.False(t, m.Apply(toSource))
	assert.False(t, m.Apply(attachSink))
	s := m.State()
	assert.Equal(t, tps6699x.PhaseNegotiating, s.Phase)
	assert.Equal(t, tps6699x.PowerRoleSink, s.Role)
}

func TestRenegotiation(t *testing.T) {
	m := New(tps6699x.PowerRoleSink)
	m.ApplyAll([]tps6699x.Event{attachSink, contract5V3A})
	assert.True(t, m.Apply(tps6699x.Event{
		Kind:     tps6699x.EventContractEstablished,
		Contract: tps6699x.Contract{Voltage: 9000, Current: 2000},
	}))
	assert.Equal(t, tps6699x.Contract{Voltage: 9000, Current: 2000}, *m.State().Contract)
}

func TestStateIsCopy(t *testing.T) {
	m := New(tps6699x.PowerRoleSink)
	m.ApplyAll([]tps6699x.Event{attachSink, caps, contract5V3A})

	s := m.State()
	s.Contract.Voltage = 1
	s.Capabilities[0] = 0
	assert.Equal(t, uint16(5000), m.State().Contract.Voltage)
	assert.Equal(t, caps.Capabilities[0], m.State().Capabilities[0])
}

func TestHook(t *testing.T) {
	m := New(tps6699x.PowerRoleSink)
	var got []Transition
	m.SetHook(func(tr Transition) { got = append(got, tr) })

	m.ApplyAll([]tps6699x.Event{attachSink, negotiating, contract5V3A, detach})
	require.Len(t, got, 3)
	assert.Equal(t, Transition{From: tps6699x.PhaseDisconnected, To: tps6699x.PhaseNegotiating, Event: attachSink}, got[0])
	assert.Equal(t, tps6699x.PhaseContracted, got[1].To)
	assert.Equal(t, tps6699x.PhaseDisconnected, got[2].To)
}
