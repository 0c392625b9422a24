// Package pdmsg defines types to encode and decode USB-C Power Delivery data
// objects as exchanged with a port controller.
package pdmsg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxDataObjects is the maximum number of data objects a capabilities message
// can carry, as set by the standard.
const MaxDataObjects = 7

// PDO is a generic Power Data Object. Based on its type, it should be
// converted to specific PDO type to allow extracting various fields.
type PDO uint32

// Type returns the type of the power data object.
func (o PDO) Type() PDOType {
	h := (o >> 30) & 0b11
	if h == 0b11 {
		return PDOType((((o >> 28) & 0b11) << 3) | 0b100 | h)
	}
	return PDOType(h)
}

// Limits returns the highest voltage in millivolts and the highest current in
// milliamps the object offers, whatever its type. Battery objects advertise
// power rather than current, so the current is derived at the maximum voltage
// and saturates at math.MaxUint16.
func (o PDO) Limits() (voltage, current uint16) {
	switch o.Type() {
	case PDOTypeFixedSupply:
		f := FixedSupplyPDO(o)
		return f.Voltage(), f.MaxCurrent()
	case PDOTypeVariableSupply:
		v := VariableSupplyPDO(o)
		return v.MaxVoltage(), v.MaxCurrent()
	case PDOTypeBattery:
		b := BatteryPDO(o)
		if b.MaxVoltage() == 0 {
			return 0, 0
		}
		return b.MaxVoltage(), uint16(min(b.MaxPower()*1000/uint32(b.MaxVoltage()), math.MaxUint16))
	case PDOTypePPS:
		p := PPSPDO(o)
		return p.MaxVoltage(), p.MaxCurrent()
	}
	return 0, 0
}

func (o PDO) String() string {
	v, c := o.Limits()
	return fmt.Sprintf("%s %dmV %dmA", o.Type(), v, c)
}

// PDOType represents the type of a power data object.
type PDOType uint8

// Power data object types.
const (
	PDOTypeFixedSupply    PDOType = 0b00
	PDOTypeBattery        PDOType = 0b01
	PDOTypeVariableSupply PDOType = 0b10
	PDOTypePPS            PDOType = 0b00111 // This value is specific to our library
	PDOTypeEPRAVS         PDOType = 0b01111 // This value is specific to our library
)

func (t PDOType) String() string {
	switch t {
	case PDOTypeFixedSupply:
		return "fixed"
	case PDOTypeBattery:
		return "battery"
	case PDOTypeVariableSupply:
		return "variable"
	case PDOTypePPS:
		return "pps"
	case PDOTypeEPRAVS:
		return "epr-avs"
	default:
		return fmt.Sprintf("PDOType(%#x)", uint8(t))
	}
}

// DecodePDOs decodes up to n little-endian 32 bit data objects from b. It
// returns fewer than n objects if b is too short.
func DecodePDOs(b []byte, n int) []PDO {
	if n > len(b)/4 {
		n = len(b) / 4
	}
	if n <= 0 {
		return nil
	}
	pdos := make([]PDO, n)
	for i := range pdos {
		pdos[i] = PDO(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return pdos
}

// FixedSupplyPDO represents a Fixed Supply Power Data Object
type FixedSupplyPDO uint32

// NewFixedSupplyPDO returns a new blank FixedSupplyPDO.
func NewFixedSupplyPDO() FixedSupplyPDO {
	return FixedSupplyPDO(0)
}

// Voltage returns voltage in millivolts.
func (o FixedSupplyPDO) Voltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// SetVoltage will round the given voltage down to a multiple of 50mV.
func (o *FixedSupplyPDO) SetVoltage(v uint16) {
	*o = (*o & ^((FixedSupplyPDO(1)<<10 - 1) << 10)) | ((FixedSupplyPDO(v)/50)&(1<<10-1))<<10
}

// MaxCurrent returns maximum current in milliamps
func (o FixedSupplyPDO) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// SetMaxCurrent will round the given current down to a multiple of 10mA.
func (o *FixedSupplyPDO) SetMaxCurrent(v uint16) {
	*o = (*o & ^(FixedSupplyPDO(1)<<10 - 1)) | (FixedSupplyPDO(v)/10)&(1<<10-1)
}

// VariableSupplyPDO represents a Variable Supply (non-battery) Power Data
// Object.
type VariableSupplyPDO uint32

// NewVariableSupplyPDO returns a new blank VariableSupplyPDO.
func NewVariableSupplyPDO() VariableSupplyPDO {
	return VariableSupplyPDO(0b10) << 30
}

// MaxVoltage returns maximum voltage in millivolts.
func (o VariableSupplyPDO) MaxVoltage() uint16 {
	return uint16(((o >> 20) & (1<<10 - 1)) * 50)
}

// SetMaxVoltage sets the maximum voltage in millivolts, in 50mV steps.
func (o *VariableSupplyPDO) SetMaxVoltage(v uint16) {
	*o = (*o & ^((VariableSupplyPDO(1)<<10 - 1) << 20)) | ((VariableSupplyPDO(v)/50)&(1<<10-1))<<20
}

// MinVoltage returns minimum voltage in millivolts.
func (o VariableSupplyPDO) MinVoltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// SetMinVoltage sets the minimum voltage in millivolts, in 50mV steps.
func (o *VariableSupplyPDO) SetMinVoltage(v uint16) {
	*o = (*o & ^((VariableSupplyPDO(1)<<10 - 1) << 10)) | ((VariableSupplyPDO(v)/50)&(1<<10-1))<<10
}

// MaxCurrent returns maximum current in milliamps.
func (o VariableSupplyPDO) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// SetMaxCurrent sets the maximum current in milliamps, in 10mA steps.
func (o *VariableSupplyPDO) SetMaxCurrent(c uint16) {
	*o = (*o & ^(VariableSupplyPDO(1)<<10 - 1)) | (VariableSupplyPDO(c)/10)&(1<<10-1)
}

// BatteryPDO represents a Battery Supply Power Data Object.
type BatteryPDO uint32

// NewBatteryPDO returns a new blank BatteryPDO.
func NewBatteryPDO() BatteryPDO {
	return BatteryPDO(0b01) << 30
}

// MaxVoltage returns maximum voltage in millivolts.
func (o BatteryPDO) MaxVoltage() uint16 {
	return uint16(((o >> 20) & (1<<10 - 1)) * 50)
}

// SetMaxVoltage sets the maximum voltage in millivolts, in 50mV steps.
func (o *BatteryPDO) SetMaxVoltage(v uint16) {
	*o = (*o & ^((BatteryPDO(1)<<10 - 1) << 20)) | ((BatteryPDO(v)/50)&(1<<10-1))<<20
}

// MinVoltage returns minimum voltage in millivolts.
func (o BatteryPDO) MinVoltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// SetMinVoltage sets the minimum voltage in millivolts, in 50mV steps.
func (o *BatteryPDO) SetMinVoltage(v uint16) {
	*o = (*o & ^((BatteryPDO(1)<<10 - 1) << 10)) | ((BatteryPDO(v)/50)&(1<<10-1))<<10
}

// MaxPower returns the maximum allowable power in milliwatts.
func (o BatteryPDO) MaxPower() uint32 {
	return uint32(o&(1<<10-1)) * 250
}

// SetMaxPower sets the maximum allowable power in milliwatts, in 250mW steps.
func (o *BatteryPDO) SetMaxPower(p uint32) {
	*o = (*o & ^(BatteryPDO(1)<<10 - 1)) | BatteryPDO(p/250)&(1<<10-1)
}

// PPSPDO represents a Programmable Power Supply Power Data Object
type PPSPDO uint32

// NewPPSPDO returns a new blank programmable power supply power data object.
func NewPPSPDO() PPSPDO {
	return PPSPDO(0b11) << 30
}

// MinVoltage returns minimum voltage in millivolts.
func (o PPSPDO) MinVoltage() uint16 {
	return ((uint16(o) >> 8) & (uint16(1)<<8 - 1)) * 100
}

// SetMinVoltage sets the minimum voltage in millivolts. The voltage will be
// rounded down to a multiple of 100mV.
func (o *PPSPDO) SetMinVoltage(v uint16) {
	*o = (*o & ^((PPSPDO(1)<<8 - 1) << 8)) | PPSPDO((v/100)&(1<<8-1))<<8
}

// MaxVoltage returns maximum voltage in millivolts.
func (o PPSPDO) MaxVoltage() uint16 {
	return (uint16(o>>17) & (uint16(1)<<8 - 1)) * 100
}

// SetMaxVoltage sets the maximum voltage in millivolts. The voltage will be
// rounded down to a multiple of 100mV.
func (o *PPSPDO) SetMaxVoltage(v uint16) {
	*o = (*o & ^((PPSPDO(1)<<8 - 1) << 17)) | PPSPDO((v/100)&(1<<8-1))<<17
}

// MaxCurrent returns maximum current in milliamps.
func (o PPSPDO) MaxCurrent() uint16 {
	return (uint16(o) & (uint16(1)<<7 - 1)) * 50
}

// SetMaxCurrent sets the maximum current in milliamps. The current will be
// rounded down to a multiple of 50mA.
func (o *PPSPDO) SetMaxCurrent(c uint16) {
	*o = (*o & ^(PPSPDO(1)<<7 - 1)) | PPSPDO((c/50)&(1<<7-1))
}

// RequestDO represents a Request Data Object.
type RequestDO uint32

// EmptyRequestDO is returned by sink policies to indicate that they do not
// accept any of the power profiles supported by the power source.
const EmptyRequestDO RequestDO = 0

// SelectedObjectPosition returns the position number of the PDO in the source
// capability message, starting at 1.
func (o RequestDO) SelectedObjectPosition() uint8 {
	return uint8(o >> 28)
}

// SetSelectedObjectPosition sets the position number of the PDO the source
// capability message, starting at 1.
func (o *RequestDO) SetSelectedObjectPosition(p uint8) {
	*o = (*o & ^(RequestDO(0b1111) << 28)) | RequestDO(p)<<28
}

// CapabilityMismatch returns true if capability mismatch flag of the RDO is
// set.
func (o RequestDO) CapabilityMismatch() bool {
	return o&(1<<26) != 0
}

// SetCapabilityMismatch sets the capability mismatch flag of the RDO.
func (o *RequestDO) SetCapabilityMismatch(m bool) {
	var b RequestDO
	if m {
		b = 1 << 26
	}
	*o = (*o & ^(RequestDO(1) << 26)) | b
}

// FixedOperatingCurrent returns current in milliamps for fixed request
// objects.
func (o RequestDO) FixedOperatingCurrent() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 10)
}

// SetFixedOperatingCurrent sets current in milliamps rounded down to a
// multiple of 10mA for fixed request objects.
func (o *RequestDO) SetFixedOperatingCurrent(c uint16) {
	*o = (*o & ^((RequestDO(1)<<10 - 1) << 10)) | ((RequestDO(c)/10)&(1<<10-1))<<10
}

// FixedMaxOperatingCurrent returns current in milliamps for fixed request
// objects without GiveBack support.
func (o RequestDO) FixedMaxOperatingCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// SetFixedMaxOperatingCurrent sets current in milliamps rounded down to a
// multiple of 10mA for fixed request objects without GiveBack support.
func (o *RequestDO) SetFixedMaxOperatingCurrent(c uint16) {
	*o = (*o & ^(RequestDO(1)<<10 - 1)) | ((RequestDO(c) / 10) & (1<<10 - 1))
}

// PPSOutputVoltage returns voltage in millivolts for PPS data objects.
func (o RequestDO) PPSOutputVoltage() uint16 {
	return uint16(((o >> 9) & (1<<12 - 1)) * 20)
}

// SetPPSOutputVoltage sets voltage in millivolts rounded down to a multiple of
// 20mV for PPS data objects.
func (o *RequestDO) SetPPSOutputVoltage(v uint16) {
	*o = (*o & ^((RequestDO(1)<<12 - 1) << 9)) | ((RequestDO(v)/20)&(1<<12-1))<<9
}

// PPSOutputCurrent returns current in milliamps for PPS data objects.
func (o RequestDO) PPSOutputCurrent() uint16 {
	return uint16((o & (1<<7 - 1)) * 50)
}

// SetPPSOutputCurrent sets current in milliamps rounded down to a multiple of
// 50mA for PPS data objects.
func (o *RequestDO) SetPPSOutputCurrent(v uint16) {
	*o = (*o & ^(RequestDO(1)<<7 - 1)) | (RequestDO(v)/50)&(1<<7-1)
}

// Bytes returns the little-endian wire encoding of the request object.
func (o RequestDO) Bytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(o))
	return b
}
