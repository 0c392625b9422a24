package pdmsg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDOType(t *testing.T) {
	tests := []struct {
		pdo  PDO
		want PDOType
	}{
		{PDO(NewFixedSupplyPDO()), PDOTypeFixedSupply},
		{PDO(NewBatteryPDO()), PDOTypeBattery},
		{PDO(NewVariableSupplyPDO()), PDOTypeVariableSupply},
		{PDO(NewPPSPDO()), PDOTypePPS},
		{PDO(0b1101 << 28), PDOTypeEPRAVS},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pdo.Type())
		})
	}
	assert.Equal(t, "PDOType(0x1f)", PDOType(0x1f).String())
}

func TestLimits(t *testing.T) {
	f := NewFixedSupplyPDO()
	f.SetVoltage(9000)
	f.SetMaxCurrent(3000)

	v := NewVariableSupplyPDO()
	v.SetMinVoltage(5000)
	v.SetMaxVoltage(12000)
	v.SetMaxCurrent(1500)

	b := NewBatteryPDO()
	b.SetMinVoltage(9000)
	b.SetMaxVoltage(12000)
	b.SetMaxPower(24000)

	low := NewBatteryPDO()
	low.SetMaxVoltage(50)
	low.SetMaxPower(100000)

	p := NewPPSPDO()
	p.SetMinVoltage(3300)
	p.SetMaxVoltage(21000)
	p.SetMaxCurrent(3000)

	tests := []struct {
		name    string
		pdo     PDO
		voltage uint16
		current uint16
	}{
		{"fixed", PDO(f), 9000, 3000},
		{"variable", PDO(v), 12000, 1500},
		{"battery", PDO(b), 12000, 2000},
		{"pps", PDO(p), 21000, 3000},
		{"battery without voltage", PDO(NewBatteryPDO()), 0, 0},
		{"battery current saturates", PDO(low), 50, math.MaxUint16},
		{"epr avs", PDO(0b1101 << 28), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voltage, current := tt.pdo.Limits()
			assert.Equal(t, tt.voltage, voltage)
			assert.Equal(t, tt.current, current)
		})
	}

	assert.Equal(t, "fixed 9000mV 3000mA", PDO(f).String())
	assert.Equal(t, uint16(3300), p.MinVoltage())
	assert.Equal(t, uint16(5000), v.MinVoltage())
	assert.Equal(t, uint16(9000), b.MinVoltage())
}

func TestSettersRoundDown(t *testing.T) {
	f := NewFixedSupplyPDO()
	f.SetVoltage(5049)
	f.SetMaxCurrent(1509)
	assert.Equal(t, uint16(5000), f.Voltage())
	assert.Equal(t, uint16(1500), f.MaxCurrent())

	// Setting a field leaves the others alone.
	f.SetVoltage(20000)
	assert.Equal(t, uint16(1500), f.MaxCurrent())
	assert.Equal(t, PDOTypeFixedSupply, PDO(f).Type())

	p := NewPPSPDO()
	p.SetMaxCurrent(2999)
	p.SetMaxVoltage(11050)
	assert.Equal(t, uint16(2950), p.MaxCurrent())
	assert.Equal(t, uint16(11000), p.MaxVoltage())
	assert.Equal(t, PDOTypePPS, PDO(p).Type())
}

func TestDecodePDOs(t *testing.T) {
	b := []byte{
		0x2c, 0x91, 0x01, 0x00, // 5V 3A fixed
		0x2c, 0xd1, 0x02, 0x00, // 9V 3A fixed
		0xff,
	}
	pdos := DecodePDOs(b, 2)
	assert.Equal(t, []PDO{0x0001912c, 0x0002d12c}, pdos)

	v, c := pdos[0].Limits()
	assert.Equal(t, uint16(5000), v)
	assert.Equal(t, uint16(3000), c)
	v, _ = pdos[1].Limits()
	assert.Equal(t, uint16(9000), v)

	assert.Len(t, DecodePDOs(b, MaxDataObjects), 2, "short input")
	assert.Nil(t, DecodePDOs(b, 0))
	assert.Nil(t, DecodePDOs(b[:3], 1))
}

func TestRequestDO(t *testing.T) {
	var fixed RequestDO
	fixed.SetSelectedObjectPosition(2)
	fixed.SetFixedOperatingCurrent(1500)
	fixed.SetFixedMaxOperatingCurrent(2000)
	fixed.SetCapabilityMismatch(true)

	assert.Equal(t, uint8(2), fixed.SelectedObjectPosition())
	assert.Equal(t, uint16(1500), fixed.FixedOperatingCurrent())
	assert.Equal(t, uint16(2000), fixed.FixedMaxOperatingCurrent())
	assert.True(t, fixed.CapabilityMismatch())

	fixed.SetCapabilityMismatch(false)
	assert.False(t, fixed.CapabilityMismatch())
	assert.Equal(t, uint8(2), fixed.SelectedObjectPosition())

	var pps RequestDO
	pps.SetSelectedObjectPosition(5)
	pps.SetPPSOutputVoltage(9010)
	pps.SetPPSOutputCurrent(2075)
	assert.Equal(t, uint16(9000), pps.PPSOutputVoltage())
	assert.Equal(t, uint16(2050), pps.PPSOutputCurrent())
	assert.Equal(t, uint8(5), pps.SelectedObjectPosition())
}

func TestRequestDOBytes(t *testing.T) {
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, RequestDO(0x01020304).Bytes())
	assert.Equal(t, []byte{0, 0, 0, 0}, EmptyRequestDO.Bytes())
}
