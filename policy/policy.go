// Package policy implements sink capability policies that pick a power data
// object from the source capabilities and build the request for it.
package policy

import (
	"fmt"

	"github.com/loopholelabs/logging/types"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/pdmsg"
)

// Evaluator is an interface that wraps the method EvaluateCapabilities.
type Evaluator interface {

	// EvaluateCapabilities returns the request for the preferred object of
	// pdos, or pdmsg.EmptyRequestDO if none is acceptable. The slice must not
	// be retained past the call.
	EvaluateCapabilities(pdos []pdmsg.PDO) pdmsg.RequestDO
}

// EvaluatorFunc is an adapter to allow the use of ordinary functions as
// Evaluator.
type EvaluatorFunc func([]pdmsg.PDO) pdmsg.RequestDO

// EvaluateCapabilities implements Evaluator interface.
func (f EvaluatorFunc) EvaluateCapabilities(pdos []pdmsg.PDO) pdmsg.RequestDO {
	return f(pdos)
}

// Policy is an Evaluator with parameters that can be checked up front.
type Policy interface {
	// Validate returns an error if the policy parameters are invalid.
	Validate() error
	Evaluator
}

// Select validates p and evaluates pdos with it. It fails with
// ErrNoCapabilities when no object is acceptable.
func Select(p Policy, pdos []pdmsg.PDO) (pdmsg.RequestDO, error) {
	if err := p.Validate(); err != nil {
		return pdmsg.EmptyRequestDO, err
	}
	rdo := p.EvaluateCapabilities(pdos)
	if rdo == pdmsg.EmptyRequestDO {
		return rdo, fmt.Errorf("policy: %d objects offered: %w", len(pdos), tps6699x.ErrNoCapabilities)
	}
	return rdo, nil
}

// Voltage and current bounds accepted by the policies.
const (
	minVoltage    = 3300  // mV
	maxVoltage    = 21000 // mV
	maxCurrent    = 5000  // mA
	minPPSCurrent = 1000  // mA

	ppsCurrentMargin = 150 // mA
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("policy: "+format+": %w", append(args, tps6699x.ErrInvalidConfig)...)
}

func validateVoltage(lo, hi uint16) error {
	if lo < minVoltage || hi < minVoltage || lo > maxVoltage || hi > maxVoltage {
		return invalid("voltage must be >= %dmV & <= %dmV", minVoltage, maxVoltage)
	}
	if lo > hi {
		return invalid("max voltage must be >= min voltage")
	}
	return nil
}

// pick keeps track of the best candidate seen so far.
type pick struct {
	lower bool // prefer lower voltage
	found bool
	v     uint16
	rdo   pdmsg.RequestDO
}

func (p *pick) offer(v uint16, rdo pdmsg.RequestDO) {
	if !p.found || (p.lower && v < p.v) || (!p.lower && v > p.v) {
		p.found, p.v, p.rdo = true, v, rdo
	}
}

// ppsWindow intersects the voltage range [lo, hi] with what a PPS object can
// output. ok is false if they do not overlap.
func ppsWindow(pps pdmsg.PPSPDO, lo, hi uint16) (minV, maxV uint16, ok bool) {
	minV, maxV = max(lo, pps.MinVoltage()), min(hi, pps.MaxVoltage())
	return minV, maxV, minV <= maxV
}

func ppsRequest(pos int, v, c uint16) pdmsg.RequestDO {
	var rdo pdmsg.RequestDO
	rdo.SetSelectedObjectPosition(uint8(pos) + 1)
	rdo.SetPPSOutputVoltage(v)
	rdo.SetPPSOutputCurrent(c)
	return rdo
}

func fixedRequest(pos int, c uint16) pdmsg.RequestDO {
	var rdo pdmsg.RequestDO
	rdo.SetSelectedObjectPosition(uint8(pos) + 1)
	rdo.SetFixedMaxOperatingCurrent(c)
	rdo.SetFixedOperatingCurrent(c)
	return rdo
}

// CVPolicy is a constant voltage policy: the source must keep the voltage
// within range while being able to supply at least Current.
//
// Fixed supply objects are preferred over programmable (PPS) ones unless
// PreferPPS is set. PPS objects must offer Current plus a 150mA margin so the
// supply does not current limit close to the operating point.
type CVPolicy struct {
	MinVoltage uint16 // mV
	MaxVoltage uint16 // mV
	Current    uint16 // mA

	PreferLowerVoltage bool
	PreferPPS          bool
}

// Validate returns an error if the policy parameters are invalid.
func (c CVPolicy) Validate() error {
	if c.Current > maxCurrent {
		return invalid("current must be <= %dmA", maxCurrent)
	}
	return validateVoltage(c.MinVoltage, c.MaxVoltage)
}

// EvaluateCapabilities implements Evaluator interface.
func (c CVPolicy) EvaluateCapabilities(pdos []pdmsg.PDO) pdmsg.RequestDO {
	fixed := pick{lower: c.PreferLowerVoltage}
	pps := pick{lower: c.PreferLowerVoltage}
	for i, p := range pdos {
		switch p.Type() {
		case pdmsg.PDOTypeFixedSupply:
			fs := pdmsg.FixedSupplyPDO(p)
			v := fs.Voltage()
			if v >= c.MinVoltage && v <= c.MaxVoltage && fs.MaxCurrent() >= c.Current {
				fixed.offer(v, fixedRequest(i, c.Current))
			}
		case pdmsg.PDOTypePPS:
			pp := pdmsg.PPSPDO(p)
			minV, maxV, ok := ppsWindow(pp, c.MinVoltage, c.MaxVoltage)
			if !ok || pp.MaxCurrent() < c.Current+ppsCurrentMargin {
				continue
			}
			v := maxV
			if c.PreferLowerVoltage {
				v = minV
			}
			pps.offer(v, ppsRequest(i, v, c.Current))
		}
	}
	switch {
	case !fixed.found:
		return pps.rdo
	case !pps.found, !c.PreferPPS:
		return fixed.rdo
	default:
		return pps.rdo
	}
}

// CCPolicy is a constant current policy: the source is expected to lower the
// voltage as needed to keep the current at or below the negotiated current.
// Only PPS objects can serve it.
//
// Many PD sources advertise PPS but do not actually current limit. Check the
// specific charger under load before relying on this policy.
type CCPolicy struct {
	MinVoltage uint16 // mV, used while below MaxCurrent
	MaxVoltage uint16 // mV, used while below MaxCurrent

	// Current range in mA. Higher currents up to MaxCurrent are preferred.
	// PPS requires at least 1000mA.
	MinCurrent uint16
	MaxCurrent uint16

	PreferLowerVoltage bool
}

// Validate returns an error if the policy parameters are invalid.
func (c CCPolicy) Validate() error {
	if c.MinCurrent < minPPSCurrent || c.MaxCurrent < minPPSCurrent || c.MinCurrent > maxCurrent || c.MaxCurrent > maxCurrent {
		return invalid("current must be >= %dmA & <= %dmA", minPPSCurrent, maxCurrent)
	}
	if c.MinCurrent > c.MaxCurrent {
		return invalid("max current must be >= min current")
	}
	return validateVoltage(c.MinVoltage, c.MaxVoltage)
}

// EvaluateCapabilities implements Evaluator interface.
func (c CCPolicy) EvaluateCapabilities(pdos []pdmsg.PDO) pdmsg.RequestDO {
	best := pick{lower: c.PreferLowerVoltage}
	for i, p := range pdos {
		if p.Type() != pdmsg.PDOTypePPS {
			continue
		}
		pp := pdmsg.PPSPDO(p)
		minV, maxV, ok := ppsWindow(pp, c.MinVoltage, c.MaxVoltage)
		if !ok || pp.MaxCurrent() < c.MinCurrent {
			continue
		}
		v := maxV
		if c.PreferLowerVoltage {
			v = minV
		}
		best.offer(v, ppsRequest(i, v, min(pp.MaxCurrent(), c.MaxCurrent)))
	}
	return best.rdo
}

// Logged is a passthrough policy that logs the offered objects and the
// request chosen by Base at debug level. With a nil Base every offer is
// refused.
type Logged struct {
	Log  types.Logger
	Base Policy
}

// Validate returns nil if the policy is valid.
func (l Logged) Validate() error {
	if l.Base != nil {
		return l.Base.Validate()
	}
	return nil
}

// EvaluateCapabilities implements Evaluator interface.
func (l Logged) EvaluateCapabilities(pdos []pdmsg.PDO) pdmsg.RequestDO {
	rdo := pdmsg.EmptyRequestDO
	if l.Base != nil {
		rdo = l.Base.EvaluateCapabilities(pdos)
	}
	if l.Log != nil {
		for i, p := range pdos {
			l.Log.Debug().
				Int("position", i+1).
				Str("pdo", p.String()).
				Msg("source capability")
		}
		l.Log.Debug().
			Int("offered", len(pdos)).
			Int("selected", int(rdo.SelectedObjectPosition())).
			Uint32("rdo", uint32(rdo)).
			Msg("capabilities evaluated")
	}
	return rdo
}
