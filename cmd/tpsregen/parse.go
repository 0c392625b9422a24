package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RawSchema is a register layout schema as loaded from YAML.
type RawSchema struct {
	Schema    string        `yaml:"schema"`
	Version   int           `yaml:"version"`
	Registers []RawRegister `yaml:"registers"`
}

// RawRegister describes one register.
type RawRegister struct {
	Name        string     `yaml:"name"`
	Address     uint8      `yaml:"address"`
	Width       int        `yaml:"width"`  // bytes
	Access      string     `yaml:"access"` // "ro", "wo", "rw"
	Description string     `yaml:"description"`
	Fields      []RawField `yaml:"fields"`
}

// RawField describes a bit range within a register.
type RawField struct {
	Name   string `yaml:"name"`
	Offset uint16 `yaml:"offset"` // bits
	Width  uint8  `yaml:"width"`  // bits
}

// maxRegisterWidth is the largest payload a single length-prefixed register
// frame can carry.
const maxRegisterWidth = 255

// ParseSchema parses a register schema from YAML bytes.
func ParseSchema(data []byte) (*RawSchema, error) {
	var s RawSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if s.Schema == "" {
		return nil, errors.New("schema missing name")
	}
	return &s, nil
}

// LoadSchema loads and parses a register schema from a file.
func LoadSchema(path string) (*RawSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSchema(data)
}

// Validate checks that register names and addresses are unique, widths are
// representable and every field fits its register without overlapping another
// field.
func (s *RawSchema) Validate() error {
	if s.Version <= 0 {
		return fmt.Errorf("schema %s: version must be positive", s.Schema)
	}
	names := map[string]bool{}
	addrs := map[uint8]string{}
	for _, r := range s.Registers {
		if r.Name == "" {
			return fmt.Errorf("register at 0x%02X: missing name", r.Address)
		}
		if names[r.Name] {
			return fmt.Errorf("register %s: duplicate name", r.Name)
		}
		names[r.Name] = true
		if other, ok := addrs[r.Address]; ok {
			return fmt.Errorf("register %s: address 0x%02X already used by %s", r.Name, r.Address, other)
		}
		addrs[r.Address] = r.Name
		if r.Width < 1 || r.Width > maxRegisterWidth {
			return fmt.Errorf("register %s: width %d out of range 1..%d", r.Name, r.Width, maxRegisterWidth)
		}
		if _, err := accessConst(r.Access); err != nil {
			return fmt.Errorf("register %s: %w", r.Name, err)
		}
		if err := validateFields(r); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(r RawRegister) error {
	used := make([]string, r.Width*8)
	seen := map[string]bool{}
	for _, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("register %s: field at bit %d missing name", r.Name, f.Offset)
		}
		if seen[f.Name] {
			return fmt.Errorf("register %s: duplicate field %s", r.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Width < 1 || f.Width > 64 {
			return fmt.Errorf("register %s: field %s width %d out of range 1..64", r.Name, f.Name, f.Width)
		}
		end := int(f.Offset) + int(f.Width)
		if end > len(used) {
			return fmt.Errorf("register %s: field %s ends at bit %d beyond register width %d", r.Name, f.Name, end, len(used))
		}
		for b := int(f.Offset); b < end; b++ {
			if used[b] != "" {
				return fmt.Errorf("register %s: field %s overlaps %s at bit %d", r.Name, f.Name, used[b], b)
			}
			used[b] = f.Name
		}
	}
	return nil
}

func accessConst(a string) (string, error) {
	switch a {
	case "ro":
		return "ReadOnly", nil
	case "wo":
		return "WriteOnly", nil
	case "rw":
		return "ReadWrite", nil
	default:
		return "", fmt.Errorf("unknown access mode %q", a)
	}
}
