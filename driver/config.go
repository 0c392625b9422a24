package driver

import (
	"fmt"
	"time"

	"github.com/oxplot/go-tps6699x"
)

// MaxPorts is the number of ports of the largest supported controller.
const MaxPorts = 2

// CompletionMode selects how command completion is observed.
type CompletionMode uint8

// Completion modes.
const (
	// CompletionPoll reads CMD1 every PollInterval until the command is done.
	CompletionPoll CompletionMode = iota

	// CompletionInterrupt waits for the command completion flag to be seen by
	// ProcessInterrupt, then confirms with one CMD1 read. Interrupts must be
	// processed, typically by Run, for commands to complete.
	CompletionInterrupt
)

func (m CompletionMode) String() string {
	switch m {
	case CompletionPoll:
		return "poll"
	case CompletionInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("CompletionMode(%d)", uint8(m))
	}
}

// Config holds the driver parameters.
type Config struct {
	// Ports is the number of ports of the controller.
	Ports int

	// CommandTimeout bounds the wait for a command to complete.
	CommandTimeout time.Duration

	// PollInterval is the CMD1 polling period in CompletionPoll mode.
	PollInterval time.Duration

	// AlertInterval is how often Run checks for interrupts without an
	// interrupt line, and how long it waits for an edge between context
	// checks with one.
	AlertInterval time.Duration

	// ResetDelay is how long the controller takes to restart after a reset.
	ResetDelay time.Duration

	// UpdateModeDelay is how long the controller takes to enter firmware
	// update mode.
	UpdateModeDelay time.Duration

	// BlockDelay is how long the controller takes to process a firmware block
	// written to the broadcast address before it can be validated.
	BlockDelay time.Duration

	Completion CompletionMode

	// DefaultRole is the role reported while no partner is attached.
	DefaultRole tps6699x.PowerRole

	// SubscriberBuffer is the number of event batches buffered per subscriber.
	// Batches are dropped when a subscriber falls behind.
	SubscriberBuffer int
}

// DefaultConfig returns the configuration of a two port controller with
// polled completion.
func DefaultConfig() Config {
	return Config{
		Ports:            MaxPorts,
		CommandTimeout:   time.Second,
		PollInterval:     5 * time.Millisecond,
		AlertInterval:    100 * time.Millisecond,
		ResetDelay:       1600 * time.Millisecond,
		UpdateModeDelay:  500 * time.Millisecond,
		BlockDelay:       250 * time.Millisecond,
		Completion:       CompletionPoll,
		DefaultRole:      tps6699x.PowerRoleDualRole,
		SubscriberBuffer: 16,
	}
}

// Validate returns an error if the configuration is unusable.
func (c Config) Validate() error {
	switch {
	case c.Ports < 1 || c.Ports > MaxPorts:
		return fmt.Errorf("driver: ports must be >= 1 & <= %d: %w", MaxPorts, tps6699x.ErrInvalidConfig)
	case c.CommandTimeout <= 0:
		return fmt.Errorf("driver: command timeout must be positive: %w", tps6699x.ErrInvalidConfig)
	case c.PollInterval <= 0 || c.PollInterval > c.CommandTimeout:
		return fmt.Errorf("driver: poll interval must be positive and <= command timeout: %w", tps6699x.ErrInvalidConfig)
	case c.AlertInterval <= 0:
		return fmt.Errorf("driver: alert interval must be positive: %w", tps6699x.ErrInvalidConfig)
	case c.ResetDelay < 0 || c.UpdateModeDelay < 0 || c.BlockDelay < 0:
		return fmt.Errorf("driver: delays must not be negative: %w", tps6699x.ErrInvalidConfig)
	case c.Completion != CompletionPoll && c.Completion != CompletionInterrupt:
		return fmt.Errorf("driver: unknown completion mode %s: %w", c.Completion, tps6699x.ErrInvalidConfig)
	case c.DefaultRole > tps6699x.PowerRoleSource:
		return fmt.Errorf("driver: unknown default role %s: %w", c.DefaultRole, tps6699x.ErrInvalidConfig)
	case c.SubscriberBuffer < 1:
		return fmt.Errorf("driver: subscriber buffer must be >= 1: %w", tps6699x.ErrInvalidConfig)
	}
	return nil
}
