package tps6699x

import "errors"

// Every public operation either succeeds or returns an error matching one of
// the following with errors.Is. Errors are wrapped with context but never
// retried by the driver.
var (
	// ErrBus is returned when the transport reports a failure. The transport
	// error is kept in the chain.
	ErrBus = errors.New("bus error")

	// ErrBusy is returned when a command is issued while another one is still
	// outstanding on the same port.
	ErrBusy = errors.New("port busy")

	// ErrNack is returned when the controller did not recognize the command.
	ErrNack = errors.New("command not acknowledged")

	// ErrRejected is returned when the controller recognized the command but
	// refused to execute it. It matches ErrNack too.
	ErrRejected error = &rejectedError{}

	// ErrAborted is returned when the controller aborted the command.
	ErrAborted = errors.New("command aborted")

	// ErrRxLocked is returned when the controller could not run the command
	// because its receive buffer was locked.
	ErrRxLocked = errors.New("receive buffer locked")

	// ErrTimeout is returned when completion was not observed in time.
	ErrTimeout = errors.New("timed out")

	// ErrInvalidWidth is returned when data supplied by the caller does not fit
	// the register or command it is meant for.
	ErrInvalidWidth = errors.New("invalid width")

	// ErrInvalidResponse is returned when the content read from the
	// controller does not match what the register layout declares.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAccess is returned when writing a read-only register or reading a
	// write-only one.
	ErrAccess = errors.New("register access mode violation")

	// ErrInvalidPort is returned for a port the controller does not have.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidConfig is returned by configuration validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoCapabilities is returned when no advertised power data object is
	// acceptable to a sink policy.
	ErrNoCapabilities = errors.New("no acceptable capabilities")

	// ErrInvalidMode is returned when the controller is not in the firmware
	// mode an operation expects, for instance after entering firmware update.
	ErrInvalidMode = errors.New("unexpected firmware mode")

	// ErrUpdateFailed is returned when the controller refuses a firmware
	// image block or an update step does not report success.
	ErrUpdateFailed = errors.New("firmware update failed")

	// ErrUnsupported is returned when the transport lacks a capability the
	// operation needs.
	ErrUnsupported = errors.New("not supported by transport")
)

type rejectedError struct{}

func (*rejectedError) Error() string { return "command rejected" }

func (*rejectedError) Is(target error) bool { return target == ErrNack }
