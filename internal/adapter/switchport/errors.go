package switchport

import (
	"errors"
	"fmt"
	"strings"

	"golang-switchport/internal/types"
)

// ErrContractViolation marks an internal invariant breach. It is a programming error.
var ErrContractViolation = errors.New("contract violation")

// TransportError reports that the command channel failed or returned an unparseable payload.
type TransportError struct {
	Operation   types.Operation
	InterfaceID string
	ExitStatus  int
	Stderr      string
	Err         error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: transport failure", e.Operation, e.InterfaceID)
	if e.ExitStatus != 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeviceRejectedError reports a parsed reply whose status is not the operation's success code.
// Message is the device text, verbatim.
type DeviceRejectedError struct {
	Operation   types.Operation
	InterfaceID string
	Status      int
	Message     string
	// Attempted lists the attributes the failed command tried to change.
	Attempted []types.Attribute
}

func (e *DeviceRejectedError) Error() string {
	msg := fmt.Sprintf("%s %s: device returned status %d: %s", e.Operation, e.InterfaceID, e.Status, e.Message)
	if len(e.Attempted) > 0 {
		msg += fmt.Sprintf(" (attempted %s)", types.ChangeSet(e.Attempted))
	}
	return msg
}
