package types

import "strings"

// Operation is a device management operation on switchport configuration.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Device status codes used in reply payloads.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusNotFound = 404
)

// SuccessStatus returns the payload status that signals success for op.
func (op Operation) SuccessStatus() int {
	if op == OpCreate {
		return StatusCreated
	}
	return StatusOK
}

// Mutating reports whether the operation changes device state.
func (op Operation) Mutating() bool {
	return op == OpCreate || op == OpUpdate || op == OpDelete
}

// Command is a typed device request. Transports decide how it goes over the wire.
type Command struct {
	Operation   Operation
	InterfaceID string
	Settings    Settings
}

// Flags renders the set attributes as command-line flags in canonical order.
func (c Command) Flags() []string {
	var flags []string
	if c.Settings.VlanTagging != nil {
		flags = append(flags, "--vlan-tagging", string(*c.Settings.VlanTagging))
	}
	if c.Settings.TaggedVlans != nil {
		flags = append(flags, "--tagged-vlans", strings.Join(c.Settings.TaggedVlans, ","))
	}
	if c.Settings.UntaggedVlan != nil {
		flags = append(flags, "--untagged-vlan", *c.Settings.UntaggedVlan)
	}
	return flags
}

// Reply is the raw result of executing a command.
type Reply struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}
