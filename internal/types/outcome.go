package types

// Action is what a reconciliation pass did, or would do in dry-run mode.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Outcome is the result of a single reconciliation pass.
type Outcome struct {
	InterfaceID string
	Action      Action
	DryRun      bool
	ChangeSet   ChangeSet
	// Before is the observed resource, nil when it did not exist.
	Before *InterfaceResource
	// After is the resource after the pass (predicted in dry-run mode), nil when absent.
	After *InterfaceResource
}

// Changed reports whether the pass changed, or would change, the device.
func (o *Outcome) Changed() bool {
	return o != nil && o.Action != ActionNone
}
