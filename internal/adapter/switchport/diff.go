package switchport

import (
	"fmt"

	"golang-switchport/internal/types"
)

// Diff returns the set attributes of desired whose value differs from current, in canonical order.
// Unset attributes are never part of the result. Diffing against a missing resource is a contract
// violation: a missing resource must be created, not updated.
func Diff(desired types.Settings, current *types.InterfaceResource) (types.ChangeSet, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: diff against a nonexistent switchport configuration", ErrContractViolation)
	}

	changes := types.ChangeSet{}
	for _, attr := range types.Attributes {
		if !desired.IsSet(attr) {
			continue
		}
		if !attributeEqual(attr, desired, current) {
			changes = append(changes, attr)
		}
	}
	return changes, nil
}

func attributeEqual(attr types.Attribute, desired types.Settings, current *types.InterfaceResource) bool {
	switch attr {
	case types.AttrVlanTagging:
		return *desired.VlanTagging == current.VlanTagging
	case types.AttrTaggedVlans:
		return vlansEqual(desired.TaggedVlans, current.TaggedVlans)
	case types.AttrUntaggedVlan:
		return *desired.UntaggedVlan == current.UntaggedVlan
	}
	return true
}

// vlansEqual compares two VLAN lists element by element; order is significant.
func vlansEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
