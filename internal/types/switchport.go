// Package types defines common types used across the application.
package types

import "strings"

// VlanTagging is the VLAN tagging mode of a switchport.
type VlanTagging string

const (
	VlanTaggingEnable  VlanTagging = "enable"
	VlanTaggingDisable VlanTagging = "disable"
)

// Lifecycle is the desired lifecycle of a switchport configuration.
type Lifecycle string

const (
	LifecyclePresent Lifecycle = "present"
	LifecycleAbsent  Lifecycle = "absent"
)

// Attribute names a mutable switchport attribute.
type Attribute string

const (
	AttrVlanTagging  Attribute = "vlan_tagging"
	AttrTaggedVlans  Attribute = "tagged_vlans"
	AttrUntaggedVlan Attribute = "untagged_vlan"
)

// Attributes lists the mutable attributes in the order they are compared and applied.
var Attributes = []Attribute{AttrVlanTagging, AttrTaggedVlans, AttrUntaggedVlan}

// InterfaceResource is the switchport configuration of one interface as reported by the device.
type InterfaceResource struct {
	InterfaceID  string      `json:"interface" yaml:"interface"`
	VlanTagging  VlanTagging `json:"vlan_tagging,omitempty" yaml:"vlan_tagging,omitempty"`
	TaggedVlans  []string    `json:"tagged_vlans,omitempty" yaml:"tagged_vlans,omitempty"`
	UntaggedVlan string      `json:"untagged_vlan,omitempty" yaml:"untagged_vlan,omitempty"`
}

// Clone returns a deep copy of the resource.
func (r *InterfaceResource) Clone() *InterfaceResource {
	if r == nil {
		return nil
	}
	c := *r
	if r.TaggedVlans != nil {
		c.TaggedVlans = append([]string{}, r.TaggedVlans...)
	}
	return &c
}

// Settings holds the mutable switchport attributes.
// A nil field is unset: the caller has no opinion and the attribute is neither compared nor modified.
// TaggedVlans distinguishes nil (unset) from an empty, non-nil slice (no tagged VLANs).
type Settings struct {
	VlanTagging  *VlanTagging `json:"vlan_tagging,omitempty" yaml:"vlan_tagging,omitempty" toml:"vlan_tagging,omitempty" validate:"omitempty,oneof=enable disable"`
	TaggedVlans  []string     `json:"tagged_vlans,omitempty" yaml:"tagged_vlans,omitempty" toml:"tagged_vlans,omitempty" validate:"omitempty,dive,required,excludesall=0x2C"`
	UntaggedVlan *string      `json:"untagged_vlan,omitempty" yaml:"untagged_vlan,omitempty" toml:"untagged_vlan,omitempty" validate:"omitempty,excludesall=0x2C"`
}

// IsSet reports whether the given attribute carries a value.
func (s Settings) IsSet(attr Attribute) bool {
	switch attr {
	case AttrVlanTagging:
		return s.VlanTagging != nil
	case AttrTaggedVlans:
		return s.TaggedVlans != nil
	case AttrUntaggedVlan:
		return s.UntaggedVlan != nil
	}
	return false
}

// SetAttributes returns the set attributes in canonical order.
func (s Settings) SetAttributes() []Attribute {
	var attrs []Attribute
	for _, attr := range Attributes {
		if s.IsSet(attr) {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// Only returns a copy of s restricted to the given attributes.
func (s Settings) Only(attrs []Attribute) Settings {
	var out Settings
	for _, attr := range attrs {
		switch attr {
		case AttrVlanTagging:
			out.VlanTagging = s.VlanTagging
		case AttrTaggedVlans:
			out.TaggedVlans = s.TaggedVlans
		case AttrUntaggedVlan:
			out.UntaggedVlan = s.UntaggedVlan
		}
	}
	return out
}

// Normalized returns a copy of s with surrounding whitespace trimmed from tagged VLAN names.
// Devices store the list comma-joined and trim it on read, so padded names would never compare equal.
func (s Settings) Normalized() Settings {
	if s.TaggedVlans == nil {
		return s
	}
	vlans := make([]string, len(s.TaggedVlans))
	for i, v := range s.TaggedVlans {
		vlans[i] = strings.TrimSpace(v)
	}
	s.TaggedVlans = vlans
	return s
}

// ApplyTo returns the resource that results from applying the set attributes to base.
// A nil base yields a fresh resource for interfaceID.
func (s Settings) ApplyTo(interfaceID string, base *InterfaceResource) *InterfaceResource {
	out := base.Clone()
	if out == nil {
		out = &InterfaceResource{InterfaceID: interfaceID}
	}
	if s.VlanTagging != nil {
		out.VlanTagging = *s.VlanTagging
	}
	if s.TaggedVlans != nil {
		out.TaggedVlans = append([]string{}, s.TaggedVlans...)
	}
	if s.UntaggedVlan != nil {
		out.UntaggedVlan = *s.UntaggedVlan
	}
	return out
}

// DesiredState is the caller-supplied target for one interface.
type DesiredState struct {
	InterfaceID string    `json:"interface" validate:"required"`
	Lifecycle   Lifecycle `json:"state" validate:"omitempty,oneof=present absent"`
	Settings
}

// EffectiveLifecycle returns the lifecycle, defaulting to present.
func (d DesiredState) EffectiveLifecycle() Lifecycle {
	if d.Lifecycle == "" {
		return LifecyclePresent
	}
	return d.Lifecycle
}

// ChangeSet is the ordered list of attributes whose desired value differs from the current one.
type ChangeSet []Attribute

// IsEmpty returns true if there are no changes.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs) == 0
}

// Contains reports whether attr is part of the change set.
func (cs ChangeSet) Contains(attr Attribute) bool {
	for _, a := range cs {
		if a == attr {
			return true
		}
	}
	return false
}

func (cs ChangeSet) String() string {
	if cs.IsEmpty() {
		return "none"
	}
	names := make([]string, len(cs))
	for i, a := range cs {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

// ParseVlanList splits a comma-separated VLAN list, dropping blanks.
// The result is never nil, so an empty input means "no tagged VLANs".
func ParseVlanList(s string) []string {
	vlans := []string{}
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			vlans = append(vlans, v)
		}
	}
	return vlans
}
