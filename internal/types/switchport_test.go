//go:build unit

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings(t *testing.T) {
	tagging := VlanTaggingEnable
	untagged := "native"
	full := Settings{VlanTagging: &tagging, TaggedVlans: []string{"red"}, UntaggedVlan: &untagged}

	t.Run("SetAttributes", func(t *testing.T) {
		assert.Empty(t, Settings{}.SetAttributes())
		assert.Equal(t, Attributes, full.SetAttributes())
		assert.Equal(t, []Attribute{AttrTaggedVlans}, Settings{TaggedVlans: []string{}}.SetAttributes())
	})

	t.Run("Only", func(t *testing.T) {
		only := full.Only([]Attribute{AttrUntaggedVlan})
		assert.Nil(t, only.VlanTagging)
		assert.Nil(t, only.TaggedVlans)
		assert.Equal(t, "native", *only.UntaggedVlan)
	})

	t.Run("ApplyToNil", func(t *testing.T) {
		res := full.ApplyTo("Ethernet1", nil)
		assert.Equal(t, &InterfaceResource{
			InterfaceID:  "Ethernet1",
			VlanTagging:  VlanTaggingEnable,
			TaggedVlans:  []string{"red"},
			UntaggedVlan: "native",
		}, res)
	})

	t.Run("ApplyToKeepsUnsetAttributes", func(t *testing.T) {
		base := &InterfaceResource{InterfaceID: "Ethernet1", VlanTagging: VlanTaggingDisable, TaggedVlans: []string{"blue"}}
		res := Settings{UntaggedVlan: &untagged}.ApplyTo("Ethernet1", base)
		assert.Equal(t, VlanTaggingDisable, res.VlanTagging)
		assert.Equal(t, []string{"blue"}, res.TaggedVlans)
		assert.Equal(t, "native", res.UntaggedVlan)

		res.TaggedVlans[0] = "changed"
		assert.Equal(t, "blue", base.TaggedVlans[0], "base must not be aliased")
	})
}

func TestSettings_Normalized(t *testing.T) {
	padded := Settings{TaggedVlans: []string{" red", "blue "}}
	assert.Equal(t, []string{"red", "blue"}, padded.Normalized().TaggedVlans)
	assert.Equal(t, []string{" red", "blue "}, padded.TaggedVlans, "original is left untouched")

	assert.Nil(t, Settings{}.Normalized().TaggedVlans)
	cleared := Settings{TaggedVlans: []string{}}.Normalized()
	assert.NotNil(t, cleared.TaggedVlans)
	assert.Empty(t, cleared.TaggedVlans)
}

func TestDesiredState_EffectiveLifecycle(t *testing.T) {
	assert.Equal(t, LifecyclePresent, DesiredState{}.EffectiveLifecycle())
	assert.Equal(t, LifecycleAbsent, DesiredState{Lifecycle: LifecycleAbsent}.EffectiveLifecycle())
}

func TestChangeSet(t *testing.T) {
	assert.Equal(t, "none", ChangeSet{}.String())
	assert.Equal(t, "vlan_tagging,untagged_vlan", ChangeSet{AttrVlanTagging, AttrUntaggedVlan}.String())
	assert.True(t, ChangeSet(nil).IsEmpty())
	assert.True(t, ChangeSet{AttrTaggedVlans}.Contains(AttrTaggedVlans))
	assert.False(t, ChangeSet{AttrTaggedVlans}.Contains(AttrVlanTagging))
}

func TestParseVlanList(t *testing.T) {
	assert.Equal(t, []string{"red", "blue"}, ParseVlanList(" red, blue ,"))
	assert.NotNil(t, ParseVlanList(""))
	assert.Empty(t, ParseVlanList(""))
}

func TestCommand_Flags(t *testing.T) {
	tagging := VlanTaggingDisable
	empty := ""
	cmd := Command{Operation: OpUpdate, InterfaceID: "Ethernet1", Settings: Settings{
		VlanTagging:  &tagging,
		TaggedVlans:  []string{},
		UntaggedVlan: &empty,
	}}
	assert.Equal(t, []string{"--vlan-tagging", "disable", "--tagged-vlans", "", "--untagged-vlan", ""}, cmd.Flags())
	assert.Equal(t, 201, OpCreate.SuccessStatus())
	assert.Equal(t, 200, OpDelete.SuccessStatus())
	assert.False(t, OpGet.Mutating())
	assert.True(t, OpDelete.Mutating())
}
