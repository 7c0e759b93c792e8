//go:build unit

package switchport

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"golang-switchport/internal/types"
)

func strPtr(s string) *string { return &s }

func taggingPtr(v types.VlanTagging) *types.VlanTagging { return &v }

// jsonReply builds a reply carrying the device payload convention.
func jsonReply(status int, result any, message string) types.Reply {
	body := map[string]any{"status": status}
	if result != nil {
		body["result"] = result
	}
	if message != "" {
		body["message"] = message
	}
	out, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return types.Reply{Stdout: string(out)}
}

type deviceFailure struct {
	status  int
	message string
}

// fakeDevice is an in-memory switch that speaks the payload convention.
type fakeDevice struct {
	configs map[string]*types.InterfaceResource
	failOn  map[types.Operation]deviceFailure
	calls   []types.Command
}

func newFakeDevice(configs ...*types.InterfaceResource) *fakeDevice {
	d := &fakeDevice{
		configs: make(map[string]*types.InterfaceResource),
		failOn:  make(map[types.Operation]deviceFailure),
	}
	for _, c := range configs {
		d.configs[c.InterfaceID] = c.Clone()
	}
	return d
}

func (d *fakeDevice) Execute(_ context.Context, cmd types.Command) (types.Reply, error) {
	d.calls = append(d.calls, cmd)
	if f, ok := d.failOn[cmd.Operation]; ok {
		return jsonReply(f.status, nil, f.message), nil
	}

	id := cmd.InterfaceID
	current, exists := d.configs[id]

	switch cmd.Operation {
	case types.OpList:
		ids := make([]string, 0, len(d.configs))
		for k := range d.configs {
			ids = append(ids, k)
		}
		sort.Strings(ids)
		return jsonReply(types.StatusOK, ids, ""), nil
	case types.OpGet:
		if !exists {
			return jsonReply(types.StatusNotFound, nil, "switchport "+id+" not found"), nil
		}
		return jsonReply(types.StatusOK, current, ""), nil
	case types.OpCreate:
		d.configs[id] = storedAs(cmd.Settings.ApplyTo(id, current))
		return jsonReply(types.StatusCreated, d.configs[id], ""), nil
	case types.OpUpdate:
		if !exists {
			return jsonReply(types.StatusNotFound, nil, "switchport "+id+" not found"), nil
		}
		d.configs[id] = storedAs(cmd.Settings.ApplyTo(id, current))
		return jsonReply(types.StatusOK, d.configs[id], ""), nil
	case types.OpDelete:
		if !exists {
			return jsonReply(types.StatusNotFound, nil, "switchport "+id+" not found"), nil
		}
		delete(d.configs, id)
		return jsonReply(types.StatusOK, nil, ""), nil
	}
	return jsonReply(400, nil, "unknown operation"), nil
}

func (d *fakeDevice) Close() error { return nil }

// storedAs mimics a device that keeps tagged VLANs as a comma-joined string.
func storedAs(res *types.InterfaceResource) *types.InterfaceResource {
	if res.TaggedVlans != nil {
		res.TaggedVlans = types.ParseVlanList(strings.Join(res.TaggedVlans, ","))
	}
	return res
}

// mutations returns the create, update and delete commands received so far.
func (d *fakeDevice) mutations() []types.Command {
	var out []types.Command
	for _, c := range d.calls {
		if c.Operation.Mutating() {
			out = append(out, c)
		}
	}
	return out
}

func (d *fakeDevice) reset() {
	d.calls = nil
}
