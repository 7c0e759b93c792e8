package switchport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang-switchport/internal/types"
)

// payload is the structured reply a device prints on stdout.
type payload struct {
	Status  *int            `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// wireResource is the device representation of a switchport configuration.
type wireResource struct {
	Interface    string     `json:"interface"`
	VlanTagging  string     `json:"vlan_tagging"`
	TaggedVlans  vlanList   `json:"tagged_vlans"`
	UntaggedVlan flexString `json:"untagged_vlan"`
}

// vlanList accepts a JSON array of names or numbers, or a comma-separated string.
type vlanList []string

func (l *vlanList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = types.ParseVlanList(s)
		return nil
	}
	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("tagged_vlans: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	*l = out
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// decodeReply parses a raw reply into a payload.
// An empty or unparseable stdout is a transport failure regardless of the exit status.
func decodeReply(cmd types.Command, reply types.Reply) (*payload, error) {
	out := strings.TrimSpace(reply.Stdout)
	if out == "" {
		return nil, &TransportError{
			Operation:   cmd.Operation,
			InterfaceID: cmd.InterfaceID,
			ExitStatus:  reply.ExitStatus,
			Stderr:      reply.Stderr,
			Err:         errors.New("empty payload"),
		}
	}

	var p payload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		return nil, &TransportError{
			Operation:   cmd.Operation,
			InterfaceID: cmd.InterfaceID,
			ExitStatus:  reply.ExitStatus,
			Stderr:      reply.Stderr,
			Err:         fmt.Errorf("unparseable payload: %w", err),
		}
	}
	if p.Status == nil {
		return nil, &TransportError{
			Operation:   cmd.Operation,
			InterfaceID: cmd.InterfaceID,
			ExitStatus:  reply.ExitStatus,
			Stderr:      reply.Stderr,
			Err:         errors.New("payload has no status"),
		}
	}
	return &p, nil
}

// succeeded reports whether the payload status is the success code of the command's operation.
func (p *payload) succeeded(op types.Operation) bool {
	return *p.Status == op.SuccessStatus()
}

// rejection builds the error for a non-success payload.
func (p *payload) rejection(cmd types.Command) *DeviceRejectedError {
	return &DeviceRejectedError{
		Operation:   cmd.Operation,
		InterfaceID: cmd.InterfaceID,
		Status:      *p.Status,
		Message:     p.Message,
		Attempted:   cmd.Settings.SetAttributes(),
	}
}

// decodeResource parses the payload result as a switchport resource.
func decodeResource(cmd types.Command, p *payload) (*types.InterfaceResource, error) {
	var w wireResource
	if err := json.Unmarshal(p.Result, &w); err != nil {
		return nil, &TransportError{
			Operation:   cmd.Operation,
			InterfaceID: cmd.InterfaceID,
			Err:         fmt.Errorf("unparseable resource: %w", err),
		}
	}
	res := &types.InterfaceResource{
		InterfaceID:  w.Interface,
		VlanTagging:  types.VlanTagging(w.VlanTagging),
		TaggedVlans:  []string(w.TaggedVlans),
		UntaggedVlan: string(w.UntaggedVlan),
	}
	if res.InterfaceID == "" {
		res.InterfaceID = cmd.InterfaceID
	}
	return res, nil
}

// decodeIdentifiers parses the payload result as a list of interface identifiers.
// Items may be plain strings or objects carrying an "interface" field.
func decodeIdentifiers(cmd types.Command, p *payload) ([]string, error) {
	var items []json.RawMessage
	if len(p.Result) > 0 {
		if err := json.Unmarshal(p.Result, &items); err != nil {
			return nil, &TransportError{
				Operation: cmd.Operation,
				Err:       fmt.Errorf("unparseable interface list: %w", err),
			}
		}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var w wireResource
		if err := json.Unmarshal(item, &w); err != nil || w.Interface == "" {
			return nil, &TransportError{
				Operation: cmd.Operation,
				Err:       fmt.Errorf("unparseable interface list entry %s", string(item)),
			}
		}
		ids = append(ids, w.Interface)
	}
	return ids, nil
}

func listCommand() types.Command {
	return types.Command{Operation: types.OpList}
}

func getCommand(interfaceID string) types.Command {
	return types.Command{Operation: types.OpGet, InterfaceID: interfaceID}
}

// createCommand carries every set attribute; there is no current state to diff against.
func createCommand(desired types.DesiredState) types.Command {
	return types.Command{
		Operation:   types.OpCreate,
		InterfaceID: desired.InterfaceID,
		Settings:    desired.Settings.Only(desired.SetAttributes()),
	}
}

// updateCommand carries only the attributes in the change set.
func updateCommand(desired types.DesiredState, changes types.ChangeSet) types.Command {
	return types.Command{
		Operation:   types.OpUpdate,
		InterfaceID: desired.InterfaceID,
		Settings:    desired.Settings.Only(changes),
	}
}

func deleteCommand(interfaceID string) types.Command {
	return types.Command{Operation: types.OpDelete, InterfaceID: interfaceID}
}
