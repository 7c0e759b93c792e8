package switchport

import (
	"bytes"
	"context"
	"fmt"

	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/pkg/validation"
	"golang-switchport/internal/port"
	"golang-switchport/internal/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options configures a Manager.
type Options struct {
	// DryRun observes and diffs but never sends create, update or delete.
	DryRun bool
	// Logger receives the pre-command and post-result events. Defaults to a component logger.
	Logger *logrus.Entry
}

// Manager reconciles the switchport configuration of one interface and implements the SwitchportManager port.
// Each Reconcile call is an independent pass: nothing is cached between passes.
type Manager struct {
	desired   types.DesiredState
	transport port.Transport
	dryRun    bool
	logger    *logrus.Entry
}

// Ensure Manager implements the SwitchportManager port
var _ port.SwitchportManager = (*Manager)(nil)

// NewManager creates a reconciler for the given desired state.
func NewManager(desired types.DesiredState, transport port.Transport, opts Options) (*Manager, error) {
	desired.Settings = desired.Settings.Normalized()
	if err := ValidateDesiredState(desired); err != nil {
		return nil, fmt.Errorf("invalid desired state: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponentAndInterface("switchport", desired.InterfaceID)
	}

	return &Manager{
		desired:   desired,
		transport: transport,
		dryRun:    opts.DryRun,
		logger:    logger,
	}, nil
}

// ValidateDesiredState checks the caller input before any command is sent.
// VLAN names are checked after trimming, so a blank name is rejected.
func ValidateDesiredState(desired types.DesiredState) error {
	desired.Settings = desired.Settings.Normalized()
	return validation.Struct(desired)
}

// GetInterfaceName returns the name of the interface managed by this manager.
func (m *Manager) GetInterfaceName() string {
	return m.desired.InterfaceID
}

// Reconcile runs one observe-diff-act pass. Transport calls are strictly sequential.
// On failure the returned outcome still describes the action that was attempted.
func (m *Manager) Reconcile(ctx context.Context) (*types.Outcome, error) {
	logger := m.logger.WithField("pass", uuid.NewString())
	c := newClient(m.transport, logger)
	reader := &Reader{client: c}
	id := m.desired.InterfaceID

	outcome := &types.Outcome{
		InterfaceID: id,
		Action:      types.ActionNone,
		DryRun:      m.dryRun,
		ChangeSet:   types.ChangeSet{},
	}

	current, err := m.observe(ctx, reader, logger)
	if err != nil {
		return outcome, err
	}
	outcome.Before = current
	outcome.After = current.Clone()

	if m.desired.EffectiveLifecycle() == types.LifecycleAbsent {
		if current == nil {
			logger.Info("Switchport configuration already absent")
			return outcome, nil
		}
		outcome.Action = types.ActionDelete
		outcome.After = nil
		if m.dryRun {
			logger.Info("Would delete switchport configuration")
			return outcome, nil
		}
		return outcome, m.delete(ctx, c, logger, outcome)
	}

	if current == nil {
		outcome.Action = types.ActionCreate
		outcome.ChangeSet = append(types.ChangeSet{}, m.desired.SetAttributes()...)
		outcome.After = m.desired.Settings.ApplyTo(id, nil)
		if m.dryRun {
			logger.WithField("attributes", outcome.ChangeSet.String()).Info("Would create switchport configuration")
			return outcome, nil
		}
		return outcome, m.create(ctx, c, logger, outcome)
	}

	changes, err := Diff(m.desired.Settings, current)
	if err != nil {
		return outcome, err
	}
	outcome.ChangeSet = changes
	if changes.IsEmpty() {
		logger.Info("Switchport configuration already up to date")
		return outcome, nil
	}

	outcome.Action = types.ActionUpdate
	outcome.After = m.desired.Settings.Only(changes).ApplyTo(id, current)
	if m.dryRun {
		logger.WithField("attributes", changes.String()).Info("Would update switchport configuration")
		return outcome, nil
	}
	return outcome, m.update(ctx, c, logger, outcome)
}

// observe returns the current configuration, or nil when the interface has none.
func (m *Manager) observe(ctx context.Context, reader *Reader, logger *logrus.Entry) (*types.InterfaceResource, error) {
	id := m.desired.InterfaceID

	exists, err := reader.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check switchport configuration: %w", err)
	}
	if !exists {
		logger.Debug("Switchport configuration does not exist")
		return nil, nil
	}

	current, found, err := reader.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read switchport configuration: %w", err)
	}
	if !found {
		// Listed but gone by the time it was fetched
		logger.Warn("Switchport configuration disappeared between list and get, treating as missing")
		return nil, nil
	}
	return current, nil
}

func (m *Manager) create(ctx context.Context, c *client, logger *logrus.Entry, outcome *types.Outcome) error {
	cmd := createCommand(m.desired)
	p, err := c.execute(ctx, cmd)
	if err != nil {
		return err
	}
	if !p.succeeded(cmd.Operation) {
		return p.rejection(cmd)
	}

	if res := resultResource(cmd, p); res != nil {
		outcome.After = res
	}
	logger.WithField("attributes", outcome.ChangeSet.String()).Info("Created switchport configuration")
	return nil
}

// update sends every change set attribute in a single command.
func (m *Manager) update(ctx context.Context, c *client, logger *logrus.Entry, outcome *types.Outcome) error {
	if outcome.ChangeSet.IsEmpty() {
		logger.Debug("No attributes modified")
		return nil
	}

	cmd := updateCommand(m.desired, outcome.ChangeSet)
	p, err := c.execute(ctx, cmd)
	if err != nil {
		return err
	}
	if !p.succeeded(cmd.Operation) {
		return p.rejection(cmd)
	}

	if res := resultResource(cmd, p); res != nil {
		outcome.After = res
	}
	logger.WithField("attributes", outcome.ChangeSet.String()).Info("Updated switchport configuration")
	return nil
}

// delete treats a device "not found" as success: absent is the goal state.
func (m *Manager) delete(ctx context.Context, c *client, logger *logrus.Entry, outcome *types.Outcome) error {
	cmd := deleteCommand(m.desired.InterfaceID)
	p, err := c.execute(ctx, cmd)
	if err != nil {
		return err
	}

	switch {
	case p.succeeded(cmd.Operation):
		logger.Info("Deleted switchport configuration")
	case *p.Status == types.StatusNotFound:
		logger.WithField("message", p.Message).Info("Switchport configuration already removed")
		outcome.Action = types.ActionNone
	default:
		return p.rejection(cmd)
	}
	return nil
}

// resultResource returns the resource echoed by a mutating reply, if the device sent one.
func resultResource(cmd types.Command, p *payload) *types.InterfaceResource {
	if !bytes.HasPrefix(bytes.TrimSpace(p.Result), []byte("{")) {
		return nil
	}
	res, err := decodeResource(cmd, p)
	if err != nil {
		return nil
	}
	return res
}
