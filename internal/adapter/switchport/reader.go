package switchport

import (
	"context"

	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/port"
	"golang-switchport/internal/types"

	"github.com/sirupsen/logrus"
)

// client wraps a transport with the pre-command and post-result log hooks.
type client struct {
	transport port.Transport
	logger    *logrus.Entry
}

func newClient(transport port.Transport, logger *logrus.Entry) *client {
	if logger == nil {
		logger = logging.WithComponent("switchport")
	}
	return &client{transport: transport, logger: logger}
}

// execute sends one command and decodes its payload. It never retries.
func (c *client) execute(ctx context.Context, cmd types.Command) (*payload, error) {
	logger := c.logger.WithField("operation", cmd.Operation)
	if attrs := cmd.Settings.SetAttributes(); len(attrs) > 0 {
		logger = logger.WithField("attributes", types.ChangeSet(attrs).String())
	}
	logger.Debug("Sending command")

	reply, err := c.transport.Execute(ctx, cmd)
	if err != nil {
		logger.WithError(err).Error("Transport failed")
		return nil, &TransportError{
			Operation:   cmd.Operation,
			InterfaceID: cmd.InterfaceID,
			ExitStatus:  reply.ExitStatus,
			Stderr:      reply.Stderr,
			Err:         err,
		}
	}

	p, err := decodeReply(cmd, reply)
	if err != nil {
		logger.WithError(err).Error("Failed to decode reply")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"status":      *p.Status,
		"exit_status": reply.ExitStatus,
	}).Debug("Received result")
	return p, nil
}

// Reader queries the existence and current attributes of switchport configurations.
type Reader struct {
	client *client
}

// NewReader creates a state reader on top of the given transport.
func NewReader(transport port.Transport, logger *logrus.Entry) *Reader {
	return &Reader{client: newClient(transport, logger)}
}

// List returns the identifiers of every interface that has a switchport configuration.
// A failed channel or malformed payload yields a *TransportError; a non-success status a *DeviceRejectedError.
func (r *Reader) List(ctx context.Context) ([]string, error) {
	cmd := listCommand()
	p, err := r.client.execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !p.succeeded(cmd.Operation) {
		return nil, p.rejection(cmd)
	}
	return decodeIdentifiers(cmd, p)
}

// Exists lists all managed interfaces and tests membership of interfaceID.
func (r *Reader) Exists(ctx context.Context, interfaceID string) (bool, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == interfaceID {
			return true, nil
		}
	}
	return false, nil
}

// Get fetches the switchport configuration of one interface.
// A non-success status is the device's "does not exist" signal and returns found == false without error.
func (r *Reader) Get(ctx context.Context, interfaceID string) (*types.InterfaceResource, bool, error) {
	cmd := getCommand(interfaceID)
	p, err := r.client.execute(ctx, cmd)
	if err != nil {
		return nil, false, err
	}
	if !p.succeeded(cmd.Operation) {
		r.client.logger.WithFields(logrus.Fields{
			"status":  *p.Status,
			"message": p.Message,
		}).Debug("Switchport configuration not found")
		return nil, false, nil
	}

	res, err := decodeResource(cmd, p)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}
