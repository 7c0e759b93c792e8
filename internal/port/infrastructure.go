// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

import (
	"context"

	"golang-switchport/internal/types"
)

//go:generate mockgen -source=infrastructure.go -destination=../mock/mock_infrastructure.go -package=mock

// Transport is a port for the device management channel.
// This interface abstracts how a typed command reaches the device (SSH CLI, CONFIG_DB, ...).
type Transport interface {
	// Execute runs a single command and returns the raw reply.
	// A non-nil error means the channel itself failed; device-level failures are reported in the reply.
	// Implementations never retry.
	Execute(ctx context.Context, cmd types.Command) (types.Reply, error)

	// Close releases the underlying connection
	Close() error
}

// FileManager is a port for file system operations.
// This interface abstracts reading credentials such as private keys and known_hosts files.
type FileManager interface {
	// ReadFile reads the contents of a file
	ReadFile(filename string) ([]byte, error)

	// FileExists checks if a file exists
	FileExists(filename string) bool

	// ExpandPath resolves a leading ~ to the user's home directory
	ExpandPath(filename string) (string, error)
}
