// Package port defines the primary ports (interfaces) for the application.
// This follows the Ports and Adapters (Hexagonal Architecture) pattern.
package port

import (
	"context"

	"golang-switchport/internal/types"
)

// SwitchportManager is the primary port for switchport reconciliation.
// It follows the Ports and Adapters (Hexagonal Architecture) pattern where this is the "port"
// and the reconciler in adapter/switchport is the "adapter".
type SwitchportManager interface {
	// Reconcile runs one observe-diff-act pass for the managed interface.
	// The outcome is returned even when an action fails, so callers can report what was attempted.
	Reconcile(ctx context.Context) (*types.Outcome, error)

	// GetInterfaceName returns the name of the interface managed by this manager.
	GetInterfaceName() string
}
