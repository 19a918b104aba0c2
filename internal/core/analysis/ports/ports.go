// Package ports declares the capability sets the analysis trigger handler
// depends on.
package ports

import (
	"context"
	"encoding/json"
)

// CycleReader is the dedicated read port for session context — the trigger
// handler never reaches into the cycle-service's write model.
type CycleReader interface {
	GetSessionID(ctx context.Context, cycleID string) (string, error)
}

// ComponentOutputReader fetches a component's current structured document
// as raw JSON, for the handler to decode into the analysis-specific shape
// the completed component implies.
type ComponentOutputReader interface {
	GetComponentOutput(ctx context.Context, cycleID, component string) (json.RawMessage, error)
}
