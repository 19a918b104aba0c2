// Package ports declares the capability sets the cycle service depends on
// and exposes: CycleRepository, CycleReader.
package ports

import (
	"context"
	"encoding/json"

	"wayfinder/contexts/decision-core/cycle-service/domain"
	"wayfinder/internal/shared/events"
)

// CycleRepository is the write-side store: save/update/find/delete plus the
// two declared lookups.
type CycleRepository interface {
	Save(ctx context.Context, cycle domain.Cycle) error
	Find(ctx context.Context, cycleID string) (domain.Cycle, error)
	Delete(ctx context.Context, cycleID string) error
	FindBySession(ctx context.Context, sessionID string) ([]domain.Cycle, error)
	FindBranches(ctx context.Context, parentCycleID string) ([]domain.Cycle, error)
}

// TreeNode is one cycle's position in a session's branch tree, with its
// direct children already resolved. Built externally by the read port
// rather than held as in-memory owning references between parent and
// child, per this design note on cyclic/graph data.
type TreeNode struct {
	Cycle    domain.Cycle
	Children []TreeNode
}

// Progress is the summary CycleReader.GetProgress returns.
type Progress struct {
	CompletedComponents int
	TotalComponents     int
	CurrentlyActive     []domain.Component
}

// CycleReader is the read-side port: get_by_id, list_by_session,
// get_tree, get_progress, get_component_output.
type CycleReader interface {
	GetByID(ctx context.Context, cycleID string) (domain.Cycle, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Cycle, error)
	GetTree(ctx context.Context, rootCycleID string) (TreeNode, error)
	GetProgress(ctx context.Context, cycleID string) (Progress, error)
	GetComponentOutput(ctx context.Context, cycleID string, component string) (json.RawMessage, error)
}

// OutboxWriter is the narrow outbox slice this context depends on — defined
// locally so cycle-service never imports internal/core/outbox, the same
// isolation idiom used by llm/application.OutboxWriter and
// analysis/application.OutboxWriter.
type OutboxWriter interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
}
