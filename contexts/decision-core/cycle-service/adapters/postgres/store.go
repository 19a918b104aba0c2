// Package postgres is the gorm-backed ports.CycleRepository and
// ports.CycleReader. A cycle is stored as a single row with its component
// slots serialized as JSONB, mirroring conversation/adapters/postgres's
// denormalized-aggregate-snapshot convention — the whole Cycle is always
// read and written together, never queried component-by-component.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"wayfinder/contexts/decision-core/cycle-service/domain"
	domainerrors "wayfinder/contexts/decision-core/cycle-service/domain/errors"
	"wayfinder/contexts/decision-core/cycle-service/ports"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type cycleModel struct {
	CycleID       string    `gorm:"column:cycle_id;primaryKey"`
	SessionID     string    `gorm:"column:session_id"`
	ParentCycleID *string   `gorm:"column:parent_cycle_id"`
	BranchPoint   *string   `gorm:"column:branch_point"`
	Status        string    `gorm:"column:status"`
	Components    []byte    `gorm:"column:components"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (cycleModel) TableName() string { return "cycles" }

func (s *Store) Save(ctx context.Context, cycle domain.Cycle) error {
	row, err := modelFromCycle(cycle)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) Find(ctx context.Context, cycleID string) (domain.Cycle, error) {
	var row cycleModel
	err := s.db.WithContext(ctx).
		Where("cycle_id = ?", strings.TrimSpace(cycleID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Cycle{}, domainerrors.ErrCycleNotFound
		}
		return domain.Cycle{}, err
	}
	return row.toCycle()
}

func (s *Store) Delete(ctx context.Context, cycleID string) error {
	return s.db.WithContext(ctx).
		Where("cycle_id = ?", strings.TrimSpace(cycleID)).
		Delete(&cycleModel{}).Error
}

func (s *Store) FindBySession(ctx context.Context, sessionID string) ([]domain.Cycle, error) {
	var rows []cycleModel
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCycles(rows)
}

func (s *Store) FindBranches(ctx context.Context, parentCycleID string) ([]domain.Cycle, error) {
	var rows []cycleModel
	if err := s.db.WithContext(ctx).
		Where("parent_cycle_id = ?", strings.TrimSpace(parentCycleID)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCycles(rows)
}

func (s *Store) GetByID(ctx context.Context, cycleID string) (domain.Cycle, error) {
	return s.Find(ctx, cycleID)
}

func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]domain.Cycle, error) {
	return s.FindBySession(ctx, sessionID)
}

func (s *Store) GetTree(ctx context.Context, rootCycleID string) (ports.TreeNode, error) {
	root, err := s.Find(ctx, rootCycleID)
	if err != nil {
		return ports.TreeNode{}, err
	}
	return s.buildTree(ctx, root)
}

func (s *Store) buildTree(ctx context.Context, cycle domain.Cycle) (ports.TreeNode, error) {
	branches, err := s.FindBranches(ctx, cycle.CycleID)
	if err != nil {
		return ports.TreeNode{}, err
	}
	node := ports.TreeNode{Cycle: cycle}
	for _, branch := range branches {
		child, err := s.buildTree(ctx, branch)
		if err != nil {
			return ports.TreeNode{}, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (s *Store) GetProgress(ctx context.Context, cycleID string) (ports.Progress, error) {
	cycle, err := s.Find(ctx, cycleID)
	if err != nil {
		return ports.Progress{}, err
	}
	completed, total := cycle.Progress()
	progress := ports.Progress{CompletedComponents: completed, TotalComponents: total}
	for _, c := range domain.Order {
		if cycle.Components[c].Status == domain.ComponentInProgress {
			progress.CurrentlyActive = append(progress.CurrentlyActive, c)
		}
	}
	return progress, nil
}

func (s *Store) GetComponentOutput(ctx context.Context, cycleID string, component string) (json.RawMessage, error) {
	cycle, err := s.Find(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	slot, ok := cycle.Components[domain.Component(component)]
	if !ok {
		return nil, domainerrors.ErrComponentNotFound
	}
	return slot.Output, nil
}

func modelFromCycle(cycle domain.Cycle) (cycleModel, error) {
	componentsJSON, err := json.Marshal(cycle.Components)
	if err != nil {
		return cycleModel{}, err
	}
	var branchPoint *string
	if cycle.BranchPoint != nil {
		bp := string(*cycle.BranchPoint)
		branchPoint = &bp
	}
	return cycleModel{
		CycleID:       strings.TrimSpace(cycle.CycleID),
		SessionID:     strings.TrimSpace(cycle.SessionID),
		ParentCycleID: cycle.ParentCycleID,
		BranchPoint:   branchPoint,
		Status:        string(cycle.Status),
		Components:    componentsJSON,
		CreatedAt:     cycle.CreatedAt.UTC(),
		UpdatedAt:     cycle.UpdatedAt.UTC(),
	}, nil
}

func (m cycleModel) toCycle() (domain.Cycle, error) {
	var components map[domain.Component]domain.ComponentSlot
	if err := json.Unmarshal(m.Components, &components); err != nil {
		return domain.Cycle{}, err
	}
	var branchPoint *domain.Component
	if m.BranchPoint != nil {
		bp := domain.Component(*m.BranchPoint)
		branchPoint = &bp
	}
	return domain.Cycle{
		CycleID:       m.CycleID,
		SessionID:     m.SessionID,
		ParentCycleID: m.ParentCycleID,
		BranchPoint:   branchPoint,
		Status:        domain.Status(m.Status),
		Components:    components,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}, nil
}

func toCycles(rows []cycleModel) ([]domain.Cycle, error) {
	out := make([]domain.Cycle, 0, len(rows))
	for _, row := range rows {
		cycle, err := row.toCycle()
		if err != nil {
			return nil, err
		}
		out = append(out, cycle)
	}
	return out, nil
}
