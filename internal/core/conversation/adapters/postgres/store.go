// Package postgres is the gorm-backed ports.StateStorage. Conversation
// state is stored as a single row per cycle with the component-status map
// and message history serialized as JSONB, a denormalized aggregate
// snapshot rather than one row per message — the state is always read
// and written whole, never queried by message.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type conversationStateModel struct {
	CycleID         string    `gorm:"column:cycle_id;primaryKey"`
	SessionID       string    `gorm:"column:session_id"`
	CurrentStep     string    `gorm:"column:current_step"`
	ComponentStatus []byte    `gorm:"column:component_status"`
	MessageHistory  []byte    `gorm:"column:message_history"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (conversationStateModel) TableName() string {
	return "conversation_states"
}

func (s *Store) Load(ctx context.Context, cycleID string) (domain.State, error) {
	var row conversationStateModel
	err := s.db.WithContext(ctx).
		Where("cycle_id = ?", strings.TrimSpace(cycleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.State{}, domainerrors.ErrCycleNotFound
		}
		return domain.State{}, err
	}
	return row.toState()
}

func (s *Store) Save(ctx context.Context, state domain.State) error {
	row, err := modelFromState(state)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) Exists(ctx context.Context, cycleID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&conversationStateModel{}).
		Where("cycle_id = ?", strings.TrimSpace(cycleID)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Delete(ctx context.Context, cycleID string) error {
	return s.db.WithContext(ctx).
		Where("cycle_id = ?", strings.TrimSpace(cycleID)).
		Delete(&conversationStateModel{}).
		Error
}

func modelFromState(state domain.State) (conversationStateModel, error) {
	statusJSON, err := json.Marshal(state.ComponentStatus)
	if err != nil {
		return conversationStateModel{}, err
	}
	historyJSON, err := json.Marshal(state.MessageHistory)
	if err != nil {
		return conversationStateModel{}, err
	}
	return conversationStateModel{
		CycleID:         strings.TrimSpace(state.CycleID),
		SessionID:       strings.TrimSpace(state.SessionID),
		CurrentStep:     string(state.CurrentStep),
		ComponentStatus: statusJSON,
		MessageHistory:  historyJSON,
		CreatedAt:       state.CreatedAt.UTC(),
		UpdatedAt:       state.UpdatedAt.UTC(),
	}, nil
}

func (m conversationStateModel) toState() (domain.State, error) {
	var statuses map[domain.Component]domain.Status
	if err := json.Unmarshal(m.ComponentStatus, &statuses); err != nil {
		return domain.State{}, err
	}
	var history []domain.Message
	if err := json.Unmarshal(m.MessageHistory, &history); err != nil {
		return domain.State{}, err
	}
	return domain.State{
		CycleID:         m.CycleID,
		SessionID:       m.SessionID,
		CurrentStep:     domain.Component(m.CurrentStep),
		ComponentStatus: statuses,
		MessageHistory:  history,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}
