package application

import (
	"context"

	"wayfinder/internal/core/conversation/domain"
)

// DocumentReconciler parses a manually edited export of a component's
// document back into the structured form the component output store
// expects, and reports whether the edit now satisfies completion. This is a
// narrow, context-specific hook — the reconciliation rule differs per
// component (e.g. an Objectives document needs a non-empty bullet list; a
// Consequences document needs every alternative x objective cell filled),
// so this package never decides it.
type DocumentReconciler interface {
	Reconcile(ctx context.Context, component domain.Component, editedText string) (complete bool, err error)
}

// ApplyDocumentEdit accepts a manual text edit to the current component's
// exported document and reconciles it back into structured output
// (supplements this with the original's update_document_from_edit).
// If the edit now completes a previously-incomplete component, the step
// state machine's Complete transition runs with an eligibility policy that
// always allows it — the reconciler has already determined completeness.
func (o Orchestrator) ApplyDocumentEdit(ctx context.Context, cycleID string, reconciler DocumentReconciler, editedText string) (domain.State, error) {
	state, err := o.Storage.Load(ctx, cycleID)
	if err != nil {
		return domain.State{}, err
	}

	complete, err := reconciler.Reconcile(ctx, state.CurrentStep, editedText)
	if err != nil {
		return domain.State{}, err
	}
	if !complete {
		if err := o.Storage.Save(ctx, state); err != nil {
			return domain.State{}, err
		}
		return state, nil
	}

	now := o.now()
	state, err = state.ApplyComplete(func(domain.Component, domain.State) bool { return true }, now)
	if err != nil {
		return domain.State{}, err
	}
	if err := o.Storage.Save(ctx, state); err != nil {
		return domain.State{}, err
	}
	return state, nil
}
