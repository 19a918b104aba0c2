// Package agentspecs is a static, versioned ports.AgentSpecRegistry — the
// declared per-component prompt contract (role text, objectives,
// techniques) each conversational component's agent is built from.
package agentspecs

import (
	"fmt"

	"wayfinder/internal/core/conversation/domain"
	"wayfinder/internal/core/conversation/ports"
)

// Registry is an in-process, read-only AgentSpecRegistry backed by a fixed
// table. Specs are versioned so that a future revision can be rolled out
// without invalidating in-flight cycles pinned to an earlier version.
type Registry struct {
	specs map[domain.Component]ports.AgentSpec
}

func NewRegistry() *Registry {
	return &Registry{specs: defaultSpecs()}
}

func (r *Registry) Get(component domain.Component) (ports.AgentSpec, error) {
	spec, ok := r.specs[component]
	if !ok {
		return ports.AgentSpec{}, fmt.Errorf("agentspecs: no spec registered for component %q", component)
	}
	return spec, nil
}

func defaultSpecs() map[domain.Component]ports.AgentSpec {
	return map[domain.Component]ports.AgentSpec{
		domain.ComponentIssueRaising: {
			Component: domain.ComponentIssueRaising,
			Version:   1,
			RoleText:  "You help the user articulate the decision they are actually facing, separating symptoms from the underlying issue.",
			Objectives: []string{
				"Surface the real decision being made, not just its symptoms",
				"Name what triggered the need to decide now",
			},
			Techniques: []string{"open-ended questioning", "restating to confirm understanding"},
		},
		domain.ComponentProblemFrame: {
			Component: domain.ComponentProblemFrame,
			Version:   1,
			RoleText:  "You help the user frame the problem precisely: scope, stakeholders, and constraints.",
			Objectives: []string{
				"Define the decision's scope and time horizon",
				"Identify who is affected and who decides",
			},
			Techniques: []string{"stakeholder mapping", "constraint elicitation"},
		},
		domain.ComponentObjectives: {
			Component: domain.ComponentObjectives,
			Version:   1,
			RoleText:  "You help the user articulate what they actually want out of this decision.",
			Objectives: []string{
				"Elicit a complete, non-redundant objectives list",
				"Distinguish means objectives from fundamental objectives",
			},
			Techniques: []string{"means-ends laddering", "objective hierarchies"},
		},
		domain.ComponentAlternatives: {
			Component: domain.ComponentAlternatives,
			Version:   1,
			RoleText:  "You help the user generate a genuinely diverse set of alternatives before evaluating any of them.",
			Objectives: []string{
				"Generate alternatives the user had not already considered",
				"Avoid premature narrowing to a single favorite",
			},
			Techniques: []string{"divergent brainstorming", "combining partial alternatives"},
		},
		domain.ComponentConsequences: {
			Component: domain.ComponentConsequences,
			Version:   1,
			RoleText:  "You help the user estimate how each alternative performs against each objective.",
			Objectives: []string{
				"Produce a complete alternatives × objectives rating table",
				"Surface the evidence or assumption behind each rating",
			},
			Techniques: []string{"Pugh-matrix scoring", "relative comparison against a baseline"},
		},
		domain.ComponentTradeoffs: {
			Component: domain.ComponentTradeoffs,
			Version:   1,
			RoleText:  "You help the user see what they give up and gain by choosing one alternative over its peers.",
			Objectives: []string{
				"Make explicit the gains and losses each alternative carries relative to the others",
				"Surface objectives the user may be undervaluing",
			},
			Techniques: []string{"pairwise tradeoff comparison", "even-swap reasoning"},
		},
		domain.ComponentDecisionQuality: {
			Component: domain.ComponentDecisionQuality,
			Version:   1,
			RoleText:  "You help the user assess whether this decision was made well, independent of its outcome.",
			Objectives: []string{
				"Score each decision-quality element honestly",
				"Identify the weakest element and how to strengthen it",
			},
			Techniques: []string{"decision-quality chain scoring", "weakest-link diagnosis"},
		},
	}
}
