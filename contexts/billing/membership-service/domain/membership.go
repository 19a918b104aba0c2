// Package domain holds the membership aggregate: a thin tier/entitlement
// boundary in front of the out-of-scope payment collaborator,
// PaymentProvider.
package domain

import "time"

// Tier is the declared membership tier vocabulary.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
	TierTeam Tier = "team"
)

// Status is the membership's lifecycle, driven by payment provider webhooks
// for paid tiers and set directly for free ones.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusPastDue   Status = "past_due"
)

// Membership is one user's current tier and billing lifecycle state.
type Membership struct {
	MembershipID      string
	UserID            string
	Tier              Tier
	Status            Status
	PaymentCustomerID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         *time.Time
}

// entitlements maps each tier to the feature names it grants. Declared here
// rather than read from a config store since spec.md excludes a full
// relational read-model schema and this is a small, static table.
var entitlements = map[Tier]map[string]bool{
	TierFree: {
		"single_cycle": true,
	},
	TierPro: {
		"single_cycle": true,
		"branching":    true,
		"analysis":     true,
		"export":       true,
	},
	TierTeam: {
		"single_cycle":  true,
		"branching":     true,
		"analysis":      true,
		"export":        true,
		"shared_cycles": true,
	},
}

// HasFeature reports whether tier's static entitlement table grants
// feature. An undeclared tier grants nothing.
func HasFeature(tier Tier, feature string) bool {
	return entitlements[tier][feature]
}

// IsUsable reports whether a membership's status permits granting any
// access at all; PastDue and Cancelled memberships never pass a feature
// check regardless of tier.
func (m Membership) IsUsable() bool {
	return m.Status == StatusActive
}
