// Package domain holds the usage tracker's record and aggregation shapes.
package domain

import "time"

// Record is one completed LLM call's cost observation.
type Record struct {
	UserID           string
	SessionID        string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CostCents        int64
	RecordedAt       time.Time
}

func (r Record) TotalTokens() int { return r.PromptTokens + r.CompletionTokens }

// ProviderUsage is one provider's slice of a usage summary.
type ProviderUsage struct {
	Provider  string
	CostCents int64
	Tokens    int
	Requests  int
}

// Summary is the aggregated totals plus per-provider breakdown for a user
// over a date range.
type Summary struct {
	TotalCostCents int64
	TotalTokens    int
	RequestCount   int
	ByProvider     []ProviderUsage
}

// LimitStatus classifies current spend against a declared limit.
type LimitStatus int

const (
	UnderWarning LimitStatus = iota
	Warning                  // >= 80% of limit
	Blocked                  // >= 100% of limit
)

// warningThresholdPercent is the declared Warning boundary.
const warningThresholdPercent = 80

// ClassifyLimit applies this boundary rule: exactly at the limit is
// Blocked; 80%-99.99% is Warning; below that is UnderWarning. A zero or
// negative limit is always Blocked once any cost has been recorded.
func ClassifyLimit(currentCents, limitCents int64) LimitStatus {
	if limitCents <= 0 {
		if currentCents > 0 {
			return Blocked
		}
		return UnderWarning
	}
	if currentCents >= limitCents {
		return Blocked
	}
	if currentCents*100 >= warningThresholdPercent*limitCents {
		return Warning
	}
	return UnderWarning
}
