package domain

// Tradeoff is one objective-level comparison of an alternative against a
// single peer.
type Tradeoff struct {
	Objective string
	Against   string
	Delta     int // positive: gain over Against; negative: loss versus Against
}

// TradeoffSummary lists everything one non-dominated alternative gains and
// loses relative to its non-dominated peers.
type TradeoffSummary struct {
	Alternative string
	Gains       []Tradeoff
	Losses      []Tradeoff
}

// ComputeTradeoffs applies this Tradeoffs scoring: for every
// non-dominated alternative, compare it against every other non-dominated
// alternative objective by objective, recording a gain where it rates
// higher and a loss where it rates lower. Dominated alternatives are
// excluded entirely — there is nothing left to trade off once an
// alternative is no better on any objective and worse on at least one.
func ComputeTradeoffs(table ConsequencesTable, dominated map[string]bool) []TradeoffSummary {
	var contenders []string
	for _, alt := range table.Alternatives {
		if !dominated[alt] {
			contenders = append(contenders, alt)
		}
	}

	summaries := make([]TradeoffSummary, 0, len(contenders))
	for _, alt := range contenders {
		summary := TradeoffSummary{Alternative: alt}
		for _, peer := range contenders {
			if peer == alt {
				continue
			}
			for _, obj := range table.Objectives {
				delta := table.Ratings[alt][obj] - table.Ratings[peer][obj]
				switch {
				case delta > 0:
					summary.Gains = append(summary.Gains, Tradeoff{Objective: obj, Against: peer, Delta: delta})
				case delta < 0:
					summary.Losses = append(summary.Losses, Tradeoff{Objective: obj, Against: peer, Delta: delta})
				}
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
