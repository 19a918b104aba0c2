package domain

import "testing"

func findSummary(summaries []TradeoffSummary, alt string) (TradeoffSummary, bool) {
	for _, s := range summaries {
		if s.Alternative == alt {
			return s, true
		}
	}
	return TradeoffSummary{}, false
}

func TestComputeTradeoffsExcludesDominatedAlternatives(t *testing.T) {
	tbl := table(
		[]string{"A", "B", "C"},
		[]string{"cost", "speed"},
		map[string]map[string]int{
			"A": {"cost": 2, "speed": -1},
			"B": {"cost": -1, "speed": 2},
			"C": {"cost": 1, "speed": -2}, // dominated by A
		},
	)
	dominated := map[string]bool{"C": true}

	summaries := ComputeTradeoffs(tbl, dominated)

	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2 (C excluded)", len(summaries))
	}
	if _, ok := findSummary(summaries, "C"); ok {
		t.Fatalf("dominated alternative C should not appear in summaries")
	}
}

func TestComputeTradeoffsGainsAndLosses(t *testing.T) {
	tbl := table(
		[]string{"A", "B"},
		[]string{"cost", "speed"},
		map[string]map[string]int{
			"A": {"cost": 2, "speed": -1},
			"B": {"cost": -1, "speed": 2},
		},
	)

	summaries := ComputeTradeoffs(tbl, map[string]bool{})

	a, ok := findSummary(summaries, "A")
	if !ok {
		t.Fatalf("missing summary for A")
	}
	if len(a.Gains) != 1 || a.Gains[0].Objective != "cost" || a.Gains[0].Delta != 3 {
		t.Fatalf("A gains = %+v, want one cost gain of 3", a.Gains)
	}
	if len(a.Losses) != 1 || a.Losses[0].Objective != "speed" || a.Losses[0].Delta != -3 {
		t.Fatalf("A losses = %+v, want one speed loss of -3", a.Losses)
	}
}

func TestComputeTradeoffsNoContendersWhenAllDominated(t *testing.T) {
	tbl := table(
		[]string{"A", "B"},
		[]string{"cost"},
		map[string]map[string]int{"A": {"cost": 1}, "B": {"cost": 0}},
	)

	summaries := ComputeTradeoffs(tbl, map[string]bool{"A": true, "B": true})

	if len(summaries) != 0 {
		t.Fatalf("summaries = %v, want none", summaries)
	}
}
