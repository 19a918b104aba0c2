package domain

import (
	"reflect"
	"sort"
	"testing"
)

func table(alts, objs []string, ratings map[string]map[string]int) ConsequencesTable {
	return ConsequencesTable{Alternatives: alts, Objectives: objs, Ratings: ratings}
}

func TestComputePughScoresSumRatings(t *testing.T) {
	tbl := table(
		[]string{"A", "B"},
		[]string{"cost", "speed"},
		map[string]map[string]int{
			"A": {"cost": 1, "speed": 2},
			"B": {"cost": -1, "speed": 0},
		},
	)

	result := ComputePugh(tbl)

	if result.Scores["A"] != 3 {
		t.Fatalf("A score = %d, want 3", result.Scores["A"])
	}
	if result.Scores["B"] != -1 {
		t.Fatalf("B score = %d, want -1", result.Scores["B"])
	}
}

func TestComputePughFlagsStrictDomination(t *testing.T) {
	tbl := table(
		[]string{"A", "B", "C"},
		[]string{"cost", "speed"},
		map[string]map[string]int{
			"A": {"cost": 2, "speed": 2},
			"B": {"cost": 1, "speed": 1}, // dominated by A on both
			"C": {"cost": 2, "speed": 1}, // tied with A on cost, worse on speed -> dominated
		},
	)

	result := ComputePugh(tbl)

	sort.Strings(result.DominatedAlternatives)
	want := []string{"B", "C"}
	if !reflect.DeepEqual(result.DominatedAlternatives, want) {
		t.Fatalf("dominated = %v, want %v", result.DominatedAlternatives, want)
	}
}

func TestComputePughNoDominationWhenTradeoffsExist(t *testing.T) {
	tbl := table(
		[]string{"A", "B"},
		[]string{"cost", "speed"},
		map[string]map[string]int{
			"A": {"cost": 2, "speed": -1},
			"B": {"cost": -1, "speed": 2},
		},
	)

	result := ComputePugh(tbl)

	if len(result.DominatedAlternatives) != 0 {
		t.Fatalf("dominated = %v, want none (each wins on a different objective)", result.DominatedAlternatives)
	}
}

func TestComputePughFlagsIrrelevantObjectives(t *testing.T) {
	tbl := table(
		[]string{"A", "B", "C"},
		[]string{"cost", "compliance"},
		map[string]map[string]int{
			"A": {"cost": 1, "compliance": 0},
			"B": {"cost": -1, "compliance": 0},
			"C": {"cost": 2, "compliance": 0},
		},
	)

	result := ComputePugh(tbl)

	want := []string{"compliance"}
	if !reflect.DeepEqual(result.IrrelevantObjectives, want) {
		t.Fatalf("irrelevant objectives = %v, want %v", result.IrrelevantObjectives, want)
	}
}

func TestComputePughSingleAlternativeNeverDominated(t *testing.T) {
	tbl := table(
		[]string{"A"},
		[]string{"cost"},
		map[string]map[string]int{"A": {"cost": 0}},
	)

	result := ComputePugh(tbl)

	if len(result.DominatedAlternatives) != 0 {
		t.Fatalf("dominated = %v, want none", result.DominatedAlternatives)
	}
}
