package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestComputeDQPicksWeakestLinkNotAverage(t *testing.T) {
	elements := []QualityElement{
		{Name: "Information", ScorePercent: 95},
		{Name: "Alternatives", ScorePercent: 40},
		{Name: "Values", ScorePercent: 90},
	}

	result, err := ComputeDQ(elements)
	if err != nil {
		t.Fatalf("ComputeDQ returned error: %v", err)
	}

	if result.OverallScore != 40 {
		t.Fatalf("overall score = %d, want 40 (the minimum, not the average)", result.OverallScore)
	}
	if result.WeakestElement != "Alternatives" {
		t.Fatalf("weakest element = %q, want Alternatives", result.WeakestElement)
	}
}

func TestComputeDQSuggestsImprovementsBelowThreshold(t *testing.T) {
	elements := []QualityElement{
		{Name: "Information", ScorePercent: 95},
		{Name: "Alternatives", ScorePercent: 40},
		{Name: "Values", ScorePercent: 79},
	}

	result, err := ComputeDQ(elements)
	if err != nil {
		t.Fatalf("ComputeDQ returned error: %v", err)
	}

	if len(result.ImprovementSuggestions) != 2 {
		t.Fatalf("suggestions = %v, want 2 entries (Alternatives and Values, both under 80%%)", result.ImprovementSuggestions)
	}
	for _, s := range result.ImprovementSuggestions {
		if !strings.Contains(s, "Alternatives") && !strings.Contains(s, "Values") {
			t.Fatalf("unexpected suggestion: %q", s)
		}
	}
}

func TestComputeDQNoSuggestionsWhenAllAboveThreshold(t *testing.T) {
	elements := []QualityElement{
		{Name: "Information", ScorePercent: 95},
		{Name: "Alternatives", ScorePercent: 80},
	}

	result, err := ComputeDQ(elements)
	if err != nil {
		t.Fatalf("ComputeDQ returned error: %v", err)
	}

	if len(result.ImprovementSuggestions) != 0 {
		t.Fatalf("suggestions = %v, want none", result.ImprovementSuggestions)
	}
}

func TestComputeDQEmptyElementsIsRefused(t *testing.T) {
	_, err := ComputeDQ(nil)

	if !errors.Is(err, ErrNoElements) {
		t.Fatalf("err = %v, want ErrNoElements", err)
	}
}
