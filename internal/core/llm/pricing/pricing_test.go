package pricing

import "testing"

func TestCostUsesIntegerMath(t *testing.T) {
	// 1,500,000 tokens at 300 cents/million = 450 cents exactly.
	if got := Cost(1_500_000, 300); got != 450 {
		t.Fatalf("expected 450, got %d", got)
	}
	// Integer division truncates rather than rounding.
	if got := Cost(1, 300); got != 0 {
		t.Fatalf("expected truncation to 0, got %d", got)
	}
}

func TestCompletionCostSumsPromptAndCompletion(t *testing.T) {
	got := CompletionCost("anthropic", "claude-sonnet-4", 1_000_000, 1_000_000)
	want := Cost(1_000_000, 300) + Cost(1_000_000, 1500)
	if got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestLookupMatchesDeclaredModelPrices(t *testing.T) {
	cases := []struct {
		provider, model              string
		promptCents, completionCents int64
	}{
		{"anthropic", "claude-opus-4", 1500, 7500},
		{"anthropic", "claude-sonnet-4", 300, 1500},
		{"anthropic", "claude-haiku-4", 25, 125},
		{"openai", "gpt-4-turbo", 1000, 3000},
		{"openai", "gpt-4o", 250, 1000},
		{"openai", "gpt-3.5", 50, 150},
	}
	for _, c := range cases {
		price, ok := Lookup(c.provider, c.model)
		if !ok {
			t.Fatalf("%s/%s: expected a priced entry", c.provider, c.model)
		}
		if price.PromptCostPerMillionCents != c.promptCents || price.CompletionCostPerMillionCents != c.completionCents {
			t.Fatalf("%s/%s: expected %d/%d, got %d/%d", c.provider, c.model,
				c.promptCents, c.completionCents,
				price.PromptCostPerMillionCents, price.CompletionCostPerMillionCents)
		}
	}
}

func TestCompletionCostIsZeroForUnpricedModel(t *testing.T) {
	got := CompletionCost("anthropic", "not-a-real-model", 1_000_000, 1_000_000)
	if got != 0 {
		t.Fatalf("expected 0 for unpriced model, got %d", got)
	}
}

func TestLookupReportsUnknownProvider(t *testing.T) {
	if _, ok := Lookup("not-a-real-provider", "anything"); ok {
		t.Fatal("expected lookup of unknown provider to fail")
	}
}
