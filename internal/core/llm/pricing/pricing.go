// Package pricing holds the per-(provider, model) cost table and an
// integer-math cost calculation: cost is always computed as
// (tokens * price_per_million) / 1_000_000, in cents, never through
// floating point.
package pricing

// ModelPrice is prompt/completion cost per million tokens, in cents.
type ModelPrice struct {
	PromptCostPerMillionCents     int64
	CompletionCostPerMillionCents int64
}

// table is a static, hand-maintained price list. Providers look up prices by
// (provider, model) rather than hardcoding a number per adapter, so a price
// change never touches provider code.
var table = map[string]map[string]ModelPrice{
	"anthropic": {
		"claude-opus-4":   {PromptCostPerMillionCents: 1500, CompletionCostPerMillionCents: 7500},
		"claude-sonnet-4": {PromptCostPerMillionCents: 300, CompletionCostPerMillionCents: 1500},
		"claude-haiku-4":  {PromptCostPerMillionCents: 25, CompletionCostPerMillionCents: 125},
	},
	"openai": {
		"gpt-4-turbo": {PromptCostPerMillionCents: 1000, CompletionCostPerMillionCents: 3000},
		"gpt-4o":      {PromptCostPerMillionCents: 250, CompletionCostPerMillionCents: 1000},
		"gpt-3.5":     {PromptCostPerMillionCents: 50, CompletionCostPerMillionCents: 150},
	},
}

// Lookup returns the declared price for (provider, model), and false if
// either the provider or the model is not priced.
func Lookup(provider, model string) (ModelPrice, bool) {
	models, ok := table[provider]
	if !ok {
		return ModelPrice{}, false
	}
	price, ok := models[model]
	return price, ok
}

// Cost applies the declared integer-math formula for one token count at one
// per-million price.
func Cost(tokens int, costPerMillionCents int64) int64 {
	return (int64(tokens) * costPerMillionCents) / 1_000_000
}

// CompletionCost is the combined prompt + completion cost in cents for
// (provider, model), or zero if the pair is unpriced — an unpriced model
// never blocks a completion, it just costs nothing in the accounting.
func CompletionCost(provider, model string, promptTokens, completionTokens int) int64 {
	price, ok := Lookup(provider, model)
	if !ok {
		return 0
	}
	return Cost(promptTokens, price.PromptCostPerMillionCents) + Cost(completionTokens, price.CompletionCostPerMillionCents)
}
