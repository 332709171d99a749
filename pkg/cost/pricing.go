package cost

import "math"

// ModelPricing is USD-per-million-tokens for one model.
type ModelPricing struct {
	InPerM         float64
	OutPerM        float64
	CacheReadPerM  float64
	CacheWritePerM float64
}

// PricingTable maps model identifiers to their pricing. DefaultModel names
// the entry used for models absent from the table.
type PricingTable struct {
	Models       map[string]ModelPricing
	DefaultModel string
}

// DefaultPricingTable returns a small built-in table covering the common
// Claude model tiers, falling back to the Sonnet entry for unknown models.
// Pricing is configuration data the workspace config may override; this
// exists so the pipeline has sane defaults out of the box.
func DefaultPricingTable() PricingTable {
	const defaultModel = "claude-sonnet"
	return PricingTable{
		DefaultModel: defaultModel,
		Models: map[string]ModelPricing{
			"claude-opus":   {InPerM: 15.0, OutPerM: 75.0, CacheReadPerM: 1.5, CacheWritePerM: 18.75},
			defaultModel:    {InPerM: 3.0, OutPerM: 15.0, CacheReadPerM: 0.3, CacheWritePerM: 3.75},
			"claude-haiku":  {InPerM: 0.8, OutPerM: 4.0, CacheReadPerM: 0.08, CacheWritePerM: 1.0},
		},
	}
}

// PricingFor returns model's pricing, falling back to DefaultModel when
// model is unknown or empty.
func (t PricingTable) PricingFor(model string) ModelPricing {
	if p, ok := t.Models[model]; ok {
		return p
	}
	return t.Models[t.DefaultModel]
}

// Calculate computes the USD cost of attrs' token counts under pricing,
// rounded to 6 decimal places.
func Calculate(attrs Attrs, table PricingTable) float64 {
	p := table.PricingFor(attrs.Model)
	raw := (float64(attrs.InputTokens)*p.InPerM +
		float64(attrs.OutputTokens)*p.OutPerM +
		float64(attrs.CacheReadTokens)*p.CacheReadPerM +
		float64(attrs.CacheWriteTokens)*p.CacheWritePerM) / 1_000_000
	return math.Round(raw*1_000_000) / 1_000_000
}
