package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMatchesWorkedExample(t *testing.T) {
	attrs := Attrs{InputTokens: 1000, OutputTokens: 500, Model: "claude-sonnet"}
	got := Calculate(attrs, DefaultPricingTable())
	assert.Equal(t, 0.010500, got)
}

func TestCalculateFallsBackToDefaultModelForUnknown(t *testing.T) {
	table := DefaultPricingTable()
	known := Calculate(Attrs{InputTokens: 1000, Model: "claude-sonnet"}, table)
	unknown := Calculate(Attrs{InputTokens: 1000, Model: "some-future-model"}, table)
	assert.Equal(t, known, unknown)
}

func TestCalculateFallsBackForEmptyModel(t *testing.T) {
	table := DefaultPricingTable()
	got := Calculate(Attrs{InputTokens: 1_000_000}, table)
	assert.Equal(t, table.Models[table.DefaultModel].InPerM, got)
}

func TestPricingForReturnsExactMatch(t *testing.T) {
	table := DefaultPricingTable()
	p := table.PricingFor("claude-opus")
	assert.Equal(t, 15.0, p.InPerM)
}
