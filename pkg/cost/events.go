package cost

import (
	"bytes"
	"encoding/json"
)

// Usage is the token-count shape carried by a result event.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens"`
	CacheWriteTokens int64 `json:"cache_write_tokens"`
}

// Event is one decoded line of the LLM's structured event log.
type Event struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id,omitempty"`
	Model     string   `json:"model,omitempty"`
	Usage     *Usage   `json:"usage,omitempty"`
	CostUSD   *float64 `json:"cost_usd,omitempty"`
}

// Attrs is the extracted cost-relevant shape of a result event, ready to
// pass to Record.
type Attrs struct {
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
	Model            string
	CostUSD          *float64
}

// ParseChunk splits data on newlines and decodes each line independently.
// Malformed or empty lines (including a partial trailing line at a flush
// boundary) are dropped silently rather than aborting the parse. Output
// order matches input order.
func ParseChunk(data []byte) []Event {
	var events []Event
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// ExtractCost produces cost attributes from a result event. Other event
// types yield ok=false. Missing usage fields default to zero.
func ExtractCost(ev Event) (Attrs, bool) {
	if ev.Type != "result" {
		return Attrs{}, false
	}
	attrs := Attrs{Model: ev.Model, CostUSD: ev.CostUSD}
	if ev.Usage != nil {
		attrs.InputTokens = ev.Usage.InputTokens
		attrs.OutputTokens = ev.Usage.OutputTokens
		attrs.CacheReadTokens = ev.Usage.CacheReadTokens
		attrs.CacheWriteTokens = ev.Usage.CacheWriteTokens
	}
	return attrs, true
}

// ExtractCosts maps ExtractCost over events and filters out non-result
// entries.
func ExtractCosts(events []Event) []Attrs {
	out := make([]Attrs, 0, len(events))
	for _, ev := range events {
		if attrs, ok := ExtractCost(ev); ok {
			out = append(out, attrs)
		}
	}
	return out
}
