package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateWorkerNameShape(t *testing.T) {
	name := GenerateWorkerName()
	parts := strings.Split(name, "-")
	if assert.Len(t, parts, 3) {
		assert.Contains(t, adjectives, parts[0])
		assert.Contains(t, nouns, parts[1])
		assert.Len(t, parts[2], 6)
	}
}

func TestGenerateWorkerNameVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[GenerateWorkerName()] = true
	}
	assert.Greater(t, len(seen), 1, "expected some variation across calls")
}
