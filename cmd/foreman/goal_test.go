package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Ship the release", "ship-the-release"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"snake_case__already", "snake-case-already"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, slugify(c.text))
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 20)
	got := slugify(long)
	assert.LessOrEqual(t, len(got), maxSlugLen)
	assert.False(t, strings.HasSuffix(got, "-"))
}
