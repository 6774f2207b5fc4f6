package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	got := parseArgs([]string{"all-txns", "vitalik.eth", "null", "1", "10.5", "true", `["a","b"]`, "0xabc,0xdef"})

	assert.Equal(t, []any{
		"all-txns",
		"vitalik.eth",
		nil,
		float64(1),
		10.5,
		true,
		[]any{"a", "b"},
		"0xabc,0xdef",
	}, got)
}

func TestParseArgsEmpty(t *testing.T) {
	assert.Empty(t, parseArgs(nil))
}
