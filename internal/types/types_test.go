package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "single", in: "ethereum", want: []string{"ethereum"}},
		{name: "trims and drops blanks", in: " ethereum, ,base ,", want: []string{"ethereum", "base"}},
		{name: "empty", in: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in))
		})
	}
}

func TestExplorerChainID(t *testing.T) {
	id, ok := ExplorerChainID("gnosis")
	assert.True(t, ok)
	assert.Equal(t, int64(100), id)

	_, ok = ExplorerChainID("solana")
	assert.False(t, ok)
}

func TestResultPayload(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		r := RowsResult(nil)
		assert.False(t, r.IsError())
		assert.Equal(t, []Row{}, r.Payload())
	})

	t.Run("scalar", func(t *testing.T) {
		r := ScalarResult(1.5)
		assert.Equal(t, 1.5, r.Payload())
	})

	t.Run("error", func(t *testing.T) {
		e := &ErrorResult{Message: "boom", Type: KindDefault, FunctionName: "X"}
		r := ErrResult(e)
		assert.True(t, r.IsError())
		assert.Same(t, e, r.Payload())
	})
}
