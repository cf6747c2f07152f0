package rawflate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestUpperBoundNeverUndershoots(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 1<<20).Draw(rt, "n")
		wbits := rapid.IntRange(8, 15).Draw(rt, "wbits")

		bound := upperBound(n, wbits, 8)

		w, err := NewWriter(6, wbits, 8, DefaultStrategy)
		require.NoError(rt, err)
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i * 2654435761)
		}
		dst := make([]byte, bound)
		nIn, nOut, res, err := w.Step(dst, src, Finish)
		require.NoError(rt, err)
		require.Equal(rt, n, nIn)
		require.Equal(rt, ResultEnd, res)
		require.LessOrEqual(rt, nOut, bound)
	})
}

func TestUpperBoundFormulaMonotonic(t *testing.T) {
	prev := upperBound(0, 15, 8)
	for n := 1; n <= 1<<20; n *= 2 {
		b := upperBound(n, 15, 8)
		require.GreaterOrEqual(t, b, prev)
		require.GreaterOrEqual(t, b, n)
		prev = b
	}
}

func TestFlushModeConstantsDistinct(t *testing.T) {
	modes := []FlushMode{NoFlush, PartialFlush, SyncFlush, FullFlush, BlockFlush, Finish}
	seen := map[FlushMode]bool{}
	for _, m := range modes {
		require.False(t, seen[m])
		seen[m] = true
	}
}
