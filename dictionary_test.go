package rawflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrimDictionaryShort(t *testing.T) {
	dict := []byte("short")
	got := trimDictionary(dict, 100)
	require.Equal(t, dict, got)
}

func TestTrimDictionaryLong(t *testing.T) {
	dict := make([]byte, 1000)
	for i := range dict {
		dict[i] = byte(i)
	}
	got := trimDictionary(dict, 100)
	require.Len(t, got, 100)
	require.Equal(t, dict[900:], got)
}

func TestSeedWindowPositionsStrstart(t *testing.T) {
	w := newWindow(9, 8)
	dict := []byte("the quick brown fox")
	seedWindow(w, dict)

	require.Equal(t, len(dict), w.strstart)
	require.Equal(t, w.strstart, w.blockStart)
	require.Equal(t, 0, w.lookahead)
	require.Equal(t, string(dict), string(w.data[:w.strstart]))
}

func TestSeedWindowEnablesImmediateMatch(t *testing.T) {
	w := newWindow(9, 8)
	seedWindow(w, []byte("abcabc"))

	n := w.fill([]byte("abc"))
	require.Equal(t, 3, n)

	head := w.head[w.hashAt(w.strstart)]
	require.NotEqual(t, int32(nilPos), head)
	m := w.longestMatch(head, 0, 258, 32, 128)
	require.GreaterOrEqual(t, m.length, minMatch)
}
