package rawflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowFillAndSlide(t *testing.T) {
	w := newWindow(9, 8) // size 512
	src := make([]byte, 2000)
	for i := range src {
		src[i] = byte(i)
	}

	total := 0
	for total < len(src) {
		n := w.fill(src[total:])
		require.Greater(t, n, 0, "fill must make progress or the caller would spin forever")
		total += n
		// Drain lookahead the way a tokenizer would, to free room for slide.
		for w.lookahead > 0 {
			w.strstart++
			w.lookahead--
		}
	}
	require.Equal(t, len(src), total)
}

func TestWindowInsertStringChain(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("abcabcabcabc")
	w.fill(data)

	prevHead := w.insertString(0)
	require.Equal(t, int32(nilPos), prevHead)

	prevHead = w.insertString(3) // "abc" again at position 3
	require.Equal(t, int32(0), prevHead)

	prevHead = w.insertString(6)
	require.Equal(t, int32(3), prevHead)
}

func TestWindowLongestMatch(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("the quick brown fox, the quick brown fox")
	w.fill(data)
	w.strstart = 0
	w.lookahead = len(data)

	// Insert strings for the first occurrence, then search from the
	// second occurrence's position.
	firstLen := len("the quick brown fox, ")
	for i := 0; i < firstLen; i++ {
		w.insertString(i)
	}
	w.strstart = firstLen
	w.lookahead = len(data) - firstLen

	head := w.head[w.hashAt(w.strstart)]
	require.NotEqual(t, int32(nilPos), head)

	m := w.longestMatch(head, 0, 258, 32, 128)
	require.GreaterOrEqual(t, m.length, minMatch)
	require.Equal(t,
		string(w.data[w.strstart:w.strstart+m.length]),
		string(w.data[m.start:m.start+m.length]))
}

func TestWindowResetHashHeadsPreservesData(t *testing.T) {
	w := newWindow(9, 8)
	w.fill([]byte("abcabc"))
	w.insertString(0)
	require.NotEqual(t, int32(nilPos), w.head[w.hashAt(0)])

	w.resetHashHeads()
	for _, h := range w.head {
		require.Equal(t, int32(nilPos), h)
	}
	require.Equal(t, byte('a'), w.data[0])
}

func TestWindowReset(t *testing.T) {
	w := newWindow(9, 8)
	w.fill([]byte("hello"))
	w.strstart = 3
	w.matchAvailable = true
	w.matchLength = 5

	w.reset()
	require.Equal(t, 0, w.strstart)
	require.Equal(t, 0, w.lookahead)
	require.False(t, w.matchAvailable)
	require.Equal(t, 0, w.matchLength)
}
