package rawflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tokensCoverLength sums Unmatched+Length across a token stream, which
// must equal the number of input bytes consumed by the tokenizer.
func tokensCoverLength(tokens []token) int {
	n := 0
	for _, tk := range tokens {
		n += tk.Unmatched + tk.Length
	}
	return n
}

func TestTokenizeStoredAllLiteral(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("aaaaaaaaaa")
	n := w.fill(data)
	require.Equal(t, len(data), n)

	tokens := tokenizeStored(w, strategyConfig{}, nil, true)
	require.Len(t, tokens, 1)
	require.Equal(t, len(data), tokens[0].Unmatched)
	require.Equal(t, 0, tokens[0].Length)
	require.Equal(t, len(data), tokensCoverLength(tokens))
}

func TestTokenizeHuffmanOnlyNeverMatches(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("abcabcabcabcabcabc")
	w.fill(data)

	tokens := tokenizeHuffmanOnly(w, strategyConfig{}, nil, true)
	for _, tk := range tokens {
		require.Zero(t, tk.Length)
	}
	require.Equal(t, len(data), tokensCoverLength(tokens))
}

func TestTokenizeRLEMatchesOnlyDistanceOne(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("xxxxxxxxxxxxaaaaaaaaaaaaaaaayz")
	w.fill(data)
	cfg := levelConfig[6]

	tokens := tokenizeRLE(w, cfg, nil, true)
	require.Equal(t, len(data), tokensCoverLength(tokens))
	for _, tk := range tokens {
		if tk.Length > 0 {
			require.Equal(t, 1, tk.Distance)
		}
	}
	var haveMatch bool
	for _, tk := range tokens {
		if tk.Length >= minMatch {
			haveMatch = true
		}
	}
	require.True(t, haveMatch, "expected at least one run-length match")
}

func TestTokenizeFastFindsRepeat(t *testing.T) {
	w := newWindow(9, 8)
	data := []byte("the quick brown fox, the quick brown fox jumps")
	w.fill(data)
	cfg := levelConfig[1]

	tokens := tokenizeFast(w, cfg, nil, true)
	require.Equal(t, len(data), tokensCoverLength(tokens))

	var found bool
	for _, tk := range tokens {
		if tk.Length >= minMatch {
			found = true
			require.Positive(t, tk.Distance)
			require.LessOrEqual(t, tk.Distance, w.strstart)
		}
	}
	require.True(t, found, "expected fast strategy to find the repeated phrase")
}

func TestTokenizeSlowPrefersLongerDeferredMatch(t *testing.T) {
	w := newWindow(9, 8)
	// At offset 12 the best match is "abcd" (len 4, back to offset 0);
	// one byte later "bcdefg" (len 6, back to offset 5) is longer, so
	// lazy matching defers: it emits the 'a' at 12 as a literal and
	// takes the length-6 match at 13 instead of the length-4 one.
	data := []byte("abcdXbcdefgYabcdefg")
	w.fill(data)
	cfg := levelConfig[6]

	tokens := tokenizeSlow(w, cfg, nil, true)
	require.Equal(t, len(data), tokensCoverLength(tokens))

	var maxLen int
	for _, tk := range tokens {
		if tk.Length > maxLen {
			maxLen = tk.Length
		}
		require.NotEqual(t, 4, tk.Length)
	}
	require.GreaterOrEqual(t, maxLen, minMatch)
	require.Equal(t, token{Unmatched: 5, Length: 6, Distance: 8}, tokens[len(tokens)-1])
}

func TestTokenizeSlowMatchAvailableCarriesAcrossCalls(t *testing.T) {
	w := newWindow(15, 8)
	// The first 256 bytes are all distinct; after that the sequence
	// repeats at distance 256.
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i * 31)
	}
	cfg := levelConfig[6]

	// Feed the first half without finish: the tokenizer stops with fewer
	// than minLookahead bytes left while still holding one byte
	// (matchAvailable). Then feed the rest with finish, and check the
	// combined token stream covers every byte exactly once - the
	// lazy-match carry state (matchLength/matchStart/matchAvailable)
	// must survive the boundary between calls.
	half := len(data) / 2
	w.fill(data[:half])
	var tokens []token
	tokens = tokenizeSlow(w, cfg, tokens, false)
	require.True(t, w.matchAvailable)
	firstCovered := tokensCoverLength(tokens)

	w.fill(data[half:])
	tokens = tokenizeSlow(w, cfg, tokens, true)
	require.Equal(t, len(data), tokensCoverLength(tokens))
	require.LessOrEqual(t, firstCovered, len(data))
}

func TestSelectTokenizerDispatch(t *testing.T) {
	require.NotNil(t, selectTokenizer(HuffmanOnly, strategyConfig{}))
	require.NotNil(t, selectTokenizer(RLE, strategyConfig{}))
	require.NotNil(t, selectTokenizer(Fixed, strategyConfig{kind: kindFast}))
	require.NotNil(t, selectTokenizer(Fixed, strategyConfig{kind: kindSlow}))
	require.NotNil(t, selectTokenizer(DefaultStrategy, strategyConfig{kind: kindStored}))
	require.NotNil(t, selectTokenizer(DefaultStrategy, strategyConfig{kind: kindFast}))
	require.NotNil(t, selectTokenizer(DefaultStrategy, strategyConfig{kind: kindSlow}))
}

func TestMatchLenStopsAtMismatch(t *testing.T) {
	w := newWindow(9, 8)
	w.fill([]byte("abcXYZ"))
	n := matchLen(w, 0, 3, maxMatch)
	require.Equal(t, 0, n)

	w2 := newWindow(9, 8)
	w2.fill([]byte("abcabc"))
	n2 := matchLen(w2, 0, 3, maxMatch)
	require.Equal(t, 3, n2)
}
