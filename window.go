package rawflate

// nilPos marks an empty hash bucket or chain terminator. zlib uses 0
// (reserving window position 0 as unusable); this module uses -1 so
// position 0 is a legitimate match target, avoiding that off-by-one.
const nilPos = -1

// window is the deflate sliding window and hash-chain match finder, the
// direct translation of zlib deflate_state's window/head/prev fields and
// fill_window/longest_match (original_source/.../zlib/deflate.cpp),
// adapted to accept input incrementally through append rather than a
// single fixed buffer read in one shot.
type window struct {
	size int // wsize: 1<<wbits
	mask int // size-1, for circular distance checks

	// Hash parameters from memLevel: a 2^(memLevel+7)-bucket table, with
	// hashShift chosen so hashShift*minMatch >= hashBits, per zlib's
	// deflateInit2 computation.
	hashMask  uint32
	hashShift uint32

	data []byte // length 2*size; logical window occupies data[:strstart+lookahead]

	head []int32 // hash buckets -> most recent window pos with that hash
	prev []int32 // size entries -> previous window pos sharing the same hash

	strstart   int // position of the next byte to consider for matching
	lookahead  int // valid bytes available starting at strstart
	insert     int // number of strings from the tail still needing hash insertion
	blockStart int // start of the not-yet-flushed portion of data, for stored blocks

	matchStart     int // start of the most recently found match (current or, after the next iteration overwrites it, previous)
	matchLength    int // length of the most recently found match; carries lazy-match state across tokenizeSlow iterations and Step() calls
	matchAvailable bool
}

func newWindow(wbits, memLevel int) *window {
	size := 1 << uint(wbits)
	hashBits := uint(memLevel) + 7
	w := &window{
		size:      size,
		mask:      size - 1,
		hashMask:  1<<hashBits - 1,
		hashShift: uint32((hashBits + minMatch - 1) / minMatch),
		data:      make([]byte, 2*size),
		head:      make([]int32, 1<<hashBits),
		prev:      make([]int32, size),
	}
	for i := range w.head {
		w.head[i] = nilPos
	}
	return w
}

func (w *window) reset() {
	w.resetHashHeads()
	w.strstart = 0
	w.lookahead = 0
	w.insert = 0
	w.blockStart = 0
	w.matchStart = 0
	w.matchLength = 0
	w.matchAvailable = false
}

// resetHashHeads clears only the hash chain entry points, without
// touching strstart or the window contents. Because every future
// insertString starts its chain from a cleared (NIL) head, no new match
// lookup can walk back into history from before this call — exactly what
// a full flush (spec §4.5, FullFlush) needs to "forget history" while
// leaving backed-up window bytes and position bookkeeping untouched.
func (w *window) resetHashHeads() {
	for i := range w.head {
		w.head[i] = nilPos
	}
}

// maxDist is the farthest back a match may reach, and doubles as the
// per-block byte budget: tokenizers stop once a block spans this many
// bytes, which keeps blockStart inside the upper window half whenever
// slide runs (spec §3's block_start invariant).
func (w *window) maxDist() int {
	return w.size - minLookahead
}

// updateHash folds one more byte into a rolling minMatch-byte hash.
func (w *window) updateHash(h uint32, b byte) uint32 {
	return ((h << w.hashShift) ^ uint32(b)) & w.hashMask
}

func (w *window) hashAt(pos int) uint32 {
	h := uint32(w.data[pos])
	h = w.updateHash(h, w.data[pos+1])
	h = w.updateHash(h, w.data[pos+2])
	return h
}

// insertString inserts the minMatch-byte string starting at pos into the
// hash chain, returning the chain's previous head (nilPos if none).
func (w *window) insertString(pos int) int32 {
	h := w.hashAt(pos)
	prevHead := w.head[h]
	w.prev[pos&w.mask] = prevHead
	w.head[h] = int32(pos)
	return prevHead
}

// fill appends as much of src as there is room for to the window,
// sliding the buffer left by size bytes whenever strstart has advanced
// far enough that appending more data would overflow data, exactly
// zlib's fill_window slide condition (strstart >= wsize + MAX_DIST(s)).
// It returns the number of bytes consumed, which is less than len(src)
// only when the caller must drain lookahead (via tokenizing) before more
// room becomes available.
func (w *window) fill(src []byte) int {
	consumed := 0
	for len(src) > 0 {
		if w.strstart >= w.size+(w.size-minLookahead) {
			w.slide()
		}
		free := len(w.data) - (w.strstart + w.lookahead)
		n := len(src)
		if n > free {
			n = free
		}
		if n == 0 {
			return consumed
		}
		copy(w.data[w.strstart+w.lookahead:], src[:n])
		w.lookahead += n
		src = src[n:]
		consumed += n
	}
	return consumed
}

// slide moves the window back by size bytes, renumbering hash chains and
// discarding any chain entries that would point before the new origin,
// per zlib's fill_window.
func (w *window) slide() {
	copy(w.data, w.data[w.size:w.strstart+w.lookahead])
	w.strstart -= w.size
	w.blockStart -= w.size
	if w.matchStart >= w.size {
		w.matchStart -= w.size
	} else {
		w.matchStart = 0
	}

	for i := range w.head {
		p := w.head[i]
		if p >= int32(w.size) {
			w.head[i] = p - int32(w.size)
		} else {
			w.head[i] = nilPos
		}
	}
	for i := range w.prev {
		p := w.prev[i]
		if p >= int32(w.size) {
			w.prev[i] = p - int32(w.size)
		} else {
			w.prev[i] = nilPos
		}
	}
}

// insertPending inserts the w.insert most recent strings ending just
// before strstart into the hash chains, re-seeding the matcher after a
// dictionary preload or a window slide, per zlib's fill_window tail loop.
func (w *window) insertPending() {
	for w.insert > 0 && w.lookahead+w.insert >= minMatch {
		pos := w.strstart - w.insert
		w.insertString(pos)
		w.insert--
	}
}

// matchResult bundles the winner of longestMatch.
type matchResult struct {
	length int
	start  int
}

// longestMatch walks the hash chain starting at curMatch, following
// zlib's longest_match: tail-byte pruning before the full compare and
// good-match-driven chain-length reduction. prevLen is the best length
// already known (0 if none); the search stops early once a match of at
// least niceLength is found.
func (w *window) longestMatch(curMatch int32, prevLen, niceLength, goodLength, maxChain int) matchResult {
	strstart := w.strstart
	limit := 0
	if strstart > w.size-minLookahead {
		limit = strstart - (w.size - minLookahead)
	}
	nice := niceLength
	if w.lookahead < nice {
		nice = w.lookahead
	}

	chainLength := maxChain
	if prevLen >= goodLength {
		chainLength >>= 2
	}

	bestLen := minMatch - 1
	if prevLen >= minMatch {
		bestLen = prevLen
	}
	bestStart := -1

	scanEnd1 := byte(0)
	scanEnd := byte(0)
	haveTail := strstart+bestLen < len(w.data)
	if bestLen > 0 && haveTail {
		scanEnd1 = w.data[strstart+bestLen-1]
		scanEnd = w.data[strstart+bestLen]
	}

	maxLen := maxMatch
	if w.lookahead < maxLen {
		maxLen = w.lookahead
	}

	match := curMatch
	for match != nilPos && int(match) >= limit && chainLength > 0 {
		mp := int(match)

		if bestLen > 0 {
			tailPos := mp + bestLen
			if tailPos >= len(w.data) || w.data[tailPos] != scanEnd ||
				w.data[tailPos-1] != scanEnd1 ||
				w.data[mp] != w.data[strstart] ||
				w.data[mp+1] != w.data[strstart+1] {
				match = w.prev[mp&w.mask]
				chainLength--
				continue
			}
		} else if w.data[mp] != w.data[strstart] {
			match = w.prev[mp&w.mask]
			chainLength--
			continue
		}

		length := 0
		for length < maxLen && mp+length < len(w.data) && w.data[mp+length] == w.data[strstart+length] {
			length++
		}

		if length > bestLen {
			bestStart = mp
			bestLen = length
			if length >= nice {
				break
			}
			if bestLen+1 <= len(w.data) {
				scanEnd1 = w.data[strstart+bestLen-1]
				if strstart+bestLen < len(w.data) {
					scanEnd = w.data[strstart+bestLen]
				}
			}
		}

		match = w.prev[mp&w.mask]
		chainLength--
	}

	if bestStart < 0 || bestLen < minMatch {
		return matchResult{}
	}
	if bestLen > w.lookahead {
		bestLen = w.lookahead
	}
	return matchResult{length: bestLen, start: bestStart}
}
