package rawflate

// token is one LZ77 parse result: Unmatched literal bytes immediately
// precede a match of Length at Distance (Length 0 marks a trailing
// literal run with no match, e.g. at end of input). Field names and
// shape are grounded directly on matchfinder.Match in this module's
// teacher (matchfinder/zfast.go and siblings), which represents a parse
// the same way: a literal run folded into a following match rather than
// emitted as separate single-byte tokens.
type token struct {
	Unmatched int
	Length    int
	Distance  int
}

// tokenizer runs one of the five match strategies (spec §4.4) over a
// window's buffered lookahead, appending tokens to dst and advancing the
// window's strstart/hash chains as it consumes bytes. The matching
// tokenizers (fast, slow, RLE) stop once fewer than minLookahead bytes
// remain, unless finish is set, matching zlib's deflate_fast/deflate_slow
// main-loop stopping condition; the Huffman-only and stored tokenizers
// go on down to minMatch bytes. All of them stop when the current block
// reaches the window's maxDist.
type tokenizer func(w *window, cfg strategyConfig, dst []token, finish bool) []token

// selectTokenizer maps a Strategy override (or DefaultStrategy, which
// falls back to the level's configured kind) to its tokenizer, with the
// same precedence as zlib's deflate() dispatch: level 0 stores
// unconditionally, then HuffmanOnly/RLE override the configuration
// table, then the table's fast/slow kind decides.
func selectTokenizer(strategy Strategy, cfg strategyConfig) tokenizer {
	if cfg.kind == kindStored {
		return tokenizeStored
	}
	switch strategy {
	case HuffmanOnly:
		return tokenizeHuffmanOnly
	case RLE:
		return tokenizeRLE
	case Filtered:
		// Z_FILTERED only changes deflate_slow's match-discard rule
		// (original_source deflate.cpp); fast levels are unaffected.
		if cfg.kind == kindFast {
			return tokenizeFast
		}
		return tokenizeFilteredSlow
	default:
		// Fixed constrains only the block type (static trees) in
		// emitBlock; token generation still runs LZ77 as usual.
		if cfg.kind == kindFast {
			return tokenizeFast
		}
		return tokenizeSlow
	}
}

// tokenizeStored emits no matches at all: every byte is literal. Used
// for level 0, where the block emitter will in any case prefer the
// stored block encoding (spec §4.6).
func tokenizeStored(w *window, _ strategyConfig, dst []token, finish bool) []token {
	return tokenizeHuffmanOnly(w, strategyConfig{}, dst, finish)
}

// tokenizeHuffmanOnly disables matching (Z_HUFFMAN_ONLY): every input
// byte becomes a literal, but hash chains are still maintained so a
// later SetParams/Tune call can resume normal matching without losing
// history.
func tokenizeHuffmanOnly(w *window, _ strategyConfig, dst []token, finish bool) []token {
	run := 0
	for w.lookahead >= minMatch || (finish && w.lookahead > 0) {
		if w.strstart-w.blockStart >= w.maxDist() {
			break
		}
		if w.lookahead >= minMatch {
			w.insertString(w.strstart)
		}
		w.strstart++
		w.lookahead--
		run++
	}
	return flushRun(dst, run)
}

// tokenizeRLE implements Z_RLE: the only matches considered are runs of
// the single byte at distance 1, per zlib's deflate_rle.
func tokenizeRLE(w *window, cfg strategyConfig, dst []token, finish bool) []token {
	run := 0
	for {
		if w.lookahead < minLookahead && !finish {
			return flushRun(dst, run)
		}
		if w.lookahead == 0 {
			return flushRun(dst, run)
		}
		if w.strstart-w.blockStart >= w.maxDist() {
			return flushRun(dst, run)
		}
		length := 0
		if w.strstart > 0 && w.lookahead >= minMatch {
			length = matchLen(w, w.strstart-1, w.strstart, maxMatch)
			if length > w.lookahead {
				// The run may extend into stale bytes past the valid
				// lookahead.
				length = w.lookahead
			}
		}
		if length >= minMatch {
			dst = append(dst, token{Unmatched: run, Length: length, Distance: 1})
			run = 0
			if w.lookahead >= minMatch {
				w.insertString(w.strstart)
			}
			w.strstart += length
			w.lookahead -= length
			continue
		}
		if w.lookahead >= minMatch {
			w.insertString(w.strstart)
		}
		w.strstart++
		w.lookahead--
		run++
		if w.lookahead < minLookahead && !finish {
			return flushRun(dst, run)
		}
	}
}

func flushRun(dst []token, run int) []token {
	if run > 0 {
		return append(dst, token{Unmatched: run})
	}
	return dst
}

// matchLen counts how many bytes, up to max, match between the positions
// starting at a and b, used by the RLE strategy's single-distance match
// check.
func matchLen(w *window, a, b, max int) int {
	n := 0
	for n < max && b+n < len(w.data) && w.data[a+n] == w.data[b+n] {
		n++
	}
	return n
}

// tokenizeFast implements the greedy, non-lazy strategy (zlib's
// deflate_fast): take the first sufficiently good match found, without
// looking one byte ahead for a better one.
func tokenizeFast(w *window, cfg strategyConfig, dst []token, finish bool) []token {
	run := 0
	for {
		if w.lookahead < minLookahead && !finish {
			return flushRun(dst, run)
		}
		if w.lookahead == 0 {
			return flushRun(dst, run)
		}
		if w.strstart-w.blockStart >= w.maxDist() {
			return flushRun(dst, run)
		}
		var head int32 = nilPos
		if w.lookahead >= minMatch {
			head = w.insertString(w.strstart)
		}
		length := 0
		if head != nilPos && w.strstart-int(head) <= w.maxDist() {
			m := w.longestMatch(head, 0, cfg.niceLength, cfg.goodLength, cfg.maxChain)
			if m.length >= minMatch {
				length = m.length
				dst = append(dst, token{Unmatched: run, Length: m.length, Distance: w.strstart - m.start})
				run = 0
			}
		}
		if length >= minMatch {
			if length <= cfg.maxLazy {
				// Short enough that hashing the covered positions pays
				// off for later matches.
				n := length - 1
				for n > 0 && w.lookahead > 1 {
					w.strstart++
					w.lookahead--
					if w.lookahead >= minMatch {
						w.insertString(w.strstart)
					}
					n--
				}
				w.strstart++
				w.lookahead--
			} else {
				w.strstart += length
				w.lookahead -= length
			}
		} else {
			w.strstart++
			w.lookahead--
			run++
		}
	}
}

// tokenizeSlow implements the lazy-matching strategy (zlib's
// deflate_slow, original_source/.../zlib/deflate.cpp): a match is held
// back one byte to see if the next position yields something longer; if
// not, the held match is emitted. w.matchLength/matchStart/matchAvailable
// carry this one-step lookahead across calls so the strategy can resume
// correctly after a partial Step(), mirroring deflate_state's
// match_length/match_start/match_available fields exactly.
func tokenizeSlow(w *window, cfg strategyConfig, dst []token, finish bool) []token {
	return tokenizeLazy(w, cfg, dst, finish, false)
}

// tokenizeFilteredSlow is tokenizeSlow with the Filtered discard rule:
// any match of length 5 or less is dropped in favor of literals, which
// suits data (e.g. PNG-style filtered samples) whose short matches are
// mostly noise.
func tokenizeFilteredSlow(w *window, cfg strategyConfig, dst []token, finish bool) []token {
	return tokenizeLazy(w, cfg, dst, finish, true)
}

func tokenizeLazy(w *window, cfg strategyConfig, dst []token, finish, filtered bool) []token {
	run := 0
	for {
		if w.lookahead < minLookahead && !finish {
			break
		}
		if w.lookahead == 0 {
			break
		}
		if w.strstart-w.blockStart >= w.maxDist() {
			break
		}

		var head int32 = nilPos
		if w.lookahead >= minMatch {
			head = w.insertString(w.strstart)
		}

		// What deflate_slow calls prev_length/prev_match: the result
		// found at the previous position, about to be overwritten.
		prevLength, prevMatch := w.matchLength, w.matchStart
		w.matchLength = minMatch - 1

		if head != nilPos && prevLength < cfg.maxLazy && w.strstart-int(head) <= w.maxDist() {
			m := w.longestMatch(head, 0, cfg.niceLength, cfg.goodLength, cfg.maxChain)
			if m.length >= minMatch {
				w.matchLength = m.length
				w.matchStart = m.start
				if w.matchLength <= 5 && (filtered ||
					(w.matchLength == minMatch && w.strstart-w.matchStart > tooFar)) {
					w.matchLength = minMatch - 1
				}
			}
		}

		if prevLength >= minMatch && w.matchLength <= prevLength {
			// The previous position's match was at least as good as
			// anything found here: emit it now and skip the bytes it
			// covers.
			dst = append(dst, token{Unmatched: run, Length: prevLength, Distance: w.strstart - 1 - prevMatch})
			run = 0

			maxInsert := w.strstart + w.lookahead - minMatch
			w.lookahead -= prevLength - 1
			remaining := prevLength - 2
			for {
				w.strstart++
				if w.strstart <= maxInsert {
					w.insertString(w.strstart)
				}
				remaining--
				if remaining == 0 {
					break
				}
			}
			w.matchAvailable = false
			w.matchLength = minMatch - 1
			w.strstart++
			continue
		} else if w.matchAvailable {
			// No improvement: emit the single literal byte held from
			// the previous iteration and slide one position, keeping
			// this iteration's match (if any) as the new "previous".
			run++
			w.strstart++
			w.lookahead--
			continue
		}

		// First byte of the stream, or no match carried: hold this
		// position's result and advance without emitting yet.
		w.matchAvailable = true
		w.strstart++
		w.lookahead--
	}

	if finish && w.matchAvailable {
		run++
		w.matchAvailable = false
		w.matchLength = minMatch - 1
	}
	return flushRun(dst, run)
}
