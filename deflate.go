package rawflate

// storedBlockMax is RFC 1951's 16-bit stored-block length limit.
const storedBlockMax = 65535

// compressor holds everything a Writer needs to turn source bytes into a
// raw DEFLATE bitstream: the match finder, the per-block token tally,
// and the bit writer that owns the pending output bytes. Grounded on
// deflate_state (original_source/.../zlib/deflate.cpp) combined with the
// huffmanBitWriter half of andybalholm-brotli/flate/huffman_bit_writer.go.
type compressor struct {
	win      *window
	wbits    int
	memLevel int
	level    int
	strategy Strategy
	cfg      strategyConfig
	tokenize tokenizer

	// litBufSize is zlib's lit_bufsize, 2^(memLevel+6): a block is
	// flushed once it tallies litBufSize-1 tokens (spec §4.4, "Token
	// buffer").
	litBufSize int

	bw bitWriter

	litFreq  [lCodes]int32
	distFreq [dCodes]int32
	tokens   []token

	litEnc *huffmanEncoder
	distEnc *huffmanEncoder
	blEnc   *huffmanEncoder

	totalIn  int64
	finished bool
}

func newCompressor(level, wbits, memLevel int, strategy Strategy) *compressor {
	cfg := levelConfig[level]
	c := &compressor{
		win:        newWindow(wbits, memLevel),
		wbits:      wbits,
		memLevel:   memLevel,
		level:      level,
		strategy:   strategy,
		cfg:        cfg,
		litBufSize: 1 << (uint(memLevel) + 6),
		litEnc:     newHuffmanEncoder(lCodes),
		distEnc:    newHuffmanEncoder(dCodes),
		blEnc:      newHuffmanEncoder(blCodes),
	}
	c.tokenize = selectTokenizer(strategy, cfg)
	return c
}

// tally walks c.tokens, reading literal bytes directly from the window's
// data array using cur as a moving cursor (the same Unmatched-run
// convention as matchfinder.Match), updating the literal/length and
// distance frequency histograms.
func (c *compressor) tally(cur int) {
	for _, t := range c.tokens {
		for i := 0; i < t.Unmatched; i++ {
			c.litFreq[c.win.data[cur+i]]++
		}
		cur += t.Unmatched
		if t.Length > 0 {
			c.litFreq[literals+1+matchLengthCode(t.Length)]++
			c.distFreq[distanceCode(t.Distance)]++
			cur += t.Length
		}
	}
	c.litFreq[endBlock]++
}

// step runs the tokenizer over whatever lookahead is buffered and emits
// blocks into c.bw as they fill. Tokenizers stop on their own once a
// block spans maxDist bytes, so repeated emit-and-continue rounds here
// keep every block inside the stored-length limit and keep blockStart
// high enough that a window slide never carries it negative.
func (c *compressor) step(finish, syncFlush bool) {
	if c.finished {
		return
	}
	drain := finish || syncFlush
	for {
		before := len(c.tokens)
		c.tokens = c.tokenize(c.win, c.cfg, c.tokens, drain)
		produced := len(c.tokens) != before

		blockBytes := c.win.strstart - c.win.blockStart
		full := len(c.tokens) >= c.litBufSize-1 || blockBytes >= c.win.maxDist()
		last := finish && c.win.lookahead == 0

		switch {
		case full:
			c.emitBlock(last)
			if last {
				c.finished = true
				return
			}
			if !produced {
				return
			}
		case last:
			c.emitBlock(true)
			c.finished = true
			return
		case syncFlush:
			if len(c.tokens) > 0 || blockBytes > 0 {
				c.emitBlock(false)
			}
			return
		default:
			return
		}
	}
}

// emitBlock costs the three block representations (spec §4.6) and emits
// the cheapest, honoring strategy==Fixed and the stored-block
// incompressible-data escape hatch.
func (c *compressor) emitBlock(last bool) {
	cur := c.win.blockStart
	end := c.win.strstart
	if c.win.matchAvailable {
		// The lazy matcher is holding the byte at strstart-1 back until
		// the next position's match is known; it belongs to no token yet
		// and therefore to the next block, not this one.
		end--
	}
	blockLen := end - cur
	c.resetFreqsKeepTokens()
	c.tally(cur)

	// Length/distance extra bits are paid identically by the static and
	// dynamic representations; they matter for the stored comparison.
	extraBits := 0
	for i := 0; i < lengthCodes; i++ {
		extraBits += int(c.litFreq[literals+1+i]) * int(lengthExtraBits[i])
	}
	for i := 0; i < dCodes; i++ {
		extraBits += int(c.distFreq[i]) * int(distExtraBits[i])
	}

	staticBits := 3 + extraBits +
		fixedLiteralEncoding.bitLength(c.litFreq[:]) + fixedOffsetEncoding.bitLength(c.distFreq[:])

	c.litEnc.generate(c.litFreq[:], maxBits)
	c.distEnc.generate(c.distFreq[:], maxDBits)
	if c.distUnused() {
		// A literal-only block still transmits a distance tree; an empty
		// one is rejected by some inflaters, so describe two one-bit
		// codes the way zlib's build_tree always keeps two nodes alive.
		lens := make([]int, dCodes)
		lens[0], lens[1] = 1, 1
		assignCanonicalCodes(lens, c.distEnc.codes)
	}
	dynamicBits, litLens, distLens, codegen := c.dynamicHeaderCost()
	dynamicBits += extraBits + c.litEnc.bitLength(c.litFreq[:]) + c.distEnc.bitLength(c.distFreq[:])

	bestHuff := dynamicBits
	if staticBits < bestHuff {
		bestHuff = staticBits
	}
	// Level 0 stores unconditionally; otherwise stored wins on
	// incompressible data when the raw bytes plus a 4-byte margin still
	// beat the best Huffman candidate, zlib's _tr_flush_block rule.
	useStored := c.cfg.kind == kindStored
	useStatic := !useStored && c.strategy == Fixed
	if !useStored && !useStatic {
		useStored = blockLen <= storedBlockMax && 8*blockLen+32 <= bestHuff
		useStatic = !useStored && staticBits <= dynamicBits
	}

	switch {
	case useStored:
		c.writeStoredBlockHeader(last, blockLen)
		c.bw.writeBytes(c.win.data[cur : cur+blockLen])
	case useStatic:
		c.bw.putBits(boolBit(last), 1)
		c.bw.putBits(1, 2)
		c.writeTokens(cur, fixedLiteralEncoding, fixedOffsetEncoding)
	default:
		c.bw.putBits(boolBit(last), 1)
		c.bw.putBits(2, 2)
		c.writeDynamicHeader(litLens, distLens, codegen)
		c.writeTokens(cur, c.litEnc, c.distEnc)
	}

	c.win.blockStart = end
	c.tokens = c.tokens[:0]
	if last {
		c.bw.align()
	}
}

// distUnused reports whether the block holds no matches at all.
func (c *compressor) distUnused() bool {
	for _, f := range c.distFreq {
		if f != 0 {
			return false
		}
	}
	return true
}

// resetFreqsKeepTokens clears the literal/length and distance histograms
// while leaving c.tokens intact for tally to consume immediately after.
func (c *compressor) resetFreqsKeepTokens() {
	for i := range c.litFreq {
		c.litFreq[i] = 0
	}
	for i := range c.distFreq {
		c.distFreq[i] = 0
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *compressor) writeStoredBlockHeader(last bool, length int) {
	c.bw.putBits(boolBit(last), 1)
	c.bw.putBits(0, 2)
	c.bw.align()
	c.bw.putBits(uint32(length), 16)
	c.bw.putBits(uint32(^uint16(length)), 16)
}

// writeTokens walks c.tokens a second time (tally already consumed them
// for frequency counting) emitting the actual Huffman-coded symbols.
func (c *compressor) writeTokens(cur int, litEnc, distEnc *huffmanEncoder) {
	for _, t := range c.tokens {
		for i := 0; i < t.Unmatched; i++ {
			c.bw.sendCode(litEnc.codes[c.win.data[cur+i]])
		}
		cur += t.Unmatched
		if t.Length > 0 {
			lc := matchLengthCode(t.Length)
			c.bw.sendCode(litEnc.codes[literals+1+lc])
			extra := lengthExtraBits[lc]
			if extra > 0 {
				c.bw.putBits(uint32(t.Length-int(lengthBase[lc])), uint(extra))
			}
			dc := distanceCode(t.Distance)
			c.bw.sendCode(distEnc.codes[dc])
			dextra := distExtraBits[dc]
			if dextra > 0 {
				c.bw.putBits(uint32(t.Distance-int(distBase[dc])), uint(dextra))
			}
			cur += t.Length
		}
	}
	c.bw.sendCode(litEnc.codes[endBlock])
}

// dynamicHeaderCost builds the code-length alphabet (RFC 1951 §3.2.7:
// run-length-encode the concatenated literal/length and distance code
// lengths using codes 16/17/18) and returns its bit cost alongside the
// trimmed length arrays and codegen stream actually used, grounded on
// andybalholm-brotli/flate/huffman_bit_writer.go's generateCodegen.
// c.blEnc is left holding the code-length code writeDynamicHeader emits.
func (c *compressor) dynamicHeaderCost() (bits int, litLens, distLens, codegen []int) {
	numLit := lCodes
	for numLit > 257 && c.litEnc.codes[numLit-1].length == 0 {
		numLit--
	}
	numDist := dCodes
	for numDist > 1 && c.distEnc.codes[numDist-1].length == 0 {
		numDist--
	}

	litLens = make([]int, numLit)
	for i := range litLens {
		litLens[i] = int(c.litEnc.codes[i].length)
	}
	distLens = make([]int, numDist)
	for i := range distLens {
		distLens[i] = int(c.distEnc.codes[i].length)
	}

	codegen, freq := generateCodegen(litLens, distLens)
	c.blEnc.generate(freq[:], 7)

	numCL := blCodes
	for numCL > 4 && c.blEnc.codes[codeLengthOrder[numCL-1]].length == 0 {
		numCL--
	}

	bits = 3 + 5 + 5 + 4 + numCL*3
	bits += c.blEnc.bitLength(freq[:])
	bits += int(freq[16])*2 + int(freq[17])*3 + int(freq[18])*7
	return bits, litLens, distLens, codegen
}

// writeDynamicHeader emits HLIT/HDIST/HCLEN and the code-length-code
// lengths, then the run-length-encoded literal/length and distance
// lengths themselves, RFC 1951 §3.2.7. Must run after dynamicHeaderCost,
// which leaves c.blEnc holding the code-length code for this codegen.
func (c *compressor) writeDynamicHeader(litLens, distLens, codegen []int) {
	numCL := blCodes
	for numCL > 4 && c.blEnc.codes[codeLengthOrder[numCL-1]].length == 0 {
		numCL--
	}

	c.bw.putBits(uint32(len(litLens)-257), 5)
	c.bw.putBits(uint32(len(distLens)-1), 5)
	c.bw.putBits(uint32(numCL-4), 4)
	for i := 0; i < numCL; i++ {
		c.bw.putBits(uint32(c.blEnc.codes[codeLengthOrder[i]].length), 3)
	}

	i := 0
	for i < len(codegen) {
		sym := codegen[i]
		c.bw.sendCode(c.blEnc.codes[sym])
		switch sym {
		case 16:
			c.bw.putBits(uint32(codegen[i+1]), 2)
			i += 2
		case 17:
			c.bw.putBits(uint32(codegen[i+1]), 3)
			i += 2
		case 18:
			c.bw.putBits(uint32(codegen[i+1]), 7)
			i += 2
		default:
			i++
		}
	}
}

// generateCodegen concatenates litLens and distLens and run-length
// encodes the result with RFC 1951 repeat codes 16 (repeat previous 3-6
// times), 17 (repeat zero 3-10 times) and 18 (repeat zero 11-138 times),
// returning the symbol stream (repeat codes followed by their extra-bit
// count) and the resulting code-length-code frequency table.
func generateCodegen(litLens, distLens []int) ([]int, [blCodes]int32) {
	all := make([]int, 0, len(litLens)+len(distLens))
	all = append(all, litLens...)
	all = append(all, distLens...)

	var out []int
	var freq [blCodes]int32

	n := len(all)
	i := 0
	for i < n {
		v := all[i]
		runEnd := i + 1
		for runEnd < n && all[runEnd] == v {
			runEnd++
		}
		run := runEnd - i

		if v == 0 {
			for run > 0 {
				switch {
				case run < 3:
					out = append(out, 0)
					freq[0]++
					run--
				case run <= 10:
					out = append(out, 17, run-3)
					freq[17]++
					run = 0
				default:
					take := run
					if take > 138 {
						take = 138
					}
					out = append(out, 18, take-11)
					freq[18]++
					run -= take
				}
			}
		} else {
			out = append(out, v)
			freq[v]++
			run--
			for run > 0 {
				if run < 3 {
					out = append(out, v)
					freq[v]++
					run--
					continue
				}
				take := run
				if take > 6 {
					take = 6
				}
				out = append(out, 16, take-3)
				freq[16]++
				run -= take
			}
		}

		i = runEnd
	}

	return out, freq
}

// Writer is the public incremental compressor, the push half of spec
// §4.8's stream façade: the caller supplies source and destination
// buffers to Step and drains output as the engine produces it, the same
// contract as zlib's deflate()/z_stream rather than a blocking
// io.Writer (reserved for the gzipflate package's convenience wrapper).
type Writer struct {
	c          *compressor
	pendingPos int
	finished   bool
	wroteAny   bool
}

// NewWriter creates a Writer. level -1 selects the default (6); wbits in
// [8,15] selects window size 2^wbits (8 is promoted to 9 per spec §9's
// documented historical-compatibility note); memLevel in [1,9] sizes the
// hash table and per-block token buffer; strategy overrides the
// level-driven match strategy.
func NewWriter(level, wbits, memLevel int, strategy Strategy) (*Writer, error) {
	if level == -1 {
		level = 6
	}
	if level < 0 || level > 9 {
		return nil, ErrInvalidParam
	}
	if wbits < 8 || wbits > 15 {
		return nil, ErrInvalidParam
	}
	if memLevel < 1 || memLevel > 9 {
		return nil, ErrInvalidParam
	}
	if strategy < DefaultStrategy || strategy > Fixed {
		return nil, ErrInvalidParam
	}
	if wbits == 8 {
		wbits = 9
	}
	c := newCompressor(level, wbits, memLevel, strategy)
	return &Writer{c: c}, nil
}

// SetDictionary preloads the window with dict, so the first matches can
// reference it as if it had already been compressed. Valid only before
// any data has been written (spec §6).
func (w *Writer) SetDictionary(dict []byte) error {
	if w.wroteAny {
		return ErrStreamMisuse
	}
	seedWindow(w.c.win, dict)
	return nil
}

// SetParams changes level and strategy. If the active strategy function
// would change and data has already been written, a block boundary is
// forced first (spec §4.8, set_params), so the new strategy never has to
// reason about mid-block state left by the old one.
func (w *Writer) SetParams(level int, strategy Strategy) error {
	if level == -1 {
		level = 6
	}
	if level < 0 || level > 9 || strategy < DefaultStrategy || strategy > Fixed {
		return ErrInvalidParam
	}
	cfg := levelConfig[level]
	newTokenize := selectTokenizer(strategy, cfg)
	changed := strategy != w.c.strategy || cfg.kind != w.c.cfg.kind
	if changed && w.wroteAny && (w.c.win.strstart > w.c.win.blockStart || w.c.win.lookahead > 0) {
		w.c.step(false, true) // BlockFlush: close out the pending block only
	}
	w.c.level = level
	w.c.strategy = strategy
	w.c.cfg = cfg
	w.c.tokenize = newTokenize
	return nil
}

// Tune overrides the good/lazy/nice/chain parameters directly, bypassing
// levelConfig (spec §6, tune).
func (w *Writer) Tune(good, lazy, nice, chain int) {
	w.c.cfg.goodLength = good
	w.c.cfg.maxLazy = lazy
	w.c.cfg.niceLength = nice
	w.c.cfg.maxChain = chain
}

// Reset returns the Writer to its post-NewWriter state without
// reallocating buffers (spec §5, §6).
func (w *Writer) Reset() {
	w.c.win.reset()
	w.c.tokens = w.c.tokens[:0]
	w.c.bw.reset(w.c.bw.dst[:0])
	w.c.totalIn = 0
	w.c.finished = false
	w.pendingPos = 0
	w.finished = false
	w.wroteAny = false
}

// UpperBound returns a conservative bound on the compressed size of an
// n-byte input under this Writer's current wbits (spec §4.8).
func (w *Writer) UpperBound(n int) int {
	return upperBound(n, w.c.wbits, w.c.memLevel)
}

// Step feeds src into the compressor and drains as much compressed
// output as fits in dst, per spec §4.8: each call consumes as much input
// and produces as much output as possible, returning ResultNeedBuffers
// (not an error) when dst fills while compressed output is still
// pending. Once all of src is taken in and the requested flush is done,
// it returns ResultOK (ResultEnd after Finish).
func (w *Writer) Step(dst, src []byte, flush FlushMode) (nIn, nOut int, res Result, err error) {
	if w.finished {
		return 0, 0, ResultEnd, ErrStreamMisuse
	}
	if dst == nil {
		return 0, 0, ResultOK, ErrStreamMisuse
	}
	if len(src) > 0 {
		w.wroteAny = true
	}

	finish := flush == Finish
	boundary := flush == PartialFlush || flush == SyncFlush || flush == FullFlush || flush == BlockFlush
	markerDone := false

	for {
		if len(src) > 0 {
			n := w.c.win.fill(src)
			src = src[n:]
			nIn += n
			w.c.totalIn += int64(n)
		}

		allIn := len(src) == 0
		w.c.step(finish && allIn, boundary && allIn)

		flushed := w.c.win.lookahead == 0 && len(w.c.tokens) == 0 &&
			w.c.win.strstart == w.c.win.blockStart
		if allIn && boundary && !markerDone && flushed {
			switch flush {
			case PartialFlush:
				w.emitStaticEmptyBlock()
			case SyncFlush:
				w.emitStoredEmptyBlock(false)
			case FullFlush:
				w.emitStoredEmptyBlock(true)
			}
			markerDone = true
		}

		nOut += w.drain(dst[nOut:])

		drained := w.pendingPos == len(w.c.bw.dst)
		if finish && allIn && drained && w.c.finished {
			w.finished = true
			return nIn, nOut, ResultEnd, nil
		}
		if nOut == len(dst) && !drained {
			return nIn, nOut, ResultNeedBuffers, nil
		}
		if allIn {
			// Finishing or flushing may take several emit rounds;
			// looping with the now-empty src completes them without the
			// caller resupplying anything.
			if finish && (!w.c.finished || !drained) {
				continue
			}
			if boundary && !markerDone {
				continue
			}
			return nIn, nOut, ResultOK, nil
		}
	}
}

// drain copies as many pending compressed bytes as fit into dst,
// compacting the underlying buffer once fully drained.
func (w *Writer) drain(dst []byte) int {
	produced := len(w.c.bw.dst) - w.pendingPos
	if produced > len(dst) {
		produced = len(dst)
	}
	if produced > 0 {
		copy(dst, w.c.bw.dst[w.pendingPos:w.pendingPos+produced])
		w.pendingPos += produced
	}
	if w.pendingPos == len(w.c.bw.dst) {
		w.c.bw.dst = w.c.bw.dst[:0]
		w.pendingPos = 0
	}
	return produced
}

// emitStaticEmptyBlock appends the PartialFlush trailing marker: an
// empty static-Huffman block (ten bits), enough for a decoder to
// resynchronize without padding the stream to a byte boundary.
func (w *Writer) emitStaticEmptyBlock() {
	w.c.bw.putBits(0, 1)
	w.c.bw.putBits(1, 2)
	w.c.bw.sendCode(fixedLiteralEncoding.codes[endBlock])
}

// emitStoredEmptyBlock appends the SyncFlush/FullFlush marker: an empty
// stored block, which byte-aligns the stream and ends with the
// recognizable 00 00 FF FF sequence. FullFlush additionally forgets
// match history so no later match reaches back across the flush point.
func (w *Writer) emitStoredEmptyBlock(resetHistory bool) {
	w.c.bw.putBits(0, 1)
	w.c.bw.putBits(0, 2)
	w.c.bw.align()
	w.c.bw.putBits(0, 16)
	w.c.bw.putBits(0xFFFF, 16)
	if resetHistory {
		w.c.win.resetHashHeads()
	}
}
