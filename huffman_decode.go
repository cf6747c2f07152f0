package rawflate

// codeKind selects which extra-bits/base table a decode table's entries
// are resolved against, mirroring zlib inftrees.h's CODES/LENS/DISTS enum.
type codeKind int

const (
	codesCodes codeKind = iota // the 19-symbol code-length alphabet
	codesLens                  // literal/length alphabet (286 symbols)
	codesDists                 // distance alphabet (30 symbols)
)

// Entry operation codes, spec §4.3.
const (
	opLiteral  uint8 = 0  // val is the decoded symbol/byte itself
	opEndBlock uint8 = 32 // end-of-block marker, no extra bits
	opLink     uint8 = 96 // root-table slot links to a sub-table
)

// entry is one decode table slot: op/bits/val, named exactly as spec §4.3
// and zlib's inftrees.h code struct name them.
//   - op == opLiteral: val is the decoded symbol itself (a literal byte
//     or length symbol in a lens table, a distance symbol in a dists
//     table, a code-length symbol in a codes table) and bits is the
//     number of code bits the slot consumes (in a sub-table slot, those
//     past the root bits). The extra bits of a length/distance symbol
//     are looked up from val by the caller in inflate.go.
//   - op == opEndBlock: literal/length symbol 256.
//   - op == opLink: bits is the number of root bits this slot consumed;
//     val is the base index, within the table's sub-table region, where
//     the next subBits bits of the code resolve to the final entry.
type entry struct {
	op   uint8
	bits uint8
	val  uint16
}

// huffmanTable is a root-table-plus-subtables decode table (spec §4.3),
// grounded on zlib's inflate_table()/inftrees.c: codes up to rootBits
// long resolve directly; longer codes resolve through one level of
// sub-table, addressed by a opLink entry's val.
type huffmanTable struct {
	root    []entry
	sub     []entry
	rootBits uint
	subBits  uint
}

// buildHuffmanTable constructs a decode table for the given per-symbol
// code lengths (index == symbol, value == code length, 0 == unused),
// detecting the over-subscribed and incomplete edge cases from spec §4.3.
// maxRootBits caps the root table's address width (9 for lens, 6 for
// dists, matching common zlib/stdlib choices). Longer codes resolve
// through sub-tables, and every sub-table is 2^(maxLen-root) entries wide
// whatever the lengths of the codes under its prefix, so the total size
// grows with the number of linked root prefixes and is not bounded by
// enoughLens/enoughDists.
func buildHuffmanTable(lengths []int, kind codeKind, maxRootBits uint) (*huffmanTable, error) {
	n := len(lengths)

	var blCount [maxBits + 1]int
	maxLen := 0
	used := 0
	onlySym := -1
	for i, l := range lengths {
		if l < 0 || l > maxBits {
			return nil, dataErr(IncompleteTable)
		}
		if l > 0 {
			blCount[l]++
			used++
			onlySym = i
			if l > maxLen {
				maxLen = l
			}
		}
	}
	if used == 0 {
		if kind != codesDists {
			return nil, dataErr(IncompleteTable)
		}
		// A literal-only dynamic block may describe no distance codes at
		// all. Accept the empty table; its entries decode to an
		// out-of-range symbol the distance state rejects if the stream
		// ever actually uses one.
		t := make([]entry, 2)
		for i := range t {
			t[i] = entry{op: opLiteral, bits: 1, val: 0xFFFF}
		}
		return &huffmanTable{root: t, rootBits: 1}, nil
	}

	left := 1
	for bits := 1; bits <= maxBits; bits++ {
		left <<= 1
		left -= blCount[bits]
		if left < 0 {
			return nil, dataErr(OversubscribedTable)
		}
	}
	if left > 0 {
		// An incomplete code is tolerated only for the degenerate
		// single-symbol case, and never for the code-length alphabet
		// itself (zlib's CODES table must always be complete).
		if used != 1 || kind == codesCodes {
			return nil, dataErr(IncompleteTable)
		}
	}

	if used == 1 {
		// The entry still goes through the kind's op producer: a lens
		// table whose only code is symbol 256 must decode to
		// end-of-block, not to a literal/length the length states would
		// index out of range.
		op, val := opsFor(kind)
		root := uint(1)
		t := make([]entry, 1<<root)
		for i := range t {
			t[i] = entry{op: op(onlySym), bits: 1, val: val(onlySym)}
		}
		return &huffmanTable{root: t, rootBits: root}, nil
	}

	// Canonical code assignment, symbols grouped by ascending length then
	// ascending index (RFC 1951 §3.2.2), matching the encoder side.
	var nextCode [maxBits + 1]int
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	root := maxRootBits
	if uint(maxLen) < root {
		root = uint(maxLen)
	}
	subBitsWidth := uint(0)
	if maxLen > int(root) {
		subBitsWidth = uint(maxLen) - root
	}

	rootTable := make([]entry, 1<<root)
	var subTable []entry
	linked := map[int]int{} // root prefix -> base index into subTable

	op, val := opsFor(kind)

	next := nextCode
	for sym := 0; sym < n; sym++ {
		length := lengths[sym]
		if length == 0 {
			continue
		}
		c := next[length]
		next[length]++
		rev := int(reverseBits(uint16(c), uint(length)))

		if length <= int(root) {
			e := entry{op: op(sym), bits: uint8(length), val: val(sym)}
			step := 1 << uint(length)
			for idx := rev; idx < len(rootTable); idx += step {
				rootTable[idx] = e
			}
			continue
		}

		prefix := rev & ((1 << root) - 1)
		base, ok := linked[prefix]
		if !ok {
			base = len(subTable)
			subTable = append(subTable, make([]entry, 1<<subBitsWidth)...)
			linked[prefix] = base
			rootTable[prefix] = entry{op: opLink, bits: uint8(root), val: uint16(base)}
		}
		subRev := rev >> root
		subLen := length - int(root)
		e := entry{op: op(sym), bits: uint8(subLen), val: val(sym)}
		step := 1 << uint(subLen)
		for idx := subRev; idx < (1 << subBitsWidth); idx += step {
			subTable[base+idx] = e
		}
	}

	return &huffmanTable{root: rootTable, sub: subTable, rootBits: root, subBits: subBitsWidth}, nil
}

// opsFor returns per-symbol (op, val) producers for the given table kind,
// matching zlib's three inflate_table() cases. For codesLens/codesDists,
// a non-literal entry's `bits` field (set by the caller in
// buildHuffmanTable) carries the consumed code length only; the number of
// *extra* bits still to read after decodeSymbol returns is looked up by
// the caller from lengthExtraBits/distExtraBits using val's index.
func opsFor(kind codeKind) (op func(sym int) uint8, val func(sym int) uint16) {
	switch kind {
	case codesCodes:
		return func(int) uint8 { return opLiteral },
			func(sym int) uint16 { return uint16(sym) }
	case codesLens:
		return func(sym int) uint8 {
				if sym == endBlock {
					return opEndBlock
				}
				return opLiteral
			},
			func(sym int) uint16 { return uint16(sym) }
	default: // codesDists
		return func(int) uint8 { return opLiteral },
			func(sym int) uint16 { return uint16(sym) }
	}
}

// decodeSymbol resolves one symbol from r, consuming exactly as many bits
// as the matched code occupies. It returns ok=false (consuming nothing)
// if r does not yet hold enough buffered bits to guarantee a correct
// decode; callers in inflate.go treat that as "need more input" rather
// than a data error, preserving the stream's resumability (spec §4.7).
// Because buildHuffmanTable already rejected incomplete/oversubscribed
// length sets, every reachable root/sub slot is populated, so a
// successful decode can never land on an invalid entry.
func (t *huffmanTable) decodeSymbol(r *bitReader) (entry, bool) {
	if !r.need(t.rootBits) {
		// The stream's final code may be shorter than the root width and
		// followed by nothing. peek zero-pads above r.bits, which is safe
		// here: all codes sharing a prefix map to the same entry, so the
		// entry is trustworthy as long as the code itself fits in what
		// remains.
		e := t.root[r.peek(t.rootBits)]
		if e.op != opLink && uint(e.bits) <= r.bits {
			r.drop(uint(e.bits))
			return e, true
		}
		return entry{}, false
	}
	e := t.root[r.peek(t.rootBits)]
	if e.op != opLink {
		r.drop(uint(e.bits))
		return e, true
	}
	if !r.need(uint(e.bits) + t.subBits) {
		if r.bits >= uint(e.bits) {
			sub := (r.hold >> uint(e.bits)) & ((1 << t.subBits) - 1)
			se := t.sub[int(e.val)+int(sub)]
			if uint(e.bits)+uint(se.bits) <= r.bits {
				r.drop(uint(e.bits))
				r.drop(uint(se.bits))
				return se, true
			}
		}
		return entry{}, false
	}
	r.drop(uint(e.bits))
	se := t.sub[int(e.val)+int(r.peek(t.subBits))]
	r.drop(uint(se.bits))
	return se, true
}
