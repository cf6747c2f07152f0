package rawflate

// Constants from RFC 1951 and from zlib's deflate.c / inftrees.c, carried
// over unchanged from the Boost.Beast derivative this module's algorithm
// is grounded on (original_source/include/beast/core/detail/zlib).
const (
	minMatch = 3
	maxMatch = 258

	literals  = 256
	endBlock  = 256
	lengthCodes = 29
	lCodes    = literals + 1 + lengthCodes // 286
	dCodes    = 30
	blCodes   = 19
	maxBits   = 15
	maxDBits  = 15

	minLookahead = maxMatch + minMatch + 1 // 262

	// TooFar bounds the distance/length-3 filter used by deflate_slow.
	tooFar = 4096

	// enoughLens/enoughDists are zlib's ENOUGH decode table bounds (from
	// inftrees.h). Nothing in this package uses them: buildHuffmanTable
	// sizes its tables from the code lengths it is given.
	enoughLens  = 852
	enoughDists = 592
)

// lengthExtraBits gives the number of extra bits following length code
// i (literal/length symbol 257+i).
var lengthExtraBits = [lengthCodes]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// lengthBase gives the smallest match length encoded by length code i
// (literal/length symbol 257+i); add the extra bits to get the actual
// length.
var lengthBase = [lengthCodes]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

// distExtraBits gives the number of extra bits following distance code i.
var distExtraBits = [dCodes]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// distBase gives the smallest distance encoded by distance code i.
var distBase = [dCodes]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

// codeLengthOrder is the order in which code-length-code lengths are
// transmitted, RFC 1951 section 3.2.7.
var codeLengthOrder = [blCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthCodeOf maps a match length (minMatch..maxMatch) to its length
// code index (0..lengthCodes-1). Built once from lengthBase so the table
// doubles as ground truth for both encode and test code.
var lengthCodeOf [maxMatch - minMatch + 1]uint8

func init() {
	code := 0
	for length := minMatch; length <= maxMatch; length++ {
		for code+1 < lengthCodes && length >= int(lengthBase[code+1]) {
			code++
		}
		lengthCodeOf[length-minMatch] = uint8(code)
	}
}

func matchLengthCode(length int) int {
	return int(lengthCodeOf[length-minMatch])
}

// distanceCode maps a distance (1..32768) to its distance code: the
// largest i with distBase[i] <= dist. zlib precomputes this via the split
// _dist_code[] table; the module has no hot-path reason to avoid the
// direct search over the 30-entry table.
func distanceCode(dist int) int {
	for i := dCodes - 1; i >= 0; i-- {
		if dist >= int(distBase[i]) {
			return i
		}
	}
	return 0
}

// strategyConfig is one row of the level configuration table (spec §4.5).
// goodLength, maxLazy, niceLength and maxChain mirror zlib's good/lazy/
// nice/chain; kind selects the strategy function.
type strategyConfig struct {
	goodLength int
	maxLazy    int
	niceLength int
	maxChain   int
	kind       strategyKind
}

type strategyKind int

const (
	kindStored strategyKind = iota
	kindFast
	kindSlow
)

// levelConfig is the fixed per-level configuration table from spec §4.5,
// grounded directly on zlib's configuration_table in deflate.cpp.
var levelConfig = [10]strategyConfig{
	{0, 0, 0, 0, kindStored},
	{4, 4, 8, 4, kindFast},
	{4, 5, 16, 8, kindFast},
	{4, 6, 32, 32, kindFast},
	{4, 4, 16, 16, kindSlow},
	{8, 16, 32, 32, kindSlow},
	{8, 16, 128, 128, kindSlow},
	{8, 32, 128, 256, kindSlow},
	{32, 128, 258, 1024, kindSlow},
	{32, 258, 258, 4096, kindSlow},
}

// Strategy selects an explicit override of the level-driven strategy
// table, mirroring zlib's Z_* strategy constants (spec §4.5, §6).
type Strategy int

const (
	DefaultStrategy Strategy = iota
	Filtered
	HuffmanOnly
	RLE
	Fixed
)

// fixedLiteralLengths and fixedDistLengths are the RFC 1951 Appendix
// fixed Huffman code lengths, used to build the static encoders (in
// huffman_encode.go). The static decoders in inflate.go are built from
// fixedLiteralLengths and fixedDistDecodeLengths.
func fixedLiteralLengths() []int {
	lens := make([]int, lCodes+2)
	i := 0
	for ; i < 144; i++ {
		lens[i] = 8
	}
	for ; i < 256; i++ {
		lens[i] = 9
	}
	for ; i < 280; i++ {
		lens[i] = 7
	}
	for ; i < 288; i++ {
		lens[i] = 8
	}
	return lens
}

func fixedDistLengths() []int {
	lens := make([]int, dCodes)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}

// fixedDistDecodeLengths is fixedDistLengths widened to 32 symbols, the
// shape zlib's fixedtables() actually builds its static distance decode
// table from. RFC 1951's 30-symbol fixed distance alphabet by itself is
// an incomplete code (Kraft sum 30/32), which buildHuffmanTable rejects
// outside the degenerate single-symbol case; the two spare 5-bit codes
// 30 and 31 complete it. They never legitimately appear in a bitstream -
// decodeSymbol resolves them to symbols the modeDist caller in inflate.go
// already rejects as InvalidDistanceCode via its `val >= dCodes` check.
func fixedDistDecodeLengths() []int {
	lens := make([]int, 32)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}
