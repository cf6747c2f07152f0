package rawflate

// outWindow is inflate's output history buffer: every decoded byte is
// appended here, and a match copies from buf[len(buf)-distance:]. Bytes
// already delivered to the caller are trimmed once they fall more than
// size bytes behind the current end, so buf never holds more than size
// plus whatever is still waiting to be drained. Grounded on
// inflate_stream's window/wsize/whave/wnext fields
// (original_source/include/beast/core/detail/zlib/inflate_stream.hpp),
// adapted from zlib's circular buffer to an append-and-trim slice since
// this module drains through Step rather than writing output in place.
type outWindow struct {
	size int
	buf  []byte
	pos  int // bytes already copied out to a caller
}

func newOutWindow(wbits int) *outWindow {
	return &outWindow{size: 1 << uint(wbits)}
}

func (o *outWindow) reset() {
	o.buf = o.buf[:0]
	o.pos = 0
}

// whave reports how many bytes of history are available for a match to
// reference, per spec §4.7's distance validation.
func (o *outWindow) whave() int {
	return len(o.buf)
}

func (o *outWindow) writeByte(b byte) {
	o.buf = append(o.buf, b)
}

// copyMatch appends length bytes read starting distance bytes before the
// current end, byte-by-byte (distances below length must see bytes they
// just produced, so this cannot be a single copy()).
func (o *outWindow) copyMatch(distance, length int) {
	start := len(o.buf) - distance
	for i := 0; i < length; i++ {
		o.buf = append(o.buf, o.buf[start+i])
	}
}

// seed preloads the window with dictionary bytes, as history only: they
// are never drained to a caller.
func (o *outWindow) seed(dict []byte) {
	dict = trimDictionary(dict, o.size)
	o.buf = append(o.buf[:0], dict...)
	o.pos = len(o.buf)
}

// snapshot returns the tail of buf usable as get_dictionary output,
// mirroring inflateGetDictionary.
func (o *outWindow) snapshot() []byte {
	if len(o.buf) <= o.size {
		out := make([]byte, len(o.buf))
		copy(out, o.buf)
		return out
	}
	out := make([]byte, o.size)
	copy(out, o.buf[len(o.buf)-o.size:])
	return out
}

// drain copies newly produced bytes into dst, trimming buf's already-
// drained tail once it grows more than size bytes behind the write end.
func (o *outWindow) drain(dst []byte) int {
	n := len(o.buf) - o.pos
	if n > len(dst) {
		n = len(dst)
	}
	if n > 0 {
		copy(dst, o.buf[o.pos:o.pos+n])
		o.pos += n
	}
	if o.pos > o.size {
		trim := o.pos - o.size
		o.buf = o.buf[trim:]
		o.pos -= trim
	}
	return n
}

func (o *outWindow) pending() bool {
	return o.pos < len(o.buf)
}
