// Package gzipflate wraps rawflate.Writer/Reader with the io.Writer and
// io.Reader interfaces plus a gzip (RFC 1952) header and trailer, the one
// convenience layer this module keeps outside the raw-DEFLATE core.
//
// Grounded on andybalholm-brotli/flate/writer.go and gzip.go: the same
// technique of stamping a fixed ten-byte header and an eight-byte
// crc32/size trailer around the compressed stream, using hash/crc32 and
// time from the standard library and github.com/pkg/errors for its error
// values.
package gzipflate

import (
	"hash/crc32"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/hexwave/rawflate"
)

const (
	gzipMagic1  = 0x1f
	gzipMagic2  = 0x8b
	gzipDeflate = 8
	gzipOSUnknown = 255
)

// ErrClosed is returned by Write and Flush once Close has run.
var ErrClosed = errors.New("gzipflate: write to closed writer")

// Writer compresses to gzip format, writing to the io.Writer given to
// NewWriter. The zero value is not
// usable; construct with NewWriter.
type Writer struct {
	dest        io.Writer
	fw          *rawflate.Writer
	crc         uint32
	size        uint32
	wroteHeader bool
	closed      bool
	scratch     []byte
	err         error
}

// NewWriter returns a Writer that compresses at the given level (0-9, -1
// for the default) to gzip format, writing to w.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	fw, err := rawflate.NewWriter(level, 15, 8, rawflate.DefaultStrategy)
	if err != nil {
		return nil, err
	}
	return &Writer{dest: w, fw: fw, scratch: make([]byte, 32*1024)}, nil
}

func appendUint32(dst []byte, n uint32) []byte {
	return append(dst,
		byte(n),
		byte(n>>8),
		byte(n>>16),
		byte(n>>24),
	)
}

func (g *Writer) writeHeader() error {
	hdr := []byte{gzipMagic1, gzipMagic2, gzipDeflate, 0}
	hdr = appendUint32(hdr, uint32(time.Now().Unix()))
	hdr = append(hdr, 0, gzipOSUnknown)
	_, err := g.dest.Write(hdr)
	return err
}

// Write compresses p, buffering internally; it always consumes all of p or
// returns an error.
func (g *Writer) Write(p []byte) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	if g.closed {
		return 0, ErrClosed
	}
	if !g.wroteHeader {
		if err := g.writeHeader(); err != nil {
			g.err = err
			return 0, err
		}
		g.wroteHeader = true
	}

	total := 0
	for len(p) > 0 {
		nIn, nOut, _, err := g.fw.Step(g.scratch, p, rawflate.NoFlush)
		if err != nil {
			g.err = err
			return total, err
		}
		if nOut > 0 {
			if _, werr := g.dest.Write(g.scratch[:nOut]); werr != nil {
				g.err = werr
				return total, werr
			}
		}
		if nIn > 0 {
			g.crc = crc32.Update(g.crc, crc32.IEEETable, p[:nIn])
			g.size += uint32(nIn)
			p = p[nIn:]
			total += nIn
		} else if nOut == 0 {
			// Step made no progress on either side; the compressor is
			// holding a lazy-match decision open and needs Flush/Close
			// to force it out, not more input.
			break
		}
	}
	return total, nil
}

// Flush forces all buffered data out as a resynchronizable point without
// ending the stream, mirroring zlib's Z_SYNC_FLUSH.
func (g *Writer) Flush() error {
	if g.err != nil {
		return g.err
	}
	if g.closed {
		return ErrClosed
	}
	if !g.wroteHeader {
		if err := g.writeHeader(); err != nil {
			g.err = err
			return err
		}
		g.wroteHeader = true
	}
	for {
		_, nOut, _, err := g.fw.Step(g.scratch, nil, rawflate.SyncFlush)
		if err != nil {
			g.err = err
			return err
		}
		if nOut > 0 {
			if _, werr := g.dest.Write(g.scratch[:nOut]); werr != nil {
				g.err = werr
				return werr
			}
		}
		if nOut < len(g.scratch) {
			return nil
		}
	}
}

// Close flushes any pending data, marks the final block, and writes the
// gzip trailer. It does not close the underlying writer.
func (g *Writer) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if g.err != nil {
		return g.err
	}
	if !g.wroteHeader {
		if err := g.writeHeader(); err != nil {
			return err
		}
		g.wroteHeader = true
	}
	for {
		_, nOut, res, err := g.fw.Step(g.scratch, nil, rawflate.Finish)
		if err != nil {
			return err
		}
		if nOut > 0 {
			if _, werr := g.dest.Write(g.scratch[:nOut]); werr != nil {
				return werr
			}
		}
		if res == rawflate.ResultEnd {
			break
		}
	}
	trailer := appendUint32(nil, g.crc)
	trailer = appendUint32(trailer, g.size)
	_, err := g.dest.Write(trailer)
	return err
}
