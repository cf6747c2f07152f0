package gzipflate

import (
	"bufio"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	"github.com/hexwave/rawflate"
)

// ErrHeader is returned when the input does not begin with a valid gzip
// header.
var ErrHeader = errors.New("gzipflate: invalid gzip header")

// ErrChecksum is returned by Read once the trailing crc32 or size field
// does not match the decompressed data.
var ErrChecksum = errors.New("gzipflate: checksum mismatch")

const (
	flagFHCRC    = 1 << 1
	flagFEXTRA   = 1 << 2
	flagFNAME    = 1 << 3
	flagFCOMMENT = 1 << 4
)

// Reader decompresses a gzip stream read from an underlying io.Reader.
type Reader struct {
	src          *bufio.Reader
	fr           *rawflate.Reader
	crc          uint32
	size         uint32
	in           []byte
	inPos, inLen int
	done         bool
	err          error
}

// NewReader validates the gzip header read from r and returns a Reader
// ready to decompress the body that follows.
func NewReader(r io.Reader) (*Reader, error) {
	fr, err := rawflate.NewReader(15)
	if err != nil {
		return nil, err
	}
	g := &Reader{src: bufio.NewReader(r), fr: fr, in: make([]byte, 32*1024)}
	if err := g.readHeader(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Reader) readHeader() error {
	var hdr [10]byte
	if _, err := io.ReadFull(g.src, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrHeader
		}
		return err
	}
	if hdr[0] != gzipMagic1 || hdr[1] != gzipMagic2 {
		return ErrHeader
	}
	if hdr[2] != gzipDeflate {
		return errors.New("gzipflate: unsupported compression method")
	}
	flg := hdr[3]
	if flg&flagFEXTRA != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(g.src, lenBuf[:]); err != nil {
			return err
		}
		extraLen := int64(lenBuf[0]) | int64(lenBuf[1])<<8
		if _, err := io.CopyN(io.Discard, g.src, extraLen); err != nil {
			return err
		}
	}
	if flg&flagFNAME != 0 {
		if err := skipCString(g.src); err != nil {
			return err
		}
	}
	if flg&flagFCOMMENT != 0 {
		if err := skipCString(g.src); err != nil {
			return err
		}
	}
	if flg&flagFHCRC != 0 {
		var crcBuf [2]byte
		if _, err := io.ReadFull(g.src, crcBuf[:]); err != nil {
			return err
		}
	}
	return nil
}

func skipCString(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
	}
}

// Read decompresses into p, verifying the gzip trailer once the stream
// ends and surfacing ErrChecksum in place of io.EOF if it doesn't match.
func (g *Reader) Read(p []byte) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	for {
		if g.inPos == g.inLen {
			n, rerr := g.src.Read(g.in)
			g.inPos, g.inLen = 0, n
			if n == 0 {
				if rerr == nil {
					continue
				}
				g.err = errors.Wrap(rerr, "gzipflate: truncated stream")
				return 0, g.err
			}
		}

		nIn, nOut, res, err := g.fr.Step(p, g.in[g.inPos:g.inLen], rawflate.NoFlush)
		g.inPos += nIn
		if nOut > 0 {
			g.crc = crc32.Update(g.crc, crc32.IEEETable, p[:nOut])
			g.size += uint32(nOut)
		}
		if err != nil {
			g.err = err
			return nOut, err
		}
		if res == rawflate.ResultEnd {
			terr := g.readTrailer()
			g.done = true
			if terr != nil {
				g.err = terr
			} else {
				g.err = io.EOF
			}
			if nOut > 0 {
				return nOut, nil
			}
			return 0, g.err
		}
		if nOut > 0 {
			return nOut, nil
		}
		if len(p) == 0 {
			return 0, nil
		}
	}
}

func (g *Reader) readTrailer() error {
	var trailer [8]byte
	got := copy(trailer[:], g.in[g.inPos:g.inLen])
	g.inPos += got
	if got < 8 {
		if _, err := io.ReadFull(g.src, trailer[got:]); err != nil {
			return errors.Wrap(err, "gzipflate: truncated trailer")
		}
	}
	wantCRC := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	wantSize := uint32(trailer[4]) | uint32(trailer[5])<<8 | uint32(trailer[6])<<16 | uint32(trailer[7])<<24
	if wantCRC != g.crc || wantSize != g.size {
		return ErrChecksum
	}
	return nil
}
