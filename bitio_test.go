package rawflate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		values := make([]uint32, n)
		widths := make([]uint, n)
		for i := range values {
			w := rapid.UintRange(1, 16).Draw(rt, "width")
			widths[i] = w
			values[i] = rapid.Uint32Range(0, uint32(1<<w)-1).Draw(rt, "value")
		}

		var bw bitWriter
		bw.reset(nil)
		for i := range values {
			bw.putBits(values[i], widths[i])
		}
		bw.align()
		bw.flush()

		var br bitReader
		br.reset(bw.dst)
		for i := range values {
			got, ok := br.takeBits(widths[i])
			require.True(rt, ok)
			require.Equal(rt, values[i], got)
		}
	})
}

func TestBitWriterAlign(t *testing.T) {
	var bw bitWriter
	bw.reset(nil)
	bw.putBits(1, 1)
	bw.align()
	require.Equal(t, uint(0), bw.nbits)
	bw.flush()
	require.Equal(t, []byte{0x01}, bw.dst)
}

func TestBitReaderAlignByte(t *testing.T) {
	var br bitReader
	br.reset([]byte{0xff, 0xaa})
	_, ok := br.takeBits(3)
	require.True(t, ok)
	br.alignByte()
	b, ok := br.takeByte()
	require.True(t, ok)
	require.Equal(t, byte(0xaa), b)
}

func TestBitReaderNeedExhausted(t *testing.T) {
	var br bitReader
	br.reset([]byte{0x01})
	_, ok := br.takeBits(9)
	require.False(t, ok)
}

func TestBitReaderBytesAvailable(t *testing.T) {
	var br bitReader
	br.reset([]byte{1, 2, 3})
	require.Equal(t, 3, br.bytesAvailable())
	br.takeBits(4)
	require.Equal(t, 2, br.bytesAvailable())
	br.takeBits(8)
	require.Equal(t, 1, br.bytesAvailable())
}
