package gzipflate

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("a"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte("abcabcabcabc"), 1000),
	}
	for _, in := range inputs {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, 6)
		require.NoError(t, err)
		_, err = w.Write(in)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := NewReader(&buf)
		require.NoError(t, err)
		out, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

// TestReadByStdlibGzip checks that a stream this package writes is a
// well-formed gzip file the standard library can read back.
func TestReadByStdlibGzip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 9)
	require.NoError(t, err)
	msg := bytes.Repeat([]byte("hello, gzip world\n"), 500)
	_, err = w.Write(msg)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	gr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	out, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.Equal(t, msg, out)
}

// TestWriteReadByStdlibGzip checks the reverse direction: a stream the
// standard library writes decompresses correctly here.
func TestWriteReadByStdlibGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	msg := bytes.Repeat([]byte("round trip through the standard library\n"), 300)
	_, err := gw.Write(msg)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, msg, out)
}

func TestFlush(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 6)
	require.NoError(t, err)
	_, err = w.Write([]byte("first part"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	flushedLen := buf.Len()
	require.Greater(t, flushedLen, 0)

	_, err = w.Write([]byte("second part"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "first partsecond part", string(out))
}

func TestBadHeader(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not a gzip stream")))
	require.ErrorIs(t, err, ErrHeader)
}

func TestTruncatedTrailer(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 6)
	require.NoError(t, err)
	_, err = w.Write([]byte("some data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	truncated := buf.Bytes()[:buf.Len()-4]
	r, err := NewReader(bytes.NewReader(truncated))
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.Error(t, err)
}
