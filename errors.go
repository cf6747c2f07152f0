package rawflate

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidParam is returned by NewWriter/NewReader when level, wbits,
// memLevel or strategy fall outside their valid ranges.
var ErrInvalidParam = errors.New("rawflate: invalid parameter")

// ErrStreamMisuse is returned when the caller violates the stream
// contract: writing after Finish has reported ResultEnd, or supplying a
// nil output buffer.
var ErrStreamMisuse = errors.New("rawflate: stream misuse")

// ErrMemory reports a failed buffer allocation. NewWriter and NewReader
// do not return it: they range-check their parameters and then allocate
// with make, which does not report failure as an error value.
var ErrMemory = errors.New("rawflate: allocation failed")

// DataErrorKind enumerates the ways inflate can find a bitstream
// malformed. All are fatal for the stream; Reset is required to reuse it.
type DataErrorKind int

const (
	InvalidBlockType DataErrorKind = iota
	BadStoredLength
	OversubscribedTable
	IncompleteTable
	InvalidCodeLengthRepeat
	InvalidLiteralLength
	InvalidDistanceCode
	DistanceTooFarBack
	UnexpectedEOF
)

func (k DataErrorKind) String() string {
	switch k {
	case InvalidBlockType:
		return "invalid block type"
	case BadStoredLength:
		return "stored block length mismatch"
	case OversubscribedTable:
		return "oversubscribed Huffman table"
	case IncompleteTable:
		return "incomplete Huffman table"
	case InvalidCodeLengthRepeat:
		return "invalid code length repeat"
	case InvalidLiteralLength:
		return "invalid literal/length code"
	case InvalidDistanceCode:
		return "invalid distance code"
	case DistanceTooFarBack:
		return "distance too far back"
	case UnexpectedEOF:
		return "unexpected end of input"
	default:
		return "unknown data error"
	}
}

// DataError reports a fatal inflate bitstream error. The stream's mode
// transitions to bad and only Reset clears it.
type DataError struct {
	Kind DataErrorKind
}

func (e *DataError) Error() string {
	return fmt.Sprintf("rawflate: data error: %s", e.Kind)
}

func dataErr(kind DataErrorKind) error {
	return pkgerrors.WithStack(&DataError{Kind: kind})
}

// IsDataError reports whether err (or one of its wrapped causes) is a
// *DataError of the given kind.
func IsDataError(err error, kind DataErrorKind) bool {
	var de *DataError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
