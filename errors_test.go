package rawflate

import (
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/require"
)

func TestIsDataErrorMatchesKind(t *testing.T) {
	err := dataErr(BadStoredLength)
	require.True(t, IsDataError(err, BadStoredLength))
	require.False(t, IsDataError(err, OversubscribedTable))
}

func TestIsDataErrorFalseForOtherErrors(t *testing.T) {
	require.False(t, IsDataError(ErrInvalidParam, BadStoredLength))
	require.False(t, IsDataError(stderrors.New("plain"), BadStoredLength))
}

func TestDataErrorKindString(t *testing.T) {
	kinds := []DataErrorKind{
		InvalidBlockType, BadStoredLength, OversubscribedTable,
		IncompleteTable, InvalidCodeLengthRepeat, InvalidLiteralLength,
		InvalidDistanceCode, DistanceTooFarBack, UnexpectedEOF,
	}
	for _, k := range kinds {
		require.NotEmpty(t, k.String())
	}
}
