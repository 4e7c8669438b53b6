package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_ErrorAndWarn(t *testing.T) {
	var l List

	assert.True(t, l.Empty())

	l.Error(Validation, TypeMissingArtists, 3, "aug 1 fri at X", "record has no artists")
	l.Warn(DataQuality, TypeDuplicateArtist, 7, "raw", "artist %q listed twice", "Hum")

	require.Len(t, l.Errors, 1)
	require.Len(t, l.Warnings, 1)
	assert.False(t, l.Empty())

	assert.Equal(t, 3, l.Errors[0].Line)
	assert.Equal(t, "aug 1 fri at X", l.Errors[0].RawText)
	assert.Equal(t, `artist "Hum" listed twice`, l.Warnings[0].Message)
	assert.Equal(t, "line 7: [data-quality/duplicate-artist] artist \"Hum\" listed twice", l.Warnings[0].String())
}

func TestList_Merge(t *testing.T) {
	var a, b List

	a.Warn(DataQuality, TypeFormat, 1, "", "a")
	b.Error(Validation, TypeInvalidDate, 2, "", "b")
	b.Warn(DataQuality, TypeFormat, 3, "", "c")

	a.Merge(b)

	assert.Len(t, a.Errors, 1)
	assert.Len(t, a.Warnings, 2)
}

func TestTally(t *testing.T) {
	var l List

	l.Warn(DataQuality, TypeFormat, 1, "", "x")
	l.Warn(DataQuality, TypeFormat, 2, "", "y")
	l.WarnCount(DataQuality, TypeFormat, 5, "%d blank lines skipped", 5)
	l.Warn(DataQuality, TypeDuplicateArtist, 4, "", "z")

	tally := Tally(l.Warnings)

	assert.Equal(t, 7, tally[Key{Category: DataQuality, Type: TypeFormat}])
	assert.Equal(t, 1, tally[Key{Category: DataQuality, Type: TypeDuplicateArtist}])

	keys := SortedKeys(tally)
	require.Len(t, keys, 2)
	assert.Equal(t, TypeDuplicateArtist, keys[0].Type)
}

func TestByLine(t *testing.T) {
	ds := []Diagnostic{{Line: 9, Message: "a"}, {Line: 2, Message: "b"}, {Line: 9, Message: "c"}}

	sorted := ByLine(ds)

	assert.Equal(t, []string{"b", "a", "c"}, []string{sorted[0].Message, sorted[1].Message, sorted[2].Message})
	assert.Equal(t, "a", ds[0].Message, "input must not be reordered")
}
