package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceOrderIsDeclarationOrder(t *testing.T) {
	// Lexically "1.9.0" > "1.10.0"; declared order must win.
	seq := MustSequence("trunk", "1.10.0", "1.9.0")

	assert.Equal(t, Version("trunk"), seq.Newest())
	assert.Equal(t, Version("1.9.0"), seq.Oldest())
	assert.True(t, seq.NewerThan("1.10.0", "1.9.0"))
	assert.False(t, seq.NewerThan("1.9.0", "1.10.0"))
	assert.Negative(t, seq.Compare("trunk", "1.9.0"))
	assert.Positive(t, seq.Compare("1.9.0", "trunk"))
	assert.Zero(t, seq.Compare("1.10.0", "1.10.0"))
	assert.False(t, seq.NewerThan("trunk", "trunk"))
}

func TestSequenceAccessors(t *testing.T) {
	seq := MustSequence("R2", "R1", "R0")

	assert.Equal(t, 3, seq.Len())
	assert.Equal(t, Version("R1"), seq.At(1))
	assert.Equal(t, 2, seq.Index("R0"))
	assert.Equal(t, -1, seq.Index("R9"))
	assert.True(t, seq.Contains("R2"))
	assert.False(t, seq.Contains("R9"))

	versions := seq.Versions()
	versions[0] = "mutated"
	assert.Equal(t, Version("R2"), seq.Newest(), "Versions must return a copy")
}

func TestNewSequenceRejectsInvalid(t *testing.T) {
	_, err := NewSequence()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = NewSequence("R1", "R0", "R1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")

	_, err = NewSequence("R1", "")
	require.Error(t, err)
}

func TestSequenceComparePanicsOnUnknown(t *testing.T) {
	seq := MustSequence("R1", "R0")
	assert.Panics(t, func() { seq.Compare("R1", "nope") })
}

func TestValueDistinguishesAbsentFromEmpty(t *testing.T) {
	assert.False(t, Absent.Equal(Some("")))
	assert.True(t, Absent.Equal(Value{}))
	assert.True(t, Some("").Equal(Some("")))
	assert.False(t, Some("X").Equal(Some("Y")))

	assert.Equal(t, AbsentSymbol, Absent.String())
	assert.Equal(t, "", Some("").String())
	assert.Equal(t, "", Absent.OrEmpty())

	text, ok := Some("X").Text()
	assert.True(t, ok)
	assert.Equal(t, "X", text)
}

func TestBirthRecordAccessors(t *testing.T) {
	r := NewBirthRecord("R1", Some("X"), Some("Y"))

	assert.Equal(t, Version("R1"), r.Birth())
	assert.True(t, r.Current().Equal(Some("X")))
	assert.True(t, r.Previous().Equal(Some("Y")))
}
