package keymap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystrokeForASCIILetters(t *testing.T) {
	ks, err := KeystrokeFor("a")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00), ks.Code)
	assert.Equal(t, Modifiers(0), ks.Mods)
	assert.Nil(t, ks.Literal)

	ks, err = KeystrokeFor("A")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00), ks.Code)
	assert.Equal(t, ModShift, ks.Mods)
}

func TestKeystrokeForShiftedPunctuation(t *testing.T) {
	cases := map[string]struct {
		code  uint16
		shift bool
	}{
		"1": {0x12, false},
		"!": {0x12, true},
		";": {0x29, false},
		":": {0x29, true},
		"/": {0x2C, false},
		"?": {0x2C, true},
		" ": {KeySpace, false},
	}
	for in, want := range cases {
		ks, err := KeystrokeFor(in)
		require.NoError(t, err, "cluster %q", in)
		assert.Equal(t, want.code, ks.Code, "cluster %q", in)
		assert.Equal(t, want.shift, ks.Mods&ModShift != 0, "cluster %q", in)
	}
}

func TestKeystrokeForCarriesLiterals(t *testing.T) {
	for _, in := range []string{"é", "日", "☕", "ñ"} {
		ks, err := KeystrokeFor(in)
		require.NoError(t, err, "cluster %q", in)
		assert.Equal(t, CarrierCode, ks.Code, "cluster %q", in)
		assert.NotEmpty(t, ks.Literal, "cluster %q", in)
	}

	// Astronaut emoji sits outside the BMP: two UTF-16 units.
	ks, err := KeystrokeFor("🚀")
	require.NoError(t, err)
	assert.Len(t, ks.Literal, 2)
}

func TestKeystrokeForIsTotal(t *testing.T) {
	// Representative corpus: ASCII, Latin-1 supplement, CJK, emoji,
	// combining marks. Every cluster yields a keystroke or the explicit
	// unsupported sentinel, never a silent no-op.
	corpus := []string{
		"a", "Z", "0", "~", "\n",
		"é", "ü", "ß", "¿",
		"漢", "語", "한",
		"😀", "☕", "🚀",
		"é", // e + combining acute
	}
	for _, in := range corpus {
		ks, err := KeystrokeFor(in)
		if err != nil {
			assert.ErrorIs(t, err, ErrUnsupportedGrapheme)
			continue
		}
		if ks.Code == CarrierCode {
			assert.NotEmpty(t, ks.Literal, "cluster %q", in)
		}
	}
}

func TestKeystrokeForRejectsOversizedClusters(t *testing.T) {
	// A long ZWJ chain exceeds the per-event UTF-16 buffer.
	cluster := "👨‍👩‍👧‍👦‍👨‍👩‍👧‍👦"
	_, err := KeystrokeFor(cluster)
	assert.ErrorIs(t, err, ErrUnsupportedGrapheme)
}

func TestSequenceSegmentsGraphemes(t *testing.T) {
	// Flag emoji is two code points but one cluster, hence one keystroke.
	seq, err := Sequence("hi🇫🇷")
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.Equal(t, CarrierCode, seq[2].Code)
	assert.Len(t, seq[2].Literal, 4)
}

func TestSequencePropagatesUnsupported(t *testing.T) {
	_, err := Sequence("ok👨‍👩‍👧‍👦‍👨‍👩‍👧‍👦")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedGrapheme))
}

func TestPasteKey(t *testing.T) {
	ks := PasteKey()
	assert.Equal(t, KeyV, ks.Code)
	assert.Equal(t, ModCommand, ks.Mods)
}
