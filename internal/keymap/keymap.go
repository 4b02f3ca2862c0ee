// Package keymap maps characters to hardware-level keystrokes.
//
// The table targets the ANSI layout virtual key codes used by the low-level
// event path. Characters outside the table are delivered via a carrier key
// code with the literal character attached; the literal, not the code, is
// what the target application renders.
package keymap

import (
	"errors"
	"unicode/utf16"

	"github.com/rivo/uniseg"
)

// Modifiers is a bitmask of modifier keys applied to a keystroke.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModOption
	ModCommand
)

// Virtual key codes for keys the package needs by name.
const (
	// CarrierCode satisfies the event format when the character has no
	// direct mapping. The event carries the literal text override, so the
	// code itself is inert.
	CarrierCode uint16 = 0x00

	KeyV      uint16 = 0x09
	KeyReturn uint16 = 0x24
	KeyTab    uint16 = 0x30
	KeySpace  uint16 = 0x31
	KeyShift  uint16 = 0x38
	KeyCmd    uint16 = 0x37
)

// maxLiteralUnits is the per-event character buffer limit of the low-level
// event structure, in UTF-16 units. Grapheme clusters that exceed it cannot
// be injected one event at a time and must go through the clipboard.
const maxLiteralUnits = 20

// ErrUnsupportedGrapheme reports a grapheme cluster too large for direct
// synthetic injection. Callers route such text through the clipboard.
var ErrUnsupportedGrapheme = errors.New("keymap: grapheme cluster exceeds event buffer")

// Keystroke is one hardware-level key event payload, constructed and
// consumed per character.
type Keystroke struct {
	Code    uint16
	Mods    Modifiers
	Literal []uint16 // UTF-16 text override; nil for directly mapped keys
}

type mapped struct {
	code  uint16
	shift bool
}

// ANSI layout codes for ASCII letters, digits, and punctuation. Shifted
// variants share the code of their base key.
var ansi = map[rune]mapped{
	'a': {0x00, false}, 'b': {0x0B, false}, 'c': {0x08, false}, 'd': {0x02, false},
	'e': {0x0E, false}, 'f': {0x03, false}, 'g': {0x05, false}, 'h': {0x04, false},
	'i': {0x22, false}, 'j': {0x26, false}, 'k': {0x28, false}, 'l': {0x25, false},
	'm': {0x2E, false}, 'n': {0x2D, false}, 'o': {0x1F, false}, 'p': {0x23, false},
	'q': {0x0C, false}, 'r': {0x0F, false}, 's': {0x01, false}, 't': {0x11, false},
	'u': {0x20, false}, 'v': {0x09, false}, 'w': {0x0D, false}, 'x': {0x07, false},
	'y': {0x10, false}, 'z': {0x06, false},

	'0': {0x1D, false}, '1': {0x12, false}, '2': {0x13, false}, '3': {0x14, false},
	'4': {0x15, false}, '5': {0x17, false}, '6': {0x16, false}, '7': {0x1A, false},
	'8': {0x1C, false}, '9': {0x19, false},

	')': {0x1D, true}, '!': {0x12, true}, '@': {0x13, true}, '#': {0x14, true},
	'$': {0x15, true}, '%': {0x17, true}, '^': {0x16, true}, '&': {0x1A, true},
	'*': {0x1C, true}, '(': {0x19, true},

	'-': {0x1B, false}, '_': {0x1B, true},
	'=': {0x18, false}, '+': {0x18, true},
	'[': {0x21, false}, '{': {0x21, true},
	']': {0x1E, false}, '}': {0x1E, true},
	'\\': {0x2A, false}, '|': {0x2A, true},
	';': {0x29, false}, ':': {0x29, true},
	'\'': {0x27, false}, '"': {0x27, true},
	',': {0x2B, false}, '<': {0x2B, true},
	'.': {0x2F, false}, '>': {0x2F, true},
	'/': {0x2C, false}, '?': {0x2C, true},
	'`': {0x32, false}, '~': {0x32, true},

	' ':  {KeySpace, false},
	'\t': {KeyTab, false},
	'\n': {KeyReturn, false},
	'\r': {KeyReturn, false},
}

// KeystrokeFor maps one grapheme cluster to a Keystroke. Every cluster maps
// to something: a direct key code for table characters (uppercase letters
// get the shift modifier), otherwise the carrier code with the cluster as a
// literal UTF-16 payload. The only refusal is ErrUnsupportedGrapheme, for
// clusters larger than the event buffer.
func KeystrokeFor(cluster string) (Keystroke, error) {
	runes := []rune(cluster)
	if len(runes) == 1 {
		r := runes[0]
		if m, ok := ansi[r]; ok {
			ks := Keystroke{Code: m.code}
			if m.shift {
				ks.Mods |= ModShift
			}
			return ks, nil
		}
		if r >= 'A' && r <= 'Z' {
			m := ansi[r+('a'-'A')]
			return Keystroke{Code: m.code, Mods: ModShift}, nil
		}
	}

	lit := utf16.Encode(runes)
	if len(lit) > maxLiteralUnits {
		return Keystroke{}, ErrUnsupportedGrapheme
	}
	return Keystroke{Code: CarrierCode, Literal: lit}, nil
}

// Sequence maps text to the keystroke per grapheme cluster it would take to
// type it. Segmentation is by extended grapheme cluster so combining marks,
// ZWJ sequences and flags stay in one event. Returns ErrUnsupportedGrapheme
// if any cluster is too large; such text must be pasted instead.
func Sequence(text string) ([]Keystroke, error) {
	seq := make([]Keystroke, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		ks, err := KeystrokeFor(g.Str())
		if err != nil {
			return nil, err
		}
		seq = append(seq, ks)
	}
	return seq, nil
}

// PasteKey returns the paste key-combo keystroke for the platform event
// path (modifier + "paste key").
func PasteKey() Keystroke {
	return Keystroke{Code: KeyV, Mods: ModCommand}
}

// ModifierKey returns the keystroke for pressing a modifier key on its own,
// used by the explicit-modifier paste variant.
func ModifierKey(m Modifiers) Keystroke {
	switch m {
	case ModShift:
		return Keystroke{Code: KeyShift}
	default:
		return Keystroke{Code: KeyCmd}
	}
}
