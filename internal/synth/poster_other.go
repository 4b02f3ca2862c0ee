//go:build !darwin

package synth

import (
	"unicode/utf16"

	"github.com/go-vgo/robotgo"

	"github.com/dictaflow/textinject/internal/keymap"
)

// robotgoPoster drives injection through robotgo's key toggles on platforms
// without a CGEvent tap. robotgo resolves platform key codes itself, so
// keystrokes are translated back to their character or key name.
type robotgoPoster struct{}

// NewPlatformPoster returns the robotgo-backed poster.
func NewPlatformPoster() Poster {
	return &robotgoPoster{}
}

func (robotgoPoster) Post(ks keymap.Keystroke, pressed bool) error {
	// Literal carriers have no key name; type the text on the press edge
	// and treat the release as a no-op.
	if len(ks.Literal) > 0 {
		if pressed {
			robotgo.TypeStr(string(utf16.Decode(ks.Literal)))
		}
		return nil
	}

	name, ok := keyName(ks.Code)
	if !ok {
		return ErrEventConstruction
	}

	args := make([]interface{}, 0, 4)
	if pressed {
		args = append(args, "down")
	} else {
		args = append(args, "up")
	}
	for _, mod := range modNames(ks.Mods) {
		args = append(args, mod)
	}
	return robotgo.KeyToggle(name, args...)
}

func keyName(code uint16) (string, bool) {
	n, ok := codeNames[code]
	return n, ok
}

// codeNames maps the ANSI virtual key codes used by keymap back to robotgo
// key names.
var codeNames = map[uint16]string{
	0x00: "a", 0x0B: "b", 0x08: "c", 0x02: "d", 0x0E: "e", 0x03: "f",
	0x05: "g", 0x04: "h", 0x22: "i", 0x26: "j", 0x28: "k", 0x25: "l",
	0x2E: "m", 0x2D: "n", 0x1F: "o", 0x23: "p", 0x0C: "q", 0x0F: "r",
	0x01: "s", 0x11: "t", 0x20: "u", 0x09: "v", 0x0D: "w", 0x07: "x",
	0x10: "y", 0x06: "z",

	0x1D: "0", 0x12: "1", 0x13: "2", 0x14: "3", 0x15: "4", 0x17: "5",
	0x16: "6", 0x1A: "7", 0x1C: "8", 0x19: "9",

	0x1B: "-", 0x18: "=", 0x21: "[", 0x1E: "]", 0x2A: "\\",
	0x29: ";", 0x27: "'", 0x2B: ",", 0x2F: ".", 0x2C: "/", 0x32: "`",

	keymap.KeySpace:  "space",
	keymap.KeyTab:    "tab",
	keymap.KeyReturn: "enter",
	keymap.KeyShift:  "shift",
	keymap.KeyCmd:    "ctrl",
}

// The command modifier becomes control here: paste and friends are
// ctrl-combos everywhere but macOS.
func modNames(m keymap.Modifiers) []string {
	var names []string
	if m&keymap.ModShift != 0 {
		names = append(names, "shift")
	}
	if m&keymap.ModControl != 0 {
		names = append(names, "ctrl")
	}
	if m&keymap.ModOption != 0 {
		names = append(names, "alt")
	}
	if m&keymap.ModCommand != 0 {
		names = append(names, "ctrl")
	}
	return names
}
