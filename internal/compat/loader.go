package compat

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// File layout:
//
//	[apps."com.example.editor"]
//	method = "paste"
//	restore_delay_ms = 300
//	post_hook = "settle-short"
type tableFile struct {
	Apps map[string]Entry `toml:"apps"`
}

// LoadFile overlays entries from a TOML file onto the table. A missing
// file clears the overlay and is not an error, so a freshly deleted table
// falls back to the builtins.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.replaceOverlay(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read compat table: %w", err)
	}

	var f tableFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse compat table: %w", err)
	}

	for appID, e := range f.Apps {
		switch e.Method {
		case MethodNone, MethodKeystroke, MethodPaste, MethodPasteExplicit:
		default:
			return fmt.Errorf("compat table: app %q: unknown method %q", appID, e.Method)
		}
	}

	t.replaceOverlay(f.Apps)
	return nil
}

// DefaultPath returns the platform-specific location of the user's compat
// table overlay.
func DefaultPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "textinject", "compat.toml")
}
