// Package clip arbitrates the system clipboard: it saves the full
// multi-format clipboard contents, overwrites them with the text to inject,
// triggers a paste combo, and restores the prior contents once the paste
// has had time to land.
package clip

import "errors"

// ErrConflict reports that another process modified the clipboard during
// our operation. Recovered by skipping restoration; the foreign contents
// are left intact.
var ErrConflict = errors.New("clip: clipboard changed externally")

// FormatData is one serialized representation of a clipboard item.
type FormatData struct {
	Format string // pasteboard type / MIME identifier
	Data   []byte
}

// Item is one clipboard item with all of its formats.
type Item struct {
	Formats []FormatData
}

// Clipboard is the black-box system clipboard. Its only consistency signal
// is a monotonically increasing change counter, incremented on every write.
type Clipboard interface {
	// Items reads and serializes every format of every item.
	Items() ([]Item, error)
	// ChangeCount returns the clipboard's version counter.
	ChangeCount() (int64, error)
	// WriteText clears the clipboard and writes a single plain-text item.
	WriteText(text string) error
	// Write clears the clipboard and writes the given items back.
	Write(items []Item) error
}

// SavedState captures the clipboard at save time. Owned by one in-flight
// paste operation: write-once, restored at most once, then discarded.
type SavedState struct {
	items    []Item
	count    int64
	restored bool
}

// Save serializes the current clipboard into a SavedState.
func Save(cb Clipboard) (*SavedState, error) {
	items, err := cb.Items()
	if err != nil {
		return nil, err
	}
	count, err := cb.ChangeCount()
	if err != nil {
		return nil, err
	}
	return &SavedState{items: items, count: count}, nil
}

// Restore writes the saved contents back, but only if the live change
// counter equals saved+1, i.e. the only write since saving was our own.
// Anything else means a third party owns the clipboard now and restoring
// would clobber their data: ErrConflict, contents left alone.
func (s *SavedState) Restore(cb Clipboard) error {
	if s.restored {
		return errors.New("clip: saved state already restored")
	}
	s.restored = true

	count, err := cb.ChangeCount()
	if err != nil {
		return err
	}
	if count != s.count+1 {
		return ErrConflict
	}
	return cb.Write(s.items)
}
