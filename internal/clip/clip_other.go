//go:build !darwin

package clip

import (
	"sync"

	"github.com/atotto/clipboard"
)

// TextFormat is the single format the portable backend round-trips.
const TextFormat = "text/plain;charset=utf-8"

// textClipboard is the portable backend. The platform clipboards it wraps
// expose neither multi-format items nor a change counter, so it carries
// plain text only and emulates the counter: every own write advances it,
// matching native pasteboard semantics, and foreign writes are detected by
// observing content changes on every query. Good enough for conflict
// detection within one operation's save/restore window.
type textClipboard struct {
	mu    sync.Mutex
	read  func() (string, error)
	write func(string) error
	count int64
	last  string
	known bool
}

// NewSystemClipboard returns the portable text-only clipboard.
func NewSystemClipboard() Clipboard {
	return &textClipboard{read: clipboard.ReadAll, write: clipboard.WriteAll}
}

func (c *textClipboard) refreshLocked() error {
	text, err := c.read()
	if err != nil {
		return err
	}
	if !c.known || text != c.last {
		c.count++
		c.last = text
		c.known = true
	}
	return nil
}

func (c *textClipboard) ChangeCount() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return 0, err
	}
	return c.count, nil
}

func (c *textClipboard) Items() ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return nil, err
	}
	return []Item{{Formats: []FormatData{{Format: TextFormat, Data: []byte(c.last)}}}}, nil
}

func (c *textClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(text); err != nil {
		return err
	}
	// Unconditional: writing text identical to the current contents must
	// still advance the counter, or a later restore would misread its own
	// write as a foreign one.
	c.count++
	c.last = text
	c.known = true
	return nil
}

func (c *textClipboard) Write(items []Item) error {
	var text string
	for _, item := range items {
		for _, fd := range item.Formats {
			if fd.Format == TextFormat {
				text = string(fd.Data)
			}
		}
	}
	return c.WriteText(text)
}
