//go:build darwin

package synth

/*
#cgo LDFLAGS: -framework ApplicationServices -framework Carbon
#include <ApplicationServices/ApplicationServices.h>
#include <Carbon/Carbon.h>

// Returns 0 on success, 1 if event construction failed.
int postKeyEvent(CGKeyCode code, uint64_t flags, bool pressed,
                 const UniChar *literal, long literalLen) {
    CGEventSourceRef source = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
    if (source == NULL) {
        return 1;
    }

    CGEventRef event = CGEventCreateKeyboardEvent(source, code, pressed);
    if (event == NULL) {
        CFRelease(source);
        return 1;
    }

    if (flags != 0) {
        CGEventSetFlags(event, (CGEventFlags)flags);
    }
    if (literal != NULL && literalLen > 0) {
        CGEventKeyboardSetUnicodeString(event, (UniCharCount)literalLen, literal);
    }

    CGEventPost(kCGHIDEventTap, event);

    CFRelease(event);
    CFRelease(source);
    return 0;
}

// Seconds since the last keyboard event was consumed from the HID queue.
double secondsSinceLastKeyEvent(void) {
    return CGEventSourceSecondsSinceLastEventType(
        kCGEventSourceStateHIDSystemState, kCGEventKeyDown);
}
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/dictaflow/textinject/internal/keymap"
)

// cgPoster posts CGEvents into the HID event tap.
type cgPoster struct {
	lastPost time.Time
}

// NewPlatformPoster returns the CGEvent-backed poster.
func NewPlatformPoster() Poster {
	return &cgPoster{}
}

func (p *cgPoster) Post(ks keymap.Keystroke, pressed bool) error {
	var lit *C.UniChar
	if len(ks.Literal) > 0 {
		lit = (*C.UniChar)(unsafe.Pointer(&ks.Literal[0]))
	}

	rc := C.postKeyEvent(
		C.CGKeyCode(ks.Code),
		C.uint64_t(cgFlags(ks.Mods)),
		C.bool(pressed),
		lit,
		C.long(len(ks.Literal)),
	)
	if rc != 0 {
		return ErrEventConstruction
	}
	p.lastPost = time.Now()
	return nil
}

// Drained reports whether the HID queue has consumed a key event since our
// last post. A stale last-event age while we have been posting means the
// queue is backed up.
func (p *cgPoster) Drained() bool {
	if p.lastPost.IsZero() {
		return true
	}
	sincePost := time.Since(p.lastPost)
	sinceConsumed := time.Duration(float64(C.secondsSinceLastKeyEvent()) * float64(time.Second))
	return sinceConsumed <= sincePost
}

func cgFlags(m keymap.Modifiers) uint64 {
	var f uint64
	if m&keymap.ModShift != 0 {
		f |= uint64(C.kCGEventFlagMaskShift)
	}
	if m&keymap.ModControl != 0 {
		f |= uint64(C.kCGEventFlagMaskControl)
	}
	if m&keymap.ModOption != 0 {
		f |= uint64(C.kCGEventFlagMaskAlternate)
	}
	if m&keymap.ModCommand != 0 {
		f |= uint64(C.kCGEventFlagMaskCommand)
	}
	return f
}
