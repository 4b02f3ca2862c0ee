package textinject

import "errors"

var (
	// ErrUnauthorized means the input-synthesis capability gate is closed.
	// Not recoverable here; the user must re-grant permission.
	ErrUnauthorized = errors.New("textinject: input synthesis not authorized")

	// ErrNoEditableTarget means no focused, text-accepting element exists.
	// Nothing to inject into.
	ErrNoEditableTarget = errors.New("textinject: no editable target focused")

	// ErrEmptyText rejects requests with nothing to inject.
	ErrEmptyText = errors.New("textinject: empty text")

	// ErrClosed reports a request against a closed Injector.
	ErrClosed = errors.New("textinject: injector closed")
)
