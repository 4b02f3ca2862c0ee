package textinject

import "github.com/dictaflow/textinject/internal/plan"

// Method identifies an injection mechanism.
type Method int

const (
	// MethodAuto lets the selector decide; it is the zero value for
	// requests without a user override.
	MethodAuto Method = iota
	// MethodKeystroke types the text as synthetic key events.
	MethodKeystroke
	// MethodPaste delivers the text through a clipboard write and a paste
	// key-combo.
	MethodPaste
	// MethodPasteExplicit is MethodPaste with discrete modifier
	// press/release events around the paste key, for applications that
	// ignore the flag-carrying combo.
	MethodPasteExplicit
)

func (m Method) String() string {
	switch m {
	case MethodKeystroke:
		return "keystroke"
	case MethodPaste:
		return "paste"
	case MethodPasteExplicit:
		return "paste-explicit"
	default:
		return "auto"
	}
}

// Status is the terminal state of an injection request.
type Status int

const (
	// StatusRejected means nothing was injected; Outcome.Reason says why.
	StatusRejected Status = iota
	// StatusDelivered means the text reached the target via the selected
	// method.
	StatusDelivered
	// StatusDeliveredViaClipboardFallback means keystroke injection failed
	// and the clipboard path delivered the text instead.
	StatusDeliveredViaClipboardFallback
	// StatusCopiedToClipboardOnly means the text sits on the clipboard but
	// was not pasted; the user should be told to paste manually.
	StatusCopiedToClipboardOnly
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusDeliveredViaClipboardFallback:
		return "delivered-via-clipboard-fallback"
	case StatusCopiedToClipboardOnly:
		return "copied-to-clipboard-only"
	default:
		return "rejected"
	}
}

// Outcome is the result of one injection request. Text is never silently
// dropped: every non-rejected outcome has placed the text in the target or
// on the clipboard.
type Outcome struct {
	Status Status
	Method Method // method that delivered, when Status is a delivery
	Reason error  // set when Status is StatusRejected
}

// Request is one injection request. Immutable once handed to Do.
type Request struct {
	// Text is the ready-to-inject string.
	Text string
	// Method optionally forces the injection method, winning over both the
	// compatibility table and the heuristic.
	Method Method
	// AppHint optionally names the target application identifier when the
	// caller already knows it, saving the override lookup a query. Focus
	// inspection still runs.
	AppHint string
}

func toPlanMethod(m Method) plan.Method {
	switch m {
	case MethodKeystroke:
		return plan.MethodKeystroke
	case MethodPaste:
		return plan.MethodPaste
	case MethodPasteExplicit:
		return plan.MethodPasteExplicit
	default:
		return plan.MethodAuto
	}
}

func fromPlanMethod(m plan.Method) Method {
	switch m {
	case plan.MethodKeystroke:
		return MethodKeystroke
	case plan.MethodPaste:
		return MethodPaste
	case plan.MethodPasteExplicit:
		return MethodPasteExplicit
	default:
		return MethodAuto
	}
}
