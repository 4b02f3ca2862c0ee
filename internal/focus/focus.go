// Package focus locates the UI element that currently owns keyboard focus
// and decides whether it accepts text.
//
// Element handles stay on the platform side of the cgo boundary: a Target
// is a plain value snapshot, valid only for the request that obtained it.
// Focus changes are asynchronous and outside our control, so nothing here
// is cached across requests.
package focus

// Role tags the accessibility role of the focused element.
type Role string

const (
	RoleTextField   Role = "text-field"
	RoleTextArea    Role = "text-area"
	RoleSearchField Role = "search-field"
	RoleComboBox    Role = "combo-box"
	RoleWebArea     Role = "web-area"
	RoleCell        Role = "cell"
	RoleGroup       Role = "group"
	RoleUnknown     Role = "unknown"
)

// Target is a snapshot of the focused element, recomputed fresh on every
// injection request.
type Target struct {
	AppID   string // owning application identifier (bundle ID or binary name)
	AppName string
	Role    Role

	Editable bool
	Value    string
	HasValue bool

	SelStart     int
	SelLength    int
	HasSelection bool

	// Deep-check results for conditional roles, filled by the platform
	// inspector at query time.
	NestedTextFocus bool // web area reports a focused descendant text field
	EditMode        bool // cell is currently being edited
}

// Inspector queries the OS accessibility layer for the current focus
// target. Returns (nil, nil) when no application is frontmost or no element
// has focus; an error when accessibility querying is unavailable.
type Inspector interface {
	CurrentTarget() (*Target, error)
}

// Accepts reports whether the target is recognized as text-accepting.
// Plain text roles are accepted outright. Conditional roles need their
// deeper role-specific check to pass: a web content container must report a
// nested focused text field, a spreadsheet cell must be in edit mode. A
// generic group is accepted if it exposes a current value at all; that
// over-approximates injectability, and the recovery chain picks up the
// false positives.
func Accepts(t *Target) bool {
	if t == nil {
		return false
	}
	switch t.Role {
	case RoleTextField, RoleTextArea, RoleSearchField, RoleComboBox:
		return true
	case RoleWebArea:
		return t.NestedTextFocus
	case RoleCell:
		return t.EditMode
	case RoleGroup:
		return t.HasValue
	default:
		return false
	}
}
