//go:build !darwin

package focus

import "errors"

// ErrUnavailable reports that the accessibility layer refused the query.
var ErrUnavailable = errors.New("focus: accessibility querying unavailable")

type stubInspector struct{}

// NewSystemInspector returns a stub inspector; focus inspection has no
// portable backend yet, so every query reports the layer unavailable and
// the coordinator falls through to its terminal handling.
func NewSystemInspector() Inspector {
	return &stubInspector{}
}

func (stubInspector) CurrentTarget() (*Target, error) {
	return nil, ErrUnavailable
}
