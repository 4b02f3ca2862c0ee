//go:build darwin

// Package permissions exposes the input-synthesis capability gate.
// Acquisition and its UI belong to the host application's permissions
// subsystem; this package only answers whether low-level input synthesis is
// currently authorized.
package permissions

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
*/
import "C"

// InputSynthesisAuthorized reports whether the process is trusted for
// accessibility, which gates both event posting and focus queries.
// Queried fresh every time: the user can revoke the grant at any moment.
func InputSynthesisAuthorized() bool {
	return bool(C.AXIsProcessTrusted())
}
