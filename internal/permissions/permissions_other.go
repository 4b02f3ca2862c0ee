//go:build !darwin

package permissions

// InputSynthesisAuthorized reports whether low-level input synthesis is
// authorized. No gate exists on this platform.
func InputSynthesisAuthorized() bool {
	return true
}
