//go:build !darwin

// Package permissions checks the OS-level capture permissions the process
// needs before it can read the screen.
package permissions

// HasScreenRecording reports whether screen capture is permitted. Outside
// macOS there is no preflight to ask, so it always reports true.
func HasScreenRecording() bool {
	return true
}

// RequestScreenRecording is a no-op outside macOS.
func RequestScreenRecording() bool {
	return true
}
