//go:build !windows

package capture

// Window enumeration is only implemented on Windows; other hosts fall back
// to full-display capture.
func newSurfaceLocator() SurfaceLocator { return nil }
