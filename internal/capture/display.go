package capture

import (
	"image"

	"github.com/kbinani/screenshot"
)

// grabRect captures an arbitrary screen rectangle.
func grabRect(rect image.Rectangle) (image.Image, error) {
	return screenshot.CaptureRect(rect)
}

// grabPrimaryDisplay captures all of display 0.
func grabPrimaryDisplay() (image.Image, error) {
	if screenshot.NumActiveDisplays() < 1 {
		return nil, ErrUnavailable
	}
	return screenshot.CaptureRect(screenshot.GetDisplayBounds(0))
}
