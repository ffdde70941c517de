//go:build windows

package capture

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"
)

// Window titles uxplay is known to use, probed in order.
var surfaceTitles = []string{"UxPlay", "uxplay"}

var (
	user32        = syscall.NewLazyDLL("user32.dll")
	findWindowW   = user32.NewProc("FindWindowW")
	isWindow      = user32.NewProc("IsWindow")
	getWindowRect = user32.NewProc("GetWindowRect")
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

// windowLocator finds the uxplay window via user32 and reports its bounding
// rectangle in screen coordinates.
type windowLocator struct{}

func newSurfaceLocator() SurfaceLocator { return windowLocator{} }

func (windowLocator) Locate() (image.Rectangle, error) {
	for _, title := range surfaceTitles {
		ptr, err := syscall.UTF16PtrFromString(title)
		if err != nil {
			continue
		}
		hwnd, _, _ := findWindowW.Call(0, uintptr(unsafe.Pointer(ptr)))
		if hwnd == 0 {
			continue
		}
		if ok, _, _ := isWindow.Call(hwnd); ok == 0 {
			continue
		}
		var r winRect
		if ok, _, callErr := getWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
			return image.Rectangle{}, fmt.Errorf("GetWindowRect: %v", callErr)
		}
		return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)), nil
	}
	return image.Rectangle{}, ErrNoSurface
}
