// Package capture produces still frames of the mirrored output. Targeted
// window capture is preferred because it works even when the window is
// occluded; full-display capture is the portable safety net.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
)

// FrameFileName is the fixed, always-overwritten artifact name.
const FrameFileName = "latest_frame.png"

var (
	// ErrNoSurface means no uxplay window could be located.
	ErrNoSurface = errors.New("uxplay window not found")
	// ErrUnavailable means no capture primitive works on this host.
	ErrUnavailable = errors.New("screen capture unavailable on this host")
)

// SurfaceLocator finds the bounding rectangle of the uxplay output window.
// Hosts without window enumeration have no locator at all.
type SurfaceLocator interface {
	Locate() (image.Rectangle, error)
}

// Artifact is one captured frame: the encoded image, its dimensions, and the
// published path.
type Artifact struct {
	Path   string
	Width  int
	Height int
	PNG    []byte
}

// Service captures frames and publishes them atomically to one fixed path.
// It holds no state across calls. The grab functions are variables so tests
// can substitute deterministic images.
type Service struct {
	frameDir string
	locator  SurfaceLocator
	grabRect func(image.Rectangle) (image.Image, error)
	grabAll  func() (image.Image, error)
}

// NewService probes capture capabilities once: the surface locator is
// platform-dependent and may be absent, in which case every capture takes
// the full-display path.
func NewService(frameDir string) *Service {
	loc := newSurfaceLocator()
	if loc == nil {
		slog.Info("targeted window capture unavailable, will capture full display")
	}
	return &Service{
		frameDir: frameDir,
		locator:  loc,
		grabRect: grabRect,
		grabAll:  grabPrimaryDisplay,
	}
}

// FramePath returns the fixed artifact location.
func (s *Service) FramePath() string { return filepath.Join(s.frameDir, FrameFileName) }

// CaptureFrame acquires one frame, first from the located uxplay window,
// falling back to the primary display when no surface can be found. The
// caller is responsible for checking that uxplay is running.
func (s *Service) CaptureFrame() (*Artifact, error) {
	img, err := s.acquire()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	path := s.FramePath()
	if err := s.publish(path, buf.Bytes()); err != nil {
		return nil, err
	}

	b := img.Bounds()
	slog.Info("captured frame", "path", path, "width", b.Dx(), "height", b.Dy())
	return &Artifact{Path: path, Width: b.Dx(), Height: b.Dy(), PNG: buf.Bytes()}, nil
}

func (s *Service) acquire() (image.Image, error) {
	if s.locator != nil {
		rect, err := s.locator.Locate()
		switch {
		case err == nil:
			img, err := s.grabRect(rect)
			if err != nil {
				return nil, fmt.Errorf("capture window rect %v: %w", rect, err)
			}
			return img, nil
		case errors.Is(err, ErrNoSurface):
			slog.Warn("uxplay window not found, capturing full display")
		default:
			slog.Warn("window lookup failed, capturing full display", "error", err)
		}
	}
	img, err := s.grabAll()
	if err != nil {
		return nil, fmt.Errorf("capture display: %w", err)
	}
	return img, nil
}

// publish writes the frame next to its final location and renames it into
// place, so a reader polling the fixed path never sees a partial file.
func (s *Service) publish(path string, data []byte) error {
	if err := os.MkdirAll(s.frameDir, 0o750); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.frameDir, "frame-*.png.tmp")
	if err != nil {
		return fmt.Errorf("stage frame: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage frame: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish frame: %w", err)
	}
	return nil
}
