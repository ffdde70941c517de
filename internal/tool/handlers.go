package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pksorensen/uxplay-windows-mcp/internal/metrics"
)

func (d *Dispatcher) handleStart(ctx context.Context, _ map[string]any) *Result {
	if err := d.sup.Start(); err != nil {
		slog.Error("start_uxplay failed", "error", err)
		return ErrorResult(fmt.Sprintf("Error starting UxPlay: %v", err))
	}
	metrics.IncProcessStart()

	// Best-effort confirmation: give the process a moment, then re-check.
	// This is a heuristic; it cannot prove the process will stay up.
	select {
	case <-time.After(d.confirmDelay):
	case <-ctx.Done():
	}

	if st := d.sup.Status(); st.Running {
		return TextResult(fmt.Sprintf("UxPlay server started successfully (PID: %d)", st.PID))
	}
	return TextResult("UxPlay server start command was sent, but status could not be confirmed")
}

func (d *Dispatcher) handleStop(_ context.Context, _ map[string]any) *Result {
	if err := d.sup.Stop(); err != nil {
		slog.Error("stop_uxplay failed", "error", err)
		return ErrorResult(fmt.Sprintf("Error stopping UxPlay: %v", err))
	}
	metrics.IncProcessStop()
	return TextResult("UxPlay server stopped successfully")
}

func (d *Dispatcher) handleStatus(_ context.Context, _ map[string]any) *Result {
	st := d.sup.Status()
	if st.Running {
		return TextResult(fmt.Sprintf("UxPlay server status: Running (PID: %d)", st.PID))
	}
	return TextResult("UxPlay server status: Stopped")
}

func (d *Dispatcher) handleScreenshot(_ context.Context, _ map[string]any) *Result {
	// Capture only makes sense while the receiver is up; short-circuit
	// without touching the capture service.
	if st := d.sup.Status(); !st.Running {
		return ErrorResult("Error: UxPlay is not running.")
	}

	art, err := d.capt.CaptureFrame()
	if err != nil {
		slog.Error("get_screenshot failed", "error", err)
		return ErrorResult(fmt.Sprintf("Error capturing screenshot: %v", err))
	}
	return &Result{Content: []Content{
		ImageContent(art.PNG, "image/png"),
		TextContent(fmt.Sprintf("Screenshot captured successfully. Size: %dx%d pixels", art.Width, art.Height)),
	}}
}
