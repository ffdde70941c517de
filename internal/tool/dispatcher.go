// Package tool validates and routes capability invocations. The dispatcher
// holds a fixed table of four tools and guarantees that Call never fails for
// a recognized name: every handler outcome, success or failure, becomes a
// response envelope.
package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/pksorensen/uxplay-windows-mcp/internal/audit"
	"github.com/pksorensen/uxplay-windows-mcp/internal/capture"
	"github.com/pksorensen/uxplay-windows-mcp/internal/metrics"
	"github.com/pksorensen/uxplay-windows-mcp/internal/supervisor"
)

// ErrUnknownTool is the sole protocol-level error: it indicates the caller is
// not using the declared capability table.
var ErrUnknownTool = errors.New("unknown tool")

// The four fixed tool names.
const (
	NameScreenshot = "get_screenshot"
	NameStart      = "start_uxplay"
	NameStop       = "stop_uxplay"
	NameStatus     = "get_uxplay_status"
)

// DefaultConfirmDelay is the best-effort window between issuing a start and
// re-checking status for the response text. It is a heuristic, not a
// readiness signal.
const DefaultConfirmDelay = time.Second

// Supervisor is the process-lifecycle surface the handlers need.
type Supervisor interface {
	Start() error
	Stop() error
	Status() supervisor.Status
}

// Capturer acquires one frame of the mirrored output.
type Capturer interface {
	CaptureFrame() (*capture.Artifact, error)
}

type handlerFunc func(ctx context.Context, args map[string]any) *Result

type entry struct {
	desc    Descriptor
	handler handlerFunc
}

// Dispatcher routes tool calls to handlers. The table is immutable after
// construction and shared by all transports.
type Dispatcher struct {
	sup          Supervisor
	capt         Capturer
	auditStore   *audit.Store // nil disables auditing
	confirmDelay time.Duration
	order        []string
	tools        map[string]entry
}

// Option tweaks dispatcher construction.
type Option func(*Dispatcher)

// WithAudit records every invocation to the given store.
func WithAudit(s *audit.Store) Option {
	return func(d *Dispatcher) { d.auditStore = s }
}

// WithConfirmDelay overrides the post-start confirmation delay (tests use a
// short one).
func WithConfirmDelay(delay time.Duration) Option {
	return func(d *Dispatcher) { d.confirmDelay = delay }
}

// NewDispatcher builds the fixed tool table over the given supervisor and
// capture service.
func NewDispatcher(sup Supervisor, capt Capturer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sup:          sup,
		capt:         capt,
		confirmDelay: DefaultConfirmDelay,
		tools:        make(map[string]entry),
	}
	for _, o := range opts {
		o(d)
	}
	d.register(Descriptor{
		Name:        NameScreenshot,
		Description: "Capture a screenshot of the current mirrored screen from the iOS/macOS device",
		InputSchema: emptyObjectSchema(),
	}, d.handleScreenshot)
	d.register(Descriptor{
		Name:        NameStart,
		Description: "Start the UxPlay AirPlay server to begin receiving screen mirroring",
		InputSchema: emptyObjectSchema(),
	}, d.handleStart)
	d.register(Descriptor{
		Name:        NameStop,
		Description: "Stop the UxPlay AirPlay server",
		InputSchema: emptyObjectSchema(),
	}, d.handleStop)
	d.register(Descriptor{
		Name:        NameStatus,
		Description: "Get the current status of the UxPlay server (running or stopped)",
		InputSchema: emptyObjectSchema(),
	}, d.handleStatus)
	return d
}

func (d *Dispatcher) register(desc Descriptor, h handlerFunc) {
	d.order = append(d.order, desc.Name)
	d.tools[desc.Name] = entry{desc: desc, handler: h}
}

// List returns the static descriptor table in registration order. It has no
// side effects.
func (d *Dispatcher) List() []Descriptor {
	out := make([]Descriptor, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name].desc)
	}
	return out
}

// Call invokes the named tool. The only error ever returned is
// ErrUnknownTool; every other failure is absorbed into the envelope. The
// args map is accepted for forward compatibility; all current tools take no
// parameters.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*Result, error) {
	e, ok := d.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	res := d.invoke(ctx, e, args)
	elapsed := time.Since(start)

	status := "ok"
	if res.IsError {
		status = "error"
	}
	metrics.ObserveToolCall(name, status, elapsed.Seconds())
	if d.auditStore != nil {
		detail := ""
		if res.IsError && len(res.Content) > 0 {
			detail = res.Content[0].Text
		}
		if err := d.auditStore.Record(ctx, name, status, detail, elapsed); err != nil {
			slog.Warn("failed to record audit entry", "tool", name, "error", err)
		}
	}
	return res, nil
}

// invoke runs the handler with a panic barrier so no failure can escape the
// dispatcher for a recognized tool.
func (d *Dispatcher) invoke(ctx context.Context, e entry, args map[string]any) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool handler panicked", "tool", e.desc.Name, "panic", r, "stack", string(debug.Stack()))
			res = ErrorResult(fmt.Sprintf("Error: internal failure in %s: %v", e.desc.Name, r))
		}
	}()
	res = e.handler(ctx, args)
	if res == nil || len(res.Content) == 0 {
		res = ErrorResult(fmt.Sprintf("Error: %s produced no response", e.desc.Name))
	}
	return res
}
