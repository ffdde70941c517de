// Package uxplaymcp supervises a uxplay screen-mirroring receiver and
// exposes its lifecycle and frame capture as MCP tools over stdio and SSE
// transports. This file is the embeddable facade; the packages under
// internal/ carry the implementation.
package uxplaymcp

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/pksorensen/uxplay-windows-mcp/internal/audit"
	"github.com/pksorensen/uxplay-windows-mcp/internal/capture"
	"github.com/pksorensen/uxplay-windows-mcp/internal/config"
	"github.com/pksorensen/uxplay-windows-mcp/internal/metrics"
	"github.com/pksorensen/uxplay-windows-mcp/internal/supervisor"
	"github.com/pksorensen/uxplay-windows-mcp/internal/tool"
	"github.com/pksorensen/uxplay-windows-mcp/internal/transport"
)

// Server identity advertised to MCP clients.
const (
	ServerName    = "uxplay-mcp-server"
	ServerVersion = "1.0.0"
)

// Re-export core types for external consumers.
type (
	Status          = supervisor.Status
	TransportConfig = config.TransportConfig
)

// App wires the supervisor, capture service, dispatcher, and transports
// over one set of discovered paths.
type App struct {
	Paths      config.Paths
	Supervisor *supervisor.Supervisor
	Capture    *capture.Service
	Dispatcher *tool.Dispatcher
	Router     *transport.Router

	auditStore *audit.Store
}

// New discovers paths, prepares the per-user data directory, and assembles
// the application. The audit store is best-effort: if it cannot be opened
// the app runs without it.
func New() (*App, error) {
	paths, err := config.DiscoverPaths()
	if err != nil {
		return nil, err
	}
	return NewWithPaths(paths)
}

// NewWithPaths assembles the application over explicit paths (tests use a
// temp layout).
func NewWithPaths(paths config.Paths) (*App, error) {
	if err := os.MkdirAll(paths.DataDir, 0o750); err != nil {
		return nil, err
	}
	args := config.Arguments{Path: paths.ArgumentsFile()}
	if err := args.EnsureExists(); err != nil {
		return nil, err
	}

	sup := supervisor.New(paths.Executable, args)
	capSvc := capture.NewService(paths.FrameDir)

	opts := []tool.Option{}
	auditStore, err := audit.Open(paths.AuditFile())
	if err != nil {
		slog.Warn("audit store unavailable, continuing without it", "error", err)
	} else {
		opts = append(opts, tool.WithAudit(auditStore))
	}

	if err := metrics.RegisterDefault(); err != nil {
		slog.Warn("metrics registration failed", "error", err)
	}

	disp := tool.NewDispatcher(sup, capSvc, opts...)
	return &App{
		Paths:      paths,
		Supervisor: sup,
		Capture:    capSvc,
		Dispatcher: disp,
		Router:     transport.NewRouter(disp, ServerName, ServerVersion),
		auditStore: auditStore,
	}, nil
}

// ServeStdio runs the local transport over this process's stdin/stdout
// until the client disconnects.
func (a *App) ServeStdio(ctx context.Context) error {
	return transport.ServeStdio(ctx, a.Router, transport.Stdio())
}

// NewSSEServer builds the network transport bound per cfg. The caller owns
// Start/Stop.
func (a *App) NewSSEServer(cfg config.TransportConfig) *transport.SSEServer {
	return transport.NewSSEServer(cfg.Addr(), a.Router)
}

// DelayedStart starts the receiver after the given delay on a background
// goroutine, so a hosting UI can come up first.
func (a *App) DelayedStart(delay time.Duration) {
	go func() {
		time.Sleep(delay)
		if err := a.Supervisor.Start(); err != nil {
			slog.Error("delayed uxplay start failed", "error", err)
		}
	}()
}

// Close releases resources. It leaves a running uxplay process alone; use
// Shutdown to also stop it.
func (a *App) Close() {
	if a.auditStore != nil {
		_ = a.auditStore.Close()
	}
}

// Shutdown stops the supervised process, then releases resources.
func (a *App) Shutdown() {
	if err := a.Supervisor.Stop(); err != nil {
		slog.Error("failed to stop uxplay on shutdown", "error", err)
	}
	a.Close()
}
