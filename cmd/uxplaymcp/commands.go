package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	uxplaymcp "github.com/pksorensen/uxplay-windows-mcp"
	"github.com/pksorensen/uxplay-windows-mcp/internal/config"
	"github.com/pksorensen/uxplay-windows-mcp/internal/logger"
	"github.com/pksorensen/uxplay-windows-mcp/internal/transport"
)

// autoStartDelay defers the receiver launch so the transport is reachable
// immediately.
const autoStartDelay = 3 * time.Second

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newApp sets up logging and assembles the application. Color is disabled
// for the stdio transport, whose stderr often lands in a client log file.
func newApp(flags *GlobalFlags, color bool) (*uxplaymcp.App, func(), error) {
	paths, err := config.DiscoverPaths()
	if err != nil {
		return nil, nil, err
	}
	closer, err := logger.Setup(logger.Config{
		File:  paths.LogFile(),
		Level: parseLevel(flags.LogLevel),
		Color: color,
	})
	if err != nil {
		return nil, nil, err
	}
	app, err := uxplaymcp.NewWithPaths(paths)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	cleanup := func() {
		app.Close()
		_ = closer.Close()
	}
	return app, cleanup, nil
}

func createStdioCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer cleanup()
			slog.Info("starting MCP stdio session")
			return app.ServeStdio(cmd.Context())
		},
	}
}

func createServeCommand(flags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over an HTTP SSE endpoint",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(flags, true)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := config.LoadTransportConfig(app.Paths.TransportConfigFile())
			if serveFlags.Host != "" {
				cfg.Host = serveFlags.Host
			}
			if serveFlags.Port != 0 {
				cfg.Port = serveFlags.Port
			}

			srv := app.NewSSEServer(cfg)
			srv.Start()
			fmt.Printf("MCP server listening on %s\n", cfg.URL())
			fmt.Println(cfg.ClientConfigJSON())

			if serveFlags.AutoStart {
				app.DelayedStart(autoStartDelay)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			slog.Info("shutting down")
			srv.Stop(transport.DefaultShutdownWait)
			app.Shutdown()
			return nil
		},
	}
	cmd.Flags().StringVar(&serveFlags.Host, "host", "", "bind host (overrides persisted config)")
	cmd.Flags().IntVar(&serveFlags.Port, "port", 0, "bind port (overrides persisted config)")
	cmd.Flags().BoolVar(&serveFlags.AutoStart, "autostart", false, "start uxplay a few seconds after the server comes up")
	return cmd
}

func createConfigCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the transport config and MCP client snippet",
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := config.DiscoverPaths()
			if err != nil {
				return err
			}
			if _, err := logger.Setup(logger.Config{Level: parseLevel(flags.LogLevel), Color: true}); err != nil {
				return err
			}
			cfg := config.LoadTransportConfig(paths.TransportConfigFile())
			fmt.Printf("config file: %s\n", paths.TransportConfigFile())
			fmt.Printf("endpoint:    %s\n", cfg.URL())
			fmt.Println(cfg.ClientConfigJSON())
			return nil
		},
	}
}

// createToolCommand makes a one-shot local invocation of a single MCP tool,
// printing the text parts of its envelope.
func createToolCommand(flags *GlobalFlags, use, short, toolName string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(flags, true)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := app.Dispatcher.Call(cmd.Context(), toolName, nil)
			if err != nil {
				return err
			}
			for _, part := range res.Content {
				switch part.Type {
				case "text":
					fmt.Println(part.Text)
				case "image":
					fmt.Printf("[image %s, %d bytes base64, saved to %s]\n",
						part.MimeType, len(part.Data), app.Capture.FramePath())
				}
			}
			if res.IsError {
				os.Exit(1)
			}
			return nil
		},
	}
}
