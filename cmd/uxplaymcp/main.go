package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	LogLevel string
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Host      string
	Port      int
	AutoStart bool
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	serveFlags := &ServeFlags{}

	root := &cobra.Command{
		Use:   "uxplaymcp",
		Short: "UxPlay supervisor and MCP server",
		Long: `uxplaymcp supervises the uxplay AirPlay receiver and exposes start, stop,
status, and screenshot capture as MCP tools over a stdio session or an
HTTP SSE endpoint.

Examples:
  uxplaymcp stdio              # serve MCP over stdin/stdout
  uxplaymcp serve --autostart  # serve MCP over HTTP SSE, start uxplay after 3s
  uxplaymcp status             # one-shot local status check`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		createStdioCommand(globalFlags),
		createServeCommand(globalFlags, serveFlags),
		createConfigCommand(globalFlags),
		createToolCommand(globalFlags, "start", "Start the uxplay receiver", "start_uxplay"),
		createToolCommand(globalFlags, "stop", "Stop the uxplay receiver", "stop_uxplay"),
		createToolCommand(globalFlags, "status", "Show uxplay receiver status", "get_uxplay_status"),
		createToolCommand(globalFlags, "screenshot", "Capture a frame of the mirrored screen", "get_screenshot"),
	)
	return root
}
