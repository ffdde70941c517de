package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "uxplay-windows"

// Paths locates the bundled uxplay executable and the per-user data files.
// The executable is searched next to our own binary, first under bin/, then
// at the top level, mirroring how the packaged distribution lays files out.
type Paths struct {
	ResourceDir string // directory our binary runs from
	Executable  string // uxplay executable path (may not exist)
	DataDir     string // per-user data dir (config, arguments, logs)
	FrameDir    string // temp dir for captured frames
}

// DiscoverPaths resolves all well-known locations. It creates nothing;
// callers create what they need.
func DiscoverPaths() (Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return Paths{}, err
	}
	resourceDir := filepath.Dir(exe)

	name := "uxplay"
	if runtime.GOOS == "windows" {
		name = "uxplay.exe"
	}
	candidate := filepath.Join(resourceDir, "bin", name)
	if _, err := os.Stat(candidate); err != nil {
		candidate = filepath.Join(resourceDir, name)
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, err
	}

	return Paths{
		ResourceDir: resourceDir,
		Executable:  candidate,
		DataDir:     filepath.Join(cfgDir, appName),
		FrameDir:    filepath.Join(os.TempDir(), "uxplay_frames"),
	}, nil
}

// LogFile returns the application log path under the data dir.
func (p Paths) LogFile() string { return filepath.Join(p.DataDir, appName+".log") }

// ArgumentsFile returns the uxplay arguments file path.
func (p Paths) ArgumentsFile() string { return filepath.Join(p.DataDir, "arguments.txt") }

// TransportConfigFile returns the persisted MCP transport config path.
func (p Paths) TransportConfigFile() string { return filepath.Join(p.DataDir, "mcp_config.json") }

// AuditFile returns the tool-call audit database path.
func (p Paths) AuditFile() string { return filepath.Join(p.DataDir, "audit.db") }
