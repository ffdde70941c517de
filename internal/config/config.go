package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Defaults for the MCP transport binding.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
)

// TransportConfig is the persisted {host, port} pair for the SSE transport.
type TransportConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// Addr returns the host:port bind address.
func (c TransportConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// URL returns the SSE endpoint URL clients connect to.
func (c TransportConfig) URL() string { return fmt.Sprintf("http://%s:%d/sse", c.Host, c.Port) }

// ClientConfigJSON renders the snippet users paste into their MCP client.
func (c TransportConfig) ClientConfigJSON() string {
	b, _ := json.MarshalIndent(map[string]any{
		"mcpServers": map[string]any{
			"uxplay": map[string]any{"url": c.URL()},
		},
	}, "", "  ")
	return string(b)
}

// LoadTransportConfig reads the config file at path, overlaying defaults and
// UXPLAY_MCP_* environment variables. The store is self-healing: a missing or
// corrupt file, or an out-of-range port, falls back to defaults and the
// healed config is persisted back so the next load succeeds cleanly.
func LoadTransportConfig(path string) TransportConfig {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetEnvPrefix("UXPLAY_MCP")
	_ = v.BindEnv("host")
	_ = v.BindEnv("port")

	heal := false
	if err := v.ReadInConfig(); err != nil {
		slog.Warn("transport config unreadable, using defaults", "path", path, "error", err)
		heal = true
	}

	var cfg TransportConfig
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Warn("transport config malformed, using defaults", "path", path, "error", err)
		cfg = TransportConfig{}
		heal = true
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
		heal = true
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		if cfg.Port != 0 {
			slog.Warn("transport config port out of range, using default", "port", cfg.Port)
		}
		cfg.Port = DefaultPort
		heal = true
	}

	if heal {
		if err := SaveTransportConfig(path, cfg); err != nil {
			slog.Error("failed to persist healed transport config", "path", path, "error", err)
		}
	}
	return cfg
}

// SaveTransportConfig writes cfg to path as pretty-printed JSON.
func SaveTransportConfig(path string, cfg TransportConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return err
	}
	slog.Info("saved transport config", "host", cfg.Host, "port", cfg.Port)
	return nil
}
