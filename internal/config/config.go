// internal/config/config.go
//
// This package handles configuration and the .todoboard directory structure.
// Every project that runs todoboard gets a .todoboard/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// BoardDir is the name of the directory we create in each project
	BoardDir = ".todoboard"

	DefaultAgentURL   = "http://localhost:8000/"
	DefaultAgentName  = "my_agent"
	DefaultThemeColor = "#6366f1"
	DefaultStoreKeep  = 200
)

const defaultProjectConfigYAML = `# todoboard project configuration
version: 1

# The AG-UI agent the chat sidebar talks to.
agent:
  url: http://localhost:8000/
  name: my_agent

# Local state bridge. Other boards and out-of-band agents connect here.
bridge:
  enabled: true
  host: 127.0.0.1
  port: 8765
  # Set connect to a bridge's websocket URL to share its board instead of
  # hosting one, e.g. ws://127.0.0.1:8765/state/stream
  # connect: ""

theme:
  color: "#6366f1"

# Snapshot history kept in .todoboard/state/board.db
store:
  enabled: true
  keep: 200
`

// AgentConfig points at the AG-UI agent.
type AgentConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// BridgeConfig mirrors the state bridge settings. Enabled is a pointer so an
// omitted key keeps the default.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
	Connect string `yaml:"connect,omitempty"`
}

// ThemeConfig holds the board accent color.
type ThemeConfig struct {
	Color string `yaml:"color"`
}

// StoreConfig controls snapshot persistence.
type StoreConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	Keep    int   `yaml:"keep,omitempty"`
}

// ProjectConfig models .todoboard/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	Agent   AgentConfig  `yaml:"agent"`
	Bridge  BridgeConfig `yaml:"bridge"`
	Theme   ThemeConfig  `yaml:"theme"`
	Store   StoreConfig  `yaml:"store"`
}

// Config holds the runtime configuration for todoboard.
type Config struct {
	// ProjectDir is the directory where the user ran `todoboard` from
	ProjectDir string

	// BoardProjectDir is ProjectDir/.todoboard
	BoardProjectDir string

	Project ProjectConfig
}

// InitBoardDir creates the .todoboard directory structure in the given project directory.
//
// Structure created:
// .todoboard/
// ├── config.yaml
// ├── logs/    <- todoboard.log and activity.log
// └── state/   <- board.db snapshot history
func InitBoardDir(projectDir string) error {
	boardDir := filepath.Join(projectDir, BoardDir)
	dirs := []string{
		filepath.Join(boardDir, "logs"),
		filepath.Join(boardDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(boardDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings and
// TODOBOARD_* environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		BoardProjectDir: filepath.Join(projectDir, BoardDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.BoardProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.BoardProjectDir, "state")
}

// StorePath returns the SQLite snapshot database path.
func (c *Config) StorePath() string {
	return filepath.Join(c.StateDir(), "board.db")
}

// ActivityLogPath returns the logbook shown in the activity panel.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.BoardProjectDir, "config.yaml")
}

// AgentURL returns the AG-UI endpoint.
func (c *Config) AgentURL() string {
	return c.Project.Agent.URL
}

// StoreEnabled reports whether snapshots are persisted.
func (c *Config) StoreEnabled() bool {
	return c.Project.Store.Enabled == nil || *c.Project.Store.Enabled
}

// ThemeColor returns the configured accent color.
func (c *Config) ThemeColor() string {
	return c.Project.Theme.Color
}

// SetThemeColor updates the accent color and persists it back to
// .todoboard/config.yaml.
func (c *Config) SetThemeColor(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return fmt.Errorf("config: theme color is required")
	}
	c.Project.Theme.Color = color
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Agent.URL) == "" {
		pc.Agent.URL = DefaultAgentURL
	}
	if strings.TrimSpace(pc.Agent.Name) == "" {
		pc.Agent.Name = DefaultAgentName
	}
	if strings.TrimSpace(pc.Theme.Color) == "" {
		pc.Theme.Color = DefaultThemeColor
	}
	if pc.Store.Keep == 0 {
		pc.Store.Keep = DefaultStoreKeep
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Agent.URL = strings.TrimSpace(pc.Agent.URL)
	pc.Agent.Name = strings.TrimSpace(pc.Agent.Name)
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
	pc.Bridge.Connect = strings.TrimSpace(pc.Bridge.Connect)
	pc.Theme.Color = strings.TrimSpace(pc.Theme.Color)
}

// applyEnvOverrides lets TODOBOARD_AGENT_URL and TODOBOARD_CONNECT replace
// file values. Bridge host/port overrides are read by eventbridge.
func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("TODOBOARD_AGENT_URL")); value != "" {
		pc.Agent.URL = value
	}
	if value := strings.TrimSpace(os.Getenv("TODOBOARD_CONNECT")); value != "" {
		pc.Bridge.Connect = value
	}
	if value := strings.TrimSpace(os.Getenv("TODOBOARD_STORE_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			pc.Store.Enabled = &enabled
		}
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateURL(pc.Agent.URL, "http", "https"); err != nil {
		return fmt.Errorf("agent.url: %w", err)
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 1 and 65535")
	}
	if pc.Bridge.Connect != "" {
		if err := validateURL(pc.Bridge.Connect, "ws", "wss"); err != nil {
			return fmt.Errorf("bridge.connect: %w", err)
		}
	}
	if pc.Store.Keep < 0 {
		return fmt.Errorf("store.keep must be >= 0")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			if parsed.Host == "" {
				return fmt.Errorf("host is required")
			}
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s", strings.Join(schemes, ", "))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.BoardProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure board dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
