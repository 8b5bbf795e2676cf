package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"markestedt/textrewriter/completion"
	"markestedt/textrewriter/shortcut"
)

const appName = "textrewriter"

type Config struct {
	Rewrite   RewriteConfig   `toml:"rewrite"`
	Shortcuts ShortcutsConfig `toml:"shortcuts"`
	Workflow  WorkflowConfig  `toml:"workflow"`
	Web       WebConfig       `toml:"web"`
	History   HistoryConfig   `toml:"history"`

	path string
}

type RewriteConfig struct {
	SystemPrompt   string `toml:"system_prompt"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ShortcutsConfig holds the serialized shortcuts. Use Config.ShortcutAll and
// Config.ShortcutHighlighted to read them.
type ShortcutsConfig struct {
	All         string `toml:"all"`
	Highlighted string `toml:"highlighted"`
}

type WorkflowConfig struct {
	StepDelayMs int `toml:"step_delay_ms"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default configuration
func defaultConfig() *Config {
	cfg := &Config{
		Rewrite: RewriteConfig{
			SystemPrompt:   "",
			Model:          completion.DefaultModel,
			BaseURL:        completion.DefaultBaseURL,
			TimeoutSeconds: 60,
		},
		Workflow: WorkflowConfig{
			StepDelayMs: 100,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    7867,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
	cfg.SetShortcutAll(shortcut.DefaultAll())
	cfg.SetShortcutHighlighted(shortcut.DefaultHighlighted())
	return cfg
}

// Dir returns the application configuration directory, creating it if needed
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}

	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from path.
// If the file doesn't exist, it creates it with default values
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := defaultConfig()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = path

	if cfg.Workflow.StepDelayMs < 0 {
		cfg.Workflow.StepDelayMs = 0
	}

	return cfg, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to its file
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}

	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, c.path)
}

// ShortcutAll returns the "rewrite all" shortcut, falling back to the default
func (c *Config) ShortcutAll() shortcut.Shortcut {
	return shortcut.Unmarshal([]byte(c.Shortcuts.All), shortcut.DefaultAll())
}

// ShortcutHighlighted returns the "rewrite selection" shortcut, falling back to the default
func (c *Config) ShortcutHighlighted() shortcut.Shortcut {
	return shortcut.Unmarshal([]byte(c.Shortcuts.Highlighted), shortcut.DefaultHighlighted())
}

// SetShortcutAll replaces the "rewrite all" shortcut
func (c *Config) SetShortcutAll(s shortcut.Shortcut) {
	c.Shortcuts.All = encodeShortcut(s)
}

// SetShortcutHighlighted replaces the "rewrite selection" shortcut
func (c *Config) SetShortcutHighlighted(s shortcut.Shortcut) {
	c.Shortcuts.Highlighted = encodeShortcut(s)
}

func encodeShortcut(s shortcut.Shortcut) string {
	data, err := shortcut.Marshal(s)
	if err != nil {
		// a Shortcut always encodes
		panic(err)
	}
	return string(data)
}

// StepDelay returns the pause between synthetic keystroke steps
func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.Workflow.StepDelayMs) * time.Millisecond
}

// Timeout returns the completion request timeout
func (c *Config) Timeout() time.Duration {
	if c.Rewrite.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Rewrite.TimeoutSeconds) * time.Second
}
