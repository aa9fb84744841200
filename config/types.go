package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ServerConfig holds configuration for the scribe daemon.
type ServerConfig struct {
	Socket          string   `yaml:"socket,omitempty" toml:"socket,omitempty" json:"socket,omitempty" jsonschema:"description=Unix socket path (default: <runtime dir>/scribed.sock)"`
	Listen          string   `yaml:"listen,omitempty" toml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=Optional loopback TCP address for web views that cannot reach a unix socket (e.g. 127.0.0.1:7420)"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty" toml:"allowed_origins,omitempty" json:"allowed_origins,omitempty" jsonschema:"description=Origins allowed to open the websocket bridge"`
	Websocket       *bool    `yaml:"websocket,omitempty" toml:"websocket,omitempty" json:"websocket,omitempty" jsonschema:"description=Enable the websocket command bridge (default: true)"`
	WatchStores     *bool    `yaml:"watch_stores,omitempty" toml:"watch_stores,omitempty" json:"watch_stores,omitempty" jsonschema:"description=Broadcast external edits to store files (default: true)"`
	WatchDebounceMs int      `yaml:"watch_debounce_ms,omitempty" toml:"watch_debounce_ms,omitempty" json:"watch_debounce_ms,omitempty" jsonschema:"minimum=0,description=Debounce window for store file changes in milliseconds (default: 100)"`
}

// FilesConfig controls folder browsing and local image saving.
type FilesConfig struct {
	MaxDepth  int      `yaml:"max_depth,omitempty" toml:"max_depth,omitempty" json:"max_depth,omitempty" jsonschema:"minimum=0,description=Maximum directory depth listed in the file tree (0: unbounded)"`
	MaxNodes  int      `yaml:"max_nodes,omitempty" toml:"max_nodes,omitempty" json:"max_nodes,omitempty" jsonschema:"minimum=0,description=Maximum number of entries in the file tree (0: unbounded)"`
	Ignore    []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty" jsonschema:"description=Patterns excluded from the file tree"`
	AssetsDir string   `yaml:"assets_dir,omitempty" toml:"assets_dir,omitempty" json:"assets_dir,omitempty" jsonschema:"description=Folder-relative directory for saved images (default: assets)"`
	Picker    []string `yaml:"picker,omitempty" toml:"picker,omitempty" json:"picker,omitempty" jsonschema:"description=Command that prints a chosen folder on stdout (e.g. zenity --file-selection --directory)"`
}

// UploadConfig controls remote object uploads.
type UploadConfig struct {
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Upload timeout as a Go duration (default: none)"`
}

// Config represents the scribe.yml configuration
type Config struct {
	Version string       `yaml:"version" toml:"version" json:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Server  ServerConfig `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty" jsonschema:"description=Daemon transport settings"`
	Files   FilesConfig  `yaml:"files,omitempty" toml:"files,omitempty" json:"files,omitempty" jsonschema:"description=File tree and image settings"`
	Upload  UploadConfig `yaml:"upload,omitempty" toml:"upload,omitempty" json:"upload,omitempty" jsonschema:"description=Object storage upload settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// DefaultIgnore lists the file tree patterns skipped when none are configured.
var DefaultIgnore = []string{".git", "node_modules", ".DS_Store"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}

	if c.Server.Websocket == nil {
		trueVal := true
		c.Server.Websocket = &trueVal
	}
	if c.Server.WatchStores == nil {
		trueVal := true
		c.Server.WatchStores = &trueVal
	}
	if c.Server.WatchDebounceMs == 0 {
		c.Server.WatchDebounceMs = 100
	}

	if c.Files.Ignore == nil {
		c.Files.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if c.Files.AssetsDir == "" {
		c.Files.AssetsDir = "assets"
	}
}

// UploadTimeout returns the parsed upload timeout, or zero when unset.
func (c *Config) UploadTimeout() time.Duration {
	if c.Upload.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Upload.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded scribe.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
