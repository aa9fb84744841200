package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/scribe/errors"
	"github.com/moby/patternmatcher"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateFiles(&c.Files); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid files configuration")
	}

	if c.Upload.Timeout != "" {
		d, err := time.ParseDuration(c.Upload.Timeout)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid upload.timeout").
				WithDetail("timeout", c.Upload.Timeout)
		}
		if d < 0 {
			return errors.ConfigInvalid("upload.timeout cannot be negative").
				WithDetail("timeout", c.Upload.Timeout)
		}
	}

	if c.Server.Listen != "" {
		if err := validateListen(c.Server.Listen); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid server.listen").
				WithDetail("listen", c.Server.Listen)
		}
	}

	return nil
}

func validateFiles(files *FilesConfig) error {
	if files.MaxDepth < 0 {
		return fmt.Errorf("max_depth cannot be negative")
	}
	if files.MaxNodes < 0 {
		return fmt.Errorf("max_nodes cannot be negative")
	}

	if files.AssetsDir != "" {
		if filepath.IsAbs(files.AssetsDir) {
			return fmt.Errorf("assets_dir must be relative to the open folder: %s", files.AssetsDir)
		}
		if strings.HasPrefix(filepath.Clean(files.AssetsDir), "..") {
			return fmt.Errorf("assets_dir cannot escape the open folder: %s", files.AssetsDir)
		}
	}

	if _, err := patternmatcher.New(files.Ignore); err != nil {
		return fmt.Errorf("invalid ignore pattern: %w", err)
	}

	if len(files.Picker) > 0 && strings.TrimSpace(files.Picker[0]) == "" {
		return fmt.Errorf("picker command cannot be empty")
	}

	return nil
}

// validateListen only permits loopback addresses; the daemon is a local bridge.
func validateListen(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("listen address must be loopback, got %q", host)
	}
	return nil
}
