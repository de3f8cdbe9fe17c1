package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"bridgectl/pkg/logging"
)

const (
	userConfigDir  = ".config/bridgectl"
	configFileName = "config.yaml"
)

// osUserHomeDir is a variable to allow mocking in tests
var osUserHomeDir = os.UserHomeDir

// GetUserConfigDir returns the default configuration directory, ~/.config/bridgectl.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func GetDefaultConfigPathOrPanic() string {
	dir, err := GetUserConfigDir()
	if err != nil {
		panic(err)
	}
	return dir
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not expand %s: %w", path, err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(configPath string) (BridgectlConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig(configPath)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return BridgectlConfig{}, NewConfigurationError(configFilePath, "io", "failed to read configuration", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		cfgErr := NewConfigurationError(configFilePath, "parse", "malformed configuration", err)
		cfgErr.LineNumber = yamlErrorLine(err)
		return BridgectlConfig{}, cfgErr
	}

	if err := config.expandPaths(); err != nil {
		return BridgectlConfig{}, NewConfigurationError(configFilePath, "io", "failed to resolve paths", err)
	}

	if verrs := config.Validate(); verrs.HasErrors() {
		cfgErr := NewConfigurationError(configFilePath, "validation", "invalid configuration", verrs)
		cfgErr.Suggestions = verrs.Fields()
		return BridgectlConfig{}, cfgErr
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

func (c *BridgectlConfig) expandPaths() error {
	var err error
	if c.Manifests.Path, err = ExpandPath(c.Manifests.Path); err != nil {
		return err
	}
	if c.History.Path, err = ExpandPath(c.History.Path); err != nil {
		return err
	}
	return nil
}

// yamlErrorLine extracts the first line number from a yaml.v3 error, or 0.
func yamlErrorLine(err error) int {
	var typeErr *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}

	var line int
	if i := strings.Index(msg, "line "); i >= 0 {
		_, _ = fmt.Sscanf(msg[i:], "line %d", &line)
	}
	return line
}
