package app

import (
	"io"

	"bridgectl/internal/config"
	"bridgectl/internal/executor"
)

// Config holds the application configuration
type Config struct {
	// ConfigPath is the directory holding config.yaml and, by default, the manifests.
	ConfigPath string

	// LogLevel overrides logLevel from config.yaml when set.
	LogLevel string

	// VsctlPath overrides vsctl.path from config.yaml when set.
	VsctlPath string

	// ManifestsPath overrides manifests.path from config.yaml when set.
	ManifestsPath string

	// NoHistory disables the run journal regardless of config.yaml.
	NoHistory bool

	// LogOutput receives log lines. Defaults to stderr so command output stays parseable.
	LogOutput io.Writer

	// Runner replaces the process runner used to invoke ovs-vsctl.
	Runner executor.Runner

	// BridgectlConfig is the loaded configuration. When set before
	// NewApplication, config.yaml is not read.
	BridgectlConfig *config.BridgectlConfig
}

// NewConfig creates a new application configuration
func NewConfig(configPath, logLevel string) *Config {
	return &Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	}
}

// applyOverrides copies command line overrides onto the loaded configuration.
func (c *Config) applyOverrides(cfg *config.BridgectlConfig) error {
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.VsctlPath != "" {
		cfg.Vsctl.Path = c.VsctlPath
	}
	if c.ManifestsPath != "" {
		path, err := config.ExpandPath(c.ManifestsPath)
		if err != nil {
			return err
		}
		cfg.Manifests.Path = path
	}
	if c.NoHistory {
		cfg.History.Enabled = false
	}
	return nil
}
