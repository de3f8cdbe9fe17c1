package config

import (
	"path/filepath"
	"time"
)

const (
	// DefaultVsctlPath is where ovs-vsctl is installed on most distributions.
	DefaultVsctlPath = "/usr/bin/ovs-vsctl"

	// DefaultCommandTimeout bounds a single ovs-vsctl invocation.
	DefaultCommandTimeout = 30 * time.Second

	// DefaultManifestsDir is the manifests subdirectory of the config directory.
	DefaultManifestsDir = "manifests"

	// DefaultHistoryFile is the journal file name inside the config directory.
	DefaultHistoryFile = "history.db"
)

// GetDefaultConfig returns the default configuration rooted at configDir.
func GetDefaultConfig(configDir string) BridgectlConfig {
	return BridgectlConfig{
		Vsctl: VsctlConfig{
			Path:           DefaultVsctlPath,
			CommandTimeout: DefaultCommandTimeout,
		},
		Manifests: ManifestsConfig{
			Path: filepath.Join(configDir, DefaultManifestsDir),
		},
		Reconciler: ReconcilerConfig{
			Workers:          2,
			MaxRetries:       5,
			InitialBackoff:   time.Second,
			MaxBackoff:       5 * time.Minute,
			DebounceInterval: 500 * time.Millisecond,
			ResyncInterval:   5 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(configDir, DefaultHistoryFile),
		},
		LogLevel: "info",
	}
}
