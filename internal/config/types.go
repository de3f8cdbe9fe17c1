package config

import "time"

// BridgectlConfig is the top-level configuration structure for bridgectl.
type BridgectlConfig struct {
	Vsctl      VsctlConfig      `yaml:"vsctl"`
	Manifests  ManifestsConfig  `yaml:"manifests"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	History    HistoryConfig    `yaml:"history"`
	LogLevel   string           `yaml:"logLevel,omitempty"`
}

// VsctlConfig describes how ovs-vsctl is invoked.
type VsctlConfig struct {
	Path           string        `yaml:"path,omitempty"`           // Binary to run (default: /usr/bin/ovs-vsctl)
	CommandTimeout time.Duration `yaml:"commandTimeout,omitempty"` // Deadline per invocation, 0 disables it
	ExtraArgs      []string      `yaml:"extraArgs,omitempty"`      // Global options placed before every command, e.g. --timeout=10
}

// ManifestsConfig locates the desired-state manifests.
type ManifestsConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ReconcilerConfig tunes the watch mode reconcile manager.
type ReconcilerConfig struct {
	Workers          int           `yaml:"workers,omitempty"`
	MaxRetries       int           `yaml:"maxRetries,omitempty"`
	InitialBackoff   time.Duration `yaml:"initialBackoff,omitempty"`
	MaxBackoff       time.Duration `yaml:"maxBackoff,omitempty"`
	DebounceInterval time.Duration `yaml:"debounceInterval,omitempty"`
	ResyncInterval   time.Duration `yaml:"resyncInterval,omitempty"` // Periodic re-convergence to correct drift, 0 disables it
	DisabledTypes    []string      `yaml:"disabledTypes,omitempty"`
}

// HistoryConfig controls the run journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}
