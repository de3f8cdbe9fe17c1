// Package config provides configuration management for bridgectl.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/bridgectl, and every command accepts --config-path to use another
// one.
//
// # Configuration Directory
//
//	~/.config/bridgectl/
//	├── config.yaml        main configuration file (optional)
//	├── history.db         run journal (default location)
//	└── manifests/         desired state, one resource per file
//	    └── bridges/
//	        └── br-mgmt.yaml
//
// # config.yaml
//
//	vsctl:
//	  path: /usr/bin/ovs-vsctl
//	  commandTimeout: 30s
//	  extraArgs: ["--timeout=10"]
//	manifests:
//	  path: /etc/bridgectl/manifests
//	reconciler:
//	  workers: 2
//	  maxRetries: 5
//	  initialBackoff: 1s
//	  maxBackoff: 5m
//	  debounceInterval: 500ms
//	  resyncInterval: 5m
//	  disabledTypes: []
//	history:
//	  enabled: true
//	  path: ~/.config/bridgectl/history.db
//	logLevel: info
//
// Every key is optional; missing keys keep their default. Durations use Go
// duration syntax. Paths may start with ~.
//
// # Errors
//
// LoadConfig returns a *ConfigurationError describing the file, the kind of
// failure (io, parse or validation) and, for validation failures, every
// offending field at once.
package config
