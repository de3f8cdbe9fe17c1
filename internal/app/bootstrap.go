package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"bridgectl/internal/config"
	"bridgectl/pkg/logging"
)

// Application represents the main application structure that bootstraps bridgectl.
// It owns the loaded configuration and the services built from it.
//
// Example usage:
//
//	application, err := app.NewApplication(app.NewConfig("/etc/bridgectl", "debug"))
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Close()
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Configures logging from the command line level, if any
//  2. Loads config.yaml from cfg.ConfigPath and applies overrides
//  3. Reconfigures logging from the effective level
//  4. Initializes the ovs-vsctl tool, provider registry, manifest store and run journal
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}

	initialLevel := logging.LevelInfo
	if cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		initialLevel = level
	}
	logging.InitForCLI(initialLevel, logOutput)

	if cfg.BridgectlConfig == nil {
		configPath := cfg.ConfigPath
		if configPath == "" {
			configPath = config.GetDefaultConfigPathOrPanic()
		}
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", configPath)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", configPath, err)
		}
		cfg.BridgectlConfig = &loaded
	}

	if err := cfg.applyOverrides(cfg.BridgectlConfig); err != nil {
		return nil, err
	}

	if cfg.BridgectlConfig.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.BridgectlConfig.LogLevel)
		if err != nil {
			return nil, err
		}
		if level != initialLevel {
			logging.InitForCLI(level, logOutput)
		}
	}

	services, err := InitializeServices(context.Background(), cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the effective configuration after overrides.
func (a *Application) Config() config.BridgectlConfig {
	return *a.config.BridgectlConfig
}

// Close releases the services.
func (a *Application) Close() error {
	return a.services.Close()
}

// Run keeps the host converged to the manifest tree until ctx is cancelled
// or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	return runWatchMode(ctx, a.services)
}
