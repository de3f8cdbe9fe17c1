package app

import (
	"context"
	"fmt"

	"bridgectl/internal/bridge"
	"bridgectl/internal/config"
	"bridgectl/internal/executor"
	"bridgectl/internal/history"
	"bridgectl/internal/manifest"
	"bridgectl/internal/provider"
	"bridgectl/internal/reconciler"
	"bridgectl/pkg/logging"
)

// Services holds everything the commands need to converge resources.
type Services struct {
	Config config.BridgectlConfig

	// Tool invokes ovs-vsctl with the configured global options and timeout.
	Tool *executor.Tool

	// Registry maps resource types to their reconcilers.
	Registry *provider.Registry

	// Store reads and writes the manifest tree.
	Store *manifest.Store

	// Parser reads manifests named on the command line.
	Parser *manifest.Parser

	// Journal records convergence passes. Nil when history is disabled or
	// the database could not be opened.
	Journal *history.Journal
}

// InitializeServices builds the services from cfg.BridgectlConfig.
//
// A journal that cannot be opened is logged and left nil: losing history
// must not stop bridges from being converged.
func InitializeServices(ctx context.Context, cfg *Config) (*Services, error) {
	bc := *cfg.BridgectlConfig

	var opts []executor.ToolOption
	if len(bc.Vsctl.ExtraArgs) > 0 {
		opts = append(opts, executor.WithExtraArgs(bc.Vsctl.ExtraArgs...))
	}
	if bc.Vsctl.CommandTimeout > 0 {
		opts = append(opts, executor.WithTimeout(bc.Vsctl.CommandTimeout))
	}
	tool := executor.NewTool(cfg.Runner, bc.Vsctl.Path, opts...)

	registry := provider.NewRegistry()
	if err := bridge.Register(registry, tool); err != nil {
		return nil, fmt.Errorf("failed to register %s provider: %w", bridge.TypeName, err)
	}

	services := &Services{
		Config:   bc,
		Tool:     tool,
		Registry: registry,
		Store:    manifest.NewStore(bc.Manifests.Path),
		Parser:   manifest.NewParser(),
	}

	if bc.History.Enabled {
		journal, err := history.Open(ctx, bc.History.Path)
		if err != nil {
			logging.Warn("Services", "History disabled: %v", err)
		} else {
			services.Journal = journal
		}
	}

	logging.Debug("Services", "Initialized services (vsctl=%s, manifests=%s, types=%v)", bc.Vsctl.Path, bc.Manifests.Path, registry.Types())
	return services, nil
}

// Recorder returns the journal as a reconciler.Recorder, or nil when history is off.
func (s *Services) Recorder() reconciler.Recorder {
	if s.Journal == nil {
		return nil
	}
	return s.Journal
}

// Close releases the journal.
func (s *Services) Close() error {
	if s.Journal == nil {
		return nil
	}
	return s.Journal.Close()
}

// NewManager builds a reconcile manager with one manifest reconciler per
// registered type.
func (s *Services) NewManager() (*reconciler.Manager, error) {
	rc := s.Config.Reconciler

	disabled := make(map[reconciler.ResourceType]bool, len(rc.DisabledTypes))
	for _, t := range rc.DisabledTypes {
		disabled[reconciler.ResourceType(t)] = true
	}

	manager := reconciler.NewManager(reconciler.ManagerConfig{
		ManifestsPath:         s.Config.Manifests.Path,
		WorkerCount:           rc.Workers,
		MaxRetries:            rc.MaxRetries,
		InitialBackoff:        rc.InitialBackoff,
		MaxBackoff:            rc.MaxBackoff,
		DebounceInterval:      rc.DebounceInterval,
		DisabledResourceTypes: disabled,
	})

	for _, typeName := range s.Registry.Types() {
		rec := reconciler.NewManifestReconciler(reconciler.ResourceType(typeName), s.Store, s.Registry, s.Recorder(), rc.ResyncInterval)
		if err := manager.RegisterReconciler(rec); err != nil {
			return nil, err
		}
	}
	return manager, nil
}
