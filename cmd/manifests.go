package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bridgectl/internal/app"
	"bridgectl/internal/formatting"
	"bridgectl/internal/manifest"
)

// loadManifests reads the manifests named by files, or every type directory
// of the manifest store when files is empty, and checks that every type is
// registered. Unlike Store.List, an invalid file fails the whole load.
func loadManifests(services *app.Services, files []string) ([]manifest.Manifest, error) {
	if len(files) == 0 {
		for _, typeName := range services.Registry.Types() {
			dir := filepath.Join(services.Store.Root(), manifest.DirForType(typeName))
			if _, err := os.Stat(dir); err == nil {
				files = append(files, dir)
			}
		}
		if len(files) == 0 {
			return nil, nil
		}
	}

	manifests, err := services.Parser.LoadPaths(files)
	if err != nil {
		return nil, err
	}

	for _, m := range manifests {
		if _, err := services.Registry.Reconciler(m.Type); err != nil {
			return nil, &manifest.ParseError{Path: m.Source, Err: err}
		}
	}
	return manifests, nil
}

// planManifests observes every manifest's resource and lists the actions an
// apply would take. Observation failures are reported per entry.
func planManifests(ctx context.Context, services *app.Services, manifests []manifest.Manifest) []formatting.PlanEntry {
	entries := make([]formatting.PlanEntry, 0, len(manifests))
	for _, m := range manifests {
		actions, err := services.Registry.Plan(ctx, m.Type, m.Spec())
		entries = append(entries, formatting.NewPlanEntry(m.Type, m.Name, actions, err))
	}
	return entries
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
