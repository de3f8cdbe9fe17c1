package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bridgectl/internal/app"
	"bridgectl/internal/formatting"
	"bridgectl/internal/history"
	"bridgectl/internal/manifest"
	"bridgectl/internal/resource"
	"bridgectl/pkg/logging"
)

var (
	applyFiles    []string
	applyDryRun   bool
	applyParallel int
)

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [-f FILE|DIR]...",
		Short: "Converge resources to their manifests",
		Long: `Converges every resource described by the given manifests.

Without -f, every manifest under the configured manifest directory is applied.
Directories given with -f are searched recursively for .yaml and .yml files.
All manifests are parsed before anything is changed: a single invalid
manifest or unknown resource type aborts the run.

Exit codes:
  0  every resource is converged
  1  at least one resource could not be changed
  2  some resources were only partially converged
  3  a manifest is invalid or names an unknown resource type`,
		Example: `  bridgectl apply
  bridgectl apply -f bridges/br-mgmt.yaml
  bridgectl apply -f /etc/bridgectl/manifests --parallel 4 -o json
  bridgectl apply --dry-run`,
		Args: cobra.NoArgs,
		RunE: runApply,
	}

	cmd.Flags().StringSliceVarP(&applyFiles, "filename", "f", nil, "Manifest file or directory (repeatable)")
	cmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print the planned changes without applying them")
	cmd.Flags().IntVar(&applyParallel, "parallel", 1, "Number of resources converged concurrently")
	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	if applyParallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", applyParallel)
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()
	services := application.Services()

	manifests, err := loadManifests(services, applyFiles)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if applyDryRun {
		return formatter.FormatPlan(planManifests(ctx, services, manifests))
	}

	runID := history.NewRunID()
	logging.Debug("Apply", "Run %s: converging %d resource(s) with parallelism %d", runID, len(manifests), applyParallel)

	var s *spinner.Spinner
	if !quiet && len(manifests) > 0 {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = fmt.Sprintf(" Converging %d resource(s)...", len(manifests))
		s.Start()
	}

	results := convergeManifests(ctx, services, manifests, runID, applyParallel)

	if s != nil {
		s.Stop()
	}

	views := make([]formatting.ResultView, len(results))
	for i, r := range results {
		views[i] = formatting.NewResultView(runID, r)
	}
	if err := formatter.FormatResults(views); err != nil {
		return err
	}

	return resultsError(results)
}

// convergeManifests dispatches every manifest, at most parallel at a time,
// and records each result under runID. Results keep the manifest order.
func convergeManifests(ctx context.Context, services *app.Services, manifests []manifest.Manifest, runID string, parallel int) []resource.Result {
	results := make([]resource.Result, len(manifests))
	ctx = resource.WithRunID(ctx, runID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, m := range manifests {
		g.Go(func() error {
			started := time.Now()
			result, err := services.Registry.Dispatch(gctx, m.Type, m.Spec())
			if err != nil {
				logging.Error("Apply", err, "Failed to dispatch %s", m.Key())
			}
			if services.Journal != nil {
				if err := services.Journal.Record(gctx, runID, started, result); err != nil {
					logging.Warn("Apply", "Failed to record %s in history: %v", m.Key(), err)
				}
			}
			results[i] = result
			return nil
		})
	}
	// Dispatch failures live in the results; the group itself never fails.
	_ = g.Wait()
	return results
}

// resultsError summarizes non-successful results into a ConvergenceError.
func resultsError(results []resource.Result) error {
	convergeErr := &ConvergenceError{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case resource.OutcomePartial:
			convergeErr.Partial++
		case resource.OutcomeFailure:
			convergeErr.Failed++
		}
	}
	if convergeErr.Partial == 0 && convergeErr.Failed == 0 {
		return nil
	}
	return convergeErr
}

func init() {
	rootCmd.AddCommand(newApplyCmd())
}
