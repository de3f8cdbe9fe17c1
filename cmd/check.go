package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bridgectl/internal/bridge"
	"bridgectl/internal/formatting"
)

var checkType string

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [NAME]...",
		Short: "Show whether resources exist and which tags they carry",
		Long: `Observes the named resources and reports whether they exist and the
tags they currently carry. Nothing is changed.

Without names, every resource with a manifest of the given type is checked.`,
		Example: `  bridgectl check br-mgmt br-data
  bridgectl check -o json`,
		RunE: runCheck,
	}
	cmd.Flags().StringVar(&checkType, "type", bridge.TypeName, "Resource type")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	if _, err := services.Registry.Reconciler(checkType); err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		manifests, err := services.Store.List(checkType)
		if err != nil {
			return err
		}
		for _, m := range manifests {
			names = append(names, m.Name)
		}
	}

	ctx := commandContext(cmd)
	reports := make([]formatting.CheckReport, 0, len(names))
	failed := 0
	for _, name := range names {
		report := formatting.CheckReport{Type: checkType, Name: name}
		observed, err := services.Registry.Observe(ctx, checkType, name)
		if err != nil {
			report.Error = err.Error()
			failed++
		} else {
			report.Exists = observed.Exists
			report.Tags = observed.Tags
		}
		reports = append(reports, report)
	}

	if err := formatter.FormatCheck(reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("failed to observe %d of %d resource(s)", failed, len(names))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
}
