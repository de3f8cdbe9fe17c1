package cmd

import (
	"github.com/spf13/cobra"

	"bridgectl/internal/formatting"
	"bridgectl/internal/manifest"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported resource types",
		Long: `Lists the resource types bridgectl can converge, together with the
directory under the manifest tree where their manifests live.`,
		Args: cobra.NoArgs,
		RunE: runTypes,
	}
}

func runTypes(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	typeNames := application.Services().Registry.Types()
	infos := make([]formatting.TypeInfo, len(typeNames))
	for i, name := range typeNames {
		infos[i] = formatting.TypeInfo{Name: name, Directory: manifest.DirForType(name)}
	}
	return formatter.FormatTypes(infos)
}

func init() {
	rootCmd.AddCommand(newTypesCmd())
}
