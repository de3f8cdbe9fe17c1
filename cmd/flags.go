package cmd

import (
	"github.com/spf13/cobra"

	"bridgectl/internal/app"
	"bridgectl/internal/executor"
	"bridgectl/internal/formatting"
)

// vsctlRunner replaces the ovs-vsctl process runner, allowing mocking in tests
var vsctlRunner executor.Runner

// Global flags shared by every command that touches the host.
var (
	configPath    string
	logLevel      string
	vsctlPath     string
	manifestsPath string
	noHistory     bool
	outputFormat  string
	noHeaders     bool
	noColor       bool
	quiet         bool
)

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config-path", "", "Configuration directory (default $HOME/.config/bridgectl)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config.yaml)")
	flags.StringVar(&vsctlPath, "vsctl", "", "Path to ovs-vsctl (overrides config.yaml)")
	flags.StringVar(&manifestsPath, "manifests", "", "Manifest directory (overrides config.yaml)")
	flags.BoolVar(&noHistory, "no-history", false, "Do not record runs in the history journal")
	flags.StringVarP(&outputFormat, "output", "o", string(formatting.FormatTable), "Output format: table, plain, json or yaml")
	flags.BoolVar(&noHeaders, "no-headers", false, "Omit table headers")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress progress indicators")
}

// newApplication bootstraps the application from the global flags. Logs go
// to the command's stderr so structured output on stdout stays parseable.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(configPath, logLevel)
	cfg.VsctlPath = vsctlPath
	cfg.ManifestsPath = manifestsPath
	cfg.NoHistory = noHistory
	cfg.LogOutput = cmd.ErrOrStderr()
	cfg.Runner = vsctlRunner
	return app.NewApplication(cfg)
}

// newFormatter builds the formatter selected by --output.
func newFormatter(cmd *cobra.Command) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return formatting.New(formatting.Options{
		Format:    format,
		NoHeaders: noHeaders,
		Color:     format == formatting.FormatTable && !noColor,
		Out:       cmd.OutOrStdout(),
	}), nil
}
