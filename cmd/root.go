package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"bridgectl/internal/manifest"
	"bridgectl/internal/provider"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodePartial indicates that some resources were only partially converged.
	ExitCodePartial = 2
	// ExitCodeInvalid indicates an unparseable manifest or an unknown resource type.
	ExitCodeInvalid = 3
)

// versionTemplate renders --version the same way as the version subcommand.
const versionTemplate = `{{printf "bridgectl version %s\n" .Version}}`

// rootCmd represents the base command for the bridgectl application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Converge Open vSwitch bridges to declarative manifests",
	Long: `bridgectl keeps Open vSwitch bridges in the state described by YAML manifests.

Each manifest names a bridge, whether it should exist, and the external_ids
tags it should carry. bridgectl observes the bridge through ovs-vsctl and
issues only the commands needed to reach that state, so running it again is
always safe.

Use 'bridgectl apply' for a one-shot convergence, 'bridgectl plan' to preview
it, and 'bridgectl watch' to keep the host converged as manifests change.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var parseErr *manifest.ParseError
	if errors.As(err, &parseErr) {
		return ExitCodeInvalid
	}

	var unknownType *provider.UnknownResourceTypeError
	if errors.As(err, &unknownType) {
		return ExitCodeInvalid
	}

	var convergeErr *ConvergenceError
	if errors.As(err, &convergeErr) && convergeErr.Failed == 0 {
		return ExitCodePartial
	}

	return ExitCodeError
}

func init() {
	addGlobalFlags(rootCmd)
	rootCmd.SetVersionTemplate(versionTemplate)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
