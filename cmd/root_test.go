package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bridgectl/internal/manifest"
	"bridgectl/internal/provider"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
	if GetVersion() != testVersion {
		t.Errorf("Expected GetVersion to return %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "bridgectl" {
		t.Errorf("Expected Use to be 'bridgectl', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestSubcommands(t *testing.T) {
	expectedCommands := []string{"apply", "plan", "check", "watch", "history", "import", "types", "version", "self-update"}
	foundCommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"config-path", "log-level", "vsctl", "manifests", "no-history", "output", "no-headers", "no-color", "quiet"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s", name)
		}
	}
	if rootCmd.PersistentFlags().ShorthandLookup("o") == nil {
		t.Error("Expected -o shorthand for --output")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: ExitCodeSuccess,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: ExitCodeError,
		},
		{
			name:     "parse error",
			err:      &manifest.ParseError{Path: "bridges/br0.yaml", Err: errors.New("bad ensure")},
			expected: ExitCodeInvalid,
		},
		{
			name:     "joined parse error",
			err:      errors.Join(errors.New("other"), &manifest.ParseError{Path: "x.yaml", Err: errors.New("bad")}),
			expected: ExitCodeInvalid,
		},
		{
			name:     "unknown resource type",
			err:      fmt.Errorf("dispatch: %w", &provider.UnknownResourceTypeError{TypeName: "ovs_port"}),
			expected: ExitCodeInvalid,
		},
		{
			name:     "partial convergence only",
			err:      &ConvergenceError{Total: 3, Partial: 1},
			expected: ExitCodePartial,
		},
		{
			name:     "failed convergence",
			err:      &ConvergenceError{Total: 3, Partial: 1, Failed: 1},
			expected: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := getExitCode(tt.err); code != tt.expected {
				t.Errorf("getExitCode() = %d, want %d", code, tt.expected)
			}
		})
	}
}

func TestConvergenceErrorMessage(t *testing.T) {
	tests := []struct {
		err      *ConvergenceError
		contains string
	}{
		{&ConvergenceError{Total: 4, Partial: 2}, "2 of 4 resource(s) only partially converged"},
		{&ConvergenceError{Total: 4, Failed: 1}, "1 of 4 resource(s) failed to converge"},
		{&ConvergenceError{Total: 4, Failed: 1, Partial: 2}, "2 partially converged"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.err.Error(), tt.contains) {
			t.Errorf("Expected %q to contain %q", tt.err.Error(), tt.contains)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		_ = rootCmd.Flags().Set("help", "false")
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Error executing help command: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "bridgectl") {
		t.Errorf("Help output should contain 'bridgectl'. Got: %q", output)
	}
	if !strings.Contains(output, "Open vSwitch bridges") {
		t.Errorf("Help output should contain the long description. Got: %q", output)
	}
}
