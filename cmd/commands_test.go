package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"bridgectl/internal/formatting"
	"bridgectl/internal/history"
	"bridgectl/internal/testing/mock"
)

// cliEnv is an isolated config directory with an in-memory ovs-vsctl.
type cliEnv struct {
	t         *testing.T
	configDir string
	vs        *mock.VSwitch
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{t: t, configDir: t.TempDir(), vs: mock.NewVSwitch()}

	original := vsctlRunner
	vsctlRunner = env.vs
	t.Cleanup(func() { vsctlRunner = original })
	return env
}

func (e *cliEnv) manifestsDir() string {
	return filepath.Join(e.configDir, "manifests")
}

func (e *cliEnv) writeManifest(rel, content string) string {
	e.t.Helper()
	path := filepath.Join(e.manifestsDir(), rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatal(err)
	}
	return path
}

// run executes the root command with fresh flag values and returns stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config-path", e.configDir, "--quiet"}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), err
}

func resetFlags() {
	configPath, logLevel, vsctlPath, manifestsPath = "", "", "", ""
	noHistory, noHeaders, noColor, quiet = false, false, false, false
	outputFormat = string(formatting.FormatTable)

	applyFiles, applyDryRun, applyParallel = nil, false, 1
	planFiles = nil
	checkType = "ovs_bridge"
	importType, importForce = "ovs_bridge", false
	historyLimit, historyName, historyType, historyRunID, historyOutcome = history.DefaultLimit, "", "", "", ""
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return v
}

type resultsDoc struct {
	Results []formatting.ResultView `json:"results"`
}

func TestApplyCommand_ConvergesStore(t *testing.T) {
	env := newCLIEnv(t)
	env.writeManifest("bridges/br-mgmt.yaml", "tags:\n  purpose: mgmt\n")
	env.writeManifest("bridges/br-data.yaml", "ensure: present\n")

	out, err := env.run("apply", "-o", "json")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	doc := decodeJSON[resultsDoc](t, out)
	if len(doc.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(doc.Results))
	}
	if doc.Results[0].Name != "br-data" || doc.Results[1].Name != "br-mgmt" {
		t.Errorf("expected results in manifest order, got %s, %s", doc.Results[0].Name, doc.Results[1].Name)
	}
	if doc.Results[0].RunID == "" || doc.Results[0].RunID != doc.Results[1].RunID {
		t.Error("expected one run ID shared by the whole apply")
	}
	if !env.vs.HasBridge("br-mgmt") || env.vs.Tags("br-mgmt")["purpose"] != "mgmt" {
		t.Errorf("br-mgmt not converged: %v", env.vs.Tags("br-mgmt"))
	}

	// A second apply only observes
	env.vs.ResetCalls()
	if _, err := env.run("apply", "-o", "json"); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if len(env.vs.CallsTo("add-br")) != 0 || len(env.vs.CallsTo("br-set-external-id")) != 0 {
		t.Errorf("expected no mutations on second apply, got %v", env.vs.Calls())
	}
}

func TestApplyCommand_FilesAndParallel(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"br0", "br1", "br2", "br3"} {
		content := "type: ovs_bridge\nname: " + name + "\n"
		if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := env.run("apply", "-f", dir, "--parallel", "3", "-o", "json")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	doc := decodeJSON[resultsDoc](t, out)
	if len(doc.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(doc.Results))
	}
	for _, r := range doc.Results {
		if r.Outcome != "success" || !env.vs.HasBridge(r.Name) {
			t.Errorf("expected %s to be converged, got %+v", r.Name, r)
		}
	}
}

func TestApplyCommand_DryRun(t *testing.T) {
	env := newCLIEnv(t)
	env.writeManifest("bridges/br0.yaml", "tags:\n  a: \"1\"\n")

	out, err := env.run("apply", "--dry-run", "-o", "json")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	doc := decodeJSON[struct {
		Plan []formatting.PlanEntry `json:"plan"`
	}](t, out)
	if len(doc.Plan) != 1 || len(doc.Plan[0].Actions) != 2 {
		t.Fatalf("expected create and set-tag actions, got %+v", doc.Plan)
	}
	if env.vs.HasBridge("br0") {
		t.Error("dry run must not change the host")
	}
}

func TestApplyCommand_PartialConvergence(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.FailTagKey("owner", 1, "ovs-vsctl: transaction error")
	env.writeManifest("bridges/br0.yaml", "tags:\n  a: \"1\"\n  owner: net\n")

	out, err := env.run("apply", "-o", "json")
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := getExitCode(err); code != ExitCodePartial {
		t.Errorf("expected exit code %d, got %d (%v)", ExitCodePartial, code, err)
	}

	doc := decodeJSON[resultsDoc](t, out)
	if len(doc.Results) != 1 || doc.Results[0].Outcome != "partial" || doc.Results[0].Error == "" {
		t.Errorf("unexpected results: %+v", doc.Results)
	}
	if !env.vs.HasBridge("br0") || env.vs.Tags("br0")["a"] != "1" {
		t.Error("steps before the failure must stay applied")
	}
}

func TestApplyCommand_InvalidManifestAbortsBeforeChanges(t *testing.T) {
	env := newCLIEnv(t)
	good := env.writeManifest("bridges/br0.yaml", "ensure: present\n")
	bad := env.writeManifest("bridges/br1.yaml", "ensure: sometimes\n")

	_, err := env.run("apply", "-f", good, "-f", bad)
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := getExitCode(err); code != ExitCodeInvalid {
		t.Errorf("expected exit code %d, got %d (%v)", ExitCodeInvalid, code, err)
	}
	if len(env.vs.Calls()) != 0 {
		t.Errorf("nothing may run before every manifest parses, got %v", env.vs.Calls())
	}
}

func TestApplyCommand_UnknownType(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "p0.yaml")
	if err := os.WriteFile(path, []byte("type: ovs_port\nname: p0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := env.run("apply", "-f", path)
	if code := getExitCode(err); code != ExitCodeInvalid {
		t.Errorf("expected exit code %d, got %d (%v)", ExitCodeInvalid, code, err)
	}
}

func TestApplyCommand_InvalidParallel(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run("apply", "--parallel", "0"); err == nil {
		t.Error("expected an error for --parallel 0")
	}
}

func TestPlanCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.AddBridge("br0", map[string]string{"a": "1"})
	env.writeManifest("bridges/br0.yaml", "tags:\n  a: \"1\"\n")
	env.writeManifest("bridges/br1.yaml", "ensure: absent\n")

	out, err := env.run("plan", "-o", "json")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	doc := decodeJSON[struct {
		Plan []formatting.PlanEntry `json:"plan"`
	}](t, out)
	if len(doc.Plan) != 2 {
		t.Fatalf("expected 2 entries, got %+v", doc.Plan)
	}
	for _, e := range doc.Plan {
		if len(e.Actions) != 0 {
			t.Errorf("expected %s to be in sync, got %v", e.Name, e.Actions)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.AddBridge("br0", map[string]string{"purpose": "mgmt"})

	out, err := env.run("check", "br0", "br1", "-o", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	doc := decodeJSON[struct {
		Resources []formatting.CheckReport `json:"resources"`
	}](t, out)
	if len(doc.Resources) != 2 {
		t.Fatalf("expected 2 reports, got %+v", doc.Resources)
	}
	if !doc.Resources[0].Exists || doc.Resources[0].Tags["purpose"] != "mgmt" {
		t.Errorf("unexpected report for br0: %+v", doc.Resources[0])
	}
	if doc.Resources[1].Exists {
		t.Errorf("br1 should not exist: %+v", doc.Resources[1])
	}
}

func TestCheckCommand_ObservationFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.FailSubcommand("br-exists", -1, "")

	_, err := env.run("check", "br0", "-o", "json")
	if err == nil {
		t.Fatal("expected an error when ovs-vsctl cannot run")
	}
}

func TestImportCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.AddBridge("br-int", map[string]string{"owner": "neutron"})

	out, err := env.run("import", "br-int")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported ovs_bridge/br-int") {
		t.Errorf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(filepath.Join(env.manifestsDir(), "bridges", "br-int.yaml"))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if !strings.Contains(string(data), "owner: neutron") || !strings.Contains(string(data), "allowExisting: true") {
		t.Errorf("unexpected manifest:\n%s", data)
	}

	if _, err := env.run("import", "br-int"); err == nil {
		t.Error("expected existing manifest to be protected without --force")
	}
	if _, err := env.run("import", "br-int", "--force"); err != nil {
		t.Errorf("expected --force to overwrite: %v", err)
	}

	// The imported manifest is already converged
	env.vs.ResetCalls()
	if _, err := env.run("apply", "-o", "json"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(env.vs.CallsTo("br-set-external-id")) != 0 {
		t.Errorf("expected imported tags to be in sync, got %v", env.vs.Calls())
	}
	for _, call := range env.vs.CallsTo("add-br") {
		if !slices.Contains(call.Args, "--may-exist") {
			t.Errorf("expected imported bridge to be created with --may-exist, got %q", call.String())
		}
	}
	if !env.vs.HasBridge("br-int") {
		t.Error("expected br-int to still exist")
	}
}

func TestImportCommand_KeepsInvalidManifest(t *testing.T) {
	env := newCLIEnv(t)
	env.vs.AddBridge("br-int", map[string]string{"owner": "neutron"})
	broken := "ensure: [present\n"
	path := env.writeManifest("bridges/br-int.yaml", broken)

	if _, err := env.run("import", "br-int"); err == nil {
		t.Fatal("expected an unparseable manifest to be protected without --force")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("manifest removed: %v", err)
	}
	if string(data) != broken {
		t.Errorf("expected manifest to be left untouched, got:\n%s", data)
	}

	if _, err := env.run("import", "br-int", "--force"); err != nil {
		t.Fatalf("expected --force to overwrite: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "owner: neutron") {
		t.Errorf("unexpected manifest after --force:\n%s", data)
	}
}

func TestImportCommand_MissingBridge(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run("import", "br-nope"); err == nil {
		t.Error("expected an error for a missing bridge")
	}
}

func TestHistoryCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.writeManifest("bridges/br0.yaml", "ensure: present\n")
	env.writeManifest("bridges/br1.yaml", "ensure: present\n")

	if _, err := env.run("apply", "-o", "json"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	out, err := env.run("history", "-o", "json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	doc := decodeJSON[struct {
		Runs []history.Entry `json:"runs"`
	}](t, out)
	if len(doc.Runs) != 2 {
		t.Fatalf("expected 2 entries, got %+v", doc.Runs)
	}

	out, err = env.run("history", "--name", "br1", "-o", "json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	filtered := decodeJSON[struct {
		Runs []history.Entry `json:"runs"`
	}](t, out)
	if len(filtered.Runs) != 1 || filtered.Runs[0].Name != "br1" {
		t.Errorf("unexpected filtered entries: %+v", filtered.Runs)
	}
}

func TestHistoryCommand_InvalidOutcome(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run("history", "--outcome", "meh"); err == nil {
		t.Error("expected an error for an unknown outcome")
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("history", "--no-history")
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("expected history disabled error, got %v", err)
	}
}

func TestTypesCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("types", "-o", "json")
	if err != nil {
		t.Fatalf("types failed: %v", err)
	}
	doc := decodeJSON[struct {
		Types []formatting.TypeInfo `json:"types"`
	}](t, out)
	if len(doc.Types) != 1 || doc.Types[0].Name != "ovs_bridge" || doc.Types[0].Directory != "bridges" {
		t.Errorf("unexpected types: %+v", doc.Types)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := env.run("types", "-o", "xml"); err == nil {
		t.Error("expected an error for an unsupported output format")
	}
}

func TestApplyCommand_InvalidStoreManifest(t *testing.T) {
	env := newCLIEnv(t)
	env.writeManifest("bridges/br0.yaml", "ensure: present\n")
	env.writeManifest("bridges/br1.yaml", "colour: blue\n")

	_, err := env.run("apply")
	if code := getExitCode(err); code != ExitCodeInvalid {
		t.Errorf("expected exit code %d, got %d (%v)", ExitCodeInvalid, code, err)
	}
	if env.vs.HasBridge("br0") {
		t.Error("nothing may be applied when a manifest is invalid")
	}
}

func TestApplyCommand_EmptyStore(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("apply", "-o", "json")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	doc := decodeJSON[resultsDoc](t, out)
	if len(doc.Results) != 0 {
		t.Errorf("expected no results, got %+v", doc.Results)
	}
}
