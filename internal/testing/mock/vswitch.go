package mock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"bridgectl/internal/executor"
)

// Call records one invocation made against a VSwitch.
type Call struct {
	Command string
	Args    []string
}

// Subcommand returns the first argument that is not an option.
func (c Call) Subcommand() string {
	_, sub, _ := splitArgs(c.Args)
	return sub
}

// String renders the call the way it would appear on a shell.
func (c Call) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

// VSwitch is an in-memory stand-in for ovs-vsctl implementing executor.Runner.
//
// It understands br-exists, add-br, del-br, br-get-external-id and
// br-set-external-id, exits with the same codes as the real tool and writes
// similar diagnostics to stderr. Failures can be injected per subcommand or
// per tag key.
type VSwitch struct {
	mu      sync.Mutex
	bridges map[string]map[string]string
	calls   []Call

	failSubcommand map[string]executor.Result
	failTagKey     map[string]executor.Result
}

// NewVSwitch creates an empty switch.
func NewVSwitch() *VSwitch {
	return &VSwitch{
		bridges:        make(map[string]map[string]string),
		failSubcommand: make(map[string]executor.Result),
		failTagKey:     make(map[string]executor.Result),
	}
}

// AddBridge pre-populates a bridge with tags.
func (v *VSwitch) AddBridge(name string, tags map[string]string) *VSwitch {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bridges[name] = maps.Clone(tags)
	if v.bridges[name] == nil {
		v.bridges[name] = make(map[string]string)
	}
	return v
}

// FailSubcommand makes every invocation of sub exit with code and stderr.
func (v *VSwitch) FailSubcommand(sub string, code int, stderr string) *VSwitch {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failSubcommand[sub] = executor.Result{ExitCode: code, Stderr: stderr}
	return v
}

// FailTagKey makes br-set-external-id fail for key.
func (v *VSwitch) FailTagKey(key string, code int, stderr string) *VSwitch {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failTagKey[key] = executor.Result{ExitCode: code, Stderr: stderr}
	return v
}

// ClearFailures removes all injected failures.
func (v *VSwitch) ClearFailures() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failSubcommand = make(map[string]executor.Result)
	v.failTagKey = make(map[string]executor.Result)
}

// HasBridge reports whether the bridge exists.
func (v *VSwitch) HasBridge(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.bridges[name]
	return ok
}

// Tags returns a copy of the tags of a bridge.
func (v *VSwitch) Tags(name string) map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return maps.Clone(v.bridges[name])
}

// Calls returns every recorded invocation.
func (v *VSwitch) Calls() []Call {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.calls)
}

// CallsTo returns the recorded invocations of one subcommand.
func (v *VSwitch) CallsTo(sub string) []Call {
	var out []Call
	for _, c := range v.Calls() {
		if c.Subcommand() == sub {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded invocations.
func (v *VSwitch) ResetCalls() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = nil
}

// Run implements executor.Runner.
func (v *VSwitch) Run(ctx context.Context, command string, args ...string) (executor.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls = append(v.calls, Call{Command: command, Args: slices.Clone(args)})

	if err := ctx.Err(); err != nil {
		return v.fail(command, args, executor.Result{ExitCode: executor.SpawnFailure}, err)
	}

	opts, sub, rest := splitArgs(args)

	if res, ok := v.failSubcommand[sub]; ok {
		return v.fail(command, args, res, nil)
	}

	switch sub {
	case "br-exists":
		if len(rest) != 1 {
			return v.usage(command, args, sub)
		}
		if _, ok := v.bridges[rest[0]]; ok {
			return executor.Result{}, nil
		}
		return v.fail(command, args, executor.Result{ExitCode: 2}, nil)

	case "add-br":
		if len(rest) != 1 {
			return v.usage(command, args, sub)
		}
		name := rest[0]
		if _, ok := v.bridges[name]; ok {
			if slices.Contains(opts, "--may-exist") {
				return executor.Result{}, nil
			}
			return v.fail(command, args, executor.Result{
				ExitCode: 1,
				Stderr:   fmt.Sprintf("ovs-vsctl: cannot create a bridge named %s because a bridge named %s already exists\n", name, name),
			}, nil)
		}
		v.bridges[name] = make(map[string]string)
		return executor.Result{}, nil

	case "del-br":
		if len(rest) != 1 {
			return v.usage(command, args, sub)
		}
		name := rest[0]
		if _, ok := v.bridges[name]; !ok {
			if slices.Contains(opts, "--if-exists") {
				return executor.Result{}, nil
			}
			return v.noBridge(command, args, name)
		}
		delete(v.bridges, name)
		return executor.Result{}, nil

	case "br-get-external-id":
		if len(rest) < 1 {
			return v.usage(command, args, sub)
		}
		tags, ok := v.bridges[rest[0]]
		if !ok {
			return v.noBridge(command, args, rest[0])
		}
		if len(rest) == 2 {
			return executor.Result{Stdout: tags[rest[1]] + "\n"}, nil
		}
		var b strings.Builder
		for _, key := range slices.Sorted(maps.Keys(tags)) {
			fmt.Fprintf(&b, "%s=%s\n", key, tags[key])
		}
		return executor.Result{Stdout: b.String()}, nil

	case "br-set-external-id":
		if len(rest) < 2 || len(rest) > 3 {
			return v.usage(command, args, sub)
		}
		tags, ok := v.bridges[rest[0]]
		if !ok {
			return v.noBridge(command, args, rest[0])
		}
		key := rest[1]
		if res, ok := v.failTagKey[key]; ok {
			return v.fail(command, args, res, nil)
		}
		if len(rest) == 2 {
			delete(tags, key)
		} else {
			tags[key] = rest[2]
		}
		return executor.Result{}, nil
	}

	return v.fail(command, args, executor.Result{
		ExitCode: 1,
		Stderr:   fmt.Sprintf("ovs-vsctl: unknown command '%s'; use --help for help\n", sub),
	}, nil)
}

func (v *VSwitch) noBridge(command string, args []string, name string) (executor.Result, error) {
	return v.fail(command, args, executor.Result{
		ExitCode: 1,
		Stderr:   fmt.Sprintf("ovs-vsctl: no bridge named %s\n", name),
	}, nil)
}

func (v *VSwitch) usage(command string, args []string, sub string) (executor.Result, error) {
	return v.fail(command, args, executor.Result{
		ExitCode: 1,
		Stderr:   fmt.Sprintf("ovs-vsctl: '%s' command requires different arguments\n", sub),
	}, nil)
}

func (v *VSwitch) fail(command string, args []string, res executor.Result, cause error) (executor.Result, error) {
	return res, &executor.ExecutionFailure{
		Command:  command,
		Args:     slices.Clone(args),
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
		Err:      cause,
	}
}

// splitArgs separates leading options from the subcommand and its arguments.
func splitArgs(args []string) (opts []string, sub string, rest []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--") {
			opts = append(opts, arg)
			continue
		}
		return opts, arg, args[i+1:]
	}
	return opts, "", nil
}
