package bridge

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"bridgectl/internal/executor"
	"bridgectl/internal/resource"
	"bridgectl/internal/tagmap"
	"bridgectl/pkg/logging"
)

const (
	// TypeName is the resource type handled by this package.
	TypeName = "ovs_bridge"

	// DefaultVsctlPath is where ovs-vsctl is installed on most distributions.
	DefaultVsctlPath = "/usr/bin/ovs-vsctl"

	bridgeSubsystem = "BridgeReconciler"
)

// ovs-vsctl vocabulary
const (
	cmdBridgeExists  = "br-exists"
	cmdAddBridge     = "add-br"
	cmdDelBridge     = "del-br"
	cmdGetExternalID = "br-get-external-id"
	cmdSetExternalID = "br-set-external-id"

	flagMayExist = "--may-exist"

	noBridgeMessage = "no bridge named"
)

// Reconciler converges Open vSwitch bridges.
type Reconciler struct {
	tool *executor.Tool
}

// New creates a bridge reconciler that drives ovs-vsctl through tool.
func New(tool *executor.Tool) *Reconciler {
	return &Reconciler{tool: tool}
}

// Exists reports whether the bridge exists. A non-zero br-exists exit is "no".
func (r *Reconciler) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := r.tool.Query(ctx, cmdBridgeExists, name)
	if err != nil {
		return false, fmt.Errorf("failed to query bridge %s: %w", name, err)
	}
	return exists, nil
}

// Tags returns the external ids of an existing bridge.
func (r *Reconciler) Tags(ctx context.Context, name string) (map[string]string, error) {
	res, err := r.tool.Run(ctx, cmdGetExternalID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read external ids of %s: %w", name, err)
	}

	tags, err := tagmap.DecodeLines(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse external ids of %s: %w", name, err)
	}
	return tags, nil
}

// Observe reads the current state of a bridge.
func (r *Reconciler) Observe(ctx context.Context, name string) (resource.Observed, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil || !exists {
		return resource.Observed{}, err
	}

	tags, err := r.Tags(ctx, name)
	if err != nil {
		return resource.Observed{}, err
	}
	return resource.Observed{Exists: true, Tags: tags}, nil
}

// Create adds the bridge. With mayExist the call succeeds when the bridge already exists.
func (r *Reconciler) Create(ctx context.Context, name string, mayExist bool) error {
	args := []string{cmdAddBridge, name}
	if mayExist {
		// Command options precede the command name in ovs-vsctl's grammar.
		args = append([]string{flagMayExist}, args...)
	}

	if _, err := r.tool.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to create bridge %s: %w", name, err)
	}
	return nil
}

// Destroy deletes the bridge. It returns false without error when the bridge
// was already gone.
func (r *Reconciler) Destroy(ctx context.Context, name string) (bool, error) {
	if _, err := r.tool.Run(ctx, cmdDelBridge, name); err != nil {
		if isNoBridge(err) {
			logging.Debug(bridgeSubsystem, "Bridge %s already absent, nothing to delete", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to delete bridge %s: %w", name, err)
	}
	return true, nil
}

// SetTag sets one external id on the bridge.
func (r *Reconciler) SetTag(ctx context.Context, name, key, value string) error {
	if _, err := r.tool.Run(ctx, cmdSetExternalID, name, key, value); err != nil {
		return fmt.Errorf("failed to set external id %s on %s: %w", key, name, err)
	}
	return nil
}

// Plan observes the bridge and returns the state-changing actions Converge
// would apply, without applying them.
func (r *Reconciler) Plan(ctx context.Context, spec resource.Spec) ([]resource.Action, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	exists, err := r.Exists(ctx, spec.Name)
	if err != nil {
		return nil, err
	}

	var actions []resource.Action
	switch {
	case !spec.Present && exists:
		actions = append(actions, resource.Action{Kind: resource.ActionDestroy})

	case spec.Present:
		observed := map[string]string{}
		if !exists {
			actions = append(actions, createAction(spec.AllowExisting))
		} else if len(spec.Tags) > 0 {
			if observed, err = r.Tags(ctx, spec.Name); err != nil {
				return nil, err
			}
		}
		actions = append(actions, setTagActions(resource.TagsToAdd(spec.Tags, observed))...)
	}

	return actions, nil
}

// Converge drives the bridge toward spec and reports what it did.
func (r *Reconciler) Converge(ctx context.Context, spec resource.Spec) (result resource.Result) {
	start := time.Now()
	result = resource.Result{
		Type:  TypeName,
		Name:  spec.Name,
		State: resource.StateUnknown,
	}
	defer func() {
		result.Duration = time.Since(start)
	}()

	if err := spec.Validate(); err != nil {
		result.Finish(err)
		return result
	}

	exists, err := r.Exists(ctx, spec.Name)
	if err != nil {
		result.Finish(err)
		return result
	}
	result.State = resource.Observed{Exists: exists}.State()
	logging.Debug(bridgeSubsystem, "Bridge %s observed %s, want present=%t", spec.Name, result.State, spec.Present)

	switch {
	case !spec.Present && !exists:
		// Already converged.

	case !spec.Present && exists:
		removed, err := r.Destroy(ctx, spec.Name)
		if removed || err != nil {
			r.audit(ctx, spec.Name, resource.Action{Kind: resource.ActionDestroy}, err)
		}
		if err != nil {
			result.Finish(err)
			return result
		}
		if removed {
			result.Actions = append(result.Actions, resource.Action{Kind: resource.ActionDestroy})
		}
		result.State = resource.StateAbsent

	default:
		if err := r.convergePresent(ctx, spec, exists, &result); err != nil {
			result.Finish(err)
			return result
		}
	}

	result.Finish(nil)
	logging.Debug(bridgeSubsystem, "%s", result.Summary())
	return result
}

// convergePresent ensures the bridge exists and carries the desired tags.
func (r *Reconciler) convergePresent(ctx context.Context, spec resource.Spec, exists bool, result *resource.Result) error {
	freshlyCreated := false

	if !exists || spec.AllowExisting {
		action := createAction(spec.AllowExisting)
		err := r.Create(ctx, spec.Name, spec.AllowExisting)
		if !exists {
			r.audit(ctx, spec.Name, action, err)
		}
		if err != nil {
			return err
		}
		if !exists {
			result.Actions = append(result.Actions, action)
			// A plain add-br only succeeds for a new bridge, which has no external ids yet.
			freshlyCreated = !spec.AllowExisting
		}
		result.State = resource.StatePresent
	}

	if len(spec.Tags) == 0 {
		return nil
	}

	observed := map[string]string{}
	if !freshlyCreated {
		tags, err := r.Tags(ctx, spec.Name)
		if err != nil {
			return err
		}
		observed = tags
	}

	if drifted := resource.DriftedTags(spec.Tags, observed); len(drifted) > 0 {
		slices.Sort(drifted)
		result.DriftedTags = drifted
		logging.Warn(bridgeSubsystem, "Bridge %s has external ids differing from the manifest, left unchanged: %s",
			spec.Name, strings.Join(drifted, ", "))
	}

	for _, action := range setTagActions(resource.TagsToAdd(spec.Tags, observed)) {
		err := r.SetTag(ctx, spec.Name, action.Key, action.Value)
		r.audit(ctx, spec.Name, action, err)
		if err != nil {
			return err
		}
		result.Actions = append(result.Actions, action)
	}

	return nil
}

func (r *Reconciler) audit(ctx context.Context, name string, action resource.Action, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	detail := strings.Join(action.Flags, " ")
	if action.Kind == resource.ActionSetTag {
		detail = action.Key
	}
	logging.Action(logging.ActionEvent{
		RunID:        resource.RunIDFrom(ctx),
		ResourceType: TypeName,
		Resource:     name,
		Action:       string(action.Kind),
		Outcome:      outcome,
		Detail:       detail,
	})
}

func createAction(mayExist bool) resource.Action {
	action := resource.Action{Kind: resource.ActionCreate}
	if mayExist {
		action.Flags = []string{flagMayExist}
	}
	return action
}

func setTagActions(tags map[string]string) []resource.Action {
	actions := make([]resource.Action, 0, len(tags))
	for _, key := range slices.Sorted(maps.Keys(tags)) {
		actions = append(actions, resource.Action{Kind: resource.ActionSetTag, Key: key, Value: tags[key]})
	}
	return actions
}

// isNoBridge reports whether err is ovs-vsctl complaining that the bridge does not exist.
func isNoBridge(err error) bool {
	failure, ok := executor.AsExecutionFailure(err)
	return ok && failure.Exited() && strings.Contains(failure.Stderr, noBridgeMessage)
}
