package resource

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies a mutating step issued during convergence.
type ActionKind string

const (
	ActionCreate  ActionKind = "create"
	ActionDestroy ActionKind = "destroy"
	ActionSetTag  ActionKind = "set-tag"
)

// Action is one mutating step against the host.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	// Flags carries command flags such as "--may-exist".
	Flags []string `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Key and Value are set for ActionSetTag.
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// String renders the action for humans, e.g. "set-tag purpose=mgmt".
func (a Action) String() string {
	var parts []string
	parts = append(parts, string(a.Kind))
	parts = append(parts, a.Flags...)
	if a.Kind == ActionSetTag {
		parts = append(parts, a.Key+"="+a.Value)
	}
	return strings.Join(parts, " ")
}

// Outcome summarizes a convergence pass.
type Outcome string

const (
	// OutcomeSuccess means the resource converged (possibly with no changes).
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means some actions were applied before an error stopped the pass.
	OutcomePartial Outcome = "partial"
	// OutcomeFailure means the pass failed before any action was applied.
	OutcomeFailure Outcome = "failure"
)

// Result is the outcome of converging one resource.
type Result struct {
	Type    string   `json:"type" yaml:"type"`
	Name    string   `json:"name" yaml:"name"`
	Outcome Outcome  `json:"outcome" yaml:"outcome"`
	State   State    `json:"state" yaml:"state"`
	Actions []Action `json:"actions,omitempty" yaml:"actions,omitempty"`

	// DriftedTags lists tags whose observed value differs from the desired one.
	DriftedTags []string `json:"driftedTags,omitempty" yaml:"driftedTags,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
}

// Changed reports whether any action was applied.
func (r Result) Changed() bool {
	return len(r.Actions) > 0
}

// Reason returns the failure reason, or an empty string on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary renders a one-line description of the result.
func (r Result) Summary() string {
	switch {
	case r.Outcome == OutcomeSuccess && !r.Changed():
		return fmt.Sprintf("%s/%s: in sync (%s)", r.Type, r.Name, r.State)
	case r.Outcome == OutcomeSuccess:
		return fmt.Sprintf("%s/%s: converged with %d action(s) (%s)", r.Type, r.Name, len(r.Actions), r.State)
	default:
		return fmt.Sprintf("%s/%s: %s after %d action(s): %s", r.Type, r.Name, r.Outcome, len(r.Actions), r.Reason())
	}
}

// Finish sets the outcome from err and the number of applied actions.
func (r *Result) Finish(err error) {
	r.Err = err
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
	case len(r.Actions) > 0:
		r.Outcome = OutcomePartial
	default:
		r.Outcome = OutcomeFailure
	}
}
