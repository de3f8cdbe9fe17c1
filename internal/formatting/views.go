package formatting

import (
	"sort"
	"strings"

	"bridgectl/internal/resource"
)

// ResultView is the printable form of a convergence result.
type ResultView struct {
	RunID       string   `json:"runId,omitempty" yaml:"runId,omitempty"`
	Type        string   `json:"type" yaml:"type"`
	Name        string   `json:"name" yaml:"name"`
	Outcome     string   `json:"outcome" yaml:"outcome"`
	State       string   `json:"state" yaml:"state"`
	Actions     []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	DriftedTags []string `json:"driftedTags,omitempty" yaml:"driftedTags,omitempty"`
	Duration    string   `json:"duration" yaml:"duration"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewResultView converts a result for display.
func NewResultView(runID string, r resource.Result) ResultView {
	return ResultView{
		RunID:       runID,
		Type:        r.Type,
		Name:        r.Name,
		Outcome:     string(r.Outcome),
		State:       string(r.State),
		Actions:     actionStrings(r.Actions),
		DriftedTags: r.DriftedTags,
		Duration:    formatDuration(r.Duration),
		Error:       r.Reason(),
	}
}

// PlanEntry lists the changes an apply would make to one resource.
type PlanEntry struct {
	Type    string   `json:"type" yaml:"type"`
	Name    string   `json:"name" yaml:"name"`
	Actions []string `json:"actions" yaml:"actions"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewPlanEntry builds a plan entry; err is the observation failure, if any.
func NewPlanEntry(typeName, name string, actions []resource.Action, err error) PlanEntry {
	entry := PlanEntry{Type: typeName, Name: name, Actions: actionStrings(actions)}
	if entry.Actions == nil {
		entry.Actions = []string{}
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

// CheckReport is the observed state of one resource.
type CheckReport struct {
	Type   string            `json:"type" yaml:"type"`
	Name   string            `json:"name" yaml:"name"`
	Exists bool              `json:"exists" yaml:"exists"`
	Tags   map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// TypeInfo describes a registered resource type.
type TypeInfo struct {
	Name      string `json:"name" yaml:"name"`
	Directory string `json:"directory" yaml:"directory"`
}

func actionStrings(actions []resource.Action) []string {
	if len(actions) == 0 {
		return nil
	}
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}

// formatTags renders tags as "k=v" pairs in key order.
func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + tags[k]
	}
	return strings.Join(pairs, ", ")
}
