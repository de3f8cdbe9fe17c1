package resource

import (
	"fmt"
	"maps"
	"strings"

	"bridgectl/internal/tagmap"
)

// State is the lifecycle state of a resource during one convergence pass.
type State string

const (
	// StateUnknown is the state every pass starts in; nothing has been observed yet.
	StateUnknown State = "Unknown"
	// StateAbsent means the resource does not exist on the host.
	StateAbsent State = "Absent"
	// StatePresent means the resource exists on the host.
	StatePresent State = "Present"
)

// Spec is the desired state of one resource.
//
// Name identifies the resource and never changes; a rename is a destroy of
// the old name followed by a create of the new one.
type Spec struct {
	// Name is the unique resource identifier, e.g. the bridge name.
	Name string `json:"name" yaml:"name"`

	// Present is true when the resource should exist.
	Present bool `json:"present" yaml:"present"`

	// Tags are identification key/value pairs that should be attached.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// AllowExisting makes creation idempotent: creating a resource that
	// already exists is not an error.
	AllowExisting bool `json:"allowExisting,omitempty" yaml:"allowExisting,omitempty"`
}

// Validate checks that the spec can be converged.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("resource name must not be empty")
	}
	if err := tagmap.Validate(s.Tags); err != nil {
		return fmt.Errorf("invalid tags for %s: %w", s.Name, err)
	}
	return nil
}

// Clone returns a copy of s that shares no map with it.
func (s Spec) Clone() Spec {
	out := s
	out.Tags = maps.Clone(s.Tags)
	return out
}

// Observed is the actual state of one resource, read fresh on every pass.
type Observed struct {
	Exists bool
	Tags   map[string]string
}

// State maps the observation to a lifecycle state.
func (o Observed) State() State {
	if o.Exists {
		return StatePresent
	}
	return StateAbsent
}

// TagsToAdd returns the entries of desired whose key is missing from observed.
//
// Tags are add-only: a key already present in observed is left untouched even
// when its value differs from desired. Converging therefore never rewrites a
// tag somebody else set.
func TagsToAdd(desired, observed map[string]string) map[string]string {
	add := make(map[string]string)
	for key, value := range desired {
		if _, exists := observed[key]; !exists {
			add[key] = value
		}
	}
	return add
}

// DriftedTags returns the keys present in both maps whose values differ.
// Convergence does not change them; they are reported for visibility only.
func DriftedTags(desired, observed map[string]string) []string {
	var keys []string
	for key, value := range desired {
		if current, exists := observed[key]; exists && current != value {
			keys = append(keys, key)
		}
	}
	return keys
}
