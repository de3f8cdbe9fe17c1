package manifest

import (
	"fmt"
	"maps"

	"bridgectl/internal/resource"
)

// Ensure is the desired presence of a resource.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Manifest is the desired state of one resource as written on disk.
type Manifest struct {
	Type          string            `json:"type,omitempty"`
	Name          string            `json:"name"`
	Ensure        Ensure            `json:"ensure,omitempty"`
	AllowExisting bool              `json:"allowExisting,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`

	// Source is the file the manifest was read from.
	Source string `json:"-"`
}

// Key identifies the manifest across types, e.g. "ovs_bridge/br0".
func (m Manifest) Key() string {
	return m.Type + "/" + m.Name
}

// Spec converts the manifest into the reconciler input.
func (m Manifest) Spec() resource.Spec {
	return resource.Spec{
		Name:          m.Name,
		Present:       m.Ensure != EnsureAbsent,
		Tags:          maps.Clone(m.Tags),
		AllowExisting: m.AllowExisting,
	}
}

// FromSpec builds a manifest for typeName from spec.
func FromSpec(typeName string, spec resource.Spec) Manifest {
	ensure := EnsurePresent
	if !spec.Present {
		ensure = EnsureAbsent
	}
	return Manifest{
		Type:          typeName,
		Name:          spec.Name,
		Ensure:        ensure,
		AllowExisting: spec.AllowExisting,
		Tags:          maps.Clone(spec.Tags),
	}
}

// Validate applies defaults and checks required fields.
func (m *Manifest) Validate() error {
	if m.Ensure == "" {
		m.Ensure = EnsurePresent
	}
	if m.Type == "" {
		return fmt.Errorf("type is required")
	}
	switch m.Ensure {
	case EnsurePresent, EnsureAbsent:
	default:
		return fmt.Errorf("ensure must be %q or %q, got %q", EnsurePresent, EnsureAbsent, m.Ensure)
	}
	return m.Spec().Validate()
}
