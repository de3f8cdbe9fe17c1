// Package manifest reads the desired state of resources from YAML files.
//
// A manifest describes exactly one resource:
//
//	type: ovs_bridge        # optional when implied by the directory
//	name: br-mgmt           # optional, defaults to the file name
//	ensure: present         # present | absent, defaults to present
//	allowExisting: true
//	tags:
//	  purpose: mgmt
//	  host: '{{ .Hostname }}'
//
// Files are rendered with the template package before decoding, and decoding
// is strict: unknown fields are an error.
//
// The Store lays manifests out as <root>/<type-dir>/<name>.yaml, where the
// bridges directory holds ovs_bridge resources. A missing file means "no
// opinion" about a resource; only ensure: absent requests removal.
package manifest
