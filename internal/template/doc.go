// Package template renders manifest files before they are decoded.
//
// Manifests are Go text/template documents with the sprig function library
// available, minus the functions that read the environment directly or
// generate random values. The environment is exposed as data instead:
//
//	tags:
//	  host: '{{ .Hostname }}'
//	  rack: '{{ index .Env "RACK" | default "unknown" }}'
//	  name: '{{ .Name | upper }}'
//
// Referencing a missing key with field syntax fails the render; use index
// for optional environment variables.
package template
