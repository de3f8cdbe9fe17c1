package template

import (
	"os"
	"strings"
)

// osHostname is a variable to allow mocking in tests
var osHostname = os.Hostname

// MergeContexts merges multiple contexts into a single context
// Later contexts override values from earlier contexts
func MergeContexts(contexts ...map[string]any) map[string]any {
	result := make(map[string]any)

	for _, ctx := range contexts {
		for key, value := range ctx {
			result[key] = value
		}
	}

	return result
}

// HostContext returns the values every manifest can reference:
// Hostname and Env (the process environment as a map).
func HostContext() (map[string]any, error) {
	hostname, err := osHostname()
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && key != "" {
			env[key] = value
		}
	}

	return map[string]any{
		"Hostname": hostname,
		"Env":      env,
	}, nil
}
