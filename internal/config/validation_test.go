package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBridgectlConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*BridgectlConfig)
		fields []string
	}{
		{
			name:   "defaults are valid",
			modify: func(*BridgectlConfig) {},
		},
		{
			name:   "negative timeout",
			modify: func(c *BridgectlConfig) { c.Vsctl.CommandTimeout = -time.Second },
			fields: []string{"vsctl.commandTimeout"},
		},
		{
			name:   "extra arg that is not an option",
			modify: func(c *BridgectlConfig) { c.Vsctl.ExtraArgs = []string{"--timeout=5", "br-exists"} },
			fields: []string{"vsctl.extraArgs[1]"},
		},
		{
			name:   "empty manifests path",
			modify: func(c *BridgectlConfig) { c.Manifests.Path = " " },
			fields: []string{"manifests.path"},
		},
		{
			name: "bad reconciler tuning",
			modify: func(c *BridgectlConfig) {
				c.Reconciler.MaxRetries = -1
				c.Reconciler.InitialBackoff = 0
				c.Reconciler.DebounceInterval = -1
				c.Reconciler.ResyncInterval = -1
				c.Reconciler.DisabledTypes = []string{""}
			},
			fields: []string{
				"reconciler.maxRetries",
				"reconciler.initialBackoff",
				"reconciler.debounceInterval",
				"reconciler.resyncInterval",
				"reconciler.disabledTypes[0]",
			},
		},
		{
			name:   "history enabled without path",
			modify: func(c *BridgectlConfig) { c.History.Path = "" },
			fields: []string{"history.path"},
		},
		{
			name: "history disabled without path",
			modify: func(c *BridgectlConfig) {
				c.History.Enabled = false
				c.History.Path = ""
			},
		},
		{
			name:   "empty log level falls back to default",
			modify: func(c *BridgectlConfig) { c.LogLevel = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig("/etc/bridgectl")
			tt.modify(&cfg)

			errs := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.False(t, errs.HasErrors(), errs.Error())
				return
			}
			assert.Equal(t, tt.fields, errs.Fields())
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "is required")
	assert.Equal(t, "field 'a': is required", errs.Error())

	errs.Add("", "something else")
	assert.Equal(t, "validation failed: field 'a': is required; something else", errs.Error())
}

func TestConfigurationError_Error(t *testing.T) {
	err := NewConfigurationError("/etc/bridgectl/config.yaml", "validation", "invalid configuration", ValidationErrors{{Field: "vsctl.path", Message: "is required"}})
	err.Suggestions = []string{"vsctl.path"}

	assert.Equal(t, "[validation] config.yaml: invalid configuration: field 'vsctl.path': is required", err.Error())
	detailed := err.DetailedError()
	assert.Contains(t, detailed, "File: /etc/bridgectl/config.yaml")
	assert.Contains(t, detailed, "- vsctl.path")

	bare := NewConfigurationError("/x/config.yaml", "io", "unreadable", nil)
	assert.Equal(t, "[io] config.yaml: unreadable", bare.Error())
}
