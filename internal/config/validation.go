package config

import (
	"fmt"
	"strings"

	"bridgectl/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Fields returns the names of the offending fields
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for _, err := range ve {
		fields = append(fields, err.Field)
	}
	return fields
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the whole configuration and collects every problem found.
func (c BridgectlConfig) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(c.Vsctl.Path) == "" {
		errs.Add("vsctl.path", "is required")
	}
	if c.Vsctl.CommandTimeout < 0 {
		errs.Add("vsctl.commandTimeout", "must not be negative", c.Vsctl.CommandTimeout)
	}
	for i, arg := range c.Vsctl.ExtraArgs {
		if !strings.HasPrefix(arg, "--") {
			errs.Add(fmt.Sprintf("vsctl.extraArgs[%d]", i), "must be a global option starting with --", arg)
		}
	}

	if strings.TrimSpace(c.Manifests.Path) == "" {
		errs.Add("manifests.path", "is required")
	}

	r := c.Reconciler
	if r.Workers < 1 {
		errs.Add("reconciler.workers", "must be at least 1", r.Workers)
	}
	if r.MaxRetries < 0 {
		errs.Add("reconciler.maxRetries", "must not be negative", r.MaxRetries)
	}
	if r.InitialBackoff <= 0 {
		errs.Add("reconciler.initialBackoff", "must be positive", r.InitialBackoff)
	}
	if r.MaxBackoff < r.InitialBackoff {
		errs.Add("reconciler.maxBackoff", "must not be smaller than initialBackoff", r.MaxBackoff)
	}
	if r.DebounceInterval < 0 {
		errs.Add("reconciler.debounceInterval", "must not be negative", r.DebounceInterval)
	}
	if r.ResyncInterval < 0 {
		errs.Add("reconciler.resyncInterval", "must not be negative", r.ResyncInterval)
	}
	for i, typeName := range r.DisabledTypes {
		if strings.TrimSpace(typeName) == "" {
			errs.Add(fmt.Sprintf("reconciler.disabledTypes[%d]", i), "must not be empty")
		}
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		errs.Add("history.path", "is required when history is enabled")
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			errs.Add("logLevel", err.Error(), c.LogLevel)
		}
	}

	return errs
}
