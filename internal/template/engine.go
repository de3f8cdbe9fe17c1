package template

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	gotemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders manifest text through text/template with the sprig function map.
type Engine struct {
	funcs gotemplate.FuncMap

	actionPattern *regexp.Regexp
	// Pattern to match top-level field references like .Hostname inside an action
	fieldPattern *regexp.Regexp
}

// New creates a new template engine. Functions that read the host environment
// or produce non-deterministic output are left out so a manifest renders the
// same way on every pass.
func New() *Engine {
	funcs := sprig.TxtFuncMap()
	for _, name := range []string{"env", "expandenv", "randAlpha", "randAlphaNum", "randAscii", "randNumeric", "randBytes", "uuidv4"} {
		delete(funcs, name)
	}

	return &Engine{
		funcs:         funcs,
		actionPattern: regexp.MustCompile(`\{\{(.*?)\}\}`),
		fieldPattern:  regexp.MustCompile(`(?:^|[^A-Za-z0-9_)\]])\.([A-Za-z_][A-Za-z0-9_]*)`),
	}
}

// IsTemplate reports whether text contains template actions.
func IsTemplate(text string) bool {
	return strings.Contains(text, "{{")
}

// Render executes text as a template named name against data.
// Missing map keys are an error rather than "<no value>".
func (e *Engine) Render(name, text string, data any) ([]byte, error) {
	tmpl, err := gotemplate.New(name).
		Option("missingkey=error").
		Funcs(e.funcs).
		Parse(text)
	if err != nil {
		return nil, &RenderError{Name: name, Err: fmt.Errorf("parse: %w", err)}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, &RenderError{Name: name, Err: err}
	}
	return buf.Bytes(), nil
}

// RenderGoTemplate renders a single template string against ctx.
// Text without template actions is returned unchanged.
func (e *Engine) RenderGoTemplate(templateStr string, ctx map[string]any) (string, error) {
	if !IsTemplate(templateStr) {
		return templateStr, nil
	}
	out, err := e.Render("inline", templateStr, ctx)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ExtractVariables returns the top-level fields referenced by text, sorted.
func (e *Engine) ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	for _, action := range e.actionPattern.FindAllStringSubmatch(text, -1) {
		for _, match := range e.fieldPattern.FindAllStringSubmatch(action[1], -1) {
			seen[match[1]] = true
		}
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// ValidateContext ensures every top-level field referenced by text is present in ctx.
func (e *Engine) ValidateContext(text string, ctx map[string]any) error {
	var missingVars []string
	for _, name := range e.ExtractVariables(text) {
		if _, exists := ctx[name]; !exists {
			missingVars = append(missingVars, name)
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingVars, ", "))
	}
	return nil
}

// RenderError reports a template that failed to parse or execute.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template %s: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
