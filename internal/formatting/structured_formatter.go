package formatting

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"bridgectl/internal/history"
)

// StructuredFormatter encodes views as JSON or YAML documents.
type StructuredFormatter struct {
	options Options
	encode  func(w io.Writer, v any) error
}

// NewJSONFormatter creates a formatter writing indented JSON.
func NewJSONFormatter(options Options) Formatter {
	return &StructuredFormatter{
		options: options,
		encode: func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}

// NewYAMLFormatter creates a formatter writing YAML.
func NewYAMLFormatter(options Options) Formatter {
	return &StructuredFormatter{
		options: options,
		encode: func(w io.Writer, v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// FormatResults writes {"results": [...]}.
func (f *StructuredFormatter) FormatResults(results []ResultView) error {
	if results == nil {
		results = []ResultView{}
	}
	return f.encode(f.options.Out, struct {
		Results []ResultView `json:"results" yaml:"results"`
	}{results})
}

// FormatPlan writes {"plan": [...]}.
func (f *StructuredFormatter) FormatPlan(entries []PlanEntry) error {
	if entries == nil {
		entries = []PlanEntry{}
	}
	return f.encode(f.options.Out, struct {
		Plan []PlanEntry `json:"plan" yaml:"plan"`
	}{entries})
}

// FormatCheck writes {"resources": [...]}.
func (f *StructuredFormatter) FormatCheck(reports []CheckReport) error {
	if reports == nil {
		reports = []CheckReport{}
	}
	return f.encode(f.options.Out, struct {
		Resources []CheckReport `json:"resources" yaml:"resources"`
	}{reports})
}

// FormatHistory writes {"runs": [...]}.
func (f *StructuredFormatter) FormatHistory(entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return f.encode(f.options.Out, struct {
		Runs []history.Entry `json:"runs" yaml:"runs"`
	}{entries})
}

// FormatTypes writes {"types": [...]}.
func (f *StructuredFormatter) FormatTypes(types []TypeInfo) error {
	if types == nil {
		types = []TypeInfo{}
	}
	return f.encode(f.options.Out, struct {
		Types []TypeInfo `json:"types" yaml:"types"`
	}{types})
}
