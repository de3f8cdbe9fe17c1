// Package formatting renders command output as tables, JSON or YAML.
//
// Commands build view values (ResultView, PlanEntry, CheckReport,
// history.Entry, TypeInfo) and hand them to a Formatter chosen from the
// --output flag. Structured formats encode the views as-is so scripts can
// consume them; table formats are meant for people.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"bridgectl/internal/history"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatPlain OutputFormat = "plain" // kubectl-style columns for grep and awk
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Formats lists the accepted values of --output.
var Formats = []OutputFormat{FormatTable, FormatPlain, FormatJSON, FormatYAML}

// ParseFormat validates an --output value.
func ParseFormat(s string) (OutputFormat, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unsupported output format %q (use one of: %s)", s, strings.Join(names, ", "))
}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	NoHeaders bool // Suppress the header row of table output
	Color     bool // Enable colored output
	Out       io.Writer
}

// Formatter renders the output of each command.
type Formatter interface {
	FormatResults(results []ResultView) error
	FormatPlan(entries []PlanEntry) error
	FormatCheck(reports []CheckReport) error
	FormatHistory(entries []history.Entry) error
	FormatTypes(types []TypeInfo) error
}

// New creates the formatter for options.Format. Output goes to stdout when
// options.Out is nil.
func New(options Options) Formatter {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatPlain:
		options.Color = false
		return NewTableFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
