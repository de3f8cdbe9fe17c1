package formatting

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bridgectl/internal/history"
	"bridgectl/internal/resource"
)

const maxErrorWidth = 60

// TableFormatter renders rounded go-pretty tables, or plain columns when
// Options.Format is FormatPlain.
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// FormatResults prints one row per resource followed by a tally.
func (f *TableFormatter) FormatResults(results []ResultView) error {
	if len(results) == 0 {
		f.formatEmptyMessage("📋", "No resources to apply")
		return nil
	}

	var changed, inSync, failed int
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		switch {
		case r.Outcome != string(resource.OutcomeSuccess):
			failed++
		case len(r.Actions) > 0:
			changed++
		default:
			inSync++
		}
		rows = append(rows, []string{
			r.Type,
			r.Name,
			f.outcome(r.Outcome),
			r.State,
			joinOrDash(r.Actions, "; "),
			joinOrDash(r.DriftedTags, ", "),
			r.Duration,
			truncate(dashIfEmpty(r.Error), maxErrorWidth),
		})
	}

	f.render(
		[]string{"Type", "Name", "Outcome", "State", "Actions", "Drifted", "Duration", "Error"},
		rows,
		fmt.Sprintf("%d resource(s): %d changed, %d in sync, %d failed", len(results), changed, inSync, failed),
	)
	return nil
}

// FormatPlan prints the pending actions of each resource.
func (f *TableFormatter) FormatPlan(entries []PlanEntry) error {
	if len(entries) == 0 {
		f.formatEmptyMessage("📋", "No resources to plan")
		return nil
	}

	pending := 0
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		actions := "no changes"
		if len(e.Actions) > 0 {
			actions = f.color(text.FgYellow, strings.Join(e.Actions, "; "))
			pending++
		}
		if e.Error != "" {
			actions = f.color(text.FgRed, "error: "+truncate(e.Error, maxErrorWidth))
		}
		rows = append(rows, []string{e.Type, e.Name, actions})
	}

	f.render(
		[]string{"Type", "Name", "Actions"},
		rows,
		fmt.Sprintf("%d of %d resource(s) would change", pending, len(entries)),
	)
	return nil
}

// FormatCheck prints existence and tags of each resource.
func (f *TableFormatter) FormatCheck(reports []CheckReport) error {
	if len(reports) == 0 {
		f.formatEmptyMessage("📋", "No resources to check")
		return nil
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		exists := f.color(text.FgRed, "no")
		if r.Exists {
			exists = f.color(text.FgGreen, "yes")
		}
		tags := formatTags(r.Tags)
		if r.Error != "" {
			exists = f.color(text.FgRed, "unknown")
			tags = truncate(r.Error, maxErrorWidth)
		}
		rows = append(rows, []string{r.Type, r.Name, exists, tags})
	}

	f.render([]string{"Type", "Name", "Exists", "Tags"}, rows, "")
	return nil
}

// FormatHistory prints recorded runs, newest first.
func (f *TableFormatter) FormatHistory(entries []history.Entry) error {
	if len(entries) == 0 {
		f.formatEmptyMessage("📋", "No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.StartedAt.Local().Format(time.DateTime),
			shortRunID(e.RunID),
			e.Type,
			e.Name,
			f.outcome(e.Outcome),
			joinOrDash(e.Actions, "; "),
			formatDuration(e.Duration()),
			truncate(dashIfEmpty(e.Error), maxErrorWidth),
		})
	}

	f.render([]string{"Started", "Run", "Type", "Name", "Outcome", "Actions", "Duration", "Error"}, rows, "")
	return nil
}

// FormatTypes prints the registered resource types and their manifest directories.
func (f *TableFormatter) FormatTypes(types []TypeInfo) error {
	if len(types) == 0 {
		f.formatEmptyMessage("📋", "No resource types registered")
		return nil
	}

	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{t.Name, t.Directory + "/"})
	}
	f.render([]string{"Type", "Directory"}, rows, "")
	return nil
}

// render writes headers and rows in the configured table style. footer is
// printed below the table unless empty.
func (f *TableFormatter) render(headers []string, rows [][]string, footer string) {
	if f.options.Format == FormatPlain {
		w := NewPlainTableWriter(f.options.Out)
		w.SetHeaders(headers)
		w.SetNoHeaders(f.options.NoHeaders)
		for _, row := range rows {
			w.AppendRow(row)
		}
		w.Render()
		return
	}

	t := f.createTable()
	if !f.options.NoHeaders {
		header := make(table.Row, len(headers))
		for i, h := range headers {
			header[i] = f.color(text.FgHiCyan, strings.ToUpper(h))
		}
		t.AppendHeader(header)
	}
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}
	t.Render()

	if footer != "" {
		fmt.Fprintf(f.options.Out, "%s\n", f.color(text.FgHiBlue, footer))
	}
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

// formatEmptyMessage prints a note instead of an empty table.
func (f *TableFormatter) formatEmptyMessage(icon, message string) {
	if f.options.Format == FormatPlain {
		return
	}
	fmt.Fprintf(f.options.Out, "%s %s\n", f.color(text.FgYellow, icon), f.color(text.FgYellow, message))
}

func (f *TableFormatter) outcome(outcome string) string {
	switch resource.Outcome(outcome) {
	case resource.OutcomeSuccess:
		return f.color(text.FgGreen, outcome)
	case resource.OutcomePartial:
		return f.color(text.FgYellow, outcome)
	default:
		return f.color(text.FgRed, outcome)
	}
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func joinOrDash(items []string, sep string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, sep)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
