package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Printer renders command results as tables or JSON.
type Printer struct {
	w      io.Writer
	format string
}

// NewPrinter validates format and returns a Printer writing to w.
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case "", FormatTable:
		format = FormatTable
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format %q (want table or json)", format)
	}
	return &Printer{w: w, format: format}, nil
}

// JSONMode reports whether output is JSON.
func (p *Printer) JSONMode() bool { return p.format == FormatJSON }

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Render writes v as JSON in JSON mode, otherwise calls table.
func (p *Printer) Render(v any, table func() error) error {
	if p.JSONMode() {
		return p.JSON(v)
	}
	return table()
}

// Table renders a plain table.
func (p *Printer) Table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// KeyValues renders two-column name/value rows.
func (p *Printer) KeyValues(pairs [][2]string) {
	rows := make([]table.Row, 0, len(pairs))
	for _, kv := range pairs {
		rows = append(rows, table.Row{kv[0], kv[1]})
	}
	p.Table(table.Row{"Field", "Value"}, rows)
}

// Message writes a line in table mode and nothing in JSON mode.
func (p *Printer) Message(format string, args ...any) {
	if p.JSONMode() {
		return
	}
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Diagnosis renders findings and returns ErrUnhealthy when any failed.
func (p *Printer) Diagnosis(d *domain.Diagnosis) error {
	err := p.Render(d, func() error {
		title := d.Resource
		if d.Name != "" {
			title += " " + d.Name
		}
		_, _ = fmt.Fprintf(p.w, "Diagnosis for %s\n", title)

		rows := make([]table.Row, 0, len(d.Findings))
		for _, f := range d.Findings {
			rows = append(rows, table.Row{f.Check, severityLabel(f.Severity), f.Message})
		}
		p.Table(table.Row{"Check", "Result", "Details"}, rows)
		return nil
	})
	if err != nil {
		return err
	}
	if !d.Healthy() {
		return ErrUnhealthy
	}
	return nil
}

func severityLabel(s domain.Severity) string {
	switch s {
	case domain.SeverityFail:
		return text.FgRed.Sprint("FAIL")
	case domain.SeverityWarn:
		return text.FgYellow.Sprint("WARN")
	default:
		return text.FgGreen.Sprint("OK")
	}
}

// JoinOrDash joins values, or returns "-" when there are none.
func JoinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

// OrDash returns s, or "-" when s is empty.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
