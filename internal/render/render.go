// Package render formats result sets as text tables, markdown, CSV or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/askql/pkg/core"
)

// Formats accepted by Results.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Results writes rs to w in the given format. Unknown formats fall back to
// the box-drawn table.
func Results(w io.Writer, rs core.ResultSet, format string) error {
	switch format {
	case FormatJSON:
		return JSON(w, rs)
	case FormatCSV:
		return CSV(w, rs)
	case "md", FormatMarkdown:
		return Markdown(w, rs)
	default:
		return Table(w, rs)
	}
}

// Table renders a box-drawn table followed by a row count.
func Table(w io.Writer, rs core.ResultSet) error {
	if rs.Empty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newWriter(rs)
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return nil
}

// PlainString renders an ASCII table with headers and no row count, suitable
// for embedding in a model prompt.
func PlainString(rs core.ResultSet) string {
	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	t := newWriter(rs)
	t.SetStyle(style)
	return t.Render() + "\n"
}

func newWriter(rs core.ResultSet) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rs.Rows {
		row := make(table.Row, len(rs.Columns))
		for i, col := range rs.Columns {
			row[i] = FormatValue(r[col])
		}
		t.AppendRow(row)
	}
	return t
}

// JSON writes the rows as an indented JSON array of objects.
func JSON(w io.Writer, rs core.ResultSet) error {
	rows := rs.Rows
	if rows == nil {
		rows = []core.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// CSV writes a header line followed by one line per row.
func CSV(w io.Writer, rs core.ResultSet) error {
	_, _ = fmt.Fprintln(w, strings.Join(rs.Columns, ","))

	for _, r := range rs.Rows {
		values := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			values[i] = escapeCSV(FormatValue(r[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

// Markdown writes a GitHub-flavored markdown table.
func Markdown(w io.Writer, rs core.ResultSet) error {
	if rs.Empty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(rs.Columns, " | "))
	seps := make([]string, len(rs.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range rs.Rows {
		values := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			values[i] = strings.ReplaceAll(FormatValue(r[col]), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// FormatValue renders a single cell; nil becomes NULL.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
