// Package report renders conversion results and history for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/spicery/jsconvert/pkg/catalog"
	"github.com/spicery/jsconvert/pkg/manifest"
	"github.com/spicery/jsconvert/pkg/transpiler"
)

// Printer writes reports, coloured or plain.
type Printer struct {
	w      io.Writer
	ok     *color.Color
	warn   *color.Color
	fail   *color.Color
	muted  *color.Color
	header *color.Color
}

func NewPrinter(w io.Writer, colors bool) *Printer {
	p := &Printer{
		w:      w,
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed),
		muted:  color.New(color.FgHiBlack),
		header: color.New(color.Bold),
	}
	if !colors {
		for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.muted, p.header} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) status(s transpiler.Status) string {
	switch s {
	case transpiler.StatusOK:
		return p.ok.Sprint(s)
	case transpiler.StatusSkipped, transpiler.StatusUnchanged:
		return p.muted.Sprint(s)
	case transpiler.StatusCanceled:
		return p.warn.Sprint(s)
	default:
		return p.fail.Sprint(s)
	}
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

// Batch writes one row per unit followed by a summary line.
func (p *Printer) Batch(results []*transpiler.Result) {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Input", "Status", "Output", "Size", "Time", "Passthrough"})
	for _, r := range results {
		output := r.Output
		if !r.OK() {
			output = ""
		}
		tbl.AppendRow(table.Row{
			r.Input,
			p.status(r.Status),
			output,
			humanize.Bytes(uint64(r.OutputBytes)),
			r.Duration.Round(time.Microsecond),
			r.PassThroughs(),
		})
	}
	fmt.Fprintln(p.w, tbl.Render())
	p.Summary(transpiler.Summarize(results))
}

func (p *Printer) Summary(s transpiler.Summary) {
	parts := []string{p.ok.Sprintf("%d ok", s.ByStatus[transpiler.StatusOK])}
	for _, status := range []transpiler.Status{
		transpiler.StatusUnchanged, transpiler.StatusSkipped, transpiler.StatusCanceled, transpiler.StatusFailed,
	} {
		if n := s.ByStatus[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, p.status(status)))
		}
	}
	fmt.Fprintf(p.w, "%s %s: %s, %s in, %s out, %d passed through\n",
		p.header.Sprint(s.Total),
		plural(s.Total, "unit", "units"),
		strings.Join(parts, ", "),
		humanize.Bytes(uint64(s.InputBytes)),
		humanize.Bytes(uint64(s.OutputBytes)),
		s.PassThroughs,
	)
}

// Failures lists the error of every unit that did not convert.
func (p *Printer) Failures(results []*transpiler.Result) {
	for _, r := range results {
		if r.Err == nil || r.Status == transpiler.StatusSkipped {
			continue
		}
		fmt.Fprintf(p.w, "%s %s: %v\n", p.fail.Sprint("error"), r.Input, r.Err)
	}
}

// Diagnostics lists the diagnostics of every unit, grouped by unit.
func (p *Printer) Diagnostics(results []*transpiler.Result) {
	for _, r := range results {
		if len(r.Diagnostics) == 0 {
			continue
		}
		name := r.Name
		if name == "" {
			name = "<input>"
		}
		fmt.Fprintln(p.w, p.header.Sprint(name))
		for _, d := range r.Diagnostics {
			fmt.Fprintf(p.w, "  %s %s\n", p.warn.Sprintf("%d:%d", d.Span.StartLine, d.Span.StartColumn), d.Message)
			if d.Excerpt != "" {
				fmt.Fprintf(p.w, "    %s\n", p.muted.Sprint(d.Excerpt))
			}
		}
	}
}

// Runs writes the recorded runs, newest first.
func (p *Printer) Runs(runs []manifest.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, p.muted.Sprint("no runs recorded"))
		return
	}
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Run", "Catalog", "Started", "Took", "Units", "Failures", "Passthrough"})
	for _, run := range runs {
		failures := fmt.Sprint(run.Failures)
		if run.Failures > 0 {
			failures = p.fail.Sprint(run.Failures)
		}
		tbl.AppendRow(table.Row{
			run.ID,
			run.Catalog,
			humanize.Time(run.StartedAt),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
			run.Units,
			failures,
			run.PassThroughs,
		})
	}
	fmt.Fprintln(p.w, tbl.Render())
}

// Units writes the units of one run.
func (p *Printer) Units(units []manifest.Unit) {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Path", "Status", "Size", "Passthrough", "Error"})
	for _, u := range units {
		tbl.AppendRow(table.Row{
			u.Path,
			p.status(transpiler.Status(u.Status)),
			humanize.Bytes(uint64(u.OutputSize)),
			u.PassThroughs,
			u.Error,
		})
	}
	fmt.Fprintln(p.w, tbl.Render())
}

// Catalogs writes one row per catalog.
func (p *Printer) Catalogs(catalogs []catalog.Catalog) {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Catalog", "Input", "Output", "Description"})
	for _, c := range catalogs {
		ext := c.Extensions()
		tbl.AppendRow(table.Row{p.header.Sprint(c.Name()), ext.Input, ext.Output, c.Description()})
	}
	fmt.Fprintln(p.w, tbl.Render())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
