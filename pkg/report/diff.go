package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff compares two texts line by line. Every line of the result is
// prefixed with ' ', '-' or '+'. Equal texts give "".
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// Diff writes a coloured LineDiff under a header naming both sides.
func (p *Printer) Diff(beforeName, afterName, before, after string) bool {
	diff := LineDiff(before, after)
	if diff == "" {
		fmt.Fprintln(p.w, p.ok.Sprintf("%s and %s are identical", beforeName, afterName))
		return false
	}
	fmt.Fprintln(p.w, p.header.Sprintf("--- %s", beforeName))
	fmt.Fprintln(p.w, p.header.Sprintf("+++ %s", afterName))
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "-"):
			p.fail.Fprint(p.w, line)
		case strings.HasPrefix(line, "+"):
			p.ok.Fprint(p.w, line)
		default:
			fmt.Fprint(p.w, line)
		}
	}
	return true
}
