package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

var (
	kindStyle  = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	spanStyle  = pterm.NewStyle(pterm.FgCyan)
	caretStyle = pterm.NewStyle(pterm.FgLightRed, pterm.Bold)
	gutter     = pterm.NewStyle(pterm.FgGray)
)

// Render writes err to w with terminal styling. Diagnostics get the source
// line and a caret when source is known; other errors are printed as is.
func Render(w io.Writer, err error, source string) {
	d, ok := AsDiagnostic(err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", kindStyle.Sprint("error:"), err)
		return
	}

	fmt.Fprintf(w, "%s %v\n", kindStyle.Sprint(d.Kind.String()+":"), err)

	if !d.Span.IsValid() {
		return
	}

	fmt.Fprintf(w, "  %s %s\n", gutter.Sprint("-->"), spanStyle.Sprint(d.Span.String()))

	lines := strings.Split(source, "\n")
	if source == "" || d.Span.Start.Line > len(lines) {
		return
	}

	line := lines[d.Span.Start.Line-1]

	col := d.Span.Start.Column
	if col < 1 {
		col = 1
	}

	fmt.Fprintf(w, "%s %s\n", gutter.Sprintf("%3d|", d.Span.Start.Line), line)
	fmt.Fprintf(w, "%s %s%s\n", gutter.Sprint("   |"), strings.Repeat(" ", col-1), caretStyle.Sprint("^"))
}
