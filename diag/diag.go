// Package diag defines the diagnostics reported when building or transforming
// a module fails.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"tlog.app/go/loc"
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	// BuilderFailure is an input tree the builder cannot lower.
	BuilderFailure Kind = iota + 1
	// TransformFailure is an IR shape a transform cannot legalize.
	TransformFailure
)

func (k Kind) String() string {
	switch k {
	case BuilderFailure:
		return "builder failure"
	case TransformFailure:
		return "transform failure"
	default:
		return "error"
	}
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span is a source range. The zero Span means "unknown".
type Span struct {
	Start  Position
	End    Position
	Source string // Source file name or identifier
}

// IsValid reports whether the span points somewhere.
func (s Span) IsValid() bool { return s.Start.Line > 0 }

func (s Span) String() string {
	if !s.IsValid() {
		return ""
	}

	if s.Source != "" {
		return fmt.Sprintf("%s:%d:%d", s.Source, s.Start.Line, s.Start.Column)
	}

	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

// Diagnostic is a recoverable failure of a module build.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span

	// Pass names the transform that reported a TransformFailure.
	Pass string

	// Origin is where in the compiler the diagnostic was raised.
	Origin loc.PC
}

// Errorf returns a diagnostic of the given kind.
func Errorf(kind Kind, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		Origin:  loc.Caller(1),
	}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var sb strings.Builder

	if d.Span.IsValid() {
		sb.WriteString(d.Span.String())
		sb.WriteString(": ")
	}

	if d.Pass != "" {
		fmt.Fprintf(&sb, "%s: ", d.Pass)
	}

	sb.WriteString(d.Message)

	return sb.String()
}

// FormatWithContext returns the message with the source line it points at
// and a caret under the column.
func (d *Diagnostic) FormatWithContext(source string) string {
	if source == "" || !d.Span.IsValid() {
		return fmt.Sprintf("%v: %s\n", d.Kind, d.Error())
	}

	lines := strings.Split(source, "\n")
	lineNum := d.Span.Start.Line

	if lineNum > len(lines) {
		return fmt.Sprintf("%v: %s\n", d.Kind, d.Error())
	}

	line := lines[lineNum-1]

	col := d.Span.Start.Column
	if col < 1 {
		col = 1
	}

	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%v: %s\n", d.Kind, d.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))

	return sb.String()
}

// AsDiagnostic finds the first Diagnostic in err's chain.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}

	return nil, false
}

// List collects diagnostics.
type List []*Diagnostic

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}

	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Add appends d.
func (l *List) Add(d *Diagnostic) { *l = append(*l, d) }

// HasErrors reports whether the list is not empty.
func (l List) HasErrors() bool { return len(l) > 0 }

// FormatAll formats every diagnostic with context.
func (l List) FormatAll(source string) string {
	var sb strings.Builder

	for i, d := range l {
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(d.FormatWithContext(source))
	}

	return sb.String()
}
