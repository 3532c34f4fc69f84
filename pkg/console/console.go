// Package console prints the colored, user-facing diagnostics of a
// configuration run. Structured logs go through zerolog instead.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
)

// Printer writes colored lines to Out
type Printer struct {
	Out io.Writer
}

// New returns a Printer writing to w, or to stdout when w is nil
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{Out: w}
}

// Discard returns a Printer that drops everything
func Discard() *Printer {
	return &Printer{Out: io.Discard}
}

func (p *Printer) Plain(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, fmt.Sprintf(format, args...))
}

// Red is used for failures and remediation hints
func (p *Printer) Red(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, color.Red.Sprintf(format, args...))
}

// Green is used for detections
func (p *Printer) Green(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, color.Green.Sprintf(format, args...))
}

// Yellow is used for warnings and fallbacks
func (p *Printer) Yellow(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, color.Yellow.Sprintf(format, args...))
}

func (p *Printer) Blue(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, color.Blue.Sprintf(format, args...))
}

// Lines prints captured command output verbatim
func (p *Printer) Lines(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(p.Out, l)
	}
}
