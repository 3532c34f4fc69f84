package shell

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/arc-language/buildconf/pkg/console"
)

// Prompter asks the user to confirm or override discovered paths
type Prompter struct {
	in          *bufio.Reader
	out         *console.Printer
	interactive bool
}

// NewPrompter reads answers from in. Prompting is disabled when in is
// a file that is not a terminal.
func NewPrompter(in io.Reader, out *console.Printer) *Prompter {
	interactive := in != nil
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if in == nil {
		in = strings.NewReader("")
	}
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Interactive reports whether answers can be read
func (p *Prompter) Interactive() bool {
	return p.interactive
}

func (p *Prompter) readLine() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// AskPath lets the user accept candidate or type another path. Without
// ask (or without a terminal) the candidate is announced and returned.
func (p *Prompter) AskPath(candidate string, ask bool) string {
	if !ask || !p.interactive {
		if candidate != "" {
			p.out.Yellow("Using '%s'.", candidate)
		} else {
			p.out.Red("No alternative found in the system.")
		}
		return candidate
	}

	question := "type a path where to locate it"
	if candidate != "" {
		p.out.Yellow("Alternative found at '%s'.", candidate)
		question = "press [return] to use it or " + question
	} else {
		question += " or press [return] to continue"
	}
	p.out.Yellow("Please, %s: ", question)

	answer := p.readLine()
	if answer == "" {
		if candidate != "" {
			p.out.Green(" -> Using '%s'.", candidate)
		}
		return candidate
	}
	return answer
}

// Confirm asks a YES/no question. An empty answer means yes, and so
// does a non-interactive session.
func (p *Prompter) Confirm(question string) bool {
	if !p.interactive {
		return true
	}
	p.out.Yellow("%s [YES/no] ", question)
	switch strings.ToLower(p.readLine()) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}
