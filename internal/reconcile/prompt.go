package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks a human for a field value. ok is false when the operator
// declines (blank input) or the input stream is closed.
type Prompter interface {
	Ask(label string) (value string, ok bool)
}

// StdioPrompter reads answers line by line from an input stream, writing
// prompts to an output stream. Wire it to os.Stdin/os.Stderr for the
// --interactive flag.
type StdioPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewStdioPrompter creates a Prompter over the given streams.
func NewStdioPrompter(in io.Reader, out io.Writer) *StdioPrompter {
	return &StdioPrompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints the label and returns the operator's trimmed answer. A blank
// line skips the field.
func (p *StdioPrompter) Ask(label string) (string, bool) {
	fmt.Fprintf(p.out, "%s (enter to skip): ", label)
	if !p.in.Scan() {
		return "", false
	}
	val := strings.TrimSpace(p.in.Text())
	return val, val != ""
}
