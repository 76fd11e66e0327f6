package netlist

import (
	"fmt"
	"io"
	"strings"
)

// Lines renders the document in canonical netlist form, one string per
// output line without trailing newlines. Each cell emits its metadata
// comments, its .subckt header, its device lines, the terminator, and a
// separating blank line. The output parses back to a structurally
// equivalent document.
func (n *Netlist) Lines() []string {
	var lines []string
	for _, c := range n.cells {
		lines = append(lines,
			"*      Description : "+c.description,
			"*      Equation    : "+c.equation,
			".subckt "+c.name+" "+strings.Join(c.pins, " "),
		)
		for _, d := range c.instances {
			lines = append(lines, deviceLine(d))
		}
		lines = append(lines, ".ends", "")
	}
	return lines
}

// Write serializes the document to w, one line per output line.
func (n *Netlist) Write(w io.Writer) error {
	for _, line := range n.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing netlist: %w", err)
		}
	}
	return nil
}

// deviceLine strips the "<Kind>: " prefix from a device's display form,
// leaving the bare source-line shape the parser accepts.
func deviceLine(d Device) string {
	s := d.String()
	if _, rest, ok := strings.Cut(s, ":"); ok {
		s = rest
	}
	return strings.TrimSpace(s)
}
