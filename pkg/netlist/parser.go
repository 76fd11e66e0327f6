package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Positional token counts per device variant.
const (
	transistorFields = 6 // name S D G B model
	diodeFields      = 4 // name PLUS MINUS model
)

// maxLineBytes bounds a single input line for the streaming reader.
const maxLineBytes = 1 << 20

// Parse reads netlist text from r and builds the document model. The
// whole parse fails on the first structural violation; the returned
// error wraps ErrMalformedNetlist or ErrMalformedDevice and names the
// offending line. A failed parse leaves no usable partial document.
func Parse(r io.Reader) (*Netlist, error) {
	p := newParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := p.feed(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %w", err)
	}
	return p.finish()
}

// ParseLines parses pre-split input lines. Lines may keep or omit their
// trailing newline.
func ParseLines(lines []string) (*Netlist, error) {
	p := newParser()
	for _, line := range lines {
		if err := p.feed(line); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

// parser is the line-oriented state machine behind Parse and
// ParseLines. It accumulates one block's pending state at a time and
// resets all of it whenever a terminator closes the block.
type parser struct {
	netlist *Netlist
	line    int // 1-based number of the line being classified

	// pending block state, cleared by reset at block close
	name        string
	description string
	equation    string
	pins        []string
	devices     []Device

	// block completeness, all four required before .ends
	hasDescription  bool
	hasEquation     bool
	hasSubcktHeader bool
	hasInstances    bool
}

func newParser() *parser {
	return &parser{netlist: NewNetlist()}
}

// feed classifies one raw line and applies it to the pending state.
// Prefixes are checked in priority order on the line as given, minus
// any trailing newline; leading whitespace is significant.
func (p *parser) feed(raw string) error {
	p.line++
	line := strings.TrimRight(raw, "\r\n")
	switch {
	case strings.HasPrefix(line, "*"):
		return p.comment(line)
	case strings.HasPrefix(line, ".subckt"):
		return p.header(line)
	case strings.HasPrefix(line, "M"):
		return p.transistor(line)
	case strings.HasPrefix(line, "D"):
		return p.diode(line)
	case strings.HasPrefix(line, ".ends"):
		return p.ends()
	case strings.TrimSpace(line) != "":
		return fmt.Errorf("%w: line %d: unrecognized line %q", ErrMalformedNetlist, p.line, line)
	}
	return nil
}

// finish runs the end-of-input check. Any pending block state means the
// input ended without a terminator. An empty document is valid.
func (p *parser) finish() (*Netlist, error) {
	if p.hasDescription || p.hasEquation || p.hasSubcktHeader || p.hasInstances {
		if p.name != "" {
			return nil, fmt.Errorf("%w: no terminator at end of file (cell %q still open)",
				ErrMalformedNetlist, p.name)
		}
		return nil, fmt.Errorf("%w: no terminator at end of file", ErrMalformedNetlist)
	}
	return p.netlist, nil
}

// comment handles metadata and free-form comment lines. Description and
// Equation comments begin a new block, so either arriving while the
// previous block still has an open header or instances means that block
// never saw its terminator. Comments matching neither keyword are
// accepted as no-ops wherever they appear.
func (p *parser) comment(line string) error {
	switch {
	case strings.Contains(line, "Description"):
		if err := p.checkTerminated(); err != nil {
			return err
		}
		p.description = metadataValue(line)
		p.hasDescription = true
	case strings.Contains(line, "Equation"):
		if err := p.checkTerminated(); err != nil {
			return err
		}
		p.equation = metadataValue(line)
		p.hasEquation = true
	}
	return nil
}

func (p *parser) header(line string) error {
	if err := p.checkTerminated(); err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("%w: line %d: .subckt line %q has no cell name", ErrMalformedNetlist, p.line, line)
	}
	p.name = fields[1]
	p.pins = fields[2:]
	p.hasSubcktHeader = true
	return nil
}

func (p *parser) transistor(line string) error {
	fields := strings.Fields(line)
	if len(fields) < transistorFields {
		return fmt.Errorf("%w: line %d: transistor line needs %d positional tokens (name S D G B model), got %d",
			ErrMalformedDevice, p.line, transistorFields, len(fields))
	}
	params, err := p.deviceParams(fields[transistorFields:])
	if err != nil {
		return err
	}
	p.devices = append(p.devices,
		NewTransistor(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], params...))
	p.hasInstances = true
	return nil
}

func (p *parser) diode(line string) error {
	fields := strings.Fields(line)
	if len(fields) < diodeFields {
		return fmt.Errorf("%w: line %d: diode line needs %d positional tokens (name PLUS MINUS model), got %d",
			ErrMalformedDevice, p.line, diodeFields, len(fields))
	}
	params, err := p.deviceParams(fields[diodeFields:])
	if err != nil {
		return err
	}
	p.devices = append(p.devices,
		NewDiode(fields[0], fields[1], fields[2], fields[3], params...))
	p.hasInstances = true
	return nil
}

// ends closes the current block. All four sections must have been seen
// or the error names the ones that were not.
func (p *parser) ends() error {
	if missing := p.missingSections(); len(missing) > 0 {
		return fmt.Errorf("%w: line %d: .ends for cell %q with missing %s",
			ErrMalformedNetlist, p.line, p.name, strings.Join(missing, ", "))
	}
	p.netlist.AddCell(NewCell(p.name, p.description, p.equation, p.pins, p.devices))
	p.reset()
	return nil
}

func (p *parser) missingSections() []string {
	var missing []string
	if !p.hasDescription {
		missing = append(missing, "description")
	}
	if !p.hasEquation {
		missing = append(missing, "equation")
	}
	if !p.hasSubcktHeader {
		missing = append(missing, ".subckt header")
	}
	if !p.hasInstances {
		missing = append(missing, "instances")
	}
	return missing
}

// checkTerminated fails when a metadata comment or a block header
// arrives while the previous block is still open.
func (p *parser) checkTerminated() error {
	if !p.hasSubcktHeader && !p.hasInstances {
		return nil
	}
	return fmt.Errorf("%w: line %d: cell %q has no .ends terminator", ErrMalformedNetlist, p.line, p.name)
}

// deviceParams parses the tokens after a device's positional fields.
// Each must be a single key=value pair with exactly one equals sign.
func (p *parser) deviceParams(tokens []string) ([]Param, error) {
	var params []Param
	for _, tok := range tokens {
		if strings.Count(tok, "=") != 1 {
			return nil, fmt.Errorf("%w: line %d: parameter %q is not a single key=value pair",
				ErrMalformedDevice, p.line, tok)
		}
		key, value, _ := strings.Cut(tok, "=")
		params = append(params, Param{Key: key, Value: value})
	}
	return params, nil
}

// metadataValue extracts the text after the first colon, trimmed. A
// line without a colon yields the whole line, trimmed.
func metadataValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	return strings.TrimSpace(parts[len(parts)-1])
}

// reset clears all pending block state. Called exactly once per closed
// block.
func (p *parser) reset() {
	p.name = ""
	p.description = ""
	p.equation = ""
	p.pins = nil
	p.devices = nil
	p.hasDescription = false
	p.hasEquation = false
	p.hasSubcktHeader = false
	p.hasInstances = false
}
