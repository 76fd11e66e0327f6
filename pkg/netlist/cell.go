package netlist

import (
	"fmt"
	"strings"
)

// Cell is one subcircuit block: header metadata, the declared pin
// interface, and the device instances wired inside it.
type Cell struct {
	name        string
	description string
	equation    string
	pins        []string
	instances   []Device
}

// NewCell builds a cell from parsed parts. The instance slice is deep
// copied, so the caller may reuse or clear its source list without
// affecting the cell. The initial pin order is stored as given; only
// SetPinOrder validates pins against wired terminals, because a block
// header declares its pins before any instance line has been seen.
func NewCell(name, description, equation string, pinOrder []string, instances []Device) *Cell {
	pins := make([]string, len(pinOrder))
	copy(pins, pinOrder)
	devices := make([]Device, len(instances))
	for i, d := range instances {
		devices[i] = d.clone()
	}
	return &Cell{
		name:        name,
		description: description,
		equation:    equation,
		pins:        pins,
		instances:   devices,
	}
}

func (c *Cell) Name() string        { return c.name }
func (c *Cell) Description() string { return c.description }
func (c *Cell) Equation() string    { return c.equation }

// PinOrder returns the pin names joined by single spaces, in stored
// order.
func (c *Cell) PinOrder() string {
	return strings.Join(c.pins, " ")
}

// Pins returns a copy of the pin names in stored order.
func (c *Cell) Pins() []string {
	out := make([]string, len(c.pins))
	copy(out, c.pins)
	return out
}

// SetPinOrder replaces the pin interface with the whitespace-separated
// names in order. Every candidate must already be wired as a terminal
// of some instance in the cell; otherwise the call fails with
// ErrInvalidPin naming the offenders and the stored order is untouched.
func (c *Cell) SetPinOrder(order string) error {
	pins := strings.Fields(order)
	wired := c.terminalSet()
	var bad []string
	for _, p := range pins {
		if !wired[p] {
			bad = append(bad, p)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s not wired to any instance terminal in cell %s",
			ErrInvalidPin, strings.Join(bad, ", "), c.name)
	}
	c.pins = pins
	return nil
}

// terminalSet collects every terminal value across all instances,
// excluding instance names and models. This is the universe pin orders
// are validated against.
func (c *Cell) terminalSet() map[string]bool {
	wired := make(map[string]bool)
	for _, d := range c.instances {
		for _, t := range d.Terminals() {
			wired[t] = true
		}
	}
	return wired
}

// Instance returns the device with the given instance name, first match
// in parse order. An unknown name fails with ErrNotFound listing the
// instances the cell does have.
func (c *Cell) Instance(name string) (Device, error) {
	for _, d := range c.instances {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: instance %q in cell %s (known instances: %s)",
		ErrNotFound, name, c.name, strings.Join(c.instanceNames(), ", "))
}

// Instances returns the devices in parse order. The slice is a copy but
// the devices are shared, so SetAttribute on a returned device is
// visible in later formatting.
func (c *Cell) Instances() []Device {
	out := make([]Device, len(c.instances))
	copy(out, c.instances)
	return out
}

// FormatInstances returns the display form of every instance, one per
// line, in parse order.
func (c *Cell) FormatInstances() string {
	lines := make([]string, len(c.instances))
	for i, d := range c.instances {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

func (c *Cell) instanceNames() []string {
	names := make([]string, len(c.instances))
	for i, d := range c.instances {
		names[i] = d.Name()
	}
	return names
}

// String renders the cell's display form with its header metadata.
func (c *Cell) String() string {
	return fmt.Sprintf("%s (Description: %s, Equation: %s)", c.name, c.description, c.equation)
}
