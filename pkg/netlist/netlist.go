package netlist

import (
	"fmt"
	"strings"
)

// Netlist is the parsed document: an ordered collection of cells in
// file order. A Netlist is not safe for concurrent mutation; callers
// needing that must serialize access externally.
type Netlist struct {
	cells []*Cell
}

// NewNetlist returns an empty document.
func NewNetlist() *Netlist {
	return &Netlist{}
}

// AddCell appends a cell. Name uniqueness is not enforced on insert;
// lookup returns the first match in insertion order.
func (n *Netlist) AddCell(c *Cell) {
	n.cells = append(n.cells, c)
}

// Cell returns the first cell with the given name. An unknown name
// fails with ErrNotFound listing the cells the document does have.
func (n *Netlist) Cell(name string) (*Cell, error) {
	for _, c := range n.cells {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: cell %q (known cells: %s)",
		ErrNotFound, name, strings.Join(n.cellNames(), ", "))
}

// Cells returns the cells in document order. The slice is a copy but
// the cells are shared.
func (n *Netlist) Cells() []*Cell {
	out := make([]*Cell, len(n.cells))
	copy(out, n.cells)
	return out
}

func (n *Netlist) cellNames() []string {
	names := make([]string, len(n.cells))
	for i, c := range n.cells {
		names[i] = c.Name()
	}
	return names
}
