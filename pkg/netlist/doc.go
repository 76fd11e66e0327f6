// Package netlist parses, models, and re-emits SPICE-style subcircuit
// netlists.
//
// A netlist document is a sequence of cell blocks. Each block carries a
// description comment, an equation comment, a .subckt header declaring
// the cell name and pin order, one or more device instance lines, and a
// .ends terminator:
//
//	*      Description : inverter
//	*      Equation    : y=!a
//	.subckt INV VDD VSS A Y
//	M1 Y VDD A VSS nmos L=1u
//	.ends
//
// # Wire Format
//
// Lines are classified by their starting token:
//   - "*" with "Description": cell description metadata
//   - "*" with "Equation": cell equation metadata
//   - ".subckt <name> <pin>...": block start and pin declaration
//   - "M...": transistor line, "name S D G B model [k=v]..."
//   - "D...": diode line, "name PLUS MINUS model [k=v]..."
//   - ".ends": block terminator
//   - other "*" comments and blank lines: ignored
//
// Any other non-blank line is a structural error. Every block must
// carry all four sections (description, equation, header, at least one
// instance) before its terminator, and the input must end terminated.
//
// # Basic Usage
//
//	doc, err := netlist.Parse(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cell, err := doc.Cell("INV")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cell.PinOrder())
//
// # Mutation
//
// The model supports two controlled mutations. Pin orders are replaced
// atomically and validated against the terminals actually wired in the
// cell:
//
//	if err := cell.SetPinOrder("A Y VDD VSS"); err != nil {
//	    // wraps ErrInvalidPin, names the unwired pins
//	}
//
// Device attributes are overwritten in place; the attribute set is
// fixed at parse time:
//
//	m1, _ := cell.Instance("M1")
//	_ = m1.SetAttribute("S", "VSS")       // positional attribute
//	_ = m1.SetAttribute("L", "2u")        // existing extra attribute
//	err := m1.SetAttribute("Zz", "x")     // ErrUnknownAttribute
//
// # Error Handling
//
// Failures wrap the package sentinels (ErrMalformedNetlist,
// ErrMalformedDevice, ErrInvalidPin, ErrUnknownAttribute, ErrNotFound,
// ErrTypeMismatch), so callers branch with errors.Is while messages
// keep line numbers and the names that would have matched. Parsing
// stops at the first structural violation; lookups never return a
// silent zero value.
//
// # Round-Tripping
//
// Lines and Write emit the canonical form of the document. Parsing that
// output yields a structurally equivalent model (same cells, pin
// orders, devices, and attribute ordering), though byte-for-byte
// whitespace of an arbitrary hand-written input is not preserved.
package netlist
