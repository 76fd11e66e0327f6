package netlist

import (
	"fmt"
	"strings"
)

// DeviceKind identifies a device variant. The kind string appears
// verbatim as the prefix of a device's display form.
type DeviceKind string

const (
	KindTransistor DeviceKind = "Transistor"
	KindDiode      DeviceKind = "Diode"
)

// Param is one extra key=value attribute carried by a device beyond its
// positional terminals, such as L=1u or W=2u on a transistor line.
// A device keeps its params in first-set order with unique keys.
type Param struct {
	Key   string
	Value string
}

// Device is a single instance line inside a subcircuit block. The
// variant set is closed: Transistor and Diode are the only
// implementations, and the unexported clone method keeps it that way.
type Device interface {
	// Name returns the instance name, the first token of the source line.
	Name() string

	// Kind returns the device variant.
	Kind() DeviceKind

	// Model returns the device model identifier.
	Model() string

	// Terminals returns the terminal net names in positional order,
	// excluding the instance name and the model. These are the values
	// a cell validates pin orders against.
	Terminals() []string

	// Params returns a copy of the extra attributes in insertion order.
	Params() []Param

	// Attribute returns the value of a positional or extra attribute.
	// Unknown names return ErrUnknownAttribute.
	Attribute(name string) (string, error)

	// SetAttribute overwrites an existing positional or extra
	// attribute. The attribute set is fixed at construction, so an
	// unknown name returns ErrUnknownAttribute rather than growing it.
	SetAttribute(name, value string) error

	// String renders the canonical display form,
	// "<Kind>: <positional values...> <key=value>...". The serializer
	// derives device output lines from this exact shape.
	String() string

	clone() Device
}

// Transistor is a four-terminal MOS instance. Positional attributes, in
// order: name, S (source), D (drain), G (gate), B (base), Model.
type Transistor struct {
	name   string
	source string
	drain  string
	gate   string
	base   string
	model  string
	params []Param
}

// NewTransistor builds a transistor from its positional values plus any
// extra key=value attributes. Duplicate param keys keep their first
// position and take the last value.
func NewTransistor(name, source, drain, gate, base, model string, params ...Param) *Transistor {
	return &Transistor{
		name:   name,
		source: source,
		drain:  drain,
		gate:   gate,
		base:   base,
		model:  model,
		params: mergeParams(params),
	}
}

func (t *Transistor) Name() string     { return t.name }
func (t *Transistor) Kind() DeviceKind { return KindTransistor }
func (t *Transistor) Model() string    { return t.model }

// Terminals returns the source, drain, gate, and base net names.
func (t *Transistor) Terminals() []string {
	return []string{t.source, t.drain, t.gate, t.base}
}

func (t *Transistor) Params() []Param {
	return copyParams(t.params)
}

func (t *Transistor) Attribute(name string) (string, error) {
	switch name {
	case "name":
		return t.name, nil
	case "S":
		return t.source, nil
	case "D":
		return t.drain, nil
	case "G":
		return t.gate, nil
	case "B":
		return t.base, nil
	case "Model":
		return t.model, nil
	}
	if v, ok := lookupParam(t.params, name); ok {
		return v, nil
	}
	return "", unknownAttribute(KindTransistor, t.name, name)
}

func (t *Transistor) SetAttribute(name, value string) error {
	switch name {
	case "name":
		t.name = value
	case "S":
		t.source = value
	case "D":
		t.drain = value
	case "G":
		t.gate = value
	case "B":
		t.base = value
	case "Model":
		t.model = value
	default:
		if !setParam(t.params, name, value) {
			return unknownAttribute(KindTransistor, t.name, name)
		}
	}
	return nil
}

func (t *Transistor) String() string {
	return formatDevice(KindTransistor, []string{t.name, t.source, t.drain, t.gate, t.base, t.model}, t.params)
}

func (t *Transistor) clone() Device {
	c := *t
	c.params = copyParams(t.params)
	return &c
}

// Diode is a two-terminal instance. Positional attributes, in order:
// name, PLUS (anode), MINUS (cathode), Model.
type Diode struct {
	name   string
	plus   string
	minus  string
	model  string
	params []Param
}

// NewDiode builds a diode from its positional values plus any extra
// key=value attributes.
func NewDiode(name, plus, minus, model string, params ...Param) *Diode {
	return &Diode{
		name:   name,
		plus:   plus,
		minus:  minus,
		model:  model,
		params: mergeParams(params),
	}
}

func (d *Diode) Name() string     { return d.name }
func (d *Diode) Kind() DeviceKind { return KindDiode }
func (d *Diode) Model() string    { return d.model }

// Terminals returns the anode and cathode net names.
func (d *Diode) Terminals() []string {
	return []string{d.plus, d.minus}
}

func (d *Diode) Params() []Param {
	return copyParams(d.params)
}

func (d *Diode) Attribute(name string) (string, error) {
	switch name {
	case "name":
		return d.name, nil
	case "PLUS":
		return d.plus, nil
	case "MINUS":
		return d.minus, nil
	case "Model":
		return d.model, nil
	}
	if v, ok := lookupParam(d.params, name); ok {
		return v, nil
	}
	return "", unknownAttribute(KindDiode, d.name, name)
}

func (d *Diode) SetAttribute(name, value string) error {
	switch name {
	case "name":
		d.name = value
	case "PLUS":
		d.plus = value
	case "MINUS":
		d.minus = value
	case "Model":
		d.model = value
	default:
		if !setParam(d.params, name, value) {
			return unknownAttribute(KindDiode, d.name, name)
		}
	}
	return nil
}

func (d *Diode) String() string {
	return formatDevice(KindDiode, []string{d.name, d.plus, d.minus, d.model}, d.params)
}

func (d *Diode) clone() Device {
	c := *d
	c.params = copyParams(d.params)
	return &c
}

// formatDevice renders the shared display form. Positional values come
// first as bare tokens, extras follow as key=value, all space separated.
func formatDevice(kind DeviceKind, positional []string, params []Param) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte(':')
	for _, v := range positional {
		b.WriteByte(' ')
		b.WriteString(v)
	}
	for _, p := range params {
		b.WriteByte(' ')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// mergeParams copies the given params enforcing key uniqueness: a
// repeated key keeps its first position and takes the last value seen.
func mergeParams(params []Param) []Param {
	if len(params) == 0 {
		return nil
	}
	out := make([]Param, 0, len(params))
	for _, p := range params {
		replaced := false
		for i := range out {
			if out[i].Key == p.Key {
				out[i].Value = p.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

func copyParams(params []Param) []Param {
	if len(params) == 0 {
		return nil
	}
	out := make([]Param, len(params))
	copy(out, params)
	return out
}

func lookupParam(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func setParam(params []Param, key, value string) bool {
	for i := range params {
		if params[i].Key == key {
			params[i].Value = value
			return true
		}
	}
	return false
}

func unknownAttribute(kind DeviceKind, device, attr string) error {
	return fmt.Errorf("%w: %q on %s %s", ErrUnknownAttribute, attr, strings.ToLower(string(kind)), device)
}
