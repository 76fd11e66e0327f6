package netlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines_Inverter(t *testing.T) {
	lines := []string{
		"* Description : inverter\n",
		"* Equation : y=!a\n",
		".subckt INV VDD VSS A Y\n",
		"M1 Y VDD A VSS nmos L=1u\n",
		".ends\n",
	}

	doc, err := ParseLines(lines)
	require.NoError(t, err)
	require.Len(t, doc.Cells(), 1)

	cell, err := doc.Cell("INV")
	require.NoError(t, err)
	assert.Equal(t, "inverter", cell.Description())
	assert.Equal(t, "y=!a", cell.Equation())
	assert.Equal(t, []string{"VDD", "VSS", "A", "Y"}, cell.Pins())

	m1, err := cell.Instance("M1")
	require.NoError(t, err)
	assert.Equal(t, KindTransistor, m1.Kind())
	for attr, want := range map[string]string{
		"S": "Y", "D": "VDD", "G": "A", "B": "VSS", "Model": "nmos", "L": "1u",
	} {
		v, err := m1.Attribute(attr)
		require.NoError(t, err)
		assert.Equal(t, want, v, "attribute %s", attr)
	}
}

func TestParse_Reader(t *testing.T) {
	input := "* Description : buffer\n" +
		"* Equation : y=a\n" +
		".subckt BUF A Y\n" +
		"M1 Y VDD A VSS nmos\n" +
		"M2 VSS Y A VDD pmos\n" +
		".ends\n"

	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	cell, err := doc.Cell("BUF")
	require.NoError(t, err)
	assert.Len(t, cell.Instances(), 2)
}

func TestParseLines_TrailingNewlineOptional(t *testing.T) {
	with := []string{
		"* Description : d\n", "* Equation : e\n",
		".subckt A X Y\n", "D1 X Y dmod\n", ".ends\n",
	}
	without := []string{
		"* Description : d", "* Equation : e",
		".subckt A X Y", "D1 X Y dmod", ".ends",
	}

	a, err := ParseLines(with)
	require.NoError(t, err)
	b, err := ParseLines(without)
	require.NoError(t, err)
	assert.Equal(t, a.Lines(), b.Lines())
}

func TestParse_MultipleCells(t *testing.T) {
	input := "* Description : first\n" +
		"* Equation : q=a\n" +
		".subckt ONE A Q\n" +
		"M1 Q VDD A VSS nmos\n" +
		".ends\n" +
		"\n" +
		"* Description : second\n" +
		"* Equation : q=b\n" +
		".subckt TWO B Q\n" +
		"D1 B Q dmod\n" +
		".ends\n"

	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	cells := doc.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, "ONE", cells[0].Name())
	assert.Equal(t, "TWO", cells[1].Name())
}

func TestParse_DiodeLine(t *testing.T) {
	input := "* Description : clamp\n" +
		"* Equation : none\n" +
		".subckt CLAMP IN OUT\n" +
		"D1 IN OUT dclamp area=2\n" +
		".ends\n"

	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	cell, err := doc.Cell("CLAMP")
	require.NoError(t, err)
	d1, err := cell.Instance("D1")
	require.NoError(t, err)
	assert.Equal(t, KindDiode, d1.Kind())
	assert.Equal(t, []string{"IN", "OUT"}, d1.Terminals())
	assert.Equal(t, []Param{{Key: "area", Value: "2"}}, d1.Params())
}

func TestParse_EmptyInput(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Cells())

	doc, err = ParseLines(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Cells())
}

func TestParse_BlankAndPlainCommentLines(t *testing.T) {
	input := "* netlist exported by layout tool\n" +
		"\n" +
		"* Description : d\n" +
		"* Equation : e\n" +
		".subckt A X Y\n" +
		"* routing note\n" +
		"D1 X Y dmod\n" +
		"\n" +
		".ends\n" +
		"\n" +
		"* end of export\n"

	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, doc.Cells(), 1)
}

func TestParse_MissingEquation(t *testing.T) {
	input := "* Description : d\n" +
		".subckt A X Y\n" +
		"D1 X Y dmod\n" +
		".ends\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "equation")
}

func TestParse_EndsNamesAllMissingSections(t *testing.T) {
	_, err := ParseLines([]string{".ends"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "description")
	assert.Contains(t, err.Error(), "equation")
	assert.Contains(t, err.Error(), ".subckt header")
	assert.Contains(t, err.Error(), "instances")
}

func TestParse_UnterminatedBlockAtComment(t *testing.T) {
	input := "* Description : d1\n" +
		"* Equation : e1\n" +
		".subckt FIRST A Y\n" +
		"M1 Y VDD A VSS nmos\n" +
		"* Description : d2\n" +
		"* Equation : e2\n" +
		".subckt SECOND B Q\n" +
		"M2 Q VDD B VSS nmos\n" +
		".ends\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "FIRST")
	assert.Contains(t, err.Error(), "line 5")
}

func TestParse_UnterminatedBlockAtHeader(t *testing.T) {
	input := ".subckt FIRST A Y\n" +
		"M1 Y VDD A VSS nmos\n" +
		".subckt SECOND B Q\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "FIRST")
}

func TestParse_MetadataCommentInsideOpenBlock(t *testing.T) {
	input := "* Description : d\n" +
		"* Equation : e\n" +
		".subckt A X Y\n" +
		"* Description : too early\n" +
		"D1 X Y dmod\n" +
		".ends\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
}

func TestParse_NoTerminatorAtEOF(t *testing.T) {
	input := "* Description : d\n" +
		"* Equation : e\n" +
		".subckt A X Y\n" +
		"D1 X Y dmod\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "no terminator at end of file")
	assert.Contains(t, err.Error(), "A")

	// Even a lone metadata comment leaves the input unterminated
	_, err = ParseLines([]string{"* Description : dangling"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
}

func TestParse_UnrecognizedLine(t *testing.T) {
	input := "* Description : d\n" +
		"* Equation : e\n" +
		".subckt A X Y\n" +
		"R1 X Y 10k\n" +
		"D1 X Y dmod\n" +
		".ends\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
	assert.Contains(t, err.Error(), "R1 X Y 10k")
	assert.Contains(t, err.Error(), "line 4")
}

func TestParse_TransistorArity(t *testing.T) {
	_, err := ParseLines([]string{
		"* Description : d", "* Equation : e",
		".subckt A X Y",
		"M1 Y VDD A VSS",
		".ends",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDevice)
}

func TestParse_DiodeArity(t *testing.T) {
	_, err := ParseLines([]string{
		"* Description : d", "* Equation : e",
		".subckt A X Y",
		"D1 X Y",
		".ends",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDevice)
}

func TestParse_BadParamToken(t *testing.T) {
	for _, line := range []string{
		"M1 Y VDD A VSS nmos L",
		"M1 Y VDD A VSS nmos L=1=2",
	} {
		_, err := ParseLines([]string{
			"* Description : d", "* Equation : e",
			".subckt A X Y",
			line,
			".ends",
		})
		require.Error(t, err, "line %q", line)
		assert.ErrorIs(t, err, ErrMalformedDevice)
	}
}

func TestParse_SubcktWithoutName(t *testing.T) {
	_, err := ParseLines([]string{
		"* Description : d", "* Equation : e",
		".subckt",
		"D1 X Y dmod",
		".ends",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedNetlist)
}

func TestMetadataValue(t *testing.T) {
	assert.Equal(t, "inverter", metadataValue("* Description : inverter"))
	assert.Equal(t, "y=!a", metadataValue("*      Equation    : y=!a"))

	// Only the first colon splits, the rest stays in the value
	assert.Equal(t, "out:inv", metadataValue("* Description : out:inv"))

	// Without a colon the whole line is the value
	assert.Equal(t, "* Description inverter", metadataValue("* Description inverter"))
}
