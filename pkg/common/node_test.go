package common_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicery/jsconvert/pkg/common"
)

func span(start, end int) common.Span {
	return common.Span{Start: start, End: end, StartLine: 1, StartColumn: start + 1, EndLine: 1, EndColumn: end + 1}
}

// sampleTree builds the tree for "x = 1 + y;" by hand.
func sampleTree(source string) *common.Node {
	one := common.NewNode(common.NameNumber, span(4, 5), source).SetOption(common.OptionValue, "1")
	y := common.NewNode(common.NameIdentifier, span(8, 9), source).SetOption(common.OptionName, "y")
	sum := common.NewNode(common.NameBinary, span(4, 9), source).SetOption(common.OptionOperator, "+")
	sum.Children = []*common.Node{one, y}
	x := common.NewNode(common.NameIdentifier, span(0, 1), source).SetOption(common.OptionName, "x")
	assign := common.NewNode(common.NameAssign, span(0, 9), source).SetOption(common.OptionOperator, "=")
	assign.Children = []*common.Node{x, sum}
	stmt := common.NewNode(common.NameExpression, span(0, 10), source)
	stmt.Children = []*common.Node{assign}
	root := common.NewNode(common.NameModule, span(0, len(source)), source)
	root.Children = []*common.Node{stmt}
	return root
}

func TestNode_ReconstructMatchesRaw(t *testing.T) {
	t.Parallel()

	source := "x = 1 + y;\n"
	root := sampleTree(source)

	assert.Equal(t, source, root.Raw)
	assert.Equal(t, source, root.Reconstruct(source))
	assert.Equal(t, "1 + y", root.Child(0).Child(0).Child(1).Raw)
}

func TestNode_ChildNegativeIndex(t *testing.T) {
	t.Parallel()

	root := sampleTree("x = 1 + y;\n")
	assign := root.Child(0).Child(0)

	assert.Equal(t, common.NameBinary, assign.Child(-1).Name)
	assert.Equal(t, common.NameIdentifier, assign.Child(-2).Name)
	assert.Nil(t, assign.Child(2))
	assert.Nil(t, assign.Child(-3))
}

func TestNode_WalkProvidesPaths(t *testing.T) {
	t.Parallel()

	root := sampleTree("x = 1 + y;\n")

	var depths []int
	root.Walk(func(node *common.Node, path *common.Path) bool {
		if node.Name == common.NameIdentifier {
			depths = append(depths, path.Depth())
			assert.Same(t, node, path.Node())
		}
		return true
	})

	assert.Equal(t, []int{3, 4}, depths)
}

func TestTrimValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abcdefg", common.TrimValue(common.OptionValue, "abcdefg", 0))
	assert.Equal(t, "abc…", common.TrimValue(common.OptionValue, "abcdefg", 4))
	assert.Equal(t, "abcdefg", common.TrimValue(common.OptionName, "abcdefg", 4))
}

func TestPickPrintFunc_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := common.PickPrintFunc("xml")
	require.Error(t, err)
}

func TestPrintFormats(t *testing.T) {
	t.Parallel()

	source := "x = 1 + y;\n"
	root := sampleTree(source)

	for _, format := range common.Formats() {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			printFunc, err := common.PickPrintFunc(format)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, printFunc(root, "  ", &buf, common.DefaultPrintOptions()))
			assert.Contains(t, buf.String(), common.NameBinary)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	source := "x = 1 + y;\n"
	root := sampleTree(source)

	var buf bytes.Buffer
	require.NoError(t, common.PrintASTJSON(root, "", &buf, nil))

	loaded, err := common.ReadASTJSON(strings.NewReader(buf.String()))
	require.NoError(t, err)

	assert.Equal(t, root, loaded)
}
