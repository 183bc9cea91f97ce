package python

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

func statementRules() []engine.Rule {
	return []engine.Rule{
		engine.NewRule("module", kinds(common.NameModule), emitModule),
		engine.NewRule("block", kinds(common.NameBlock), emitBareBlock),
		engine.NewRule("empty", kinds(common.NameEmpty), emitNothing),
		engine.NewRule("comment", kinds(common.NameComment), emitComment),
		engine.NewRule("expression-statement", kinds(common.NameExpression), emitExpressionStatement),
		engine.NewRule("var", kinds(common.NameVar), emitVar, engine.When(simpleDeclarators)),
		engine.NewRule("return", kinds(common.NameReturn), emitReturn),
		engine.NewRule("throw", kinds(common.NameThrow), emitThrow),
		engine.NewRule("break", kinds(common.NameBreak, common.NameContinue), emitJump),
		engine.NewRule("if", kinds(common.NameIf), emitIf),
		engine.NewRule("while", kinds(common.NameWhile), emitWhile),
		engine.NewRule("do-while", kinds(common.NameDo), emitDoWhile),
		engine.NewRule("for-range", kinds(common.NameFor), emitForRange,
			engine.WithPrecedence(10), engine.When(isRangeLoop)),
		engine.NewRule("for", kinds(common.NameFor), emitForWhile, engine.When(forInitIsSimple)),
		engine.NewRule("for-of", kinds(common.NameForOf, common.NameForIn), emitForOf, engine.When(forOfTargetIsSimple)),
		engine.NewRule("try", kinds(common.NameTry), emitTry),
		engine.NewRule("switch-match", kinds(common.NameSwitch), emitSwitchMatch,
			engine.WithPrecedence(10), engine.When(switchHasLiteralCases)),
		engine.NewRule("switch-if", kinds(common.NameSwitch), emitSwitchIf, engine.When(switchDiscriminantIsPlain)),
		engine.NewRule("label", kinds(common.NameLabel), emitLabel),
		engine.NewRule("import", kinds(common.NameImport), emitImport),
		engine.NewRule("export", kinds(common.NameExport), emitExport, engine.When(exportIsSupported)),
	}
}

func emitModule(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	return engine.Statements(c, n.Children, recurse)
}

// emitBareBlock flattens a free-standing block into the enclosing suite.
func emitBareBlock(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	text, err := engine.Statements(c, n.Children, recurse)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(text, c.Indent()), nil
}

func emitNothing(*common.Node, *engine.Context, engine.Recurse) (string, error) {
	return "", nil
}

func emitComment(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	text := n.Option(common.OptionText)
	if n.Option(common.OptionStyle) != common.ValueBlock {
		return "#" + text, nil
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line == "" {
			lines = append(lines, "#")
		} else {
			lines = append(lines, "# "+line)
		}
	}
	for len(lines) > 1 && lines[0] == "#" {
		lines = lines[1:]
	}
	for len(lines) > 1 && lines[len(lines)-1] == "#" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, c.Newline()), nil
}

func emitExpressionStatement(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	expr := n.Child(0)
	switch {
	case expr.Is(common.NameString) && expr.Option(common.OptionValue) == "use strict":
		return "", nil
	case expr.Is(common.NameUnary) && expr.Option(common.OptionOperator) == "delete":
		target, err := recurse(expr.Child(0))
		if err != nil {
			return "", err
		}
		return "del " + target, nil
	}
	return recurse(expr)
}

// simpleDeclarators holds when every declarator binds a name or an array
// pattern, both of which Python can assign to.
func simpleDeclarators(n *common.Node, _ *engine.Context) bool {
	for _, decl := range n.Children {
		if !decl.Child(0).Is(common.NameIdentifier, common.NameArray) {
			return false
		}
	}
	return true
}

func emitVar(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	var lines []string
	for _, decl := range n.Children {
		target, init := decl.Child(0), decl.Child(1)
		if target.Is(common.NameIdentifier) && isFunctionValue(init) {
			text, err := def(c, declare(c, target.Option(common.OptionName)), init, recurse, defOptions{})
			if err != nil {
				return "", err
			}
			lines = append(lines, text)
			continue
		}
		value := "None"
		if init != nil {
			text, err := recurse(init)
			if err != nil {
				return "", err
			}
			value = text
		}
		left, err := bindTarget(c, target, recurse)
		if err != nil {
			return "", err
		}
		lines = append(lines, left+" = "+value)
	}
	return strings.Join(lines, c.Newline()), nil
}

// bindTarget declares the names in a declaration target and returns its
// Python spelling.
func bindTarget(c *engine.Context, target *common.Node, recurse engine.Recurse) (string, error) {
	if target.Is(common.NameIdentifier) {
		return declare(c, target.Option(common.OptionName)), nil
	}
	target.Walk(func(node *common.Node, _ *common.Path) bool {
		if node.Is(common.NameIdentifier) {
			declare(c, node.Option(common.OptionName))
		}
		return true
	})
	return recurse(target)
}

// isFunctionValue matches initialisers that are better written as a def.
func isFunctionValue(n *common.Node) bool {
	switch {
	case n.Is(common.NameFunction):
		return true
	case n.Is(common.NameArrow):
		return !n.Flag(common.OptionExpression) && lambdaBody(n) == nil
	}
	return false
}

func emitReturn(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	if len(n.Children) == 0 {
		return "return", nil
	}
	value, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return "return " + value, nil
}

func emitThrow(n *common.Node, _ *engine.Context, recurse engine.Recurse) (string, error) {
	value, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	return "raise " + value, nil
}

func emitJump(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	if n.HasOption(common.OptionLabel) {
		c.Warn(n, "label %q dropped from %s", n.Option(common.OptionLabel), n.Name)
	}
	return n.Name, nil
}

func emitIf(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	var sb strings.Builder
	keyword := "if"
	for {
		test, err := recurse(n.Child(0))
		if err != nil {
			return "", err
		}
		body, err := suite(c, n.Child(1), recurse)
		if err != nil {
			return "", err
		}
		sb.WriteString(keyword + " " + test + ":" + body)
		alternate := n.Child(2)
		if alternate == nil {
			return sb.String(), nil
		}
		if alternate.Is(common.NameIf) {
			sb.WriteString(c.Newline())
			keyword = "elif"
			n = alternate
			continue
		}
		body, err = suite(c, alternate, recurse)
		if err != nil {
			return "", err
		}
		sb.WriteString(c.Newline() + "else:" + body)
		return sb.String(), nil
	}
}

func emitWhile(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	test, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	body, err := suite(c, n.Child(1), recurse)
	if err != nil {
		return "", err
	}
	return "while " + test + ":" + body, nil
}

// emitDoWhile runs the body once before testing, as an endless loop that
// breaks when the condition fails.
func emitDoWhile(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	bodyNode, testNode := n.Child(0), n.Child(1)
	if containsJump(bodyNode, common.NameContinue) {
		c.Warn(n, "continue inside do-while skips the loop test")
	}
	body, err := c.Nest(func() (string, error) {
		text, err := suiteLines(c, statementsOf(bodyNode), recurse, nil)
		if err != nil {
			return "", err
		}
		test, err := recurse(testNode)
		if err != nil {
			return "", err
		}
		return text + "\n" + c.Indent() + "if not (" + test + "):\n" + c.Indent() + c.IndentUnit() + "break", nil
	})
	if err != nil {
		return "", err
	}
	return "while True:" + body, nil
}

func statementsOf(body *common.Node) []*common.Node {
	if body.Is(common.NameBlock) {
		return body.Children
	}
	return []*common.Node{body}
}

// rangeLoop describes `for (let i = a; i < b; i++)` and its relatives.
type rangeLoop struct {
	name  string
	start *common.Node
	stop  *common.Node
	// inclusive is set for <= and >=.
	inclusive bool
	step      int
}

func matchRangeLoop(n *common.Node) (rangeLoop, bool) {
	var loop rangeLoop
	init, test, update, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
	switch {
	case init.Is(common.NameVar) && len(init.Children) == 1:
		decl := init.Child(0)
		if !decl.Child(0).Is(common.NameIdentifier) || decl.Child(1) == nil {
			return loop, false
		}
		loop.name, loop.start = decl.Child(0).Option(common.OptionName), decl.Child(1)
	case init.Is(common.NameAssign) && init.Option(common.OptionOperator) == "=" && init.Child(0).Is(common.NameIdentifier):
		loop.name, loop.start = init.Child(0).Option(common.OptionName), init.Child(1)
	default:
		return loop, false
	}

	if !update.Is(common.NameUpdate, common.NameAssign) || !isName(update.Child(0), loop.name) {
		return loop, false
	}
	switch op := update.Option(common.OptionOperator); op {
	case "++":
		loop.step = 1
	case "--":
		loop.step = -1
	case "+=", "-=":
		amount := update.Child(1)
		if !amount.Is(common.NameNumber) {
			return loop, false
		}
		k, err := strconv.Atoi(amount.Option(common.OptionValue))
		if err != nil || k <= 0 {
			return loop, false
		}
		loop.step = k
		if op == "-=" {
			loop.step = -k
		}
	default:
		return loop, false
	}

	if !test.Is(common.NameBinary) || !isName(test.Child(0), loop.name) {
		return loop, false
	}
	switch test.Option(common.OptionOperator) {
	case "<":
		if loop.step < 0 {
			return loop, false
		}
	case "<=":
		loop.inclusive = loop.step > 0
		if loop.step < 0 {
			return loop, false
		}
	case ">":
		if loop.step > 0 {
			return loop, false
		}
	case ">=":
		loop.inclusive = loop.step < 0
		if loop.step > 0 {
			return loop, false
		}
	default:
		return loop, false
	}
	loop.stop = test.Child(1)
	if assigns(body, loop.name) || assigns(loop.stop, loop.name) || resizes(body, loop.stop) {
		return loop, false
	}
	return loop, true
}

func isName(n *common.Node, name string) bool {
	return n.Is(common.NameIdentifier) && n.Option(common.OptionName) == name
}

func isRangeLoop(n *common.Node, _ *engine.Context) bool {
	_, ok := matchRangeLoop(n)
	return ok
}

func emitForRange(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	loop, _ := matchRangeLoop(n)
	start, err := recurse(loop.start)
	if err != nil {
		return "", err
	}
	stop, err := recurse(loop.stop)
	if err != nil {
		return "", err
	}
	if loop.inclusive {
		if precedenceOf(loop.stop) < precAdditive {
			stop = "(" + stop + ")"
		}
		if loop.step > 0 {
			stop += " + 1"
		} else {
			stop += " - 1"
		}
	}
	args := start + ", " + stop
	if loop.step != 1 {
		args += fmt.Sprintf(", %d", loop.step)
	} else if start == "0" {
		args = stop
	}
	name := declare(c, loop.name)
	body, err := suite(c, n.Child(3), recurse)
	if err != nil {
		return "", err
	}
	return "for " + name + " in range(" + args + "):" + body, nil
}

func forInitIsSimple(n *common.Node, c *engine.Context) bool {
	init := n.Child(0)
	return !init.Is(common.NameVar) || simpleDeclarators(init, c)
}

// emitForWhile rewrites a classic loop as its initialiser followed by a
// while loop with the update at the end of the body.
func emitForWhile(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	init, test, update, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
	if containsJump(body, common.NameContinue) && !update.Is(common.NameEmpty) {
		c.Warn(n, "continue inside for loop skips the update")
	}
	var lines []string
	if !init.Is(common.NameEmpty) {
		text, err := recurse(init)
		if err != nil {
			return "", err
		}
		lines = append(lines, text)
	}
	cond := "True"
	if !test.Is(common.NameEmpty) {
		text, err := recurse(test)
		if err != nil {
			return "", err
		}
		cond = text
	}
	text, err := c.Nest(func() (string, error) {
		var parts []string
		stmts, err := engine.Statements(c, statementsOf(body), recurse)
		if err != nil {
			return "", err
		}
		if stmts != "" {
			parts = append(parts, stmts)
		}
		if !update.Is(common.NameEmpty) {
			step, err := recurse(update)
			if err != nil {
				return "", err
			}
			parts = append(parts, c.Indent()+step)
		}
		text := strings.Join(parts, "\n")
		if !hasCode(text) {
			parts = append(parts, c.Indent()+"pass")
		}
		return "\n" + strings.Join(parts, "\n"), nil
	})
	if err != nil {
		return "", err
	}
	lines = append(lines, "while "+cond+":"+text)
	return strings.Join(lines, c.Newline()), nil
}

func forOfTarget(n *common.Node) *common.Node {
	left := n.Child(0)
	if left.Is(common.NameVar) {
		return left.Child(0).Child(0)
	}
	return left
}

func forOfTargetIsSimple(n *common.Node, _ *engine.Context) bool {
	left := n.Child(0)
	if left.Is(common.NameVar) && (len(left.Children) != 1 || left.Child(0).Child(1) != nil) {
		return false
	}
	return forOfTarget(n).Is(common.NameIdentifier, common.NameArray, common.NameMember, common.NameIndex)
}

func emitForOf(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	target, err := bindTarget(c, forOfTarget(n), recurse)
	if err != nil {
		return "", err
	}
	iterable, err := recurse(n.Child(1))
	if err != nil {
		return "", err
	}
	if n.Is(common.NameForIn) {
		c.Warn(n, "for-in iterates keys; arrays yield elements in Python")
	}
	body, err := suite(c, n.Child(2), recurse)
	if err != nil {
		return "", err
	}
	keyword := "for "
	if n.Flag(common.OptionAsync) {
		keyword = "async for "
	}
	return keyword + target + " in " + iterable + ":" + body, nil
}

func emitTry(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	body, err := suite(c, n.Child(0), recurse)
	if err != nil {
		return "", err
	}
	parts := []string{"try:" + body}
	for _, clause := range n.Children[1:] {
		switch {
		case clause.Is(common.NameCatch):
			header := "except Exception"
			handler := clause.Child(-1)
			if len(clause.Children) == 2 {
				param := clause.Child(0)
				if !param.Is(common.NameIdentifier) {
					c.Warn(clause, "destructured catch parameter dropped")
				} else {
					header += " as " + declare(c, param.Option(common.OptionName))
				}
			}
			text, err := suite(c, handler, recurse)
			if err != nil {
				return "", err
			}
			parts = append(parts, header+":"+text)
		case clause.Is(common.NameFinally):
			text, err := suite(c, clause.Child(0), recurse)
			if err != nil {
				return "", err
			}
			parts = append(parts, "finally:"+text)
		}
	}
	return strings.Join(parts, c.Newline()), nil
}

// switchClause is a run of case labels sharing one body.
type switchClause struct {
	tests     []*common.Node
	isDefault bool
	body      []*common.Node
}

// groupClauses merges empty fall-through labels into the next clause and
// drops the trailing break of each body. It fails when a non-empty clause
// falls through into the next one.
func groupClauses(n *common.Node) ([]switchClause, bool) {
	var clauses []switchClause
	var pending switchClause
	cases := n.Children[1:]
	for i, clause := range cases {
		body := clause.Children
		if clause.Is(common.NameCase) {
			pending.tests = append(pending.tests, clause.Child(0))
			body = body[1:]
		} else {
			pending.isDefault = true
		}
		if len(body) == 0 && i < len(cases)-1 {
			continue
		}
		if len(body) > 0 {
			last := body[len(body)-1]
			switch {
			case last.Is(common.NameBreak) && !last.HasOption(common.OptionLabel):
				body = body[:len(body)-1]
			case last.Is(common.NameReturn, common.NameThrow, common.NameContinue):
			case i == len(cases)-1:
			default:
				return nil, false
			}
		}
		for _, stmt := range body {
			if containsJump(stmt, common.NameBreak) {
				return nil, false
			}
		}
		pending.body = body
		clauses = append(clauses, pending)
		pending = switchClause{}
	}
	return clauses, true
}

// defaultLast moves the default clause behind the case clauses. Grouped
// clause bodies never fall through.
func defaultLast(clauses []switchClause) []switchClause {
	ordered := make([]switchClause, 0, len(clauses))
	var fallback []switchClause
	for _, clause := range clauses {
		if clause.isDefault {
			fallback = append(fallback, clause)
			continue
		}
		ordered = append(ordered, clause)
	}
	return append(ordered, fallback...)
}

func switchHasLiteralCases(n *common.Node, _ *engine.Context) bool {
	if _, ok := groupClauses(n); !ok {
		return false
	}
	for _, clause := range n.Children[1:] {
		if clause.Is(common.NameCase) && !isLiteralPattern(clause.Child(0)) {
			return false
		}
	}
	return true
}

// isLiteralPattern matches case labels Python's match accepts as value
// patterns rather than capture patterns.
func isLiteralPattern(n *common.Node) bool {
	switch {
	case n.Is(common.NameNumber, common.NameString, common.NameBoolean, common.NameNull):
		return true
	case n.Is(common.NameUnary):
		return n.Option(common.OptionOperator) == "-" && n.Child(0).Is(common.NameNumber)
	case n.Is(common.NameMember):
		return !n.Flag(common.OptionOptional) && n.Child(0).Is(common.NameIdentifier, common.NameMember)
	}
	return false
}

func emitSwitchMatch(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	clauses, _ := groupClauses(n)
	clauses = defaultLast(clauses)
	subject, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	body, err := c.Nest(func() (string, error) {
		var lines []string
		for _, clause := range clauses {
			pattern := "_"
			if !clause.isDefault {
				patterns, err := engine.Join(clause.tests, " | ", recurse)
				if err != nil {
					return "", err
				}
				pattern = patterns
			}
			text, err := c.Nest(func() (string, error) {
				return suiteLines(c, clause.body, recurse, nil)
			})
			if err != nil {
				return "", err
			}
			lines = append(lines, c.Indent()+"case "+pattern+":"+text)
		}
		if len(lines) == 0 {
			lines = append(lines, c.Indent()+"case _:\n"+c.Indent()+c.IndentUnit()+"pass")
		}
		return "\n" + strings.Join(lines, "\n"), nil
	})
	if err != nil {
		return "", err
	}
	return "match " + subject + ":" + body, nil
}

func switchDiscriminantIsPlain(n *common.Node, _ *engine.Context) bool {
	if _, ok := groupClauses(n); !ok {
		return false
	}
	return n.Child(0).Is(common.NameIdentifier, common.NameMember, common.NameThis)
}

// emitSwitchIf writes a switch over arbitrary labels as an if/elif chain.
func emitSwitchIf(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	clauses, _ := groupClauses(n)
	subject, err := recurse(n.Child(0))
	if err != nil {
		return "", err
	}
	var parts []string
	var fallback *switchClause
	for i := range clauses {
		clause := &clauses[i]
		if clause.isDefault {
			fallback = clause
			continue
		}
		var tests []string
		for _, test := range clause.tests {
			text, err := recurse(test)
			if err != nil {
				return "", err
			}
			tests = append(tests, subject+" == "+text)
		}
		text, err := c.Nest(func() (string, error) {
			return suiteLines(c, clause.body, recurse, nil)
		})
		if err != nil {
			return "", err
		}
		keyword := "elif "
		if len(parts) == 0 {
			keyword = "if "
		}
		parts = append(parts, keyword+strings.Join(tests, " or ")+":"+text)
	}
	if fallback != nil && len(parts) == 0 {
		return emitBareBlock(&common.Node{Children: fallback.body}, c, recurse)
	}
	if fallback != nil {
		text, err := c.Nest(func() (string, error) {
			return suiteLines(c, fallback.body, recurse, nil)
		})
		if err != nil {
			return "", err
		}
		parts = append(parts, "else:"+text)
	}
	return strings.Join(parts, c.Newline()), nil
}

func emitLabel(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	c.Warn(n, "label %q dropped", n.Option(common.OptionLabel))
	return recurse(n.Child(0))
}

// modulePath turns an ECMAScript module specifier into a Python module
// name, keeping relative imports relative.
func modulePath(source string) (prefix, module string) {
	rest := source
	if strings.HasPrefix(rest, "./") {
		prefix = "."
		rest = rest[2:]
	}
	for strings.HasPrefix(rest, "../") {
		if prefix == "" {
			prefix = "."
		}
		prefix += "."
		rest = rest[3:]
	}
	for _, ext := range []string{".js", ".mjs", ".cjs", ".jsx", ".ts"} {
		rest = strings.TrimSuffix(rest, ext)
	}
	rest = strings.TrimPrefix(rest, "@")
	rest = strings.NewReplacer("/", ".", "-", "_").Replace(rest)
	return prefix, rest
}

func emitImport(n *common.Node, c *engine.Context, _ engine.Recurse) (string, error) {
	source := n.Option(common.OptionSource)
	prefix, module := modulePath(source)
	full := prefix + module
	if len(n.Children) == 0 {
		if prefix == "" {
			return "import " + module, nil
		}
		return "from " + prefix + " import " + module, nil
	}
	var lines, named []string
	for _, spec := range n.Children {
		local := spec.Option(common.OptionLocal)
		c.RegisterImport(local, source)
		switch spec.Option(common.OptionKind) {
		case common.ValueNamed:
			imported := spec.Option(common.OptionImported)
			if imported == local {
				named = append(named, local)
			} else {
				named = append(named, imported+" as "+local)
			}
		case common.ValueDefault:
			switch {
			case prefix != "":
				named = append(named, local)
			case module == local:
				lines = append(lines, "import "+module)
			default:
				lines = append(lines, "import "+module+" as "+local)
			}
		case common.ValueNamespace:
			if prefix == "" && module == local {
				lines = append(lines, "import "+module)
				break
			}
			if prefix == "" {
				lines = append(lines, "import "+module+" as "+local)
				break
			}
			parent, last := prefix, module
			if i := strings.LastIndexByte(module, '.'); i >= 0 {
				parent, last = prefix+module[:i], module[i+1:]
			}
			lines = append(lines, "from "+parent+" import "+last+" as "+local)
		}
	}
	if len(named) > 0 {
		lines = append(lines, "from "+full+" import "+strings.Join(named, ", "))
	}
	return strings.Join(lines, c.Newline()), nil
}

func exportIsSupported(n *common.Node, _ *engine.Context) bool {
	if n.Flag(common.OptionDefault) {
		decl := n.Child(0)
		return decl.Is(common.NameFunction, common.NameClass) && decl.HasOption(common.OptionName)
	}
	return true
}

// emitExport keeps the exported declaration; Python modules export every
// top-level name.
func emitExport(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	switch {
	case n.Flag(common.OptionDefault):
		decl := n.Child(0)
		if decl.Is(common.NameFunction) {
			return def(c, declare(c, decl.Option(common.OptionName)), decl, recurse, defOptions{})
		}
		return classDef(decl, c, recurse)
	case n.HasOption(common.OptionSource):
		prefix, module := modulePath(n.Option(common.OptionSource))
		var names []string
		for _, spec := range n.Children {
			imported := spec.Option(common.OptionImported)
			local := spec.Option(common.OptionLocal)
			switch {
			case imported == "*" && local == "":
				names = append(names, "*")
			case imported == "*":
				return "import " + prefix + module + " as " + local, nil
			case local == "" || local == imported:
				names = append(names, imported)
			default:
				names = append(names, imported+" as "+local)
			}
		}
		return "from " + prefix + module + " import " + strings.Join(names, ", "), nil
	case len(n.Children) == 1 && n.Child(0).Is(common.NameVar, common.NameFunction, common.NameClass):
		return recurse(n.Child(0))
	}
	return "", nil
}
