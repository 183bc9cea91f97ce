package python

import (
	"strings"

	"github.com/spicery/jsconvert/pkg/common"
	"github.com/spicery/jsconvert/pkg/engine"
)

// callMapping rewrites a call to a JavaScript global.
type callMapping struct {
	// name replaces the callee.
	name string
	// format, when set, takes the single argument in place of %s.
	format string
	// extra is appended to the argument list.
	extra string
	// module is imported in the prelude.
	module string
}

var globalCalls = map[string]callMapping{
	"console.log":         {name: "print"},
	"console.info":        {name: "print"},
	"console.debug":       {name: "print"},
	"console.error":       {name: "print", extra: "file=sys.stderr", module: "sys"},
	"console.warn":        {name: "print", extra: "file=sys.stderr", module: "sys"},
	"Math.floor":          {name: "math.floor", module: "math"},
	"Math.ceil":           {name: "math.ceil", module: "math"},
	"Math.sqrt":           {name: "math.sqrt", module: "math"},
	"Math.pow":            {name: "math.pow", module: "math"},
	"Math.log":            {name: "math.log", module: "math"},
	"Math.log2":           {name: "math.log2", module: "math"},
	"Math.log10":          {name: "math.log10", module: "math"},
	"Math.exp":            {name: "math.exp", module: "math"},
	"Math.sin":            {name: "math.sin", module: "math"},
	"Math.cos":            {name: "math.cos", module: "math"},
	"Math.tan":            {name: "math.tan", module: "math"},
	"Math.atan":           {name: "math.atan", module: "math"},
	"Math.atan2":          {name: "math.atan2", module: "math"},
	"Math.hypot":          {name: "math.hypot", module: "math"},
	"Math.trunc":          {name: "math.trunc", module: "math"},
	"Math.abs":            {name: "abs"},
	"Math.max":            {name: "max"},
	"Math.min":            {name: "min"},
	"Math.round":          {name: "round"},
	"Math.random":         {name: "random.random", module: "random"},
	"JSON.stringify":      {name: "json.dumps", module: "json"},
	"JSON.parse":          {name: "json.loads", module: "json"},
	"Object.keys":         {format: "list(%s.keys())"},
	"Object.values":       {format: "list(%s.values())"},
	"Object.entries":      {format: "list(%s.items())"},
	"Array.isArray":       {format: "isinstance(%s, list)"},
	"Array.from":          {name: "list"},
	"Number.isInteger":    {format: "isinstance(%s, int)"},
	"Number.isNaN":        {name: "math.isnan", module: "math"},
	"String.fromCharCode": {format: "chr(%s)"},
	"parseInt":            {name: "int"},
	"parseFloat":          {name: "float"},
	"String":              {name: "str"},
	"Number":              {name: "float"},
	"Boolean":             {name: "bool"},
	"isNaN":               {name: "math.isnan", module: "math"},
}

// methodRewrite turns receiver.method(args) into Python. It reports false
// when the call shape is not one it knows.
type methodRewrite func(c *engine.Context, call *common.Node, receiver string, args []string) (string, bool)

func rename(name string, arity int) methodRewrite {
	return func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		if arity >= 0 && len(args) != arity {
			return "", false
		}
		return receiver + "." + name + "(" + strings.Join(args, ", ") + ")", true
	}
}

// stringSearch maps indexOf and lastIndexOf onto str.find and str.rfind.
// Only a string argument marks the receiver as a string.
func stringSearch(name string) methodRewrite {
	return func(c *engine.Context, call *common.Node, receiver string, args []string) (string, bool) {
		if len(args) < 1 || len(args) > 2 {
			return "", false
		}
		if !call.Child(1).Child(0).Is(common.NameString, common.NameTemplate) {
			c.Warn(call, "%s assumed to search a string", call.Child(0).Option(common.OptionName))
		}
		return receiver + "." + name + "(" + strings.Join(args, ", ") + ")", true
	}
}

var methodCalls = map[string]methodRewrite{
	"push":        rename("append", 1),
	"toUpperCase": rename("upper", 0),
	"toLowerCase": rename("lower", 0),
	"trim":        rename("strip", 0),
	"trimStart":   rename("lstrip", 0),
	"trimEnd":     rename("rstrip", 0),
	"startsWith":  rename("startswith", 1),
	"endsWith":    rename("endswith", 1),
	"indexOf":     stringSearch("find"),
	"lastIndexOf": stringSearch("rfind"),
	"includes": func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		if len(args) != 1 {
			return "", false
		}
		return args[0] + " in " + receiver, true
	},
	"join": func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		switch len(args) {
		case 0:
			return `",".join(` + receiver + ")", true
		case 1:
			return args[0] + ".join(" + receiver + ")", true
		}
		return "", false
	},
	"toString": func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		if len(args) != 0 {
			return "", false
		}
		return "str(" + receiver + ")", true
	},
	"charAt": func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		switch len(args) {
		case 0:
			return receiver + "[0]", true
		case 1:
			return receiver + "[" + args[0] + "]", true
		}
		return "", false
	},
	"charCodeAt": func(_ *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		switch len(args) {
		case 0:
			return "ord(" + receiver + "[0])", true
		case 1:
			return "ord(" + receiver + "[" + args[0] + "])", true
		}
		return "", false
	},
	"substring": func(c *engine.Context, call *common.Node, receiver string, args []string) (string, bool) {
		switch len(args) {
		case 1:
			return receiver + "[" + args[0] + ":]", true
		case 2:
			bounds := call.Child(1).Children
			if !bounds[0].Is(common.NameNumber) || !bounds[1].Is(common.NameNumber) {
				c.Warn(call, "substring bounds assumed ordered and non-negative")
			}
			return receiver + "[" + args[0] + ":" + args[1] + "]", true
		}
		return "", false
	},
	"localeCompare": func(c *engine.Context, _ *common.Node, receiver string, args []string) (string, bool) {
		if len(args) != 1 {
			return "", false
		}
		c.Require("strcoll", "from locale import strcoll")
		return "strcoll(" + receiver + ", " + args[0] + ")", true
	},
}

// globalMembers are constants on JavaScript globals.
var globalMembers = map[string]callMapping{
	"Math.PI":                  {name: "math.pi", module: "math"},
	"Math.E":                   {name: "math.e", module: "math"},
	"Number.MAX_SAFE_INTEGER":  {name: "(2 ** 53 - 1)"},
	"Number.MIN_SAFE_INTEGER":  {name: "-(2 ** 53 - 1)"},
	"Number.POSITIVE_INFINITY": {name: `float("inf")`},
	"Number.NEGATIVE_INFINITY": {name: `-float("inf")`},
}

// constructors maps built-in classes onto their Python counterpart.
var constructors = map[string]string{
	"Error":          "Exception",
	"TypeError":      "TypeError",
	"RangeError":     "ValueError",
	"SyntaxError":    "SyntaxError",
	"ReferenceError": "NameError",
	"Map":            "dict",
	"Set":            "set",
	"Array":          "list",
	"Object":         "dict",
}

// globalName returns "console.log" style names for members of unshadowed
// globals and plain identifiers.
func globalName(n *common.Node, c *engine.Context) string {
	switch {
	case n.Is(common.NameIdentifier):
		name := n.Option(common.OptionName)
		if _, bound := c.Lookup(name); bound || c.IsImported(name) {
			return ""
		}
		return name
	case n.Is(common.NameMember) && !n.Flag(common.OptionOptional) && n.Child(0).Is(common.NameIdentifier):
		object := globalName(n.Child(0), c)
		if object == "" {
			return ""
		}
		return object + "." + n.Option(common.OptionName)
	}
	return ""
}

func emitMember(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	if mapping, ok := globalMembers[globalName(n, c)]; ok {
		if mapping.module != "" {
			c.Require(mapping.module, "import "+mapping.module)
		}
		return mapping.name, nil
	}
	name := n.Option(common.OptionName)
	if name == "length" {
		object, err := recurse(n.Child(0))
		if err != nil {
			return "", err
		}
		return "len(" + object + ")", nil
	}
	object, err := operand(n.Child(0), precAtom, recurse)
	if err != nil {
		return "", err
	}
	return object + "." + privateName(name), nil
}

func emitCall(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	callee := n.Child(0)
	args, err := arguments(n.Child(1), recurse)
	if err != nil {
		return "", err
	}
	if callee.Is(common.NameSuper) {
		return "super().__init__(" + strings.Join(args, ", ") + ")", nil
	}
	if mapping, ok := globalCalls[globalName(callee, c)]; ok {
		if text, ok := applyMapping(c, mapping, args); ok {
			return text, nil
		}
	}
	if callee.Is(common.NameMember) && !callee.Flag(common.OptionOptional) {
		if callee.Child(0).Is(common.NameRegex) && callee.Option(common.OptionName) == "test" && len(args) == 1 {
			pattern, err := recurse(callee.Child(0))
			if err != nil {
				return "", err
			}
			return "bool(" + pattern + ".search(" + args[0] + "))", nil
		}
		if rewrite, ok := methodCalls[callee.Option(common.OptionName)]; ok {
			receiver, err := operand(callee.Child(0), precAtom, recurse)
			if err != nil {
				return "", err
			}
			if text, ok := rewrite(c, n, receiver, args); ok {
				return text, nil
			}
			return receiver + "." + privateName(callee.Option(common.OptionName)) + "(" + strings.Join(args, ", ") + ")", nil
		}
	}
	function, err := operand(callee, precAtom, recurse)
	if err != nil {
		return "", err
	}
	return function + "(" + strings.Join(args, ", ") + ")", nil
}

func arguments(n *common.Node, recurse engine.Recurse) ([]string, error) {
	if n == nil {
		return nil, nil
	}
	args := make([]string, 0, len(n.Children))
	for _, arg := range n.Children {
		text, err := recurse(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, text)
	}
	return args, nil
}

func applyMapping(c *engine.Context, mapping callMapping, args []string) (string, bool) {
	var text string
	if mapping.format != "" {
		if len(args) != 1 {
			return "", false
		}
		text = strings.Replace(mapping.format, "%s", args[0], 1)
	} else {
		if mapping.extra != "" {
			args = append(args, mapping.extra)
		}
		text = mapping.name + "(" + strings.Join(args, ", ") + ")"
	}
	if mapping.module != "" {
		c.Require(mapping.module, "import "+mapping.module)
	}
	return text, true
}

func emitNew(n *common.Node, c *engine.Context, recurse engine.Recurse) (string, error) {
	callee := n.Child(0)
	args, err := arguments(n.Child(1), recurse)
	if err != nil {
		return "", err
	}
	class, ok := constructors[globalName(callee, c)]
	if !ok {
		if class, err = operand(callee, precAtom, recurse); err != nil {
			return "", err
		}
	}
	if class == "dict" && len(args) > 0 {
		c.Warn(n, "constructor arguments kept for dict")
	}
	return class + "(" + strings.Join(args, ", ") + ")", nil
}
