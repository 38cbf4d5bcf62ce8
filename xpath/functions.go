package xpath

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/midbel/yxpath/environ"
	"github.com/midbel/yxpath/yang"
	"golang.org/x/text/language"
)

type builtinFunc func(*evaluator, focus, []Value) (Value, error)

type builtin struct {
	name      string
	signature string
	min       int
	// max is negative for variadic functions
	max int
	// indexes of the arguments that should be node-sets
	nodes  []int
	data   builtinFunc
	schema builtinFunc
}

func (b *builtin) call(ev *evaluator, f focus, args []Value) (Value, error) {
	for _, i := range b.nodes {
		if i >= len(args) {
			continue
		}
		switch args[i].(type) {
		case *NodeSet, *SchemaSet, Empty:
		default:
			return nil, errorf(ErrType, "%s: argument %d should be a node-set, got %s", b.signature, i+1, args[i].Kind())
		}
	}
	if !ev.schema() {
		return b.data(ev, f, args)
	}
	if b.schema == nil {
		return newSchemaSet(), nil
	}
	return b.schema(ev, f, args)
}

var defaultBuiltins environ.Environ[*builtin]

func init() {
	defaultBuiltins = defaultBuiltin()
}

// Functions gives the names of the functions known by the parser.
func Functions() []string {
	return defaultBuiltins.Names()
}

func defaultBuiltin() environ.Environ[*builtin] {
	env := environ.Empty[*builtin]()
	for _, b := range builtins {
		env.Define(b.name, b)
	}
	return env
}

var builtins = []*builtin{
	{name: "boolean", signature: "boolean(object)", min: 1, max: 1, data: callBoolean},
	{name: "not", signature: "not(boolean)", min: 1, max: 1, data: callNot},
	{name: "true", signature: "true()", data: callTrue},
	{name: "false", signature: "false()", data: callFalse},
	{name: "string", signature: "string(object?)", max: 1, data: callString},
	{name: "concat", signature: "concat(string, string, string*)", min: 2, max: -1, data: callConcat},
	{name: "starts-with", signature: "starts-with(string, string)", min: 2, max: 2, data: callStartsWith},
	{name: "contains", signature: "contains(string, string)", min: 2, max: 2, data: callContains},
	{name: "substring-before", signature: "substring-before(string, string)", min: 2, max: 2, data: callSubstringBefore},
	{name: "substring-after", signature: "substring-after(string, string)", min: 2, max: 2, data: callSubstringAfter},
	{name: "substring", signature: "substring(string, number, number?)", min: 2, max: 3, data: callSubstring},
	{name: "string-length", signature: "string-length(string?)", max: 1, data: callStringLength},
	{name: "normalize-space", signature: "normalize-space(string?)", max: 1, data: callNormalizeSpace},
	{name: "translate", signature: "translate(string, string, string)", min: 3, max: 3, data: callTranslate},
	{name: "number", signature: "number(object?)", max: 1, data: callNumber},
	{name: "sum", signature: "sum(node-set)", min: 1, max: 1, nodes: []int{0}, data: callSum},
	{name: "floor", signature: "floor(number)", min: 1, max: 1, data: callFloor},
	{name: "ceiling", signature: "ceiling(number)", min: 1, max: 1, data: callCeiling},
	{name: "round", signature: "round(number)", min: 1, max: 1, data: callRound},
	{name: "count", signature: "count(node-set)", min: 1, max: 1, nodes: []int{0}, data: callCount},
	{name: "position", signature: "position()", data: callPosition},
	{name: "last", signature: "last()", data: callLast},
	{name: "local-name", signature: "local-name(node-set?)", max: 1, nodes: []int{0}, data: callLocalName},
	{name: "namespace-uri", signature: "namespace-uri(node-set?)", max: 1, nodes: []int{0}, data: callNamespaceURI},
	{name: "name", signature: "name(node-set?)", max: 1, nodes: []int{0}, data: callName},
	{name: "lang", signature: "lang(string)", min: 1, max: 1, data: callLang},
	{name: "current", signature: "current()", data: callCurrent, schema: schemaCurrent},
	{name: "deref", signature: "deref(node-set)", min: 1, max: 1, nodes: []int{0}, data: callDeref, schema: schemaDeref},
	{name: "derived-from", signature: "derived-from(node-set, string)", min: 2, max: 2, nodes: []int{0}, data: callDerivedFrom(false), schema: schemaCheckType("derived-from", yang.TypeIdentityRef)},
	{name: "derived-from-or-self", signature: "derived-from-or-self(node-set, string)", min: 2, max: 2, nodes: []int{0}, data: callDerivedFrom(true), schema: schemaCheckType("derived-from-or-self", yang.TypeIdentityRef)},
	{name: "bit-is-set", signature: "bit-is-set(node-set, string)", min: 2, max: 2, nodes: []int{0}, data: callBitIsSet, schema: schemaCheckType("bit-is-set", yang.TypeBits)},
	{name: "enum-value", signature: "enum-value(node-set)", min: 1, max: 1, nodes: []int{0}, data: callEnumValue, schema: schemaCheckType("enum-value", yang.TypeEnumeration)},
	{name: "re-match", signature: "re-match(string, string)", min: 2, max: 2, data: callReMatch, schema: schemaReMatch},
}

func callBoolean(_ *evaluator, _ focus, args []Value) (Value, error) {
	return toBoolean(args[0]), nil
}

func callNot(_ *evaluator, _ focus, args []Value) (Value, error) {
	return !toBoolean(args[0]), nil
}

func callTrue(_ *evaluator, _ focus, _ []Value) (Value, error) {
	return Boolean(true), nil
}

func callFalse(_ *evaluator, _ focus, _ []Value) (Value, error) {
	return Boolean(false), nil
}

func callString(_ *evaluator, f focus, args []Value) (Value, error) {
	if len(args) == 0 {
		return toString(f.ctx), nil
	}
	return toString(args[0]), nil
}

func callConcat(_ *evaluator, _ focus, args []Value) (Value, error) {
	var str strings.Builder
	for _, a := range args {
		str.WriteString(string(toString(a)))
	}
	return String(str.String()), nil
}

func callStartsWith(_ *evaluator, _ focus, args []Value) (Value, error) {
	ok := strings.HasPrefix(string(toString(args[0])), string(toString(args[1])))
	return Boolean(ok), nil
}

func callContains(_ *evaluator, _ focus, args []Value) (Value, error) {
	ok := strings.Contains(string(toString(args[0])), string(toString(args[1])))
	return Boolean(ok), nil
}

func callSubstringBefore(_ *evaluator, _ focus, args []Value) (Value, error) {
	before, _, ok := strings.Cut(string(toString(args[0])), string(toString(args[1])))
	if !ok {
		return String(""), nil
	}
	return String(before), nil
}

func callSubstringAfter(_ *evaluator, _ focus, args []Value) (Value, error) {
	_, after, ok := strings.Cut(string(toString(args[0])), string(toString(args[1])))
	if !ok {
		return String(""), nil
	}
	return String(after), nil
}

// callSubstring keeps the characters whose position p satisfies
// round(start) <= p < round(start) + round(length). Comparisons with NaN
// being false, NaN arguments give an empty string.
func callSubstring(_ *evaluator, _ focus, args []Value) (Value, error) {
	var (
		str   = []rune(string(toString(args[0])))
		start = round(float64(toNumber(args[1])))
		end   = math.Inf(1)
	)
	if len(args) == 3 {
		end = start + round(float64(toNumber(args[2])))
	}
	var res strings.Builder
	for i, r := range str {
		p := float64(i + 1)
		if p >= start && p < end {
			res.WriteRune(r)
		}
	}
	return String(res.String()), nil
}

func callStringLength(_ *evaluator, f focus, args []Value) (Value, error) {
	str := toString(f.ctx)
	if len(args) > 0 {
		str = toString(args[0])
	}
	return Number(utf8.RuneCountInString(string(str))), nil
}

func callNormalizeSpace(_ *evaluator, f focus, args []Value) (Value, error) {
	str := toString(f.ctx)
	if len(args) > 0 {
		str = toString(args[0])
	}
	fields := strings.FieldsFunc(string(str), isBlank)
	return String(strings.Join(fields, " ")), nil
}

func callTranslate(_ *evaluator, _ focus, args []Value) (Value, error) {
	var (
		from = []rune(string(toString(args[1])))
		to   = []rune(string(toString(args[2])))
		set  = make(map[rune]rune)
		drop = make(map[rune]bool)
	)
	for i, r := range from {
		if _, ok := set[r]; ok || drop[r] {
			continue
		}
		if i < len(to) {
			set[r] = to[i]
		} else {
			drop[r] = true
		}
	}
	var str strings.Builder
	for _, r := range string(toString(args[0])) {
		if drop[r] {
			continue
		}
		if x, ok := set[r]; ok {
			r = x
		}
		str.WriteRune(r)
	}
	return String(str.String()), nil
}

func callNumber(_ *evaluator, f focus, args []Value) (Value, error) {
	if len(args) == 0 {
		return toNumber(f.ctx), nil
	}
	return toNumber(args[0]), nil
}

func callSum(_ *evaluator, _ focus, args []Value) (Value, error) {
	var total float64
	if ns, ok := args[0].(*NodeSet); ok {
		for _, n := range ns.nodes {
			total += float64(parseNumber(n.String()))
		}
	}
	return Number(total), nil
}

func callFloor(_ *evaluator, _ focus, args []Value) (Value, error) {
	return Number(math.Floor(float64(toNumber(args[0])))), nil
}

func callCeiling(_ *evaluator, _ focus, args []Value) (Value, error) {
	return Number(math.Ceil(float64(toNumber(args[0])))), nil
}

func callRound(_ *evaluator, _ focus, args []Value) (Value, error) {
	return Number(round(float64(toNumber(args[0])))), nil
}

func callCount(_ *evaluator, _ focus, args []Value) (Value, error) {
	if ns, ok := args[0].(*NodeSet); ok {
		return Number(ns.Len()), nil
	}
	return Number(0), nil
}

func callPosition(_ *evaluator, f focus, _ []Value) (Value, error) {
	return Number(f.pos), nil
}

func callLast(_ *evaluator, f focus, _ []Value) (Value, error) {
	return Number(f.size), nil
}

// firstNode gives the first node in document order of the optional
// node-set argument or the context node.
func firstNode(f focus, args []Value) (Node, bool) {
	v := f.ctx
	if len(args) > 0 {
		v = args[0]
	}
	ns, ok := v.(*NodeSet)
	if !ok {
		return Node{}, false
	}
	return ns.first()
}

func callLocalName(_ *evaluator, f focus, args []Value) (Value, error) {
	n, ok := firstNode(f, args)
	if !ok {
		return String(""), nil
	}
	return String(n.LocalName()), nil
}

func callNamespaceURI(_ *evaluator, f focus, args []Value) (Value, error) {
	n, ok := firstNode(f, args)
	if !ok {
		return String(""), nil
	}
	if mod := n.Module(); mod != nil {
		return String(mod.Namespace), nil
	}
	return String(""), nil
}

func callName(_ *evaluator, f focus, args []Value) (Value, error) {
	n, ok := firstNode(f, args)
	if !ok {
		return String(""), nil
	}
	mod := n.Module()
	if mod == nil {
		return String(n.LocalName()), nil
	}
	return String(mod.Name + ":" + n.LocalName()), nil
}

const (
	xmlModule = "xml"
	xmlLang   = "lang"
)

// callLang looks for the xml:lang annotation of the context node or of its
// closest ancestor having one.
func callLang(_ *evaluator, f focus, args []Value) (Value, error) {
	n, ok := firstNode(f, nil)
	if !ok || n.Kind.isRoot() {
		return Boolean(false), nil
	}
	for d := n.Data; d != nil && !d.IsRoot(); d = d.Parent {
		for _, m := range d.Meta {
			if m.Name == xmlLang && m.Module.Name == xmlModule {
				return Boolean(langMatch(m.Value, string(toString(args[0])))), nil
			}
		}
	}
	return Boolean(false), nil
}

func langMatch(value, want string) bool {
	if tag, err := language.Parse(value); err == nil {
		value = tag.String()
	}
	if tag, err := language.Parse(want); err == nil {
		want = tag.String()
	}
	value, want = strings.ToLower(value), strings.ToLower(want)
	return value == want || strings.HasPrefix(value, want+"-")
}
