package xpath

import (
	"math"
	"testing"

	"github.com/midbel/yxpath/yang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T) (*yang.Context, *yang.DataNode) {
	t.Helper()
	ctx, err := yang.LoadSchemaFile("testdata/schema.yaml")
	require.NoError(t, err)
	doc, err := yang.LoadDataFile(ctx, "testdata/data.yaml")
	require.NoError(t, err)
	return ctx, doc
}

func findOne(t *testing.T, doc *yang.DataNode, expr string) *yang.DataNode {
	t.Helper()
	set, err := Find(doc, expr)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len(), "%s should select one node", expr)
	return set.Nodes()[0].Data
}

func evaluate(t *testing.T, node *yang.DataNode, expr string, opts Options) Value {
	t.Helper()
	e, err := Parse(expr)
	require.NoError(t, err)
	v, err := e.Eval(node, opts)
	require.NoError(t, err)
	return v
}

func TestEvalAtomic(t *testing.T) {
	tests := []struct {
		Expr string
		Want Value
	}{
		{Expr: "1 + 1", Want: Number(2)},
		{Expr: `"ab" = "ab"`, Want: Boolean(true)},
		{Expr: `concat("a", "b", "c")`, Want: String("abc")},
		{Expr: "1 div 0", Want: Number(math.Inf(1))},
		{Expr: "-1 div 0", Want: Number(math.Inf(-1))},
		{Expr: "string(0 div 0)", Want: String("NaN")},
		{Expr: "string(1 div 0)", Want: String("Infinity")},
		{Expr: "7 mod 3", Want: Number(1)},
		{Expr: "-7 mod 3", Want: Number(-1)},
		{Expr: "-(2 + 3) * 2", Want: Number(-10)},
		{Expr: "- - 1 + 2", Want: Number(3)},
		{Expr: "2 * 3 div 4", Want: Number(1.5)},
		{Expr: "1 < 2 and 2 >= 2", Want: Boolean(true)},
		{Expr: "1 = 1 = 1", Want: Boolean(true)},
		{Expr: "'1' = 1", Want: Boolean(true)},
		{Expr: "true() = 'x'", Want: Boolean(true)},
		{Expr: "substring('12345', 1.5, 2.6)", Want: String("234")},
		{Expr: "substring('12345', 0, 3)", Want: String("12")},
		{Expr: "substring('12345', 0 div 0, 3)", Want: String("")},
		{Expr: "substring('12345', -42, 1 div 0)", Want: String("12345")},
		{Expr: "substring('12345', -1 div 0, 1 div 0)", Want: String("")},
		{Expr: "substring('12345', 3)", Want: String("345")},
		{Expr: "substring-before('1999/04/01', '/')", Want: String("1999")},
		{Expr: "substring-after('1999/04/01', '/')", Want: String("04/01")},
		{Expr: "substring-after('1999/04/01', '-')", Want: String("")},
		{Expr: "normalize-space('  a   b  ')", Want: String("a b")},
		{Expr: "translate('bar', 'abc', 'ABC')", Want: String("BAr")},
		{Expr: "translate('--aaa--', 'abc-', 'ABC')", Want: String("AAA")},
		{Expr: "string-length('héllo')", Want: Number(5)},
		{Expr: "starts-with('abc', 'ab')", Want: Boolean(true)},
		{Expr: "contains('abc', 'd')", Want: Boolean(false)},
		{Expr: "floor(-1.5)", Want: Number(-2)},
		{Expr: "ceiling(1.2)", Want: Number(2)},
		{Expr: "round(2.5)", Want: Number(3)},
		{Expr: "boolean('')", Want: Boolean(false)},
		{Expr: "not(0)", Want: Boolean(true)},
		{Expr: "true() and false()", Want: Boolean(false)},
		{Expr: "false() or 1", Want: Boolean(true)},
		{Expr: "number('12') + 1", Want: Number(13)},
		{Expr: "string(12.50)", Want: String("12.5")},
		{Expr: "4[3 = 3]", Want: Number(4)},
		{Expr: "4[3 = 2]", Want: Empty{}},
		{Expr: "false() and count(1)", Want: Boolean(false)},
		{Expr: "true() or count(1)", Want: Boolean(true)},
		{Expr: "re-match('1.22.333', '\\d{1,3}\\.\\d{1,3}\\.\\d{1,3}')", Want: Boolean(true)},
		{Expr: "re-match('abc', 'b')", Want: Boolean(false)},
		{Expr: "re-match('a-b', '\\c+')", Want: Boolean(true)},
		{Expr: "re-match('', '')", Want: Boolean(true)},
		{Expr: "re-match('^a$', '^a$')", Want: Boolean(true)},
		{Expr: "re-match('a+b', '[\\w+]+')", Want: Boolean(true)},
		{Expr: "re-match('a b', '[\\w]+')", Want: Boolean(false)},
		{Expr: "re-match('a\rb', 'a.b')", Want: Boolean(false)},
		{Expr: "re-match('a\tb', 'a.b')", Want: Boolean(true)},
	}
	doc := yang.NewDocument()
	for _, c := range tests {
		t.Run(c.Expr, func(t *testing.T) {
			got := evaluate(t, doc, c.Expr, Options{})
			assert.Equal(t, c.Want, got)
		})
	}
}

func TestEvalData(t *testing.T) {
	ctx, doc := loadFixtures(t)
	tests := []struct {
		Expr string
		Want Value
	}{
		{Expr: "count(/ex:top/ex:iface)", Want: Number(2)},
		{Expr: "count(/ex:top/ex:tag)", Want: Number(2)},
		{Expr: "string(/ex:top/ex:tag[2])", Want: String("beta")},
		{Expr: "string(/ex:top/ex:iface[ex:mtu > 1500]/ex:name)", Want: String("eth1")},
		{Expr: "string(/ex:top/ex:iface[last()]/ex:name)", Want: String("eth1")},
		{Expr: "string(/ex:top/ex:iface[1]/ex:name)", Want: String("eth0")},
		{Expr: "string((/ex:top/ex:iface/ex:name)[2])", Want: String("eth1")},
		{Expr: "/ex:top/ex:iface/ex:mtu = 9000", Want: Boolean(true)},
		{Expr: "/ex:top/ex:iface/ex:mtu != 9000", Want: Boolean(true)},
		{Expr: "/ex:top/ex:iface/ex:mtu > 9000", Want: Boolean(false)},
		{Expr: "/ex:top/ex:iface/ex:name = /ex:top/ex:primary", Want: Boolean(true)},
		{Expr: "/ex:top/ex:nothing = ''", Want: Boolean(false)},
		{Expr: "sum(/ex:top/ex:iface/ex:mtu)", Want: Number(10500)},
		{Expr: "count(//ex:name)", Want: Number(3)},
		{Expr: "count(//ex:iface/ex:name)", Want: Number(2)},
		{Expr: "count(//ex:iface[1])", Want: Number(1)},
		{Expr: "count(/ex:top/ex:iface/ex:oper)", Want: Number(2)},
		{Expr: "count(/ex:top/ex:stats)", Want: Number(1)},
		{Expr: "count(/ex:top/ex:*)", Want: Number(12)},
		{Expr: "count(/*)", Want: Number(2)},
		{Expr: "string(/ex:top/ex:addr4)", Want: String("10.0.0.1")},
		{Expr: "string(/ex:top/ex:name/text())", Want: String("eth-config")},
		{Expr: "count(/ex:top/ex:name/node())", Want: Number(1)},
		{Expr: "count(/ex:top/ex:name/text()/..)", Want: Number(1)},
		{Expr: "name(/ex:top)", Want: String("ex:top")},
		{Expr: "local-name(/ex:top/*[1])", Want: String("name")},
		{Expr: "namespace-uri(/ex:top)", Want: String("urn:ex")},
		{Expr: "local-name(/ex:nothing)", Want: String("")},
		{Expr: "string(/ex:top/ex:name/@xml:lang)", Want: String("en-US")},
		{Expr: "count(/ex:top/@*)", Want: Number(1)},
		{Expr: "name(/ex:top/@*)", Want: String("xml:lang")},
		{Expr: "enum-value(/ex:top/ex:color)", Want: Number(2)},
		{Expr: "string(enum-value(/ex:top/ex:name))", Want: String("NaN")},
		{Expr: "bit-is-set(/ex:top/ex:flags, 'running')", Want: Boolean(true)},
		{Expr: "bit-is-set(/ex:top/ex:flags, 'loopback')", Want: Boolean(false)},
		{Expr: "bit-is-set(/ex:top/ex:flags, 'bogus')", Want: Boolean(false)},
		{Expr: "derived-from(/ex:top/ex:alg, 'ex:des')", Want: Boolean(true)},
		{Expr: "derived-from(/ex:top/ex:alg, 'ex:crypto-alg')", Want: Boolean(true)},
		{Expr: "derived-from(/ex:top/ex:alg, 'ex:des3')", Want: Boolean(false)},
		{Expr: "derived-from-or-self(/ex:top/ex:alg, 'ex:des3')", Want: Boolean(true)},
		{Expr: "derived-from(/ex:top/ex:alg, 'ex:aes')", Want: Boolean(false)},
		{Expr: "derived-from(/ex:top/ex:name, 'ex:des')", Want: Boolean(false)},
		{Expr: "re-match(/ex:top/ex:name, 'eth-.*')", Want: Boolean(true)},
		{Expr: "number(deref(/ex:top/ex:primary)/../ex:mtu)", Want: Number(9000)},
		{Expr: "number(deref(/ex:top/ex:target))", Want: Number(1500)},
		{Expr: "count(deref(/ex:top/ex:name))", Want: Number(0)},
		{Expr: "lang('en')", Want: Boolean(false)},
	}
	for _, c := range tests {
		t.Run(c.Expr, func(t *testing.T) {
			got := evaluate(t, doc, c.Expr, Options{Context: ctx})
			assert.Equal(t, c.Want, got)
		})
	}
}

func TestEvalContextNode(t *testing.T) {
	ctx, doc := loadFixtures(t)
	var (
		iface = findOne(t, doc, "/ex:top/ex:iface[1]")
		name  = findOne(t, doc, "/ex:top/ex:name")
		color = findOne(t, doc, "/ex:top/ex:color")
		opts  = Options{Context: ctx}
	)
	tests := []struct {
		Node *yang.DataNode
		Expr string
		Want Value
	}{
		{Node: iface, Expr: "string(../ex:iface[ex:mtu > current()/ex:mtu]/ex:name)", Want: String("eth1")},
		{Node: iface, Expr: "string(current()/ex:name)", Want: String("eth0")},
		{Node: iface, Expr: "count(. | ../ex:iface)", Want: Number(2)},
		{Node: iface, Expr: "count(ancestor)", Want: Number(0)},
		{Node: iface, Expr: "count(/)", Want: Number(1)},
		{Node: iface, Expr: "count(..)", Want: Number(1)},
		{Node: iface, Expr: "count(../..)", Want: Number(1)},
		{Node: iface, Expr: "count(../../..)", Want: Number(0)},
		{Node: name, Expr: "lang('en')", Want: Boolean(true)},
		{Node: name, Expr: "lang('EN-us')", Want: Boolean(true)},
		{Node: name, Expr: "lang('fr')", Want: Boolean(false)},
		{Node: color, Expr: "lang('fr')", Want: Boolean(true)},
		{Node: name, Expr: "string()", Want: String("eth-config")},
		{Node: name, Expr: "string-length()", Want: Number(10)},
		{Node: name, Expr: "local-name()", Want: String("name")},
	}
	for _, c := range tests {
		t.Run(c.Expr, func(t *testing.T) {
			got := evaluate(t, c.Node, c.Expr, opts)
			assert.Equal(t, c.Want, got)
		})
	}
}

func TestEvalModule(t *testing.T) {
	ctx, doc := loadFixtures(t)
	opts := Options{
		Context: ctx,
		Module:  ctx.Module("ex"),
	}
	assert.Equal(t, Number(2), evaluate(t, doc, "count(/top/iface)", opts))
	assert.Equal(t, Number(0), evaluate(t, doc, "count(/a)", opts))
	assert.Equal(t, Number(1), evaluate(t, doc, "count(/t:a)", opts))
	assert.Equal(t, Number(1), evaluate(t, doc, "count(/a)", Options{Context: ctx}))
}

func TestEvalConfigOnly(t *testing.T) {
	ctx, doc := loadFixtures(t)
	opts := Options{
		Context:    ctx,
		ConfigOnly: true,
	}
	assert.Equal(t, Number(0), evaluate(t, doc, "count(/ex:top/ex:iface/ex:oper)", opts))
	assert.Equal(t, Number(0), evaluate(t, doc, "count(/ex:top/ex:stats)", opts))
	assert.Equal(t, Number(0), evaluate(t, doc, "count(//ex:counter)", opts))
	assert.Equal(t, Number(2), evaluate(t, doc, "count(/ex:top/ex:iface/ex:mtu)", opts))
}

func TestEvalChildren(t *testing.T) {
	_, doc := loadFixtures(t)
	a := findOne(t, doc, "/t:a")

	assert.Equal(t, Number(2), evaluate(t, a, "count(*)", Options{}))

	v := evaluate(t, a, "*[position()=2]", Options{})
	set, ok := v.(*NodeSet)
	require.True(t, ok)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "c", set.Nodes()[0].LocalName())
}

func TestEvalNodeSet(t *testing.T) {
	ctx, doc := loadFixtures(t)
	tests := []struct {
		Expr string
		Want []string
	}{
		{
			Expr: "/ex:top/ex:iface/ex:mtu | /ex:top/ex:iface/ex:name",
			Want: []string{"eth0", "1500", "eth1", "9000"},
		},
		{
			Expr: "/ex:top/ex:iface[2]/ex:name | /ex:top/ex:name",
			Want: []string{"eth-config", "eth1"},
		},
		{
			Expr: "//ex:tag",
			Want: []string{"alpha", "beta"},
		},
		{
			Expr: "/ex:top/ex:iface/ex:name/text()",
			Want: []string{"eth0", "eth1"},
		},
		{
			Expr: "/foo2[4[3 = 3]]",
			Want: nil,
		},
	}
	for _, c := range tests {
		t.Run(c.Expr, func(t *testing.T) {
			v := evaluate(t, doc, c.Expr, Options{Context: ctx})
			set, ok := v.(*NodeSet)
			require.True(t, ok, "node-set expected, got %s", v.Kind())
			assert.True(t, set.Sorted())
			var got []string
			for _, n := range set.Nodes() {
				got = append(got, n.String())
			}
			assert.Equal(t, c.Want, got)
		})
	}
}

func TestEvalDeterministic(t *testing.T) {
	ctx, doc := loadFixtures(t)
	expr, err := Parse("//ex:name | //ex:mtu | /ex:top/@* | //text()")
	require.NoError(t, err)

	paths := func() []string {
		v, err := expr.Eval(doc, Options{Context: ctx})
		require.NoError(t, err)
		var list []string
		for _, n := range v.(*NodeSet).Nodes() {
			list = append(list, n.Path())
		}
		return list
	}
	first := paths()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, paths())
}

func TestEvalErrors(t *testing.T) {
	ctx, doc := loadFixtures(t)
	tests := []struct {
		Expr string
		Err  error
	}{
		{Expr: "/zz:top", Err: ErrPrefix},
		{Expr: "count(1)", Err: ErrType},
		{Expr: "sum('a')", Err: ErrType},
		{Expr: "1 | 2", Err: ErrType},
		{Expr: "'a'/b", Err: ErrType},
		{Expr: "count(1) or true()", Err: ErrType},
		{Expr: "re-match('a', '[a-[b]]')", Err: ErrRegex},
		{Expr: "re-match('a', '\\p{IsBasicLatin}')", Err: ErrRegex},
		{Expr: "re-match('a', '(a')", Err: ErrRegex},
		{Expr: "derived-from(/ex:top/ex:alg, 'ex:nope')", Err: yang.ErrIdentity},
		{Expr: "derived-from(/ex:top/ex:alg, 'zz:des')", Err: ErrPrefix},
	}
	for _, c := range tests {
		t.Run(c.Expr, func(t *testing.T) {
			e, err := Parse(c.Expr)
			require.NoError(t, err)
			_, err = e.Eval(doc, Options{Context: ctx})
			assert.ErrorIs(t, err, c.Err)
		})
	}

	e, err := Parse("1")
	require.NoError(t, err)
	_, err = e.Eval(nil, Options{})
	assert.ErrorIs(t, err, ErrContext)
}

func TestFind(t *testing.T) {
	_, doc := loadFixtures(t)

	set, err := Find(doc, "/ex:top/ex:iface/ex:name")
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	set, err = Find(doc, "/ex:top/ex:nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	_, err = Find(doc, "count(/ex:top)")
	assert.ErrorIs(t, err, ErrType)
}
