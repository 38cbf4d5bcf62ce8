package yang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestSchema(t *testing.T) *Context {
	t.Helper()
	ctx, err := LoadSchemaFile("testdata/schema.yaml")
	require.NoError(t, err)
	return ctx
}

func child(t *testing.T, nodes []*SchemaNode, name string) *SchemaNode {
	t.Helper()
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	require.FailNow(t, "node not found", name)
	return nil
}

func TestLoadSchema(t *testing.T) {
	ctx := loadTestSchema(t)

	ex := ctx.Module("ex")
	require.NotNil(t, ex)
	assert.Equal(t, "urn:ex", ex.Namespace)
	assert.Equal(t, "2024-03-01", ex.Revision)
	assert.True(t, ex.Compiled)
	assert.False(t, ctx.Module("late").Compiled)
	assert.Nil(t, ctx.Module("lt"))

	assert.Same(t, ex, ex.ResolvePrefix("ex"))
	assert.Same(t, ctx.Module("xml"), ctx.Module("ex").ResolvePrefix("xml"))
	assert.Nil(t, ex.ResolvePrefix("zz"))
}

func TestLoadSchemaIdentities(t *testing.T) {
	ex := loadTestSchema(t).Module("ex")
	var (
		base = ex.Identity("crypto-alg")
		des  = ex.Identity("des")
		des3 = ex.Identity("des3")
		aes  = ex.Identity("aes")
	)
	require.NotNil(t, base)
	assert.True(t, des3.DerivedFrom(des))
	assert.True(t, des3.DerivedFrom(base))
	assert.False(t, des3.DerivedFrom(des3))
	assert.False(t, des3.DerivedFrom(aes))
	assert.False(t, base.DerivedFrom(des))
	assert.Equal(t, "ex:des3", des3.String())

	alg := child(t, child(t, ex.Nodes, "top").Children, "alg")
	require.Len(t, alg.Type.Bases, 1)
	assert.Same(t, base, alg.Type.Bases[0])
}

func TestLoadSchemaTypes(t *testing.T) {
	top := child(t, loadTestSchema(t).Module("ex").Nodes, "top")

	color := child(t, top.Children, "color")
	want := []Enum{
		{Name: "red", Value: 1},
		{Name: "green", Value: 2},
		{Name: "blue", Value: 10},
	}
	assert.Equal(t, want, color.Type.Enums)

	e, ok := color.Type.Enum("blue")
	assert.True(t, ok)
	assert.Equal(t, 10, e.Value)
	_, ok = color.Type.Enum("pink")
	assert.False(t, ok)

	flags := child(t, top.Children, "flags")
	assert.Equal(t, 2, flags.Type.Bits[2].Position)
	assert.True(t, flags.Type.BitSet("up running", "running"))
	assert.False(t, flags.Type.BitSet("up running", "loopback"))
	assert.False(t, flags.Type.BitSet("up bogus", "bogus"))

	name := child(t, top.Children, "name")
	assert.Equal(t, TypeString, name.Type.Base)

	primary := child(t, top.Children, "primary")
	assert.Equal(t, "../iface/name", primary.Type.Path)
	assert.NotNil(t, primary.Type.Find(TypeLeafRef))
	assert.False(t, primary.Type.Has(TypeString))
}

func TestLoadSchemaUnion(t *testing.T) {
	const doc = `
modules:
  - name: u
    nodes:
      - leaf: value
        type: union
        types: [uint8, enumeration]
        enums:
          - name: auto
`
	ctx, err := LoadSchema(strings.NewReader(doc))
	require.NoError(t, err)

	leaf := ctx.Module("u").Nodes[0]
	assert.True(t, leaf.Type.Has(TypeUint8))
	assert.True(t, leaf.Type.Has(TypeEnumeration))
	assert.False(t, leaf.Type.Has(TypeBits))

	e, ok := leaf.Type.Enum("auto")
	assert.True(t, ok)
	assert.Equal(t, 0, e.Value)
	assert.Equal(t, "u", ctx.Module("u").Prefix)
}

func TestLoadSchemaTree(t *testing.T) {
	ctx := loadTestSchema(t)
	top := child(t, ctx.Module("ex").Nodes, "top")

	var names []string
	for _, n := range top.DataChildren(false) {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "addr4")
	assert.Contains(t, names, "addr6")
	assert.NotContains(t, names, "proto")

	addr4 := child(t, top.DataChildren(false), "addr4")
	assert.Equal(t, KindCase, addr4.Parent.Kind)
	assert.Same(t, top, addr4.DataParent())
	assert.Equal(t, "/ex:top/addr4", addr4.Path())

	name := child(t, child(t, top.Children, "iface").Children, "name")
	assert.Equal(t, "/ex:top/iface/name", name.Path())
	assert.Equal(t, "leaf /ex:top/iface/name", name.String())

	var tops []string
	for _, n := range ctx.Nodes() {
		tops = append(tops, n.QualifiedName())
	}
	assert.Equal(t, []string{"ex:top", "ex:pending", "ex:reset", "a:c", "late:box", "t:a"}, tops)
}

func TestLoadSchemaConfig(t *testing.T) {
	ex := loadTestSchema(t).Module("ex")
	top := child(t, ex.Nodes, "top")

	assert.True(t, top.Config)
	iface := child(t, top.Children, "iface")
	assert.True(t, child(t, iface.Children, "mtu").Config)
	assert.False(t, child(t, iface.Children, "oper").Config)

	stats := child(t, top.Children, "stats")
	assert.False(t, stats.Config)
	assert.False(t, child(t, stats.Children, "counter").Config)

	reset := child(t, ex.Nodes, "reset")
	assert.False(t, reset.Config)
	assert.Equal(t, "delay", reset.DataChildren(false)[0].Name)
	assert.Equal(t, "done", reset.DataChildren(true)[0].Name)
	assert.False(t, reset.DataChildren(false)[0].Config)
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		Name string
		Doc  string
		Err  error
	}{
		{
			Name: "module-name",
			Doc:  "modules: [{prefix: x}]",
			Err:  ErrFormat,
		},
		{
			Name: "keyword",
			Doc:  "modules: [{name: x, nodes: [{type: string}]}]",
			Err:  ErrFormat,
		},
		{
			Name: "keywords",
			Doc:  "modules: [{name: x, nodes: [{leaf: a, container: b}]}]",
			Err:  ErrFormat,
		},
		{
			Name: "type",
			Doc:  "modules: [{name: x, nodes: [{leaf: a, type: float}]}]",
			Err:  ErrFormat,
		},
		{
			Name: "leafref",
			Doc:  "modules: [{name: x, nodes: [{leaf: a, type: leafref}]}]",
			Err:  ErrFormat,
		},
		{
			Name: "import",
			Doc:  "modules: [{name: x, imports: [{module: y}]}]",
			Err:  ErrModule,
		},
		{
			Name: "identity",
			Doc:  "modules: [{name: x, identities: [{name: a, bases: [b]}]}]",
			Err:  ErrIdentity,
		},
		{
			Name: "identity-prefix",
			Doc:  "modules: [{name: x, identities: [{name: a, bases: ['y:b']}]}]",
			Err:  ErrModule,
		},
		{
			Name: "identityref",
			Doc:  "modules: [{name: x, nodes: [{leaf: a, type: identityref, bases: [b]}]}]",
			Err:  ErrIdentity,
		},
	}
	for _, c := range tests {
		t.Run(c.Name, func(t *testing.T) {
			_, err := LoadSchema(strings.NewReader(c.Doc))
			assert.ErrorIs(t, err, c.Err)
		})
	}
}

func TestLoadData(t *testing.T) {
	ctx := loadTestSchema(t)
	doc, err := LoadDataFile(ctx, "testdata/data.yaml")
	require.NoError(t, err)
	require.True(t, doc.IsRoot())
	require.Len(t, doc.Children, 2)

	top := doc.FirstChild()
	assert.Equal(t, "/ex:top", top.Path())
	assert.Same(t, doc, top.Root())
	require.Len(t, top.Meta, 1)
	assert.Equal(t, "xml", top.Meta[0].Module.Name)
	assert.Equal(t, "fr", top.Meta[0].Value)

	var paths []string
	for n := top.FirstChild(); n != nil; n = n.NextSibling() {
		paths = append(paths, n.Path())
	}
	want := []string{
		"/ex:top/name",
		"/ex:top/tag[.='alpha']",
		"/ex:top/tag[.='beta']",
		"/ex:top/iface[name='eth0']",
		"/ex:top/iface[name='eth1']",
		"/ex:top/empty",
		"/ex:top/addr4",
	}
	assert.Equal(t, want, paths)

	name := top.FirstChild()
	require.Len(t, name.Meta, 1)
	assert.Equal(t, "en-US", name.Meta[0].Value)
	assert.Equal(t, "/ex:top/name = eth-config", name.String())

	empty := top.Children[5]
	assert.Equal(t, "", empty.Value)
	assert.Equal(t, "eth-configalphabeta", top.Children[0].Text()+top.Children[1].Text()+top.Children[2].Text())

	other := doc.Children[1]
	assert.Equal(t, "/t:a", other.Path())
	assert.Equal(t, "t", other.FirstChild().Module().Name)
	assert.Equal(t, "/t:a/b", other.FirstChild().Path())
	assert.Empty(t, other.FirstChild().Children)
}

func TestDataNext(t *testing.T) {
	ctx := loadTestSchema(t)
	doc, err := LoadDataFile(ctx, "testdata/data.yaml")
	require.NoError(t, err)

	var list []string
	for n := doc.Next(); n != nil; n = n.Next() {
		list = append(list, n.Name())
	}
	want := []string{
		"top", "name", "tag", "tag",
		"iface", "name", "mtu", "iface", "name", "mtu",
		"empty", "addr4", "a", "b", "c",
	}
	assert.Equal(t, want, list)
}

func TestLoadDataEmpty(t *testing.T) {
	ctx := loadTestSchema(t)
	for _, str := range []string{"", "{}"} {
		doc, err := LoadData(ctx, strings.NewReader(str))
		require.NoError(t, err)
		assert.True(t, doc.IsRoot())
		assert.Empty(t, doc.Children)
		assert.Equal(t, "/", doc.Path())
	}
}

func TestLoadDataErrors(t *testing.T) {
	ctx := loadTestSchema(t)
	tests := []struct {
		Name string
		Doc  string
	}{
		{
			Name: "unqualified",
			Doc:  "top: {}",
		},
		{
			Name: "module",
			Doc:  "zz:top: {}",
		},
		{
			Name: "member",
			Doc:  "ex:top: {nothing: 1}",
		},
		{
			Name: "leaf-list",
			Doc:  "ex:top: {tag: alpha}",
		},
		{
			Name: "list",
			Doc:  "ex:top: {iface: {name: eth0}}",
		},
		{
			Name: "leaf",
			Doc:  "ex:top: {name: {a: b}}",
		},
		{
			Name: "object",
			Doc:  "[1, 2]",
		},
		{
			Name: "meta-root",
			Doc:  "'@':\n  ex:x: 1\n",
		},
		{
			Name: "meta-member",
			Doc:  "ex:top:\n  '@nothing':\n    ex:x: 1\n",
		},
		{
			Name: "meta-unqualified",
			Doc:  "ex:top: {'@': {x: 1}}",
		},
	}
	for _, c := range tests {
		t.Run(c.Name, func(t *testing.T) {
			_, err := LoadData(ctx, strings.NewReader(c.Doc))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}
