package xpath

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/midbel/yxpath/yang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schemaNode follows the data children of the top level node of module mod
// named after the first element of names.
func schemaNode(t *testing.T, ctx *yang.Context, mod string, names ...string) *yang.SchemaNode {
	t.Helper()
	var (
		list = ctx.Module(mod).Nodes
		curr *yang.SchemaNode
	)
	for _, n := range names {
		curr = nil
		for _, c := range list {
			if c.Name == n {
				curr = c
				break
			}
		}
		require.NotNil(t, curr, "%s: node not found", n)
		list = curr.DataChildren(false)
	}
	return curr
}

func atomize(t *testing.T, node *yang.SchemaNode, expr string, opts Options) *SchemaSet {
	t.Helper()
	e, err := Parse(expr)
	require.NoError(t, err)
	set, err := e.Atomize(node, opts)
	require.NoError(t, err)
	return set
}

func TestAtomizeParent(t *testing.T) {
	ctx, _ := loadFixtures(t)
	var (
		name    = schemaNode(t, ctx, "ex", "top", "name")
		stats   = schemaNode(t, ctx, "ex", "top", "stats")
		counter = schemaNode(t, ctx, "ex", "top", "stats", "counter")
	)

	set := atomize(t, name, "../stats/counter", Options{
		Mode:    ModeSchemaAll,
		Context: ctx,
	})
	assert.True(t, set.Contains(name))
	assert.True(t, set.Contains(name.Parent))
	assert.True(t, set.Contains(stats))
	assert.True(t, set.Contains(counter))
	assert.Equal(t, []*yang.SchemaNode{counter}, set.Context())

	set = atomize(t, name, "../stats/counter", Options{
		Mode:    ModeSchemaWhen,
		Context: ctx,
	})
	assert.False(t, set.Contains(stats))
	assert.Empty(t, set.Context())
}

func TestAtomizeNested(t *testing.T) {
	ctx, _ := loadFixtures(t)
	b := schemaNode(t, ctx, "a", "c", "ll", "ll", "b")

	set := atomize(t, nil, "/a:c/ll[a='val1']/ll[a='val2']/b", Options{
		Mode:    ModeSchemaAll,
		Context: ctx,
	})
	var got []string
	for _, n := range set.Nodes() {
		got = append(got, n.Path())
	}
	want := []string{
		"/a:c",
		"/a:c/ll",
		"/a:c/ll/a",
		"/a:c/ll/ll",
		"/a:c/ll/ll/a",
		"/a:c/ll/ll/b",
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []*yang.SchemaNode{b}, set.Context())
}

func TestAtomizeOperators(t *testing.T) {
	ctx, _ := loadFixtures(t)
	var (
		top  = schemaNode(t, ctx, "ex", "top")
		name = schemaNode(t, ctx, "ex", "top", "name")
		mtu  = schemaNode(t, ctx, "ex", "top", "iface", "mtu")
		opts = Options{
			Mode:    ModeSchemaAll,
			Context: ctx,
		}
	)
	set := atomize(t, top, "count(iface) > 1 and name != 'x' or sum(iface/mtu) = 0", opts)
	assert.True(t, set.Contains(name))
	assert.True(t, set.Contains(mtu))
	assert.Equal(t, []*yang.SchemaNode{name}, set.Context())

	set = atomize(t, top, "1 + 1", opts)
	assert.Equal(t, []*yang.SchemaNode{top}, set.Nodes())
	assert.Empty(t, set.Context())

	set = atomize(t, top, "name | current()/iface", opts)
	assert.Len(t, set.Context(), 2)
}

func TestAtomizeUnresolved(t *testing.T) {
	ctx, _ := loadFixtures(t)
	for _, str := range []string{"/late:box", "/ex:pending", "count(/ex:pending) = 0"} {
		t.Run(str, func(t *testing.T) {
			e, err := Parse(str)
			require.NoError(t, err)
			_, err = e.Atomize(nil, Options{
				Mode:    ModeSchemaAll,
				Context: ctx,
			})
			assert.ErrorIs(t, err, ErrUnresolved)
		})
	}
}

func TestAtomizeOperation(t *testing.T) {
	ctx, _ := loadFixtures(t)
	var (
		reset = schemaNode(t, ctx, "ex", "reset")
		opts  = Options{
			Mode:    ModeSchemaAll,
			Context: ctx,
		}
	)

	set := atomize(t, reset, "done", opts)
	assert.Empty(t, set.Context())

	set = atomize(t, reset, "delay", opts)
	require.Len(t, set.Context(), 1)
	assert.Equal(t, "delay", set.Context()[0].Name)

	opts.Output = true
	set = atomize(t, reset, "done", opts)
	require.Len(t, set.Context(), 1)
	assert.Equal(t, "done", set.Context()[0].Name)
}

func TestAtomizeDeref(t *testing.T) {
	ctx, _ := loadFixtures(t)
	var (
		primary = schemaNode(t, ctx, "ex", "top", "primary")
		iface   = schemaNode(t, ctx, "ex", "top", "iface")
		name    = schemaNode(t, ctx, "ex", "top", "iface", "name")
	)
	set := atomize(t, primary, "deref(.)", Options{
		Mode:    ModeSchemaAll,
		Context: ctx,
	})
	assert.True(t, set.Contains(iface))
	assert.True(t, set.Contains(name))
	assert.Contains(t, set.Context(), name)
}

func TestAtomizeWarnings(t *testing.T) {
	ctx, _ := loadFixtures(t)
	var (
		buf  bytes.Buffer
		name = schemaNode(t, ctx, "ex", "top", "name")
		alg  = schemaNode(t, ctx, "ex", "top", "alg")
		opts = Options{
			Mode:    ModeSchemaAll,
			Context: ctx,
			Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
		}
	)
	atomize(t, alg, "derived-from(., 'ex:des')", opts)
	assert.Empty(t, buf.String())

	atomize(t, name, "derived-from(., 'ex:des')", opts)
	assert.Contains(t, buf.String(), "unexpected node type")

	buf.Reset()
	atomize(t, name, "deref(.)", opts)
	assert.Contains(t, buf.String(), "not a reference")
}

func TestAtomizeRegex(t *testing.T) {
	ctx, _ := loadFixtures(t)
	name := schemaNode(t, ctx, "ex", "top", "name")

	e, err := Parse("re-match(., '[a-[b]]')")
	require.NoError(t, err)
	_, err = e.Atomize(name, Options{Context: ctx})
	assert.ErrorIs(t, err, ErrRegex)

	set := atomize(t, name, "re-match(., '[a-z]+')", Options{Context: ctx})
	assert.True(t, set.Contains(name))
}
