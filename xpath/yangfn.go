package xpath

import (
	"fmt"
	"math"
	"strings"

	"github.com/midbel/yxpath/yang"
)

func callCurrent(ev *evaluator, _ focus, _ []Value) (Value, error) {
	return ev.origin, nil
}

func schemaCurrent(ev *evaluator, _ focus, _ []Value) (Value, error) {
	set := newSchemaSet()
	if ss, ok := ev.origin.(*SchemaSet); ok {
		set.merge(ss)
	}
	return set, nil
}

// callDeref gives the nodes referenced by the first node of its argument: the
// nodes selected by the path of a leafref having the same value as the leaf,
// or the node designated by an instance-identifier.
func callDeref(ev *evaluator, _ focus, args []Value) (Value, error) {
	ns, ok := args[0].(*NodeSet)
	if !ok {
		return ev.nodeSet(), nil
	}
	n, ok := ns.first()
	if !ok || n.Kind != NodeElement || !n.Data.IsTerm() {
		return ev.nodeSet(), nil
	}
	typ := n.Data.Schema.Type
	if t := typ.Find(yang.TypeLeafRef); t != nil {
		return derefLeafref(ev, n, t)
	}
	if typ.Has(yang.TypeInstanceIdentifier) {
		return derefInstance(ev, n)
	}
	return ev.nodeSet(), nil
}

func derefLeafref(ev *evaluator, n Node, typ *yang.Type) (Value, error) {
	expr, err := Parse(typ.Path)
	if err != nil {
		return nil, fmt.Errorf("leafref %s: %w", n.Data.Schema.Path(), err)
	}
	origin := ev.nodeSet()
	origin.add(n)

	x := ev.derive(origin, n.Data.Schema.Module)
	v, err := expr.expr.eval(x, x.focus())
	if err != nil {
		return nil, err
	}
	res := ev.nodeSet()
	if list, ok := v.(*NodeSet); ok {
		for _, t := range list.nodes {
			if t.String() == n.Data.Value {
				res.add(t)
			}
		}
	}
	return res, nil
}

func derefInstance(ev *evaluator, n Node) (Value, error) {
	expr, err := Parse(n.Data.Value)
	if err != nil {
		return nil, fmt.Errorf("instance-identifier %s: %w", n.Data.Path(), err)
	}
	x := ev.derive(ev.nav.root(ev), nil)
	v, err := expr.expr.eval(x, x.focus())
	if err != nil {
		return nil, err
	}
	if _, ok := v.(*NodeSet); !ok {
		return ev.nodeSet(), nil
	}
	return v, nil
}

// schemaDeref registers the targets of the leafrefs of its argument. Targets
// known by the schema are used as is, the path of the leafref is atomized
// otherwise.
func schemaDeref(ev *evaluator, _ focus, args []Value) (Value, error) {
	res := newSchemaSet()
	ss, ok := args[0].(*SchemaSet)
	if !ok {
		return res, nil
	}
	for _, node := range ss.Nodes() {
		if !node.IsTerm() {
			continue
		}
		typ := node.Type.Find(yang.TypeLeafRef)
		if typ == nil {
			if !node.Type.Has(yang.TypeInstanceIdentifier) {
				ev.warn("deref on a leaf that is not a reference", "node", node.Path())
			}
			continue
		}
		switch {
		case typ.Target != nil:
			if typ.Target.Unresolved {
				return nil, fmt.Errorf("%w: %s", ErrUnresolved, typ.Target.Path())
			}
			res.add(SchemaItem{Node: typ.Target, Kind: NodeElement, InCtx: true})
		case typ.Path != "":
			list, err := atomizeLeafref(ev, node, typ.Path)
			if err != nil {
				return nil, err
			}
			res.merge(list)
		default:
			return nil, fmt.Errorf("%w: leafref target of %s", ErrUnresolved, node.Path())
		}
	}
	ev.record(res)
	return res, nil
}

func atomizeLeafref(ev *evaluator, node *yang.SchemaNode, str string) (*SchemaSet, error) {
	expr, err := Parse(str)
	if err != nil {
		return nil, fmt.Errorf("leafref %s: %w", node.Path(), err)
	}
	origin := newSchemaSet()
	origin.add(SchemaItem{Node: node, Kind: NodeElement, InCtx: true})

	x := ev.derive(origin, node.Module)
	v, err := expr.expr.eval(x, x.focus())
	if err != nil {
		return nil, err
	}
	ev.record(x.atoms)

	res := newSchemaSet()
	if ss, ok := v.(*SchemaSet); ok {
		for _, i := range ss.items {
			if i.Kind == NodeElement {
				res.add(i)
			}
		}
	}
	return res, nil
}

// callDerivedFrom tests the identities held by the nodes of its first
// argument against the identity named by its second argument. The test holds
// if it holds for one of the nodes.
func callDerivedFrom(self bool) builtinFunc {
	return func(ev *evaluator, _ focus, args []Value) (Value, error) {
		ns, ok := args[0].(*NodeSet)
		if !ok || ns.Len() == 0 {
			return Boolean(false), nil
		}
		base, err := ev.identity(string(toString(args[1])), ev.local)
		if err != nil {
			return nil, err
		}
		for _, n := range ns.nodes {
			if n.Kind != NodeElement || !n.Data.IsTerm() {
				continue
			}
			if !n.Data.Schema.Type.Has(yang.TypeIdentityRef) {
				continue
			}
			id, err := ev.identity(n.Data.Value, n.Data.Module())
			if err != nil {
				continue
			}
			if (self && id == base) || id.DerivedFrom(base) {
				return Boolean(true), nil
			}
		}
		return Boolean(false), nil
	}
}

// identity resolves a prefixed identity name. The prefix is either a prefix
// known by the module of the expression or a module name. Unprefixed names
// belong to mod.
func (ev *evaluator) identity(name string, mod *yang.Module) (*yang.Identity, error) {
	prefix, local, ok := strings.Cut(name, ":")
	if ok {
		m, err := ev.resolvePrefix(prefix)
		if err != nil {
			return nil, err
		}
		mod = m
	} else {
		local = prefix
	}
	if mod == nil {
		return nil, fmt.Errorf("%w: %s: no module", yang.ErrIdentity, name)
	}
	id := mod.Identity(local)
	if id == nil {
		return nil, fmt.Errorf("%w: %s", yang.ErrIdentity, name)
	}
	return id, nil
}

func callBitIsSet(_ *evaluator, _ focus, args []Value) (Value, error) {
	ns, ok := args[0].(*NodeSet)
	if !ok {
		return Boolean(false), nil
	}
	n, ok := ns.first()
	if !ok || n.Kind != NodeElement || !n.Data.IsTerm() {
		return Boolean(false), nil
	}
	ok = n.Data.Schema.Type.BitSet(n.Data.Value, string(toString(args[1])))
	return Boolean(ok), nil
}

func callEnumValue(_ *evaluator, _ focus, args []Value) (Value, error) {
	nan := Number(math.NaN())
	ns, ok := args[0].(*NodeSet)
	if !ok {
		return nan, nil
	}
	n, ok := ns.first()
	if !ok || n.Kind != NodeElement || !n.Data.IsTerm() {
		return nan, nil
	}
	e, ok := n.Data.Schema.Type.Enum(n.Data.Value)
	if !ok {
		return nan, nil
	}
	return Number(e.Value), nil
}

// schemaCheckType warns when the nodes given to a function do not have the
// type the function expects.
func schemaCheckType(name string, base yang.BaseType) builtinFunc {
	return func(ev *evaluator, _ focus, args []Value) (Value, error) {
		if ss, ok := args[0].(*SchemaSet); ok {
			for _, node := range ss.Nodes() {
				if !node.IsTerm() || !node.Type.Has(base) {
					ev.warn("unexpected node type", "function", name, "node", node.Path(), "want", base.String())
				}
			}
		}
		return newSchemaSet(), nil
	}
}

func callReMatch(ev *evaluator, _ focus, args []Value) (Value, error) {
	re, err := ev.compilePattern(string(toString(args[1])))
	if err != nil {
		return nil, err
	}
	return Boolean(re.MatchString(string(toString(args[0])))), nil
}

// schemaReMatch validates constant patterns.
func schemaReMatch(ev *evaluator, _ focus, args []Value) (Value, error) {
	if str, ok := args[1].(String); ok {
		if _, err := ev.compilePattern(string(str)); err != nil {
			return nil, err
		}
	}
	return newSchemaSet(), nil
}
