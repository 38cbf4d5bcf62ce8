package xpath

import (
	"fmt"

	"github.com/midbel/yxpath/yang"
)

type axisKind int8

const (
	axisChild axisKind = iota
	axisDescendant
	axisDescendantOrSelf
	axisSelf
	axisParent
	axisAttribute
)

func (a axisKind) String() string {
	switch a {
	case axisChild:
		return "child"
	case axisDescendant:
		return "descendant"
	case axisDescendantOrSelf:
		return "descendant-or-self"
	case axisSelf:
		return "self"
	case axisParent:
		return "parent"
	case axisAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

type testKind int8

const (
	testName testKind = iota
	testNode
	testText
	testComment
)

type nodeTest struct {
	kind   testKind
	prefix string
	local  string
}

// navigator gives access to the tree an expression is evaluated against.
// The evaluator is written once against it: dataNav walks instance data,
// schemaNav walks the compiled schema.
type navigator interface {
	root(*evaluator) Value
	// move replaces every member of set by the nodes reached by following
	// the axis from it and matching the test.
	move(*evaluator, Value, axisKind, nodeTest) (Value, error)
	// split gives a single member set for each member of set, in order.
	split(*evaluator, Value) ([]Value, error)
	// filter keeps the members of set for which the predicate holds.
	filter(*evaluator, Value, Expr) (Value, error)
	union(*evaluator, Value, Value) (Value, error)
}

type dataNav struct{}

func (dataNav) root(ev *evaluator) Value {
	set := ev.nodeSet()
	if n, ok := ev.origin.(*NodeSet); ok && len(n.nodes) > 0 {
		set.add(Node{
			Data: n.nodes[0].Data.Root(),
			Kind: ev.rootKind,
		})
	}
	return set
}

func (d dataNav) move(ev *evaluator, set Value, axis axisKind, test nodeTest) (Value, error) {
	ns, err := d.nodes(set)
	if err != nil || ns == nil {
		return set, err
	}
	ns.Sort()
	var (
		res  = ev.nodeSet()
		seen = make(map[*yang.DataNode]struct{})
	)
	add := func(n Node) error {
		ok, err := d.match(ev, n, axis, test)
		if ok {
			res.add(n)
		}
		return err
	}
	for _, n := range ns.nodes {
		switch axis {
		case axisSelf:
			err = add(n)
		case axisParent:
			if p, ok := d.parent(ev, n); ok {
				err = add(p)
			}
		case axisAttribute:
			if n.Kind != NodeElement {
				break
			}
			for _, m := range n.Data.Meta {
				if err = add(Node{Data: n.Data, Meta: m, Kind: NodeAttribute}); err != nil {
					break
				}
			}
		case axisChild:
			err = d.children(ev, n, add)
		case axisDescendant, axisDescendantOrSelf:
			if axis == axisDescendantOrSelf {
				if err = add(n); err != nil {
					break
				}
			}
			if _, ok := seen[n.Data]; ok || n.Kind == NodeText || n.Kind == NodeAttribute {
				break
			}
			err = d.descendants(ev, n, seen, add)
		}
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (d dataNav) children(ev *evaluator, n Node, fn func(Node) error) error {
	if n.Kind == NodeText || n.Kind == NodeAttribute {
		return nil
	}
	if n.Data.IsTerm() {
		return fn(Node{Data: n.Data, Kind: NodeText})
	}
	for _, c := range n.Data.Children {
		if !ev.visible(c.Schema) {
			continue
		}
		if err := fn(Node{Data: c, Kind: NodeElement}); err != nil {
			return err
		}
	}
	return nil
}

func (d dataNav) descendants(ev *evaluator, n Node, seen map[*yang.DataNode]struct{}, fn func(Node) error) error {
	seen[n.Data] = struct{}{}
	return d.children(ev, n, func(c Node) error {
		if err := fn(c); err != nil {
			return err
		}
		if c.Kind != NodeElement {
			return nil
		}
		if _, ok := seen[c.Data]; ok {
			return nil
		}
		return d.descendants(ev, c, seen, fn)
	})
}

func (dataNav) parent(ev *evaluator, n Node) (Node, bool) {
	switch n.Kind {
	case NodeText, NodeAttribute:
		return Node{Data: n.Data, Kind: NodeElement}, true
	case NodeElement:
		p := n.Data.Parent
		if p == nil {
			return Node{}, false
		}
		if p.IsRoot() {
			return Node{Data: p, Kind: ev.rootKind}, true
		}
		return Node{Data: p, Kind: NodeElement}, true
	default:
		return Node{}, false
	}
}

func (dataNav) match(ev *evaluator, n Node, axis axisKind, test nodeTest) (bool, error) {
	switch test.kind {
	case testNode:
		return true, nil
	case testText:
		return n.Kind == NodeText, nil
	case testComment:
		return false, nil
	}
	switch {
	case axis == axisAttribute && n.Kind == NodeAttribute:
		return ev.matchName(test, n.Meta.Module, n.Meta.Name)
	case axis != axisAttribute && n.Kind == NodeElement:
		return ev.matchName(test, n.Data.Module(), n.Data.Name())
	default:
		return false, nil
	}
}

func (dataNav) nodes(set Value) (*NodeSet, error) {
	switch set := set.(type) {
	case *NodeSet:
		return set, nil
	case Empty:
		return nil, nil
	default:
		return nil, errorf(ErrType, "path applied to a %s", set.Kind())
	}
}

func (d dataNav) split(ev *evaluator, set Value) ([]Value, error) {
	ns, err := d.nodes(set)
	if err != nil || ns == nil {
		return nil, err
	}
	ns.Sort()
	list := make([]Value, 0, ns.Len())
	for _, n := range ns.nodes {
		one := ev.nodeSet()
		one.add(n)
		list = append(list, one)
	}
	return list, nil
}

func (d dataNav) filter(ev *evaluator, set Value, pred Expr) (Value, error) {
	ns, err := d.nodes(set)
	if err != nil || ns == nil {
		return set, err
	}
	ns.Sort()
	var (
		res  = ev.nodeSet()
		size = ns.Len()
	)
	for i, n := range ns.nodes {
		one := ev.nodeSet()
		one.add(n)
		f := focus{
			ctx:  one,
			pos:  i + 1,
			size: size,
		}
		v, err := pred.eval(ev, f)
		if err != nil {
			return nil, err
		}
		var keep bool
		if x, ok := v.(Number); ok {
			keep = float64(x) == float64(f.pos)
		} else {
			keep = bool(toBoolean(v))
		}
		if keep {
			res.add(n)
		}
	}
	return res, nil
}

func (d dataNav) union(ev *evaluator, left, right Value) (Value, error) {
	a, err := d.nodes(left)
	if err != nil {
		return nil, errorf(ErrType, "union of a %s", left.Kind())
	}
	b, err := d.nodes(right)
	if err != nil {
		return nil, errorf(ErrType, "union of a %s", right.Kind())
	}
	switch {
	case a == nil && b == nil:
		return Empty{}, nil
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	default:
		return Union(a, b), nil
	}
}

type schemaNav struct{}

func (schemaNav) root(ev *evaluator) Value {
	set := newSchemaSet()
	set.add(SchemaItem{
		Kind:  ev.rootKind,
		InCtx: true,
	})
	return set
}

func (s schemaNav) move(ev *evaluator, set Value, axis axisKind, test nodeTest) (Value, error) {
	ss, err := s.nodes(set)
	if err != nil || ss == nil {
		return set, err
	}
	res := newSchemaSet()
	add := func(i SchemaItem) error {
		ok, err := s.match(ev, i, axis, test)
		if !ok || err != nil {
			return err
		}
		if i.Node != nil && i.Node.Unresolved {
			return fmt.Errorf("%w: %s", ErrUnresolved, i.Node.Path())
		}
		i.InCtx = true
		res.add(i)
		return nil
	}
	for _, i := range ss.items {
		switch axis {
		case axisSelf:
			err = add(i)
		case axisParent:
			if p, ok := s.parent(ev, i); ok {
				err = add(p)
			}
		case axisAttribute:
		case axisChild:
			err = s.children(ev, i, add)
		case axisDescendant, axisDescendantOrSelf:
			if axis == axisDescendantOrSelf {
				if err = add(i); err != nil {
					break
				}
			}
			err = s.descendants(ev, i, add)
		}
		if err != nil {
			return nil, err
		}
	}
	ev.record(res)
	return res, nil
}

func (s schemaNav) children(ev *evaluator, i SchemaItem, fn func(SchemaItem) error) error {
	var list []*yang.SchemaNode
	switch {
	case i.Kind.isRoot():
		list = ev.registry.Nodes()
	case i.Kind == NodeElement && i.Node.IsTerm():
		return fn(SchemaItem{Node: i.Node, Kind: NodeText})
	case i.Kind == NodeElement:
		list = i.Node.DataChildren(ev.output)
	}
	for _, c := range list {
		if !ev.visible(c) {
			continue
		}
		if err := fn(SchemaItem{Node: c, Kind: NodeElement}); err != nil {
			return err
		}
	}
	return nil
}

func (s schemaNav) descendants(ev *evaluator, i SchemaItem, fn func(SchemaItem) error) error {
	return s.children(ev, i, func(c SchemaItem) error {
		if err := fn(c); err != nil {
			return err
		}
		if c.Kind != NodeElement {
			return nil
		}
		return s.descendants(ev, c, fn)
	})
}

func (schemaNav) parent(ev *evaluator, i SchemaItem) (SchemaItem, bool) {
	switch {
	case i.Kind.isRoot():
		return SchemaItem{}, false
	case i.Kind == NodeText:
		return SchemaItem{Node: i.Node, Kind: NodeElement}, true
	}
	p := i.Node.DataParent()
	if p == nil {
		return SchemaItem{Kind: ev.rootKind}, true
	}
	return SchemaItem{Node: p, Kind: NodeElement}, true
}

func (schemaNav) match(ev *evaluator, i SchemaItem, axis axisKind, test nodeTest) (bool, error) {
	switch test.kind {
	case testNode:
		return true, nil
	case testText:
		return i.Kind == NodeText, nil
	case testComment:
		return false, nil
	}
	if axis == axisAttribute || i.Kind != NodeElement {
		return false, nil
	}
	return ev.matchName(test, i.Node.Module, i.Node.Name)
}

func (schemaNav) nodes(set Value) (*SchemaSet, error) {
	switch set := set.(type) {
	case *SchemaSet:
		return set, nil
	case Empty:
		return nil, nil
	default:
		return nil, errorf(ErrType, "path applied to a %s", set.Kind())
	}
}

func (s schemaNav) split(ev *evaluator, set Value) ([]Value, error) {
	ss, err := s.nodes(set)
	if err != nil || ss == nil {
		return nil, err
	}
	list := make([]Value, 0, ss.Len())
	for _, i := range ss.items {
		one := newSchemaSet()
		one.add(i)
		list = append(list, one)
	}
	return list, nil
}

// filter evaluates the predicate for each member of set to collect the
// nodes it accesses. Without instance data, no member can be discarded.
func (s schemaNav) filter(ev *evaluator, set Value, pred Expr) (Value, error) {
	list, err := s.split(ev, set)
	if err != nil {
		return nil, err
	}
	for _, one := range list {
		f := focus{
			ctx:  one,
			pos:  1,
			size: 1,
		}
		if _, err := pred.eval(ev, f); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s schemaNav) union(ev *evaluator, left, right Value) (Value, error) {
	res := newSchemaSet()
	for _, v := range []Value{left, right} {
		switch v := v.(type) {
		case *SchemaSet:
			res.merge(v)
		case Empty:
		default:
			return nil, errorf(ErrType, "union of a %s", v.Kind())
		}
	}
	return res, nil
}
