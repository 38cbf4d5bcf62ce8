package xpath

import (
	"github.com/midbel/yxpath/yang"
)

// SchemaItem is a member of a SchemaSet. Node is nil for the root.
type SchemaItem struct {
	Node *yang.SchemaNode
	Kind NodeKind
	// InCtx is set for the nodes that are part of the context at the end
	// of the evaluation. Other nodes have only been traversed.
	InCtx bool
}

type schemaKey struct {
	node *yang.SchemaNode
	kind NodeKind
}

func (i SchemaItem) key() schemaKey {
	return schemaKey{
		node: i.Node,
		kind: i.Kind,
	}
}

func (i SchemaItem) String() string {
	if i.Kind.isRoot() {
		return "/"
	}
	if i.Kind == NodeText {
		return i.Node.Path() + "/text()"
	}
	return i.Node.Path()
}

// SchemaSet is the node-set used in schema mode. Members are kept in
// insertion order.
type SchemaSet struct {
	items []SchemaItem
	index map[schemaKey]int
}

func newSchemaSet() *SchemaSet {
	return &SchemaSet{
		index: make(map[schemaKey]int),
	}
}

func (*SchemaSet) Kind() Kind { return KindSchemaSet }
func (*SchemaSet) value()     {}

func (s *SchemaSet) Len() int {
	return len(s.items)
}

func (s *SchemaSet) Items() []SchemaItem {
	list := make([]SchemaItem, len(s.items))
	copy(list, s.items)
	return list
}

// Nodes gives the schema nodes of the elements of s.
func (s *SchemaSet) Nodes() []*yang.SchemaNode {
	var list []*yang.SchemaNode
	for _, i := range s.items {
		if i.Kind == NodeElement {
			list = append(list, i.Node)
		}
	}
	return list
}

// Context gives the schema nodes of the elements of s that are part of the
// context.
func (s *SchemaSet) Context() []*yang.SchemaNode {
	var list []*yang.SchemaNode
	for _, i := range s.items {
		if i.Kind == NodeElement && i.InCtx {
			list = append(list, i.Node)
		}
	}
	return list
}

func (s *SchemaSet) Contains(node *yang.SchemaNode) bool {
	_, ok := s.index[schemaKey{node: node, kind: NodeElement}]
	return ok
}

func (s *SchemaSet) add(item SchemaItem) {
	if x, ok := s.index[item.key()]; ok {
		s.items[x].InCtx = s.items[x].InCtx || item.InCtx
		return
	}
	s.index[item.key()] = len(s.items)
	s.items = append(s.items, item)
}

func (s *SchemaSet) merge(other *SchemaSet) {
	for _, i := range other.items {
		s.add(i)
	}
}
