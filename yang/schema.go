package yang

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModule   = errors.New("unknown module")
	ErrIdentity = errors.New("unknown identity")
	ErrNode     = errors.New("unknown node")
)

type NodeKind uint16

const (
	KindContainer NodeKind = 1 << iota
	KindChoice
	KindCase
	KindLeaf
	KindLeafList
	KindList
	KindAnydata
	KindAnyxml
	KindRPC
	KindAction
	KindInput
	KindOutput
	KindNotification
)

func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindChoice:
		return "choice"
	case KindCase:
		return "case"
	case KindLeaf:
		return "leaf"
	case KindLeafList:
		return "leaf-list"
	case KindList:
		return "list"
	case KindAnydata:
		return "anydata"
	case KindAnyxml:
		return "anyxml"
	case KindRPC:
		return "rpc"
	case KindAction:
		return "action"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Context is the set of modules known to a schema.
type Context struct {
	Modules []*Module
}

func (c *Context) Module(name string) *Module {
	if c == nil {
		return nil
	}
	for _, m := range c.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Nodes returns the top level data nodes of every module with choice and
// case statements flattened.
func (c *Context) Nodes() []*SchemaNode {
	if c == nil {
		return nil
	}
	var list []*SchemaNode
	for _, m := range c.Modules {
		list = append(list, flatten(m.Nodes, false)...)
	}
	return list
}

type Import struct {
	Prefix string
	Module *Module
}

type Module struct {
	Name       string
	Prefix     string
	Namespace  string
	Revision   string
	Imports    []Import
	Identities []*Identity
	Nodes      []*SchemaNode
	// Compiled is false while the module is still being resolved. References
	// to its nodes can not be followed yet.
	Compiled bool
}

// ResolvePrefix gives the module bound to prefix in the scope of m: its own
// prefix first, then the prefixes of its imports.
func (m *Module) ResolvePrefix(prefix string) *Module {
	if m == nil {
		return nil
	}
	if prefix == m.Prefix {
		return m
	}
	for _, i := range m.Imports {
		if i.Prefix == prefix {
			return i.Module
		}
	}
	return nil
}

func (m *Module) Identity(name string) *Identity {
	for _, i := range m.Identities {
		if i.Name == name {
			return i
		}
	}
	return nil
}

func (m *Module) AddNode(node *SchemaNode) {
	node.Module = m
	node.idx = len(m.Nodes)
	m.Nodes = append(m.Nodes, node)
}

type Identity struct {
	Name   string
	Module *Module
	Bases  []*Identity
}

func (i *Identity) String() string {
	return i.Module.Name + ":" + i.Name
}

// DerivedFrom reports whether i is derived, directly or not, from base. An
// identity is not derived from itself.
func (i *Identity) DerivedFrom(base *Identity) bool {
	for _, b := range i.Bases {
		if b == base || b.DerivedFrom(base) {
			return true
		}
	}
	return false
}

type SchemaNode struct {
	Name     string
	Kind     NodeKind
	Module   *Module
	Parent   *SchemaNode
	Children []*SchemaNode
	Config   bool
	Type     *Type
	Keys     []string
	// Unresolved marks nodes whose definition depends on a part of the
	// schema that has not been compiled yet (pending augment, grouping...).
	Unresolved bool

	idx int
}

func (n *SchemaNode) Append(child *SchemaNode) {
	child.Parent = n
	if child.Module == nil {
		child.Module = n.Module
	}
	child.idx = len(n.Children)
	n.Children = append(n.Children, child)
}

func (n *SchemaNode) IsTerm() bool {
	return n.Kind == KindLeaf || n.Kind == KindLeafList
}

func (n *SchemaNode) IsData() bool {
	switch n.Kind {
	case KindChoice, KindCase, KindInput, KindOutput:
		return false
	default:
		return true
	}
}

func (n *SchemaNode) QualifiedName() string {
	return n.Module.Name + ":" + n.Name
}

// DataParent returns the closest ancestor that can be instantiated in a data
// tree. It returns nil for top level nodes.
func (n *SchemaNode) DataParent() *SchemaNode {
	p := n.Parent
	for p != nil && !p.IsData() {
		p = p.Parent
	}
	return p
}

// DataChildren returns the children of n as seen from a data tree: choice
// and case are transparent, the children of an rpc or an action come from
// its input statement, or its output statement when output is set.
func (n *SchemaNode) DataChildren(output bool) []*SchemaNode {
	return flatten(n.Children, output)
}

func (n *SchemaNode) NextSibling() *SchemaNode {
	var list []*SchemaNode
	if n.Parent != nil {
		list = n.Parent.Children
	} else if n.Module != nil {
		list = n.Module.Nodes
	}
	if n.idx+1 < len(list) {
		return list[n.idx+1]
	}
	return nil
}

func (n *SchemaNode) Path() string {
	var parts []string
	for c := n; c != nil; c = c.DataParent() {
		name := c.Name
		if p := c.DataParent(); p == nil || p.Module != c.Module {
			name = c.QualifiedName()
		}
		parts = append(parts, name)
	}
	var str strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		str.WriteString("/")
		str.WriteString(parts[i])
	}
	return str.String()
}

func (n *SchemaNode) String() string {
	return fmt.Sprintf("%s %s", n.Kind, n.Path())
}

func flatten(nodes []*SchemaNode, output bool) []*SchemaNode {
	var list []*SchemaNode
	for _, c := range nodes {
		switch c.Kind {
		case KindChoice, KindCase:
			list = append(list, flatten(c.Children, output)...)
		case KindInput:
			if !output {
				list = append(list, flatten(c.Children, output)...)
			}
		case KindOutput:
			if output {
				list = append(list, flatten(c.Children, output)...)
			}
		default:
			list = append(list, c)
		}
	}
	return list
}
