package yang

import (
	"fmt"
	"strings"
)

// DataNode is a node of an instance data tree. The document root is a
// DataNode without schema: it owns the top level nodes.
type DataNode struct {
	Schema   *SchemaNode
	Parent   *DataNode
	Children []*DataNode
	Value    string
	Meta     []*Meta

	idx int
}

type Meta struct {
	Module *Module
	Name   string
	Value  string
	Parent *DataNode
}

func NewDocument() *DataNode {
	return &DataNode{}
}

func NewNode(schema *SchemaNode, value string) *DataNode {
	return &DataNode{
		Schema: schema,
		Value:  value,
	}
}

func (n *DataNode) Append(child *DataNode) *DataNode {
	child.Parent = n
	child.idx = len(n.Children)
	n.Children = append(n.Children, child)
	return child
}

func (n *DataNode) AddMeta(mod *Module, name, value string) *Meta {
	m := Meta{
		Module: mod,
		Name:   name,
		Value:  value,
		Parent: n,
	}
	n.Meta = append(n.Meta, &m)
	return &m
}

func (n *DataNode) IsRoot() bool {
	return n.Schema == nil
}

func (n *DataNode) IsTerm() bool {
	return n.Schema != nil && n.Schema.IsTerm()
}

func (n *DataNode) Name() string {
	if n.Schema == nil {
		return ""
	}
	return n.Schema.Name
}

func (n *DataNode) Module() *Module {
	if n.Schema == nil {
		return nil
	}
	return n.Schema.Module
}

func (n *DataNode) Root() *DataNode {
	c := n
	for c.Parent != nil {
		c = c.Parent
	}
	return c
}

func (n *DataNode) FirstChild() *DataNode {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

func (n *DataNode) NextSibling() *DataNode {
	if n.Parent == nil || n.idx+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[n.idx+1]
}

// Next returns the node following n in a depth first pre-order traversal
// of its tree.
func (n *DataNode) Next() *DataNode {
	if c := n.FirstChild(); c != nil {
		return c
	}
	for c := n; c != nil; c = c.Parent {
		if s := c.NextSibling(); s != nil {
			return s
		}
	}
	return nil
}

// Text is the string value of n: the value of a terminal node, the
// concatenation of the values of its terminal descendants otherwise.
func (n *DataNode) Text() string {
	if n.IsTerm() {
		return n.Value
	}
	var str strings.Builder
	for _, c := range n.Children {
		str.WriteString(c.Text())
	}
	return str.String()
}

func (n *DataNode) Path() string {
	if n.IsRoot() {
		return "/"
	}
	var parts []string
	for c := n; c != nil && !c.IsRoot(); c = c.Parent {
		parts = append(parts, c.segment())
	}
	var str strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		str.WriteString("/")
		str.WriteString(parts[i])
	}
	return str.String()
}

func (n *DataNode) segment() string {
	name := n.Schema.Name
	if n.Parent == nil || n.Parent.IsRoot() || n.Parent.Module() != n.Module() {
		name = n.Schema.QualifiedName()
	}
	switch n.Schema.Kind {
	case KindList:
		var str strings.Builder
		str.WriteString(name)
		for _, k := range n.Schema.Keys {
			for _, c := range n.Children {
				if c.Name() == k {
					fmt.Fprintf(&str, "[%s='%s']", k, c.Value)
				}
			}
		}
		return str.String()
	case KindLeafList:
		return fmt.Sprintf("%s[.='%s']", name, n.Value)
	default:
		return name
	}
}

func (n *DataNode) String() string {
	if n.IsTerm() {
		return fmt.Sprintf("%s = %s", n.Path(), n.Value)
	}
	return n.Path()
}
