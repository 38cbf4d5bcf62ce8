package xpath

import (
	"math"
	"slices"

	"github.com/midbel/yxpath/yang"
)

type NodeKind int8

const (
	NodeRoot NodeKind = iota
	NodeRootConfig
	NodeElement
	NodeText
	NodeAttribute
)

func (k NodeKind) String() string {
	switch k {
	case NodeRoot:
		return "root"
	case NodeRootConfig:
		return "root-config"
	case NodeElement:
		return "element"
	case NodeText:
		return "text"
	case NodeAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

func (k NodeKind) isRoot() bool {
	return k == NodeRoot || k == NodeRootConfig
}

// Node is a member of a NodeSet. Data is the document root for root nodes,
// the element itself for element and text nodes and the owner of the
// metadata for attribute nodes.
type Node struct {
	Data *yang.DataNode
	Meta *yang.Meta
	Kind NodeKind
}

type nodeKey struct {
	data *yang.DataNode
	meta *yang.Meta
	kind NodeKind
}

func (n Node) key() nodeKey {
	return nodeKey{
		data: n.Data,
		meta: n.Meta,
		kind: n.Kind,
	}
}

func (n Node) String() string {
	switch n.Kind {
	case NodeText:
		return n.Data.Value
	case NodeAttribute:
		return n.Meta.Value
	default:
		return n.Data.Text()
	}
}

func (n Node) Module() *yang.Module {
	switch n.Kind {
	case NodeElement:
		return n.Data.Module()
	case NodeAttribute:
		return n.Meta.Module
	default:
		return nil
	}
}

func (n Node) LocalName() string {
	switch n.Kind {
	case NodeElement:
		return n.Data.Name()
	case NodeAttribute:
		return n.Meta.Name
	default:
		return ""
	}
}

func (n Node) Path() string {
	switch n.Kind {
	case NodeText:
		return n.Data.Path() + "/text()"
	case NodeAttribute:
		return n.Data.Path() + "/@" + n.Meta.Module.Name + ":" + n.Meta.Name
	default:
		return n.Data.Path()
	}
}

// NodeSet is an ordered set of data nodes without duplicates. Members are
// kept in document order as long as they are appended in that order, Sort
// restores the order otherwise.
type NodeSet struct {
	nodes  []Node
	index  map[nodeKey]struct{}
	sorted bool
	cache  *posCache
}

func newNodeSet(cache *posCache) *NodeSet {
	return &NodeSet{
		index:  make(map[nodeKey]struct{}),
		sorted: true,
		cache:  cache,
	}
}

func (*NodeSet) Kind() Kind { return KindNodeSet }
func (*NodeSet) value()     {}

func (s *NodeSet) Len() int {
	return len(s.nodes)
}

// Nodes gives the members of s in document order.
func (s *NodeSet) Nodes() []Node {
	s.Sort()
	return slices.Clone(s.nodes)
}

// String is the string value of the first node of s in document order.
func (s *NodeSet) String() string {
	n, ok := s.first()
	if !ok {
		return ""
	}
	return n.String()
}

func (s *NodeSet) Sorted() bool {
	return s.sorted
}

func (s *NodeSet) Sort() {
	if s.sorted {
		return
	}
	slices.SortFunc(s.nodes, s.compare)
	s.sorted = true
	assertSorted(s)
}

func (s *NodeSet) Contains(n Node) bool {
	_, ok := s.index[n.key()]
	return ok
}

func (s *NodeSet) add(n Node) bool {
	if s.Contains(n) {
		return false
	}
	if k := len(s.nodes); s.sorted && k > 0 && s.compare(s.nodes[k-1], n) > 0 {
		s.sorted = false
	}
	s.index[n.key()] = struct{}{}
	s.nodes = append(s.nodes, n)
	return true
}

func (s *NodeSet) first() (Node, bool) {
	if len(s.nodes) == 0 {
		return Node{}, false
	}
	s.Sort()
	return s.nodes[0], true
}

func (s *NodeSet) strings() []string {
	list := make([]string, len(s.nodes))
	for i := range s.nodes {
		list[i] = s.nodes[i].String()
	}
	return list
}

// compare orders nodes by document position. An element comes before its
// own text node which comes before its attributes, attributes being ordered
// by declaration.
func (s *NodeSet) compare(a, b Node) int {
	if a.key() == b.key() {
		return 0
	}
	if s.cache == nil {
		s.cache = newPosCache()
	}
	pa, pb := s.cache.position(a.Data), s.cache.position(b.Data)
	if pa != pb {
		if pa < pb {
			return -1
		}
		return 1
	}
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	if a.Kind == NodeAttribute {
		return slices.Index(a.Data.Meta, a.Meta) - slices.Index(b.Data.Meta, b.Meta)
	}
	return 0
}

// Union merges two node-sets in O(n+m), both being sorted first. Nodes
// present in both sets are kept once.
func Union(a, b *NodeSet) *NodeSet {
	a.Sort()
	b.Sort()
	cache := a.cache
	if cache == nil {
		cache = b.cache
	}
	var (
		res  = newNodeSet(cache)
		i, j int
	)
	res.nodes = make([]Node, 0, len(a.nodes)+len(b.nodes))
	push := func(n Node) {
		res.index[n.key()] = struct{}{}
		res.nodes = append(res.nodes, n)
	}
	for i < len(a.nodes) && j < len(b.nodes) {
		switch c := res.compare(a.nodes[i], b.nodes[j]); {
		case c < 0:
			push(a.nodes[i])
			i++
		case c > 0:
			push(b.nodes[j])
			j++
		default:
			push(a.nodes[i])
			i++
			j++
		}
	}
	for ; i < len(a.nodes); i++ {
		push(a.nodes[i])
	}
	for ; j < len(b.nodes); j++ {
		push(b.nodes[j])
	}
	assertSorted(res)
	return res
}

// posCache assigns document positions to the nodes of a tree. Positions are
// computed lazily by a depth first traversal that resumes from the last
// node resolved. A cache is only valid for one evaluation: any change to the
// tree invalidates it.
type posCache struct {
	root *yang.DataNode
	last *yang.DataNode
	next int
	pos  map[*yang.DataNode]int
}

func newPosCache() *posCache {
	return &posCache{
		pos: make(map[*yang.DataNode]int),
	}
}

func (c *posCache) position(n *yang.DataNode) int {
	if p, ok := c.pos[n]; ok {
		return p
	}
	if root := n.Root(); root != c.root {
		c.reset(root)
		if n == root {
			return 0
		}
	}
	for x := c.last.Next(); x != nil; x = x.Next() {
		c.pos[x] = c.next
		c.next++
		c.last = x
		if x == n {
			return c.pos[x]
		}
	}
	return math.MaxInt
}

func (c *posCache) reset(root *yang.DataNode) {
	clear(c.pos)
	c.root = root
	c.last = root
	c.next = 1
	c.pos[root] = 0
}
