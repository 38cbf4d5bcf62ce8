package yang

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrFormat = errors.New("invalid document")

type schemaDoc struct {
	Modules []moduleDoc `yaml:"modules"`
}

type moduleDoc struct {
	Name       string        `yaml:"name"`
	Prefix     string        `yaml:"prefix"`
	Namespace  string        `yaml:"namespace"`
	Revision   string        `yaml:"revision"`
	Compiled   *bool         `yaml:"compiled"`
	Imports    []importDoc   `yaml:"imports"`
	Identities []identityDoc `yaml:"identities"`
	Nodes      []nodeDoc     `yaml:"nodes"`
}

type importDoc struct {
	Module string `yaml:"module"`
	Prefix string `yaml:"prefix"`
}

type identityDoc struct {
	Name  string   `yaml:"name"`
	Bases []string `yaml:"bases"`
}

type enumDoc struct {
	Name  string `yaml:"name"`
	Value *int   `yaml:"value"`
}

type bitDoc struct {
	Name     string `yaml:"name"`
	Position *int   `yaml:"position"`
}

type nodeDoc struct {
	Container    string `yaml:"container"`
	Leaf         string `yaml:"leaf"`
	LeafList     string `yaml:"leaf-list"`
	List         string `yaml:"list"`
	Choice       string `yaml:"choice"`
	Case         string `yaml:"case"`
	Anydata      string `yaml:"anydata"`
	Anyxml       string `yaml:"anyxml"`
	RPC          string `yaml:"rpc"`
	Action       string `yaml:"action"`
	Notification string `yaml:"notification"`

	Config     *bool     `yaml:"config"`
	Unresolved bool      `yaml:"unresolved"`
	Key        string    `yaml:"key"`
	Type       string    `yaml:"type"`
	Path       string    `yaml:"path"`
	Bases      []string  `yaml:"bases"`
	Enums      []enumDoc `yaml:"enums"`
	Bits       []bitDoc  `yaml:"bits"`
	Types      []string  `yaml:"types"`
	Children   []nodeDoc `yaml:"children"`
	Input      []nodeDoc `yaml:"input"`
	Output     []nodeDoc `yaml:"output"`
}

func (d nodeDoc) ident() (NodeKind, string, error) {
	candidates := []struct {
		kind NodeKind
		name string
	}{
		{KindContainer, d.Container},
		{KindLeaf, d.Leaf},
		{KindLeafList, d.LeafList},
		{KindList, d.List},
		{KindChoice, d.Choice},
		{KindCase, d.Case},
		{KindAnydata, d.Anydata},
		{KindAnyxml, d.Anyxml},
		{KindRPC, d.RPC},
		{KindAction, d.Action},
		{KindNotification, d.Notification},
	}
	var (
		kind NodeKind
		name string
	)
	for _, c := range candidates {
		if c.name == "" {
			continue
		}
		if name != "" {
			return 0, "", fmt.Errorf("%w: %s %s also defined as %s", ErrFormat, kind, name, c.kind)
		}
		kind, name = c.kind, c.name
	}
	if name == "" {
		return 0, "", fmt.Errorf("%w: node without statement keyword", ErrFormat)
	}
	return kind, name, nil
}

func LoadSchemaFile(file string) (*Context, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return LoadSchema(r)
}

// LoadSchema builds a Context from a YAML description of its modules.
func LoadSchema(r io.Reader) (*Context, error) {
	var doc schemaDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	var ctx Context
	for _, md := range doc.Modules {
		if md.Name == "" {
			return nil, fmt.Errorf("%w: module without name", ErrFormat)
		}
		mod := Module{
			Name:      md.Name,
			Prefix:    md.Prefix,
			Namespace: md.Namespace,
			Revision:  md.Revision,
			Compiled:  md.Compiled == nil || *md.Compiled,
		}
		if mod.Prefix == "" {
			mod.Prefix = mod.Name
		}
		for _, id := range md.Identities {
			mod.Identities = append(mod.Identities, &Identity{
				Name:   id.Name,
				Module: &mod,
			})
		}
		ctx.Modules = append(ctx.Modules, &mod)
	}
	for i, md := range doc.Modules {
		mod := ctx.Modules[i]
		for _, imp := range md.Imports {
			other := ctx.Module(imp.Module)
			if other == nil {
				return nil, fmt.Errorf("%s: import %s: %w", mod.Name, imp.Module, ErrModule)
			}
			prefix := imp.Prefix
			if prefix == "" {
				prefix = other.Prefix
			}
			mod.Imports = append(mod.Imports, Import{
				Prefix: prefix,
				Module: other,
			})
		}
	}
	for i, md := range doc.Modules {
		mod := ctx.Modules[i]
		for j, id := range md.Identities {
			for _, b := range id.Bases {
				base, err := resolveIdentity(mod, b)
				if err != nil {
					return nil, err
				}
				mod.Identities[j].Bases = append(mod.Identities[j].Bases, base)
			}
		}
	}
	for i, md := range doc.Modules {
		mod := ctx.Modules[i]
		for _, nd := range md.Nodes {
			node, err := buildNode(mod, nd, true)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", mod.Name, err)
			}
			mod.AddNode(node)
		}
	}
	return &ctx, nil
}

func resolveIdentity(mod *Module, name string) (*Identity, error) {
	prefix, ident, ok := strings.Cut(name, ":")
	if !ok {
		prefix, ident = mod.Prefix, name
	}
	other := mod.ResolvePrefix(prefix)
	if other == nil {
		return nil, fmt.Errorf("%s: prefix %s: %w", mod.Name, prefix, ErrModule)
	}
	id := other.Identity(ident)
	if id == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrIdentity)
	}
	return id, nil
}

func buildNode(mod *Module, doc nodeDoc, config bool) (*SchemaNode, error) {
	kind, name, err := doc.ident()
	if err != nil {
		return nil, err
	}
	node := SchemaNode{
		Name:       name,
		Kind:       kind,
		Module:     mod,
		Config:     config,
		Unresolved: doc.Unresolved,
	}
	switch kind {
	case KindRPC, KindAction, KindNotification:
		node.Config = false
	default:
		if doc.Config != nil && config {
			node.Config = *doc.Config
		}
	}
	if doc.Key != "" {
		node.Keys = strings.Fields(doc.Key)
	}
	if node.IsTerm() {
		node.Type, err = buildType(mod, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, c := range doc.Children {
		child, err := buildNode(mod, c, node.Config)
		if err != nil {
			return nil, err
		}
		node.Append(child)
	}
	if kind == KindRPC || kind == KindAction {
		for _, part := range []struct {
			kind  NodeKind
			name  string
			nodes []nodeDoc
		}{
			{KindInput, "input", doc.Input},
			{KindOutput, "output", doc.Output},
		} {
			sub := SchemaNode{
				Name:   part.name,
				Kind:   part.kind,
				Module: mod,
			}
			for _, c := range part.nodes {
				child, err := buildNode(mod, c, false)
				if err != nil {
					return nil, err
				}
				sub.Append(child)
			}
			node.Append(&sub)
		}
	}
	return &node, nil
}

func buildType(mod *Module, doc nodeDoc) (*Type, error) {
	if doc.Type == "" {
		return &Type{Base: TypeString}, nil
	}
	var typ Type
	if typ.Base = ParseBaseType(doc.Type); typ.Base == TypeUnknown {
		return nil, fmt.Errorf("%w: unknown type %s", ErrFormat, doc.Type)
	}
	switch typ.Base {
	case TypeEnumeration:
		next := 0
		for _, e := range doc.Enums {
			if e.Value != nil {
				next = *e.Value
			}
			typ.Enums = append(typ.Enums, Enum{Name: e.Name, Value: next})
			next++
		}
	case TypeBits:
		next := 0
		for _, b := range doc.Bits {
			if b.Position != nil {
				next = *b.Position
			}
			typ.Bits = append(typ.Bits, Bit{Name: b.Name, Position: next})
			next++
		}
	case TypeIdentityRef:
		for _, b := range doc.Bases {
			id, err := resolveIdentity(mod, b)
			if err != nil {
				return nil, err
			}
			typ.Bases = append(typ.Bases, id)
		}
	case TypeLeafRef:
		if doc.Path == "" {
			return nil, fmt.Errorf("%w: leafref without path", ErrFormat)
		}
		typ.Path = doc.Path
	case TypeUnion:
		for _, t := range doc.Types {
			sub := doc
			sub.Type = t
			member, err := buildType(mod, sub)
			if err != nil {
				return nil, err
			}
			typ.Types = append(typ.Types, member)
		}
	}
	return &typ, nil
}

func LoadDataFile(ctx *Context, file string) (*DataNode, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return LoadData(ctx, r)
}

// LoadData reads an instance document encoded in YAML following the rules
// of RFC 7951: members are qualified with the module name whenever their
// module differs from the one of their parent, lists and leaf-lists are
// sequences and metadata are given by members prefixed with '@'.
func LoadData(ctx *Context, r io.Reader) (*DataNode, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewDocument(), nil
		}
		return nil, err
	}
	root := NewDocument()
	if len(doc.Content) == 0 {
		return root, nil
	}
	d := decoder{
		ctx: ctx,
	}
	if err := d.decodeObject(root, doc.Content[0]); err != nil {
		return nil, err
	}
	return root, nil
}

type decoder struct {
	ctx *Context
}

func (d decoder) decodeObject(parent *DataNode, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return d.errorf(node, "object expected")
	}
	meta := make(map[string]*yaml.Node)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if strings.HasPrefix(key.Value, "@") {
			meta[key.Value[1:]] = value
			continue
		}
		schema, err := d.lookup(parent, key)
		if err != nil {
			return err
		}
		if err := d.decodeMember(parent, schema, value); err != nil {
			return err
		}
	}
	for name, value := range meta {
		if name == "" {
			if parent.IsRoot() {
				return d.errorf(value, "metadata on document root")
			}
			if err := d.decodeMeta(parent, value); err != nil {
				return err
			}
			continue
		}
		var found bool
		for _, c := range parent.Children {
			if c.Name() != name && c.Schema.QualifiedName() != name {
				continue
			}
			found = true
			if err := d.decodeMeta(c, value); err != nil {
				return err
			}
		}
		if !found {
			return d.errorf(value, "metadata for unknown member %s", name)
		}
	}
	return nil
}

func (d decoder) decodeMember(parent *DataNode, schema *SchemaNode, value *yaml.Node) error {
	switch schema.Kind {
	case KindLeaf:
		if value.Kind != yaml.ScalarNode && value.Kind != yaml.SequenceNode {
			return d.errorf(value, "%s: scalar expected", schema.Name)
		}
		parent.Append(NewNode(schema, scalar(value)))
	case KindLeafList:
		if value.Kind != yaml.SequenceNode {
			return d.errorf(value, "%s: sequence expected", schema.Name)
		}
		for _, v := range value.Content {
			parent.Append(NewNode(schema, scalar(v)))
		}
	case KindList:
		if value.Kind != yaml.SequenceNode {
			return d.errorf(value, "%s: sequence expected", schema.Name)
		}
		for _, v := range value.Content {
			child := parent.Append(NewNode(schema, ""))
			if err := d.decodeObject(child, v); err != nil {
				return err
			}
		}
	case KindAnydata, KindAnyxml:
		parent.Append(NewNode(schema, ""))
	default:
		child := parent.Append(NewNode(schema, ""))
		if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
			break
		}
		return d.decodeObject(child, value)
	}
	return nil
}

func (d decoder) decodeMeta(node *DataNode, value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return d.errorf(value, "metadata object expected")
	}
	for i := 0; i < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		prefix, name, ok := strings.Cut(key.Value, ":")
		if !ok {
			return d.errorf(key, "%s: metadata name should be qualified", key.Value)
		}
		mod := d.ctx.Module(prefix)
		if mod == nil {
			return d.errorf(key, "%s: %s", prefix, ErrModule)
		}
		node.AddMeta(mod, name, val.Value)
	}
	return nil
}

func (d decoder) lookup(parent *DataNode, key *yaml.Node) (*SchemaNode, error) {
	prefix, name, ok := strings.Cut(key.Value, ":")
	if !ok {
		prefix, name = "", key.Value
	}
	var (
		candidates []*SchemaNode
		mod        *Module
	)
	if parent.IsRoot() {
		if prefix == "" {
			return nil, d.errorf(key, "%s: top level member should be qualified", key.Value)
		}
		if mod = d.ctx.Module(prefix); mod == nil {
			return nil, d.errorf(key, "%s: %s", prefix, ErrModule)
		}
		candidates = flatten(mod.Nodes, false)
	} else {
		mod = parent.Module()
		if prefix != "" {
			if mod = d.ctx.Module(prefix); mod == nil {
				return nil, d.errorf(key, "%s: %s", prefix, ErrModule)
			}
		}
		candidates = parent.Schema.DataChildren(false)
	}
	for _, c := range candidates {
		if c.Name == name && c.Module == mod {
			return c, nil
		}
	}
	return nil, d.errorf(key, "%s: %s", key.Value, ErrNode)
}

func (d decoder) errorf(node *yaml.Node, format string, args ...any) error {
	err := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: line %d: %s", ErrFormat, node.Line, err)
}

func scalar(node *yaml.Node) string {
	if node.Kind == yaml.SequenceNode {
		// [null] is the encoding of the empty type
		return ""
	}
	if node.Tag == "!!null" {
		return ""
	}
	return node.Value
}
