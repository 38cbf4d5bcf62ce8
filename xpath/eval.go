package xpath

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/midbel/yxpath/yang"
)

type Mode int8

const (
	ModeData Mode = iota
	ModeSchemaWhen
	ModeSchemaMust
	ModeSchemaAll
)

func (m Mode) String() string {
	switch m {
	case ModeData:
		return "data"
	case ModeSchemaWhen:
		return "when"
	case ModeSchemaMust:
		return "must"
	case ModeSchemaAll:
		return "all"
	default:
		return "unknown"
	}
}

type Options struct {
	Mode Mode
	// ConfigOnly hides state data from a data mode evaluation.
	ConfigOnly bool
	// Output selects the output statement of rpcs and actions in schema
	// mode, their input statement is used otherwise.
	Output bool
	// Module is the module where the expression is defined. Unprefixed
	// names belong to it. Without it, unprefixed names match any module.
	Module *yang.Module
	// Context resolves module names used as prefixes and gives the top
	// level schema nodes.
	Context *yang.Context
	Logger  *slog.Logger
}

type focus struct {
	ctx  Value
	pos  int
	size int
}

type evaluator struct {
	nav      navigator
	mode     Mode
	output   bool
	local    *yang.Module
	registry *yang.Context
	rootKind NodeKind
	logger   *slog.Logger

	origin Value
	cache  *posCache
	atoms  *SchemaSet
	regexp map[string]*regexp.Regexp
}

func (ev *evaluator) schema() bool {
	return ev.mode != ModeData
}

func (ev *evaluator) focus() focus {
	return focus{
		ctx:  ev.origin,
		pos:  1,
		size: 1,
	}
}

// Eval evaluates e in data mode with node as context node. The document
// root can be given as context.
func (e *Expression) Eval(node *yang.DataNode, opts Options) (Value, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: missing data node", ErrContext)
	}
	opts.Mode = ModeData
	ev := dataEvaluator(node, opts)
	v, err := e.expr.eval(ev, ev.focus())
	if err != nil {
		return nil, err
	}
	if ns, ok := v.(*NodeSet); ok {
		ns.Sort()
	}
	return v, nil
}

// Atomize evaluates e against the schema with node as context node and
// returns every schema node the expression may access. A nil node stands
// for the root of the schema.
func (e *Expression) Atomize(node *yang.SchemaNode, opts Options) (*SchemaSet, error) {
	if opts.Mode == ModeData {
		opts.Mode = ModeSchemaAll
	}
	ev := schemaEvaluator(node, opts)
	v, err := e.expr.eval(ev, ev.focus())
	if err != nil {
		return nil, err
	}
	if ss, ok := v.(*SchemaSet); ok {
		for _, i := range ss.items {
			if i.Kind.isRoot() {
				continue
			}
			i.InCtx = true
			ev.atoms.add(i)
		}
	}
	return ev.atoms, nil
}

// Find evaluates expr with node as context and returns the selected nodes.
func Find(node *yang.DataNode, expr string) (*NodeSet, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(node, Options{})
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *NodeSet:
		return v, nil
	case Empty:
		return newNodeSet(nil), nil
	default:
		return nil, fmt.Errorf("%w: %s returns a %s", ErrType, expr, v.Kind())
	}
}

func dataEvaluator(node *yang.DataNode, opts Options) *evaluator {
	ev := evaluator{
		nav:      dataNav{},
		mode:     ModeData,
		local:    opts.Module,
		registry: opts.Context,
		rootKind: NodeRoot,
		logger:   opts.Logger,
		cache:    newPosCache(),
		regexp:   make(map[string]*regexp.Regexp),
	}
	if opts.ConfigOnly {
		ev.rootKind = NodeRootConfig
	}
	if ev.logger == nil {
		ev.logger = slog.New(slog.DiscardHandler)
	}
	if ev.registry == nil {
		ev.registry = modulesOf(node.Root())
	}
	set := ev.nodeSet()
	if node.IsRoot() {
		set.add(Node{Data: node, Kind: ev.rootKind})
	} else {
		set.add(Node{Data: node, Kind: NodeElement})
	}
	ev.origin = set
	return &ev
}

func schemaEvaluator(node *yang.SchemaNode, opts Options) *evaluator {
	ev := evaluator{
		nav:      schemaNav{},
		mode:     opts.Mode,
		output:   opts.Output,
		local:    opts.Module,
		registry: opts.Context,
		rootKind: NodeRoot,
		logger:   opts.Logger,
		atoms:    newSchemaSet(),
		regexp:   make(map[string]*regexp.Regexp),
	}
	if ev.logger == nil {
		ev.logger = slog.New(slog.DiscardHandler)
	}
	if ev.registry == nil && node != nil {
		ev.registry = &yang.Context{
			Modules: []*yang.Module{node.Module},
		}
	}
	if opts.Mode != ModeSchemaAll && node != nil && node.Config {
		ev.rootKind = NodeRootConfig
	}
	set := newSchemaSet()
	if node == nil {
		set.add(SchemaItem{Kind: ev.rootKind, InCtx: true})
	} else {
		item := SchemaItem{
			Node:  node,
			Kind:  NodeElement,
			InCtx: true,
		}
		set.add(item)
		item.InCtx = false
		ev.atoms.add(item)
	}
	ev.origin = set
	return &ev
}

// derive gives an evaluator to follow a reference (leafref path,
// instance-identifier) defined in module mod from the context node origin.
func (ev *evaluator) derive(origin Value, mod *yang.Module) *evaluator {
	x := *ev
	x.origin = origin
	x.local = mod
	if ev.schema() {
		x.atoms = newSchemaSet()
	}
	return &x
}

func modulesOf(root *yang.DataNode) *yang.Context {
	var (
		ctx  yang.Context
		seen = make(map[*yang.Module]struct{})
	)
	for n := root.Next(); n != nil; n = n.Next() {
		mod := n.Module()
		if _, ok := seen[mod]; ok {
			continue
		}
		seen[mod] = struct{}{}
		ctx.Modules = append(ctx.Modules, mod)
	}
	return &ctx
}

func (ev *evaluator) nodeSet() *NodeSet {
	return newNodeSet(ev.cache)
}

// emptySet is the node-set without members of the current mode.
func (ev *evaluator) emptySet() Value {
	if ev.schema() {
		return newSchemaSet()
	}
	return ev.nodeSet()
}

func (ev *evaluator) visible(schema *yang.SchemaNode) bool {
	return ev.rootKind != NodeRootConfig || schema.Config
}

// record adds the members of set to the nodes traversed during an
// atomization.
func (ev *evaluator) record(set *SchemaSet) {
	for _, i := range set.items {
		if i.Kind != NodeElement {
			continue
		}
		i.InCtx = false
		ev.atoms.add(i)
	}
}

func (ev *evaluator) resolvePrefix(prefix string) (*yang.Module, error) {
	mod := ev.local.ResolvePrefix(prefix)
	if mod == nil {
		mod = ev.registry.Module(prefix)
	}
	if mod == nil {
		return nil, fmt.Errorf("%w: %s", ErrPrefix, prefix)
	}
	if ev.schema() && !mod.Compiled {
		return nil, fmt.Errorf("%w: module %s not compiled", ErrUnresolved, mod.Name)
	}
	return mod, nil
}

func (ev *evaluator) matchName(t nodeTest, mod *yang.Module, name string) (bool, error) {
	if t.local != "*" && t.local != name {
		return false, nil
	}
	if t.prefix == "" {
		if t.local == "*" || ev.local == nil {
			return true, nil
		}
		return mod == ev.local, nil
	}
	other, err := ev.resolvePrefix(t.prefix)
	if err != nil {
		return false, err
	}
	return other == mod, nil
}

func (ev *evaluator) warn(msg string, args ...any) {
	ev.logger.Warn(msg, args...)
}

func errorf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}
