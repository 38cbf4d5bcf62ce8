package xpath

type Expr interface {
	eval(*evaluator, focus) (Value, error)
}

// logical is a chain of and/or operands. In data mode operands are
// evaluated lazily: evaluation stops as soon as the outcome is known. In
// schema mode every operand is reachable and their node-sets are merged.
type logical struct {
	and  bool
	args []Expr
}

func (l logical) eval(ev *evaluator, f focus) (Value, error) {
	if ev.schema() {
		return evalMerged(ev, f, l.args...)
	}
	for _, a := range l.args {
		v, err := a.eval(ev, f)
		if err != nil {
			return nil, err
		}
		if ok := toBoolean(v); bool(ok) != l.and {
			return ok, nil
		}
	}
	return Boolean(l.and), nil
}

type binary struct {
	op    string
	kind  ExprKind
	left  Expr
	right Expr
}

func (b binary) eval(ev *evaluator, f focus) (Value, error) {
	if ev.schema() {
		return evalMerged(ev, f, b.left, b.right)
	}
	left, err := b.left.eval(ev, f)
	if err != nil {
		return nil, err
	}
	right, err := b.right.eval(ev, f)
	if err != nil {
		return nil, err
	}
	switch b.kind {
	case ExprEquality, ExprRelational:
		return compare(b.op, left, right)
	default:
		return arithmetic(b.op, left, right)
	}
}

type negate struct {
	expr Expr
}

func (n negate) eval(ev *evaluator, f focus) (Value, error) {
	v, err := n.expr.eval(ev, f)
	if err != nil {
		return nil, err
	}
	if ev.schema() {
		return onlySets(ev, v), nil
	}
	return -toNumber(v), nil
}

type union struct {
	all []Expr
}

func (u union) eval(ev *evaluator, f focus) (Value, error) {
	var res Value = Empty{}
	for _, e := range u.all {
		v, err := e.eval(ev, f)
		if err != nil {
			return nil, err
		}
		if res, err = ev.nav.union(ev, res, v); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type root struct{}

func (root) eval(ev *evaluator, _ focus) (Value, error) {
	return ev.nav.root(ev), nil
}

type path struct {
	start Expr
	steps []step
}

func (p path) eval(ev *evaluator, f focus) (Value, error) {
	set := f.ctx
	if p.start != nil {
		v, err := p.start.eval(ev, f)
		if err != nil {
			return nil, err
		}
		set = v
	}
	for _, s := range p.steps {
		v, err := s.apply(ev, set)
		if err != nil {
			return nil, err
		}
		set = v
	}
	return set, nil
}

type step struct {
	axis  axisKind
	test  nodeTest
	preds []Expr
}

// apply moves set along the axis of s. Predicates are applied to the nodes
// reached from each member of set separately, so that positions are relative
// to the member they come from.
func (s step) apply(ev *evaluator, set Value) (Value, error) {
	if len(s.preds) == 0 {
		return ev.nav.move(ev, set, s.axis, s.test)
	}
	list, err := ev.nav.split(ev, set)
	if err != nil {
		return nil, err
	}
	res := ev.emptySet()
	for _, one := range list {
		v, err := ev.nav.move(ev, one, s.axis, s.test)
		if err != nil {
			return nil, err
		}
		for _, p := range s.preds {
			if v, err = ev.nav.filter(ev, v, p); err != nil {
				return nil, err
			}
		}
		if res, err = ev.nav.union(ev, res, v); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// filter applies predicates to the result of a primary expression. A
// predicate on a value that is not a node-set keeps the value if it holds,
// Empty is returned otherwise.
type filter struct {
	expr  Expr
	preds []Expr
}

func (i filter) eval(ev *evaluator, f focus) (Value, error) {
	v, err := i.expr.eval(ev, f)
	if err != nil {
		return nil, err
	}
	for _, p := range i.preds {
		switch v.(type) {
		case *NodeSet, *SchemaSet:
			v, err = ev.nav.filter(ev, v, p)
		default:
			v, err = filterValue(ev, f, v, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func filterValue(ev *evaluator, f focus, v Value, pred Expr) (Value, error) {
	ok, err := pred.eval(ev, f)
	if err != nil {
		return nil, err
	}
	if ev.schema() || bool(toBoolean(ok)) {
		return v, nil
	}
	return Empty{}, nil
}

type literal string

func (i literal) eval(_ *evaluator, _ focus) (Value, error) {
	return String(i), nil
}

type number float64

func (n number) eval(_ *evaluator, _ focus) (Value, error) {
	return Number(n), nil
}

type call struct {
	name string
	fn   *builtin
	args []Expr
}

func (c call) eval(ev *evaluator, f focus) (Value, error) {
	args := make([]Value, 0, len(c.args))
	for _, a := range c.args {
		v, err := a.eval(ev, f)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return c.fn.call(ev, f, args)
}

// evalMerged evaluates all expressions and merges the node-sets they give.
// It is used in schema mode where operators do not compute values.
func evalMerged(ev *evaluator, f focus, list ...Expr) (Value, error) {
	res := newSchemaSet()
	for _, e := range list {
		v, err := e.eval(ev, f)
		if err != nil {
			return nil, err
		}
		if ss, ok := v.(*SchemaSet); ok {
			res.merge(ss)
		}
	}
	return res, nil
}

func onlySets(ev *evaluator, v Value) Value {
	if _, ok := v.(*SchemaSet); ok {
		return v
	}
	return ev.emptySet()
}
