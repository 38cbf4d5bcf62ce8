package xpath

import (
	"strconv"
	"strings"

	"github.com/midbel/yxpath/environ"
)

// compiler builds the expression tree of an expression accepted by the
// reparser. Operator chains are not searched again: the positions recorded
// in the repeat lists are replayed.
type compiler struct {
	expr *Expression
	pos  int
	Tracer
	builtins environ.Environ[*builtin]
}

func (c *compiler) compile() (Expr, error) {
	expr, err := c.compileExpr()
	if err != nil {
		c.Error("compile", err)
		return nil, err
	}
	if c.pos != len(c.expr.Tokens) {
		return nil, errorf(ErrInternal, "token %d not compiled", c.pos)
	}
	return expr, nil
}

func (c *compiler) compileExpr() (Expr, error) {
	c.Enter("expr")
	defer c.Leave("expr")
	return c.compileOr()
}

func (c *compiler) compileOr() (Expr, error) {
	return c.compileLogical(ExprOr, c.compileAnd)
}

func (c *compiler) compileAnd() (Expr, error) {
	return c.compileLogical(ExprAnd, c.compileEquality)
}

func (c *compiler) compileLogical(kind ExprKind, next func() (Expr, error)) (Expr, error) {
	rep, ok := c.expr.repeat(c.pos, kind)
	if !ok {
		return next()
	}
	first, err := next()
	if err != nil {
		return nil, err
	}
	expr := logical{
		and:  kind == ExprAnd,
		args: []Expr{first},
	}
	for _, op := range rep.Ops {
		if _, err := c.skip(op); err != nil {
			return nil, err
		}
		arg, err := next()
		if err != nil {
			return nil, err
		}
		expr.args = append(expr.args, arg)
	}
	return expr, nil
}

func (c *compiler) compileEquality() (Expr, error) {
	return c.compileBinary(ExprEquality, c.compileRelational)
}

func (c *compiler) compileRelational() (Expr, error) {
	return c.compileBinary(ExprRelational, c.compileAdditive)
}

func (c *compiler) compileAdditive() (Expr, error) {
	return c.compileBinary(ExprAdditive, c.compileMultiplicative)
}

func (c *compiler) compileMultiplicative() (Expr, error) {
	return c.compileBinary(ExprMultiplicative, c.compileUnary)
}

// compileBinary folds a chain of operators of the same precedence level
// from the left.
func (c *compiler) compileBinary(kind ExprKind, next func() (Expr, error)) (Expr, error) {
	rep, ok := c.expr.repeat(c.pos, kind)
	left, err := next()
	if err != nil || !ok {
		return left, err
	}
	for _, op := range rep.Ops {
		tok, err := c.skip(op)
		if err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = binary{
			op:    tok.Literal,
			kind:  kind,
			left:  left,
			right: right,
		}
	}
	return left, nil
}

func (c *compiler) compileUnary() (Expr, error) {
	rep, ok := c.expr.repeat(c.pos, ExprUnary)
	if ok {
		for _, op := range rep.Ops {
			if _, err := c.skip(op); err != nil {
				return nil, err
			}
		}
	}
	expr, err := c.compileUnion()
	if err != nil {
		return nil, err
	}
	for range rep.Ops {
		expr = negate{
			expr: expr,
		}
	}
	return expr, nil
}

func (c *compiler) compileUnion() (Expr, error) {
	rep, ok := c.expr.repeat(c.pos, ExprUnion)
	first, err := c.compilePath()
	if err != nil || !ok {
		return first, err
	}
	expr := union{
		all: []Expr{first},
	}
	for _, op := range rep.Ops {
		if _, err := c.skip(op); err != nil {
			return nil, err
		}
		next, err := c.compilePath()
		if err != nil {
			return nil, err
		}
		expr.all = append(expr.all, next)
	}
	return expr, nil
}

func (c *compiler) compilePath() (Expr, error) {
	c.Enter("path")
	defer c.Leave("path")

	var (
		start Expr
		err   error
	)
	switch tok := c.curr(); tok.Type {
	case begGrp:
		c.pos++
		if start, err = c.compileExpr(); err != nil {
			return nil, err
		}
		c.pos++
	case Literal:
		c.pos++
		start = literal(tok.Value())
	case NumberLit:
		c.pos++
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, errorf(ErrInternal, "%s: %s", tok.Literal, err)
		}
		start = number(f)
	case FuncName:
		if start, err = c.compileCall(); err != nil {
			return nil, err
		}
	case opPath:
		return c.compileAbsolute()
	default:
		steps, err := c.compileSteps(false)
		if err != nil {
			return nil, err
		}
		return path{steps: steps}, nil
	}
	preds, err := c.compilePredicates()
	if err != nil {
		return nil, err
	}
	if len(preds) > 0 {
		start = filter{
			expr:  start,
			preds: preds,
		}
	}
	if tok := c.curr(); tok.is(opPath) {
		c.pos++
		steps, err := c.compileSteps(tok.Literal == "//")
		if err != nil {
			return nil, err
		}
		return path{start: start, steps: steps}, nil
	}
	return start, nil
}

func (c *compiler) compileAbsolute() (Expr, error) {
	var (
		tok  = c.curr()
		expr = path{start: root{}}
		err  error
	)
	c.pos++
	if tok.Literal == "//" || c.isStep() {
		expr.steps, err = c.compileSteps(tok.Literal == "//")
	}
	return expr, err
}

func (c *compiler) compileSteps(descend bool) ([]step, error) {
	var steps []step
	for {
		s, err := c.compileStep()
		if err != nil {
			return nil, err
		}
		if descend {
			steps = append(steps, descendant(s)...)
		} else {
			steps = append(steps, s)
		}
		tok := c.curr()
		if !tok.is(opPath) {
			break
		}
		c.pos++
		descend = tok.Literal == "//"
	}
	return steps, nil
}

// descendant rewrites a step preceded by '//'. Without predicate, a child
// step becomes a descendant step. Otherwise positions are relative to the
// parent of each node and the abbreviation is expanded to
// descendant-or-self::node()/step.
func descendant(s step) []step {
	if s.axis == axisChild && len(s.preds) == 0 {
		s.axis = axisDescendant
		return []step{s}
	}
	dos := step{
		axis: axisDescendantOrSelf,
		test: nodeTest{kind: testNode},
	}
	return []step{dos, s}
}

func (c *compiler) compileStep() (step, error) {
	c.Enter("step")
	defer c.Leave("step")

	var s step
	switch tok := c.curr(); tok.Type {
	case currNode:
		c.pos++
		s.axis = axisSelf
		s.test.kind = testNode
		return s, nil
	case parentNode:
		c.pos++
		s.axis = axisParent
		s.test.kind = testNode
		return s, nil
	case attrNode:
		c.pos++
		s.axis = axisAttribute
	default:
		s.axis = axisChild
	}
	switch tok := c.curr(); tok.Type {
	case NameTest:
		c.pos++
		s.test.kind = testName
		s.test.prefix, s.test.local, _ = strings.Cut(tok.Literal, ":")
		if s.test.local == "" {
			s.test.prefix, s.test.local = "", s.test.prefix
		}
	case NodeType:
		c.pos += 3
		switch tok.Literal {
		case typeNode:
			s.test.kind = testNode
		case typeText:
			s.test.kind = testText
		default:
			s.test.kind = testComment
		}
	default:
		return s, errorf(ErrInternal, "unexpected token %s", tok)
	}
	preds, err := c.compilePredicates()
	if err != nil {
		return s, err
	}
	s.preds = preds
	return s, nil
}

func (c *compiler) compilePredicates() ([]Expr, error) {
	var list []Expr
	for c.curr().is(begPred) {
		c.pos++
		expr, err := c.compileExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
		c.pos++
	}
	return list, nil
}

func (c *compiler) compileCall() (Expr, error) {
	c.Enter("call")
	defer c.Leave("call")

	tok := c.curr()
	fn, err := c.builtins.Resolve(tok.Literal)
	if err != nil {
		return nil, err
	}
	expr := call{
		name: tok.Literal,
		fn:   fn,
	}
	c.pos += 2
	if c.curr().is(endGrp) {
		c.pos++
		return expr, nil
	}
	for {
		arg, err := c.compileExpr()
		if err != nil {
			return nil, err
		}
		expr.args = append(expr.args, arg)
		if !c.curr().is(opSeq) {
			break
		}
		c.pos++
	}
	c.pos++
	return expr, nil
}

func (c *compiler) skip(op int) (Token, error) {
	if c.pos != op {
		return Token{}, errorf(ErrInternal, "operator expected at token %d, got token %d", op, c.pos)
	}
	tok := c.curr()
	c.pos++
	return tok, nil
}

func (c *compiler) isStep() bool {
	switch c.curr().Type {
	case currNode, parentNode, attrNode, NameTest, NodeType:
		return true
	default:
		return false
	}
}

func (c *compiler) curr() Token {
	if c.pos >= len(c.expr.Tokens) {
		return Token{Type: EOF}
	}
	return c.expr.Tokens[c.pos]
}
