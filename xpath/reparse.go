package xpath

import (
	"errors"
	"fmt"
	"slices"

	"github.com/midbel/distance"
	"github.com/midbel/yxpath/environ"
)

type ExprKind int8

const (
	ExprOr ExprKind = iota
	ExprAnd
	ExprEquality
	ExprRelational
	ExprAdditive
	ExprMultiplicative
	ExprUnary
	ExprUnion
)

func (k ExprKind) String() string {
	switch k {
	case ExprOr:
		return "or"
	case ExprAnd:
		return "and"
	case ExprEquality:
		return "equality"
	case ExprRelational:
		return "relational"
	case ExprAdditive:
		return "additive"
	case ExprMultiplicative:
		return "multiplicative"
	case ExprUnary:
		return "unary"
	case ExprUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Repeat lists the positions of the operator tokens of a chain of binary
// (or unary) operators of the same precedence level. It is attached to the
// first token of the chain.
type Repeat struct {
	Kind ExprKind
	Ops  []int
}

func (r Repeat) String() string {
	return fmt.Sprintf("%s%v", r.Kind, r.Ops)
}

// Expression is a validated XPath expression. It can be shared between
// goroutines.
type Expression struct {
	Source string
	Tokens []Token
	Repeat [][]Repeat

	expr Expr
}

func (e *Expression) String() string {
	return e.Source
}

func (e *Expression) repeat(pos int, kind ExprKind) (Repeat, bool) {
	if pos < 0 || pos >= len(e.Repeat) {
		return Repeat{}, false
	}
	i := slices.IndexFunc(e.Repeat[pos], func(r Repeat) bool {
		return r.Kind == kind
	})
	if i < 0 {
		return Repeat{}, false
	}
	return e.Repeat[pos][i], true
}

func (e *Expression) addRepeat(pos int, kind ExprKind, op int) {
	for i := range e.Repeat[pos] {
		if e.Repeat[pos][i].Kind == kind {
			e.Repeat[pos][i].Ops = append(e.Repeat[pos][i].Ops, op)
			return
		}
	}
	e.Repeat[pos] = append(e.Repeat[pos], Repeat{
		Kind: kind,
		Ops:  []int{op},
	})
}

type Option func(*config)

type config struct {
	Tracer
	builtins environ.Environ[*builtin]
}

func WithTracer(tracer Tracer) Option {
	return func(c *config) {
		c.Tracer = tracer
	}
}

// Func is a function registered with WithFunction. It is called with the
// values of its arguments. In schema modes it is not called.
type Func func(args []Value) (Value, error)

// WithFunction makes fn callable under name in the parsed expression. It
// accepts between min and max arguments, max being negative when fn is
// variadic. A builtin with the same name is shadowed.
func WithFunction(name string, min, max int, fn Func) Option {
	return func(c *config) {
		if c.builtins == defaultBuiltins {
			c.builtins = environ.Enclosed(defaultBuiltins)
		}
		c.builtins.Define(name, &builtin{
			name:      name,
			signature: name + "(...)",
			min:       min,
			max:       max,
			data: func(_ *evaluator, _ focus, args []Value) (Value, error) {
				return fn(args)
			},
		})
	}
}

func Parse(expr string) (*Expression, error) {
	return ParseWith(expr)
}

// ParseWith lexes expr, checks it against the grammar of XPath 1.0 and
// compiles it. Unknown functions and calls with a wrong number of arguments
// are reported here, before any evaluation.
func ParseWith(expr string, options ...Option) (*Expression, error) {
	cfg := config{
		Tracer:   discardTracer{},
		builtins: defaultBuiltins,
	}
	for _, o := range options {
		o(&cfg)
	}
	tokens, err := Lex(expr)
	if err != nil {
		return nil, err
	}
	e := Expression{
		Source: expr,
		Tokens: tokens,
		Repeat: make([][]Repeat, len(tokens)),
	}
	r := reparser{
		expr:     &e,
		Tracer:   cfg.Tracer,
		builtins: cfg.builtins,
	}
	if err := r.reparse(); err != nil {
		return nil, err
	}
	c := compiler{
		expr:     &e,
		Tracer:   cfg.Tracer,
		builtins: cfg.builtins,
	}
	if e.expr, err = c.compile(); err != nil {
		return nil, err
	}
	return &e, nil
}

type reparser struct {
	expr *Expression
	pos  int
	Tracer
	builtins environ.Environ[*builtin]
}

func (r *reparser) reparse() error {
	if len(r.expr.Tokens) == 0 {
		return r.errorf("empty expression")
	}
	if err := r.reparseExpr(); err != nil {
		r.Error("expr", err)
		return err
	}
	if !r.done() {
		return r.errorf("unparsed token")
	}
	return nil
}

func (r *reparser) reparseExpr() error {
	r.Enter("expr")
	defer r.Leave("expr")
	return r.reparseOr()
}

func (r *reparser) reparseOr() error {
	return r.chain(ExprOr, func(t Token) bool {
		return t.is(opLog, kwOr)
	}, r.reparseAnd)
}

func (r *reparser) reparseAnd() error {
	return r.chain(ExprAnd, func(t Token) bool {
		return t.is(opLog, kwAnd)
	}, r.reparseEquality)
}

func (r *reparser) reparseEquality() error {
	return r.chain(ExprEquality, func(t Token) bool {
		return t.is(opComp, "=", "!=")
	}, r.reparseRelational)
}

func (r *reparser) reparseRelational() error {
	return r.chain(ExprRelational, func(t Token) bool {
		return t.is(opComp, "<", "<=", ">", ">=")
	}, r.reparseAdditive)
}

func (r *reparser) reparseAdditive() error {
	return r.chain(ExprAdditive, func(t Token) bool {
		return t.is(opMath, "+", "-")
	}, r.reparseMultiplicative)
}

func (r *reparser) reparseMultiplicative() error {
	return r.chain(ExprMultiplicative, func(t Token) bool {
		return t.is(opMath, "*", kwDiv, kwMod)
	}, r.reparseUnary)
}

func (r *reparser) chain(kind ExprKind, accept func(Token) bool, next func() error) error {
	start := r.pos
	if err := next(); err != nil {
		return err
	}
	for accept(r.curr()) {
		r.expr.addRepeat(start, kind, r.pos)
		r.pos++
		if err := next(); err != nil {
			return err
		}
	}
	return nil
}

func (r *reparser) reparseUnary() error {
	start := r.pos
	for r.curr().is(opMath, "-") {
		r.expr.addRepeat(start, ExprUnary, r.pos)
		r.pos++
	}
	return r.chain(ExprUnion, func(t Token) bool {
		return t.is(opUnion)
	}, r.reparsePath)
}

func (r *reparser) reparsePath() error {
	r.Enter("path")
	defer r.Leave("path")

	switch tok := r.curr(); tok.Type {
	case begGrp:
		r.pos++
		if err := r.reparseExpr(); err != nil {
			return err
		}
		if err := r.expect(endGrp, "missing closing parenthesis"); err != nil {
			return err
		}
	case Literal, NumberLit:
		r.pos++
	case FuncName:
		if err := r.reparseCall(); err != nil {
			return err
		}
	case opPath:
		return r.reparseAbsolute()
	case currNode, parentNode, attrNode, NameTest, NodeType:
		return r.reparseRelative()
	case EOF:
		return r.errorf("unexpected end of expression")
	default:
		return r.errorf("unexpected token %s", tok)
	}
	if err := r.reparsePredicates(); err != nil {
		return err
	}
	if r.curr().is(opPath) {
		r.pos++
		return r.reparseRelative()
	}
	return nil
}

func (r *reparser) reparseAbsolute() error {
	tok := r.curr()
	r.pos++
	if tok.Literal == "//" || r.isStep() {
		return r.reparseRelative()
	}
	return nil
}

func (r *reparser) reparseRelative() error {
	for {
		if err := r.reparseStep(); err != nil {
			return err
		}
		if !r.curr().is(opPath) {
			break
		}
		r.pos++
	}
	return nil
}

func (r *reparser) reparseStep() error {
	r.Enter("step")
	defer r.Leave("step")

	switch tok := r.curr(); tok.Type {
	case currNode, parentNode:
		r.pos++
		return nil
	case attrNode:
		r.pos++
		if t := r.curr(); t.Type != NameTest && t.Type != NodeType {
			return r.errorf("name test expected after '@'")
		}
		return r.reparseStep()
	case NameTest:
		r.pos++
	case NodeType:
		r.pos++
		if err := r.expect(begGrp, "missing opening parenthesis"); err != nil {
			return err
		}
		if err := r.expect(endGrp, "missing closing parenthesis"); err != nil {
			return err
		}
	case EOF:
		return r.errorf("unexpected end of expression")
	default:
		return r.errorf("unexpected token %s, step expected", tok)
	}
	return r.reparsePredicates()
}

func (r *reparser) reparsePredicates() error {
	for r.curr().is(begPred) {
		r.pos++
		if err := r.reparseExpr(); err != nil {
			return err
		}
		if err := r.expect(endPred, "missing closing bracket"); err != nil {
			return err
		}
	}
	return nil
}

func (r *reparser) reparseCall() error {
	r.Enter("call")
	defer r.Leave("call")

	var (
		tok  = r.curr()
		args int
	)
	fn, err := r.builtins.Resolve(tok.Literal)
	if err != nil {
		return r.unknownFunction(tok)
	}
	r.pos++
	if err := r.expect(begGrp, "missing opening parenthesis"); err != nil {
		return err
	}
	if !r.curr().is(endGrp) {
		for {
			if err := r.reparseExpr(); err != nil {
				return err
			}
			args++
			if !r.curr().is(opSeq) {
				break
			}
			r.pos++
		}
	}
	if err := r.expect(endGrp, "missing closing parenthesis"); err != nil {
		return err
	}
	if args < fn.min || (fn.max >= 0 && args > fn.max) {
		return SyntaxError{
			Expr:   r.expr.Source,
			Token:  tok.Literal,
			Offset: tok.Offset,
			Cause:  fmt.Sprintf("%d argument(s) given to %s", args, fn.signature),
			Err:    ErrArgument,
		}
	}
	return nil
}

func (r *reparser) unknownFunction(tok Token) error {
	return SyntaxError{
		Expr:   r.expr.Source,
		Token:  tok.Literal,
		Offset: tok.Offset,
		Cause:  "unknown function",
		Err:    ErrFunction,
		Others: distance.Levenshtein(tok.Literal, r.builtins.Names()),
	}
}

func (r *reparser) isStep() bool {
	switch r.curr().Type {
	case currNode, parentNode, attrNode, NameTest, NodeType:
		return true
	default:
		return false
	}
}

func (r *reparser) expect(kind rune, msg string) error {
	if !r.curr().is(kind) {
		if r.done() {
			return r.errorf("%s: unexpected end of expression", msg)
		}
		return r.errorf("%s", msg)
	}
	r.pos++
	return nil
}

func (r *reparser) curr() Token {
	if r.done() {
		tok := Token{
			Type:   EOF,
			Offset: len(r.expr.Source),
		}
		return tok
	}
	return r.expr.Tokens[r.pos]
}

func (r *reparser) done() bool {
	return r.pos >= len(r.expr.Tokens)
}

func (r *reparser) errorf(format string, args ...any) error {
	tok := r.curr()
	err := SyntaxError{
		Expr:   r.expr.Source,
		Offset: tok.Offset,
		Cause:  fmt.Sprintf(format, args...),
	}
	if tok.Type != EOF {
		err.Token = tok.Literal
	}
	return err
}

// IsSyntaxError reports whether err comes from the lexer or the parser.
func IsSyntaxError(err error) bool {
	var e SyntaxError
	return errors.As(err, &e)
}
