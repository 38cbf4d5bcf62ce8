package xpath

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	EOF rune = -(1 + iota)
	NameTest
	NodeType
	FuncName
	Literal
	NumberLit
	Invalid
)

const (
	begGrp = -(iota + 1000)
	endGrp
	begPred
	endPred
	currNode
	parentNode
	attrNode
	opSeq
	opLog
	opComp
	opMath
	opUnion
	opPath
)

const (
	kwAnd = "and"
	kwOr  = "or"
	kwDiv = "div"
	kwMod = "mod"

	typeNode    = "node"
	typeText    = "text"
	typeComment = "comment"
)

type Token struct {
	Literal string
	Type    rune
	Offset  int
	Length  int
}

// Value gives the content of a literal without its delimiters.
func (t Token) Value() string {
	if t.Type == Literal && len(t.Literal) >= 2 {
		return t.Literal[1 : len(t.Literal)-1]
	}
	return t.Literal
}

func (t Token) is(kind rune, lit ...string) bool {
	if t.Type != kind {
		return false
	}
	if len(lit) == 0 {
		return true
	}
	for _, str := range lit {
		if str == t.Literal {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "<eof>"
	case begGrp:
		return "<begin-group>"
	case endGrp:
		return "<end-group>"
	case begPred:
		return "<begin-predicate>"
	case endPred:
		return "<end-predicate>"
	case currNode:
		return "<current-node>"
	case parentNode:
		return "<parent-node>"
	case attrNode:
		return "<attribute>"
	case opSeq:
		return "<comma>"
	case opLog, opComp, opMath, opUnion, opPath:
		return fmt.Sprintf("operator(%s)", t.Literal)
	case NameTest:
		return fmt.Sprintf("name-test(%s)", t.Literal)
	case NodeType:
		return fmt.Sprintf("node-type(%s)", t.Literal)
	case FuncName:
		return fmt.Sprintf("function(%s)", t.Literal)
	case Literal:
		return fmt.Sprintf("literal(%s)", t.Literal)
	case NumberLit:
		return fmt.Sprintf("number(%s)", t.Literal)
	default:
		return fmt.Sprintf("<invalid>(%s)", t.Literal)
	}
}

// Lex splits expr into its tokens. Whitespace is discarded.
func Lex(expr string) ([]Token, error) {
	var (
		scan = Scan(expr)
		list []Token
	)
	for {
		tok, err := scan.Scan()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			break
		}
		if n := len(list); tok.Type == begGrp && n > 0 && list[n-1].Type == NameTest {
			reclassify(&list[n-1])
		}
		list = append(list, tok)
	}
	return list, nil
}

type Scanner struct {
	input string
	char  rune
	curr  int
	next  int

	prev      Token
	funcCheck bool
}

func Scan(expr string) *Scanner {
	scan := Scanner{
		input: expr,
	}
	scan.prev.Type = EOF
	scan.read()
	return &scan
}

func (s *Scanner) Scan() (Token, error) {
	s.skipBlank()

	var tok Token
	tok.Offset = s.curr
	if s.done() {
		tok.Type = EOF
		return tok, nil
	}
	var err error
	switch {
	case s.char == lparen:
		s.read()
		tok.Type = begGrp
	case s.char == rparen:
		s.read()
		tok.Type = endGrp
	case s.char == lsquare:
		s.read()
		tok.Type = begPred
	case s.char == rsquare:
		s.read()
		tok.Type = endPred
	case s.char == dot && !isDigit(s.peek()):
		s.read()
		tok.Type = currNode
		if s.char == dot {
			s.read()
			tok.Type = parentNode
		}
	case s.char == arobase:
		s.read()
		tok.Type = attrNode
	case s.char == comma:
		s.read()
		tok.Type = opSeq
	case s.char == apos || s.char == quote:
		err = s.scanLiteral(&tok)
	case s.char == dot || isDigit(s.char):
		s.scanNumber(&tok)
	case s.char == slash:
		s.read()
		tok.Type = opPath
		if s.char == slash {
			s.read()
		}
	case s.char == pipe:
		s.read()
		tok.Type = opUnion
	case s.char == plus || s.char == dash:
		s.read()
		tok.Type = opMath
	case s.char == equal:
		s.read()
		tok.Type = opComp
	case s.char == bang:
		s.read()
		if s.char != equal {
			return tok, s.errorf(tok.Offset, "'!' not followed by '='")
		}
		s.read()
		tok.Type = opComp
	case s.char == langle || s.char == rangle:
		s.read()
		if s.char == equal {
			s.read()
		}
		tok.Type = opComp
	case s.expectOperator():
		err = s.scanOperator(&tok)
	case s.char == star:
		s.read()
		tok.Type = NameTest
		s.funcCheck = false
	default:
		err = s.scanNameTest(&tok)
	}
	if err != nil {
		return tok, err
	}
	if tok.Type != NameTest {
		s.funcCheck = false
	}
	tok.Length = s.curr - tok.Offset
	tok.Literal = s.input[tok.Offset:s.curr]
	s.prev = tok
	return tok, nil
}

// expectOperator implements the lexical disambiguation of XPath 1.0: when
// a preceding token exists and is neither '@', '(', '[', ',' nor an
// operator, '*' and the words and, or, div and mod are operators.
func (s *Scanner) expectOperator() bool {
	switch s.prev.Type {
	case EOF, attrNode, begGrp, begPred, opSeq, opLog, opComp, opMath, opUnion, opPath:
		return false
	default:
		return true
	}
}

func (s *Scanner) scanOperator(tok *Token) error {
	if s.char == star {
		s.read()
		tok.Type = opMath
		return nil
	}
	rest := s.input[s.curr:]
	for _, kw := range []string{kwAnd, kwOr, kwDiv, kwMod} {
		if !strings.HasPrefix(rest, kw) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest[len(kw):]); isNameChar(r) {
			continue
		}
		for range kw {
			s.read()
		}
		tok.Type = opMath
		if kw == kwAnd || kw == kwOr {
			tok.Type = opLog
		}
		return nil
	}
	if s.funcCheck && s.prev.Type == NameTest {
		return s.errorf(s.curr, "invalid character %q, perhaps %q is supposed to be a function call", s.char, s.prev.Literal)
	}
	return s.errorf(s.curr, "invalid character %q", s.char)
}

func (s *Scanner) scanLiteral(tok *Token) error {
	quote := s.char
	s.read()
	for !s.done() && s.char != quote {
		s.read()
	}
	if s.done() {
		return s.errorf(tok.Offset, "unterminated literal")
	}
	s.read()
	tok.Type = Literal
	return nil
}

func (s *Scanner) scanNumber(tok *Token) {
	for isDigit(s.char) {
		s.read()
	}
	if s.char == dot {
		s.read()
		for isDigit(s.char) {
			s.read()
		}
	}
	tok.Type = NumberLit
}

func (s *Scanner) scanNameTest(tok *Token) error {
	if !isNameStart(s.char) {
		return s.errorf(s.curr, "invalid character %q", s.char)
	}
	s.scanName()
	tok.Type = NameTest
	if s.char != colon {
		s.funcCheck = true
		return nil
	}
	s.read()
	switch {
	case s.char == star:
		s.read()
	case isNameStart(s.char):
		s.scanName()
	default:
		return s.errorf(s.curr, "invalid character %q after prefix", s.char)
	}
	s.funcCheck = false
	return nil
}

func (s *Scanner) scanName() {
	for isNameChar(s.char) {
		s.read()
	}
}

// reclassify turns an unprefixed name test followed by '(' into a node type
// or a function name. Prefixed names and '*' are left untouched: the
// parser rejects them.
func reclassify(tok *Token) {
	if tok.Literal == "*" || strings.Contains(tok.Literal, ":") {
		return
	}
	switch tok.Literal {
	case typeNode, typeText, typeComment:
		tok.Type = NodeType
	default:
		tok.Type = FuncName
	}
}

func (s *Scanner) errorf(offset int, format string, args ...any) error {
	err := SyntaxError{
		Expr:   s.input,
		Offset: offset,
		Cause:  fmt.Sprintf(format, args...),
	}
	if offset < len(s.input) {
		r, _ := utf8.DecodeRuneInString(s.input[offset:])
		err.Token = string(r)
	}
	return err
}

func (s *Scanner) skipBlank() {
	for isBlank(s.char) {
		s.read()
	}
}

func (s *Scanner) read() {
	s.curr = s.next
	if s.curr >= len(s.input) {
		s.char = utf8.RuneError
		return
	}
	r, n := utf8.DecodeRuneInString(s.input[s.curr:])
	s.char = r
	s.next += n
}

func (s *Scanner) peek() rune {
	if s.next >= len(s.input) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.next:])
	return r
}

func (s *Scanner) done() bool {
	return s.curr >= len(s.input)
}

const (
	langle  = '<'
	rangle  = '>'
	lsquare = '['
	rsquare = ']'
	lparen  = '('
	rparen  = ')'
	colon   = ':'
	quote   = '"'
	apos    = '\''
	slash   = '/'
	bang    = '!'
	equal   = '='
	comma   = ','
	dot     = '.'
	pipe    = '|'
	plus    = '+'
	dash    = '-'
	star    = '*'
	arobase = '@'
	undersc = '_'
)

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == undersc || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return isNameStart(r) || isDigit(r) || r == dash || r == dot ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.IsDigit(r)
}
