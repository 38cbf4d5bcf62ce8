package xpath

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	nameStartContent = `:A-Z_a-z\x{C0}-\x{D6}\x{D8}-\x{F6}\x{F8}-\x{2FF}\x{370}-\x{37D}\x{37F}-\x{1FFF}\x{200C}-\x{200D}\x{2070}-\x{218F}\x{2C00}-\x{2FEF}\x{3001}-\x{D7FF}\x{F900}-\x{FDCF}\x{FDF0}-\x{FFFD}\x{10000}-\x{EFFFF}`
	nameCharContent  = nameStartContent + `\-.0-9\x{B7}\x{300}-\x{36F}\x{203F}-\x{2040}`
	spaceContent     = `\x20\t\n\r`
	wordContent      = `\p{L}\p{M}\p{N}\p{S}`
	wordNotContent   = `\p{P}\p{Z}\p{C}`
	digitContent     = `\p{Nd}`
)

// translatePattern rewrites a pattern written with the regular expressions
// of XML Schema into the syntax of the regexp package. XML Schema patterns
// are implicitly anchored. Constructs without equivalent are rejected.
func translatePattern(pattern string) (string, error) {
	if pattern == "" {
		return `^(?:)$`, nil
	}
	t := translator{
		pattern: pattern,
	}
	res, err := t.translate()
	if err != nil {
		return "", fmt.Errorf("%w: %q: %s", ErrRegex, pattern, err)
	}
	return res, nil
}

// compilePattern translates and compiles pattern. Compiled expressions are
// kept for the duration of an evaluation.
func (ev *evaluator) compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := ev.regexp[pattern]; ok {
		return re, nil
	}
	str, err := translatePattern(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrRegex, pattern, err)
	}
	ev.regexp[pattern] = re
	return re, nil
}

type translator struct {
	pattern string
	pos     int
	groups  int
	class   bool
	str     strings.Builder
}

func (t *translator) translate() (string, error) {
	for !t.done() {
		r := t.read()
		var err error
		switch {
		case r == '\\':
			err = t.escape()
		case t.class:
			err = t.classChar(r)
		case r == '[':
			err = t.openClass()
		case r == '(':
			if t.peek() == '?' {
				return "", fmt.Errorf("unsupported group at offset %d", t.pos-1)
			}
			t.groups++
			t.str.WriteRune(r)
		case r == ')':
			if t.groups == 0 {
				return "", fmt.Errorf("unbalanced parenthesis at offset %d", t.pos-1)
			}
			t.groups--
			t.str.WriteRune(r)
		case r == '.':
			t.str.WriteString(`[^\n\r]`)
		case r == '^' || r == '$':
			t.str.WriteRune('\\')
			t.str.WriteRune(r)
		default:
			t.str.WriteRune(r)
		}
		if err != nil {
			return "", err
		}
	}
	switch {
	case t.class:
		return "", fmt.Errorf("unterminated character class")
	case t.groups > 0:
		return "", fmt.Errorf("unbalanced parenthesis")
	}
	return `^(?:` + t.str.String() + `)$`, nil
}

func (t *translator) openClass() error {
	t.class = true
	t.str.WriteRune('[')
	if t.peek() == '^' {
		t.read()
		t.str.WriteRune('^')
	}
	if t.peek() == ']' {
		return fmt.Errorf("empty character class at offset %d", t.pos)
	}
	return nil
}

func (t *translator) classChar(r rune) error {
	switch r {
	case ']':
		t.class = false
	case '[':
		return fmt.Errorf("nested character class at offset %d", t.pos-1)
	case '-':
		if t.peek() == '[' {
			return fmt.Errorf("character class subtraction at offset %d", t.pos-1)
		}
	}
	t.str.WriteRune(r)
	return nil
}

func (t *translator) escape() error {
	if t.done() {
		return fmt.Errorf("trailing backslash")
	}
	r := t.read()
	switch r {
	case 'i':
		t.writeClass(nameStartContent, false)
	case 'I':
		return t.writeNotClass(nameStartContent)
	case 'c':
		t.writeClass(nameCharContent, false)
	case 'C':
		return t.writeNotClass(nameCharContent)
	case 'd':
		t.writeClass(digitContent, false)
	case 'D':
		t.str.WriteString(`\P{Nd}`)
	case 's':
		t.writeClass(spaceContent, false)
	case 'S':
		return t.writeNotClass(spaceContent)
	case 'w':
		t.writeClass(wordContent, false)
	case 'W':
		t.writeClass(wordNotContent, false)
	case 'p', 'P':
		return t.property(r)
	case 'n', 'r', 't', '\\', '|', '.', '-', '^', '?', '*', '+', '{', '}', '(', ')', '[', ']':
		t.str.WriteRune('\\')
		t.str.WriteRune(r)
	default:
		return fmt.Errorf("unknown escape \\%c at offset %d", r, t.pos-2)
	}
	return nil
}

func (t *translator) writeClass(content string, negate bool) {
	if t.class {
		t.str.WriteString(content)
		return
	}
	t.str.WriteRune('[')
	if negate {
		t.str.WriteRune('^')
	}
	t.str.WriteString(content)
	t.str.WriteRune(']')
}

func (t *translator) writeNotClass(content string) error {
	if t.class {
		return fmt.Errorf("negated escape in character class at offset %d", t.pos-2)
	}
	t.writeClass(content, true)
	return nil
}

func (t *translator) property(r rune) error {
	if t.peek() != '{' {
		return fmt.Errorf("\\%c without category at offset %d", r, t.pos-2)
	}
	end := strings.IndexByte(t.pattern[t.pos:], '}')
	if end < 0 {
		return fmt.Errorf("unterminated category at offset %d", t.pos)
	}
	name := t.pattern[t.pos+1 : t.pos+end]
	t.pos += end + 1
	if strings.HasPrefix(name, "Is") {
		return fmt.Errorf("unicode block %s not supported", name)
	}
	t.str.WriteRune('\\')
	t.str.WriteRune(r)
	t.str.WriteString("{" + name + "}")
	return nil
}

func (t *translator) read() rune {
	r, z := utf8.DecodeRuneInString(t.pattern[t.pos:])
	t.pos += z
	return r
}

func (t *translator) peek() rune {
	r, _ := utf8.DecodeRuneInString(t.pattern[t.pos:])
	return r
}

func (t *translator) done() bool {
	return t.pos >= len(t.pattern)
}
