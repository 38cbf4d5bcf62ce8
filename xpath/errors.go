package xpath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSyntax   = errors.New("invalid syntax")
	ErrFunction = errors.New("unknown function")
	ErrArgument = errors.New("invalid number of argument(s)")
	ErrType     = errors.New("invalid type")
	ErrPrefix   = errors.New("unresolvable module prefix")
	ErrRegex    = errors.New("invalid regular expression")
	ErrInternal = errors.New("internal error")
	ErrContext  = errors.New("invalid context node")
	// ErrUnresolved is reported in schema mode when the expression depends
	// on a part of the schema that is not compiled yet. It is not a failure:
	// the caller should retry once more modules are resolved.
	ErrUnresolved = errors.New("unresolved forward reference")
)

type SyntaxError struct {
	Expr   string
	Token  string
	Offset int
	Cause  string
	// sentinel error wrapped by the syntax error, ErrSyntax if not set.
	Err error
	// candidates proposed for an unknown function name
	Others []string
}

func (e SyntaxError) Error() string {
	var str strings.Builder
	fmt.Fprintf(&str, "%s at offset %d", e.Cause, e.Offset)
	if e.Token != "" {
		fmt.Fprintf(&str, " near %q", e.Token)
	}
	if len(e.Others) > 0 {
		fmt.Fprintf(&str, " (did you mean %s?)", strings.Join(e.Others, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Expr, str.String())
}

func (e SyntaxError) Unwrap() []error {
	if e.Err == nil || e.Err == ErrSyntax {
		return []error{ErrSyntax}
	}
	return []error{ErrSyntax, e.Err}
}
