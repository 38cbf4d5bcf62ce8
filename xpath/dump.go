package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Debug gives a textual representation of the tree built for e.
func Debug(e *Expression) string {
	var str strings.Builder
	debugExpr(&str, e.expr)
	return str.String()
}

// DumpTokens writes one line per token of e: its index, its offset, the token
// itself and the operator chains starting at it.
func DumpTokens(w io.Writer, e *Expression) {
	for i, tok := range e.Tokens {
		fmt.Fprintf(w, "%d\t%d\t%s", i, tok.Offset, tok)
		if i < len(e.Repeat) && len(e.Repeat[i]) > 0 {
			list := make([]string, 0, len(e.Repeat[i]))
			for _, r := range e.Repeat[i] {
				list = append(list, r.String())
			}
			io.WriteString(w, "\t")
			io.WriteString(w, strings.Join(list, " "))
		}
		io.WriteString(w, "\n")
	}
}

func debugExpr(w io.Writer, expr Expr) {
	switch v := expr.(type) {
	case logical:
		if v.and {
			io.WriteString(w, "and")
		} else {
			io.WriteString(w, "or")
		}
		debugList(w, v.args)
	case binary:
		io.WriteString(w, "binary")
		io.WriteString(w, "(")
		io.WriteString(w, v.op)
		io.WriteString(w, ", ")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case negate:
		io.WriteString(w, "negate")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case union:
		io.WriteString(w, "union")
		debugList(w, v.all)
	case root:
		io.WriteString(w, "root")
	case path:
		io.WriteString(w, "path")
		io.WriteString(w, "(")
		if v.start == nil {
			io.WriteString(w, "context")
		} else {
			debugExpr(w, v.start)
		}
		for _, s := range v.steps {
			io.WriteString(w, ", ")
			debugStep(w, s)
		}
		io.WriteString(w, ")")
	case filter:
		io.WriteString(w, "filter")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		for _, p := range v.preds {
			io.WriteString(w, ", ")
			debugExpr(w, p)
		}
		io.WriteString(w, ")")
	case literal:
		io.WriteString(w, "literal")
		io.WriteString(w, "(")
		io.WriteString(w, strconv.Quote(string(v)))
		io.WriteString(w, ")")
	case number:
		io.WriteString(w, "number")
		io.WriteString(w, "(")
		io.WriteString(w, strconv.FormatFloat(float64(v), 'f', -1, 64))
		io.WriteString(w, ")")
	case call:
		io.WriteString(w, "call")
		io.WriteString(w, "(")
		io.WriteString(w, v.name)
		for _, a := range v.args {
			io.WriteString(w, ", ")
			debugExpr(w, a)
		}
		io.WriteString(w, ")")
	default:
		io.WriteString(w, "unknown")
	}
}

func debugList(w io.Writer, list []Expr) {
	io.WriteString(w, "(")
	for i := range list {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		debugExpr(w, list[i])
	}
	io.WriteString(w, ")")
}

func debugStep(w io.Writer, s step) {
	io.WriteString(w, "step")
	io.WriteString(w, "(")
	io.WriteString(w, s.axis.String())
	io.WriteString(w, ", ")
	switch s.test.kind {
	case testName:
		io.WriteString(w, "name")
		io.WriteString(w, "(")
		if s.test.prefix != "" {
			io.WriteString(w, s.test.prefix)
			io.WriteString(w, ":")
		}
		io.WriteString(w, s.test.local)
		io.WriteString(w, ")")
	case testNode:
		io.WriteString(w, "node()")
	case testText:
		io.WriteString(w, "text()")
	case testComment:
		io.WriteString(w, "comment()")
	}
	for _, p := range s.preds {
		io.WriteString(w, ", ")
		debugExpr(w, p)
	}
	io.WriteString(w, ")")
}
