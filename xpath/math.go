package xpath

import (
	"math"
)

type compareFunc func(float64, float64) bool

var numericOps = map[string]compareFunc{
	"=":  func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
}

type arithFunc func(float64, float64) float64

var arithOps = map[string]arithFunc{
	"+":   func(a, b float64) float64 { return a + b },
	"-":   func(a, b float64) float64 { return a - b },
	"*":   func(a, b float64) float64 { return a * b },
	"div": func(a, b float64) float64 { return a / b },
	"mod": math.Mod,
}

func arithmetic(op string, left, right Value) (Value, error) {
	fn, ok := arithOps[op]
	if !ok {
		return nil, errorf(ErrInternal, "%s: unknown operator", op)
	}
	return Number(fn(float64(toNumber(left)), float64(toNumber(right)))), nil
}

// compare implements the comparisons of XPath 1.0: a comparison involving
// a node-set is true if it holds for at least one of its nodes.
func compare(op string, left, right Value) (Value, error) {
	if _, ok := numericOps[op]; !ok {
		return nil, errorf(ErrInternal, "%s: unknown operator", op)
	}
	ls, lset := nodeStrings(left)
	rs, rset := nodeStrings(right)
	switch {
	case lset && rset:
		for _, a := range ls {
			for _, b := range rs {
				if compareAtoms(op, String(a), String(b)) {
					return Boolean(true), nil
				}
			}
		}
		return Boolean(false), nil
	case lset:
		return compareSet(op, ls, right), nil
	case rset:
		return compareSet(flip(op), rs, left), nil
	default:
		return Boolean(compareAtoms(op, left, right)), nil
	}
}

func compareSet(op string, list []string, other Value) Boolean {
	if b, ok := other.(Boolean); ok {
		return Boolean(compareAtoms(op, Boolean(len(list) > 0), b))
	}
	for _, str := range list {
		var v Value = String(str)
		if _, ok := other.(Number); ok {
			v = toNumber(v)
		}
		if compareAtoms(op, v, other) {
			return true
		}
	}
	return false
}

func compareAtoms(op string, left, right Value) bool {
	if op != "=" && op != "!=" {
		return numericOps[op](float64(toNumber(left)), float64(toNumber(right)))
	}
	var eq bool
	switch {
	case left.Kind() == KindBoolean || right.Kind() == KindBoolean:
		eq = toBoolean(left) == toBoolean(right)
	case left.Kind() == KindNumber || right.Kind() == KindNumber:
		return numericOps[op](float64(toNumber(left)), float64(toNumber(right)))
	default:
		eq = toString(left) == toString(right)
	}
	if op == "!=" {
		return !eq
	}
	return eq
}

func nodeStrings(v Value) ([]string, bool) {
	switch v := v.(type) {
	case *NodeSet:
		return v.strings(), true
	case Empty:
		return nil, true
	default:
		return nil, false
	}
}

func flip(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

// round follows XPath 1.0: halves are rounded toward positive infinity and
// values in [-0.5, 0) give negative zero.
func round(f float64) float64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f == 0:
		return f
	case f < 0 && f >= -0.5:
		return math.Copysign(0, -1)
	default:
		return math.Floor(f + 0.5)
	}
}
