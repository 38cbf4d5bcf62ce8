package xpath

import (
	"math"
	"strconv"
	"strings"
)

type Kind int8

const (
	KindEmpty Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindNodeSet
	KindSchemaSet
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindNodeSet:
		return "node-set"
	case KindSchemaSet:
		return "schema node-set"
	default:
		return "unknown"
	}
}

// Value is the result of an expression. The set of implementations is
// closed: Empty, Boolean, Number, String, *NodeSet and *SchemaSet.
type Value interface {
	Kind() Kind
	value()
}

// Empty is the absence of node-set, different from an empty node-set.
type Empty struct{}

func (Empty) Kind() Kind { return KindEmpty }
func (Empty) value()     {}

type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }
func (Boolean) value()     {}

type Number float64

func (Number) Kind() Kind { return KindNumber }
func (Number) value()     {}

type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

func toBoolean(v Value) Boolean {
	switch v := v.(type) {
	case Empty:
		return false
	case Boolean:
		return v
	case Number:
		f := float64(v)
		return Boolean(f != 0 && !math.IsNaN(f))
	case String:
		return len(v) > 0
	case *NodeSet:
		return v.Len() > 0
	case *SchemaSet:
		return v.Len() > 0
	default:
		panic("unreachable")
	}
}

func toNumber(v Value) Number {
	switch v := v.(type) {
	case Empty:
		return Number(math.NaN())
	case Boolean:
		if v {
			return 1
		}
		return 0
	case Number:
		return v
	case String:
		return parseNumber(string(v))
	case *NodeSet:
		return parseNumber(v.String())
	case *SchemaSet:
		return Number(math.NaN())
	default:
		panic("unreachable")
	}
}

func toString(v Value) String {
	switch v := v.(type) {
	case Empty:
		return ""
	case Boolean:
		if v {
			return "true"
		}
		return "false"
	case Number:
		return String(formatNumber(float64(v)))
	case String:
		return v
	case *NodeSet:
		return String(v.String())
	case *SchemaSet:
		return ""
	default:
		panic("unreachable")
	}
}

// Cast converts v to the given kind following the rules of XPath 1.0.
// Node-sets can only be produced by navigation: casting to KindNodeSet or
// KindSchemaSet from another kind fails.
func Cast(v Value, kind Kind) (Value, error) {
	switch kind {
	case KindBoolean:
		return toBoolean(v), nil
	case KindNumber:
		return toNumber(v), nil
	case KindString:
		return toString(v), nil
	default:
		if v.Kind() == kind {
			return v, nil
		}
		return nil, errorf(ErrType, "%s can not be cast to %s", v.Kind(), kind)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', 0, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// parseNumber accepts the Number production of XPath 1.0 with an optional
// leading minus and surrounding whitespace. Everything else is NaN.
func parseNumber(str string) Number {
	str = strings.TrimFunc(str, isBlank)
	digits := strings.TrimPrefix(str, "-")
	if digits == "" || digits == "." {
		return Number(math.NaN())
	}
	var dot bool
	for _, c := range digits {
		switch {
		case c == '.' && !dot:
			dot = true
		case isDigit(c):
		default:
			return Number(math.NaN())
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return Number(math.NaN())
	}
	return Number(f)
}
