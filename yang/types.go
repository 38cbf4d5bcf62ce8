package yang

import (
	"slices"
	"strings"
)

type BaseType int8

const (
	TypeUnknown BaseType = iota
	TypeString
	TypeBinary
	TypeBoolean
	TypeEmpty
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeDecimal64
	TypeEnumeration
	TypeBits
	TypeIdentityRef
	TypeLeafRef
	TypeInstanceIdentifier
	TypeUnion
)

var baseNames = map[string]BaseType{
	"string":              TypeString,
	"binary":              TypeBinary,
	"boolean":             TypeBoolean,
	"empty":               TypeEmpty,
	"int8":                TypeInt8,
	"int16":               TypeInt16,
	"int32":               TypeInt32,
	"int64":               TypeInt64,
	"uint8":               TypeUint8,
	"uint16":              TypeUint16,
	"uint32":              TypeUint32,
	"uint64":              TypeUint64,
	"decimal64":           TypeDecimal64,
	"enumeration":         TypeEnumeration,
	"bits":                TypeBits,
	"identityref":         TypeIdentityRef,
	"leafref":             TypeLeafRef,
	"instance-identifier": TypeInstanceIdentifier,
	"union":               TypeUnion,
}

func ParseBaseType(str string) BaseType {
	return baseNames[str]
}

func (b BaseType) String() string {
	for n, t := range baseNames {
		if t == b {
			return n
		}
	}
	return "unknown"
}

type Enum struct {
	Name  string
	Value int
}

type Bit struct {
	Name     string
	Position int
}

type Type struct {
	Base  BaseType
	Enums []Enum
	Bits  []Bit
	// identityref
	Bases []*Identity
	// leafref
	Path   string
	Target *SchemaNode
	// union
	Types []*Type
}

// Has reports whether t is of the given base type or is a union with a
// member of that type.
func (t *Type) Has(base BaseType) bool {
	if t == nil {
		return false
	}
	if t.Base == base {
		return true
	}
	return slices.ContainsFunc(t.Types, func(m *Type) bool {
		return m.Has(base)
	})
}

// Find returns the first member of t, t included, of the given base type.
func (t *Type) Find(base BaseType) *Type {
	if t == nil {
		return nil
	}
	if t.Base == base {
		return t
	}
	for _, m := range t.Types {
		if x := m.Find(base); x != nil {
			return x
		}
	}
	return nil
}

func (t *Type) Enum(name string) (Enum, bool) {
	if e := t.Find(TypeEnumeration); e != nil {
		for _, v := range e.Enums {
			if v.Name == name {
				return v, true
			}
		}
	}
	return Enum{}, false
}

// BitSet reports whether name is a bit of t and appears in the given value.
func (t *Type) BitSet(value, name string) bool {
	b := t.Find(TypeBits)
	if b == nil {
		return false
	}
	ok := slices.ContainsFunc(b.Bits, func(b Bit) bool {
		return b.Name == name
	})
	return ok && slices.Contains(strings.Fields(value), name)
}
