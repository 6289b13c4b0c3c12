// Package value implements the typed value boxes that flow through condition
// evaluation. A Box pairs a type tag with a payload; Cast converts boxes
// between types and Equal/Compare implement the generic comparison primitives.
//
// Boxes are small and copied by value. Casting always produces a fresh Box;
// it never mutates its input, so boxes that alias literal data embedded in a
// parsed condition tree are safe to share across concurrent evaluations.
package value

import (
	"fmt"
	"net/netip"
	"time"
)

// Type identifies the data type carried by a Box.
type Type string

const (
	// TypeInvalid is the zero type. A Box with TypeInvalid carries no value;
	// a cast target of TypeInvalid means "no cast".
	TypeInvalid Type = ""

	TypeString  Type = "string"
	TypeOctets  Type = "octets"
	TypeBool    Type = "bool"
	TypeUint32  Type = "uint32"
	TypeUint64  Type = "uint64"
	TypeInt64   Type = "int64"
	TypeFloat64 Type = "float64"
	TypeIPAddr  Type = "ipaddr"
	TypeDate    Type = "date"
)

// ParseType returns the Type named by s.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeString, TypeOctets, TypeBool, TypeUint32, TypeUint64,
		TypeInt64, TypeFloat64, TypeIPAddr, TypeDate:
		return Type(s), nil
	}
	return TypeInvalid, fmt.Errorf("unknown value type %q", s)
}

// Box is a tagged value. The dynamic type of Data depends on Type:
//
//	TypeString  string
//	TypeOctets  []byte
//	TypeBool    bool
//	TypeUint32  uint32
//	TypeUint64  uint64
//	TypeInt64   int64
//	TypeFloat64 float64
//	TypeIPAddr  netip.Addr
//	TypeDate    time.Time
type Box struct {
	Type Type
	Data any
}

// NewString returns a string-typed Box.
func NewString(s string) Box { return Box{Type: TypeString, Data: s} }

// NewOctets returns an octets-typed Box. The byte slice is not copied.
func NewOctets(b []byte) Box { return Box{Type: TypeOctets, Data: b} }

// NewBool returns a bool-typed Box.
func NewBool(b bool) Box { return Box{Type: TypeBool, Data: b} }

// NewUint32 returns a uint32-typed Box.
func NewUint32(v uint32) Box { return Box{Type: TypeUint32, Data: v} }

// NewUint64 returns a uint64-typed Box.
func NewUint64(v uint64) Box { return Box{Type: TypeUint64, Data: v} }

// NewInt64 returns an int64-typed Box.
func NewInt64(v int64) Box { return Box{Type: TypeInt64, Data: v} }

// NewFloat64 returns a float64-typed Box.
func NewFloat64(v float64) Box { return Box{Type: TypeFloat64, Data: v} }

// NewIPAddr returns an ipaddr-typed Box.
func NewIPAddr(a netip.Addr) Box { return Box{Type: TypeIPAddr, Data: a} }

// NewDate returns a date-typed Box.
func NewDate(t time.Time) Box { return Box{Type: TypeDate, Data: t} }

// IsValid reports whether the Box carries a value.
func (b Box) IsValid() bool { return b.Type != TypeInvalid }

// String renders the boxed value as text. It is the presentation form used
// in debug dumps and when casting to TypeString.
func (b Box) String() string {
	switch b.Type {
	case TypeInvalid:
		return "<invalid>"
	case TypeString:
		return b.Data.(string)
	case TypeOctets:
		return fmt.Sprintf("0x%x", b.Data.([]byte))
	case TypeBool:
		if b.Data.(bool) {
			return "yes"
		}
		return "no"
	case TypeUint32:
		return fmt.Sprintf("%d", b.Data.(uint32))
	case TypeUint64:
		return fmt.Sprintf("%d", b.Data.(uint64))
	case TypeInt64:
		return fmt.Sprintf("%d", b.Data.(int64))
	case TypeFloat64:
		return fmt.Sprintf("%g", b.Data.(float64))
	case TypeIPAddr:
		return b.Data.(netip.Addr).String()
	case TypeDate:
		return b.Data.(time.Time).UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("<%s>", b.Type)
}
