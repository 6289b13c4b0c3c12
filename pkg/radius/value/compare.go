package value

import (
	"bytes"
	"fmt"
	"time"
)

// Equal reports whether two boxes of the same type hold the same value.
func Equal(a, b Box) (bool, error) {
	if a.Type != b.Type {
		return false, fmt.Errorf("cannot compare %s with %s", a.Type, b.Type)
	}

	switch a.Type {
	case TypeString:
		return a.Data.(string) == b.Data.(string), nil
	case TypeOctets:
		return bytes.Equal(a.Data.([]byte), b.Data.([]byte)), nil
	case TypeBool:
		return a.Data.(bool) == b.Data.(bool), nil
	case TypeIPAddr:
		return a.Data == b.Data, nil
	case TypeDate:
		c, err := Compare(a, b)
		return c == 0, err
	case TypeUint32, TypeUint64, TypeInt64, TypeFloat64:
		c, err := Compare(a, b)
		return c == 0, err
	}
	return false, fmt.Errorf("equality undefined for type %s", a.Type)
}

// Compare orders two boxes of the same type, returning -1, 0 or 1. It fails
// for types with no defined ordering (bool, ipaddr).
func Compare(a, b Box) (int, error) {
	if a.Type != b.Type {
		return 0, fmt.Errorf("cannot compare %s with %s", a.Type, b.Type)
	}

	switch a.Type {
	case TypeString:
		return cmpOrdered(a.Data.(string), b.Data.(string)), nil
	case TypeOctets:
		return bytes.Compare(a.Data.([]byte), b.Data.([]byte)), nil
	case TypeUint32:
		return cmpOrdered(a.Data.(uint32), b.Data.(uint32)), nil
	case TypeUint64:
		return cmpOrdered(a.Data.(uint64), b.Data.(uint64)), nil
	case TypeInt64:
		return cmpOrdered(a.Data.(int64), b.Data.(int64)), nil
	case TypeFloat64:
		return cmpOrdered(a.Data.(float64), b.Data.(float64)), nil
	case TypeDate:
		return cmpOrdered(a.Data.(time.Time).UnixNano(), b.Data.(time.Time).UnixNano()), nil
	}
	return 0, fmt.Errorf("ordering undefined for type %s", a.Type)
}

func cmpOrdered[T interface {
	~string | ~uint32 | ~uint64 | ~int64 | ~float64
}](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
