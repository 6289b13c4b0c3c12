package value

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// Cast converts a Box to the target type, returning a fresh Box. The input
// is never modified. Casting to the box's own type returns it unchanged.
func Cast(b Box, to Type) (Box, error) {
	if to == TypeInvalid {
		return Box{}, fmt.Errorf("cannot cast %s to invalid type", b.Type)
	}
	if b.Type == to {
		return b, nil
	}

	switch to {
	case TypeString:
		return NewString(b.String()), nil

	case TypeOctets:
		return castToOctets(b)

	case TypeBool:
		return castToBool(b)

	case TypeUint32:
		u, err := castToUint64(b)
		if err != nil {
			return Box{}, err
		}
		if u > math.MaxUint32 {
			return Box{}, fmt.Errorf("value %d out of range for uint32", u)
		}
		return NewUint32(uint32(u)), nil

	case TypeUint64:
		u, err := castToUint64(b)
		if err != nil {
			return Box{}, err
		}
		return NewUint64(u), nil

	case TypeInt64:
		return castToInt64(b)

	case TypeFloat64:
		return castToFloat64(b)

	case TypeIPAddr:
		return castToIPAddr(b)

	case TypeDate:
		return castToDate(b)
	}

	return Box{}, fmt.Errorf("cannot cast %s to %s", b.Type, to)
}

func castToOctets(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		return NewOctets([]byte(b.Data.(string))), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to octets", b.Type)
}

func castToBool(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		switch strings.ToLower(b.Data.(string)) {
		case "yes", "true", "1":
			return NewBool(true), nil
		case "no", "false", "0":
			return NewBool(false), nil
		}
		return Box{}, fmt.Errorf("cannot parse %q as bool", b.Data.(string))
	case TypeUint32:
		return NewBool(b.Data.(uint32) != 0), nil
	case TypeUint64:
		return NewBool(b.Data.(uint64) != 0), nil
	case TypeInt64:
		return NewBool(b.Data.(int64) != 0), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to bool", b.Type)
}

func castToUint64(b Box) (uint64, error) {
	switch b.Type {
	case TypeString:
		u, err := strconv.ParseUint(strings.TrimSpace(b.Data.(string)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as unsigned integer", b.Data.(string))
		}
		return u, nil
	case TypeBool:
		if b.Data.(bool) {
			return 1, nil
		}
		return 0, nil
	case TypeUint32:
		return uint64(b.Data.(uint32)), nil
	case TypeUint64:
		return b.Data.(uint64), nil
	case TypeInt64:
		i := b.Data.(int64)
		if i < 0 {
			return 0, fmt.Errorf("value %d out of range for unsigned integer", i)
		}
		return uint64(i), nil
	case TypeFloat64:
		f := b.Data.(float64)
		if f < 0 || f != math.Trunc(f) {
			return 0, fmt.Errorf("value %g out of range for unsigned integer", f)
		}
		return uint64(f), nil
	case TypeDate:
		return uint64(b.Data.(time.Time).Unix()), nil
	}
	return 0, fmt.Errorf("cannot cast %s to unsigned integer", b.Type)
}

func castToInt64(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		i, err := strconv.ParseInt(strings.TrimSpace(b.Data.(string)), 10, 64)
		if err != nil {
			return Box{}, fmt.Errorf("cannot parse %q as integer", b.Data.(string))
		}
		return NewInt64(i), nil
	case TypeBool:
		if b.Data.(bool) {
			return NewInt64(1), nil
		}
		return NewInt64(0), nil
	case TypeUint32:
		return NewInt64(int64(b.Data.(uint32))), nil
	case TypeUint64:
		u := b.Data.(uint64)
		if u > math.MaxInt64 {
			return Box{}, fmt.Errorf("value %d out of range for int64", u)
		}
		return NewInt64(int64(u)), nil
	case TypeFloat64:
		f := b.Data.(float64)
		if f != math.Trunc(f) {
			return Box{}, fmt.Errorf("value %g is not an integer", f)
		}
		return NewInt64(int64(f)), nil
	case TypeDate:
		return NewInt64(b.Data.(time.Time).Unix()), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to int64", b.Type)
}

func castToFloat64(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(b.Data.(string)), 64)
		if err != nil {
			return Box{}, fmt.Errorf("cannot parse %q as float", b.Data.(string))
		}
		return NewFloat64(f), nil
	case TypeUint32:
		return NewFloat64(float64(b.Data.(uint32))), nil
	case TypeUint64:
		return NewFloat64(float64(b.Data.(uint64))), nil
	case TypeInt64:
		return NewFloat64(float64(b.Data.(int64))), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to float64", b.Type)
}

func castToIPAddr(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		a, err := netip.ParseAddr(strings.TrimSpace(b.Data.(string)))
		if err != nil {
			return Box{}, fmt.Errorf("cannot parse %q as IP address", b.Data.(string))
		}
		return NewIPAddr(a), nil
	case TypeUint32:
		v := b.Data.(uint32)
		return NewIPAddr(netip.AddrFrom4([4]byte{
			byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
		})), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to ipaddr", b.Type)
}

func castToDate(b Box) (Box, error) {
	switch b.Type {
	case TypeString:
		s := strings.TrimSpace(b.Data.(string))
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t), nil
		}
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewDate(time.Unix(sec, 0)), nil
		}
		return Box{}, fmt.Errorf("cannot parse %q as date", s)
	case TypeUint32:
		return NewDate(time.Unix(int64(b.Data.(uint32)), 0)), nil
	case TypeUint64:
		u := b.Data.(uint64)
		if u > math.MaxInt64 {
			return Box{}, fmt.Errorf("value %d out of range for date", u)
		}
		return NewDate(time.Unix(int64(u), 0)), nil
	case TypeInt64:
		return NewDate(time.Unix(b.Data.(int64), 0)), nil
	}
	return Box{}, fmt.Errorf("cannot cast %s to date", b.Type)
}
