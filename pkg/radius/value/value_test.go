package value

import (
	"net/netip"
	"strings"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{
		"string", "octets", "bool", "uint32", "uint64",
		"int64", "float64", "ipaddr", "date",
	} {
		typ, err := ParseType(name)
		if err != nil {
			t.Errorf("ParseType(%q) error = %v", name, err)
		}
		if string(typ) != name {
			t.Errorf("ParseType(%q) = %q", name, typ)
		}
	}

	if _, err := ParseType("integer48"); err == nil {
		t.Error("ParseType(integer48) succeeded, want error")
	}
	if _, err := ParseType(""); err == nil {
		t.Error("ParseType(\"\") succeeded, want error")
	}
}

func TestBoxString(t *testing.T) {
	tests := []struct {
		box  Box
		want string
	}{
		{NewString("alice"), "alice"},
		{NewOctets([]byte{0xde, 0xad}), "0xdead"},
		{NewBool(true), "yes"},
		{NewBool(false), "no"},
		{NewUint32(42), "42"},
		{NewInt64(-7), "-7"},
		{NewFloat64(1.5), "1.5"},
		{NewIPAddr(netip.MustParseAddr("192.0.2.1")), "192.0.2.1"},
		{NewDate(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)), "2026-01-02T03:04:05Z"},
		{Box{}, "<invalid>"},
	}

	for _, tt := range tests {
		if got := tt.box.String(); got != tt.want {
			t.Errorf("String(%v %v) = %q, want %q", tt.box.Type, tt.box.Data, got, tt.want)
		}
	}
}

func TestCast(t *testing.T) {
	tests := []struct {
		name string
		in   Box
		to   Type
		want Box
	}{
		{"same type is identity", NewString("x"), TypeString, NewString("x")},
		{"uint32 to string", NewUint32(181), TypeString, NewString("181")},
		{"string to uint32", NewString("181"), TypeUint32, NewUint32(181)},
		{"string with spaces to int64", NewString(" -4 "), TypeInt64, NewInt64(-4)},
		{"string to bool yes", NewString("yes"), TypeBool, NewBool(true)},
		{"string to bool 0", NewString("0"), TypeBool, NewBool(false)},
		{"uint64 to uint32", NewUint64(7), TypeUint32, NewUint32(7)},
		{"string to octets", NewString("ab"), TypeOctets, NewOctets([]byte("ab"))},
		{"string to ipaddr", NewString("10.0.0.1"), TypeIPAddr, NewIPAddr(netip.MustParseAddr("10.0.0.1"))},
		{"uint32 to ipaddr", NewUint32(0x0a000001), TypeIPAddr, NewIPAddr(netip.MustParseAddr("10.0.0.1"))},
		{"integral float to int64", NewFloat64(15), TypeInt64, NewInt64(15)},
		{"date from unix string", NewString("1700000000"), TypeDate, NewDate(time.Unix(1700000000, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.in, tt.to)
			if err != nil {
				t.Fatalf("Cast() error = %v", err)
			}
			eq, err := Equal(got, tt.want)
			if err != nil {
				t.Fatalf("Equal() error = %v", err)
			}
			if !eq {
				t.Errorf("Cast() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCast_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   Box
		to   Type
	}{
		{"non-numeric string to uint32", NewString("abc"), TypeUint32},
		{"negative to uint64", NewInt64(-1), TypeUint64},
		{"overflow uint32", NewUint64(1 << 40), TypeUint32},
		{"fractional float to int64", NewFloat64(1.5), TypeInt64},
		{"bool to ipaddr", NewBool(true), TypeIPAddr},
		{"cast to invalid", NewString("x"), TypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Cast(tt.in, tt.to); err == nil {
				t.Error("Cast() succeeded, want error")
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want int
	}{
		{"strings ordered", NewString("alice"), NewString("bob"), -1},
		{"strings equal", NewString("x"), NewString("x"), 0},
		{"uint32 greater", NewUint32(9), NewUint32(3), 1},
		{"octets bytewise", NewOctets([]byte{1}), NewOctets([]byte{2}), -1},
		{"dates", NewDate(time.Unix(10, 0)), NewDate(time.Unix(20, 0)), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompare_Undefined(t *testing.T) {
	if _, err := Compare(NewBool(true), NewBool(false)); err == nil {
		t.Error("Compare(bool) succeeded, want error")
	}
	if _, err := Compare(NewString("x"), NewUint32(1)); err == nil {
		t.Error("Compare across types succeeded, want error")
	}
	a := netip.MustParseAddr("10.0.0.1")
	if _, err := Compare(NewIPAddr(a), NewIPAddr(a)); err == nil {
		t.Error("Compare(ipaddr) succeeded, want error")
	}
}

func TestEqual_IPAddr(t *testing.T) {
	a := NewIPAddr(netip.MustParseAddr("10.0.0.1"))
	b := NewIPAddr(netip.MustParseAddr("10.0.0.1"))
	c := NewIPAddr(netip.MustParseAddr("10.0.0.2"))

	eq, err := Equal(a, b)
	if err != nil || !eq {
		t.Errorf("Equal(same addr) = %v, %v", eq, err)
	}
	eq, err = Equal(a, c)
	if err != nil || eq {
		t.Errorf("Equal(different addr) = %v, %v", eq, err)
	}
}

func TestCast_DoesNotMutateInput(t *testing.T) {
	in := NewString("42")
	if _, err := Cast(in, TypeUint32); err != nil {
		t.Fatal(err)
	}
	if in.Type != TypeString || in.Data.(string) != "42" {
		t.Error("Cast mutated its input")
	}
}

func TestBoxString_DateIsUTC(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	b := NewDate(time.Date(2026, 6, 1, 13, 0, 0, 0, loc))
	if got := b.String(); !strings.HasSuffix(got, "Z") {
		t.Errorf("String() = %q, want UTC rendering", got)
	}
}
