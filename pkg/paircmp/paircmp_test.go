package paircmp

import (
	"context"
	"fmt"
	"testing"

	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
)

var (
	simUse   = &dict.Attribute{Name: "Simultaneous-Use", Type: value.TypeUint32}
	authType = &dict.Attribute{Name: "Auth-Type", Type: value.TypeString}
)

func TestRegisterAndFind(t *testing.T) {
	r := NewRegistry()

	if r.Find("Simultaneous-Use") != nil {
		t.Error("Find() on empty registry != nil")
	}

	r.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		return 0, nil
	})
	if r.Find("Simultaneous-Use") == nil {
		t.Error("Find() = nil after Register()")
	}
}

func TestCompare(t *testing.T) {
	r := NewRegistry()
	r.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		limit := check.Value.Data.(uint32)
		if limit >= 2 {
			return 0, nil
		}
		return 1, nil
	})

	req := request.New()

	t.Run("match", func(t *testing.T) {
		checks := request.List{{Attr: simUse, Value: value.NewUint32(3)}}
		rcode, err := r.Compare(context.Background(), req, checks)
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if rcode != 0 {
			t.Errorf("Compare() = %d, want 0", rcode)
		}
	})

	t.Run("no match", func(t *testing.T) {
		checks := request.List{{Attr: simUse, Value: value.NewUint32(1)}}
		rcode, err := r.Compare(context.Background(), req, checks)
		if err != nil {
			t.Fatal(err)
		}
		if rcode == 0 {
			t.Error("Compare() = 0, want nonzero")
		}
	})

	t.Run("first nonzero wins", func(t *testing.T) {
		checks := request.List{
			{Attr: simUse, Value: value.NewUint32(1)},
			{Attr: authType, Value: value.NewString("x")},
		}
		// The second check has no comparator, but the first already failed.
		rcode, err := r.Compare(context.Background(), req, checks)
		if err != nil {
			t.Fatal(err)
		}
		if rcode != 1 {
			t.Errorf("Compare() = %d, want 1", rcode)
		}
	})

	t.Run("missing comparator", func(t *testing.T) {
		checks := request.List{{Attr: authType, Value: value.NewString("x")}}
		if _, err := r.Compare(context.Background(), req, checks); err == nil {
			t.Error("Compare() succeeded without a registered comparator")
		}
	})

	t.Run("empty checks match", func(t *testing.T) {
		rcode, err := r.Compare(context.Background(), req, nil)
		if err != nil || rcode != 0 {
			t.Errorf("Compare(nil) = %d, %v", rcode, err)
		}
	})
}

func TestCompare_Error(t *testing.T) {
	r := NewRegistry()
	r.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		return -1, fmt.Errorf("session store unavailable")
	})

	checks := request.List{{Attr: simUse, Value: value.NewUint32(1)}}
	if _, err := r.Compare(context.Background(), request.New(), checks); err == nil {
		t.Error("Compare() succeeded, want comparator error")
	}
}

func TestRegister_Replaces(t *testing.T) {
	r := NewRegistry()
	r.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		return 1, nil
	})
	r.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		return 0, nil
	})

	checks := request.List{{Attr: simUse, Value: value.NewUint32(1)}}
	rcode, err := r.Compare(context.Background(), request.New(), checks)
	if err != nil || rcode != 0 {
		t.Errorf("Compare() = %d, %v; replacement comparator not used", rcode, err)
	}
}
