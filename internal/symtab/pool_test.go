package symtab

import "testing"

// stubResolver lets pool_test exercise InsertSymbol without depending on
// internal/resolve; it always keeps whichever side was inserted first.
type stubResolver struct {
	action Action
	msg    string
}

func (r stubResolver) Resolve(old, new *ResolveInfo) (Action, string) {
	return r.action, r.msg
}

func TestInsertSymbolFirstInsertCreatesEntry(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	sym, existed, err := p.InsertSymbol("foo", false, Define, Global, 0x1000, 8, Default, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Fatal("first insert should report existed=false")
	}
	if sym.Name != "foo" || sym.Value != 0x1000 {
		t.Fatalf("unexpected symbol: %+v", sym)
	}
	if p.Len() != 1 {
		t.Fatalf("pool length = %d, want 1", p.Len())
	}
}

func TestInsertSymbolLocalBypassesPool(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	sym, existed, err := p.InsertSymbol("bar", false, Define, Local, 0, 0, Default, nil)
	if sym != nil || existed || err != nil {
		t.Fatalf("local insert should be a no-op, got sym=%v existed=%v err=%v", sym, existed, err)
	}
	if p.Len() != 0 {
		t.Fatalf("pool length = %d, want 0", p.Len())
	}
}

func TestInsertSymbolResolverAbortReturnsLinkError(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	_, _, err := p.InsertSymbol("dup", false, Define, Global, 0, 0, Default, nil)
	if err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}

	p.resolver = stubResolver{action: Abort, msg: "multiple definition of 'dup'"}
	_, existed, err := p.InsertSymbol("dup", false, Define, Global, 0x10, 0, Default, nil)
	if !existed {
		t.Fatal("second insert should report existed=true")
	}
	var linkErr *LinkError
	if err == nil {
		t.Fatal("expected a LinkError on abort")
	}
	if le, ok := err.(*LinkError); !ok {
		t.Fatalf("error is %T, want *LinkError", err)
	} else {
		linkErr = le
	}
	if linkErr.Kind != MultipleDefinition {
		t.Fatalf("LinkError.Kind = %v, want MultipleDefinition", linkErr.Kind)
	}
}

func TestInsertSymbolWarningKeepsOldSurvives(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	first, _, _ := p.InsertSymbol("warn", false, Define, Global, 1, 1, Default, nil)

	p.resolver = stubResolver{action: Warning, msg: "weak override"}
	second, existed, err := p.InsertSymbol("warn", false, Define, Global, 2, 2, Default, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Fatal("want existed=true on the second insert")
	}
	if second != first {
		t.Fatal("Warning action should return the existing entry, not a fresh one")
	}
	if len(p.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want one entry", p.Warnings)
	}
}

func TestGetOrCreate(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	a := p.GetOrCreate("x")
	b := p.GetOrCreate("x")
	if a != b {
		t.Fatal("GetOrCreate should return the same pointer on repeated calls")
	}
	if a.Binding != Global || a.SymIdx != -1 {
		t.Fatalf("fresh entry = %+v, want Binding=Global SymIdx=-1", a)
	}
}

func TestDelete(t *testing.T) {
	p := NewPool(stubResolver{action: Success})
	p.InsertSymbol("gone", false, Define, Global, 0, 0, Default, nil)
	p.Delete("gone")
	if p.Get("gone") != nil {
		t.Fatal("Get should return nil after Delete")
	}
}

func TestResolveInfoGetAddr(t *testing.T) {
	r := &ResolveInfo{Value: 0x10}
	if got := r.GetAddr(); got != 0x10 {
		t.Fatalf("GetAddr() with no Section = %#x, want 0x10", got)
	}

	r.Section = constSection(0x1000)
	if got := r.GetAddr(); got != 0x1010 {
		t.Fatalf("GetAddr() with Section = %#x, want 0x1010", got)
	}
}

type constSection uint64

func (c constSection) Addr() uint64 { return uint64(c) }

func TestMoreRestrictive(t *testing.T) {
	if got := MoreRestrictive(Default, Hidden); got != Hidden {
		t.Fatalf("MoreRestrictive(Default, Hidden) = %v, want Hidden", got)
	}
	if got := MoreRestrictive(Internal, Protected); got != Internal {
		t.Fatalf("MoreRestrictive(Internal, Protected) = %v, want Internal", got)
	}
}
