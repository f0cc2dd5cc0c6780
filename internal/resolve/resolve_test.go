package resolve

import (
	"testing"

	"github.com/hcyang1106/simple-linker/internal/symtab"
)

type fakeOwner struct{ needed bool }

func (o *fakeOwner) Name() string  { return "fake.so" }
func (o *fakeOwner) SetNeeded()    { o.needed = true }

func TestResolveUndefinedLosesToDefined(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "x", Desc: symtab.Undefined, Binding: symtab.Global}
	newSym := &symtab.ResolveInfo{Name: "x", Desc: symtab.Define, Binding: symtab.Global, Value: 0x42}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Desc != symtab.Define || old.Value != 0x42 {
		t.Fatalf("old after resolve = %+v, want the new definition copied in", old)
	}
}

func TestResolveTwoStrongDefinitionsAborts(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "dup", Desc: symtab.Define, Binding: symtab.Global, Value: 1}
	newSym := &symtab.ResolveInfo{Name: "dup", Desc: symtab.Define, Binding: symtab.Global, Value: 2}

	action, msg := r.Resolve(old, newSym)
	if action != symtab.Abort {
		t.Fatalf("action = %v, want Abort", action)
	}
	if msg == "" {
		t.Fatal("want a non-empty message on Abort")
	}
}

func TestResolveWeakYieldsToStrong(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "w", Desc: symtab.Define, Binding: symtab.Weak, Value: 1}
	newSym := &symtab.ResolveInfo{Name: "w", Desc: symtab.Define, Binding: symtab.Global, Value: 2}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Value != 2 || old.Binding != symtab.Global {
		t.Fatalf("old after resolve = %+v, want the strong definition to win", old)
	}
}

func TestResolveStrongBeatsSubsequentWeak(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "w", Desc: symtab.Define, Binding: symtab.Global, Value: 1}
	newSym := &symtab.ResolveInfo{Name: "w", Desc: symtab.Define, Binding: symtab.Weak, Value: 2}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Value != 1 {
		t.Fatalf("old.Value = %d, want 1 (strong definition keeps its value)", old.Value)
	}
}

func TestResolveRegularBeatsDynamic(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "d", Desc: symtab.Define, Binding: symtab.Global, Source: symtab.Regular, Value: 1}
	newSym := &symtab.ResolveInfo{Name: "d", Desc: symtab.Define, Binding: symtab.Global, Source: symtab.Dynamic, Value: 2}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Value != 1 || old.Source != symtab.Regular {
		t.Fatalf("old after resolve = %+v, want the regular definition to survive", old)
	}
}

func TestResolveLargerCommonWins(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "c", Desc: symtab.Common, Binding: symtab.Global, Size: 4, Align: 4}
	newSym := &symtab.ResolveInfo{Name: "c", Desc: symtab.Common, Binding: symtab.Global, Size: 16, Align: 8}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Size != 16 {
		t.Fatalf("old.Size = %d, want 16 (larger common wins)", old.Size)
	}
	if old.Align != 8 {
		t.Fatalf("old.Align = %d, want 8 (max of both alignments)", old.Align)
	}
}

func TestResolveRealDefinitionBeatsCommon(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "c", Desc: symtab.Common, Binding: symtab.Global, Size: 4}
	newSym := &symtab.ResolveInfo{Name: "c", Desc: symtab.Define, Binding: symtab.Global, Value: 0x8000}

	action, _ := r.Resolve(old, newSym)
	if action != symtab.Success {
		t.Fatalf("action = %v, want Success", action)
	}
	if old.Desc != symtab.Define || old.Value != 0x8000 {
		t.Fatalf("old after resolve = %+v, want the real definition to replace Common", old)
	}
}

func TestResolveVisibilityTightensRegardlessOfWinner(t *testing.T) {
	r := New()
	old := &symtab.ResolveInfo{Name: "v", Desc: symtab.Undefined, Binding: symtab.Global, Visibility: symtab.Default}
	newSym := &symtab.ResolveInfo{Name: "v", Desc: symtab.Define, Binding: symtab.Global, Visibility: symtab.Hidden}

	r.Resolve(old, newSym)
	if old.Visibility != symtab.Hidden {
		t.Fatalf("old.Visibility = %v, want Hidden even though new also won the value", old.Visibility)
	}
}

func TestResolveDynamicWinnerMarksOwnerNeeded(t *testing.T) {
	r := New()
	owner := &fakeOwner{}
	old := &symtab.ResolveInfo{Name: "s", Desc: symtab.Undefined, Binding: symtab.Global}
	newSym := &symtab.ResolveInfo{Name: "s", Desc: symtab.Define, Binding: symtab.Global, Source: symtab.Dynamic, Owner: owner}

	r.Resolve(old, newSym)
	if !owner.needed {
		t.Fatal("a dynamic definition winning resolution should mark its owner needed")
	}
}
