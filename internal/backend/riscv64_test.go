package backend

import (
	stdelf "debug/elf"
	"testing"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

func TestRISCV64GetSegmentFlag(t *testing.T) {
	b := RISCV64{}
	if got := b.GetSegmentFlag(stdelf.SHF_ALLOC); got != uint32(stdelf.PF_R) {
		t.Fatalf("GetSegmentFlag(ALLOC) = %#x, want PF_R", got)
	}
	want := uint32(stdelf.PF_R | stdelf.PF_W | stdelf.PF_X)
	if got := b.GetSegmentFlag(stdelf.SHF_ALLOC | stdelf.SHF_WRITE | stdelf.SHF_EXECINSTR); got != want {
		t.Fatalf("GetSegmentFlag(ALLOC|WRITE|EXECINSTR) = %#x, want %#x", got, want)
	}
}

func TestRISCV64GetTargetSectionOrder(t *testing.T) {
	b := RISCV64{}
	cases := []struct {
		name string
		ord  int
	}{
		{".got", 0},
		{".got.plt", 1},
		{".plt", 2},
	}
	for _, c := range cases {
		ord, ok := b.GetTargetSectionOrder(c.name)
		if !ok || ord != c.ord {
			t.Fatalf("GetTargetSectionOrder(%q) = (%d, %v), want (%d, true)", c.name, ord, ok, c.ord)
		}
	}
	if _, ok := b.GetTargetSectionOrder(".text"); ok {
		t.Fatal("GetTargetSectionOrder(.text) should not claim ownership")
	}
}

func newTestSection(size int) *object.InputSection {
	return &object.InputSection{Content: make([]byte, size)}
}

func TestApplyRelocationAbsolute32(t *testing.T) {
	b := &RISCV64{}
	sec := newTestSection(8)
	sym := &symtab.ResolveInfo{Value: 0x2000}

	err := b.ApplyRelocation(sec, uint32(stdelf.R_RISCV_32), 0, sym, 4)
	if err != nil {
		t.Fatalf("ApplyRelocation error: %v", err)
	}
	if got := utils.ReadAs[uint32](sec.Content); got != 0x2004 {
		t.Fatalf("R_RISCV_32 result = %#x, want 0x2004", got)
	}
}

func TestApplyRelocationAbsolute64(t *testing.T) {
	b := &RISCV64{}
	sec := newTestSection(8)
	sym := &symtab.ResolveInfo{Value: 0x1_0000_0000}

	err := b.ApplyRelocation(sec, uint32(stdelf.R_RISCV_64), 0, sym, 0x10)
	if err != nil {
		t.Fatalf("ApplyRelocation error: %v", err)
	}
	if got := utils.ReadAs[uint64](sec.Content); got != 0x1_0000_0010 {
		t.Fatalf("R_RISCV_64 result = %#x, want 0x100000010", got)
	}
}

func TestApplyRelocationNoneAndRelaxAreNoops(t *testing.T) {
	b := &RISCV64{}
	sec := newTestSection(4)
	copy(sec.Content, []byte{0xde, 0xad, 0xbe, 0xef})

	for _, rt := range []stdelf.R_RISCV{stdelf.R_RISCV_NONE, stdelf.R_RISCV_RELAX} {
		if err := b.ApplyRelocation(sec, uint32(rt), 0, nil, 0); err != nil {
			t.Fatalf("ApplyRelocation(%v) error: %v", rt, err)
		}
	}
	if !bytesEqual(sec.Content, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatal("R_RISCV_NONE/RELAX must not touch the section content")
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWriteItypePreservesOpcodeBits(t *testing.T) {
	loc := make([]byte, 4)
	utils.Write[uint32](loc, 0x00000013) // addi x0, x0, 0 (opcode 0x13; funct3, rd and rs1 all zero)
	writeItype(loc, 0x7ff)

	got := utils.ReadAs[uint32](loc)
	if got&0xfff != 0x013 {
		t.Fatalf("writeItype must not disturb the opcode/funct3 bits, got low 12 bits %#x", got&0xfff)
	}
	if imm := int32(got) >> 20; imm != 0x7ff {
		t.Fatalf("writeItype imm = %#x, want 0x7ff", imm)
	}
}

func TestWriteUtypeRoundsNearestPage(t *testing.T) {
	loc := make([]byte, 4)
	writeUtype(loc, 0x1234)
	got := utils.ReadAs[uint32](loc)
	if got&0xfff != 0 {
		t.Fatalf("U-type immediate field must occupy bits [31:12] only, got %#x", got)
	}

	// 0x1900 is nearer 0x2000 than 0x1000, so it rounds up.
	writeUtype(loc, 0x1900)
	if got := utils.ReadAs[uint32](loc); got != 0x2000 {
		t.Fatalf("writeUtype(0x1900) = %#x, want 0x2000 (rounded to the nearest page)", got)
	}
}

func TestSetRs1(t *testing.T) {
	loc := make([]byte, 4)
	utils.Write[uint32](loc, 0xffffffff)
	setRs1(loc, 4)
	got := utils.ReadAs[uint32](loc)
	if rs1 := (got >> 15) & 0x1f; rs1 != 4 {
		t.Fatalf("setRs1(4) -> rs1 field = %d, want 4", rs1)
	}
}
