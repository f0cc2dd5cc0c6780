package reloc

import (
	stdelf "debug/elf"
	"testing"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
)

type recordedCall struct {
	relType uint32
	offset  uint64
	sym     *symtab.ResolveInfo
	addend  int64
}

type fakeBackend struct {
	calls []recordedCall
	err   error
}

func (*fakeBackend) BitClass() int                                       { return 64 }
func (*fakeBackend) PageSize() uint64                                    { return 0x1000 }
func (*fakeBackend) Machine() stdelf.Machine                             { return stdelf.EM_RISCV }
func (*fakeBackend) GetSegmentFlag(stdelf.SectionFlag) uint32            { return 0 }
func (*fakeBackend) GetTargetSectionOrder(string) (int, bool)            { return 0, false }
func (*fakeBackend) DoPreLayout()                                        {}
func (*fakeBackend) DoPostLayout()                                       {}
func (b *fakeBackend) ApplyRelocation(sec *object.InputSection, relType uint32, offset uint64, sym *symtab.ResolveInfo, addend int64) error {
	b.calls = append(b.calls, recordedCall{relType, offset, sym, addend})
	return b.err
}

func newObjWithSection(alive bool, sec *object.InputSection) *object.ObjectFile {
	o := &object.ObjectFile{}
	if alive {
		o.MarkAlive()
	}
	sec.Obj = o
	o.InputSections = []*object.InputSection{sec}
	return o
}

func TestApplySkipsDeadObjects(t *testing.T) {
	sec := &object.InputSection{Flags: stdelf.SHF_ALLOC, RelShndx: 1}
	o := newObjWithSection(false, sec)
	be := &fakeBackend{}

	if err := Apply([]*object.ObjectFile{o}, be); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(be.calls) != 0 {
		t.Fatal("a dead object's sections must not be handed to the backend")
	}
}

func TestApplySkipsSectionsWithNoRelocTable(t *testing.T) {
	sec := &object.InputSection{Flags: stdelf.SHF_ALLOC, RelShndx: 0}
	o := newObjWithSection(true, sec)
	be := &fakeBackend{}

	if err := Apply([]*object.ObjectFile{o}, be); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(be.calls) != 0 {
		t.Fatal("a section with RelShndx == 0 has no relocations to apply")
	}
}

func TestApplySkipsNonAllocSections(t *testing.T) {
	sec := &object.InputSection{Flags: 0, RelShndx: 1}
	o := newObjWithSection(true, sec)
	be := &fakeBackend{}

	if err := Apply([]*object.ObjectFile{o}, be); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if len(be.calls) != 0 {
		t.Fatal("a non-allocated section (e.g. debug info) should not be relocated")
	}
}

