package object

import (
	"debug/elf"

	ielf "github.com/hcyang1106/simple-linker/internal/elf"
)

// InputSection is one section contributed by an input object file before
// it is merged into an output section. Grounded on the teacher's
// InputSection/Symbol.GetAddr split, generalized so the layout package can
// assign the two address components (output section base, offset within
// it) without object depending on layout.
type InputSection struct {
	Obj     *ObjectFile
	Content []byte
	Name    string
	Shndx   uint32
	Type    elf.SectionType
	Flags   elf.SectionFlag
	Align   uint64

	// Size is the section's declared size. For SHT_NOBITS (.bss/.tbss)
	// sections Content is always empty, so layout uses Size instead of
	// len(Content) to know how much address/offset space to reserve.
	Size uint64

	// OutputSecAddr and OutputOffset are filled in by internal/layout once
	// this section has been placed; both are zero (and Addr() returns 0)
	// until then.
	OutputSecAddr uint64
	OutputOffset  uint64

	// OutputSecName is the name of the merged output section this input
	// section was routed to by the section merger (spec §4.5).
	OutputSecName string

	// RelShndx is the section index of this section's SHT_RELA relocation
	// table, or 0 if it has none (shndx 0 is always SHN_UNDEF, never a
	// real relocation section).
	RelShndx uint32
	relocs   []ielf.Rela
}

// Relocs returns this section's relocation entries, parsing them from the
// owning object's SHT_RELA section on first use.
func (s *InputSection) Relocs() []ielf.Rela {
	if s.RelShndx == 0 || s.relocs != nil {
		return s.relocs
	}
	s.relocs = s.Obj.relaEntries(s.RelShndx)
	return s.relocs
}

// Addr implements symtab.Section: a defined symbol's runtime address is
// OutputSecAddr+OutputOffset plus the symbol's own value (its offset
// within this input section).
func (s *InputSection) Addr() uint64 {
	return s.OutputSecAddr + s.OutputOffset
}

func (s *InputSection) IsAlloc() bool {
	return s.Flags&elf.SHF_ALLOC != 0
}

func (s *InputSection) IsExec() bool {
	return s.Flags&elf.SHF_EXECINSTR != 0
}

func (s *InputSection) IsWritable() bool {
	return s.Flags&elf.SHF_WRITE != 0
}

func (s *InputSection) IsTBSS() bool {
	return s.Type == elf.SHT_NOBITS && s.Flags&elf.SHF_TLS != 0
}
