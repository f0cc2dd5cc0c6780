package elfwriter

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/internal/layout"
)

// BuildProgramHeaders turns the PT_LOAD segments internal/layout already
// grouped into the final Phdr table, adding PT_PHDR (always), PT_INTERP
// (dynamically linked output only) and PT_DYNAMIC (ditto), in the order
// GNU ld emits them (spec §4.6.3). phdrOffset/phdrSize describe the
// program header table's own placement, needed for its self-referencing
// PT_PHDR entry.
func BuildProgramHeaders(segs []layout.Segment, interp, dynamic *layout.Section, phdrOffset, phdrSize uint64) []elf.Phdr {
	var out []elf.Phdr

	out = append(out, elf.Phdr{
		Type: uint32(stdelf.PT_PHDR), Flags: uint32(stdelf.PF_R),
		Offset: phdrOffset, VAddr: phdrOffset, PAddr: phdrOffset,
		FileSize: phdrSize, MemSize: phdrSize, Align: 8,
	})

	if interp != nil {
		out = append(out, elf.Phdr{
			Type: uint32(stdelf.PT_INTERP), Flags: uint32(stdelf.PF_R),
			Offset: interp.Offset, VAddr: interp.Addr, PAddr: interp.Addr,
			FileSize: interp.Size, MemSize: interp.Size, Align: 1,
		})
	}

	for _, s := range segs {
		out = append(out, elf.Phdr{
			Type: s.Type, Flags: s.Flags,
			Offset: s.Offset, VAddr: s.VAddr, PAddr: s.VAddr,
			FileSize: s.FileSize, MemSize: s.MemSize, Align: s.Align,
		})
	}

	if dynamic != nil {
		out = append(out, elf.Phdr{
			Type: uint32(stdelf.PT_DYNAMIC), Flags: uint32(stdelf.PF_R | stdelf.PF_W),
			Offset: dynamic.Offset, VAddr: dynamic.Addr, PAddr: dynamic.Addr,
			FileSize: dynamic.Size, MemSize: dynamic.Size, Align: dynamic.Align,
		})
	}

	return out
}
