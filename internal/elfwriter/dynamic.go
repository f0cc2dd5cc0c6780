package elfwriter

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/elf"
)

// DynamicLayout carries the addresses BuildDynamic needs; all are final
// virtual addresses, computed after internal/layout has placed every
// section.
type DynamicLayout struct {
	HashAddr   uint64
	StrTabAddr uint64
	SymTabAddr uint64
	StrSz      uint64
	SymEnt     uint64
	SoNameOff  uint32 // 0 if this output has no SONAME of its own
	Needed     []uint32
}

// BuildDynamic returns the .dynamic entries in the conventional GNU ld
// order: hash/string/symbol table descriptors first, then SONAME, then
// one DT_NEEDED per needed shared object, terminated by DT_NULL
// (spec §4.6.2).
func BuildDynamic(dl DynamicLayout) []elf.Dyn {
	var out []elf.Dyn
	push := func(tag stdelf.DynTag, val uint64) {
		out = append(out, elf.Dyn{Tag: uint64(tag), Val: val})
	}

	push(stdelf.DT_HASH, dl.HashAddr)
	push(stdelf.DT_STRTAB, dl.StrTabAddr)
	push(stdelf.DT_SYMTAB, dl.SymTabAddr)
	push(stdelf.DT_STRSZ, dl.StrSz)
	push(stdelf.DT_SYMENT, dl.SymEnt)
	if dl.SoNameOff != 0 {
		push(stdelf.DT_SONAME, uint64(dl.SoNameOff))
	}
	for _, off := range dl.Needed {
		push(stdelf.DT_NEEDED, uint64(off))
	}
	push(stdelf.DT_NULL, 0)
	return out
}
