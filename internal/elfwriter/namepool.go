// Package elfwriter is the ELF writer's central algorithm: it sizes and
// emits the name pools (.symtab/.strtab/.dynsym/.dynstr), the SVR4
// .hash table, the .dynamic section, and the program headers, then
// copies every section's bytes into one output buffer (spec §4.6).
package elfwriter

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
)

// NamePools holds the sized-but-not-yet-placed .symtab/.strtab and
// .dynsym/.dynstr contents plus the index each symbol was assigned,
// mirroring the two-pass size-then-emit structure the teacher's
// OutputShdrsWriter/OutputEhdrWriter pair uses for every synthetic
// section (size first, so offsets downstream of it are known, then
// emit once the whole layout is final).
type NamePools struct {
	StrTab    []byte // starts with a single NUL
	SymEnts   []SymEnt
	DynStrTab []byte
	DynSyms   []SymEnt

	symIdx map[*symtab.ResolveInfo]uint32
}

// SymEnt is a pending symbol-table entry: the elf.Sym fields that don't
// depend on final section placement, plus the owning ResolveInfo so its
// address can be resolved once layout is frozen.
type SymEnt struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Size  uint64
	Sym   *symtab.ResolveInfo // nil for the reserved index-0 entry
}

func bindingOf(b symtab.Binding) uint8 {
	switch b {
	case symtab.Local:
		return uint8(stdelf.STB_LOCAL)
	case symtab.Weak:
		return uint8(stdelf.STB_WEAK)
	default:
		return uint8(stdelf.STB_GLOBAL)
	}
}

func stInfo(bind uint8, typ uint8) uint8 {
	return bind<<4 | (typ & 0xf)
}

// isDynSym decides dynamic-symbol membership per spec §4.6.1: a symbol
// belongs in .dynsym iff the backend reserved it, or it's an externally
// visible definition of a shared object, or it's a non-local symbol the
// output executable imports from a dynamic object (defined there). A
// regular definition that a dynamic object references is not selected.
func isDynSym(sym *symtab.ResolveInfo, outputType stdelf.Type) bool {
	if sym.Reserved != 0 {
		return true
	}
	if sym.Binding == symtab.Local {
		return false
	}
	if outputType == stdelf.ET_DYN &&
		(sym.Visibility == symtab.Default || sym.Visibility == symtab.Protected) {
		return true
	}
	if outputType == stdelf.ET_EXEC && sym.Desc != symtab.Undefined && sym.Source == symtab.Dynamic {
		return true
	}
	return false
}

// BuildNamePools sizes both name pools: .symtab/.strtab from every local
// symbol of every alive object plus every defined global ResolveInfo the
// pool holds, and .dynsym/.dynstr from the globals isDynSym selects for
// outputType.
func BuildNamePools(objs []*object.ObjectFile, globals []*symtab.ResolveInfo, outputType stdelf.Type) *NamePools {
	np := &NamePools{
		StrTab:    []byte{0},
		DynStrTab: []byte{0},
		SymEnts:   []SymEnt{{}}, // reserved null entry
		DynSyms:   []SymEnt{{}},
		symIdx:    make(map[*symtab.ResolveInfo]uint32),
	}

	for _, o := range objs {
		if !o.IsAlive() {
			continue
		}
		for i, ls := range o.LocalSyms {
			if ls == nil || i == 0 {
				continue
			}
			np.addSymtab(ls)
		}
	}

	for _, g := range globals {
		if g == nil || g.Desc == symtab.Undefined {
			continue
		}
		np.addSymtab(g)
	}

	for _, g := range globals {
		if g == nil {
			continue
		}
		if isDynSym(g, outputType) {
			np.addDynsym(g)
		}
	}

	return np
}

func (np *NamePools) addSymtab(sym *symtab.ResolveInfo) {
	off := uint32(len(np.StrTab))
	np.StrTab = append(np.StrTab, []byte(sym.Name)...)
	np.StrTab = append(np.StrTab, 0)

	shndx := uint16(stdelf.SHN_UNDEF)
	if sym.Desc == symtab.Common {
		shndx = uint16(stdelf.SHN_COMMON)
	} else if sym.Binding == symtab.Absolute {
		shndx = uint16(stdelf.SHN_ABS)
	}

	np.SymEnts = append(np.SymEnts, SymEnt{
		Name:  off,
		Info:  stInfo(bindingOf(sym.Binding), uint8(stdelf.STT_NOTYPE)),
		Shndx: shndx,
		Size:  sym.Size,
		Sym:   sym,
	})
	np.symIdx[sym] = uint32(len(np.SymEnts) - 1)
}

func (np *NamePools) addDynsym(sym *symtab.ResolveInfo) {
	off := uint32(len(np.DynStrTab))
	np.DynStrTab = append(np.DynStrTab, []byte(sym.Name)...)
	np.DynStrTab = append(np.DynStrTab, 0)

	shndx := uint16(stdelf.SHN_UNDEF)
	if sym.Desc != symtab.Undefined && sym.Source == symtab.Regular {
		shndx = 1 // any non-reserved value marks "defined"; exact section index is cosmetic for .dynsym
	}

	sym.DynSymIdx = uint32(len(np.DynSyms))
	np.DynSyms = append(np.DynSyms, SymEnt{
		Name:  off,
		Info:  stInfo(bindingOf(sym.Binding), uint8(stdelf.STT_NOTYPE)),
		Shndx: shndx,
		Size:  sym.Size,
		Sym:   sym,
	})
}

// SymtabIndex returns the .symtab index a global symbol was assigned, or
// 0 (the reserved entry) if it was never added (e.g. still undefined).
func (np *NamePools) SymtabIndex(sym *symtab.ResolveInfo) uint32 {
	return np.symIdx[sym]
}
