package object

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// DynObjFile is a parsed ET_DYN input: only its dynamic symbol table and
// SONAME matter to the linker, since its code/data sections are never
// copied into the output (spec §3's DynObj kind). Grounded the same way
// as ObjectFile's section-header walk, reading .dynsym/.dynstr/.dynamic
// instead of .symtab/.strtab.
type DynObjFile struct {
	File *File

	Ehdr  elf.Ehdr
	Shdrs []elf.Shdr

	SoName string

	DynSyms   []elf.Sym
	DynStrTab []byte

	needed bool // true once --as-needed decided this DSO is actually used
	asNeeded bool
}

func NewDynObjFile(f *File, asNeeded bool) *DynObjFile {
	d := &DynObjFile{File: f, asNeeded: asNeeded}
	d.parse()
	return d
}

func (d *DynObjFile) Name() string { return d.File.Name }

// SetNeeded is called by internal/resolve when this DSO turns out to
// define a symbol the link actually uses.
func (d *DynObjFile) SetNeeded() { d.needed = true }

// Needed reports whether this DSO belongs in DT_NEEDED: always true
// unless it was linked with --as-needed and never actually resolved
// anything (spec §4.3's --as-needed rule).
func (d *DynObjFile) Needed() bool {
	if !d.asNeeded {
		return true
	}
	return d.needed
}

func (d *DynObjFile) parse() {
	content := d.File.Content
	if len(content) < elf.EhdrSize || !elf.CheckMagic(content) {
		utils.Fatal("bad ELF magic: " + d.File.Name)
	}
	utils.Read[elf.Ehdr](content, &d.Ehdr)

	secContent := content[d.Ehdr.ShOff:]
	var first elf.Shdr
	utils.Read[elf.Shdr](secContent, &first)
	d.Shdrs = append(d.Shdrs, first)
	numSecs := uint32(d.Ehdr.ShNum)
	if numSecs == 0 {
		numSecs = uint32(first.Size)
	}
	for i := uint32(1); i < numSecs; i++ {
		secContent = secContent[elf.ShdrSize:]
		var s elf.Shdr
		utils.Read[elf.Shdr](secContent, &s)
		d.Shdrs = append(d.Shdrs, s)
	}

	dynsymShdr := d.findShdr(stdelf.SHT_DYNSYM)
	if dynsymShdr == nil {
		d.SoName = d.File.Name
		return
	}
	bs := d.bytesFromShdr(dynsymShdr)
	n := len(bs) / elf.SymSize
	d.DynSyms = make([]elf.Sym, n)
	for i := 0; i < n; i++ {
		utils.Read[elf.Sym](bs, &d.DynSyms[i])
		bs = bs[elf.SymSize:]
	}
	d.DynStrTab = d.bytesFromIdx(dynsymShdr.Link)

	d.SoName = d.readSoName()
	if d.SoName == "" {
		d.SoName = d.File.Name
	}
}

// readSoName scans .dynamic for DT_SONAME; absent a dynamic string table
// entry this falls back to the input filename, matching GNU ld.
func (d *DynObjFile) readSoName() string {
	dynShdr := d.findShdr(stdelf.SHT_DYNAMIC)
	if dynShdr == nil {
		return ""
	}
	strShdr := &d.Shdrs[dynShdr.Link]
	dynStrTab := d.bytesFromShdr(strShdr)

	bs := d.bytesFromShdr(dynShdr)
	n := len(bs) / elf.DynSize
	for i := 0; i < n; i++ {
		var dyn elf.Dyn
		utils.Read[elf.Dyn](bs, &dyn)
		bs = bs[elf.DynSize:]
		if stdelf.DynTag(dyn.Tag) == stdelf.DT_SONAME {
			return elf.ElfGetName(dynStrTab, uint32(dyn.Val))
		}
	}
	return ""
}

func (d *DynObjFile) findShdr(t stdelf.SectionType) *elf.Shdr {
	for i := range d.Shdrs {
		if stdelf.SectionType(d.Shdrs[i].Type) == t {
			return &d.Shdrs[i]
		}
	}
	return nil
}

func (d *DynObjFile) bytesFromShdr(s *elf.Shdr) []byte {
	end := s.Offset + s.Size
	if end > uint64(len(d.File.Content)) {
		utils.Fatal("section exceeds file length in " + d.File.Name)
	}
	return d.File.Content[s.Offset:end]
}

func (d *DynObjFile) bytesFromIdx(idx uint32) []byte {
	if idx >= uint32(len(d.Shdrs)) {
		utils.Fatal("section index out of range in " + d.File.Name)
	}
	return d.bytesFromShdr(&d.Shdrs[idx])
}

// UndefinedNames implements inputtree.LDFile; a shared object can itself
// reference symbols it expects another input to define (spec §3).
func (d *DynObjFile) UndefinedNames() []string {
	var out []string
	for i, esym := range d.DynSyms {
		if i == 0 || esym.IsLocal() || !esym.IsUndef() {
			continue
		}
		out = append(out, elf.ElfGetName(d.DynStrTab, esym.Name))
	}
	return out
}

// DefinedNames implements inputtree.LDFile.
func (d *DynObjFile) DefinedNames() []string {
	var out []string
	for i, esym := range d.DynSyms {
		if i == 0 || esym.IsLocal() || esym.IsUndef() {
			continue
		}
		out = append(out, elf.ElfGetName(d.DynStrTab, esym.Name))
	}
	return out
}

// ParseSymbols contributes every defined/undefined dynamic symbol to pool
// as a Dynamic-source resolution candidate (spec §4.2 rule 4).
func (d *DynObjFile) ParseSymbols(pool *symtab.Pool) error {
	for i, esym := range d.DynSyms {
		if i == 0 || esym.IsLocal() {
			continue
		}
		name := elf.ElfGetName(d.DynStrTab, esym.Name)
		desc := symtab.Undefined
		if !esym.IsUndef() {
			desc = symtab.Define
		}
		binding := symtab.Global
		if esym.IsWeak() {
			binding = symtab.Weak
		}
		_, _, err := pool.InsertSymbol(name, true, desc, binding, esym.Val, esym.Size, symtab.Default, d)
		if err != nil {
			return err
		}
	}
	return nil
}
