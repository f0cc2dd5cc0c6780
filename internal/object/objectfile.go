package object

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// ObjectFile is a parsed relocatable (ET_REL) input: its section and
// symbol tables, plus the InputSections and ResolveInfo entries derived
// from them. Grounded on the teacher's ObjectFile, extended with the
// liveness/alive-reason bookkeeping spec §4.3's BFS needs.
type ObjectFile struct {
	File *File

	Ehdr    elf.Ehdr
	Shdrs   []elf.Shdr
	Syms    []elf.Sym
	ShStrTab []byte
	SymStrTab []byte
	SymtabShndx []uint32

	SymTabShdr  *elf.Shdr
	FirstGlobal uint32

	InputSections []*InputSection

	// GlobalSyms holds, at index i (i >= FirstGlobal), the pool-owned
	// ResolveInfo this file contributes for Syms[i] — the same pointer
	// every other file sharing that name contributes, after resolution.
	GlobalSyms []*symtab.ResolveInfo
	// LocalSyms holds this file's private ResolveInfo for i < FirstGlobal;
	// these never enter the pool (I2).
	LocalSyms []*symtab.ResolveInfo

	alive  bool
	needed bool

	// InArchive is the path of the archive this object was extracted from
	// ("libfoo.a"), empty for a plain command line object.
	InArchive string
}

func NewObjectFile(f *File, alive bool) *ObjectFile {
	o := &ObjectFile{File: f, alive: alive}
	o.parseHeader()
	return o
}

func (o *ObjectFile) Name() string { return o.File.Name }

func (o *ObjectFile) IsAlive() bool { return o.alive }
func (o *ObjectFile) MarkAlive()    { o.alive = true }

// SetNeeded satisfies symtab.Owner; a regular object is always emitted
// once alive, so this only matters for DynObjFile, but ObjectFile must
// implement the interface to be stored as a ResolveInfo.Owner.
func (o *ObjectFile) SetNeeded() { o.needed = true }

func (o *ObjectFile) parseHeader() {
	content := o.File.Content
	if len(content) < elf.EhdrSize {
		utils.Fatal("object file smaller than ELF header")
	}
	if !elf.CheckMagic(content) {
		utils.Fatal("bad ELF magic: " + o.File.Name)
	}
	utils.Read[elf.Ehdr](content, &o.Ehdr)

	secContent := content[o.Ehdr.ShOff:]
	var first elf.Shdr
	utils.Read[elf.Shdr](secContent, &first)
	o.Shdrs = append(o.Shdrs, first)

	numSecs := uint32(o.Ehdr.ShNum)
	if numSecs == 0 {
		numSecs = uint32(first.Size)
	}
	for i := uint32(1); i < numSecs; i++ {
		secContent = secContent[elf.ShdrSize:]
		var s elf.Shdr
		utils.Read[elf.Shdr](secContent, &s)
		o.Shdrs = append(o.Shdrs, s)
	}

	shStrndx := uint32(o.Ehdr.ShStrndx)
	if shStrndx == uint32(stdelf.SHN_XINDEX) {
		shStrndx = o.Shdrs[0].Link
	}
	o.ShStrTab = o.bytesFromIdx(shStrndx)
}

func (o *ObjectFile) bytesFromShdr(s *elf.Shdr) []byte {
	end := s.Offset + s.Size
	if end > uint64(len(o.File.Content)) {
		utils.Fatal("section exceeds file length in " + o.File.Name)
	}
	return o.File.Content[s.Offset:end]
}

func (o *ObjectFile) bytesFromIdx(idx uint32) []byte {
	if idx >= uint32(len(o.Shdrs)) {
		utils.Fatal("section index out of range in " + o.File.Name)
	}
	return o.bytesFromShdr(&o.Shdrs[idx])
}

func (o *ObjectFile) findShdr(t stdelf.SectionType) *elf.Shdr {
	for i := range o.Shdrs {
		if stdelf.SectionType(o.Shdrs[i].Type) == t {
			return &o.Shdrs[i]
		}
	}
	return nil
}

func (o *ObjectFile) shdrName(s *elf.Shdr) string {
	return elf.ElfGetName(o.ShStrTab, s.Name)
}

// Parse fills in sections and symbols and contributes every global symbol
// to pool, storing the survivor's ResolveInfo in GlobalSyms. Any rule-2
// strong/strong conflict is returned as an error; the caller decides
// whether it is fatal for this link.
func (o *ObjectFile) Parse(pool *symtab.Pool, isDyn bool) error {
	o.parseSymtab()
	o.parseSymtabShndx()
	o.parseInputSections()
	return o.parseSymbols(pool, isDyn)
}

// ParseNames reads just enough (the symbol table) to answer
// UndefinedNames/DefinedNames, without touching the global symbol pool or
// building input sections. The archive-liveness BFS uses this to consider
// a candidate member before it is known to be needed; Parse is called
// again, in full, once the member is confirmed alive.
func (o *ObjectFile) ParseNames() {
	o.parseSymtab()
}

func (o *ObjectFile) parseSymtab() {
	o.SymTabShdr = o.findShdr(stdelf.SHT_SYMTAB)
	if o.SymTabShdr == nil {
		return
	}
	o.FirstGlobal = o.SymTabShdr.Info
	bs := o.bytesFromShdr(o.SymTabShdr)
	n := len(bs) / elf.SymSize
	o.Syms = make([]elf.Sym, n)
	for i := 0; i < n; i++ {
		utils.Read[elf.Sym](bs, &o.Syms[i])
		bs = bs[elf.SymSize:]
	}
	o.SymStrTab = o.bytesFromIdx(o.SymTabShdr.Link)
}

func (o *ObjectFile) parseSymtabShndx() {
	s := o.findShdr(stdelf.SHT_SYMTAB_SHNDX)
	if s == nil {
		return
	}
	o.SymtabShndx = utils.ReadSlice[uint32](o.bytesFromShdr(s), 4)
}

func (o *ObjectFile) parseInputSections() {
	o.InputSections = make([]*InputSection, len(o.Shdrs))
	for i := range o.Shdrs {
		s := &o.Shdrs[i]
		sec := &InputSection{
			Obj:   o,
			Shndx: uint32(i),
			Name:  o.shdrName(s),
			Type:  stdelf.SectionType(s.Type),
			Flags: stdelf.SectionFlag(s.Flags),
			Align: s.AddrAlign,
			Size:  s.Size,
		}
		if s.Type != uint32(stdelf.SHT_NOBITS) && s.Size > 0 {
			sec.Content = o.bytesFromShdr(s)
		}
		if sec.Align == 0 {
			sec.Align = 1
		}
		o.InputSections[i] = sec
	}

	// A SHT_RELA section's Info field names the section it relocates;
	// point that target section back at its relocation table.
	for i := range o.Shdrs {
		s := &o.Shdrs[i]
		if stdelf.SectionType(s.Type) != stdelf.SHT_RELA {
			continue
		}
		if int(s.Info) < len(o.InputSections) {
			o.InputSections[s.Info].RelShndx = uint32(i)
		}
	}
}

// relaEntries reads and unpacks the SHT_RELA section at shndx.
func (o *ObjectFile) relaEntries(shndx uint32) []elf.Rela {
	bs := o.bytesFromIdx(shndx)
	return utils.ReadSlice[elf.Rela](bs, elf.RelaSize)
}

// ResolveInfoAt returns the ResolveInfo a relocation's Sym index refers to,
// whichever of LocalSyms/GlobalSyms it falls into, or nil for the reserved
// null entry.
func (o *ObjectFile) ResolveInfoAt(idx uint32) *symtab.ResolveInfo {
	if idx == 0 || int(idx) >= len(o.Syms) {
		return nil
	}
	if idx < o.FirstGlobal {
		return o.LocalSyms[idx]
	}
	return o.GlobalSyms[idx]
}

func (o *ObjectFile) parseSymbols(pool *symtab.Pool, isDyn bool) error {
	o.GlobalSyms = make([]*symtab.ResolveInfo, len(o.Syms))
	o.LocalSyms = make([]*symtab.ResolveInfo, len(o.Syms))

	for i, esym := range o.Syms {
		if i == 0 {
			continue // reserved null symbol
		}
		name := elf.ElfGetName(o.SymStrTab, esym.Name)

		desc := symtab.Undefined
		if esym.IsCommon() {
			desc = symtab.Common
		} else if !esym.IsUndef() {
			desc = symtab.Define
		}

		binding := symtab.Global
		switch {
		case esym.IsLocal():
			binding = symtab.Local
		case esym.IsWeak():
			binding = symtab.Weak
		}
		if esym.IsAbs() {
			binding = symtab.Absolute
		}

		if uint32(i) < o.FirstGlobal {
			local := &symtab.ResolveInfo{
				Name: name, Desc: desc, Binding: symtab.Local,
				Value: esym.Val, Size: esym.Size, SymIdx: i, Owner: o,
			}
			if !esym.IsAbs() && !esym.IsUndef() {
				shndx := esym.GetShndx(o.SymtabShndx, uint32(i))
				if int(shndx) < len(o.InputSections) {
					local.Section = o.InputSections[shndx]
				}
			}
			o.LocalSyms[i] = local
			continue
		}

		align := uint64(0)
		if desc == symtab.Common {
			align = esym.Val
		}
		sym, _, err := pool.InsertSymbol(name, isDyn, desc, binding, esym.Val, esym.Size, symtab.Default, o)
		if err != nil {
			return err
		}
		if desc == symtab.Common {
			sym.Align = align
		}
		if desc != symtab.Undefined && !esym.IsAbs() && sym.Owner == o {
			shndx := esym.GetShndx(o.SymtabShndx, uint32(i))
			if int(shndx) < len(o.InputSections) {
				sym.Section = o.InputSections[shndx]
			}
		}
		sym.SymIdx = i
		o.GlobalSyms[i] = sym
	}
	return nil
}

// UndefinedNames lists the global names this file references but does not
// define, consulted by the input-tree BFS to decide which archive members
// a still-unresolved name should pull in (spec §4.3).
func (o *ObjectFile) UndefinedNames() []string {
	var out []string
	for i, esym := range o.Syms {
		if uint32(i) < o.FirstGlobal || !esym.IsUndef() {
			continue
		}
		out = append(out, elf.ElfGetName(o.SymStrTab, esym.Name))
	}
	return out
}

// DefinedNames lists the global names this file defines, consulted when
// an archive member is a candidate to satisfy an undefined reference.
func (o *ObjectFile) DefinedNames() []string {
	var out []string
	for i, esym := range o.Syms {
		if uint32(i) < o.FirstGlobal || esym.IsUndef() {
			continue
		}
		out = append(out, elf.ElfGetName(o.SymStrTab, esym.Name))
	}
	return out
}
