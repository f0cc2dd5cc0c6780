package elfwriter

import (
	stdelf "debug/elf"
	"sort"

	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/internal/layout"
	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// Config carries the output-wide decisions the driver (cmd/ldcore) made
// before invoking the writer: target machine, output ELF type, the entry
// symbol's name, and (for a dynamically linked output) the interpreter
// path.
type Config struct {
	Machine     stdelf.Machine
	OutputType  stdelf.Type
	EntrySymbol string
	Interp      string
	BaseAddr    uint64
}

// Writer assembles the final output image from an already-populated
// Layout and symbol Pool. It is the "central algorithm" spec §4.6
// describes: name-pool sizing and emission, hash construction, .dynamic
// construction, program headers, then one byte-for-byte copy pass.
type Writer struct {
	Layout *layout.Layout
	Pool   *symtab.Pool
	Objs   []*object.ObjectFile
	Needed []string // SONAMEs of DynObj inputs that survived --as-needed

	Config Config

	// PostLayout runs once every section has its final address but before
	// bytes are copied into the output buffer — cmd/ldcore hooks
	// internal/reloc.Apply in here, since relocation targets need final
	// addresses and the writer itself has no backend to apply them with.
	PostLayout func() error

	np *NamePools
}

func New(l *layout.Layout, pool *symtab.Pool, objs []*object.ObjectFile, needed []string, cfg Config) *Writer {
	return &Writer{Layout: l, Pool: pool, Objs: objs, Needed: needed, Config: cfg}
}

func sortedGlobals(pool *symtab.Pool) []*symtab.ResolveInfo {
	all := pool.All()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Link runs name-pool sizing, registers every synthetic section with the
// layout, assigns final addresses, re-emits the pieces whose bytes depend
// on those addresses, builds the program headers, and copies everything
// into one output buffer.
func (w *Writer) Link() ([]byte, error) {
	globals := sortedGlobals(w.Pool)
	w.np = BuildNamePools(w.Objs, globals, w.Config.OutputType)

	isDynamic := len(w.Needed) > 0 || w.Config.Interp != "" || w.Config.OutputType == stdelf.ET_DYN

	strtabSec := w.Layout.GetOrCreate(".strtab", stdelf.SHT_STRTAB, 0)
	strtabSec.SetRaw(w.np.StrTab)

	symtabSec := w.Layout.GetOrCreate(".symtab", stdelf.SHT_SYMTAB, 0)
	symtabSec.SetRaw(make([]byte, len(w.np.SymEnts)*elf.SymSize))

	var interpSec, dynstrSec, dynsymSec, hashSec, dynamicSec *layout.Section

	if isDynamic {
		interpSec = w.Layout.GetOrCreate(".interp", stdelf.SHT_PROGBITS, stdelf.SHF_ALLOC)
		interpSec.SetRaw(append([]byte(w.Config.Interp), 0))

		dynstrSec = w.Layout.GetOrCreate(".dynstr", stdelf.SHT_STRTAB, stdelf.SHF_ALLOC)
		dynstrSec.SetRaw(w.np.DynStrTab)

		dynsymSec = w.Layout.GetOrCreate(".dynsym", stdelf.SHT_DYNSYM, stdelf.SHF_ALLOC)
		dynsymSec.SetRaw(make([]byte, len(w.np.DynSyms)*elf.SymSize))

		hashSec = w.Layout.GetOrCreate(".hash", stdelf.SHT_HASH, stdelf.SHF_ALLOC)
		hashWords := BuildHash(w.np.DynSyms, func(e *SymEnt) string {
			return elf.ElfGetName(w.np.DynStrTab, e.Name)
		})
		hashBytes := make([]byte, len(hashWords)*4)
		for i, v := range hashWords {
			utils.Write[uint32](hashBytes[i*4:], v)
		}
		hashSec.SetRaw(hashBytes)

		needCount := len(w.Needed)
		entryCount := 5 + needCount + 1
		dynamicSec = w.Layout.GetOrCreate(".dynamic", stdelf.SHT_DYNAMIC, stdelf.SHF_ALLOC|stdelf.SHF_WRITE)
		dynamicSec.SetRaw(make([]byte, entryCount*elf.DynSize))
	}

	shstrtabSec := w.Layout.GetOrCreate(".shstrtab", stdelf.SHT_STRTAB, 0)
	shstrBytes := []byte{0}
	for _, s := range w.Layout.Sections {
		s.ShStrOff = uint32(len(shstrBytes))
		shstrBytes = append(shstrBytes, []byte(s.Name)...)
		shstrBytes = append(shstrBytes, 0)
	}
	shstrtabSec.ShStrOff = uint32(len(shstrBytes))
	shstrBytes = append(shstrBytes, []byte(".shstrtab")...)
	shstrBytes = append(shstrBytes, 0)
	shstrtabSec.SetRaw(shstrBytes)

	w.Layout.Order()

	// Reserve file/address space for the ELF header and program header
	// table themselves before addresses are assigned: CountLoadSegments
	// replays the same grouping rule AssignAddresses will use, with a
	// synthetic R-only ".headers" section prepended to see whether it
	// would start its own segment or merge into the first real one.
	headerPlaceholder := layout.NewSection(".headers", stdelf.SHT_PROGBITS, stdelf.SHF_ALLOC)
	estimate := append([]*layout.Section{headerPlaceholder}, w.Layout.Sections...)
	loadSegs := layout.CountLoadSegments(estimate, w.Layout.TB)

	phdrCount := 1 + loadSegs // PT_PHDR + every PT_LOAD
	if interpSec != nil {
		phdrCount++
	}
	if dynamicSec != nil {
		phdrCount++
	}
	phdrSize := uint64(phdrCount) * uint64(elf.PhdrSize)
	headerReserve := uint64(elf.EhdrSize) + phdrSize

	headersSec := w.Layout.GetOrCreate(".headers", stdelf.SHT_PROGBITS, stdelf.SHF_ALLOC)
	headersSec.Align = 8
	headersSec.SetRaw(make([]byte, headerReserve))

	w.Layout.Order()
	w.Layout.AssignAddresses(w.Config.BaseAddr)

	if w.PostLayout != nil {
		if err := w.PostLayout(); err != nil {
			return nil, err
		}
	}

	finalSymtab := make([]byte, len(w.np.SymEnts)*elf.SymSize)
	for i, e := range w.np.SymEnts {
		var val uint64
		if e.Sym != nil {
			val = e.Sym.GetAddr()
		}
		utils.Write[elf.Sym](finalSymtab[i*elf.SymSize:], elf.Sym{
			Name: e.Name, Info: e.Info, Other: e.Other, Shndx: e.Shndx, Val: val, Size: e.Size,
		})
	}
	symtabSec.SetRaw(finalSymtab)

	if isDynamic {
		finalDynsym := make([]byte, len(w.np.DynSyms)*elf.SymSize)
		for i, e := range w.np.DynSyms {
			var val uint64
			if e.Sym != nil {
				val = e.Sym.GetAddr()
			}
			utils.Write[elf.Sym](finalDynsym[i*elf.SymSize:], elf.Sym{
				Name: e.Name, Info: e.Info, Other: e.Other, Shndx: e.Shndx, Val: val, Size: e.Size,
			})
		}
		dynsymSec.SetRaw(finalDynsym)

		var neededOffs []uint32
		dynstrExtra := []byte(nil)
		base := uint32(len(w.np.DynStrTab))
		for _, n := range w.Needed {
			neededOffs = append(neededOffs, base+uint32(len(dynstrExtra)))
			dynstrExtra = append(dynstrExtra, []byte(n)...)
			dynstrExtra = append(dynstrExtra, 0)
		}
		if len(dynstrExtra) > 0 {
			dynstrSec.SetRaw(append(append([]byte{}, w.np.DynStrTab...), dynstrExtra...))
		}

		dl := DynamicLayout{
			HashAddr: hashSec.Addr, StrTabAddr: dynstrSec.Addr, SymTabAddr: dynsymSec.Addr,
			StrSz: dynstrSec.Size, SymEnt: uint64(elf.SymSize), Needed: neededOffs,
		}
		entries := BuildDynamic(dl)
		dynBytes := make([]byte, len(entries)*elf.DynSize)
		for i, d := range entries {
			utils.Write[elf.Dyn](dynBytes[i*elf.DynSize:], d)
		}
		dynamicSec.SetRaw(dynBytes)
	}

	return w.emit(interpSec, dynamicSec, headersSec)
}

func (w *Writer) entryAddr() uint64 {
	sym := w.Pool.Get(w.Config.EntrySymbol)
	if sym == nil {
		return 0
	}
	return sym.GetAddr()
}

// emit lays out ehdr/phdr/shdr tables around the already-addressed
// sections and copies every byte into the final image. headersSec is the
// placeholder AssignAddresses placed at file offset 0 sized to exactly
// hold the ELF header and program header table built here.
func (w *Writer) emit(interpSec, dynamicSec, headersSec *layout.Section) ([]byte, error) {
	phdrOffset := headersSec.Offset + uint64(elf.EhdrSize)
	phdrCount := headersSec.Size - uint64(elf.EhdrSize)
	phdrCount /= uint64(elf.PhdrSize)

	shdrOffset := utils.AlignTo(w.Layout.FileSize(), 8)
	total := shdrOffset + uint64(len(w.Layout.Sections)+1)*uint64(elf.ShdrSize)

	buf := make([]byte, total)

	for _, s := range w.Layout.Sections {
		if s.IsNobits() {
			continue
		}
		dst := buf[s.Offset:]
		if s.Raw != nil {
			copy(dst, s.Raw)
			continue
		}
		off := uint64(0)
		for _, in := range s.Inputs {
			copy(dst[off:], in.Content)
			off = in.OutputOffset + uint64(len(in.Content))
		}
	}

	phdrs := BuildProgramHeaders(w.Layout.Segments, interpSec, dynamicSec, phdrOffset, phdrCount*uint64(elf.PhdrSize))
	phdrBytes := buf[phdrOffset:]
	for i, p := range phdrs {
		utils.Write[elf.Phdr](phdrBytes[i*elf.PhdrSize:], p)
	}

	shdrBytes := buf[shdrOffset:]
	utils.Write[elf.Shdr](shdrBytes, elf.Shdr{}) // reserved SHN_UNDEF entry
	for i, s := range w.Layout.Sections {
		idx := i + 1
		shdr := elf.Shdr{
			Name:      s.ShStrOff,
			Type:      uint32(s.Type),
			Flags:     uint64(s.Flags),
			Addr:      s.Addr,
			Offset:    s.Offset,
			Size:      s.Size,
			AddrAlign: s.Align,
		}
		switch s.Name {
		case ".symtab":
			shdr.EntSize = uint64(elf.SymSize)
		case ".dynsym":
			shdr.EntSize = uint64(elf.SymSize)
		case ".dynamic":
			shdr.EntSize = uint64(elf.DynSize)
		}
		utils.Write[elf.Shdr](shdrBytes[idx*elf.ShdrSize:], shdr)
	}

	var ehdr elf.Ehdr
	elf.WriteMagic(ehdr.Ident[:])
	ehdr.Ident[stdelf.EI_CLASS] = uint8(stdelf.ELFCLASS64)
	ehdr.Ident[stdelf.EI_DATA] = uint8(stdelf.ELFDATA2LSB)
	ehdr.Ident[stdelf.EI_VERSION] = uint8(stdelf.EV_CURRENT)
	ehdr.Type = uint16(w.Config.OutputType)
	ehdr.Machine = uint16(w.Config.Machine)
	ehdr.Version = uint32(stdelf.EV_CURRENT)
	ehdr.Entry = w.entryAddr()
	ehdr.PhOff = phdrOffset
	ehdr.ShOff = shdrOffset
	ehdr.EhSize = uint16(elf.EhdrSize)
	ehdr.PhEntSize = uint16(elf.PhdrSize)
	ehdr.PhNum = uint16(len(phdrs))
	ehdr.ShEntSize = uint16(elf.ShdrSize)
	ehdr.ShNum = uint16(len(w.Layout.Sections) + 1)

	utils.Write[elf.Ehdr](buf, ehdr)

	return buf, nil
}
