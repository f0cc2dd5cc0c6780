// Command ldcore links relocatable objects, static archives, and shared
// objects into one ELF64 executable or shared object for riscv64,
// replacing the teacher's incomplete main() (which parses nothing past a
// stub Context and never writes an output file) with the full pipeline
// SPEC_FULL.md describes: input-graph construction and archive-liveness
// BFS, symbol resolution, section merging and layout, relocation
// application, and ELF emission.
package main

import (
	stdelf "debug/elf"
	"fmt"
	"os"

	"github.com/hcyang1106/simple-linker/internal/archive"
	"github.com/hcyang1106/simple-linker/internal/backend"
	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/internal/elfwriter"
	"github.com/hcyang1106/simple-linker/internal/inputtree"
	"github.com/hcyang1106/simple-linker/internal/layout"
	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/reloc"
	"github.com/hcyang1106/simple-linker/internal/resolve"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// defaultBaseAddr is the image base ld.lld/GNU ld default for a riscv64
// non-PIE executable.
const defaultBaseAddr = 0x10000

func main() {
	cfg := ParseArgs(os.Args[1:])
	if len(cfg.Files) == 0 {
		utils.Fatal("no input files")
	}

	attrFactory := inputtree.NewFactory()
	tree := inputtree.NewTree()

	for _, f := range cfg.Files {
		switch f.Kind {
		case argGroupBegin:
			tree.BeginGroup()
		case argGroupEnd:
			tree.EndGroup()
		case argFile:
			addInput(tree, attrFactory, cfg, f)
		}
	}

	live, err := tree.Resolve(parseMember)
	utils.MustNo(err)

	pool := symtab.NewPool(resolve.New())
	var objs []*object.ObjectFile

	for _, f := range live {
		switch v := f.(type) {
		case *object.ObjectFile:
			v.MarkAlive()
			if err := v.Parse(pool, false); err != nil {
				utils.Fatal(err)
			}
			objs = append(objs, v)
		case *object.DynObjFile:
			if err := v.ParseSymbols(pool); err != nil {
				utils.Fatal(err)
			}
		}
	}

	var neededSonames []string
	for _, f := range live {
		if d, ok := f.(*object.DynObjFile); ok && d.Needed() {
			neededSonames = append(neededSonames, d.SoName)
		}
	}

	tb := backend.NewRISCV64()
	lay := layout.NewLayout(tb)
	merger := layout.NewMerger()
	for _, o := range objs {
		for _, sec := range o.InputSections {
			if !routable(sec) {
				continue
			}
			outName := merger.Map(sec.Name)
			outSec := lay.GetOrCreate(outName, stdelf.SectionType(sec.Type), stdelf.SectionFlag(sec.Flags))
			outSec.AddInput(sec)
		}
	}

	isDynamic := len(neededSonames) > 0 || cfg.Shared

	outputType := stdelf.ET_EXEC
	if cfg.Shared {
		outputType = stdelf.ET_DYN
	}

	interp := ""
	if isDynamic && !cfg.Shared {
		interp = cfg.Interp
	}

	w := elfwriter.New(lay, pool, objs, neededSonames, elfwriter.Config{
		Machine:     tb.Machine(),
		OutputType:  outputType,
		EntrySymbol: cfg.EntrySymbol,
		Interp:      interp,
		BaseAddr:    defaultBaseAddr,
	})
	w.PostLayout = func() error {
		tb.DoPostLayout()
		return reloc.Apply(objs, tb)
	}

	tb.DoPreLayout()
	buf, err := w.Link()
	if err != nil {
		utils.Fatal(err)
	}
	utils.MustNo(os.WriteFile(cfg.Output, buf, 0755))
	fmt.Println(cfg.Output)
}

// routable reports whether an input section should be merged into an
// output section at all: the reserved null entry, relocation tables (only
// internal/reloc reads those, they are never copied verbatim), and the
// input file's own symbol/string tables (the writer builds its own) are
// excluded.
func routable(sec *object.InputSection) bool {
	if sec.Shndx == 0 || sec.Name == "" {
		return false
	}
	switch sec.Type {
	case stdelf.SHT_RELA, stdelf.SHT_REL, stdelf.SHT_SYMTAB, stdelf.SHT_STRTAB, stdelf.SHT_SYMTAB_SHNDX, stdelf.SHT_GROUP:
		return false
	}
	return true
}

// addInput resolves f to a file path (searching -L dirs for a bare
// -lname), classifies its content, and registers it with tree.
func addInput(tree *inputtree.Tree, factory *inputtree.Factory, cfg *config, f fileArg) {
	path := f.Path
	if f.LibName != "" {
		path = resolveLib(f.LibName, cfg.SearchDirs, f.Attr.Static || cfg.Static)
	}

	file := object.NewFile(path)
	attr := factory.Intern(f.Attr)

	switch {
	case elf.CheckArMagic(file.Content):
		members := archive.Split(file.Content)
		entries := make([]inputtree.ArchiveEntry, len(members))
		for i, m := range members {
			entries[i] = inputtree.ArchiveEntry{Name: m.Name, Content: m.Content}
		}
		arc := &inputtree.Archive{Entries: entries, Parsed: make([]inputtree.LDFile, len(entries))}
		in := &inputtree.Input{Path: path, Attr: attr, Kind: inputtree.KindArchive}
		tree.AddArchive(in, arc)

	case elf.CheckMagic(file.Content):
		var etype uint16
		utils.Read[uint16](file.Content[16:], &etype)
		switch stdelf.Type(etype) {
		case stdelf.ET_REL:
			obj := object.NewObjectFile(file, true)
			obj.ParseNames()
			tree.AddInput(&inputtree.Input{Path: path, Attr: attr, Kind: inputtree.KindObject, File: obj, Alive: true})
		case stdelf.ET_DYN:
			dyn := object.NewDynObjFile(file, attr.AsNeeded)
			tree.AddInput(&inputtree.Input{Path: path, Attr: attr, Kind: inputtree.KindDynObj, File: dyn, Alive: true})
		default:
			utils.Fatal("unsupported ELF type in " + path)
		}

	default:
		utils.Fatal("unrecognized file type: " + path)
	}
}

// parseMember turns one archive member's raw bytes into an ObjectFile
// with just its symbol table read, for internal/inputtree's liveness BFS
// to consult before the member is known to be needed.
func parseMember(in *inputtree.Input, entry inputtree.ArchiveEntry) (inputtree.LDFile, error) {
	f := object.NewFileFromBytes(in.Path+"("+entry.Name+")", entry.Content)
	obj := object.NewObjectFile(f, false)
	obj.InArchive = in.Path
	obj.ParseNames()
	return obj, nil
}
