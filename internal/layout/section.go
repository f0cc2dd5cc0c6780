package layout

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// Section is one output section: the concatenation, in input order, of
// every input section the Merger routed to this name. Grounded on the
// teacher's OutputSection/OutputWriter pair, flattened to one struct
// since this linker's writer does not need the teacher's virtual-dispatch
// iOutputWriter abstraction (there is exactly one kind of output-section
// writer here, not one per synthetic section).
type Section struct {
	Name  string
	Type  stdelf.SectionType
	Flags stdelf.SectionFlag
	Align uint64

	Addr   uint64
	Offset uint64
	Size   uint64

	Inputs []*object.InputSection

	// Raw holds a synthetic section's already-built byte content
	// (.symtab, .dynamic, .hash, ...); mutually exclusive with Inputs.
	Raw []byte

	// ShStrOff is this name's offset in the emitted .shstrtab, filled in
	// during name-pool sizing (internal/elfwriter).
	ShStrOff uint32
}

// SetRaw installs synthetic content for a section the writer builds
// directly rather than merging from inputs (name pools, .hash, .dynamic).
func (s *Section) SetRaw(data []byte) {
	s.Raw = data
	s.Size = uint64(len(data))
}

func NewSection(name string, typ stdelf.SectionType, flags stdelf.SectionFlag) *Section {
	return &Section{Name: name, Type: typ, Flags: flags, Align: 1}
}

// SelfAddr returns this output section's base address. It does not
// implement symtab.Section; symbol addresses are taken through
// object.InputSection.Addr(), which layers OutputOffset on top of this.
func (s *Section) SelfAddr() uint64 { return s.Addr }

func (s *Section) AddInput(in *object.InputSection) {
	if in.Align > s.Align {
		s.Align = in.Align
	}
	if in.Type == stdelf.SHT_NOBITS || s.Type == stdelf.SHT_NOBITS {
		s.Type = stdelf.SHT_NOBITS
	}
	s.Inputs = append(s.Inputs, in)
}

// AssignOffsets lays out this section's input sections back to back,
// respecting each one's own alignment, and records the resulting total
// size. Addr must already be set by the caller (internal/layout's bucket
// walk) before this runs, since InputSection.Addr() needs it.
func (s *Section) AssignOffsets() {
	offset := uint64(0)
	for _, in := range s.Inputs {
		align := in.Align
		if align == 0 {
			align = 1
		}
		offset = utils.AlignTo(offset, align)
		in.OutputSecAddr = s.Addr
		in.OutputOffset = offset
		in.OutputSecName = s.Name
		if in.Type == stdelf.SHT_NOBITS {
			offset += in.Size
		} else {
			offset += uint64(len(in.Content))
		}
	}
	if len(s.Inputs) > 0 {
		s.Size = offset
	}
}

func (s *Section) IsAlloc() bool  { return s.Flags&stdelf.SHF_ALLOC != 0 }
func (s *Section) IsWrite() bool  { return s.Flags&stdelf.SHF_WRITE != 0 }
func (s *Section) IsExec() bool   { return s.Flags&stdelf.SHF_EXECINSTR != 0 }
func (s *Section) IsTLS() bool    { return s.Flags&stdelf.SHF_TLS != 0 }
func (s *Section) IsNobits() bool { return s.Type == stdelf.SHT_NOBITS }
