package layout

import (
	stdelf "debug/elf"
	"sort"

	"github.com/hcyang1106/simple-linker/internal/backend"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// Bucket is the fixed output-section ordering spec §4.6.3 mandates.
// Sections are placed in increasing Bucket order; within a bucket,
// insertion order (first input that contributed to it) is preserved.
type Bucket int

const (
	BucketNull Bucket = iota
	BucketInterp
	BucketText
	BucketRO
	BucketRelro
	BucketData
	BucketBSS
	BucketNamepool
	BucketRelPlt
	BucketRelocation
	BucketTarget
	BucketUndefined
)

const PageSize = 0x1000

// Layout owns every merged Section, in the bucket order they will be
// emitted, and assigns each one's virtual address and file offset.
type Layout struct {
	Sections []*Section
	byName   map[string]*Section

	// Segments is filled in by AssignAddresses, one per contiguous run of
	// allocated sections sharing the same write bit; each segment's flags
	// are the union of its sections' PF_* bits.
	Segments []Segment
	TLSAddr  uint64

	// TB is consulted for segment flags and for ordering any
	// backend-introduced section (.got, .got.plt, .plt, ...) that the
	// fixed bucket rules below don't otherwise name; nil is fine (the
	// generic R/+W/+X rule applies, and no section claims backend
	// ownership), useful for tests that don't care about a target arch.
	TB backend.TargetBackend
}

// Segment mirrors one PT_LOAD/PT_TLS program header's extent before the
// writer turns it into bytes (spec §4.6.3's segment-splitting rule:
// split whenever the write bit flips).
type Segment struct {
	Type   uint32 // PT_LOAD, PT_TLS, ...
	Flags  uint32 // PF_R|PF_W|PF_X
	VAddr  uint64
	Offset uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

func NewLayout(tb backend.TargetBackend) *Layout {
	return &Layout{byName: make(map[string]*Section), TB: tb}
}

// GetOrCreate returns the Section for name, creating it with typ/flags
// the first time it's seen; later calls for the same name keep the
// original type/flags and only widen Align via AddInput.
func (l *Layout) GetOrCreate(name string, typ stdelf.SectionType, flags stdelf.SectionFlag) *Section {
	if s, ok := l.byName[name]; ok {
		return s
	}
	s := NewSection(name, typ, flags)
	l.byName[name] = s
	l.Sections = append(l.Sections, s)
	return s
}

// bucketOf assigns a section to its fixed bucket. .data.rel.ro/.got are
// always RELRO regardless of what tb reports, since that's a property of
// being a post-relocation-readonly GOT, not an architecture choice;
// anything else tb claims ownership of (.got.plt, .plt, and whatever
// future backend introduces) sorts into BucketTarget.
func bucketOf(s *Section, tb backend.TargetBackend) Bucket {
	switch s.Name {
	case ".headers":
		return BucketNull
	case ".interp":
		return BucketInterp
	case ".symtab", ".strtab", ".dynsym", ".dynstr", ".hash", ".dynamic", ".shstrtab":
		return BucketNamepool
	case ".rela.plt":
		return BucketRelPlt
	case ".data.rel.ro", ".got":
		return BucketRelro
	}
	if tb != nil {
		if _, ok := tb.GetTargetSectionOrder(s.Name); ok {
			return BucketTarget
		}
	}
	if len(s.Name) >= 5 && s.Name[:5] == ".rela" {
		return BucketRelocation
	}
	if !s.IsAlloc() {
		return BucketUndefined
	}
	if s.IsExec() {
		return BucketText
	}
	if s.IsNobits() {
		return BucketBSS
	}
	if s.IsWrite() {
		return BucketData
	}
	return BucketRO
}

// Order sorts Sections into the fixed bucket sequence, stable within a
// bucket so input/insertion order survives (spec §4.6.3); within
// BucketTarget, sections tb claims ownership of sort by its reported
// ordinal instead.
func (l *Layout) Order() {
	order := func(s *Section) (Bucket, int) {
		b := bucketOf(s, l.TB)
		if b == BucketTarget && l.TB != nil {
			if ord, ok := l.TB.GetTargetSectionOrder(s.Name); ok {
				return b, ord
			}
		}
		return b, 0
	}
	sort.SliceStable(l.Sections, func(i, j int) bool {
		bi, oi := order(l.Sections[i])
		bj, oj := order(l.Sections[j])
		if bi != bj {
			return bi < bj
		}
		return oi < oj
	})
}

// CountLoadSegments replicates AssignAddresses' grouping decision without
// assigning any addresses, so the writer can size the program header
// table (and thus reserve file space for ehdr+phdrs) before addresses can
// be handed out. sections must already be in bucket order.
func CountLoadSegments(sections []*Section, tb backend.TargetBackend) int {
	count := 0
	first := true
	var lastWrite bool
	for _, s := range sections {
		if !s.IsAlloc() {
			continue
		}
		if s.IsNobits() && s.IsTLS() {
			continue
		}
		w := s.IsWrite()
		if first || w != lastWrite {
			count++
			lastWrite = w
			first = false
		}
	}
	return count
}

// segFlags turns a section's SHF_* flags into PT_LOAD PF_* bits, deferring
// to tb.GetSegmentFlag when a backend is set (tb may special-case a
// target section it introduces); falls back to the generic R,+W,+X rule
// when tb is nil. This is the segment's stored permission, not the PT_LOAD
// split test (see AssignAddresses): a segment can mix R and RX sections.
func segFlags(s *Section, tb backend.TargetBackend) uint32 {
	if tb != nil {
		return tb.GetSegmentFlag(s.Flags)
	}
	var f uint32
	f |= uint32(stdelf.PF_R)
	if s.IsWrite() {
		f |= uint32(stdelf.PF_W)
	}
	if s.IsExec() {
		f |= uint32(stdelf.PF_X)
	}
	return f
}

// AssignAddresses walks the ordered sections once, handing out virtual
// addresses and file offsets, and groups consecutive allocated sections
// into PT_LOAD segments that split whenever the write bit flips; a TBSS
// section is skipped without ending the current segment (grounded on the teacher's OutputPhdrsWriter.createPhdrs
// define/push loop; spec §4.6.3 point 3 makes the split test the write bit
// alone, so an RX section and a following R-only section share a segment).
func (l *Layout) AssignAddresses(baseAddr uint64) {
	vaddr := baseAddr
	foff := uint64(0)

	var cur *Segment
	var curWrite bool
	flush := func() {
		if cur != nil {
			l.Segments = append(l.Segments, *cur)
			cur = nil
		}
	}

	for _, s := range l.Sections {
		if !s.IsAlloc() {
			continue
		}
		vaddr = utils.AlignTo(vaddr, s.Align)
		if s.IsNobits() && s.Flags&stdelf.SHF_TLS != 0 {
			// TBSS does not consume file offset or segment space in the
			// ordinary sense; it only gets an address here and is left
			// out of PT_LOAD accounting. No PT_TLS segment is built for it.
			s.Addr = vaddr
			vaddr += s.Size
			continue
		}

		flags := segFlags(s, l.TB)
		write := s.IsWrite()
		needNew := cur == nil || write != curWrite
		if needNew {
			flush()
			foff = utils.AlignTo(foff, PageSize)
			vaddr = utils.AlignTo(vaddr, PageSize)
			cur = &Segment{Type: uint32(stdelf.PT_LOAD), Flags: flags, VAddr: vaddr, Offset: foff, Align: PageSize}
			curWrite = write
		} else {
			cur.Flags |= flags
		}

		s.Addr = vaddr
		s.Offset = foff
		s.AssignOffsets()

		if s.IsNobits() {
			cur.MemSize = (vaddr + s.Size) - cur.VAddr
		} else {
			foff += s.Size
			vaddr += s.Size
			cur.FileSize = (foff) - cur.Offset
			cur.MemSize = cur.FileSize
		}
	}
	flush()

	// Non-allocated sections (debug-ish / symbol & string tables that
	// carry no SHF_ALLOC) are packed after every loaded segment, file
	// offset only, no virtual address.
	for _, s := range l.Sections {
		if s.IsAlloc() {
			continue
		}
		foff = utils.AlignTo(foff, s.Align)
		s.Addr = 0
		s.Offset = foff
		s.AssignOffsets()
		foff += s.Size
	}
}

// FileSize returns the highest file offset any section extends to, i.e.
// the size of the final output image before header tables are accounted
// for by the writer.
func (l *Layout) FileSize() uint64 {
	var max uint64
	for _, s := range l.Sections {
		if s.IsNobits() {
			continue
		}
		end := s.Offset + s.Size
		if end > max {
			max = end
		}
	}
	return max
}
