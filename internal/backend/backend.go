// Package backend defines the architecture-specific capability set the
// core consults during layout and emission (spec §4.7's TargetBackend),
// and provides one concrete implementation for riscv64.
package backend

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
)

// TargetBackend is the trait the core calls into for everything that
// differs by instruction set: segment flags, section ordering beyond the
// fixed buckets, symbol info fallbacks, and relocation application.
// Concrete backends are selected once at driver construction; no other
// package depends on their concrete type.
type TargetBackend interface {
	BitClass() int
	PageSize() uint64
	Machine() stdelf.Machine

	// GetSegmentFlag turns a section's flags into the PF_* bits its
	// enclosing PT_LOAD should carry; internal/layout calls it whenever a
	// backend is set (falling back to the generic R, +W, +X rule only
	// without one), so a backend may special-case a target section it
	// introduces (.got, .plt).
	GetSegmentFlag(flags stdelf.SectionFlag) uint32

	// GetTargetSectionOrder reports where a backend-introduced section
	// (.got, .plt, .got.plt, ...) belongs relative to the fixed buckets;
	// returns false for any section it doesn't claim ownership of.
	GetTargetSectionOrder(name string) (layoutTargetBucket int, ok bool)

	// ApplyRelocation rewrites the bytes of an input section's relocation
	// target in place, given the symbol it refers to and the addend.
	ApplyRelocation(sec *object.InputSection, relType uint32, offset uint64, sym *symtab.ResolveInfo, addend int64) error

	// DoPreLayout/DoPostLayout are hooks run immediately before and
	// after internal/layout assigns addresses, for backends that need to
	// reserve GOT/PLT entries or patch addresses no generic code knows
	// about.
	DoPreLayout()
	DoPostLayout()
}
