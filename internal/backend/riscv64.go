package backend

import (
	stdelf "debug/elf"

	"github.com/hcyang1106/simple-linker/internal/object"
	"github.com/hcyang1106/simple-linker/internal/symtab"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// RISCV64 is the concrete TargetBackend for the riscv64 ELF ABI, grounded
// on the teacher's and the wider pack's riscv64 relocation-application
// switch statements.
type RISCV64 struct {
	TPAddr uint64 // thread-pointer base, set by DoPostLayout once the TLS segment is placed
}

func NewRISCV64() *RISCV64 { return &RISCV64{} }

func (RISCV64) BitClass() int           { return 64 }
func (RISCV64) PageSize() uint64        { return 0x1000 }
func (RISCV64) Machine() stdelf.Machine { return stdelf.EM_RISCV }

func (RISCV64) GetSegmentFlag(flags stdelf.SectionFlag) uint32 {
	f := uint32(stdelf.PF_R)
	if flags&stdelf.SHF_WRITE != 0 {
		f |= uint32(stdelf.PF_W)
	}
	if flags&stdelf.SHF_EXECINSTR != 0 {
		f |= uint32(stdelf.PF_X)
	}
	return f
}

// GetTargetSectionOrder gives riscv64's backend-owned sections the
// sub-order .got, .got.plt, .plt. internal/layout keeps .got in the RELRO
// bucket regardless and sorts the other two into its target bucket, after
// the .rela.* relocation buckets; returns false for anything not
// backend-owned.
func (RISCV64) GetTargetSectionOrder(name string) (int, bool) {
	switch name {
	case ".got":
		return 0, true
	case ".got.plt":
		return 1, true
	case ".plt":
		return 2, true
	}
	return 0, false
}

func (RISCV64) DoPreLayout()  {}
func (b *RISCV64) DoPostLayout() {}

// ApplyRelocation rewrites one relocation target in an already-placed
// input section, mirroring the pack's ApplyRelocAlloc switch: S is the
// symbol's address, A the addend, P the relocation site's own address.
func (b *RISCV64) ApplyRelocation(sec *object.InputSection, relType uint32, offset uint64, sym *symtab.ResolveInfo, addend int64) error {
	if relType == uint32(stdelf.R_RISCV_NONE) || relType == uint32(stdelf.R_RISCV_RELAX) {
		return nil
	}
	loc := sec.Content[offset:]

	var s uint64
	if sym != nil {
		s = sym.GetAddr()
	}
	a := uint64(addend)
	p := sec.Addr() + offset

	switch stdelf.R_RISCV(relType) {
	case stdelf.R_RISCV_32:
		utils.Write[uint32](loc, uint32(s+a))
	case stdelf.R_RISCV_64:
		utils.Write[uint64](loc, s+a)
	case stdelf.R_RISCV_BRANCH:
		writeBtype(loc, uint32(s+a-p))
	case stdelf.R_RISCV_JAL:
		writeJtype(loc, uint32(s+a-p))
	case stdelf.R_RISCV_CALL, stdelf.R_RISCV_CALL_PLT:
		val := uint32(s + a - p)
		writeUtype(loc, val)
		writeItype(loc[4:], val)
	case stdelf.R_RISCV_PCREL_HI20:
		utils.Write[uint32](loc, uint32(s+a-p))
	case stdelf.R_RISCV_HI20:
		writeUtype(loc, uint32(s+a))
	case stdelf.R_RISCV_LO12_I, stdelf.R_RISCV_LO12_S:
		val := s + a
		if stdelf.R_RISCV(relType) == stdelf.R_RISCV_LO12_I {
			writeItype(loc, uint32(val))
		} else {
			writeStype(loc, uint32(val))
		}
		if utils.SignExtend(val, 11) == val {
			setRs1(loc, 0)
		}
	case stdelf.R_RISCV_TPREL_LO12_I, stdelf.R_RISCV_TPREL_LO12_S:
		val := s + a - b.TPAddr
		if stdelf.R_RISCV(relType) == stdelf.R_RISCV_TPREL_LO12_I {
			writeItype(loc, uint32(val))
		} else {
			writeStype(loc, uint32(val))
		}
		if utils.SignExtend(val, 11) == val {
			setRs1(loc, 4)
		}
	}
	return nil
}

func itype(val uint32) uint32 { return val << 20 }

func stype(val uint32) uint32 {
	return utils.Bits(val, 11, 5)<<25 | utils.Bits(val, 4, 0)<<7
}

func btype(val uint32) uint32 {
	return utils.Bit(val, 12)<<31 | utils.Bits(val, 10, 5)<<25 |
		utils.Bits(val, 4, 1)<<8 | utils.Bit(val, 11)<<7
}

func utype(val uint32) uint32 {
	return (val + 0x800) & 0xffff_f000
}

func jtype(val uint32) uint32 {
	return utils.Bit(val, 20)<<31 | utils.Bits(val, 10, 1)<<21 |
		utils.Bit(val, 11)<<20 | utils.Bits(val, 19, 12)<<12
}

func writeItype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_11111_111_11111_1111111)
	utils.Write[uint32](loc, (utils.ReadAs[uint32](loc)&mask)|itype(val))
}

func writeStype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.ReadAs[uint32](loc)&mask)|stype(val))
}

func writeBtype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.ReadAs[uint32](loc)&mask)|btype(val))
}

func writeUtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.ReadAs[uint32](loc)&mask)|utype(val))
}

func writeJtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.ReadAs[uint32](loc)&mask)|jtype(val))
}

func setRs1(loc []byte, rs1 uint32) {
	utils.Write[uint32](loc, utils.ReadAs[uint32](loc)&0b111111_11111_00000_111_11111_1111111)
	utils.Write[uint32](loc, utils.ReadAs[uint32](loc)|(rs1<<15))
}
