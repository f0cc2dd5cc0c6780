package elf

import "debug/elf"

const (
	bindLocal  = 0
	bindGlobal = 1
	bindWeak   = 2
)

func (s *Sym) GetShndx(xindex []uint32, idx uint32) uint32 {
	if elf.SectionIndex(s.Shndx) != elf.SHN_XINDEX {
		return uint32(s.Shndx)
	}
	return xindex[idx]
}

func (s *Sym) IsAbs() bool {
	return s.Shndx == uint16(elf.SHN_ABS)
}

func (s *Sym) IsUndef() bool {
	return s.Shndx == uint16(elf.SHN_UNDEF)
}

func (s *Sym) IsCommon() bool {
	return s.Shndx == uint16(elf.SHN_COMMON)
}

func (s *Sym) Bind() uint8 {
	return s.Info >> 4
}

func (s *Sym) IsWeak() bool {
	return s.Bind() == bindWeak
}

func (s *Sym) IsLocal() bool {
	return s.Bind() == bindLocal
}

func ElfGetName(strTab []byte, offset uint32) string {
	end := offset
	for end < uint32(len(strTab)) && strTab[end] != 0 {
		end++
	}
	return string(strTab[offset:end])
}
