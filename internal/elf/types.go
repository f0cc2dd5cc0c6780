// Package elf defines the on-disk ELF64 structures the linker core reads
// and writes. It mirrors debug/elf's constants but keeps its own binary
// layout structs so the writer controls field order and size exactly.
package elf

import "unsafe"

const (
	EhdrSize = int(unsafe.Sizeof(Ehdr{}))
	ShdrSize = int(unsafe.Sizeof(Shdr{}))
	PhdrSize = int(unsafe.Sizeof(Phdr{}))
	SymSize  = int(unsafe.Sizeof(Sym{}))
	RelaSize = int(unsafe.Sizeof(Rela{}))
	AhdrSize = int(unsafe.Sizeof(ArHdr{}))
	DynSize  = int(unsafe.Sizeof(Dyn{}))
)

type Ehdr struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

type Phdr struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	VAddr    uint64
	PAddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

type Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Val   uint64
	Size  uint64
}

type Rela struct {
	Offset uint64
	Type   uint32
	Sym    uint32
	Addend int64
}

// Dyn is one entry of the .dynamic section.
type Dyn struct {
	Tag uint64
	Val uint64
}

type ArHdr struct {
	Name [16]byte
	Date [12]byte
	Uid  [6]byte
	Gid  [6]byte
	Mode [8]byte
	Size [10]byte
	Fmag [2]byte
}
