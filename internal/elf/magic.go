package elf

import "bytes"

var magic = []byte("\177ELF")

// ArMagic is the 8-byte signature every SysV/GNU archive begins with.
const ArMagic = "!<arch>\n"

func CheckMagic(content []byte) bool {
	return bytes.HasPrefix(content, magic)
}

func WriteMagic(dst []byte) {
	copy(dst, magic)
}

func CheckArMagic(content []byte) bool {
	return bytes.HasPrefix(content, []byte(ArMagic))
}
