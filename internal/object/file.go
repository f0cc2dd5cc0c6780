// Package object parses ELF relocatable and shared-object inputs into the
// per-file records the rest of the linker operates on: input sections,
// local symbols, and the global symbols each file contributes to a
// symtab.Pool (spec §3's LDContext, specialized per concrete input kind).
package object

import (
	"os"

	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// File is raw bytes read from disk, kept around so section/string-table
// slices can reference it directly instead of copying.
type File struct {
	Name    string
	Content []byte
}

func NewFile(path string) *File {
	content, err := os.ReadFile(path)
	utils.MustNo(err)
	return &File{Name: path, Content: content}
}

// NewFileFromBytes wraps an archive member's slice of its parent archive's
// content as a standalone File, named "archive.a(member.o)" in GNU ld's
// diagnostic style.
func NewFileFromBytes(name string, content []byte) *File {
	return &File{Name: name, Content: content}
}
