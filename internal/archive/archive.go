// Package archive splits a SysV/GNU "ar" archive's content into its
// member files, skipping the symbol-table and extended-name-table
// pseudo-members (spec §3's Archive kind, §4.3's lazy member extraction).
package archive

import (
	"github.com/hcyang1106/simple-linker/internal/elf"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// Member is one named member of an archive, still unparsed — the caller
// decides whether it is an object or nested archive and parses it lazily,
// since most archive members are never pulled into the link.
type Member struct {
	Name    string
	Content []byte
}

// Split walks content (already verified to carry the "!<arch>\n" magic)
// and returns its ordinary members in file order, in the teacher's
// pack's member-at-a-time scanning style.
func Split(content []byte) []Member {
	pos := len(elf.ArMagic)

	var strTab []byte
	var members []Member

	for len(content)-pos > 1 {
		if pos%2 == 1 {
			pos++
		}

		var hdr elf.ArHdr
		utils.Read[elf.ArHdr](content[pos:], &hdr)

		size, err := hdr.GetSize()
		if err != nil {
			utils.Fatal("malformed archive member size")
		}

		dataStart := pos + int(elf.AhdrSize)
		pos = dataStart + size
		if pos > len(content) {
			utils.Fatal("archive member exceeds file length")
		}
		data := content[dataStart:pos]

		switch {
		case hdr.IsSymtab():
			continue
		case hdr.IsStrTab():
			strTab = data
			continue
		default:
			members = append(members, Member{Name: hdr.ReadName(strTab), Content: data})
		}
	}

	return members
}
