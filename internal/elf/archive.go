package elf

import (
	"bytes"
	"strconv"
	"strings"
)

func (a *ArHdr) HasPrefix(s string) bool {
	return strings.HasPrefix(string(a.Name[:]), s)
}

func (a *ArHdr) IsStrTab() bool {
	return a.HasPrefix("// ")
}

func (a *ArHdr) IsSymtab() bool {
	return a.HasPrefix("/ ") || a.HasPrefix("/SYM64/ ")
}

func (a *ArHdr) GetSize() (int, error) {
	trimmed := strings.TrimSpace(string(a.Size[:]))
	return strconv.Atoi(trimmed)
}

// ReadName resolves the member name, following the GNU extended-name-table
// convention ("/123" points into strTab) when the name doesn't fit inline.
func (a *ArHdr) ReadName(strTab []byte) string {
	if a.HasPrefix("/") {
		trimmed := strings.TrimSpace(string(a.Name[1:]))
		start, err := strconv.Atoi(trimmed)
		if err != nil {
			return ""
		}
		end := start + bytes.Index(strTab[start:], []byte("/\n"))
		return string(strTab[start:end])
	}
	end := bytes.IndexByte(a.Name[:], '/')
	if end == -1 {
		end = len(a.Name)
	}
	return string(a.Name[:end])
}
