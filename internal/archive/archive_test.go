package archive

import (
	"fmt"
	"testing"

	"github.com/hcyang1106/simple-linker/internal/elf"
)

// buildHeader renders one 60-byte ar member header. Fields other than Name
// and Size are irrelevant to Split's logic, so they're left as spaces.
func buildHeader(name string, size int) []byte {
	pad := func(s string, n int) string {
		for len(s) < n {
			s += " "
		}
		return s[:n]
	}
	h := pad(name, 16)
	h += pad("", 12) // Date
	h += pad("", 6)  // Uid
	h += pad("", 6)  // Gid
	h += pad("", 8)  // Mode
	h += pad(fmt.Sprintf("%d", size), 10)
	h += "`\n"
	if len(h) != elf.AhdrSize {
		panic("test header size mismatch")
	}
	return []byte(h)
}

// buildArchive assembles a minimal, valid "!<arch>\n" byte stream out of
// members whose data is already padded to an even length, matching what a
// real ar tool produces.
func buildArchive(members map[string][]byte, order []string) []byte {
	out := []byte(elf.ArMagic)
	for _, name := range order {
		data := members[name]
		if len(data)%2 != 0 {
			panic("test member data must be even length")
		}
		out = append(out, buildHeader(name+"/", len(data))...)
		out = append(out, data...)
	}
	return out
}

func TestSplitReturnsMembersInOrder(t *testing.T) {
	members := map[string][]byte{
		"a.o": []byte("AAAA"),
		"b.o": []byte("BBBBBB"),
	}
	order := []string{"a.o", "b.o"}
	content := buildArchive(members, order)

	got := Split(content)
	if len(got) != 2 {
		t.Fatalf("Split() returned %d members, want 2", len(got))
	}
	for i, name := range order {
		if got[i].Name != name {
			t.Fatalf("members[%d].Name = %q, want %q", i, got[i].Name, name)
		}
		if string(got[i].Content) != string(members[name]) {
			t.Fatalf("members[%d].Content = %q, want %q", i, got[i].Content, members[name])
		}
	}
}

func TestSplitSkipsSymtabPseudoMember(t *testing.T) {
	out := []byte(elf.ArMagic)
	out = append(out, buildHeader("/", 4)...)
	out = append(out, []byte("SYMS")...)
	out = append(out, buildHeader("real.o/", 4)...)
	out = append(out, []byte("DATA")...)

	got := Split(out)
	if len(got) != 1 {
		t.Fatalf("Split() returned %d members, want 1 (symtab pseudo-member must be skipped)", len(got))
	}
	if got[0].Name != "real.o" {
		t.Fatalf("members[0].Name = %q, want %q", got[0].Name, "real.o")
	}
}

func TestSplitResolvesExtendedNameFromStrTab(t *testing.T) {
	longName := "a_very_long_member_name_that_does_not_fit_inline.o"
	strTab := []byte(longName + "/\n")
	if len(strTab)%2 != 0 {
		strTab = append(strTab, ' ')
	}

	out := []byte(elf.ArMagic)
	out = append(out, buildHeader("//", len(strTab))...)
	out = append(out, strTab...)
	out = append(out, buildHeader("/0", 4)...)
	out = append(out, []byte("DATA")...)

	got := Split(out)
	if len(got) != 1 {
		t.Fatalf("Split() returned %d members, want 1", len(got))
	}
	if got[0].Name != longName {
		t.Fatalf("members[0].Name = %q, want %q", got[0].Name, longName)
	}
}
