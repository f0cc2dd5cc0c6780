package inputtree

import "testing"

// fakeFile is a minimal LDFile for exercising the liveness BFS without any
// real ELF parsing.
type fakeFile struct {
	name       string
	undefined  []string
	defined    []string
}

func (f *fakeFile) Name() string            { return f.name }
func (f *fakeFile) UndefinedNames() []string { return f.undefined }
func (f *fakeFile) DefinedNames() []string   { return f.defined }

// parserFor drives Resolve through a closure-based parse function keyed by
// entry name, since real archive bytes aren't needed to exercise the BFS.
func parserFor(files map[string]*fakeFile) ParseMember {
	return func(in *Input, entry ArchiveEntry) (LDFile, error) {
		return files[entry.Name], nil
	}
}

func TestResolveCommandLineObjectIsAlwaysLive(t *testing.T) {
	tree := NewTree()
	f := &fakeFile{name: "main.o", undefined: []string{"foo"}}
	tree.AddInput(&Input{Path: "main.o", Kind: KindObject, File: f, Alive: true})

	live, err := tree.Resolve(parserFor(nil))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(live) != 1 || live[0] != f {
		t.Fatalf("live = %v, want [main.o]", live)
	}
}

func TestResolvePullsArchiveMemberThatDefinesUndefined(t *testing.T) {
	tree := NewTree()
	main := &fakeFile{name: "main.o", undefined: []string{"foo"}}
	tree.AddInput(&Input{Path: "main.o", Kind: KindObject, File: main, Alive: true})

	fooMember := &fakeFile{name: "foo.o", defined: []string{"foo"}}
	unusedMember := &fakeFile{name: "unused.o", defined: []string{"bar"}}

	arcIn := &Input{Path: "libx.a", Kind: KindArchive}
	arc := &Archive{
		Entries: []ArchiveEntry{{Name: "foo.o"}, {Name: "unused.o"}},
		Parsed:  make([]LDFile, 2),
	}
	tree.AddArchive(arcIn, arc)

	files := map[string]*fakeFile{"foo.o": fooMember, "unused.o": unusedMember}
	live, err := tree.Resolve(parserFor(files))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if len(live) != 2 {
		t.Fatalf("live = %v, want 2 entries (main.o + foo.o)", live)
	}
	var pulledFoo, pulledUnused bool
	for _, f := range live {
		if f == fooMember {
			pulledFoo = true
		}
		if f == unusedMember {
			pulledUnused = true
		}
	}
	if !pulledFoo {
		t.Fatal("foo.o defines the undefined symbol main.o references, it should be pulled in")
	}
	if pulledUnused {
		t.Fatal("unused.o defines nothing main.o needs, it should not be pulled in")
	}
}

func TestResolveTransitiveChainWithinArchive(t *testing.T) {
	tree := NewTree()
	main := &fakeFile{name: "main.o", undefined: []string{"a"}}
	tree.AddInput(&Input{Path: "main.o", Kind: KindObject, File: main, Alive: true})

	// b.o defines "a" but itself needs "c", which only c.o defines; a single
	// forward pass over the archive must not stop after pulling in b.o.
	bMember := &fakeFile{name: "b.o", defined: []string{"a"}, undefined: []string{"c"}}
	cMember := &fakeFile{name: "c.o", defined: []string{"c"}}

	arcIn := &Input{Path: "libx.a", Kind: KindArchive}
	arc := &Archive{
		Entries: []ArchiveEntry{{Name: "b.o"}, {Name: "c.o"}},
		Parsed:  make([]LDFile, 2),
	}
	tree.AddArchive(arcIn, arc)

	files := map[string]*fakeFile{"b.o": bMember, "c.o": cMember}
	live, err := tree.Resolve(parserFor(files))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(live) != 3 {
		t.Fatalf("live = %v, want 3 (main.o, b.o, c.o)", live)
	}
}

func TestResolveWholeArchivePullsEveryMember(t *testing.T) {
	tree := NewTree()
	a := &fakeFile{name: "a.o", defined: []string{"a"}}
	b := &fakeFile{name: "b.o", defined: []string{"b"}}

	arcIn := &Input{Path: "libx.a", Kind: KindArchive, Attr: &Attribute{WholeArchive: true}}
	arc := &Archive{
		Entries: []ArchiveEntry{{Name: "a.o"}, {Name: "b.o"}},
		Parsed:  make([]LDFile, 2),
	}
	tree.AddArchive(arcIn, arc)

	files := map[string]*fakeFile{"a.o": a, "b.o": b}
	live, err := tree.Resolve(parserFor(files))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(live) != 2 {
		t.Fatalf("live = %v, want both whole-archive members pulled in unconditionally", live)
	}
}

func TestResolveStartGroupEndGroupRescansToFixedPoint(t *testing.T) {
	tree := NewTree()
	main := &fakeFile{name: "main.o", undefined: []string{"a"}}
	tree.AddInput(&Input{Path: "main.o", Kind: KindObject, File: main, Alive: true})

	tree.BeginGroup()

	// libb.a is scanned before liba.a, while "c" is not yet undefined, so
	// c.o is passed over on the first pass; only the group rescan after
	// liba.a's a.o adds "c" to the undefined set pulls c.o in.
	cMember := &fakeFile{name: "c.o", defined: []string{"c"}}
	libB := &Input{Path: "libb.a", Kind: KindArchive}
	arcB := &Archive{Entries: []ArchiveEntry{{Name: "c.o"}}, Parsed: make([]LDFile, 1)}
	tree.AddArchive(libB, arcB)

	aMember := &fakeFile{name: "a.o", defined: []string{"a"}, undefined: []string{"c"}}
	libA := &Input{Path: "liba.a", Kind: KindArchive}
	arcA := &Archive{Entries: []ArchiveEntry{{Name: "a.o"}}, Parsed: make([]LDFile, 1)}
	tree.AddArchive(libA, arcA)

	tree.EndGroup()

	files := map[string]*fakeFile{"a.o": aMember, "c.o": cMember}
	live, err := tree.Resolve(parserFor(files))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(live) != 3 {
		t.Fatalf("live = %v, want 3 (main.o, a.o, c.o) via the group rescan", live)
	}
}
