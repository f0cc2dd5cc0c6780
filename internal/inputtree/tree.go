package inputtree

// ArchiveEntry is one still-unparsed member of an Archive input, named and
// sliced out by internal/archive but not yet turned into an ObjectFile —
// most members are never touched.
type ArchiveEntry struct {
	Name    string
	Content []byte
}

// Archive is the state backing a KindArchive Input: its member list and,
// as the BFS pulls members in, the parsed objects it has produced.
type Archive struct {
	Entries []ArchiveEntry
	// Parsed caches, by entry index, the object parsed from each member the
	// first time the BFS considers it (nil until then), so each member is
	// parsed once; a cached member is not necessarily pulled into the link.
	Parsed []LDFile
}

// Tree is the flattened forest described in spec §4.3: a sequence of
// Nodes in command-line order, with GroupBegin/GroupEnd brackets around
// archives that must be rescanned together to a fixed point.
type Tree struct {
	Nodes    []Node
	Archives map[*Input]*Archive
}

func NewTree() *Tree {
	return &Tree{Archives: make(map[*Input]*Archive)}
}

func (t *Tree) AddInput(in *Input) {
	t.Nodes = append(t.Nodes, Node{Input: in})
}

func (t *Tree) AddArchive(in *Input, arc *Archive) {
	t.Archives[in] = arc
	t.Nodes = append(t.Nodes, Node{Input: in})
}

func (t *Tree) BeginGroup() {
	t.Nodes = append(t.Nodes, Node{IsGroup: true, Group: GroupBegin})
}

func (t *Tree) EndGroup() {
	t.Nodes = append(t.Nodes, Node{IsGroup: true, Group: GroupEnd})
}

// groups returns the [start,end) index ranges of archive inputs bracketed
// by --start-group/--end-group, so the fixed-point rescan in Resolve can
// treat each bracketed run as a unit instead of stopping at the first
// pass over it.
func (t *Tree) groups() [][2]int {
	var out [][2]int
	start := -1
	for i, n := range t.Nodes {
		if !n.IsGroup {
			continue
		}
		if n.Group == GroupBegin {
			start = i
		} else if start >= 0 {
			out = append(out, [2]int{start, i})
			start = -1
		}
	}
	return out
}
