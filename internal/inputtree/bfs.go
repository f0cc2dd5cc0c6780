package inputtree

// ParseMember turns one still-raw archive entry into a parsed LDFile
// (an *object.ObjectFile in practice). Supplied by the caller so this
// package does not need to depend on internal/object or internal/symtab.
type ParseMember func(in *Input, entry ArchiveEntry) (LDFile, error)

// Resolve runs the fixed-point liveness scan of spec §4.3: starting from
// the files already Alive (command-line objects and --whole-archive
// members), it repeatedly looks for an archive member whose DefinedNames
// satisfies a name any live file's UndefinedNames still lists, until a
// full pass over every --start-group/--end-group bracket adds nothing
// new. It returns every LDFile that ended up alive, in the order they
// were pulled in.
//
// Unlike a real ar symbol index, this scans member-by-member and parses
// each candidate the first time it is considered; fine for the archive
// sizes this linker targets, simpler than carrying a second symbol index.
func (t *Tree) Resolve(parse ParseMember) ([]LDFile, error) {
	var live []LDFile
	undefined := make(map[string]bool)

	// pulled records which archive members are already live; Archive.Parsed
	// only caches parse results and also holds members considered but not
	// (yet) needed.
	type memberKey struct {
		arc *Archive
		idx int
	}
	pulled := make(map[memberKey]bool)

	addLive := func(f LDFile) {
		live = append(live, f)
		for _, n := range f.UndefinedNames() {
			undefined[n] = true
		}
	}

	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsGroup || n.Input == nil {
			continue
		}
		in := n.Input
		switch in.Kind {
		case KindObject, KindDynObj:
			if in.Alive && in.File != nil {
				addLive(in.File)
			}
		case KindArchive:
			arc := t.Archives[in]
			if arc == nil {
				continue
			}
			if in.Attr != nil && in.Attr.WholeArchive {
				for idx := range arc.Entries {
					f, err := pullMember(in, arc, idx, parse)
					if err != nil {
						return nil, err
					}
					pulled[memberKey{arc, idx}] = true
					addLive(f)
				}
			}
		}
	}

	groups := t.groups()
	// Non-bracketed archives are each treated as a trivial one-node group
	// so the same rescan loop covers both --start-group runs and plain
	// archives named on the command line.
	for i := range t.Nodes {
		if t.Nodes[i].IsGroup || t.Nodes[i].Input == nil {
			continue
		}
		if t.Nodes[i].Input.Kind != KindArchive {
			continue
		}
		if !inAnyGroup(i, groups) {
			groups = append(groups, [2]int{i, i + 1})
		}
	}

	for {
		progressed := false
		for _, rng := range groups {
			for {
				addedThisPass := false
				for i := rng[0]; i < rng[1]; i++ {
					n := &t.Nodes[i]
					if n.IsGroup || n.Input == nil || n.Input.Kind != KindArchive {
						continue
					}
					arc := t.Archives[n.Input]
					if arc == nil {
						continue
					}
					for idx, entry := range arc.Entries {
						if pulled[memberKey{arc, idx}] {
							continue
						}
						if !definesAny(n.Input, arc, idx, entry, parse, undefined) {
							continue
						}
						f, err := pullMember(n.Input, arc, idx, parse)
						if err != nil {
							return nil, err
						}
						pulled[memberKey{arc, idx}] = true
						addLive(f)
						addedThisPass = true
					}
				}
				if !addedThisPass {
					break
				}
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	return live, nil
}

func inAnyGroup(idx int, groups [][2]int) bool {
	for _, g := range groups {
		if idx > g[0] && idx < g[1] {
			return true
		}
	}
	return false
}

// definesAny parses (and caches) the member if needed, then reports
// whether it defines any currently-undefined name.
func definesAny(in *Input, arc *Archive, idx int, entry ArchiveEntry, parse ParseMember, undefined map[string]bool) bool {
	f := arc.Parsed[idx]
	if f == nil {
		parsed, err := parse(in, entry)
		if err != nil || parsed == nil {
			return false
		}
		arc.Parsed[idx] = parsed
		f = parsed
	}
	for _, n := range f.DefinedNames() {
		if undefined[n] {
			return true
		}
	}
	return false
}

func pullMember(in *Input, arc *Archive, idx int, parse ParseMember) (LDFile, error) {
	if arc.Parsed[idx] == nil {
		f, err := parse(in, arc.Entries[idx])
		if err != nil {
			return nil, err
		}
		arc.Parsed[idx] = f
	}
	return arc.Parsed[idx], nil
}
