package symtab

// Resolver decides the winner between an existing ("old") and incoming
// ("new") ResolveInfo for the same name. Implemented by internal/resolve.
type Resolver interface {
	Resolve(old, new *ResolveInfo) (Action, string)
}

type Action uint8

const (
	Success Action = iota
	Warning
	Abort
)

// Pool is the interned symbol table: a map from name to ResolveInfo, plus
// the pluggable resolution policy (StrSymPool in spec §4.1).
type Pool struct {
	resolver Resolver
	table    map[string]*ResolveInfo

	// Warnings accumulates resolver Warning messages for the post-link
	// summary (spec §7's propagation policy).
	Warnings []string
}

func NewPool(resolver Resolver) *Pool {
	return &Pool{
		resolver: resolver,
		table:    make(map[string]*ResolveInfo),
	}
}

// CreateSymbol allocates a fresh ResolveInfo that is NOT inserted into the
// table; used for local symbols and as the "new" side of a resolution.
// owner is set up front so a Resolve that copies new over old (*old = *new)
// carries the correct Owner through instead of losing it.
func CreateSymbol(name string, isDyn bool, desc Desc, binding Binding, value, size uint64, vis Visibility, owner Owner) *ResolveInfo {
	src := Regular
	if isDyn {
		src = Dynamic
	}
	return &ResolveInfo{
		Name:       name,
		Desc:       desc,
		Binding:    binding,
		Visibility: vis,
		Source:     src,
		Value:      value,
		Size:       size,
		SymIdx:     -1,
		Owner:      owner,
	}
}

// InsertSymbol inserts name's global record, resolving against any
// existing entry. Local symbols bypass the pool entirely (I2): InsertSymbol
// returns (nil, false, nil) for them and the caller keeps its own
// output-local ResolveInfo instead.
//
// Returns the surviving ResolveInfo and whether an entry already existed.
// A fatal resolution (rule 2's strong/strong clash) returns a
// *LinkError{Kind: MultipleDefinition}; the caller must abort the link
// without producing output.
func (p *Pool) InsertSymbol(name string, isDyn bool, desc Desc, binding Binding, value, size uint64, vis Visibility, owner Owner) (*ResolveInfo, bool, error) {
	if binding == Local {
		return nil, false, nil
	}

	newSym := CreateSymbol(name, isDyn, desc, binding, value, size, vis, owner)

	old, exists := p.table[name]
	if !exists || !old.IsSymbol() {
		p.table[name] = newSym
		return newSym, false, nil
	}

	action, msg := p.resolver.Resolve(old, newSym)
	switch action {
	case Success:
		return old, true, nil
	case Warning:
		p.Warnings = append(p.Warnings, "WARNING: "+msg)
		return old, true, nil
	default: // Abort
		return nil, true, &LinkError{Kind: MultipleDefinition, Message: msg, Location: name}
	}
}

// Get returns the existing entry for name without resolving, or nil.
func (p *Pool) Get(name string) *ResolveInfo {
	return p.table[name]
}

// GetOrCreate returns the existing entry for name, creating an empty one
// (Undefined/Global) if absent — the shape every Go repo in the pack uses
// when first encountering an undefined reference to a not-yet-seen name.
func (p *Pool) GetOrCreate(name string) *ResolveInfo {
	if sym, ok := p.table[name]; ok {
		return sym
	}
	sym := &ResolveInfo{Name: name, Binding: Global, SymIdx: -1}
	p.table[name] = sym
	return sym
}

// Delete removes name's entry. The link pipeline does not call it.
func (p *Pool) Delete(name string) {
	delete(p.table, name)
}

// All returns every entry currently in the pool. Iteration order is
// unspecified; callers that need determinism (emission) sort first.
func (p *Pool) All() []*ResolveInfo {
	out := make([]*ResolveInfo, 0, len(p.table))
	for _, v := range p.table {
		out = append(out, v)
	}
	return out
}

func (p *Pool) Len() int {
	return len(p.table)
}
