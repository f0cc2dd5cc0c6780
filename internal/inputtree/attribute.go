// Package inputtree models the input graph: a forest of object/archive/
// shared-object inputs bracketed by --start-group/--end-group markers,
// each carrying an immutable Attribute snapshot (spec §3, §4.3).
package inputtree

// Attribute is a record of boolean flags that travel with an input,
// snapshotted from the command line's "current attribute" at the moment
// the file argument was seen. Attributes with equal fields are interned
// to one shared record (spec §3: "Attributes are interned").
type Attribute struct {
	WholeArchive bool
	AsNeeded     bool
	AddNeeded    bool
	Static       bool
}

// Factory deduplicates Attribute records bound to inputs (C6).
type Factory struct {
	pool map[Attribute]*Attribute
}

func NewFactory() *Factory {
	return &Factory{pool: make(map[Attribute]*Attribute)}
}

// Intern returns the shared *Attribute for a value-equal record, creating
// one on first use.
func (f *Factory) Intern(a Attribute) *Attribute {
	if existing, ok := f.pool[a]; ok {
		return existing
	}
	rec := new(Attribute)
	*rec = a
	f.pool[a] = rec
	return rec
}
