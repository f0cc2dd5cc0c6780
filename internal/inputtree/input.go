package inputtree

// Kind is the detected type of an input file (spec §3).
type Kind uint8

const (
	KindObject Kind = iota
	KindArchive
	KindDynObj
	KindScript
	KindUnknown
)

// LDFile is the minimal view InputTree needs of a parsed object or shared
// object; *object.ObjectFile and *object.DynObjFile both satisfy it.
type LDFile interface {
	Name() string
	UndefinedNames() []string
	DefinedNames() []string
}

// Input is one leaf of the forest: an archive, or an already-parsed
// object/shared-object file named on the command line, carrying the
// Attribute in force when it was named (spec §4.3).
type Input struct {
	Path string
	Attr *Attribute
	Kind Kind

	// File is set once the input has been parsed; for an Archive input it
	// stays nil — archive members never become Input nodes, they are
	// tracked in the Archive's Parsed slice and returned by Resolve.
	File LDFile

	// Alive marks whether this input's File contributes to the link;
	// Resolve adds an object/shared-object input's File to the live list
	// only when it is set. Resolve never changes it.
	Alive bool
}

// GroupMarker brackets a run of archive inputs that should be rescanned
// to a fixed point as a unit (--start-group/--end-group, spec §4.3).
type GroupMarker uint8

const (
	GroupBegin GroupMarker = iota
	GroupEnd
)

// Node is one slot in the flattened input sequence: either a concrete
// Input or a group boundary marker.
type Node struct {
	Input *Input
	Group GroupMarker
	IsGroup bool
}
