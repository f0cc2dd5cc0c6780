// Package layout merges input sections into output sections, orders the
// output sections into the fixed bucket sequence spec §4.6.3 requires,
// and assigns every merged section (and the symbols addressed through it)
// its final virtual address and file offset.
package layout

import (
	"strings"

	"github.com/hcyang1106/simple-linker/internal/symtab"
)

// mapping is one (input-name-prefix, output-name) pair, tried in the
// order it was added (spec §4.5: first match wins, prefix semantics).
type mapping struct {
	prefix string
	output string
}

// Merger routes an input section's name to the output section it belongs
// in, via an ordered list of prefix mappings (grounded on the common GNU
// ld default-script convention .text.* -> .text, .rodata.* -> .rodata,
// etc., generalized from the teacher's literal OutputSection-per-name
// scheme since real inputs carry many more names than the teacher's
// fixed set).
type Merger struct {
	mappings []mapping
	seen     map[string]string // output name this single input name mapped to previously
}

func NewMerger() *Merger {
	m := &Merger{seen: make(map[string]string)}
	for _, p := range defaultPrefixes {
		m.AddMapping(p.prefix, p.output)
	}
	return m
}

var defaultPrefixes = []mapping{
	{".text.", ".text"},
	{".data.rel.ro.", ".data.rel.ro"},
	{".data.", ".data"},
	{".rodata.", ".rodata"},
	{".bss.rel.ro.", ".bss.rel.ro"},
	{".bss.", ".bss"},
	{".init_array.", ".init_array"},
	{".fini_array.", ".fini_array"},
	{".tbss.", ".tbss"},
	{".tdata.", ".tdata"},
	{".gcc_except_table.", ".gcc_except_table"},
	{".ctors.", ".ctors"},
	{".dtors.", ".dtors"},
}

// AddMapping appends a new prefix rule. A prefix already bound to a
// different output section is a DuplicateSectionMapping error the caller
// surfaces (I-level invariant from spec §4.5); same-target re-adds are a
// harmless no-op.
func (m *Merger) AddMapping(prefix, output string) (*symtab.LinkError, bool) {
	for _, p := range m.mappings {
		if p.prefix == prefix {
			if p.output == output {
				return nil, false
			}
			return &symtab.LinkError{
				Kind:     symtab.DuplicateSectionMapping,
				Message:  "prefix '" + prefix + "' already mapped to '" + p.output + "'",
				Location: prefix,
			}, true
		}
	}
	m.mappings = append(m.mappings, mapping{prefix, output})
	return nil, false
}

// Map resolves an input section name to its output section name: exact
// prefix match wins over the input's own name, which is used verbatim
// when nothing matches (e.g. ".text" itself, or a name the script never
// mentioned).
func (m *Merger) Map(inputName string) string {
	for _, p := range m.mappings {
		if strings.HasPrefix(inputName, p.prefix) {
			return p.output
		}
	}
	return inputName
}
