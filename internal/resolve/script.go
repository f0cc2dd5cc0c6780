package resolve

import "github.com/hcyang1106/simple-linker/internal/symtab"

// LinkerScript extends GNULD with the PROVIDE()/EXTERN() semantics a
// linker-script input contributes: a provided symbol is weaker than any
// ordinary Weak definition, so it is never a source of conflict (rule 2
// never fires against it) — it simply steps aside for a real definition.
type LinkerScript struct {
	GNULD
}

func NewLinkerScript() *LinkerScript { return &LinkerScript{} }

func (r *LinkerScript) Resolve(old, new *symtab.ResolveInfo) (symtab.Action, string) {
	if old.Provided && new.Desc != symtab.Undefined {
		*old = *new
		return symtab.Success, ""
	}
	if new.Provided && old.Desc != symtab.Undefined {
		return symtab.Success, ""
	}
	return r.GNULD.Resolve(old, new)
}
