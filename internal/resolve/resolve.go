// Package resolve implements the symbol-resolution policy consulted by
// symtab.Pool on every global-symbol insert (spec §4.2). GNULD is the
// default ELF static-linker policy; LinkerScript additionally lets a
// PROVIDE'd script symbol lose to any real definition without a conflict.
package resolve

import (
	"fmt"

	"github.com/hcyang1106/simple-linker/internal/symtab"
)

// GNULD is the standard ELF static/dynamic-linker resolution policy.
type GNULD struct{}

func New() *GNULD { return &GNULD{} }

// Resolve decides the winner between old (already in the pool) and new
// (the incoming definition), mutating old in place when new should win so
// the pool's pointer identity is preserved (I1, I2 depend on this: the
// pool never swaps which *ResolveInfo a name maps to).
func (GNULD) Resolve(old, new *symtab.ResolveInfo) (symtab.Action, string) {
	action, msg, newWins := resolveCore(old, new)

	// Rule 5: visibility tightens monotonically regardless of which side
	// wins the value/binding resolution.
	tightened := symtab.MoreRestrictive(old.Visibility, new.Visibility)

	winner := old
	if newWins {
		*old = *new
	}
	old.Visibility = tightened

	// A DynObj's definition backing this name, whichever side it came
	// from, marks that shared object as actually needed (spec §4.6.1's
	// --as-needed rule consults this on the DynObj input). Owner is set by
	// CreateSymbol before Resolve ever runs, so the *old = *new copy above
	// carries it through correctly instead of losing it.
	if winner.Source == symtab.Dynamic && winner.Desc != symtab.Undefined && winner.Owner != nil {
		winner.Owner.SetNeeded()
	}

	return action, msg
}

// resolveCore applies rules 1-4 and reports whether new should replace
// old's value/binding/desc. It mutates its arguments only in the
// Common/Common case, to carry the larger alignment onto the survivor.
func resolveCore(old, new *symtab.ResolveInfo) (symtab.Action, string, bool) {
	oldDef := old.Desc != symtab.Undefined
	newDef := new.Desc != symtab.Undefined

	// Rule 1: Undefined vs Defined -> the defined side wins.
	if !oldDef && newDef {
		return symtab.Success, "", true
	}
	if oldDef && !newDef {
		return symtab.Success, "", false
	}
	if !oldDef && !newDef {
		// Both undefined: a regular reference is kept over a later
		// dynamic one; in every other pairing the newer reference
		// replaces the older, so a regular reference replaces a
		// provisional dynamic one (rule 4).
		if old.Source == symtab.Regular && new.Source == symtab.Dynamic {
			return symtab.Success, "", false
		}
		return symtab.Success, "", true
	}

	// Both defined from here on.
	switch {
	case old.Desc == symtab.Common && new.Desc == symtab.Common:
		// Rule 3: larger size wins, alignment is the max of both.
		align := old.Align
		if new.Align > align {
			align = new.Align
		}
		if new.Size > old.Size {
			newCopy := *new
			newCopy.Align = align
			*new = newCopy
			return symtab.Success, "", true
		}
		old.Align = align
		return symtab.Success, "", false

	case old.Desc == symtab.Common && new.Desc != symtab.Common:
		// Rule 3: a real definition always beats a tentative Common one.
		return symtab.Success, "", true

	case old.Desc != symtab.Common && new.Desc == symtab.Common:
		return symtab.Success, "", false
	}

	// Rule 4: a regular definition always beats a dynamic one; a dynamic
	// definition never overrides a regular one.
	if old.Source == symtab.Regular && new.Source == symtab.Dynamic {
		return symtab.Success, "", false
	}
	if old.Source == symtab.Dynamic && new.Source == symtab.Regular {
		return symtab.Success, "", true
	}

	// Rule 2: two strong regular (or two dynamic) definitions of the same
	// name. Weak yields silently to Global; two non-weak strong defs are
	// a fatal multiple-definition.
	oldWeak := old.Binding == symtab.Weak
	newWeak := new.Binding == symtab.Weak
	switch {
	case oldWeak && !newWeak:
		return symtab.Success, "", true
	case !oldWeak && newWeak:
		return symtab.Success, "", false
	case oldWeak && newWeak:
		// Both weak: first one seen wins, as for any other tie among
		// equally-ranked definitions (input order is authoritative).
		return symtab.Success, "", false
	default:
		msg := fmt.Sprintf("multiple definition of '%s'", old.Name)
		return symtab.Abort, msg, false
	}
}
