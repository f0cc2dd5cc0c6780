package main

import (
	"strings"

	"github.com/hcyang1106/simple-linker/internal/inputtree"
	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// fileArgKind distinguishes an ordinary file argument from a group marker
// in the flattened, order-preserving argument list ParseArgs produces.
type fileArgKind int

const (
	argFile fileArgKind = iota
	argGroupBegin
	argGroupEnd
)

type fileArg struct {
	Kind fileArgKind
	Path string // direct path, set for argFile when LibName is empty
	// LibName is set instead of Path for a -lname argument; resolved
	// against SearchDirs once the driver knows whether -Bstatic/-static
	// is in effect for it (Attr.Static).
	LibName string
	Attr    inputtree.Attribute
}

// config is this driver's flattened view of the command line, the
// equivalent of the teacher's (incomplete) Context.Args but covering the
// flags SPEC_FULL.md's pipeline actually needs.
type config struct {
	Output      string
	SearchDirs  []string
	EntrySymbol string
	Interp      string
	Shared      bool
	Static      bool
	Files       []fileArg
}

func defaultConfig() *config {
	return &config{
		Output:      "a.out",
		EntrySymbol: "_start",
		Interp:      "/lib/ld-linux-riscv64-lp64d.so.1",
	}
}

// matches reports whether arg is one of names in either -x or --x dash form
// (utils.AddDashes's convention: a single-letter name only ever takes one
// dash, a word takes both).
func matches(arg string, names ...string) bool {
	for _, n := range names {
		for _, form := range utils.AddDashes(n) {
			if arg == form {
				return true
			}
		}
	}
	return false
}

// ParseArgs walks a GNU-ld-style argument list, tracking the "current
// attribute" toggles (--whole-archive, --as-needed, -Bstatic/-Bdynamic)
// that get snapshotted onto every file argument seen while they're in
// effect (spec §3's Attribute, §4.3's --start-group/--end-group).
func ParseArgs(args []string) *config {
	cfg := defaultConfig()
	attr := inputtree.Attribute{}

	for i := 0; i < len(args); i++ {
		a := args[i]

		next := func() string {
			i++
			if i >= len(args) {
				utils.Fatal("missing argument to " + a)
			}
			return args[i]
		}

		switch {
		case matches(a, "o", "output"):
			cfg.Output = next()
		case matches(a, "L"):
			cfg.SearchDirs = append(cfg.SearchDirs, next())
		case strings.HasPrefix(a, "-L") && len(a) > 2:
			cfg.SearchDirs = append(cfg.SearchDirs, a[2:])
		case matches(a, "l"):
			cfg.Files = append(cfg.Files, fileArg{Kind: argFile, LibName: next(), Attr: attr})
		case strings.HasPrefix(a, "-l") && len(a) > 2:
			cfg.Files = append(cfg.Files, fileArg{Kind: argFile, LibName: a[2:], Attr: attr})
		case matches(a, "whole-archive"):
			attr.WholeArchive = true
		case matches(a, "no-whole-archive"):
			attr.WholeArchive = false
		case matches(a, "as-needed"):
			attr.AsNeeded = true
		case matches(a, "no-as-needed"):
			attr.AsNeeded = false
		case a == "-Bstatic":
			attr.Static = true
		case a == "-Bdynamic":
			attr.Static = false
		case matches(a, "start-group"):
			cfg.Files = append(cfg.Files, fileArg{Kind: argGroupBegin})
		case matches(a, "end-group"):
			cfg.Files = append(cfg.Files, fileArg{Kind: argGroupEnd})
		case matches(a, "dynamic-linker"):
			cfg.Interp = next()
		case matches(a, "e", "entry"):
			cfg.EntrySymbol = next()
		case matches(a, "shared"):
			cfg.Shared = true
		case a == "-static":
			cfg.Static = true
		case strings.HasPrefix(a, "-"):
			// Unrecognized flag: ignored rather than fatal, matching a
			// permissive driver over a strict one for flags this backend
			// has no use for (-m, --hash-style, ...).
		default:
			cfg.Files = append(cfg.Files, fileArg{Kind: argFile, Path: a, Attr: attr})
		}
	}

	return cfg
}
