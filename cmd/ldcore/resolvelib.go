package main

import (
	"os"
	"path/filepath"

	"github.com/hcyang1106/simple-linker/pkg/utils"
)

// resolveLib turns a -lname argument into a file path, preferring
// libname.so over libname.a in each search directory in turn unless
// static is in effect (-Bstatic/-static), matching GNU ld's default
// dynamic-over-static library preference.
func resolveLib(name string, dirs []string, static bool) string {
	candidates := []string{"lib" + name + ".a"}
	if !static {
		candidates = []string{"lib" + name + ".so", "lib" + name + ".a"}
	}
	for _, dir := range dirs {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	utils.Fatal("cannot find -l" + name)
	return ""
}
