// Package loader implements the Module Loader (C2): resolving a logical
// module name plus a build-mode tag to a shared-object path, probing include
// directories in order, and loading the object with process-wide symbol
// visibility via the standard library's plugin package — the only
// same-address-space dynamic loader Go offers, and the only one that can
// hand back a raw factory function the kernel calls in-process (an RPC-based
// plugin system, as used for out-of-process tooling elsewhere in the pack,
// would force every port call through a serialization boundary).
package loader

import (
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"

	"github.com/vplatform/vpsim/pkg/util"
)

// BuildMode selects the module variant to load, per §6.
type BuildMode string

const (
	Release  BuildMode = "release"
	Debug    BuildMode = "debug"
	M32      BuildMode = "m32"
	DebugM32 BuildMode = "debug_m32"
)

// prefix returns the logical-name prefix this mode applies, or "" for release.
func (m BuildMode) prefix() string {
	switch m {
	case Debug:
		return "debug"
	case M32:
		return "m32"
	case DebugM32:
		return "debug_m32"
	default:
		return ""
	}
}

// Env bundles the process-wide settings the loader needs to resolve a module:
// the chosen build mode and the ordered list of include directories to probe.
type Env struct {
	BuildMode   BuildMode
	IncludeDirs []string
}

// RelativePath computes the mode-tagged, slash-joined, suffixed relative path
// for a logical module name, per §4.2 step 1.
// e.g. ("cpu.iss.riscv", debug) -> "debug/cpu/iss/riscv.so" (linux).
func RelativePath(name string, mode BuildMode) string {
	qualified := name
	if p := mode.prefix(); p != "" {
		qualified = p + "." + name
	}
	rel := strings.ReplaceAll(qualified, ".", "/")
	return rel + platformSuffix()
}

func platformSuffix() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

// Handle is a loaded shared object, ready for symbol lookup.
type Handle struct {
	Path string
	plug *plugin.Plugin
}

// Resolve probes includeDirs in order for name's mode-tagged relative path,
// loads the first hit, and returns a Handle for symbol lookup. Fails with
// ModuleNotFoundError naming every path searched.
func Resolve(name string, mode BuildMode, includeDirs []string) (*Handle, error) {
	rel := RelativePath(name, mode)
	searched := make([]string, 0, len(includeDirs))
	for _, dir := range includeDirs {
		full := filepath.Join(dir, rel)
		searched = append(searched, full)
		if !fileExists(full) {
			continue
		}
		p, err := plugin.Open(full)
		if err != nil {
			return nil, &util.ModuleLoadError{Path: full, Detail: err.Error()}
		}
		return &Handle{Path: full, plug: p}, nil
	}
	return nil, &util.ModuleNotFoundError{Name: name, Searched: searched}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Lookup resolves an exported symbol by name from the loaded module.
func (h *Handle) Lookup(symbol string) (plugin.Symbol, error) {
	sym, err := h.plug.Lookup(symbol)
	if err != nil {
		return nil, &util.FactoryMissingError{Path: h.Path}
	}
	return sym, nil
}
