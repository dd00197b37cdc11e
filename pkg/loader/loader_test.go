package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vplatform/vpsim/pkg/util"
)

func TestRelativePath(t *testing.T) {
	cases := []struct {
		name string
		mode BuildMode
		want string
	}{
		{"cpu.iss.riscv", Release, "cpu/iss/riscv" + platformSuffix()},
		{"cpu.iss.riscv", Debug, "debug/cpu/iss/riscv" + platformSuffix()},
		{"cpu.core", Debug, "debug/cpu/core" + platformSuffix()},
	}
	for _, c := range cases {
		if got := RelativePath(c.name, c.mode); got != c.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", c.name, c.mode, got, c.want)
		}
	}
}

func TestResolve_FirstIncludeDirWins(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	rel := RelativePath("cpu.core", Debug)
	full := filepath.Join(dirB, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Not a real plugin — Resolve should still fail at plugin.Open, but that
	// proves dirB's entry was the one picked (dirA has nothing).
	if err := os.WriteFile(full, []byte("not a real plugin"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Resolve("cpu.core", Debug, []string{dirA, dirB})
	if err == nil {
		t.Fatal("expected a load error from the bogus plugin file")
	}
	if _, ok := err.(*util.ModuleLoadError); !ok {
		t.Errorf("err = %T, want *util.ModuleLoadError", err)
	}
}

func TestResolve_NoIncludeDirHasIt(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	_, err := Resolve("cpu.core", Debug, []string{dirA, dirB})
	if err == nil {
		t.Fatal("expected ModuleNotFoundError")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected non-empty error naming both searched paths")
	}
}
