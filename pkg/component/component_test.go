package component

import (
	"testing"

	"github.com/vplatform/vpsim/pkg/clock"
)

func newTestRoot(name string) *Component {
	return New(ComponentConf{}, name)
}

func TestAddChild_DuplicateNameRejected(t *testing.T) {
	root := newTestRoot("root")
	a1 := newTestRoot("a")
	a2 := newTestRoot("a")
	if err := root.AddChild(a1); err != nil {
		t.Fatalf("first AddChild: %v", err)
	}
	if err := root.AddChild(a2); err == nil {
		t.Fatal("expected error for duplicate child name")
	}
}

func buildTree(t *testing.T) *Component {
	t.Helper()
	root := newTestRoot("root")
	a := New(ComponentConf{Parent: root}, "a")
	b := New(ComponentConf{Parent: root}, "b")
	c := New(ComponentConf{Parent: a}, "c")
	if err := root.AddChild(a); err != nil {
		t.Fatal(err)
	}
	if err := root.AddChild(b); err != nil {
		t.Fatal(err)
	}
	if err := a.AddChild(c); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestGetComponent_DirectPath(t *testing.T) {
	root := buildTree(t)
	if got := root.GetComponent("a/c"); got == nil || got.Name() != "c" {
		t.Fatalf("GetComponent(a/c) = %v, want c", got)
	}
}

func TestGetComponent_SingleWildcard(t *testing.T) {
	root := buildTree(t)
	if got := root.GetComponent("*/c"); got == nil || got.Name() != "c" {
		t.Fatalf("GetComponent(*/c) = %v, want c", got)
	}
	if got := root.GetComponent("*/z"); got != nil {
		t.Fatalf("GetComponent(*/z) = %v, want nil", got)
	}
}

func TestGetComponent_DoubleWildcard(t *testing.T) {
	root := buildTree(t)
	if got := root.GetComponent("**/c"); got == nil || got.Name() != "c" {
		t.Fatalf("GetComponent(**/c) = %v, want c", got)
	}
}

func TestPath_ComputedFromParentChain(t *testing.T) {
	root := buildTree(t)
	c := root.GetComponent("a/c")
	if c.Path() != "root/a/c" {
		t.Fatalf("Path() = %q, want root/a/c", c.Path())
	}
}

func TestNewMasterPort_DuplicateRejected(t *testing.T) {
	c := newTestRoot("x")
	if _, err := c.NewMasterPort("out"); err != nil {
		t.Fatalf("first NewMasterPort: %v", err)
	}
	if _, err := c.NewMasterPort("out"); err == nil {
		t.Fatal("expected error for duplicate master port name")
	}
}

func TestReplacePort_OverwritesExisting(t *testing.T) {
	c := newTestRoot("x")
	p1, err := c.NewMasterPort("out")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.NewMasterPort("out2")
	if err != nil {
		t.Fatal(err)
	}
	c.ReplacePort("out", p2)
	got, ok := c.Port("out")
	if !ok || got != p2 {
		t.Fatalf("Port(out) after ReplacePort = %v, want p2", got)
	}
	_ = p1
}

func TestResetAll_PropagatesToChildrenAndRegisters(t *testing.T) {
	root := buildTree(t)
	a := root.GetComponent("a")
	c := root.GetComponent("a/c")
	rv := uint64(7)
	cell, err := c.NewRegister("r", 8, &rv)
	if err != nil {
		t.Fatal(err)
	}
	cell.Write(0x20)

	root.ResetAll(true, false)
	if got := cell.Read(); got != 7 {
		t.Fatalf("register not reset through tree: got %#x, want 7", got)
	}
	_ = a
}

func TestResetAll_HookInvoked(t *testing.T) {
	c := newTestRoot("x")
	var seen []bool
	c.AddResetHook(func(active bool) { seen = append(seen, active) })
	c.ResetAll(true, false)
	c.ResetAll(false, false)
	if len(seen) != 2 || seen[0] != true || seen[1] != false {
		t.Fatalf("reset hook calls = %v, want [true false]", seen)
	}
}

func TestResetAll_ItfDrivenSuppressesSubsequentAmbientReset(t *testing.T) {
	root := buildTree(t)
	a := root.GetComponent("a")
	c := root.GetComponent("a/c")
	rv := uint64(7)
	cell, err := c.NewRegister("r", 8, &rv)
	if err != nil {
		t.Fatal(err)
	}

	// Trigger B: an interface-driven reset on c (e.g. through resetSlave).
	c.ResetAll(true, true)
	cell.Write(0x20)

	// Trigger A: the top-level harness sweeps the whole tree. c must be
	// suppressed (its register left at 0x20), but its sibling subtree and
	// a's own registers still see the ambient reset.
	root.ResetAll(true, false)

	if got := cell.Read(); got != 0x20 {
		t.Fatalf("register on itf-reset node changed by ambient sweep: got %#x, want %#x", got, 0x20)
	}
	_ = a
}

func TestResetAll_ItfDrivenStillPropagatesToChildren(t *testing.T) {
	root := buildTree(t)
	a := root.GetComponent("a")
	c := root.GetComponent("a/c")
	var cSeen []bool
	c.AddResetHook(func(active bool) { cSeen = append(cSeen, active) })

	a.ResetAll(true, true)
	cSeen = nil // clear the hook call from propagating into a's own reset

	a.ResetAll(true, false)
	if len(cSeen) != 1 || !cSeen[0] {
		t.Fatalf("child hook calls = %v, want [true] (ambient sweep must still reach children of an itf-suppressed node)", cSeen)
	}
}

func TestResetAll_CancelsPendingClockEvent(t *testing.T) {
	c := newTestRoot("x")
	ce := clock.NewClockEngine("C", 1e6)
	c.SetClockEngine(ce)

	fired := false
	ev := clock.NewEvent(func(interface{}) { fired = true }, nil)
	ce.Enqueue(ev, 4)
	c.TrackEvent(ev)

	c.ResetAll(true, false)
	ce.FireDueEvents()
	if fired {
		t.Fatal("event fired after a reset that should have canceled it")
	}
}

func TestParseBindingString_SplitsOnArrow(t *testing.T) {
	ep, err := ParseBindingString("cpu0->mem_req")
	if err != nil {
		t.Fatal(err)
	}
	if ep.CompPath != "cpu0" || ep.PortName != "mem_req" {
		t.Fatalf("ep = %+v, want {cpu0 mem_req}", ep)
	}
}

// A component name containing a bare hyphen must not confuse the arrow
// split — only the literal two-character "->" separates endpoints.
func TestParseBindingString_HyphenInNameNotMisparsed(t *testing.T) {
	ep, err := ParseBindingString("cpu-0->out")
	if err != nil {
		t.Fatal(err)
	}
	if ep.CompPath != "cpu-0" || ep.PortName != "out" {
		t.Fatalf("ep = %+v, want {cpu-0 out}", ep)
	}
}

func TestParseBindingString_MissingArrowErrors(t *testing.T) {
	if _, err := ParseBindingString("no-arrow-here"); err == nil {
		t.Fatal("expected error for missing ->")
	}
}
