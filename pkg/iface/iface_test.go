package iface

import (
	"testing"

	"github.com/vplatform/vpsim/pkg/clock"
	"github.com/vplatform/vpsim/pkg/port"
)

type fakeOwner string

func (f fakeOwner) Path() string { return string(f) }

type fakeIOSlave struct{ calls int }

func (f *fakeIOSlave) HandleIO(req *IORequest) Status { f.calls++; return StatusOK }

type fakeWireSlave struct{ last int64 }

func (f *fakeWireSlave) UpdateWire(value int64) { f.last = value }

type fakeResetSlave struct{ active bool }

func (f *fakeResetSlave) UpdateReset(active bool) { f.active = active }

type fakeClockSlave struct {
	engine *clock.ClockEngine
	hz     float64
}

func (f *fakeClockSlave) RegisterClock(e *clock.ClockEngine) { f.engine = e }
func (f *fakeClockSlave) SetClockFrequency(hz float64)       { f.hz = hz }

func TestIOMaster_UnboundReturnsInvalid(t *testing.T) {
	out := port.NewMaster(fakeOwner("/root/a"), "out")
	m := NewIOMaster(out)
	if got := m.Call(&IORequest{}); got != StatusInvalid {
		t.Fatalf("Call on unbound port = %v, want INVALID", got)
	}
}

func TestIOMaster_BoundToZeroSlavesReturnsOK(t *testing.T) {
	out := port.NewMaster(fakeOwner("/root/a"), "out")
	if err := port.FinalBind(out); err != nil {
		t.Fatalf("FinalBind: %v", err)
	}
	m := NewIOMaster(out)
	if got := m.Call(&IORequest{}); got != StatusOK {
		t.Fatalf("Call on zero-fanout port = %v, want OK", got)
	}
}

func TestIOMaster_FansOutToAllSlaves(t *testing.T) {
	owner := fakeOwner("/root/a")
	s1, s2 := &fakeIOSlave{}, &fakeIOSlave{}
	out := port.NewMaster(owner, "out")
	in1 := port.NewSlave(fakeOwner("/root/b"), "in", s1, nil)
	in2 := port.NewSlave(fakeOwner("/root/c"), "in", s2, nil)
	if err := port.SymbolicBind(out, in1); err != nil {
		t.Fatal(err)
	}
	if err := port.SymbolicBind(out, in2); err != nil {
		t.Fatal(err)
	}
	if err := port.FinalBind(out); err != nil {
		t.Fatal(err)
	}
	m := NewIOMaster(out)
	m.Call(&IORequest{Addr: 4})
	if s1.calls != 1 || s2.calls != 1 {
		t.Fatalf("fan-out calls = %d,%d, want 1,1", s1.calls, s2.calls)
	}
}

func TestWireMaster_UnboundIsNoOp(t *testing.T) {
	out := port.NewMaster(fakeOwner("/root/a"), "out")
	m := NewWireMaster(out)
	m.Update(1) // must not panic
}

func TestWireMaster_DeliversValue(t *testing.T) {
	owner := fakeOwner("/root/a")
	slave := &fakeWireSlave{}
	out := port.NewMaster(owner, "out")
	in := port.NewSlave(fakeOwner("/root/b"), "in", slave, nil)
	mustBind(t, out, in)
	m := NewWireMaster(out)
	m.Update(42)
	if slave.last != 42 {
		t.Fatalf("slave.last = %d, want 42", slave.last)
	}
}

func TestResetMaster_BroadcastsToAllSlaves(t *testing.T) {
	owner := fakeOwner("/root/a")
	s1, s2 := &fakeResetSlave{}, &fakeResetSlave{}
	out := port.NewMaster(owner, "reset_out")
	in1 := port.NewSlave(fakeOwner("/root/b"), "reset_in", s1, nil)
	in2 := port.NewSlave(fakeOwner("/root/c"), "reset_in", s2, nil)
	if err := port.SymbolicBind(out, in1); err != nil {
		t.Fatal(err)
	}
	if err := port.SymbolicBind(out, in2); err != nil {
		t.Fatal(err)
	}
	if err := port.FinalBind(out); err != nil {
		t.Fatal(err)
	}
	NewResetMaster(out).Update(true)
	if !s1.active || !s2.active {
		t.Fatal("reset not broadcast to all slaves")
	}
}

func TestClockMaster_RegisterAndSetFrequency(t *testing.T) {
	owner := fakeOwner("/root/a")
	slave := &fakeClockSlave{}
	out := port.NewMaster(owner, "clk_out")
	in := port.NewSlave(fakeOwner("/root/b"), "clk_in", slave, nil)
	mustBind(t, out, in)
	ce := clock.NewClockEngine("C", 1e6)
	m := NewClockMaster(out)
	m.Register(ce)
	m.SetFrequency(2e6)
	if slave.engine != ce {
		t.Fatal("engine not registered on slave")
	}
	if slave.hz != 2e6 {
		t.Fatalf("slave.hz = %v, want 2e6", slave.hz)
	}
}

func mustBind(t *testing.T, src, dst *port.Port) {
	t.Helper()
	if err := port.SymbolicBind(src, dst); err != nil {
		t.Fatalf("SymbolicBind: %v", err)
	}
	if err := port.FinalBind(src); err != nil {
		t.Fatalf("FinalBind: %v", err)
	}
}
