// Package iface implements the typed Interface Dispatch layer (C5): the
// IO, Wire, Clock and Reset vtables a slave port exposes, and the
// master-side call wrappers that fan out to every finally-bound slave.
//
// Handlers are plain Go interfaces matched structurally: a component never
// needs to import this package to satisfy ResetHandler or ClockHandler, it
// just needs a method with the right signature (see pkg/component's
// resetSlave/clockSlave adapters), the same way the original dispatched
// through a bare vtable pointer rather than a named base class.
package iface

import (
	"github.com/vplatform/vpsim/pkg/clock"
	"github.com/vplatform/vpsim/pkg/port"
)

// Status is the outcome of a single IO call.
type Status int

const (
	StatusOK Status = iota
	StatusInvalid
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalid:
		return "INVALID"
	case StatusPending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// IOResponse carries completion data back for a request that returned
// StatusPending at call time.
type IOResponse struct {
	Latency uint64
}

// IORequest is a single memory-style access crossing an IO port.
type IORequest struct {
	Addr       uint64
	Size       uint64
	Data       []byte
	IsWrite    bool
	LatencyAcc uint64
	Response   *IOResponse
}

// IOHandler is the vtable a slave IO port implements.
type IOHandler interface {
	HandleIO(req *IORequest) Status
}

// WireHandler is the vtable a slave wire port implements.
type WireHandler interface {
	UpdateWire(value int64)
}

// ClockHandler is the vtable a slave clock port implements — used by
// clock-distribution components (dividers, PLLs) to receive a clock engine
// and subsequent frequency changes.
type ClockHandler interface {
	RegisterClock(engine *clock.ClockEngine)
	SetClockFrequency(hz float64)
}

// ResetHandler is the vtable a slave reset port implements; a reset update
// triggers the owning component's interface-driven reset arbitration (§4.3
// Trigger B).
type ResetHandler interface {
	UpdateReset(active bool)
}

// IOMaster wraps a master IO port for typed calls.
type IOMaster struct{ p *port.Port }

// NewIOMaster builds an IO call wrapper over p.
func NewIOMaster(p *port.Port) *IOMaster { return &IOMaster{p: p} }

// Call dispatches req to every finally-bound slave. A port that was never
// finalized returns INVALID (§7 error handling: interface-on-unbound-port is
// never fatal). A finalized port bound to zero slaves returns OK with zero
// latency — a legal fan-out-to-nothing. When bound to several slaves the
// request is delivered to all of them; PENDING takes precedence over
// INVALID, which takes precedence over OK, in the status returned to the
// caller.
func (m *IOMaster) Call(req *IORequest) Status {
	trace(m.p)
	if !m.p.Bound() {
		return StatusInvalid
	}
	slaves := m.p.FinalSlaves()
	if len(slaves) == 0 {
		return StatusOK
	}
	result := StatusOK
	for _, s := range slaves {
		h, ok := s.VTable().(IOHandler)
		if !ok {
			continue
		}
		switch h.HandleIO(req) {
		case StatusPending:
			result = StatusPending
		case StatusInvalid:
			if result == StatusOK {
				result = StatusInvalid
			}
		}
	}
	return result
}

// WireMaster wraps a master wire port.
type WireMaster struct{ p *port.Port }

// NewWireMaster builds a wire call wrapper over p.
func NewWireMaster(p *port.Port) *WireMaster { return &WireMaster{p: p} }

// Update delivers value to every finally-bound slave. Calling through an
// unbound port, or one bound to zero slaves, is a silent no-op.
func (m *WireMaster) Update(value int64) {
	trace(m.p)
	if !m.p.Bound() {
		return
	}
	for _, s := range m.p.FinalSlaves() {
		if h, ok := s.VTable().(WireHandler); ok {
			h.UpdateWire(value)
		}
	}
}

// trace notifies p's owner of an interface call if it implements the
// dpi_chip_wrapper-style hook (TraceInterfaceCall(portName string)) —
// checked structurally so this package never imports pkg/component.
func trace(p *port.Port) {
	if t, ok := p.Owner().(interface{ TraceInterfaceCall(string) }); ok {
		t.TraceInterfaceCall(p.Name())
	}
}

// ClockMaster wraps a master clock-distribution port.
type ClockMaster struct{ p *port.Port }

// NewClockMaster builds a clock call wrapper over p.
func NewClockMaster(p *port.Port) *ClockMaster { return &ClockMaster{p: p} }

// Register delivers engine to every finally-bound slave's RegisterClock.
func (m *ClockMaster) Register(engine *clock.ClockEngine) {
	trace(m.p)
	if !m.p.Bound() {
		return
	}
	for _, s := range m.p.FinalSlaves() {
		if h, ok := s.VTable().(ClockHandler); ok {
			h.RegisterClock(engine)
		}
	}
}

// SetFrequency broadcasts a frequency change to every finally-bound slave.
func (m *ClockMaster) SetFrequency(hz float64) {
	trace(m.p)
	if !m.p.Bound() {
		return
	}
	for _, s := range m.p.FinalSlaves() {
		if h, ok := s.VTable().(ClockHandler); ok {
			h.SetClockFrequency(hz)
		}
	}
}

// ResetMaster wraps a master reset-distribution port.
type ResetMaster struct{ p *port.Port }

// NewResetMaster builds a reset call wrapper over p.
func NewResetMaster(p *port.Port) *ResetMaster { return &ResetMaster{p: p} }

// Update broadcasts the reset pulse to every finally-bound slave.
func (m *ResetMaster) Update(active bool) {
	trace(m.p)
	if !m.p.Bound() {
		return
	}
	for _, s := range m.p.FinalSlaves() {
		if h, ok := s.VTable().(ResetHandler); ok {
			h.UpdateReset(active)
		}
	}
}
