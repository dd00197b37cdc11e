// Package wirecounter is a small demo leaf model exercising the Wire,
// Clock and Reset interfaces together with a memory-style IO port whose
// writes complete asynchronously via a registered clock callback N cycles
// later, the pattern component.cpp's reset_all shows tracking its own
// clock_event list (this->events) so a reset can cancel whatever is still
// in flight; the multi-named-port pattern spatz.cpp shows for a component
// owning one sub-port per signal line is also followed here. Used by the
// kernel's own tests.
package wirecounter

import (
	"github.com/vplatform/vpsim/pkg/clock"
	"github.com/vplatform/vpsim/pkg/component"
	"github.com/vplatform/vpsim/pkg/iface"
	"github.com/vplatform/vpsim/pkg/register"
)

func init() {
	component.Register("example.wirecounter", Make)
}

// writeLatencyCycles is how many cycles after a write the IO port's
// response becomes ready, when a clock engine is available.
const writeLatencyCycles = 4

// Counter is a leaf model: every wire pulse on its "in" port increments a
// register, a reset on "reset_in" zeroes it (the register is *not*
// reset-inert), its "mem" IO port answers reads with OK (the request's Data
// is left untouched; the count is read through Count) and completes writes
// asynchronously once a clock is registered, and "clk_in" is where
// a parent's clock-distribution port delivers that clock engine.
type Counter struct {
	*component.Component

	count *register.Cell
}

// Make constructs a Counter leaf.
func Make(base *component.Component, conf component.ComponentConf) (component.Model, error) {
	c := &Counter{Component: base}

	var resetVal uint64
	cell, err := base.NewRegister("count", register.Width32, &resetVal)
	if err != nil {
		return nil, err
	}
	c.count = cell

	if _, err := base.NewSlavePort("reset_in", component.NewResetSlave(base), nil); err != nil {
		return nil, err
	}
	if _, err := base.NewSlavePort("in", &wireHandler{c: c}, nil); err != nil {
		return nil, err
	}
	if _, err := base.NewSlavePort("clk_in", component.NewClockSlave(base), nil); err != nil {
		return nil, err
	}
	if _, err := base.NewSlavePort("mem", &ioHandler{c: c}, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// Count returns the current counter value.
func (c *Counter) Count() uint64 { return c.count.Read() }

type wireHandler struct{ c *Counter }

func (w *wireHandler) UpdateWire(value int64) {
	w.c.count.Write(w.c.count.Read() + 1)
}

type ioHandler struct{ c *Counter }

// HandleIO answers reads synchronously with StatusOK, without filling in
// req.Data, and defers write completion to the registered clock engine, when
// one is present and req.Response is set, by
// writeLatencyCycles — mirroring a timing model that cannot complete a
// request within the same cycle it was issued. The event is handed to
// TrackEvent so a reset pulse arriving before it fires cancels it instead of
// letting it complete the count increment after the "reset".
func (h *ioHandler) HandleIO(req *iface.IORequest) iface.Status {
	if !req.IsWrite {
		return iface.StatusOK
	}
	ce := h.c.ClockEngine()
	if ce == nil || req.Response == nil {
		h.c.count.Write(h.c.count.Read() + 1)
		return iface.StatusOK
	}
	ev := clock.NewEvent(func(interface{}) {
		h.c.count.Write(h.c.count.Read() + 1)
		req.Response.Latency = writeLatencyCycles
	}, nil)
	ce.Enqueue(ev, writeLatencyCycles)
	h.c.TrackEvent(ev)
	return iface.StatusPending
}
