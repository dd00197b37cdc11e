// Package register implements the reset-aware register cells (C7):
// width-tagged storage of 1, 8, 16, 32 or 64 bits, with reset-inert cells
// (nil reset value) retaining their content across a reset pulse.
package register

import (
	"fmt"

	"github.com/vplatform/vpsim/pkg/util"
)

// Width is the cell's storage width in bits.
type Width int

const (
	Width1  Width = 1
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) mask() uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

func validWidth(w Width) bool {
	switch w {
	case Width1, Width8, Width16, Width32, Width64:
		return true
	default:
		return false
	}
}

// Owner is the minimal context a Cell needs to tag trace log lines — any
// component satisfies it via its Path() method.
type Owner interface {
	Path() string
}

// Cell is a single reset-aware register. Zero value is unusable; use New.
type Cell struct {
	owner       Owner
	name        string
	width       Width
	resetValue  uint64
	hasReset    bool
	current     uint64
}

// New creates a cell of the given width. If resetValue is nil the cell is
// reset-inert: it retains its value across reset transitions.
func New(owner Owner, name string, width Width, resetValue *uint64) (*Cell, error) {
	if !validWidth(width) {
		return nil, &util.AssertionError{Path: owner.Path(), Message: fmt.Sprintf("register %q: invalid width %d", name, width)}
	}
	c := &Cell{owner: owner, name: name, width: width}
	if resetValue != nil {
		c.hasReset = true
		c.resetValue = *resetValue & width.mask()
		c.current = c.resetValue
	}
	return c, nil
}

// Name returns the register's name.
func (c *Cell) Name() string { return c.name }

// Width returns the register's storage width.
func (c *Cell) Width() Width { return c.width }

// Reset applies or releases the reset pulse. On the active transition, if
// the cell has a reset value its current value is restored; reset-inert
// cells (no reset value) are left untouched in either direction.
func (c *Cell) Reset(active bool) {
	if !active || !c.hasReset {
		return
	}
	c.current = c.resetValue
}

// Read returns the current value.
func (c *Cell) Read() uint64 {
	return c.current
}

// Write stores value (masked to the cell's width) and emits a debug trace
// line. If the owner implements the dpi_chip_wrapper-style trace hook
// (TraceRegisterWrite(name string, value uint64)), it is notified too.
func (c *Cell) Write(value uint64) {
	c.current = value & c.width.mask()
	util.WithComponent(c.owner.Path()).WithField("register", c.name).
		Debugf("write 0x%x", c.current)
	if t, ok := c.owner.(interface{ TraceRegisterWrite(string, uint64) }); ok {
		t.TraceRegisterWrite(c.name, c.current)
	}
}
