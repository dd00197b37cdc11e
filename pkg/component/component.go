// Package component implements the Component Base (C3): the hierarchical
// tree node every model embeds, bundling its config subtree, master/slave/
// virtual ports, registers, its clock domain (if any), and the build and
// reset state machines the kernel drives it through.
//
// Components are linked by plain parent pointers, the way the teacher's
// node.Node holds its children directly rather than through an arena of
// handles: the spec's handle-indirection guidance addresses a C++
// dangling-pointer hazard under non-deterministic teardown order that Go's
// garbage collector simply does not have, so a direct pointer tree is kept.
package component

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vplatform/vpsim/pkg/clock"
	"github.com/vplatform/vpsim/pkg/config"
	"github.com/vplatform/vpsim/pkg/loader"
	"github.com/vplatform/vpsim/pkg/port"
	"github.com/vplatform/vpsim/pkg/register"
	"github.com/vplatform/vpsim/pkg/service"
	"github.com/vplatform/vpsim/pkg/util"
)

// resetState tracks a component's position in the §4.3 reset arbitration
// state machine.
type resetState int

const (
	resetIdle resetState = iota
	resetPendingFromParent
	resetDoneFromItf
)

// Model is what every leaf or composite factory returns: a Component plus
// whatever model-specific behavior it implements (handlers registered on its
// own slave ports, a Build hook to add children, etc). A model embeds
// *Component (pointer, not value) so Base() returns the very instance
// NewComponent already attached to its parent, rather than a diverging
// copy.
type Model interface {
	// Base returns the Component NewComponent constructed for this model,
	// so the kernel can drive the generic lifecycle without knowing the
	// concrete model type.
	Base() *Component
}

// Factory builds a Model given the Component NewComponent already
// constructed for it (name, path, parent linkage all resolved) plus the
// original ComponentConf for access to config/env/services. Matches the ABI
// the loader resolves: a module exports a symbol named "Make" of this type,
// or the legacy "MakeLegacy" (see Resolve).
type Factory func(base *Component, conf ComponentConf) (Model, error)

// ComponentConf is what a factory receives: this component's own config
// subtree, the full document root (for spec-wide lookups), its computed
// tree path, and the environment needed to resolve child modules.
type ComponentConf struct {
	Self   *config.Node
	Root   *config.Node
	Path   string
	Env    loader.Env
	Parent *Component
	Svc    *service.Registry
}

// Component is the generic base every model embeds by pointer:
//
//	type MyLeaf struct {
//	    *component.Component
//	    ...model state...
//	}
func (c *Component) Base() *Component { return c }

// Component holds the generic, model-agnostic state of one tree node.
type Component struct {
	mu sync.Mutex

	name   string
	path   string
	parent *Component

	self *config.Node
	root *config.Node
	env  loader.Env
	svc  *service.Registry

	children    []*Component
	childByName map[string]*Component

	masterPorts  map[string]*port.Port
	slavePorts   map[string]*port.Port
	virtualPorts map[string]*port.Port

	registers []*register.Cell

	clockEngine   *clock.ClockEngine
	pendingEvents []*clock.Event

	built      bool
	reset      resetState
	resetHooks []func(active bool)

	tracer Tracer
}

// Tracer is the Go analogue of the original's dpi_chip_wrapper external
// hook: an optional observer notified of register writes and interface
// calls, for bridging to waveform/trace tooling outside this module's
// scope. pkg/register and pkg/iface invoke it through a structural
// assertion on port.Owner/register.Owner, so neither package imports this
// one.
type Tracer interface {
	TraceRegisterWrite(regName string, value uint64)
	TraceInterfaceCall(portName string)
}

// SetTracer installs t as this component's trace hook, or clears it if nil.
func (c *Component) SetTracer(t Tracer) { c.tracer = t }

// TraceRegisterWrite satisfies the structural hook register.Cell.Write
// looks for on its owner; forwards to the installed Tracer if any.
func (c *Component) TraceRegisterWrite(regName string, value uint64) {
	if c.tracer != nil {
		c.tracer.TraceRegisterWrite(regName, value)
	}
}

// TraceInterfaceCall satisfies the structural hook iface call wrappers look
// for on a port's owner; forwards to the installed Tracer if any.
func (c *Component) TraceInterfaceCall(portName string) {
	if c.tracer != nil {
		c.tracer.TraceInterfaceCall(portName)
	}
}

// New initializes a freshly allocated Component's generic fields. Called by
// NewComponent for every tree node, including the root.
func New(conf ComponentConf, name string) *Component {
	path := name
	if conf.Parent != nil {
		path = strings.TrimSuffix(conf.Parent.Path(), "/") + "/" + name
	}
	return &Component{
		name:         name,
		path:         path,
		parent:       conf.Parent,
		self:         conf.Self,
		root:         conf.Root,
		env:          conf.Env,
		svc:          conf.Svc,
		childByName:  make(map[string]*Component),
		masterPorts:  make(map[string]*port.Port),
		slavePorts:   make(map[string]*port.Port),
		virtualPorts: make(map[string]*port.Port),
	}
}

// Path satisfies port.Owner and register.Owner.
func (c *Component) Path() string { return c.path }

// Name returns the component's own leaf name within its parent.
func (c *Component) Name() string { return c.name }

// Parent returns the owning component, or nil for the root.
func (c *Component) Parent() *Component { return c.parent }

// Config returns this component's own config subtree.
func (c *Component) Config() *config.Node { return c.self }

// Services returns the shared service registry.
func (c *Component) Services() *service.Registry { return c.svc }

// ClockEngine returns the clock domain registered on this component, if any.
func (c *Component) ClockEngine() *clock.ClockEngine { return c.clockEngine }

// SetClockEngine installs this component's own clock domain. Called either
// directly by a leaf model that owns a clock source, or by the ClockSlave
// adapter when a clock-distribution port delivers one.
func (c *Component) SetClockEngine(ce *clock.ClockEngine) { c.clockEngine = ce }

// AddChild registers an already-constructed child component, attaching it
// to the tree. Returns an error if the name collides with an existing
// child (§6 — component names are unique within a parent, same as ports).
func (c *Component) AddChild(child *Component) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.childByName[child.name]; exists {
		return &util.AssertionError{Path: c.path, Message: fmt.Sprintf("duplicate child component name %q", child.name)}
	}
	c.children = append(c.children, child)
	c.childByName[child.name] = child
	return nil
}

// Children returns the direct child components, in construction order.
func (c *Component) Children() []*Component { return c.children }

// GetComponent resolves a "/"-separated path relative to this component,
// honoring the same "*"/"**" wildcard semantics as config.Node.Get: "*"
// matches exactly one level, "**" zero or more, first pre-order match wins.
func (c *Component) GetComponent(path string) *Component {
	if path == "" {
		return c
	}
	return c.getPath(strings.Split(path, "/"))
}

func (c *Component) getPath(segs []string) *Component {
	if c == nil {
		return nil
	}
	if len(segs) == 0 {
		return c
	}
	seg, rest := segs[0], segs[1:]
	switch seg {
	case "**":
		if r := c.getPath(rest); r != nil {
			return r
		}
		for _, child := range c.children {
			deeper := append([]string{"**"}, rest...)
			if r := child.getPath(deeper); r != nil {
				return r
			}
		}
		return nil
	case "*":
		for _, child := range c.children {
			if r := child.getPath(rest); r != nil {
				return r
			}
		}
		return nil
	default:
		child, ok := c.childByName[seg]
		if !ok {
			return nil
		}
		return child.getPath(rest)
	}
}

// NewMasterPort creates and registers a master port owned by this
// component. Duplicate names within the same port namespace are rejected
// (open question #1: the kernel refuses silent shadowing of a declared
// port; use ReplacePort to intentionally swap one out, e.g. during test
// fixture setup).
func (c *Component) NewMasterPort(name string) (*port.Port, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.masterPorts[name]; exists {
		return nil, &util.AssertionError{Path: c.path, Message: fmt.Sprintf("duplicate master port name %q", name)}
	}
	p := port.NewMaster(c, name)
	c.masterPorts[name] = p
	return p, nil
}

// NewSlavePort creates and registers a slave port owned by this component,
// exposing vtable as its interface dispatch target. context defaults to the
// component itself when nil.
func (c *Component) NewSlavePort(name string, vtable interface{}, context interface{}) (*port.Port, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.slavePorts[name]; exists {
		return nil, &util.AssertionError{Path: c.path, Message: fmt.Sprintf("duplicate slave port name %q", name)}
	}
	if context == nil {
		context = c
	}
	p := port.NewSlave(c, name, vtable, context)
	c.slavePorts[name] = p
	return p, nil
}

// NewVirtualPort creates and registers a virtual (renaming) port — used by
// composite components to expose a named alias for a descendant's port.
func (c *Component) NewVirtualPort(name string) (*port.Port, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.virtualPorts[name]; exists {
		return nil, &util.AssertionError{Path: c.path, Message: fmt.Sprintf("duplicate virtual port name %q", name)}
	}
	p := port.NewVirtual(c, name)
	c.virtualPorts[name] = p
	return p, nil
}

// ReplacePort forcibly installs p under name in whichever of the three port
// maps matches p.Role(), overwriting any existing entry — the escape hatch
// open question #1 calls for when a test fixture or dynamic reconfiguration
// genuinely needs to replace a previously declared port.
func (c *Component) ReplacePort(name string, p *port.Port) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch p.Role() {
	case port.RoleMaster:
		c.masterPorts[name] = p
	case port.RoleSlave:
		c.slavePorts[name] = p
	case port.RoleVirtual:
		c.virtualPorts[name] = p
	}
}

// Port resolves name against all three port namespaces (master, slave,
// virtual, in that order) — used by the binding-string resolver, where a
// "compname->portname" endpoint may name any of the three.
func (c *Component) Port(name string) (*port.Port, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.masterPorts[name]; ok {
		return p, true
	}
	if p, ok := c.slavePorts[name]; ok {
		return p, true
	}
	if p, ok := c.virtualPorts[name]; ok {
		return p, true
	}
	return nil, false
}

// MasterPorts returns every declared master port.
func (c *Component) MasterPorts() map[string]*port.Port { return c.masterPorts }

// VirtualPorts returns every declared virtual port.
func (c *Component) VirtualPorts() map[string]*port.Port { return c.virtualPorts }

// NewRegister creates and attaches a reset-aware register cell.
func (c *Component) NewRegister(name string, width register.Width, resetValue *uint64) (*register.Cell, error) {
	cell, err := register.New(c, name, width, resetValue)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.registers = append(c.registers, cell)
	c.mu.Unlock()
	return cell, nil
}

// AddResetHook registers a callback invoked on every reset transition, in
// addition to the component's registers resetting automatically.
func (c *Component) AddResetHook(fn func(active bool)) {
	c.mu.Lock()
	c.resetHooks = append(c.resetHooks, fn)
	c.mu.Unlock()
}

// TrackEvent records ev as outstanding on this component's clock domain so a
// subsequent active reset can cancel it (§4.3, "cancels pending clock
// events"). A model calls this immediately after ClockEngine().Enqueue — see
// models/example/wirecounter for the pattern. Events that fire normally are
// dropped from the list lazily, at the next reset, rather than tracked back
// out on completion; Cancel is a harmless no-op against an event that has
// already fired.
func (c *Component) TrackEvent(ev *clock.Event) {
	c.mu.Lock()
	c.pendingEvents = append(c.pendingEvents, ev)
	c.mu.Unlock()
}

// Built reports whether Build has already run (§4.1 idempotence guard).
func (c *Component) Built() bool { return c.built }

// MarkBuilt flips the idempotence guard; a model's Build hook calls this
// once it has finished declaring children, ports and bindings.
func (c *Component) MarkBuilt() { c.built = true }

// ResetAll drives the §4.3 reset arbitration state machine. Trigger B
// (fromItf=true, an interface-driven reset port) always marks this node
// resetDoneFromItf and resets it unconditionally. Trigger A (fromItf=false,
// the ambient top-down sweep) is suppressed for this node alone — its
// registers, hooks and pending clock events are left untouched — when the
// node already carries resetDoneFromItf from a prior Trigger B call, so a
// model wired to reset via an interface port is not double-reset by the
// top-level harness; either way the call still recurses into every child
// with fromItf=false. A non-suppressed active reset also cancels every
// clock event this node has TrackEvent'd since its last reset.
func (c *Component) ResetAll(active bool, fromItf bool) {
	c.mu.Lock()
	suppressed := !fromItf && c.reset == resetDoneFromItf
	switch {
	case fromItf:
		c.reset = resetDoneFromItf
	case !suppressed && active:
		c.reset = resetPendingFromParent
	case !suppressed && !active:
		c.reset = resetIdle
	}

	var regs []*register.Cell
	var hooks []func(active bool)
	var pending []*clock.Event
	ce := c.clockEngine
	if !suppressed {
		regs = append([]*register.Cell(nil), c.registers...)
		hooks = append([]func(active bool){}, c.resetHooks...)
		pending = c.pendingEvents
		c.pendingEvents = nil
	}
	children := append([]*Component(nil), c.children...)
	c.mu.Unlock()

	if !suppressed {
		for _, r := range regs {
			r.Reset(active)
		}
		for _, h := range hooks {
			h(active)
		}
		if active && ce != nil {
			for _, ev := range pending {
				ce.Cancel(ev)
			}
		}
	}
	for _, child := range children {
		child.ResetAll(active, false)
	}
}

// ThrowError reports a fatal, path-tagged assertion failure — the Go
// equivalent of the original's vp_assert_always abort path, returned to the
// caller instead of aborting the process.
func (c *Component) ThrowError(format string, args ...interface{}) error {
	return &util.AssertionError{Path: c.path, Message: fmt.Sprintf(format, args...)}
}

// resetSlave adapts a Component to the iface.ResetHandler contract
// (UpdateReset(bool)) structurally, without this package importing pkg/iface.
type resetSlave struct{ c *Component }

// NewResetSlave wraps c as a reset-port vtable target.
func NewResetSlave(c *Component) interface{ UpdateReset(bool) } {
	return &resetSlave{c: c}
}

func (r *resetSlave) UpdateReset(active bool) { r.c.ResetAll(active, true) }

// clockSlave adapts a Component to the iface.ClockHandler contract.
type clockSlave struct{ c *Component }

// NewClockSlave wraps c as a clock-distribution-port vtable target.
func NewClockSlave(c *Component) interface {
	RegisterClock(*clock.ClockEngine)
	SetClockFrequency(float64)
} {
	return &clockSlave{c: c}
}

// RegisterClock installs ce as r.c's clock domain and, when a "time" service
// is published (the kernel always publishes one — see pkg/kernel.New),
// registers ce with it so the global time engine actually steps this domain
// forward. A clock engine distributed to several sibling components over the
// same clock-distribution port reaches this method once per sibling; the
// time engine's own Register is idempotent per *clock.ClockEngine, so only
// the first call has any effect.
func (r *clockSlave) RegisterClock(ce *clock.ClockEngine) {
	r.c.SetClockEngine(ce)
	if r.c.svc == nil {
		return
	}
	if h, err := r.c.svc.Get("time"); err == nil {
		if te, ok := h.(*clock.TimeEngine); ok {
			te.Register(ce)
		}
	}
}
func (r *clockSlave) SetClockFrequency(hz float64) {
	if r.c.clockEngine != nil {
		r.c.clockEngine.SetFrequency(hz)
	}
}
