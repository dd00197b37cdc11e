// Package kernel implements the Lifecycle Driver (C8): the ordered phases
// that take a root config document to a running simulation — parse, tree
// instantiation, build, declarative port/binding creation, bind/pre_start/
// start/final_bind, reset, run, stop/flush — and owns the global TimeEngine
// and control inbox the run phase drains between events.
package kernel

import (
	"io"
	"os"

	"github.com/vplatform/vpsim/pkg/clock"
	"github.com/vplatform/vpsim/pkg/component"
	"github.com/vplatform/vpsim/pkg/config"
	"github.com/vplatform/vpsim/pkg/control"
	"github.com/vplatform/vpsim/pkg/loader"
	"github.com/vplatform/vpsim/pkg/port"
	"github.com/vplatform/vpsim/pkg/service"
	"github.com/vplatform/vpsim/pkg/util"
)

// defaultModule is the module name a component gets when it declares no
// explicit "vp_component" (§6) — the trivial composite-passthrough model.
const defaultModule = "utils.composite_impl"

// Builder is implemented by models that need to declare children, ports or
// registers beyond what the declarative config already expresses (phase 3).
type Builder interface {
	Build() error
}

// PreStarter is implemented by models needing a pass before Start, typically
// to register a clock engine ahead of children that consume its frequency.
type PreStarter interface {
	PreStart() error
}

// Starter is implemented by models allocating port-bound resources; Start
// runs after PreStart and before FinalBind, per §4.8 step 5's ordering note.
type Starter interface {
	Start() error
}

// Stopper is implemented by models with shutdown behavior.
type Stopper interface {
	Stop() error
}

// Flusher is implemented by models that buffer output needing a final sync.
type Flusher interface {
	Flush() error
}

// Driver holds everything one simulation run needs: the built component
// tree, the merged time engine, the process-wide service registry, and the
// (possibly no-op-backed) control inbox.
type Driver struct {
	Root  *component.Component
	Model component.Model
	Time  *clock.TimeEngine
	Svc   *service.Registry
	Inbox control.Inbox
	Env   loader.Env
}

// LoadConfig reads and parses a root config document from path, or from
// stdin when path is "-".
func LoadConfig(path string) (*config.Node, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return config.Parse(r)
}

// ResolveEnv reads include_dirs and debug-mode from the global config root
// and returns the loader.Env the module loader needs (§6 build-mode tag).
func ResolveEnv(root *config.Node) loader.Env {
	var dirs []string
	if list := root.Child("include_dirs"); list != nil {
		for _, e := range list.Elements() {
			if s, err := e.AsString(); err == nil {
				dirs = append(dirs, s)
			}
		}
	}
	mode := loader.Release
	if root.Child("debug-mode").BoolOr(false) {
		mode = loader.Debug
	}
	return loader.Env{BuildMode: mode, IncludeDirs: dirs}
}

// New runs phases 1-6 of the lifecycle (parse through reset) and returns a
// Driver ready for Run. name is the root component's name, conventionally
// "root" or the topology file's basename. An optional envOverride prepends
// its IncludeDirs ahead of the config-derived ones and, if BuildMode is
// non-empty, replaces the config-derived build mode — the CLI's -I and
// --debug-mode flags feed this without requiring every caller to thread one.
func New(root *config.Node, name string, inboxArg control.Inbox, envOverride ...loader.Env) (*Driver, error) {
	env := ResolveEnv(root)
	if len(envOverride) > 0 {
		o := envOverride[0]
		env.IncludeDirs = append(append([]string{}, o.IncludeDirs...), env.IncludeDirs...)
		if o.BuildMode != "" {
			env.BuildMode = o.BuildMode
		}
	}
	svc := service.New()
	timeEngine := clock.NewTimeEngine()
	svc.Add("time", timeEngine)
	inbox := inboxArg
	if inbox == nil {
		inbox = control.NewLocalInbox(64)
	}

	conf := component.ComponentConf{Self: root, Root: root, Env: env, Svc: svc}
	className := classNameOf(root)
	model, err := component.NewComponent(conf, name, className)
	if err != nil {
		return nil, err
	}
	RegisterModel(model)
	rootComp := model.Base()

	util.WithPhase("instantiate").WithComponent(rootComp.Path()).Info("tree instantiated")

	if err := instantiateChildren(rootComp, root, root, env, svc); err != nil {
		return nil, err
	}

	if err := buildTreePostOrder(rootComp); err != nil {
		return nil, err
	}
	util.WithPhase("build").Info("build phase complete")

	if err := bindCompsBottomUp(rootComp); err != nil {
		return nil, err
	}
	util.WithPhase("bind_comps").Info("declarative ports and bindings applied")

	if err := preStartAll(rootComp); err != nil {
		return nil, err
	}
	if err := startAll(rootComp); err != nil {
		return nil, err
	}
	finalBindAll(rootComp)
	util.WithPhase("final_bind").Info("final bind complete")

	rootComp.ResetAll(true, false)
	rootComp.ResetAll(false, false)
	util.WithPhase("reset").Info("reset pulse applied and released")

	return &Driver{
		Root:  rootComp,
		Model: model,
		Time:  timeEngine,
		Svc:   svc,
		Inbox: inbox,
		Env:   env,
	}, nil
}

func classNameOf(self *config.Node) string {
	if s, err := self.Child("vp_component").AsString(); err == nil {
		return s
	}
	return defaultModule
}

func firstChild(n *config.Node, names ...string) *config.Node {
	for _, name := range names {
		if c := n.Child(name); c != nil {
			return c
		}
	}
	return nil
}

// instantiateChildren recursively creates every child named under
// "vp_comps"/"components", attaching each to parent.
func instantiateChildren(parent *component.Component, parentSelf, docRoot *config.Node, env loader.Env, svc *service.Registry) error {
	list := firstChild(parentSelf, "vp_comps", "components")
	if list == nil {
		return nil
	}
	for _, name := range list.Keys() {
		childSelf := list.Child(name)
		conf := component.ComponentConf{Self: childSelf, Root: docRoot, Env: env, Parent: parent, Svc: svc}
		className := classNameOf(childSelf)
		childModel, err := component.NewComponent(conf, name, className)
		if err != nil {
			return err
		}
		RegisterModel(childModel)
		if err := instantiateChildren(childModel.Base(), childSelf, docRoot, env, svc); err != nil {
			return err
		}
	}
	return nil
}

// buildTreePostOrder invokes each component's Builder.Build, children
// before parent, per §4.8 step 3.
func buildTreePostOrder(c *component.Component) error {
	for _, child := range c.Children() {
		if err := buildTreePostOrder(child); err != nil {
			return err
		}
	}
	if !c.Built() {
		if b, ok := modelOf(c).(Builder); ok {
			if err := b.Build(); err != nil {
				return err
			}
		}
		c.MarkBuilt()
	}
	// A component's own Build may have dynamically created further children
	// (§5 supplement: new_component remains callable during build); walk
	// any not yet built.
	for _, child := range c.Children() {
		if !child.Built() {
			if err := buildTreePostOrder(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// modelOf is a placeholder seam: components carry no back-pointer to their
// owning Model, so the driver records every model it instantiates via
// RegisterModel. Components with no registered model (e.g. children a Build
// hook creates directly through component.NewComponent) skip every optional
// hook.
func modelOf(c *component.Component) interface{} {
	return modelRegistry[c]
}

// ModelFor returns the Model registered for c, or nil if none was.
func ModelFor(c *component.Component) component.Model {
	return modelRegistry[c]
}

var modelRegistry = map[*component.Component]component.Model{}

// RegisterModel associates m with its base Component so the lifecycle
// driver can find m's optional Builder/PreStarter/Starter/Stopper/Flusher
// hooks. New and instantiateChildren call this for every model they
// construct.
func RegisterModel(m component.Model) {
	modelRegistry[m.Base()] = m
}

// bindCompsBottomUp creates this component's declarative virtual ports and
// symbolic bindings from its own config subtree, children first, so a
// parent's bindings (which may reference a child's ports) always resolve
// against an already-declared child.
func bindCompsBottomUp(c *component.Component) error {
	for _, child := range c.Children() {
		if err := bindCompsBottomUp(child); err != nil {
			return err
		}
	}
	return declarePortsAndBindings(c)
}

func declarePortsAndBindings(c *component.Component) error {
	self := c.Config()
	if portNames := firstChild(self, "vp_ports", "ports"); portNames != nil {
		for _, elem := range portNames.Elements() {
			name, err := elem.AsString()
			if err != nil {
				continue
			}
			if _, err := c.NewVirtualPort(name); err != nil {
				return err
			}
		}
	}
	bindings := firstChild(self, "vp_bindings", "bindings")
	if bindings == nil {
		return nil
	}
	for _, pair := range bindings.Elements() {
		elems := pair.Elements()
		if len(elems) != 2 {
			continue
		}
		masterStr, err := elems[0].AsString()
		if err != nil {
			return err
		}
		slaveStr, err := elems[1].AsString()
		if err != nil {
			return err
		}
		if err := applyBinding(c, masterStr, slaveStr); err != nil {
			return err
		}
	}
	return nil
}

func applyBinding(self *component.Component, masterStr, slaveStr string) error {
	mEp, err := component.ParseBindingString(masterStr)
	if err != nil {
		return err
	}
	sEp, err := component.ParseBindingString(slaveStr)
	if err != nil {
		return err
	}
	mComp, err := component.ResolveEndpoint(self, mEp)
	if err != nil {
		return err
	}
	sComp, err := component.ResolveEndpoint(self, sEp)
	if err != nil {
		return err
	}
	mPort, ok := mComp.Port(mEp.PortName)
	if !ok {
		return self.ThrowError("binding %s->%s: unknown port %q on %q", masterStr, slaveStr, mEp.PortName, mEp.CompPath)
	}
	sPort, ok := sComp.Port(sEp.PortName)
	if !ok {
		return self.ThrowError("binding %s->%s: unknown port %q on %q", masterStr, slaveStr, sEp.PortName, sEp.CompPath)
	}
	return port.SymbolicBind(mPort, sPort)
}

func preStartAll(c *component.Component) error {
	if p, ok := modelOf(c).(PreStarter); ok {
		if err := p.PreStart(); err != nil {
			return err
		}
	}
	for _, child := range c.Children() {
		if err := preStartAll(child); err != nil {
			return err
		}
	}
	return nil
}

func startAll(c *component.Component) error {
	if s, ok := modelOf(c).(Starter); ok {
		if err := s.Start(); err != nil {
			return err
		}
	}
	for _, child := range c.Children() {
		if err := startAll(child); err != nil {
			return err
		}
	}
	return nil
}

// finalBindAll walks every component and finalizes every master port found.
func finalBindAll(c *component.Component) {
	for _, p := range c.MasterPorts() {
		_ = port.FinalBind(p)
	}
	for _, child := range c.Children() {
		finalBindAll(child)
	}
}

func stopAll(c *component.Component) error {
	for _, child := range c.Children() {
		if err := stopAll(child); err != nil {
			return err
		}
	}
	if s, ok := modelOf(c).(Stopper); ok {
		if err := s.Stop(); err != nil {
			return err
		}
	}
	return nil
}

func flushAll(c *component.Component) error {
	for _, child := range c.Children() {
		if err := flushAll(child); err != nil {
			return err
		}
	}
	if f, ok := modelOf(c).(Flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the time engine until it requests a stop or has no more
// events, draining the control inbox between every step — "well-defined
// safe points (between events at a given timestamp)" per §5 — then runs
// stop_all/flush_all (phase 8).
func (d *Driver) Run() error {
	util.WithPhase("run").Info("simulation started")
	for !d.Time.StopRequested() && d.Time.Step() {
		for _, req := range d.Inbox.Drain() {
			d.handleControl(req)
		}
	}
	util.WithPhase("run").Info("simulation ended")

	if err := stopAll(d.Root); err != nil {
		return err
	}
	if err := flushAll(d.Root); err != nil {
		return err
	}
	return d.Inbox.Close()
}

func (d *Driver) handleControl(req control.Request) {
	switch req.Kind {
	case "stop":
		d.Time.RequestStop()
	default:
		util.WithField("kind", req.Kind).Warn("unrecognized control request ignored")
	}
}
