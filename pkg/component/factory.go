package component

import (
	"fmt"
	"strings"

	"github.com/vplatform/vpsim/pkg/loader"
	"github.com/vplatform/vpsim/pkg/util"
)

// LegacyFactory is the older accepted ABI: a module exporting "MakeLegacy"
// is expected to only consult conf.Self (the raw config node) and ignore
// the rest of ComponentConf, mirroring the original's make(config_node)
// signature; the Go type is identical to Factory since base construction is
// always the kernel's responsibility.
type LegacyFactory func(base *Component, conf ComponentConf) (Model, error)

// registry is the compile-time static fallback: models linked directly into
// this binary (via blank import of their package, which calls Register in
// an init()) rather than resolved through the plugin loader. Most vpsim
// deployments use this path — plugin.Open requires the loading and loaded
// binaries to share the exact same build of every shared dependency, which
// makes it brittle across separately-versioned model repos; it remains
// available for the rare case where a model is genuinely distributed as a
// prebuilt .so.
var registry = map[string]Factory{}

// Register installs a statically-linked factory under a logical module
// name, for a models/* package's init() to call.
func Register(name string, f Factory) {
	registry[name] = f
}

// NewComponent instantiates the module named by className as a component
// called name, resolving className first against the static registry, then
// against the plugin loader using conf.Env. It builds the Component base via New, invokes the resolved
// factory, and attaches the result to conf.Parent.
func NewComponent(conf ComponentConf, name string, className string) (Model, error) {
	base := New(conf, name)

	conf = withSelfPath(conf, base)

	var m Model
	var err error
	if f, ok := registry[className]; ok {
		m, err = f(base, conf)
	} else {
		m, err = loadAndInvoke(base, conf, className)
	}
	if err != nil {
		return nil, err
	}
	if err := attach(conf, base, m); err != nil {
		return nil, err
	}
	return m, nil
}

func loadAndInvoke(base *Component, conf ComponentConf, className string) (Model, error) {
	handle, err := loader.Resolve(className, conf.Env.BuildMode, conf.Env.IncludeDirs)
	if err != nil {
		return nil, err
	}
	// Modules export "Make" as a package-level var of type Factory (not a
	// bare func) so plugin.Lookup hands back an addressable *Factory.
	if sym, err := handle.Lookup("Make"); err == nil {
		f, ok := sym.(*Factory)
		if !ok {
			return nil, &util.FactoryMissingError{Path: handle.Path}
		}
		return (*f)(base, conf)
	}
	sym, err := handle.Lookup("MakeLegacy")
	if err != nil {
		return nil, err
	}
	f, ok := sym.(*LegacyFactory)
	if !ok {
		return nil, &util.FactoryMissingError{Path: handle.Path}
	}
	return (*f)(base, conf)
}

func withSelfPath(conf ComponentConf, base *Component) ComponentConf {
	conf.Path = base.path
	return conf
}

func attach(conf ComponentConf, base *Component, m Model) error {
	if conf.Parent != nil {
		if err := conf.Parent.AddChild(base); err != nil {
			return err
		}
	}
	return nil
}

// BindingEndpoint is one resolved side of a symbolic binding: a component
// path and a port name within it.
type BindingEndpoint struct {
	CompPath string
	PortName string
}

// ParseBindingString splits a "compname->portname" binding endpoint.
// Resolves open question #3: a literal two-character "->" separator via
// strings.Cut, never an IndexAny over the individual runes '-' and '>' —
// a component or port name legitimately containing a bare '-' (e.g.
// "cpu-0") must not be misparsed as the arrow.
func ParseBindingString(s string) (BindingEndpoint, error) {
	comp, portName, ok := strings.Cut(s, "->")
	if !ok {
		return BindingEndpoint{}, fmt.Errorf("binding endpoint %q missing \"->\" separator", s)
	}
	return BindingEndpoint{CompPath: comp, PortName: portName}, nil
}

// Self is the conventional component-path token meaning "this composite",
// used on either side of a binding string to refer to its own virtual
// ports rather than a child's ports.
const Self = "self"

// ResolveEndpoint returns the component that owns the port named by ep:
// root itself when ep.CompPath is Self, or root.GetComponent(ep.CompPath)
// otherwise (an error if no such component exists). The port itself is
// looked up by the caller.
func ResolveEndpoint(root *Component, ep BindingEndpoint) (*Component, error) {
	if ep.CompPath == Self {
		return root, nil
	}
	c := root.GetComponent(ep.CompPath)
	if c == nil {
		return nil, root.ThrowError("binding references unknown component %q", ep.CompPath)
	}
	return c, nil
}
