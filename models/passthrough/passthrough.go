// Package passthrough implements utils.composite_impl, the default
// vp_component every config node gets when it declares none explicitly
// (§6): a pure composite with no behavior of its own beyond the ports and
// bindings the declarative config and its Build hook declare. Grounded on
// original_source/models/utils/composite_impl.cpp, which likewise carries
// no logic beyond what the generic component base already provides.
package passthrough

import "github.com/vplatform/vpsim/pkg/component"

func init() {
	component.Register("utils.composite_impl", Make)
}

// Passthrough is the composite-only model: the generic Component is its
// entire state.
type Passthrough struct {
	*component.Component
}

// Make is the factory the loader/static-registry resolves for
// "utils.composite_impl". base is already fully constructed (name, path,
// parent linkage) by NewComponent; Passthrough only needs to wrap it.
func Make(base *component.Component, conf component.ComponentConf) (component.Model, error) {
	return &Passthrough{Component: base}, nil
}
