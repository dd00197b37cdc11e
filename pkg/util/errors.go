package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds from the error handling design (§7).
var (
	ErrConfigParse            = errors.New("config parse error")
	ErrConfigLookup           = errors.New("config lookup error")
	ErrModuleNotFound         = errors.New("module not found")
	ErrModuleLoad             = errors.New("module load error")
	ErrFactoryMissing         = errors.New("factory symbol missing")
	ErrBinding                = errors.New("binding error")
	ErrInterfaceOnUnboundPort = errors.New("interface call on unbound port")
	ErrAssertion              = errors.New("assertion failure")
	ErrSimulatedTargetFault   = errors.New("simulated target fault")
)

// ConfigParseError reports a malformed JSON token stream.
type ConfigParseError struct {
	Offset  int64
	Details string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("config parse error at offset %d: %s", e.Offset, e.Details)
}

func (e *ConfigParseError) Unwrap() error { return ErrConfigParse }

// ConfigLookupError reports a typed accessor called against the wrong node kind.
type ConfigLookupError struct {
	Path     string
	Expected string
	Got      string
}

func (e *ConfigLookupError) Error() string {
	return fmt.Sprintf("config lookup %q: expected %s, got %s", e.Path, e.Expected, e.Got)
}

func (e *ConfigLookupError) Unwrap() error { return ErrConfigLookup }

// ModuleNotFoundError reports a module name unresolved against every include dir.
type ModuleNotFoundError struct {
	Name     string
	Searched []string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %q not found (searched: %s)", e.Name, strings.Join(e.Searched, ", "))
}

func (e *ModuleNotFoundError) Unwrap() error { return ErrModuleNotFound }

// ModuleLoadError reports a dlopen-equivalent failure for a module that was found.
type ModuleLoadError struct {
	Path   string
	Detail string
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("loading module %q: %s", e.Path, e.Detail)
}

func (e *ModuleLoadError) Unwrap() error { return ErrModuleLoad }

// FactoryMissingError reports neither accepted ABI symbol was found.
type FactoryMissingError struct {
	Path string
}

func (e *FactoryMissingError) Error() string {
	return fmt.Sprintf("module %q exports neither make(ComponentConf) nor make(config_node)", e.Path)
}

func (e *FactoryMissingError) Unwrap() error { return ErrFactoryMissing }

// BindingError reports a dangling or malformed symbolic binding, naming both endpoints.
type BindingError struct {
	Src     string
	Dst     string
	Details string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %s -> %s: %s", e.Src, e.Dst, e.Details)
}

func (e *BindingError) Unwrap() error { return ErrBinding }

// AssertionError reports an invariant violation, tagged with the offending component path.
type AssertionError struct {
	Path    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed at %s: %s", e.Path, e.Message)
}

func (e *AssertionError) Unwrap() error { return ErrAssertion }

// SimulatedTargetFault is raised by a model, not the kernel; it is surfaced to callers,
// never treated as a kernel-fatal error.
type SimulatedTargetFault struct {
	Path    string
	Message string
}

func (e *SimulatedTargetFault) Error() string {
	return fmt.Sprintf("simulated target fault at %s: %s", e.Path, e.Message)
}

func (e *SimulatedTargetFault) Unwrap() error { return ErrSimulatedTargetFault }
