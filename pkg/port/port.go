// Package port implements the Port & Binding Graph (C4): master, slave and
// virtual ports, the two-phase symbolic/final bind, and transitive
// resolution of master fan-out through virtual intermediaries down to
// concrete slaves.
package port

import "github.com/vplatform/vpsim/pkg/util"

// Role tags which of the three port kinds a Port is.
type Role int

const (
	RoleMaster Role = iota
	RoleSlave
	RoleVirtual
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSlave:
		return "slave"
	case RoleVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// Owner is the minimal contract a port's owning component must satisfy —
// just enough to tag error messages with a path, so this package never
// needs to import the component package.
type Owner interface {
	Path() string
}

// Port is a named endpoint on a component. Which fields are meaningful
// depends on Role: master ports use outgoing/finalSlaves, slave ports use
// vtable/context/reverse, virtual ports use target.
type Port struct {
	owner Owner
	name  string
	role  Role
	bound bool

	// master
	outgoing    []*Port // symbolic targets: virtuals and/or concrete slaves
	finalSlaves []*Port // post final-bind: concrete slaves only, duplicates preserved

	// slave
	vtable    interface{}
	context   interface{}
	reverse   []*Port // masters that resolved to this slave, for callback paths
	finalized bool
	onFinal   func()

	// virtual
	target *Port
}

// NewMaster creates a master port with no outgoing edges yet.
func NewMaster(owner Owner, name string) *Port {
	return &Port{owner: owner, name: name, role: RoleMaster}
}

// NewSlave creates a slave port exposing vtable (the interface-kind method
// table) with the given call context, defaulting context to owner when nil.
func NewSlave(owner Owner, name string, vtable interface{}, context interface{}) *Port {
	if context == nil {
		context = owner
	}
	return &Port{owner: owner, name: name, role: RoleSlave, vtable: vtable, context: context}
}

// NewVirtual creates a virtual renaming port with no forwarding target yet.
func NewVirtual(owner Owner, name string) *Port {
	return &Port{owner: owner, name: name, role: RoleVirtual}
}

func (p *Port) Name() string       { return p.name }
func (p *Port) Role() Role         { return p.role }
func (p *Port) Owner() Owner       { return p.owner }
func (p *Port) Bound() bool        { return p.bound }
func (p *Port) VTable() interface{} { return p.vtable }
func (p *Port) Context() interface{} { return p.context }

// FinalSlaves returns the master's resolved, duplicate-preserving fan-out —
// valid only after FinalBind.
func (p *Port) FinalSlaves() []*Port { return p.finalSlaves }

// Masters returns the slave's reverse links (masters bound to it) — used by
// interfaces that call back, e.g. IO responses.
func (p *Port) Masters() []*Port { return p.reverse }

// OnFinalize registers the hook invoked when this slave port is finalized
// (exactly once), e.g. to allocate port-bound resources.
func (p *Port) OnFinalize(fn func()) { p.onFinal = fn }

// SymbolicBind records a declared edge src -> dst (§4.4 step 1). src must be
// a master (dst appended to its outgoing list) or a virtual (dst becomes its
// single forwarding target, overwriting any prior one — a virtual is a
// renaming node, not a fan-out point).
func SymbolicBind(src, dst *Port) error {
	switch src.role {
	case RoleMaster:
		src.outgoing = append(src.outgoing, dst)
		return nil
	case RoleVirtual:
		src.target = dst
		return nil
	default:
		return &util.BindingError{
			Src: src.owner.Path() + "->" + src.name, Dst: dst.owner.Path() + "->" + dst.name,
			Details: "binding source must be a master or virtual port",
		}
	}
}

// FinalBind resolves a master port's transitive fan-out (§4.4 step 2): DFS
// through virtual intermediaries, collecting concrete slave ports with
// duplicates preserved (fan-out to the same slave through two virtuals means
// two deliveries, by design — see DESIGN.md open question #2). Idempotent.
// Binding to zero slaves is legal. Each resolved slave is finalized exactly
// once and records the master in its reverse link.
func FinalBind(master *Port) error {
	if master.role != RoleMaster {
		return &util.AssertionError{Path: master.owner.Path(), Message: "FinalBind called on a non-master port " + master.name}
	}
	if master.bound {
		return nil
	}
	var finals []*Port
	for _, dst := range master.outgoing {
		resolveFinal(dst, &finals)
	}
	master.finalSlaves = finals
	master.bound = true
	for _, s := range finals {
		s.reverse = append(s.reverse, master)
		s.bound = true
		if !s.finalized {
			s.finalized = true
			if s.onFinal != nil {
				s.onFinal()
			}
		}
	}
	return nil
}

func resolveFinal(p *Port, out *[]*Port) {
	if p == nil {
		return
	}
	switch p.role {
	case RoleSlave:
		*out = append(*out, p)
	case RoleVirtual:
		resolveFinal(p.target, out)
	default:
		// A master or unresolved entry reached via a dangling edge
		// contributes nothing; final fan-out simply omits it.
	}
}
