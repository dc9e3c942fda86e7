package frontend

import (
	"go.uber.org/zap"

	"github.com/jward/asg"
)

// ResolveStats counts the links made by name resolution.
type ResolveStats struct {
	References int `json:"references" yaml:"references"`
	Invokes    int `json:"invokes" yaml:"invokes"`
	Calls      int `json:"calls" yaml:"calls"`
	Extends    int `json:"extends" yaml:"extends"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
}

// resolver links names to declarations by walking outwards through the
// enclosing Method, Class and Package scopes, then falling back to
// declarations anywhere in the graph.
type resolver struct {
	f      *asg.Factory
	logger *zap.Logger
	scopes map[asg.NodeID]map[string][]asg.Named
	global map[string][]asg.Named
	stats  ResolveStats
}

func newResolver(f *asg.Factory, logger *zap.Logger) *resolver {
	return &resolver{
		f:      f,
		logger: logger,
		scopes: make(map[asg.NodeID]map[string][]asg.Named),
		global: make(map[string][]asg.Named),
	}
}

// resolve links Identifier.RefersTo, Call.Invokes, Method.Calls and
// Class.Extends.
func resolve(f *asg.Factory, bases []baseRef, logger *zap.Logger) ResolveStats {
	r := newResolver(f, logger)

	var idents []*asg.Identifier
	var calls []*asg.Call
	collect := &asg.FuncVisitor{Enter: func(n asg.Node) {
		switch n := n.(type) {
		case *asg.Identifier:
			idents = append(idents, n)
		case *asg.Call:
			calls = append(calls, n)
		case *asg.Package:
		case asg.Named:
			r.declare(n)
		}
	}}
	asg.NewPreorder().Run(f, collect)

	for _, id := range idents {
		r.reference(id)
	}
	for _, c := range calls {
		r.call(c)
	}
	for _, b := range bases {
		r.extends(b)
	}
	logger.Debug("resolved names",
		zap.Int("references", r.stats.References),
		zap.Int("invokes", r.stats.Invokes),
		zap.Int("calls", r.stats.Calls),
		zap.Int("extends", r.stats.Extends),
		zap.Int("unresolved", r.stats.Unresolved))
	return r.stats
}

// scopeOf returns the nearest Method, Class or Package at or above n.
func scopeOf(n asg.Node) asg.Node {
	for ; n != nil; n = n.Parent() {
		switch n.Kind() {
		case asg.KindMethod, asg.KindClass, asg.KindPackage:
			return n
		}
	}
	return nil
}

func (r *resolver) declare(n asg.Named) {
	name := n.Name()
	if name == "" || name == "<lambda>" {
		return
	}
	s := scopeOf(n.Parent())
	if s == nil {
		return
	}
	m := r.scopes[s.ID()]
	if m == nil {
		m = make(map[string][]asg.Named)
		r.scopes[s.ID()] = m
	}
	m[name] = append(m[name], n)

	// locals and parameters stay out of the global table
	if s.Kind() != asg.KindMethod {
		r.global[name] = append(r.global[name], n)
	}
}

func wantKind(cands []asg.Named, pred func(asg.Named) bool) []asg.Named {
	var out []asg.Named
	for _, c := range cands {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func callable(n asg.Named) bool {
	k := n.Kind()
	return k == asg.KindMethod || k == asg.KindClass
}

// lookup returns the candidates for name visible from n, nearest scope
// first.
func (r *resolver) lookup(n asg.Node, name string, pred func(asg.Named) bool) (cands []asg.Named, local bool) {
	for s := scopeOf(n.Parent()); s != nil; s = scopeOf(s.Parent()) {
		if c := wantKind(r.scopes[s.ID()][name], pred); len(c) > 0 {
			return c, true
		}
	}
	return wantKind(r.global[name], pred), false
}

func isCallee(id *asg.Identifier) bool {
	return id.ParentEdge() == asg.EdgeCallCallee
}

func (r *resolver) reference(id *asg.Identifier) {
	pred := func(asg.Named) bool { return true }
	if isCallee(id) {
		pred = callable
	}
	cands, local := r.lookup(id, id.Name(), pred)
	// a global name is only trusted when unambiguous
	if len(cands) == 0 || (!local && len(cands) > 1) {
		r.stats.Unresolved++
		return
	}
	if err := id.SetRefersTo(cands[0]); err != nil {
		r.logger.Debug("refers-to rejected", zap.Uint32("id", uint32(id.ID())), zap.Error(err))
		return
	}
	r.stats.References++
}

// enclosingMethod returns the Method whose body holds n.
func enclosingMethod(n asg.Node) *asg.Method {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if m, ok := p.(*asg.Method); ok {
			return m
		}
	}
	return nil
}

// constructorOf returns the first constructor declared in cls.
func constructorOf(cls *asg.Class) *asg.Method {
	for _, m := range cls.Members() {
		if mm, ok := m.(*asg.Method); ok && mm.MethodKind() == asg.MethodKindConstructor {
			return mm
		}
	}
	return nil
}

func (r *resolver) call(c *asg.Call) {
	id, ok := c.Callee().(*asg.Identifier)
	if !ok {
		return
	}

	var targets []*asg.Method
	kind := asg.CallKindDirect
	switch ref := id.RefersTo().(type) {
	case *asg.Method:
		targets = append(targets, ref)
		if ref.MethodKind() == asg.MethodKindMethod && !ref.IsStatic() {
			kind = asg.CallKindVirtual
		}
	case *asg.Class:
		if ctor := constructorOf(ref); ctor != nil {
			targets = append(targets, ctor)
		}
	case nil:
		// several global methods share the name
		for _, n := range wantKind(r.global[id.Name()], func(n asg.Named) bool { return n.Kind() == asg.KindMethod }) {
			targets = append(targets, n.(*asg.Method))
		}
		kind = asg.CallKindDynamic
	}
	if len(targets) == 0 {
		return
	}
	if len(targets) == 1 {
		if err := c.SetInvokes(targets[0]); err == nil {
			r.stats.Invokes++
		}
	}

	caller := enclosingMethod(c)
	if caller == nil {
		return
	}
	for _, t := range targets {
		if calls(caller, t) {
			continue
		}
		if err := caller.AddCall(t, kind); err == nil {
			r.stats.Calls++
		}
	}
}

func calls(caller, callee *asg.Method) bool {
	for _, e := range caller.Calls() {
		if e.Method.ID() == callee.ID() {
			return true
		}
	}
	return false
}

func (r *resolver) extends(b baseRef) {
	n, err := r.f.Node(b.Class)
	if err != nil {
		return
	}
	cls, err := asg.As[*asg.Class](n)
	if err != nil {
		return
	}
	var base *asg.Class
	for _, n := range r.global[b.Name] {
		if c, ok := n.(*asg.Class); ok && c.ID() != cls.ID() {
			base = c
			break
		}
	}
	if base == nil {
		r.stats.Unresolved++
		return
	}
	if err := cls.AddExtends(base); err == nil {
		r.stats.Extends++
	}
}
