package asg

// Package groups members. Every Factory has a root Package; front ends add
// one nested Package per compilation unit.
type Package struct {
	named
	commentable
}

func (p *Package) Accept(v Visitor)    { v.VisitPackage(p) }
func (p *Package) AcceptEnd(v Visitor) { v.VisitEndPackage(p) }

// Members returns the owned members and sub-packages in insertion order.
func (p *Package) Members() []Named {
	return nodesAs[Named](p.named.f, p.named.f.targets(p.named.r, EdgePackageMembers))
}

func (p *Package) MembersSize() int {
	return len(p.named.f.targets(p.named.r, EdgePackageMembers))
}

// AddMember takes ownership of n, which must be a Member or a Package.
func (p *Package) AddMember(n Named) error {
	return p.named.f.addNode(p.named.r, EdgePackageMembers, nodeOrNil(n), 0)
}

// RemoveMember deletes n and its subtree.
func (p *Package) RemoveMember(n Named) error {
	return p.named.f.removeNode(p.named.r, EdgePackageMembers, nodeOrNil(n))
}

// NewPackage creates a detached Package.
func (f *Factory) NewPackage(name string) *Package {
	r := f.alloc(KindPackage)
	f.setString(r, AttrName, name)
	return wrap(f, r).(*Package)
}

// Class is a type declaration: class, interface, struct or enum.
type Class struct{ member }

func (c *Class) Accept(v Visitor)    { v.VisitClass(c) }
func (c *Class) AcceptEnd(v Visitor) { v.VisitEndClass(c) }

func (c *Class) ClassKind() ClassKind { return ClassKind(c.f().word(c.r(), AttrClassKind)) }

func (c *Class) SetClassKind(k ClassKind) { c.f().setWord(c.r(), AttrClassKind, uint32(k)) }

func (c *Class) IsAbstract() bool { return c.f().getBool(c.r(), AttrClassIsAbstract) }

func (c *Class) SetAbstract(v bool) { c.f().setBool(c.r(), AttrClassIsAbstract, v) }

func (c *Class) Members() []Member {
	return nodesAs[Member](c.f(), c.f().targets(c.r(), EdgeClassMembers))
}

func (c *Class) MembersSize() int { return len(c.f().targets(c.r(), EdgeClassMembers)) }

func (c *Class) AddMember(m Member) error {
	return c.f().addNode(c.r(), EdgeClassMembers, nodeOrNil(m), 0)
}

func (c *Class) RemoveMember(m Member) error {
	return c.f().removeNode(c.r(), EdgeClassMembers, nodeOrNil(m))
}

// Extends returns the base classes and implemented interfaces.
func (c *Class) Extends() []*Class {
	return nodesAs[*Class](c.f(), c.f().targets(c.r(), EdgeClassExtends))
}

func (c *Class) AddExtends(base *Class) error {
	return c.f().addNode(c.r(), EdgeClassExtends, nodeOrNil(base), 0)
}

func (c *Class) RemoveExtends(base *Class) error {
	return c.f().removeNode(c.r(), EdgeClassExtends, nodeOrNil(base))
}

// NewClass creates a detached Class.
func (f *Factory) NewClass(name string, kind ClassKind) *Class {
	r := f.alloc(KindClass)
	f.setString(r, AttrName, name)
	f.setWord(r, AttrClassKind, uint32(kind))
	return wrap(f, r).(*Class)
}

// Method is a function, method, constructor or lambda.
type Method struct{ member }

func (m *Method) Accept(v Visitor)    { v.VisitMethod(m) }
func (m *Method) AcceptEnd(v Visitor) { v.VisitEndMethod(m) }

func (m *Method) MethodKind() MethodKind { return MethodKind(m.f().word(m.r(), AttrMethodKind)) }

func (m *Method) SetMethodKind(k MethodKind) { m.f().setWord(m.r(), AttrMethodKind, uint32(k)) }

func (m *Method) IsAbstract() bool { return m.f().getBool(m.r(), AttrMethodIsAbstract) }

func (m *Method) SetAbstract(v bool) { m.f().setBool(m.r(), AttrMethodIsAbstract, v) }

func (m *Method) Parameters() []*Parameter {
	return nodesAs[*Parameter](m.f(), m.f().targets(m.r(), EdgeMethodParameters))
}

func (m *Method) ParametersSize() int { return len(m.f().targets(m.r(), EdgeMethodParameters)) }

func (m *Method) AddParameter(p *Parameter) error {
	return m.f().addNode(m.r(), EdgeMethodParameters, nodeOrNil(p), 0)
}

func (m *Method) RemoveParameter(p *Parameter) error {
	return m.f().removeNode(m.r(), EdgeMethodParameters, nodeOrNil(p))
}

func (m *Method) Body() *Block { return nodeAs[*Block](m.f(), m.f().target(m.r(), EdgeMethodBody)) }

// SetBody replaces the body. The previous body is detached, not deleted.
func (m *Method) SetBody(b *Block) error {
	return m.f().setNode(m.r(), EdgeMethodBody, nodeOrNil(b))
}

// RemoveBody deletes the current body.
func (m *Method) RemoveBody() error {
	return m.f().removeNode(m.r(), EdgeMethodBody, nodeOrNil(m.Body()))
}

// Calls returns the methods this method calls, with the kind of each call.
func (m *Method) Calls() []CallEdge {
	targets, _ := m.f().EdgeTargets(m.ID(), EdgeMethodCalls)
	out := make([]CallEdge, 0, len(targets))
	for _, t := range targets {
		if callee := nodeAs[*Method](m.f(), t.ID); callee != nil {
			out = append(out, CallEdge{Method: callee, Kind: CallKind(t.Payload)})
		}
	}
	return out
}

func (m *Method) CallsSize() int { return len(m.f().targets(m.r(), EdgeMethodCalls)) }

func (m *Method) AddCall(callee *Method, kind CallKind) error {
	return m.f().addNode(m.r(), EdgeMethodCalls, nodeOrNil(callee), uint32(kind))
}

// RemoveCall removes the first call edge to callee.
func (m *Method) RemoveCall(callee *Method) error {
	return m.f().removeNode(m.r(), EdgeMethodCalls, nodeOrNil(callee))
}

// CallEdge is one Method.Calls edge with its payload.
type CallEdge struct {
	Method *Method
	Kind   CallKind
}

// NewMethod creates a detached Method.
func (f *Factory) NewMethod(name string, kind MethodKind) *Method {
	r := f.alloc(KindMethod)
	f.setString(r, AttrName, name)
	f.setWord(r, AttrMethodKind, uint32(kind))
	return wrap(f, r).(*Method)
}

// Parameter is a formal parameter of a Method.
type Parameter struct{ named }

func (p *Parameter) Accept(v Visitor)    { v.VisitParameter(p) }
func (p *Parameter) AcceptEnd(v Visitor) { v.VisitEndParameter(p) }

func (p *Parameter) ParamKind() ParamKind { return ParamKind(p.f.word(p.r, AttrParamKind)) }

func (p *Parameter) SetParamKind(k ParamKind) { p.f.setWord(p.r, AttrParamKind, uint32(k)) }

// NewParameter creates a detached Parameter.
func (f *Factory) NewParameter(name string, kind ParamKind) *Parameter {
	r := f.alloc(KindParameter)
	f.setString(r, AttrName, name)
	f.setWord(r, AttrParamKind, uint32(kind))
	return wrap(f, r).(*Parameter)
}

// Variable is a field, global or local variable.
type Variable struct{ member }

func (vr *Variable) Accept(v Visitor)    { v.VisitVariable(vr) }
func (vr *Variable) AcceptEnd(v Visitor) { v.VisitEndVariable(vr) }

func (vr *Variable) IsConst() bool { return vr.f().getBool(vr.r(), AttrIsConst) }

func (vr *Variable) SetConst(v bool) { vr.f().setBool(vr.r(), AttrIsConst, v) }

func (vr *Variable) Initializer() Expression {
	return nodeAs[Expression](vr.f(), vr.f().target(vr.r(), EdgeVariableInitializer))
}

func (vr *Variable) SetInitializer(e Expression) error {
	return vr.f().setNode(vr.r(), EdgeVariableInitializer, nodeOrNil(e))
}

func (vr *Variable) RemoveInitializer() error {
	return vr.f().removeNode(vr.r(), EdgeVariableInitializer, nodeOrNil(vr.Initializer()))
}

// NewVariable creates a detached Variable.
func (f *Factory) NewVariable(name string) *Variable {
	r := f.alloc(KindVariable)
	f.setString(r, AttrName, name)
	return wrap(f, r).(*Variable)
}

// f and r resolve the embedded base of member kinds without ambiguity.
func (m member) f() *Factory { return m.commentable.f }
func (m member) r() *record  { return m.commentable.r }
