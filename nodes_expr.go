package asg

// Identifier is a name used in an expression, optionally resolved to the
// declaration it refers to.
type Identifier struct{ expression }

func (e *Identifier) Accept(v Visitor)    { v.VisitIdentifier(e) }
func (e *Identifier) AcceptEnd(v Visitor) { v.VisitEndIdentifier(e) }

func (e *Identifier) Name() string { return e.f.getString(e.r, AttrIdentifierName) }

func (e *Identifier) NameKey() Key { return e.f.getKey(e.r, AttrIdentifierName) }

func (e *Identifier) SetName(s string) { e.f.setString(e.r, AttrIdentifierName, s) }

// RefersTo returns the resolved declaration, or nil.
func (e *Identifier) RefersTo() Named {
	return nodeAs[Named](e.f, e.f.target(e.r, EdgeIdentifierRefersTo))
}

// SetRefersTo points the identifier at decl. A nil decl clears the link.
func (e *Identifier) SetRefersTo(decl Named) error {
	return e.f.setNode(e.r, EdgeIdentifierRefersTo, nodeOrNil(decl))
}

// NewIdentifier creates a detached Identifier.
func (f *Factory) NewIdentifier(name string) *Identifier {
	r := f.alloc(KindIdentifier)
	f.setString(r, AttrIdentifierName, name)
	return wrap(f, r).(*Identifier)
}

// Literal is a constant value in source form.
type Literal struct{ expression }

func (e *Literal) Accept(v Visitor)    { v.VisitLiteral(e) }
func (e *Literal) AcceptEnd(v Visitor) { v.VisitEndLiteral(e) }

func (e *Literal) LiteralKind() LiteralKind { return LiteralKind(e.f.word(e.r, AttrLiteralKind)) }

func (e *Literal) SetLiteralKind(k LiteralKind) { e.f.setWord(e.r, AttrLiteralKind, uint32(k)) }

func (e *Literal) Value() string { return e.f.getString(e.r, AttrLiteralValue) }

func (e *Literal) SetValue(s string) { e.f.setString(e.r, AttrLiteralValue, s) }

// NewLiteral creates a detached Literal.
func (f *Factory) NewLiteral(kind LiteralKind, value string) *Literal {
	r := f.alloc(KindLiteral)
	f.setWord(r, AttrLiteralKind, uint32(kind))
	f.setString(r, AttrLiteralValue, value)
	return wrap(f, r).(*Literal)
}

// Call is a call expression.
type Call struct{ expression }

func (e *Call) Accept(v Visitor)    { v.VisitCall(e) }
func (e *Call) AcceptEnd(v Visitor) { v.VisitEndCall(e) }

func (e *Call) Callee() Expression {
	return nodeAs[Expression](e.f, e.f.target(e.r, EdgeCallCallee))
}

func (e *Call) SetCallee(x Expression) error {
	return e.f.setNode(e.r, EdgeCallCallee, nodeOrNil(x))
}

func (e *Call) Arguments() []Expression {
	return nodesAs[Expression](e.f, e.f.targets(e.r, EdgeCallArguments))
}

func (e *Call) ArgumentsSize() int { return len(e.f.targets(e.r, EdgeCallArguments)) }

func (e *Call) AddArgument(x Expression) error {
	return e.f.addNode(e.r, EdgeCallArguments, nodeOrNil(x), 0)
}

func (e *Call) RemoveArgument(x Expression) error {
	return e.f.removeNode(e.r, EdgeCallArguments, nodeOrNil(x))
}

// Invokes returns the resolved target method, or nil.
func (e *Call) Invokes() *Method {
	return nodeAs[*Method](e.f, e.f.target(e.r, EdgeCallInvokes))
}

func (e *Call) SetInvokes(m *Method) error {
	return e.f.setNode(e.r, EdgeCallInvokes, nodeOrNil(m))
}

func (f *Factory) NewCall() *Call {
	return wrap(f, f.alloc(KindCall)).(*Call)
}

// BinaryExpr applies Operator to Left and Right.
type BinaryExpr struct{ expression }

func (e *BinaryExpr) Accept(v Visitor)    { v.VisitBinaryExpr(e) }
func (e *BinaryExpr) AcceptEnd(v Visitor) { v.VisitEndBinaryExpr(e) }

func (e *BinaryExpr) Operator() string { return e.f.getString(e.r, AttrOperator) }

func (e *BinaryExpr) SetOperator(op string) { e.f.setString(e.r, AttrOperator, op) }

func (e *BinaryExpr) Left() Expression {
	return nodeAs[Expression](e.f, e.f.target(e.r, EdgeBinaryLeft))
}

func (e *BinaryExpr) SetLeft(x Expression) error {
	return e.f.setNode(e.r, EdgeBinaryLeft, nodeOrNil(x))
}

func (e *BinaryExpr) Right() Expression {
	return nodeAs[Expression](e.f, e.f.target(e.r, EdgeBinaryRight))
}

func (e *BinaryExpr) SetRight(x Expression) error {
	return e.f.setNode(e.r, EdgeBinaryRight, nodeOrNil(x))
}

// NewBinaryExpr creates a detached BinaryExpr.
func (f *Factory) NewBinaryExpr(op string) *BinaryExpr {
	r := f.alloc(KindBinaryExpr)
	f.setString(r, AttrOperator, op)
	return wrap(f, r).(*BinaryExpr)
}

// Comment is a special node: it has no owner and is reached only through
// Commentable.Comments.
type Comment struct{ positioned }

func (c *Comment) Accept(v Visitor)    { v.VisitComment(c) }
func (c *Comment) AcceptEnd(v Visitor) { v.VisitEndComment(c) }

func (c *Comment) Text() string { return c.f.getString(c.r, AttrText) }

func (c *Comment) SetText(s string) { c.f.setString(c.r, AttrText, s) }

// NewComment creates a Comment.
func (f *Factory) NewComment(text string) *Comment {
	r := f.alloc(KindComment)
	f.setString(r, AttrText, text)
	return wrap(f, r).(*Comment)
}
