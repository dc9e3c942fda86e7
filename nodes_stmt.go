package asg

// Block is an ordered list of statements.
type Block struct{ statement }

func (b *Block) Accept(v Visitor)    { v.VisitBlock(b) }
func (b *Block) AcceptEnd(v Visitor) { v.VisitEndBlock(b) }

func (b *Block) Statements() []Statement {
	return nodesAs[Statement](b.f, b.f.targets(b.r, EdgeBlockStatements))
}

func (b *Block) StatementsSize() int { return len(b.f.targets(b.r, EdgeBlockStatements)) }

func (b *Block) AddStatement(s Statement) error {
	return b.f.addNode(b.r, EdgeBlockStatements, nodeOrNil(s), 0)
}

// RemoveStatement deletes s and its subtree.
func (b *Block) RemoveStatement(s Statement) error {
	return b.f.removeNode(b.r, EdgeBlockStatements, nodeOrNil(s))
}

// NewBlock creates a detached, empty Block.
func (f *Factory) NewBlock() *Block {
	return wrap(f, f.alloc(KindBlock)).(*Block)
}

// IfStatement is a two-way branch.
type IfStatement struct{ statement }

func (s *IfStatement) Accept(v Visitor)    { v.VisitIfStatement(s) }
func (s *IfStatement) AcceptEnd(v Visitor) { v.VisitEndIfStatement(s) }

func (s *IfStatement) Condition() Expression {
	return nodeAs[Expression](s.f, s.f.target(s.r, EdgeIfCondition))
}

func (s *IfStatement) SetCondition(e Expression) error {
	return s.f.setNode(s.r, EdgeIfCondition, nodeOrNil(e))
}

func (s *IfStatement) Then() Statement { return nodeAs[Statement](s.f, s.f.target(s.r, EdgeIfThen)) }

func (s *IfStatement) SetThen(st Statement) error {
	return s.f.setNode(s.r, EdgeIfThen, nodeOrNil(st))
}

func (s *IfStatement) Else() Statement { return nodeAs[Statement](s.f, s.f.target(s.r, EdgeIfElse)) }

func (s *IfStatement) SetElse(st Statement) error {
	return s.f.setNode(s.r, EdgeIfElse, nodeOrNil(st))
}

// RemoveElse deletes the else branch.
func (s *IfStatement) RemoveElse() error {
	return s.f.removeNode(s.r, EdgeIfElse, nodeOrNil(s.Else()))
}

// NewIfStatement creates a detached IfStatement.
func (f *Factory) NewIfStatement() *IfStatement {
	return wrap(f, f.alloc(KindIfStatement)).(*IfStatement)
}

// LoopStatement covers while, for, for-each and do loops.
type LoopStatement struct{ statement }

func (s *LoopStatement) Accept(v Visitor)    { v.VisitLoopStatement(s) }
func (s *LoopStatement) AcceptEnd(v Visitor) { v.VisitEndLoopStatement(s) }

func (s *LoopStatement) LoopKind() LoopKind { return LoopKind(s.f.word(s.r, AttrLoopKind)) }

func (s *LoopStatement) SetLoopKind(k LoopKind) { s.f.setWord(s.r, AttrLoopKind, uint32(k)) }

func (s *LoopStatement) Condition() Expression {
	return nodeAs[Expression](s.f, s.f.target(s.r, EdgeLoopCondition))
}

func (s *LoopStatement) SetCondition(e Expression) error {
	return s.f.setNode(s.r, EdgeLoopCondition, nodeOrNil(e))
}

func (s *LoopStatement) Body() Statement {
	return nodeAs[Statement](s.f, s.f.target(s.r, EdgeLoopBody))
}

func (s *LoopStatement) SetBody(st Statement) error {
	return s.f.setNode(s.r, EdgeLoopBody, nodeOrNil(st))
}

// NewLoopStatement creates a detached LoopStatement.
func (f *Factory) NewLoopStatement(kind LoopKind) *LoopStatement {
	r := f.alloc(KindLoopStatement)
	f.setWord(r, AttrLoopKind, uint32(kind))
	return wrap(f, r).(*LoopStatement)
}

type ReturnStatement struct{ statement }

func (s *ReturnStatement) Accept(v Visitor)    { v.VisitReturnStatement(s) }
func (s *ReturnStatement) AcceptEnd(v Visitor) { v.VisitEndReturnStatement(s) }

func (s *ReturnStatement) Value() Expression {
	return nodeAs[Expression](s.f, s.f.target(s.r, EdgeReturnValue))
}

func (s *ReturnStatement) SetValue(e Expression) error {
	return s.f.setNode(s.r, EdgeReturnValue, nodeOrNil(e))
}

// NewReturnStatement creates a detached ReturnStatement.
func (f *Factory) NewReturnStatement() *ReturnStatement {
	return wrap(f, f.alloc(KindReturnStatement)).(*ReturnStatement)
}

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct{ statement }

func (s *ExpressionStatement) Accept(v Visitor)    { v.VisitExpressionStatement(s) }
func (s *ExpressionStatement) AcceptEnd(v Visitor) { v.VisitEndExpressionStatement(s) }

func (s *ExpressionStatement) Expression() Expression {
	return nodeAs[Expression](s.f, s.f.target(s.r, EdgeExpressionStatementExpression))
}

func (s *ExpressionStatement) SetExpression(e Expression) error {
	return s.f.setNode(s.r, EdgeExpressionStatementExpression, nodeOrNil(e))
}

func (f *Factory) NewExpressionStatement() *ExpressionStatement {
	return wrap(f, f.alloc(KindExpressionStatement)).(*ExpressionStatement)
}

// LocalDeclaration declares a Variable inside a Block.
type LocalDeclaration struct{ statement }

func (s *LocalDeclaration) Accept(v Visitor)    { v.VisitLocalDeclaration(s) }
func (s *LocalDeclaration) AcceptEnd(v Visitor) { v.VisitEndLocalDeclaration(s) }

func (s *LocalDeclaration) Variable() *Variable {
	return nodeAs[*Variable](s.f, s.f.target(s.r, EdgeLocalDeclarationVariable))
}

func (s *LocalDeclaration) SetVariable(vr *Variable) error {
	return s.f.setNode(s.r, EdgeLocalDeclarationVariable, nodeOrNil(vr))
}

func (f *Factory) NewLocalDeclaration() *LocalDeclaration {
	return wrap(f, f.alloc(KindLocalDeclaration)).(*LocalDeclaration)
}
