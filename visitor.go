package asg

// Visitor receives one Visit call per node in traversal order and the
// matching VisitEnd call once the node's subtree is done. VisitEdge and
// VisitEdgeEnd bracket every edge the traversal walks or reports.
type Visitor interface {
	VisitPackage(*Package)
	VisitEndPackage(*Package)
	VisitClass(*Class)
	VisitEndClass(*Class)
	VisitMethod(*Method)
	VisitEndMethod(*Method)
	VisitParameter(*Parameter)
	VisitEndParameter(*Parameter)
	VisitVariable(*Variable)
	VisitEndVariable(*Variable)
	VisitBlock(*Block)
	VisitEndBlock(*Block)
	VisitIfStatement(*IfStatement)
	VisitEndIfStatement(*IfStatement)
	VisitLoopStatement(*LoopStatement)
	VisitEndLoopStatement(*LoopStatement)
	VisitReturnStatement(*ReturnStatement)
	VisitEndReturnStatement(*ReturnStatement)
	VisitExpressionStatement(*ExpressionStatement)
	VisitEndExpressionStatement(*ExpressionStatement)
	VisitLocalDeclaration(*LocalDeclaration)
	VisitEndLocalDeclaration(*LocalDeclaration)
	VisitIdentifier(*Identifier)
	VisitEndIdentifier(*Identifier)
	VisitLiteral(*Literal)
	VisitEndLiteral(*Literal)
	VisitCall(*Call)
	VisitEndCall(*Call)
	VisitBinaryExpr(*BinaryExpr)
	VisitEndBinaryExpr(*BinaryExpr)
	VisitComment(*Comment)
	VisitEndComment(*Comment)

	VisitEdge(from Node, e EdgeKind, to Node)
	VisitEdgeEnd(from Node, e EdgeKind, to Node)
}

// BaseVisitor implements Visitor with no-ops. Embed it and override the
// methods of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitPackage(*Package)                           {}
func (BaseVisitor) VisitEndPackage(*Package)                        {}
func (BaseVisitor) VisitClass(*Class)                               {}
func (BaseVisitor) VisitEndClass(*Class)                            {}
func (BaseVisitor) VisitMethod(*Method)                             {}
func (BaseVisitor) VisitEndMethod(*Method)                          {}
func (BaseVisitor) VisitParameter(*Parameter)                       {}
func (BaseVisitor) VisitEndParameter(*Parameter)                    {}
func (BaseVisitor) VisitVariable(*Variable)                         {}
func (BaseVisitor) VisitEndVariable(*Variable)                      {}
func (BaseVisitor) VisitBlock(*Block)                               {}
func (BaseVisitor) VisitEndBlock(*Block)                            {}
func (BaseVisitor) VisitIfStatement(*IfStatement)                   {}
func (BaseVisitor) VisitEndIfStatement(*IfStatement)                {}
func (BaseVisitor) VisitLoopStatement(*LoopStatement)               {}
func (BaseVisitor) VisitEndLoopStatement(*LoopStatement)            {}
func (BaseVisitor) VisitReturnStatement(*ReturnStatement)           {}
func (BaseVisitor) VisitEndReturnStatement(*ReturnStatement)        {}
func (BaseVisitor) VisitExpressionStatement(*ExpressionStatement)   {}
func (BaseVisitor) VisitEndExpressionStatement(*ExpressionStatement) {}
func (BaseVisitor) VisitLocalDeclaration(*LocalDeclaration)         {}
func (BaseVisitor) VisitEndLocalDeclaration(*LocalDeclaration)      {}
func (BaseVisitor) VisitIdentifier(*Identifier)                     {}
func (BaseVisitor) VisitEndIdentifier(*Identifier)                  {}
func (BaseVisitor) VisitLiteral(*Literal)                           {}
func (BaseVisitor) VisitEndLiteral(*Literal)                        {}
func (BaseVisitor) VisitCall(*Call)                                 {}
func (BaseVisitor) VisitEndCall(*Call)                              {}
func (BaseVisitor) VisitBinaryExpr(*BinaryExpr)                     {}
func (BaseVisitor) VisitEndBinaryExpr(*BinaryExpr)                  {}
func (BaseVisitor) VisitComment(*Comment)                           {}
func (BaseVisitor) VisitEndComment(*Comment)                        {}
func (BaseVisitor) VisitEdge(Node, EdgeKind, Node)                  {}
func (BaseVisitor) VisitEdgeEnd(Node, EdgeKind, Node)               {}

// FuncVisitor routes every node visit to Enter and every end visit to
// Leave, whatever the kind. Either may be nil.
type FuncVisitor struct {
	Enter func(Node)
	Leave func(Node)
	Edge  func(from Node, e EdgeKind, to Node)
}

func (v *FuncVisitor) enter(n Node) {
	if v.Enter != nil {
		v.Enter(n)
	}
}

func (v *FuncVisitor) leave(n Node) {
	if v.Leave != nil {
		v.Leave(n)
	}
}

func (v *FuncVisitor) VisitPackage(n *Package)                           { v.enter(n) }
func (v *FuncVisitor) VisitEndPackage(n *Package)                        { v.leave(n) }
func (v *FuncVisitor) VisitClass(n *Class)                               { v.enter(n) }
func (v *FuncVisitor) VisitEndClass(n *Class)                            { v.leave(n) }
func (v *FuncVisitor) VisitMethod(n *Method)                             { v.enter(n) }
func (v *FuncVisitor) VisitEndMethod(n *Method)                          { v.leave(n) }
func (v *FuncVisitor) VisitParameter(n *Parameter)                       { v.enter(n) }
func (v *FuncVisitor) VisitEndParameter(n *Parameter)                    { v.leave(n) }
func (v *FuncVisitor) VisitVariable(n *Variable)                         { v.enter(n) }
func (v *FuncVisitor) VisitEndVariable(n *Variable)                      { v.leave(n) }
func (v *FuncVisitor) VisitBlock(n *Block)                               { v.enter(n) }
func (v *FuncVisitor) VisitEndBlock(n *Block)                            { v.leave(n) }
func (v *FuncVisitor) VisitIfStatement(n *IfStatement)                   { v.enter(n) }
func (v *FuncVisitor) VisitEndIfStatement(n *IfStatement)                { v.leave(n) }
func (v *FuncVisitor) VisitLoopStatement(n *LoopStatement)               { v.enter(n) }
func (v *FuncVisitor) VisitEndLoopStatement(n *LoopStatement)            { v.leave(n) }
func (v *FuncVisitor) VisitReturnStatement(n *ReturnStatement)           { v.enter(n) }
func (v *FuncVisitor) VisitEndReturnStatement(n *ReturnStatement)        { v.leave(n) }
func (v *FuncVisitor) VisitExpressionStatement(n *ExpressionStatement)   { v.enter(n) }
func (v *FuncVisitor) VisitEndExpressionStatement(n *ExpressionStatement) { v.leave(n) }
func (v *FuncVisitor) VisitLocalDeclaration(n *LocalDeclaration)         { v.enter(n) }
func (v *FuncVisitor) VisitEndLocalDeclaration(n *LocalDeclaration)      { v.leave(n) }
func (v *FuncVisitor) VisitIdentifier(n *Identifier)                     { v.enter(n) }
func (v *FuncVisitor) VisitEndIdentifier(n *Identifier)                  { v.leave(n) }
func (v *FuncVisitor) VisitLiteral(n *Literal)                           { v.enter(n) }
func (v *FuncVisitor) VisitEndLiteral(n *Literal)                        { v.leave(n) }
func (v *FuncVisitor) VisitCall(n *Call)                                 { v.enter(n) }
func (v *FuncVisitor) VisitEndCall(n *Call)                              { v.leave(n) }
func (v *FuncVisitor) VisitBinaryExpr(n *BinaryExpr)                     { v.enter(n) }
func (v *FuncVisitor) VisitEndBinaryExpr(n *BinaryExpr)                  { v.leave(n) }
func (v *FuncVisitor) VisitComment(n *Comment)                           { v.enter(n) }
func (v *FuncVisitor) VisitEndComment(n *Comment)                        { v.leave(n) }

func (v *FuncVisitor) VisitEdge(from Node, e EdgeKind, to Node) {
	if v.Edge != nil {
		v.Edge(from, e, to)
	}
}

func (v *FuncVisitor) VisitEdgeEnd(Node, EdgeKind, Node) {}
