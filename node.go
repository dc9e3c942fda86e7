package asg

import (
	"fmt"
	"reflect"
)

// Node is a view of one arena record. Views are cheap to create and compare
// by ID, not by pointer. The set of implementations is closed: one per
// concrete NodeKind.
type Node interface {
	ID() NodeID
	Kind() NodeKind
	Factory() *Factory
	// Parent returns the owner, or nil for the root, detached nodes and
	// special nodes.
	Parent() Node
	// ParentEdge is the ownership edge kind the owner reaches this node by.
	ParentEdge() EdgeKind
	IsToolGenerated() bool
	SetToolGenerated(bool)
	IsCompilerGenerated() bool
	SetCompilerGenerated(bool)

	// Accept calls the Visit method of v matching the concrete kind.
	Accept(v Visitor)
	// AcceptEnd calls the matching VisitEnd method.
	AcceptEnd(v Visitor)

	record() *record
}

// Positioned nodes carry a source range.
type Positioned interface {
	Node
	Position() Range
	SetPosition(Range)
}

// Named nodes carry a name.
type Named interface {
	Positioned
	Name() string
	NameKey() Key
	SetName(string)
}

// Commentable nodes can reference Comment nodes.
type Commentable interface {
	Node
	Comments() []*Comment
	CommentsSize() int
	AddComment(*Comment) error
	RemoveComment(*Comment) error
}

// Member is a declaration inside a Package or Class.
type Member interface {
	Named
	Commentable
	Visibility() Visibility
	SetVisibility(Visibility)
	IsStatic() bool
	SetStatic(bool)
}

// Statement is any statement kind.
type Statement interface {
	Positioned
	isStatement()
}

// Expression is any expression kind.
type Expression interface {
	Positioned
	isExpression()
}

type base struct {
	f *Factory
	r *record
}

func (b base) ID() NodeID           { return b.r.id }
func (b base) Kind() NodeKind       { return b.r.kind }
func (b base) Factory() *Factory    { return b.f }
func (b base) ParentEdge() EdgeKind { return b.r.parentEdge }
func (b base) record() *record      { return b.r }

func (b base) Parent() Node {
	if b.r.parent == 0 {
		return nil
	}
	return b.f.view(b.r.parent)
}

func (b base) IsToolGenerated() bool { return b.f.getBool(b.r, AttrIsToolGenerated) }

func (b base) SetToolGenerated(v bool) { b.f.setBool(b.r, AttrIsToolGenerated, v) }

func (b base) IsCompilerGenerated() bool { return b.f.getBool(b.r, AttrIsCompilerGenerated) }

func (b base) SetCompilerGenerated(v bool) { b.f.setBool(b.r, AttrIsCompilerGenerated, v) }

type positioned struct{ base }

func (p positioned) Position() Range { return p.f.getRange(p.r) }

func (p positioned) SetPosition(r Range) { p.f.setRange(p.r, r) }

type named struct{ positioned }

func (n named) Name() string { return n.f.getString(n.r, AttrName) }

func (n named) NameKey() Key { return n.f.getKey(n.r, AttrName) }

func (n named) SetName(s string) { n.f.setString(n.r, AttrName, s) }

type commentable struct{ base }

func (c commentable) Comments() []*Comment {
	return nodesAs[*Comment](c.f, c.f.targets(c.r, EdgeCommentableComments))
}

func (c commentable) CommentsSize() int { return len(c.f.targets(c.r, EdgeCommentableComments)) }

func (c commentable) AddComment(cm *Comment) error {
	return c.f.addNode(c.r, EdgeCommentableComments, nodeOrNil(cm), 0)
}

func (c commentable) RemoveComment(cm *Comment) error {
	return c.f.removeNode(c.r, EdgeCommentableComments, nodeOrNil(cm))
}

type member struct {
	named
	commentable
}

func (m member) Visibility() Visibility { return Visibility(m.named.f.word(m.named.r, AttrVisibility)) }

func (m member) SetVisibility(v Visibility) {
	m.named.f.setWord(m.named.r, AttrVisibility, uint32(v))
}

func (m member) IsStatic() bool { return m.named.f.getBool(m.named.r, AttrIsStatic) }

func (m member) SetStatic(v bool) { m.named.f.setBool(m.named.r, AttrIsStatic, v) }

type statement struct{ positioned }

func (statement) isStatement() {}

type expression struct{ positioned }

func (expression) isExpression() {}

func newNamed(b base) named { return named{positioned{b}} }

func newMember(b base) member { return member{named: newNamed(b), commentable: commentable{b}} }

// wrap builds the view for r.
func wrap(f *Factory, r *record) Node {
	b := base{f: f, r: r}
	switch r.kind {
	case KindPackage:
		return &Package{named: newNamed(b), commentable: commentable{b}}
	case KindClass:
		return &Class{member: newMember(b)}
	case KindMethod:
		return &Method{member: newMember(b)}
	case KindParameter:
		return &Parameter{named: newNamed(b)}
	case KindVariable:
		return &Variable{member: newMember(b)}
	case KindBlock:
		return &Block{statement{positioned{b}}}
	case KindIfStatement:
		return &IfStatement{statement{positioned{b}}}
	case KindLoopStatement:
		return &LoopStatement{statement{positioned{b}}}
	case KindReturnStatement:
		return &ReturnStatement{statement{positioned{b}}}
	case KindExpressionStatement:
		return &ExpressionStatement{statement{positioned{b}}}
	case KindLocalDeclaration:
		return &LocalDeclaration{statement{positioned{b}}}
	case KindIdentifier:
		return &Identifier{expression{positioned{b}}}
	case KindLiteral:
		return &Literal{expression{positioned{b}}}
	case KindCall:
		return &Call{expression{positioned{b}}}
	case KindBinaryExpr:
		return &BinaryExpr{expression{positioned{b}}}
	case KindComment:
		return &Comment{positioned{b}}
	}
	panic("asg: no view for kind " + r.kind.String())
}

// nodeAs returns the view of id narrowed to T, or the zero T when id is 0,
// missing or of another kind.
func nodeAs[T Node](f *Factory, id NodeID) T {
	var zero T
	n := f.view(id)
	if n == nil {
		return zero
	}
	t, ok := n.(T)
	if !ok {
		return zero
	}
	return t
}

func nodesAs[T Node](f *Factory, ids []NodeID) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.view(id).(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// nodeOrNil converts a possibly nil typed pointer into a Node interface that
// is nil when the pointer is.
func nodeOrNil[T Node](n T) Node {
	if isNil(n) {
		return nil
	}
	return n
}

// As narrows n to a concrete or capability type, failing with
// ErrInvalidNodeKind when n is of another kind.
func As[T Node](n Node) (T, error) {
	t, ok := n.(T)
	if !ok {
		var zero T
		kind := KindNone
		if !isNil(n) {
			kind = n.Kind()
		}
		return zero, fmt.Errorf("asg: %s node is not a %s: %w", kind, reflect.TypeFor[T](), ErrInvalidNodeKind)
	}
	return t, nil
}
