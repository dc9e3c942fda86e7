package asg

import "fmt"

// NodeKind identifies the concrete or abstract schema type of a node.
// Zero is reserved: it terminates the node stream in saved files.
type NodeKind uint16

const (
	KindNone NodeKind = iota

	// Abstract kinds.
	KindBase
	KindPositioned
	KindCommentable
	KindNamed
	KindMember
	KindStatement
	KindExpression

	// Concrete kinds.
	KindPackage
	KindClass
	KindMethod
	KindParameter
	KindVariable
	KindBlock
	KindIfStatement
	KindLoopStatement
	KindReturnStatement
	KindExpressionStatement
	KindLocalDeclaration
	KindIdentifier
	KindLiteral
	KindCall
	KindBinaryExpr
	KindComment

	numKinds
)

type kindInfo struct {
	name     string
	abstract bool
	// special kinds are not owned by anything; they hang off association
	// edges and are picked up separately by traversals.
	special bool
	bases   []NodeKind
}

var kindTable = [numKinds]kindInfo{
	KindNone:        {name: "None", abstract: true},
	KindBase:        {name: "Base", abstract: true},
	KindPositioned:  {name: "Positioned", abstract: true, bases: []NodeKind{KindBase}},
	KindCommentable: {name: "Commentable", abstract: true, bases: []NodeKind{KindBase}},
	KindNamed:       {name: "Named", abstract: true, bases: []NodeKind{KindPositioned}},
	KindMember:      {name: "Member", abstract: true, bases: []NodeKind{KindNamed, KindCommentable}},
	KindStatement:   {name: "Statement", abstract: true, bases: []NodeKind{KindPositioned}},
	KindExpression:  {name: "Expression", abstract: true, bases: []NodeKind{KindPositioned}},

	KindPackage:             {name: "Package", bases: []NodeKind{KindNamed, KindCommentable}},
	KindClass:               {name: "Class", bases: []NodeKind{KindMember}},
	KindMethod:              {name: "Method", bases: []NodeKind{KindMember}},
	KindParameter:           {name: "Parameter", bases: []NodeKind{KindNamed}},
	KindVariable:            {name: "Variable", bases: []NodeKind{KindMember}},
	KindBlock:               {name: "Block", bases: []NodeKind{KindStatement}},
	KindIfStatement:         {name: "IfStatement", bases: []NodeKind{KindStatement}},
	KindLoopStatement:       {name: "LoopStatement", bases: []NodeKind{KindStatement}},
	KindReturnStatement:     {name: "ReturnStatement", bases: []NodeKind{KindStatement}},
	KindExpressionStatement: {name: "ExpressionStatement", bases: []NodeKind{KindStatement}},
	KindLocalDeclaration:    {name: "LocalDeclaration", bases: []NodeKind{KindStatement}},
	KindIdentifier:          {name: "Identifier", bases: []NodeKind{KindExpression}},
	KindLiteral:             {name: "Literal", bases: []NodeKind{KindExpression}},
	KindCall:                {name: "Call", bases: []NodeKind{KindExpression}},
	KindBinaryExpr:          {name: "BinaryExpr", bases: []NodeKind{KindExpression}},
	KindComment:             {name: "Comment", special: true, bases: []NodeKind{KindPositioned}},
}

func (k NodeKind) valid() bool { return k > KindNone && k < numKinds }

func (k NodeKind) String() string {
	if k < numKinds {
		return kindTable[k].name
	}
	return fmt.Sprintf("NodeKind(%d)", uint16(k))
}

// IsAbstract reports whether k can never be instantiated.
func (k NodeKind) IsAbstract() bool {
	return !k.valid() || kindTable[k].abstract
}

// IsSpecial reports whether nodes of kind k live outside the ownership tree.
func (k NodeKind) IsSpecial() bool {
	return k.valid() && kindTable[k].special
}

// Bases returns the direct base kinds of k.
func (k NodeKind) Bases() []NodeKind {
	if !k.valid() {
		return nil
	}
	out := make([]NodeKind, len(kindTable[k].bases))
	copy(out, kindTable[k].bases)
	return out
}

// ParseNodeKind returns the kind with the given name.
func ParseNodeKind(name string) (NodeKind, bool) {
	for k := KindBase; k < numKinds; k++ {
		if kindTable[k].name == name {
			return k, true
		}
	}
	return KindNone, false
}

// ConcreteKinds returns every instantiable kind in declaration order.
func ConcreteKinds() []NodeKind {
	var out []NodeKind
	for k := KindBase; k < numKinds; k++ {
		if !kindTable[k].abstract {
			out = append(out, k)
		}
	}
	return out
}

// IsBaseKind reports whether what is base or derives from it.
func IsBaseKind(what, base NodeKind) bool {
	if !what.valid() || !base.valid() {
		return false
	}
	if what == base {
		return true
	}
	for _, b := range kindTable[what].bases {
		if IsBaseKind(b, base) {
			return true
		}
	}
	return false
}

// saveOrder lists k and all of its ancestors, bases first. A base shared by
// two parents (a diamond) appears once, at its first position.
func saveOrder(k NodeKind) []NodeKind {
	var order []NodeKind
	seen := make(map[NodeKind]bool)
	var walk func(NodeKind)
	walk = func(k NodeKind) {
		if seen[k] {
			return
		}
		seen[k] = true
		for _, b := range kindTable[k].bases {
			walk(b)
		}
		order = append(order, k)
	}
	walk(k)
	return order
}
