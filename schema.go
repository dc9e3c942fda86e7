package asg

import (
	"fmt"
	"strings"
)

// AttrKind identifies an attribute declared by some node kind.
type AttrKind uint16

const (
	AttrNone AttrKind = iota
	AttrIsToolGenerated
	AttrIsCompilerGenerated
	AttrPosition
	AttrName
	AttrVisibility
	AttrIsStatic
	AttrClassKind
	AttrClassIsAbstract
	AttrMethodKind
	AttrMethodIsAbstract
	AttrParamKind
	AttrIsConst
	AttrLoopKind
	AttrIdentifierName
	AttrLiteralKind
	AttrLiteralValue
	AttrOperator
	AttrText

	numAttrs
)

// AttrType is the storage class of an attribute.
type AttrType uint8

const (
	AttrBool AttrType = iota + 1
	AttrEnum
	AttrString
	AttrRange
)

func (t AttrType) String() string {
	switch t {
	case AttrBool:
		return "bool"
	case AttrEnum:
		return "enum"
	case AttrString:
		return "string"
	case AttrRange:
		return "range"
	}
	return fmt.Sprintf("AttrType(%d)", uint8(t))
}

// rangeWords is the number of uint32 words a Range occupies.
const rangeWords = 9

func (t AttrType) words() int {
	if t == AttrRange {
		return rangeWords
	}
	return 1
}

type attrDef struct {
	name  string
	owner NodeKind
	typ   AttrType
	// similar attributes take part in Similarity.
	similar bool
	// hashed attributes feed the structural hash.
	hashed bool
}

var attrTable = [numAttrs]attrDef{
	AttrNone:                {name: "None"},
	AttrIsToolGenerated:     {name: "IsToolGenerated", owner: KindBase, typ: AttrBool, similar: true},
	AttrIsCompilerGenerated: {name: "IsCompilerGenerated", owner: KindBase, typ: AttrBool, similar: true},
	AttrPosition:            {name: "Position", owner: KindPositioned, typ: AttrRange},
	AttrName:                {name: "Name", owner: KindNamed, typ: AttrString, similar: true},
	AttrVisibility:          {name: "Visibility", owner: KindMember, typ: AttrEnum, similar: true},
	AttrIsStatic:            {name: "IsStatic", owner: KindMember, typ: AttrBool, similar: true},
	AttrClassKind:           {name: "ClassKind", owner: KindClass, typ: AttrEnum, similar: true, hashed: true},
	AttrClassIsAbstract:     {name: "IsAbstract", owner: KindClass, typ: AttrBool, similar: true},
	AttrMethodKind:          {name: "MethodKind", owner: KindMethod, typ: AttrEnum, similar: true, hashed: true},
	AttrMethodIsAbstract:    {name: "IsAbstract", owner: KindMethod, typ: AttrBool, similar: true},
	AttrParamKind:           {name: "ParamKind", owner: KindParameter, typ: AttrEnum, similar: true, hashed: true},
	AttrIsConst:             {name: "IsConst", owner: KindVariable, typ: AttrBool, similar: true},
	AttrLoopKind:            {name: "LoopKind", owner: KindLoopStatement, typ: AttrEnum, similar: true, hashed: true},
	AttrIdentifierName:      {name: "Name", owner: KindIdentifier, typ: AttrString, similar: true},
	AttrLiteralKind:         {name: "LiteralKind", owner: KindLiteral, typ: AttrEnum, similar: true, hashed: true},
	AttrLiteralValue:        {name: "Value", owner: KindLiteral, typ: AttrString, similar: true},
	AttrOperator:            {name: "Operator", owner: KindBinaryExpr, typ: AttrString, similar: true, hashed: true},
	AttrText:                {name: "Text", owner: KindComment, typ: AttrString, similar: true},
}

func (a AttrKind) valid() bool { return a > AttrNone && a < numAttrs }

func (a AttrKind) String() string {
	if !a.valid() {
		return fmt.Sprintf("AttrKind(%d)", uint16(a))
	}
	return attrTable[a].owner.String() + "." + attrTable[a].name
}

// Name is the attribute name without its declaring kind.
func (a AttrKind) Name() string {
	if !a.valid() {
		return ""
	}
	return attrTable[a].name
}

// Type returns the storage class of a.
func (a AttrKind) Type() AttrType {
	if !a.valid() {
		return 0
	}
	return attrTable[a].typ
}

// EdgeKind identifies a named relation declared by some node kind.
type EdgeKind uint16

const (
	EdgeNone EdgeKind = iota
	EdgeCommentableComments
	EdgePackageMembers
	EdgeClassMembers
	EdgeClassExtends
	EdgeMethodParameters
	EdgeMethodBody
	EdgeMethodCalls
	EdgeVariableInitializer
	EdgeBlockStatements
	EdgeIfCondition
	EdgeIfThen
	EdgeIfElse
	EdgeLoopCondition
	EdgeLoopBody
	EdgeReturnValue
	EdgeExpressionStatementExpression
	EdgeLocalDeclarationVariable
	EdgeIdentifierRefersTo
	EdgeCallCallee
	EdgeCallArguments
	EdgeCallInvokes
	EdgeBinaryLeft
	EdgeBinaryRight

	numEdges
)

// EdgeInfo describes an edge kind.
type EdgeInfo struct {
	Name   string
	Source NodeKind
	// Targets lists the allowed target kinds; a target matches when it
	// derives from any of them.
	Targets   []NodeKind
	Ownership bool
	Many      bool
	Payload   bool
}

var edgeTable = [numEdges]EdgeInfo{
	EdgeNone:                          {Name: "None"},
	EdgeCommentableComments:           {Name: "Comments", Source: KindCommentable, Targets: []NodeKind{KindComment}, Many: true},
	EdgePackageMembers:                {Name: "Members", Source: KindPackage, Targets: []NodeKind{KindMember, KindPackage}, Ownership: true, Many: true},
	EdgeClassMembers:                  {Name: "Members", Source: KindClass, Targets: []NodeKind{KindMember}, Ownership: true, Many: true},
	EdgeClassExtends:                  {Name: "Extends", Source: KindClass, Targets: []NodeKind{KindClass}, Many: true},
	EdgeMethodParameters:              {Name: "Parameters", Source: KindMethod, Targets: []NodeKind{KindParameter}, Ownership: true, Many: true},
	EdgeMethodBody:                    {Name: "Body", Source: KindMethod, Targets: []NodeKind{KindBlock}, Ownership: true},
	EdgeMethodCalls:                   {Name: "Calls", Source: KindMethod, Targets: []NodeKind{KindMethod}, Many: true, Payload: true},
	EdgeVariableInitializer:           {Name: "Initializer", Source: KindVariable, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeBlockStatements:               {Name: "Statements", Source: KindBlock, Targets: []NodeKind{KindStatement}, Ownership: true, Many: true},
	EdgeIfCondition:                   {Name: "Condition", Source: KindIfStatement, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeIfThen:                        {Name: "Then", Source: KindIfStatement, Targets: []NodeKind{KindStatement}, Ownership: true},
	EdgeIfElse:                        {Name: "Else", Source: KindIfStatement, Targets: []NodeKind{KindStatement}, Ownership: true},
	EdgeLoopCondition:                 {Name: "Condition", Source: KindLoopStatement, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeLoopBody:                      {Name: "Body", Source: KindLoopStatement, Targets: []NodeKind{KindStatement}, Ownership: true},
	EdgeReturnValue:                   {Name: "Value", Source: KindReturnStatement, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeExpressionStatementExpression: {Name: "Expression", Source: KindExpressionStatement, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeLocalDeclarationVariable:      {Name: "Variable", Source: KindLocalDeclaration, Targets: []NodeKind{KindVariable}, Ownership: true},
	EdgeIdentifierRefersTo:            {Name: "RefersTo", Source: KindIdentifier, Targets: []NodeKind{KindNamed}},
	EdgeCallCallee:                    {Name: "Callee", Source: KindCall, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeCallArguments:                 {Name: "Arguments", Source: KindCall, Targets: []NodeKind{KindExpression}, Ownership: true, Many: true},
	EdgeCallInvokes:                   {Name: "Invokes", Source: KindCall, Targets: []NodeKind{KindMethod}},
	EdgeBinaryLeft:                    {Name: "Left", Source: KindBinaryExpr, Targets: []NodeKind{KindExpression}, Ownership: true},
	EdgeBinaryRight:                   {Name: "Right", Source: KindBinaryExpr, Targets: []NodeKind{KindExpression}, Ownership: true},
}

func (e EdgeKind) valid() bool { return e > EdgeNone && e < numEdges }

func (e EdgeKind) String() string {
	if !e.valid() {
		return fmt.Sprintf("EdgeKind(%d)", uint16(e))
	}
	return edgeTable[e].Source.String() + "." + edgeTable[e].Name
}

// Info returns the declaration of e.
func (e EdgeKind) Info() EdgeInfo {
	if !e.valid() {
		return EdgeInfo{}
	}
	return edgeTable[e]
}

// IsOwnership reports whether e is a containment edge.
func (e EdgeKind) IsOwnership() bool { return e.valid() && edgeTable[e].Ownership }

// IsMany reports whether e holds an ordered list of targets.
func (e EdgeKind) IsMany() bool { return e.valid() && edgeTable[e].Many }

// HasPayload reports whether each instance of e carries a side value.
func (e EdgeKind) HasPayload() bool { return e.valid() && edgeTable[e].Payload }

// Accepts reports whether a node of kind k may be the target of e.
func (e EdgeKind) Accepts(k NodeKind) bool {
	if !e.valid() {
		return false
	}
	for _, t := range edgeTable[e].Targets {
		if IsBaseKind(k, t) {
			return true
		}
	}
	return false
}

// ParseEdgeKind accepts the qualified "Kind.Edge" form.
func ParseEdgeKind(name string) (EdgeKind, bool) {
	for e := EdgeNone + 1; e < numEdges; e++ {
		if e.String() == name {
			return e, true
		}
	}
	return EdgeNone, false
}

// AllEdgeKinds returns every edge kind in declaration order.
func AllEdgeKinds() []EdgeKind {
	out := make([]EdgeKind, 0, numEdges-1)
	for e := EdgeNone + 1; e < numEdges; e++ {
		out = append(out, e)
	}
	return out
}

// layout is the per-kind storage plan: attribute word offsets and edge slots
// in save order.
type layout struct {
	attrs    []AttrKind
	attrOff  [numAttrs]int16
	words    int
	edges    []EdgeKind
	edgeSlot [numEdges]int8
}

var layouts [numKinds]*layout

func init() {
	for k := KindBase; k < numKinds; k++ {
		layouts[k] = buildLayout(k)
	}
}

func buildLayout(k NodeKind) *layout {
	l := &layout{}
	for i := range l.attrOff {
		l.attrOff[i] = -1
	}
	for i := range l.edgeSlot {
		l.edgeSlot[i] = -1
	}
	for _, part := range saveOrder(k) {
		for a := AttrNone + 1; a < numAttrs; a++ {
			if attrTable[a].owner != part {
				continue
			}
			l.attrOff[a] = int16(l.words)
			l.attrs = append(l.attrs, a)
			l.words += attrTable[a].typ.words()
		}
		for e := EdgeNone + 1; e < numEdges; e++ {
			if edgeTable[e].Source != part {
				continue
			}
			l.edgeSlot[e] = int8(len(l.edges))
			l.edges = append(l.edges, e)
		}
	}
	return l
}

// AttrsOf returns the attributes of kind k in save order, inherited first.
func AttrsOf(k NodeKind) []AttrKind {
	if !k.valid() {
		return nil
	}
	return append([]AttrKind(nil), layouts[k].attrs...)
}

// EdgesOf returns the edge kinds a node of kind k exposes, inherited first.
func EdgesOf(k NodeKind) []EdgeKind {
	if !k.valid() {
		return nil
	}
	return append([]EdgeKind(nil), layouts[k].edges...)
}

// HasEdge reports whether kind k exposes edge e.
func HasEdge(k NodeKind, e EdgeKind) bool {
	return k.valid() && e.valid() && layouts[k].edgeSlot[e] >= 0
}

// HasAttr reports whether kind k carries attribute a.
func HasAttr(k NodeKind, a AttrKind) bool {
	return k.valid() && a.valid() && layouts[k].attrOff[a] >= 0
}

// EdgeByName finds the edge named name on kind k, e.g. ("Statements") on a
// Block. Qualified names are accepted too.
func EdgeByName(k NodeKind, name string) (EdgeKind, bool) {
	if !k.valid() {
		return EdgeNone, false
	}
	for _, e := range layouts[k].edges {
		if strings.EqualFold(edgeTable[e].Name, name) || e.String() == name {
			return e, true
		}
	}
	return EdgeNone, false
}

// AttrByName finds the attribute named name on kind k.
func AttrByName(k NodeKind, name string) (AttrKind, bool) {
	if !k.valid() {
		return AttrNone, false
	}
	for _, a := range layouts[k].attrs {
		if strings.EqualFold(attrTable[a].name, name) || a.String() == name {
			return a, true
		}
	}
	return AttrNone, false
}

// PossibleReverseEdges lists the edge kinds whose targets may be of kind k.
func PossibleReverseEdges(k NodeKind) []EdgeKind {
	var out []EdgeKind
	for e := EdgeNone + 1; e < numEdges; e++ {
		if e.Accepts(k) {
			out = append(out, e)
		}
	}
	return out
}
