package asg

import "fmt"

// Visibility is the access level of a Member.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	VisibilityPackage
)

var visibilityNames = []string{"public", "protected", "private", "package"}

func (v Visibility) String() string { return enumName(visibilityNames, uint8(v), "Visibility") }

// ClassKind distinguishes the flavors of type declaration.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindStruct
	ClassKindEnum
)

var classKindNames = []string{"class", "interface", "struct", "enum"}

func (k ClassKind) String() string { return enumName(classKindNames, uint8(k), "ClassKind") }

// MethodKind distinguishes free functions from methods and constructors.
type MethodKind uint8

const (
	MethodKindFunction MethodKind = iota
	MethodKindMethod
	MethodKindConstructor
	MethodKindLambda
)

var methodKindNames = []string{"function", "method", "constructor", "lambda"}

func (k MethodKind) String() string { return enumName(methodKindNames, uint8(k), "MethodKind") }

// ParamKind describes how a Parameter binds its argument.
type ParamKind uint8

const (
	ParamKindNormal ParamKind = iota
	ParamKindVariadic
	ParamKindReceiver
	ParamKindKeyword
)

var paramKindNames = []string{"normal", "variadic", "receiver", "keyword"}

func (k ParamKind) String() string { return enumName(paramKindNames, uint8(k), "ParamKind") }

// LoopKind distinguishes loop statement forms.
type LoopKind uint8

const (
	LoopKindFor LoopKind = iota
	LoopKindWhile
	LoopKindForEach
	LoopKindDoWhile
)

var loopKindNames = []string{"for", "while", "foreach", "dowhile"}

func (k LoopKind) String() string { return enumName(loopKindNames, uint8(k), "LoopKind") }

// LiteralKind classifies Literal values.
type LiteralKind uint8

const (
	LiteralKindString LiteralKind = iota
	LiteralKindNumber
	LiteralKindBool
	LiteralKindNull
	LiteralKindOther
)

var literalKindNames = []string{"string", "number", "bool", "null", "other"}

func (k LiteralKind) String() string { return enumName(literalKindNames, uint8(k), "LiteralKind") }

// CallKind is the payload of Method.Calls edges.
type CallKind uint8

const (
	CallKindDirect CallKind = iota
	CallKindVirtual
	CallKindDynamic
)

var callKindNames = []string{"direct", "virtual", "dynamic"}

func (k CallKind) String() string { return enumName(callKindNames, uint8(k), "CallKind") }

func enumName(names []string, v uint8, typ string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", typ, v)
}

// enumNames returns the value names of an enum attribute, for parsing
// script and snapshot input.
func enumNames(a AttrKind) []string {
	switch a {
	case AttrVisibility:
		return visibilityNames
	case AttrClassKind:
		return classKindNames
	case AttrMethodKind:
		return methodKindNames
	case AttrParamKind:
		return paramKindNames
	case AttrLoopKind:
		return loopKindNames
	case AttrLiteralKind:
		return literalKindNames
	}
	return nil
}

// payloadNames lists the values a payload-carrying edge may hold.
func payloadNames(e EdgeKind) []string {
	if e == EdgeMethodCalls {
		return callKindNames
	}
	return nil
}

// ValidPayload reports whether p is an allowed payload of e. Edges without
// a payload only accept 0.
func (e EdgeKind) ValidPayload(p uint32) bool {
	if !e.HasPayload() {
		return p == 0
	}
	return int(p) < len(payloadNames(e))
}
