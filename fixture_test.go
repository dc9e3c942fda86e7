package asg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sample is a small program:
//
//	package p
//	class Shape { method area() }
//	func main()        { helper(1) }    // calls helper (direct)
//	func helper(x)     { return x + 1 }
type sample struct {
	f      *Factory
	pkg    *Package
	shape  *Class
	area   *Method
	main   *Method
	call   *Call
	helper *Method
	x      *Parameter
	plus   *BinaryExpr
	note   *Comment
}

func newSample(t *testing.T, opts ...Option) *sample {
	t.Helper()
	f := New(opts...)
	s := &sample{f: f}

	s.pkg = f.NewPackage("p")
	require.NoError(t, f.Root().AddMember(s.pkg))

	s.shape = f.NewClass("Shape", ClassKindClass)
	s.area = f.NewMethod("area", MethodKindMethod)
	require.NoError(t, s.shape.AddMember(s.area))
	require.NoError(t, s.pkg.AddMember(s.shape))

	s.helper = f.NewMethod("helper", MethodKindFunction)
	s.x = f.NewParameter("x", ParamKindNormal)
	require.NoError(t, s.helper.AddParameter(s.x))
	body := f.NewBlock()
	ret := f.NewReturnStatement()
	s.plus = f.NewBinaryExpr("+")
	ref := f.NewIdentifier("x")
	require.NoError(t, ref.SetRefersTo(s.x))
	require.NoError(t, s.plus.SetLeft(ref))
	require.NoError(t, s.plus.SetRight(f.NewLiteral(LiteralKindNumber, "1")))
	require.NoError(t, ret.SetValue(s.plus))
	require.NoError(t, body.AddStatement(ret))
	require.NoError(t, s.helper.SetBody(body))

	s.main = f.NewMethod("main", MethodKindFunction)
	mainBody := f.NewBlock()
	stmt := f.NewExpressionStatement()
	s.call = f.NewCall()
	callee := f.NewIdentifier("helper")
	require.NoError(t, callee.SetRefersTo(s.helper))
	require.NoError(t, s.call.SetCallee(callee))
	require.NoError(t, s.call.AddArgument(f.NewLiteral(LiteralKindNumber, "1")))
	require.NoError(t, s.call.SetInvokes(s.helper))
	require.NoError(t, stmt.SetExpression(s.call))
	require.NoError(t, mainBody.AddStatement(stmt))
	require.NoError(t, s.main.SetBody(mainBody))
	require.NoError(t, s.main.AddCall(s.helper, CallKindDirect))

	s.note = f.NewComment("// entry point")
	require.NoError(t, s.main.AddComment(s.note))

	require.NoError(t, s.pkg.AddMember(s.main))
	require.NoError(t, s.pkg.AddMember(s.helper))
	return s
}

// names returns the names of the Named nodes in ns, skipping the rest.
func names(ns []Node) []string {
	var out []string
	for _, n := range ns {
		if nn, ok := n.(Named); ok {
			out = append(out, nn.Name())
		}
	}
	return out
}
