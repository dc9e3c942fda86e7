package frontend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jward/asg"
)

func build(t *testing.T, path, lang, src string) *fileResult {
	t.Helper()
	r, err := buildFile(context.Background(), path, lang, []byte(src), zap.NewNop())
	require.NoError(t, err)
	return r
}

func buildResolved(t *testing.T, path, lang, src string) (*asg.Factory, ResolveStats) {
	t.Helper()
	r := build(t, path, lang, src)
	stats := resolve(r.Factory, r.Bases, zap.NewNop())
	return r.Factory, stats
}

func named[T asg.Named](t *testing.T, f *asg.Factory, kind asg.NodeKind, name string) T {
	t.Helper()
	var found []T
	for n := range f.NodesOfKind(kind) {
		if v, ok := n.(T); ok && v.Name() == name {
			found = append(found, v)
		}
	}
	require.Len(t, found, 1, "expected exactly one %s %q", kind, name)
	return found[0]
}

func methodNamed(t *testing.T, f *asg.Factory, name string) *asg.Method {
	return named[*asg.Method](t, f, asg.KindMethod, name)
}

func classNamed(t *testing.T, f *asg.Factory, name string) *asg.Class {
	return named[*asg.Class](t, f, asg.KindClass, name)
}

func calleeNames(m *asg.Method) []string {
	var out []string
	for _, c := range m.Calls() {
		out = append(out, c.Method.Name())
	}
	return out
}

// =============================================================================
// Go
// =============================================================================

const goSource = `package main

// Greeter says hello.
type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return hello(g.Name)
}

func hello(name string) string {
	if name == "" {
		return "nobody"
	}
	for i := 0; i < 3; i++ {
		name = name + "!"
	}
	return "hello " + name
}
`

func TestBuild_GoDeclarations(t *testing.T) {
	t.Parallel()
	r := build(t, "cmd/main.go", "go", goSource)
	f := r.Factory

	members := f.Root().Members()
	require.Len(t, members, 1)
	pkg, ok := members[0].(*asg.Package)
	require.True(t, ok)
	assert.Equal(t, "cmd/main.go", pkg.Name())

	g := classNamed(t, f, "Greeter")
	assert.Equal(t, asg.ClassKindStruct, g.ClassKind())
	assert.Equal(t, asg.VisibilityPublic, g.Visibility())
	assert.Equal(t, 1, g.CommentsSize())
	require.Len(t, g.Members(), 1)
	assert.Equal(t, "Name", g.Members()[0].Name())

	greet := methodNamed(t, f, "Greet")
	assert.Equal(t, asg.MethodKindMethod, greet.MethodKind())
	require.Len(t, greet.Parameters(), 1)
	assert.Equal(t, asg.ParamKindReceiver, greet.Parameters()[0].ParamKind())

	hello := methodNamed(t, f, "hello")
	assert.Equal(t, asg.MethodKindFunction, hello.MethodKind())
	assert.Equal(t, asg.VisibilityPackage, hello.Visibility())
	require.Len(t, hello.Parameters(), 1)
	assert.Equal(t, "name", hello.Parameters()[0].Name())
	require.NotNil(t, hello.Body())

	stmts := hello.Body().Statements()
	require.Len(t, stmts, 3)
	ifs, ok := stmts[0].(*asg.IfStatement)
	require.True(t, ok)
	cond, ok := ifs.Condition().(*asg.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "==", cond.Operator())
	loop, ok := stmts[1].(*asg.LoopStatement)
	require.True(t, ok)
	assert.Equal(t, asg.LoopKindFor, loop.LoopKind())
	_, ok = stmts[2].(*asg.ReturnStatement)
	assert.True(t, ok)

	pos := hello.Position()
	assert.Equal(t, "cmd/main.go", pos.Path)
	assert.Equal(t, uint32(12), pos.Line)
	assert.Equal(t, uint32(1), pos.Col)
}

func TestResolve_GoCalls(t *testing.T) {
	t.Parallel()
	f, stats := buildResolved(t, "main.go", "go", goSource)

	greet := methodNamed(t, f, "Greet")
	hello := methodNamed(t, f, "hello")
	assert.Equal(t, []string{"hello"}, calleeNames(greet))
	assert.Equal(t, asg.CallKindDirect, greet.Calls()[0].Kind)
	assert.Positive(t, stats.References)
	assert.Equal(t, 1, stats.Calls)

	var call *asg.Call
	for n := range f.NodesOfKind(asg.KindCall) {
		call = n.(*asg.Call)
	}
	require.NotNil(t, call)
	require.NotNil(t, call.Invokes())
	assert.Equal(t, hello.ID(), call.Invokes().ID())

	// the name parameter is referenced from the body of hello
	param := hello.Parameters()[0]
	refs := 0
	for n := range f.NodesOfKind(asg.KindIdentifier) {
		if id := n.(*asg.Identifier); id.RefersTo() != nil && id.RefersTo().ID() == param.ID() {
			refs++
		}
	}
	assert.GreaterOrEqual(t, refs, 3)
}

// =============================================================================
// Python
// =============================================================================

const pySource = `class Animal:
    def speak(self):
        return None


class Dog(Animal):
    def __init__(self, name):
        self.name = name

    def speak(self):
        # delegate
        return bark(self.name)


def bark(x):
    y = x
    y = y + 1
    return y
`

func TestBuild_Python(t *testing.T) {
	t.Parallel()
	f, stats := buildResolved(t, "zoo.py", "python", pySource)

	dog := classNamed(t, f, "Dog")
	animal := classNamed(t, f, "Animal")
	require.Len(t, dog.Extends(), 1)
	assert.Equal(t, animal.ID(), dog.Extends()[0].ID())
	assert.Equal(t, 1, stats.Extends)

	var ctor *asg.Method
	for _, m := range dog.Members() {
		if mm, ok := m.(*asg.Method); ok && mm.Name() == "__init__" {
			ctor = mm
		}
	}
	require.NotNil(t, ctor)
	assert.Equal(t, asg.MethodKindConstructor, ctor.MethodKind())
	require.Len(t, ctor.Parameters(), 2)
	assert.Equal(t, asg.ParamKindReceiver, ctor.Parameters()[0].ParamKind())

	bark := methodNamed(t, f, "bark")
	stmts := bark.Body().Statements()
	require.Len(t, stmts, 3)
	decl, ok := stmts[0].(*asg.LocalDeclaration)
	require.True(t, ok, "first assignment declares y")
	assert.Equal(t, "y", decl.Variable().Name())
	_, ok = stmts[1].(*asg.ExpressionStatement)
	assert.True(t, ok, "second assignment reuses y")

	for _, m := range dog.Members() {
		if mm, ok := m.(*asg.Method); ok && mm.Name() == "speak" {
			assert.Equal(t, []string{"bark"}, calleeNames(mm))
		}
	}
}

// =============================================================================
// Java
// =============================================================================

const javaSource = `public abstract class Shape {
    public abstract double area();
}

class Square extends Shape {
    private double side;

    Square(double side) {
        this.side = side;
    }

    public double area() {
        return side * side;
    }
}
`

func TestBuild_Java(t *testing.T) {
	t.Parallel()
	f, _ := buildResolved(t, "Shape.java", "java", javaSource)

	shape := classNamed(t, f, "Shape")
	square := classNamed(t, f, "Square")
	assert.True(t, shape.IsAbstract())
	assert.Equal(t, asg.VisibilityPublic, shape.Visibility())
	require.Len(t, square.Extends(), 1)
	assert.Equal(t, shape.ID(), square.Extends()[0].ID())

	var field *asg.Variable
	var ctor, area *asg.Method
	for _, m := range square.Members() {
		switch m := m.(type) {
		case *asg.Variable:
			field = m
		case *asg.Method:
			if m.MethodKind() == asg.MethodKindConstructor {
				ctor = m
			} else {
				area = m
			}
		}
	}
	require.NotNil(t, field)
	require.NotNil(t, ctor)
	require.NotNil(t, area)
	assert.Equal(t, "side", field.Name())
	assert.Equal(t, asg.VisibilityPrivate, field.Visibility())
	assert.Equal(t, "Square", ctor.Name())

	ret, ok := area.Body().Statements()[0].(*asg.ReturnStatement)
	require.True(t, ok)
	mul, ok := ret.Value().(*asg.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Operator())
	left, ok := mul.Left().(*asg.Identifier)
	require.True(t, ok)
	require.NotNil(t, left.RefersTo())
	assert.Equal(t, field.ID(), left.RefersTo().ID())

	for _, m := range shape.Members() {
		if mm, ok := m.(*asg.Method); ok {
			assert.True(t, mm.IsAbstract())
			assert.Nil(t, mm.Body())
		}
	}
}

// =============================================================================
// JavaScript
// =============================================================================

const jsSource = `class Base {}

class Child extends Base {
  constructor() {
    super();
  }

  run(n) {
    return helper(n + 1);
  }
}

function helper(x) {
  return x * 2;
}

const twice = (v) => helper(helper(v));
`

func TestBuild_JavaScript(t *testing.T) {
	t.Parallel()
	f, _ := buildResolved(t, "app.js", "javascript", jsSource)

	child := classNamed(t, f, "Child")
	base := classNamed(t, f, "Base")
	require.Len(t, child.Extends(), 1)
	assert.Equal(t, base.ID(), child.Extends()[0].ID())

	kinds := map[string]asg.MethodKind{}
	for _, m := range child.Members() {
		if mm, ok := m.(*asg.Method); ok {
			kinds[mm.Name()] = mm.MethodKind()
		}
	}
	assert.Equal(t, asg.MethodKindConstructor, kinds["constructor"])
	assert.Equal(t, asg.MethodKindMethod, kinds["run"])

	twice := methodNamed(t, f, "twice")
	assert.Equal(t, asg.MethodKindLambda, twice.MethodKind())
	require.Len(t, twice.Parameters(), 1)
	assert.Equal(t, []string{"helper"}, calleeNames(twice), "repeated calls collapse to one edge")

	helper := methodNamed(t, f, "helper")
	for _, m := range child.Members() {
		if mm, ok := m.(*asg.Method); ok && mm.Name() == "run" {
			require.Len(t, mm.Calls(), 1)
			assert.Equal(t, helper.ID(), mm.Calls()[0].Method.ID())
		}
	}
}

// =============================================================================
// Positions
// =============================================================================

func TestRangeOf_WideColumns(t *testing.T) {
	t.Parallel()
	r := build(t, "u.py", "python", "s = \"é😀\"; t = 1\n")
	var tv *asg.Variable
	for n := range r.Factory.NodesOfKind(asg.KindVariable) {
		if v := n.(*asg.Variable); v.Name() == "t" {
			tv = v
		}
	}
	require.NotNil(t, tv)
	pos := tv.Position()
	// "s = \"é😀\"; " is 14 bytes and 11 UTF-16 units
	assert.Equal(t, uint32(15), pos.Col)
	assert.Equal(t, uint32(12), pos.WideCol)
}

func TestBuildFile_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	_, err := buildFile(context.Background(), "a.rb", "ruby", nil, zap.NewNop())
	require.Error(t, err)
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()
	for path, want := range map[string]string{
		"a/b.go": "go", "x.PY": "python", "A.java": "java", "m.mjs": "javascript",
	} {
		got, ok := LanguageForFile(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := LanguageForFile("README.md")
	assert.False(t, ok)

	for _, lang := range Languages() {
		_, ok := ParserForLanguage(lang)
		assert.True(t, ok, lang)
	}
}
