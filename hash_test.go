package asg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incr builds `func name(p) { return p + 1 }` under pkg.
func incr(t *testing.T, f *Factory, pkg *Package, name string) *Method {
	t.Helper()
	m := f.NewMethod(name, MethodKindFunction)
	p := f.NewParameter("p", ParamKindNormal)
	require.NoError(t, m.AddParameter(p))
	ref := f.NewIdentifier("p")
	require.NoError(t, ref.SetRefersTo(p))
	bin := f.NewBinaryExpr("+")
	require.NoError(t, bin.SetLeft(ref))
	require.NoError(t, bin.SetRight(f.NewLiteral(LiteralKindNumber, "1")))
	ret := f.NewReturnStatement()
	require.NoError(t, ret.SetValue(bin))
	body := f.NewBlock()
	require.NoError(t, body.AddStatement(ret))
	require.NoError(t, m.SetBody(body))
	require.NoError(t, pkg.AddMember(m))
	return m
}

func TestHash_IgnoresNames(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	other := incr(t, s.f, s.pkg, "other")

	assert.Equal(t, Hash(s.helper), Hash(other))
	assert.NotEqual(t, Hash(s.helper), Hash(s.main))
	assert.Equal(t, uint32(0), Hash(nil))

	h, err := s.f.Hash(other.ID())
	require.NoError(t, err)
	assert.Equal(t, Hash(other), h)
	_, err = s.f.Hash(999)
	assert.ErrorIs(t, err, ErrInvalidNodeID)
}

func TestHash_InvalidatedByChildChange(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	before := Hash(s.helper)
	pkgBefore := Hash(s.pkg)

	s.plus.SetOperator("-")
	assert.NotEqual(t, before, Hash(s.helper), "owners see the new operator")
	assert.NotEqual(t, pkgBefore, Hash(s.pkg))

	s.plus.SetOperator("+")
	assert.Equal(t, before, Hash(s.helper))
	assert.Equal(t, pkgBefore, Hash(s.pkg))
}

func TestHash_StructuralEdits(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	before := Hash(s.helper)

	require.NoError(t, s.helper.AddParameter(s.f.NewParameter("y", ParamKindNormal)))
	withParam := Hash(s.helper)
	assert.NotEqual(t, before, withParam)

	// Association edges do not contribute.
	require.NoError(t, s.helper.AddCall(s.main, CallKindDirect))
	assert.Equal(t, withParam, Hash(s.helper))
}

func TestCloneGroups(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	a := incr(t, s.f, s.pkg, "a")
	b := incr(t, s.f, s.pkg, "b")

	groups := CloneGroups(s.f, KindMethod, 3)
	require.Len(t, groups, 1)
	assert.Equal(t, []NodeID{s.helper.ID(), a.ID(), b.ID()}, groups[0])

	assert.Empty(t, CloneGroups(s.f, KindMethod, 100), "subtrees are too small")

	require.NoError(t, s.f.Filter().SetFiltered(a.ID()))
	groups = CloneGroups(s.f, KindMethod, 3)
	require.Len(t, groups, 1)
	assert.Equal(t, []NodeID{s.helper.ID(), b.ID()}, groups[0])
}
