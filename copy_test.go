package asg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapStringTable(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	before := Hash(s.pkg)

	shared := NewStrTable()
	pre := shared.Set("unrelated")
	s.f.SwapStringTable(shared)

	assert.Same(t, shared, s.f.StringTable())
	assert.Equal(t, "helper", s.helper.Name())
	assert.Equal(t, "// entry point", s.note.Text())
	assert.Equal(t, "unrelated", shared.String(pre))
	k, ok := shared.Lookup("main")
	require.True(t, ok)
	assert.Equal(t, k, s.main.NameKey())
	assert.Equal(t, before, Hash(s.pkg))

	s.f.SwapStringTable(shared)
	assert.Equal(t, "helper", s.helper.Name(), "swapping in the same table is a no-op")
}

func TestCopySubtree(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	dst := New(WithReverseEdges())

	id, m, err := CopySubtree(dst, s.f, s.main.ID())
	require.NoError(t, err)
	main := dst.view(id).(*Method)
	assert.Equal(t, "main", main.Name())
	assert.Nil(t, main.Parent(), "the copy is detached")

	// helper is pulled in through main's call edges together with its own
	// subtree, and the call keeps its payload.
	calls := main.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "helper", calls[0].Method.Name())
	assert.Equal(t, CallKindDirect, calls[0].Kind)
	assert.Equal(t, m[s.helper.ID()], calls[0].Method.ID())
	assert.Equal(t, 1, calls[0].Method.ParametersSize())
	assert.Equal(t, Hash(s.helper), Hash(calls[0].Method))
	assert.Equal(t, Hash(s.main), Hash(main))

	// The comment comes along, the unrelated class does not.
	assert.Len(t, m, 14)
	require.Len(t, main.Comments(), 1)
	assert.Equal(t, "// entry point", main.Comments()[0].Text())
	_, ok := m[s.shape.ID()]
	assert.False(t, ok)
	for src, cp := range m {
		assert.Equal(t, s.f.view(src).Kind(), dst.view(cp).Kind())
	}
	reverseConsistent(t, dst)

	_, _, err = CopySubtree(dst, s.f, s.f.RootID())
	assert.ErrorIs(t, err, ErrInvalidNodeID)
	_, _, err = CopySubtree(dst, s.f, 999)
	assert.ErrorIs(t, err, ErrInvalidNodeID)
}

func TestCopySubtree_AssociationTargetsOnly(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	require.NoError(t, s.helper.AddCall(s.area, CallKindVirtual))

	dst := New()
	_, m, err := CopySubtree(dst, s.f, s.helper.ID())
	require.NoError(t, err)
	assert.Len(t, m, 8, "helper's subtree and the called method")

	area, ok := m[s.area.ID()]
	require.True(t, ok)
	assert.Nil(t, dst.view(area).Parent())
	_, ok = m[s.shape.ID()]
	assert.False(t, ok, "owners of association targets are left behind")
}

func TestMerge(t *testing.T) {
	t.Parallel()
	a := newSample(t)
	b := New(WithReverseEdges())
	q := b.NewPackage("q")
	require.NoError(t, b.Root().AddMember(q))
	require.NoError(t, b.Filter().SetFiltered(q.ID()))

	m, err := Merge(b, a.f)
	require.NoError(t, err)
	assert.Equal(t, b.RootID(), m[a.f.RootID()])
	assert.Equal(t, 1+1+a.f.Len()-1, b.Len())

	b.Filter().Clear()
	members := b.Root().Members()
	require.Len(t, members, 2)
	assert.Equal(t, "q", members[0].Name())
	assert.Equal(t, "p", members[1].Name())
	assert.Equal(t, Hash(a.pkg), Hash(members[1]))
	reverseConsistent(t, b)

	assert.Equal(t, "helper", b.view(m[a.helper.ID()]).(*Method).Name())

	_, err = Merge(b, b)
	assert.ErrorIs(t, err, ErrFactoryMismatch)
}

func TestMerge_KeepsFilter(t *testing.T) {
	t.Parallel()
	a := newSample(t)
	require.NoError(t, a.f.Filter().SetFiltered(a.shape.ID()))

	b := New()
	m, err := Merge(b, a.f)
	require.NoError(t, err)
	assert.True(t, b.IsFiltered(m[a.shape.ID()]))
	assert.True(t, b.IsFiltered(m[a.area.ID()]))
	assert.False(t, b.IsFiltered(m[a.main.ID()]))
}
