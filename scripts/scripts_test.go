package scripts_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/runtime"
	"github.com/jward/asg/scripts"
)

// newGraph returns main calling helper, an unused function, a constructor
// and a compiler generated method.
func newGraph(t *testing.T) *asg.Factory {
	t.Helper()
	f := asg.New(asg.WithReverseEdges())
	main := f.NewMethod("main", asg.MethodKindFunction)
	helper := f.NewMethod("helper", asg.MethodKindFunction)
	unused := f.NewMethod("unused", asg.MethodKindFunction)
	ctor := f.NewMethod("init", asg.MethodKindConstructor)
	gen := f.NewMethod("equals", asg.MethodKindMethod)
	gen.SetCompilerGenerated(true)
	require.NoError(t, gen.SetBody(f.NewBlock()))
	for _, m := range []*asg.Method{main, helper, unused, ctor, gen} {
		require.NoError(t, f.Root().AddMember(m))
	}
	require.NoError(t, main.AddCall(helper, asg.CallKindDirect))
	return f
}

func TestEmbeddedScripts(t *testing.T) {
	t.Parallel()
	names, err := fs.Glob(scripts.FS, "*.risor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"call_counts.risor", "graph.risor", "hide_generated.risor", "uncalled.risor"}, names)
}

func TestUncalled(t *testing.T) {
	t.Parallel()
	f := newGraph(t)
	rt := runtime.NewRuntime(f, "", runtime.WithRuntimeFS(scripts.FS))

	got, err := rt.EvalScript(context.Background(), "uncalled.risor", nil)
	require.NoError(t, err)
	// main, unused and equals; the constructor is skipped.
	assert.Equal(t, int64(3), got)
}

func TestHideGenerated(t *testing.T) {
	t.Parallel()
	f := newGraph(t)
	rt := runtime.NewRuntime(f, "", runtime.WithRuntimeFS(scripts.FS))

	got, err := rt.EvalScript(context.Background(), "hide_generated.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	var visible []string
	for n := range f.NodesOfKind(asg.KindMethod) {
		visible = append(visible, n.(*asg.Method).Name())
	}
	assert.Equal(t, []string{"main", "helper", "unused", "init"}, visible)
}

func TestCallCounts(t *testing.T) {
	t.Parallel()
	f := newGraph(t)
	rt := runtime.NewRuntime(f, "", runtime.WithRuntimeFS(scripts.FS))
	require.NoError(t, rt.RunScript(context.Background(), "call_counts.risor", nil))
}

func TestGraphLibrary(t *testing.T) {
	t.Parallel()
	f := newGraph(t)
	rt := runtime.NewRuntime(f, "", runtime.WithRuntimeFS(scripts.FS))

	got, err := rt.Eval(context.Background(), `
import graph
names := []
graph.walk(root(), func(id) {
    n := graph.name_of(id)
    if n != "" {
        names.append(n)
    }
})
[names, graph.owner_of(id, "Package")]
`, map[string]any{"id": int64(f.Root().Members()[0].ID())})
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{"<root>", "main", "helper", "unused", "init", "equals"},
		int64(f.RootID()),
	}, got)
}
