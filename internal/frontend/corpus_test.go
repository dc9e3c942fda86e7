package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg"
)

// corpusDir holds small Go programs, one per directory, each exercising a
// language feature the front end has to survive.
const corpusDir = "../../testdata/go"

func corpusCases(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(corpusDir)
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	require.NotEmpty(t, dirs)
	return dirs
}

// TestCorpus builds every corpus program and checks the structural
// invariants any front-end output must hold.
func TestCorpus(t *testing.T) {
	t.Parallel()
	for _, name := range corpusCases(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			src := filepath.Join(corpusDir, name, "src")

			res, err := New(WithReverseEdges()).BuildDirectory(context.Background(), src)
			require.NoError(t, err)
			require.Empty(t, res.Failed)
			require.NotEmpty(t, res.Files)
			f := res.Factory

			methods := 0
			for n := range f.Nodes() {
				switch n.Kind() {
				case asg.KindClass, asg.KindMethod, asg.KindParameter:
					assert.NotNil(t, n.Parent(), "node %d (%s) has no owner", n.ID(), n.Kind())
				}
				if n.Kind() != asg.KindMethod {
					continue
				}
				methods++
				callees, err := f.Edges(n.ID(), asg.EdgeMethodCalls)
				require.NoError(t, err)
				for _, c := range callees {
					kind, err := f.Kind(c)
					require.NoError(t, err)
					assert.Equal(t, asg.KindMethod, kind)

					callers, err := f.ReverseEdges(c, asg.EdgeMethodCalls)
					require.NoError(t, err)
					assert.Contains(t, callers, n.ID())
				}
			}
			assert.Positive(t, methods)

			path := filepath.Join(t.TempDir(), "corpus.asg")
			require.NoError(t, f.SaveFile(path))
			loaded, err := asg.LoadFile(path)
			require.NoError(t, err)
			want, got := f.Stats(), loaded.Stats()
			assert.Equal(t, want.Nodes, got.Nodes)
			assert.Equal(t, want.ByKind, got.ByKind)
			assert.Equal(t, want.ByEdge, got.ByEdge)
		})
	}
}

func TestCorpus_Deterministic(t *testing.T) {
	t.Parallel()
	src := filepath.Join(corpusDir, "level-08-multi-file-interfaces", "src")

	hashes := func(workers int) map[string]uint32 {
		res, err := New(WithWorkers(workers)).BuildDirectory(context.Background(), src)
		require.NoError(t, err)
		out := map[string]uint32{}
		for n := range res.Factory.NodesOfKind(asg.KindMethod) {
			m := n.(*asg.Method)
			out[m.Name()] = asg.Hash(m)
		}
		return out
	}
	assert.Equal(t, hashes(1), hashes(4))
}
