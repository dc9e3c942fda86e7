package frontend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/cache"
	"github.com/jward/asg/internal/pathfilter"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, src := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

var projectFiles = map[string]string{
	"app/main.go": "package main\n\nfunc main() {\n\trun()\n}\n",
	"app/run.go":  "package main\n\nfunc run() {}\n",
	"lib/util.py": "def util():\n    return 1\n",
	"web/app.js":  "function start() { return 0; }\n",
	"README.md":   "# not source\n",
	"vendor/x.go": "package x\n",
	".hidden/y.go": "package y\n",
	"node_modules/z.js": "var z = 1;\n",
}

// =============================================================================
// Discovery
// =============================================================================

func TestDiscover_SkipsHiddenAndVendor(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)

	paths, err := New().Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/main.go", "app/run.go", "lib/util.py", "web/app.js"}, paths)
}

func TestDiscover_IncludeExclude(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)

	paths, err := New(WithInclude("**/*.go", "**/*.py"), WithExclude("lib/**")).Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/main.go", "app/run.go"}, paths)
}

// =============================================================================
// Build
// =============================================================================

func TestBuildDirectory_MergesAndResolves(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)

	res, err := New(WithWorkers(2), WithReverseEdges()).BuildDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, res.Failed)
	assert.Len(t, res.Files, 4)
	f := res.Factory

	var pkgs []string
	for _, m := range f.Root().Members() {
		pkgs = append(pkgs, m.Name())
	}
	assert.Equal(t, res.Files, pkgs, "packages are merged in path order")

	// main in one file calls run declared in another
	main := methodNamed(t, f, "main")
	run := methodNamed(t, f, "run")
	require.Len(t, main.Calls(), 1)
	assert.Equal(t, run.ID(), main.Calls()[0].Method.ID())
	assert.Equal(t, 1, res.Resolve.Calls)

	assert.True(t, f.HasReverseEdges())
	callers, err := f.ReverseEdges(run.ID(), asg.EdgeMethodCalls)
	require.NoError(t, err)
	assert.Equal(t, []asg.NodeID{main.ID()}, callers)
}

func TestBuild_MissingFileReported(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)

	res, err := New().Build(context.Background(), root, []string{"app/run.go", "app/gone.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/run.go"}, res.Files)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "app/gone.go", res.Failed[0].Path)
}

func TestBuild_CacheReuse(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"a.py": "class A:\n    pass\n\nclass B(A):\n    def go(self):\n        return helper()\n\ndef helper():\n    return 2\n",
		"b.go": "package b\n\nfunc F() int { return 1 }\n",
	})
	c, err := cache.Open("", nil)
	require.NoError(t, err)
	defer c.Close()

	fe := New(WithCache(c))
	first, err := fe.BuildDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Cached)

	second, err := fe.BuildDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Cached)

	assert.Equal(t, first.Factory.Len(), second.Factory.Len())
	assert.Equal(t, first.Resolve, second.Resolve)
	assert.Equal(t, 1, second.Resolve.Extends, "base names survive the cache")

	h1, err := first.Factory.Hash(first.Factory.RootID())
	require.NoError(t, err)
	h2, err := second.Factory.Hash(second.Factory.RootID())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// an edit invalidates only that file
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package b\n\nfunc G() {}\n"), 0o644))
	third, err := fe.BuildDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Cached)
	methodNamed(t, third.Factory, "G")
}

func TestBuild_PathFilter(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)
	pf, err := pathfilter.Parse(strings.NewReader("-^lib/\n-^web/\n+^web/app\\.js$\n"))
	require.NoError(t, err)

	res, err := New(WithPathFilter(pf)).BuildDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Filtered)

	f := res.Factory
	for n := range f.NodesOfKind(asg.KindMethod) {
		assert.NotEqual(t, "util", n.(*asg.Method).Name(), "filtered methods are hidden")
	}
	start := methodNamed(t, f, "start")
	assert.False(t, f.IsFiltered(start.ID()))

	restore := f.Filter().TurnOffSafely()
	util := methodNamed(t, f, "util")
	restore()
	assert.Equal(t, asg.Filtered, f.Filter().State(util.ID()), "filtering a package hides its subtree")
}

func TestBuild_Canceled(t *testing.T) {
	t.Parallel()
	root := writeTree(t, projectFiles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().BuildDirectory(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}
