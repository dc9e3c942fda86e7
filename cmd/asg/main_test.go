package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg"
)

// The commands share package-level flag variables, so these tests run
// sequentially.

const projectSource = `package calc

func addOne(x int) int {
	return x + 1
}

func addTwo(y int) int {
	return y + 2
}

func show() {
	println("hi")
}
`

// resetFlags puts every flag back to its default so one test's flags do
// not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	errorHandled = false
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type envelope struct {
	Command string          `json:"command"`
	Results json.RawMessage `json:"results"`
	Error   string          `json:"error"`
}

func executeJSON(t *testing.T, v any, args ...string) envelope {
	t.Helper()
	out, err := execute(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Results, v))
	}
	return env
}

// buildProject writes files below a temp dir, builds it and returns the
// ASG path.
func buildProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, "src", rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	out := filepath.Join(dir, "project.asg")

	var b CLIBuild
	executeJSON(t, &b, "build", filepath.Join(dir, "src"), "-o", out)
	require.Empty(t, b.Failed)
	require.Equal(t, len(files), b.Files)
	return out
}

func methodID(t *testing.T, path, name string) asg.NodeID {
	t.Helper()
	f, err := asg.LoadFile(path)
	require.NoError(t, err)
	for n := range f.NodesOfKind(asg.KindMethod) {
		if n.(*asg.Method).Name() == name {
			return n.ID()
		}
	}
	t.Fatalf("method %s not found", name)
	return 0
}

// =============================================================================
// Build & inspection
// =============================================================================

func TestBuild_InfoStatsDump(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})

	var entries []CLIHeaderEntry
	executeJSON(t, &entries, "info", path)
	header := map[string]string{}
	for _, e := range entries {
		header[e.Key] = e.Value
	}
	assert.Equal(t, asg.APIVersion, header["APIVersion"])

	var stats CLIStats
	executeJSON(t, &stats, "stats", path)
	assert.Equal(t, 3, stats.ByKind["Method"])
	assert.Greater(t, stats.Nodes, 10)

	out, err := execute(t, "dump", path, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, `Name="addOne"`)
	assert.Contains(t, out, "calc/calc.go")

	out, err = execute(t, "dump", path, "--depth", "1", "--format", "text")
	require.NoError(t, err)
	assert.NotContains(t, out, `Name="addOne"`)
}

func TestStats_Metrics(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})

	out, err := execute(t, "stats", path, "--metrics", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "ASG Statistics")
	assert.Contains(t, out, "asg_persist_duration_seconds")

	_, err = execute(t, "stats", path, "--metrics", "--format", "json")
	require.Error(t, err)
}

func TestInfo_YAML(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})

	out, err := execute(t, "info", path, "--format", "yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "command: info"), out)
}

// =============================================================================
// Comparison
// =============================================================================

func TestClones(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})

	var groups []CLICloneGroup
	executeJSON(t, &groups, "clones", path, "--kind", "Method", "--min-size", "1")
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Nodes, 2)
	assert.Equal(t, "addOne", groups[0].Nodes[0].Name)
	assert.Equal(t, "addTwo", groups[0].Nodes[1].Name)
	assert.Greater(t, groups[0].Size, 4)
}

func TestSimilar(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})
	id := methodID(t, path, "addOne")

	var matches []CLISimilar
	executeJSON(t, &matches, "similar", path, strconv.FormatUint(uint64(id), 10))
	require.Len(t, matches, 1)
	assert.Equal(t, "addTwo", matches[0].Name)
	assert.Greater(t, matches[0].Score, 0.0)
	assert.LessOrEqual(t, matches[0].Score, 1.0)
}

func TestSimilar_BadID(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})
	_, err := execute(t, "similar", path, "abc", "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}

// =============================================================================
// Filter
// =============================================================================

func TestFilter(t *testing.T) {
	path := buildProject(t, map[string]string{
		"a/x.go": "package a\n\nfunc X() {}\n",
		"b/y.go": "package b\n\nfunc Y() {}\n",
	})
	rules := filepath.Join(t.TempDir(), "rules.flt")
	require.NoError(t, os.WriteFile(rules, []byte("-^b/\n"), 0o644))
	reduced := filepath.Join(t.TempDir(), "reduced.asg")
	state := filepath.Join(t.TempDir(), "state.bin")

	var res CLIFilter
	executeJSON(t, &res, "filter", path, rules, "-o", reduced, "--state", state)
	assert.Equal(t, 2, res.Packages)
	assert.Equal(t, 1, res.Filtered)
	assert.FileExists(t, state)

	var stats CLIStats
	executeJSON(t, &stats, "stats", reduced)
	assert.Equal(t, 1, stats.ByKind["Method"])
}

// =============================================================================
// Snapshots
// =============================================================================

func TestExportImport(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})
	db := filepath.Join(t.TempDir(), "snapshots.db")

	var snap CLISnapshot
	executeJSON(t, &snap, "export", path, "--db", db, "--name", "calc")
	assert.Equal(t, "calc", snap.Name)
	assert.NotEmpty(t, snap.ID)

	var list []CLISnapshot
	executeJSON(t, &list, "import", "--db", db, "--list")
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	restored := filepath.Join(t.TempDir(), "restored.asg")
	var imp CLIImport
	executeJSON(t, &imp, "import", "calc", "--db", db, "-o", restored)
	assert.Equal(t, snap.ID, imp.Snapshot)
	assert.Equal(t, snap.Nodes, imp.Nodes)

	var before, after CLIStats
	executeJSON(t, &before, "stats", path)
	executeJSON(t, &after, "stats", restored)
	assert.Equal(t, before.ByKind, after.ByKind)
	assert.Equal(t, before.ByEdge, after.ByEdge)
}

func TestImport_Missing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")
	_, err := execute(t, "import", "nope", "--db", db, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}

// =============================================================================
// Scripts
// =============================================================================

func TestScript_Embedded(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})

	var res CLIScript
	executeJSON(t, &res, "script", path, "uncalled.risor")
	assert.Equal(t, float64(3), res.Result)
}

func TestScript_FromDiskWithOutput(t *testing.T) {
	path := buildProject(t, map[string]string{"calc/calc.go": projectSource})
	dir := t.TempDir()
	script := filepath.Join(dir, "rename.risor")
	require.NoError(t, os.WriteFile(script, []byte(`
for _, id := range nodes("Method") {
    set_attr(id, "Name", "m" + attr(id, "Name"))
}
len(nodes("Method"))
`), 0o644))
	out := filepath.Join(dir, "renamed.asg")

	var res CLIScript
	executeJSON(t, &res, "script", path, script, "-o", out)
	assert.Equal(t, float64(3), res.Result)
	assert.NotZero(t, methodID(t, out, "maddOne"))
}

// =============================================================================
// Flags & errors
// =============================================================================

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "info", "x.asg", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestOutputError_JSONEnvelope(t *testing.T) {
	out, err := execute(t, "stats", filepath.Join(t.TempDir(), "missing.asg"), "--format", "json")
	require.Error(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "stats", env.Command)
	assert.Contains(t, env.Error, "missing.asg")
}

func TestResolveTargetDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = resolveTargetDir([]string{file})
	require.Error(t, err)
	_, err = resolveTargetDir([]string{filepath.Join(dir, "nope")})
	require.Error(t, err)
}
