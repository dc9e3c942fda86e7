package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteText_OnlyASGFamilies(t *testing.T) {
	NodesCreated.WithLabelValues("Block").Inc()
	NodesDeleted.Inc()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "asg_nodes_created_total")
	assert.Contains(t, out, `kind="Block"`)
	assert.Contains(t, out, "asg_nodes_deleted_total")
	assert.NotContains(t, out, "go_goroutines")
}
