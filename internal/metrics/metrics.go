// Package metrics holds the Prometheus collectors shared by the ASG engine,
// the front end and the CLI.
package metrics

import (
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	// NodesCreated counts arena allocations by node kind.
	NodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asg_nodes_created_total",
		Help: "Nodes allocated in factory arenas, by kind",
	}, []string{"kind"})

	// NodesDeleted counts arena slots released by deletes.
	NodesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asg_nodes_deleted_total",
		Help: "Nodes released by cascade deletes",
	})

	// EdgeMutations counts forward edge changes by operation.
	EdgeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asg_edge_mutations_total",
		Help: "Forward edge mutations by operation (link, unlink)",
	}, []string{"op"})

	// PersistBytes counts bytes written or read by save/load.
	PersistBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asg_persist_bytes_total",
		Help: "Bytes moved by binary save and load",
	}, []string{"op"})

	// PersistDuration tracks save/load latency.
	PersistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asg_persist_duration_seconds",
		Help:    "Binary save/load duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"op"})

	// FrontendFiles counts front-end files by outcome (parsed, cached, failed).
	FrontendFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asg_frontend_files_total",
		Help: "Source files processed by the front end, by outcome",
	}, []string{"outcome"})
)

// WriteText dumps every registered metric family whose name starts with
// "asg_" in the Prometheus text exposition format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "asg_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
