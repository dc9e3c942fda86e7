package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts a buffered snapshot into SQLite within a single
// transaction. The snapshot row goes first so the child rows satisfy
// their FK constraints; its digest and node count are filled in here.
func (s *Store) CommitBatch(batch *Batch) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	snap := &batch.Snapshot
	snap.NodeCount = len(batch.Nodes)
	snap.Digest = ComputeDigest(batch.Nodes, batch.Attrs, batch.Edges)
	if _, err := tx.Exec(
		"INSERT INTO snapshots (id, name, created_at, api_version, root_id, node_count, digest) VALUES (?, ?, ?, ?, ?, ?, ?)",
		snap.ID, snap.Name, snap.CreatedAt, snap.APIVersion, snap.RootID, snap.NodeCount, snap.Digest,
	); err != nil {
		return fmt.Errorf("commit batch: snapshot %q: %w", snap.Name, err)
	}

	if err := execEach(tx,
		"INSERT INTO nodes (snapshot_id, id, kind, parent_id, parent_edge, filtered) VALUES (?, ?, ?, ?, ?, ?)",
		len(batch.Nodes), func(i int) []any {
			n := batch.Nodes[i]
			return []any{snap.ID, n.ID, n.Kind, n.ParentID, n.ParentEdge, n.Filtered}
		}); err != nil {
		return fmt.Errorf("commit batch: nodes: %w", err)
	}

	if err := execEach(tx,
		"INSERT INTO node_attrs (snapshot_id, node_id, name, value) VALUES (?, ?, ?, ?)",
		len(batch.Attrs), func(i int) []any {
			a := batch.Attrs[i]
			return []any{snap.ID, a.NodeID, a.Name, a.Value}
		}); err != nil {
		return fmt.Errorf("commit batch: attrs: %w", err)
	}

	if err := execEach(tx,
		"INSERT INTO edges (snapshot_id, source_id, edge, ordinal, target_id, payload) VALUES (?, ?, ?, ?, ?, ?)",
		len(batch.Edges), func(i int) []any {
			e := batch.Edges[i]
			return []any{snap.ID, e.SourceID, e.Edge, e.Ordinal, e.TargetID, e.Payload}
		}); err != nil {
		return fmt.Errorf("commit batch: edges: %w", err)
	}

	for k, v := range batch.Metadata {
		if _, err := tx.Exec("INSERT INTO metadata (snapshot_id, key, value) VALUES (?, ?, ?)", snap.ID, k, v); err != nil {
			return fmt.Errorf("commit batch: metadata %q: %w", k, err)
		}
	}

	return tx.Commit()
}

// execEach runs one prepared insert n times.
func execEach(tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range n {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return err
		}
	}
	return nil
}
