package store

import (
	"database/sql"
	"fmt"
)

const snapshotColumns = "id, name, created_at, api_version, root_id, node_count, digest"

func scanSnapshot(row interface{ Scan(...any) error }) (*Snapshot, error) {
	snap := &Snapshot{}
	var digest sql.NullString
	if err := row.Scan(&snap.ID, &snap.Name, &snap.CreatedAt, &snap.APIVersion, &snap.RootID, &snap.NodeCount, &digest); err != nil {
		return nil, err
	}
	snap.Digest = digest.String
	return snap, nil
}

// Snapshots returns every snapshot, newest first.
func (s *Store) Snapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query("SELECT " + snapshotColumns + " FROM snapshots ORDER BY created_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	defer rows.Close()
	var out []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SnapshotByID returns the snapshot with the given id, or nil.
func (s *Store) SnapshotByID(id string) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot by id: %w", err)
	}
	return snap, nil
}

// SnapshotByName returns the newest snapshot called name, or nil.
func (s *Store) SnapshotByName(name string) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(
		"SELECT "+snapshotColumns+" FROM snapshots WHERE name = ? ORDER BY created_at DESC LIMIT 1", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot by name: %w", err)
	}
	return snap, nil
}

func (s *Store) queryNodes(query string, args ...any) ([]*Node, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Node
	for rows.Next() {
		n := &Node{}
		var parentEdge sql.NullString
		var parent sql.NullInt64
		if err := rows.Scan(&n.ID, &n.Kind, &parent, &parentEdge, &n.Filtered); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.ParentID = uint32(parent.Int64)
		n.ParentEdge = parentEdge.String
		out = append(out, n)
	}
	return out, rows.Err()
}

// SnapshotNodes returns the nodes of a snapshot in id order.
func (s *Store) SnapshotNodes(snapshotID string) ([]*Node, error) {
	nodes, err := s.queryNodes(
		"SELECT id, kind, parent_id, parent_edge, filtered FROM nodes WHERE snapshot_id = ? ORDER BY id", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("snapshot nodes: %w", err)
	}
	return nodes, nil
}

// NodesByKind returns the nodes of a snapshot having one of the given kinds.
func (s *Store) NodesByKind(snapshotID string, kinds ...string) ([]*Node, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	args := append([]any{snapshotID}, stringsToArgs(kinds)...)
	nodes, err := s.queryNodes(
		"SELECT id, kind, parent_id, parent_edge, filtered FROM nodes WHERE snapshot_id = ? AND kind IN ("+
			placeholderList(len(kinds))+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("nodes by kind: %w", err)
	}
	return nodes, nil
}

// SnapshotAttrs returns every attribute row of a snapshot ordered by node.
func (s *Store) SnapshotAttrs(snapshotID string) ([]*Attr, error) {
	rows, err := s.db.Query(
		"SELECT node_id, name, value FROM node_attrs WHERE snapshot_id = ? ORDER BY node_id, name", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("snapshot attrs: %w", err)
	}
	defer rows.Close()
	var out []*Attr
	for rows.Next() {
		a := &Attr{}
		if err := rows.Scan(&a.NodeID, &a.Name, &a.Value); err != nil {
			return nil, fmt.Errorf("scan attr: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) queryEdges(query string, args ...any) ([]*Edge, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Edge
	for rows.Next() {
		e := &Edge{}
		if err := rows.Scan(&e.SourceID, &e.Edge, &e.Ordinal, &e.TargetID, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SnapshotEdges returns every edge of a snapshot, grouped by source and
// edge kind in insertion order.
func (s *Store) SnapshotEdges(snapshotID string) ([]*Edge, error) {
	edges, err := s.queryEdges(
		"SELECT source_id, edge, ordinal, target_id, payload FROM edges WHERE snapshot_id = ? ORDER BY source_id, edge, ordinal",
		snapshotID)
	if err != nil {
		return nil, fmt.Errorf("snapshot edges: %w", err)
	}
	return edges, nil
}

// IncomingEdges returns the edges of a snapshot pointing at target.
func (s *Store) IncomingEdges(snapshotID string, target uint32) ([]*Edge, error) {
	edges, err := s.queryEdges(
		"SELECT source_id, edge, ordinal, target_id, payload FROM edges WHERE snapshot_id = ? AND target_id = ? ORDER BY source_id, edge, ordinal",
		snapshotID, target)
	if err != nil {
		return nil, fmt.Errorf("incoming edges: %w", err)
	}
	return edges, nil
}

// Metadata returns the metadata entries of a snapshot.
func (s *Store) Metadata(snapshotID string) (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM metadata WHERE snapshot_id = ?", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[k] = v.String
	}
	return out, rows.Err()
}
