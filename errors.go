package asg

import "errors"

// Sentinel errors. Operations wrap them with context; match with errors.Is.
var (
	ErrInvalidNodeID           = errors.New("invalid node id")
	ErrInvalidNodeKind         = errors.New("invalid node kind")
	ErrInvalidEdgeKind         = errors.New("edge kind not valid for node")
	ErrInvalidAttr             = errors.New("attribute not valid for node")
	ErrFactoryMismatch         = errors.New("nodes belong to different factories")
	ErrCannotClearRequiredEdge = errors.New("cannot clear ownership edge with set; use remove")
	ErrReverseEdgesNotEnabled  = errors.New("reverse edges not enabled")
	ErrSchemaVersionMismatch   = errors.New("schema version mismatch")
	ErrCorruptFile             = errors.New("corrupt file")
	ErrEdgeNotFound            = errors.New("edge not found")
	ErrOwnershipCycle          = errors.New("ownership edge would create a cycle")
	ErrStaleHandle             = errors.New("stale node handle")
)
