package paramgraph

import "errors"

// Fatal, construction-time faults (spec §7). These are returned as Go
// errors, never surfaced through a trace, and are meant to be matched with
// errors.Is by callers that want to distinguish them programmatically.
var (
	ErrDuplicateName   = errors.New("paramgraph: duplicate node name")
	ErrMissingNode     = errors.New("paramgraph: missing node")
	ErrInvalidEdge     = errors.New("paramgraph: invalid edge")
	ErrUnknownNode     = errors.New("paramgraph: unknown node")
	ErrSealedGraph     = errors.New("paramgraph: graph is sealed")
	ErrInvalidGraph    = errors.New("paramgraph: graph fails structural invariants")
	ErrDuplicateMethod = errors.New("paramgraph: duplicate method")
	ErrUnknownTarget   = errors.New("paramgraph: unknown target parameter")
	ErrGraphNotSealed  = errors.New("paramgraph: graph not sealed")
	ErrNoSuchPathway   = errors.New("paramgraph: no derivation tree matches the given method map")
)
