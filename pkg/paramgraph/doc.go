/*
Package paramgraph implements the parameterization graph, pathway
enumerator, method registry, cache, and orchestrator described for a
derivation-rule engine: given a DAG of OR-logic parameter nodes and
AND-logic merge nodes, plus a concrete input record, it enumerates every
distinct derivation tree to a target quantity, executes each one against
the record, memoizes shared sub-derivations within a run, and returns
per-pathway results with full provenance and cache statistics.

The package is organized the way the teacher module organizes its `model`
package: one package, many files split by concern (graph.go, methodspec.go,
record.go, registry.go, enumerator.go, engine.go, trace.go, errors.go),
because every type here crosses the library's public boundary and splitting
across `internal/` sub-packages would just relocate, not reduce, the
coupling between them. Implementation details that do not need to be part
of that boundary — the run-scoped cache, structured logging, and stable
pathway-ID formatting — live under internal/ and are wired in from engine.go.
*/
package paramgraph
