package paramgraph

import "github.com/vk/paramgraph/internal/cache"

// ExecutionConfig controls one execute_all / execute_single run.
type ExecutionConfig struct {
	// IncludeMethodUncertainty is forwarded to every callable as
	// CallFlags.IncludeMethodUncertainty (spec §4.3 step 5).
	IncludeMethodUncertainty bool
}

// StepTrace records one method invocation performed while walking a
// derivation tree: which (parameter, method) it was, at which sub-record
// (SubIndex -1 for a Slab-level or record-level step), whether it was
// served from cache, and its outcome.
type StepTrace struct {
	Parameter    string
	Method       string
	SubIndex     int
	CacheHit     bool
	Success      bool
	Value        UncertainValue
	Failure      *Failure
	InputSummary map[string]string
}

// ComputationTrace is the ordered sequence of steps taken to evaluate one
// pathway, in the topological order they executed.
type ComputationTrace struct {
	Steps []StepTrace
}

// PathwayResult is the outcome of executing one derivation tree against one
// record: spec §12 treats a pathway with zero successful target steps as a
// failed pathway even when no individual step reports a Failure (e.g. an
// empty record with no sub-records at all).
type PathwayResult struct {
	Fingerprint string
	Description string
	Methods     map[string]string
	Record      *Record
	Success     bool
	Values      []UncertainValue
	Trace       ComputationTrace
	Warnings    []string
	Failure     *Failure
}

// ExecutionResults is the outcome of execute_all: the source record, one
// PathwayResult per distinct derivation tree keyed by its description (spec
// §6's "map pathway_description -> PathwayResult, keyed by description
// (unique)"), aggregate pathway counts, and the run-scoped cache's final
// statistics.
type ExecutionResults struct {
	Target       string
	SourceRecord *Record
	Pathways     map[string]*PathwayResult
	Total        uint32
	Successful   uint32
	Failed       uint32
	CacheStats   cache.Stats
}

// PathwayInfo describes one derivation tree without executing it, the
// output of list_pathways (spec §12: pathway descriptions are derivable
// from the graph alone).
type PathwayInfo struct {
	Fingerprint string
	Description string
	Methods     map[string]string
}
